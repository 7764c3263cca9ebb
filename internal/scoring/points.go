package scoring

import (
	"fmt"

	"greentrack/pkg/types"
)

const (
	highConfidenceThreshold = 80
	highConfidenceBonus     = 2
	geoTagBonus             = 2
)

var basePoints = map[types.WasteCategory]int{
	types.WastePlastic:   10,
	types.WasteOrganic:   6,
	types.WastePaper:     8,
	types.WasteMetal:     12,
	types.WasteGlass:     15,
	types.WasteEwaste:    20,
	types.WasteHazardous: 25,
	types.WasteTextile:   8,
	types.WasteGeneral:   5,
}

// BasePoints returns the fixed award for a category.
func BasePoints(category types.WasteCategory) (int, error) {
	points, ok := basePoints[category]
	if !ok {
		return 0, fmt.Errorf("%w: no base points for waste type %q", types.ErrConfiguration, category)
	}
	return points, nil
}

// EntryPoints scores a single detected waste entry.
func EntryPoints(waste types.DetectedWaste) (int, error) {
	points, err := BasePoints(waste.Type)
	if err != nil {
		return 0, err
	}

	if waste.Confidence > highConfidenceThreshold {
		points += highConfidenceBonus
	}

	return points, nil
}

// ScanPoints is the total award for a scan. It is computed once, when the scan
// is created, and stored with the record.
func ScanPoints(wastes []types.DetectedWaste, geoTagged bool) (int, error) {
	total := 0
	for _, waste := range wastes {
		points, err := EntryPoints(waste)
		if err != nil {
			return 0, err
		}
		total += points
	}

	if geoTagged {
		total += geoTagBonus
	}

	return total, nil
}
