package classifier

import (
	"fmt"
	"image"
	"math"
	"sort"

	"greentrack/internal/utils"
	"greentrack/pkg/types"
)

const (
	HeuristicModelVersion = "heuristic-1.0"
	RemoteModelVersion    = "remote-ml-1.0"

	maxDetections      = 2
	minConfidence      = 40
	maxConfidence      = 95
	fallbackConfidence = 25
)

// rankThresholds is the share a category must exceed to be reported at each rank.
var rankThresholds = [maxDetections]float64{3, 2}

// Result is a ranked classification of one image.
type Result struct {
	WasteTypes        []types.DetectedWaste
	PrimaryType       types.WasteCategory
	OverallConfidence int
	Analysis          types.ScanAnalysis
}

type share struct {
	category   types.WasteCategory
	percentage float64
}

// Classify ranks the categories found in f. It never returns an empty list:
// when nothing clears its threshold a single low-confidence general entry is
// reported instead.
func Classify(f *Features) ([]types.DetectedWaste, error) {
	if f == nil || f.TotalPixels == 0 {
		return nil, fmt.Errorf("%w: image has no pixels", types.ErrInvalidInput)
	}

	shares := make([]share, 0, len(types.WasteCategories))
	for _, c := range types.WasteCategories {
		if c == types.WasteGeneral {
			continue
		}
		shares = append(shares, share{category: c, percentage: f.Percentage(c)})
	}

	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].percentage > shares[j].percentage
	})

	detected := make([]types.DetectedWaste, 0, maxDetections)
	for i := 0; i < maxDetections && i < len(shares); i++ {
		s := shares[i]
		if s.percentage <= rankThresholds[i] {
			continue
		}

		detected = append(detected, types.DetectedWaste{
			Type:       s.category,
			Confidence: confidence(s, f),
			Percentage: utils.RoundFloat64(s.percentage, 1),
		})
	}

	if len(detected) == 0 {
		detected = append(detected, types.DetectedWaste{
			Type:       types.WasteGeneral,
			Confidence: fallbackConfidence,
			Percentage: 0,
		})
	}

	return detected, nil
}

func confidence(s share, f *Features) int {
	c := math.Min(maxConfidence, 35+s.percentage*2.5)
	c += textureBonus(s.category, f)
	c = math.Max(minConfidence, math.Min(maxConfidence, c))
	return int(math.Round(c))
}

// textureBonus adds confidence when the surface texture agrees with the colour evidence.
func textureBonus(c types.WasteCategory, f *Features) float64 {
	switch c {
	case types.WastePlastic:
		if f.TextureComplexity < 20 {
			return 12
		}
	case types.WasteMetal:
		if f.EdgeCount > 10 || f.BrightnessVariation > 30 {
			return 25
		}
	case types.WasteOrganic:
		if f.TextureComplexity > 25 {
			return 15
		}
	case types.WastePaper:
		if f.BrightnessVariation < 40 || f.MeanBrightness > 170 {
			return 18
		}
	case types.WasteGlass:
		if f.BrightnessVariation > 30 || f.MeanBrightness > 150 {
			return 20
		}
	case types.WasteEwaste:
		if f.EdgeCount > 15 {
			return 12
		}
	}
	return 0
}

// Analyze runs feature extraction and classification over a decoded image.
func Analyze(img image.Image) (*Result, error) {
	features, err := Extract(img)
	if err != nil {
		return nil, err
	}

	detected, err := Classify(features)
	if err != nil {
		return nil, err
	}

	return &Result{
		WasteTypes:        detected,
		PrimaryType:       detected[0].Type,
		OverallConfidence: detected[0].Confidence,
		Analysis:          analysisOf(features),
	}, nil
}

func analysisOf(f *Features) types.ScanAnalysis {
	colors := make(map[types.WasteCategory]int, len(types.WasteCategories))
	for _, c := range types.WasteCategories {
		if c == types.WasteGeneral {
			continue
		}
		colors[c] = int(math.Round(f.Percentage(c)))
	}

	return types.ScanAnalysis{
		ImageSize:           fmt.Sprintf("%dx%d", f.SourceWidth, f.SourceHeight),
		TextureComplexity:   int(math.Round(f.TextureComplexity)),
		EdgeCount:           int(math.Round(f.EdgeCount)),
		BrightnessVariation: int(math.Round(f.BrightnessVariation)),
		ColorAnalysis:       colors,
		ModelVersion:        HeuristicModelVersion,
		Source:              SourceHeuristic,
	}
}
