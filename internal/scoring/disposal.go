package scoring

import (
	"errors"
	"fmt"

	"greentrack/pkg/types"
)

type disposal struct {
	recommendation      string
	binColor            string
	specialInstructions string
}

var disposals = map[types.WasteCategory]disposal{
	types.WastePlastic: {
		recommendation:      "Clean thoroughly and place in blue recycling bin",
		binColor:            "blue",
		specialInstructions: "Remove labels if possible. Rinse containers to remove food residue.",
	},
	types.WasteOrganic: {
		recommendation:      "Compost at home or use green bin for organic waste collection",
		binColor:            "green",
		specialInstructions: "Separate from packaging. Can be used for home composting.",
	},
	types.WastePaper: {
		recommendation:      "Remove any plastic coating and place in paper recycling bin",
		binColor:            "blue",
		specialInstructions: "Keep dry and clean. Remove staples and plastic windows.",
	},
	types.WasteMetal: {
		recommendation:      "Clean and take to scrap dealer or metal recycling center",
		binColor:            "gray",
		specialInstructions: "Remove labels. Aluminum cans are highly valuable for recycling.",
	},
	types.WasteGlass: {
		recommendation:      "Clean and place in glass recycling bin",
		binColor:            "white",
		specialInstructions: "Handle carefully. Separate by color if required in your area.",
	},
	types.WasteEwaste: {
		recommendation:      "Take to authorized e-waste collection center",
		binColor:            "red",
		specialInstructions: "Remove personal data first. Never dispose in regular trash.",
	},
	types.WasteHazardous: {
		recommendation:      "Take to a municipal hazardous waste drop-off point",
		binColor:            "red",
		specialInstructions: "Keep in the original container with the lid closed. Never pour down drains or mix chemicals.",
	},
	types.WasteTextile: {
		recommendation:      "Donate wearable items or use a textile collection bank",
		binColor:            "yellow",
		specialInstructions: "Wash and dry before donating. Bag worn out fabric separately for recycling.",
	},
	types.WasteGeneral: {
		recommendation:      "Place in the general waste bin",
		binColor:            "black",
		specialInstructions: "Check for recyclable parts before disposing. Bag loose items.",
	},
}

// Recommend returns one disposal recommendation per detected entry, in order.
func Recommend(wastes []types.DetectedWaste) ([]types.DisposalRecommendation, error) {
	out := make([]types.DisposalRecommendation, 0, len(wastes))
	for _, waste := range wastes {
		d, ok := disposals[waste.Type]
		if !ok {
			return nil, fmt.Errorf("%w: no disposal guidance for waste type %q", types.ErrConfiguration, waste.Type)
		}
		out = append(out, types.DisposalRecommendation{
			WasteType:           waste.Type,
			Recommendation:      d.recommendation,
			BinColor:            d.binColor,
			SpecialInstructions: d.specialInstructions,
		})
	}
	return out, nil
}

// Validate checks that the points and disposal tables cover every waste
// category. The serve command calls it before accepting traffic.
func Validate() error {
	var errs []error
	for _, category := range types.WasteCategories {
		if _, ok := basePoints[category]; !ok {
			errs = append(errs, fmt.Errorf("%w: base points missing for %q", types.ErrConfiguration, category))
		}
		if _, ok := disposals[category]; !ok {
			errs = append(errs, fmt.Errorf("%w: disposal guidance missing for %q", types.ErrConfiguration, category))
		}
	}
	return errors.Join(errs...)
}
