package types

type WasteCategory string

const (
	WastePlastic   WasteCategory = "plastic"
	WasteOrganic   WasteCategory = "organic"
	WastePaper     WasteCategory = "paper"
	WasteMetal     WasteCategory = "metal"
	WasteGlass     WasteCategory = "glass"
	WasteEwaste    WasteCategory = "ewaste"
	WasteHazardous WasteCategory = "hazardous"
	WasteTextile   WasteCategory = "textile"
	WasteGeneral   WasteCategory = "general"
)

// WasteCategories is the full enumeration. Order matters: it is the tie-break
// order the classifier uses when two categories cover the same share of an image.
var WasteCategories = []WasteCategory{
	WastePlastic,
	WasteOrganic,
	WastePaper,
	WasteMetal,
	WasteGlass,
	WasteEwaste,
	WasteHazardous,
	WasteTextile,
	WasteGeneral,
}

func (c WasteCategory) Valid() bool {
	for _, v := range WasteCategories {
		if v == c {
			return true
		}
	}
	return false
}

// DetectedWaste is one ranked entry produced by classification.
type DetectedWaste struct {
	Type       WasteCategory `json:"type"`
	Confidence int           `json:"confidence"`
	Percentage float64       `json:"percentage"`
}

type DisposalRecommendation struct {
	WasteType           WasteCategory `json:"wasteType"`
	Recommendation      string        `json:"recommendation"`
	BinColor            string        `json:"binColor"`
	SpecialInstructions string        `json:"specialInstructions"`
}

// ScanAnalysis captures the image features behind a classification.
type ScanAnalysis struct {
	ImageSize           string                `json:"imageSize"`
	ProcessingTimeMs    int64                 `json:"processingTime"`
	TextureComplexity   int                   `json:"textureComplexity"`
	EdgeCount           int                   `json:"edgeCount"`
	BrightnessVariation int                   `json:"brightnessVariation"`
	ColorAnalysis       map[WasteCategory]int `json:"colorAnalysis"`
	ModelVersion        string                `json:"modelVersion"`
	ModelClass          string                `json:"modelClass,omitempty"`
	Source              string                `json:"source"`
}
