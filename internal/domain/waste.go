package domain

// WasteCategory names a kind of waste. The classification scope covers the
// five ClassificationCategories; carbon accounting additionally knows Electronic.
type WasteCategory string

const (
	Plastic    WasteCategory = "Plastic"
	Paper      WasteCategory = "Paper"
	Metal      WasteCategory = "Metal"
	Glass      WasteCategory = "Glass"
	Organic    WasteCategory = "Organic"
	Electronic WasteCategory = "Electronic"

	// General is what the text analysis mission searches facilities for when
	// the user gives no waste type.
	General WasteCategory = "General"
)

// ClassificationCategories is the declaration order used for scoring and for
// breaking ties between equal confidences.
var ClassificationCategories = []WasteCategory{Plastic, Paper, Metal, Glass, Organic}

// FootprintCategories lists the categories offered by the carbon calculator.
var FootprintCategories = []WasteCategory{Plastic, Paper, Metal, Glass, Organic, Electronic}

// HazardLevel is a display-only severity class.
type HazardLevel string

const (
	HazardLow    HazardLevel = "Low"
	HazardMedium HazardLevel = "Medium"
	HazardHigh   HazardLevel = "High"
)

// CategoryScore is the scorer's verdict for a single category
type CategoryScore struct {
	Category    WasteCategory `json:"category"`
	Confidence  float64       `json:"confidence"`
	Recyclable  bool          `json:"recyclable"`
	HazardLevel HazardLevel   `json:"hazard_level"`
}

// ClassificationResult holds one score per classification category, in
// ClassificationCategories order.
type ClassificationResult struct {
	Scores []CategoryScore `json:"scores"`
	// IsFallback is set when nothing matched and every category got the flat
	// baseline confidence.
	IsFallback bool `json:"is_fallback"`
}

// Top returns the highest-confidence score. Ties go to the category declared first.
func (r ClassificationResult) Top() CategoryScore {
	var top CategoryScore
	for i, s := range r.Scores {
		if i == 0 || s.Confidence > top.Confidence {
			top = s
		}
	}
	return top
}

// Get returns the score for a category.
func (r ClassificationResult) Get(c WasteCategory) (CategoryScore, bool) {
	for _, s := range r.Scores {
		if s.Category == c {
			return s, true
		}
	}
	return CategoryScore{}, false
}

// ImageAnalysis is the outcome of the visual recognition challenge
type ImageAnalysis struct {
	Caption        string               `json:"caption"`
	Classification ClassificationResult `json:"classification"`
	PrimaryType    WasteCategory        `json:"primary_type"`
	Confidence     float64              `json:"confidence"`
	HazardLevel    HazardLevel          `json:"hazard_level"`
	IsMock         bool                 `json:"is_mock"`
}
