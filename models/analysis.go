package models

// Attributes is the structured descriptor extracted from a product image.
type Attributes struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Brand       string   `json:"brand"`
	Description string   `json:"description"`
	Colors      []string `json:"colors"`
	Tags        []string `json:"tags"`
}

type Caption struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type NamedConfidence struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

type NamedScore struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Analysis is the /analyze response body. The caption/tags/categories/brands/color
// blocks keep the shape older clients read; EnhancedData carries the flat attributes.
type Analysis struct {
	Description struct {
		Captions []Caption `json:"captions"`
	} `json:"description"`
	Tags       []NamedConfidence `json:"tags"`
	Categories []NamedScore      `json:"categories"`
	Brands     []NamedConfidence `json:"brands"`
	Color      struct {
		DominantColors []string `json:"dominantColors"`
	} `json:"color"`
	EnhancedData Attributes `json:"enhancedData"`
}

// NewAnalysis wraps extracted attributes into the response shape.
func NewAnalysis(attrs Attributes) *Analysis {
	a := &Analysis{EnhancedData: attrs}
	a.Description.Captions = []Caption{}
	if attrs.Name != "" {
		a.Description.Captions = append(a.Description.Captions, Caption{Text: attrs.Name, Confidence: 1})
	}
	a.Tags = make([]NamedConfidence, 0, len(attrs.Tags))
	for _, t := range attrs.Tags {
		a.Tags = append(a.Tags, NamedConfidence{Name: t, Confidence: 1})
	}
	a.Categories = []NamedScore{}
	if attrs.Category != "" {
		a.Categories = append(a.Categories, NamedScore{Name: attrs.Category, Score: 1})
	}
	a.Brands = []NamedConfidence{}
	if attrs.Brand != "" {
		a.Brands = append(a.Brands, NamedConfidence{Name: attrs.Brand, Confidence: 1})
	}
	a.Color.DominantColors = attrs.Colors
	if a.Color.DominantColors == nil {
		a.Color.DominantColors = []string{}
	}
	return a
}
