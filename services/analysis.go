package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/vardhan998997/visual-product-matcer/common/errors"
	"github.com/vardhan998997/visual-product-matcer/media"
	"github.com/vardhan998997/visual-product-matcer/models"
	aws_pkg "github.com/vardhan998997/visual-product-matcer/pkg/aws"
)

const (
	DefaultProductName = "Uploaded Item"
	maxColors          = 3
	maxTags            = 10
)

// ErrInvalidModelJSON means the model answer held no parsable JSON object.
var ErrInvalidModelJSON = errors.New("model response is not valid JSON")

const analysisPrompt = `You are a product image analyzer. Extract comprehensive product details.
Respond ONLY with strict JSON (no backticks, no prose) using exactly this schema:
{"name": string, "category": string, "brand": string, "description": string, "color_names": string[], "tags": string[]}
Rules:
- "category" must be one of: Shoes, Jackets, Hoodies, T-Shirts, Pants, Dresses, Shorts, Skirts, Sweaters, Accessory, Electronics, Furniture, Food, Vehicle, Animal, Plant, Building, People, Sports, Nature, Artwork, Other.
- "brand" should be the brand name if visible, otherwise empty string
- "description" should be a brief 1-2 sentence description
- "color_names" should be 1-3 main colors
- "tags" should be 5-10 relevant keywords/tags
- Prefer Accessory for sunglasses, bags, watches, jewelry; Electronics for phones, laptops, cameras; T-Shirts for tees; Pants for jeans/chinos/trousers.
- Keep values concise and accurate.`

// Generator produces text from a prompt and an image.
type Generator interface {
	Generate(ctx context.Context, prompt string, img *media.InlineImage) (string, error)
	Model() string
}

// ImageResolver loads the bytes behind an image reference.
type ImageResolver interface {
	Resolve(ctx context.Context, ref string) (*media.InlineImage, error)
}

// Analyzer extracts product attributes from an image with a multimodal model.
type Analyzer struct {
	generator Generator
	images    ImageResolver
	cache     *AnalysisCache
	metrics   Counter
	logger    *zap.Logger
}

// NewAnalyzer returns an analyzer. A nil generator means no API key is configured and
// every call fails with 500. cache may be nil.
func NewAnalyzer(generator Generator, images ImageResolver, cache *AnalysisCache, logger *zap.Logger) *Analyzer {
	return &Analyzer{generator: generator, images: images, cache: cache, logger: logger}
}

// SetMetrics enables the analysis and cache hit/miss counters.
func (a *Analyzer) SetMetrics(counter Counter) {
	a.metrics = counter
}

func (a *Analyzer) Analyze(ctx context.Context, image string) (*models.Analysis, error) {
	if a.generator == nil {
		return nil, apperrors.New(http.StatusInternalServerError, "Missing GEMINI_API_KEY env var", nil)
	}
	image = strings.TrimSpace(image)
	if image == "" {
		return nil, apperrors.BadRequest("Missing image")
	}

	model := a.generator.Model()
	if a.cache != nil {
		if attrs, ok := a.cache.Get(ctx, model, image); ok {
			recordCount(a.metrics, aws_pkg.MetricCacheHits, map[string]string{"Cache": "analysis"})
			return models.NewAnalysis(*attrs), nil
		}
		recordCount(a.metrics, aws_pkg.MetricCacheMisses, map[string]string{"Cache": "analysis"})
	}

	img, err := a.images.Resolve(ctx, image)
	if err != nil {
		a.logger.Debug("Image could not be resolved", zap.Error(err))
		return nil, apperrors.BadRequest("Unsupported image format")
	}

	text, err := a.generator.Generate(ctx, analysisPrompt, img)
	if err != nil {
		var gemErr *GeminiError
		if errors.As(err, &gemErr) {
			return nil, apperrors.Upstream(gemErr.Error(), err)
		}
		return nil, apperrors.Upstream("Gemini request failed", err)
	}

	attrs, err := ParseAnalysis(text)
	if err != nil {
		return nil, apperrors.Upstream("Gemini response was not valid JSON", err)
	}

	a.cache.SetAsync(model, image, attrs)
	recordCount(a.metrics, aws_pkg.MetricAnalyses, map[string]string{"Model": model})
	a.logger.Info("Image analyzed",
		zap.String("model", model),
		zap.String("category", attrs.Category),
		zap.Int("tags", len(attrs.Tags)),
	)
	return models.NewAnalysis(attrs), nil
}

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// ParseAnalysis reads the model's JSON answer into Attributes. Prose around the object
// is tolerated. Missing or wrong-typed fields become empty, the name defaults to
// "Uploaded Item", colors are capped at 3 and tags at 10.
func ParseAnalysis(text string) (models.Attributes, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		block := jsonObjectPattern.FindString(text)
		if block == "" {
			return models.Attributes{}, ErrInvalidModelJSON
		}
		if err := json.Unmarshal([]byte(block), &raw); err != nil {
			return models.Attributes{}, ErrInvalidModelJSON
		}
	}

	colorsKey := "color_names"
	if _, ok := raw[colorsKey]; !ok {
		colorsKey = "colors"
	}

	attrs := models.Attributes{
		Name:        stringField(raw, "name"),
		Category:    stringField(raw, "category"),
		Brand:       stringField(raw, "brand"),
		Description: stringField(raw, "description"),
		Colors:      listField(raw, colorsKey, maxColors),
		Tags:        listField(raw, "tags", maxTags),
	}
	if attrs.Name == "" {
		attrs.Name = DefaultProductName
	}
	return attrs, nil
}

func stringField(raw map[string]interface{}, key string) string {
	s, _ := raw[key].(string)
	return strings.TrimSpace(s)
}

func listField(raw map[string]interface{}, key string, max int) []string {
	items, _ := raw[key].([]interface{})
	if len(items) > max {
		items = items[:max]
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
