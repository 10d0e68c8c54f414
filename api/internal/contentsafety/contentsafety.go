package contentsafety

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"

	"azure-playground/api/internal/azrest"
)

const APIVersion = "2024-09-01"

// Categories are the harm categories both text and image analysis report on.
var Categories = []string{"Hate", "SelfHarm", "Sexual", "Violence"}

type Client struct {
	rest *azrest.Client
}

func New(endpoint, key string, log *logrus.Entry, opts ...azrest.Option) *Client {
	opts = append([]azrest.Option{azrest.WithAPIVersion(APIVersion), azrest.WithLogger(log)}, opts...)
	return &Client{rest: azrest.New(endpoint, key, opts...)}
}

type CategoryAnalysis struct {
	Category string `json:"category"`
	Severity *int   `json:"severity,omitempty"`
}

type BlocklistMatch struct {
	BlocklistName     string `json:"blocklistName"`
	BlocklistItemID   string `json:"blocklistItemId"`
	BlocklistItemText string `json:"blocklistItemText"`
}

type TextOptions struct {
	Text               string   `json:"text"`
	Categories         []string `json:"categories,omitempty"`
	BlocklistNames     []string `json:"blocklistNames,omitempty"`
	HaltOnBlocklistHit bool     `json:"haltOnBlocklistHit,omitempty"`
	OutputType         string   `json:"outputType,omitempty"`
}

type TextResult struct {
	BlocklistsMatch    []BlocklistMatch   `json:"blocklistsMatch"`
	CategoriesAnalysis []CategoryAnalysis `json:"categoriesAnalysis"`
}

type ImageResult struct {
	CategoriesAnalysis []CategoryAnalysis `json:"categoriesAnalysis"`
}

func (c *Client) AnalyzeText(ctx context.Context, opt TextOptions) (*TextResult, error) {
	if opt.Text == "" {
		return nil, fmt.Errorf("text is empty")
	}
	var out TextResult
	if err := c.rest.JSON(ctx, http.MethodPost, "contentsafety/text:analyze", nil, opt, &out); err != nil {
		return nil, fmt.Errorf("analyze text: %w", err)
	}
	return &out, nil
}

// AnalyzeImage sends raw image bytes; the service wants them base64 in JSON,
// which []byte marshalling does for us.
func (c *Client) AnalyzeImage(ctx context.Context, image []byte) (*ImageResult, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("image is empty")
	}
	body := map[string]any{"image": map[string]any{"content": image}}
	var out ImageResult
	if err := c.rest.JSON(ctx, http.MethodPost, "contentsafety/image:analyze", nil, body, &out); err != nil {
		return nil, fmt.Errorf("analyze image: %w", err)
	}
	return &out, nil
}

// Severities flattens the analysis into category → severity, skipping
// categories the service returned without a score.
func Severities(items []CategoryAnalysis) map[string]int {
	m := make(map[string]int, len(items))
	for _, it := range items {
		if it.Severity != nil {
			m[it.Category] = *it.Severity
		}
	}
	return m
}

// Report renders one line per known category, "Not detected" when absent.
// Categories are printed by their enum names, HATE or SELF_HARM.
func Report(items []CategoryAnalysis) []string {
	sev := Severities(items)
	lines := make([]string, 0, len(Categories))
	for _, cat := range Categories {
		if s, ok := sev[cat]; ok {
			lines = append(lines, fmt.Sprintf("%s: Severity %d", EnumName(cat), s))
		} else {
			lines = append(lines, fmt.Sprintf("%s: Not detected", EnumName(cat)))
		}
	}
	return lines
}

// EnumName turns a wire category such as "SelfHarm" into "SELF_HARM".
func EnumName(category string) string {
	var b strings.Builder
	for i, r := range category {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

func blocklistPath(name string) string {
	return "contentsafety/text/blocklists/" + url.PathEscape(name)
}
