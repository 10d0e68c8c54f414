package vision

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"azure-playground/api/internal/media"
)

const legacyPath = "vision/v3.2/"

type LegacyCaption struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type Description struct {
	Tags     []string        `json:"tags"`
	Captions []LegacyCaption `json:"captions"`
}

type LegacyTag struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Hint       string  `json:"hint,omitempty"`
}

type Rectangle struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type Brand struct {
	Name       string    `json:"name"`
	Confidence float64   `json:"confidence"`
	Rectangle  Rectangle `json:"rectangle"`
}

// LegacyAnalysis is the subset of /analyze we print.
type LegacyAnalysis struct {
	Description *Description `json:"description,omitempty"`
	Tags        []LegacyTag  `json:"tags,omitempty"`
	Brands      []Brand      `json:"brands,omitempty"`
	RequestID   string       `json:"requestId"`
}

type Celebrity struct {
	Name          string    `json:"name"`
	Confidence    float64   `json:"confidence"`
	FaceRectangle Rectangle `json:"faceRectangle"`
}

type Landmark struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

type DomainResult struct {
	Result struct {
		Celebrities []Celebrity `json:"celebrities,omitempty"`
		Landmarks   []Landmark  `json:"landmarks,omitempty"`
	} `json:"result"`
	RequestID string `json:"requestId"`
}

// Describe returns up to maxCandidates human readable captions.
func (c *Client) Describe(ctx context.Context, img media.Image, maxCandidates int) (*Description, error) {
	q := url.Values{}
	if maxCandidates > 0 {
		q.Set("maxCandidates", strconv.Itoa(maxCandidates))
	}
	var out struct {
		Description Description `json:"description"`
	}
	if _, err := c.rest.Do(ctx, imageRequest(legacyPath+"describe", img, q), &out); err != nil {
		return nil, fmt.Errorf("describe image: %w", err)
	}
	return &out.Description, nil
}

func (c *Client) Tag(ctx context.Context, img media.Image) ([]LegacyTag, error) {
	var out struct {
		Tags []LegacyTag `json:"tags"`
	}
	if _, err := c.rest.Do(ctx, imageRequest(legacyPath+"tag", img, nil), &out); err != nil {
		return nil, fmt.Errorf("tag image: %w", err)
	}
	return out.Tags, nil
}

// AnalyzeLegacy runs the 3.2 analyze route with the given visual features
// (e.g. "Brands", "Tags", "Description").
func (c *Client) AnalyzeLegacy(ctx context.Context, img media.Image, features ...string) (*LegacyAnalysis, error) {
	q := url.Values{}
	if len(features) > 0 {
		q.Set("visualFeatures", strings.Join(features, ","))
	}
	var out LegacyAnalysis
	if _, err := c.rest.Do(ctx, imageRequest(legacyPath+"analyze", img, q), &out); err != nil {
		return nil, fmt.Errorf("analyze image: %w", err)
	}
	return &out, nil
}

// AnalyzeDomain runs a domain specific model ("celebrities" or "landmarks").
func (c *Client) AnalyzeDomain(ctx context.Context, img media.Image, model string) (*DomainResult, error) {
	switch model {
	case "celebrities", "landmarks":
	default:
		return nil, fmt.Errorf("unknown domain model %q", model)
	}
	var out DomainResult
	if _, err := c.rest.Do(ctx, imageRequest(legacyPath+"models/"+model+"/analyze", img, nil), &out); err != nil {
		return nil, fmt.Errorf("analyze %s: %w", model, err)
	}
	return &out, nil
}
