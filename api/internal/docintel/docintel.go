package docintel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"azure-playground/api/internal/azrest"
	"azure-playground/api/internal/media"
)

const (
	APIVersion   = "2024-11-30"
	LayoutModel  = "prebuilt-layout"
	modelsPrefix = "documentintelligence/documentModels/"
)

// Operation statuses.
const (
	StatusNotStarted = "notStarted"
	StatusRunning    = "running"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
)

type Client struct {
	rest     *azrest.Client
	log      *logrus.Entry
	Interval time.Duration
}

func New(endpoint, key string, log *logrus.Entry, opts ...azrest.Option) *Client {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	opts = append([]azrest.Option{azrest.WithAPIVersion(APIVersion), azrest.WithLogger(log)}, opts...)
	return &Client{rest: azrest.New(endpoint, key, opts...), log: log, Interval: time.Second}
}

type Span struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
}

// Contains reports whether offset falls inside the half-open span.
func (s Span) Contains(offset int) bool {
	return s.Offset <= offset && offset < s.Offset+s.Length
}

type Word struct {
	Content    string    `json:"content"`
	Polygon    []float64 `json:"polygon"`
	Confidence float64   `json:"confidence"`
	Span       Span      `json:"span"`
}

type Line struct {
	Content string    `json:"content"`
	Polygon []float64 `json:"polygon"`
	Spans   []Span    `json:"spans"`
}

type SelectionMark struct {
	State      string    `json:"state"`
	Polygon    []float64 `json:"polygon"`
	Confidence float64   `json:"confidence"`
	Span       Span      `json:"span"`
}

type Page struct {
	PageNumber     int             `json:"pageNumber"`
	Angle          float64         `json:"angle"`
	Width          float64         `json:"width"`
	Height         float64         `json:"height"`
	Unit           string          `json:"unit"`
	Words          []Word          `json:"words"`
	Lines          []Line          `json:"lines"`
	SelectionMarks []SelectionMark `json:"selectionMarks"`
	Spans          []Span          `json:"spans"`
}

// WordsForLine returns the page words whose offset lies inside one of the
// line's spans, in page order.
func (p Page) WordsForLine(l Line) []Word {
	var out []Word
	for _, w := range p.Words {
		for _, s := range l.Spans {
			if s.Contains(w.Span.Offset) {
				out = append(out, w)
				break
			}
		}
	}
	return out
}

type BoundingRegion struct {
	PageNumber int       `json:"pageNumber"`
	Polygon    []float64 `json:"polygon"`
}

type Cell struct {
	Kind            string           `json:"kind,omitempty"`
	RowIndex        int              `json:"rowIndex"`
	ColumnIndex     int              `json:"columnIndex"`
	Content         string           `json:"content"`
	BoundingRegions []BoundingRegion `json:"boundingRegions"`
}

type Table struct {
	RowCount        int              `json:"rowCount"`
	ColumnCount     int              `json:"columnCount"`
	Cells           []Cell           `json:"cells"`
	BoundingRegions []BoundingRegion `json:"boundingRegions"`
}

type Style struct {
	IsHandwritten *bool   `json:"isHandwritten,omitempty"`
	Confidence    float64 `json:"confidence"`
	Spans         []Span  `json:"spans"`
}

type AnalyzeResult struct {
	APIVersion string  `json:"apiVersion"`
	ModelID    string  `json:"modelId"`
	Content    string  `json:"content"`
	Pages      []Page  `json:"pages"`
	Tables     []Table `json:"tables"`
	Styles     []Style `json:"styles"`
}

// Handwritten reports whether any style marks content as handwritten.
func (r *AnalyzeResult) Handwritten() bool {
	for _, s := range r.Styles {
		if s.IsHandwritten != nil && *s.IsHandwritten {
			return true
		}
	}
	return false
}

type operation struct {
	Status        string         `json:"status"`
	AnalyzeResult *AnalyzeResult `json:"analyzeResult,omitempty"`
	Error         *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Analyze runs model over the document and waits for the result. URL sources
// are passed by reference, anything else is sent inline.
func (c *Client) Analyze(ctx context.Context, model string, doc media.Image) (*AnalyzeResult, error) {
	if model == "" {
		model = LayoutModel
	}
	body := map[string]any{}
	switch {
	case doc.IsURL():
		body["urlSource"] = doc.URL
	case len(doc.Data) > 0:
		body["base64Source"] = doc.Data
	default:
		return nil, errors.New("analyze: empty document")
	}

	resp, err := c.rest.Do(ctx, azrest.Request{
		Method: http.MethodPost,
		Path:   modelsPrefix + url.PathEscape(model) + ":analyze",
		Body:   body,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("begin analyze: %w", err)
	}
	loc := azrest.OperationLocation(resp)
	if loc == "" {
		return nil, errors.New("begin analyze: no Operation-Location in response")
	}
	c.log.WithFields(logrus.Fields{"model": model, "operation": azrest.LastSegment(loc)}).Debug("analyze submitted")

	var op operation
	err = azrest.Poll(ctx, c.Interval, func(ctx context.Context) (bool, error) {
		op = operation{}
		if err := c.rest.JSON(ctx, http.MethodGet, loc, nil, nil, &op); err != nil {
			return false, err
		}
		return op.Status != StatusNotStarted && op.Status != StatusRunning, nil
	})
	if err != nil {
		return nil, err
	}
	if op.Status != StatusSucceeded {
		if op.Error != nil {
			return nil, fmt.Errorf("analyze %s: %s: %s", op.Status, op.Error.Code, op.Error.Message)
		}
		return nil, fmt.Errorf("analyze finished with status %s", op.Status)
	}
	if op.AnalyzeResult == nil {
		return nil, errors.New("analyze succeeded without a result")
	}
	return op.AnalyzeResult, nil
}

// AnalyzeLayout is Analyze with the prebuilt layout model.
func (c *Client) AnalyzeLayout(ctx context.Context, doc media.Image) (*AnalyzeResult, error) {
	return c.Analyze(ctx, LayoutModel, doc)
}
