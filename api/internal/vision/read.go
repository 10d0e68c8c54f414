package vision

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"azure-playground/api/internal/azrest"
	"azure-playground/api/internal/media"
)

// Read operation statuses.
const (
	ReadNotStarted = "notStarted"
	ReadRunning    = "running"
	ReadSucceeded  = "succeeded"
	ReadFailed     = "failed"
)

type ReadLine struct {
	Text        string    `json:"text"`
	BoundingBox []float64 `json:"boundingBox"`
	Words       []struct {
		Text        string    `json:"text"`
		BoundingBox []float64 `json:"boundingBox"`
		Confidence  float64   `json:"confidence"`
	} `json:"words"`
}

type ReadPage struct {
	Page   int        `json:"page"`
	Angle  float64    `json:"angle"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Unit   string     `json:"unit"`
	Lines  []ReadLine `json:"lines"`
}

type ReadResult struct {
	Status        string `json:"status"`
	AnalyzeResult *struct {
		Version     string     `json:"version"`
		ReadResults []ReadPage `json:"readResults"`
	} `json:"analyzeResult,omitempty"`
}

// Lines flattens all recognised lines in page order.
func (r *ReadResult) Lines() []ReadLine {
	if r == nil || r.AnalyzeResult == nil {
		return nil
	}
	var out []ReadLine
	for _, p := range r.AnalyzeResult.ReadResults {
		out = append(out, p.Lines...)
	}
	return out
}

// Text joins the recognised lines with newlines.
func (r *ReadResult) Text() string {
	lines := r.Lines()
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.Text
	}
	return strings.Join(texts, "\n")
}

// StartRead submits an image to the asynchronous Read API and returns the
// operation URL.
func (c *Client) StartRead(ctx context.Context, img media.Image, language string) (string, error) {
	q := url.Values{}
	if language != "" {
		q.Set("language", language)
	}
	resp, err := c.rest.Do(ctx, imageRequest(legacyPath+"read/analyze", img, q), nil)
	if err != nil {
		return "", fmt.Errorf("submit read: %w", err)
	}
	loc := azrest.OperationLocation(resp)
	if loc == "" {
		return "", fmt.Errorf("submit read: no Operation-Location in response")
	}
	return loc, nil
}

func (c *Client) ReadResult(ctx context.Context, operationID string) (*ReadResult, error) {
	var out ReadResult
	if err := c.rest.JSON(ctx, http.MethodGet, legacyPath+"read/analyzeResults/"+url.PathEscape(operationID), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("get read result: %w", err)
	}
	return &out, nil
}

// Read submits the image and polls every interval while the operation is
// notStarted or running. The final result is returned whatever its status.
func (c *Client) Read(ctx context.Context, img media.Image, language string, interval time.Duration) (*ReadResult, error) {
	loc, err := c.StartRead(ctx, img, language)
	if err != nil {
		return nil, err
	}
	id := azrest.LastSegment(loc)
	c.log.WithField("operation", id).Debug("read submitted")

	var res *ReadResult
	err = azrest.Poll(ctx, interval, func(ctx context.Context) (bool, error) {
		r, err := c.ReadResult(ctx, id)
		if err != nil {
			return false, err
		}
		res = r
		return r.Status != ReadNotStarted && r.Status != ReadRunning, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func PrintRead(w io.Writer, r *ReadResult) {
	if r.Status != ReadSucceeded {
		fmt.Fprintf(w, "Read finished with status %s\n", r.Status)
		return
	}
	for _, l := range r.Lines() {
		fmt.Fprintln(w, l.Text)
		fmt.Fprintln(w, l.BoundingBox)
	}
}
