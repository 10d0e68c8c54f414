package moderator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"azure-playground/api/internal/azrest"
	"azure-playground/api/internal/media"
)

const (
	moderatePath = "contentmoderator/moderate/v1.0/"
	listsPath    = "contentmoderator/lists/v1.0/imagelists"
)

type Client struct {
	rest *azrest.Client
	log  *logrus.Entry
}

func New(endpoint, key string, log *logrus.Entry, opts ...azrest.Option) *Client {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	opts = append([]azrest.Option{azrest.WithLogger(log)}, opts...)
	return &Client{rest: azrest.New(endpoint, key, opts...), log: log}
}

type Status struct {
	Code        int    `json:"Code"`
	Description string `json:"Description"`
	Exception   string `json:"Exception"`
}

type KeyValue struct {
	Key   string `json:"Key"`
	Value string `json:"Value"`
}

// ---- text ----

type ScreenOptions struct {
	Language    string
	Autocorrect bool
	PII         bool
	Classify    bool
	ListID      string
}

type Term struct {
	Index         int    `json:"Index"`
	OriginalIndex int    `json:"OriginalIndex"`
	ListID        int    `json:"ListId"`
	Term          string `json:"Term"`
}

type Score struct {
	Score float64 `json:"Score"`
}

type Classification struct {
	ReviewRecommended bool   `json:"ReviewRecommended"`
	Category1         *Score `json:"Category1,omitempty"`
	Category2         *Score `json:"Category2,omitempty"`
	Category3         *Score `json:"Category3,omitempty"`
}

type PIIEntity struct {
	Detected string `json:"Detected"`
	SubType  string `json:"SubType,omitempty"`
	Text     string `json:"Text,omitempty"`
	Index    int    `json:"Index"`
}

type PII struct {
	Email   []PIIEntity `json:"Email"`
	SSN     []PIIEntity `json:"SSN"`
	IPA     []PIIEntity `json:"IPA"`
	Phone   []PIIEntity `json:"Phone"`
	Address []PIIEntity `json:"Address"`
}

type Screen struct {
	OriginalText      string          `json:"OriginalText"`
	NormalizedText    string          `json:"NormalizedText"`
	AutoCorrectedText string          `json:"AutoCorrectedText"`
	Misrepresentation []string        `json:"Misrepresentation"`
	Classification    *Classification `json:"Classification,omitempty"`
	Status            Status          `json:"Status"`
	PII               *PII            `json:"PII,omitempty"`
	Language          string          `json:"Language"`
	Terms             []Term          `json:"Terms"`
	TrackingID        string          `json:"TrackingId"`
}

// ScreenText checks plain text for profanity, optionally autocorrecting it
// and extracting personal data.
func (c *Client) ScreenText(ctx context.Context, text string, opt ScreenOptions) (*Screen, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text is empty")
	}
	q := url.Values{}
	if opt.Language != "" {
		q.Set("language", opt.Language)
	}
	q.Set("autocorrect", strconv.FormatBool(opt.Autocorrect))
	q.Set("PII", strconv.FormatBool(opt.PII))
	q.Set("classify", strconv.FormatBool(opt.Classify))
	if opt.ListID != "" {
		q.Set("listId", opt.ListID)
	}
	var out Screen
	_, err := c.rest.Do(ctx, azrest.Request{
		Method:      http.MethodPost,
		Path:        moderatePath + "ProcessText/Screen",
		Query:       q,
		Body:        []byte(text),
		ContentType: "text/plain",
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("screen text: %w", err)
	}
	return &out, nil
}

// ---- images ----

type Evaluation struct {
	CacheID                  string     `json:"CacheID"`
	Result                   bool       `json:"Result"`
	TrackingID               string     `json:"TrackingId"`
	AdultClassificationScore float64    `json:"AdultClassificationScore"`
	IsImageAdultClassified   bool       `json:"IsImageAdultClassified"`
	RacyClassificationScore  float64    `json:"RacyClassificationScore"`
	IsImageRacyClassified    bool       `json:"IsImageRacyClassified"`
	AdvancedInfo             []KeyValue `json:"AdvancedInfo"`
	Status                   Status     `json:"Status"`
}

type Candidate struct {
	Text       string  `json:"Text"`
	Confidence float64 `json:"Confidence"`
}

type OCR struct {
	Status     Status      `json:"Status"`
	Metadata   []KeyValue  `json:"Metadata"`
	TrackingID string      `json:"TrackingId"`
	CacheID    string      `json:"CacheId"`
	Language   string      `json:"Language"`
	Text       string      `json:"Text"`
	Candidates []Candidate `json:"Candidates"`
}

type Face struct {
	Bottom int `json:"Bottom"`
	Left   int `json:"Left"`
	Right  int `json:"Right"`
	Top    int `json:"Top"`
}

type FoundFaces struct {
	Status       Status     `json:"Status"`
	TrackingID   string     `json:"TrackingId"`
	CacheID      string     `json:"CacheId"`
	Result       bool       `json:"Result"`
	Count        int        `json:"Count"`
	AdvancedInfo []KeyValue `json:"AdvancedInfo"`
	Faces        []Face     `json:"Faces"`
}

type Match struct {
	Score   float64 `json:"Score"`
	MatchID int     `json:"MatchId"`
	Source  string  `json:"Source"`
	Tags    []int   `json:"Tags"`
	Label   string  `json:"Label"`
}

type MatchResponse struct {
	TrackingID string  `json:"TrackingId"`
	CacheID    string  `json:"CacheID"`
	IsMatch    bool    `json:"IsMatch"`
	Matches    []Match `json:"Matches"`
	Status     Status  `json:"Status"`
}

// imageRequest builds the body for either input form: URLs travel as
// {"DataRepresentation":"URL","Value":...}, bytes go up raw.
func imageRequest(path string, img media.Image, q url.Values) azrest.Request {
	r := azrest.Request{Method: http.MethodPost, Path: path, Query: q}
	if img.IsURL() {
		r.Body = map[string]string{"DataRepresentation": "URL", "Value": img.URL}
		return r
	}
	r.Body = img.Data
	r.ContentType = media.PickMIME(img.MIME, "", img.Data)
	return r
}

func cacheQuery(cache bool) url.Values {
	q := url.Values{}
	q.Set("CacheImage", strconv.FormatBool(cache))
	return q
}

// Evaluate scores an image for adult and racy content.
func (c *Client) Evaluate(ctx context.Context, img media.Image, cache bool) (*Evaluation, error) {
	var out Evaluation
	if _, err := c.rest.Do(ctx, imageRequest(moderatePath+"ProcessImage/Evaluate", img, cacheQuery(cache)), &out); err != nil {
		return nil, fmt.Errorf("evaluate image: %w", err)
	}
	return &out, nil
}

func (c *Client) OCR(ctx context.Context, img media.Image, language string, cache bool) (*OCR, error) {
	q := cacheQuery(cache)
	if language == "" {
		language = "eng"
	}
	q.Set("language", language)
	var out OCR
	if _, err := c.rest.Do(ctx, imageRequest(moderatePath+"ProcessImage/OCR", img, q), &out); err != nil {
		return nil, fmt.Errorf("image ocr: %w", err)
	}
	return &out, nil
}

func (c *Client) FindFaces(ctx context.Context, img media.Image, cache bool) (*FoundFaces, error) {
	var out FoundFaces
	if _, err := c.rest.Do(ctx, imageRequest(moderatePath+"ProcessImage/FindFaces", img, cacheQuery(cache)), &out); err != nil {
		return nil, fmt.Errorf("find faces: %w", err)
	}
	return &out, nil
}

// Match checks an image against a custom image list.
func (c *Client) Match(ctx context.Context, img media.Image, listID string, cache bool) (*MatchResponse, error) {
	q := cacheQuery(cache)
	if listID != "" {
		q.Set("listId", listID)
	}
	var out MatchResponse
	if _, err := c.rest.Do(ctx, imageRequest(moderatePath+"ProcessImage/Match", img, q), &out); err != nil {
		return nil, fmt.Errorf("match image: %w", err)
	}
	return &out, nil
}
