package language

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"azure-playground/api/internal/azrest"
)

const APIVersion = "2023-04-01"

// Task kinds for :analyze-text.
const (
	KindLanguageDetection = "LanguageDetection"
	KindKeyPhrases        = "KeyPhraseExtraction"
	KindPII               = "PiiEntityRecognition"
)

type Client struct {
	rest *azrest.Client
	log  *logrus.Entry
}

func New(endpoint, key string, log *logrus.Entry, opts ...azrest.Option) *Client {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	opts = append([]azrest.Option{azrest.WithAPIVersion(APIVersion), azrest.WithLogger(log)}, opts...)
	return &Client{rest: azrest.New(endpoint, key, opts...), log: log}
}

type inputDoc struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	Language    string `json:"language,omitempty"`
	CountryHint string `json:"countryHint,omitempty"`
}

type DetectedLanguage struct {
	Name            string  `json:"name"`
	ISO6391Name     string  `json:"iso6391Name"`
	ConfidenceScore float64 `json:"confidenceScore"`
}

type PIIEntity struct {
	Text            string  `json:"text"`
	Category        string  `json:"category"`
	Subcategory     string  `json:"subcategory,omitempty"`
	Offset          int     `json:"offset"`
	Length          int     `json:"length"`
	ConfidenceScore float64 `json:"confidenceScore"`
}

// DocumentResult holds whichever fields the task kind fills in.
type DocumentResult struct {
	ID               string            `json:"id"`
	DetectedLanguage *DetectedLanguage `json:"detectedLanguage,omitempty"`
	KeyPhrases       []string          `json:"keyPhrases,omitempty"`
	RedactedText     string            `json:"redactedText,omitempty"`
	Entities         []PIIEntity       `json:"entities,omitempty"`
	Warnings         []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"warnings,omitempty"`
}

type DocumentError struct {
	ID    string `json:"id"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e DocumentError) String() string {
	return fmt.Sprintf("%s: %s", e.Error.Code, e.Error.Message)
}

// Batch is the per-document outcome. Errors do not fail the call.
type Batch struct {
	Documents    []DocumentResult `json:"documents"`
	Errors       []DocumentError  `json:"errors"`
	ModelVersion string           `json:"modelVersion"`
}

// Outcome pairs each input position with either its result or its error.
type Outcome struct {
	Index  int
	Result *DocumentResult
	Err    *DocumentError
}

// Ordered lines documents and errors up with the input order (ids are the
// 1-based positions assigned by analyze).
func (b *Batch) Ordered(n int) []Outcome {
	out := make([]Outcome, n)
	for i := range out {
		out[i].Index = i
	}
	for i := range b.Documents {
		if k, err := strconv.Atoi(b.Documents[i].ID); err == nil && k >= 1 && k <= n {
			out[k-1].Result = &b.Documents[i]
		}
	}
	for i := range b.Errors {
		if k, err := strconv.Atoi(b.Errors[i].ID); err == nil && k >= 1 && k <= n {
			out[k-1].Err = &b.Errors[i]
		}
	}
	return out
}

type analyzeOptions struct {
	language    string
	countryHint string
	params      map[string]any
}

func (c *Client) analyze(ctx context.Context, kind string, texts []string, opt analyzeOptions) (*Batch, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no documents")
	}
	docs := make([]inputDoc, len(texts))
	for i, t := range texts {
		docs[i] = inputDoc{ID: strconv.Itoa(i + 1), Text: t, Language: opt.language, CountryHint: opt.countryHint}
	}
	params := map[string]any{"modelVersion": "latest"}
	for k, v := range opt.params {
		params[k] = v
	}
	body := map[string]any{
		"kind":          kind,
		"parameters":    params,
		"analysisInput": map[string]any{"documents": docs},
	}
	var out struct {
		Kind    string `json:"kind"`
		Results Batch  `json:"results"`
	}
	if err := c.rest.JSON(ctx, http.MethodPost, "language/:analyze-text", nil, body, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	return &out.Results, nil
}

func (c *Client) DetectLanguage(ctx context.Context, texts []string, countryHint string) (*Batch, error) {
	return c.analyze(ctx, KindLanguageDetection, texts, analyzeOptions{countryHint: countryHint})
}

func (c *Client) ExtractKeyPhrases(ctx context.Context, texts []string, lang string) (*Batch, error) {
	return c.analyze(ctx, KindKeyPhrases, texts, analyzeOptions{language: lang})
}

// RecognizePII returns redacted text plus the entities found per document.
func (c *Client) RecognizePII(ctx context.Context, texts []string, lang string) (*Batch, error) {
	return c.analyze(ctx, KindPII, texts, analyzeOptions{language: lang})
}
