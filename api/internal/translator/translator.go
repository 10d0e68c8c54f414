package translator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"azure-playground/api/internal/azrest"
)

const (
	APIVersion      = "3.0"
	DefaultEndpoint = "https://api.cognitive.microsofttranslator.com"
)

type Client struct {
	rest *azrest.Client
	log  *logrus.Entry
}

func New(endpoint, key, region string, log *logrus.Entry, opts ...azrest.Option) *Client {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultEndpoint
	}
	opts = append([]azrest.Option{
		azrest.WithAPIVersion(APIVersion),
		azrest.WithRegion(region),
		azrest.WithLogger(log),
	}, opts...)
	return &Client{rest: azrest.New(endpoint, key, opts...), log: log}
}

type DetectedLanguage struct {
	Language string  `json:"language"`
	Score    float64 `json:"score"`
}

type Translation struct {
	Text string `json:"text"`
	To   string `json:"to"`
}

type TranslateResult struct {
	DetectedLanguage *DetectedLanguage `json:"detectedLanguage,omitempty"`
	Translations     []Translation     `json:"translations"`
}

type textItem struct {
	Text string `json:"text"`
}

// ValidateLanguages rejects codes that are not well-formed BCP-47 tags.
func ValidateLanguages(codes ...string) error {
	var errs []error
	for _, c := range codes {
		if strings.TrimSpace(c) == "" {
			errs = append(errs, errors.New("empty language code"))
			continue
		}
		if _, err := language.Parse(c); err != nil {
			errs = append(errs, fmt.Errorf("invalid language code %q: %w", c, err))
		}
	}
	return errors.Join(errs...)
}

func (c *Client) post(ctx context.Context, path string, q url.Values, in, out any) (*azrest.Response, error) {
	traceID := uuid.NewString()
	c.log.WithField("trace_id", traceID).Debug(path)
	return c.rest.Do(ctx, azrest.Request{
		Method: http.MethodPost,
		Path:   path,
		Query:  q,
		Body:   in,
		Header: http.Header{"X-ClientTraceId": []string{traceID}},
	}, out)
}

// Translate translates every text into every target. from may be empty, in
// which case the service detects the source language.
func (c *Client) Translate(ctx context.Context, texts []string, from string, to []string) ([]TranslateResult, error) {
	res, _, err := c.TranslateRaw(ctx, texts, from, to)
	return res, err
}

// TranslateRaw is Translate plus the raw response body for dumping.
func (c *Client) TranslateRaw(ctx context.Context, texts []string, from string, to []string) ([]TranslateResult, []byte, error) {
	if len(texts) == 0 {
		return nil, nil, errors.New("no texts to translate")
	}
	if len(to) == 0 {
		return nil, nil, errors.New("no target languages")
	}
	if err := ValidateLanguages(to...); err != nil {
		return nil, nil, err
	}
	q := url.Values{}
	if from != "" {
		if err := ValidateLanguages(from); err != nil {
			return nil, nil, err
		}
		q.Set("from", from)
	}
	for _, t := range to {
		q.Add("to", t)
	}
	body := make([]textItem, len(texts))
	for i, t := range texts {
		body[i] = textItem{Text: t}
	}
	var out []TranslateResult
	resp, err := c.post(ctx, "translate", q, body, &out)
	if err != nil {
		return nil, nil, fmt.Errorf("translate: %w", err)
	}
	return out, resp.Body, nil
}

// TranslateText is the single-text, single-target shortcut.
func (c *Client) TranslateText(ctx context.Context, text, from, to string) (string, error) {
	res, err := c.Translate(ctx, []string{text}, from, []string{to})
	if err != nil {
		return "", err
	}
	if len(res) == 0 || len(res[0].Translations) == 0 {
		return "", errors.New("translate: empty response")
	}
	return res[0].Translations[0].Text, nil
}

type Transliteration struct {
	Text   string `json:"text"`
	Script string `json:"script"`
}

func (c *Client) Transliterate(ctx context.Context, texts []string, lang, fromScript, toScript string) ([]Transliteration, error) {
	if len(texts) == 0 {
		return nil, errors.New("no texts to transliterate")
	}
	if err := ValidateLanguages(lang); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("language", lang)
	q.Set("fromScript", fromScript)
	q.Set("toScript", toScript)
	body := make([]textItem, len(texts))
	for i, t := range texts {
		body[i] = textItem{Text: t}
	}
	var out []Transliteration
	if _, err := c.post(ctx, "transliterate", q, body, &out); err != nil {
		return nil, fmt.Errorf("transliterate: %w", err)
	}
	return out, nil
}
