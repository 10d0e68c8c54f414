package translator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
)

// Scopes accepted by GET /languages.
const (
	ScopeTranslation     = "translation"
	ScopeTransliteration = "transliteration"
	ScopeDictionary      = "dictionary"
)

type LanguageInfo struct {
	Name       string `json:"name"`
	NativeName string `json:"nativeName"`
	Dir        string `json:"dir,omitempty"`
}

type Languages struct {
	Translation     map[string]LanguageInfo `json:"translation,omitempty"`
	Transliteration map[string]any          `json:"transliteration,omitempty"`
	Dictionary      map[string]any          `json:"dictionary,omitempty"`
}

// SupportedLanguages lists the languages per scope. No scopes means all three.
func (c *Client) SupportedLanguages(ctx context.Context, scopes ...string) (*Languages, error) {
	q := url.Values{}
	if len(scopes) > 0 {
		q.Set("scope", strings.Join(scopes, ","))
	}
	var out Languages
	// The languages route is public; the key headers are harmless.
	if err := c.rest.JSON(ctx, http.MethodGet, "languages", q, nil, &out); err != nil {
		return nil, fmt.Errorf("supported languages: %w", err)
	}
	return &out, nil
}

func PrintLanguages(w io.Writer, l *Languages) {
	fmt.Fprintln(w, "Supported Languages:")
	fmt.Fprintf(w, "  Translation: %d\n", len(l.Translation))
	fmt.Fprintf(w, "  Transliteration: %d\n", len(l.Transliteration))
	fmt.Fprintf(w, "  Dictionary: %d\n", len(l.Dictionary))
	if len(l.Translation) == 0 {
		return
	}
	codes := make([]string, 0, len(l.Translation))
	for code := range l.Translation {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	fmt.Fprintln(w, "\nTranslation Languages:")
	for _, code := range codes {
		info := l.Translation[code]
		fmt.Fprintf(w, "  - %s: %s (%s)\n", code, info.Name, info.NativeName)
	}
}

func PrintTranslations(w io.Writer, res []TranslateResult) {
	for _, r := range res {
		if r.DetectedLanguage != nil {
			fmt.Fprintf(w, "Detected Language: %s (Confidence: %.2f)\n", r.DetectedLanguage.Language, r.DetectedLanguage.Score)
		}
		for _, t := range r.Translations {
			fmt.Fprintf(w, "  -> [%s] %s\n", t.To, t.Text)
		}
	}
}

// TranslateDocument translates a UTF-8 text file as one document and writes
// the result to outPath.
func (c *Client) TranslateDocument(ctx context.Context, inPath, outPath, from, to string) error {
	b, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	text, err := c.TranslateText(ctx, string(b), from, to)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write translation: %w", err)
	}
	c.log.WithField("out", outPath).Info("document translated")
	return nil
}
