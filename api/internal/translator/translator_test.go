package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"azure-playground/api/internal/logging"
)

type capture struct {
	path    string
	query   map[string][]string
	headers http.Header
	texts   []string
}

func fakeTranslator(t *testing.T, c *capture, reply string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.path = r.URL.Path
		c.query = r.URL.Query()
		c.headers = r.Header.Clone()
		if r.Method == http.MethodPost {
			var in []textItem
			if err := json.NewDecoder(r.Body).Decode(&in); err == nil {
				for _, it := range in {
					c.texts = append(c.texts, it.Text)
				}
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL, "k", "westeurope", logging.Discard())
}

func TestTranslateSendsTraceIDAndTargets(t *testing.T) {
	var c capture
	cl := fakeTranslator(t, &c, `[{"detectedLanguage":{"language":"en","score":1.0},
		"translations":[{"text":"هذا اختبار.","to":"ar"},{"text":"C'est un test.","to":"fr"}]}]`)

	res, raw, err := cl.TranslateRaw(context.Background(), []string{"This is a test."}, "", []string{"ar", "fr"})
	require.NoError(t, err)
	assert.Equal(t, "/translate", c.path)
	assert.Equal(t, []string{"ar", "fr"}, c.query["to"])
	assert.Equal(t, []string{APIVersion}, c.query["api-version"])
	assert.Empty(t, c.query["from"])
	assert.Equal(t, "westeurope", c.headers.Get("Ocp-Apim-Subscription-Region"))
	assert.Equal(t, "k", c.headers.Get("Ocp-Apim-Subscription-Key"))
	_, perr := uuid.Parse(c.headers.Get("X-ClientTraceId"))
	assert.NoError(t, perr)
	assert.Equal(t, []string{"This is a test."}, c.texts)
	assert.Contains(t, string(raw), "C'est un test.")

	var out bytes.Buffer
	PrintTranslations(&out, res)
	assert.Contains(t, out.String(), "Detected Language: en (Confidence: 1.00)")
	assert.Contains(t, out.String(), "-> [fr] C'est un test.")
}

func TestTranslateRejectsBadLanguage(t *testing.T) {
	cl := New("http://unused", "k", "r", nil)
	_, err := cl.Translate(context.Background(), []string{"x"}, "en", []string{"ar", "not a tag!"})
	assert.ErrorContains(t, err, `invalid language code "not a tag!"`)

	_, err = cl.Translate(context.Background(), []string{"x"}, "en", nil)
	assert.Error(t, err)
}

func TestValidateLanguages(t *testing.T) {
	assert.NoError(t, ValidateLanguages("en", "zh-Hans", "sr-Cyrl", "ar"))
	assert.Error(t, ValidateLanguages(""))
	assert.Error(t, ValidateLanguages("en", "12345678901"))
}

func TestTransliterate(t *testing.T) {
	var c capture
	cl := fakeTranslator(t, &c, `[{"text":"astikhdam","script":"Latn"},{"text":"alsalam ealaykum","script":"Latn"}]`)
	out, err := cl.Transliterate(context.Background(), []string{"استخدام", "السلام عليكم"}, "ar", "Arab", "Latn")
	require.NoError(t, err)
	assert.Equal(t, "/transliterate", c.path)
	assert.Equal(t, "Arab", c.query["fromScript"][0])
	assert.Equal(t, "Latn", c.query["toScript"][0])
	require.Len(t, out, 2)
	assert.Equal(t, "astikhdam", out[0].Text)
}

func TestSupportedLanguages(t *testing.T) {
	var c capture
	cl := fakeTranslator(t, &c, `{"translation":{"fr":{"name":"French","nativeName":"Français","dir":"ltr"},
		"ar":{"name":"Arabic","nativeName":"العربية","dir":"rtl"}},"transliteration":{"ar":{}},"dictionary":{}}`)
	l, err := cl.SupportedLanguages(context.Background(), ScopeTranslation, ScopeTransliteration)
	require.NoError(t, err)
	assert.Equal(t, "translation,transliteration", c.query["scope"][0])

	var out bytes.Buffer
	PrintLanguages(&out, l)
	s := out.String()
	assert.Contains(t, s, "Translation: 2")
	assert.Contains(t, s, "Transliteration: 1")
	assert.Less(t, bytes.Index(out.Bytes(), []byte("- ar:")), bytes.Index(out.Bytes(), []byte("- fr:")))
}

func TestTranslateDocument(t *testing.T) {
	var c capture
	cl := fakeTranslator(t, &c, `[{"translations":[{"text":"مرحبا بالعالم","to":"ar"}]}]`)
	dir := t.TempDir()
	in := filepath.Join(dir, "test.txt")
	outPath := filepath.Join(dir, "document_translated.txt")
	require.NoError(t, os.WriteFile(in, []byte("Hello world"), 0o644))

	require.NoError(t, cl.TranslateDocument(context.Background(), in, outPath, "en", "ar"))
	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "مرحبا بالعالم", string(got))
	assert.Equal(t, []string{"Hello world"}, c.texts)
	assert.Equal(t, "en", c.query["from"][0])
}
