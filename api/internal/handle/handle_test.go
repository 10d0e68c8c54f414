package handle

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"azure-playground/api/internal/azrest"
	"azure-playground/api/internal/chat"
	"azure-playground/api/internal/contentsafety"
	"azure-playground/api/internal/language"
	"azure-playground/api/internal/logging"
	"azure-playground/api/internal/media"
	"azure-playground/api/internal/moderator"
	"azure-playground/api/internal/store"
	"azure-playground/api/internal/translator"
	"azure-playground/api/internal/vision"
)

type fakeTranslator struct {
	calls int32
	err   error
}

func (f *fakeTranslator) Translate(ctx context.Context, texts []string, from string, to []string) ([]translator.TranslateResult, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]translator.TranslateResult, len(texts))
	for i, t := range texts {
		for _, lang := range to {
			out[i].Translations = append(out[i].Translations, translator.Translation{Text: lang + ":" + t, To: lang})
		}
	}
	return out, nil
}

type fakeLanguage struct{}

func (fakeLanguage) DetectLanguage(ctx context.Context, texts []string, hint string) (*language.Batch, error) {
	b := &language.Batch{Documents: []language.DocumentResult{{
		ID:               "1",
		DetectedLanguage: &language.DetectedLanguage{Name: "Malayalam", ISO6391Name: "ml", ConfidenceScore: 1},
	}}}
	e := language.DocumentError{ID: "2"}
	e.Error.Code, e.Error.Message = "InvalidDocument", "Document text is empty."
	b.Errors = append(b.Errors, e)
	return b, nil
}

type fakeSafety struct{ got contentsafety.TextOptions }

func (f *fakeSafety) AnalyzeText(ctx context.Context, opt contentsafety.TextOptions) (*contentsafety.TextResult, error) {
	f.got = opt
	two, zero := 2, 0
	return &contentsafety.TextResult{CategoriesAnalysis: []contentsafety.CategoryAnalysis{
		{Category: "Hate", Severity: &two},
		{Category: "Violence", Severity: &zero},
	}}, nil
}

type fakeModerator struct{}

func (fakeModerator) ScreenText(ctx context.Context, text string, opt moderator.ScreenOptions) (*moderator.Screen, error) {
	return &moderator.Screen{OriginalText: text, Terms: []moderator.Term{{Term: "crap"}}}, nil
}

type fakeReader struct {
	got media.Image
	res vision.ReadResult
}

func (f *fakeReader) Read(ctx context.Context, img media.Image, lang string, interval time.Duration) (*vision.ReadResult, error) {
	f.got = img
	return &f.res, nil
}

type fakeEngine struct{ got []chat.Message }

func (f *fakeEngine) Name() string     { return "azure" }
func (f *fakeEngine) GetModel() string { return "gpt-4o-mini" }
func (f *fakeEngine) Chat(ctx context.Context, msgs []chat.Message, opt chat.Options) (chat.Reply, error) {
	f.got = msgs
	return chat.Reply{Engine: "azure", Model: "gpt-4o-mini", Text: "hi there"}, nil
}

func newServer(t *testing.T, d Deps) *httptest.Server {
	t.Helper()
	d.Log = logging.Discard()
	mux := http.NewServeMux()
	New(d).Routes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func memoryDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func post(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestTranslateCachesAndJournals(t *testing.T) {
	db := memoryDB(t)
	tr := &fakeTranslator{}
	srv := newServer(t, Deps{
		Translator: tr,
		Cache:      store.NewCacheRepo(db),
		Journal:    store.NewJournal(db, "gateway", logging.Discard()),
	})

	req := map[string]any{"text": "This is a test.", "to": []string{"ar", "fr"}}
	resp, out := post(t, srv.URL+"/v1/translate", req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, out["cached"])
	assert.Contains(t, mustJSON(t, out), "fr:This is a test.")

	resp, out = post(t, srv.URL+"/v1/translate", req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["cached"])
	assert.EqualValues(t, 1, atomic.LoadInt32(&tr.calls))

	hist, err := http.Get(srv.URL + "/v1/journal?service=translator")
	require.NoError(t, err)
	defer hist.Body.Close()
	var h struct {
		Entries []JournalEntry `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(hist.Body).Decode(&h))
	require.Len(t, h.Entries, 1)
	assert.Equal(t, "gateway", h.Entries[0].Source)
	assert.Equal(t, "translate", h.Entries[0].Operation)
}

func TestTranslateCacheSeparatesTextLists(t *testing.T) {
	tr := &fakeTranslator{}
	srv := newServer(t, Deps{Translator: tr, Cache: store.NewCacheRepo(memoryDB(t))})

	for _, texts := range [][]string{{"a\x1fb"}, {"a", "b"}} {
		resp, out := post(t, srv.URL+"/v1/translate", map[string]any{"texts": texts, "to": []string{"fr"}})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, false, out["cached"], "%q", texts)
	}
	assert.EqualValues(t, 2, atomic.LoadInt32(&tr.calls))
}

func TestTranslateValidation(t *testing.T) {
	srv := newServer(t, Deps{Translator: &fakeTranslator{}})

	resp, err := http.Get(srv.URL + "/v1/translate")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	r, out := post(t, srv.URL+"/v1/translate", map[string]any{"text": "x", "to": []string{"not a tag!"}})
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
	assert.Contains(t, out["error"], "invalid language code")

	r, _ = post(t, srv.URL+"/v1/translate", map[string]any{"to": []string{"fr"}})
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)

	raw, err := http.Post(srv.URL+"/v1/translate", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestVendorErrorsMapToGatewayStatus(t *testing.T) {
	srv := newServer(t, Deps{Translator: &fakeTranslator{err: &azrest.ResponseError{StatusCode: 400, Code: "400036", Message: "bad target"}}})
	r, out := post(t, srv.URL+"/v1/translate", map[string]any{"text": "x", "to": []string{"fr"}})
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
	assert.Contains(t, out["error"], "translate error")

	assert.Equal(t, http.StatusBadGateway, vendorStatus(&azrest.ResponseError{StatusCode: 401}))
	assert.Equal(t, http.StatusGatewayTimeout, vendorStatus(context.DeadlineExceeded))
}

func TestUnconfiguredRoutes(t *testing.T) {
	srv := newServer(t, Deps{})
	for path, body := range map[string]any{
		"/v1/translate":       map[string]any{"text": "x", "to": []string{"fr"}},
		"/v1/language/detect": map[string]any{"texts": []string{"x"}},
		"/v1/moderate/text":   map[string]any{"text": "x"},
		"/v1/vision/read":     map[string]any{"image_url": "https://x/a.png"},
		"/v1/chat":            map[string]any{"messages": []chat.Message{{Role: "user", Content: "hi"}}},
	} {
		r, _ := post(t, srv.URL+path, body)
		assert.Equal(t, http.StatusServiceUnavailable, r.StatusCode, path)
	}
	resp, err := http.Get(srv.URL + "/v1/journal")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestDetectLanguageKeepsDocumentErrors(t *testing.T) {
	srv := newServer(t, Deps{Language: fakeLanguage{}})
	r, out := post(t, srv.URL+"/v1/language/detect", map[string]any{"texts": []string{"നിനക്ക് സ്വാഗതം.", ""}})
	require.Equal(t, http.StatusOK, r.StatusCode)
	docs := out["documents"].([]any)
	require.Len(t, docs, 2)
	assert.Equal(t, "ml", docs[0].(map[string]any)["language"])
	assert.Equal(t, "InvalidDocument: Document text is empty.", docs[1].(map[string]any)["error"])
}

func TestModerateText(t *testing.T) {
	safety := &fakeSafety{}
	srv := newServer(t, Deps{Safety: safety, Moderator: fakeModerator{}})

	r, out := post(t, srv.URL+"/v1/moderate/text", map[string]any{"text": "You are an idiot.", "blocklists": []string{"TestBlocklist"}})
	require.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, true, out["flagged"])
	assert.Equal(t, []string{"TestBlocklist"}, safety.got.BlocklistNames)

	r, out = post(t, srv.URL+"/v1/moderate/text", map[string]any{"text": "You are an idiot.", "threshold": 4})
	require.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, false, out["flagged"])

	r, out = post(t, srv.URL+"/v1/moderate/text", map[string]any{"text": "crap", "provider": "moderator"})
	require.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, "moderator", out["provider"])
	assert.Equal(t, true, out["flagged"])

	r, _ = post(t, srv.URL+"/v1/moderate/text", map[string]any{"text": "x", "provider": "nope"})
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
}

func TestReadAcceptsDataURL(t *testing.T) {
	reader := &fakeReader{}
	require.NoError(t, json.Unmarshal([]byte(`{"status":"succeeded","analyzeResult":{"readResults":[
		{"page":1,"lines":[{"text":"Hello"},{"text":"World"}]}]}}`), &reader.res))
	srv := newServer(t, Deps{Vision: reader})
	png := []byte("\x89PNG\r\n\x1a\n0000")
	r, out := post(t, srv.URL+"/v1/vision/read", map[string]any{"image_b64": media.MakeDataURL("image/png", png)})
	require.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, "Hello\nWorld", out["text"])
	assert.Equal(t, png, reader.got.Data)
	assert.Equal(t, "image/png", reader.got.MIME)

	r, _ = post(t, srv.URL+"/v1/vision/read", map[string]any{"image_b64": "!!!"})
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
	r, _ = post(t, srv.URL+"/v1/vision/read", map[string]any{"image_url": "ftp://x"})
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
}

func TestChat(t *testing.T) {
	eng := &fakeEngine{}
	srv := newServer(t, Deps{Engines: &chat.Engines{Azure: eng}})

	r, out := post(t, srv.URL+"/v1/chat", map[string]any{
		"messages":   []chat.Message{{Role: "system", Content: "be brief"}, {Role: "user", Content: "hello"}},
		"max_tokens": 20,
	})
	require.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, "hi there", out["text"])
	assert.Len(t, eng.got, 2)

	r, _ = post(t, srv.URL+"/v1/chat", map[string]any{"llm_name": "gemini", "messages": []chat.Message{{Role: "user", Content: "x"}}})
	assert.Equal(t, http.StatusBadGateway, r.StatusCode)

	r, _ = post(t, srv.URL+"/v1/chat", map[string]any{"messages": []chat.Message{{Role: "robot", Content: "x"}}})
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
}

func TestDeadline(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/v1/chat?timeoutSec=5", nil)
	assert.Equal(t, 5*time.Second, deadline(r))
	r.Header.Set("X-Request-Timeout", "7")
	assert.Equal(t, 7*time.Second, deadline(r))
	r = httptest.NewRequest(http.MethodPost, "/v1/chat?timeoutSec=-1", nil)
	assert.Equal(t, defaultDeadline, deadline(r))
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
