package contentsafety

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"azure-playground/api/internal/azrest"
	"azure-playground/api/internal/logging"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, "key", logging.Discard())
}

func TestAnalyzeText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/contentsafety/text:analyze", r.URL.Path)
		assert.Equal(t, APIVersion, r.URL.Query().Get("api-version"))
		assert.Equal(t, "key", r.Header.Get("Ocp-Apim-Subscription-Key"))

		var in TextOptions
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "You are an idiot.", in.Text)
		assert.Equal(t, []string{"TestBlocklist"}, in.BlocklistNames)

		_, _ = w.Write([]byte(`{
			"blocklistsMatch":[{"blocklistName":"TestBlocklist","blocklistItemId":"1","blocklistItemText":"idiot"}],
			"categoriesAnalysis":[{"category":"Hate","severity":2},{"category":"Violence","severity":0},{"category":"Sexual"}]
		}`))
	})

	res, err := c.AnalyzeText(context.Background(), TextOptions{Text: "You are an idiot.", BlocklistNames: []string{"TestBlocklist"}})
	require.NoError(t, err)
	require.Len(t, res.BlocklistsMatch, 1)
	assert.Equal(t, "idiot", res.BlocklistsMatch[0].BlocklistItemText)
	assert.Equal(t, map[string]int{"Hate": 2, "Violence": 0}, Severities(res.CategoriesAnalysis))
}

func TestAnalyzeTextRejectsEmpty(t *testing.T) {
	c := New("http://unused", "k", nil)
	_, err := c.AnalyzeText(context.Background(), TextOptions{})
	assert.Error(t, err)
}

func TestAnalyzeImageSendsBase64(t *testing.T) {
	img := []byte{0xFF, 0xD8, 0xFF}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/contentsafety/image:analyze", r.URL.Path)
		var in struct {
			Image struct {
				Content string `json:"content"`
			} `json:"image"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, base64.StdEncoding.EncodeToString(img), in.Image.Content)
		_, _ = w.Write([]byte(`{"categoriesAnalysis":[{"category":"Sexual","severity":6}]}`))
	})

	res, err := c.AnalyzeImage(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"HATE: Not detected",
		"SELF_HARM: Not detected",
		"SEXUAL: Severity 6",
		"VIOLENCE: Not detected",
	}, Report(res.CategoriesAnalysis))
}

func TestEnumName(t *testing.T) {
	tests := map[string]string{
		"Hate":     "HATE",
		"SelfHarm": "SELF_HARM",
		"Sexual":   "SEXUAL",
		"Violence": "VIOLENCE",
		"":         "",
	}
	for in, want := range tests {
		assert.Equal(t, want, EnumName(in), in)
	}
}

func TestVendorErrorSurfaces(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"InvalidRequestBody","message":"text too long"}}`))
	})
	_, err := c.AnalyzeText(context.Background(), TextOptions{Text: "x"})
	var re *azrest.ResponseError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "InvalidRequestBody", re.Code)
}

// fakeBlocklists is a tiny in-memory stand-in for the blocklist endpoints.
type fakeBlocklists struct {
	mu    sync.Mutex
	lists map[string]string
	items map[string]BlocklistItem
	calls []string

	patchContentType string
}

func (f *fakeBlocklists) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := strings.TrimPrefix(r.URL.Path, "/contentsafety/")
	f.calls = append(f.calls, r.Method+" "+p)
	enc := json.NewEncoder(w)

	switch {
	case p == "text:analyze":
		_ = enc.Encode(TextResult{BlocklistsMatch: []BlocklistMatch{{BlocklistName: "demo", BlocklistItemID: "id-k*ll", BlocklistItemText: "k*ll"}}})
	case p == "text/blocklists" && r.Method == http.MethodGet:
		var out struct {
			Value []Blocklist `json:"value"`
		}
		for n, d := range f.lists {
			out.Value = append(out.Value, Blocklist{Name: n, Description: d})
		}
		_ = enc.Encode(out)
	case strings.HasSuffix(p, ":addOrUpdateBlocklistItems"):
		var in struct {
			BlocklistItems []BlocklistItem `json:"blocklistItems"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		for i := range in.BlocklistItems {
			in.BlocklistItems[i].ID = "id-" + in.BlocklistItems[i].Text
			f.items[in.BlocklistItems[i].ID] = in.BlocklistItems[i]
		}
		_ = enc.Encode(in)
	case strings.HasSuffix(p, ":removeBlocklistItems"):
		var in struct {
			IDs []string `json:"blocklistItemIds"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		for _, id := range in.IDs {
			delete(f.items, id)
		}
		w.WriteHeader(http.StatusNoContent)
	case strings.HasSuffix(p, "/blocklistItems"):
		var out struct {
			Value []BlocklistItem `json:"value"`
		}
		for _, it := range f.items {
			out.Value = append(out.Value, it)
		}
		_ = enc.Encode(out)
	case strings.Contains(p, "/blocklistItems/"):
		id := p[strings.LastIndex(p, "/")+1:]
		_ = enc.Encode(f.items[id])
	case strings.HasPrefix(p, "text/blocklists/"):
		name := strings.TrimPrefix(p, "text/blocklists/")
		switch r.Method {
		case http.MethodPatch:
			f.patchContentType = r.Header.Get("Content-Type")
			var in map[string]string
			_ = json.NewDecoder(r.Body).Decode(&in)
			f.lists[name] = in["description"]
			_ = enc.Encode(Blocklist{Name: name, Description: in["description"]})
		case http.MethodGet:
			_ = enc.Encode(Blocklist{Name: name, Description: f.lists[name]})
		case http.MethodDelete:
			delete(f.lists, name)
			w.WriteHeader(http.StatusNoContent)
		}
	default:
		http.NotFound(w, r)
	}
}

func TestBlocklistDemoLifecycle(t *testing.T) {
	f := &fakeBlocklists{lists: map[string]string{}, items: map[string]BlocklistItem{}}
	srv := httptest.NewServer(f)
	defer srv.Close()

	var out bytes.Buffer
	err := New(srv.URL, "k", nil).BlocklistDemo(context.Background(), &out, "demo")
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "Created or updated blocklist: demo")
	assert.Contains(t, s, "Blocklist: demo, ID: id-k*ll, Text: k*ll")
	assert.Contains(t, s, "Fetched block item: ID: id-k*ll, Text: k*ll")
	assert.Contains(t, s, "Removed block item ID: id-k*ll")
	assert.Contains(t, s, "Deleted blocklist: demo")

	assert.Empty(t, f.lists)
	assert.Equal(t, "application/merge-patch+json", f.patchContentType)
	assert.Equal(t, "PATCH text/blocklists/demo", f.calls[0])
	assert.Equal(t, "DELETE text/blocklists/demo", f.calls[len(f.calls)-1])
}
