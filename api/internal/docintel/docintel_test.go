package docintel

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

	"azure-playground/api/internal/logging"
	"azure-playground/api/internal/media"
)

const layoutResult = `{"status":"succeeded","analyzeResult":{
	"apiVersion":"2024-11-30","modelId":"prebuilt-layout","content":"Hello world\nTotal 5",
	"styles":[{"isHandwritten":true,"confidence":0.9,"spans":[{"offset":0,"length":5}]}],
	"pages":[{"pageNumber":1,"unit":"inch","width":8.5,"height":11,
		"words":[
			{"content":"Hello","confidence":0.99,"span":{"offset":0,"length":5},"polygon":[1,1,2,1,2,2,1,2]},
			{"content":"world","confidence":0.98,"span":{"offset":6,"length":5}},
			{"content":"Total","confidence":0.97,"span":{"offset":12,"length":5}},
			{"content":"5","confidence":0.9,"span":{"offset":18,"length":1}}],
		"lines":[
			{"content":"Hello world","polygon":[1,1,3,1,3,2,1,2],"spans":[{"offset":0,"length":11}]},
			{"content":"Total 5","spans":[{"offset":12,"length":7}]}],
		"selectionMarks":[{"state":"selected","confidence":0.8,"polygon":[4,4,5,4,5,5,4,5],"span":{"offset":20,"length":1}}]}],
	"tables":[{"rowCount":1,"columnCount":2,
		"boundingRegions":[{"pageNumber":1,"polygon":[0,0,1,0,1,1,0,1]}],
		"cells":[{"rowIndex":0,"columnIndex":0,"content":"Total"},
			{"rowIndex":0,"columnIndex":1,"content":"5","boundingRegions":[{"pageNumber":1,"polygon":[2,2]}]}]}]}}`

func TestAnalyzeLayoutPollsUntilSucceeded(t *testing.T) {
	var polls int32
	var gotBody map[string]any
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			if r.URL.Path == "/documentintelligence/documentModels/prebuilt-layout:analyze" &&
				r.URL.Query().Get("api-version") == APIVersion {
				_ = json.NewDecoder(r.Body).Decode(&gotBody)
			}
			w.Header().Set("Operation-Location", srvURL+"/documentintelligence/documentModels/prebuilt-layout/analyzeResults/op1?api-version="+APIVersion)
			w.WriteHeader(http.StatusAccepted)
		case strings.HasSuffix(r.URL.Path, "/analyzeResults/op1"):
			if atomic.AddInt32(&polls, 1) < 3 {
				_, _ = w.Write([]byte(`{"status":"running"}`))
				return
			}
			_, _ = w.Write([]byte(layoutResult))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	srvURL = srv.URL

	c := New(srv.URL, "k", logging.Discard())
	c.Interval = time.Millisecond
	res, err := c.AnalyzeLayout(context.Background(), media.Image{URL: "https://example.com/sample-layout.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/sample-layout.pdf", gotBody["urlSource"])
	assert.EqualValues(t, 3, atomic.LoadInt32(&polls))
	assert.True(t, res.Handwritten())
	require.Len(t, res.Pages, 1)

	var out bytes.Buffer
	PrintLayout(&out, res)
	s := out.String()
	assert.Contains(t, s, "Document contains handwritten content.")
	assert.Contains(t, s, "Page 1 (inch) Size: 8.5 x 11")
	assert.Contains(t, s, "Line 0: 'Hello world' Words: 2 Bounds: [1, 1, 3, 1, 3, 2, 1, 2]")
	assert.Contains(t, s, "Line 1: 'Total 5' Words: 2")
	assert.Contains(t, s, "Selection mark: selected Confidence: 0.8")
	assert.Contains(t, s, "Table 0: 1 rows x 2 cols")
	assert.Contains(t, s, "Cell[0][1]: '5'")
	assert.Contains(t, s, "Page 1 Bounds: [2, 2]")
}

func TestAnalyzeFailedOperation(t *testing.T) {
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Header().Set("Operation-Location", srvURL+"/op")
			w.WriteHeader(http.StatusAccepted)
			return
		}
		_, _ = w.Write([]byte(`{"status":"failed","error":{"code":"InvalidContent","message":"The file is corrupted."}}`))
	}))
	defer srv.Close()
	srvURL = srv.URL

	c := New(srv.URL, "k", logging.Discard())
	c.Interval = time.Millisecond
	_, err := c.AnalyzeLayout(context.Background(), media.Image{Data: []byte("%PDF-1.4")})
	assert.ErrorContains(t, err, "InvalidContent: The file is corrupted.")
}

func TestAnalyzeEmptyDocument(t *testing.T) {
	_, err := New("http://unused", "k", nil).AnalyzeLayout(context.Background(), media.Image{})
	assert.Error(t, err)
}

func TestWordsForLineSpanContainment(t *testing.T) {
	p := Page{Words: []Word{
		{Content: "a", Span: Span{Offset: 0, Length: 1}},
		{Content: "b", Span: Span{Offset: 5, Length: 1}},
		{Content: "c", Span: Span{Offset: 10, Length: 1}},
	}}
	l := Line{Spans: []Span{{Offset: 0, Length: 5}, {Offset: 10, Length: 2}}}
	words := p.WordsForLine(l)
	require.Len(t, words, 2)
	assert.Equal(t, "a", words[0].Content)
	assert.Equal(t, "c", words[1].Content)

	assert.False(t, Span{Offset: 3, Length: 2}.Contains(5))
	assert.True(t, Span{Offset: 3, Length: 2}.Contains(4))
}

func TestNoHandwriting(t *testing.T) {
	f := false
	r := &AnalyzeResult{Styles: []Style{{IsHandwritten: &f}, {}}}
	var out bytes.Buffer
	PrintLayout(&out, r)
	assert.True(t, strings.HasPrefix(out.String(), "No handwriting detected."))
}
