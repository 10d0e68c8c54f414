package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"azure-playground/api/internal/logging"
)

// fakeAssistants is a tiny in-memory Assistants API. Runs go queued ->
// requires_action (one fetch_weather call) -> completed when tools are used.
type fakeAssistants struct {
	mu          sync.Mutex
	calls       []string
	toolOutputs []ToolOutput
	uploaded    string
	purpose     string
	assistant   AssistantParams
	withTools   bool
	runGets     int
	apiKeys     map[string]bool
}

func (f *fakeAssistants) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := strings.TrimPrefix(r.URL.Path, "/openai/")
	f.calls = append(f.calls, r.Method+" "+p)
	f.apiKeys[r.Header.Get("api-key")] = true
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && p == "files":
		_ = r.ParseMultipartForm(1 << 20)
		f.purpose = r.FormValue("purpose")
		if file, hdr, err := r.FormFile("file"); err == nil {
			b, _ := io.ReadAll(file)
			f.uploaded = hdr.Filename + ":" + string(b)
		}
		_, _ = w.Write([]byte(`{"id":"file-1","object":"file","filename":"data.csv","purpose":"assistants"}`))
	case p == "files/img-1/content":
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", "9")
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte("\x89PNG fake"))
		}
	case r.Method == http.MethodDelete:
		_, _ = w.Write([]byte(`{"deleted":true}`))
	case r.Method == http.MethodPost && p == "assistants":
		_ = json.NewDecoder(r.Body).Decode(&f.assistant)
		for _, t := range f.assistant.Tools {
			if t.Type == "function" {
				f.withTools = true
			}
		}
		_, _ = w.Write([]byte(`{"id":"asst-1","model":"gpt-4o-mini"}`))
	case r.Method == http.MethodPost && p == "threads":
		_, _ = w.Write([]byte(`{"id":"thread-1"}`))
	case r.Method == http.MethodPost && p == "threads/thread-1/messages":
		_, _ = w.Write([]byte(`{"id":"msg-1","thread_id":"thread-1","role":"user"}`))
	case r.Method == http.MethodGet && p == "threads/thread-1/messages":
		_, _ = w.Write([]byte(`{"data":[
			{"id":"msg-1","thread_id":"thread-1","role":"user","content":[{"type":"text","text":{"value":"hi"}}]},
			{"id":"msg-2","thread_id":"thread-1","role":"assistant","content":[
				{"type":"text","text":{"value":"Here is your chart."}},
				{"type":"image_file","image_file":{"file_id":"img-1"}}]}]}`))
	case r.Method == http.MethodPost && p == "threads/thread-1/runs":
		_, _ = w.Write([]byte(`{"id":"run-1","thread_id":"thread-1","status":"queued"}`))
	case r.Method == http.MethodGet && p == "threads/thread-1/runs/run-1":
		f.runGets++
		switch {
		case f.runGets == 1:
			_, _ = w.Write([]byte(`{"id":"run-1","status":"in_progress"}`))
		case f.withTools && f.toolOutputs == nil:
			_, _ = w.Write([]byte(`{"id":"run-1","status":"requires_action","required_action":{"type":"submit_tool_outputs",
				"submit_tool_outputs":{"tool_calls":[
					{"id":"call-1","type":"function","function":{"name":"fetch_weather","arguments":"{\"location\":\"New York\"}"}},
					{"id":"call-2","type":"function","function":{"name":"nope","arguments":"{}"}}]}}}`))
		default:
			_, _ = w.Write([]byte(`{"id":"run-1","status":"completed"}`))
		}
	case r.Method == http.MethodPost && p == "threads/thread-1/runs/run-1/submit_tool_outputs":
		var in struct {
			ToolOutputs []ToolOutput `json:"tool_outputs"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.toolOutputs = in.ToolOutputs
		_, _ = w.Write([]byte(`{"id":"run-1","status":"in_progress"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"NotFound","message":"` + r.Method + " " + p + `"}}`))
	}
}

func newFake(t *testing.T) (*Client, *fakeAssistants) {
	t.Helper()
	f := &fakeAssistants{apiKeys: map[string]bool{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	c := New(srv.URL, "secret", "", logging.Discard())
	c.Interval = time.Millisecond
	return c, f
}

func TestFunctionAgentSubmitsToolOutputs(t *testing.T) {
	c, f := newFake(t)
	var out bytes.Buffer
	require.NoError(t, c.FunctionAgent(context.Background(), &out, "", ""))

	require.Len(t, f.toolOutputs, 2)
	assert.Equal(t, "call-1", f.toolOutputs[0].ToolCallID)
	assert.JSONEq(t, `{"weather":"Sunny, 25°C"}`, f.toolOutputs[0].Output)
	assert.JSONEq(t, `{"error":"unknown function nope"}`, f.toolOutputs[1].Output)

	assert.Equal(t, DefaultModel, f.assistant.Model)
	assert.Equal(t, FunctionAgentInstructions, f.assistant.Instructions)
	require.Len(t, f.assistant.Tools, 3)
	assert.Equal(t, "fetch_current_datetime", f.assistant.Tools[0].Function.Name)

	s := out.String()
	assert.Contains(t, s, "Created agent, ID: asst-1")
	assert.Contains(t, s, "Run finished with status: completed")
	assert.Contains(t, s, "assistant: Here is your chart.")
	assert.Contains(t, s, "Deleted agent")
	assert.Contains(t, f.calls, "DELETE assistants/asst-1")
	assert.Equal(t, map[string]bool{"secret": true}, f.apiKeys)
}

func TestCodeInterpreterAgentSavesImages(t *testing.T) {
	c, f := newFake(t)
	dir := t.TempDir()
	csv := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(csv, []byte("sector,profit\nTRANSPORTATION,10\n"), 0o644))

	var out bytes.Buffer
	saved, err := c.CodeInterpreterAgent(context.Background(), &out, "", csv, "", filepath.Join(dir, "out"))
	require.NoError(t, err)

	assert.Equal(t, "assistants", f.purpose)
	assert.Equal(t, "data.csv:sector,profit\nTRANSPORTATION,10\n", f.uploaded)
	res := f.assistant.ToolResources["code_interpreter"].(map[string]any)
	assert.Equal(t, []any{"file-1"}, res["file_ids"])

	require.Len(t, saved, 1)
	assert.Equal(t, "img-1_chart.png", filepath.Base(saved[0]))
	b, err := os.ReadFile(saved[0])
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG fake", string(b))

	assert.Contains(t, f.calls, "DELETE files/file-1")
	assert.Contains(t, f.calls, "DELETE threads/thread-1")
	assert.Empty(t, f.toolOutputs)
	assert.Contains(t, out.String(), "Uploaded file with ID: file-1")
}

func TestRunErrorAndTerminal(t *testing.T) {
	r := &Run{Status: RunFailed}
	assert.EqualError(t, RunError(r), "run failed")
	r.LastError = &struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{Code: "rate_limit_exceeded", Message: "slow down"}
	assert.EqualError(t, RunError(r), "run failed: rate_limit_exceeded: slow down")
	assert.NoError(t, RunError(&Run{Status: RunCompleted}))

	for _, s := range []string{RunCompleted, RunFailed, RunCancelled, RunExpired, RunIncomplete} {
		assert.True(t, (&Run{Status: s}).Terminal(), s)
	}
	for _, s := range []string{RunQueued, RunInProgress, RunRequiresAction, RunCancelling} {
		assert.False(t, (&Run{Status: s}).Terminal(), s)
	}
}

func TestUserFunctions(t *testing.T) {
	var mail bytes.Buffer
	fixed := time.Date(2025, 6, 17, 9, 30, 0, 0, time.UTC)
	r := NewRegistry(FetchWeather(), FetchCurrentDatetime(func() time.Time { return fixed }), SendEmail(&mail))
	ctx := context.Background()

	assert.JSONEq(t, `{"weather":"Weather data not available for this location."}`, r.Call(ctx, "fetch_weather", `{"location":"Paris"}`))
	assert.JSONEq(t, `{"current_time":"2025-06-17 09:30:00"}`, r.Call(ctx, "fetch_current_datetime", ""))
	assert.JSONEq(t, `{"current_time":"09:30"}`, r.Call(ctx, "fetch_current_datetime", `{"format":"15:04"}`))
	assert.JSONEq(t, `{"message":"Email successfully sent to a@b.c."}`,
		r.Call(ctx, "send_email", `{"recipient":"a@b.c","subject":"Weather","body":"Sunny"}`))
	assert.Contains(t, mail.String(), "Sending email to: a@b.c")
	assert.JSONEq(t, `{"error":"recipient is required"}`, r.Call(ctx, "send_email", `{}`))
	assert.Contains(t, r.Call(ctx, "fetch_weather", `not json`), "bad arguments")
}

func TestToolDefinitionsAreValidSchemas(t *testing.T) {
	b, err := json.Marshal(UserFunctions(io.Discard).Definitions())
	require.NoError(t, err)

	var defs []struct {
		Function struct {
			Name       string `json:"name"`
			Parameters struct {
				Type     string         `json:"type"`
				Required any            `json:"required"`
				Props    map[string]any `json:"properties"`
			} `json:"parameters"`
		} `json:"function"`
	}
	require.NoError(t, json.Unmarshal(b, &defs))
	require.Len(t, defs, 3)
	for _, d := range defs {
		p := d.Function.Parameters
		assert.Equal(t, "object", p.Type, d.Function.Name)
		assert.IsType(t, []any{}, p.Required, d.Function.Name)
		assert.NotEmpty(t, p.Props, d.Function.Name)
	}
}
