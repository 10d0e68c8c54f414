package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"azure-playground/api/internal/config"
	"azure-playground/api/internal/logging"
)

type seen struct {
	path    string
	version string
	apiKey  string
	body    map[string]any
}

func fakeAzure(t *testing.T, s *seen, reply string) *AzureEngine {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.path = r.URL.Path
		s.version = r.URL.Query().Get("api-version")
		s.apiKey = r.Header.Get("Api-Key")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &s.body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return NewAzure(srv.URL, "secret", "2024-05-01-preview", "gpt-4o-mini", logging.Discard(), option.WithMaxRetries(0))
}

const chatReply = `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
	"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Azure ML trains models; Azure OpenAI serves them."}}],
	"usage":{"prompt_tokens":12,"completion_tokens":9,"total_tokens":21}}`

func TestAzureChat(t *testing.T) {
	var s seen
	e := fakeAzure(t, &s, chatReply)
	temp := 0.2
	r, err := e.Chat(context.Background(), []Message{
		{Role: RoleSystem, Content: "Be brief."},
		{Role: RoleUser, Content: "How is Azure machine learning different than Azure OpenAI?"},
	}, Options{MaxTokens: 50, Temperature: &temp})
	require.NoError(t, err)

	assert.Equal(t, "/openai/deployments/gpt-4o-mini/chat/completions", s.path)
	assert.Equal(t, "2024-05-01-preview", s.version)
	assert.Equal(t, "secret", s.apiKey)
	assert.EqualValues(t, 50, s.body["max_tokens"])
	msgs := s.body["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])

	assert.Equal(t, "azure", r.Engine)
	assert.Equal(t, "Azure ML trains models; Azure OpenAI serves them.", r.Text)
	assert.EqualValues(t, 21, r.Usage.TotalTokens)
	assert.Contains(t, r.Raw, `"chat.completion"`)
}

func TestAzureChatOnYourData(t *testing.T) {
	var s seen
	e := fakeAzure(t, &s, chatReply)
	_, err := e.ChatOnYourData(context.Background(),
		[]Message{{Role: RoleUser, Content: "What is in the index?"}},
		SearchSource{Endpoint: "https://search.example", Key: "sk", Index: "docs"}, Options{})
	require.NoError(t, err)

	ds := s.body["data_sources"].([]any)
	require.Len(t, ds, 1)
	src := ds[0].(map[string]any)
	assert.Equal(t, "azure_search", src["type"])
	params := src["parameters"].(map[string]any)
	assert.Equal(t, "docs", params["index_name"])
	assert.Equal(t, "sk", params["authentication"].(map[string]any)["key"])

	_, err = e.ChatOnYourData(context.Background(), []Message{{Role: RoleUser, Content: "x"}}, SearchSource{}, Options{})
	assert.Error(t, err)
}

func TestAzureComplete(t *testing.T) {
	var s seen
	e := fakeAzure(t, &s, `{"id":"x","object":"text_completion","created":1,"model":"gpt-35-turbo-instruct",
		"choices":[{"index":0,"text":"Scoops of joy!","finish_reason":"length","logprobs":null}]}`)
	e.CompletionDeployment = "gpt-35-turbo-instruct"
	out, err := e.Complete(context.Background(), "Write a tagline for an ice cream shop. ", 10)
	require.NoError(t, err)
	assert.Equal(t, "Scoops of joy!", out)
	assert.Equal(t, "/openai/deployments/gpt-35-turbo-instruct/completions", s.path)
	assert.Equal(t, "Write a tagline for an ice cream shop. ", s.body["prompt"])
	assert.EqualValues(t, 10, s.body["max_tokens"])
}

func TestAzureChatError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"DeploymentNotFound","message":"The API deployment for this resource does not exist."}}`))
	}))
	defer srv.Close()
	e := NewAzure(srv.URL, "k", "2024-05-01-preview", "missing", nil, option.WithMaxRetries(0))
	_, err := e.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestGetEngine(t *testing.T) {
	az := NewAzure("http://unused", "k", "v", "d", nil)
	g := NewGemini("key", "gemini-2.5-flash", nil)
	engs := &Engines{Azure: az, Gemini: g}

	for _, name := range []string{"", "azure", "OpenAI", "gpt"} {
		e, err := engs.GetEngine(name)
		require.NoError(t, err, name)
		assert.Equal(t, "azure", e.Name())
	}
	e, err := engs.GetEngine("gemini")
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", e.GetModel())

	_, err = engs.GetEngine("claude")
	assert.Error(t, err)
	_, err = (&Engines{Azure: az}).GetEngine("gemini")
	assert.ErrorContains(t, err, "not configured")
}

func TestValidate(t *testing.T) {
	assert.Error(t, Validate(nil))
	assert.Error(t, Validate([]Message{{Role: "tool", Content: "x"}}))
	assert.Error(t, Validate([]Message{{Role: RoleUser, Content: "q"}, {Role: RoleAssistant, Content: "a"}}))
	assert.NoError(t, Validate([]Message{{Role: RoleSystem, Content: "s"}, {Role: RoleUser, Content: "q"}}))
}

func TestGeminiHistory(t *testing.T) {
	sys, hist, last := geminiHistory([]Message{
		{Role: RoleSystem, Content: "s"},
		{Role: RoleUser, Content: "u1"},
		{Role: RoleAssistant, Content: "a1"},
		{Role: RoleUser, Content: "u2"},
	})
	assert.Len(t, sys, 1)
	require.Len(t, hist, 2)
	assert.Equal(t, "user", hist[0].Role)
	assert.Equal(t, "model", hist[1].Role)
	assert.Equal(t, "u2", last)
}

func TestGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini("", "m", nil).Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Options{})
	assert.ErrorContains(t, err, "GEMINI_API_KEY")
}

func TestNewEnginesSkipsUnconfigured(t *testing.T) {
	cfg := &config.Config{}
	e := NewEngines(cfg, logging.Discard())
	_, err := e.GetEngine("azure")
	assert.ErrorContains(t, err, "not configured")
	_, err = e.GetEngine("gemini")
	assert.ErrorContains(t, err, "not configured")

	cfg.OpenAI = config.OpenAI{Endpoint: "https://x.openai.azure.com", Key: "k", APIVersion: "v", Deployment: "d", CompletionDeployment: "c"}
	cfg.Gemini = config.Gemini{APIKey: "g", Model: "gemini-2.5-flash"}
	e = NewEngines(cfg, logging.Discard())
	az, err := e.GetEngine("")
	require.NoError(t, err)
	assert.Equal(t, "d", az.GetModel())
	assert.Equal(t, "c", e.Azure.(*AzureEngine).CompletionDeployment)
	g, err := e.GetEngine("gemini")
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", g.GetModel())
}

// fakeSession appends the prompt to its history before answering, as a
// genai.ChatSession does.
type fakeSession struct {
	history []*genai.Content
	calls   int
	resp    *genai.GenerateContentResponse
	err     error
}

func (f *fakeSession) SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.history = append(f.history, genai.NewUserContent(parts...))
	return f.resp, f.err
}

func TestGeminiReply(t *testing.T) {
	ok := &genai.GenerateContentResponse{
		Candidates:    []*genai.Candidate{{Content: &genai.Content{Role: "model", Parts: []genai.Part{genai.Text("Bonjour")}}}},
		UsageMetadata: &genai.UsageMetadata{PromptTokenCount: 3, CandidatesTokenCount: 2, TotalTokenCount: 5},
	}
	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		err     error
		want    string
		wantErr string
	}{
		{name: "success", resp: ok, want: "Bonjour"},
		{name: "vendor error is not retried", err: errors.New("rpc error: code = InvalidArgument"), wantErr: "gemini: rpc error"},
		{name: "empty candidates", resp: &genai.GenerateContentResponse{}, wantErr: "empty response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := &fakeSession{resp: tt.resp, err: tt.err}
			e := NewGemini("k", "gemini-2.5-flash", logging.Discard())
			r, err := e.reply(context.Background(), cs, "gemini-2.5-flash", "Say hello in French")

			assert.Equal(t, 1, cs.calls)
			require.Len(t, cs.history, 1)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Text)
			assert.Equal(t, int64(5), r.Usage.TotalTokens)
		})
	}
}
