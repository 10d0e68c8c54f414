package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

type GeminiEngine struct {
	APIKey string
	Model  string

	opts []option.ClientOption
	log  *logrus.Entry
}

func NewGemini(apiKey, model string, log *logrus.Entry, opts ...option.ClientOption) *GeminiEngine {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &GeminiEngine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
		opts:   opts,
		log:    log.WithField("engine", "gemini"),
	}
}

func (e *GeminiEngine) Name() string     { return "gemini" }
func (e *GeminiEngine) GetModel() string { return e.Model }

// geminiHistory splits msgs into the system instruction, prior turns and the
// final user prompt. Gemini calls the assistant role "model".
func geminiHistory(msgs []Message) (system []genai.Part, history []*genai.Content, last string) {
	for i, m := range msgs {
		if i == len(msgs)-1 {
			last = m.Content
			break
		}
		switch m.Role {
		case RoleSystem:
			system = append(system, genai.Text(m.Content))
		case RoleAssistant:
			history = append(history, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			history = append(history, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}
	return system, history, last
}

func (e *GeminiEngine) Chat(ctx context.Context, msgs []Message, opt Options) (Reply, error) {
	if e.APIKey == "" {
		return Reply{}, errors.New("GEMINI_API_KEY is empty")
	}
	if err := Validate(msgs); err != nil {
		return Reply{}, err
	}
	cl, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(e.APIKey)}, e.opts...)...)
	if err != nil {
		return Reply{}, err
	}
	defer cl.Close()

	model := e.Model
	if opt.Model != "" {
		model = opt.Model
	}
	m := cl.GenerativeModel(model)
	if m == nil {
		return Reply{}, fmt.Errorf("gemini: model is nil")
	}
	if opt.Temperature != nil {
		m.SetTemperature(float32(*opt.Temperature))
	}
	if opt.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(opt.MaxTokens))
	}

	system, history, last := geminiHistory(msgs)
	if len(system) > 0 {
		m.SystemInstruction = &genai.Content{Parts: system}
	}
	cs := m.StartChat()
	cs.History = history
	return e.reply(ctx, cs, model, last)
}

// messageSender is the part of *genai.ChatSession a reply needs.
type messageSender interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// reply sends the final prompt once. A failed send leaves the prompt in the
// session history, so the session is never reused.
func (e *GeminiEngine) reply(ctx context.Context, cs messageSender, model, prompt string) (Reply, error) {
	resp, err := cs.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		e.log.WithError(err).Warn("gemini call failed")
		return Reply{}, fmt.Errorf("gemini: %w", err)
	}
	txt := firstText(resp)
	if txt == "" {
		return Reply{}, fmt.Errorf("gemini: empty response")
	}
	r := Reply{Engine: e.Name(), Model: model, Text: txt}
	if u := resp.UsageMetadata; u != nil {
		r.Usage = Usage{
			PromptTokens:     int64(u.PromptTokenCount),
			CompletionTokens: int64(u.CandidatesTokenCount),
			TotalTokens:      int64(u.TotalTokenCount),
		}
	}
	return r, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}
