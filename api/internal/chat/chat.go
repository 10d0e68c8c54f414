package chat

import (
	"context"
	"errors"
	"strings"
)

// Roles accepted in Message.Role.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Options struct {
	MaxTokens   int64    `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	// Model overrides the engine's deployment or model for one call.
	Model string `json:"model,omitempty"`
}

type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

type Reply struct {
	Engine string `json:"engine"`
	Model  string `json:"model"`
	Text   string `json:"text"`
	Usage  Usage  `json:"usage"`
	// Raw is the vendor response body when the engine exposes it.
	Raw string `json:"-"`
}

type Engine interface {
	Name() string
	GetModel() string
	Chat(ctx context.Context, msgs []Message, opt Options) (Reply, error)
}

type Engines struct {
	Azure  Engine
	Gemini Engine
}

// GetEngine picks an engine by name. An empty name means Azure OpenAI.
func (e *Engines) GetEngine(name string) (Engine, error) {
	var eng Engine
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "azure", "openai", "gpt":
		eng = e.Azure
	case "gemini":
		eng = e.Gemini
	default:
		return nil, errors.New("unknown llm_name; use 'azure' or 'gemini'")
	}
	if eng == nil {
		return nil, errors.New("llm engine " + name + " is not configured")
	}
	return eng, nil
}

// Validate rejects empty conversations and unknown roles.
func Validate(msgs []Message) error {
	if len(msgs) == 0 {
		return errors.New("messages are empty")
	}
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return errors.New("unknown role " + m.Role)
		}
	}
	if msgs[len(msgs)-1].Role != RoleUser {
		return errors.New("last message must come from the user")
	}
	return nil
}
