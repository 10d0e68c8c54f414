package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"
	"github.com/sirupsen/logrus"
)

// AzureEngine talks to Azure OpenAI deployments. The azure middleware maps
// the model field onto /openai/deployments/{model}/...
type AzureEngine struct {
	Deployment           string
	CompletionDeployment string

	client openai.Client
	log    *logrus.Entry
}

func NewAzure(endpoint, key, apiVersion, deployment string, log *logrus.Entry, opts ...option.RequestOption) *AzureEngine {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	base := []option.RequestOption{
		azure.WithEndpoint(strings.TrimRight(endpoint, "/"), apiVersion),
		azure.WithAPIKey(key),
	}
	return &AzureEngine{
		Deployment:           deployment,
		CompletionDeployment: deployment,
		client:               openai.NewClient(append(base, opts...)...),
		log:                  log.WithField("engine", "azure"),
	}
}

func (e *AzureEngine) Name() string     { return "azure" }
func (e *AzureEngine) GetModel() string { return e.Deployment }

func toOpenAI(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func (e *AzureEngine) params(msgs []Message, opt Options) openai.ChatCompletionNewParams {
	model := e.Deployment
	if opt.Model != "" {
		model = opt.Model
	}
	p := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: toOpenAI(msgs),
	}
	if opt.MaxTokens > 0 {
		p.MaxTokens = openai.Int(opt.MaxTokens)
	}
	if opt.Temperature != nil {
		p.Temperature = openai.Float(*opt.Temperature)
	}
	return p
}

func (e *AzureEngine) chat(ctx context.Context, msgs []Message, opt Options, reqOpts ...option.RequestOption) (Reply, error) {
	if err := Validate(msgs); err != nil {
		return Reply{}, err
	}
	resp, err := e.client.Chat.Completions.New(ctx, e.params(msgs, opt), reqOpts...)
	if err != nil {
		return Reply{}, fmt.Errorf("azure chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Reply{}, errors.New("azure chat: empty choices")
	}
	e.log.WithFields(logrus.Fields{
		"model":  resp.Model,
		"tokens": resp.Usage.TotalTokens,
	}).Debug("chat completion")
	return Reply{
		Engine: e.Name(),
		Model:  resp.Model,
		Text:   resp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Raw: resp.RawJSON(),
	}, nil
}

func (e *AzureEngine) Chat(ctx context.Context, msgs []Message, opt Options) (Reply, error) {
	return e.chat(ctx, msgs, opt)
}

// SearchSource grounds a chat on an Azure AI Search index.
type SearchSource struct {
	Endpoint string
	Key      string
	Index    string
}

func (s SearchSource) dataSources() []map[string]any {
	return []map[string]any{{
		"type": "azure_search",
		"parameters": map[string]any{
			"endpoint":   s.Endpoint,
			"index_name": s.Index,
			"authentication": map[string]any{
				"type": "api_key",
				"key":  s.Key,
			},
		},
	}}
}

// ChatOnYourData is Chat with the search index injected as a data source.
func (e *AzureEngine) ChatOnYourData(ctx context.Context, msgs []Message, src SearchSource, opt Options) (Reply, error) {
	if src.Endpoint == "" || src.Index == "" {
		return Reply{}, errors.New("search endpoint and index are required")
	}
	return e.chat(ctx, msgs, opt, option.WithJSONSet("data_sources", src.dataSources()))
}

// Complete runs a legacy completion against the instruct deployment.
func (e *AzureEngine) Complete(ctx context.Context, prompt string, maxTokens int64) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("prompt is empty")
	}
	p := openai.CompletionNewParams{
		Model:  openai.CompletionNewParamsModel(e.CompletionDeployment),
		Prompt: openai.CompletionNewParamsPromptUnion{OfString: openai.String(prompt)},
	}
	if maxTokens > 0 {
		p.MaxTokens = openai.Int(maxTokens)
	}
	resp, err := e.client.Completions.New(ctx, p)
	if err != nil {
		return "", fmt.Errorf("azure completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("azure completion: empty choices")
	}
	return resp.Choices[0].Text, nil
}
