package agents

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"azure-playground/api/internal/azrest"
)

const DefaultAPIVersion = "2024-05-01-preview"

// Client speaks the Azure OpenAI Assistants API under {endpoint}/openai.
type Client struct {
	rest     *azrest.Client
	log      *logrus.Entry
	key      string
	Interval time.Duration
}

func New(endpoint, key, apiVersion string, log *logrus.Entry, opts ...azrest.Option) *Client {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	opts = append([]azrest.Option{
		azrest.WithKeyHeader("api-key"),
		azrest.WithAPIVersion(apiVersion),
		azrest.WithHeader("OpenAI-Beta", "assistants=v2"),
		azrest.WithLogger(log),
	}, opts...)
	base := strings.TrimRight(strings.TrimSpace(endpoint), "/") + "/openai"
	return &Client{rest: azrest.New(base, key, opts...), log: log, key: key, Interval: time.Second}
}

const PurposeAssistants = "assistants"

// UploadFile sends a local file as multipart form data.
func (c *Client) UploadFile(ctx context.Context, path, purpose string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if purpose == "" {
		purpose = PurposeAssistants
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("purpose", purpose); err != nil {
		return nil, err
	}
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var out File
	_, err = c.rest.Do(ctx, azrest.Request{
		Method:      http.MethodPost,
		Path:        "files",
		Body:        buf.Bytes(),
		ContentType: mw.FormDataContentType(),
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", filepath.Base(path), err)
	}
	return &out, nil
}

func (c *Client) DeleteFile(ctx context.Context, id string) error {
	return c.rest.JSON(ctx, http.MethodDelete, "files/"+url.PathEscape(id), nil, nil, nil)
}

// AssistantParams is the create-assistant body.
type AssistantParams struct {
	Model         string         `json:"model"`
	Name          string         `json:"name,omitempty"`
	Instructions  string         `json:"instructions,omitempty"`
	Tools         []ToolDef      `json:"tools,omitempty"`
	ToolResources map[string]any `json:"tool_resources,omitempty"`
}

func (c *Client) CreateAssistant(ctx context.Context, p AssistantParams) (*Assistant, error) {
	var out Assistant
	if err := c.rest.JSON(ctx, http.MethodPost, "assistants", nil, p, &out); err != nil {
		return nil, fmt.Errorf("create assistant: %w", err)
	}
	return &out, nil
}

func (c *Client) DeleteAssistant(ctx context.Context, id string) error {
	return c.rest.JSON(ctx, http.MethodDelete, "assistants/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) CreateThread(ctx context.Context) (*Thread, error) {
	var out Thread
	if err := c.rest.JSON(ctx, http.MethodPost, "threads", nil, map[string]any{}, &out); err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}
	return &out, nil
}

func (c *Client) DeleteThread(ctx context.Context, id string) error {
	return c.rest.JSON(ctx, http.MethodDelete, "threads/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) CreateMessage(ctx context.Context, threadID, role, content string) (*Message, error) {
	var out Message
	body := map[string]string{"role": role, "content": content}
	if err := c.rest.JSON(ctx, http.MethodPost, "threads/"+url.PathEscape(threadID)+"/messages", nil, body, &out); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return &out, nil
}

// ListMessages returns the thread's messages oldest first.
func (c *Client) ListMessages(ctx context.Context, threadID string) ([]Message, error) {
	var out struct {
		Data []Message `json:"data"`
	}
	q := url.Values{"order": {"asc"}}
	if err := c.rest.JSON(ctx, http.MethodGet, "threads/"+url.PathEscape(threadID)+"/messages", q, nil, &out); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return out.Data, nil
}

func (c *Client) CreateRun(ctx context.Context, threadID, assistantID string) (*Run, error) {
	var out Run
	body := map[string]string{"assistant_id": assistantID}
	if err := c.rest.JSON(ctx, http.MethodPost, "threads/"+url.PathEscape(threadID)+"/runs", nil, body, &out); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return &out, nil
}

func (c *Client) GetRun(ctx context.Context, threadID, runID string) (*Run, error) {
	var out Run
	if err := c.rest.JSON(ctx, http.MethodGet, "threads/"+url.PathEscape(threadID)+"/runs/"+url.PathEscape(runID), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &out, nil
}

type ToolOutput struct {
	ToolCallID string `json:"tool_call_id"`
	Output     string `json:"output"`
}

func (c *Client) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*Run, error) {
	var out Run
	p := "threads/" + url.PathEscape(threadID) + "/runs/" + url.PathEscape(runID) + "/submit_tool_outputs"
	if err := c.rest.JSON(ctx, http.MethodPost, p, nil, map[string]any{"tool_outputs": outputs}, &out); err != nil {
		return nil, fmt.Errorf("submit tool outputs: %w", err)
	}
	return &out, nil
}
