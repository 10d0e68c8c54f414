package agents

import "github.com/goccy/go-json"

type File struct {
	ID       string `json:"id"`
	Object   string `json:"object"`
	Bytes    int64  `json:"bytes"`
	Filename string `json:"filename"`
	Purpose  string `json:"purpose"`
	Status   string `json:"status,omitempty"`
}

type FunctionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type ToolDef struct {
	Type     string       `json:"type"`
	Function *FunctionDef `json:"function,omitempty"`
}

var CodeInterpreter = ToolDef{Type: "code_interpreter"}

type Assistant struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Model        string    `json:"model"`
	Instructions string    `json:"instructions"`
	Tools        []ToolDef `json:"tools"`
}

type Thread struct {
	ID string `json:"id"`
}

type MessageContent struct {
	Type string `json:"type"`
	Text *struct {
		Value string `json:"value"`
	} `json:"text,omitempty"`
	ImageFile *struct {
		FileID string `json:"file_id"`
	} `json:"image_file,omitempty"`
}

type Message struct {
	ID       string           `json:"id"`
	ThreadID string           `json:"thread_id"`
	Role     string           `json:"role"`
	Content  []MessageContent `json:"content"`
}

// Text joins the message's text parts.
func (m Message) Text() string {
	var s string
	for _, c := range m.Content {
		if c.Text != nil {
			if s != "" {
				s += "\n"
			}
			s += c.Text.Value
		}
	}
	return s
}

// ImageFileIDs lists files the assistant produced as images.
func (m Message) ImageFileIDs() []string {
	var ids []string
	for _, c := range m.Content {
		if c.ImageFile != nil && c.ImageFile.FileID != "" {
			ids = append(ids, c.ImageFile.FileID)
		}
	}
	return ids
}

type ToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// Run statuses.
const (
	RunQueued         = "queued"
	RunInProgress     = "in_progress"
	RunRequiresAction = "requires_action"
	RunCancelling     = "cancelling"
	RunCancelled      = "cancelled"
	RunFailed         = "failed"
	RunCompleted      = "completed"
	RunExpired        = "expired"
	RunIncomplete     = "incomplete"
)

type Run struct {
	ID             string `json:"id"`
	ThreadID       string `json:"thread_id"`
	AssistantID    string `json:"assistant_id"`
	Status         string `json:"status"`
	RequiredAction *struct {
		Type              string `json:"type"`
		SubmitToolOutputs struct {
			ToolCalls []ToolCall `json:"tool_calls"`
		} `json:"submit_tool_outputs"`
	} `json:"required_action,omitempty"`
	LastError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_error,omitempty"`
}

// Terminal reports whether polling can stop.
func (r *Run) Terminal() bool {
	switch r.Status {
	case RunCompleted, RunFailed, RunCancelled, RunExpired, RunIncomplete:
		return true
	}
	return false
}

func jsonString(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `{"error":"marshal failed"}`
	}
	return string(b)
}
