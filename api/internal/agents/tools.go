package agents

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/goccy/go-json"
)

// Handler runs a function tool. args is the raw JSON the model produced.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

type Function struct {
	Name        string
	Description string
	Parameters  map[string]any
	Handler     Handler
}

// Registry maps tool names to local functions.
type Registry struct {
	funcs map[string]Function
}

func NewRegistry(fns ...Function) *Registry {
	r := &Registry{funcs: make(map[string]Function, len(fns))}
	for _, f := range fns {
		r.Register(f)
	}
	return r
}

func (r *Registry) Register(f Function) {
	r.funcs[f.Name] = f
}

// Definitions returns the tool list for an assistant, sorted by name.
func (r *Registry) Definitions() []ToolDef {
	names := make([]string, 0, len(r.funcs))
	for n := range r.funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	defs := make([]ToolDef, 0, len(names))
	for _, n := range names {
		f := r.funcs[n]
		defs = append(defs, ToolDef{Type: "function", Function: &FunctionDef{
			Name:        f.Name,
			Description: f.Description,
			Parameters:  f.Parameters,
		}})
	}
	return defs
}

// Call runs one tool call and always returns a JSON string, errors included,
// so the run can carry on.
func (r *Registry) Call(ctx context.Context, name, args string) string {
	f, ok := r.funcs[name]
	if !ok {
		return jsonString(map[string]string{"error": "unknown function " + name})
	}
	if args == "" {
		args = "{}"
	}
	out, err := f.Handler(ctx, json.RawMessage(args))
	if err != nil {
		return jsonString(map[string]string{"error": err.Error()})
	}
	if s, ok := out.(string); ok {
		return s
	}
	return jsonString(out)
}

// objectSchema builds a JSON schema object. required is always an array;
// the service rejects null.
func objectSchema(required []string, props map[string]any) map[string]any {
	if required == nil {
		required = []string{}
	}
	return map[string]any{"type": "object", "properties": props, "required": required}
}

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

var mockWeather = map[string]string{
	"New York": "Sunny, 25°C",
	"London":   "Cloudy, 18°C",
	"Tokyo":    "Rainy, 22°C",
}

// FetchWeather returns canned weather for a handful of cities.
func FetchWeather() Function {
	return Function{
		Name:        "fetch_weather",
		Description: "Fetches the weather information for the specified location.",
		Parameters:  objectSchema([]string{"location"}, map[string]any{"location": stringProp("The location to fetch weather for.")}),
		Handler: func(_ context.Context, args json.RawMessage) (any, error) {
			var in struct {
				Location string `json:"location"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, fmt.Errorf("bad arguments: %w", err)
			}
			w, ok := mockWeather[in.Location]
			if !ok {
				w = "Weather data not available for this location."
			}
			return map[string]string{"weather": w}, nil
		},
	}
}

// FetchCurrentDatetime formats now; the format argument takes a Go layout.
func FetchCurrentDatetime(now func() time.Time) Function {
	if now == nil {
		now = time.Now
	}
	return Function{
		Name:        "fetch_current_datetime",
		Description: "Get the current time as a JSON string, optionally formatted.",
		Parameters:  objectSchema(nil, map[string]any{"format": stringProp("Optional Go time layout.")}),
		Handler: func(_ context.Context, args json.RawMessage) (any, error) {
			var in struct {
				Format string `json:"format"`
			}
			_ = json.Unmarshal(args, &in)
			layout := in.Format
			if layout == "" {
				layout = "2006-01-02 15:04:05"
			}
			return map[string]string{"current_time": now().Format(layout)}, nil
		},
	}
}

// SendEmail pretends to send by writing the email to w.
func SendEmail(w io.Writer) Function {
	return Function{
		Name:        "send_email",
		Description: "Sends an email with the specified subject and body to the recipient.",
		Parameters: objectSchema([]string{"recipient", "subject", "body"}, map[string]any{
			"recipient": stringProp("Email address of the recipient."),
			"subject":   stringProp("Subject of the email."),
			"body":      stringProp("Body content of the email."),
		}),
		Handler: func(_ context.Context, args json.RawMessage) (any, error) {
			var in struct {
				Recipient string `json:"recipient"`
				Subject   string `json:"subject"`
				Body      string `json:"body"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, fmt.Errorf("bad arguments: %w", err)
			}
			if in.Recipient == "" {
				return nil, fmt.Errorf("recipient is required")
			}
			fmt.Fprintf(w, "Sending email to: %s\nSubject: %s\nBody:\n%s\n", in.Recipient, in.Subject, in.Body)
			return map[string]string{"message": "Email successfully sent to " + in.Recipient + "."}, nil
		},
	}
}

// UserFunctions is the default function agent tool set.
func UserFunctions(w io.Writer) *Registry {
	return NewRegistry(FetchWeather(), FetchCurrentDatetime(nil), SendEmail(w))
}
