package language

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

type Intent struct {
	Category        string  `json:"category"`
	ConfidenceScore float64 `json:"confidenceScore"`
}

type Entity struct {
	Category        string  `json:"category"`
	Text            string  `json:"text"`
	Offset          int     `json:"offset"`
	Length          int     `json:"length"`
	ConfidenceScore float64 `json:"confidenceScore"`
}

type Prediction struct {
	TopIntent   string   `json:"topIntent"`
	ProjectKind string   `json:"projectKind"`
	Intents     []Intent `json:"intents"`
	Entities    []Entity `json:"entities"`
}

type ConversationResult struct {
	Query      string     `json:"query"`
	Prediction Prediction `json:"prediction"`
}

// AnalyzeConversation runs a CLU prediction for a single utterance.
func (c *Client) AnalyzeConversation(ctx context.Context, project, deployment, query, lang string) (*ConversationResult, error) {
	if lang == "" {
		lang = "en"
	}
	body := map[string]any{
		"kind": "Conversation",
		"analysisInput": map[string]any{
			"conversationItem": map[string]any{
				"participantId": "1",
				"id":            "1",
				"modality":      "text",
				"language":      lang,
				"text":          query,
			},
			"isLoggingEnabled": false,
		},
		"parameters": map[string]any{
			"projectName":    project,
			"deploymentName": deployment,
			"verbose":        true,
		},
	}
	var out struct {
		Kind   string             `json:"kind"`
		Result ConversationResult `json:"result"`
	}
	if err := c.rest.JSON(ctx, http.MethodPost, "language/:analyze-conversations", nil, body, &out); err != nil {
		return nil, fmt.Errorf("analyze conversation: %w", err)
	}
	return &out.Result, nil
}

func PrintPrediction(w io.Writer, r *ConversationResult) {
	p := r.Prediction
	fmt.Fprintln(w, "view top intent:")
	fmt.Fprintf(w, "\ttop intent: %s\n", p.TopIntent)
	if len(p.Intents) > 0 {
		fmt.Fprintf(w, "\tcategory: %s\n", p.Intents[0].Category)
		fmt.Fprintf(w, "\tconfidence score: %.2f\n", p.Intents[0].ConfidenceScore)
	}
	fmt.Fprintln(w, "\nview entities:")
	for _, e := range p.Entities {
		fmt.Fprintf(w, "\tcategory: %s\n", e.Category)
		fmt.Fprintf(w, "\ttext: %s\n", e.Text)
		fmt.Fprintf(w, "\tconfidence score: %.2f\n", e.ConfidenceScore)
	}
	fmt.Fprintf(w, "query: %s\n", r.Query)
}
