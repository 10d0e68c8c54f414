package agents

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
)

const (
	DefaultModel = "gpt-4o-mini"

	FunctionAgentInstructions = "You are a weather bot. Use the provided functions to help answer questions."
	FunctionAgentQuestion     = "Hello, send an email with the datetime and weather information in New York?"

	CodeInterpreterInstructions = "You are a helpful agent that analyzes financial CSV data."
	CodeInterpreterQuestion     = "Could you please create a bar chart in the TRANSPORTATION sector for the operating profit " +
		"from the uploaded CSV file and provide the file to me?"
	MathInstructions = "You are an AI assistant that can write code to help answer math questions."
)

// PrintMessages writes each message as "role: text".
func PrintMessages(w io.Writer, msgs []Message) {
	for _, m := range msgs {
		fmt.Fprintf(w, "%s: %s\n", m.Role, m.Text())
		for _, id := range m.ImageFileIDs() {
			fmt.Fprintf(w, "%s: [image %s]\n", m.Role, id)
		}
	}
}

// Conversation describes the assistant Converse creates.
type Conversation struct {
	Model        string
	Name         string
	Instructions string
	Tools        []ToolDef
	Resources    map[string]any
	Registry     *Registry
}

// Converse creates an assistant, asks one question on a fresh thread and
// processes the run with the registry's tools. The assistant is deleted
// afterwards; the thread is kept.
func (c *Client) Converse(ctx context.Context, w io.Writer, conv Conversation, question string) ([]Message, error) {
	if conv.Model == "" {
		conv.Model = DefaultModel
	}
	tools := conv.Tools
	if conv.Registry != nil {
		tools = append(tools, conv.Registry.Definitions()...)
	}
	a, err := c.CreateAssistant(ctx, AssistantParams{
		Model:         conv.Model,
		Name:          conv.Name,
		Instructions:  conv.Instructions,
		Tools:         tools,
		ToolResources: conv.Resources,
	})
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "Created agent, ID: %s\n", a.ID)
	defer func() {
		if err := c.DeleteAssistant(context.WithoutCancel(ctx), a.ID); err != nil {
			c.log.WithError(err).Warn("delete agent")
			return
		}
		fmt.Fprintln(w, "Deleted agent")
	}()

	th, err := c.CreateThread(ctx)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "Created thread, ID: %s\n", th.ID)

	msg, err := c.CreateMessage(ctx, th.ID, "user", question)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "Created message, ID: %s\n", msg.ID)

	run, err := c.CreateAndProcessRun(ctx, th.ID, a.ID, conv.Registry)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "Run finished with status: %s\n", run.Status)
	if err := RunError(run); err != nil {
		fmt.Fprintf(w, "Run failed: %v\n", err)
	}
	return c.ListMessages(ctx, th.ID)
}

// FunctionAgent runs the weather/email demo with the local user functions.
func (c *Client) FunctionAgent(ctx context.Context, w io.Writer, model, question string) error {
	if question == "" {
		question = FunctionAgentQuestion
	}
	msgs, err := c.Converse(ctx, w, Conversation{
		Model:        model,
		Name:         "my-agent",
		Instructions: FunctionAgentInstructions,
		Registry:     UserFunctions(w),
	}, question)
	if err != nil {
		return err
	}
	PrintMessages(w, msgs)
	return nil
}

// MathAssistant asks the code interpreter to solve an equation.
func (c *Client) MathAssistant(ctx context.Context, w io.Writer, model, question string) error {
	if question == "" {
		question = "I need to solve the equation `3x + 11 = 14`. Can you help me?"
	}
	msgs, err := c.Converse(ctx, w, Conversation{
		Model:        model,
		Name:         "Math Assist",
		Instructions: MathInstructions,
		Tools:        []ToolDef{CodeInterpreter},
	}, question)
	if err != nil {
		return err
	}
	PrintMessages(w, msgs)
	return nil
}

// CodeInterpreterAgent uploads a CSV, asks for a chart and saves every image
// the assistant produced into outDir as {fileID}_chart.png.
func (c *Client) CodeInterpreterAgent(ctx context.Context, w io.Writer, model, csvPath, question, outDir string) ([]string, error) {
	if question == "" {
		question = CodeInterpreterQuestion
	}
	f, err := c.UploadFile(ctx, csvPath, PurposeAssistants)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "Uploaded file with ID: %s\n", f.ID)

	msgs, err := c.Converse(ctx, w, Conversation{
		Model:        model,
		Name:         "my-agent",
		Instructions: CodeInterpreterInstructions,
		Tools:        []ToolDef{CodeInterpreter},
		Resources: map[string]any{
			"code_interpreter": map[string]any{"file_ids": []string{f.ID}},
		},
	}, question)
	if derr := c.DeleteFile(context.WithoutCancel(ctx), f.ID); derr != nil {
		c.log.WithError(derr).Warn("delete uploaded file")
	} else {
		fmt.Fprintln(w, "Deleted uploaded file from agent context")
	}
	if err != nil {
		return nil, err
	}

	var saved []string
	for _, m := range msgs {
		for _, id := range m.ImageFileIDs() {
			p, err := c.SaveFile(ctx, id, filepath.Join(outDir, id+"_chart.png"))
			if err != nil {
				return saved, err
			}
			fmt.Fprintf(w, "Saved image file to: %s\n", p)
			saved = append(saved, p)
		}
	}
	if len(msgs) > 0 && msgs[0].ThreadID != "" {
		if err := c.DeleteThread(ctx, msgs[0].ThreadID); err != nil {
			return saved, err
		}
		fmt.Fprintln(w, "Thread deleted.")
	}
	return saved, nil
}
