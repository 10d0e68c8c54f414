package agents

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"azure-playground/api/internal/azrest"
)

// CreateAndProcessRun starts a run and polls it to a terminal status. When
// the run asks for tool outputs the calls are executed locally through tools
// and submitted. tools may be nil for assistants without function tools.
func (c *Client) CreateAndProcessRun(ctx context.Context, threadID, assistantID string, tools *Registry) (*Run, error) {
	run, err := c.CreateRun(ctx, threadID, assistantID)
	if err != nil {
		return nil, err
	}
	log := c.log.WithFields(logrus.Fields{"thread": threadID, "run": run.ID})

	err = azrest.Poll(ctx, c.Interval, func(ctx context.Context) (bool, error) {
		r, err := c.GetRun(ctx, threadID, run.ID)
		if err != nil {
			return false, err
		}
		run = r
		log.WithField("status", run.Status).Debug("run status")
		if run.Status != RunRequiresAction {
			return run.Terminal(), nil
		}
		if run.RequiredAction == nil || len(run.RequiredAction.SubmitToolOutputs.ToolCalls) == 0 {
			return false, errors.New("run requires action without tool calls")
		}
		if tools == nil {
			return false, errors.New("run requires tool outputs but no tools are registered")
		}
		calls := run.RequiredAction.SubmitToolOutputs.ToolCalls
		outputs := make([]ToolOutput, 0, len(calls))
		for _, tc := range calls {
			if tc.Type != "function" {
				continue
			}
			log.WithField("tool", tc.Function.Name).Info("executing tool call")
			outputs = append(outputs, ToolOutput{
				ToolCallID: tc.ID,
				Output:     tools.Call(ctx, tc.Function.Name, tc.Function.Arguments),
			})
		}
		r, err = c.SubmitToolOutputs(ctx, threadID, run.ID, outputs)
		if err != nil {
			return false, err
		}
		run = r
		return run.Terminal(), nil
	})
	if err != nil {
		return run, fmt.Errorf("process run: %w", err)
	}
	return run, nil
}

// RunError describes a failed run, or nil when it did not fail.
func RunError(r *Run) error {
	if r == nil || r.Status != RunFailed {
		return nil
	}
	if r.LastError != nil {
		return fmt.Errorf("run failed: %s: %s", r.LastError.Code, r.LastError.Message)
	}
	return errors.New("run failed")
}
