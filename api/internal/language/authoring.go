package language

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"azure-playground/api/internal/azrest"
)

const authoringBase = "language/authoring/analyze-conversations/projects/"

// Job is the status document behind every authoring Operation-Location.
type Job struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

func (j *Job) terminal() bool {
	switch j.Status {
	case "succeeded", "failed", "cancelled", "partiallyCompleted":
		return true
	}
	return false
}

func (j *Job) err() error {
	if j.Status == "succeeded" {
		return nil
	}
	msgs := make([]string, 0, len(j.Errors))
	for _, e := range j.Errors {
		msgs = append(msgs, e.Code+": "+e.Message)
	}
	return fmt.Errorf("job %s %s: %s", j.JobID, j.Status, strings.Join(msgs, "; "))
}

// Authoring drives CLU project import, training and deployment. Each call
// starts a job and waits for it at a fixed interval.
type Authoring struct {
	*Client
	Interval time.Duration
}

func NewAuthoring(c *Client, interval time.Duration) *Authoring {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Authoring{Client: c, Interval: interval}
}

func (a *Authoring) run(ctx context.Context, method, path string, body any) (*Job, error) {
	resp, err := a.rest.Do(ctx, azrest.Request{Method: method, Path: path, Body: body}, nil)
	if err != nil {
		return nil, err
	}
	loc := azrest.OperationLocation(resp)
	if loc == "" {
		return nil, fmt.Errorf("no Operation-Location for %s", path)
	}
	var job Job
	err = azrest.Poll(ctx, a.Interval, func(ctx context.Context) (bool, error) {
		job = Job{}
		if err := a.rest.JSON(ctx, http.MethodGet, loc, nil, nil, &job); err != nil {
			return false, err
		}
		a.log.WithField("job", job.JobID).WithField("status", job.Status).Debug("authoring job")
		return job.terminal(), nil
	})
	if err != nil {
		return nil, err
	}
	return &job, job.err()
}

// Import uploads an exported project definition under projectName.
func (a *Authoring) Import(ctx context.Context, projectName string, project any) (*Job, error) {
	job, err := a.run(ctx, http.MethodPost, authoringBase+url.PathEscape(projectName)+"/:import", project)
	if err != nil {
		return job, fmt.Errorf("import project %s: %w", projectName, err)
	}
	return job, nil
}

// ImportFile reads a project JSON file and imports it.
func (a *Authoring) ImportFile(ctx context.Context, projectName, path string) (*Job, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var project map[string]any
	if err := json.Unmarshal(b, &project); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return a.Import(ctx, projectName, project)
}

func (a *Authoring) Train(ctx context.Context, projectName, modelLabel, trainingMode string) (*Job, error) {
	if trainingMode == "" {
		trainingMode = "standard"
	}
	body := map[string]string{"modelLabel": modelLabel, "trainingMode": trainingMode}
	job, err := a.run(ctx, http.MethodPost, authoringBase+url.PathEscape(projectName)+"/:train", body)
	if err != nil {
		return job, fmt.Errorf("train project %s: %w", projectName, err)
	}
	return job, nil
}

func (a *Authoring) Deploy(ctx context.Context, projectName, deploymentName, modelLabel string) (*Job, error) {
	p := authoringBase + url.PathEscape(projectName) + "/deployments/" + url.PathEscape(deploymentName)
	job, err := a.run(ctx, http.MethodPut, p, map[string]string{"trainedModelLabel": modelLabel})
	if err != nil {
		return job, fmt.Errorf("deploy project %s: %w", projectName, err)
	}
	return job, nil
}

// SampleProject builds the "Send" intent demo project: one Contact entity
// backed by the Person.Name prebuilt and one utterance per contact.
func SampleProject(projectName string, contacts []string) map[string]any {
	utterances := []map[string]any{{
		"text":     "Send an email to Johnson",
		"language": "en",
		"intent":   "Send",
		"entities": []map[string]any{{"category": "Contact", "offset": 17, "length": 7}},
	}}
	for _, name := range contacts {
		utterances = append(utterances, map[string]any{
			"text":     "Send " + name + " a calendar invite",
			"language": "en",
			"intent":   "Send",
			"entities": []map[string]any{{"category": "Contact", "offset": 5, "length": len([]rune(name))}},
		})
	}
	return map[string]any{
		"projectFileVersion": "2022-05-01",
		"stringIndexType":    "Utf16CodeUnit",
		"metadata": map[string]any{
			"projectName":  projectName,
			"projectKind":  "Conversation",
			"multilingual": true,
			"language":     "en",
		},
		"assets": map[string]any{
			"projectKind": "Conversation",
			"entities": []map[string]any{{
				"category":           "Contact",
				"compositionSetting": "combineComponents",
				"prebuilts":          []map[string]any{{"category": "Person.Name"}},
			}},
			"intents":    []map[string]any{{"category": "Send"}},
			"utterances": utterances,
		},
	}
}

var SampleContacts = []string{
	"Kathy", "Chali", "Annas", "Benny", "Einna", "Adian", "Zassi", "Saide", "Denni", "Donna",
	"Chahi", "Cathi", "Junan", "Ninay", "Tijos", "Lason", "Goege", "Aksah", "Joshp",
}
