package customvision

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"azure-playground/api/internal/azrest"
)

const (
	trainingBase = "customvision/v3.3/Training/"
	// MaxBatch is the service limit for images per create call.
	MaxBatch = 64
)

// Trainer talks to the training resource (Training-Key auth).
type Trainer struct {
	rest *azrest.Client
	log  *logrus.Entry
}

func NewTrainer(endpoint, key string, log *logrus.Entry, opts ...azrest.Option) *Trainer {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	opts = append([]azrest.Option{azrest.WithKeyHeader("Training-Key"), azrest.WithLogger(log)}, opts...)
	return &Trainer{rest: azrest.New(endpoint, key, opts...), log: log}
}

type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Settings    struct {
		DomainID           string `json:"domainId"`
		ClassificationType string `json:"classificationType,omitempty"`
	} `json:"settings"`
}

type Domain struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Exportable bool   `json:"exportable"`
	Enabled    bool   `json:"enabled"`
}

type Tag struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ImageCount  int    `json:"imageCount"`
}

type Iteration struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	Created      time.Time `json:"created"`
	PublishName  string    `json:"publishName,omitempty"`
	TrainingType string    `json:"trainingType,omitempty"`
}

type Region struct {
	TagID  string  `json:"tagId"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ImageEntry is one uploaded file. Contents marshal to base64.
type ImageEntry struct {
	Name     string   `json:"name"`
	Contents []byte   `json:"contents"`
	TagIDs   []string `json:"tagIds,omitempty"`
	Regions  []Region `json:"regions,omitempty"`
}

type ImageCreateResult struct {
	SourceURL string `json:"sourceUrl"`
	Status    string `json:"status"`
}

type ImageCreateSummary struct {
	IsBatchSuccessful bool                `json:"isBatchSuccessful"`
	Images            []ImageCreateResult `json:"images"`
}

func projectPath(id string) string { return trainingBase + "projects/" + url.PathEscape(id) }

func (t *Trainer) Projects(ctx context.Context) ([]Project, error) {
	var out []Project
	if err := t.rest.JSON(ctx, http.MethodGet, trainingBase+"projects", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return out, nil
}

// CreateProject creates a project; domainID may be empty for the default
// general classification domain.
func (t *Trainer) CreateProject(ctx context.Context, name, domainID string) (*Project, error) {
	q := url.Values{}
	q.Set("name", name)
	if domainID != "" {
		q.Set("domainId", domainID)
	}
	var out Project
	if err := t.rest.JSON(ctx, http.MethodPost, trainingBase+"projects", q, nil, &out); err != nil {
		return nil, fmt.Errorf("create project %q: %w", name, err)
	}
	return &out, nil
}

func (t *Trainer) DeleteProject(ctx context.Context, id string) error {
	if err := t.rest.JSON(ctx, http.MethodDelete, projectPath(id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	return nil
}

func (t *Trainer) Domains(ctx context.Context) ([]Domain, error) {
	var out []Domain
	if err := t.rest.JSON(ctx, http.MethodGet, trainingBase+"domains", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	return out, nil
}

// FindDomain returns the first domain of the given type and name.
func (t *Trainer) FindDomain(ctx context.Context, typ, name string) (*Domain, error) {
	domains, err := t.Domains(ctx)
	if err != nil {
		return nil, err
	}
	for i := range domains {
		if domains[i].Type == typ && domains[i].Name == name {
			return &domains[i], nil
		}
	}
	return nil, fmt.Errorf("no %s domain named %q", typ, name)
}

func (t *Trainer) CreateTag(ctx context.Context, projectID, name string) (*Tag, error) {
	q := url.Values{}
	q.Set("name", name)
	var out Tag
	if err := t.rest.JSON(ctx, http.MethodPost, projectPath(projectID)+"/tags", q, nil, &out); err != nil {
		return nil, fmt.Errorf("create tag %q: %w", name, err)
	}
	return &out, nil
}

// CreateImages uploads entries in service-sized batches. The summary merges
// all batches; IsBatchSuccessful is false if any batch failed.
func (t *Trainer) CreateImages(ctx context.Context, projectID string, entries []ImageEntry) (*ImageCreateSummary, error) {
	sum := &ImageCreateSummary{IsBatchSuccessful: true}
	for start := 0; start < len(entries); start += MaxBatch {
		end := min(start+MaxBatch, len(entries))
		var out ImageCreateSummary
		body := map[string]any{"images": entries[start:end]}
		if err := t.rest.JSON(ctx, http.MethodPost, projectPath(projectID)+"/images/files", nil, body, &out); err != nil {
			return nil, fmt.Errorf("upload images: %w", err)
		}
		sum.IsBatchSuccessful = sum.IsBatchSuccessful && out.IsBatchSuccessful
		sum.Images = append(sum.Images, out.Images...)
	}
	return sum, nil
}

func (t *Trainer) Train(ctx context.Context, projectID string) (*Iteration, error) {
	var out Iteration
	if err := t.rest.JSON(ctx, http.MethodPost, projectPath(projectID)+"/train", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("train project: %w", err)
	}
	return &out, nil
}

func (t *Trainer) Iteration(ctx context.Context, projectID, iterationID string) (*Iteration, error) {
	var out Iteration
	if err := t.rest.JSON(ctx, http.MethodGet, projectPath(projectID)+"/iterations/"+url.PathEscape(iterationID), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("get iteration: %w", err)
	}
	return &out, nil
}

func (t *Trainer) Iterations(ctx context.Context, projectID string) ([]Iteration, error) {
	var out []Iteration
	if err := t.rest.JSON(ctx, http.MethodGet, projectPath(projectID)+"/iterations", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("list iterations: %w", err)
	}
	return out, nil
}

func (t *Trainer) Publish(ctx context.Context, projectID, iterationID, publishName, predictionResourceID string) error {
	q := url.Values{}
	q.Set("publishName", publishName)
	q.Set("predictionId", predictionResourceID)
	p := projectPath(projectID) + "/iterations/" + url.PathEscape(iterationID) + "/publish"
	if err := t.rest.JSON(ctx, http.MethodPost, p, q, nil, nil); err != nil {
		return fmt.Errorf("publish iteration: %w", err)
	}
	return nil
}

func (t *Trainer) Unpublish(ctx context.Context, projectID, iterationID string) error {
	p := projectPath(projectID) + "/iterations/" + url.PathEscape(iterationID) + "/publish"
	if err := t.rest.JSON(ctx, http.MethodDelete, p, nil, nil, nil); err != nil {
		return fmt.Errorf("unpublish iteration: %w", err)
	}
	return nil
}
