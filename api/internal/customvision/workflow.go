package customvision

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"azure-playground/api/internal/azrest"
)

const (
	StatusCompleted = "Completed"
	StatusFailed    = "Failed"
)

// CleanProjects unpublishes every iteration of every project and deletes the
// projects. The training resource has a small project quota, so demos start
// from an empty slate.
func (t *Trainer) CleanProjects(ctx context.Context) error {
	projects, err := t.Projects(ctx)
	if err != nil {
		return err
	}
	for _, p := range projects {
		its, err := t.Iterations(ctx, p.ID)
		if err != nil {
			return err
		}
		for _, it := range its {
			if err := t.Unpublish(ctx, p.ID, it.ID); err != nil {
				return err
			}
		}
		if err := t.DeleteProject(ctx, p.ID); err != nil {
			return err
		}
		t.log.WithField("project", p.ID).Info("project deleted")
	}
	return nil
}

// TrainAndWait starts training and polls every interval until the iteration
// reports Completed, printing the status on each tick. A Failed iteration
// ends the wait with an error.
func (t *Trainer) TrainAndWait(ctx context.Context, w io.Writer, projectID string, interval time.Duration) (*Iteration, error) {
	fmt.Fprintln(w, "Training...")
	it, err := t.Train(ctx, projectID)
	if err != nil {
		return nil, err
	}
	err = azrest.Poll(ctx, interval, func(ctx context.Context) (bool, error) {
		switch it.Status {
		case StatusCompleted:
			return true, nil
		case StatusFailed:
			return false, fmt.Errorf("training iteration %s failed", it.ID)
		}
		fmt.Fprintf(w, "Training status: %s\n", it.Status)
		fmt.Fprintf(w, "Waiting %s...\n", interval)
		next, err := t.Iteration(ctx, projectID, it.ID)
		if err != nil {
			return false, err
		}
		it = next
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(w, "Training complete.")
	return it, nil
}

// Upload sends entries and turns a partially failed batch into an error after
// printing each image status.
func (t *Trainer) Upload(ctx context.Context, w io.Writer, projectID string, entries []ImageEntry) error {
	sum, err := t.CreateImages(ctx, projectID, entries)
	if err != nil {
		return err
	}
	if !sum.IsBatchSuccessful {
		fmt.Fprintln(w, "Image batch upload failed.")
		for _, img := range sum.Images {
			fmt.Fprintf(w, "Image status: %s\n", img.Status)
		}
		return fmt.Errorf("image batch upload failed")
	}
	return nil
}

type Workflow struct {
	Trainer              *Trainer
	Predictor            *Predictor
	PredictionResourceID string
	PublishName          string
	// Interval between training status checks.
	Interval time.Duration
	// Clean removes existing projects first.
	Clean bool
}

// Classify runs the classification demo: Hemlock vs Japanese Cherry images
// from root/<Tag_Dir>/, then classifies root/Test/test_image.jpg.
func (wf Workflow) Classify(ctx context.Context, w io.Writer, root string, tags []string) (*ImagePrediction, error) {
	if len(tags) == 0 {
		tags = []string{"Hemlock", "Japanese Cherry"}
	}
	if wf.PublishName == "" {
		wf.PublishName = "classifyModel"
	}
	if wf.Interval <= 0 {
		wf.Interval = 10 * time.Second
	}
	t := wf.Trainer
	if wf.Clean {
		if err := t.CleanProjects(ctx); err != nil {
			return nil, err
		}
	}

	fmt.Fprintln(w, "Creating project...")
	project, err := t.CreateProject(ctx, uuid.NewString(), "")
	if err != nil {
		return nil, err
	}

	fmt.Fprintln(w, "Adding images...")
	var entries []ImageEntry
	for _, name := range tags {
		tag, err := t.CreateTag(ctx, project.ID, name)
		if err != nil {
			return nil, err
		}
		e, err := ClassificationEntries(root, name, tag.ID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e...)
	}
	if err := t.Upload(ctx, w, project.ID, entries); err != nil {
		return nil, err
	}

	it, err := t.TrainAndWait(ctx, w, project.ID, wf.Interval)
	if err != nil {
		return nil, err
	}
	if err := t.Publish(ctx, project.ID, it.ID, wf.PublishName, wf.PredictionResourceID); err != nil {
		return nil, err
	}
	fmt.Fprintln(w, "Done!")

	img, err := os.ReadFile(filepath.Join(root, "Test", "test_image.jpg"))
	if err != nil {
		return nil, err
	}
	res, err := wf.Predictor.ClassifyImage(ctx, project.ID, wf.PublishName, img)
	if err != nil {
		return nil, err
	}
	for _, p := range res.Predictions {
		fmt.Fprintf(w, "\t%s: %.2f%%\n", p.TagName, p.Probability*100)
	}
	return res, nil
}

// Detect runs the object detection demo with regions from a YAML manifest,
// then detects objects in dir/test/test_image.jpg.
func (wf Workflow) Detect(ctx context.Context, w io.Writer, dir string, manifest RegionManifest) (*ImagePrediction, error) {
	if wf.PublishName == "" {
		wf.PublishName = "detectModel"
	}
	if wf.Interval <= 0 {
		wf.Interval = 2 * time.Second
	}
	t := wf.Trainer
	if wf.Clean {
		if err := t.CleanProjects(ctx); err != nil {
			return nil, err
		}
	}

	domain, err := t.FindDomain(ctx, "ObjectDetection", "General")
	if err != nil {
		return nil, err
	}
	project, err := t.CreateProject(ctx, "ObjectDetection-"+uuid.NewString(), domain.ID)
	if err != nil {
		return nil, err
	}

	fmt.Fprintln(w, "Uploading tagged images...")
	var entries []ImageEntry
	for _, label := range manifest.Labels() {
		tag, err := t.CreateTag(ctx, project.ID, label)
		if err != nil {
			return nil, err
		}
		e, err := manifest.Entries(dir, label, tag.ID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e...)
	}
	if err := t.Upload(ctx, w, project.ID, entries); err != nil {
		return nil, err
	}

	it, err := t.TrainAndWait(ctx, w, project.ID, wf.Interval)
	if err != nil {
		return nil, err
	}
	if err := t.Publish(ctx, project.ID, it.ID, wf.PublishName, wf.PredictionResourceID); err != nil {
		return nil, err
	}

	fmt.Fprintln(w, "Predicting...")
	img, err := os.ReadFile(filepath.Join(dir, "test", "test_image.jpg"))
	if err != nil {
		return nil, err
	}
	res, err := wf.Predictor.DetectImage(ctx, project.ID, wf.PublishName, img)
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(w, "Prediction Results:")
	for _, p := range res.Predictions {
		b := BoundingBox{}
		if p.BoundingBox != nil {
			b = *p.BoundingBox
		}
		fmt.Fprintf(w, "  * %s: %.2f%% (left=%.2f, top=%.2f, width=%.2f, height=%.2f)\n",
			p.TagName, p.Probability*100, b.Left, b.Top, b.Width, b.Height)
	}
	return res, nil
}
