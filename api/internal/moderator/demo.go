package moderator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"

	"azure-playground/api/internal/media"
)

// ListDemo describes one image-list lifecycle run.
type ListDemo struct {
	Name        string
	Description string
	Metadata    map[string]string
	// Images are added in order, each URL under its label.
	Images  []LabeledImages
	ToMatch []string
	// Settle is how long to wait after creating the list before adding images.
	Settle time.Duration
}

type LabeledImages struct {
	Label string
	URLs  []string
}

// RunListDemo creates a list, adds labelled images, matches candidates and
// tears everything down again. Images that fail to add are reported and
// skipped.
func (c *Client) RunListDemo(ctx context.Context, w io.Writer, d ListDemo) (err error) {
	fmt.Fprintf(w, "Creating list %s\n\n", d.Name)
	list, err := c.CreateImageList(ctx, ImageList{Name: d.Name, Description: d.Description, Metadata: d.Metadata})
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "List created:")
	dump(w, list)

	// the list is removed on every exit path
	defer func() {
		if cerr := c.deleteList(context.WithoutCancel(ctx), w, list.ID); cerr != nil {
			c.log.WithError(cerr).WithField("list_id", list.ID).Warn("image list cleanup failed")
			if err == nil {
				err = cerr
			}
		}
	}()

	if d.Settle > 0 {
		t := time.NewTimer(d.Settle)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}

	fmt.Fprintf(w, "\nAdding images to list %d\n", list.ID)
	index := map[string]string{}
	for _, group := range d.Images {
		for _, u := range group.URLs {
			fmt.Fprintf(w, "\nAdding image %s to list %d with label %s.\n", u, list.ID, group.Label)
			added, err := c.AddImageURL(ctx, list.ID, u, group.Label)
			if err != nil {
				fmt.Fprintf(w, "Unable to add image to list: %v\n", err)
				continue
			}
			dump(w, added)
			index[u] = added.ContentID
		}
	}

	if len(index) > 0 {
		if err := c.RefreshIndex(ctx, list.ID); err != nil {
			return err
		}
	}

	for _, u := range d.ToMatch {
		fmt.Fprintf(w, "\nMatching image %s against list %d\n", u, list.ID)
		res, err := c.Match(ctx, media.Image{URL: u}, fmt.Sprint(list.ID), false)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Is match? %t\n", res.IsMatch)
		fmt.Fprintln(w, "Complete match details:")
		dump(w, res)
	}
	return nil
}

func (c *Client) deleteList(ctx context.Context, w io.Writer, id int) error {
	fmt.Fprintf(w, "\nDelete all images in the image list %d\n", id)
	imgErr := c.DeleteAllImages(ctx, id)
	fmt.Fprintf(w, "\nDelete the image list %d\n", id)
	return errors.Join(imgErr, c.DeleteImageList(ctx, id))
}

// PrintReports writes batch results in the order they were requested.
func PrintReports(w io.Writer, reports []ImageReport) {
	for _, r := range reports {
		fmt.Fprintf(w, "\nEvaluate image %s\n", r.URL)
		if r.Evaluation != nil {
			fmt.Fprintln(w, "\nEvaluate for adult and racy content.")
			dump(w, r.Evaluation)
		}
		if r.OCR != nil {
			fmt.Fprintln(w, "\nDetect and extract text.")
			dump(w, r.OCR)
		}
		if r.Faces != nil {
			fmt.Fprintln(w, "\nDetect faces.")
			dump(w, r.Faces)
		}
		if r.Err != nil {
			fmt.Fprintf(w, "error: %v\n", r.Err)
		}
	}
}

func dump(w io.Writer, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "%+v\n", v)
		return
	}
	fmt.Fprintln(w, string(b))
}
