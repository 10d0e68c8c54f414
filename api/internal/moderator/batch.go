package moderator

import (
	"context"

	"github.com/gammazero/workerpool"

	"azure-playground/api/internal/media"
)

// ImageReport bundles the three per-image checks the demo runs.
type ImageReport struct {
	URL        string
	Evaluation *Evaluation
	OCR        *OCR
	Faces      *FoundFaces
	Err        error
}

// EvaluateBatch runs Evaluate, OCR and FindFaces for every URL on a bounded
// worker pool. Reports come back in input order; a failing image does not
// stop the others.
func (c *Client) EvaluateBatch(ctx context.Context, urls []string, workers int) []ImageReport {
	if workers <= 0 {
		workers = 4
	}
	reports := make([]ImageReport, len(urls))
	wp := workerpool.New(workers)
	for i, u := range urls {
		i, u := i, u
		wp.Submit(func() {
			reports[i] = c.inspect(ctx, u)
		})
	}
	wp.StopWait()
	return reports
}

func (c *Client) inspect(ctx context.Context, u string) ImageReport {
	rep := ImageReport{URL: u}
	img := media.Image{URL: u}
	if err := ctx.Err(); err != nil {
		rep.Err = err
		return rep
	}
	if rep.Evaluation, rep.Err = c.Evaluate(ctx, img, true); rep.Err != nil {
		return rep
	}
	if rep.OCR, rep.Err = c.OCR(ctx, img, "eng", true); rep.Err != nil {
		return rep
	}
	rep.Faces, rep.Err = c.FindFaces(ctx, img, true)
	if rep.Err != nil {
		c.log.WithError(rep.Err).WithField("url", u).Warn("image inspection failed")
	}
	return rep
}
