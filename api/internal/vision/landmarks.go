package vision

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"azure-playground/api/internal/media"
)

// LandmarkTags keeps tags that look landmark related. Image Analysis 4.0 has
// no landmark model, so this is a name heuristic.
func LandmarkTags(tags []Tag) []string {
	var out []string
	for _, t := range tags {
		n := strings.ToLower(t.Name)
		if strings.Contains(n, "landmark") || strings.Contains(n, "bridge") {
			out = append(out, t.Name)
		}
	}
	return out
}

type LandmarkResult struct {
	URL       string
	Tags      []Tag
	Landmarks []string
	Err       error
}

// DetectLandmarks tags each image concurrently (at most limit in flight) and
// returns per-image results in input order. One failing image does not
// cancel the rest.
func (c *Client) DetectLandmarks(ctx context.Context, urls []string, limit int) ([]LandmarkResult, error) {
	if limit <= 0 {
		limit = 3
	}
	results := make([]LandmarkResult, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			res := LandmarkResult{URL: u}
			a, err := c.Analyze(gctx, media.Image{URL: u}, AnalyzeOptions{Features: []string{FeatureTags}, Language: "en"})
			if err != nil {
				res.Err = err
				c.log.WithError(err).WithField("url", u).Warn("landmark analysis failed")
			} else {
				res.Tags = a.Tags()
				res.Landmarks = LandmarkTags(res.Tags)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

func PrintLandmarks(w io.Writer, results []LandmarkResult) {
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "\nError analyzing %s: %v\n", r.URL, r.Err)
			continue
		}
		fmt.Fprintf(w, "\nImage: %s\n", r.URL)
		switch {
		case len(r.Tags) == 0:
			fmt.Fprintln(w, "   -> No tags detected.")
		case len(r.Landmarks) == 0:
			fmt.Fprintln(w, "   -> No landmark-related tags found.")
		default:
			fmt.Fprintln(w, "   -> Detected Landmark Tags:")
			for _, l := range r.Landmarks {
				fmt.Fprintf(w, "     * %s\n", l)
			}
		}
	}
}
