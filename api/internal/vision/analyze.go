package vision

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"azure-playground/api/internal/media"
)

const AnalysisAPIVersion = "2024-02-01"

// Feature names accepted by imageanalysis:analyze.
const (
	FeatureTags          = "tags"
	FeatureObjects       = "objects"
	FeatureCaption       = "caption"
	FeatureDenseCaptions = "denseCaptions"
	FeatureRead          = "read"
	FeatureSmartCrops    = "smartCrops"
	FeaturePeople        = "people"
)

var AllFeatures = []string{
	FeatureTags, FeatureObjects, FeatureCaption, FeatureDenseCaptions,
	FeatureRead, FeatureSmartCrops, FeaturePeople,
}

type AnalyzeOptions struct {
	Features             []string
	Language             string
	GenderNeutralCaption bool
	SmartCropsRatios     []float64
	ModelVersion         string
}

type Caption struct {
	Text        string       `json:"text"`
	Confidence  float64      `json:"confidence"`
	BoundingBox *BoundingBox `json:"boundingBox,omitempty"`
}

type Tag struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

type DetectedObject struct {
	BoundingBox BoundingBox `json:"boundingBox"`
	Tags        []Tag       `json:"tags"`
}

type Person struct {
	BoundingBox BoundingBox `json:"boundingBox"`
	Confidence  float64     `json:"confidence"`
}

type SmartCrop struct {
	AspectRatio float64     `json:"aspectRatio"`
	BoundingBox BoundingBox `json:"boundingBox"`
}

type Word struct {
	Text            string  `json:"text"`
	BoundingPolygon []Point `json:"boundingPolygon"`
	Confidence      float64 `json:"confidence"`
}

type Line struct {
	Text            string  `json:"text"`
	BoundingPolygon []Point `json:"boundingPolygon"`
	Words           []Word  `json:"words"`
}

type Block struct {
	Lines []Line `json:"lines"`
}

type Analysis struct {
	ModelVersion  string   `json:"modelVersion"`
	CaptionResult *Caption `json:"captionResult,omitempty"`
	DenseCaptions *struct {
		Values []Caption `json:"values"`
	} `json:"denseCaptionsResult,omitempty"`
	Metadata struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"metadata"`
	TagsResult *struct {
		Values []Tag `json:"values"`
	} `json:"tagsResult,omitempty"`
	ObjectsResult *struct {
		Values []DetectedObject `json:"values"`
	} `json:"objectsResult,omitempty"`
	ReadResult *struct {
		Blocks []Block `json:"blocks"`
	} `json:"readResult,omitempty"`
	SmartCropsResult *struct {
		Values []SmartCrop `json:"values"`
	} `json:"smartCropsResult,omitempty"`
	PeopleResult *struct {
		Values []Person `json:"values"`
	} `json:"peopleResult,omitempty"`
}

// Tags returns the tag list or nil when tags were not requested.
func (a *Analysis) Tags() []Tag {
	if a.TagsResult == nil {
		return nil
	}
	return a.TagsResult.Values
}

// Analyze calls Image Analysis 4.0 for a URL or uploaded image.
func (c *Client) Analyze(ctx context.Context, img media.Image, opt AnalyzeOptions) (*Analysis, error) {
	if len(opt.Features) == 0 {
		return nil, fmt.Errorf("at least one visual feature is required")
	}
	q := url.Values{}
	q.Set("api-version", AnalysisAPIVersion)
	q.Set("features", strings.Join(opt.Features, ","))
	if opt.Language != "" {
		q.Set("language", opt.Language)
	}
	if opt.GenderNeutralCaption {
		q.Set("gender-neutral-caption", "true")
	}
	if len(opt.SmartCropsRatios) > 0 {
		ratios := make([]string, 0, len(opt.SmartCropsRatios))
		for _, r := range opt.SmartCropsRatios {
			ratios = append(ratios, strconv.FormatFloat(r, 'f', -1, 64))
		}
		q.Set("smartcrops-aspect-ratios", strings.Join(ratios, ","))
	}
	if opt.ModelVersion != "" {
		q.Set("model-version", opt.ModelVersion)
	}
	var out Analysis
	if _, err := c.rest.Do(ctx, imageRequest("computervision/imageanalysis:analyze", img, q), &out); err != nil {
		return nil, fmt.Errorf("analyze image: %w", err)
	}
	return &out, nil
}

// PrintAnalysis writes every section that came back.
func PrintAnalysis(w io.Writer, a *Analysis) {
	fmt.Fprintln(w, "Image analysis results:")
	if c := a.CaptionResult; c != nil {
		fmt.Fprintln(w, " Caption:")
		fmt.Fprintf(w, "   '%s', Confidence %.4f\n", c.Text, c.Confidence)
	}
	if a.DenseCaptions != nil {
		fmt.Fprintln(w, " Dense Captions:")
		for _, c := range a.DenseCaptions.Values {
			fmt.Fprintf(w, "   '%s', %s, Confidence: %.4f\n", c.Text, bboxString(c.BoundingBox), c.Confidence)
		}
	}
	if a.ReadResult != nil && len(a.ReadResult.Blocks) > 0 {
		fmt.Fprintln(w, " Read:")
		for _, b := range a.ReadResult.Blocks {
			for _, l := range b.Lines {
				fmt.Fprintf(w, "   Line: '%s', Bounding box %v\n", l.Text, l.BoundingPolygon)
				for _, wd := range l.Words {
					fmt.Fprintf(w, "     Word: '%s', Bounding polygon %v, Confidence %.4f\n", wd.Text, wd.BoundingPolygon, wd.Confidence)
				}
			}
		}
	}
	if tags := a.Tags(); tags != nil {
		fmt.Fprintln(w, " Tags:")
		for _, t := range tags {
			fmt.Fprintf(w, "   '%s', Confidence %.4f\n", t.Name, t.Confidence)
		}
	}
	if a.ObjectsResult != nil {
		fmt.Fprintln(w, " Objects:")
		for _, o := range a.ObjectsResult.Values {
			if len(o.Tags) == 0 {
				continue
			}
			fmt.Fprintf(w, "   '%s', %s, Confidence: %.4f\n", o.Tags[0].Name, o.BoundingBox, o.Tags[0].Confidence)
		}
	}
	if a.PeopleResult != nil {
		fmt.Fprintln(w, " People:")
		for _, p := range a.PeopleResult.Values {
			fmt.Fprintf(w, "   %s, Confidence %.4f\n", p.BoundingBox, p.Confidence)
		}
	}
	if a.SmartCropsResult != nil {
		fmt.Fprintln(w, " Smart Cropping:")
		for _, s := range a.SmartCropsResult.Values {
			fmt.Fprintf(w, "   Aspect ratio %g: Smart crop %s\n", s.AspectRatio, s.BoundingBox)
		}
	}
	fmt.Fprintf(w, " Image height: %d\n", a.Metadata.Height)
	fmt.Fprintf(w, " Image width: %d\n", a.Metadata.Width)
	fmt.Fprintf(w, " Model version: %s\n", a.ModelVersion)
}

func bboxString(b *BoundingBox) string {
	if b == nil {
		return "{}"
	}
	return b.String()
}
