package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"azure-playground/api/internal/cli"
	"azure-playground/api/internal/media"
	"azure-playground/api/internal/vision"
)

const (
	service = "vision"

	sampleImage  = "https://universe.nasa.gov/rails/active_storage/blobs/redirect/eyJfcmFpbHMiOnsibWVzc2FnZSI6IkJBaHBBdklCIiwiZXhwIjpudWxsLCJwdXIiOiJibG9iX2lkIn19--358fddd8d97c87255be0adfa918f14b1affcd437/BH_AccretionDisk_Sim_Stationary_1080.jpeg?disposition=inline"
	readImage    = "https://learn.microsoft.com/azure/ai-services/computer-vision/media/quickstarts/presentation.png"
	brandImage   = "https://blog.logomyway.com/wp-content/uploads/2020/07/top-brand-logos.jpg"
	landmarkSite = "https://whc.unesco.org/uploads/thumbs/site_0252_0008-750-750-20151104113424.jpg"
)

var landmarkImages = []string{
	"https://assets.editorial.aetnd.com/uploads/2015/02/topic-golden-gate-bridge-gettyimages-177770941.jpg?width=1920&height=960&crop=1920%3A960%2Csmart&quality=75&auto=webp",
	"https://st.depositphotos.com/1759109/1331/i/450/depositphotos_13315503-stock-photo-tower-bridge-at-dusk.jpg",
}

func client(env *cli.Env) (*vision.Client, error) {
	c := env.Cfg.Vision
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return vision.New(c.Endpoint, c.Key, env.Log), nil
}

// image resolves the first argument (URL or local path) or def.
func image(fs *flag.FlagSet, def string) (media.Image, string, error) {
	ref := cli.Arg(fs, 0, def)
	img, err := media.FromRef(ref)
	return img, ref, err
}

func ratios(s string) ([]float64, error) {
	var out []float64
	for _, p := range cli.Lines(s) {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("bad aspect ratio %q: %w", p, err)
		}
		out = append(out, f)
	}
	return out, nil
}

func main() {
	var (
		features      string
		lang          string
		neutral       bool
		cropRatios    string
		maxCandidates int
		limit         int
		interval      time.Duration
		model         string
	)
	cli.Main(&cli.App{Name: service, Commands: []cli.Command{
		{
			Name:  "analyze",
			Usage: "Image Analysis 4.0 on a URL or file",
			Flags: func(fs *flag.FlagSet) {
				fs.StringVar(&features, "features", strings.Join(vision.AllFeatures, ","), "visual features")
				fs.StringVar(&lang, "lang", "en", "output language")
				fs.BoolVar(&neutral, "gender-neutral", true, "gender neutral captions")
				fs.StringVar(&cropRatios, "crop-ratios", "0.9,1.33", "smart crop aspect ratios")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				v, err := client(env)
				if err != nil {
					return err
				}
				img, ref, err := image(fs, sampleImage)
				if err != nil {
					return err
				}
				rs, err := ratios(cropRatios)
				if err != nil {
					return err
				}
				_, err = env.Track(ctx, service, "analyze", ref, func(ctx context.Context) (string, error) {
					a, err := v.Analyze(ctx, img, vision.AnalyzeOptions{
						Features:             cli.Lines(features),
						Language:             lang,
						GenderNeutralCaption: neutral,
						SmartCropsRatios:     rs,
					})
					if err != nil {
						return "", err
					}
					vision.PrintAnalysis(env.Out, a)
					if a.CaptionResult != nil {
						return a.CaptionResult.Text, nil
					}
					return "", nil
				})
				return err
			},
		},
		{
			Name:  "landmarks",
			Usage: "tag several image URLs concurrently and keep landmark tags",
			Flags: func(fs *flag.FlagSet) {
				fs.IntVar(&limit, "limit", 4, "concurrent requests")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				v, err := client(env)
				if err != nil {
					return err
				}
				urls := fs.Args()
				if len(urls) == 0 {
					urls = landmarkImages
				}
				res, err := v.DetectLandmarks(ctx, urls, limit)
				if err != nil {
					return err
				}
				vision.PrintLandmarks(env.Out, res)
				return nil
			},
		},
		{
			Name:  "describe",
			Usage: "Computer Vision 3.2 describe + tag",
			Flags: func(fs *flag.FlagSet) {
				fs.IntVar(&maxCandidates, "max", 3, "max caption candidates")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				v, err := client(env)
				if err != nil {
					return err
				}
				img, _, err := image(fs, sampleImage)
				if err != nil {
					return err
				}
				d, err := v.Describe(ctx, img, maxCandidates)
				if err != nil {
					return err
				}
				fmt.Fprintln(env.Out, "Description of remote image:")
				if len(d.Captions) == 0 {
					fmt.Fprintln(env.Out, "No description detected.")
				}
				for _, c := range d.Captions {
					fmt.Fprintf(env.Out, "'%s' with confidence %.2f%%\n", c.Text, c.Confidence*100)
				}
				tags, err := v.Tag(ctx, img)
				if err != nil {
					return err
				}
				fmt.Fprintln(env.Out, "\nTags in the remote image:")
				if len(tags) == 0 {
					fmt.Fprintln(env.Out, "No tags detected.")
				}
				for _, t := range tags {
					fmt.Fprintf(env.Out, "'%s' with confidence %.2f%%\n", t.Name, t.Confidence*100)
				}
				return nil
			},
		},
		{
			Name:  "brands",
			Usage: "detect brands in a URL or file",
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				v, err := client(env)
				if err != nil {
					return err
				}
				img, _, err := image(fs, brandImage)
				if err != nil {
					return err
				}
				a, err := v.AnalyzeLegacy(ctx, img, "brands")
				if err != nil {
					return err
				}
				fmt.Fprintln(env.Out, "Detecting brands in image:")
				if len(a.Brands) == 0 {
					fmt.Fprintln(env.Out, "No brands detected.")
				}
				for _, b := range a.Brands {
					r := b.Rectangle
					fmt.Fprintf(env.Out, "'%s' brand detected with confidence %.1f%% at location %d, %d, %d, %d\n",
						b.Name, b.Confidence*100, r.X, r.X+r.W, r.Y, r.Y+r.H)
				}
				return nil
			},
		},
		{
			Name:  "domain",
			Usage: "domain model analysis (celebrities or landmarks)",
			Flags: func(fs *flag.FlagSet) {
				fs.StringVar(&model, "model", "landmarks", "celebrities or landmarks")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				v, err := client(env)
				if err != nil {
					return err
				}
				img, _, err := image(fs, landmarkSite)
				if err != nil {
					return err
				}
				res, err := v.AnalyzeDomain(ctx, img, model)
				if err != nil {
					return err
				}
				for _, c := range res.Result.Celebrities {
					fmt.Fprintf(env.Out, "Celebrity: %s (%.2f)\n", c.Name, c.Confidence)
				}
				for _, l := range res.Result.Landmarks {
					fmt.Fprintf(env.Out, "Landmark: %s (%.2f)\n", l.Name, l.Confidence)
				}
				if len(res.Result.Celebrities)+len(res.Result.Landmarks) == 0 {
					fmt.Fprintf(env.Out, "No %s detected.\n", model)
				}
				return nil
			},
		},
		{
			Name:  "read",
			Usage: "Read OCR on a URL or file, polling until done",
			Flags: func(fs *flag.FlagSet) {
				fs.StringVar(&lang, "lang", "", "document language hint")
				fs.DurationVar(&interval, "interval", time.Second, "poll interval")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				v, err := client(env)
				if err != nil {
					return err
				}
				img, ref, err := image(fs, readImage)
				if err != nil {
					return err
				}
				_, err = env.Track(ctx, service, "read", ref, func(ctx context.Context) (string, error) {
					r, err := v.Read(ctx, img, lang, interval)
					if err != nil {
						return "", err
					}
					vision.PrintRead(env.Out, r)
					return r.Text(), nil
				})
				return err
			},
		},
	}})
}
