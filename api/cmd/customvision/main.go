package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"azure-playground/api/internal/cli"
	"azure-playground/api/internal/customvision"
)

const service = "customvision"

func trainer(env *cli.Env) (*customvision.Trainer, error) {
	c := env.Cfg.CustomVision
	if err := c.ValidateTraining(); err != nil {
		return nil, err
	}
	return customvision.NewTrainer(c.TrainingEndpoint, c.TrainingKey, env.Log), nil
}

func workflow(env *cli.Env, interval time.Duration, clean bool) (customvision.Workflow, error) {
	c := env.Cfg.CustomVision
	if err := c.Validate(); err != nil {
		return customvision.Workflow{}, err
	}
	return customvision.Workflow{
		Trainer:              customvision.NewTrainer(c.TrainingEndpoint, c.TrainingKey, env.Log),
		Predictor:            customvision.NewPredictor(c.PredictionEndpoint, c.PredictionKey, env.Log),
		PredictionResourceID: c.PredictionResourceID,
		Interval:             interval,
		Clean:                clean,
	}, nil
}

func main() {
	var (
		interval  time.Duration
		clean     bool
		project   string
		published string
		detect    bool
		manifest  string
	)
	cli.Main(&cli.App{Name: service, Commands: []cli.Command{
		{
			Name:  "classify-demo",
			Usage: "train, publish and test a Hemlock / Japanese Cherry classifier [images-root]",
			Flags: func(fs *flag.FlagSet) {
				fs.DurationVar(&interval, "interval", 10*time.Second, "training status poll interval")
				fs.BoolVar(&clean, "clean", false, "delete existing projects first")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				wf, err := workflow(env, interval, clean)
				if err != nil {
					return err
				}
				root := cli.Arg(fs, 0, "images")
				_, err = env.Track(ctx, service, "classify_demo", root, func(ctx context.Context) (string, error) {
					res, err := wf.Classify(ctx, env.Out, root, nil)
					if err != nil || len(res.Predictions) == 0 {
						return "", err
					}
					return res.Predictions[0].TagName, nil
				})
				return err
			},
		},
		{
			Name:  "detect-demo",
			Usage: "train, publish and test an object detector [images-dir]",
			Flags: func(fs *flag.FlagSet) {
				fs.DurationVar(&interval, "interval", 2*time.Second, "training status poll interval")
				fs.BoolVar(&clean, "clean", false, "delete existing projects first")
				fs.StringVar(&manifest, "regions", "", "YAML region manifest (default <dir>/regions.yaml)")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				wf, err := workflow(env, interval, clean)
				if err != nil {
					return err
				}
				dir := cli.Arg(fs, 0, "images")
				if manifest == "" {
					manifest = filepath.Join(dir, "regions.yaml")
				}
				m, err := customvision.LoadRegionManifest(manifest)
				if err != nil {
					return err
				}
				_, err = env.Track(ctx, service, "detect_demo", dir, func(ctx context.Context) (string, error) {
					res, err := wf.Detect(ctx, env.Out, dir, m)
					if err != nil {
						return "", err
					}
					return fmt.Sprintf("%d predictions", len(res.Predictions)), nil
				})
				return err
			},
		},
		{
			Name:  "predict",
			Usage: "run a published iteration on an image file",
			Flags: func(fs *flag.FlagSet) {
				fs.StringVar(&project, "project", "", "project id")
				fs.StringVar(&published, "published", "classifyModel", "published iteration name")
				fs.BoolVar(&detect, "detect", false, "object detection instead of classification")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				c := env.Cfg.CustomVision
				if err := c.ValidatePrediction(); err != nil {
					return err
				}
				if project == "" {
					return fmt.Errorf("-project is required")
				}
				img, err := os.ReadFile(cli.Arg(fs, 0, filepath.Join("images", "Test", "test_image.jpg")))
				if err != nil {
					return err
				}
				p := customvision.NewPredictor(c.PredictionEndpoint, c.PredictionKey, env.Log)
				var res *customvision.ImagePrediction
				if detect {
					res, err = p.DetectImage(ctx, project, published, img)
				} else {
					res, err = p.ClassifyImage(ctx, project, published, img)
				}
				if err != nil {
					return err
				}
				for _, pr := range res.Predictions {
					fmt.Fprintf(env.Out, "\t%s: %.2f%%\n", pr.TagName, pr.Probability*100)
				}
				return nil
			},
		},
		{
			Name:  "projects",
			Usage: "list projects and their iterations",
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				t, err := trainer(env)
				if err != nil {
					return err
				}
				projects, err := t.Projects(ctx)
				if err != nil {
					return err
				}
				for _, p := range projects {
					fmt.Fprintf(env.Out, "%s %s\n", p.ID, p.Name)
					its, err := t.Iterations(ctx, p.ID)
					if err != nil {
						return err
					}
					for _, it := range its {
						fmt.Fprintf(env.Out, "\t%s %s %s %s\n", it.ID, it.Name, it.Status, it.PublishName)
					}
				}
				return nil
			},
		},
		{
			Name:  "domains",
			Usage: "list available domains",
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				t, err := trainer(env)
				if err != nil {
					return err
				}
				domains, err := t.Domains(ctx)
				if err != nil {
					return err
				}
				for _, d := range domains {
					fmt.Fprintf(env.Out, "%s %-16s %s\n", d.ID, d.Type, d.Name)
				}
				return nil
			},
		},
		{
			Name:  "clean",
			Usage: "unpublish every iteration and delete every project",
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				t, err := trainer(env)
				if err != nil {
					return err
				}
				return t.CleanProjects(ctx)
			},
		},
	}})
}
