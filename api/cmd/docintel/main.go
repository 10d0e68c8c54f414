package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"azure-playground/api/internal/cli"
	"azure-playground/api/internal/docintel"
	"azure-playground/api/internal/media"
)

const (
	service = "docintel"

	sampleDocument = "https://raw.githubusercontent.com/Azure-Samples/cognitive-services-REST-api-samples/master/curl/form-recognizer/sample-layout.pdf"
)

func main() {
	var (
		model    string
		interval time.Duration
	)
	cli.Main(&cli.App{Name: service, Commands: []cli.Command{
		{
			Name:  "layout",
			Usage: "analyze the layout of a document URL or file",
			Flags: func(fs *flag.FlagSet) {
				fs.StringVar(&model, "model", docintel.LayoutModel, "model id")
				fs.DurationVar(&interval, "interval", time.Second, "poll interval")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				c := env.Cfg.DocIntel
				if err := c.Validate(); err != nil {
					return err
				}
				ref := cli.Arg(fs, 0, sampleDocument)
				doc, err := media.FromRef(ref)
				if err != nil {
					return err
				}
				client := docintel.New(c.Endpoint, c.Key, env.Log)
				client.Interval = interval
				_, err = env.Track(ctx, service, "analyze_layout", ref, func(ctx context.Context) (string, error) {
					r, err := client.Analyze(ctx, model, doc)
					if err != nil {
						return "", err
					}
					docintel.PrintLayout(env.Out, r)
					return fmt.Sprintf("%d pages, %d tables", len(r.Pages), len(r.Tables)), nil
				})
				return err
			},
		},
	}})
}
