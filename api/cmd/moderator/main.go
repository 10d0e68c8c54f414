package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"azure-playground/api/internal/cli"
	"azure-playground/api/internal/media"
	"azure-playground/api/internal/moderator"
)

const service = "moderator"

var sampleImages = []string{
	"https://content.api.news/v3/images/bin/756692568a236c94619b202e9b68687a?width=650",
	"https://mockuptree.com/wp-content/uploads/edd/2022/01/minecraft-text-effect-psd.jpg",
	"https://media.istockphoto.com/id/1550540247/photo/decision-thinking-and-asian-man-in-studio-with-glasses-questions-and-brainstorming-on-grey.jpg?s=2048x2048&w=is&k=20&c=AHKcPCjnl3pP21Kl9G8JA4N22lZLICuoyKlJTHU9D-E=",
}

func client(env *cli.Env) (*moderator.Client, error) {
	c := env.Cfg.Moderator
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return moderator.New(c.Endpoint, c.Key, env.Log), nil
}

func main() {
	var (
		lang    string
		workers int
		listID  string
		cache   bool
		settle  time.Duration
	)
	cli.Main(&cli.App{Name: service, Commands: []cli.Command{
		{
			Name:  "text",
			Usage: "screen a text file (or the arguments) for profanity and PII",
			Flags: func(fs *flag.FlagSet) {
				fs.StringVar(&lang, "lang", "eng", "text language")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				m, err := client(env)
				if err != nil {
					return err
				}
				text := cli.Rest(fs, 0, "")
				if text == "" {
					return fmt.Errorf("nothing to screen")
				}
				if b, err := os.ReadFile(text); err == nil {
					text = string(b)
				}
				_, err = env.Track(ctx, service, "screen_text", text, func(ctx context.Context) (string, error) {
					s, err := m.ScreenText(ctx, text, moderator.ScreenOptions{Language: lang, Autocorrect: true, PII: true, Classify: true})
					if err != nil {
						return "", err
					}
					cli.PrintJSON(env.Out, s)
					return s.AutoCorrectedText, nil
				})
				return err
			},
		},
		{
			Name:  "images",
			Usage: "evaluate, OCR and find faces on image URLs [url...]",
			Flags: func(fs *flag.FlagSet) {
				fs.IntVar(&workers, "workers", 4, "concurrent images")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				m, err := client(env)
				if err != nil {
					return err
				}
				urls := fs.Args()
				if len(urls) == 0 {
					urls = sampleImages
				}
				reports := m.EvaluateBatch(ctx, urls, workers)
				moderator.PrintReports(env.Out, reports)
				for _, r := range reports {
					if r.Err != nil {
						env.Log.WithError(r.Err).WithField("url", r.URL).Warn("image check failed")
					}
				}
				return nil
			},
		},
		{
			Name:  "match",
			Usage: "match an image (URL or path) against an image list",
			Flags: func(fs *flag.FlagSet) {
				fs.StringVar(&listID, "list", "", "image list id")
				fs.BoolVar(&cache, "cache", false, "cache the image for follow-up calls")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				m, err := client(env)
				if err != nil {
					return err
				}
				img, err := media.FromRef(cli.Arg(fs, 0, sampleImages[2]))
				if err != nil {
					return err
				}
				res, err := m.Match(ctx, img, listID, cache)
				if err != nil {
					return err
				}
				cli.PrintJSON(env.Out, res)
				return nil
			},
		},
		{
			Name:  "image-list-demo",
			Usage: "create a list, add labelled images, match, clean up",
			Flags: func(fs *flag.FlagSet) {
				fs.DurationVar(&settle, "settle", 5*time.Second, "wait after creating the list")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				m, err := client(env)
				if err != nil {
					return err
				}
				_, err = env.Track(ctx, service, "image_list_demo", "MyList", func(ctx context.Context) (string, error) {
					return "", m.RunListDemo(ctx, env.Out, moderator.ListDemo{
						Name:        "MyList",
						Description: "A sample list",
						Metadata:    map[string]string{"key_one": "Acceptable", "key_two": "Potentially racy"},
						Images:      []moderator.LabeledImages{{Label: "Sports", URLs: []string{sampleImages[2]}}},
						ToMatch:     []string{sampleImages[2]},
						Settle:      settle,
					})
				})
				return err
			},
		},
		{
			Name:  "lists",
			Usage: "list image lists",
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				m, err := client(env)
				if err != nil {
					return err
				}
				lists, err := m.ImageLists(ctx)
				if err != nil {
					return err
				}
				cli.PrintJSON(env.Out, lists)
				return nil
			},
		},
	}})
}
