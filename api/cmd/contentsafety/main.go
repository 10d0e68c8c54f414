package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"azure-playground/api/internal/cli"
	"azure-playground/api/internal/contentsafety"
)

const service = "contentsafety"

func client(env *cli.Env) (*contentsafety.Client, error) {
	c := env.Cfg.ContentSafety
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return contentsafety.New(c.Endpoint, c.Key, env.Log), nil
}

func main() {
	var (
		blocklists string
		halt       bool
		listName   string
	)
	cli.Main(&cli.App{Name: service, Commands: []cli.Command{
		{
			Name:  "text",
			Usage: "analyze text for harmful content [text]",
			Flags: func(fs *flag.FlagSet) {
				fs.StringVar(&blocklists, "blocklists", "", "comma separated blocklist names")
				fs.BoolVar(&halt, "halt", false, "stop analysis on the first blocklist hit")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				cs, err := client(env)
				if err != nil {
					return err
				}
				text := cli.Rest(fs, 0, "You are an idiot. I will kill you.")
				fmt.Fprintf(env.Out, "Analyzing text: %q\n\n", text)
				_, err = env.Track(ctx, service, "analyze_text", text, func(ctx context.Context) (string, error) {
					res, err := cs.AnalyzeText(ctx, contentsafety.TextOptions{
						Text:               text,
						BlocklistNames:     cli.Lines(blocklists),
						HaltOnBlocklistHit: halt,
					})
					if err != nil {
						return "", err
					}
					lines := contentsafety.Report(res.CategoriesAnalysis)
					fmt.Fprintln(env.Out, "--- Text Analysis Results ---")
					fmt.Fprintln(env.Out, strings.Join(lines, "\n"))
					for _, m := range res.BlocklistsMatch {
						fmt.Fprintf(env.Out, "Blocklist match: %s / %s (%s)\n", m.BlocklistName, m.BlocklistItemText, m.BlocklistItemID)
					}
					return strings.Join(lines, "; "), nil
				})
				return err
			},
		},
		{
			Name:  "image",
			Usage: "analyze an image file for harmful content <path>",
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				cs, err := client(env)
				if err != nil {
					return err
				}
				path := cli.Arg(fs, 0, "sample_data/porn-image.jpg")
				fmt.Fprintf(env.Out, "Analyzing image: %s\n", path)
				b, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read image: %w", err)
				}
				_, err = env.Track(ctx, service, "analyze_image", path, func(ctx context.Context) (string, error) {
					res, err := cs.AnalyzeImage(ctx, b)
					if err != nil {
						return "", err
					}
					lines := contentsafety.Report(res.CategoriesAnalysis)
					fmt.Fprintln(env.Out, "\n--- Analysis Results ---")
					fmt.Fprintln(env.Out, strings.Join(lines, "\n"))
					return strings.Join(lines, "; "), nil
				})
				return err
			},
		},
		{
			Name:  "blocklist-demo",
			Usage: "walk the text blocklist lifecycle",
			Flags: func(fs *flag.FlagSet) {
				fs.StringVar(&listName, "name", contentsafety.DemoBlocklist, "scratch blocklist name")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				cs, err := client(env)
				if err != nil {
					return err
				}
				_, err = env.Track(ctx, service, "blocklist_demo", listName, func(ctx context.Context) (string, error) {
					return "", cs.BlocklistDemo(ctx, env.Out, listName)
				})
				return err
			},
		},
		{
			Name:  "blocklists",
			Usage: "list text blocklists",
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				cs, err := client(env)
				if err != nil {
					return err
				}
				lists, err := cs.ListBlocklists(ctx)
				if err != nil {
					return err
				}
				for _, l := range lists {
					fmt.Fprintf(env.Out, "Name: %s, Description: %s\n", l.Name, l.Description)
				}
				return nil
			},
		},
	}})
}
