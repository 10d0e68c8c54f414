package main

import (
	"context"
	"flag"
	"strings"

	"azure-playground/api/internal/agents"
	"azure-playground/api/internal/cli"
)

const service = "agents"

func client(env *cli.Env) (*agents.Client, error) {
	c := env.Cfg.OpenAI
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return agents.New(c.Endpoint, c.Key, c.APIVersion, env.Log), nil
}

func main() {
	var (
		model  string
		csv    string
		outDir string
	)
	modelFlag := func(fs *flag.FlagSet) {
		fs.StringVar(&model, "model", agents.DefaultModel, "model deployment")
	}
	cli.Main(&cli.App{Name: service, Commands: []cli.Command{
		{
			Name:  "function",
			Usage: "weather/email agent with local function tools [question]",
			Flags: modelFlag,
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				c, err := client(env)
				if err != nil {
					return err
				}
				question := cli.Rest(fs, 0, agents.FunctionAgentQuestion)
				_, err = env.Track(ctx, service, "function_agent", question, func(ctx context.Context) (string, error) {
					return "", c.FunctionAgent(ctx, env.Out, model, question)
				})
				return err
			},
		},
		{
			Name:  "math",
			Usage: "code interpreter assistant solving an equation [question]",
			Flags: modelFlag,
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				c, err := client(env)
				if err != nil {
					return err
				}
				return c.MathAssistant(ctx, env.Out, model, cli.Rest(fs, 0, ""))
			},
		},
		{
			Name:  "code-interpreter",
			Usage: "upload a CSV, ask for a chart and save the images [question]",
			Flags: func(fs *flag.FlagSet) {
				modelFlag(fs)
				fs.StringVar(&csv, "csv", "data.csv", "CSV file to upload")
				fs.StringVar(&outDir, "out", ".", "directory for generated images")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				c, err := client(env)
				if err != nil {
					return err
				}
				question := cli.Rest(fs, 0, agents.CodeInterpreterQuestion)
				_, err = env.Track(ctx, service, "code_interpreter", question, func(ctx context.Context) (string, error) {
					saved, err := c.CodeInterpreterAgent(ctx, env.Out, model, csv, question, outDir)
					if err != nil {
						return "", err
					}
					return strings.Join(saved, "\n"), nil
				})
				return err
			},
		},
	}})
}
