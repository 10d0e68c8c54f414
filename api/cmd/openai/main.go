package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"azure-playground/api/internal/chat"
	"azure-playground/api/internal/cli"
)

const service = "openai"

func azureEngine(env *cli.Env) (*chat.AzureEngine, error) {
	if err := env.Cfg.OpenAI.Validate(); err != nil {
		return nil, err
	}
	return chat.NewEngines(env.Cfg, env.Log).Azure.(*chat.AzureEngine), nil
}

func main() {
	var (
		maxTokens int64
		engine    string
		system    string
	)
	cli.Main(&cli.App{Name: service, Commands: []cli.Command{
		{
			Name:  "complete",
			Usage: "legacy completion against the instruct deployment [prompt]",
			Flags: func(fs *flag.FlagSet) {
				fs.Int64Var(&maxTokens, "max-tokens", 10, "max tokens")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				az, err := azureEngine(env)
				if err != nil {
					return err
				}
				prompt := cli.Rest(fs, 0, "Write a tagline for an ice cream shop. ")
				fmt.Fprintln(env.Out, "Sending a test completion job")
				_, err = env.Track(ctx, service, "complete", prompt, func(ctx context.Context) (string, error) {
					text, err := az.Complete(ctx, prompt, maxTokens)
					if err != nil {
						return "", err
					}
					fmt.Fprintln(env.Out, prompt+text)
					return text, nil
				})
				return err
			},
		},
		{
			Name:  "chat",
			Usage: "one chat turn with azure or gemini [prompt]",
			Flags: func(fs *flag.FlagSet) {
				fs.StringVar(&engine, "engine", "azure", "azure or gemini")
				fs.StringVar(&system, "system", "You are a helpful assistant.", "system prompt")
				fs.Int64Var(&maxTokens, "max-tokens", 0, "max tokens (0 = engine default)")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				eng, err := chat.NewEngines(env.Cfg, env.Log).GetEngine(engine)
				if err != nil {
					return err
				}
				prompt := cli.Rest(fs, 0, "Does Azure OpenAI support customer managed keys?")
				msgs := []chat.Message{{Role: chat.RoleSystem, Content: system}, {Role: chat.RoleUser, Content: prompt}}
				_, err = env.Track(ctx, service, "chat."+eng.Name(), prompt, func(ctx context.Context) (string, error) {
					r, err := eng.Chat(ctx, msgs, chat.Options{MaxTokens: maxTokens})
					if err != nil {
						return "", err
					}
					fmt.Fprintln(env.Out, r.Text)
					env.Log.WithField("model", r.Model).WithField("tokens", r.Usage.TotalTokens).Debug("chat done")
					return r.Text, nil
				})
				return err
			},
		},
		{
			Name:  "my-data",
			Usage: "chat grounded on an Azure AI Search index [question]",
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				az, err := azureEngine(env)
				if err != nil {
					return err
				}
				s := env.Cfg.Search
				if err := s.Validate(); err != nil {
					return err
				}
				question := cli.Rest(fs, 0, "How is Azure machine learning different than Azure OpenAI?")
				_, err = env.Track(ctx, service, "on_your_data", question, func(ctx context.Context) (string, error) {
					r, err := az.ChatOnYourData(ctx,
						[]chat.Message{{Role: chat.RoleUser, Content: question}},
						chat.SearchSource{Endpoint: s.Endpoint, Key: s.Key, Index: s.Index},
						chat.Options{})
					if err != nil {
						return "", err
					}
					if r.Raw == "" {
						return "", errors.New("empty response")
					}
					fmt.Fprintln(env.Out, r.Raw)
					return r.Text, nil
				})
				return err
			},
		},
	}})
}
