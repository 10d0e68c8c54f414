package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"azure-playground/api/internal/cli"
	"azure-playground/api/internal/language"
)

const service = "language"

func client(env *cli.Env) (*language.Client, error) {
	c := env.Cfg.Language
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return language.New(c.Endpoint, c.Key, env.Log), nil
}

func conversations(env *cli.Env) (*language.Client, error) {
	c := env.Cfg.Conversation
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return language.New(c.Endpoint, c.Key, env.Log), nil
}

// texts returns the arguments as one document each, or the defaults.
func texts(fs *flag.FlagSet, defaults ...string) []string {
	if fs.NArg() > 0 {
		return fs.Args()
	}
	return defaults
}

func printErr(env *cli.Env, i int, e *language.DocumentError) {
	fmt.Fprintf(env.Out, "Document %d error: %s\n", i+1, e)
}

func main() {
	var (
		countryHint string
		lang        string
		project     string
		deployment  string
		modelLabel  string
		mode        string
		file        string
		interval    time.Duration
	)
	cli.Main(&cli.App{Name: service, Commands: []cli.Command{
		{
			Name:  "detect",
			Usage: "detect the language of each argument",
			Flags: func(fs *flag.FlagSet) {
				fs.StringVar(&countryHint, "country-hint", "us", "country hint")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				c, err := client(env)
				if err != nil {
					return err
				}
				docs := texts(fs, "നിനക്ക് സ്വാഗതം.")
				_, err = env.Track(ctx, service, "detect_language", strings.Join(docs, "\n"), func(ctx context.Context) (string, error) {
					b, err := c.DetectLanguage(ctx, docs, countryHint)
					if err != nil {
						return "", err
					}
					var found []string
					for _, o := range b.Ordered(len(docs)) {
						switch {
						case o.Err != nil:
							printErr(env, o.Index, o.Err)
						case o.Result != nil && o.Result.DetectedLanguage != nil:
							d := o.Result.DetectedLanguage
							fmt.Fprintf(env.Out, "Language detected: %s\n", d.Name)
							fmt.Fprintf(env.Out, "ISO6391 name: %s\n", d.ISO6391Name)
							fmt.Fprintf(env.Out, "Confidence score: %.2f\n\n", d.ConfidenceScore)
							found = append(found, d.ISO6391Name)
						}
					}
					return strings.Join(found, ","), nil
				})
				return err
			},
		},
		{
			Name:  "key-phrases",
			Usage: "extract key phrases from each argument",
			Flags: func(fs *flag.FlagSet) {
				fs.StringVar(&lang, "lang", "en", "document language")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				c, err := client(env)
				if err != nil {
					return err
				}
				docs := texts(fs, "Key phrase extraction is one of the features offered by Azure AI Language, a collection of machine learning and AI algorithms in the cloud for developing intelligent applications that involve written language.")
				b, err := c.ExtractKeyPhrases(ctx, docs, lang)
				if err != nil {
					return err
				}
				for _, o := range b.Ordered(len(docs)) {
					if o.Err != nil {
						printErr(env, o.Index, o.Err)
						continue
					}
					if o.Result == nil {
						continue
					}
					fmt.Fprintln(env.Out, "\tKey Phrases:")
					for _, p := range o.Result.KeyPhrases {
						fmt.Fprintf(env.Out, "\t\t%s\n", p)
					}
				}
				return nil
			},
		},
		{
			Name:  "pii",
			Usage: "recognize and redact personal data in each argument",
			Flags: func(fs *flag.FlagSet) {
				fs.StringVar(&lang, "lang", "en", "document language")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				c, err := client(env)
				if err != nil {
					return err
				}
				docs := texts(fs, "My TFN number is 456-908-670", "My address is The Boulevard, NSW, Australia.")
				b, err := c.RecognizePII(ctx, docs, lang)
				if err != nil {
					return err
				}
				for _, o := range b.Ordered(len(docs)) {
					if o.Err != nil {
						printErr(env, o.Index, o.Err)
						continue
					}
					if o.Result == nil {
						continue
					}
					fmt.Fprintf(env.Out, "Redacted Text: %s\n", o.Result.RedactedText)
					for _, e := range o.Result.Entities {
						fmt.Fprintf(env.Out, "Entity: %s\n", e.Text)
						fmt.Fprintf(env.Out, "\tCategory: %s\n", e.Category)
						fmt.Fprintf(env.Out, "\tConfidence Score: %.2f\n", e.ConfidenceScore)
						fmt.Fprintf(env.Out, "\tOffset: %d\n", e.Offset)
						fmt.Fprintf(env.Out, "\tLength: %d\n", e.Length)
					}
				}
				return nil
			},
		},
		{
			Name:  "clu",
			Usage: "conversational language understanding prediction [query]",
			Flags: func(fs *flag.FlagSet) {
				fs.StringVar(&project, "project", "", "project name (default AZURE_CONVERSATION_PROJECT)")
				fs.StringVar(&deployment, "deployment", "", "deployment name (default AZURE_CONVERSATION_DEPLOYMENT)")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				c, err := conversations(env)
				if err != nil {
					return err
				}
				if project == "" {
					project = env.Cfg.Conversation.Project
				}
				if deployment == "" {
					deployment = env.Cfg.Conversation.Deployment
				}
				query := cli.Rest(fs, 0, "Send an email to Anand")
				fmt.Fprintf(env.Out, "Query: %s\n", query)
				_, err = env.Track(ctx, service, "analyze_conversation", query, func(ctx context.Context) (string, error) {
					r, err := c.AnalyzeConversation(ctx, project, deployment, query, "en")
					if err != nil {
						return "", err
					}
					language.PrintPrediction(env.Out, r)
					return r.Prediction.TopIntent, nil
				})
				return err
			},
		},
		{
			Name:  "clock",
			Usage: "answer a time/day/date question through CLU [question]",
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				c, err := conversations(env)
				if err != nil {
					return err
				}
				cfg := env.Cfg.Conversation
				question := cli.Rest(fs, 0, "What's the time?")
				r, err := c.AnalyzeConversation(ctx, cfg.Project, cfg.Deployment, question, "en")
				if err != nil {
					return err
				}
				fmt.Fprintln(env.Out, language.HandleIntent(r.Prediction.TopIntent, r.Prediction.Entities, time.Now()))
				return nil
			},
		},
		{
			Name:  "author",
			Usage: "import, train and deploy a CLU project",
			Flags: func(fs *flag.FlagSet) {
				fs.StringVar(&project, "project", "", "project name (default AZURE_CONVERSATION_PROJECT)")
				fs.StringVar(&deployment, "deployment", "", "deployment name (default AZURE_CONVERSATION_DEPLOYMENT)")
				fs.StringVar(&modelLabel, "model-label", "Sample5", "trained model label")
				fs.StringVar(&mode, "mode", "standard", "training mode")
				fs.StringVar(&file, "file", "", "exported project JSON (default: built-in sample)")
				fs.DurationVar(&interval, "interval", 2*time.Second, "job poll interval")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				c, err := conversations(env)
				if err != nil {
					return err
				}
				if project == "" {
					project = env.Cfg.Conversation.Project
				}
				if deployment == "" {
					deployment = env.Cfg.Conversation.Deployment
				}
				a := language.NewAuthoring(c, interval)

				if file != "" {
					_, err = a.ImportFile(ctx, project, file)
				} else {
					_, err = a.Import(ctx, project, language.SampleProject(project, language.SampleContacts))
				}
				if err != nil {
					fmt.Fprintf(env.Out, "Import failed: %v\n", err)
					return err
				}
				fmt.Fprintln(env.Out, "Import complete")

				fmt.Fprintf(env.Out, "Training project %s...\n", project)
				if _, err := a.Train(ctx, project, modelLabel, mode); err != nil {
					fmt.Fprintf(env.Out, "Training failed: %v\n", err)
					return err
				}
				fmt.Fprintln(env.Out, "Training complete")

				fmt.Fprintf(env.Out, "Deploying project %s to %s...\n", project, deployment)
				if _, err := a.Deploy(ctx, project, deployment, modelLabel); err != nil {
					fmt.Fprintf(env.Out, "Deployment failed: %v\n", err)
					return err
				}
				fmt.Fprintln(env.Out, "Deployment complete")
				return nil
			},
		},
	}})
}
