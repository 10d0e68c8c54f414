package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"azure-playground/api/internal/cli"
	"azure-playground/api/internal/translator"
)

const service = "translator"

func client(env *cli.Env) (*translator.Client, error) {
	c := env.Cfg.Translator
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return translator.New(c.Endpoint, c.Key, c.Region, env.Log), nil
}

func main() {
	var (
		from       string
		to         string
		raw        bool
		lang       string
		fromScript string
		toScript   string
		scopes     string
		in, out    string
	)
	cli.Main(&cli.App{Name: service, Commands: []cli.Command{
		{
			Name:  "translate",
			Usage: "translate each argument into every target language",
			Flags: func(fs *flag.FlagSet) {
				fs.StringVar(&from, "from", "", "source language (detected when empty)")
				fs.StringVar(&to, "to", "ar,fr", "comma separated target languages")
				fs.BoolVar(&raw, "raw", false, "dump the raw JSON response")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				c, err := client(env)
				if err != nil {
					return err
				}
				texts := fs.Args()
				if len(texts) == 0 {
					texts = []string{"This is a test."}
				}
				targets := cli.Lines(to)
				_, err = env.Track(ctx, service, "translate", strings.Join(texts, "\n"), func(ctx context.Context) (string, error) {
					res, body, err := c.TranslateRaw(ctx, texts, from, targets)
					if err != nil {
						return "", err
					}
					if raw {
						fmt.Fprintln(env.Out, string(body))
					} else {
						translator.PrintTranslations(env.Out, res)
					}
					var outs []string
					for _, r := range res {
						for _, t := range r.Translations {
							outs = append(outs, t.To+": "+t.Text)
						}
					}
					return strings.Join(outs, "\n"), nil
				})
				return err
			},
		},
		{
			Name:  "transliterate",
			Usage: "convert each argument between scripts",
			Flags: func(fs *flag.FlagSet) {
				fs.StringVar(&lang, "lang", "ar", "text language")
				fs.StringVar(&fromScript, "from-script", "Arab", "source script")
				fs.StringVar(&toScript, "to-script", "Latn", "target script")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				c, err := client(env)
				if err != nil {
					return err
				}
				texts := fs.Args()
				if len(texts) == 0 {
					texts = []string{"استخدام", "السلام عليكم", "برمجة الحاسوب"}
				}
				res, err := c.Transliterate(ctx, texts, lang, fromScript, toScript)
				if err != nil {
					return err
				}
				for i, r := range res {
					fmt.Fprintf(env.Out, "  %d. %s\n", i+1, r.Text)
				}
				return nil
			},
		},
		{
			Name:  "languages",
			Usage: "list supported languages",
			Flags: func(fs *flag.FlagSet) {
				fs.StringVar(&scopes, "scope", translator.ScopeTranslation, "comma separated scopes")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				c, err := client(env)
				if err != nil {
					return err
				}
				l, err := c.SupportedLanguages(ctx, cli.Lines(scopes)...)
				if err != nil {
					return err
				}
				translator.PrintLanguages(env.Out, l)
				return nil
			},
		},
		{
			Name:  "document",
			Usage: "translate a text file",
			Flags: func(fs *flag.FlagSet) {
				fs.StringVar(&in, "in", "document/test.txt", "input file")
				fs.StringVar(&out, "out", "document/document_translated.txt", "output file")
				fs.StringVar(&from, "from", "en", "source language")
				fs.StringVar(&to, "to", "ar", "target language")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				c, err := client(env)
				if err != nil {
					return err
				}
				_, err = env.Track(ctx, service, "translate_document", in, func(ctx context.Context) (string, error) {
					if err := c.TranslateDocument(ctx, in, out, from, to); err != nil {
						return "", err
					}
					fmt.Fprintf(env.Out, "Translated document written to %s\n", out)
					return out, nil
				})
				return err
			},
		},
	}})
}
