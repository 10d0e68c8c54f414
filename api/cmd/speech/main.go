package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"azure-playground/api/internal/cli"
	"azure-playground/api/internal/speech"
	"azure-playground/api/internal/speech/ssml"
	"azure-playground/api/internal/translator"
)

const (
	service = "speech"

	sampleText = "ഇന്ത്യയിൽ കേരള സംസ്ഥാനത്തിലും ഭാഗികമായി കേന്ദ്രഭരണ പ്രദേശങ്ങളായ ലക്ഷദ്വീപിലും പോണ്ടിച്ചേരിയുടെ ഭാഗമായ മാഹിയിലും " +
		"തമിഴ്നാട്ടിലെ കന്യാകുമാരി ജില്ലയിലും നീലഗിരി ജില്ലയിലെ ഗൂഡല്ലൂർ താലൂക്കിലും സംസാരിക്കപ്പെടുന്ന ഭാഷയാണ് മലയാളം."
)

func client(env *cli.Env) (*speech.Client, error) {
	c := env.Cfg.Speech
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return speech.New(c.Key, c.Region, env.Log)
}

func textTranslator(env *cli.Env) (*translator.Client, error) {
	c := env.Cfg.Translator
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return translator.New(c.Endpoint, c.Key, c.Region, env.Log), nil
}

// report turns SDK cancellations into the demo's wording.
func report(env *cli.Env, err error) error {
	var ce *speech.CanceledError
	if errors.As(err, &ce) {
		fmt.Fprintf(env.Out, "Speech canceled: %v\n", ce.Reason)
		if ce.IsConfigError() {
			fmt.Fprintf(env.Out, "Error details: %s\n", ce.Details)
			fmt.Fprintln(env.Out, "Did you set the speech resource key and region values?")
		}
	}
	return err
}

func printRecognition(env *cli.Env, r *speech.Recognition) {
	if r.Kind == speech.NoMatch {
		fmt.Fprintln(env.Out, "No speech could be recognized.")
		return
	}
	fmt.Fprintf(env.Out, "Recognized: %s\n", r.Text)
}

func main() {
	var (
		voice  string
		wav    string
		lang   string
		source string
		target string
	)
	cli.Main(&cli.App{Name: service, Commands: []cli.Command{
		{
			Name:  "speak",
			Usage: "synthesize text on the speaker or into a WAV file [text]",
			Flags: func(fs *flag.FlagSet) {
				fs.StringVar(&voice, "voice", "", "voice name (default SPEECH_VOICE)")
				fs.StringVar(&wav, "out", "", "write a WAV file instead of playing")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				s, err := client(env)
				if err != nil {
					return err
				}
				if voice == "" {
					voice = env.Cfg.Speech.Voice
				}
				text := cli.Rest(fs, 0, sampleText)
				fmt.Fprintln(env.Out, "Synthesizing text...")
				_, err = env.Track(ctx, service, "speak_text", text, func(ctx context.Context) (string, error) {
					return wav, s.SpeakText(ctx, text, speech.SynthesisOptions{Voice: voice, WavFile: wav})
				})
				if err != nil {
					return report(env, err)
				}
				fmt.Fprintf(env.Out, "Speech synthesized for text [%s]\n", text)
				return nil
			},
		},
		{
			Name:  "ssml",
			Usage: "validate and synthesize an SSML file",
			Flags: func(fs *flag.FlagSet) {
				fs.StringVar(&wav, "out", "", "write a WAV file instead of playing")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				doc, err := ssml.Load(cli.Arg(fs, 0, "azure_speech_SSML_resources/ssml8.xml"))
				if err != nil {
					return err
				}
				s, err := client(env)
				if err != nil {
					return err
				}
				for _, v := range doc.Voices {
					env.Log.WithField("voice", v.Name).Debug("ssml voice")
				}
				if err := s.SpeakSSML(ctx, doc.Raw, speech.SynthesisOptions{WavFile: wav}); err != nil {
					return report(env, err)
				}
				fmt.Fprintln(env.Out, "Speech synthesized from SSML.")
				return nil
			},
		},
		{
			Name:  "recognize",
			Usage: "recognize one utterance from the microphone or a WAV file",
			Flags: func(fs *flag.FlagSet) {
				fs.StringVar(&lang, "lang", "en-US", "recognition language")
				fs.StringVar(&wav, "in", "", "WAV file instead of the microphone")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				s, err := client(env)
				if err != nil {
					return err
				}
				if wav == "" {
					fmt.Fprintln(env.Out, "Speak into your microphone.")
				}
				_, err = env.Track(ctx, service, "recognize_once", wav, func(ctx context.Context) (string, error) {
					r, err := s.RecognizeOnce(ctx, lang, wav)
					if err != nil {
						return "", err
					}
					printRecognition(env, r)
					return r.Text, nil
				})
				return report(env, err)
			},
		},
		{
			Name:  "translate",
			Usage: "recognize one utterance and translate it to text",
			Flags: func(fs *flag.FlagSet) {
				fs.StringVar(&source, "from", "en-US", "spoken language")
				fs.StringVar(&target, "to", "ml", "target language")
				fs.StringVar(&wav, "in", "", "WAV file instead of the microphone")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				s, err := client(env)
				if err != nil {
					return err
				}
				tr, err := textTranslator(env)
				if err != nil {
					return err
				}
				_, err = env.Track(ctx, service, "translate_speech", wav, func(ctx context.Context) (string, error) {
					t, err := s.TranslateSpeech(ctx, tr, source, target, wav)
					if err != nil {
						return "", err
					}
					printRecognition(env, &t.Recognition)
					if t.Kind == speech.Recognized {
						fmt.Fprintf(env.Out, "Translated [%s]: %s\n", t.Target, t.Translated)
					}
					return t.Translated, nil
				})
				return report(env, err)
			},
		},
		{
			Name:  "speech-to-speech",
			Usage: "recognize, translate and speak the translation",
			Flags: func(fs *flag.FlagSet) {
				fs.StringVar(&source, "from", "en-US", "spoken language")
				fs.StringVar(&target, "to", "it", "target language")
				fs.StringVar(&voice, "voice", "", "voice for the translation")
				fs.StringVar(&wav, "in", "", "WAV file instead of the microphone")
			},
			Run: func(ctx context.Context, env *cli.Env, fs *flag.FlagSet) error {
				s, err := client(env)
				if err != nil {
					return err
				}
				tr, err := textTranslator(env)
				if err != nil {
					return err
				}
				t, err := s.SpeechToSpeech(ctx, tr, source, target, voice, wav)
				if err != nil {
					return report(env, err)
				}
				printRecognition(env, &t.Recognition)
				if t.Kind == speech.Recognized {
					fmt.Fprintf(env.Out, "Translated [%s]: %s\n", t.Target, t.Translated)
				}
				return nil
			},
		},
	}})
}
