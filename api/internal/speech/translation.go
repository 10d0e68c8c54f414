package speech

import (
	"context"
	"fmt"
	"strings"

	"azure-playground/api/internal/speech/ssml"
)

// TextTranslator is the part of the translator client speech translation needs.
type TextTranslator interface {
	TranslateText(ctx context.Context, text, from, to string) (string, error)
}

// Translation is a recognized utterance and its rendering in the target
// language.
type Translation struct {
	Recognition
	Target     string
	Translated string
}

// TranslateSpeech recognizes one utterance in source and translates it to
// target. A NoMatch recognition is returned as-is with nothing translated.
func (c *Client) TranslateSpeech(ctx context.Context, tr TextTranslator, source, target, wavFile string) (*Translation, error) {
	rec, err := c.RecognizeOnce(ctx, source, wavFile)
	if err != nil {
		return nil, err
	}
	out := &Translation{Recognition: *rec, Target: target}
	if rec.Kind != Recognized {
		return out, nil
	}
	// The translator wants a bare language, not a locale like en-US.
	from, _, _ := strings.Cut(source, "-")
	out.Translated, err = tr.TranslateText(ctx, rec.Text, from, target)
	if err != nil {
		return nil, fmt.Errorf("translate recognized speech: %w", err)
	}
	return out, nil
}

// SpeechToSpeech translates one utterance and speaks the translation. voice
// may be empty to use the service default for the target language.
func (c *Client) SpeechToSpeech(ctx context.Context, tr TextTranslator, source, target, voice, wavIn string) (*Translation, error) {
	t, err := c.TranslateSpeech(ctx, tr, source, target, wavIn)
	if err != nil || t.Kind != Recognized {
		return t, err
	}
	opt := SynthesisOptions{Voice: voice}
	if voice == "" {
		// the synthesizer wants a locale, the translator a bare language
		opt.Language = ssml.Locale(target)
	}
	if err := c.SpeakText(ctx, t.Translated, opt); err != nil {
		return t, err
	}
	return t, nil
}
