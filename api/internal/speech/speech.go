// Package speech wraps the Azure Speech SDK for one-shot synthesis and
// recognition. The SDK is cgo-backed and needs the native speech library at
// build and run time.
package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Microsoft/cognitive-services-speech-sdk-go/audio"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/common"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/speech"
	"github.com/sirupsen/logrus"
)

type Client struct {
	key    string
	region string
	log    *logrus.Entry
}

func New(key, region string, log *logrus.Entry) (*Client, error) {
	if strings.TrimSpace(key) == "" || strings.TrimSpace(region) == "" {
		return nil, errors.New("azure speech requires a subscription key and region")
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Client{key: key, region: region, log: log.WithField("service", "azure-speech")}, nil
}

func (c *Client) config() (*speech.SpeechConfig, error) {
	conf, err := speech.NewSpeechConfigFromSubscription(c.key, c.region)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure speech config: %w", err)
	}
	return conf, nil
}

// CanceledError carries the SDK cancellation reason and details.
type CanceledError struct {
	Op      string
	Reason  common.CancellationReason
	Details string
}

func (e *CanceledError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s canceled: %v", e.Op, e.Reason)
	}
	return fmt.Sprintf("%s canceled: %v: %s", e.Op, e.Reason, e.Details)
}

// IsConfigError reports whether the cancellation came from the service
// rejecting the request, which is usually a bad key or region.
func (e *CanceledError) IsConfigError() bool {
	return e.Reason == common.Error
}

// SynthesisOptions picks the voice and the output. An empty WavFile plays on
// the default speaker.
type SynthesisOptions struct {
	Voice    string
	Language string
	WavFile  string
}

func speakerOrFile(wav string) (*audio.AudioConfig, error) {
	if wav == "" {
		return audio.NewAudioConfigFromDefaultSpeakerOutput()
	}
	return audio.NewAudioConfigFromWavFileOutput(wav)
}

// SpeakText synthesizes plain text with the configured voice.
func (c *Client) SpeakText(ctx context.Context, text string, opt SynthesisOptions) error {
	return c.synthesize(ctx, opt, func(s *speech.SpeechSynthesizer) chan speech.SpeechSynthesisOutcome {
		return s.SpeakTextAsync(text)
	})
}

// SpeakSSML synthesizes an SSML document; voice and language come from the
// document itself.
func (c *Client) SpeakSSML(ctx context.Context, ssml string, opt SynthesisOptions) error {
	opt.Voice, opt.Language = "", ""
	return c.synthesize(ctx, opt, func(s *speech.SpeechSynthesizer) chan speech.SpeechSynthesisOutcome {
		return s.SpeakSsmlAsync(ssml)
	})
}

func (c *Client) synthesize(ctx context.Context, opt SynthesisOptions, start func(*speech.SpeechSynthesizer) chan speech.SpeechSynthesisOutcome) error {
	conf, err := c.config()
	if err != nil {
		return err
	}
	defer conf.Close()

	if opt.Language != "" {
		if err := conf.SetSpeechSynthesisLanguage(opt.Language); err != nil {
			return fmt.Errorf("failed to set synthesis language: %w", err)
		}
	}
	if opt.Voice != "" {
		if err := conf.SetSpeechSynthesisVoiceName(opt.Voice); err != nil {
			return fmt.Errorf("failed to set synthesis voice: %w", err)
		}
	}

	audioConfig, err := speakerOrFile(opt.WavFile)
	if err != nil {
		return fmt.Errorf("failed to create audio output: %w", err)
	}
	defer audioConfig.Close()

	synthesizer, err := speech.NewSpeechSynthesizerFromConfig(conf, audioConfig)
	if err != nil {
		return fmt.Errorf("failed to create speech synthesizer: %w", err)
	}
	defer synthesizer.Close()

	var outcome speech.SpeechSynthesisOutcome
	select {
	case outcome = <-start(synthesizer):
	case <-ctx.Done():
		return fmt.Errorf("context cancelled while waiting for synthesis result: %w", ctx.Err())
	}
	defer outcome.Close()

	if outcome.Error != nil {
		return fmt.Errorf("synthesis outcome error: %w", outcome.Error)
	}
	if outcome.Result.Reason == common.SynthesizingAudioCompleted {
		c.log.WithField("wav", opt.WavFile).Debug("synthesis completed")
		return nil
	}
	cancellation, err := speech.NewCancellationDetailsFromSpeechSynthesisResult(outcome.Result)
	if err != nil {
		return fmt.Errorf("synthesis failed: reason=%s", outcome.Result.Reason.String())
	}
	return &CanceledError{Op: "synthesis", Reason: cancellation.Reason, Details: cancellation.ErrorDetails}
}

// Outcome kinds of a one-shot recognition.
const (
	Recognized = "recognized"
	NoMatch    = "no_match"
)

// Recognition is the result of RecognizeOnce. A canceled recognition is
// returned as *CanceledError instead.
type Recognition struct {
	Kind string
	Text string
}

// RecognizeOnce listens on the default microphone, or reads wavFile when it
// is set, until the first utterance ends.
func (c *Client) RecognizeOnce(ctx context.Context, lang, wavFile string) (*Recognition, error) {
	conf, err := c.config()
	if err != nil {
		return nil, err
	}
	defer conf.Close()
	if lang == "" {
		lang = "en-US"
	}
	if err := conf.SetSpeechRecognitionLanguage(lang); err != nil {
		return nil, fmt.Errorf("failed to set recognition language: %w", err)
	}

	var audioConfig *audio.AudioConfig
	if wavFile == "" {
		audioConfig, err = audio.NewAudioConfigFromDefaultMicrophoneInput()
	} else {
		audioConfig, err = audio.NewAudioConfigFromWavFileInput(wavFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create audio input: %w", err)
	}
	defer audioConfig.Close()

	recognizer, err := speech.NewSpeechRecognizerFromConfig(conf, audioConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech recognizer: %w", err)
	}
	defer recognizer.Close()

	var outcome speech.SpeechRecognitionOutcome
	select {
	case outcome = <-recognizer.RecognizeOnceAsync():
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled while waiting for recognition: %w", ctx.Err())
	}
	defer outcome.Close()
	if outcome.Error != nil {
		return nil, fmt.Errorf("recognition outcome error: %w", outcome.Error)
	}

	res := outcome.Result
	switch res.Reason {
	case common.RecognizedSpeech:
		c.log.WithFields(logrus.Fields{"lang": lang, "chars": len(res.Text)}).Debug("speech recognized")
		return &Recognition{Kind: Recognized, Text: res.Text}, nil
	case common.NoMatch:
		return &Recognition{Kind: NoMatch}, nil
	case common.Canceled:
		details, err := speech.NewCancellationDetailsFromSpeechRecognitionResult(res)
		if err != nil {
			return nil, &CanceledError{Op: "recognition"}
		}
		return nil, &CanceledError{Op: "recognition", Reason: details.Reason, Details: details.ErrorDetails}
	default:
		return nil, fmt.Errorf("unexpected recognition result: %s", res.Reason.String())
	}
}
