package ssml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis"
       xmlns:mstts="https://www.w3.org/2001/mstts" xml:lang="en-US">
  <voice name="en-US-AvaMultilingualNeural">
    <mstts:express-as style="cheerful">
      That'd be just amazing!
    </mstts:express-as>
    <break time="500ms"/> See you soon.
  </voice>
  <voice name="ml-IN-MidhunNeural">നമസ്കാരം</voice>
</speak>`

func TestParse(t *testing.T) {
	doc, err := Parse(sample)
	require.NoError(t, err)
	assert.Equal(t, "1.0", doc.Version)
	assert.Equal(t, "en-US", doc.Lang)
	require.Len(t, doc.Voices, 2)
	assert.Equal(t, "en-US-AvaMultilingualNeural", doc.Voices[0].Name)
	assert.Equal(t, "That'd be just amazing! See you soon.", doc.Voices[0].Text)
	assert.Equal(t, "നമസ്കാരം", doc.Voices[1].Text)
	assert.Equal(t, sample, doc.Raw)
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"wrong root": `<html><body/></html>`,
		"malformed":  `<speak version="1.0" xml:lang="en-US"><voice name="a">hi</speak>`,
		"no version": `<speak xml:lang="en-US"><voice name="a">hi</voice></speak>`,
		"no lang":    `<speak version="1.0"><voice name="a">hi</voice></speak>`,
		"no voice":   `<speak version="1.0" xml:lang="en-US">hi</speak>`,
		"unnamed":    `<speak version="1.0" xml:lang="en-US"><voice>hi</voice></speak>`,
		"bad xmlns":  `<speak xmlns="urn:other" version="1.0" xml:lang="en-US"><voice name="a">hi</voice></speak>`,
	}
	for name, raw := range cases {
		_, err := Parse(raw)
		assert.Error(t, err, name)
	}
	_, err := Parse(`<html/>`)
	assert.ErrorIs(t, err, ErrNoSpeak)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "ssml8.xml")
	require.NoError(t, os.WriteFile(p, []byte(sample), 0o644))
	doc, err := Load(p)
	require.NoError(t, err)
	assert.Len(t, doc.Voices, 2)

	_, err = Load(filepath.Join(dir, "missing.xml"))
	assert.ErrorContains(t, err, "SSML file not found")
}

func TestLocale(t *testing.T) {
	tests := []struct{ in, want string }{
		{"it", "it-IT"},
		{"fr", "fr-FR"},
		{"ml", "ml-IN"},
		{"en", "en-US"},
		{"ja", "ja-JP"},
		{"en-GB", "en-GB"},
		{"zh-Hans", "zh-CN"},
		{"not a tag", "not a tag"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Locale(tt.in), tt.in)
	}
}
