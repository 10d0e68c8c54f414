// Package ssml loads and sanity-checks SSML documents before they are sent to
// the synthesizer.
package ssml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
)

const Namespace = "http://www.w3.org/2001/10/synthesis"

// Voice is one <voice> element of a document.
type Voice struct {
	Name string
	Text string
}

// Document is a parsed <speak> root.
type Document struct {
	Raw     string
	Version string
	Lang    string
	Voices  []Voice
}

type voiceElem struct {
	Name  string `xml:"name,attr"`
	Inner string `xml:",innerxml"`
}

type speakElem struct {
	XMLName xml.Name    `xml:"speak"`
	Version string      `xml:"version,attr"`
	Lang    string      `xml:"http://www.w3.org/XML/1998/namespace lang,attr"`
	Voices  []voiceElem `xml:"voice"`
}

var ErrNoSpeak = errors.New("ssml: root element must be <speak>")

// Parse validates raw SSML: well-formed XML with a <speak> root carrying a
// version and xml:lang, and at least one named voice.
func Parse(raw string) (*Document, error) {
	var s speakElem
	if err := xml.Unmarshal([]byte(raw), &s); err != nil {
		if strings.Contains(err.Error(), "expected element type <speak>") {
			return nil, ErrNoSpeak
		}
		return nil, fmt.Errorf("ssml: malformed document: %w", err)
	}
	if s.XMLName.Space != "" && s.XMLName.Space != Namespace {
		return nil, fmt.Errorf("ssml: unexpected namespace %q", s.XMLName.Space)
	}
	if s.Version == "" {
		return nil, errors.New("ssml: <speak> is missing version")
	}
	if s.Lang == "" {
		return nil, errors.New("ssml: <speak> is missing xml:lang")
	}
	if len(s.Voices) == 0 {
		return nil, errors.New("ssml: no <voice> element")
	}
	doc := &Document{Raw: raw, Version: s.Version, Lang: s.Lang}
	for _, v := range s.Voices {
		if v.Name == "" {
			return nil, errors.New("ssml: <voice> without name")
		}
		doc.Voices = append(doc.Voices, Voice{Name: v.Name, Text: plainText(v.Inner)})
	}
	return doc, nil
}

// plainText drops markup from a voice body, keeping only character data.
func plainText(inner string) string {
	d := xml.NewDecoder(strings.NewReader("<x>" + inner + "</x>"))
	var b strings.Builder
	for {
		tok, err := d.Token()
		if err != nil {
			break
		}
		if cd, ok := tok.(xml.CharData); ok {
			b.Write(cd)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func Read(r io.Reader) (*Document, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(string(b))
}

// Load reads an SSML file as UTF-8 and validates it.
func Load(path string) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("SSML file not found: %s", abs)
		}
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Locale expands a bare language such as "it" into the full locale the
// synthesizer expects, "it-IT", using the most likely region. Tags that
// already carry a region keep it; tags that do not parse are returned as-is.
func Locale(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return lang
	}
	base, _ := tag.Base()
	region, conf := tag.Region()
	if conf == language.No {
		return lang
	}
	return base.String() + "-" + region.String()
}
