package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// Image is either a remote URL the vendor fetches itself or raw bytes we upload.
type Image struct {
	URL  string
	Data []byte
	MIME string
}

func (i Image) IsURL() bool { return i.URL != "" }

// FromRef turns a CLI argument into an Image: http(s) references stay URLs,
// data: URIs are decoded, anything else is read from disk.
func FromRef(ref string) (Image, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return Image{}, fmt.Errorf("empty image reference")
	case IsURL(ref):
		return Image{URL: ref}, nil
	case strings.HasPrefix(ref, "data:"):
		b, hint, err := DecodeBase64MaybeDataURL(ref)
		if err != nil {
			return Image{}, fmt.Errorf("decode data url: %w", err)
		}
		return Image{Data: b, MIME: PickMIME("", hint, b)}, nil
	default:
		b, err := os.ReadFile(ref)
		if err != nil {
			return Image{}, err
		}
		return Image{Data: b, MIME: SniffMIME(b)}, nil
	}
}

func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// SniffMIME detects the content type from the leading bytes.
func SniffMIME(b []byte) string {
	if len(b) == 0 {
		return "application/octet-stream"
	}
	return mimetype.Detect(b).String()
}

// IsImage reports whether b looks like something the vision endpoints accept.
func IsImage(b []byte) bool {
	m := mimetype.Detect(b)
	for ; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") {
			return true
		}
	}
	return false
}

func MakeDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeBase64MaybeDataURL decodes plain base64 or a data: URI. For data URIs
// the MIME type from the prefix is returned as well.
func DecodeBase64MaybeDataURL(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	var hint string
	if strings.HasPrefix(s, "data:") {
		if idx := strings.IndexByte(s, ','); idx > 0 {
			meta := s[len("data:"):idx]
			if semi := strings.IndexByte(meta, ';'); semi >= 0 {
				hint = meta[:semi]
			} else {
				hint = meta
			}
			s = s[idx+1:]
		}
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, hint, nil
	}
	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, "", err
	}
	return b, hint, nil
}

// PickMIME prefers an explicit type, then the data URI hint, then sniffing.
func PickMIME(explicit, hint string, data []byte) string {
	if exp := strings.TrimSpace(explicit); exp != "" {
		return exp
	}
	if h := strings.TrimSpace(hint); h != "" {
		return h
	}
	if len(data) > 0 {
		return SniffMIME(data)
	}
	return "image/jpeg"
}

// Fetch downloads a URL into memory, capped at limit bytes. Errors never
// carry the URL, which may embed a credential such as a bot token.
func Fetch(ctx context.Context, rawURL string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", stripURL(err))
	}
	resp, err := (&http.Client{Timeout: 60 * time.Second}).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", stripURL(err))
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("fetch: status %d", resp.StatusCode)
	}
	if limit <= 0 {
		limit = 20 << 20
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", stripURL(err))
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("fetch: body exceeds %d bytes", limit)
	}
	return b, nil
}

// stripURL drops the *url.Error wrapper, whose message repeats the URL.
func stripURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}
