package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

func TestSniffMIME(t *testing.T) {
	assert.Equal(t, "image/png", SniffMIME(pngHeader))
	assert.Equal(t, "application/octet-stream", SniffMIME(nil))
	assert.True(t, IsImage(pngHeader))
	assert.False(t, IsImage([]byte("just text")))
}

func TestDecodeDataURL(t *testing.T) {
	url := MakeDataURL("image/png", pngHeader)
	b, hint, err := DecodeBase64MaybeDataURL(url)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, b)
	assert.Equal(t, "image/png", hint)

	_, _, err = DecodeBase64MaybeDataURL("%%%not base64")
	assert.Error(t, err)
}

func TestPickMIME(t *testing.T) {
	assert.Equal(t, "image/gif", PickMIME(" image/gif ", "image/png", pngHeader))
	assert.Equal(t, "image/webp", PickMIME("", "image/webp", pngHeader))
	assert.Equal(t, "image/png", PickMIME("", "", pngHeader))
	assert.Equal(t, "image/jpeg", PickMIME("", "", nil))
}

func TestFromRef(t *testing.T) {
	img, err := FromRef("https://example.com/a.jpg")
	require.NoError(t, err)
	assert.True(t, img.IsURL())

	p := filepath.Join(t.TempDir(), "x.png")
	require.NoError(t, os.WriteFile(p, pngHeader, 0o600))
	img, err = FromRef(p)
	require.NoError(t, err)
	assert.False(t, img.IsURL())
	assert.Equal(t, "image/png", img.MIME)

	_, err = FromRef("  ")
	assert.Error(t, err)
}

func TestFetchLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	b, err := Fetch(context.Background(), srv.URL, 100)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(b))

	_, err = Fetch(context.Background(), srv.URL, 5)
	assert.Error(t, err)
}

func TestFetchErrorsOmitURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/file/bot123456:SECRET-TOKEN/big.jpg" {
			_, _ = w.Write(make([]byte, 64))
			return
		}
		http.NotFound(w, r)
	}))
	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()
	defer srv.Close()

	tests := []struct {
		name  string
		url   string
		limit int64
		want  string
	}{
		{name: "status", url: srv.URL + "/file/bot123456:SECRET-TOKEN/photos/a.jpg", want: "status 404"},
		{name: "too large", url: srv.URL + "/file/bot123456:SECRET-TOKEN/big.jpg", limit: 8, want: "exceeds 8 bytes"},
		{name: "transport", url: closed.URL + "/file/bot123456:SECRET-TOKEN/a.jpg", want: "fetch:"},
		{name: "bad url", url: "http://[::1/file/bot123456:SECRET-TOKEN", want: "fetch:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fetch(context.Background(), tt.url, tt.limit)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.NotContains(t, err.Error(), "SECRET-TOKEN")
		})
	}
}
