package handle

import (
	"context"
	"net/http"
	"strings"
	"time"

	"azure-playground/api/internal/media"
)

type ReadRequest struct {
	ImageB64 string `json:"image_b64,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Language string `json:"language,omitempty"`
}

type ReadResponse struct {
	Status string   `json:"status"`
	Text   string   `json:"text"`
	Lines  []string `json:"lines"`
}

// readInterval is the Read poll period; tests shorten it.
var readInterval = time.Second

func (h *Handle) Read(w http.ResponseWriter, r *http.Request) {
	var req ReadRequest
	if !decodePost(w, r, &req) {
		return
	}
	if h.Vision == nil {
		notConfigured(w, "vision")
		return
	}
	var img media.Image
	switch {
	case strings.TrimSpace(req.ImageURL) != "":
		if !media.IsURL(req.ImageURL) {
			writeError(w, http.StatusBadRequest, "image_url must be http(s)")
			return
		}
		img = media.Image{URL: req.ImageURL}
	case strings.TrimSpace(req.ImageB64) != "":
		b, hint, err := media.DecodeBase64MaybeDataURL(req.ImageB64)
		if err != nil || len(b) == 0 {
			writeError(w, http.StatusBadRequest, "bad image_b64")
			return
		}
		img = media.Image{Data: b, MIME: media.PickMIME("", hint, b)}
	default:
		writeError(w, http.StatusBadRequest, "image_b64 or image_url is required")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	var resp ReadResponse
	_, err := h.Journal.Track(ctx, "vision", "read", req.ImageURL, func(ctx context.Context) (string, error) {
		res, err := h.Vision.Read(ctx, img, req.Language, readInterval)
		if err != nil {
			return "", err
		}
		resp.Status = res.Status
		for _, l := range res.Lines() {
			resp.Lines = append(resp.Lines, l.Text)
		}
		resp.Text = res.Text()
		return resp.Text, nil
	})
	if err != nil {
		writeVendorError(w, "read", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
