package handle

import (
	"context"
	"net/http"
	"strings"

	"azure-playground/api/internal/language"
)

type DetectLanguageRequest struct {
	Texts       []string `json:"texts"`
	CountryHint string   `json:"country_hint,omitempty"`
}

type DetectedDocument struct {
	Language   string  `json:"language,omitempty"`
	Name       string  `json:"name,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Error      string  `json:"error,omitempty"`
}

func (h *Handle) DetectLanguage(w http.ResponseWriter, r *http.Request) {
	var req DetectLanguageRequest
	if !decodePost(w, r, &req) {
		return
	}
	if h.Language == nil {
		notConfigured(w, "language")
		return
	}
	if len(req.Texts) == 0 {
		writeError(w, http.StatusBadRequest, "texts are required")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	var docs []DetectedDocument
	_, err := h.Journal.Track(ctx, "language", "detect_language", strings.Join(req.Texts, "\n"), func(ctx context.Context) (string, error) {
		b, err := h.Language.DetectLanguage(ctx, req.Texts, req.CountryHint)
		if err != nil {
			return "", err
		}
		docs = detectedDocuments(b, len(req.Texts))
		return compact(docs), nil
	})
	if err != nil {
		writeVendorError(w, "detect", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// detectedDocuments keeps per-document failures in place of their result.
func detectedDocuments(b *language.Batch, n int) []DetectedDocument {
	out := make([]DetectedDocument, n)
	for _, o := range b.Ordered(n) {
		d := &out[o.Index]
		switch {
		case o.Err != nil:
			d.Error = o.Err.String()
		case o.Result != nil && o.Result.DetectedLanguage != nil:
			dl := o.Result.DetectedLanguage
			d.Language, d.Name, d.Confidence = dl.ISO6391Name, dl.Name, dl.ConfidenceScore
		default:
			d.Error = "no result"
		}
	}
	return out
}
