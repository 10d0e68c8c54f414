package handle

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"azure-playground/api/internal/store"
	"azure-playground/api/internal/translator"
)

type TranslateRequest struct {
	Text  string   `json:"text,omitempty"`
	Texts []string `json:"texts,omitempty"`
	From  string   `json:"from,omitempty"`
	To    []string `json:"to"`
}

type TranslateResponse struct {
	Results []translator.TranslateResult `json:"results"`
	Cached  bool                         `json:"cached"`
}

func (req TranslateRequest) texts() []string {
	out := append([]string(nil), req.Texts...)
	if strings.TrimSpace(req.Text) != "" {
		out = append([]string{req.Text}, out...)
	}
	return out
}

func (h *Handle) Translate(w http.ResponseWriter, r *http.Request) {
	var req TranslateRequest
	if !decodePost(w, r, &req) {
		return
	}
	if h.Translator == nil {
		notConfigured(w, "translator")
		return
	}
	texts := req.texts()
	if len(texts) == 0 || len(req.To) == 0 {
		writeError(w, http.StatusBadRequest, "text and to are required")
		return
	}
	if err := translator.ValidateLanguages(req.To...); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	key := store.Key(req.From, store.Key(req.To...), store.Key(texts...))
	if res, ok := h.cachedTranslation(ctx, key); ok {
		writeJSON(w, http.StatusOK, TranslateResponse{Results: res, Cached: true})
		return
	}

	var res []translator.TranslateResult
	_, err := h.Journal.Track(ctx, "translator", "translate", strings.Join(texts, "\n"), func(ctx context.Context) (string, error) {
		var err error
		res, err = h.Translator.Translate(ctx, texts, req.From, req.To)
		return compact(res), err
	})
	if err != nil {
		writeVendorError(w, "translate", err)
		return
	}
	if h.Cache != nil {
		if err := h.Cache.Upsert(context.WithoutCancel(ctx), "translator", key, compact(res)); err != nil {
			h.Log.WithError(err).Warn("translation cache write failed")
		}
	}
	writeJSON(w, http.StatusOK, TranslateResponse{Results: res})
}

func (h *Handle) cachedTranslation(ctx context.Context, key string) ([]translator.TranslateResult, bool) {
	if h.Cache == nil {
		return nil, false
	}
	body, err := h.Cache.Find(ctx, "translator", key, h.CacheTTL)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.Log.WithError(err).Warn("translation cache read failed")
		}
		return nil, false
	}
	var res []translator.TranslateResult
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		return nil, false
	}
	return res, true
}
