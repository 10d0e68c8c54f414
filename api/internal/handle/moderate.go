package handle

import (
	"context"
	"net/http"
	"strings"

	"azure-playground/api/internal/contentsafety"
	"azure-playground/api/internal/moderator"
)

// Providers behind /v1/moderate/text.
const (
	ProviderSafety    = "safety"
	ProviderModerator = "moderator"
)

type ModerateRequest struct {
	Text       string   `json:"text"`
	Provider   string   `json:"provider,omitempty"`
	Blocklists []string `json:"blocklists,omitempty"`
	// Threshold is the lowest severity that flags the text.
	Threshold int `json:"threshold,omitempty"`
}

type ModerateResponse struct {
	Provider   string                         `json:"provider"`
	Flagged    bool                           `json:"flagged"`
	Severities map[string]int                 `json:"severities,omitempty"`
	Blocklists []contentsafety.BlocklistMatch `json:"blocklist_matches,omitempty"`
	Screen     *moderator.Screen              `json:"screen,omitempty"`
}

func (h *Handle) ModerateText(w http.ResponseWriter, r *http.Request) {
	var req ModerateRequest
	if !decodePost(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	if provider == "" {
		provider = ProviderSafety
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	var (
		resp ModerateResponse
		err  error
	)
	switch provider {
	case ProviderSafety:
		if h.Safety == nil {
			notConfigured(w, "content safety")
			return
		}
		_, err = h.Journal.Track(ctx, "contentsafety", "analyze_text", req.Text, func(ctx context.Context) (string, error) {
			out, err := h.analyzeSafety(ctx, req)
			resp = out
			return compact(out), err
		})
	case ProviderModerator:
		if h.Moderator == nil {
			notConfigured(w, "content moderator")
			return
		}
		_, err = h.Journal.Track(ctx, "moderator", "screen_text", req.Text, func(ctx context.Context) (string, error) {
			s, err := h.Moderator.ScreenText(ctx, req.Text, moderator.ScreenOptions{Autocorrect: true, PII: true, Classify: true})
			if err != nil {
				return "", err
			}
			resp = ModerateResponse{Provider: provider, Screen: s, Flagged: len(s.Terms) > 0}
			if c := s.Classification; c != nil && c.ReviewRecommended {
				resp.Flagged = true
			}
			return compact(resp), nil
		})
	default:
		writeError(w, http.StatusBadRequest, "unknown provider; use 'safety' or 'moderator'")
		return
	}
	if err != nil {
		writeVendorError(w, "moderate", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handle) analyzeSafety(ctx context.Context, req ModerateRequest) (ModerateResponse, error) {
	res, err := h.Safety.AnalyzeText(ctx, contentsafety.TextOptions{
		Text:           req.Text,
		BlocklistNames: req.Blocklists,
	})
	if err != nil {
		return ModerateResponse{}, err
	}
	threshold := req.Threshold
	if threshold <= 0 {
		threshold = 2
	}
	out := ModerateResponse{
		Provider:   ProviderSafety,
		Severities: contentsafety.Severities(res.CategoriesAnalysis),
		Blocklists: res.BlocklistsMatch,
		Flagged:    len(res.BlocklistsMatch) > 0,
	}
	for _, s := range out.Severities {
		if s >= threshold {
			out.Flagged = true
		}
	}
	return out, nil
}
