// Package handle serves the HTTP gateway in front of the service clients.
package handle

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"azure-playground/api/internal/chat"
	"azure-playground/api/internal/contentsafety"
	"azure-playground/api/internal/language"
	"azure-playground/api/internal/media"
	"azure-playground/api/internal/moderator"
	"azure-playground/api/internal/store"
	"azure-playground/api/internal/translator"
	"azure-playground/api/internal/vision"
)

const defaultDeadline = 180 * time.Second

type Translator interface {
	Translate(ctx context.Context, texts []string, from string, to []string) ([]translator.TranslateResult, error)
}

type LanguageDetector interface {
	DetectLanguage(ctx context.Context, texts []string, countryHint string) (*language.Batch, error)
}

type SafetyAnalyzer interface {
	AnalyzeText(ctx context.Context, opt contentsafety.TextOptions) (*contentsafety.TextResult, error)
}

type TextScreener interface {
	ScreenText(ctx context.Context, text string, opt moderator.ScreenOptions) (*moderator.Screen, error)
}

type Reader interface {
	Read(ctx context.Context, img media.Image, language string, interval time.Duration) (*vision.ReadResult, error)
}

// Deps are the clients behind the routes. A nil dependency makes its route
// answer 503.
type Deps struct {
	Translator Translator
	Language   LanguageDetector
	Safety     SafetyAnalyzer
	Moderator  TextScreener
	Vision     Reader
	Engines    *chat.Engines

	Cache    *store.CacheRepo
	CacheTTL time.Duration
	Journal  *store.Journal
	Log      *logrus.Entry
}

type Handle struct {
	Deps
}

func New(d Deps) *Handle {
	if d.Log == nil {
		d.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Handle{Deps: d}
}

// Routes registers every gateway route on mux.
func (h *Handle) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/translate", h.Translate)
	mux.HandleFunc("/v1/language/detect", h.DetectLanguage)
	mux.HandleFunc("/v1/moderate/text", h.ModerateText)
	mux.HandleFunc("/v1/vision/read", h.Read)
	mux.HandleFunc("/v1/chat", h.Chat)
	mux.HandleFunc("/v1/journal", h.History)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// decodePost enforces POST and decodes the JSON body into v. It writes the
// error response itself and reports whether the handler should go on.
func decodePost(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return false
	}
	return true
}

// deadline reads X-Request-Timeout, then ?timeoutSec, in seconds.
func deadline(r *http.Request) time.Duration {
	d := defaultDeadline
	if ts := r.Header.Get("X-Request-Timeout"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			d = time.Duration(v) * time.Second
		}
	} else if ts := r.URL.Query().Get("timeoutSec"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			d = time.Duration(v) * time.Second
		}
	}
	return d
}

func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), deadline(r))
}

func notConfigured(w http.ResponseWriter, what string) {
	writeError(w, http.StatusServiceUnavailable, what+" is not configured")
}

func compact(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
