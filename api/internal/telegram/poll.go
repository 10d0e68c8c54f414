package telegram

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// WebhookPath is the secret webhook route derived from the bot token.
func WebhookPath(token string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(token))
	return fmt.Sprintf("/webhook/%016x", h.Sum64())
}

// UpdateReader turns a webhook request into an update.
type UpdateReader interface {
	HandleUpdate(r *http.Request) (*tgbotapi.Update, error)
}

// WebhookHandler acknowledges each delivery at once and handles the update in
// the background, so slow OCR does not trigger Telegram redelivery.
func (r *Router) WebhookHandler(ctx context.Context, bot UpdateReader) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		upd, err := bot.HandleUpdate(req)
		if err != nil {
			r.log().WithError(err).Warn("bad webhook update")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		go r.HandleUpdate(ctx, *upd)
	}
}

type Poller interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

// retryDelay picks the wait before the next poll after err.
func retryDelay(err error) time.Duration {
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") {
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return time.Second
}

// Poll long-polls for updates until ctx is done. Errors back off instead of
// stopping the loop.
func Poll(ctx context.Context, bot Poller, log *logrus.Entry, handle func(tgbotapi.Update)) {
	const maxDelay = 15 * time.Second
	offset := 0
	for ctx.Err() == nil {
		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30
		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := min(retryDelay(err), maxDelay)
			log.WithError(err).WithField("retry_in", d).Warn("polling failed")
			select {
			case <-ctx.Done():
			case <-time.After(d):
			}
			continue
		}
		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}
	}
	log.Info("polling stopped")
}
