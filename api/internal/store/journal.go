package store

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

const maxJournalText = 4000

// Journal wraps calls so each one lands in call_journal. A nil *Journal
// just runs the call.
type Journal struct {
	repo   *JournalRepo
	source string
	log    *logrus.Entry
}

func NewJournal(db *DB, source string, log *logrus.Entry) *Journal {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Journal{repo: NewJournalRepo(db), source: source, log: log}
}

// Track runs fn and records its output or error. Journal write failures are
// logged and never replace fn's result.
func (j *Journal) Track(ctx context.Context, service, operation, input string, fn func(context.Context) (string, error)) (string, error) {
	start := time.Now()
	out, err := fn(ctx)
	if j == nil {
		return out, err
	}
	e := Entry{
		CreatedAt: start,
		Source:    j.source,
		Service:   service,
		Operation: operation,
		Input:     clip(input),
		Output:    clip(out),
		Duration:  time.Since(start),
	}
	if err != nil {
		e.Error = clip(err.Error())
	}
	if _, jerr := j.repo.Insert(context.WithoutCancel(ctx), e); jerr != nil {
		j.log.WithError(jerr).WithField("service", service).Warn("journal write failed")
	}
	return out, err
}

func (j *Journal) Repo() *JournalRepo {
	if j == nil {
		return nil
	}
	return j.repo
}

func clip(s string) string {
	if len(s) <= maxJournalText {
		return s
	}
	// back off to a rune start so the cut stays valid UTF-8
	n := maxJournalText
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
