package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"azure-playground/api/internal/logging"
)

func openMemory(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestDialectFor(t *testing.T) {
	assert.Equal(t, Postgres, DialectFor("postgres://u:p@localhost/db"))
	assert.Equal(t, Postgres, DialectFor("postgresql://localhost/db"))
	assert.Equal(t, SQLite, DialectFor("data/journal.db"))
	assert.Equal(t, SQLite, DialectFor(":memory:"))
}

func TestRebind(t *testing.T) {
	pg := &DB{Dialect: Postgres}
	assert.Equal(t, "a = $1 and b = $2", pg.rebind("a = ? and b = ?"))
	lite := &DB{Dialect: SQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestJournalRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewJournalRepo(openMemory(t))

	base := time.UnixMilli(1_700_000_000_000)
	id1, err := repo.Insert(ctx, Entry{CreatedAt: base, Source: "cli", Service: "translator", Operation: "translate", Input: "hi", Output: "salut", Duration: 120 * time.Millisecond})
	require.NoError(t, err)
	_, err = repo.Insert(ctx, Entry{CreatedAt: base.Add(time.Second), Source: "gateway", Service: "language", Operation: "detect", Error: "boom"})
	require.NoError(t, err)
	id3, err := repo.Insert(ctx, Entry{CreatedAt: base.Add(2 * time.Second), Source: "bot", Service: "translator", Operation: "translate"})
	require.NoError(t, err)

	got, err := repo.Get(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, "salut", got.Output)
	assert.Equal(t, 120*time.Millisecond, got.Duration)
	assert.True(t, base.Equal(got.CreatedAt))

	_, err = repo.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	recent, err := repo.Recent(ctx, "translator", 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, id3, recent[0].ID)

	all, err := repo.Recent(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestKeyKeepsPartBoundaries(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
	}{
		{name: "unit separator in a text", a: []string{"a\x1fb"}, b: []string{"a", "b"}},
		{name: "nul in a part", a: []string{"en\x00fr", "x"}, b: []string{"en", "fr\x00x"}},
		{name: "empty part", a: []string{"a", ""}, b: []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, Key(tt.a...), Key(tt.b...))
			assert.Equal(t, Key(tt.a...), Key(tt.a...))
		})
	}
}

func TestCacheRepo(t *testing.T) {
	ctx := context.Background()
	c := NewCacheRepo(openMemory(t))
	k := Key("en", "fr", "hello")
	assert.NotEqual(t, k, Key("en", "fr", "hello!"))

	_, err := c.Find(ctx, "translator", k, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.Upsert(ctx, "translator", k, "bonjour"))
	require.NoError(t, c.Upsert(ctx, "translator", k, "salut"))
	body, err := c.Find(ctx, "translator", k, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "salut", body)

	_, err = c.Find(ctx, "translator", k, time.Nanosecond)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJournalTrack(t *testing.T) {
	ctx := context.Background()
	j := NewJournal(openMemory(t), "cli", logging.Discard())

	out, err := j.Track(ctx, "vision", "analyze", "img.jpg", func(context.Context) (string, error) {
		return "a dog", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "a dog", out)

	boom := errors.New("boom")
	_, err = j.Track(ctx, "vision", "analyze", "bad.jpg", func(context.Context) (string, error) {
		return "", boom
	})
	assert.ErrorIs(t, err, boom)

	entries, err := j.Repo().Recent(ctx, "vision", 5)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	var failed int
	for _, e := range entries {
		assert.Equal(t, "cli", e.Source)
		if e.Error == "boom" {
			failed++
		}
	}
	assert.Equal(t, 1, failed)

	var nilJournal *Journal
	out, err = nilJournal.Track(ctx, "x", "y", "", func(context.Context) (string, error) { return "ok", nil })
	assert.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Nil(t, nilJournal.Repo())
}

func TestClipKeepsRunesWhole(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{name: "short", in: "hello", want: 5},
		{name: "ascii", in: strings.Repeat("a", maxJournalText+10), want: maxJournalText},
		{name: "cyrillic split", in: "a" + strings.Repeat("я", 2001), want: maxJournalText - 1},
		{name: "cyrillic aligned", in: strings.Repeat("я", 2001), want: maxJournalText},
		{name: "japanese", in: strings.Repeat("日", 1400), want: 3999},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clip(tt.in)
			assert.True(t, utf8.ValidString(got))
			assert.Len(t, got, tt.want)
			assert.True(t, strings.HasPrefix(tt.in, got))
		})
	}
}
