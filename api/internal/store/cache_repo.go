package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/goccy/go-json"
)

type CacheRepo struct{ DB *DB }

func NewCacheRepo(db *DB) *CacheRepo { return &CacheRepo{DB: db} }

// Key hashes the request parts into a cache key. The parts are hashed as a
// JSON array, so no separator inside a part can make two requests collide.
func Key(parts ...string) string {
	if parts == nil {
		parts = []string{}
	}
	b, _ := json.Marshal(parts)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Find returns the cached body for (service, key). If maxAge > 0 and the row
// is older, ErrNotFound is returned so the caller goes to the service again.
func (r *CacheRepo) Find(ctx context.Context, service, key string, maxAge time.Duration) (string, error) {
	const q = `select body, created_ms from response_cache where service = ? and cache_key = ?`
	var (
		body string
		ms   int64
	)
	if err := r.DB.QueryRowContext(ctx, r.DB.rebind(q), service, key).Scan(&body, &ms); err != nil {
		return "", err
	}
	if maxAge > 0 && time.Since(time.UnixMilli(ms)) > maxAge {
		return "", ErrNotFound
	}
	return body, nil
}

func (r *CacheRepo) Upsert(ctx context.Context, service, key, body string) error {
	const q = `
insert into response_cache(service, cache_key, body, created_ms)
values (?,?,?,?)
on conflict (service, cache_key)
do update set body = excluded.body, created_ms = excluded.created_ms`
	_, err := r.DB.ExecContext(ctx, r.DB.rebind(q), service, key, body, time.Now().UnixMilli())
	return err
}
