package azrest

import (
	"context"
	"time"
)

// Poll calls check every interval until it reports done, returns an error or
// ctx is cancelled. The first check happens immediately.
func Poll(ctx context.Context, interval time.Duration, check func(ctx context.Context) (done bool, err error)) error {
	if interval <= 0 {
		interval = time.Second
	}
	for {
		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
