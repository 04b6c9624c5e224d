package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TimeLayout is the checkpoint wire format. Minute precision, no
// timezone; source and destination are assumed to share one local zone.
const TimeLayout = "2006.01.02T15:04"

// Tracker stores the last-synced timestamp under a single Redis key.
// The checkpoint is process-wide, not tenant-scoped: when several
// tenants are polled by one process they all share this cursor.
type Tracker struct {
	rdb *redis.Client
	key string
}

func NewTracker(rdb *redis.Client, key string) *Tracker {
	return &Tracker{rdb: rdb, key: key}
}

// Read returns the stored checkpoint. When no value exists yet it
// returns the current time, so a first run fetches an empty window.
func (t *Tracker) Read(ctx context.Context) (time.Time, error) {
	val, err := t.rdb.Get(ctx, t.key).Result()
	if err == redis.Nil {
		return time.Now(), nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	ts, err := time.ParseInLocation(TimeLayout, val, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse checkpoint %q: %w", val, err)
	}
	return ts, nil
}

// Advance unconditionally overwrites the checkpoint, regardless of
// whether the cycle that follows succeeds.
func (t *Tracker) Advance(ctx context.Context, now time.Time) error {
	if err := t.rdb.Set(ctx, t.key, now.Format(TimeLayout), 0).Err(); err != nil {
		return fmt.Errorf("failed to advance checkpoint: %w", err)
	}
	return nil
}
