package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const ratingTTL = 15 * time.Minute

type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// RatingCache keeps per-doctor review aggregates so the public doctor
// directory does not recompute them on every request. Entries are
// dropped whenever a review for the doctor changes.
type RatingCache struct {
	client *redis.Client
}

func NewRatingCache(client *redis.Client) *RatingCache {
	return &RatingCache{client: client}
}

func ratingKey(doctorID uint) string {
	return fmt.Sprintf("doctor:rating:%d", doctorID)
}

func (rc *RatingCache) Get(ctx context.Context, doctorID uint) (*RatingSummary, bool) {
	raw, err := rc.client.Get(ctx, ratingKey(doctorID)).Bytes()
	if err != nil {
		return nil, false
	}

	var summary RatingSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, false
	}

	return &summary, true
}

func (rc *RatingCache) Set(ctx context.Context, doctorID uint, summary RatingSummary) {
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}

	// Cache failures are invisible to callers; the source of truth
	// stays in Postgres.
	rc.client.Set(ctx, ratingKey(doctorID), raw, ratingTTL)
}

func (rc *RatingCache) Invalidate(ctx context.Context, doctorID uint) {
	rc.client.Del(ctx, ratingKey(doctorID))
}
