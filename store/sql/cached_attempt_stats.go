package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-twitter-token/core"
)

const attemptStatsCacheKeyPrefix = "go-twitter-token::attempt_stats::v1"

type attemptLedger interface {
	core.AttemptRecorder
	core.AttemptStatsReader
}

// CachedAttemptStats serves AttemptStats through a cache and drops the
// user's entry whenever a new attempt is recorded for them.
type CachedAttemptStats struct {
	base  attemptLedger
	cache repositorycache.CacheService
}

func NewCachedAttemptStats(base attemptLedger, cacheService repositorycache.CacheService) (*CachedAttemptStats, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base attempt store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: attempt stats cache service is required")
	}
	return &CachedAttemptStats{base: base, cache: cacheService}, nil
}

// AttemptStatsCacheKey returns go-twitter-token::attempt_stats::v1::<user_id>
// with the user id URL-path escaped.
func AttemptStatsCacheKey(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("sqlstore: user id is required")
	}
	return attemptStatsCacheKeyPrefix + "::" + url.PathEscape(userID), nil
}

func (s *CachedAttemptStats) AttemptStats(ctx context.Context, userID string) (core.AttemptStats, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.AttemptStats{}, fmt.Errorf("sqlstore: cached attempt stats is not configured")
	}
	userID = strings.TrimSpace(userID)
	cacheKey, err := AttemptStatsCacheKey(userID)
	if err != nil {
		return core.AttemptStats{}, err
	}
	stats, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.AttemptStats, error) {
		return s.base.AttemptStats(ctx, userID)
	})
	if err != nil {
		return core.AttemptStats{}, err
	}
	return cloneAttemptStats(stats), nil
}

func (s *CachedAttemptStats) RecordAttempt(ctx context.Context, attempt core.Attempt) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached attempt stats is not configured")
	}
	if err := s.base.RecordAttempt(ctx, attempt); err != nil {
		return err
	}
	if strings.TrimSpace(attempt.UserID) == "" {
		return nil
	}
	cacheKey, err := AttemptStatsCacheKey(attempt.UserID)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

func cloneAttemptStats(stats core.AttemptStats) core.AttemptStats {
	cloned := stats
	if stats.LastAttempt != nil {
		last := stats.LastAttempt.UTC()
		cloned.LastAttempt = &last
	}
	return cloned
}
