package query

import (
	"context"
	"strings"

	"github.com/goliatone/go-twitter-token/core"
)

type ProfileLoader interface {
	UserProfile(ctx context.Context, token string, tokenSecret string, params core.ProfileParams) (core.Profile, error)
}

type UserProfileQuery struct {
	loader ProfileLoader
}

func NewUserProfileQuery(loader ProfileLoader) *UserProfileQuery {
	return &UserProfileQuery{loader: loader}
}

func (q *UserProfileQuery) Query(ctx context.Context, msg UserProfileMessage) (core.Profile, error) {
	if q == nil || q.loader == nil {
		return core.Profile{}, core.DependencyError("query: profile loader is required")
	}
	if err := msg.Validate(); err != nil {
		return core.Profile{}, err
	}
	userID := strings.TrimSpace(msg.UserID)
	if userID == "" {
		userID = core.UserIDFromToken(msg.Token)
	}
	return q.loader.UserProfile(ctx, msg.Token, msg.TokenSecret, core.ProfileParams{
		UserID:     userID,
		ScreenName: strings.TrimSpace(msg.ScreenName),
	})
}

type ListAttemptsQuery struct {
	reader core.AttemptReader
}

func NewListAttemptsQuery(reader core.AttemptReader) *ListAttemptsQuery {
	return &ListAttemptsQuery{reader: reader}
}

func (q *ListAttemptsQuery) Query(ctx context.Context, msg ListAttemptsMessage) (core.AttemptPage, error) {
	if q == nil || q.reader == nil {
		return core.AttemptPage{}, core.DependencyError("query: attempt reader is required")
	}
	if err := msg.Validate(); err != nil {
		return core.AttemptPage{}, err
	}
	return q.reader.ListAttempts(ctx, msg.Filter)
}

type AttemptStatsQuery struct {
	reader core.AttemptStatsReader
}

func NewAttemptStatsQuery(reader core.AttemptStatsReader) *AttemptStatsQuery {
	return &AttemptStatsQuery{reader: reader}
}

func (q *AttemptStatsQuery) Query(ctx context.Context, msg AttemptStatsMessage) (core.AttemptStats, error) {
	if q == nil || q.reader == nil {
		return core.AttemptStats{}, core.DependencyError("query: attempt stats reader is required")
	}
	if err := msg.Validate(); err != nil {
		return core.AttemptStats{}, err
	}
	return q.reader.AttemptStats(ctx, strings.TrimSpace(msg.UserID))
}
