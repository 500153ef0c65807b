package query

import (
	"strings"

	"github.com/goliatone/go-twitter-token/core"
)

const (
	TypeUserProfile  = "twitter_token.query.user_profile"
	TypeListAttempts = "twitter_token.query.attempts.list"
	TypeAttemptStats = "twitter_token.query.attempts.stats"
)

// UserProfileMessage loads the profile owned by an access token pair.
type UserProfileMessage struct {
	Token       string
	TokenSecret string
	UserID      string
	ScreenName  string
}

func (UserProfileMessage) Type() string { return TypeUserProfile }

func (m UserProfileMessage) Validate() error {
	if strings.TrimSpace(m.Token) == "" {
		return core.ValidationFailure("query", "token", "is required")
	}
	return nil
}

type ListAttemptsMessage struct {
	Filter core.AttemptFilter
}

func (ListAttemptsMessage) Type() string { return TypeListAttempts }

func (m ListAttemptsMessage) Validate() error {
	if m.Filter.Page < 0 {
		return core.ValidationFailure("query", "page", "must be >= 0")
	}
	if m.Filter.PerPage < 0 {
		return core.ValidationFailure("query", "per_page", "must be >= 0")
	}
	if m.Filter.From != nil && m.Filter.To != nil && m.Filter.To.Before(*m.Filter.From) {
		return core.ValidationFailure("query", "to", "must not be before from")
	}
	return nil
}

type AttemptStatsMessage struct {
	UserID string
}

func (AttemptStatsMessage) Type() string { return TypeAttemptStats }

func (m AttemptStatsMessage) Validate() error {
	if strings.TrimSpace(m.UserID) == "" {
		return core.ValidationFailure("query", "user_id", "is required")
	}
	return nil
}
