package command

import (
	"github.com/goliatone/go-twitter-token/core"
)

const (
	TypeAuthenticate  = "twitter_token.command.authenticate"
	TypePruneAttempts = "twitter_token.command.attempts.prune"
)

// AuthenticateMessage runs one authentication attempt. Reporter is optional;
// when set it receives the outcome exactly once.
type AuthenticateMessage struct {
	Request  core.Request
	Reporter core.Reporter
}

func (AuthenticateMessage) Type() string { return TypeAuthenticate }

// Validate accepts any request. Absent credentials surface as a fail outcome
// rather than a rejected message.
func (AuthenticateMessage) Validate() error { return nil }

type PruneAttemptsMessage struct {
	Policy core.AttemptRetentionPolicy
}

func (PruneAttemptsMessage) Type() string { return TypePruneAttempts }

func (m PruneAttemptsMessage) Validate() error {
	if m.Policy.TTL < 0 {
		return core.ValidationFailure("command", "ttl", "must be >= 0")
	}
	if m.Policy.RowCap < 0 {
		return core.ValidationFailure("command", "row_cap", "must be >= 0")
	}
	if m.Policy.TTL == 0 && m.Policy.RowCap == 0 {
		return core.ValidationFailure("command", "policy", "ttl or row_cap is required")
	}
	return nil
}
