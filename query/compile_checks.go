package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-twitter-token/core"
)

var (
	_ gocmd.Querier[UserProfileMessage, core.Profile]       = (*UserProfileQuery)(nil)
	_ gocmd.Querier[ListAttemptsMessage, core.AttemptPage]  = (*ListAttemptsQuery)(nil)
	_ gocmd.Querier[AttemptStatsMessage, core.AttemptStats] = (*AttemptStatsQuery)(nil)
)
