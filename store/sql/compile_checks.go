package sqlstore

import "github.com/goliatone/go-twitter-token/core"

var (
	_ core.AttemptRecorder    = (*AttemptStore)(nil)
	_ core.AttemptReader      = (*AttemptStore)(nil)
	_ core.AttemptStatsReader = (*AttemptStore)(nil)
	_ core.AttemptPruner      = (*AttemptStore)(nil)

	_ core.AttemptRecorder    = (*CachedAttemptStats)(nil)
	_ core.AttemptStatsReader = (*CachedAttemptStats)(nil)
)
