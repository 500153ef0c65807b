package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type attemptRecord struct {
	bun.BaseModel `bun:"table:twitter_token_attempts,alias:tta"`

	ID         string         `bun:"id,pk"`
	Provider   string         `bun:"provider,notnull"`
	Status     string         `bun:"status,notnull"`
	UserID     string         `bun:"user_id,notnull"`
	Username   string         `bun:"username,notnull"`
	ErrorCode  string         `bun:"error_code,notnull"`
	Message    string         `bun:"message,notnull"`
	DurationMS int64          `bun:"duration_ms,notnull"`
	Metadata   map[string]any `bun:"metadata,type:jsonb,notnull"`
	CreatedAt  time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
