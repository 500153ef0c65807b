package sqlstore

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-twitter-token/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	defaultAttemptPerPage = 25
	maxAttemptPerPage     = 200
)

// AttemptStore persists authentication attempts in twitter_token_attempts.
type AttemptStore struct {
	db   *bun.DB
	repo repository.Repository[*attemptRecord]
	now  func() time.Time
}

func NewAttemptStore(db *bun.DB) (*AttemptStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*attemptRecord](db, attemptHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid attempt repository wiring: %w", err)
		}
	}
	return &AttemptStore{db: db, repo: repo, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *AttemptStore) RecordAttempt(ctx context.Context, attempt core.Attempt) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: attempt store is not configured")
	}
	status := strings.TrimSpace(string(attempt.Status))
	switch core.AttemptStatus(status) {
	case core.AttemptStatusSuccess, core.AttemptStatusFail, core.AttemptStatusError:
	default:
		return fmt.Errorf("sqlstore: unsupported attempt status %q", attempt.Status)
	}

	id := strings.TrimSpace(attempt.ID)
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := attempt.CreatedAt.UTC()
	if attempt.CreatedAt.IsZero() {
		createdAt = s.now()
	}
	provider := strings.TrimSpace(attempt.Provider)
	if provider == "" {
		provider = core.ProviderTwitter
	}
	metadata := map[string]any{}
	maps.Copy(metadata, attempt.Metadata)

	_, err := s.repo.Create(ctx, &attemptRecord{
		ID:         id,
		Provider:   provider,
		Status:     status,
		UserID:     strings.TrimSpace(attempt.UserID),
		Username:   strings.TrimSpace(attempt.Username),
		ErrorCode:  strings.TrimSpace(attempt.ErrorCode),
		Message:    attempt.Message,
		DurationMS: attempt.Duration.Milliseconds(),
		Metadata:   metadata,
		CreatedAt:  createdAt,
	})
	return err
}

// ListAttempts returns attempts newest first. NextCursor is the offset of the
// following page when one exists.
func (s *AttemptStore) ListAttempts(ctx context.Context, filter core.AttemptFilter) (core.AttemptPage, error) {
	if s == nil || s.repo == nil {
		return core.AttemptPage{}, fmt.Errorf("sqlstore: attempt store is not configured")
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = defaultAttemptPerPage
	}
	if perPage > maxAttemptPerPage {
		perPage = maxAttemptPerPage
	}
	offset := (page - 1) * perPage

	selectors := []repository.SelectCriteria{
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(perPage, offset),
	}
	if userID := strings.TrimSpace(filter.UserID); userID != "" {
		selectors = append(selectors, repository.SelectBy("user_id", "=", userID))
	}
	if status := strings.TrimSpace(string(filter.Status)); status != "" {
		selectors = append(selectors, repository.SelectBy("status", "=", status))
	}
	if filter.From != nil {
		selectors = append(selectors, createdAtBound(">=", filter.From.UTC()))
	}
	if filter.To != nil {
		selectors = append(selectors, createdAtBound("<=", filter.To.UTC()))
	}

	records, total, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return core.AttemptPage{}, err
	}
	items := make([]core.Attempt, 0, len(records))
	for _, record := range records {
		items = append(items, attemptRecordToDomain(record))
	}
	hasNext := offset+len(items) < total
	nextCursor := ""
	if hasNext {
		nextCursor = strconv.Itoa(offset + len(items))
	}
	return core.AttemptPage{
		Items:      items,
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		HasNext:    hasNext,
		NextCursor: nextCursor,
	}, nil
}

func (s *AttemptStore) AttemptStats(ctx context.Context, userID string) (core.AttemptStats, error) {
	if s == nil || s.db == nil || s.repo == nil {
		return core.AttemptStats{}, fmt.Errorf("sqlstore: attempt store is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return core.AttemptStats{}, fmt.Errorf("sqlstore: user id is required")
	}

	stats := core.AttemptStats{UserID: userID}
	counts := map[core.AttemptStatus]*int{
		core.AttemptStatusSuccess: &stats.Success,
		core.AttemptStatusFail:    &stats.Fail,
		core.AttemptStatusError:   &stats.Error,
	}
	for status, target := range counts {
		count, err := s.db.NewSelect().
			Model((*attemptRecord)(nil)).
			Where("?TableAlias.user_id = ?", userID).
			Where("?TableAlias.status = ?", string(status)).
			Count(ctx)
		if err != nil {
			return core.AttemptStats{}, err
		}
		*target = count
	}

	records, _, err := s.repo.List(ctx,
		repository.SelectBy("user_id", "=", userID),
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.AttemptStats{}, err
	}
	if len(records) > 0 && records[0] != nil {
		last := records[0].CreatedAt.UTC()
		stats.LastAttempt = &last
		stats.LastStatus = core.AttemptStatus(records[0].Status)
	}
	return stats, nil
}

// PruneAttempts deletes attempts older than policy.TTL, then trims the
// oldest rows until at most policy.RowCap remain.
func (s *AttemptStore) PruneAttempts(ctx context.Context, policy core.AttemptRetentionPolicy) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: attempt store is not configured")
	}
	deleted := 0

	if policy.TTL > 0 {
		cutoff := s.now().Add(-policy.TTL)
		res, err := s.db.NewDelete().
			Model((*attemptRecord)(nil)).
			Where("created_at < ?", cutoff).
			Exec(ctx)
		if err != nil {
			return deleted, err
		}
		affected, _ := res.RowsAffected()
		deleted += int(affected)
	}

	if policy.RowCap > 0 {
		total, err := s.db.NewSelect().Model((*attemptRecord)(nil)).Count(ctx)
		if err != nil {
			return deleted, err
		}
		if excess := total - policy.RowCap; excess > 0 {
			res, err := s.db.NewRaw(
				"DELETE FROM twitter_token_attempts WHERE id IN (SELECT id FROM twitter_token_attempts ORDER BY created_at ASC LIMIT ?)",
				excess,
			).Exec(ctx)
			if err != nil {
				return deleted, err
			}
			affected, _ := res.RowsAffected()
			deleted += int(affected)
		}
	}

	return deleted, nil
}

// createdAtBound binds the time as a bun value so each dialect compares it in
// its own timestamp encoding.
func createdAtBound(operator string, value time.Time) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.created_at "+operator+" ?", value)
	}
}

func attemptRecordToDomain(record *attemptRecord) core.Attempt {
	if record == nil {
		return core.Attempt{}
	}
	metadata := map[string]any{}
	maps.Copy(metadata, record.Metadata)
	return core.Attempt{
		ID:        record.ID,
		Provider:  record.Provider,
		Status:    core.AttemptStatus(record.Status),
		UserID:    record.UserID,
		Username:  record.Username,
		ErrorCode: record.ErrorCode,
		Message:   record.Message,
		Duration:  time.Duration(record.DurationMS) * time.Millisecond,
		Metadata:  metadata,
		CreatedAt: record.CreatedAt.UTC(),
	}
}
