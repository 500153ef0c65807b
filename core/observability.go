package core

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	metricAuthenticateTotal    = "twitter_token.authenticate.total"
	metricAuthenticateDuration = "twitter_token.authenticate.duration_ms"
	metricUserProfileTotal     = "twitter_token.user_profile.total"
	metricAttemptRecordFailed  = "twitter_token.attempt_record.failed"
)

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

var _ MetricsRecorder = NopMetricsRecorder{}

// observeAttempt runs once the outcome is fixed. Nothing here can alter it.
func (a *Authenticator) observeAttempt(
	ctx context.Context,
	startedAt time.Time,
	outcome Outcome,
	trace *attemptTrace,
) {
	creds, profile := trace.creds, trace.profile
	duration := a.now().Sub(startedAt)
	userID := firstNonEmpty(profile.ID, creds.UserID)
	errorCode := TextCode(outcome.Err)

	fields := map[string]any{
		"provider":    ProviderTwitter,
		"outcome":     string(outcome.Kind),
		"duration_ms": duration.Milliseconds(),
	}
	if userID != "" {
		fields["user_id"] = userID
	}
	if errorCode != "" {
		fields["error_code"] = errorCode
	}
	if outcome.Err != nil {
		fields["error"] = outcome.Err.Error()
	}
	if trace.denied {
		fields["denied"] = true
	}

	tags := map[string]string{"outcome": string(outcome.Kind)}
	if errorCode != "" {
		tags["error_code"] = errorCode
	}
	a.recordCounter(ctx, metricAuthenticateTotal, 1, tags)
	a.recordHistogram(ctx, metricAuthenticateDuration, float64(duration.Milliseconds()), tags)

	switch outcome.Kind {
	case OutcomeError:
		a.logWithLevel(ctx, "error", "authenticate failed", fields)
	case OutcomeFail:
		a.logWithLevel(ctx, "warn", "authenticate rejected", fields)
	default:
		a.logWithLevel(ctx, "info", "authenticate succeeded", fields)
	}

	if a.attemptRecorder == nil {
		return
	}
	attempt := Attempt{
		ID:        uuid.NewString(),
		Provider:  ProviderTwitter,
		Status:    AttemptStatus(outcome.Kind),
		UserID:    userID,
		Username:  firstNonEmpty(profile.Username, creds.ScreenName),
		ErrorCode: errorCode,
		Message:   outcomeMessage(outcome),
		Duration:  duration,
		Metadata:  map[string]any{"denied": trace.denied},
		CreatedAt: startedAt,
	}
	if err := a.attemptRecorder.RecordAttempt(ctx, attempt); err != nil {
		a.recordCounter(ctx, metricAttemptRecordFailed, 1, map[string]string{"outcome": string(outcome.Kind)})
		a.logWithLevel(ctx, "error", "record authentication attempt failed", map[string]any{
			"attempt_id": attempt.ID,
			"error":      err.Error(),
		})
	}
}

func (a *Authenticator) observeProfile(ctx context.Context, startedAt time.Time, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	tags := map[string]string{"status": status}
	if code := TextCode(err); code != "" {
		tags["error_code"] = code
	}
	a.recordCounter(ctx, metricUserProfileTotal, 1, tags)
	if err != nil {
		a.logWithLevel(ctx, "debug", "user profile request failed", map[string]any{
			"duration_ms": time.Since(startedAt).Milliseconds(),
			"error":       err.Error(),
		})
	}
}

func outcomeMessage(outcome Outcome) string {
	if outcome.Err != nil {
		return outcome.Err.Error()
	}
	if outcome.Info != nil {
		if message, ok := outcome.Info["message"].(string); ok {
			return message
		}
	}
	return ""
}

func (a *Authenticator) logWithLevel(ctx context.Context, level string, message string, fields map[string]any) {
	if a == nil || a.logger == nil {
		return
	}
	logger := a.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(cloneFields(fields))
	}
	args := flattenFields(fields)
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		logger.Error(message, args...)
	case "warn":
		logger.Warn(message, args...)
	case "debug":
		logger.Debug(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func (a *Authenticator) recordCounter(ctx context.Context, name string, value int64, tags map[string]string) {
	if a == nil || a.metricsRecorder == nil {
		return
	}
	a.metricsRecorder.IncCounter(ctx, name, value, cloneTags(tags))
}

func (a *Authenticator) recordHistogram(ctx context.Context, name string, value float64, tags map[string]string) {
	if a == nil || a.metricsRecorder == nil {
		return
	}
	a.metricsRecorder.ObserveHistogram(ctx, name, value, cloneTags(tags))
}

func cloneFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	copied := make(map[string]any, len(fields))
	for key, value := range fields {
		copied[key] = value
	}
	return copied
}

func cloneTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return map[string]string{}
	}
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}
