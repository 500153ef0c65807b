package gojob

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	gocmd "github.com/goliatone/go-command"
	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-twitter-token/adapters/gologger"
	"github.com/goliatone/go-twitter-token/command"
	"github.com/goliatone/go-twitter-token/core"
)

const JobIDPruneAttempts = "twitter_token.attempts.prune"

const (
	paramTTL    = "ttl"
	paramRowCap = "row_cap"
)

// RetryPolicy bounds nack retries so a failing prune cannot loop forever.
// MaxAttempts of zero retries without limit.
type RetryPolicy struct {
	MaxAttempts     int
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

// NormalizeAttempt clamps the delay and settles the disposition. Below
// MaxAttempts an empty disposition becomes retry; at the cap a retry becomes
// dead_letter or failed. Terminal dispositions set by the caller are kept.
func (p RetryPolicy) NormalizeAttempt(opts queue.NackOptions, attempt int) queue.NackOptions {
	out := opts
	out.Reason = strings.TrimSpace(out.Reason)
	if out.Delay < 0 {
		out.Delay = 0
	}
	if p.MaxDelay > 0 && out.Delay > p.MaxDelay {
		out.Delay = p.MaxDelay
	}
	if out.Disposition == "" {
		out.Disposition = queue.NackDispositionRetry
	}
	if out.Disposition == queue.NackDispositionRetry && p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		out.Disposition = queue.NackDispositionFailed
		if p.DeadLetterOnMax {
			out.Disposition = queue.NackDispositionDeadLetter
		}
	}
	if out.Disposition != queue.NackDispositionRetry {
		out.Delay = 0
	}
	return out
}

// PruneExecutionMessage encodes policy as a go-job message. The idempotency
// key is derived from the policy so duplicate schedules collapse.
func PruneExecutionMessage(policy core.AttemptRetentionPolicy) *job.ExecutionMessage {
	return &job.ExecutionMessage{
		JobID:      JobIDPruneAttempts,
		ScriptPath: JobIDPruneAttempts,
		Parameters: map[string]any{
			paramTTL:    policy.TTL.String(),
			paramRowCap: policy.RowCap,
		},
		IdempotencyKey: fmt.Sprintf("%s:%s:%d", JobIDPruneAttempts, policy.TTL, policy.RowCap),
	}
}

// PolicyFromExecutionMessage decodes a prune message. row_cap may arrive as
// any JSON number representation once it has crossed a queue backend.
func PolicyFromExecutionMessage(msg *job.ExecutionMessage) (core.AttemptRetentionPolicy, error) {
	if msg == nil {
		return core.AttemptRetentionPolicy{}, fmt.Errorf("gojob: execution message is required")
	}
	if strings.TrimSpace(msg.JobID) != JobIDPruneAttempts {
		return core.AttemptRetentionPolicy{}, fmt.Errorf("gojob: unexpected job id %q", msg.JobID)
	}
	policy := core.AttemptRetentionPolicy{}
	if raw, ok := msg.Parameters[paramTTL]; ok && raw != nil {
		ttl, err := time.ParseDuration(strings.TrimSpace(fmt.Sprint(raw)))
		if err != nil {
			return policy, fmt.Errorf("gojob: invalid %s: %w", paramTTL, err)
		}
		policy.TTL = ttl
	}
	if raw, ok := msg.Parameters[paramRowCap]; ok && raw != nil {
		rowCap, err := toInt(raw)
		if err != nil {
			return policy, fmt.Errorf("gojob: invalid %s: %w", paramRowCap, err)
		}
		policy.RowCap = rowCap
	}
	return policy, nil
}

// PruneScheduler enqueues prune jobs.
type PruneScheduler struct {
	enqueuer queue.Enqueuer
}

func NewPruneScheduler(enqueuer queue.Enqueuer) *PruneScheduler {
	return &PruneScheduler{enqueuer: enqueuer}
}

// Enqueue validates policy and hands a prune message to the queue. The
// receipt carries the dispatch id assigned by the backend.
func (s *PruneScheduler) Enqueue(ctx context.Context, policy core.AttemptRetentionPolicy) (queue.EnqueueReceipt, error) {
	if s == nil || s.enqueuer == nil {
		return queue.EnqueueReceipt{}, fmt.Errorf("gojob: enqueuer is not configured")
	}
	if err := (command.PruneAttemptsMessage{Policy: policy}).Validate(); err != nil {
		return queue.EnqueueReceipt{}, err
	}
	return s.enqueuer.Enqueue(ctx, PruneExecutionMessage(policy))
}

type PruneWorker struct {
	cmd    *command.PruneAttemptsCommand
	policy RetryPolicy
	logger glog.Logger
}

func NewPruneWorker(cmd *command.PruneAttemptsCommand, policy RetryPolicy, logger glog.Logger) *PruneWorker {
	_, resolved := gologger.Resolve(nil, logger)
	return &PruneWorker{cmd: cmd, policy: policy, logger: resolved}
}

// Handle runs one delivery. Malformed messages are dead lettered; prune
// failures are nacked under the retry policy. The returned error is the
// processing error, if any, after the delivery has been settled.
func (w *PruneWorker) Handle(ctx context.Context, delivery queue.Delivery, attempt int) error {
	if w == nil || w.cmd == nil {
		return fmt.Errorf("gojob: prune worker is not configured")
	}
	if delivery == nil {
		return fmt.Errorf("gojob: delivery is required")
	}

	policy, err := PolicyFromExecutionMessage(delivery.Message())
	if err != nil {
		w.logger.Warn("twitter_token prune message rejected", "error", err)
		if nackErr := delivery.Nack(ctx, queue.NackOptions{
			Disposition: queue.NackDispositionDeadLetter,
			Reason:      err.Error(),
		}); nackErr != nil {
			return nackErr
		}
		return err
	}

	collector := gocmd.NewResult[command.PruneResult]()
	if err := w.cmd.Execute(gocmd.ContextWithResult(ctx, collector), command.PruneAttemptsMessage{Policy: policy}); err != nil {
		opts := w.policy.NormalizeAttempt(queue.NackOptions{
			Disposition: queue.NackDispositionRetry,
			Delay:       retryDelay(attempt),
			Reason:      err.Error(),
		}, attempt)
		w.logger.Error("twitter_token prune failed",
			"attempt", attempt,
			"disposition", string(opts.Disposition),
			"delay_ms", opts.Delay.Milliseconds(),
			"error", err,
		)
		if nackErr := delivery.Nack(ctx, opts); nackErr != nil {
			return nackErr
		}
		return err
	}

	result, _ := collector.Load()
	w.logger.Info("twitter_token attempts pruned", "deleted", result.Deleted, "ttl", policy.TTL.String(), "row_cap", policy.RowCap)
	return delivery.Ack(ctx)
}

// Poll dequeues and handles a single delivery.
func (w *PruneWorker) Poll(ctx context.Context, dequeuer queue.Dequeuer, attempt int) error {
	if dequeuer == nil {
		return fmt.Errorf("gojob: dequeuer is not configured")
	}
	delivery, err := dequeuer.Dequeue(ctx)
	if err != nil {
		return err
	}
	return w.Handle(ctx, delivery, attempt)
}

// LoggingHook reports go-job worker lifecycle events for prune jobs.
type LoggingHook struct {
	logger glog.Logger
}

func NewLoggingHook(logger glog.Logger) *LoggingHook {
	_, resolved := gologger.Resolve(nil, logger)
	return &LoggingHook{logger: resolved}
}

func (h *LoggingHook) OnStart(_ context.Context, event worker.Event) {
	h.log("started", event)
}

func (h *LoggingHook) OnSuccess(_ context.Context, event worker.Event) {
	h.log("succeeded", event)
}

func (h *LoggingHook) OnFailure(_ context.Context, event worker.Event) {
	h.log("failed", event)
}

func (h *LoggingHook) OnRetry(_ context.Context, event worker.Event) {
	h.log("retrying", event)
}

func (h *LoggingHook) log(stage string, event worker.Event) {
	if h == nil || h.logger == nil {
		return
	}
	message := event.Message
	if message == nil && event.Delivery != nil {
		message = event.Delivery.Message()
	}
	jobID := ""
	if message != nil {
		jobID = message.JobID
	}
	args := []any{
		"job_id", jobID,
		"attempt", event.Attempt,
		"duration_ms", event.Duration.Milliseconds(),
	}
	if event.Delay > 0 {
		args = append(args, "delay_ms", event.Delay.Milliseconds())
	}
	if event.Err != nil {
		args = append(args, "error", event.Err)
		h.logger.Warn("twitter_token job "+stage, args...)
		return
	}
	h.logger.Info("twitter_token job "+stage, args...)
}

func retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(attempt) * time.Second
}

func toInt(value any) (int, error) {
	switch typed := value.(type) {
	case int:
		return typed, nil
	case int64:
		return int(typed), nil
	case float64:
		return int(typed), nil
	case json.Number:
		parsed, err := typed.Int64()
		return int(parsed), err
	case string:
		return strconv.Atoi(strings.TrimSpace(typed))
	default:
		return 0, fmt.Errorf("unsupported type %T", value)
	}
}

var _ worker.Hook = (*LoggingHook)(nil)
