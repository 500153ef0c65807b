package gocommand

import (
	"context"
	"fmt"
	"strings"

	gocmd "github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	"github.com/goliatone/go-twitter-token/command"
	"github.com/goliatone/go-twitter-token/core"
	"github.com/goliatone/go-twitter-token/query"
)

// ValidateMessageContract enforces Type() plus the optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := gocmd.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(gocmd.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

// Handlers groups the command and query handlers exposed on the dispatcher.
// Nil entries are skipped.
type Handlers struct {
	Authenticate  *command.AuthenticateCommand
	PruneAttempts *command.PruneAttemptsCommand
	UserProfile   *query.UserProfileQuery
	ListAttempts  *query.ListAttemptsQuery
	AttemptStats  *query.AttemptStatsQuery
}

type RegistryAdapter struct {
	registry *gocmd.Registry
}

func NewRegistryAdapter(registry *gocmd.Registry) *RegistryAdapter {
	if registry == nil {
		registry = gocmd.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *gocmd.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) RegisterCommand(cmd any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(cmd)
}

func (a *RegistryAdapter) AddResolver(key string, resolver gocmd.Resolver) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.AddResolver(strings.TrimSpace(key), resolver)
}

// AddQueueResolver mirrors registered commands into a go-job queue registry
// so they can be executed from queued deliveries.
func (a *RegistryAdapter) AddQueueResolver(key string, queueRegistry *jobqueuecommand.Registry) error {
	if queueRegistry == nil {
		return fmt.Errorf("gocommand: queue registry is required")
	}
	return a.AddResolver(key, jobqueuecommand.QueueResolver(queueRegistry))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

// Subscriptions is returned by RegisterHandlers; Unsubscribe detaches all of them.
type Subscriptions []commanddispatcher.Subscription

func (s Subscriptions) Unsubscribe() {
	for _, sub := range s {
		if sub != nil {
			sub.Unsubscribe()
		}
	}
}

// RegisterHandlers registers commands with the registry and subscribes every
// non-nil handler on the global dispatcher. On error, subscriptions made so
// far are removed. The authenticate command always runs with retries
// disabled, whatever runnerOpts carry, so its reporter fires once per dispatch.
func RegisterHandlers(adapter *RegistryAdapter, handlers Handlers, runnerOpts ...runner.Option) (Subscriptions, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	var subs Subscriptions
	fail := func(err error) (Subscriptions, error) {
		subs.Unsubscribe()
		return nil, err
	}

	if handlers.Authenticate != nil {
		sub, err := registerCommand[command.AuthenticateMessage](adapter, handlers.Authenticate, singleAttempt(runnerOpts)...)
		if err != nil {
			return fail(err)
		}
		subs = append(subs, sub)
	}
	if handlers.PruneAttempts != nil {
		sub, err := registerCommand[command.PruneAttemptsMessage](adapter, handlers.PruneAttempts, runnerOpts...)
		if err != nil {
			return fail(err)
		}
		subs = append(subs, sub)
	}
	if handlers.UserProfile != nil {
		subs = append(subs, commanddispatcher.SubscribeQuery[query.UserProfileMessage, core.Profile](handlers.UserProfile, runnerOpts...))
	}
	if handlers.ListAttempts != nil {
		subs = append(subs, commanddispatcher.SubscribeQuery[query.ListAttemptsMessage, core.AttemptPage](handlers.ListAttempts, runnerOpts...))
	}
	if handlers.AttemptStats != nil {
		subs = append(subs, commanddispatcher.SubscribeQuery[query.AttemptStatsMessage, core.AttemptStats](handlers.AttemptStats, runnerOpts...))
	}
	return subs, nil
}

func singleAttempt(opts []runner.Option) []runner.Option {
	out := make([]runner.Option, 0, len(opts)+1)
	out = append(out, opts...)
	return append(out, runner.WithMaxRetries(0))
}

func registerCommand[T any](
	adapter *RegistryAdapter,
	cmd gocmd.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	subscription := commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
	if err := adapter.RegisterCommand(cmd); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

// Authenticate dispatches an AuthenticateMessage and returns the stored outcome.
func Authenticate(ctx context.Context, msg command.AuthenticateMessage) (core.Outcome, error) {
	collector := gocmd.NewResult[core.Outcome]()
	err := commanddispatcher.Dispatch(gocmd.ContextWithResult(ctx, collector), msg)
	outcome, ok := collector.Load()
	if !ok && err == nil {
		return core.Outcome{}, fmt.Errorf("gocommand: authenticate produced no outcome")
	}
	return outcome, err
}

// PruneAttempts dispatches a PruneAttemptsMessage and returns the deleted count.
func PruneAttempts(ctx context.Context, policy core.AttemptRetentionPolicy) (int, error) {
	collector := gocmd.NewResult[command.PruneResult]()
	if err := commanddispatcher.Dispatch(gocmd.ContextWithResult(ctx, collector), command.PruneAttemptsMessage{Policy: policy}); err != nil {
		return 0, err
	}
	result, _ := collector.Load()
	return result.Deleted, nil
}

func UserProfile(ctx context.Context, msg query.UserProfileMessage) (core.Profile, error) {
	return commanddispatcher.Query[query.UserProfileMessage, core.Profile](ctx, msg)
}

func ListAttempts(ctx context.Context, filter core.AttemptFilter) (core.AttemptPage, error) {
	return commanddispatcher.Query[query.ListAttemptsMessage, core.AttemptPage](ctx, query.ListAttemptsMessage{Filter: filter})
}

func AttemptStats(ctx context.Context, userID string) (core.AttemptStats, error) {
	return commanddispatcher.Query[query.AttemptStatsMessage, core.AttemptStats](ctx, query.AttemptStatsMessage{UserID: userID})
}
