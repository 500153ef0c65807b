package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-twitter-token/core"
)

type Authenticator interface {
	Authenticate(ctx context.Context, req core.Request) core.Outcome
}

type PruneResult struct {
	Deleted int
}

type AuthenticateCommand struct {
	authenticator Authenticator
}

func NewAuthenticateCommand(authenticator Authenticator) *AuthenticateCommand {
	return &AuthenticateCommand{authenticator: authenticator}
}

// Execute stores the outcome in the result collector. Only error outcomes
// fail the command; a fail outcome is a normal result. Each call reports to
// msg.Reporter, so the command must not be run under a retrying runner.
func (c *AuthenticateCommand) Execute(ctx context.Context, msg AuthenticateMessage) error {
	if c == nil || c.authenticator == nil {
		return core.DependencyError("command: authenticator is required")
	}
	outcome := c.authenticator.Authenticate(ctx, msg.Request)
	storeResult(ctx, outcome)
	if msg.Reporter != nil {
		core.Report(outcome, msg.Reporter)
	}
	if outcome.Kind == core.OutcomeError {
		return outcome.Err
	}
	return nil
}

type PruneAttemptsCommand struct {
	pruner core.AttemptPruner
}

func NewPruneAttemptsCommand(pruner core.AttemptPruner) *PruneAttemptsCommand {
	return &PruneAttemptsCommand{pruner: pruner}
}

func (c *PruneAttemptsCommand) Execute(ctx context.Context, msg PruneAttemptsMessage) error {
	if c == nil || c.pruner == nil {
		return core.DependencyError("command: attempt pruner is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	deleted, err := c.pruner.PruneAttempts(ctx, msg.Policy)
	if err != nil {
		return err
	}
	storeResult(ctx, PruneResult{Deleted: deleted})
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
