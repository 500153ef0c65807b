package twittertoken

import (
	"fmt"

	"github.com/goliatone/go-twitter-token/command"
	"github.com/goliatone/go-twitter-token/core"
	"github.com/goliatone/go-twitter-token/query"
)

type Commands struct {
	Authenticate  *command.AuthenticateCommand
	PruneAttempts *command.PruneAttemptsCommand
}

type Queries struct {
	UserProfile  *query.UserProfileQuery
	ListAttempts *query.ListAttemptsQuery
	AttemptStats *query.AttemptStatsQuery
}

// Facade exposes an authenticator and an optional attempt ledger as
// go-command handlers. Ledger handlers are nil when no ledger is set.
type Facade struct {
	authenticator *core.Authenticator
	commands      Commands
	queries       Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	ledger any
	stats  core.AttemptStatsReader
}

// WithAttemptLedger wires whichever of core.AttemptPruner, core.AttemptReader
// and core.AttemptStatsReader ledger implements.
func WithAttemptLedger(ledger any) FacadeOption {
	return func(options *facadeOptions) {
		options.ledger = ledger
	}
}

// WithAttemptStatsReader overrides the ledger's stats reader, e.g. with a
// cached one.
func WithAttemptStatsReader(reader core.AttemptStatsReader) FacadeOption {
	return func(options *facadeOptions) {
		options.stats = reader
	}
}

func NewFacade(authenticator *core.Authenticator, opts ...FacadeOption) (*Facade, error) {
	if authenticator == nil {
		return nil, fmt.Errorf("twittertoken: authenticator is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	facade := &Facade{authenticator: authenticator}
	facade.commands.Authenticate = command.NewAuthenticateCommand(authenticator)
	facade.queries.UserProfile = query.NewUserProfileQuery(authenticator)

	if pruner, ok := cfg.ledger.(core.AttemptPruner); ok {
		facade.commands.PruneAttempts = command.NewPruneAttemptsCommand(pruner)
	}
	if reader, ok := cfg.ledger.(core.AttemptReader); ok {
		facade.queries.ListAttempts = query.NewListAttemptsQuery(reader)
	}
	stats := cfg.stats
	if stats == nil {
		stats, _ = cfg.ledger.(core.AttemptStatsReader)
	}
	if stats != nil {
		facade.queries.AttemptStats = query.NewAttemptStatsQuery(stats)
	}
	return facade, nil
}

func (f *Facade) Authenticator() *core.Authenticator {
	if f == nil {
		return nil
	}
	return f.authenticator
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}
