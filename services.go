package twittertoken

import (
	"github.com/goliatone/go-twitter-token/core"
	"github.com/goliatone/go-twitter-token/oauth1"
	"github.com/goliatone/go-twitter-token/transport"
)

type Config = core.Config

type Option = core.Option

type Authenticator = core.Authenticator

type Request = core.Request
type Outcome = core.Outcome
type OutcomeKind = core.OutcomeKind
type Info = core.Info
type Reporter = core.Reporter
type Profile = core.Profile
type VerifyFunc = core.VerifyFunc
type VerifyParams = core.VerifyParams
type Credentials = core.Credentials

type Attempt = core.Attempt
type AttemptFilter = core.AttemptFilter
type AttemptPage = core.AttemptPage
type AttemptStats = core.AttemptStats
type AttemptRetentionPolicy = core.AttemptRetentionPolicy

const (
	OutcomeSuccess = core.OutcomeSuccess
	OutcomeFail    = core.OutcomeFail
	OutcomeError   = core.OutcomeError
)

var (
	WithLogger              = core.WithLogger
	WithLoggerProvider      = core.WithLoggerProvider
	WithMetricsRecorder     = core.WithMetricsRecorder
	WithErrorMapper         = core.WithErrorMapper
	WithConfigProvider      = core.WithConfigProvider
	WithOptionsResolver     = core.WithOptionsResolver
	WithSignedGetter        = core.WithSignedGetter
	WithSignedGetterFactory = core.WithSignedGetterFactory
	WithAttemptRecorder     = core.WithAttemptRecorder
	WithClock               = core.WithClock

	NewRequest        = core.NewRequest
	RequestFromValues = core.RequestFromValues
	RequestFromHTTP   = core.RequestFromHTTP
	Report            = core.Report
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// New builds an authenticator that signs profile requests with OAuth 1.0a
// over a default net/http transport. A WithSignedGetter or
// WithSignedGetterFactory option replaces that wiring.
func New(cfg Config, verify VerifyFunc, opts ...Option) (*Authenticator, error) {
	defaults := []Option{
		core.WithSignedGetterFactory(oauth1.NewSignedGetterFactory(transport.NewHTTPAdapter(nil))),
	}
	return core.NewAuthenticator(cfg, verify, append(defaults, opts...)...)
}
