package core

import (
	"context"
	"fmt"
	"reflect"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Authenticator validates a pre-obtained Twitter access token pair. It only
// holds configuration and collaborators, so one instance serves concurrent
// attempts.
type Authenticator struct {
	config          Config
	verify          VerifyFunc
	getter          SignedGetter
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorMapper     ErrorMapper
	attemptRecorder AttemptRecorder
	now             func() time.Time
}

func NewAuthenticator(cfg Config, verify VerifyFunc, opts ...Option) (*Authenticator, error) {
	builder := defaultAuthenticatorBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve(loggerName, builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger(loggerName); named != nil {
			logger = glog.Ensure(named)
		}
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.now == nil {
		builder.now = func() time.Time { return time.Now().UTC() }
	}

	if verify == nil {
		return nil, configurationError(fmt.Errorf("core: verify callback is required"))
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, configurationError(err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, configurationError(err)
	}
	finalConfig = finalConfig.WithDefaults()
	if err := finalConfig.Validate(); err != nil {
		return nil, configurationError(err)
	}

	getter := builder.getter
	if getter == nil && builder.getterFactory != nil {
		getter, err = builder.getterFactory(finalConfig)
		if err != nil {
			return nil, configurationError(err)
		}
	}
	if getter == nil && !finalConfig.SkipExtendedProfile {
		return nil, configurationError(fmt.Errorf("core: signed getter is required for extended profiles"))
	}

	return &Authenticator{
		config:          finalConfig,
		verify:          verify,
		getter:          getter,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorMapper:     builder.errorMapper,
		attemptRecorder: builder.attemptRecorder,
		now:             builder.now,
	}, nil
}

func (a *Authenticator) Name() string { return ProviderTwitter }

func (a *Authenticator) Config() Config {
	if a == nil {
		return Config{}
	}
	return a.config
}

// Authenticate runs one attempt and returns its single terminal outcome.
func (a *Authenticator) Authenticate(ctx context.Context, req Request) Outcome {
	if a == nil {
		return Errored(configurationError(fmt.Errorf("core: authenticator is nil")))
	}
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := a.now()

	trace := &attemptTrace{}
	outcome := a.authenticate(ctx, req, trace)
	if outcome.Kind == OutcomeError {
		outcome.Err = a.mapError(outcome.Err)
	}

	a.observeAttempt(ctx, startedAt, outcome, trace)
	return outcome
}

// AuthenticateAndReport forwards the outcome to exactly one reporter method.
func (a *Authenticator) AuthenticateAndReport(ctx context.Context, req Request, reporter Reporter) Outcome {
	outcome := a.Authenticate(ctx, req)
	Report(outcome, reporter)
	return outcome
}

// attemptTrace carries what an attempt learned, for observation only.
type attemptTrace struct {
	denied  bool
	creds   Credentials
	profile Profile
}

func (a *Authenticator) authenticate(ctx context.Context, req Request, trace *attemptTrace) Outcome {
	if req.Denied() {
		trace.denied = true
		return Fail(nil)
	}

	trace.creds = ExtractCredentials(a.config, req)
	creds := trace.creds
	if creds.Token == "" {
		return Failure(
			Info{"message": MissingCredentialsMessage(a.config.OAuthTokenField, a.config.OAuthTokenSecretField)},
			missingCredentialsError(a.config.OAuthTokenField, a.config.OAuthTokenSecretField),
		)
	}

	loaded, err := a.UserProfile(ctx, creds.Token, creds.TokenSecret, ProfileParams{
		UserID:     creds.UserID,
		ScreenName: creds.ScreenName,
	})
	if err != nil {
		return Errored(err)
	}
	trace.profile = loaded

	params := VerifyParams{
		Token:       creds.Token,
		TokenSecret: creds.TokenSecret,
		Profile:     loaded,
	}
	if a.config.PassRequestToCallback {
		forwarded := req
		params.Request = &forwarded
	}

	user, info, err := a.verify(ctx, params)
	switch {
	case err != nil:
		return Errored(verifyError(err))
	case isNilUser(user):
		return Fail(info)
	default:
		return Success(user, info)
	}
}

// Report invokes the reporter method matching the outcome kind.
func Report(outcome Outcome, reporter Reporter) {
	if reporter == nil {
		return
	}
	switch outcome.Kind {
	case OutcomeSuccess:
		reporter.Success(outcome.User, outcome.Info)
	case OutcomeFail:
		reporter.Fail(outcome.Info)
	default:
		err := outcome.Err
		if err == nil {
			err = fmt.Errorf("core: authentication attempt ended without outcome")
		}
		reporter.Error(err)
	}
}

func (a *Authenticator) mapError(err error) error {
	if err == nil || a.errorMapper == nil {
		return err
	}
	if mapped := a.errorMapper(err); mapped != nil {
		return mapped
	}
	return err
}

func isNilUser(user any) bool {
	if user == nil {
		return true
	}
	switch typed := user.(type) {
	case bool:
		return !typed
	case string:
		return typed == ""
	}
	value := reflect.ValueOf(user)
	switch value.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func:
		return value.IsNil()
	}
	return false
}
