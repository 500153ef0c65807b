package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

const loggerName = "twitter_token"

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type authenticatorBuilder struct {
	runtimeConfig   Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	getter          SignedGetter
	getterFactory   SignedGetterFactory
	attemptRecorder AttemptRecorder
	now             func() time.Time
}

type Option func(*authenticatorBuilder)

func WithLogger(logger Logger) Option {
	return func(b *authenticatorBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *authenticatorBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *authenticatorBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *authenticatorBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *authenticatorBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *authenticatorBuilder) {
		b.optionsResolver = resolver
	}
}

// WithSignedGetter sets the OAuth transport used for profile requests.
func WithSignedGetter(getter SignedGetter) Option {
	return func(b *authenticatorBuilder) {
		b.getter = getter
	}
}

// WithSignedGetterFactory is consulted when no getter was set explicitly.
func WithSignedGetterFactory(factory SignedGetterFactory) Option {
	return func(b *authenticatorBuilder) {
		b.getterFactory = factory
	}
}

func WithAttemptRecorder(recorder AttemptRecorder) Option {
	return func(b *authenticatorBuilder) {
		b.attemptRecorder = recorder
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *authenticatorBuilder) {
		b.now = now
	}
}

func defaultAuthenticatorBuilder(runtime Config) authenticatorBuilder {
	loggerProvider, logger := glog.Resolve(loggerName, nil, nil)
	return authenticatorBuilder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: NopMetricsRecorder{},
		errorMapper:     defaultErrorMapper,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
		now:             func() time.Time { return time.Now().UTC() },
	}
}

type StaticConfigLoader struct {
	Values map[string]any
}

func (l StaticConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

// Load builds the file/env layer. Validation waits for the merged config
// because consumer credentials may come from the runtime layer.
func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = StaticConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	return cfgx.Build[Config](raw, cfgx.WithDefaults(defaults))
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			configToLayerMap(defaults, true),
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			configToLayerMap(loaded, false),
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			configToLayerMap(runtime, false),
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return resolved.WithDefaults(), nil
}

// configToLayerMap only emits set values for non default layers. Every boolean
// defaults to false, so false never needs to override a lower layer.
func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	setString := func(key string, value string) {
		if includeZero || strings.TrimSpace(value) != "" {
			layer[key] = strings.TrimSpace(value)
		}
	}
	setBool := func(key string, value bool) {
		if includeZero || value {
			layer[key] = value
		}
	}

	setString("consumer_key", cfg.ConsumerKey)
	setString("consumer_secret", cfg.ConsumerSecret)
	setString("request_token_url", cfg.RequestTokenURL)
	setString("access_token_url", cfg.AccessTokenURL)
	setString("user_authorization_url", cfg.UserAuthorizationURL)
	setString("user_profile_url", cfg.UserProfileURL)
	setString("oauth_token_field", cfg.OAuthTokenField)
	setString("oauth_token_secret_field", cfg.OAuthTokenSecretField)
	setString("user_id_field", cfg.UserIDField)
	setString("screen_name_field", cfg.ScreenNameField)
	setString("profile_query_mode", string(cfg.ProfileQueryMode))
	setBool("include_email", cfg.IncludeEmail)
	setBool("include_status", cfg.IncludeStatus)
	setBool("include_entities", cfg.IncludeEntities)
	setBool("skip_extended_profile", cfg.SkipExtendedProfile)
	setBool("pass_request_to_callback", cfg.PassRequestToCallback)
	setBool("legacy_field_paths", cfg.LegacyFieldPaths)
	return layer
}
