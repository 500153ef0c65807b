package core

import (
	"context"
	"errors"
	"testing"
)

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{ConsumerKey: " key ", ConsumerSecret: "secret", ProfileQueryMode: "ENDPOINT_MATCH"}.WithDefaults()
	if cfg.ConsumerKey != "key" {
		t.Fatalf("expected trimmed consumer key, got %q", cfg.ConsumerKey)
	}
	if cfg.UserProfileURL != DefaultUserProfileURL || cfg.RequestTokenURL != DefaultRequestTokenURL {
		t.Fatalf("expected default urls, got %#v", cfg)
	}
	if cfg.OAuthTokenField != DefaultOAuthTokenField || cfg.OAuthTokenSecretField != DefaultOAuthTokenSecretField {
		t.Fatalf("expected default field names, got %#v", cfg)
	}
	if cfg.ProfileQueryMode != ProfileQueryEndpointMatch {
		t.Fatalf("expected normalized mode, got %q", cfg.ProfileQueryMode)
	}
	if cfg.IncludeEmail || cfg.IncludeStatus || cfg.IncludeEntities || cfg.SkipExtendedProfile {
		t.Fatalf("expected boolean flags to default to false")
	}
}

func TestConfigValidate(t *testing.T) {
	cases := map[string]Config{
		"missing key":    {ConsumerSecret: "s"},
		"missing secret": {ConsumerKey: "k"},
		"bad mode":       {ConsumerKey: "k", ConsumerSecret: "s", ProfileQueryMode: "sometimes"},
		"relative url":   {ConsumerKey: "k", ConsumerSecret: "s", UserProfileURL: "/verify_credentials.json"},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
	if err := testConfig().WithDefaults().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestNewAuthenticator_ConfigurationErrors(t *testing.T) {
	getter := &stubGetter{}

	if _, err := NewAuthenticator(testConfig(), nil, WithSignedGetter(getter)); !IsConfigurationError(err) {
		t.Fatalf("expected configuration error for missing verify, got %v", err)
	}
	if _, err := NewAuthenticator(Config{}, echoProfileVerify, WithSignedGetter(getter)); !IsConfigurationError(err) {
		t.Fatalf("expected configuration error for missing consumer key, got %v", err)
	}
	if _, err := NewAuthenticator(testConfig(), echoProfileVerify); !IsConfigurationError(err) {
		t.Fatalf("expected configuration error for missing signed getter, got %v", err)
	}

	factoryErr := errors.New("no http client")
	_, err := NewAuthenticator(testConfig(), echoProfileVerify, WithSignedGetterFactory(func(Config) (SignedGetter, error) {
		return nil, factoryErr
	}))
	if !IsConfigurationError(err) || !errors.Is(err, factoryErr) {
		t.Fatalf("expected wrapped factory error, got %v", err)
	}
}

func TestNewAuthenticator_LayeredConfig(t *testing.T) {
	provider := NewCfgxConfigProvider(StaticConfigLoader{Values: map[string]any{
		"consumer_key":       "file-key",
		"consumer_secret":    "file-secret",
		"user_profile_url":   "https://api.twitter.com/1.1/users/show.json",
		"include_email":      true,
		"profile_query_mode": "endpoint_match",
	}})

	runtime := Config{ConsumerKey: "runtime-key"}
	auth, err := NewAuthenticator(runtime, echoProfileVerify,
		WithSignedGetter(&stubGetter{}),
		WithConfigProvider(provider),
	)
	if err != nil {
		t.Fatalf("new authenticator: %v", err)
	}
	cfg := auth.Config()
	if cfg.ConsumerKey != "runtime-key" {
		t.Fatalf("expected runtime key to win, got %q", cfg.ConsumerKey)
	}
	if cfg.ConsumerSecret != "file-secret" {
		t.Fatalf("expected file secret, got %q", cfg.ConsumerSecret)
	}
	if cfg.UserProfileURL != "https://api.twitter.com/1.1/users/show.json" || !cfg.IncludeEmail {
		t.Fatalf("expected file layer values, got %#v", cfg)
	}
	if cfg.ProfileQueryMode != ProfileQueryEndpointMatch {
		t.Fatalf("expected endpoint match mode, got %q", cfg.ProfileQueryMode)
	}
	if cfg.OAuthTokenField != DefaultOAuthTokenField {
		t.Fatalf("expected defaults to fill unset fields, got %q", cfg.OAuthTokenField)
	}
}

type failingLoader struct{ err error }

func (l failingLoader) LoadRaw(context.Context) (map[string]any, error) { return nil, l.err }

func TestNewAuthenticator_ConfigLoaderFailure(t *testing.T) {
	loadErr := errors.New("config file unreadable")
	_, err := NewAuthenticator(testConfig(), echoProfileVerify,
		WithSignedGetter(&stubGetter{}),
		WithConfigProvider(NewCfgxConfigProvider(failingLoader{err: loadErr})),
	)
	if !IsConfigurationError(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNewAuthenticator_UsesNamedLogger(t *testing.T) {
	logger := &capturingLogger{}
	auth, err := NewAuthenticator(testConfig(), echoProfileVerify,
		WithSignedGetter(&stubGetter{body: []byte(ghaiklorProfileJSON)}),
		WithLoggerProvider(capturingLoggerProvider{logger: logger}),
	)
	if err != nil {
		t.Fatalf("new authenticator: %v", err)
	}
	auth.Authenticate(context.Background(), NewRequest(nil, nil))
	calls := logger.Calls()
	if len(calls) == 0 || calls[len(calls)-1].level != "warn" {
		t.Fatalf("expected warn log for rejected attempt, got %#v", calls)
	}
}

func TestUserIDFromToken(t *testing.T) {
	cases := map[string]string{
		"12-abc":     "12",
		"12-abc-def": "12",
		"abc":        "abc",
		"":           "",
		" 7-x ":      "7",
	}
	for token, want := range cases {
		if got := UserIDFromToken(token); got != want {
			t.Fatalf("token %q: expected %q, got %q", token, want, got)
		}
	}
}
