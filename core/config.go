package core

import (
	"fmt"
	"net/url"
	"strings"
)

const ProviderTwitter = "twitter"

const (
	DefaultRequestTokenURL      = "https://api.twitter.com/oauth/request_token"
	DefaultAccessTokenURL       = "https://api.twitter.com/oauth/access_token"
	DefaultUserAuthorizationURL = "https://api.twitter.com/oauth/authenticate"
	DefaultUserProfileURL       = "https://api.twitter.com/1.1/account/verify_credentials.json"

	DefaultOAuthTokenField       = "oauth_token"
	DefaultOAuthTokenSecretField = "oauth_token_secret"
	DefaultUserIDField           = "user_id"
	DefaultScreenNameField       = "screen_name"
)

// ProfileQueryMode controls when the provider specific query flags are
// appended to the profile endpoint.
type ProfileQueryMode string

const (
	// ProfileQueryAlways appends the email/status/entities flags to any
	// configured profile endpoint.
	ProfileQueryAlways ProfileQueryMode = "always"
	// ProfileQueryEndpointMatch only appends them when the endpoint is the
	// users/show.json lookup.
	ProfileQueryEndpointMatch ProfileQueryMode = "endpoint_match"
)

// Config configures the authenticator. Every boolean is opt-in and defaults
// to false, so profile requests send skip_status=true and
// include_entities=false unless IncludeStatus or IncludeEntities is set.
type Config struct {
	ConsumerKey           string           `koanf:"consumer_key" mapstructure:"consumer_key"`
	ConsumerSecret        string           `koanf:"consumer_secret" mapstructure:"consumer_secret"`
	RequestTokenURL       string           `koanf:"request_token_url" mapstructure:"request_token_url"`
	AccessTokenURL        string           `koanf:"access_token_url" mapstructure:"access_token_url"`
	UserAuthorizationURL  string           `koanf:"user_authorization_url" mapstructure:"user_authorization_url"`
	UserProfileURL        string           `koanf:"user_profile_url" mapstructure:"user_profile_url"`
	OAuthTokenField       string           `koanf:"oauth_token_field" mapstructure:"oauth_token_field"`
	OAuthTokenSecretField string           `koanf:"oauth_token_secret_field" mapstructure:"oauth_token_secret_field"`
	UserIDField           string           `koanf:"user_id_field" mapstructure:"user_id_field"`
	ScreenNameField       string           `koanf:"screen_name_field" mapstructure:"screen_name_field"`
	IncludeEmail          bool             `koanf:"include_email" mapstructure:"include_email"`
	IncludeStatus         bool             `koanf:"include_status" mapstructure:"include_status"`
	IncludeEntities       bool             `koanf:"include_entities" mapstructure:"include_entities"`
	SkipExtendedProfile   bool             `koanf:"skip_extended_profile" mapstructure:"skip_extended_profile"`
	PassRequestToCallback bool             `koanf:"pass_request_to_callback" mapstructure:"pass_request_to_callback"`
	LegacyFieldPaths      bool             `koanf:"legacy_field_paths" mapstructure:"legacy_field_paths"`
	ProfileQueryMode      ProfileQueryMode `koanf:"profile_query_mode" mapstructure:"profile_query_mode"`
}

func DefaultConfig() Config {
	return Config{
		RequestTokenURL:       DefaultRequestTokenURL,
		AccessTokenURL:        DefaultAccessTokenURL,
		UserAuthorizationURL:  DefaultUserAuthorizationURL,
		UserProfileURL:        DefaultUserProfileURL,
		OAuthTokenField:       DefaultOAuthTokenField,
		OAuthTokenSecretField: DefaultOAuthTokenSecretField,
		UserIDField:           DefaultUserIDField,
		ScreenNameField:       DefaultScreenNameField,
		ProfileQueryMode:      ProfileQueryAlways,
	}
}

// WithDefaults fills every unset URL, field name and mode.
func (c Config) WithDefaults() Config {
	defaults := DefaultConfig()
	out := c
	out.ConsumerKey = strings.TrimSpace(c.ConsumerKey)
	out.ConsumerSecret = strings.TrimSpace(c.ConsumerSecret)
	out.RequestTokenURL = firstNonEmpty(c.RequestTokenURL, defaults.RequestTokenURL)
	out.AccessTokenURL = firstNonEmpty(c.AccessTokenURL, defaults.AccessTokenURL)
	out.UserAuthorizationURL = firstNonEmpty(c.UserAuthorizationURL, defaults.UserAuthorizationURL)
	out.UserProfileURL = firstNonEmpty(c.UserProfileURL, defaults.UserProfileURL)
	out.OAuthTokenField = firstNonEmpty(c.OAuthTokenField, defaults.OAuthTokenField)
	out.OAuthTokenSecretField = firstNonEmpty(c.OAuthTokenSecretField, defaults.OAuthTokenSecretField)
	out.UserIDField = firstNonEmpty(c.UserIDField, defaults.UserIDField)
	out.ScreenNameField = firstNonEmpty(c.ScreenNameField, defaults.ScreenNameField)
	out.ProfileQueryMode = ProfileQueryMode(strings.ToLower(firstNonEmpty(
		string(c.ProfileQueryMode),
		string(defaults.ProfileQueryMode),
	)))
	return out
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ConsumerKey) == "" {
		return fmt.Errorf("core: consumer_key is required")
	}
	if strings.TrimSpace(c.ConsumerSecret) == "" {
		return fmt.Errorf("core: consumer_secret is required")
	}
	switch c.ProfileQueryMode {
	case "", ProfileQueryAlways, ProfileQueryEndpointMatch:
	default:
		return fmt.Errorf("core: profile_query_mode %q is invalid", c.ProfileQueryMode)
	}
	for name, raw := range map[string]string{
		"request_token_url":      c.RequestTokenURL,
		"access_token_url":       c.AccessTokenURL,
		"user_authorization_url": c.UserAuthorizationURL,
		"user_profile_url":       c.UserProfileURL,
	} {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		parsed, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("core: %s %q is invalid", name, raw)
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
