package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"
)

const usersShowPath = "/users/show.json"

// UserProfile loads and normalizes the Twitter profile owned by token. When
// extended profiles are skipped the profile is built from params alone.
func (a *Authenticator) UserProfile(
	ctx context.Context,
	token string,
	tokenSecret string,
	params ProfileParams,
) (profile Profile, err error) {
	if a == nil {
		return Profile{}, configurationError(fmt.Errorf("core: authenticator is nil"))
	}
	if a.config.SkipExtendedProfile {
		return MinimalProfile(params), nil
	}

	startedAt := time.Now().UTC()
	defer func() {
		a.observeProfile(ctx, startedAt, err)
	}()

	profileURL, err := BuildProfileURL(a.config, params)
	if err != nil {
		return Profile{}, profileFetchError(err, a.config.UserProfileURL)
	}
	body, err := a.getter.SignedGet(ctx, profileURL, token, tokenSecret)
	if err != nil {
		return Profile{}, profileFetchError(err, profileURL)
	}
	return ParseProfile(body)
}

// MinimalProfile synthesizes a profile from request supplied identifiers.
func MinimalProfile(params ProfileParams) Profile {
	return Profile{
		Provider: ProviderTwitter,
		ID:       strings.TrimSpace(params.UserID),
		Username: strings.TrimSpace(params.ScreenName),
	}
}

// BuildProfileURL appends the provider query flags to the configured profile
// endpoint according to the profile query mode.
func BuildProfileURL(cfg Config, params ProfileParams) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(cfg.UserProfileURL))
	if err != nil {
		return "", fmt.Errorf("core: invalid user profile url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("core: user profile url %q is invalid", cfg.UserProfileURL)
	}

	usersShow := strings.HasSuffix(parsed.Path, usersShowPath)
	query := parsed.Query()
	if usersShow && strings.TrimSpace(params.UserID) != "" {
		query.Set("user_id", strings.TrimSpace(params.UserID))
	}
	if cfg.ProfileQueryMode != ProfileQueryEndpointMatch || usersShow {
		if cfg.IncludeEmail {
			query.Set("include_email", "true")
		}
		if !cfg.IncludeStatus {
			query.Set("skip_status", "true")
		}
		if !cfg.IncludeEntities {
			query.Set("include_entities", "false")
		}
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// ParseProfile decodes a Twitter user object. Numeric identifiers keep their
// literal digits so ids above 2^53 are not rounded.
func ParseProfile(body []byte) (Profile, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var payload map[string]any
	if err := decoder.Decode(&payload); err != nil {
		return Profile{}, profileParseError(err)
	}
	if _, err := decoder.Token(); err != io.EOF {
		if err == nil {
			err = fmt.Errorf("core: unexpected data after profile object")
		}
		return Profile{}, profileParseError(err)
	}
	if payload == nil {
		return Profile{}, profileParseError(fmt.Errorf("core: profile body is not a JSON object"))
	}
	profile := NormalizeProfile(string(body), payload)
	if profile.ID == "" {
		return Profile{}, profileParseError(fmt.Errorf("core: profile has no id_str or id"))
	}
	return profile, nil
}

func NormalizeProfile(raw string, payload map[string]any) Profile {
	profile := Profile{
		Provider:    ProviderTwitter,
		ID:          profileID(payload),
		Username:    valueString(payload["screen_name"]),
		DisplayName: valueString(payload["name"]),
		Raw:         raw,
		JSON:        payload,
	}
	if profile.DisplayName != "" {
		given, family, _ := strings.Cut(profile.DisplayName, " ")
		profile.Name = &ProfileName{
			GivenName:  given,
			FamilyName: strings.TrimSpace(family),
		}
	}
	if email := valueString(payload["email"]); email != "" {
		profile.Emails = []ProfileValue{{Value: email}}
	}
	if photo := valueString(payload["profile_image_url_https"]); photo != "" {
		profile.Photos = []ProfileValue{{Value: photo}}
	}
	return profile
}

func profileID(payload map[string]any) string {
	if id, ok := payload["id_str"].(string); ok && strings.TrimSpace(id) != "" {
		return strings.TrimSpace(id)
	}
	switch typed := payload["id"].(type) {
	case json.Number:
		return typed.String()
	case string:
		return strings.TrimSpace(typed)
	default:
		return ""
	}
}
