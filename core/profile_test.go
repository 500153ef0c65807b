package core

import (
	"context"
	"errors"
	"net/url"
	"testing"
)

func TestBuildProfileURL(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(cfg *Config)
		params ProfileParams
		want   string
	}{
		{
			name: "default verify credentials",
			want: DefaultUserProfileURL + "?include_entities=false&skip_status=true",
		},
		{
			name: "include email status and entities",
			mutate: func(cfg *Config) {
				cfg.IncludeEmail = true
				cfg.IncludeStatus = true
				cfg.IncludeEntities = true
			},
			want: DefaultUserProfileURL + "?include_email=true",
		},
		{
			name: "users show adds user id",
			mutate: func(cfg *Config) {
				cfg.UserProfileURL = "https://api.twitter.com/1.1/users/show.json"
			},
			params: ProfileParams{UserID: "42"},
			want:   "https://api.twitter.com/1.1/users/show.json?include_entities=false&skip_status=true&user_id=42",
		},
		{
			name: "user id ignored for verify credentials",
			params: ProfileParams{UserID: "42"},
			want:   DefaultUserProfileURL + "?include_entities=false&skip_status=true",
		},
		{
			name: "endpoint match skips flags for verify credentials",
			mutate: func(cfg *Config) {
				cfg.ProfileQueryMode = ProfileQueryEndpointMatch
				cfg.IncludeEmail = true
			},
			want: DefaultUserProfileURL,
		},
		{
			name: "endpoint match keeps flags for users show",
			mutate: func(cfg *Config) {
				cfg.ProfileQueryMode = ProfileQueryEndpointMatch
				cfg.UserProfileURL = "https://api.twitter.com/1.1/users/show.json"
			},
			params: ProfileParams{UserID: "7"},
			want:   "https://api.twitter.com/1.1/users/show.json?include_entities=false&skip_status=true&user_id=7",
		},
		{
			name: "users show must end the path",
			mutate: func(cfg *Config) {
				cfg.ProfileQueryMode = ProfileQueryEndpointMatch
				cfg.UserProfileURL = "https://api.twitter.com/1.1/users/show.json/preview"
			},
			params: ProfileParams{UserID: "7"},
			want:   "https://api.twitter.com/1.1/users/show.json/preview",
		},
		{
			name: "users show needs a path separator",
			mutate: func(cfg *Config) {
				cfg.UserProfileURL = "https://example.com/lookupusers/show.json"
			},
			params: ProfileParams{UserID: "7"},
			want:   "https://example.com/lookupusers/show.json?include_entities=false&skip_status=true",
		},
		{
			name: "existing query is preserved",
			mutate: func(cfg *Config) {
				cfg.UserProfileURL = DefaultUserProfileURL + "?tweet_mode=extended"
				cfg.IncludeStatus = true
				cfg.IncludeEntities = true
			},
			want: DefaultUserProfileURL + "?tweet_mode=extended",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig().WithDefaults()
			if tc.mutate != nil {
				tc.mutate(&cfg)
			}
			got, err := BuildProfileURL(cfg, tc.params)
			if err != nil {
				t.Fatalf("build profile url: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestBuildProfileURL_RejectsRelativeURL(t *testing.T) {
	cfg := testConfig().WithDefaults()
	cfg.UserProfileURL = "/1.1/account/verify_credentials.json"
	if _, err := BuildProfileURL(cfg, ProfileParams{}); err == nil {
		t.Fatalf("expected error for relative profile url")
	}
}

func TestParseProfile_Normalizes(t *testing.T) {
	body := `{"id":12345,"id_str":"12345","screen_name":"jack","name":"Jack Patrick Dorsey","email":"jack@example.com","profile_image_url_https":"https://pbs.twimg.com/jack.png"}`
	profile, err := ParseProfile([]byte(body))
	if err != nil {
		t.Fatalf("parse profile: %v", err)
	}
	if profile.ID != "12345" || profile.Username != "jack" || profile.DisplayName != "Jack Patrick Dorsey" {
		t.Fatalf("unexpected profile: %#v", profile)
	}
	if profile.Name == nil || profile.Name.GivenName != "Jack" || profile.Name.FamilyName != "Patrick Dorsey" {
		t.Fatalf("unexpected name: %#v", profile.Name)
	}
	if len(profile.Emails) != 1 || profile.Emails[0].Value != "jack@example.com" {
		t.Fatalf("unexpected emails: %#v", profile.Emails)
	}
	if len(profile.Photos) != 1 || profile.Photos[0].Value != "https://pbs.twimg.com/jack.png" {
		t.Fatalf("unexpected photos: %#v", profile.Photos)
	}
	if profile.Raw != body {
		t.Fatalf("expected raw body to be retained")
	}
	if profile.JSON["screen_name"] != "jack" {
		t.Fatalf("expected decoded payload to be retained")
	}
}

func TestParseProfile_OptionalFieldsAbsent(t *testing.T) {
	profile, err := ParseProfile([]byte(`{"id_str":"9","screen_name":"nobody"}`))
	if err != nil {
		t.Fatalf("parse profile: %v", err)
	}
	if profile.Name != nil {
		t.Fatalf("expected no name without display name, got %#v", profile.Name)
	}
	if profile.Emails != nil || profile.Photos != nil {
		t.Fatalf("expected no emails or photos, got %#v %#v", profile.Emails, profile.Photos)
	}
}

func TestParseProfile_KeepsLargeNumericIDExact(t *testing.T) {
	profile, err := ParseProfile([]byte(`{"id":9007199254740993,"screen_name":"big"}`))
	if err != nil {
		t.Fatalf("parse profile: %v", err)
	}
	if profile.ID != "9007199254740993" {
		t.Fatalf("expected exact id, got %q", profile.ID)
	}
}

func TestParseProfile_PrefersIDStr(t *testing.T) {
	profile, err := ParseProfile([]byte(`{"id":1,"id_str":"1000000000000000001"}`))
	if err != nil {
		t.Fatalf("parse profile: %v", err)
	}
	if profile.ID != "1000000000000000001" {
		t.Fatalf("expected id_str, got %q", profile.ID)
	}
}

func TestParseProfile_InvalidBodies(t *testing.T) {
	for _, body := range []string{"", "not json", "[1,2]", `{"id":"1"} trailing`, "null", "{}", `{"screen_name":"anonymous"}`, `{"id_str":"  "}`} {
		_, err := ParseProfile([]byte(body))
		if !IsProfileParseError(err) {
			t.Fatalf("body %q: expected parse error, got %v", body, err)
		}
		if TextCode(err) != ErrorProfileParseFailed {
			t.Fatalf("body %q: unexpected text code %q", body, TextCode(err))
		}
	}
}

func TestUserProfile_SendsBuiltURL(t *testing.T) {
	getter := &stubGetter{body: []byte(ghaiklorProfileJSON)}
	cfg := testConfig()
	cfg.UserProfileURL = "https://api.twitter.com/1.1/users/show.json"
	auth, err := newTestAuthenticator(cfg, getter, nil)
	if err != nil {
		t.Fatalf("new authenticator: %v", err)
	}

	profile, err := auth.UserProfile(context.Background(), "1234-abc", "secret", ProfileParams{UserID: "1234"})
	if err != nil {
		t.Fatalf("user profile: %v", err)
	}
	if profile.Username != "ghaiklor" {
		t.Fatalf("unexpected profile: %#v", profile)
	}
	parsed, err := url.Parse(getter.Calls()[0].url)
	if err != nil {
		t.Fatalf("parse requested url: %v", err)
	}
	if parsed.Query().Get("user_id") != "1234" {
		t.Fatalf("expected user_id query, got %q", parsed.RawQuery)
	}
}

func TestUserProfile_FetchErrorKeepsCause(t *testing.T) {
	cause := errors.New("tls handshake timeout")
	auth, err := newTestAuthenticator(testConfig(), &stubGetter{err: cause}, nil)
	if err != nil {
		t.Fatalf("new authenticator: %v", err)
	}
	_, err = auth.UserProfile(context.Background(), "token", "secret", ProfileParams{})
	if !IsProfileFetchError(err) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be retained, got %v", err)
	}
}

func TestUserProfile_RecordsProfileMetric(t *testing.T) {
	metrics := newCapturingMetrics()
	auth, err := newTestAuthenticator(testConfig(), &stubGetter{body: []byte("{")}, nil, WithMetricsRecorder(metrics))
	if err != nil {
		t.Fatalf("new authenticator: %v", err)
	}
	_, _ = auth.UserProfile(context.Background(), "token", "secret", ProfileParams{})
	if metrics.counters[metricUserProfileTotal] != 1 {
		t.Fatalf("expected profile counter, got %#v", metrics.counters)
	}
	if metrics.tags[metricUserProfileTotal]["status"] != "failure" {
		t.Fatalf("unexpected tags: %#v", metrics.tags[metricUserProfileTotal])
	}
}
