package core

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestExtractCredentials_BodyBeforeQuery(t *testing.T) {
	cfg := testConfig().WithDefaults()
	req := NewRequest(
		map[string]any{"oauth_token": "body-token", "oauth_token_secret": "body-secret"},
		map[string]any{"oauth_token": "query-token", "oauth_token_secret": "query-secret", "screen_name": "jack"},
	)
	creds := ExtractCredentials(cfg, req)
	if creds.Token != "body-token" || creds.TokenSecret != "body-secret" {
		t.Fatalf("expected body credentials, got %#v", creds)
	}
	if creds.ScreenName != "jack" {
		t.Fatalf("expected screen name from query, got %q", creds.ScreenName)
	}
}

func TestExtractCredentials_UserIDFallback(t *testing.T) {
	cfg := testConfig().WithDefaults()

	creds := ExtractCredentials(cfg, NewRequest(map[string]any{"oauth_token": "6253282-eWudHldSbIaelX7swmsiHImEL4KinwaGloHANdrY"}, nil))
	if creds.UserID != "6253282" {
		t.Fatalf("expected user id from token prefix, got %q", creds.UserID)
	}

	creds = ExtractCredentials(cfg, NewRequest(map[string]any{"oauth_token": "6253282-abc", "user_id": "99"}, nil))
	if creds.UserID != "99" {
		t.Fatalf("expected explicit user id, got %q", creds.UserID)
	}

	creds = ExtractCredentials(cfg, NewRequest(map[string]any{"oauth_token": "nodash"}, nil))
	if creds.UserID != "nodash" {
		t.Fatalf("expected whole token as user id without a dash, got %q", creds.UserID)
	}
}

func TestExtractCredentials_LegacyFieldPaths(t *testing.T) {
	cfg := testConfig()
	cfg.OAuthTokenField = "auth[token]"
	cfg.OAuthTokenSecretField = "auth[secret]"
	cfg = cfg.WithDefaults()

	body := map[string]any{"auth": map[string]any{"token": "nested-token", "secret": "nested-secret"}}

	if creds := ExtractCredentials(cfg, NewRequest(body, nil)); creds.Token != "" {
		t.Fatalf("expected flat lookup to ignore nested paths, got %#v", creds)
	}

	cfg.LegacyFieldPaths = true
	creds := ExtractCredentials(cfg, NewRequest(body, nil))
	if creds.Token != "nested-token" || creds.TokenSecret != "nested-secret" {
		t.Fatalf("expected nested credentials, got %#v", creds)
	}

	creds = ExtractCredentials(cfg, NewRequest(map[string]any{"auth": "scalar"}, nil))
	if creds.Token != "scalar" {
		t.Fatalf("expected scalar reached mid path to be returned, got %q", creds.Token)
	}
}

func TestExtractCredentials_ValueShapes(t *testing.T) {
	cfg := testConfig().WithDefaults()
	req := NewRequest(map[string]any{
		"oauth_token":        []string{"first", "second"},
		"oauth_token_secret": []any{"secret"},
		"user_id":            json.Number("9007199254740993"),
		"screen_name":        "  padded  ",
	}, nil)
	creds := ExtractCredentials(cfg, req)
	if creds.Token != "first" || creds.TokenSecret != "secret" {
		t.Fatalf("unexpected credentials: %#v", creds)
	}
	if creds.UserID != "9007199254740993" {
		t.Fatalf("unexpected user id %q", creds.UserID)
	}
	if creds.ScreenName != "padded" {
		t.Fatalf("expected trimmed screen name, got %q", creds.ScreenName)
	}
}

func TestRequestDenied(t *testing.T) {
	if NewRequest(nil, nil).Denied() {
		t.Fatalf("empty request should not be denied")
	}
	if NewRequest(nil, map[string]any{"denied": ""}).Denied() {
		t.Fatalf("empty denied value should not count")
	}
	if !NewRequest(nil, map[string]any{"denied": "abc"}).Denied() {
		t.Fatalf("expected denied request")
	}
	if NewRequest(map[string]any{"denied": "abc"}, nil).Denied() {
		t.Fatalf("denied is read from the query only")
	}
}

func TestRequestFromValues(t *testing.T) {
	req := RequestFromValues(
		url.Values{"oauth_token": {"a", "b"}, "empty": {}},
		url.Values{"denied": {"x"}},
	)
	if req.Body["oauth_token"] != "a" {
		t.Fatalf("expected first value, got %#v", req.Body["oauth_token"])
	}
	if _, ok := req.Body["empty"]; ok {
		t.Fatalf("expected empty values to be dropped")
	}
	if !req.Denied() {
		t.Fatalf("expected denied from query values")
	}
}

func TestRequestFromHTTP(t *testing.T) {
	t.Run("form body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/auth/twitter/token?screen_name=jack", strings.NewReader("oauth_token=t&oauth_token_secret=s"))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req, err := RequestFromHTTP(r)
		if err != nil {
			t.Fatalf("request from http: %v", err)
		}
		creds := ExtractCredentials(testConfig().WithDefaults(), req)
		if creds.Token != "t" || creds.TokenSecret != "s" || creds.ScreenName != "jack" {
			t.Fatalf("unexpected credentials: %#v", creds)
		}
	})

	t.Run("json body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/auth/twitter/token", strings.NewReader(`{"oauth_token":"t","oauth_token_secret":"s","user_id":1234567890123456789}`))
		r.Header.Set("Content-Type", "application/json; charset=utf-8")
		req, err := RequestFromHTTP(r)
		if err != nil {
			t.Fatalf("request from http: %v", err)
		}
		creds := ExtractCredentials(testConfig().WithDefaults(), req)
		if creds.Token != "t" || creds.UserID != "1234567890123456789" {
			t.Fatalf("unexpected credentials: %#v", creds)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/auth/twitter/token", strings.NewReader(`{"oauth_token":`))
		r.Header.Set("Content-Type", "application/json")
		if _, err := RequestFromHTTP(r); err == nil {
			t.Fatalf("expected error for malformed json")
		}
	})

	t.Run("get uses query only", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/auth/twitter/token?oauth_token=q&denied=1", nil)
		req, err := RequestFromHTTP(r)
		if err != nil {
			t.Fatalf("request from http: %v", err)
		}
		if len(req.Body) != 0 || req.Query["oauth_token"] != "q" || !req.Denied() {
			t.Fatalf("unexpected request: %#v", req)
		}
	})

	t.Run("nil request", func(t *testing.T) {
		if _, err := RequestFromHTTP(nil); err == nil {
			t.Fatalf("expected error for nil request")
		}
	})
}
