package core

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	queryDenied             = "denied"
	maxRequestBodyBytes     = 1 << 20
	legacyFieldPathSplitter = "["
)

// Request is the inbound view the authenticator needs: the parsed body and
// the query string, both keyed by field name.
type Request struct {
	Body  map[string]any
	Query map[string]any
}

func NewRequest(body map[string]any, query map[string]any) Request {
	return Request{Body: body, Query: query}
}

// RequestFromValues flattens url.Values, keeping the first value per key.
func RequestFromValues(body url.Values, query url.Values) Request {
	return Request{Body: flattenValues(body), Query: flattenValues(query)}
}

// RequestFromHTTP reads the query string plus either a JSON or a form body.
func RequestFromHTTP(r *http.Request) (Request, error) {
	if r == nil {
		return Request{}, fmt.Errorf("core: http request is required")
	}
	req := Request{Query: flattenValues(r.URL.Query()), Body: map[string]any{}}
	if r.Body == nil || r.Method == http.MethodGet || r.Method == http.MethodHead {
		return req, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes))
		decoder.UseNumber()
		body := map[string]any{}
		if err := decoder.Decode(&body); err != nil && err != io.EOF {
			return Request{}, fmt.Errorf("core: invalid json request body: %w", err)
		}
		req.Body = body
		return req, nil
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBodyBytes)
	if err := r.ParseForm(); err != nil {
		return Request{}, fmt.Errorf("core: invalid form request body: %w", err)
	}
	req.Body = flattenValues(r.PostForm)
	return req, nil
}

// Denied reports whether the provider redirected back with a denial.
func (r Request) Denied() bool {
	return valueString(r.Query[queryDenied]) != ""
}

// ExtractCredentials reads token, secret, user id and screen name from the
// body first and the query second.
func ExtractCredentials(cfg Config, req Request) Credentials {
	lookup := flatLookup
	if cfg.LegacyFieldPaths {
		lookup = pathLookup
	}
	read := func(field string) string {
		if value := lookup(req.Body, field); value != "" {
			return value
		}
		return lookup(req.Query, field)
	}

	token := read(cfg.OAuthTokenField)
	userID := read(cfg.UserIDField)
	if userID == "" {
		userID = UserIDFromToken(token)
	}
	return Credentials{
		Token:       token,
		TokenSecret: read(cfg.OAuthTokenSecretField),
		UserID:      userID,
		ScreenName:  read(cfg.ScreenNameField),
	}
}

// UserIDFromToken returns the owner segment of a Twitter access token
// (`<user_id>-<random>`). A token without a dash is returned whole.
func UserIDFromToken(token string) string {
	prefix, _, _ := strings.Cut(strings.TrimSpace(token), "-")
	return prefix
}

func flatLookup(values map[string]any, field string) string {
	if len(values) == 0 || field == "" {
		return ""
	}
	return valueString(values[field])
}

// pathLookup resolves bracket paths such as `user[credentials][token]`. A
// non-map value found before the path ends is returned as is.
func pathLookup(values map[string]any, field string) string {
	if len(values) == 0 || field == "" {
		return ""
	}
	chain := strings.Split(strings.ReplaceAll(field, "]", ""), legacyFieldPathSplitter)
	var current any = values
	for _, key := range chain {
		node, ok := current.(map[string]any)
		if !ok {
			return valueString(current)
		}
		next, exists := node[key]
		if !exists || next == nil {
			return ""
		}
		current = next
	}
	return valueString(current)
}

func valueString(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(typed)
	case []byte:
		return strings.TrimSpace(string(typed))
	case []string:
		if len(typed) == 0 {
			return ""
		}
		return strings.TrimSpace(typed[0])
	case []any:
		if len(typed) == 0 {
			return ""
		}
		return valueString(typed[0])
	case json.Number:
		return typed.String()
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case uint64:
		return strconv.FormatUint(typed, 10)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case bool:
		if typed {
			return "true"
		}
		return ""
	case fmt.Stringer:
		return strings.TrimSpace(typed.String())
	default:
		return ""
	}
}

func flattenValues(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for key, items := range values {
		if len(items) == 0 {
			continue
		}
		out[key] = items[0]
	}
	return out
}
