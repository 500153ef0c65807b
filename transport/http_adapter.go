package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-twitter-token/core"
)

const KindHTTP = "http"

const defaultHTTPClientTimeout = 30 * time.Second
const defaultResponseBodyLimit int64 = 1 << 20 // 1 MiB

const defaultUserAgent = "go-twitter-token"

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPAdapter executes core.TransportRequest values over an HTTPDoer. It does
// not interpret status codes; callers decide what a non 2xx response means.
type HTTPAdapter struct {
	Client               HTTPDoer
	DefaultHeaders       map[string]string
	MaxResponseBodyBytes int64
}

func NewHTTPAdapter(client HTTPDoer) *HTTPAdapter {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPClientTimeout}
	}
	return &HTTPAdapter{
		Client:               client,
		DefaultHeaders:       map[string]string{"User-Agent": defaultUserAgent},
		MaxResponseBodyBytes: defaultResponseBodyLimit,
	}
}

func (*HTTPAdapter) Kind() string {
	return KindHTTP
}

func (a *HTTPAdapter) Do(ctx context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	if a == nil || a.Client == nil {
		return core.TransportResponse{}, core.CategorizedError(
			nil,
			goerrors.CategoryInternal,
			"transport: http adapter requires an http client",
			map[string]any{"adapter": KindHTTP},
		)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	method := strings.TrimSpace(strings.ToUpper(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	target, err := resolveURL(req)
	if err != nil {
		return core.TransportResponse{}, err
	}

	requestCtx := ctx
	cancel := func() {}
	if req.Timeout > 0 {
		requestCtx, cancel = context.WithTimeout(ctx, req.Timeout)
	}
	defer cancel()

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(requestCtx, method, target, body)
	if err != nil {
		return core.TransportResponse{}, core.CategorizedError(
			err,
			goerrors.CategoryBadInput,
			"transport: create http request",
			map[string]any{"adapter": KindHTTP, "method": method},
		)
	}
	applyHeaders(httpReq.Header, a.DefaultHeaders)
	applyHeaders(httpReq.Header, req.Headers)

	startedAt := time.Now().UTC()
	httpRes, err := a.Client.Do(httpReq)
	if err != nil {
		return core.TransportResponse{}, core.CategorizedError(
			err,
			goerrors.CategoryExternal,
			"transport: execute http request",
			map[string]any{"adapter": KindHTTP, "method": method, "host": httpReq.URL.Host},
		)
	}
	defer httpRes.Body.Close()

	maxBodyBytes := resolveResponseBodyLimit(req.MaxResponseBodyBytes, a.MaxResponseBodyBytes)
	payload, err := io.ReadAll(io.LimitReader(httpRes.Body, maxBodyBytes+1))
	if err != nil {
		return core.TransportResponse{}, core.CategorizedError(
			err,
			goerrors.CategoryExternal,
			"transport: read response body",
			map[string]any{"adapter": KindHTTP, "status_code": httpRes.StatusCode},
		)
	}
	if int64(len(payload)) > maxBodyBytes {
		return core.TransportResponse{}, core.CategorizedError(
			nil,
			goerrors.CategoryExternal,
			fmt.Sprintf("transport: response body exceeds limit of %d bytes", maxBodyBytes),
			map[string]any{
				"adapter":          KindHTTP,
				"status_code":      httpRes.StatusCode,
				"response_limit_b": maxBodyBytes,
			},
		)
	}

	return core.TransportResponse{
		StatusCode: httpRes.StatusCode,
		Headers:    flattenHeaders(httpRes.Header),
		Body:       payload,
		Metadata: map[string]any{
			"duration_ms": time.Since(startedAt).Milliseconds(),
			"kind":        KindHTTP,
		},
	}, nil
}

// resolveURL merges req.Query into the URL. The URL must be absolute.
func resolveURL(req core.TransportRequest) (string, error) {
	raw := strings.TrimSpace(req.URL)
	if raw == "" {
		return "", core.CategorizedError(
			nil,
			goerrors.CategoryBadInput,
			"transport: request url is required",
			map[string]any{"adapter": KindHTTP},
		)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", core.CategorizedError(
			err,
			goerrors.CategoryBadInput,
			"transport: invalid request url",
			map[string]any{"adapter": KindHTTP},
		)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", core.CategorizedError(
			nil,
			goerrors.CategoryBadInput,
			fmt.Sprintf("transport: request url %q must be absolute", raw),
			map[string]any{"adapter": KindHTTP},
		)
	}
	if len(req.Query) == 0 {
		return parsed.String(), nil
	}
	query := parsed.Query()
	for key, value := range req.Query {
		if strings.TrimSpace(key) == "" {
			continue
		}
		query.Set(strings.TrimSpace(key), value)
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func applyHeaders(target http.Header, headers map[string]string) {
	for key, value := range headers {
		if strings.TrimSpace(key) == "" {
			continue
		}
		target.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}
}

func flattenHeaders(headers http.Header) map[string]string {
	if len(headers) == 0 {
		return map[string]string{}
	}
	flat := make(map[string]string, len(headers))
	for key, values := range headers {
		flat[key] = strings.Join(values, ",")
	}
	return flat
}

func resolveResponseBodyLimit(requestLimit int64, adapterLimit int64) int64 {
	if requestLimit > 0 {
		return requestLimit
	}
	if adapterLimit > 0 {
		return adapterLimit
	}
	return defaultResponseBodyLimit
}

var _ core.TransportAdapter = (*HTTPAdapter)(nil)
