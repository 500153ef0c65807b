package oauth1

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gooauth1 "github.com/dghubble/oauth1"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-twitter-token/core"
)

const maxErrorBodyBytes = 512

// Client performs OAuth 1.0a signed GETs on behalf of a user token pair.
// Signing is delegated to dghubble/oauth1; the signed request is executed
// through Transport.
type Client struct {
	Config    *gooauth1.Config
	Transport core.TransportAdapter
	Timeout   time.Duration
}

func NewClient(cfg core.Config, transport core.TransportAdapter) *Client {
	return &Client{
		Config: gooauth1.NewConfig(
			strings.TrimSpace(cfg.ConsumerKey),
			strings.TrimSpace(cfg.ConsumerSecret),
		),
		Transport: transport,
	}
}

// NewSignedGetterFactory binds a transport to the consumer credentials the
// authenticator resolves at construction time.
func NewSignedGetterFactory(transport core.TransportAdapter) core.SignedGetterFactory {
	return func(cfg core.Config) (core.SignedGetter, error) {
		if transport == nil {
			return nil, fmt.Errorf("oauth1: transport is required")
		}
		return NewClient(cfg, transport), nil
	}
}

// SignedGet returns the response body of a 2xx response. Any other status is
// reported as an external failure carrying the status code and a body excerpt.
func (c *Client) SignedGet(ctx context.Context, rawURL string, token string, tokenSecret string) ([]byte, error) {
	if c == nil || c.Transport == nil || c.Config == nil {
		return nil, goerrors.New("oauth1: client requires a transport and consumer config", goerrors.CategoryInternal).
			WithCode(http.StatusInternalServerError).
			WithTextCode(core.ErrorInternal)
	}
	if strings.TrimSpace(c.Config.ConsumerKey) == "" || strings.TrimSpace(c.Config.ConsumerSecret) == "" {
		return nil, badRequest(fmt.Errorf("oauth1: consumer key and secret are required"), "oauth1: sign request")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSpace(rawURL), nil)
	if err != nil {
		return nil, badRequest(err, "oauth1: build request")
	}
	if req.URL.Scheme == "" || req.URL.Host == "" {
		return nil, badRequest(fmt.Errorf("oauth1: request url %q must be absolute", rawURL), "oauth1: build request")
	}
	req.Header.Set("Accept", "application/json")

	// the signer fills a nil Noncer in place, so sign with a per request copy
	config := *c.Config
	if config.Noncer == nil {
		config.Noncer = gooauth1.Base64Noncer{}
	}
	bridge := &transportBridge{adapter: c.Transport, timeout: c.Timeout}
	signing := config.Client(
		context.WithValue(ctx, gooauth1.HTTPClient, &http.Client{Transport: bridge}),
		gooauth1.NewToken(strings.TrimSpace(token), tokenSecret),
	)
	res, err := signing.Transport.RoundTrip(req)
	if err != nil {
		if bridge.err != nil {
			return nil, bridge.err
		}
		return nil, badRequest(err, "oauth1: sign request")
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "oauth1: read response").
			WithCode(http.StatusBadGateway).
			WithTextCode(core.ErrorExternalFailure)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, goerrors.New(
			fmt.Sprintf("oauth1: unexpected status %d", res.StatusCode),
			goerrors.CategoryExternal,
		).
			WithCode(http.StatusBadGateway).
			WithTextCode(core.ErrorExternalFailure).
			WithMetadata(map[string]any{
				"status_code": res.StatusCode,
				"body":        excerpt(body),
			})
	}
	return body, nil
}

// transportBridge lets the signing round tripper hand the signed request to a
// core.TransportAdapter instead of net/http.
type transportBridge struct {
	adapter core.TransportAdapter
	timeout time.Duration
	err     error
}

func (b *transportBridge) RoundTrip(req *http.Request) (*http.Response, error) {
	headers := make(map[string]string, len(req.Header))
	for key, values := range req.Header {
		headers[key] = strings.Join(values, ",")
	}
	res, err := b.adapter.Do(req.Context(), core.TransportRequest{
		Method:  req.Method,
		URL:     req.URL.String(),
		Headers: headers,
		Timeout: b.timeout,
	})
	if err != nil {
		b.err = err
		return nil, err
	}

	header := make(http.Header, len(res.Headers))
	for key, value := range res.Headers {
		header.Set(key, value)
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", res.StatusCode, http.StatusText(res.StatusCode)),
		StatusCode:    res.StatusCode,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(res.Body)),
		ContentLength: int64(len(res.Body)),
		Request:       req,
	}, nil
}

func badRequest(err error, message string) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, message).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.ErrorBadInput)
}

func excerpt(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBodyBytes {
		return text[:maxErrorBodyBytes]
	}
	return text
}

var _ core.SignedGetter = (*Client)(nil)
