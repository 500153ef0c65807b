package core

import (
	"context"
	"sync"

	glog "github.com/goliatone/go-logger/glog"
)

const ghaiklorProfileJSON = `{"id":"1234","screen_name":"ghaiklor","name":"Eugene Obrezkov","profile_image_url_https":"IMAGE_URL"}`

type getterCall struct {
	url         string
	token       string
	tokenSecret string
}

type stubGetter struct {
	mu    sync.Mutex
	body  []byte
	err   error
	calls []getterCall
}

func (g *stubGetter) SignedGet(_ context.Context, rawURL string, token string, tokenSecret string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, getterCall{url: rawURL, token: token, tokenSecret: tokenSecret})
	if g.err != nil {
		return nil, g.err
	}
	return append([]byte(nil), g.body...), nil
}

func (g *stubGetter) Calls() []getterCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]getterCall(nil), g.calls...)
}

type capturingReporter struct {
	successes int
	fails     int
	errors    int
	user      any
	info      Info
	err       error
}

func (r *capturingReporter) Success(user any, info Info) {
	r.successes++
	r.user = user
	r.info = info
}

func (r *capturingReporter) Fail(info Info) {
	r.fails++
	r.info = info
}

func (r *capturingReporter) Error(err error) {
	r.errors++
	r.err = err
}

func (r *capturingReporter) total() int {
	return r.successes + r.fails + r.errors
}

type capturingRecorder struct {
	mu       sync.Mutex
	attempts []Attempt
	err      error
}

func (r *capturingRecorder) RecordAttempt(_ context.Context, attempt Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, attempt)
	return r.err
}

type capturingMetrics struct {
	mu       sync.Mutex
	counters map[string]int64
	tags     map[string]map[string]string
}

func newCapturingMetrics() *capturingMetrics {
	return &capturingMetrics{counters: map[string]int64{}, tags: map[string]map[string]string{}}
}

func (m *capturingMetrics) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name] += value
	m.tags[name] = tags
}

func (m *capturingMetrics) ObserveHistogram(context.Context, string, float64, map[string]string) {}

type logCall struct {
	level string
	msg   string
	args  []any
}

type capturingLogger struct {
	mu    sync.Mutex
	calls []logCall
}

func (l *capturingLogger) record(level string, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, logCall{level: level, msg: msg, args: append([]any(nil), args...)})
}

func (l *capturingLogger) Trace(msg string, args ...any) { l.record("trace", msg, args) }
func (l *capturingLogger) Debug(msg string, args ...any) { l.record("debug", msg, args) }
func (l *capturingLogger) Info(msg string, args ...any)  { l.record("info", msg, args) }
func (l *capturingLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args) }
func (l *capturingLogger) Error(msg string, args ...any) { l.record("error", msg, args) }
func (l *capturingLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args) }

func (l *capturingLogger) WithContext(context.Context) glog.Logger { return l }

func (l *capturingLogger) Calls() []logCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]logCall(nil), l.calls...)
}

type capturingLoggerProvider struct {
	logger *capturingLogger
}

func (p capturingLoggerProvider) GetLogger(string) glog.Logger { return p.logger }

var (
	_ SignedGetter        = (*stubGetter)(nil)
	_ Reporter            = (*capturingReporter)(nil)
	_ AttemptRecorder     = (*capturingRecorder)(nil)
	_ MetricsRecorder     = (*capturingMetrics)(nil)
	_ glog.Logger         = (*capturingLogger)(nil)
	_ glog.LoggerProvider = capturingLoggerProvider{}
)

func testConfig() Config {
	return Config{ConsumerKey: "consumer-key", ConsumerSecret: "consumer-secret"}
}

func echoProfileVerify(ctx context.Context, params VerifyParams) (any, Info, error) {
	return params.Profile, Info{"info": "foo"}, nil
}

func newTestAuthenticator(cfg Config, getter SignedGetter, verify VerifyFunc, opts ...Option) (*Authenticator, error) {
	if verify == nil {
		verify = echoProfileVerify
	}
	all := append([]Option{WithSignedGetter(getter)}, opts...)
	return NewAuthenticator(cfg, verify, all...)
}
