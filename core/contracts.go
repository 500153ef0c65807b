package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// SignedGetter performs one OAuth 1.0a signed GET on behalf of a user token.
type SignedGetter interface {
	SignedGet(ctx context.Context, rawURL string, token string, tokenSecret string) ([]byte, error)
}

type SignedGetterFunc func(ctx context.Context, rawURL string, token string, tokenSecret string) ([]byte, error)

func (fn SignedGetterFunc) SignedGet(ctx context.Context, rawURL string, token string, tokenSecret string) ([]byte, error) {
	return fn(ctx, rawURL, token, tokenSecret)
}

// SignedGetterFactory builds a SignedGetter once the final config is known.
type SignedGetterFactory func(cfg Config) (SignedGetter, error)

type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Query                map[string]string
	Body                 []byte
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

type Info map[string]any

type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeFail    OutcomeKind = "fail"
	OutcomeError   OutcomeKind = "error"
)

// Outcome is the single terminal result of one authentication attempt.
type Outcome struct {
	Kind OutcomeKind
	User any
	Info Info
	Err  error
}

func Success(user any, info Info) Outcome {
	return Outcome{Kind: OutcomeSuccess, User: user, Info: info}
}

func Fail(info Info) Outcome {
	return Outcome{Kind: OutcomeFail, Info: info}
}

func Failure(info Info, err error) Outcome {
	return Outcome{Kind: OutcomeFail, Info: info, Err: err}
}

func Errored(err error) Outcome {
	return Outcome{Kind: OutcomeError, Err: err}
}

// Reporter is the host framework side of an attempt. Exactly one method is
// invoked per attempt.
type Reporter interface {
	Success(user any, info Info)
	Fail(info Info)
	Error(err error)
}

type VerifyParams struct {
	Token       string
	TokenSecret string
	Profile     Profile
	// Request is only set when Config.PassRequestToCallback is enabled.
	Request *Request
}

// VerifyFunc maps validated provider credentials to an application user. A
// nil user with a nil error is reported as a failure carrying info.
type VerifyFunc func(ctx context.Context, params VerifyParams) (user any, info Info, err error)

type ProfileValue struct {
	Value string `json:"value"`
}

type ProfileName struct {
	FamilyName string `json:"familyName"`
	GivenName  string `json:"givenName"`
	MiddleName string `json:"middleName"`
}

type Profile struct {
	Provider    string         `json:"provider"`
	ID          string         `json:"id"`
	Username    string         `json:"username"`
	DisplayName string         `json:"displayName"`
	Name        *ProfileName   `json:"name,omitempty"`
	Emails      []ProfileValue `json:"emails,omitempty"`
	Photos      []ProfileValue `json:"photos,omitempty"`
	Raw         string         `json:"-"`
	JSON        map[string]any `json:"-"`
}

type ProfileParams struct {
	UserID     string
	ScreenName string
}

type Credentials struct {
	Token       string
	TokenSecret string
	UserID      string
	ScreenName  string
}

type AttemptStatus string

const (
	AttemptStatusSuccess AttemptStatus = AttemptStatus(OutcomeSuccess)
	AttemptStatusFail    AttemptStatus = AttemptStatus(OutcomeFail)
	AttemptStatusError   AttemptStatus = AttemptStatus(OutcomeError)
)

type Attempt struct {
	ID        string
	Provider  string
	Status    AttemptStatus
	UserID    string
	Username  string
	ErrorCode string
	Message   string
	Duration  time.Duration
	Metadata  map[string]any
	CreatedAt time.Time
}

type AttemptFilter struct {
	UserID  string
	Status  AttemptStatus
	From    *time.Time
	To      *time.Time
	Page    int
	PerPage int
}

type AttemptPage struct {
	Items      []Attempt
	Page       int
	PerPage    int
	Total      int
	HasNext    bool
	NextCursor string
}

type AttemptStats struct {
	UserID      string
	Success     int
	Fail        int
	Error       int
	LastStatus  AttemptStatus
	LastAttempt *time.Time
}

type AttemptRetentionPolicy struct {
	TTL    time.Duration
	RowCap int
}

type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, attempt Attempt) error
}

type AttemptReader interface {
	ListAttempts(ctx context.Context, filter AttemptFilter) (AttemptPage, error)
}

type AttemptStatsReader interface {
	AttemptStats(ctx context.Context, userID string) (AttemptStats, error)
}

type AttemptPruner interface {
	PruneAttempts(ctx context.Context, policy AttemptRetentionPolicy) (int, error)
}
