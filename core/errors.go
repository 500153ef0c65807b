package core

import (
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorConfigurationInvalid = "TWITTER_TOKEN_CONFIGURATION_INVALID"
	ErrorMissingCredentials   = "TWITTER_TOKEN_MISSING_CREDENTIALS"
	ErrorProfileFetchFailed   = "TWITTER_TOKEN_PROFILE_FETCH_FAILED"
	ErrorProfileParseFailed   = "TWITTER_TOKEN_PROFILE_PARSE_FAILED"
	ErrorVerifyFailed         = "TWITTER_TOKEN_VERIFY_FAILED"
	ErrorBadInput             = "TWITTER_TOKEN_BAD_INPUT"
	ErrorExternalFailure      = "TWITTER_TOKEN_EXTERNAL_FAILURE"
	ErrorInternal             = "TWITTER_TOKEN_INTERNAL_ERROR"
)

const (
	MessageProfileFetchFailed = "failed to fetch user profile"
	MessageProfileParseFailed = "failed to parse user profile"
)

type ErrorMapper func(err error) *goerrors.Error

func configurationError(err error) *goerrors.Error {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.TextCode == ErrorConfigurationInvalid {
		return rich
	}
	return goerrors.Wrap(err, goerrors.CategoryBadInput, "core: invalid configuration").
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorConfigurationInvalid)
}

func missingCredentialsError(tokenField, tokenSecretField string) *goerrors.Error {
	return goerrors.New(MissingCredentialsMessage(tokenField, tokenSecretField), goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorMissingCredentials).
		WithMetadata(map[string]any{
			"token_field":        tokenField,
			"token_secret_field": tokenSecretField,
		})
}

// MissingCredentialsMessage names both configured fields exactly.
func MissingCredentialsMessage(tokenField, tokenSecretField string) string {
	return fmt.Sprintf("You should provide %s and %s", tokenField, tokenSecretField)
}

func profileFetchError(source error, profileURL string) *goerrors.Error {
	err := goerrors.Wrap(source, goerrors.CategoryExternal, MessageProfileFetchFailed).
		WithCode(http.StatusBadGateway).
		WithTextCode(ErrorProfileFetchFailed)
	if profileURL != "" {
		err.WithMetadata(map[string]any{"profile_url": profileURL})
	}
	return err
}

func profileParseError(source error) *goerrors.Error {
	return goerrors.Wrap(source, goerrors.CategoryExternal, MessageProfileParseFailed).
		WithCode(http.StatusBadGateway).
		WithTextCode(ErrorProfileParseFailed)
}

// verifyError keeps rich errors raised by the application as they are.
func verifyError(source error) error {
	var rich *goerrors.Error
	if goerrors.As(source, &rich) {
		return rich
	}
	return goerrors.Wrap(source, goerrors.CategoryInternal, "core: verify callback failed").
		WithCode(http.StatusInternalServerError).
		WithTextCode(ErrorVerifyFailed)
}

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return ensureErrorEnvelope(rich)
	}
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return ensureErrorEnvelope(goerrors.New(err.Error(), goerrors.CategoryBadInput).WithTextCode(ErrorBadInput))
	}
	return ensureErrorEnvelope(goerrors.MapToError(err, goerrors.DefaultErrorMappers()))
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = httpStatusForCategory(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = TextCodeForCategory(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func TextCodeForCategory(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadInput
	case goerrors.CategoryExternal:
		return ErrorExternalFailure
	default:
		return ErrorInternal
	}
}

func httpStatusForCategory(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// DependencyError reports a handler constructed without a collaborator it
// needs to run.
func DependencyError(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ErrorInternal)
}

// ValidationFailure reports one invalid message field. Scope names the
// package raising it, e.g. "command".
func ValidationFailure(scope, field, message string) *goerrors.Error {
	return goerrors.NewValidation(scope+": validation failed", goerrors.FieldError{
		Field:   field,
		Message: message,
	}).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorBadInput).
		WithSeverity(goerrors.SeverityError)
}

// CategorizedError builds an envelope whose status and text code follow the
// category. A nil source yields a fresh error with the message.
func CategorizedError(source error, category goerrors.Category, message string, metadata map[string]any) *goerrors.Error {
	var err *goerrors.Error
	if source == nil {
		err = goerrors.New(message, category)
	} else {
		err = goerrors.Wrap(source, category, message)
	}
	err.WithCode(httpStatusForCategory(category)).
		WithTextCode(TextCodeForCategory(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// TextCode returns the go-errors text code carried by err, if any.
func TextCode(err error) string {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.TextCode
	}
	return ""
}

func IsConfigurationError(err error) bool { return TextCode(err) == ErrorConfigurationInvalid }

func IsMissingCredentials(err error) bool { return TextCode(err) == ErrorMissingCredentials }

func IsProfileFetchError(err error) bool { return TextCode(err) == ErrorProfileFetchFailed }

func IsProfileParseError(err error) bool { return TextCode(err) == ErrorProfileParseFailed }
