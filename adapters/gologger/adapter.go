package gologger

import (
	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
)

// LoggerName is the named logger the authenticator and its jobs log under.
const LoggerName = "twitter_token"

// Resolve picks provider over logger over nop, for LoggerName.
func Resolve(provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	return glog.Resolve(LoggerName, provider, logger)
}

func ToJobProvider(provider glog.LoggerProvider) job.LoggerProvider {
	if provider == nil {
		return nil
	}
	return job.GoLoggerProvider(provider)
}

func ToJobLogger(logger glog.Logger) job.Logger {
	if logger == nil {
		return nil
	}
	return job.GoLogger(logger)
}

// ResolveForJob resolves like Resolve and also returns the go-job bridges,
// so prune workers log through the same sink as the authenticator.
func ResolveForJob(provider glog.LoggerProvider, logger glog.Logger) (glog.Logger, job.LoggerProvider, job.Logger) {
	resolvedProvider, resolvedLogger := Resolve(provider, logger)
	return resolvedLogger, ToJobProvider(resolvedProvider), ToJobLogger(resolvedLogger)
}
