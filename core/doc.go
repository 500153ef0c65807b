// Package core contains the Twitter token-credential strategy: configuration,
// credential extraction, profile normalization and the authenticator that maps
// a verify callback into success, fail or error outcomes. Transport and
// storage adapters depend on this package; core never imports them.
package core
