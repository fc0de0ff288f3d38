// Package log provides slog-based logging that never prints session credentials.
//
// The scraper carries the user's csrftoken and sessionid cookies for the whole
// run. SecureHandler wraps any slog.Handler and masks attribute values whose key
// names a credential, or whose value looks like a cookie header carrying one.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Info("downloading", "url", u, "csrf", auth.CSRF) // csrf is masked
//	slog.SetDefault(logger)
package log
