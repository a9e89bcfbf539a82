// Package log provides secure logging built on top of the standard slog
// package.
//
// The SecureHandler sanitizes sensitive information in log output:
//   - HTTP headers (Authorization, Cookie, X-Apikey)
//   - Analyzer credentials (scanning service and LLM API keys, SMTP password,
//     fingerprint key, webhook URLs, database URLs)
//   - Values that look like secrets: bearer tokens, long alphanumeric keys,
//     SHA-1 password digests and URLs with embedded passwords
//
// Even in verbose mode, sensitive values are masked to prevent accidental
// exposure of secrets in logs that may be shared or stored. Raw passwords
// are never passed to a logger in the first place; components log the keyed
// fingerprint reference ("pwd:...") instead.
//
// # Usage
//
//	logger := log.New(os.Stderr, log.Options{Level: slog.LevelDebug})
//	logger.Info("request sent",
//	    "x-apikey", key, // Will be sanitized to ***REDACTED***
//	    "url", "https://example.com",
//	)
//	slog.SetDefault(logger)
package log
