// Package transport provides the outbound HTTP plumbing shared by the analyzers.
//
// It offers two pieces:
//   - NewHTTPClient builds an *http.Client with sane timeouts, a fixed
//     User-Agent and an optional SOCKS5 proxy for every outbound call
//   - Retrier wraps a client with bounded exponential backoff that honors
//     Retry-After on HTTP 429 and keeps separate budgets for rate limiting
//     and transient failures
//
// Non-retryable client errors (4xx other than 429) are returned immediately
// as *StatusError so that callers can tell protocol failures such as bad
// credentials apart from exhausted retries.
package transport
