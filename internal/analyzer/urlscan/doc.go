// Package urlscan implements the URL reputation analyzer.
//
// The analyzer delegates to a Scanner capability. Two implementations exist:
//   - VirusTotal talks to a multi-engine scanning service: it submits the URL,
//     polls the analysis until it completes or the poll cap is reached, then
//     fetches the canonical URL object for the latest vote tallies
//   - Heuristic scores the URL locally from its shape without any network access
//
// The implementation is selected at construction time: without an API key the
// analyzer runs heuristic-only. When the remote scanner fails with anything but
// a non-retryable client error, the analyzer falls back to the heuristic and
// marks the findings as degraded.
//
// Risk score for remote verdicts:
//
//	risk = round(100 * (malicious + 0.5*suspicious) / max(total, 1))
package urlscan
