// Package memory keeps a short-term and long-term view of past decisions.
//
// Short-term memory is a ring of the most recent entries (30 by default).
// Long-term memory is a set of running statistics: event totals, the mean
// combined score, counts per action and kind, how often each URL was seen,
// which registrable domains were flagged, and how strong the checked
// passwords were. At most DefaultMaxTracked distinct URLs and domains are
// counted; the least seen are pruned. Both are persisted to a JSON file
// after every update using a temporary file and rename, so a crash never
// leaves a half-written file. An update that fails to save is discarded.
package memory
