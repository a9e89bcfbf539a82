// Package heuristic provides the scoring primitives used by the analyzers.
//
// Everything in this package is a pure function without I/O:
//   - EntropyBits and StrengthFor estimate password strength from character classes
//   - ScoreText computes the keyword heuristic score for free text
//   - ScoreURL computes a local reputation score for a URL from its shape
//   - ClampScore and RoundScore keep every score inside [0,100]
//
// The analyzers use these functions both as their primary local checks and
// as the fallback path when a remote service is missing or failing.
package heuristic
