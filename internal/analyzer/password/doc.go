// Package password implements the password risk analyzer.
//
// Check combines four signals into PasswordFindings:
//   - membership in a preloaded common-password list (case-insensitive)
//   - membership in a preloaded list of breached SHA-1 digests
//   - an optional remote breach lookup using the k-anonymity range protocol,
//     where only the first five hex characters of the SHA-1 digest leave the
//     process and the full digest is matched locally
//   - a character-class entropy estimate
//
// The remote lookup is a BreachLookup capability injected at construction.
// Range responses are cached per prefix in a PrefixCache owned by the lookup,
// backed by ttlcache. Expired entries are swept when a lookup misses; no
// janitor goroutine is started.
//
// The raw password never leaves Check. Findings carry a keyed BLAKE2b
// fingerprint instead, so repeated passwords can be correlated in storage
// without being recoverable.
package password
