// Package decision maps analyzer findings to an action.
//
// Decide is a pure function: it performs no I/O and keeps no state, so the
// same findings always produce the same Decision. Each kind has its own
// policy table:
//
//	kind      alert if                          log if          else
//	url       score >= 50                       score >= 20     ignore
//	password  compromised                       score > 60      ignore
//	text      score >= 60 or label malicious    score >= 30     ignore
//
// An unsupported kind is a routing error (ErrUnknownKind), never an action.
package decision
