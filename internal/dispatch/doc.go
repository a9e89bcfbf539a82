// Package dispatch routes analysis inputs to their analyzer.
//
// The Router owns one analyzer per input kind. Route runs the analyzer under
// a per-call deadline, asks the decision engine for a Decision, attaches a
// request id and an input reference, and hands the Decision to the
// post-decision pipeline (storage, memory, notification).
//
// Tagged inputs of the form {"type": "url", "url": "..."} are parsed by
// ParseTaggedInput. An unrecognized type is a routing error (ErrUnknownType)
// and never produces a Decision.
package dispatch
