// Package pipeline runs the post-decision steps for analyzed inputs.
//
// Once the decision engine has produced a Decision, the pipeline hands it to
// the collaborators that consume it: the event store, the memory store, the
// notification queue and the metrics registry. Each collaborator is wrapped
// in a Step that receives the accumulated Outcome.
//
// Design decision: Steps run in sequence and, in the default pipeline, a
// failing step does not stop the next one. A decision that could not be
// stored should still be remembered and notified, so the error is recorded
// in the Outcome instead.
//
// BatchProcessor routes many raw inputs concurrently with errgroup and a
// concurrency limit, keeping results in input order.
package pipeline
