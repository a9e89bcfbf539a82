// Package text implements the free-text classification analyzer.
//
// A Classifier is selected at construction: LLMClassifier asks a chat
// completions endpoint for a label and score, HeuristicClassifier scores the
// text locally with the keyword heuristic. When the language model fails for
// any reason the Analyzer falls back to the heuristic and marks the findings
// as degraded. Both paths report the extracted URLs and the heuristic score.
package text
