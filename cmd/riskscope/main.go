// Package main provides the entry point for the riskscope CLI.
//
// riskscope scores URLs, passwords and free text for security risk and
// decides whether each input should raise an alert, be logged or be ignored.
//
// Usage:
//
//	riskscope serve
//	riskscope analyze url <url>
//	riskscope analyze password --stdin
//	riskscope route --file inputs.jsonl
//
// See --help for all available options.
package main

// main is the entry point for riskscope.
func main() {
	Execute()
}
