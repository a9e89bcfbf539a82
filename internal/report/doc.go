// Package report renders the memory summary and the recent events.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: GitHub flavored Markdown with a mermaid pie chart of
//     the action distribution
//
// Design decision: We separate report writing from the data it renders
// (which lives in the memory package) so new output formats can be added
// without touching the store. Writers implement the Writer interface,
// allowing them to be used interchangeably and composed for multi-format
// output.
package report
