// Package model defines the core data structures shared by riskscope.
//
// This package contains the following main types:
//   - Input: The tagged analysis input (URL, password or free text)
//   - Findings: Kind-specific analyzer output (URLFindings, PasswordFindings, TextFindings)
//   - Decision: The finalized score, action and reason for one analyzed input
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The analyzers, the decision engine, storage and notifiers all
// exchange these types, so centralizing them prevents import cycles.
//
// Input and Findings are closed sets. Both are sealed interfaces with an
// unexported marker method, so a type switch over them is the only way to
// branch on kind and a new kind cannot slip through without touching every switch.
package model
