package decision

import (
	"fmt"
	"strings"

	"github.com/nao1215/riskscope/internal/heuristic"
	"github.com/nao1215/riskscope/internal/model"
)

// Policy thresholds.
const (
	URLAlertThreshold = 50
	URLLogThreshold   = 20

	// PasswordLogThreshold is exclusive: a score must exceed it.
	PasswordLogThreshold = 60

	TextAlertThreshold = 60
	TextLogThreshold   = 30
)

// Decide applies the policy for kind to findings.
// The returned Decision has no RequestID or InputRef; the caller owns those.
func Decide(kind model.Kind, findings model.Findings) (model.Decision, error) {
	if !kind.Valid() {
		return model.Decision{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if findings == nil || findings.Kind() != kind {
		return model.Decision{}, fmt.Errorf("%w: %s", ErrFindingsMismatch, kind)
	}

	var action model.Action
	var reason string

	switch f := findings.(type) {
	case model.URLFindings:
		action, reason = decideURL(f)
	case model.PasswordFindings:
		action, reason = decidePassword(f)
	case model.TextFindings:
		action, reason = decideText(f)
	default:
		return model.Decision{}, fmt.Errorf("%w: %T", ErrUnknownKind, findings)
	}

	return model.Decision{
		Kind:          kind,
		Findings:      findings,
		CombinedScore: heuristic.ClampScore(findings.Score()),
		Action:        action,
		Reason:        reason,
	}, nil
}

func decideURL(f model.URLFindings) (model.Action, string) {
	score := heuristic.ClampScore(f.RiskScore)

	action := model.ActionIgnore
	switch {
	case score >= URLAlertThreshold:
		action = model.ActionAlert
	case score >= URLLogThreshold:
		action = model.ActionLog
	}

	var b strings.Builder
	fmt.Fprintf(&b, "URL risk_score %d", score)
	if f.Source == model.SourceHeuristic {
		if len(f.Signals) > 0 {
			fmt.Fprintf(&b, " from heuristic signals: %s", strings.Join(f.Signals, ", "))
		} else {
			b.WriteString(" from heuristics, no signals")
		}
	} else {
		fmt.Fprintf(&b, " (malicious=%d suspicious=%d harmless=%d undetected=%d)",
			f.Malicious, f.Suspicious, f.Harmless, f.Undetected)
	}
	if f.Partial {
		b.WriteString("; partial result")
	}
	if f.Degraded {
		b.WriteString("; scanner unavailable")
	}
	return action, b.String()
}

func decidePassword(f model.PasswordFindings) (model.Action, string) {
	compromised := f.Compromised != nil && *f.Compromised

	action := model.ActionIgnore
	switch {
	case compromised:
		action = model.ActionAlert
	case heuristic.ClampScore(f.RiskScore) > PasswordLogThreshold:
		action = model.ActionLog
	}

	reason := fmt.Sprintf("password compromised=%s entropy=%.2f bits breach_count=%d strength=%s",
		f.CompromiseState(), f.EntropyBits, f.BreachCount, f.Strength)
	if f.IsCommon {
		reason += "; common password"
	}
	return action, reason
}

func decideText(f model.TextFindings) (model.Action, string) {
	score := heuristic.ClampScore(f.RiskScore)

	action := model.ActionIgnore
	switch {
	case score >= TextAlertThreshold || f.Label == model.LabelMalicious:
		action = model.ActionAlert
	case score >= TextLogThreshold:
		action = model.ActionLog
	}

	reason := fmt.Sprintf("text label=%s score=%d", f.Label, score)
	if f.Reason != "" {
		reason += ": " + f.Reason
	}
	return action, reason
}
