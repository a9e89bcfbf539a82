package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrFindingsKind is returned when decoding a decision whose findings
// cannot be matched to its kind.
var ErrFindingsKind = errors.New("findings do not match decision kind")

// Decision is the finalized risk verdict for one analyzed input.
// It is created once per request and treated as immutable afterwards:
// storage, memory and notifiers receive copies.
type Decision struct {
	// RequestID correlates the decision with dispatch logs and notifications.
	RequestID string `json:"request_id,omitempty"`

	Kind Kind `json:"kind"`

	// InputRef identifies the input without necessarily revealing it.
	// URLs are stored as-is; passwords and texts as keyed fingerprints.
	InputRef string `json:"input_ref"`

	Findings Findings `json:"findings"`

	// CombinedScore is the risk score in [0,100] used for the action.
	CombinedScore int `json:"combined_score"`

	Action Action `json:"action"`

	// Reason is a human-readable explanation including the decisive signal.
	Reason string `json:"reason"`
}

// decisionJSON mirrors Decision with undecoded findings.
type decisionJSON struct {
	RequestID     string          `json:"request_id,omitempty"`
	Kind          Kind            `json:"kind"`
	InputRef      string          `json:"input_ref"`
	Findings      json.RawMessage `json:"findings"`
	CombinedScore int             `json:"combined_score"`
	Action        Action          `json:"action"`
	Reason        string          `json:"reason"`
}

// UnmarshalJSON decodes the findings into the concrete type named by kind.
func (d *Decision) UnmarshalJSON(data []byte) error {
	var raw decisionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	findings, err := DecodeFindings(raw.Kind, raw.Findings)
	if err != nil {
		return err
	}

	*d = Decision{
		RequestID:     raw.RequestID,
		Kind:          raw.Kind,
		InputRef:      raw.InputRef,
		Findings:      findings,
		CombinedScore: raw.CombinedScore,
		Action:        raw.Action,
		Reason:        raw.Reason,
	}
	return nil
}

// DecodeFindings decodes JSON findings for the given kind.
// Empty or null data yields nil findings.
func DecodeFindings(kind Kind, data json.RawMessage) (Findings, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	switch kind {
	case KindURL:
		var f URLFindings
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to decode url findings: %w", err)
		}
		return f, nil
	case KindPassword:
		var f PasswordFindings
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to decode password findings: %w", err)
		}
		return f, nil
	case KindText:
		var f TextFindings
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to decode text findings: %w", err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrFindingsKind, kind)
	}
}
