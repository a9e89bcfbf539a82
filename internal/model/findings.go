package model

// Findings is the kind-specific output of an analyzer.
// The variants are URLFindings, PasswordFindings and TextFindings.
// Every variant carries a risk score clamped to [0,100] no matter which
// analyzer path (remote service or local heuristic) produced it.
type Findings interface {
	// Kind returns the kind of analyzer that produced the findings.
	Kind() Kind

	// Score returns the derived risk score in [0,100].
	Score() int

	isFindings()
}

// Analyzer source names recorded in findings.
const (
	SourceRemote    = "remote"
	SourceHeuristic = "heuristic"
	SourceLocal     = "local"
	SourceLLM       = "llm"
	SourceUnknown   = "unknown"
	SourceNone      = "none"
)

// URLFindings holds the multi-engine vote tallies for a URL.
type URLFindings struct {
	// URL is the analyzed URL as submitted.
	URL string `json:"url"`

	// Vote counts reported by the scanning engines.
	Malicious  int `json:"malicious"`
	Suspicious int `json:"suspicious"`
	Harmless   int `json:"harmless"`
	Undetected int `json:"undetected"`

	// Engines maps engine name to the category it reported.
	Engines map[string]string `json:"engines,omitempty"`

	// RiskScore is derived from the votes, or from local heuristics
	// when no remote verdict is available.
	RiskScore int `json:"risk_score"`

	// Source is "remote" for a scanning service verdict and
	// "heuristic" for the local URL heuristics.
	Source string `json:"source"`

	// AnalysisStatus is the last status reported while polling.
	AnalysisStatus string `json:"analysis_status,omitempty"`

	// Partial is set when polling hit its cap or the canonical object
	// could not be fetched, so the tallies may be stale or incomplete.
	Partial bool `json:"partial,omitempty"`

	// Degraded is set when the remote service failed and the result
	// comes from the local heuristics instead.
	Degraded bool `json:"degraded,omitempty"`

	// Signals lists the local heuristic signals that fired.
	Signals []string `json:"signals,omitempty"`
}

// Kind implements Findings.
func (URLFindings) Kind() Kind { return KindURL }

// Score implements Findings.
func (f URLFindings) Score() int { return f.RiskScore }

func (URLFindings) isFindings() {}

// TotalVotes returns the sum of all vote counts.
func (f URLFindings) TotalVotes() int {
	return f.Malicious + f.Suspicious + f.Harmless + f.Undetected
}

// PasswordFindings holds the breach and strength assessment of a password.
// It never contains the password itself.
type PasswordFindings struct {
	// EntropyBits is the character-class entropy estimate, rounded to 2 decimals.
	EntropyBits float64 `json:"entropy_bits"`

	// BreachCount is -1 when the breach status is unknown, 0 when clean
	// and the number of known breaches otherwise.
	BreachCount int `json:"breach_count"`

	// BreachSource tells where the breach count came from.
	BreachSource string `json:"breach_source"`

	// IsCommon reports membership in the common-password list.
	IsCommon bool `json:"is_common"`

	Strength Strength `json:"strength"`

	// Compromised is nil when the breach status is unknown.
	Compromised *bool `json:"compromised"`

	RiskScore int `json:"risk_score"`

	// Fingerprint is a keyed digest that identifies the password
	// across events without revealing it.
	Fingerprint string `json:"fingerprint"`

	// Supplementary holds the optional pluggable strength scorer output.
	// It enriches the findings but never changes RiskScore.
	Supplementary *SupplementaryStrength `json:"supplementary,omitempty"`
}

// SupplementaryStrength is the output of an optional secondary strength scorer.
type SupplementaryStrength struct {
	Scorer    string  `json:"scorer"`
	Score     int     `json:"score"`
	Entropy   float64 `json:"entropy"`
	CrackTime string  `json:"crack_time,omitempty"`
}

// Kind implements Findings.
func (PasswordFindings) Kind() Kind { return KindPassword }

// Score implements Findings.
func (f PasswordFindings) Score() int { return f.RiskScore }

func (PasswordFindings) isFindings() {}

// CompromiseState renders Compromised as "true", "false" or "unknown".
func (f PasswordFindings) CompromiseState() string {
	switch {
	case f.Compromised == nil:
		return "unknown"
	case *f.Compromised:
		return "true"
	default:
		return "false"
	}
}

// TextFindings holds the classification of a piece of free text.
type TextFindings struct {
	Label  Label  `json:"label"`
	Reason string `json:"reason"`

	// URLs lists every URL extracted from the text.
	URLs []string `json:"urls"`

	// HeuristicScore is the keyword heuristic score, always computed
	// so that consumers can see which signal dominated.
	HeuristicScore int `json:"heuristic_score"`

	RiskScore int `json:"risk_score"`

	// Source is "llm" or "heuristic" ("none" for empty input).
	Source string `json:"source"`

	// Degraded is set when the language model failed and the heuristic
	// path produced the result.
	Degraded bool `json:"degraded,omitempty"`
}

// Kind implements Findings.
func (TextFindings) Kind() Kind { return KindText }

// Score implements Findings.
func (f TextFindings) Score() int { return f.RiskScore }

func (TextFindings) isFindings() {}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}
