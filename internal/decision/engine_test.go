package decision

import (
	"errors"
	"strings"
	"testing"

	"github.com/nao1215/riskscope/internal/model"
)

func TestDecideURL(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		score int
		want  model.Action
	}{
		{"zero", 0, model.ActionIgnore},
		{"below log", 19, model.ActionIgnore},
		{"log boundary", 20, model.ActionLog},
		{"below alert", 49, model.ActionLog},
		{"alert boundary", 50, model.ActionAlert},
		{"max", 100, model.ActionAlert},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			d, err := Decide(model.KindURL, model.URLFindings{RiskScore: tc.score, Source: model.SourceRemote})
			if err != nil {
				t.Fatalf("Decide() error = %v", err)
			}
			if d.Action != tc.want {
				t.Errorf("Action = %s, want %s", d.Action, tc.want)
			}
			if d.CombinedScore != tc.score {
				t.Errorf("CombinedScore = %d, want %d", d.CombinedScore, tc.score)
			}
		})
	}
}

func TestDecideURLScenario(t *testing.T) {
	t.Parallel()

	f := model.URLFindings{
		URL:        "http://example.com",
		Malicious:  2,
		Suspicious: 1,
		Harmless:   5,
		Undetected: 10,
		RiskScore:  14,
		Source:     model.SourceRemote,
	}
	d, err := Decide(model.KindURL, f)
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if d.Action != model.ActionIgnore {
		t.Errorf("Action = %s, want ignore", d.Action)
	}
	if !strings.Contains(d.Reason, "14") || !strings.Contains(d.Reason, "malicious=2") {
		t.Errorf("Reason = %q", d.Reason)
	}
}

func TestDecideURLHeuristicReason(t *testing.T) {
	t.Parallel()

	d, err := Decide(model.KindURL, model.URLFindings{
		RiskScore: 50,
		Source:    model.SourceHeuristic,
		Signals:   []string{"ip_literal", "path_keyword:login"},
		Degraded:  true,
		Partial:   true,
	})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	want := "URL risk_score 50 from heuristic signals: ip_literal, path_keyword:login; partial result; scanner unavailable"
	if d.Reason != want {
		t.Errorf("Reason = %q, want %q", d.Reason, want)
	}
}

func TestDecidePassword(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		compromised *bool
		score       int
		want        model.Action
	}{
		{"compromised", model.BoolPtr(true), 100, model.ActionAlert},
		{"compromised low score still alerts", model.BoolPtr(true), 0, model.ActionAlert},
		{"unknown status logs", nil, 70, model.ActionLog},
		{"weak clean", model.BoolPtr(false), 61, model.ActionLog},
		{"boundary is exclusive", model.BoolPtr(false), 60, model.ActionIgnore},
		{"strong clean", model.BoolPtr(false), 0, model.ActionIgnore},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			d, err := Decide(model.KindPassword, model.PasswordFindings{
				Compromised: tc.compromised,
				RiskScore:   tc.score,
			})
			if err != nil {
				t.Fatalf("Decide() error = %v", err)
			}
			if d.Action != tc.want {
				t.Errorf("Action = %s, want %s", d.Action, tc.want)
			}
		})
	}
}

func TestDecidePasswordScenario(t *testing.T) {
	t.Parallel()

	d, err := Decide(model.KindPassword, model.PasswordFindings{
		EntropyBits: 56.87,
		BreachCount: 5,
		Strength:    model.StrengthReasonable,
		Compromised: model.BoolPtr(true),
		RiskScore:   100,
	})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if d.Action != model.ActionAlert || d.CombinedScore != 100 {
		t.Errorf("Decide() = %s/%d, want alert/100", d.Action, d.CombinedScore)
	}
	want := "password compromised=true entropy=56.87 bits breach_count=5 strength=reasonable"
	if d.Reason != want {
		t.Errorf("Reason = %q, want %q", d.Reason, want)
	}
}

func TestDecideText(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		label model.Label
		score int
		want  model.Action
	}{
		{"benign low", model.LabelBenign, 10, model.ActionIgnore},
		{"log boundary", model.LabelBenign, 30, model.ActionLog},
		{"suspicious scenario", model.LabelSuspicious, 51, model.ActionLog},
		{"alert boundary", model.LabelSuspicious, 60, model.ActionAlert},
		{"malicious label overrides score", model.LabelMalicious, 5, model.ActionAlert},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			d, err := Decide(model.KindText, model.TextFindings{
				Label:     tc.label,
				RiskScore: tc.score,
				Reason:    "because",
			})
			if err != nil {
				t.Fatalf("Decide() error = %v", err)
			}
			if d.Action != tc.want {
				t.Errorf("Action = %s, want %s", d.Action, tc.want)
			}
			if !strings.Contains(d.Reason, string(tc.label)) || !strings.HasSuffix(d.Reason, ": because") {
				t.Errorf("Reason = %q", d.Reason)
			}
		})
	}
}

func TestDecideClampsScore(t *testing.T) {
	t.Parallel()

	d, err := Decide(model.KindURL, model.URLFindings{RiskScore: 140})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if d.CombinedScore != 100 || d.Action != model.ActionAlert {
		t.Errorf("Decide() = %d/%s", d.CombinedScore, d.Action)
	}
}

func TestDecideErrors(t *testing.T) {
	t.Parallel()

	if _, err := Decide(model.Kind("image"), model.URLFindings{}); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("unknown kind error = %v, want ErrUnknownKind", err)
	}
	if _, err := Decide(model.KindText, model.URLFindings{}); !errors.Is(err, ErrFindingsMismatch) {
		t.Errorf("mismatch error = %v, want ErrFindingsMismatch", err)
	}
	if _, err := Decide(model.KindText, nil); !errors.Is(err, ErrFindingsMismatch) {
		t.Errorf("nil findings error = %v, want ErrFindingsMismatch", err)
	}
}

func TestDecideIsDeterministic(t *testing.T) {
	t.Parallel()

	f := model.TextFindings{Label: model.LabelSuspicious, RiskScore: 42, Reason: "odd"}
	first, err := Decide(model.KindText, f)
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	for range 20 {
		again, err := Decide(model.KindText, f)
		if err != nil {
			t.Fatalf("Decide() error = %v", err)
		}
		if again.Action != first.Action || again.Reason != first.Reason || again.CombinedScore != first.CombinedScore {
			t.Fatalf("Decide() not deterministic: %+v vs %+v", again, first)
		}
	}
}
