package heuristic

import (
	"reflect"
	"strings"
	"testing"

	"github.com/nao1215/riskscope/internal/model"
)

// TestScoreText tests the text heuristic contributions.
func TestScoreText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		text      string
		wantScore int
		wantURLs  int
	}{
		{
			name:      "empty string scores zero",
			text:      "",
			wantScore: 0,
		},
		{
			name:      "plain greeting",
			text:      "See you at lunch tomorrow.",
			wantScore: 0,
		},
		{
			name:      "free money scenario",
			text:      "FREE MONEY!!! click here http://bit.ly/x",
			wantScore: 51,
			wantURLs:  1,
		},
		{
			name:      "exclamations are capped",
			text:      "!!!!!!!!!!!!!!!!!!!!",
			wantScore: 10,
		},
		{
			name:      "url contribution is capped",
			text:      "http://a.io http://b.io http://c.io http://d.io http://e.io http://f.io www.g.io",
			wantScore: 40,
			wantURLs:  7,
		},
		{
			name:      "second url adds five",
			text:      "https://a.io www.b.io",
			wantScore: 20,
			wantURLs:  2,
		},
		{
			name:      "phrase bonus is flat",
			text:      "click here to login, account suspended",
			wantScore: 30,
		},
		{
			name:      "each sensitive topic counts once",
			text:      "bank bank paypal",
			wantScore: 20,
		},
		{
			name:      "full-width phrase is normalized",
			text:      "ＣＬＩＣＫ ＨＥＲＥ",
			wantScore: 30,
		},
		{
			name: "pathological input is clamped",
			text: "click here bank password ssn social security paypal western union " +
				"http://a http://b http://c http://d http://e http://f !!!!!!",
			wantScore: 100,
			wantURLs:  6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ScoreText(tt.text)
			if got.Score != tt.wantScore {
				t.Errorf("expected score %d, got %d (%+v)", tt.wantScore, got.Score, got)
			}
			if len(got.URLs) != tt.wantURLs {
				t.Errorf("expected %d urls, got %v", tt.wantURLs, got.URLs)
			}
			if got.Score < MinScore || got.Score > MaxScore {
				t.Errorf("score out of range: %d", got.Score)
			}
		})
	}
}

// TestScoreTextSignals tests that matched signals are reported.
func TestScoreTextSignals(t *testing.T) {
	t.Parallel()

	got := ScoreText("Security alert: reset your password at your Bank!")

	wantPhrases := []string{"reset your password", "security alert"}
	if !reflect.DeepEqual(got.Phrases, wantPhrases) {
		t.Errorf("expected phrases %v, got %v", wantPhrases, got.Phrases)
	}
	wantTopics := []string{"bank", "password"}
	if !reflect.DeepEqual(got.Topics, wantTopics) {
		t.Errorf("expected topics %v, got %v", wantTopics, got.Topics)
	}
	if got.Exclamations != 1 {
		t.Errorf("expected 1 exclamation, got %d", got.Exclamations)
	}
	// 30 (phrases) + 2 (one exclamation) + 20 (two topics)
	if got.Score != 52 {
		t.Errorf("expected score 52, got %d", got.Score)
	}
}

// TestScoreTextPunctuationOnly tests inputs made only of punctuation.
func TestScoreTextPunctuationOnly(t *testing.T) {
	t.Parallel()

	for _, text := range []string{".", "?!?!", strings.Repeat("!", 1000), "   \t\n"} {
		got := ScoreText(text)
		if got.Score < 0 || got.Score > 10 {
			t.Errorf("text %q: expected score in [0,10], got %d", text, got.Score)
		}
	}
}

// TestExtractURLs tests URL extraction.
func TestExtractURLs(t *testing.T) {
	t.Parallel()

	t.Run("returns empty slice when none", func(t *testing.T) {
		t.Parallel()

		got := ExtractURLs("nothing here")
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", got)
		}
	})

	t.Run("matches scheme case-insensitively", func(t *testing.T) {
		t.Parallel()

		got := ExtractURLs("go to HTTPS://Example.com/a and WWW.test.org now")
		want := []string{"HTTPS://Example.com/a", "WWW.test.org"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})
}

// TestLabelThresholds tests both label mappings.
func TestLabelThresholds(t *testing.T) {
	t.Parallel()

	heuristicCases := map[int]model.Label{
		0:   model.LabelBenign,
		34:  model.LabelBenign,
		35:  model.LabelSuspicious,
		69:  model.LabelSuspicious,
		70:  model.LabelMalicious,
		100: model.LabelMalicious,
	}
	for score, want := range heuristicCases {
		if got := LabelForHeuristic(score); got != want {
			t.Errorf("LabelForHeuristic(%d): expected %s, got %s", score, want, got)
		}
	}

	scoreCases := map[int]model.Label{
		39: model.LabelBenign,
		40: model.LabelSuspicious,
		69: model.LabelSuspicious,
		70: model.LabelMalicious,
	}
	for score, want := range scoreCases {
		if got := LabelForScore(score); got != want {
			t.Errorf("LabelForScore(%d): expected %s, got %s", score, want, got)
		}
	}
}
