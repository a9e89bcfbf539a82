package urlscan

import "testing"

// TestRiskScore tests the vote-based risk score.
func TestRiskScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		m, s, h, u int
		want       int
	}{
		{name: "scenario fixture", m: 2, s: 1, h: 5, u: 10, want: 14},
		{name: "no votes", want: 0},
		{name: "all malicious", m: 7, want: 100},
		{name: "all suspicious", s: 4, want: 50},
		{name: "half malicious", m: 5, h: 5, want: 50},
		{name: "negative votes are ignored", m: 1, h: -10, u: 1, want: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := RiskScore(tt.m, tt.s, tt.h, tt.u); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

// TestRiskScoreProperties tests range and monotonicity over a grid of tallies.
func TestRiskScoreProperties(t *testing.T) {
	t.Parallel()

	for s := 0; s <= 6; s++ {
		for h := 0; h <= 6; h++ {
			for u := 0; u <= 6; u++ {
				prev := -1
				for m := 0; m <= 20; m++ {
					if m+s+h+u == 0 {
						continue
					}
					got := RiskScore(m, s, h, u)
					if got < 0 || got > 100 {
						t.Fatalf("score out of range for (%d,%d,%d,%d): %d", m, s, h, u, got)
					}
					if got < prev {
						t.Fatalf("score decreased in malicious at (%d,%d,%d,%d): %d < %d", m, s, h, u, got, prev)
					}
					prev = got
				}
			}
		}
	}
}

// TestURLID tests the canonical URL identifier.
func TestURLID(t *testing.T) {
	t.Parallel()

	got := URLID("http://example.com/?a=1&b=2")
	if got != "aHR0cDovL2V4YW1wbGUuY29tLz9hPTEmYj0y" {
		t.Errorf("unexpected url id %q", got)
	}
}
