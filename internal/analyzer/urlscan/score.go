package urlscan

import "github.com/nao1215/riskscope/internal/heuristic"

// suspiciousWeight is how much a suspicious vote counts relative to a malicious one.
const suspiciousWeight = 0.5

// RiskScore derives a 0..100 score from engine vote tallies.
// Negative tallies are treated as zero.
func RiskScore(malicious, suspicious, harmless, undetected int) int {
	malicious = max(malicious, 0)
	suspicious = max(suspicious, 0)
	harmless = max(harmless, 0)
	undetected = max(undetected, 0)

	total := max(malicious+suspicious+harmless+undetected, 1)
	weighted := float64(malicious) + suspiciousWeight*float64(suspicious)
	return heuristic.RoundScore(100 * weighted / float64(total))
}
