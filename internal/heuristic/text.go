package heuristic

import (
	"regexp"
	"strings"

	"github.com/nao1215/riskscope/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Text heuristic weights.
const (
	firstURLWeight      = 15
	extraURLWeight      = 5
	urlContributionCap  = 40
	phishingPhraseBonus = 30
	exclamationWeight   = 2
	exclamationCap      = 10
	sensitiveTopicBonus = 10
)

// Label thresholds on the text heuristic score.
const (
	HeuristicMaliciousThreshold  = 70
	HeuristicSuspiciousThreshold = 35
)

// Label thresholds used when a classifier returns a score without a usable label.
const (
	ScoreMaliciousThreshold  = 70
	ScoreSuspiciousThreshold = 40
)

// urlPattern matches http(s) URLs and bare www. hosts.
var urlPattern = regexp.MustCompile(`(?i)(https?://[^\s]+)|(www\.[^\s]+)`)

// PhishingPhrases are phrases typical for credential phishing.
// Any match adds a flat bonus.
var PhishingPhrases = []string{
	"verify your account",
	"click here",
	"login",
	"account suspended",
	"reset your password",
	"confirm your identity",
	"unauthorized",
	"update your payment",
	"billing problem",
	"security alert",
	"verify identity",
	"provide your credentials",
}

// SensitiveTopics are topics that raise the score once each when mentioned.
var SensitiveTopics = []string{
	"bank",
	"password",
	"ssn",
	"social security",
	"paypal",
	"western union",
}

// TextSignals is the breakdown of the text heuristic.
type TextSignals struct {
	// Score is the clamped sum of all contributions.
	Score int

	URLs         []string
	Phrases      []string
	Topics       []string
	Exclamations int
}

// Normalize applies NFKC normalization so that full-width and other
// compatibility forms match the ASCII keyword tables.
func Normalize(text string) string {
	return norm.NFKC.String(text)
}

// Fold returns the Unicode case-folded form of s for caseless comparison.
// A new Caser is created per call because Casers are not safe for concurrent use.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// ExtractURLs returns every URL-like token in text in order of appearance.
// It never returns nil.
func ExtractURLs(text string) []string {
	found := urlPattern.FindAllString(Normalize(text), -1)
	if found == nil {
		return []string{}
	}
	return found
}

// ScoreText computes the keyword heuristic for free text.
// Empty input scores exactly 0.
func ScoreText(text string) TextSignals {
	normalized := Normalize(text)
	folded := Fold(normalized)

	signals := TextSignals{
		URLs: ExtractURLs(normalized),
	}

	score := 0

	if n := len(signals.URLs); n > 0 {
		score += min(firstURLWeight+extraURLWeight*(n-1), urlContributionCap)
	}

	for _, phrase := range PhishingPhrases {
		if strings.Contains(folded, phrase) {
			signals.Phrases = append(signals.Phrases, phrase)
		}
	}
	if len(signals.Phrases) > 0 {
		score += phishingPhraseBonus
	}

	signals.Exclamations = strings.Count(normalized, "!")
	score += min(signals.Exclamations*exclamationWeight, exclamationCap)

	for _, topic := range SensitiveTopics {
		if strings.Contains(folded, topic) {
			signals.Topics = append(signals.Topics, topic)
			score += sensitiveTopicBonus
		}
	}

	signals.Score = ClampScore(score)
	return signals
}

// LabelForHeuristic maps a text heuristic score to a label.
func LabelForHeuristic(score int) model.Label {
	switch {
	case score >= HeuristicMaliciousThreshold:
		return model.LabelMalicious
	case score >= HeuristicSuspiciousThreshold:
		return model.LabelSuspicious
	default:
		return model.LabelBenign
	}
}

// LabelForScore derives a label from a classifier score when the
// classifier did not provide a valid one.
func LabelForScore(score int) model.Label {
	switch {
	case score >= ScoreMaliciousThreshold:
		return model.LabelMalicious
	case score >= ScoreSuspiciousThreshold:
		return model.LabelSuspicious
	default:
		return model.LabelBenign
	}
}
