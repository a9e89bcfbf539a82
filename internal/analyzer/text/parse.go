package text

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/nao1215/riskscope/internal/heuristic"
	"github.com/nao1215/riskscope/internal/model"
)

const (
	// defaultReplyScore is used when an unstructured reply carries no number.
	defaultReplyScore = 50

	// maxReasonRunes bounds the reason taken from an unstructured reply.
	maxReasonRunes = 200
)

var firstNumber = regexp.MustCompile(`\d{1,3}`)

type replyPayload struct {
	Label     string          `json:"label"`
	Reason    string          `json:"reason"`
	RiskScore json.RawMessage `json:"risk_score"`
}

// ParseReply extracts a Verdict from a free-form model reply.
//
// When the reply contains a {...} substring it must decode as an object
// with label, reason and risk_score. Otherwise the label is the first of
// malicious or suspicious mentioned in the reply (benign if neither), the
// score is the first number in the reply (50 if none), and the reason is the
// trimmed reply itself. The score is always clamped to [0,100] and a missing
// or unknown label is derived from the score.
func ParseReply(content string) (Verdict, error) {
	var v Verdict

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end > start {
		var p replyPayload
		if err := json.Unmarshal([]byte(content[start:end+1]), &p); err != nil {
			return Verdict{}, fmt.Errorf("%w: %w", ErrInvalidReply, err)
		}
		score, err := parseScore(p.RiskScore)
		if err != nil {
			return Verdict{}, err
		}
		v = Verdict{
			Label:  model.Label(strings.ToLower(strings.TrimSpace(p.Label))),
			Score:  score,
			Reason: p.Reason,
		}
	} else {
		v = parseUnstructured(content)
	}

	v.Score = heuristic.ClampScore(v.Score)
	if _, ok := model.ParseLabel(string(v.Label)); !ok {
		v.Label = heuristic.LabelForScore(v.Score)
	}
	return v, nil
}

// parseScore accepts an integer, a float (truncated) or a numeric string.
// A missing or null score is 0.
func parseScore(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, nil
		}
		return int(max(min(f, math.MaxInt32), math.MinInt32)), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("%w: risk_score %s", ErrInvalidReply, raw)
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: risk_score %q", ErrInvalidReply, s)
	}
	return n, nil
}

func parseUnstructured(content string) Verdict {
	trimmed := strings.TrimSpace(content)
	lower := strings.ToLower(trimmed)

	label := model.LabelBenign
	switch {
	case strings.Contains(lower, string(model.LabelMalicious)):
		label = model.LabelMalicious
	case strings.Contains(lower, string(model.LabelSuspicious)):
		label = model.LabelSuspicious
	}

	score := defaultReplyScore
	if m := firstNumber.FindString(trimmed); m != "" {
		score, _ = strconv.Atoi(m)
	}

	reason := trimmed
	if r := []rune(reason); len(r) > maxReasonRunes {
		reason = string(r[:maxReasonRunes])
	}

	return Verdict{Label: label, Score: score, Reason: reason}
}
