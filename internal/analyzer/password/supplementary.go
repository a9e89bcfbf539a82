package password

import (
	"github.com/nbutton23/zxcvbn-go"

	"github.com/nao1215/riskscope/internal/model"
)

// StrengthScorer is an optional secondary strength estimator.
// Its output is reported alongside the findings and never affects the risk score.
type StrengthScorer interface {
	Strength(password string) model.SupplementaryStrength
}

// maxZxcvbnLen bounds the input handed to zxcvbn, whose matching cost grows
// quickly with length.
const maxZxcvbnLen = 100

// Zxcvbn scores passwords with the zxcvbn pattern matcher.
type Zxcvbn struct{}

// Strength implements StrengthScorer.
func (Zxcvbn) Strength(password string) model.SupplementaryStrength {
	if r := []rune(password); len(r) > maxZxcvbnLen {
		password = string(r[:maxZxcvbnLen])
	}
	m := zxcvbn.PasswordStrength(password, nil)
	return model.SupplementaryStrength{
		Scorer:    "zxcvbn",
		Score:     m.Score,
		Entropy:   m.Entropy,
		CrackTime: m.CrackTimeDisplay,
	}
}
