package dispatch

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nao1215/riskscope/internal/model"
)

// taggedInput is the wire form of a routed input. The value is read from
// the field named after the type, or from payload.
type taggedInput struct {
	Type     string  `json:"type"`
	URL      *string `json:"url"`
	Password *string `json:"password"`
	Text     *string `json:"text"`
	Payload  *string `json:"payload"`
}

// ParseTaggedInput decodes a tagged input such as
// {"type":"password","password":"..."} into a model.Input.
func ParseTaggedInput(data []byte) (model.Input, error) {
	var t taggedInput
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	kind, ok := model.ParseKind(t.Type)
	if !ok {
		return nil, &UnknownTypeError{Type: t.Type}
	}

	var value *string
	switch kind {
	case model.KindURL:
		value = t.URL
	case model.KindPassword:
		value = t.Password
	case model.KindText:
		value = t.Text
	}
	if value == nil {
		value = t.Payload
	}
	if value == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingPayload, kind)
	}

	return NewInput(kind, *value)
}

// NewInput builds the model.Input for kind. URLs are trimmed and must not
// be blank; passwords and texts are kept byte for byte.
func NewInput(kind model.Kind, value string) (model.Input, error) {
	switch kind {
	case model.KindURL:
		u := strings.TrimSpace(value)
		if u == "" {
			return nil, fmt.Errorf("%w: url is blank", ErrInvalidInput)
		}
		return model.URLInput{URL: u}, nil
	case model.KindPassword:
		return model.PasswordInput{Password: value}, nil
	case model.KindText:
		return model.TextInput{Text: value}, nil
	default:
		return nil, &UnknownTypeError{Type: string(kind)}
	}
}
