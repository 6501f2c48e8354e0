package output

import (
	"encoding/json"

	"github.com/Fran-cois/MATILDA/internal/discover"
	"github.com/Fran-cois/MATILDA/internal/rule"
)

type jsonFormatter struct{}

type jsonPayload struct {
	Format  string            `json:"format"`
	Rules   []*rule.TGD       `json:"rules"`
	Summary *discover.Summary `json:"summary"`
}

func (jsonFormatter) Format(rules []*rule.TGD, summary *discover.Summary) (string, error) {
	payload := jsonPayload{Format: string(FormatJSON), Rules: rules, Summary: summary}
	if payload.Rules == nil {
		payload.Rules = []*rule.TGD{}
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
