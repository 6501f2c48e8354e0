// Package output renders discovered rules and the run summary. It is
// extendable and for now provides three formats: JSON, human-readable and
// summary-only.
package output

import (
	"fmt"
	"strings"

	"github.com/Fran-cois/MATILDA/internal/discover"
	"github.com/Fran-cois/MATILDA/internal/rule"
)

// Format is an enum type representing the available output formats.
type Format string

const (
	FormatJSON    Format = "json"
	FormatHuman   Format = "human"
	FormatSummary Format = "summary"
)

// Formatter renders a finished run: the emitted rules plus the summary.
type Formatter interface {
	Format(rules []*rule.TGD, summary *discover.Summary) (string, error)
}

// NewFormatter creates a Formatter by name. If no format is specified,
// defaults to the human-readable format.
func NewFormatter(name string) (Formatter, error) {
	format := Format(strings.ToLower(strings.TrimSpace(name)))
	switch format {
	case "", FormatHuman:
		return humanFormatter{}, nil
	case FormatJSON:
		return jsonFormatter{}, nil
	case FormatSummary:
		return summaryFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s; use 'json', 'human', or 'summary'", name)
	}
}
