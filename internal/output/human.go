package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Fran-cois/MATILDA/internal/discover"
	"github.com/Fran-cois/MATILDA/internal/rule"
)

type humanFormatter struct{}

func (humanFormatter) Format(rules []*rule.TGD, summary *discover.Summary) (string, error) {
	var b strings.Builder

	if len(rules) == 0 {
		b.WriteString("No rules discovered.\n")
	}
	for i, r := range rules {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, r.Display)
		fmt.Fprintf(&b, "    support=%.3f confidence=%.3f accuracy=%.0f\n",
			r.Support, r.Confidence, r.Accuracy)
	}

	b.WriteString(renderSummary(summary))
	return b.String(), nil
}

type summaryFormatter struct{}

func (summaryFormatter) Format(_ []*rule.TGD, summary *discover.Summary) (string, error) {
	return renderSummary(summary), nil
}

func renderSummary(s *discover.Summary) string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n=== Run summary ===\n")
	fmt.Fprintf(&b, "run:        %s\n", s.RunID)
	fmt.Fprintf(&b, "database:   %s\n", s.Database)
	fmt.Fprintf(&b, "strategy:   %s", s.Strategy)
	if s.Heuristic != "" {
		fmt.Fprintf(&b, " (heuristic %s)", s.Heuristic)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "considered: %d\n", s.RulesConsidered)
	fmt.Fprintf(&b, "emitted:    %d\n", s.RulesEmitted)

	if len(s.RulesSkipped) > 0 {
		reasons := make([]string, 0, len(s.RulesSkipped))
		for r := range s.RulesSkipped {
			reasons = append(reasons, r)
		}
		sort.Strings(reasons)
		b.WriteString("skipped:\n")
		for _, r := range reasons {
			fmt.Fprintf(&b, "  %-16s %d\n", r, s.RulesSkipped[r])
		}
	}
	if s.Cancelled {
		b.WriteString("status:     cancelled\n")
	}
	if s.GraphEmpty {
		b.WriteString("status:     constraint graph empty\n")
	}
	if s.Downgraded {
		b.WriteString("note:       best-first frontier overflowed, finished depth-first\n")
	}
	return b.String()
}
