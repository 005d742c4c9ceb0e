package analysis

import (
	"context"
	"fmt"
	"strings"
)

// NamingOutcome reports whether model labels were applied or the fallback
// labels were kept, and why.
type NamingOutcome struct {
	Labels   []string
	Fallback bool
	Reason   string
}

// NamePeriods asks the model for one short label per period in a single
// batched call carrying only date ranges and message counts. Any degradation
// (a failed call or a label/period count mismatch) keeps the fallback
// labels; this stage never fails a job.
func NamePeriods(ctx context.Context, client ModelClient, personName, lang string, periods []Period) NamingOutcome {
	if len(periods) == 0 {
		return NamingOutcome{Fallback: true, Reason: "no periods to name"}
	}
	text, err := client.Complete(ctx, namerSystemPrompt(lang), namerUserPrompt(personName, lang, periods))
	if err != nil {
		return NamingOutcome{Fallback: true, Reason: err.Error()}
	}
	labels := splitLabels(text)
	if len(labels) != len(periods) {
		return NamingOutcome{Fallback: true, Reason: fmt.Sprintf("got %d labels for %d periods", len(labels), len(periods))}
	}
	return NamingOutcome{Labels: labels}
}

// ApplyNaming overwrites period labels in place when the outcome carries
// model labels; a fallback outcome is a no-op.
func ApplyNaming(periods []Period, outcome NamingOutcome) {
	if outcome.Fallback {
		return
	}
	for i := range periods {
		if i < len(outcome.Labels) {
			periods[i].Label = outcome.Labels[i]
		}
	}
}

func splitLabels(text string) []string {
	lines := strings.Split(text, "\n")
	labels := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		labels = append(labels, line)
	}
	return labels
}
