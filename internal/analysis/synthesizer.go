package analysis

import (
	"context"
	"fmt"
	"strings"

	"mirrormind/pkg/ai"
)

// SynthesizeTimeline folds the ordered per-period results into one
// cross-period evolution narrative via a single structured extraction.
func SynthesizeTimeline(ctx context.Context, client ModelClient, personName, lang string, periods []PeriodInsights) (TimelineInsights, error) {
	text, err := client.StructuredComplete(ctx, ai.StructuredRequest{
		SystemPrompt: timelineSystemPrompt(lang),
		UserPrompt:   timelineUserPrompt(personName, periodsDigest(periods)),
		SchemaName:   "TimelineAnalysis",
		Schema:       timelineSchema,
		Temperature:  analysisTemperature,
	})
	if err != nil {
		return TimelineInsights{}, fmt.Errorf("timeline synthesis: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return TimelineInsights{}, ErrEmptyModelResponse
	}
	var insights TimelineInsights
	if err := decodeStrict(text, &insights); err != nil {
		return TimelineInsights{}, err
	}
	return insights, nil
}

// periodsDigest renders each period result as a compact textual block; list
// fields are comma-joined for prompt economy.
func periodsDigest(periods []PeriodInsights) string {
	blocks := make([]string, 0, len(periods))
	for _, p := range periods {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Period: %s (%s - %s)\n", p.PeriodName, p.StartDate, p.EndDate)
		fmt.Fprintf(&sb, "Personality: %s\n", p.PersonalityDuringPeriod)
		fmt.Fprintf(&sb, "Key Events: %s\n", strings.Join(p.KeyEvents, ", "))
		fmt.Fprintf(&sb, "Emotional State: %s\n", p.EmotionalState)
		fmt.Fprintf(&sb, "Communication Patterns: %s\n", strings.Join(p.CommunicationPatterns, ", "))
		fmt.Fprintf(&sb, "Emotional Triggers: %s\n", strings.Join(p.EmotionalTriggers, ", "))
		fmt.Fprintf(&sb, "Coping Mechanisms: %s\n", strings.Join(p.CopingMechanisms, ", "))
		fmt.Fprintf(&sb, "Therapy Goals: %s\n", strings.Join(p.TherapyGoals, ", "))
		fmt.Fprintf(&sb, "Growth Areas: %s\n", strings.Join(p.GrowthAreas, ", "))
		fmt.Fprintf(&sb, "Growth/Regression: %s", p.GrowthOrRegression)
		blocks = append(blocks, sb.String())
	}
	return strings.Join(blocks, "\n\n")
}
