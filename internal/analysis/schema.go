package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"mirrormind/pkg/ai"
)

// PeriodInsights is the strict extraction schema for one time period. Item
// counts in the descriptions guide the model; they are not enforced.
type PeriodInsights struct {
	PeriodName              string   `json:"period_name" jsonschema_description:"Name of the time period"`
	StartDate               string   `json:"start_date" jsonschema_description:"Start date of this period in YYYY-MM-DD format"`
	EndDate                 string   `json:"end_date" jsonschema_description:"End date of this period in YYYY-MM-DD format"`
	PersonalityDuringPeriod string   `json:"personality_during_period" jsonschema_description:"Detailed analysis of their personality and behavior during this specific time period, with examples and evidence"`
	KeyEvents               []string `json:"key_events" jsonschema_description:"3-5 key events or patterns that characterized this period, with specific examples"`
	EmotionalState          string   `json:"emotional_state" jsonschema_description:"Their emotional landscape during this period, with evidence from their communication"`
	CommunicationPatterns   []string `json:"communication_patterns" jsonschema_description:"3-4 communication patterns that emerged during this period, with examples"`
	GrowthOrRegression      string   `json:"growth_or_regression" jsonschema_description:"Whether they showed growth, regression, or stability during this period, with evidence"`
	EmotionalTriggers       []string `json:"emotional_triggers" jsonschema_description:"3-5 emotional triggers or sensitive topics during this period, with situations and evidence"`
	CopingMechanisms        []string `json:"coping_mechanisms" jsonschema_description:"Coping strategies during this period, healthy and unhealthy, with examples"`
	TherapyGoals            []string `json:"therapy_goals" jsonschema_description:"3-4 therapy goals based on their patterns during this period, with reasoning"`
	GrowthAreas             []string `json:"growth_areas" jsonschema_description:"Areas where they need to grow during this period, honest but compassionate"`
}

// ProfileInsights is the single-pass extraction schema over a whole history.
type ProfileInsights struct {
	Personality             string   `json:"personality" jsonschema_description:"A comprehensive and bold personality analysis with specific examples and evidence from their communication"`
	CommunicationStyle      string   `json:"communication_style" jsonschema_description:"How they communicate, their unique voice and patterns, with actual quotes"`
	EmotionalState          string   `json:"emotional_state" jsonschema_description:"Current emotional landscape beneath the surface, with evidence from their words"`
	RelationshipPatterns    string   `json:"relationship_patterns" jsonschema_description:"How they relate to others, connection and disconnection, with interaction examples"`
	MainPatterns            []string `json:"main_patterns" jsonschema_description:"3-5 core behavioral patterns that define their way of being, with examples"`
	PersonalityTraits       []string `json:"personality_traits" jsonschema_description:"5-7 key personality traits, the good, the challenging, and the surprising"`
	EmotionalTriggers       []string `json:"emotional_triggers" jsonschema_description:"3-5 emotional triggers or sensitive topics, with situations and evidence"`
	CopingMechanisms        []string `json:"coping_mechanisms" jsonschema_description:"Current coping strategies, healthy and unhealthy, with examples"`
	TherapyGoals            []string `json:"therapy_goals" jsonschema_description:"3-4 therapy goals based on their patterns and needs, with reasoning"`
	GrowthAreas             []string `json:"growth_areas" jsonschema_description:"Areas where they need to grow, honest but compassionate, with examples"`
	Recommendations         []string `json:"recommendations" jsonschema_description:"Practical actionable recommendations for personal development"`
	CommunicationExamples   []string `json:"communication_examples" jsonschema_description:"5 realistic dialogue examples that capture their authentic voice, with context"`
	SelfReflectionQuestions []string `json:"self_reflection_questions" jsonschema_description:"Provocative questions for deep self-reflection, with why they matter"`
}

// TimelineInsights is the cross-period synthesis schema.
type TimelineInsights struct {
	MainCharacteristics         string           `json:"main_characteristics" jsonschema_description:"The core consistent characteristics across all time periods"`
	CommunicationStyle          string           `json:"communication_style" jsonschema_description:"How they communicate across all periods, with actual quotes"`
	EmotionalState              string           `json:"emotional_state" jsonschema_description:"Current emotional landscape with evidence from across all periods"`
	RelationshipPatterns        string           `json:"relationship_patterns" jsonschema_description:"How they relate to others, with interaction examples from across periods"`
	MainPatterns                []string         `json:"main_patterns" jsonschema_description:"3-5 core behavioral patterns across all periods, with examples"`
	PersonalityTraits           []string         `json:"personality_traits" jsonschema_description:"5-7 key personality traits with concrete examples from across periods"`
	EmotionalTriggers           []string         `json:"emotional_triggers" jsonschema_description:"3-5 emotional triggers with situations and evidence from across periods"`
	CopingMechanisms            []string         `json:"coping_mechanisms" jsonschema_description:"Coping strategies, healthy and unhealthy, with examples from across periods"`
	TherapyGoals                []string         `json:"therapy_goals" jsonschema_description:"3-4 therapy goals based on their patterns, with reasoning"`
	GrowthAreas                 []string         `json:"growth_areas" jsonschema_description:"Areas where they need to grow, with specific examples"`
	Recommendations             []string         `json:"recommendations" jsonschema_description:"Practical actionable recommendations for personal development"`
	OverallPersonalityEvolution string           `json:"overall_personality_evolution" jsonschema_description:"How their personality has evolved over time, with examples and evidence"`
	KeyTransformationPoints     []string         `json:"key_transformation_points" jsonschema_description:"3-5 critical moments or periods where significant changes occurred"`
	TimelinePeriods             []PeriodInsights `json:"timeline_periods" jsonschema_description:"Detailed analysis of each time period"`
	CommonThemes                []string         `json:"common_themes" jsonschema_description:"5-7 recurring themes throughout their timeline, with examples"`
	GrowthTrajectory            string           `json:"growth_trajectory" jsonschema_description:"Their overall growth trajectory, where they started and where they are now"`
	FuturePredictions           []string         `json:"future_predictions" jsonschema_description:"3-4 predictions about their future development based on their trajectory"`
	TimelineInsightsText        string           `json:"timeline_insights" jsonschema_description:"Deep insights about what their timeline reveals about their true nature"`
}

// ChatExample is a verbatim message echoed into the single-pass result. It is
// filled from the input, not by the model, so it lives outside the schema.
type ChatExample struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
	Date   string `json:"date"`
}

// ProfileResult is the single-pass analysis document as returned to clients.
type ProfileResult struct {
	ProfileInsights
	ActualChatExamples []ChatExample `json:"actual_chat_examples"`
}

// TimelineResult is the timeline analysis document as returned to clients.
// PeriodAnalyses repeats the per-period results in index order so callers can
// render period detail without digging into the synthesis.
type TimelineResult struct {
	TimelineInsights
	ProcessingType  string           `json:"processing_type"`
	TotalMessages   int              `json:"total_messages"`
	NumberOfPeriods int              `json:"number_of_periods"`
	PeriodAnalyses  []PeriodInsights `json:"period_analyses"`
}

// ProcessingTypeTimeline tags documents produced by the timeline branch.
const ProcessingTypeTimeline = "timeline"

var (
	periodSchema   = ai.GenerateSchema[PeriodInsights]()
	profileSchema  = ai.GenerateSchema[ProfileInsights]()
	timelineSchema = ai.GenerateSchema[TimelineInsights]()
)

type validator interface {
	validate() error
}

// decodeStrict parses model output into v, rejecting undeclared fields, then
// runs the schema's own mandatory-field checks. Failures are reported as
// ErrInvalidModelOutput with the cause preserved for diagnostics.
func decodeStrict(text string, v validator) error {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidModelOutput, err)
	}
	if err := v.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidModelOutput, err)
	}
	return nil
}

func (p *PeriodInsights) validate() error {
	if err := requireText(map[string]string{
		"period_name":               p.PeriodName,
		"personality_during_period": p.PersonalityDuringPeriod,
		"emotional_state":           p.EmotionalState,
		"growth_or_regression":      p.GrowthOrRegression,
	}); err != nil {
		return err
	}
	return requireLists(map[string][]string{
		"key_events":             p.KeyEvents,
		"communication_patterns": p.CommunicationPatterns,
		"emotional_triggers":     p.EmotionalTriggers,
		"coping_mechanisms":      p.CopingMechanisms,
		"therapy_goals":          p.TherapyGoals,
		"growth_areas":           p.GrowthAreas,
	})
}

func (p *ProfileInsights) validate() error {
	if err := requireText(map[string]string{
		"personality":           p.Personality,
		"communication_style":   p.CommunicationStyle,
		"emotional_state":       p.EmotionalState,
		"relationship_patterns": p.RelationshipPatterns,
	}); err != nil {
		return err
	}
	return requireLists(map[string][]string{
		"main_patterns":             p.MainPatterns,
		"personality_traits":        p.PersonalityTraits,
		"emotional_triggers":        p.EmotionalTriggers,
		"coping_mechanisms":         p.CopingMechanisms,
		"therapy_goals":             p.TherapyGoals,
		"growth_areas":              p.GrowthAreas,
		"recommendations":           p.Recommendations,
		"communication_examples":    p.CommunicationExamples,
		"self_reflection_questions": p.SelfReflectionQuestions,
	})
}

func (t *TimelineInsights) validate() error {
	if err := requireText(map[string]string{
		"main_characteristics":          t.MainCharacteristics,
		"communication_style":           t.CommunicationStyle,
		"emotional_state":               t.EmotionalState,
		"relationship_patterns":         t.RelationshipPatterns,
		"overall_personality_evolution": t.OverallPersonalityEvolution,
		"growth_trajectory":             t.GrowthTrajectory,
		"timeline_insights":             t.TimelineInsightsText,
	}); err != nil {
		return err
	}
	return requireLists(map[string][]string{
		"main_patterns":             t.MainPatterns,
		"personality_traits":        t.PersonalityTraits,
		"emotional_triggers":        t.EmotionalTriggers,
		"coping_mechanisms":         t.CopingMechanisms,
		"therapy_goals":             t.TherapyGoals,
		"growth_areas":              t.GrowthAreas,
		"recommendations":           t.Recommendations,
		"key_transformation_points": t.KeyTransformationPoints,
		"common_themes":             t.CommonThemes,
		"future_predictions":        t.FuturePredictions,
	})
}

func requireText(fields map[string]string) error {
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("missing required field %q", name)
		}
	}
	return nil
}

func requireLists(fields map[string][]string) error {
	for name, value := range fields {
		if value == nil {
			return fmt.Errorf("missing required list field %q", name)
		}
	}
	return nil
}
