package analysis

import (
	"context"
	"fmt"
	"strings"

	"mirrormind/pkg/ai"
	"mirrormind/pkg/domain"
)

const analysisTemperature = 0.7

// Up to this many verbatim messages are echoed into single-pass results.
const maxChatExamples = 20

// ProfileRequest is the input for the single-pass analysis over a whole
// message set.
type ProfileRequest struct {
	PersonName string
	Language   string
	Messages   []domain.Message
}

// AnalyzeProfile runs one structured extraction over the full history and
// attaches up to 20 verbatim conversation examples from the input.
func AnalyzeProfile(ctx context.Context, client ModelClient, req ProfileRequest) (ProfileResult, error) {
	text, err := client.StructuredComplete(ctx, ai.StructuredRequest{
		SystemPrompt: profileSystemPrompt(req.Language),
		UserPrompt:   profileUserPrompt(req.PersonName, joinMessages(req.Messages)),
		SchemaName:   "ProfileAnalysis",
		Schema:       profileSchema,
		Temperature:  analysisTemperature,
	})
	if err != nil {
		return ProfileResult{}, fmt.Errorf("profile analysis: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return ProfileResult{}, ErrEmptyModelResponse
	}
	var insights ProfileInsights
	if err := decodeStrict(text, &insights); err != nil {
		return ProfileResult{}, err
	}
	return ProfileResult{
		ProfileInsights:    insights,
		ActualChatExamples: chatExamples(req.Messages),
	}, nil
}

// PeriodRequest is the input for one per-period extraction.
type PeriodRequest struct {
	PersonName string
	Language   string
	Period     Period
}

// AnalyzePeriod runs one structured extraction over a single period. A
// period without messages is answered with a minimal stub instead of a model
// call, so sparse windows do not fail the job.
func AnalyzePeriod(ctx context.Context, client ModelClient, req PeriodRequest) (PeriodInsights, error) {
	if len(req.Period.Messages) == 0 {
		return emptyPeriodStub(req.Period, req.Language), nil
	}
	text, err := client.StructuredComplete(ctx, ai.StructuredRequest{
		SystemPrompt: periodSystemPrompt(req.Language),
		UserPrompt:   periodUserPrompt(req.PersonName, req.Period, req.Language, joinMessages(req.Period.Messages)),
		SchemaName:   "PeriodAnalysis",
		Schema:       periodSchema,
		Temperature:  analysisTemperature,
	})
	if err != nil {
		return PeriodInsights{}, fmt.Errorf("period analysis: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return PeriodInsights{}, ErrEmptyModelResponse
	}
	var insights PeriodInsights
	if err := decodeStrict(text, &insights); err != nil {
		return PeriodInsights{}, err
	}
	return insights, nil
}

func emptyPeriodStub(period Period, lang string) PeriodInsights {
	note := "Нет сообщений за этот период."
	if lang == LangEnglish {
		note = "No messages in this period."
	}
	return PeriodInsights{
		PeriodName:              period.Label,
		StartDate:               period.Start.Format("2006-01-02"),
		EndDate:                 period.End.Format("2006-01-02"),
		PersonalityDuringPeriod: note,
		KeyEvents:               []string{},
		EmotionalState:          note,
		CommunicationPatterns:   []string{},
		GrowthOrRegression:      note,
		EmotionalTriggers:       []string{},
		CopingMechanisms:        []string{},
		TherapyGoals:            []string{},
		GrowthAreas:             []string{},
	}
}

// joinMessages renders messages as "Sender: text" lines in input order.
func joinMessages(messages []domain.Message) string {
	var sb strings.Builder
	for i, msg := range messages {
		if i > 0 {
			sb.WriteString("\n")
		}
		sender := msg.Sender
		if sender == "" {
			sender = "User"
		}
		sb.WriteString(sender)
		sb.WriteString(": ")
		sb.WriteString(msg.Text)
	}
	return sb.String()
}

func chatExamples(messages []domain.Message) []ChatExample {
	examples := make([]ChatExample, 0, maxChatExamples)
	for _, msg := range messages {
		if len(examples) == maxChatExamples {
			break
		}
		if strings.TrimSpace(msg.Text) == "" {
			continue
		}
		sender := msg.Sender
		if sender == "" {
			sender = "User"
		}
		examples = append(examples, ChatExample{Sender: sender, Text: msg.Text, Date: msg.Date})
	}
	return examples
}
