package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"mirrormind/pkg/ai"
	"mirrormind/pkg/domain"
)

// fakeModel returns canned responses and records what it was asked.
type fakeModel struct {
	structuredText string
	structuredErr  error
	completeText   string
	completeErr    error

	structuredReqs []ai.StructuredRequest
	completeCalls  int
}

func (f *fakeModel) StructuredComplete(_ context.Context, req ai.StructuredRequest) (string, error) {
	f.structuredReqs = append(f.structuredReqs, req)
	return f.structuredText, f.structuredErr
}

func (f *fakeModel) Complete(_ context.Context, _, _ string) (string, error) {
	f.completeCalls++
	return f.completeText, f.completeErr
}

func validProfileJSON(t *testing.T) string {
	t.Helper()
	p := ProfileInsights{
		Personality:             "curious and guarded",
		CommunicationStyle:      "short bursts",
		EmotionalState:          "restless",
		RelationshipPatterns:    "keeps distance",
		MainPatterns:            []string{"deflects with humor"},
		PersonalityTraits:       []string{"witty"},
		EmotionalTriggers:       []string{"criticism"},
		CopingMechanisms:        []string{"work"},
		TherapyGoals:            []string{"open up"},
		GrowthAreas:             []string{"vulnerability"},
		Recommendations:         []string{"journal"},
		CommunicationExamples:   []string{"sure, whatever works"},
		SelfReflectionQuestions: []string{"what am I avoiding?"},
	}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal profile fixture: %v", err)
	}
	return string(b)
}

func validPeriodJSON(t *testing.T) string {
	t.Helper()
	p := PeriodInsights{
		PeriodName:              "Quiet spring",
		StartDate:               "2025-03-01",
		EndDate:                 "2025-04-30",
		PersonalityDuringPeriod: "withdrawn",
		KeyEvents:               []string{"moved city"},
		EmotionalState:          "subdued",
		CommunicationPatterns:   []string{"one-word replies"},
		GrowthOrRegression:      "regression",
		EmotionalTriggers:       []string{"deadlines"},
		CopingMechanisms:        []string{"running"},
		TherapyGoals:            []string{"reconnect"},
		GrowthAreas:             []string{"expression"},
	}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal period fixture: %v", err)
	}
	return string(b)
}

func sampleMessages(n int) []domain.Message {
	msgs := make([]domain.Message, 0, n)
	for i := 0; i < n; i++ {
		msgs = append(msgs, domain.Message{Sender: "Ann", Text: "message text", Date: "2025-04-01"})
	}
	return msgs
}

func TestAnalyzeProfile(t *testing.T) {
	model := &fakeModel{structuredText: validProfileJSON(t)}
	result, err := AnalyzeProfile(context.Background(), model, ProfileRequest{
		PersonName: "Ann",
		Language:   LangEnglish,
		Messages:   sampleMessages(3),
	})
	if err != nil {
		t.Fatalf("AnalyzeProfile: %v", err)
	}
	if result.Personality != "curious and guarded" {
		t.Errorf("personality = %q", result.Personality)
	}
	if len(result.ActualChatExamples) != 3 {
		t.Errorf("got %d chat examples, want 3", len(result.ActualChatExamples))
	}
	if len(model.structuredReqs) != 1 {
		t.Fatalf("got %d model calls, want 1", len(model.structuredReqs))
	}
	req := model.structuredReqs[0]
	if req.SchemaName != "ProfileAnalysis" {
		t.Errorf("schema name = %q", req.SchemaName)
	}
	if req.Temperature != analysisTemperature {
		t.Errorf("temperature = %v", req.Temperature)
	}
	if !strings.Contains(req.UserPrompt, "Ann: message text") {
		t.Errorf("user prompt is missing joined messages:\n%s", req.UserPrompt)
	}
}

func TestAnalyzeProfileChatExamplesCapped(t *testing.T) {
	msgs := sampleMessages(50)
	msgs[1].Text = "   "
	msgs[2].Sender = ""

	model := &fakeModel{structuredText: validProfileJSON(t)}
	result, err := AnalyzeProfile(context.Background(), model, ProfileRequest{PersonName: "Ann", Language: LangEnglish, Messages: msgs})
	if err != nil {
		t.Fatalf("AnalyzeProfile: %v", err)
	}
	if len(result.ActualChatExamples) != maxChatExamples {
		t.Fatalf("got %d examples, want %d", len(result.ActualChatExamples), maxChatExamples)
	}
	for _, ex := range result.ActualChatExamples {
		if strings.TrimSpace(ex.Text) == "" {
			t.Errorf("blank message leaked into examples")
		}
		if ex.Sender == "" {
			t.Errorf("example sender not defaulted")
		}
	}
}

func TestAnalyzeProfileDegenerateOutput(t *testing.T) {
	missingField := validPeriodJSON(t) // valid JSON, wrong document shape
	cases := []struct {
		name    string
		text    string
		callErr error
		wantErr error
	}{
		{"call error", "", errors.New("boom"), nil},
		{"empty text", "   ", nil, ErrEmptyModelResponse},
		{"not json", "the analysis is as follows", nil, ErrInvalidModelOutput},
		{"wrong shape", missingField, nil, ErrInvalidModelOutput},
		{"blank required field", `{"personality":""}`, nil, ErrInvalidModelOutput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			model := &fakeModel{structuredText: tc.text, structuredErr: tc.callErr}
			_, err := AnalyzeProfile(context.Background(), model, ProfileRequest{PersonName: "Ann", Language: LangEnglish, Messages: sampleMessages(1)})
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if tc.callErr != nil && !strings.Contains(err.Error(), "boom") {
				t.Fatalf("call error not preserved: %v", err)
			}
		})
	}
}

func TestAnalyzePeriod(t *testing.T) {
	period := Period{
		Index:    1,
		Label:    "Второй период",
		Start:    time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC),
		Messages: sampleMessages(2),
	}
	model := &fakeModel{structuredText: validPeriodJSON(t)}
	insights, err := AnalyzePeriod(context.Background(), model, PeriodRequest{PersonName: "Ann", Language: LangRussian, Period: period})
	if err != nil {
		t.Fatalf("AnalyzePeriod: %v", err)
	}
	if insights.PeriodName != "Quiet spring" {
		t.Errorf("period name = %q", insights.PeriodName)
	}
	if len(model.structuredReqs) != 1 {
		t.Fatalf("got %d model calls, want 1", len(model.structuredReqs))
	}
	if model.structuredReqs[0].SchemaName != "PeriodAnalysis" {
		t.Errorf("schema name = %q", model.structuredReqs[0].SchemaName)
	}
	if !strings.Contains(model.structuredReqs[0].UserPrompt, "Март 2025") {
		t.Errorf("user prompt is missing localized period dates:\n%s", model.structuredReqs[0].UserPrompt)
	}
}

func TestAnalyzePeriodEmptyWindowSkipsModel(t *testing.T) {
	period := Period{
		Index: 1,
		Label: "Средний период",
		Start: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC),
	}
	model := &fakeModel{}
	insights, err := AnalyzePeriod(context.Background(), model, PeriodRequest{PersonName: "Ann", Language: LangRussian, Period: period})
	if err != nil {
		t.Fatalf("AnalyzePeriod: %v", err)
	}
	if len(model.structuredReqs) != 0 {
		t.Fatalf("empty period triggered %d model calls", len(model.structuredReqs))
	}
	if insights.PeriodName != period.Label {
		t.Errorf("stub period name = %q", insights.PeriodName)
	}
	if insights.StartDate != "2025-03-01" || insights.EndDate != "2025-04-30" {
		t.Errorf("stub dates = %q..%q", insights.StartDate, insights.EndDate)
	}
	if insights.PersonalityDuringPeriod != "Нет сообщений за этот период." {
		t.Errorf("stub note = %q", insights.PersonalityDuringPeriod)
	}
	if insights.KeyEvents == nil || insights.TherapyGoals == nil {
		t.Errorf("stub lists must be empty, not nil")
	}
}

func TestJoinMessagesDefaultsSender(t *testing.T) {
	got := joinMessages([]domain.Message{
		{Sender: "Ann", Text: "hello"},
		{Text: "no sender"},
	})
	want := "Ann: hello\nUser: no sender"
	if got != want {
		t.Fatalf("joinMessages = %q, want %q", got, want)
	}
}
