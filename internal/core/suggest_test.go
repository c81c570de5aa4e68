package core

import (
	"context"
	"reflect"
	"testing"

	"go.uber.org/zap"
)

func suggestionContext(intent string, confidence float64) *SuggestionContext {
	return &SuggestionContext{
		Request:            &DecisionRequest{UserID: "u1", Text: "hello"},
		Classification:     &IntentClassification{Intent: intent, Confidence: confidence, Source: "fallback"},
		Metrics:            NewAutoSendMetrics("u1"),
		Profile:            DefaultProfile("u1"),
		EffectiveThreshold: InitialThreshold,
	}
}

func TestGenerateCoreSuggestions(t *testing.T) {
	engine := NewSuggestionEngine(NewCrossModuleRouter(), zap.NewNop())

	tests := []struct {
		intent      string
		wantPrimary string
	}{
		{IntentReply, "draft_reply"},
		{IntentCompose, "draft_compose"},
		{IntentSummarize, "summarize_thread"},
		{IntentSchedule, "propose_times"},
		{IntentSearch, "search_mail"},
		{IntentTemplate, "save_template"},
		{IntentTranslate, "translate_message"},
		{IntentTone, "adjust_tone"},
		{IntentUnsubscribe, "unsubscribe"},
	}

	for _, tt := range tests {
		t.Run(tt.intent, func(t *testing.T) {
			result := engine.Generate(context.Background(), suggestionContext(tt.intent, 0.9))
			if result.PrimaryAction == nil {
				t.Fatal("PrimaryAction = nil")
			}
			if result.PrimaryAction.ID != tt.wantPrimary {
				t.Errorf("PrimaryAction.ID = %q, want %q", result.PrimaryAction.ID, tt.wantPrimary)
			}
		})
	}
}

func TestGenerateScheduleWithDates(t *testing.T) {
	engine := NewSuggestionEngine(NewCrossModuleRouter(), zap.NewNop())
	sctx := suggestionContext(IntentSchedule, 0.9)
	sctx.Request.Entities = &Entities{Dates: []string{"tomorrow"}}

	result := engine.Generate(context.Background(), sctx)
	if result.PrimaryAction == nil || result.PrimaryAction.ID != "add_to_calendar" {
		t.Fatalf("PrimaryAction = %+v, want add_to_calendar", result.PrimaryAction)
	}
	if result.PrimaryAction.Parameters["dates"] != "tomorrow" {
		t.Errorf("dates param = %q, want %q", result.PrimaryAction.Parameters["dates"], "tomorrow")
	}
}

func TestGenerateDeduplicatesByID(t *testing.T) {
	// Summarize intent on a deep thread: both the intent generator and the
	// contextual generator emit summarize_thread. The merged list must keep
	// one, with the intent generator's primary category winning.
	engine := NewSuggestionEngine(NewCrossModuleRouter(), zap.NewNop())
	sctx := suggestionContext(IntentSummarize, 0.9)
	sctx.Request.ThreadDepth = 8

	result := engine.Generate(context.Background(), sctx)

	count := 0
	for _, s := range result.Suggestions {
		if s.ID == "summarize_thread" {
			count++
			if s.Category != CategoryPrimary {
				t.Errorf("Category = %q, want %q", s.Category, CategoryPrimary)
			}
		}
	}
	if count != 1 {
		t.Errorf("summarize_thread appears %d times, want 1", count)
	}
}

func TestGenerateOrderIndependent(t *testing.T) {
	sctx := func() *SuggestionContext {
		c := suggestionContext(IntentReply, 0.9)
		c.Request.Text = "reply about the flight and hotel booking for our trip"
		c.Request.ThreadDepth = 8
		c.Request.ParticipantCount = 5
		c.Request.Entities = &Entities{Urgent: true, Dates: []string{"tomorrow"}}
		c.Trust = &ContactTrustRecord{ContactEmail: "a@example.com", TrustScore: 0.9, CommunicationFrequency: 20}
		return c
	}

	natural := NewSuggestionEngine(NewCrossModuleRouter(), zap.NewNop())
	reversed := NewSuggestionEngine(NewCrossModuleRouter(), zap.NewNop())
	reversed.spawnOrder = []int{3, 2, 1, 0}

	for i := 0; i < 10; i++ {
		a := natural.Generate(context.Background(), sctx())
		b := reversed.Generate(context.Background(), sctx())
		if !reflect.DeepEqual(a.Suggestions, b.Suggestions) {
			t.Fatalf("suggestion order depends on goroutine scheduling:\n%+v\nvs\n%+v", a.Suggestions, b.Suggestions)
		}
	}
}

func TestGenerateBoundedSuggestionCount(t *testing.T) {
	engine := NewSuggestionEngine(NewCrossModuleRouter(), zap.NewNop())
	sctx := suggestionContext(IntentReply, 0.9)
	sctx.Request.Text = "reply about the flight hotel booking trip itinerary to buy the product order"
	sctx.Request.ThreadDepth = 10
	sctx.Request.ParticipantCount = 6
	sctx.Request.HasDraft = true
	sctx.Request.UserSignature = "-- C"
	sctx.Request.Entities = &Entities{Urgent: true, Dates: []string{"tomorrow"}}
	sctx.Trust = &ContactTrustRecord{ContactEmail: "a@example.com", TrustScore: 0.95}
	sctx.EffectiveThreshold = 0.75

	result := engine.Generate(context.Background(), sctx)
	if len(result.Suggestions) > maxSuggestions {
		t.Errorf("len(Suggestions) = %d, want at most %d", len(result.Suggestions), maxSuggestions)
	}
}

func TestGeneratePersonalizedAutoSend(t *testing.T) {
	engine := NewSuggestionEngine(NewCrossModuleRouter(), zap.NewNop())

	t.Run("offered for trusted contact", func(t *testing.T) {
		sctx := suggestionContext(IntentReply, 0.9)
		sctx.Trust = &ContactTrustRecord{ContactEmail: "a@example.com", TrustScore: 0.9}
		sctx.EffectiveThreshold = 0.8

		result := engine.Generate(context.Background(), sctx)
		if !hasSuggestion(result.Suggestions, "enable_auto_send") {
			t.Errorf("enable_auto_send missing from %+v", result.Suggestions)
		}
	})

	t.Run("withheld below trust floor", func(t *testing.T) {
		sctx := suggestionContext(IntentReply, 0.9)
		sctx.Trust = &ContactTrustRecord{ContactEmail: "a@example.com", TrustScore: 0.5}
		sctx.EffectiveThreshold = 0.8

		result := engine.Generate(context.Background(), sctx)
		if hasSuggestion(result.Suggestions, "enable_auto_send") {
			t.Error("enable_auto_send offered for low-trust contact")
		}
	})

	t.Run("withheld for unknown contact", func(t *testing.T) {
		sctx := suggestionContext(IntentReply, 0.99)

		result := engine.Generate(context.Background(), sctx)
		if hasSuggestion(result.Suggestions, "enable_auto_send") {
			t.Error("enable_auto_send offered without trust record")
		}
	})
}

func TestGeneratePanicFallback(t *testing.T) {
	// A nil request makes three of the four generators dereference nil
	// inside their goroutines. The panic must stay contained and the
	// engine must return the static per-intent fallback.
	engine := NewSuggestionEngine(NewCrossModuleRouter(), zap.NewNop())
	sctx := suggestionContext(IntentReply, 0.9)
	sctx.Request = nil

	result := engine.Generate(context.Background(), sctx)
	if result == nil {
		t.Fatal("Generate() = nil after generator panic")
	}
	if len(result.Suggestions) != 1 || result.Suggestions[0].ID != "draft_reply" {
		t.Fatalf("fallback Suggestions = %+v, want only draft_reply", result.Suggestions)
	}
	if result.Suggestions[0].Confidence != 0.5 {
		t.Errorf("fallback Confidence = %v, want 0.5", result.Suggestions[0].Confidence)
	}
	if result.PrimaryAction == nil || result.PrimaryAction.ID != "draft_reply" {
		t.Errorf("PrimaryAction = %+v, want draft_reply", result.PrimaryAction)
	}
}

func TestGeneratePanicFallbackUnknownIntent(t *testing.T) {
	engine := NewSuggestionEngine(NewCrossModuleRouter(), zap.NewNop())
	sctx := suggestionContext(IntentAssistance, 0.6)
	sctx.Request = nil

	result := engine.Generate(context.Background(), sctx)
	if len(result.Suggestions) != 1 || result.Suggestions[0].ID != "show_capabilities" {
		t.Errorf("fallback Suggestions = %+v, want only show_capabilities", result.Suggestions)
	}
}

func TestPickPrimary(t *testing.T) {
	t.Run("prefers primary category", func(t *testing.T) {
		suggestions := []ActionSuggestion{
			{ID: "a", Category: CategorySecondary, Confidence: 0.9},
			{ID: "b", Category: CategoryPrimary, Confidence: 0.5},
		}
		got := pickPrimary(suggestions)
		if got == nil || got.ID != "b" {
			t.Errorf("pickPrimary() = %+v, want b", got)
		}
	})

	t.Run("falls back to top item", func(t *testing.T) {
		suggestions := []ActionSuggestion{
			{ID: "a", Category: CategorySecondary, Confidence: 0.9},
		}
		got := pickPrimary(suggestions)
		if got == nil || got.ID != "a" {
			t.Errorf("pickPrimary() = %+v, want a", got)
		}
	})

	t.Run("empty list", func(t *testing.T) {
		if got := pickPrimary(nil); got != nil {
			t.Errorf("pickPrimary(nil) = %+v, want nil", got)
		}
	})
}

func TestMergeSuggestionsOrdering(t *testing.T) {
	slots := [][]ActionSuggestion{
		{{ID: "cross", Category: CategoryCrossModule, Confidence: 0.99}},
		{{ID: "ctx", Category: CategoryContextual, Confidence: 0.9}},
		{{ID: "low", Category: CategoryPrimary, Confidence: 0.5}},
		{{ID: "high", Category: CategoryPrimary, Confidence: 0.8}},
	}

	merged := mergeSuggestions(slots)
	wantOrder := []string{"high", "low", "ctx", "cross"}
	for i, want := range wantOrder {
		if merged[i].ID != want {
			t.Errorf("merged[%d].ID = %q, want %q", i, merged[i].ID, want)
		}
	}
}

func hasSuggestion(suggestions []ActionSuggestion, id string) bool {
	for _, s := range suggestions {
		if s.ID == id {
			return true
		}
	}
	return false
}
