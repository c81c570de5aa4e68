package core

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestService(store ProfileStore) *DecisionService {
	logger := zap.NewNop()
	classifier := NewIntentClassifier(logger, time.Second, NewFallbackClassifier(nil))
	engine := NewSuggestionEngine(NewCrossModuleRouter(), logger)
	controller := NewThresholdController(store, nil, logger)
	return NewDecisionService(classifier, engine, controller, store, logger)
}

func TestDecideEndToEnd(t *testing.T) {
	store := newFakeStore()
	service := newTestService(store)

	resp, err := service.Decide(context.Background(), &DecisionRequest{
		UserID: "u1",
		Text:   "Can you reply to this message?",
	})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}

	if resp.Intent.Intent != IntentReply {
		t.Errorf("Intent = %q, want %q", resp.Intent.Intent, IntentReply)
	}
	if resp.PrimaryAction == nil || resp.PrimaryAction.ID != "draft_reply" {
		t.Errorf("PrimaryAction = %+v, want draft_reply", resp.PrimaryAction)
	}
	if resp.ProcessingID == "" {
		t.Error("ProcessingID not assigned")
	}
	if resp.AutoSend != nil {
		t.Error("AutoSend attached without a candidate action")
	}
}

func TestDecideAutoSendEligible(t *testing.T) {
	store := newFakeStore()
	// Trusted contact lowers the effective threshold to 0.81; fallback
	// reply confidence 0.9 clears it.
	store.trust["u1/a@example.com"] = &ContactTrustRecord{
		UserID: "u1", ContactEmail: "a@example.com", TrustScore: 0.9, Version: 1,
	}
	service := newTestService(store)

	resp, err := service.Decide(context.Background(), &DecisionRequest{
		UserID:       "u1",
		Text:         "Please reply to Sarah",
		ContactEmail: "a@example.com",
		HasDraft:     true,
	})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}

	if resp.AutoSend == nil {
		t.Fatal("AutoSend = nil, want eligible decision")
	}
	if !resp.AutoSend.Eligible {
		t.Error("Eligible = false, want true")
	}
	if !almostEqual(resp.AutoSend.EffectiveThreshold, 0.81) {
		t.Errorf("EffectiveThreshold = %v, want 0.81", resp.AutoSend.EffectiveThreshold)
	}
}

func TestDecideInvalidInput(t *testing.T) {
	service := newTestService(newFakeStore())

	tests := []struct {
		name string
		req  *DecisionRequest
	}{
		{"nil request", nil},
		{"missing user", &DecisionRequest{Text: "hello"}},
		{"missing text", &DecisionRequest{UserID: "u1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := service.Decide(context.Background(), tt.req); err == nil {
				t.Error("Decide() error = nil, want error")
			}
		})
	}
}

func TestDecideDegradesOnStoreFailure(t *testing.T) {
	// An empty store yields ErrNotFound everywhere; the engine must still
	// answer with defaults.
	service := newTestService(newFakeStore())

	resp, err := service.Decide(context.Background(), &DecisionRequest{
		UserID:       "u1",
		Text:         "summarize the thread",
		ContactEmail: "stranger@example.com",
	})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if resp.Intent.Intent != IntentSummarize {
		t.Errorf("Intent = %q, want %q", resp.Intent.Intent, IntentSummarize)
	}
	if len(resp.Suggestions) == 0 {
		t.Error("Suggestions empty, want at least the intent suggestion")
	}
}
