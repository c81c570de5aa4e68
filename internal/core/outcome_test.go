package core

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func newRecorder(store *fakeStore) *OutcomeRecorder {
	controller := NewThresholdController(store, nil, zap.NewNop())
	ledger := NewTrustLedger(store, zap.NewNop())
	return NewOutcomeRecorder(store, controller, ledger, zap.NewNop())
}

func TestRecordAutoSendOutcome(t *testing.T) {
	store := newFakeStore()
	store.trust["u1/a@example.com"] = &ContactTrustRecord{
		UserID: "u1", ContactEmail: "a@example.com", AutoSendSuccess: 0.5, Version: 1,
	}
	recorder := newRecorder(store)

	recorder.Record(context.Background(), &InteractionOutcome{
		UserID:           "u1",
		Type:             OutcomeAutoSend,
		Outcome:          StatusSuccess,
		ConfidenceAtSend: 0.9,
		Metadata:         map[string]string{"contact": "a@example.com"},
	})

	metrics, err := store.GetMetrics(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetMetrics() error = %v", err)
	}
	if metrics.TotalAutoSends != 1 || metrics.SuccessfulAutoSends != 1 {
		t.Errorf("metrics = %+v, want one successful send", metrics)
	}

	trust, err := store.GetTrust(context.Background(), "u1", "a@example.com")
	if err != nil {
		t.Fatalf("GetTrust() error = %v", err)
	}
	if !almostEqual(trust.AutoSendSuccess, 0.6) {
		t.Errorf("AutoSendSuccess = %v, want 0.6", trust.AutoSendSuccess)
	}
}

func TestRecordSameEventTwiceCountsTwice(t *testing.T) {
	store := newFakeStore()
	recorder := newRecorder(store)

	outcome := &InteractionOutcome{
		UserID:           "u1",
		Type:             OutcomeAutoSend,
		Outcome:          StatusSuccess,
		ConfidenceAtSend: 0.9,
	}
	recorder.Record(context.Background(), outcome)
	recorder.Record(context.Background(), outcome)

	metrics, err := store.GetMetrics(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetMetrics() error = %v", err)
	}
	if metrics.TotalAutoSends != 2 {
		t.Errorf("TotalAutoSends = %d, want 2", metrics.TotalAutoSends)
	}
}

func TestRecordFillsEventIdentity(t *testing.T) {
	recorder := newRecorder(newFakeStore())

	outcome := &InteractionOutcome{UserID: "u1", Type: OutcomeSuggestion, Outcome: StatusSuccess}
	recorder.Record(context.Background(), outcome)

	if outcome.EventID == "" {
		t.Error("EventID not assigned")
	}
	if outcome.OccurredAt.IsZero() {
		t.Error("OccurredAt not assigned")
	}
}

func TestRecordUpdatesProfileFromBehavior(t *testing.T) {
	store := newFakeStore()
	recorder := newRecorder(store)

	recorder.Record(context.Background(), &InteractionOutcome{
		UserID:   "u1",
		Type:     OutcomeDraftEdit,
		Outcome:  StatusModified,
		TimingMs: 1200,
		Content:  "ok thanks",
	})

	profile, err := store.GetProfile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if profile.ResponseSpeed != SpeedImmediate {
		t.Errorf("ResponseSpeed = %q, want %q", profile.ResponseSpeed, SpeedImmediate)
	}
	if profile.CommunicationPreference != VerbosityConcise {
		t.Errorf("CommunicationPreference = %q, want %q", profile.CommunicationPreference, VerbosityConcise)
	}
}

func TestRecordAppliesExplicitPreference(t *testing.T) {
	store := newFakeStore()
	recorder := newRecorder(store)

	recorder.Record(context.Background(), &InteractionOutcome{
		UserID:  "u1",
		Type:    OutcomeSuggestion,
		Outcome: StatusSuccess,
		Metadata: map[string]string{
			"preference_kind":  string(PreferenceTone),
			"preference_value": ToneFriendly,
		},
	})

	profile, err := store.GetProfile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if profile.TonePreference != ToneFriendly {
		t.Errorf("TonePreference = %q, want %q", profile.TonePreference, ToneFriendly)
	}
}

func TestRecordTemplateUse(t *testing.T) {
	store := newFakeStore()
	recorder := newRecorder(store)

	recorder.Record(context.Background(), &InteractionOutcome{
		UserID:     "u1",
		Type:       OutcomeTemplateUse,
		Outcome:    StatusSuccess,
		TemplateID: "tpl-1",
		Accepted:   true,
	})

	stats, err := store.GetTemplateStats(context.Background(), "u1", "tpl-1")
	if err != nil {
		t.Fatalf("GetTemplateStats() error = %v", err)
	}
	if stats.UsageCount != 1 || stats.AcceptedCount != 1 {
		t.Errorf("stats = %+v, want one accepted use", stats)
	}
	// acceptance 1.0 * 0.7 + usage 0.1 * 0.3
	if !almostEqual(stats.Performance, 0.73) {
		t.Errorf("Performance = %v, want 0.73", stats.Performance)
	}
}

func TestRecordTemplateUsageSaturates(t *testing.T) {
	store := newFakeStore()
	recorder := newRecorder(store)

	for i := 0; i < 20; i++ {
		recorder.Record(context.Background(), &InteractionOutcome{
			UserID:     "u1",
			Type:       OutcomeTemplateUse,
			Outcome:    StatusSuccess,
			TemplateID: "tpl-1",
			Accepted:   true,
		})
	}

	stats, err := store.GetTemplateStats(context.Background(), "u1", "tpl-1")
	if err != nil {
		t.Fatalf("GetTemplateStats() error = %v", err)
	}
	// acceptance 1.0 * 0.7 + saturated usage 1.0 * 0.3
	if !almostEqual(stats.Performance, 1.0) {
		t.Errorf("Performance = %v, want 1.0", stats.Performance)
	}
}

func TestRecordDropsAnonymousOutcome(t *testing.T) {
	store := newFakeStore()
	recorder := newRecorder(store)

	recorder.Record(context.Background(), &InteractionOutcome{Type: OutcomeAutoSend, Outcome: StatusSuccess})

	if _, err := store.GetMetrics(context.Background(), ""); err == nil {
		t.Error("outcome without user id must be dropped")
	}
}
