package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

// stubTier is a canned ClassifierTier for chain tests.
type stubTier struct {
	name      string
	available bool
	result    *IntentClassification
	err       error
}

func (s *stubTier) Name() string    { return s.name }
func (s *stubTier) Available() bool { return s.available }
func (s *stubTier) Classify(context.Context, *ClassifyRequest) (*IntentClassification, error) {
	return s.result, s.err
}

// stubLLM is a canned LLMClient for provider tier tests.
type stubLLM struct {
	result *IntentClassification
	err    error
}

func (s *stubLLM) ClassifyIntent(context.Context, *ClassifyRequest) (*IntentClassification, error) {
	return s.result, s.err
}

func TestClassifierFallsThroughFailedTiers(t *testing.T) {
	classifier := NewIntentClassifier(zap.NewNop(), time.Second,
		&stubTier{name: "broken", available: true, err: errors.New("provider down")},
		&stubTier{name: "offline", available: false},
		&stubTier{name: "working", available: true, result: &IntentClassification{
			Intent:     IntentReply,
			Confidence: 0.8,
		}},
	)

	result := classifier.Classify(context.Background(), &ClassifyRequest{Text: "reply please"})
	if result.Intent != IntentReply {
		t.Errorf("Intent = %q, want %q", result.Intent, IntentReply)
	}
	if result.Source != "working" {
		t.Errorf("Source = %q, want %q", result.Source, "working")
	}
	if result.ProcessingID == "" {
		t.Error("ProcessingID not assigned")
	}
	if result.ClassifiedAt.IsZero() {
		t.Error("ClassifiedAt not assigned")
	}
}

func TestClassifierNeverFails(t *testing.T) {
	// Every tier fails or is unavailable; the hard default must come back.
	classifier := NewIntentClassifier(zap.NewNop(), time.Second,
		&stubTier{name: "broken", available: true, err: errors.New("boom")},
		&stubTier{name: "offline", available: false},
	)

	result := classifier.Classify(context.Background(), &ClassifyRequest{Text: "anything"})
	if result == nil {
		t.Fatal("Classify() returned nil")
	}
	if result.Intent != IntentAssistance {
		t.Errorf("Intent = %q, want %q", result.Intent, IntentAssistance)
	}
	if result.Confidence != defaultFallbackConfidence {
		t.Errorf("Confidence = %v, want %v", result.Confidence, defaultFallbackConfidence)
	}
	if result.Source != "default" {
		t.Errorf("Source = %q, want %q", result.Source, "default")
	}
}

func TestClassifierWithRealFallbackTier(t *testing.T) {
	classifier := NewIntentClassifier(zap.NewNop(), time.Second,
		&stubTier{name: "broken", available: true, err: errors.New("boom")},
		NewFallbackClassifier(nil),
	)

	result := classifier.Classify(context.Background(), &ClassifyRequest{Text: "summarize this thread"})
	if result.Intent != IntentSummarize {
		t.Errorf("Intent = %q, want %q", result.Intent, IntentSummarize)
	}
	if result.Source != "fallback" {
		t.Errorf("Source = %q, want %q", result.Source, "fallback")
	}
}

func TestClassifierExpiredContextSkipsProviderTiers(t *testing.T) {
	provider := &stubTier{name: "provider", available: true, result: &IntentClassification{
		Intent: IntentReply, Confidence: 0.9,
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	classifier := NewIntentClassifier(zap.NewNop(), time.Second, provider)
	result := classifier.Classify(ctx, &ClassifyRequest{Text: "reply"})

	// Provider must be skipped after the deadline; with no local tier the
	// hard default applies.
	if result.Source != "default" {
		t.Errorf("Source = %q, want %q", result.Source, "default")
	}
}

func TestProviderTierCapsConfidence(t *testing.T) {
	tier := NewProviderTier(&stubLLM{result: &IntentClassification{
		Intent:     IntentReply,
		Confidence: 0.99,
	}}, zap.NewNop())

	result, err := tier.Classify(context.Background(), &ClassifyRequest{Text: "reply"})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if result.Confidence != maxProviderConfidence {
		t.Errorf("Confidence = %v, want %v", result.Confidence, maxProviderConfidence)
	}
	if result.Source != "provider" {
		t.Errorf("Source = %q, want %q", result.Source, "provider")
	}
}

func TestProviderTierNilClientUnavailable(t *testing.T) {
	tier := NewProviderTier(nil, zap.NewNop())
	if tier.Available() {
		t.Error("Available() = true for nil client, want false")
	}
}
