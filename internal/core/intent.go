package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxProviderConfidence caps what any external provider may claim. The
// engine never treats a provider answer as certain.
const maxProviderConfidence = 0.95

// ClassifierTier is one strategy in the classification fallback chain.
// Tiers are tried in order; the first one that is available and succeeds
// wins.
type ClassifierTier interface {
	Name() string
	Available() bool
	Classify(ctx context.Context, req *ClassifyRequest) (*IntentClassification, error)
}

// IntentClassifier resolves user text to an intent through an ordered
// list of tiers. Classify never fails: the final tier is local and
// deterministic, and a hard-coded default backs even that.
type IntentClassifier struct {
	tiers       []ClassifierTier
	tierTimeout time.Duration
	logger      *zap.Logger
}

// NewIntentClassifier builds a classifier over the given tiers. The
// timeout bounds each individual tier attempt; zero disables it.
func NewIntentClassifier(logger *zap.Logger, tierTimeout time.Duration, tiers ...ClassifierTier) *IntentClassifier {
	return &IntentClassifier{
		tiers:       tiers,
		tierTimeout: tierTimeout,
		logger:      logger,
	}
}

// Classify labels the request text with an intent and confidence.
func (c *IntentClassifier) Classify(ctx context.Context, req *ClassifyRequest) *IntentClassification {
	for _, tier := range c.tiers {
		if !tier.Available() {
			continue
		}
		if err := ctx.Err(); err != nil {
			// Caller deadline already expired; only local tiers remain usable.
			c.logger.Warn("classification deadline expired, skipping remaining tiers",
				zap.String("tier", tier.Name()),
				zap.Error(err))
			break
		}

		result, err := c.classifyWithTier(ctx, tier, req)
		if err != nil {
			c.logger.Warn("classifier tier failed, trying next",
				zap.String("tier", tier.Name()),
				zap.Error(err))
			continue
		}

		result.Confidence = clamp01(result.Confidence)
		if result.Source == "" {
			result.Source = tier.Name()
		}
		if result.ClassifiedAt.IsZero() {
			result.ClassifiedAt = time.Now()
		}
		if result.ProcessingID == "" {
			result.ProcessingID = uuid.NewString()
		}
		return result
	}

	// Every tier refused or failed. Return the universal default so the
	// caller always has something to act on.
	return &IntentClassification{
		Intent:       IntentAssistance,
		Confidence:   defaultFallbackConfidence,
		Reasoning:    "no classifier tier produced a result",
		Source:       "default",
		ClassifiedAt: time.Now(),
		ProcessingID: uuid.NewString(),
	}
}

func (c *IntentClassifier) classifyWithTier(ctx context.Context, tier ClassifierTier, req *ClassifyRequest) (*IntentClassification, error) {
	if c.tierTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.tierTimeout)
		defer cancel()
	}
	return tier.Classify(ctx, req)
}

// ProviderTier adapts an LLMClient into the fallback chain. Unavailable
// when no client is configured.
type ProviderTier struct {
	client LLMClient
	logger *zap.Logger
}

// NewProviderTier wraps client for use as the primary classification tier.
// A nil client yields a tier that is never available.
func NewProviderTier(client LLMClient, logger *zap.Logger) *ProviderTier {
	return &ProviderTier{client: client, logger: logger}
}

func (t *ProviderTier) Name() string { return "provider" }

func (t *ProviderTier) Available() bool { return t.client != nil }

// Classify delegates to the provider and clamps its confidence so a
// provider can never claim certainty above the cap.
func (t *ProviderTier) Classify(ctx context.Context, req *ClassifyRequest) (*IntentClassification, error) {
	result, err := t.client.ClassifyIntent(ctx, req)
	if err != nil {
		return nil, err
	}
	if result.Confidence > maxProviderConfidence {
		t.logger.Debug("capping provider confidence",
			zap.Float64("reported", result.Confidence),
			zap.Float64("cap", maxProviderConfidence))
		result.Confidence = maxProviderConfidence
	}
	result.Confidence = clamp01(result.Confidence)
	result.Source = t.Name()
	return result, nil
}
