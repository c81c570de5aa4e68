package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Controller tuning constants. The threshold moves in small steps only;
// a single bad outcome cannot swing the gate.
const (
	trustAdjustmentScale   = 0.1
	decisivenessAdjustment = 0.05
	lowSuccessRate         = 0.8
	highSuccessRate        = 0.95
	thresholdRaiseStep     = 0.02
	thresholdLowerStep     = 0.01

	defaultCountdownSeconds    = 10
	deliberateCountdownSeconds = 15
)

// RecipientPolicy vetoes autonomous sends toward configured recipients.
// Implemented by the restricted-domain checker.
type RecipientPolicy interface {
	IsRestricted(email string) bool
}

// ThresholdController gates fully-autonomous sends and tunes its own
// confidence threshold from observed outcomes.
type ThresholdController struct {
	store  ProfileStore
	policy RecipientPolicy
	logger *zap.Logger
}

// NewThresholdController creates the controller. policy may be nil when
// no recipients are restricted.
func NewThresholdController(store ProfileStore, policy RecipientPolicy, logger *zap.Logger) *ThresholdController {
	return &ThresholdController{store: store, policy: policy, logger: logger}
}

// EffectiveThreshold derives the per-request gate threshold from the
// stored optimum, the contact's trust, and the user's decisiveness.
// trust may be nil when the contact is unknown.
func (c *ThresholdController) EffectiveThreshold(metrics *AutoSendMetrics, trust *ContactTrustRecord, profile *PersonalityProfile) float64 {
	effective := metrics.OptimalConfidenceThreshold

	if trust != nil {
		effective -= (trust.TrustScore - 0.5) * trustAdjustmentScale
	}

	if profile != nil {
		switch profile.DecisionMaking {
		case DecisionQuick:
			effective -= decisivenessAdjustment
		case DecisionDeliberate:
			effective += decisivenessAdjustment
		}
	}

	return clampThreshold(effective)
}

// Evaluate runs the gate for one request. The returned decision is only
// eligible when classifier confidence clears the effective threshold, a
// concrete candidate action exists, and the recipient is not restricted.
func (c *ThresholdController) Evaluate(
	metrics *AutoSendMetrics,
	trust *ContactTrustRecord,
	profile *PersonalityProfile,
	confidence float64,
	hasCandidate bool,
	recipient string,
) *AutoSendDecision {
	effective := c.EffectiveThreshold(metrics, trust, profile)

	decision := &AutoSendDecision{
		Confidence:         confidence,
		EffectiveThreshold: effective,
		RecipientHint:      recipient,
		CountdownSeconds:   defaultCountdownSeconds,
	}
	if profile != nil && profile.DecisionMaking == DecisionDeliberate {
		decision.CountdownSeconds = deliberateCountdownSeconds
	}

	if !hasCandidate {
		return decision
	}
	if c.policy != nil && recipient != "" && c.policy.IsRestricted(recipient) {
		c.logger.Info("auto-send blocked for restricted recipient",
			zap.String("recipient", recipient))
		return decision
	}

	decision.Eligible = confidence >= effective
	return decision
}

// applyOutcome folds one auto-send outcome into the metrics. Pure except
// for the update timestamp.
func applyOutcome(m *AutoSendMetrics, outcome OutcomeStatus, confidenceAtSend float64) {
	m.TotalAutoSends++
	switch outcome {
	case StatusSuccess, StatusModified:
		// A modified send still went out and stood; it counts as a success
		// for threshold purposes.
		m.SuccessfulAutoSends++
	case StatusCanceled:
		m.CanceledAutoSends++
	case StatusRegretted:
		m.RegrettedAutoSends++
	}

	confidenceAtSend = clamp01(confidenceAtSend)
	m.AverageConfidenceAtSend = clamp01(
		m.AverageConfidenceAtSend + (confidenceAtSend-m.AverageConfidenceAtSend)/float64(m.TotalAutoSends))

	successRate := float64(m.SuccessfulAutoSends) / float64(m.TotalAutoSends)
	if successRate < lowSuccessRate {
		m.OptimalConfidenceThreshold += thresholdRaiseStep
	} else if successRate > highSuccessRate {
		m.OptimalConfidenceThreshold -= thresholdLowerStep
	}
	m.OptimalConfidenceThreshold = clampThreshold(m.OptimalConfidenceThreshold)
	m.LastThresholdUpdate = time.Now()
}

// RecordOutcome applies the learning update for one completed auto-send,
// retrying on concurrent-update conflicts.
func (c *ThresholdController) RecordOutcome(ctx context.Context, userID string, outcome OutcomeStatus, confidenceAtSend float64) (*AutoSendMetrics, error) {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		metrics, err := c.store.GetMetrics(ctx, userID)
		if errors.Is(err, ErrNotFound) {
			metrics = NewAutoSendMetrics(userID)
		} else if err != nil {
			return nil, fmt.Errorf("load auto-send metrics: %w", err)
		}

		applyOutcome(metrics, outcome, confidenceAtSend)

		err = c.store.PutMetrics(ctx, metrics)
		if errors.Is(err, ErrVersionConflict) {
			c.logger.Debug("metrics write conflict, retrying",
				zap.String("user", userID),
				zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("store auto-send metrics: %w", err)
		}
		return metrics, nil
	}
	return nil, fmt.Errorf("auto-send metrics for %s: %w", userID, ErrVersionConflict)
}
