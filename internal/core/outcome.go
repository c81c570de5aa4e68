package core

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Template performance weighting.
const (
	templateAcceptanceWeight = 0.7
	templateUsageWeight      = 0.3
	templateUsageSaturation  = 10
)

// OutcomeRecorder captures interaction outcomes and feeds the learning
// loops. Record is best-effort: persistence failures are logged and
// dropped, never surfaced to the caller, and the same event recorded
// twice counts twice.
type OutcomeRecorder struct {
	store      ProfileStore
	controller *ThresholdController
	ledger     *TrustLedger
	logger     *zap.Logger
}

// NewOutcomeRecorder creates the recorder.
func NewOutcomeRecorder(store ProfileStore, controller *ThresholdController, ledger *TrustLedger, logger *zap.Logger) *OutcomeRecorder {
	return &OutcomeRecorder{
		store:      store,
		controller: controller,
		ledger:     ledger,
		logger:     logger,
	}
}

// Record processes one outcome event: personality inference always runs;
// auto-send outcomes additionally feed the threshold controller and the
// contact's trust record; template uses update template stats.
func (r *OutcomeRecorder) Record(ctx context.Context, outcome *InteractionOutcome) {
	if outcome == nil || outcome.UserID == "" {
		r.logger.Warn("dropping outcome without user identity")
		return
	}
	if outcome.EventID == "" {
		outcome.EventID = uuid.NewString()
	}
	if outcome.OccurredAt.IsZero() {
		outcome.OccurredAt = time.Now()
	}

	r.updateProfile(ctx, outcome)

	switch outcome.Type {
	case OutcomeAutoSend:
		if _, err := r.controller.RecordOutcome(ctx, outcome.UserID, outcome.Outcome, outcome.ConfidenceAtSend); err != nil {
			r.logger.Warn("auto-send learning update dropped",
				zap.String("event", outcome.EventID),
				zap.Error(err))
		}
		if contact := outcome.Metadata["contact"]; contact != "" {
			succeeded := outcome.Outcome == StatusSuccess || outcome.Outcome == StatusModified
			if err := r.ledger.RecordAutoSendResult(ctx, outcome.UserID, contact, succeeded); err != nil {
				r.logger.Warn("trust auto-send update dropped",
					zap.String("contact", contact),
					zap.Error(err))
			}
		}
	case OutcomeTemplateUse:
		r.updateTemplateStats(ctx, outcome)
	}
}

// updateProfile applies behavioral inference and any explicit preference
// carried in the event metadata.
func (r *OutcomeRecorder) updateProfile(ctx context.Context, outcome *InteractionOutcome) {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		profile, err := r.store.GetProfile(ctx, outcome.UserID)
		if errors.Is(err, ErrNotFound) {
			profile = DefaultProfile(outcome.UserID)
		} else if err != nil {
			r.logger.Warn("profile update dropped", zap.Error(err))
			return
		}

		ObserveInteraction(profile, outcome.TimingMs, outcome.Content)

		if kind := outcome.Metadata["preference_kind"]; kind != "" {
			update := PreferenceUpdate{Kind: PreferenceKind(kind), Value: outcome.Metadata["preference_value"]}
			if err := ApplyPreference(profile, update); err != nil {
				r.logger.Warn("ignoring preference update", zap.Error(err))
			}
		}

		err = r.store.PutProfile(ctx, profile)
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		if err != nil {
			r.logger.Warn("profile update dropped", zap.Error(err))
		}
		return
	}
	r.logger.Warn("profile update dropped after repeated conflicts",
		zap.String("user", outcome.UserID))
}

// updateTemplateStats folds a template-use event into the template's
// performance score.
func (r *OutcomeRecorder) updateTemplateStats(ctx context.Context, outcome *InteractionOutcome) {
	if outcome.TemplateID == "" {
		r.logger.Warn("template outcome without template id",
			zap.String("event", outcome.EventID))
		return
	}

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		stats, err := r.store.GetTemplateStats(ctx, outcome.UserID, outcome.TemplateID)
		if errors.Is(err, ErrNotFound) {
			stats = &TemplateStats{UserID: outcome.UserID, TemplateID: outcome.TemplateID}
		} else if err != nil {
			r.logger.Warn("template stats update dropped", zap.Error(err))
			return
		}

		stats.UsageCount++
		if outcome.Accepted {
			stats.AcceptedCount++
		}
		acceptanceRate := float64(stats.AcceptedCount) / float64(stats.UsageCount)
		usage := float64(stats.UsageCount) / templateUsageSaturation
		if usage > 1 {
			usage = 1
		}
		stats.Performance = clamp01(acceptanceRate*templateAcceptanceWeight + usage*templateUsageWeight)

		err = r.store.PutTemplateStats(ctx, stats)
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		if err != nil {
			r.logger.Warn("template stats update dropped", zap.Error(err))
		}
		return
	}
	r.logger.Warn("template stats dropped after repeated conflicts",
		zap.String("template", outcome.TemplateID))
}
