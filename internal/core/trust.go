package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// maxCASAttempts bounds retry loops on version-conflicted writes.
const maxCASAttempts = 3

// secondsPerDay caps the response-time factor in trust derivation.
const secondsPerDay = 86400

// TrustLedger derives and persists per-contact trust state from batches
// of interaction history.
type TrustLedger struct {
	store  ProfileStore
	logger *zap.Logger
}

// NewTrustLedger creates a ledger backed by store.
func NewTrustLedger(store ProfileStore, logger *zap.Logger) *TrustLedger {
	return &TrustLedger{store: store, logger: logger}
}

// trustDerivation is the pure outcome of scoring one interaction batch.
type trustDerivation struct {
	trustScore   float64
	responseRate float64
	relationship RelationshipType
	frequency    int
}

// deriveTrust computes trust fields from an interaction batch. Callers
// must reject empty batches before calling; the divisor is len(batch).
func deriveTrust(batch []Interaction) trustDerivation {
	n := len(batch)

	positives := 0
	responded := 0
	totalResponseSeconds := 0.0
	clientSignal := false
	for _, it := range batch {
		if it.Sentiment == SentimentPositive {
			positives++
		}
		if it.Received > 0 {
			responded++
		}
		totalResponseSeconds += it.ResponseTimeSeconds
		if it.Sent > 2*it.Received {
			clientSignal = true
		}
	}

	positiveRatio := float64(positives) / float64(n)
	avgResponse := totalResponseSeconds / float64(n)

	responseSeconds := avgResponse
	if responseSeconds > secondsPerDay {
		responseSeconds = secondsPerDay
	}
	responseFactor := responseSeconds / secondsPerDay

	// Frequency factor is deliberately unclamped before weighting; the
	// final score clamp bounds the sum.
	frequencyFactor := float64(n) / 100

	score := clamp01(positiveRatio*0.4 + responseFactor*0.3 + frequencyFactor*0.3)

	relationship := RelationshipUnknown
	switch {
	case n > 50 && score > 0.8:
		relationship = RelationshipColleague
	case avgResponse < 3600 && score > 0.7:
		relationship = RelationshipFriend
	case clientSignal:
		relationship = RelationshipClient
	}

	return trustDerivation{
		trustScore:   score,
		responseRate: float64(responded) / float64(n),
		relationship: relationship,
		frequency:    n,
	}
}

// UpdateTrust scores the interaction batch and upserts the contact's
// trust record, retrying on concurrent-update conflicts.
func (l *TrustLedger) UpdateTrust(ctx context.Context, userID, contactEmail string, batch []Interaction) (*ContactTrustRecord, error) {
	if len(batch) == 0 {
		return nil, fmt.Errorf("trust update for %s: %w", contactEmail, ErrEmptyBatch)
	}
	if userID == "" || contactEmail == "" {
		return nil, fmt.Errorf("trust update requires user and contact identifiers")
	}

	derived := deriveTrust(batch)

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		rec, err := l.store.GetTrust(ctx, userID, contactEmail)
		if errors.Is(err, ErrNotFound) {
			rec = &ContactTrustRecord{UserID: userID, ContactEmail: contactEmail}
		} else if err != nil {
			return nil, fmt.Errorf("load trust record: %w", err)
		}

		rec.TrustScore = derived.trustScore
		rec.CommunicationFrequency = derived.frequency
		rec.ResponseRate = clamp01(derived.responseRate)
		rec.Relationship = derived.relationship
		rec.LastInteraction = time.Now()

		err = l.store.PutTrust(ctx, rec)
		if errors.Is(err, ErrVersionConflict) {
			l.logger.Debug("trust write conflict, retrying",
				zap.String("contact", contactEmail),
				zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("store trust record: %w", err)
		}
		return rec, nil
	}

	return nil, fmt.Errorf("trust update for %s: %w", contactEmail, ErrVersionConflict)
}

// RecordAutoSendResult folds the outcome of one autonomous send into the
// contact's rolling auto-send success rate.
func (l *TrustLedger) RecordAutoSendResult(ctx context.Context, userID, contactEmail string, succeeded bool) error {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		rec, err := l.store.GetTrust(ctx, userID, contactEmail)
		if errors.Is(err, ErrNotFound) {
			// Nothing to fold into; auto-send toward unscored contacts is
			// gated off anyway.
			return nil
		}
		if err != nil {
			return fmt.Errorf("load trust record: %w", err)
		}

		observed := 0.0
		if succeeded {
			observed = 1.0
		}
		// Exponential moving average keeps old behavior relevant without
		// unbounded history.
		rec.AutoSendSuccess = clamp01(rec.AutoSendSuccess*0.8 + observed*0.2)

		err = l.store.PutTrust(ctx, rec)
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		return err
	}
	return fmt.Errorf("auto-send result for %s: %w", contactEmail, ErrVersionConflict)
}
