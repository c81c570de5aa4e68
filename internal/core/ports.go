package core

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by a ProfileStore when no record exists for
	// the requested key.
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict is returned by a ProfileStore when a conditional
	// write loses a concurrent update race. Callers reload and retry.
	ErrVersionConflict = errors.New("record version conflict")

	// ErrEmptyBatch is returned when a trust update is requested with no
	// interactions to derive from.
	ErrEmptyBatch = errors.New("empty interaction batch")
)

// ClassifyRequest carries the text to classify plus optional context that
// sharpens the provider prompt.
type ClassifyRequest struct {
	Text            string
	EmailContext    string
	UserPreferences string
}

// LLMClient is the external classification/generation provider. May be
// entirely absent; the engine must function on its local tier alone.
type LLMClient interface {
	// ClassifyIntent asks the provider to label the request text.
	ClassifyIntent(ctx context.Context, req *ClassifyRequest) (*IntentClassification, error)
}

// ProfileStore persists the engine's per-user learning state. Every record
// carries a Version; Put operations are conditional on the version the
// record was read at and return ErrVersionConflict when a concurrent
// writer got there first. A fresh record (Version 0) is inserted and
// conflicts if the key already exists. On success the implementation
// increments the record's Version in place.
type ProfileStore interface {
	GetTrust(ctx context.Context, userID, contactEmail string) (*ContactTrustRecord, error)
	PutTrust(ctx context.Context, rec *ContactTrustRecord) error

	GetProfile(ctx context.Context, userID string) (*PersonalityProfile, error)
	PutProfile(ctx context.Context, profile *PersonalityProfile) error

	GetMetrics(ctx context.Context, userID string) (*AutoSendMetrics, error)
	PutMetrics(ctx context.Context, metrics *AutoSendMetrics) error

	GetTemplateStats(ctx context.Context, userID, templateID string) (*TemplateStats, error)
	PutTemplateStats(ctx context.Context, stats *TemplateStats) error
}
