package store

import (
	"context"
	"sync"

	"github.com/carys/llm-decision-engine/internal/core"
	"go.uber.org/zap"
)

// MemoryStore is an in-memory implementation of the ProfileStore
// interface used by the CLI and tests. Writes follow the same
// compare-and-swap contract as the SQL stores.
type MemoryStore struct {
	mu            sync.RWMutex
	trust         map[string]*core.ContactTrustRecord
	profiles      map[string]*core.PersonalityProfile
	metrics       map[string]*core.AutoSendMetrics
	templateStats map[string]*core.TemplateStats
	logger        *zap.Logger
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		trust:         make(map[string]*core.ContactTrustRecord),
		profiles:      make(map[string]*core.PersonalityProfile),
		metrics:       make(map[string]*core.AutoSendMetrics),
		templateStats: make(map[string]*core.TemplateStats),
		logger:        logger,
	}
}

func trustKey(userID, contactEmail string) string { return userID + "\x00" + contactEmail }

func templateKey(userID, templateID string) string { return userID + "\x00" + templateID }

// GetTrust retrieves the trust record for a contact
func (s *MemoryStore) GetTrust(_ context.Context, userID, contactEmail string) (*core.ContactTrustRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.trust[trustKey(userID, contactEmail)]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

// PutTrust stores a trust record, enforcing the version the caller read
func (s *MemoryStore) PutTrust(_ context.Context, rec *core.ContactTrustRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := trustKey(rec.UserID, rec.ContactEmail)
	existing, ok := s.trust[key]
	if ok && existing.Version != rec.Version {
		return core.ErrVersionConflict
	}
	if !ok && rec.Version != 0 {
		return core.ErrVersionConflict
	}

	rec.Version++
	copied := *rec
	s.trust[key] = &copied
	return nil
}

// GetProfile retrieves the personality profile for a user
func (s *MemoryStore) GetProfile(_ context.Context, userID string) (*core.PersonalityProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

// PutProfile stores a personality profile, enforcing the version the caller read
func (s *MemoryStore) PutProfile(_ context.Context, profile *core.PersonalityProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.profiles[profile.UserID]
	if ok && existing.Version != profile.Version {
		return core.ErrVersionConflict
	}
	if !ok && profile.Version != 0 {
		return core.ErrVersionConflict
	}

	profile.Version++
	copied := *profile
	s.profiles[profile.UserID] = &copied
	return nil
}

// GetMetrics retrieves the auto-send metrics for a user
func (s *MemoryStore) GetMetrics(_ context.Context, userID string) (*core.AutoSendMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.metrics[userID]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *m
	return &copied, nil
}

// PutMetrics stores auto-send metrics, enforcing the version the caller read
func (s *MemoryStore) PutMetrics(_ context.Context, metrics *core.AutoSendMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.metrics[metrics.UserID]
	if ok && existing.Version != metrics.Version {
		return core.ErrVersionConflict
	}
	if !ok && metrics.Version != 0 {
		return core.ErrVersionConflict
	}

	metrics.Version++
	copied := *metrics
	s.metrics[metrics.UserID] = &copied
	return nil
}

// GetTemplateStats retrieves stats for one template
func (s *MemoryStore) GetTemplateStats(_ context.Context, userID, templateID string) (*core.TemplateStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.templateStats[templateKey(userID, templateID)]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *st
	return &copied, nil
}

// PutTemplateStats stores template stats, enforcing the version the caller read
func (s *MemoryStore) PutTemplateStats(_ context.Context, stats *core.TemplateStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := templateKey(stats.UserID, stats.TemplateID)
	existing, ok := s.templateStats[key]
	if ok && existing.Version != stats.Version {
		return core.ErrVersionConflict
	}
	if !ok && stats.Version != 0 {
		return core.ErrVersionConflict
	}

	stats.Version++
	copied := *stats
	s.templateStats[key] = &copied
	return nil
}
