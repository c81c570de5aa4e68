package core

import (
	"context"
)

// fakeStore is an in-memory ProfileStore for tests. Error queues are
// consumed one per Put call, letting tests script version conflicts.
type fakeStore struct {
	trust     map[string]*ContactTrustRecord
	profiles  map[string]*PersonalityProfile
	metrics   map[string]*AutoSendMetrics
	templates map[string]*TemplateStats

	putTrustErrs    []error
	putProfileErrs  []error
	putMetricsErrs  []error
	putTemplateErrs []error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		trust:     make(map[string]*ContactTrustRecord),
		profiles:  make(map[string]*PersonalityProfile),
		metrics:   make(map[string]*AutoSendMetrics),
		templates: make(map[string]*TemplateStats),
	}
}

func popErr(queue *[]error) error {
	if len(*queue) == 0 {
		return nil
	}
	err := (*queue)[0]
	*queue = (*queue)[1:]
	return err
}

func (f *fakeStore) GetTrust(_ context.Context, userID, contactEmail string) (*ContactTrustRecord, error) {
	rec, ok := f.trust[userID+"/"+contactEmail]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (f *fakeStore) PutTrust(_ context.Context, rec *ContactTrustRecord) error {
	if err := popErr(&f.putTrustErrs); err != nil {
		return err
	}
	rec.Version++
	copied := *rec
	f.trust[rec.UserID+"/"+rec.ContactEmail] = &copied
	return nil
}

func (f *fakeStore) GetProfile(_ context.Context, userID string) (*PersonalityProfile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakeStore) PutProfile(_ context.Context, p *PersonalityProfile) error {
	if err := popErr(&f.putProfileErrs); err != nil {
		return err
	}
	p.Version++
	copied := *p
	f.profiles[p.UserID] = &copied
	return nil
}

func (f *fakeStore) GetMetrics(_ context.Context, userID string) (*AutoSendMetrics, error) {
	m, ok := f.metrics[userID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *m
	return &copied, nil
}

func (f *fakeStore) PutMetrics(_ context.Context, m *AutoSendMetrics) error {
	if err := popErr(&f.putMetricsErrs); err != nil {
		return err
	}
	m.Version++
	copied := *m
	f.metrics[m.UserID] = &copied
	return nil
}

func (f *fakeStore) GetTemplateStats(_ context.Context, userID, templateID string) (*TemplateStats, error) {
	st, ok := f.templates[userID+"/"+templateID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *st
	return &copied, nil
}

func (f *fakeStore) PutTemplateStats(_ context.Context, st *TemplateStats) error {
	if err := popErr(&f.putTemplateErrs); err != nil {
		return err
	}
	st.Version++
	copied := *st
	f.templates[st.UserID+"/"+st.TemplateID] = &copied
	return nil
}
