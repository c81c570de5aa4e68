package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/carys/llm-decision-engine/internal/core"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteStore is a SQLite implementation of the ProfileStore interface.
// Every table carries a version column; writes are guarded on the
// version the caller read so concurrent updates surface as
// core.ErrVersionConflict instead of silently losing data.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (and if needed initializes) the database at dbPath
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS trust_records (
			user_id TEXT NOT NULL,
			contact_email TEXT NOT NULL,
			trust_score REAL,
			communication_frequency INTEGER,
			response_rate REAL,
			relationship TEXT,
			last_interaction TIMESTAMP,
			auto_send_success REAL,
			version INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, contact_email)
		)`,
		`CREATE TABLE IF NOT EXISTS personality_profiles (
			user_id TEXT PRIMARY KEY,
			writing_style TEXT,
			response_speed TEXT,
			communication_preference TEXT,
			tone_preference TEXT,
			decision_making TEXT,
			version INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS auto_send_metrics (
			user_id TEXT PRIMARY KEY,
			total_auto_sends INTEGER,
			successful_auto_sends INTEGER,
			canceled_auto_sends INTEGER,
			regretted_auto_sends INTEGER,
			average_confidence REAL,
			optimal_threshold REAL,
			last_threshold_update TIMESTAMP,
			version INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS template_stats (
			user_id TEXT NOT NULL,
			template_id TEXT NOT NULL,
			usage_count INTEGER,
			accepted_count INTEGER,
			performance REAL,
			version INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, template_id)
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create table: %w", err)
		}
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetTrust retrieves the trust record for a contact
func (s *SQLiteStore) GetTrust(ctx context.Context, userID, contactEmail string) (*core.ContactTrustRecord, error) {
	rec := &core.ContactTrustRecord{UserID: userID, ContactEmail: contactEmail}
	var lastInteraction string

	err := s.db.QueryRowContext(ctx, `
		SELECT trust_score, communication_frequency, response_rate, relationship,
		       last_interaction, auto_send_success, version
		FROM trust_records
		WHERE user_id = ? AND contact_email = ?
	`, userID, contactEmail).Scan(&rec.TrustScore, &rec.CommunicationFrequency,
		&rec.ResponseRate, &rec.Relationship, &lastInteraction, &rec.AutoSendSuccess, &rec.Version)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query trust record: %w", err)
	}

	if t, err := time.Parse(time.RFC3339, lastInteraction); err == nil {
		rec.LastInteraction = t
	}
	return rec, nil
}

// PutTrust stores a trust record, enforcing the version the caller read
func (s *SQLiteStore) PutTrust(ctx context.Context, rec *core.ContactTrustRecord) error {
	if rec.Version == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO trust_records
				(user_id, contact_email, trust_score, communication_frequency,
				 response_rate, relationship, last_interaction, auto_send_success, version)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)
		`, rec.UserID, rec.ContactEmail, rec.TrustScore, rec.CommunicationFrequency,
			rec.ResponseRate, rec.Relationship, rec.LastInteraction.Format(time.RFC3339), rec.AutoSendSuccess)
		return s.finishWrite(res, err, &rec.Version)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE trust_records
		SET trust_score = ?, communication_frequency = ?, response_rate = ?,
		    relationship = ?, last_interaction = ?, auto_send_success = ?, version = version + 1
		WHERE user_id = ? AND contact_email = ? AND version = ?
	`, rec.TrustScore, rec.CommunicationFrequency, rec.ResponseRate, rec.Relationship,
		rec.LastInteraction.Format(time.RFC3339), rec.AutoSendSuccess,
		rec.UserID, rec.ContactEmail, rec.Version)
	return s.finishWrite(res, err, &rec.Version)
}

// GetProfile retrieves the personality profile for a user
func (s *SQLiteStore) GetProfile(ctx context.Context, userID string) (*core.PersonalityProfile, error) {
	p := &core.PersonalityProfile{UserID: userID}

	err := s.db.QueryRowContext(ctx, `
		SELECT writing_style, response_speed, communication_preference,
		       tone_preference, decision_making, version
		FROM personality_profiles
		WHERE user_id = ?
	`, userID).Scan(&p.WritingStyle, &p.ResponseSpeed, &p.CommunicationPreference,
		&p.TonePreference, &p.DecisionMaking, &p.Version)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	return p, nil
}

// PutProfile stores a personality profile, enforcing the version the caller read
func (s *SQLiteStore) PutProfile(ctx context.Context, p *core.PersonalityProfile) error {
	if p.Version == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO personality_profiles
				(user_id, writing_style, response_speed, communication_preference,
				 tone_preference, decision_making, version)
			VALUES (?, ?, ?, ?, ?, ?, 1)
		`, p.UserID, p.WritingStyle, p.ResponseSpeed, p.CommunicationPreference,
			p.TonePreference, p.DecisionMaking)
		return s.finishWrite(res, err, &p.Version)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE personality_profiles
		SET writing_style = ?, response_speed = ?, communication_preference = ?,
		    tone_preference = ?, decision_making = ?, version = version + 1
		WHERE user_id = ? AND version = ?
	`, p.WritingStyle, p.ResponseSpeed, p.CommunicationPreference,
		p.TonePreference, p.DecisionMaking, p.UserID, p.Version)
	return s.finishWrite(res, err, &p.Version)
}

// GetMetrics retrieves the auto-send metrics for a user
func (s *SQLiteStore) GetMetrics(ctx context.Context, userID string) (*core.AutoSendMetrics, error) {
	m := &core.AutoSendMetrics{UserID: userID}
	var lastUpdate string

	err := s.db.QueryRowContext(ctx, `
		SELECT total_auto_sends, successful_auto_sends, canceled_auto_sends,
		       regretted_auto_sends, average_confidence, optimal_threshold,
		       last_threshold_update, version
		FROM auto_send_metrics
		WHERE user_id = ?
	`, userID).Scan(&m.TotalAutoSends, &m.SuccessfulAutoSends, &m.CanceledAutoSends,
		&m.RegrettedAutoSends, &m.AverageConfidenceAtSend, &m.OptimalConfidenceThreshold,
		&lastUpdate, &m.Version)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}

	if t, err := time.Parse(time.RFC3339, lastUpdate); err == nil {
		m.LastThresholdUpdate = t
	}
	return m, nil
}

// PutMetrics stores auto-send metrics, enforcing the version the caller read
func (s *SQLiteStore) PutMetrics(ctx context.Context, m *core.AutoSendMetrics) error {
	if m.Version == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO auto_send_metrics
				(user_id, total_auto_sends, successful_auto_sends, canceled_auto_sends,
				 regretted_auto_sends, average_confidence, optimal_threshold,
				 last_threshold_update, version)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)
		`, m.UserID, m.TotalAutoSends, m.SuccessfulAutoSends, m.CanceledAutoSends,
			m.RegrettedAutoSends, m.AverageConfidenceAtSend, m.OptimalConfidenceThreshold,
			m.LastThresholdUpdate.Format(time.RFC3339))
		return s.finishWrite(res, err, &m.Version)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE auto_send_metrics
		SET total_auto_sends = ?, successful_auto_sends = ?, canceled_auto_sends = ?,
		    regretted_auto_sends = ?, average_confidence = ?, optimal_threshold = ?,
		    last_threshold_update = ?, version = version + 1
		WHERE user_id = ? AND version = ?
	`, m.TotalAutoSends, m.SuccessfulAutoSends, m.CanceledAutoSends, m.RegrettedAutoSends,
		m.AverageConfidenceAtSend, m.OptimalConfidenceThreshold,
		m.LastThresholdUpdate.Format(time.RFC3339), m.UserID, m.Version)
	return s.finishWrite(res, err, &m.Version)
}

// GetTemplateStats retrieves stats for one template
func (s *SQLiteStore) GetTemplateStats(ctx context.Context, userID, templateID string) (*core.TemplateStats, error) {
	st := &core.TemplateStats{UserID: userID, TemplateID: templateID}

	err := s.db.QueryRowContext(ctx, `
		SELECT usage_count, accepted_count, performance, version
		FROM template_stats
		WHERE user_id = ? AND template_id = ?
	`, userID, templateID).Scan(&st.UsageCount, &st.AcceptedCount, &st.Performance, &st.Version)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query template stats: %w", err)
	}
	return st, nil
}

// PutTemplateStats stores template stats, enforcing the version the caller read
func (s *SQLiteStore) PutTemplateStats(ctx context.Context, st *core.TemplateStats) error {
	if st.Version == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO template_stats
				(user_id, template_id, usage_count, accepted_count, performance, version)
			VALUES (?, ?, ?, ?, ?, 1)
		`, st.UserID, st.TemplateID, st.UsageCount, st.AcceptedCount, st.Performance)
		return s.finishWrite(res, err, &st.Version)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE template_stats
		SET usage_count = ?, accepted_count = ?, performance = ?, version = version + 1
		WHERE user_id = ? AND template_id = ? AND version = ?
	`, st.UsageCount, st.AcceptedCount, st.Performance, st.UserID, st.TemplateID, st.Version)
	return s.finishWrite(res, err, &st.Version)
}

// finishWrite maps a guarded write result to the CAS contract: zero rows
// affected means another writer won the race.
func (s *SQLiteStore) finishWrite(res sql.Result, err error, version *int64) error {
	if err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check write result: %w", err)
	}
	if affected == 0 {
		return core.ErrVersionConflict
	}
	*version++
	return nil
}
