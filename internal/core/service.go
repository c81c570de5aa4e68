package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DecisionService orchestrates one stateless engine pass: classify, load
// the user's learning state, generate suggestions, and run the auto-send
// gate. Each request touches the store at most once per record type.
type DecisionService struct {
	classifier  *IntentClassifier
	suggestions *SuggestionEngine
	controller  *ThresholdController
	store       ProfileStore
	logger      *zap.Logger
}

// NewDecisionService wires the engine components together.
func NewDecisionService(
	classifier *IntentClassifier,
	suggestions *SuggestionEngine,
	controller *ThresholdController,
	store ProfileStore,
	logger *zap.Logger,
) *DecisionService {
	return &DecisionService{
		classifier:  classifier,
		suggestions: suggestions,
		controller:  controller,
		store:       store,
		logger:      logger,
	}
}

// Decide runs the full pipeline for one request. Provider and store
// failures degrade the result instead of failing it; only invalid input
// returns an error.
func (s *DecisionService) Decide(ctx context.Context, req *DecisionRequest) (*DecisionResponse, error) {
	if req == nil || req.UserID == "" {
		return nil, fmt.Errorf("decision request requires a user id")
	}
	if req.Text == "" {
		return nil, fmt.Errorf("decision request requires input text")
	}

	// Classification must complete (either tier) before suggestion
	// generation; suggestions are keyed off the resolved intent.
	classification := s.classifier.Classify(ctx, &ClassifyRequest{
		Text:         req.Text,
		EmailContext: req.EmailContext,
	})

	trust := s.loadTrust(ctx, req)
	profile := s.loadProfile(ctx, req.UserID)
	metrics := s.loadMetrics(ctx, req.UserID)

	effective := s.controller.EffectiveThreshold(metrics, trust, profile)

	result := s.suggestions.Generate(ctx, &SuggestionContext{
		Request:            req,
		Classification:     classification,
		Trust:              trust,
		Profile:            profile,
		Metrics:            metrics,
		EffectiveThreshold: effective,
	})

	decision := s.controller.Evaluate(metrics, trust, profile,
		classification.Confidence, req.HasCandidateAction(), req.ContactEmail)

	resp := &DecisionResponse{
		Intent:          classification,
		Suggestions:     result.Suggestions,
		PrimaryAction:   result.PrimaryAction,
		ContextualHints: result.ContextualHints,
		Reasoning:       result.Reasoning,
		ProcessingID:    uuid.NewString(),
	}
	if decision.Eligible {
		resp.AutoSend = decision
	}

	s.logger.Debug("decision complete",
		zap.String("processing_id", resp.ProcessingID),
		zap.String("intent", classification.Intent),
		zap.Float64("confidence", classification.Confidence),
		zap.Int("suggestions", len(resp.Suggestions)),
		zap.Bool("auto_send", resp.AutoSend != nil))
	return resp, nil
}

// loadTrust fetches the contact's trust record; unknown contacts and
// store failures both yield nil (no trust adjustment).
func (s *DecisionService) loadTrust(ctx context.Context, req *DecisionRequest) *ContactTrustRecord {
	if req.ContactEmail == "" {
		return nil
	}
	trust, err := s.store.GetTrust(ctx, req.UserID, req.ContactEmail)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("trust lookup failed, proceeding without",
				zap.String("contact", req.ContactEmail),
				zap.Error(err))
		}
		return nil
	}
	return trust
}

func (s *DecisionService) loadProfile(ctx context.Context, userID string) *PersonalityProfile {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("profile lookup failed, using defaults", zap.Error(err))
		}
		return DefaultProfile(userID)
	}
	return profile
}

func (s *DecisionService) loadMetrics(ctx context.Context, userID string) *AutoSendMetrics {
	metrics, err := s.store.GetMetrics(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("metrics lookup failed, using defaults", zap.Error(err))
		}
		return NewAutoSendMetrics(userID)
	}
	return metrics
}
