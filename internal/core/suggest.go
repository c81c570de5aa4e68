package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxSuggestions bounds the ranked list handed to the caller.
const maxSuggestions = 6

// deepThreadDepth is where a conversation becomes worth summarizing
// regardless of intent.
const deepThreadDepth = 5

// largeParticipantCount flags conversations where reply-all mistakes
// get expensive.
const largeParticipantCount = 3

// autoSendTrustFloor is the minimum contact trust before the
// personalized generator will even mention autonomous sending.
const autoSendTrustFloor = 0.7

// SuggestionContext is the shared, read-only input to all four
// generators. Trust may be nil for unknown contacts.
type SuggestionContext struct {
	Request            *DecisionRequest
	Classification     *IntentClassification
	Trust              *ContactTrustRecord
	Profile            *PersonalityProfile
	Metrics            *AutoSendMetrics
	EffectiveThreshold float64
}

// SuggestionResult is the ranked output of one generation pass.
type SuggestionResult struct {
	Suggestions     []ActionSuggestion
	PrimaryAction   *ActionSuggestion
	ContextualHints []string
	Reasoning       string
}

// generator produces candidate suggestions from the shared context.
// Generators are pure functions with no shared mutable state, so they
// run concurrently; the merge is deterministic regardless of completion
// order.
type generator func(*SuggestionContext) []ActionSuggestion

// SuggestionEngine produces and ranks the bounded suggestion list.
type SuggestionEngine struct {
	crossModule *CrossModuleRouter
	logger      *zap.Logger

	// spawnOrder overrides goroutine launch order in tests to prove the
	// output is completion-order independent. Nil means natural order.
	spawnOrder []int
}

// NewSuggestionEngine creates the engine.
func NewSuggestionEngine(crossModule *CrossModuleRouter, logger *zap.Logger) *SuggestionEngine {
	return &SuggestionEngine{crossModule: crossModule, logger: logger}
}

// Generate runs the four generators and merges their output. It never
// fails: any internal panic is replaced by a static per-intent fallback
// list so the caller always receives something actionable.
func (e *SuggestionEngine) Generate(ctx context.Context, sctx *SuggestionContext) (result *SuggestionResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("suggestion pipeline failed, using static fallback",
				zap.Any("panic", r),
				zap.String("intent", sctx.Classification.Intent))
			result = e.fallbackResult(sctx.Classification.Intent)
		}
	}()

	generators := []generator{
		e.generateCoreByIntent,
		e.generateContextual,
		e.generatePersonalized,
		e.generateCrossModule,
	}

	// Each generator writes only its own slot; the merge reads slots in
	// fixed index order, so completion order cannot affect the result.
	slots := make([][]ActionSuggestion, len(generators))
	g, _ := errgroup.WithContext(ctx)
	order := e.spawnOrder
	if order == nil {
		order = []int{0, 1, 2, 3}
	}
	for _, idx := range order {
		idx := idx
		gen := generators[idx]
		g.Go(func() (err error) {
			// A panic must not escape the goroutine; convert it to an
			// error so Wait reports it and the caller gets the fallback.
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("generator %d panicked: %v", idx, r)
				}
			}()
			slots[idx] = gen(sctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.Error("suggestion generator failed, using static fallback",
			zap.Error(err),
			zap.String("intent", sctx.Classification.Intent))
		return e.fallbackResult(sctx.Classification.Intent)
	}

	merged := mergeSuggestions(slots)

	result = &SuggestionResult{
		Suggestions:     merged,
		PrimaryAction:   pickPrimary(merged),
		ContextualHints: e.contextualHints(sctx),
		Reasoning:       e.reasoning(sctx, merged),
	}
	return result
}

// mergeSuggestions flattens the per-generator slots, de-duplicates by ID
// (first occurrence in slot order wins), sorts by category priority then
// confidence with ID as the final tie-break, and truncates the list.
func mergeSuggestions(slots [][]ActionSuggestion) []ActionSuggestion {
	seen := make(map[string]bool)
	var merged []ActionSuggestion
	for _, slot := range slots {
		for _, s := range slot {
			if seen[s.ID] {
				continue
			}
			seen[s.ID] = true
			s.Confidence = clamp01(s.Confidence)
			merged = append(merged, s)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		pi, pj := categoryPriority[merged[i].Category], categoryPriority[merged[j].Category]
		if pi != pj {
			return pi > pj
		}
		if merged[i].Confidence != merged[j].Confidence {
			return merged[i].Confidence > merged[j].Confidence
		}
		return merged[i].ID < merged[j].ID
	})

	if len(merged) > maxSuggestions {
		merged = merged[:maxSuggestions]
	}
	return merged
}

// pickPrimary selects the highest-confidence primary suggestion, or the
// overall top item when no primary exists.
func pickPrimary(suggestions []ActionSuggestion) *ActionSuggestion {
	if len(suggestions) == 0 {
		return nil
	}
	for i := range suggestions {
		if suggestions[i].Category == CategoryPrimary {
			s := suggestions[i]
			return &s
		}
	}
	s := suggestions[0]
	return &s
}

// generateCoreByIntent emits the suggestion templates keyed off the
// resolved intent.
func (e *SuggestionEngine) generateCoreByIntent(sctx *SuggestionContext) []ActionSuggestion {
	conf := sctx.Classification.Confidence
	req := sctx.Request

	switch sctx.Classification.Intent {
	case IntentReply:
		return []ActionSuggestion{
			{ID: "draft_reply", Label: "Draft a reply", Category: CategoryPrimary, Confidence: conf, Action: "draft_reply"},
			{ID: "quick_replies", Label: "Show quick reply options", Category: CategorySecondary, Confidence: conf * 0.8, Action: "quick_replies"},
		}
	case IntentCompose:
		return []ActionSuggestion{
			{ID: "draft_compose", Label: "Draft a new message", Category: CategoryPrimary, Confidence: conf, Action: "draft_compose"},
		}
	case IntentSummarize:
		return []ActionSuggestion{
			{ID: "summarize_thread", Label: "Summarize this thread", Category: CategoryPrimary, Confidence: conf, Action: "summarize_thread"},
		}
	case IntentSchedule:
		if req.Entities != nil && len(req.Entities.Dates) > 0 {
			return []ActionSuggestion{
				{ID: "add_to_calendar", Label: "Add to calendar", Category: CategoryPrimary, Confidence: conf, Action: "add_to_calendar",
					Parameters: map[string]string{"dates": strings.Join(req.Entities.Dates, ";")}},
			}
		}
		return []ActionSuggestion{
			{ID: "propose_times", Label: "Propose meeting times", Category: CategoryPrimary, Confidence: conf, Action: "propose_times"},
		}
	case IntentSearch:
		return []ActionSuggestion{
			{ID: "search_mail", Label: "Search your mail", Category: CategoryPrimary, Confidence: conf, Action: "search_mail"},
		}
	case IntentTemplate:
		return []ActionSuggestion{
			{ID: "save_template", Label: "Save as template", Category: CategoryPrimary, Confidence: conf, Action: "save_template"},
		}
	case IntentTranslate:
		return []ActionSuggestion{
			{ID: "translate_message", Label: "Translate this message", Category: CategoryPrimary, Confidence: conf, Action: "translate_message"},
		}
	case IntentTone:
		return []ActionSuggestion{
			{ID: "adjust_tone", Label: "Adjust the tone", Category: CategoryPrimary, Confidence: conf, Action: "adjust_tone"},
		}
	case IntentUnsubscribe:
		return []ActionSuggestion{
			{ID: "unsubscribe", Label: "Unsubscribe from this sender", Category: CategoryPrimary, Confidence: conf, Action: "unsubscribe", RequiresConfirmation: true},
		}
	default:
		return []ActionSuggestion{
			{ID: "show_capabilities", Label: "See what I can help with", Category: CategorySecondary, Confidence: conf * 0.7, Action: "show_capabilities"},
		}
	}
}

// generateContextual derives suggestions from extracted entities and
// thread shape rather than intent.
func (e *SuggestionEngine) generateContextual(sctx *SuggestionContext) []ActionSuggestion {
	req := sctx.Request
	var out []ActionSuggestion

	if req.ParticipantCount > largeParticipantCount {
		out = append(out, ActionSuggestion{
			ID: "reply_all_check", Label: "Confirm recipients before replying all",
			Category: CategoryContextual, Confidence: 0.6, Action: "reply_all_check",
		})
	}
	if req.Entities != nil && req.Entities.Urgent {
		out = append(out, ActionSuggestion{
			ID: "priority_reply", Label: "Reply now, this looks urgent",
			Category: CategoryContextual, Confidence: 0.8, Action: "priority_reply",
		})
	}
	if req.Entities != nil && len(req.Entities.Dates) > 0 {
		out = append(out, ActionSuggestion{
			ID: "extract_dates", Label: "Review the dates mentioned",
			Category: CategoryContextual, Confidence: 0.55, Action: "extract_dates",
			Parameters: map[string]string{"dates": strings.Join(req.Entities.Dates, ";")},
		})
	}
	if req.ThreadDepth > deepThreadDepth {
		// Duplicates the intent-core ID on purpose when intent is
		// summarize; the merge keeps the first occurrence.
		out = append(out, ActionSuggestion{
			ID: "summarize_thread", Label: "Summarize this long thread",
			Category: CategoryContextual, Confidence: 0.65, Action: "summarize_thread",
		})
	}
	return out
}

// trustFactor maps contact trust into a multiplier on classifier
// confidence for auto-send eligibility. High trust barely discounts
// confidence; the floor keeps low-trust contacts from ever clearing the
// gate this way.
func trustFactor(trust float64) float64 {
	return 0.9 + trust*0.1
}

// generatePersonalized emits suggestions tuned to the user's profile and
// the contact's trust state.
func (e *SuggestionEngine) generatePersonalized(sctx *SuggestionContext) []ActionSuggestion {
	var out []ActionSuggestion
	req := sctx.Request
	conf := sctx.Classification.Confidence

	if sctx.Trust != nil && sctx.Trust.TrustScore > autoSendTrustFloor &&
		conf*trustFactor(sctx.Trust.TrustScore) > sctx.EffectiveThreshold {
		out = append(out, ActionSuggestion{
			ID: "enable_auto_send", Label: "Send automatically",
			Category: CategoryPrimary, Confidence: conf * trustFactor(sctx.Trust.TrustScore),
			Action: "enable_auto_send",
			Parameters: map[string]string{
				"contact": sctx.Trust.ContactEmail,
				"trust":   fmt.Sprintf("%.2f", sctx.Trust.TrustScore),
			},
		})
	}

	if sctx.Profile != nil && req.DefaultTone != "" &&
		sctx.Profile.TonePreference != ToneNeutral &&
		sctx.Profile.TonePreference != req.DefaultTone {
		out = append(out, ActionSuggestion{
			ID: "match_tone", Label: fmt.Sprintf("Adjust tone to %s", sctx.Profile.TonePreference),
			Category: CategoryContextual, Confidence: 0.6, Action: "match_tone",
			Parameters: map[string]string{"tone": sctx.Profile.TonePreference},
		})
	}

	if req.HasDraft && req.UserSignature != "" {
		out = append(out, ActionSuggestion{
			ID: "insert_signature", Label: "Insert your signature",
			Category: CategorySecondary, Confidence: 0.5, Action: "insert_signature",
		})
	}
	return out
}

// generateCrossModule delegates to the router.
func (e *SuggestionEngine) generateCrossModule(sctx *SuggestionContext) []ActionSuggestion {
	return e.crossModule.Route(sctx.Request.Text, sctx.Request.EmailContext)
}

// contextualHints builds the human-readable hint strings for UI display.
func (e *SuggestionEngine) contextualHints(sctx *SuggestionContext) []string {
	var hints []string
	req := sctx.Request

	if sctx.Trust != nil {
		hints = append(hints, fmt.Sprintf("You exchange mail with %s %s", sctx.Trust.ContactEmail,
			describeFrequency(sctx.Trust.CommunicationFrequency)))
	}
	if req.Entities != nil && req.Entities.Urgent {
		hints = append(hints, "This message appears urgent")
	}
	if req.ThreadDepth > deepThreadDepth {
		hints = append(hints, fmt.Sprintf("Long thread: %d messages so far", req.ThreadDepth))
	}
	return hints
}

func describeFrequency(n int) string {
	switch {
	case n > 50:
		return "very often"
	case n > 10:
		return "regularly"
	default:
		return "occasionally"
	}
}

// reasoning summarizes why the top suggestions were chosen.
func (e *SuggestionEngine) reasoning(sctx *SuggestionContext, merged []ActionSuggestion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Classified as %q with %.0f%% confidence (%s tier).",
		sctx.Classification.Intent, sctx.Classification.Confidence*100, sctx.Classification.Source)
	if sctx.Trust != nil {
		fmt.Fprintf(&b, " Contact trust %.2f (%s).", sctx.Trust.TrustScore, sctx.Trust.Relationship)
	}
	if len(merged) > 0 {
		fmt.Fprintf(&b, " Top suggestion: %s.", merged[0].Label)
	}
	return b.String()
}

// fallbackResult is the static suggestion list used when the pipeline
// fails internally.
func (e *SuggestionEngine) fallbackResult(intent string) *SuggestionResult {
	fallback := map[string][]ActionSuggestion{
		IntentReply: {
			{ID: "draft_reply", Label: "Draft a reply", Category: CategoryPrimary, Confidence: 0.5, Action: "draft_reply"},
		},
		IntentSummarize: {
			{ID: "summarize_thread", Label: "Summarize this thread", Category: CategoryPrimary, Confidence: 0.5, Action: "summarize_thread"},
		},
		IntentSchedule: {
			{ID: "propose_times", Label: "Propose meeting times", Category: CategoryPrimary, Confidence: 0.5, Action: "propose_times"},
		},
	}

	suggestions, ok := fallback[intent]
	if !ok {
		suggestions = []ActionSuggestion{
			{ID: "show_capabilities", Label: "See what I can help with", Category: CategorySecondary, Confidence: 0.4, Action: "show_capabilities"},
		}
	}
	return &SuggestionResult{
		Suggestions:   suggestions,
		PrimaryAction: pickPrimary(suggestions),
		Reasoning:     "suggestion pipeline unavailable; using static fallback",
	}
}
