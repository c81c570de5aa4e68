package core

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// defaultFallbackConfidence is reported when no pattern matches.
const defaultFallbackConfidence = 0.6

// fallbackPattern pairs one intent with a weighted regex. All patterns
// are evaluated against the normalized, lower-cased input and the
// highest-weight match wins.
type fallbackPattern struct {
	intent  string
	weight  float64
	pattern *regexp.Regexp
}

var fallbackPatterns = []fallbackPattern{
	{IntentReply, 0.9, regexp.MustCompile(`\b(reply|respond|answer|write back|get back to)\b`)},
	{IntentCompose, 0.85, regexp.MustCompile(`\b(compose|draft|write) (an? )?(new )?(email|message|note)\b`)},
	{IntentSummarize, 0.9, regexp.MustCompile(`\b(summar(y|ize|ise)|tl;?dr|recap|key points)\b`)},
	{IntentSchedule, 0.85, regexp.MustCompile(`\b(schedule|meeting|calendar|appointment|book a time|availab(le|ility))\b`)},
	{IntentSearch, 0.8, regexp.MustCompile(`\b(find|search|look (for|up)|locate|where is)\b`)},
	{IntentTemplate, 0.85, regexp.MustCompile(`\b(template|boilerplate|canned (response|reply)|save (this|as))\b`)},
	{IntentTranslate, 0.9, regexp.MustCompile(`\btranslat(e|ion)\b|\bin (french|spanish|german|japanese|chinese)\b`)},
	{IntentTone, 0.75, regexp.MustCompile(`\b(tone|sound more|make (it|this) (formal|casual|friendly|polite)|rephrase|reword)\b`)},
	{IntentUnsubscribe, 0.9, regexp.MustCompile(`\b(unsubscribe|opt.?out|stop (these|the) emails?)\b`)},
	{IntentAssistance, 0.65, regexp.MustCompile(`\b(help|assist|how do i|what can you)\b`)},
}

// Normalizer prepares text for pattern matching. Satisfied by
// utils.TextProcessor; kept as a one-method interface so the core
// package stays free of adapter imports.
type Normalizer interface {
	Normalize(text string) string
}

// FallbackClassifier is the local deterministic tier. It has no external
// dependencies, is always available, and never fails, which makes it the
// guaranteed last link of the chain.
type FallbackClassifier struct {
	normalizer Normalizer
}

// NewFallbackClassifier builds the local tier. normalizer may be nil, in
// which case input is matched as-is (lower-cased only).
func NewFallbackClassifier(normalizer Normalizer) *FallbackClassifier {
	return &FallbackClassifier{normalizer: normalizer}
}

func (f *FallbackClassifier) Name() string { return "fallback" }

func (f *FallbackClassifier) Available() bool { return true }

// Classify matches the input against the weighted pattern table.
func (f *FallbackClassifier) Classify(_ context.Context, req *ClassifyRequest) (*IntentClassification, error) {
	text := req.Text
	if f.normalizer != nil {
		text = f.normalizer.Normalize(text)
	}
	text = strings.ToLower(text)

	type match struct {
		intent string
		weight float64
	}
	var matches []match
	for _, fp := range fallbackPatterns {
		if fp.pattern.MatchString(text) {
			matches = append(matches, match{fp.intent, fp.weight})
		}
	}

	if len(matches) == 0 {
		return &IntentClassification{
			Intent:       IntentAssistance,
			Confidence:   defaultFallbackConfidence,
			Reasoning:    "no pattern matched; defaulting to general assistance",
			Source:       f.Name(),
			ClassifiedAt: time.Now(),
		}, nil
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].weight > matches[j].weight
	})

	best := matches[0]
	secondary := make([]string, 0, len(matches)-1)
	for _, m := range matches[1:] {
		if m.intent != best.intent {
			secondary = append(secondary, m.intent)
		}
	}

	return &IntentClassification{
		Intent:       best.intent,
		Confidence:   clamp01(best.weight),
		Secondary:    secondary,
		Reasoning:    fmt.Sprintf("pattern match for %q (weight %.2f)", best.intent, best.weight),
		Source:       f.Name(),
		ClassifiedAt: time.Now(),
	}, nil
}
