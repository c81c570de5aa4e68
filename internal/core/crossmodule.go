package core

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// routingThreshold is the minimum keyword-overlap score before the
// engine proposes switching modules.
const routingThreshold = 0.3

// moduleKeywords are the fixed per-module keyword sets scored against
// the input. Score = matched / set size.
var moduleKeywords = map[string][]string{
	"travel": {
		"flight", "hotel", "vacation", "trip", "travel",
		"booking", "itinerary", "airport", "destination",
	},
	"shopping": {
		"buy", "purchase", "order", "price", "product",
		"cart", "shipping", "discount", "refund", "store",
	},
	"hiring": {
		"job", "candidate", "resume", "interview", "hiring",
		"recruiter", "salary", "offer", "position",
	},
}

// Hint extraction patterns. Fixed lists, no provider involvement.
var (
	locationPattern = regexp.MustCompile(`\b(?:in|to|at|from)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`)
	datePattern     = regexp.MustCompile(`(?i)\b(?:\d{1,2}[/-]\d{1,2}(?:[/-]\d{2,4})?|(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2}(?:st|nd|rd|th)?|tomorrow|tonight|next\s+(?:week|month|monday|tuesday|wednesday|thursday|friday|saturday|sunday))\b`)
	pricePattern    = regexp.MustCompile(`[$€£]\s?\d+(?:[.,]\d{1,2})?`)
	productPattern  = regexp.MustCompile(`(?i)\b(?:buy|order|purchase|looking for)\s+(?:a|an|some|the)?\s*([a-z0-9][a-z0-9 -]{2,40}?)(?:[.,!?]|$| for | from )`)
	companyPattern  = regexp.MustCompile(`\b(?:at|with|for|from)\s+([A-Z][A-Za-z0-9&]+(?:\s+(?:Inc|Labs|Corp|LLC|Ltd|Co))?)\b`)
)

// skillKeywords is the fixed vocabulary for hiring-skill hints.
var skillKeywords = []string{
	"python", "golang", "java", "javascript", "typescript", "react",
	"sql", "kubernetes", "terraform", "design", "marketing", "sales",
}

// CrossModuleRouter detects when input is better served by another
// product module and assembles pre-fill hints for the hand-off.
type CrossModuleRouter struct{}

// NewCrossModuleRouter creates the router. It is stateless and safe for
// concurrent use.
func NewCrossModuleRouter() *CrossModuleRouter {
	return &CrossModuleRouter{}
}

// scoreModule computes the keyword-overlap score for one module set.
func scoreModule(words map[string]bool, keywords []string) (float64, []string) {
	var matched []string
	for _, kw := range keywords {
		if words[kw] {
			matched = append(matched, kw)
		}
	}
	return float64(len(matched)) / float64(len(keywords)), matched
}

// tokenize splits text into a lower-cased word set.
func tokenize(text string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}) {
		words[w] = true
	}
	return words
}

// Route scores the input against every module and returns routing
// suggestions for those clearing the threshold. Results are ordered by
// module name for determinism; score ranking happens in the merge.
func (r *CrossModuleRouter) Route(text string, longContext string) []ActionSuggestion {
	words := tokenize(text)
	if longContext != "" {
		for w := range tokenize(longContext) {
			words[w] = true
		}
	}

	names := make([]string, 0, len(moduleKeywords))
	for name := range moduleKeywords {
		names = append(names, name)
	}
	sort.Strings(names)

	var suggestions []ActionSuggestion
	for _, name := range names {
		score, matched := scoreModule(words, moduleKeywords[name])
		if score <= routingThreshold {
			continue
		}

		params := r.ExtractHints(name, text+" "+longContext)
		params["matched_keywords"] = strings.Join(matched, ",")

		suggestions = append(suggestions, ActionSuggestion{
			ID:                   "route_" + name,
			Label:                fmt.Sprintf("Continue in the %s assistant", name),
			Category:             CategoryCrossModule,
			Confidence:           clamp01(score),
			Action:               "switch_module",
			Parameters:           params,
			RequiresConfirmation: true,
		})
	}
	return suggestions
}

// ExtractHints pulls structured pre-fill hints for the target module out
// of the raw text using the fixed pattern lists.
func (r *CrossModuleRouter) ExtractHints(module, text string) map[string]string {
	params := map[string]string{"module": module}

	if dates := firstMatches(datePattern, text, 3); len(dates) > 0 {
		params["dates"] = strings.Join(dates, ";")
	}

	switch module {
	case "travel":
		if locs := firstSubmatches(locationPattern, text, 3); len(locs) > 0 {
			params["locations"] = strings.Join(locs, ";")
		}
	case "shopping":
		if products := firstSubmatches(productPattern, text, 2); len(products) > 0 {
			params["products"] = strings.Join(products, ";")
		}
		if prices := firstMatches(pricePattern, text, 3); len(prices) > 0 {
			params["prices"] = strings.Join(prices, ";")
		}
	case "hiring":
		if companies := firstSubmatches(companyPattern, text, 2); len(companies) > 0 {
			params["companies"] = strings.Join(companies, ";")
		}
		words := tokenize(text)
		var skills []string
		for _, s := range skillKeywords {
			if words[s] {
				skills = append(skills, s)
			}
		}
		if len(skills) > 0 {
			params["skills"] = strings.Join(skills, ";")
		}
	}
	return params
}

func firstMatches(re *regexp.Regexp, text string, limit int) []string {
	matches := re.FindAllString(text, limit)
	for i, m := range matches {
		matches[i] = strings.TrimSpace(m)
	}
	return matches
}

func firstSubmatches(re *regexp.Regexp, text string, limit int) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(text, limit) {
		if len(m) > 1 {
			out = append(out, strings.TrimSpace(m[1]))
		}
	}
	return out
}
