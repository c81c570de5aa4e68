package core

import (
	"time"
)

// IntentClassification is the result of classifying a piece of user text.
// It is produced fresh for every request and never persisted.
type IntentClassification struct {
	Intent       string
	Confidence   float64
	Secondary    []string
	Reasoning    string
	Source       string
	ClassifiedAt time.Time
	ProcessingID string
}

// Intents the engine understands. Provider tiers may return other labels;
// the fallback tier only ever produces these.
const (
	IntentReply       = "reply"
	IntentCompose     = "compose"
	IntentSummarize   = "summarize"
	IntentSchedule    = "schedule"
	IntentSearch      = "search"
	IntentTemplate    = "template"
	IntentTranslate   = "translate"
	IntentTone        = "tone"
	IntentUnsubscribe = "unsubscribe"
	IntentAssistance  = "assistance"
)

// Sentiment of a single interaction with a contact.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Interaction is one historical exchange with a contact, used by the
// trust ledger.
type Interaction struct {
	Sent                int
	Received            int
	ResponseTimeSeconds float64
	Sentiment           Sentiment
}

// RelationshipType categorizes how the user relates to a contact.
type RelationshipType string

const (
	RelationshipColleague RelationshipType = "colleague"
	RelationshipClient    RelationshipType = "client"
	RelationshipFriend    RelationshipType = "friend"
	RelationshipManager   RelationshipType = "manager"
	RelationshipVendor    RelationshipType = "vendor"
	RelationshipUnknown   RelationshipType = "unknown"
)

// ContactTrustRecord holds the derived trust state for a (user, contact)
// pair. Upserted by natural key, never deleted by the engine.
type ContactTrustRecord struct {
	UserID                 string
	ContactEmail           string
	TrustScore             float64
	CommunicationFrequency int
	ResponseRate           float64
	Relationship           RelationshipType
	LastInteraction        time.Time
	AutoSendSuccess        float64
	Version                int64
}

// Personality trait values. Each field of PersonalityProfile is a small
// closed enum.
const (
	SpeedImmediate  = "immediate"
	SpeedThoughtful = "thoughtful"
	SpeedBalanced   = "balanced"

	VerbosityConcise  = "concise"
	VerbosityDetailed = "detailed"
	VerbosityBalanced = "balanced"

	DecisionQuick      = "quick"
	DecisionDeliberate = "deliberate"
	DecisionBalanced   = "balanced"

	ToneFriendly     = "friendly"
	ToneProfessional = "professional"
	ToneNeutral      = "neutral"

	StyleFormal   = "formal"
	StyleCasual   = "casual"
	StyleBalanced = "balanced"
)

// PersonalityProfile holds inferred behavioral traits for a user. Created
// with defaults on first use and mutated incrementally, never replaced
// wholesale.
type PersonalityProfile struct {
	UserID                  string
	WritingStyle            string
	ResponseSpeed           string
	CommunicationPreference string
	TonePreference          string
	DecisionMaking          string
	Version                 int64
}

// DefaultProfile returns the profile used before any behavior has been
// observed for a user.
func DefaultProfile(userID string) *PersonalityProfile {
	return &PersonalityProfile{
		UserID:                  userID,
		WritingStyle:            StyleBalanced,
		ResponseSpeed:           SpeedBalanced,
		CommunicationPreference: VerbosityBalanced,
		TonePreference:          ToneNeutral,
		DecisionMaking:          DecisionBalanced,
	}
}

// Threshold bounds for the auto-send controller.
const (
	ThresholdFloor   = 0.75
	ThresholdCeiling = 0.95
	InitialThreshold = 0.85
)

// AutoSendMetrics is the persisted state of the auto-send threshold
// controller for one user.
type AutoSendMetrics struct {
	UserID                     string
	TotalAutoSends             int
	SuccessfulAutoSends        int
	CanceledAutoSends          int
	RegrettedAutoSends         int
	AverageConfidenceAtSend    float64
	OptimalConfidenceThreshold float64
	LastThresholdUpdate        time.Time
	Version                    int64
}

// NewAutoSendMetrics returns controller state before any outcome has been
// observed.
func NewAutoSendMetrics(userID string) *AutoSendMetrics {
	return &AutoSendMetrics{
		UserID:                     userID,
		AverageConfidenceAtSend:    InitialThreshold,
		OptimalConfidenceThreshold: InitialThreshold,
	}
}

// TemplateStats tracks how a saved template performs for a user.
type TemplateStats struct {
	UserID        string
	TemplateID    string
	UsageCount    int
	AcceptedCount int
	Performance   float64
	Version       int64
}

// SuggestionCategory ranks suggestion sources against each other.
type SuggestionCategory string

const (
	CategoryPrimary     SuggestionCategory = "primary"
	CategorySecondary   SuggestionCategory = "secondary"
	CategoryContextual  SuggestionCategory = "contextual"
	CategoryCrossModule SuggestionCategory = "cross_module"
)

// categoryPriority orders categories for ranking. Higher sorts first.
var categoryPriority = map[SuggestionCategory]int{
	CategoryPrimary:     4,
	CategorySecondary:   3,
	CategoryContextual:  2,
	CategoryCrossModule: 1,
}

// ActionSuggestion is one candidate next action offered to the caller.
// Ephemeral, generated per request.
type ActionSuggestion struct {
	ID                   string
	Label                string
	Category             SuggestionCategory
	Confidence           float64
	Action               string
	Parameters           map[string]string
	RequiresConfirmation bool
}

// OutcomeType identifies what kind of event an InteractionOutcome records.
type OutcomeType string

const (
	OutcomeAutoSend    OutcomeType = "auto_send"
	OutcomeSuggestion  OutcomeType = "suggestion"
	OutcomeTemplateUse OutcomeType = "template_use"
	OutcomeDraftEdit   OutcomeType = "draft_edit"
)

// OutcomeStatus is what ultimately happened to a suggested or autonomous
// action.
type OutcomeStatus string

const (
	StatusSuccess   OutcomeStatus = "success"
	StatusModified  OutcomeStatus = "modified"
	StatusCanceled  OutcomeStatus = "canceled"
	StatusRegretted OutcomeStatus = "regretted"
)

// InteractionOutcome is a write-once event feeding the learning updates.
// Recording the same event twice counts twice; deduplication is the
// caller's concern.
type InteractionOutcome struct {
	EventID          string
	UserID           string
	Type             OutcomeType
	Content          string
	TimingMs         int64
	Outcome          OutcomeStatus
	ConfidenceAtSend float64
	TemplateID       string
	Accepted         bool
	Metadata         map[string]string
	OccurredAt       time.Time
}

// Entities are caller-extracted features of the input text. All fields
// are optional.
type Entities struct {
	People    []string
	Dates     []string
	Locations []string
	Topics    []string
	Urgent    bool
	Sentiment Sentiment
}

// DecisionRequest is the engine's per-request input. Text is required;
// everything else is optional context supplied by the caller.
type DecisionRequest struct {
	UserID           string
	Text             string
	ContactEmail     string
	ThreadDepth      int
	ParticipantCount int
	Entities         *Entities
	HasDraft         bool
	ReplyOptions     []string
	UserSignature    string
	DefaultTone      string
	EmailContext     string
}

// HasCandidateAction reports whether there is something concrete the
// engine could send autonomously.
func (r *DecisionRequest) HasCandidateAction() bool {
	return r.HasDraft || len(r.ReplyOptions) > 0
}

// AutoSendDecision describes the gate's verdict for one request. Only
// attached to the response when Eligible is true.
type AutoSendDecision struct {
	Eligible           bool
	Confidence         float64
	EffectiveThreshold float64
	CountdownSeconds   int
	RecipientHint      string
}

// DecisionResponse is the caller-facing output of one engine pass.
type DecisionResponse struct {
	Intent          *IntentClassification
	Suggestions     []ActionSuggestion
	PrimaryAction   *ActionSuggestion
	AutoSend        *AutoSendDecision
	ContextualHints []string
	Reasoning       string
	ProcessingID    string
}

// clamp01 keeps probability-like values inside [0, 1]. Applied at every
// write of such a field.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// clampThreshold keeps the controller threshold inside its operating band.
func clampThreshold(v float64) float64 {
	if v < ThresholdFloor {
		return ThresholdFloor
	}
	if v > ThresholdCeiling {
		return ThresholdCeiling
	}
	return v
}
