package core

import (
	"fmt"
	"strings"
)

// Behavioral inference cut-offs.
const (
	immediateResponseMs  = 5000
	thoughtfulResponseMs = 30000
	conciseWordLimit     = 10
	detailedWordFloor    = 50
)

// ObserveInteraction nudges the profile from one observed interaction.
// Timing between the cut-offs and word counts between the limits leave
// the corresponding trait untouched.
func ObserveInteraction(p *PersonalityProfile, timingMs int64, content string) {
	switch {
	case timingMs > 0 && timingMs < immediateResponseMs:
		p.ResponseSpeed = SpeedImmediate
	case timingMs > thoughtfulResponseMs:
		p.ResponseSpeed = SpeedThoughtful
	}

	words := len(strings.Fields(content))
	switch {
	case words > 0 && words < conciseWordLimit:
		p.CommunicationPreference = VerbosityConcise
	case words > detailedWordFloor:
		p.CommunicationPreference = VerbosityDetailed
	}
}

// PreferenceKind tags an explicit preference update crossing the
// component boundary.
type PreferenceKind string

const (
	PreferenceTone         PreferenceKind = "tone"
	PreferencePace         PreferenceKind = "pace"
	PreferenceVerbosity    PreferenceKind = "verbosity"
	PreferenceDecisiveness PreferenceKind = "decisiveness"
	PreferenceWritingStyle PreferenceKind = "writing_style"
)

// PreferenceUpdate is an explicit, user-driven trait change, as opposed
// to the inferred nudges of ObserveInteraction.
type PreferenceUpdate struct {
	Kind  PreferenceKind
	Value string
}

// ApplyPreference applies an explicit preference update to the profile.
// Unknown kinds are an error rather than a silent no-op.
func ApplyPreference(p *PersonalityProfile, u PreferenceUpdate) error {
	switch u.Kind {
	case PreferenceTone:
		p.TonePreference = u.Value
	case PreferencePace:
		p.ResponseSpeed = u.Value
	case PreferenceVerbosity:
		p.CommunicationPreference = u.Value
	case PreferenceDecisiveness:
		p.DecisionMaking = u.Value
	case PreferenceWritingStyle:
		p.WritingStyle = u.Value
	default:
		return fmt.Errorf("unsupported preference kind %q", u.Kind)
	}
	return nil
}
