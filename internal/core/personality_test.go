package core

import (
	"strings"
	"testing"
)

func TestObserveInteractionTiming(t *testing.T) {
	tests := []struct {
		name     string
		timingMs int64
		want     string
	}{
		{"immediate", 2000, SpeedImmediate},
		{"thoughtful", 60000, SpeedThoughtful},
		{"between cutoffs leaves trait alone", 15000, SpeedBalanced},
		{"zero timing leaves trait alone", 0, SpeedBalanced},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultProfile("u1")
			ObserveInteraction(p, tt.timingMs, "")
			if p.ResponseSpeed != tt.want {
				t.Errorf("ResponseSpeed = %q, want %q", p.ResponseSpeed, tt.want)
			}
		})
	}
}

func TestObserveInteractionVerbosity(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"concise", "short and sweet", VerbosityConcise},
		{"detailed", strings.Repeat("word ", 60), VerbosityDetailed},
		{"middle leaves trait alone", strings.Repeat("word ", 30), VerbosityBalanced},
		{"empty leaves trait alone", "", VerbosityBalanced},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultProfile("u1")
			ObserveInteraction(p, 0, tt.content)
			if p.CommunicationPreference != tt.want {
				t.Errorf("CommunicationPreference = %q, want %q", p.CommunicationPreference, tt.want)
			}
		})
	}
}

func TestApplyPreference(t *testing.T) {
	tests := []struct {
		kind  PreferenceKind
		value string
		check func(*PersonalityProfile) string
	}{
		{PreferenceTone, ToneFriendly, func(p *PersonalityProfile) string { return p.TonePreference }},
		{PreferencePace, SpeedImmediate, func(p *PersonalityProfile) string { return p.ResponseSpeed }},
		{PreferenceVerbosity, VerbosityConcise, func(p *PersonalityProfile) string { return p.CommunicationPreference }},
		{PreferenceDecisiveness, DecisionQuick, func(p *PersonalityProfile) string { return p.DecisionMaking }},
		{PreferenceWritingStyle, StyleFormal, func(p *PersonalityProfile) string { return p.WritingStyle }},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			p := DefaultProfile("u1")
			if err := ApplyPreference(p, PreferenceUpdate{Kind: tt.kind, Value: tt.value}); err != nil {
				t.Fatalf("ApplyPreference() error = %v", err)
			}
			if got := tt.check(p); got != tt.value {
				t.Errorf("trait = %q, want %q", got, tt.value)
			}
		})
	}
}

func TestApplyPreferenceUnknownKind(t *testing.T) {
	p := DefaultProfile("u1")
	err := ApplyPreference(p, PreferenceUpdate{Kind: "mood", Value: "sunny"})
	if err == nil {
		t.Fatal("ApplyPreference() error = nil, want error for unknown kind")
	}
}

func TestDefaultProfile(t *testing.T) {
	p := DefaultProfile("u1")
	if p.UserID != "u1" {
		t.Errorf("UserID = %q, want %q", p.UserID, "u1")
	}
	if p.DecisionMaking != DecisionBalanced || p.TonePreference != ToneNeutral {
		t.Errorf("unexpected defaults: %+v", p)
	}
}
