package restricted

import (
	"testing"

	"go.uber.org/zap"
)

func TestIsRestricted(t *testing.T) {
	checker := NewChecker([]string{"Legal.example.com", " press.example.com "}, zap.NewNop())

	tests := []struct {
		name  string
		email string
		want  bool
	}{
		{"restricted domain", "counsel@legal.example.com", true},
		{"restricted domain mixed case", "Counsel@LEGAL.example.COM", true},
		{"trimmed configured domain", "pr@press.example.com", true},
		{"other domain", "friend@example.com", false},
		{"subdomain does not match", "a@sub.legal.example.com", false},
		{"malformed address", "not-an-email", false},
		{"empty address", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsRestricted(tt.email); got != tt.want {
				t.Errorf("IsRestricted(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestIsRestrictedNoDomains(t *testing.T) {
	checker := NewChecker(nil, zap.NewNop())
	if checker.IsRestricted("anyone@anywhere.example") {
		t.Error("IsRestricted() = true with no configured domains")
	}
}
