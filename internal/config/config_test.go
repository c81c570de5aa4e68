package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	if got := cfg.GetString("llm.provider"); got != "local" {
		t.Errorf("llm.provider = %q, want %q", got, "local")
	}
	if got := cfg.GetString("store.type"); got != "memory" {
		t.Errorf("store.type = %q, want %q", got, "memory")
	}
	if got := cfg.GetStringSlice("autosend.restricted_domains"); len(got) != 0 {
		t.Errorf("autosend.restricted_domains = %v, want empty", got)
	}

	timeout, err := cfg.GetDuration("engine.provider_timeout")
	if err != nil {
		t.Fatalf("GetDuration() error = %v", err)
	}
	if timeout != 10*time.Second {
		t.Errorf("engine.provider_timeout = %v, want 10s", timeout)
	}
}

func TestGetDurationInvalid(t *testing.T) {
	v := NewEmptyViper()
	v.Set("engine.provider_timeout", "not-a-duration")
	cfg := NewFromViper(v)

	if _, err := cfg.GetDuration("engine.provider_timeout"); err == nil {
		t.Error("GetDuration() error = nil, want parse error")
	}
}

func TestTypedAccessors(t *testing.T) {
	v := NewEmptyViper()
	v.Set("llm.provider", "openai")
	v.Set("openai.api_key", "sk-test")
	v.Set("openai.model_name", "gpt-4o")
	v.Set("openai.max_tokens", 256)
	cfg := NewFromViper(v)

	if got := cfg.GetLLM().Provider; got != "openai" {
		t.Errorf("GetLLM().Provider = %q, want %q", got, "openai")
	}

	oa := cfg.GetOpenAI()
	if oa.APIKey != "sk-test" || oa.ModelName != "gpt-4o" || oa.MaxTokens != 256 {
		t.Errorf("GetOpenAI() = %+v, want flag overrides applied", oa)
	}
	// Untouched keys keep their defaults.
	if oa.MaxInputSize != 4096 {
		t.Errorf("MaxInputSize = %d, want default 4096", oa.MaxInputSize)
	}

	bed := cfg.GetBedrock()
	if bed.Region != "us-east-1" || bed.ModelID != "anthropic.claude-v2" {
		t.Errorf("GetBedrock() = %+v, want defaults", bed)
	}
}
