package di

import (
	"flag"
	"fmt"
	"strings"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/carys/llm-decision-engine/internal/adapters/store"
	"github.com/carys/llm-decision-engine/internal/config"
	"github.com/carys/llm-decision-engine/internal/core"
	"github.com/carys/llm-decision-engine/internal/factory"
	"github.com/carys/llm-decision-engine/internal/logging"
	"github.com/carys/llm-decision-engine/internal/restricted"
	"github.com/carys/llm-decision-engine/internal/utils"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// LLM provider flags
	Provider     string
	MaxTokens    int
	Temperature  float64
	TopP         float64
	MaxInputSize int

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIModelName string

	// Engine flags
	ProviderTimeout   string
	RestrictedDomains string

	// Input flags
	InputFile  string
	UserID     string
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	// LLM provider flags
	flag.StringVar(&flags.Provider, "provider", "local", "LLM provider (local, bedrock, gemini, openai)")
	flag.IntVar(&flags.MaxTokens, "max-tokens", 500, "Maximum tokens for LLM response")
	flag.Float64Var(&flags.Temperature, "temperature", 0.1, "Temperature for LLM generation")
	flag.Float64Var(&flags.TopP, "top-p", 0.9, "Top-p for LLM generation")
	flag.IntVar(&flags.MaxInputSize, "max-input-size", 4096, "Maximum input size to send to LLM")

	// Bedrock flags
	flag.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	flag.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Gemini flags
	flag.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	flag.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-pro", "Gemini model name")

	// OpenAI flags
	flag.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	flag.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-4", "OpenAI model name")

	// Engine flags
	flag.StringVar(&flags.ProviderTimeout, "provider-timeout", "10s", "Timeout for the LLM classification tier")
	flag.StringVar(&flags.RestrictedDomains, "restricted-domains", "", "Comma-separated domains excluded from auto-send")

	// Input flags
	flag.StringVar(&flags.InputFile, "file", "", "Input request file (use stdin if not specified)")
	flag.StringVar(&flags.UserID, "user", "cli-user", "User ID to run the request as")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.New()
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register in-memory profile store; the CLI runs one-shot requests
	// and keeps no state between invocations.
	if err := container.Provide(func(logger *zap.Logger) core.ProfileStore {
		return store.NewMemoryStore(logger)
	}); err != nil {
		return nil, err
	}

	// Register intent classifier
	if err := container.Provide(func(
		cfg *config.Config,
		f *factory.LLMFactory,
		textProcessor *utils.TextProcessor,
		logger *zap.Logger,
	) (*core.IntentClassifier, error) {
		timeout, err := cfg.GetDuration("engine.provider_timeout")
		if err != nil {
			return nil, fmt.Errorf("invalid provider timeout: %w", err)
		}

		var tiers []core.ClassifierTier
		client, err := f.CreateLLMClient()
		if err != nil {
			return nil, err
		}
		if client != nil {
			tiers = append(tiers, core.NewProviderTier(client, logger))
		}
		tiers = append(tiers, core.NewFallbackClassifier(textProcessor))

		return core.NewIntentClassifier(logger, timeout, tiers...), nil
	}); err != nil {
		return nil, err
	}

	// Register restricted recipient policy
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.RecipientPolicy {
		return restricted.NewChecker(cfg.GetStringSlice("autosend.restricted_domains"), logger)
	}); err != nil {
		return nil, err
	}

	// Register the engine components
	if err := container.Provide(core.NewCrossModuleRouter); err != nil {
		return nil, err
	}
	if err := container.Provide(core.NewSuggestionEngine); err != nil {
		return nil, err
	}
	if err := container.Provide(core.NewThresholdController); err != nil {
		return nil, err
	}
	if err := container.Provide(core.NewTrustLedger); err != nil {
		return nil, err
	}
	if err := container.Provide(core.NewOutcomeRecorder); err != nil {
		return nil, err
	}
	if err := container.Provide(core.NewDecisionService); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	v.Set("cli.verbose", flags.Verbose)

	// Set LLM provider
	v.Set("llm.provider", flags.Provider)

	// Set provider-specific configuration
	switch flags.Provider {
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		v.Set("bedrock.model_id", flags.BedrockModelID)
		v.Set("bedrock.max_tokens", flags.MaxTokens)
		v.Set("bedrock.temperature", flags.Temperature)
		v.Set("bedrock.top_p", flags.TopP)
		v.Set("bedrock.max_input_size", flags.MaxInputSize)
	case "gemini":
		v.Set("gemini.api_key", flags.GeminiAPIKey)
		v.Set("gemini.model_name", flags.GeminiModelName)
		v.Set("gemini.max_tokens", flags.MaxTokens)
		v.Set("gemini.temperature", flags.Temperature)
		v.Set("gemini.top_p", flags.TopP)
		v.Set("gemini.max_input_size", flags.MaxInputSize)
	case "openai":
		v.Set("openai.api_key", flags.OpenAIAPIKey)
		v.Set("openai.model_name", flags.OpenAIModelName)
		v.Set("openai.max_tokens", flags.MaxTokens)
		v.Set("openai.temperature", flags.Temperature)
		v.Set("openai.top_p", flags.TopP)
		v.Set("openai.max_input_size", flags.MaxInputSize)
	}

	// Set engine configuration
	v.Set("engine.provider_timeout", flags.ProviderTimeout)
	if flags.RestrictedDomains != "" {
		v.Set("autosend.restricted_domains", splitDomains(flags.RestrictedDomains))
	}

	return config.NewFromViper(v)
}

func splitDomains(s string) []string {
	var out []string
	for _, d := range strings.Split(s, ",") {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}
