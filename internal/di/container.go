package di

import (
	"fmt"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/carys/llm-decision-engine/internal/config"
	"github.com/carys/llm-decision-engine/internal/core"
	"github.com/carys/llm-decision-engine/internal/factory"
	"github.com/carys/llm-decision-engine/internal/logging"
	"github.com/carys/llm-decision-engine/internal/restricted"
	"github.com/carys/llm-decision-engine/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
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

	// Register profile store
	if err := container.Provide(func(f *factory.StoreFactory) (core.ProfileStore, error) {
		return f.CreateProfileStore()
	}); err != nil {
		return nil, err
	}

	// Register intent classifier. The provider tier is only added when an
	// external LLM is configured; the pattern tier is always last.
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
		restrictedDomains := cfg.GetStringSlice("autosend.restricted_domains")
		if len(restrictedDomains) > 0 {
			logger.Info("Loaded restricted domains", zap.Strings("domains", restrictedDomains))
		}
		return restricted.NewChecker(restrictedDomains, logger)
	}); err != nil {
		return nil, err
	}

	// Register cross-module router
	if err := container.Provide(core.NewCrossModuleRouter); err != nil {
		return nil, err
	}

	// Register suggestion engine
	if err := container.Provide(core.NewSuggestionEngine); err != nil {
		return nil, err
	}

	// Register threshold controller
	if err := container.Provide(core.NewThresholdController); err != nil {
		return nil, err
	}

	// Register trust ledger
	if err := container.Provide(core.NewTrustLedger); err != nil {
		return nil, err
	}

	// Register outcome recorder
	if err := container.Provide(core.NewOutcomeRecorder); err != nil {
		return nil, err
	}

	// Register decision service
	if err := container.Provide(core.NewDecisionService); err != nil {
		return nil, err
	}

	return container, nil
}
