package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/carys/llm-decision-engine/internal/core"
	"github.com/carys/llm-decision-engine/internal/di"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

func run(flags *di.CLIFlags, logger *zap.Logger, service *core.DecisionService) error {
	defer logger.Sync()

	// Read input text from file or stdin
	var reader io.Reader
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err), zap.String("file", flags.InputFile))
		}
		defer file.Close()
		reader = file
		logger.Info("Reading input from file", zap.String("file", flags.InputFile))
	} else {
		reader = os.Stdin
		logger.Info("Reading input from stdin")
	}

	textBytes, err := io.ReadAll(reader)
	if err != nil {
		logger.Fatal("Failed to read input", zap.Error(err))
	}
	text := strings.TrimSpace(string(textBytes))

	req := &core.DecisionRequest{
		UserID: flags.UserID,
		Text:   text,
	}

	// Print request summary
	fmt.Printf("\n=== Request Summary ===\n")
	fmt.Printf("User: %s\n", flags.UserID)
	fmt.Printf("Provider: %s\n", flags.Provider)
	fmt.Printf("Input length: %d bytes\n", len(text))

	startTime := time.Now()
	resp, err := service.Decide(context.Background(), req)
	if err != nil {
		logger.Fatal("Failed to process request", zap.Error(err))
	}
	duration := time.Since(startTime)

	// Print results
	fmt.Printf("\n=== Classification ===\n")
	fmt.Printf("Intent: %s\n", resp.Intent.Intent)
	fmt.Printf("Confidence: %.4f\n", resp.Intent.Confidence)
	fmt.Printf("Source: %s\n", resp.Intent.Source)
	if len(resp.Intent.Secondary) > 0 {
		fmt.Printf("Secondary: %s\n", strings.Join(resp.Intent.Secondary, ", "))
	}
	if resp.Intent.Reasoning != "" {
		fmt.Printf("Reasoning: %s\n", resp.Intent.Reasoning)
	}

	fmt.Printf("\n=== Suggestions ===\n")
	for i, s := range resp.Suggestions {
		marker := " "
		if resp.PrimaryAction != nil && s.ID == resp.PrimaryAction.ID {
			marker = "*"
		}
		fmt.Printf("%s %d. [%s] %s (%.2f, %s)\n", marker, i+1, s.Category, s.Label, s.Confidence, s.Action)
	}
	if len(resp.ContextualHints) > 0 {
		fmt.Printf("\nHints: %s\n", strings.Join(resp.ContextualHints, "; "))
	}

	fmt.Printf("\n=== Auto-send ===\n")
	if resp.AutoSend != nil {
		fmt.Printf("Eligible: true\n")
		fmt.Printf("Confidence: %.4f\n", resp.AutoSend.Confidence)
		fmt.Printf("Threshold: %.4f\n", resp.AutoSend.EffectiveThreshold)
		fmt.Printf("Countdown: %ds\n", resp.AutoSend.CountdownSeconds)
	} else {
		fmt.Printf("Eligible: false\n")
	}
	fmt.Printf("\nProcessing time: %v\n", duration)

	return nil
}
