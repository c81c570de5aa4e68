package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/carys/llm-decision-engine/internal/core"
	"github.com/carys/llm-decision-engine/internal/di"
	"go.uber.org/zap"
)

// request is one line of engine input. Exactly one of Decide or Outcome
// must be set, selected by Kind.
type request struct {
	Kind    string                   `json:"kind"`
	Decide  *core.DecisionRequest    `json:"decide,omitempty"`
	Outcome *core.InteractionOutcome `json:"outcome,omitempty"`
}

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	service *core.DecisionService,
	recorder *core.OutcomeRecorder,
	store core.ProfileStore,
) error {
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Shutting down...")
		cancel()
	}()

	logger.Info("Reading requests from stdin")
	err := processRequests(ctx, os.Stdin, os.Stdout, service, recorder, logger)

	// Close the store if it holds external resources
	if closer, ok := store.(interface{ Close() error }); ok {
		if cerr := closer.Close(); cerr != nil {
			logger.Error("Failed to close profile store", zap.Error(cerr))
		}
	}

	logger.Info("Shutdown complete")
	return err
}

// processRequests reads newline-delimited JSON requests and writes one
// JSON response line per decide request. Bad lines are logged and
// skipped so one malformed request cannot stall the stream.
func processRequests(
	ctx context.Context,
	in io.Reader,
	out io.Writer,
	service *core.DecisionService,
	recorder *core.OutcomeRecorder,
	logger *zap.Logger,
) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	encoder := json.NewEncoder(out)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req request
		if err := json.Unmarshal(line, &req); err != nil {
			logger.Warn("Skipping malformed request line", zap.Error(err))
			continue
		}

		switch req.Kind {
		case "decide":
			resp, err := service.Decide(ctx, req.Decide)
			if err != nil {
				logger.Warn("Decision request rejected", zap.Error(err))
				continue
			}
			if err := encoder.Encode(resp); err != nil {
				return fmt.Errorf("failed to write response: %w", err)
			}
		case "outcome":
			if req.Outcome == nil {
				logger.Warn("Outcome request missing payload")
				continue
			}
			recorder.Record(ctx, req.Outcome)
		default:
			logger.Warn("Unknown request kind", zap.String("kind", req.Kind))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}
