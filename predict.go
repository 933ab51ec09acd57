package main

// The predict subcommand is the external invocation contract: one positional
// image path in, exactly one JSON object on stdout, diagnostics on stderr.
// Exit status is zero on success — including a non-ECG verdict, which is a
// valid result — and non-zero on any internal failure, in which case the
// stdout payload is the structured error, never a partial result.

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/mdobak/go-xerrors"

	"ecg-screening/config"
	"ecg-screening/ecg"
	"ecg-screening/nn"
	"ecg-screening/pipeline"
	"ecg-screening/scheduler"
	"ecg-screening/utils"
)

func runPredict(configPath, imagePath string) int {
	logger := utils.GetLogger()
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		// Missing model configuration is startup-fatal, not a
		// per-request failure.
		logger.ErrorContext(ctx, "configuration error", slog.Any("error", xerrors.New(err)))
		return emitFailure(ecg.WrapError(ecg.KindModelLoadFailure, err))
	}

	if err := nn.VerifyArtifacts(cfg.ModelDir); err != nil {
		logger.ErrorContext(ctx, "model artifacts unavailable", slog.Any("error", xerrors.New(err)))
		return emitFailure(err)
	}

	runner, err := scheduler.NewSubprocessRunner(workerSubcommand)
	if err != nil {
		logger.ErrorContext(ctx, "failed to build worker runner", slog.Any("error", xerrors.New(err)))
		return emitFailure(err)
	}

	sched := scheduler.New(runner, cfg.Scheduler.MaxConcurrent, cfg.Scheduler.QueueDepth, cfg.Scheduler.JobTimeout)
	sched.Start()
	defer sched.Stop()

	engine := pipeline.NewEngine(cfg, sched)
	result, err := engine.Predict(ctx, imagePath)
	if err != nil {
		logger.ErrorContext(ctx, "prediction failed",
			"kind", string(ecg.KindOf(err)),
			slog.Any("error", xerrors.New(err)))
		return emitFailure(err)
	}

	data, err := json.Marshal(result)
	if err != nil {
		logger.ErrorContext(ctx, "failed to encode result", slog.Any("error", xerrors.New(err)))
		return emitFailure(ecg.WrapError(ecg.KindMalformedOutput, err))
	}
	fmt.Fprintln(os.Stdout, string(data))
	return 0
}

// emitFailure writes the structured error payload to stdout and returns the
// non-zero exit code.
func emitFailure(err error) int {
	fmt.Fprintln(os.Stdout, string(ecg.MarshalErrorPayload(err)))
	return 1
}
