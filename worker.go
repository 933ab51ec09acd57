package main

// The infer-worker subcommand is the isolated execution context: it reads
// one serialized InferenceRequest from stdin, runs the validity gate and —
// when the gate passes — the hybrid classifier and risk scorer, then writes
// one serialized PredictionResult to stdout. Model weights load once per
// worker process into a read-only holder. On any failure the worker writes
// a typed error payload to stdout and exits non-zero; the parent scheduler
// turns that into a Failed job.

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mdobak/go-xerrors"

	"ecg-screening/config"
	"ecg-screening/ecg"
	"ecg-screening/nn"
	"ecg-screening/pipeline"
	"ecg-screening/utils"
)

func runInferWorker() int {
	logger := utils.GetLogger()
	ctx := context.Background()

	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		return workerFailure(ctx, logger, ecg.WrapError(ecg.KindMalformedOutput,
			fmt.Errorf("failed to read inference request: %w", err)))
	}

	var req pipeline.InferenceRequest
	if err := json.Unmarshal(input, &req); err != nil {
		return workerFailure(ctx, logger, ecg.WrapError(ecg.KindMalformedOutput,
			fmt.Errorf("failed to decode inference request: %w", err)))
	}

	cfg, err := config.Load("")
	if err != nil {
		return workerFailure(ctx, logger, ecg.WrapError(ecg.KindModelLoadFailure, err))
	}

	models, err := nn.LoadModels(cfg.ModelDir)
	if err != nil {
		return workerFailure(ctx, logger, err)
	}

	policy := ecg.RiskPolicy{
		LowMax:        cfg.Risk.LowMax,
		ModerateMax:   cfg.Risk.ModerateMax,
		NormalCeiling: cfg.Risk.NormalCeiling,
	}

	result, err := pipeline.Infer(&req, models.Gate, models.Classifier, policy, models.ModelID)
	if err != nil {
		return workerFailure(ctx, logger, err)
	}

	if result.PredictedClass != nil {
		class := *result.PredictedClass
		if threshold, ok := cfg.CalibrationThreshold(string(class)); ok && result.Probabilities[class] < threshold {
			logger.InfoContext(ctx, "prediction below calibrated threshold",
				"class", class.DisplayName(),
				"probability", result.Probabilities[class],
				"threshold", threshold)
		}
	}

	data, err := json.Marshal(result)
	if err != nil {
		return workerFailure(ctx, logger, ecg.WrapError(ecg.KindMalformedOutput, err))
	}
	fmt.Fprintln(os.Stdout, string(data))
	return 0
}

func workerFailure(ctx context.Context, logger *slog.Logger, err error) int {
	logger.ErrorContext(ctx, "worker failed",
		"kind", string(ecg.KindOf(err)),
		slog.Any("error", xerrors.New(err)))
	fmt.Fprintln(os.Stdout, string(ecg.MarshalErrorPayload(err)))
	return 1
}
