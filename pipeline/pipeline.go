package pipeline

// End-to-End Screening Pipeline
//
// Data flows strictly: image -> Digitizer -> Normalizer -> {Validity Gate,
// Hybrid Classifier} -> Risk Scorer -> PredictionResult. The digitization
// stage runs in the calling process so its errors abort a job before any
// model is invoked; the model stage runs through the scheduler inside an
// isolated execution, and its failures surface at the scheduler boundary as
// typed job errors.

import (
	"context"
	"encoding/json"
	"fmt"
	"image"

	"ecg-screening/config"
	"ecg-screening/ecg"
	"ecg-screening/scheduler"
	"ecg-screening/utils"
)

// InferenceRequest is the serialized message handed to the isolated
// execution: the raw image path for the validity gate plus the normalized
// signal tensor for the classifier.
type InferenceRequest struct {
	ImagePath string      `json:"image_path"`
	Tensor    [][]float64 `json:"tensor"`
}

// Engine drives the full pipeline for one process.
type Engine struct {
	cfg        *config.Config
	digitizer  *ecg.Digitizer
	normalizer *ecg.Normalizer
	sched      *scheduler.Scheduler
}

// NewEngine wires the pipeline stages onto a started scheduler.
func NewEngine(cfg *config.Config, sched *scheduler.Scheduler) *Engine {
	return &Engine{
		cfg:        cfg,
		digitizer:  ecg.NewDigitizer(ecg.GridLayout{Rows: cfg.Grid.Rows, Cols: cfg.Grid.Cols}),
		normalizer: ecg.NewNormalizer(),
		sched:      sched,
	}
}

// Predict runs one image through the whole pipeline and returns the single
// result artifact. Any failure yields a typed error and no partial result.
func (e *Engine) Predict(ctx context.Context, imagePath string) (*ecg.PredictionResult, error) {
	logger := utils.GetLogger()

	img, err := ecg.LoadImage(imagePath)
	if err != nil {
		return nil, err
	}

	digitized, err := e.digitizer.Digitize(img)
	if err != nil {
		return nil, err
	}
	missing := 0
	for _, trace := range digitized.Traces {
		if trace.Missing {
			missing++
		}
	}
	logger.Info("digitization complete",
		"quality", digitized.Quality,
		"missing_leads", missing)

	tensor, err := e.normalizer.Normalize(digitized.Traces)
	if err != nil {
		return nil, ecg.WrapError(ecg.KindDigitizationFailure, err)
	}

	payload, err := json.Marshal(InferenceRequest{ImagePath: imagePath, Tensor: tensor.Values})
	if err != nil {
		return nil, fmt.Errorf("failed to encode inference request: %w", err)
	}

	job, err := e.sched.Submit(payload)
	if err != nil {
		return nil, err
	}
	logger.Info("inference job submitted", "job", job.ID)

	out, err := job.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return DecodeResult(out)
}

// DecodeResult parses and contract-checks a serialized PredictionResult
// coming back across the isolation boundary. Violations are MalformedOutput.
func DecodeResult(data []byte) (*ecg.PredictionResult, error) {
	var result ecg.PredictionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, ecg.WrapError(ecg.KindMalformedOutput,
			fmt.Errorf("failed to decode inference result: %w", err))
	}

	if !result.IsValidECG {
		if result.PredictedClass != nil {
			return nil, ecg.NewPipelineError(ecg.KindMalformedOutput,
				"non-ECG result must not carry a predicted class")
		}
		return &result, nil
	}

	if err := ecg.ValidateProbabilities(result.Probabilities); err != nil {
		return nil, err
	}
	if result.PredictedClass == nil {
		return nil, ecg.NewPipelineError(ecg.KindMalformedOutput, "valid result is missing predicted class")
	}
	if *result.PredictedClass != ecg.Argmax(result.Probabilities) {
		return nil, ecg.NewPipelineError(ecg.KindMalformedOutput,
			"predicted class does not match the probability argmax")
	}
	return &result, nil
}

// Gate scores whether the raw picture plausibly shows an ECG.
type Gate interface {
	Score(img image.Image) (float64, error)
}

// Classifier maps a normalized signal tensor to class probabilities.
type Classifier interface {
	Predict(tensor *ecg.SignalTensor) (map[ecg.ClassLabel]float64, error)
}

// GateThreshold mirrors the validity gate decision boundary.
const GateThreshold = 0.5

// Infer executes the model stage for one request. It runs inside the
// isolated worker process in production; tests drive it directly with fake
// models. The gate always runs first and a sub-threshold score short-circuits
// without ever touching the classifier.
func Infer(req *InferenceRequest, gate Gate, clf Classifier, policy ecg.RiskPolicy, modelID string) (*ecg.PredictionResult, error) {
	img, err := ecg.LoadImage(req.ImagePath)
	if err != nil {
		return nil, err
	}

	gateScore, err := gate.Score(img)
	if err != nil {
		return nil, fmt.Errorf("validity gate failed: %w", err)
	}

	if gateScore < GateThreshold {
		return &ecg.PredictionResult{
			ValidationConfidence: round2(gateScore * 100),
			IsValidECG:           false,
			ModelUsed:            modelID,
		}, nil
	}

	if len(req.Tensor) != ecg.TargetLength {
		return nil, ecg.NewPipelineError(ecg.KindMalformedOutput,
			fmt.Sprintf("inference request tensor has %d rows, expected %d", len(req.Tensor), ecg.TargetLength))
	}
	probs, err := clf.Predict(&ecg.SignalTensor{Values: req.Tensor})
	if err != nil {
		return nil, err
	}
	if err := ecg.ValidateProbabilities(probs); err != nil {
		return nil, err
	}

	class := ecg.Argmax(probs)
	score, level := policy.Score(class, probs)

	return &ecg.PredictionResult{
		PredictedClass:       &class,
		Confidence:           round2(probs[class] * 100),
		Probabilities:        probs,
		RiskScore:            score,
		RiskLevel:            level,
		ValidationConfidence: round2(gateScore * 100),
		IsValidECG:           true,
		ModelUsed:            modelID,
	}, nil
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
