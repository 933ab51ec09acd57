package nn

// Weight Artifact Loading
//
// Model parameters live as JSON weight artifacts in the configured model
// directory: validator.json for the validity gate and classifier.json for
// the hybrid classifier. Each artifact carries named tensors with explicit
// shapes; every tensor is shape-checked against the fixed architecture at
// load time, and any mismatch is a ModelLoadFailure, fatal at process start.
//
// Weights are loaded once per process into a read-only ModelSet shared by
// all executions: concurrent first-use requests block on the same
// initialization rather than loading twice.

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ecg-screening/ecg"
)

// Artifact file names inside the model directory.
const (
	GateWeightsFile       = "validator.json"
	ClassifierWeightsFile = "classifier.json"
)

// Tensor is one named, shaped parameter block.
type Tensor struct {
	Name  string    `json:"name"`
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

// WeightFile is a full weight artifact.
type WeightFile struct {
	ModelID string   `json:"model_id"`
	Tensors []Tensor `json:"tensors"`
}

// LoadWeightFile reads and parses one weight artifact.
func LoadWeightFile(path string) (*WeightFile, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, ecg.WrapError(ecg.KindModelLoadFailure,
			fmt.Errorf("failed to read weights %q: %w", path, err))
	}
	var wf WeightFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, ecg.WrapError(ecg.KindModelLoadFailure,
			fmt.Errorf("failed to parse weights %q: %w", path, err))
	}
	return &wf, nil
}

// tensor fetches a named tensor and enforces its expected shape.
func (w *WeightFile) tensor(name string, shape ...int) (*Tensor, error) {
	for i := range w.Tensors {
		t := &w.Tensors[i]
		if t.Name != name {
			continue
		}
		if len(t.Shape) != len(shape) {
			return nil, shapeError(name, shape, t.Shape)
		}
		expected := 1
		for j, dim := range shape {
			if t.Shape[j] != dim {
				return nil, shapeError(name, shape, t.Shape)
			}
			expected *= dim
		}
		if len(t.Data) != expected {
			return nil, ecg.NewPipelineError(ecg.KindModelLoadFailure,
				fmt.Sprintf("tensor %s holds %d values, shape needs %d", name, len(t.Data), expected))
		}
		return t, nil
	}
	return nil, ecg.NewPipelineError(ecg.KindModelLoadFailure, "missing tensor "+name)
}

func shapeError(name string, want, got []int) error {
	return ecg.NewPipelineError(ecg.KindModelLoadFailure,
		fmt.Sprintf("tensor %s has shape %v, expected %v", name, got, want))
}

func (t *Tensor) as1D() []float64 {
	return t.Data
}

func (t *Tensor) as2D() [][]float64 {
	rows, cols := t.Shape[0], t.Shape[1]
	out := make([][]float64, rows)
	for r := 0; r < rows; r++ {
		out[r] = t.Data[r*cols : (r+1)*cols]
	}
	return out
}

func (t *Tensor) as3D() [][][]float64 {
	d0, d1, d2 := t.Shape[0], t.Shape[1], t.Shape[2]
	out := make([][][]float64, d0)
	for i := 0; i < d0; i++ {
		plane := make([][]float64, d1)
		for j := 0; j < d1; j++ {
			base := (i*d1 + j) * d2
			plane[j] = t.Data[base : base+d2]
		}
		out[i] = plane
	}
	return out
}

func (t *Tensor) as4D() [][][][]float64 {
	d0, d1, d2, d3 := t.Shape[0], t.Shape[1], t.Shape[2], t.Shape[3]
	out := make([][][][]float64, d0)
	for i := 0; i < d0; i++ {
		cube := make([][][]float64, d1)
		for j := 0; j < d1; j++ {
			plane := make([][]float64, d2)
			for k := 0; k < d2; k++ {
				base := ((i*d1+j)*d2 + k) * d3
				plane[k] = t.Data[base : base+d3]
			}
			cube[j] = plane
		}
		out[i] = cube
	}
	return out
}

// ModelSet bundles both loaded models. It is read-only after construction.
type ModelSet struct {
	Gate       *ValidityGate
	Classifier *HybridClassifier
	ModelID    string
}

var (
	modelMu     sync.Mutex
	cachedDir   string
	cachedSet   *ModelSet
	cachedError error
)

// LoadModels loads both weight artifacts from dir, caching the result for
// the lifetime of the process. All callers share one read-only ModelSet.
func LoadModels(dir string) (*ModelSet, error) {
	modelMu.Lock()
	defer modelMu.Unlock()

	if cachedDir == dir && (cachedSet != nil || cachedError != nil) {
		return cachedSet, cachedError
	}

	cachedDir = dir
	cachedSet, cachedError = loadModelsLocked(dir)
	return cachedSet, cachedError
}

func loadModelsLocked(dir string) (*ModelSet, error) {
	gateFile, err := LoadWeightFile(filepath.Join(dir, GateWeightsFile))
	if err != nil {
		return nil, err
	}
	gate, err := NewValidityGateFromWeights(gateFile)
	if err != nil {
		return nil, err
	}

	clfFile, err := LoadWeightFile(filepath.Join(dir, ClassifierWeightsFile))
	if err != nil {
		return nil, err
	}
	classifier, err := NewHybridClassifierFromWeights(clfFile)
	if err != nil {
		return nil, err
	}

	modelID := clfFile.ModelID
	if modelID == "" {
		modelID = "cnn-gnn-v1"
	}
	return &ModelSet{Gate: gate, Classifier: classifier, ModelID: modelID}, nil
}

// VerifyArtifacts checks that both weight files exist. The caller treats a
// failure as a startup-fatal ModelLoadFailure without paying the full parse
// cost in the parent process.
func VerifyArtifacts(dir string) error {
	for _, name := range []string{GateWeightsFile, ClassifierWeightsFile} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			return ecg.WrapError(ecg.KindModelLoadFailure,
				fmt.Errorf("weight artifact %q is not available: %w", path, err))
		}
	}
	return nil
}
