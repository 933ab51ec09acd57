package nn

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"ecg-screening/ecg"
)

func writeArtifacts(t *testing.T, dir string) {
	t.Helper()
	for name, wf := range map[string]*WeightFile{
		GateWeightsFile:       RandomGateWeights(5),
		ClassifierWeightsFile: RandomClassifierWeights(5),
	} {
		data, err := json.Marshal(wf)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0644))
	}
}

func TestLoadModelsFromArtifacts(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir)

	set, err := LoadModels(dir)
	require.NoError(t, err)
	require.NotNil(t, set.Gate)
	require.NotNil(t, set.Classifier)
	require.Equal(t, "cnn-gnn-dev", set.ModelID)

	// Repeated loads of the same directory return the shared set.
	again, err := LoadModels(dir)
	require.NoError(t, err)
	require.Same(t, set, again)
}

func TestLoadWeightFileFailuresAreTyped(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadWeightFile(filepath.Join(dir, "absent.json"))
	require.Equal(t, ecg.KindModelLoadFailure, ecg.KindOf(err))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{broken"), 0644))
	_, err = LoadWeightFile(bad)
	require.Equal(t, ecg.KindModelLoadFailure, ecg.KindOf(err))
}

func TestShapeMismatchIsModelLoadFailure(t *testing.T) {
	wf := RandomClassifierWeights(9)
	for i := range wf.Tensors {
		if wf.Tensors[i].Name == "fc2.weight" {
			wf.Tensors[i].Shape = []int{numClasses, headHiddenDim + 1}
		}
	}

	_, err := NewHybridClassifierFromWeights(wf)
	require.Error(t, err)
	require.Equal(t, ecg.KindModelLoadFailure, ecg.KindOf(err))
}

func TestMissingTensorIsModelLoadFailure(t *testing.T) {
	wf := RandomClassifierWeights(9)
	kept := wf.Tensors[:0:0]
	for _, tensor := range wf.Tensors {
		if tensor.Name != "gcn1.weight" {
			kept = append(kept, tensor)
		}
	}
	wf.Tensors = kept

	_, err := NewHybridClassifierFromWeights(wf)
	require.Error(t, err)
	require.Equal(t, ecg.KindModelLoadFailure, ecg.KindOf(err))
}

func TestVerifyArtifacts(t *testing.T) {
	dir := t.TempDir()
	err := VerifyArtifacts(dir)
	require.Equal(t, ecg.KindModelLoadFailure, ecg.KindOf(err))

	writeArtifacts(t, dir)
	require.NoError(t, VerifyArtifacts(dir))
}
