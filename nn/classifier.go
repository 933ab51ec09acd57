package nn

// Hybrid CNN + Graph Convolution Classifier
//
// The classifier maps a (1000, 12) signal tensor to a 5-way probability
// distribution over the diagnostic classes in two stages:
//
// 1. Per-lead temporal features: every lead passes independently through the
//    same stack of three conv1d -> batchnorm -> ReLU blocks (1->32->64->64
//    channels), then is mean-pooled over time into a 64-dim vector. Dropout
//    exists only during training and is absent here.
// 2. Cross-lead relational modeling: the 12 lead vectors become nodes of a
//    fully-connected graph processed by two custom graph-convolution layers
//    (64->128->128), mean-pooled into one graph vector and classified by a
//    two-layer head (128->64->5) with softmax.
//
// Probabilities sum to 1 within 1e-4 and the predicted class is the argmax
// with ties broken by the lowest class enumeration index.

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"ecg-screening/ecg"
)

// Fixed classifier architecture dimensions.
const (
	leadFeatureDim = 64
	graphHiddenDim = 128
	headHiddenDim  = 64
	numClasses     = 5

	batchNormEps = 1e-5
)

// HybridClassifier holds the loaded inference network. It is read-only and
// safe for concurrent use.
type HybridClassifier struct {
	conv1, conv2, conv3 Conv1DLayer
	bn1, bn2, bn3       BatchNorm1DLayer
	gcn1, gcn2          *GraphConvLayer
	fc1, fc2            *DenseLayer
}

// NewHybridClassifierFromWeights assembles the network, shape-checking every
// tensor against the fixed architecture.
func NewHybridClassifierFromWeights(w *WeightFile) (*HybridClassifier, error) {
	m := &HybridClassifier{}

	if err := loadConvBlock(w, "cnn.conv1", "cnn.bn1", 32, 1, 7, &m.conv1, &m.bn1); err != nil {
		return nil, err
	}
	if err := loadConvBlock(w, "cnn.conv2", "cnn.bn2", 64, 32, 5, &m.conv2, &m.bn2); err != nil {
		return nil, err
	}
	if err := loadConvBlock(w, "cnn.conv3", "cnn.bn3", 64, 64, 3, &m.conv3, &m.bn3); err != nil {
		return nil, err
	}

	gcn1, err := loadDense(w, "gcn1", graphHiddenDim, leadFeatureDim)
	if err != nil {
		return nil, err
	}
	gcn2, err := loadDense(w, "gcn2", graphHiddenDim, graphHiddenDim)
	if err != nil {
		return nil, err
	}
	m.gcn1 = NewGraphConvLayer(ecg.LeadCount, gcn1)
	m.gcn2 = NewGraphConvLayer(ecg.LeadCount, gcn2)

	if m.fc1, err = loadDense(w, "fc1", headHiddenDim, graphHiddenDim); err != nil {
		return nil, err
	}
	if m.fc2, err = loadDense(w, "fc2", numClasses, headHiddenDim); err != nil {
		return nil, err
	}
	return m, nil
}

func loadConvBlock(w *WeightFile, convName, bnName string, outCh, inCh, kernel int, conv *Conv1DLayer, bn *BatchNorm1DLayer) error {
	weight, err := w.tensor(convName+".weight", outCh, inCh, kernel)
	if err != nil {
		return err
	}
	bias, err := w.tensor(convName+".bias", outCh)
	if err != nil {
		return err
	}
	conv.Weight = weight.as3D()
	conv.Bias = bias.as1D()
	conv.Padding = (kernel - 1) / 2

	for _, part := range []struct {
		suffix string
		dst    *[]float64
	}{
		{".gamma", &bn.Gamma},
		{".beta", &bn.Beta},
		{".mean", &bn.Mean},
		{".var", &bn.Var},
	} {
		t, err := w.tensor(bnName+part.suffix, outCh)
		if err != nil {
			return err
		}
		*part.dst = t.as1D()
	}
	bn.Eps = batchNormEps
	return nil
}

func loadDense(w *WeightFile, name string, out, in int) (*DenseLayer, error) {
	weight, err := w.tensor(name+".weight", out, in)
	if err != nil {
		return nil, err
	}
	bias, err := w.tensor(name+".bias", out)
	if err != nil {
		return nil, err
	}
	return NewDenseLayer(weight.as2D(), bias.as1D()), nil
}

// Predict runs the full forward pass over one signal tensor.
func (m *HybridClassifier) Predict(tensor *ecg.SignalTensor) (map[ecg.ClassLabel]float64, error) {
	if len(tensor.Values) != ecg.TargetLength || len(tensor.Values[0]) != ecg.LeadCount {
		return nil, fmt.Errorf("signal tensor must be %dx%d, got %dx%d",
			ecg.TargetLength, ecg.LeadCount, len(tensor.Values), len(tensor.Values[0]))
	}

	// Stage 1: identical temporal feature extractor per lead.
	features := make([]float64, 0, ecg.LeadCount*leadFeatureDim)
	for lead := 0; lead < ecg.LeadCount; lead++ {
		x := [][]float64{tensor.LeadColumn(lead)}
		x = ReLU2D(m.bn1.Forward(m.conv1.Forward(x)))
		x = ReLU2D(m.bn2.Forward(m.conv2.Forward(x)))
		x = ReLU2D(m.bn3.Forward(m.conv3.Forward(x)))
		features = append(features, MeanPoolTime(x)...)
	}
	nodes := mat.NewDense(ecg.LeadCount, leadFeatureDim, features)

	// Stage 2: relational modeling over the fully-connected lead graph.
	hidden := m.gcn2.Forward(m.gcn1.Forward(nodes))
	pooled := MeanPoolNodes(hidden)

	// Classification head.
	logits := m.fc2.Forward(ReLU1D(m.fc1.Forward(pooled)))
	probs := Softmax(logits)

	result := make(map[ecg.ClassLabel]float64, numClasses)
	for i, label := range ecg.ClassOrder {
		result[label] = probs[i]
	}
	if err := ecg.ValidateProbabilities(result); err != nil {
		return nil, err
	}
	return result, nil
}
