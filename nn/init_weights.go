package nn

import "math/rand"

// Randomly initialized, shape-correct weight artifacts. Used by the
// gen_weights tool to bootstrap development environments and by tests that
// exercise the forward pass without trained parameters.

func randomTensor(r *rand.Rand, name string, shape ...int) Tensor {
	size := 1
	for _, dim := range shape {
		size *= dim
	}
	data := make([]float64, size)
	for i := range data {
		data[i] = (r.Float64()*2 - 1) * 0.1
	}
	return Tensor{Name: name, Shape: shape, Data: data}
}

func constTensor(name string, value float64, shape ...int) Tensor {
	size := 1
	for _, dim := range shape {
		size *= dim
	}
	data := make([]float64, size)
	for i := range data {
		data[i] = value
	}
	return Tensor{Name: name, Shape: shape, Data: data}
}

// RandomClassifierWeights builds a classifier artifact with small random
// convolution and projection weights and identity batchnorm statistics.
func RandomClassifierWeights(seed int64) *WeightFile {
	r := rand.New(rand.NewSource(seed))
	tensors := []Tensor{
		randomTensor(r, "cnn.conv1.weight", 32, 1, 7),
		constTensor("cnn.conv1.bias", 0, 32),
		constTensor("cnn.bn1.gamma", 1, 32),
		constTensor("cnn.bn1.beta", 0, 32),
		constTensor("cnn.bn1.mean", 0, 32),
		constTensor("cnn.bn1.var", 1, 32),

		randomTensor(r, "cnn.conv2.weight", 64, 32, 5),
		constTensor("cnn.conv2.bias", 0, 64),
		constTensor("cnn.bn2.gamma", 1, 64),
		constTensor("cnn.bn2.beta", 0, 64),
		constTensor("cnn.bn2.mean", 0, 64),
		constTensor("cnn.bn2.var", 1, 64),

		randomTensor(r, "cnn.conv3.weight", 64, 64, 3),
		constTensor("cnn.conv3.bias", 0, 64),
		constTensor("cnn.bn3.gamma", 1, 64),
		constTensor("cnn.bn3.beta", 0, 64),
		constTensor("cnn.bn3.mean", 0, 64),
		constTensor("cnn.bn3.var", 1, 64),

		randomTensor(r, "gcn1.weight", graphHiddenDim, leadFeatureDim),
		constTensor("gcn1.bias", 0, graphHiddenDim),
		randomTensor(r, "gcn2.weight", graphHiddenDim, graphHiddenDim),
		constTensor("gcn2.bias", 0, graphHiddenDim),

		randomTensor(r, "fc1.weight", headHiddenDim, graphHiddenDim),
		constTensor("fc1.bias", 0, headHiddenDim),
		randomTensor(r, "fc2.weight", numClasses, headHiddenDim),
		constTensor("fc2.bias", 0, numClasses),
	}
	return &WeightFile{ModelID: "cnn-gnn-dev", Tensors: tensors}
}

// RandomGateWeights builds a validity gate artifact with small random
// weights.
func RandomGateWeights(seed int64) *WeightFile {
	r := rand.New(rand.NewSource(seed))
	tensors := []Tensor{
		randomTensor(r, "conv1.weight", 8, 1, 3, 3),
		constTensor("conv1.bias", 0, 8),
		randomTensor(r, "conv2.weight", 16, 8, 3, 3),
		constTensor("conv2.bias", 0, 16),
		randomTensor(r, "conv3.weight", 32, 16, 3, 3),
		constTensor("conv3.bias", 0, 32),
		randomTensor(r, "head.weight", 1, 32),
		constTensor("head.bias", 0, 1),
	}
	return &WeightFile{ModelID: "ecg-gate-dev", Tensors: tensors}
}
