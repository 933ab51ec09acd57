package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"gonum.org/v1/gonum/mat"
)

func TestConv1DForwardMatchesHandComputation(t *testing.T) {
	t.Parallel()

	layer := &Conv1DLayer{
		Weight:  [][][]float64{{{1, 0, -1}}},
		Bias:    []float64{0},
		Padding: 1,
	}
	out := layer.Forward([][]float64{{1, 2, 3}})

	require.Len(t, out, 1)
	// Padded positions contribute zero; the kernel slides as [1,0,-1].
	require.InDeltaSlice(t, []float64{-2, -2, 2}, out[0], 1e-12)
}

func TestConv1DSamePaddingPreservesLength(t *testing.T) {
	t.Parallel()

	layer := &Conv1DLayer{
		Weight:  [][][]float64{{{0.1, 0.2, 0.3, 0.2, 0.1, 0, 0.1}}, {{0, 0, 0, 1, 0, 0, 0}}},
		Bias:    []float64{0.5, 0},
		Padding: 3,
	}
	x := make([]float64, 40)
	for i := range x {
		x[i] = math.Sin(float64(i) / 3)
	}
	out := layer.Forward([][]float64{x})

	require.Len(t, out, 2)
	require.Len(t, out[0], 40)
	// The identity kernel (plus zero bias) reproduces the input exactly.
	require.InDeltaSlice(t, x, out[1], 1e-12)
}

func TestBatchNormAppliesRunningStatistics(t *testing.T) {
	t.Parallel()

	layer := &BatchNorm1DLayer{
		Gamma: []float64{2},
		Beta:  []float64{3},
		Mean:  []float64{0},
		Var:   []float64{1},
		Eps:   0,
	}
	out := layer.Forward([][]float64{{-1, 0, 2}})
	require.InDeltaSlice(t, []float64{1, 3, 7}, out[0], 1e-12)
}

func TestDenseForwardMatchesManualProduct(t *testing.T) {
	t.Parallel()

	layer := NewDenseLayer([][]float64{{1, 2}, {3, 4}}, []float64{1, -1})
	out := layer.Forward([]float64{1, 1})
	require.InDeltaSlice(t, []float64{4, 6}, out, 1e-12)
}

func TestDenseForwardMatrixAgreesWithVectorForward(t *testing.T) {
	t.Parallel()

	layer := NewDenseLayer([][]float64{{0.5, -0.25, 1}, {2, 0, -1}}, []float64{0.1, 0.2})
	rows := [][]float64{{1, 2, 3}, {-1, 0, 0.5}}

	h := mat.NewDense(2, 3, append(append([]float64{}, rows[0]...), rows[1]...))
	result := layer.ForwardMatrix(h)

	for i, row := range rows {
		want := layer.Forward(append([]float64{}, row...))
		for j, w := range want {
			require.InDelta(t, w, result.At(i, j), 1e-12)
		}
	}
}

func TestSoftmaxIsAStableDistribution(t *testing.T) {
	t.Parallel()

	probs := Softmax([]float64{1000, 1001, 999, 1000.5, 998})
	var sum float64
	for _, p := range probs {
		require.False(t, math.IsNaN(p) || math.IsInf(p, 0))
		require.GreaterOrEqual(t, p, 0.0)
		sum += p
	}
	require.InDelta(t, 1.0, sum, 1e-12)
	// The largest logit keeps the largest probability.
	require.Equal(t, 1, argmaxIndex(probs))
}

func argmaxIndex(v []float64) int {
	best := 0
	for i := range v {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

func TestReLUAndPooling(t *testing.T) {
	t.Parallel()

	require.Equal(t, []float64{0, 0, 2.5}, ReLU1D([]float64{-1, 0, 2.5}))

	pooled := MeanPoolTime([][]float64{{1, 2, 3}, {-2, 0, 2}})
	require.InDeltaSlice(t, []float64{2, 0}, pooled, 1e-12)

	avg := GlobalAvgPool2D([][][]float64{{{1, 3}, {5, 7}}})
	require.InDeltaSlice(t, []float64{4}, avg, 1e-12)
}

func TestSigmoidBounds(t *testing.T) {
	t.Parallel()

	require.InDelta(t, 0.5, Sigmoid(0), 1e-12)
	require.Greater(t, Sigmoid(10), 0.999)
	require.Less(t, Sigmoid(-10), 0.001)
}

func TestConv2DStrideAndPadding(t *testing.T) {
	t.Parallel()

	layer := &Conv2DLayer{
		Weight:  [][][][]float64{{{{1, 1}, {1, 1}}}},
		Bias:    []float64{0},
		Stride:  2,
		Padding: 0,
	}
	x := [][][]float64{{
		{1, 2, 3, 4},
		{5, 6, 7, 8},
		{9, 10, 11, 12},
		{13, 14, 15, 16},
	}}
	out := layer.Forward(x)

	require.Len(t, out, 1)
	require.Len(t, out[0], 2)
	require.InDeltaSlice(t, []float64{14, 22}, out[0][0], 1e-12)
	require.InDeltaSlice(t, []float64{46, 54}, out[0][1], 1e-12)
}
