package nn

// Custom Graph Convolution
//
// The 12 per-lead feature vectors form the nodes of a fully-connected graph:
// every lead is assumed related to every other lead, so the adjacency (with
// self-loops) is a constant dense all-ones matrix. Degree normalization then
// reduces neighbor aggregation to multiplying node features by ones/n, i.e.
// every node receives the global mean. The "convolution" is therefore plain
// matrix multiplication followed by a per-node linear projection and ReLU;
// no graph-learning library is involved.

import "gonum.org/v1/gonum/mat"

// GraphConvLayer updates node features by degree-normalized aggregation over
// the fixed fully-connected lead graph followed by a linear projection.
type GraphConvLayer struct {
	proj    *DenseLayer
	adjNorm *mat.Dense
}

// NewGraphConvLayer builds the layer for a fixed node count. The normalized
// adjacency is precomputed once at construction.
func NewGraphConvLayer(nodes int, proj *DenseLayer) *GraphConvLayer {
	data := make([]float64, nodes*nodes)
	inv := 1 / float64(nodes)
	for i := range data {
		data[i] = inv
	}
	return &GraphConvLayer{proj: proj, adjNorm: mat.NewDense(nodes, nodes, data)}
}

// Forward aggregates neighbors and projects: ReLU(A_norm H W^T + b).
// h is nodes x inFeatures; the result is nodes x outFeatures.
func (l *GraphConvLayer) Forward(h *mat.Dense) *mat.Dense {
	n, in := h.Dims()
	agg := mat.NewDense(n, in, nil)
	agg.Mul(l.adjNorm, h)

	out := l.proj.ForwardMatrix(agg)
	rows, cols := out.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if out.At(i, j) < 0 {
				out.Set(i, j, 0)
			}
		}
	}
	return out
}

// MeanPoolNodes averages node features into a single graph-level vector.
func MeanPoolNodes(h *mat.Dense) []float64 {
	n, features := h.Dims()
	out := make([]float64, features)
	for j := 0; j < features; j++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += h.At(i, j)
		}
		out[j] = sum / float64(n)
	}
	return out
}
