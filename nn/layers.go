package nn

// Inference-only neural network primitives. Only the forward pass exists:
// training happens offline and the resulting parameters are loaded from
// weight artifacts, so no layer here carries gradients or dropout state.

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Conv1DLayer is a 1-D convolution over [channel][time] data with symmetric
// zero padding, producing same-length output when padding = (kernel-1)/2.
type Conv1DLayer struct {
	Weight  [][][]float64 // [outCh][inCh][kernel]
	Bias    []float64     // [outCh]
	Padding int
}

// Forward applies the convolution to x shaped [inCh][T].
func (l *Conv1DLayer) Forward(x [][]float64) [][]float64 {
	inCh := len(x)
	t := len(x[0])
	kernel := len(l.Weight[0][0])
	outT := t + 2*l.Padding - kernel + 1

	out := make([][]float64, len(l.Weight))
	for oc := range l.Weight {
		row := make([]float64, outT)
		for pos := 0; pos < outT; pos++ {
			sum := l.Bias[oc]
			for ic := 0; ic < inCh; ic++ {
				w := l.Weight[oc][ic]
				for k := 0; k < kernel; k++ {
					src := pos + k - l.Padding
					if src < 0 || src >= t {
						continue
					}
					sum += w[k] * x[ic][src]
				}
			}
			row[pos] = sum
		}
		out[oc] = row
	}
	return out
}

// BatchNorm1DLayer applies per-channel affine normalization using the
// running statistics captured at training time.
type BatchNorm1DLayer struct {
	Gamma []float64
	Beta  []float64
	Mean  []float64
	Var   []float64
	Eps   float64
}

// Forward normalizes x shaped [channel][T] in place and returns it.
func (l *BatchNorm1DLayer) Forward(x [][]float64) [][]float64 {
	for c := range x {
		scale := l.Gamma[c] / math.Sqrt(l.Var[c]+l.Eps)
		shift := l.Beta[c] - l.Mean[c]*scale
		for t := range x[c] {
			x[c][t] = x[c][t]*scale + shift
		}
	}
	return x
}

// Conv2DLayer is a strided 2-D convolution over [channel][row][col] data.
type Conv2DLayer struct {
	Weight  [][][][]float64 // [outCh][inCh][kh][kw]
	Bias    []float64
	Stride  int
	Padding int
}

// Forward applies the convolution to x shaped [inCh][H][W].
func (l *Conv2DLayer) Forward(x [][][]float64) [][][]float64 {
	inCh := len(x)
	h := len(x[0])
	w := len(x[0][0])
	kh := len(l.Weight[0][0])
	kw := len(l.Weight[0][0][0])
	outH := (h+2*l.Padding-kh)/l.Stride + 1
	outW := (w+2*l.Padding-kw)/l.Stride + 1

	out := make([][][]float64, len(l.Weight))
	for oc := range l.Weight {
		plane := make([][]float64, outH)
		for oy := 0; oy < outH; oy++ {
			row := make([]float64, outW)
			for ox := 0; ox < outW; ox++ {
				sum := l.Bias[oc]
				for ic := 0; ic < inCh; ic++ {
					for ky := 0; ky < kh; ky++ {
						sy := oy*l.Stride + ky - l.Padding
						if sy < 0 || sy >= h {
							continue
						}
						for kx := 0; kx < kw; kx++ {
							sx := ox*l.Stride + kx - l.Padding
							if sx < 0 || sx >= w {
								continue
							}
							sum += l.Weight[oc][ic][ky][kx] * x[ic][sy][sx]
						}
					}
				}
				row[ox] = sum
			}
			plane[oy] = row
		}
		out[oc] = plane
	}
	return out
}

// DenseLayer is a fully-connected layer y = Wx + b backed by gonum.
type DenseLayer struct {
	W *mat.Dense // out x in
	B []float64
}

// NewDenseLayer wraps row-major weights shaped [out][in].
func NewDenseLayer(weight [][]float64, bias []float64) *DenseLayer {
	out := len(weight)
	in := len(weight[0])
	flat := make([]float64, 0, out*in)
	for _, row := range weight {
		flat = append(flat, row...)
	}
	return &DenseLayer{W: mat.NewDense(out, in, flat), B: bias}
}

// Forward computes Wx + b for a single vector.
func (l *DenseLayer) Forward(x []float64) []float64 {
	out, _ := l.W.Dims()
	y := mat.NewVecDense(out, nil)
	y.MulVec(l.W, mat.NewVecDense(len(x), x))
	result := make([]float64, out)
	for i := 0; i < out; i++ {
		result[i] = y.AtVec(i) + l.B[i]
	}
	return result
}

// ForwardMatrix computes H W^T + b row-wise for H shaped nodes x in.
func (l *DenseLayer) ForwardMatrix(h *mat.Dense) *mat.Dense {
	n, _ := h.Dims()
	out, _ := l.W.Dims()
	result := mat.NewDense(n, out, nil)
	result.Mul(h, l.W.T())
	for i := 0; i < n; i++ {
		for j := 0; j < out; j++ {
			result.Set(i, j, result.At(i, j)+l.B[j])
		}
	}
	return result
}

// ReLU1D rectifies a vector in place and returns it.
func ReLU1D(x []float64) []float64 {
	for i := range x {
		if x[i] < 0 {
			x[i] = 0
		}
	}
	return x
}

// ReLU2D rectifies [channel][T] data in place and returns it.
func ReLU2D(x [][]float64) [][]float64 {
	for c := range x {
		ReLU1D(x[c])
	}
	return x
}

// ReLU3D rectifies [channel][H][W] data in place and returns it.
func ReLU3D(x [][][]float64) [][][]float64 {
	for c := range x {
		ReLU2D(x[c])
	}
	return x
}

// MeanPoolTime averages [channel][T] data over time into one vector.
func MeanPoolTime(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for c := range x {
		var sum float64
		for _, v := range x[c] {
			sum += v
		}
		out[c] = sum / float64(len(x[c]))
	}
	return out
}

// GlobalAvgPool2D averages [channel][H][W] data into one vector.
func GlobalAvgPool2D(x [][][]float64) []float64 {
	out := make([]float64, len(x))
	for c := range x {
		var sum float64
		count := 0
		for _, row := range x[c] {
			for _, v := range row {
				sum += v
				count++
			}
		}
		out[c] = sum / float64(count)
	}
	return out
}

// Softmax converts logits to a probability distribution. The max-logit shift
// keeps the exponentials finite for unconstrained inputs.
func Softmax(logits []float64) []float64 {
	maxLogit := logits[0]
	for _, v := range logits[1:] {
		if v > maxLogit {
			maxLogit = v
		}
	}
	exps := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		exps[i] = math.Exp(v - maxLogit)
		sum += exps[i]
	}
	for i := range exps {
		exps[i] /= sum
	}
	return exps
}

// Sigmoid squashes a single logit into (0,1).
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
