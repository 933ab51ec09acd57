package nn

// Validity Gate
//
// A small image classifier that decides whether an input picture plausibly
// shows an ECG before the expensive classifier runs. It works on the whole
// raw image, independent of lead-level digitization: grayscale, area
// downsample to 64x64, three stride-2 conv+ReLU blocks (1->8->16->32),
// global average pooling and a single-unit sigmoid head.

import (
	"image"
)

// GateInputSize is the square side length the raw image is downsampled to.
const GateInputSize = 64

// GateThreshold is the decision boundary: scores below it short-circuit the
// pipeline with a non-ECG result.
const GateThreshold = 0.5

// ValidityGate scores how plausibly an image is a genuine ECG.
type ValidityGate struct {
	conv1, conv2, conv3 Conv2DLayer
	head                *DenseLayer
}

// NewValidityGateFromWeights assembles the gate, shape-checking every tensor.
func NewValidityGateFromWeights(w *WeightFile) (*ValidityGate, error) {
	g := &ValidityGate{}
	blocks := []struct {
		name    string
		conv    *Conv2DLayer
		out, in int
	}{
		{"conv1", &g.conv1, 8, 1},
		{"conv2", &g.conv2, 16, 8},
		{"conv3", &g.conv3, 32, 16},
	}
	for _, b := range blocks {
		weight, err := w.tensor(b.name+".weight", b.out, b.in, 3, 3)
		if err != nil {
			return nil, err
		}
		bias, err := w.tensor(b.name+".bias", b.out)
		if err != nil {
			return nil, err
		}
		b.conv.Weight = weight.as4D()
		b.conv.Bias = bias.as1D()
		b.conv.Stride = 2
		b.conv.Padding = 1
	}

	head, err := loadDense(w, "head", 1, 32)
	if err != nil {
		return nil, err
	}
	g.head = head
	return g, nil
}

// Score returns the probability in (0,1) that the image is a genuine ECG.
func (g *ValidityGate) Score(img image.Image) (float64, error) {
	x := [][][]float64{grayDownsample(img, GateInputSize)}
	x = ReLU3D(g.conv1.Forward(x))
	x = ReLU3D(g.conv2.Forward(x))
	x = ReLU3D(g.conv3.Forward(x))
	logit := g.head.Forward(GlobalAvgPool2D(x))[0]
	return Sigmoid(logit), nil
}

// grayDownsample area-averages the image luma into a size x size grid scaled
// to [0,1]. Deterministic for identical pixel data.
func grayDownsample(img image.Image, size int) [][]float64 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	out := make([][]float64, size)
	for by := 0; by < size; by++ {
		row := make([]float64, size)
		y0 := by * h / size
		y1 := (by + 1) * h / size
		if y1 <= y0 {
			y1 = y0 + 1
		}
		for bx := 0; bx < size; bx++ {
			x0 := bx * w / size
			x1 := (bx + 1) * w / size
			if x1 <= x0 {
				x1 = x0 + 1
			}
			var sum float64
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
					luma := (19595*r + 38470*g + 7471*b + 1<<15) >> 24
					sum += float64(luma)
				}
			}
			row[bx] = sum / (float64((y1-y0)*(x1-x0)) * 255)
		}
		out[by] = row
	}
	return out
}
