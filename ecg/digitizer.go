package ecg

// ECG Grid Digitization
//
// This file converts a raster image of a multi-lead ECG grid into discrete
// per-lead amplitude sequences. The pipeline works as follows:
//
// 1. Decode: the image file is decoded (PNG/JPEG) and reduced to grayscale.
// 2. Enhance: contrast is stretched so faint plot ink separates from paper.
// 3. Panel split: the frame is cut into rows x cols lead panels. Panels are
//    assigned column-major: the left column carries the limb leads
//    (I, II, III, aVR, aVL, aVF) and the right column the precordial leads
//    (V1-V6) in the default 6x2 layout.
// 4. Trace: within each panel, dark pixels are treated as waveform ink. For
//    every pixel column the mean row of the ink is taken as the waveform
//    position; columns without ink carry the previous position forward
//    (panel midline before the first hit).
// 5. Calibrate: the pixel path is flipped to amplitude, mean-centred and
//    scaled by a fixed per-panel gain, yielding one LeadTrace per panel.
//
// A panel containing no ink at all produces a missing lead, never a flat
// zero signal; callers must distinguish "empty" from "flat line". Every step
// is pure arithmetic over the decoded pixels, so identical image bytes and
// grid layout always yield identical traces.

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	"github.com/montanaflynn/stats"
)

const (
	// traceThreshold is the grayscale level at or below which a pixel is
	// considered waveform ink after contrast enhancement.
	traceThreshold = 120

	// traceGain is the fixed amplitude calibration applied per panel.
	traceGain = 1.5

	// contrastFactor stretches grayscale contrast before tracing.
	contrastFactor = 2.0

	flatEpsilon = 1e-8
)

// GridLayout declares the rows x columns arrangement of lead panels.
type GridLayout struct {
	Rows int
	Cols int
}

// Digitizer extracts per-lead signal traces from an ECG grid image.
type Digitizer struct {
	layout GridLayout
}

// NewDigitizer builds a digitizer for the given panel layout.
func NewDigitizer(layout GridLayout) *Digitizer {
	return &Digitizer{layout: layout}
}

// LoadImage decodes an image file from disk. Unreadable or corrupt input is
// reported as InvalidImageFormat.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, WrapError(KindInvalidImageFormat, fmt.Errorf("failed to open image %q: %w", path, err))
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, WrapError(KindInvalidImageFormat, fmt.Errorf("failed to decode image %q: %w", path, err))
	}
	return img, nil
}

// grayFrame is a flat row-major grayscale buffer.
type grayFrame struct {
	pix []uint8
	w   int
	h   int
}

func toGrayFrame(img image.Image) grayFrame {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pix := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// ITU-R BT.601 luma, matching image/color.GrayModel.
			luma := (19595*r + 38470*g + 7471*b + 1<<15) >> 24
			pix[y*w+x] = uint8(luma)
		}
	}
	return grayFrame{pix: pix, w: w, h: h}
}

// Digitize extracts 12 LeadTraces from the image. Panels without any
// traceable waveform yield missing leads; if no panel is traceable at all the
// whole call fails with DigitizationFailure.
func (d *Digitizer) Digitize(img image.Image) (*DigitizationResult, error) {
	frame := toGrayFrame(img)
	if frame.w < d.layout.Cols || frame.h < d.layout.Rows {
		return nil, NewPipelineError(KindDigitizationFailure,
			fmt.Sprintf("image %dx%d is too small for a %dx%d grid", frame.w, frame.h, d.layout.Rows, d.layout.Cols))
	}

	frame.pix = enhanceGray(frame.pix, frame.w, frame.h, contrastFactor)

	traces := make([]LeadTrace, LeadCount)
	var coverageSum float64
	present := 0

	for col := 0; col < d.layout.Cols; col++ {
		for row := 0; row < d.layout.Rows; row++ {
			lead := col*d.layout.Rows + row
			if lead >= LeadCount {
				continue
			}

			x0 := col * frame.w / d.layout.Cols
			x1 := (col + 1) * frame.w / d.layout.Cols
			y0 := row * frame.h / d.layout.Rows
			y1 := (row + 1) * frame.h / d.layout.Rows

			samples, coverage, ok := tracePanel(frame, x0, y0, x1, y1)
			if !ok {
				traces[lead] = LeadTrace{Lead: LeadNames[lead], Missing: true}
				continue
			}
			traces[lead] = LeadTrace{Lead: LeadNames[lead], Samples: samples}
			coverageSum += coverage
			present++
		}
	}

	if present == 0 {
		return nil, NewPipelineError(KindDigitizationFailure, "no traceable waveform found in any panel")
	}

	return &DigitizationResult{
		Traces:  traces,
		Quality: coverageSum / float64(present),
	}, nil
}

// tracePanel follows the waveform ink through one panel. It returns the
// calibrated amplitude sequence, the fraction of columns where ink was found
// and false when the panel holds no ink at all.
func tracePanel(frame grayFrame, x0, y0, x1, y1 int) ([]float64, float64, bool) {
	width := x1 - x0
	height := y1 - y0
	if width <= 0 || height <= 0 {
		return nil, 0, false
	}

	positions := make([]float64, width)
	prev := float64(height) / 2
	detected := 0

	for x := 0; x < width; x++ {
		var sum float64
		count := 0
		for y := 0; y < height; y++ {
			if frame.pix[(y0+y)*frame.w+(x0+x)] <= traceThreshold {
				sum += float64(y)
				count++
			}
		}
		if count > 0 {
			prev = sum / float64(count)
			detected++
		}
		positions[x] = prev
	}

	if detected == 0 {
		return nil, 0, false
	}

	// Flip pixel rows to amplitude, centre, then apply the fixed gain.
	waveform := make([]float64, width)
	for i, pos := range positions {
		waveform[i] = float64(height) - pos
	}
	mean, _ := stats.Mean(waveform)
	maxAbs := 0.0
	for i := range waveform {
		waveform[i] -= mean
		if abs := math.Abs(waveform[i]); abs > maxAbs {
			maxAbs = abs
		}
	}
	scale := traceGain / (maxAbs + flatEpsilon)
	for i := range waveform {
		waveform[i] *= scale
	}

	return waveform, float64(detected) / float64(width), true
}
