//go:build gocv
// +build gocv

package ecg

import (
	"gocv.io/x/gocv"
)

// enhanceGray stretches grayscale contrast around mid-gray using OpenCV's
// saturating convertTo. Enabled with the gocv build tag.
func enhanceGray(pix []uint8, w, h int, factor float64) []uint8 {
	mat, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8U, pix)
	if err != nil {
		return pix
	}
	defer mat.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	// out = factor*v + 128*(1-factor), saturated to [0,255]; same curve as
	// the pure-Go variant.
	mat.ConvertToWithParams(&dst, gocv.MatTypeCV8U, float32(factor), float32(128*(1-factor)))

	out, err := dst.DataPtrUint8()
	if err != nil {
		return pix
	}
	copied := make([]uint8, len(out))
	copy(copied, out)
	return copied
}
