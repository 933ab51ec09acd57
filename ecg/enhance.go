//go:build !gocv
// +build !gocv

package ecg

// enhanceGray stretches grayscale contrast around mid-gray. The pure-Go path
// keeps the default build free of cgo; the gocv build tag swaps in the
// OpenCV-backed variant.
func enhanceGray(pix []uint8, w, h int, factor float64) []uint8 {
	_ = w
	_ = h
	out := make([]uint8, len(pix))
	for i, v := range pix {
		stretched := 128 + factor*(float64(v)-128)
		switch {
		case stretched < 0:
			out[i] = 0
		case stretched > 255:
			out[i] = 255
		default:
			out[i] = uint8(stretched)
		}
	}
	return out
}
