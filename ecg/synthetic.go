package ecg

import (
	"image"
	"image/color"
	"math"
)

// RenderSyntheticGrid draws a clean rows x cols ECG grid of sinusoidal
// panels on white paper. skipLeads lists lead indices whose panels are left
// blank, which digitizes to missing leads. Used by tests and the
// make_test_image tool.
func RenderSyntheticGrid(layout GridLayout, panelW, panelH int, cycles float64, skipLeads ...int) *image.Gray {
	skip := make(map[int]bool, len(skipLeads))
	for _, lead := range skipLeads {
		skip[lead] = true
	}

	w := layout.Cols * panelW
	h := layout.Rows * panelH
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}

	for col := 0; col < layout.Cols; col++ {
		for row := 0; row < layout.Rows; row++ {
			lead := col*layout.Rows + row
			if lead >= LeadCount || skip[lead] {
				continue
			}
			x0 := col * panelW
			y0 := row * panelH
			mid := float64(panelH) / 2
			for x := 0; x < panelW; x++ {
				phase := 2 * math.Pi * cycles * float64(x) / float64(panelW)
				y := mid - 0.8*mid*math.Sin(phase)
				yi := int(y)
				for dy := -1; dy <= 1; dy++ {
					if yi+dy >= 0 && yi+dy < panelH {
						img.SetGray(x0+x, y0+yi+dy, color.Gray{Y: 0})
					}
				}
			}
		}
	}
	return img
}
