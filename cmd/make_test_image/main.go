package main

// Renders a clean synthetic ECG grid image: sinusoidal waveforms in a 6x2
// panel layout on white paper. Useful for smoke-testing the digitizer and
// the end-to-end predict flow without patient data.

import (
	"flag"
	"image/png"
	"log"
	"os"

	"ecg-screening/ecg"
)

func main() {
	out := flag.String("out", "synthetic_ecg.png", "Output PNG path")
	rows := flag.Int("rows", 6, "Grid rows")
	cols := flag.Int("cols", 2, "Grid columns")
	panelW := flag.Int("panel-width", 400, "Panel width in pixels")
	panelH := flag.Int("panel-height", 120, "Panel height in pixels")
	cycles := flag.Float64("cycles", 8, "Sine cycles per panel")
	flag.Parse()

	img := ecg.RenderSyntheticGrid(ecg.GridLayout{Rows: *rows, Cols: *cols}, *panelW, *panelH, *cycles)

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("failed to create %s: %v", *out, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		log.Fatalf("failed to encode %s: %v", *out, err)
	}
	log.Printf("wrote %s (%dx%d grid)", *out, *rows, *cols)
}
