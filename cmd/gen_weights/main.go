package main

// Emits randomly initialized, shape-correct weight artifacts so development
// environments can exercise the full pipeline before trained weights are
// distributed. The artifacts are deterministic for a given seed.

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"

	"ecg-screening/nn"
	"ecg-screening/utils"
)

func main() {
	out := flag.String("out", "models", "Output directory for weight artifacts")
	seed := flag.Int64("seed", 42, "Random seed")
	flag.Parse()

	if err := utils.CreateFolder(*out); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	writeArtifact(filepath.Join(*out, nn.GateWeightsFile), nn.RandomGateWeights(*seed))
	writeArtifact(filepath.Join(*out, nn.ClassifierWeightsFile), nn.RandomClassifierWeights(*seed))

	log.Printf("wrote %s and %s under %s", nn.GateWeightsFile, nn.ClassifierWeightsFile, *out)
}

func writeArtifact(path string, wf *nn.WeightFile) {
	data, err := json.Marshal(wf)
	if err != nil {
		log.Fatalf("failed to marshal %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Fatalf("failed to write %s: %v", path, err)
	}
}
