package main

// Checks that digitization is deterministic: running the digitizer several
// times over the same image bytes must yield identical traces.

import (
	"fmt"
	"log"
	"os"

	"ecg-screening/ecg"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: test_determinism <path-to-image>")
	}
	path := os.Args[1]

	const numRuns = 5
	var runs []*ecg.DigitizationResult

	for i := 0; i < numRuns; i++ {
		img, err := ecg.LoadImage(path)
		if err != nil {
			log.Fatalf("run %d: failed to load image: %v", i+1, err)
		}
		digitizer := ecg.NewDigitizer(ecg.GridLayout{Rows: 6, Cols: 2})
		result, err := digitizer.Digitize(img)
		if err != nil {
			log.Fatalf("run %d: digitization failed: %v", i+1, err)
		}
		runs = append(runs, result)
		log.Printf("run %d: quality=%.4f", i+1, result.Quality)
	}

	identical := true
	for i := 1; i < numRuns; i++ {
		for lead := range runs[0].Traces {
			a, b := runs[0].Traces[lead], runs[i].Traces[lead]
			if a.Missing != b.Missing || len(a.Samples) != len(b.Samples) {
				identical = false
				fmt.Printf("lead %s differs structurally between run 1 and run %d\n", a.Lead, i+1)
				continue
			}
			for j := range a.Samples {
				if a.Samples[j] != b.Samples[j] {
					identical = false
					fmt.Printf("lead %s sample %d differs between run 1 and run %d: %v vs %v\n",
						a.Lead, j, i+1, a.Samples[j], b.Samples[j])
					break
				}
			}
		}
	}

	if identical {
		fmt.Println("all runs produced identical traces (deterministic)")
		return
	}
	fmt.Println("digitization is NON-DETERMINISTIC")
	os.Exit(1)
}
