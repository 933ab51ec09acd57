package ecg

// Signal Normalization
//
// The normalizer turns 12 raw LeadTraces of arbitrary length into one
// fixed-shape SignalTensor:
//
// 1. Resample: every present trace is linearly interpolated over its index
//    axis to exactly 1000 samples.
// 2. Impute: a missing lead is reconstructed as the element-wise mean of its
//    two anatomically paired leads (fixed lookup table below). When both
//    paired leads are missing too, the lead stays zero-filled; that is the
//    accepted fallback, not an error.
// 3. Standardize: each lead is centred and scaled using that single sample's
//    own mean and standard deviation, (x - mean) / (std + eps). This
//    per-sample policy matches the statistics the model was trained with.

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// leadPairs maps each lead to the two anatomically paired leads used for
// imputation. The table is configuration, not learned.
var leadPairs = map[string][2]string{
	"I":   {"aVL", "II"},
	"II":  {"I", "aVF"},
	"III": {"aVF", "II"},
	"aVR": {"I", "II"},
	"aVL": {"I", "aVR"},
	"aVF": {"II", "III"},
	"V1":  {"V2", "V3"},
	"V2":  {"V1", "V3"},
	"V3":  {"V2", "V4"},
	"V4":  {"V3", "V5"},
	"V5":  {"V4", "V6"},
	"V6":  {"V5", "V4"},
}

// Normalizer converts raw lead traces into a standardized SignalTensor.
type Normalizer struct {
	targetLength int
	epsilon      float64
}

// NewNormalizer builds a normalizer with the model's fixed dimensions.
func NewNormalizer() *Normalizer {
	return &Normalizer{targetLength: TargetLength, epsilon: 1e-8}
}

// Normalize runs resampling, imputation and standardization in order.
func (n *Normalizer) Normalize(traces []LeadTrace) (*SignalTensor, error) {
	columns, missing, err := n.ResampleAll(traces)
	if err != nil {
		return nil, err
	}
	n.Impute(columns, missing)
	return n.Standardize(columns), nil
}

// ResampleAll interpolates every present trace to the target length and
// reports which leads are missing. Trace order must follow LeadNames.
func (n *Normalizer) ResampleAll(traces []LeadTrace) ([][]float64, []bool, error) {
	if len(traces) != LeadCount {
		return nil, nil, fmt.Errorf("expected %d lead traces, got %d", LeadCount, len(traces))
	}

	columns := make([][]float64, LeadCount)
	missing := make([]bool, LeadCount)
	for i, trace := range traces {
		if trace.Missing || len(trace.Samples) == 0 {
			columns[i] = make([]float64, n.targetLength)
			missing[i] = true
			continue
		}
		columns[i] = ResampleLinear(trace.Samples, n.targetLength)
	}
	return columns, missing, nil
}

// Impute fills missing leads from their anatomical pairs and returns the
// number of leads reconstructed. Pair leads that are themselves missing are
// skipped; with no usable pair the lead stays zero-filled.
func (n *Normalizer) Impute(columns [][]float64, missing []bool) int {
	leadIndex := make(map[string]int, LeadCount)
	for i, name := range LeadNames {
		leadIndex[name] = i
	}

	imputed := 0
	for i, name := range LeadNames {
		if !missing[i] {
			continue
		}
		pair := leadPairs[name]
		sources := make([]int, 0, 2)
		for _, pairName := range pair {
			j := leadIndex[pairName]
			if !missing[j] {
				sources = append(sources, j)
			}
		}
		if len(sources) == 0 {
			continue
		}
		for t := 0; t < n.targetLength; t++ {
			var sum float64
			for _, j := range sources {
				sum += columns[j][t]
			}
			columns[i][t] = sum / float64(len(sources))
		}
		imputed++
	}
	return imputed
}

// Standardize applies per-lead z-scoring over the sample's own statistics
// and assembles the time-major tensor.
func (n *Normalizer) Standardize(columns [][]float64) *SignalTensor {
	for i := range columns {
		mean, _ := stats.Mean(columns[i])
		std, _ := stats.StandardDeviation(columns[i])
		denom := std + n.epsilon
		for t := range columns[i] {
			columns[i][t] = (columns[i][t] - mean) / denom
		}
	}

	values := make([][]float64, n.targetLength)
	for t := 0; t < n.targetLength; t++ {
		row := make([]float64, LeadCount)
		for lead := 0; lead < LeadCount; lead++ {
			row[lead] = columns[lead][t]
		}
		values[t] = row
	}
	return &SignalTensor{Values: values}
}

// ResampleLinear interpolates samples to exactly n points over the index
// axis. A single-sample input is broadcast.
func ResampleLinear(samples []float64, n int) []float64 {
	out := make([]float64, n)
	if len(samples) == 1 {
		for i := range out {
			out[i] = samples[0]
		}
		return out
	}
	if n == 1 {
		out[0] = samples[0]
		return out
	}

	step := float64(len(samples)-1) / float64(n-1)
	for i := 0; i < n; i++ {
		pos := float64(i) * step
		lo := int(pos)
		if lo >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(lo)
		out[i] = samples[lo]*(1-frac) + samples[lo+1]*frac
	}
	return out
}
