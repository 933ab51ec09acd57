package ecg

import (
	"math"
	"testing"
)

func sineTrace(lead string, length int, freq, amp float64) LeadTrace {
	samples := make([]float64, length)
	for i := range samples {
		samples[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(length))
	}
	return LeadTrace{Lead: lead, Samples: samples}
}

func fullTraceSet(length int) []LeadTrace {
	traces := make([]LeadTrace, LeadCount)
	for i, name := range LeadNames {
		traces[i] = sineTrace(name, length, float64(i+1), 1.0+0.1*float64(i))
	}
	return traces
}

func TestNormalizeProducesStandardizedTensor(t *testing.T) {
	t.Parallel()

	normalizer := NewNormalizer()
	tensor, err := normalizer.Normalize(fullTraceSet(480))
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}

	if len(tensor.Values) != TargetLength {
		t.Fatalf("expected %d rows, got %d", TargetLength, len(tensor.Values))
	}
	for lead := 0; lead < LeadCount; lead++ {
		col := tensor.LeadColumn(lead)
		var sum float64
		for _, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("lead %d contains a non-finite value", lead)
			}
			sum += v
		}
		mean := sum / float64(len(col))
		if math.Abs(mean) > 1e-9 {
			t.Fatalf("lead %d mean = %v, expected ~0", lead, mean)
		}

		var variance float64
		for _, v := range col {
			variance += (v - mean) * (v - mean)
		}
		std := math.Sqrt(variance / float64(len(col)))
		if math.Abs(std-1) > 1e-6 {
			t.Fatalf("lead %d std = %v, expected ~1", lead, std)
		}
	}
}

func TestNormalizeFlatLeadStaysFinite(t *testing.T) {
	t.Parallel()

	traces := fullTraceSet(300)
	flat := make([]float64, 300)
	for i := range flat {
		flat[i] = 0.42
	}
	traces[0] = LeadTrace{Lead: "I", Samples: flat}

	normalizer := NewNormalizer()
	tensor, err := normalizer.Normalize(traces)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	for _, v := range tensor.LeadColumn(0) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatal("flat lead produced non-finite values")
		}
	}
}

func TestImputeUsesPairMean(t *testing.T) {
	t.Parallel()

	traces := fullTraceSet(500)
	const v3 = 8
	traces[v3] = LeadTrace{Lead: "V3", Missing: true}

	normalizer := NewNormalizer()
	columns, missing, err := normalizer.ResampleAll(traces)
	if err != nil {
		t.Fatalf("ResampleAll returned error: %v", err)
	}
	if imputed := normalizer.Impute(columns, missing); imputed != 1 {
		t.Fatalf("expected 1 imputed lead, got %d", imputed)
	}

	// V3 pairs with V2 (index 7) and V4 (index 9).
	for i := range columns[v3] {
		want := (columns[7][i] + columns[9][i]) / 2
		if math.Abs(columns[v3][i]-want) > 1e-12 {
			t.Fatalf("sample %d: imputed %v, expected pair mean %v", i, columns[v3][i], want)
		}
	}
}

func TestImputeZeroFillsWhenBothPairsMissing(t *testing.T) {
	t.Parallel()

	traces := fullTraceSet(500)
	for _, i := range []int{7, 8, 9} { // V2, V3, V4
		traces[i] = LeadTrace{Lead: LeadNames[i], Missing: true}
	}

	normalizer := NewNormalizer()
	columns, missing, err := normalizer.ResampleAll(traces)
	if err != nil {
		t.Fatalf("ResampleAll returned error: %v", err)
	}
	normalizer.Impute(columns, missing)

	// V3's pairs (V2, V4) are both missing, so it stays zero-filled.
	for i, v := range columns[8] {
		if v != 0 {
			t.Fatalf("sample %d of V3 is %v, expected zero fill", i, v)
		}
	}
}

func TestRenormalizingKeepsStatistics(t *testing.T) {
	t.Parallel()

	normalizer := NewNormalizer()
	tensor, err := normalizer.Normalize(fullTraceSet(750))
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}

	// Feed the normalized tensor back through the same policy.
	traces := make([]LeadTrace, LeadCount)
	for i, name := range LeadNames {
		traces[i] = LeadTrace{Lead: name, Samples: tensor.LeadColumn(i)}
	}
	again, err := normalizer.Normalize(traces)
	if err != nil {
		t.Fatalf("second Normalize returned error: %v", err)
	}

	if len(again.Values) != TargetLength || len(again.Values[0]) != LeadCount {
		t.Fatalf("shape changed on re-normalization: %dx%d", len(again.Values), len(again.Values[0]))
	}
	for lead := 0; lead < LeadCount; lead++ {
		col := again.LeadColumn(lead)
		var sum float64
		for _, v := range col {
			sum += v
		}
		if mean := sum / float64(len(col)); math.Abs(mean) > 1e-9 {
			t.Fatalf("lead %d mean drifted to %v after re-normalization", lead, mean)
		}
	}
}

func TestResampleLinearEndpointsAndLength(t *testing.T) {
	t.Parallel()

	in := []float64{0, 1, 2, 3}
	out := ResampleLinear(in, 7)
	if len(out) != 7 {
		t.Fatalf("expected 7 samples, got %d", len(out))
	}
	if out[0] != 0 || out[6] != 3 {
		t.Fatalf("endpoints not preserved: first=%v last=%v", out[0], out[6])
	}
	if math.Abs(out[3]-1.5) > 1e-12 {
		t.Fatalf("midpoint = %v, expected 1.5", out[3])
	}
}
