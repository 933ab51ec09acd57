package ecg

// ClassLabel identifies one of the five diagnostic categories. The order of
// ClassOrder is a fixed contract: model outputs, probability maps and the
// argmax tie-break all follow it.
type ClassLabel string

const (
	ClassCD   ClassLabel = "CD"   // Conduction Disturbance
	ClassHYP  ClassLabel = "HYP"  // Hypertrophy
	ClassMI   ClassLabel = "MI"   // Myocardial Infarction
	ClassNORM ClassLabel = "NORM" // Normal
	ClassSTTC ClassLabel = "STTC" // ST-T Change
)

// ClassOrder is the canonical enumeration order of the diagnostic classes.
var ClassOrder = []ClassLabel{ClassCD, ClassHYP, ClassMI, ClassNORM, ClassSTTC}

// ClassDisplayNames maps the short class symbols to human-readable names.
var ClassDisplayNames = map[ClassLabel]string{
	ClassCD:   "Conduction Disturbance",
	ClassHYP:  "Hypertrophy",
	ClassMI:   "Myocardial Infarction",
	ClassNORM: "Normal",
	ClassSTTC: "ST-T Change",
}

// DisplayName returns the human-readable name of the class, falling back to
// the raw symbol for labels outside the fixed set.
func (c ClassLabel) DisplayName() string {
	if name, ok := ClassDisplayNames[c]; ok {
		return name
	}
	return string(c)
}

// LeadNames lists the 12 standard anatomical leads in canonical order.
var LeadNames = []string{"I", "II", "III", "aVR", "aVL", "aVF", "V1", "V2", "V3", "V4", "V5", "V6"}

const (
	// LeadCount is the number of leads every digitized record carries.
	LeadCount = 12

	// TargetLength is the fixed time dimension of a normalized signal.
	TargetLength = 1000
)

// LeadTrace is one ordered amplitude sequence for a single lead. A lead with
// no traceable waveform is marked Missing and carries no samples until the
// normalizer imputes it.
type LeadTrace struct {
	Lead    string
	Samples []float64
	Missing bool
}

// DigitizationResult bundles the extracted traces with a quality signal in
// [0,1]: the fraction of panel columns where a waveform pixel was found,
// averaged over non-missing panels.
type DigitizationResult struct {
	Traces  []LeadTrace
	Quality float64
}

// SignalTensor is the fixed-shape (time=1000, leads=12) array handed to the
// classifier. Values is time-major: Values[t][lead].
type SignalTensor struct {
	Values [][]float64
}

// LeadColumn extracts the full time series of one lead.
func (s *SignalTensor) LeadColumn(lead int) []float64 {
	col := make([]float64, len(s.Values))
	for t := range s.Values {
		col[t] = s.Values[t][lead]
	}
	return col
}

// PredictionResult is the single artifact that outlives a pipeline call. The
// JSON field set is the fixed external contract; predicted_class and the
// classifier-derived fields are omitted when the image was judged non-ECG.
type PredictionResult struct {
	PredictedClass       *ClassLabel            `json:"predicted_class,omitempty"`
	Confidence           float64                `json:"confidence"`
	Probabilities        map[ClassLabel]float64 `json:"probabilities,omitempty"`
	RiskScore            int                    `json:"risk_score"`
	RiskLevel            string                 `json:"risk_level,omitempty"`
	ValidationConfidence float64                `json:"validation_confidence"`
	IsValidECG           bool                   `json:"is_valid_ecg"`
	ModelUsed            string                 `json:"model_used"`
}

// Argmax returns the class with the highest probability. Ties are broken by
// the lowest index in ClassOrder so repeated runs always agree.
func Argmax(probs map[ClassLabel]float64) ClassLabel {
	best := ClassOrder[0]
	bestP := probs[best]
	for _, label := range ClassOrder[1:] {
		if p := probs[label]; p > bestP {
			best = label
			bestP = p
		}
	}
	return best
}

// ProbabilitySumTolerance bounds how far a probability map may drift from 1.
const ProbabilitySumTolerance = 1e-4

// ValidateProbabilities checks the classifier output contract: all five
// classes present, every value finite and in [0,1], values summing to 1
// within tolerance. A violation is a MalformedOutput error.
func ValidateProbabilities(probs map[ClassLabel]float64) error {
	if len(probs) != len(ClassOrder) {
		return NewPipelineError(KindMalformedOutput,
			"probability map must contain exactly the five diagnostic classes")
	}
	var sum float64
	for _, label := range ClassOrder {
		p, ok := probs[label]
		if !ok {
			return NewPipelineError(KindMalformedOutput, "probability map is missing class "+string(label))
		}
		if p != p || p < 0 || p > 1 {
			return NewPipelineError(KindMalformedOutput, "probability for "+string(label)+" is out of range")
		}
		sum += p
	}
	if diff := sum - 1; diff > ProbabilitySumTolerance || diff < -ProbabilitySumTolerance {
		return NewPipelineError(KindMalformedOutput, "probabilities do not sum to 1")
	}
	return nil
}
