package gauge

// Label is the trust verdict on a reading.
type Label string

const (
	LabelGood      Label = "good"
	LabelBad       Label = "bad"
	LabelUncertain Label = "uncertain"
)

// Assess classifies an observation. It depends on nothing but its
// arguments:
//
//	confidence < AutoBad                                   -> bad
//	confidence >= AutoGood and competing <= MaxCompeting   -> good
//	otherwise                                              -> uncertain
func Assess(confidence float64, competing int, t Thresholds) Label {
	switch {
	case confidence < t.AutoBad:
		return LabelBad
	case confidence >= t.AutoGood && competing <= t.MaxCompeting:
		return LabelGood
	default:
		return LabelUncertain
	}
}
