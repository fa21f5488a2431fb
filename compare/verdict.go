package compare

import (
	"fmt"
	"math"
)

type Tier string

const (
	TierLow         Tier = "low"
	TierModerate    Tier = "moderate"
	TierSignificant Tier = "significant"
)

const (
	lowErrorThreshold      = 5.0
	moderateErrorThreshold = 20.0
)

// TierFor bands an error rate: [0,5) low, [5,20) moderate, [20,∞) significant.
func TierFor(cerPercent float64) Tier {
	switch {
	case cerPercent < lowErrorThreshold:
		return TierLow
	case cerPercent < moderateErrorThreshold:
		return TierModerate
	default:
		return TierSignificant
	}
}

var tierSentences = map[Tier]string{
	TierLow:         "The transcriptions from %s and %s are very similar, with a low character error rate of %.2f%%.",
	TierModerate:    "The transcriptions from %s and %s are moderately similar, with a character error rate of %.2f%%.",
	TierSignificant: "The transcriptions from %s and %s differ significantly, with a character error rate of %.2f%%.",
}

// SpeedDifferencePercent is |a-b| relative to the slower of the two.
func SpeedDifferencePercent(elapsedA, elapsedB float64) float64 {
	slowest := math.Max(elapsedA, elapsedB)
	if slowest <= 0 {
		return 0
	}
	return 100 * math.Abs(elapsedA-elapsedB) / slowest
}

func Summarize(m Metrics, elapsedA float64, labelA string, elapsedB float64, labelB string) string {
	cer := m.CharacterErrorRatePercent
	text := fmt.Sprintf(tierSentences[TierFor(cer)], labelA, labelB, cer)

	diff := SpeedDifferencePercent(elapsedA, elapsedB)
	switch {
	case elapsedA < elapsedB:
		text += fmt.Sprintf(" %s was faster (%.2f s vs %.2f s), a %.2f%% speed difference.", labelA, elapsedA, elapsedB, diff)
	case elapsedB < elapsedA:
		text += fmt.Sprintf(" %s was faster (%.2f s vs %.2f s), a %.2f%% speed difference.", labelB, elapsedB, elapsedA, diff)
	default:
		text += fmt.Sprintf(" Both models took %.2f s, a %.2f%% speed difference.", elapsedA, diff)
	}

	return text
}
