package compare_test

import (
	"testing"

	"github.com/rrifaldi/yuzu/compare"
	"github.com/stretchr/testify/assert"
)

func TestTierBoundaries(t *testing.T) {
	tests := []struct {
		cer  float64
		want compare.Tier
	}{
		{0, compare.TierLow},
		{4.99, compare.TierLow},
		{5, compare.TierModerate},
		{19.99, compare.TierModerate},
		{20, compare.TierSignificant},
		{250, compare.TierSignificant},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, compare.TierFor(tt.cer), "cer %v", tt.cer)
	}
}

func TestSummarizeBoundariesFromMetrics(t *testing.T) {
	// 1 of 20 characters edited is exactly 5%
	five := compare.Measure([]compare.Opcode{
		{Tag: compare.OpEqual, AStart: 0, AEnd: 19, BStart: 0, BEnd: 19},
		{Tag: compare.OpDelete, AStart: 19, AEnd: 20, BStart: 19, BEnd: 19},
	}, 20)
	assert.Equal(t, 5.0, five.CharacterErrorRatePercent)
	assert.Contains(t, compare.Summarize(five, 1, "A", 1, "B"), "moderately similar")

	// 1 of 5 is exactly 20%
	twenty := compare.Measure([]compare.Opcode{
		{Tag: compare.OpEqual, AStart: 0, AEnd: 4, BStart: 0, BEnd: 4},
		{Tag: compare.OpDelete, AStart: 4, AEnd: 5, BStart: 4, BEnd: 4},
	}, 5)
	assert.Equal(t, 20.0, twenty.CharacterErrorRatePercent)
	assert.Contains(t, compare.Summarize(twenty, 1, "A", 1, "B"), "differ significantly")
}

func TestSummarizeBothEmpty(t *testing.T) {
	m := compare.Measure(compare.Align("", ""), 0)
	got := compare.Summarize(m, 2.5, "whisper", 2.5, "turbo")

	assert.Equal(t,
		"The transcriptions from whisper and turbo are very similar, with a low character error rate of 0.00%."+
			" Both models took 2.50 s, a 0.00% speed difference.",
		got,
	)
}

func TestSummarizeFasterModel(t *testing.T) {
	m := compare.Metrics{CharacterErrorRatePercent: 14.285714}

	got := compare.Summarize(m, 4, "whisper", 1, "turbo")
	assert.Equal(t,
		"The transcriptions from whisper and turbo are moderately similar, with a character error rate of 14.29%."+
			" turbo was faster (1.00 s vs 4.00 s), a 75.00% speed difference.",
		got,
	)

	got = compare.Summarize(compare.Metrics{CharacterErrorRatePercent: 42}, 1, "whisper", 2, "turbo")
	assert.Equal(t,
		"The transcriptions from whisper and turbo differ significantly, with a character error rate of 42.00%."+
			" whisper was faster (1.00 s vs 2.00 s), a 50.00% speed difference.",
		got,
	)
}

func TestSummarizeIsDeterministic(t *testing.T) {
	m := compare.Metrics{CharacterErrorRatePercent: 3.3333}
	assert.Equal(t,
		compare.Summarize(m, 1.234, "A", 5.678, "B"),
		compare.Summarize(m, 1.234, "A", 5.678, "B"),
	)
}

func TestSpeedDifferenceZeroGuard(t *testing.T) {
	assert.Equal(t, 0.0, compare.SpeedDifferencePercent(0, 0))
	assert.InDelta(t, 100.0, compare.SpeedDifferencePercent(0, 3), 1e-9)
}
