package compare_test

import (
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/rrifaldi/yuzu/compare"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareInsertedComma(t *testing.T) {
	res := compare.Compare(
		compare.TextInput{Text: "こんにちは世界", Label: "whisper", ElapsedSeconds: 2},
		compare.TextInput{Text: "こんにちは、世界", Label: "turbo", ElapsedSeconds: 1},
	)

	assert.Equal(t, compare.SideA, res.Reference)
	assert.Equal(t, compare.TierModerate, res.Tier)
	assert.Equal(t, 1, res.Metrics.Insertions)
	assert.Len(t, res.Rendering.A, len(res.Opcodes))
	assert.Contains(t, res.Verdict, "14.29%")
	assert.Contains(t, res.Verdict, "turbo was faster")
}

func TestCompareReferenceSide(t *testing.T) {
	a := compare.TextInput{Text: "あいうえおかきくけこ", Label: "A"}
	b := compare.TextInput{Text: "あいうえお", Label: "B"}

	byA := compare.Compare(a, b)
	byB := compare.Compare(a, b, compare.WithReference(compare.SideB))

	assert.InDelta(t, 50.0, byA.Metrics.CharacterErrorRatePercent, 1e-9)
	assert.InDelta(t, 100.0, byB.Metrics.CharacterErrorRatePercent, 1e-9)
	assert.Equal(t, 1, byB.Metrics.Insertions)
	assert.Equal(t, compare.SideB, byB.Reference)

	// display order does not change with the reference
	assert.Equal(t, byA.Rendering, byB.Rendering)
}

func TestCompareReferenceBUsesRenderedScript(t *testing.T) {
	a := compare.TextInput{Text: "うえいうえ", Label: "A"}
	b := compare.TextInput{Text: "えうい", Label: "B"}

	res := compare.Compare(a, b, compare.WithReference(compare.SideB))

	// the diff shows one insert and two deletes against a; against b those
	// read as one deletion and two insertions
	assert.Equal(t, 0, res.Metrics.Replacements)
	assert.Equal(t, 1, res.Metrics.Deletions)
	assert.Equal(t, 2, res.Metrics.Insertions)
	assert.Equal(t, 4, res.Metrics.EditedCharacters)
	assert.Equal(t, 3, res.Metrics.ReferenceLength)
	assert.InDelta(t, 400.0/3, res.Metrics.CharacterErrorRatePercent, 1e-9)
}

func countSegments(segments []compare.Segment, tag compare.SegmentTag) int {
	n := 0
	for _, s := range segments {
		if s.Tag == tag {
			n++
		}
	}
	return n
}

func randomKana(r *rand.Rand, maxLen int) string {
	kana := []rune("あいうえおかきくけこ")
	out := make([]rune, r.IntN(maxLen+1))
	for i := range out {
		out[i] = kana[r.IntN(5)]
	}
	return string(out)
}

func TestCompareMetricsMatchRendering(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))

	for range 500 {
		a := compare.TextInput{Text: randomKana(r, 12), Label: "A"}
		b := compare.TextInput{Text: randomKana(r, 12), Label: "B"}

		byA := compare.Compare(a, b)
		byB := compare.Compare(a, b, compare.WithReference(compare.SideB))

		require.Equal(t, byA.Opcodes, byB.Opcodes)
		require.Equal(t, byA.Rendering, byB.Rendering)

		replaced := countSegments(byA.Rendering.A, compare.TagReplacedFrom)
		deleted := countSegments(byA.Rendering.A, compare.TagDeleted)
		inserted := countSegments(byA.Rendering.B, compare.TagInserted)

		assert.Equal(t, replaced, byA.Metrics.Replacements, "%q|%q", a.Text, b.Text)
		assert.Equal(t, deleted, byA.Metrics.Deletions, "%q|%q", a.Text, b.Text)
		assert.Equal(t, inserted, byA.Metrics.Insertions, "%q|%q", a.Text, b.Text)

		// relative to b, text only in a is inserted and text only in b is deleted
		assert.Equal(t, replaced, byB.Metrics.Replacements, "%q|%q", a.Text, b.Text)
		assert.Equal(t, inserted, byB.Metrics.Deletions, "%q|%q", a.Text, b.Text)
		assert.Equal(t, deleted, byB.Metrics.Insertions, "%q|%q", a.Text, b.Text)

		assert.Equal(t, byA.Metrics.EditedCharacters, byB.Metrics.EditedCharacters)
		assert.Equal(t, compare.Measure(byA.Opcodes, len([]rune(b.Text))).CharacterErrorRatePercent,
			byB.Metrics.CharacterErrorRatePercent)
	}
}

func TestSideUnmarshalText(t *testing.T) {
	var s compare.Side
	require.NoError(t, s.UnmarshalText([]byte("B")))
	assert.Equal(t, compare.SideB, s)

	require.NoError(t, s.UnmarshalText([]byte("")))
	assert.Equal(t, compare.SideA, s)

	assert.Error(t, s.UnmarshalText([]byte("c")))
	assert.Equal(t, compare.SideA, compare.SideB.Other())
}

func TestResultJSON(t *testing.T) {
	res := compare.Compare(compare.TextInput{Text: "ねこ"}, compare.TextInput{Text: "ねこだ"})

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	ops := decoded["opcodes"].([]any)
	require.Len(t, ops, 2)
	assert.Equal(t, "equal", ops[0].(map[string]any)["tag"])
	assert.Equal(t, "insert", ops[1].(map[string]any)["tag"])
	assert.Equal(t, "significant", decoded["tier"])
	assert.Equal(t, "a", decoded["reference"])
}
