package romaji

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKanaToRomaji(t *testing.T) {
	tests := []struct {
		kana string
		want string
	}{
		{"トウキョウ", "toukyou"},
		{"コンニチハ", "konnichiha"},
		{"キャッチ", "kyatchi"},
		{"ガッコウ", "gakkou"},
		{"ラーメン", "raamen"},
		{"シャシン", "shashin"},
		{"ティー", "tii"},
		{"ファイル", "fairu"},
		{"ひらがな", "hiragana"},
		{"ちょっと", "chotto"},
		{"ABC", "ABC"},
		{"。", "."},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.kana, func(t *testing.T) {
			assert.Equal(t, tt.want, kanaToRomaji(tt.kana))
		})
	}
}

func TestIsPunctuation(t *testing.T) {
	assert.True(t, isPunctuation("."))
	assert.True(t, isPunctuation("、"))
	assert.False(t, isPunctuation("ka"))
	assert.False(t, isPunctuation(""))
}

func TestRomanize(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	assert.Equal(t, "", c.Romanize(""))
	assert.Equal(t, "toukyou", c.Romanize("東京"))
	assert.Equal(t, "toukyou.", c.Romanize("東京。"))
}

func TestRomanizeSeparator(t *testing.T) {
	c, err := New(WithSeparator("/"))
	require.NoError(t, err)

	assert.Equal(t, "toukyou/he", c.Romanize("東京へ"))
}
