package romaji

import (
	"strings"
	"unicode/utf8"
)

// digraphs are matched before monographs.
var digraphs = map[string]string{
	"キャ": "kya", "キュ": "kyu", "キョ": "kyo",
	"ギャ": "gya", "ギュ": "gyu", "ギョ": "gyo",
	"シャ": "sha", "シュ": "shu", "ショ": "sho", "シェ": "she",
	"ジャ": "ja", "ジュ": "ju", "ジョ": "jo", "ジェ": "je",
	"チャ": "cha", "チュ": "chu", "チョ": "cho", "チェ": "che",
	"ヂャ": "ja", "ヂュ": "ju", "ヂョ": "jo",
	"ニャ": "nya", "ニュ": "nyu", "ニョ": "nyo",
	"ヒャ": "hya", "ヒュ": "hyu", "ヒョ": "hyo",
	"ビャ": "bya", "ビュ": "byu", "ビョ": "byo",
	"ピャ": "pya", "ピュ": "pyu", "ピョ": "pyo",
	"ミャ": "mya", "ミュ": "myu", "ミョ": "myo",
	"リャ": "rya", "リュ": "ryu", "リョ": "ryo",
	"ティ": "ti", "ディ": "di", "トゥ": "tu", "ドゥ": "du",
	"ファ": "fa", "フィ": "fi", "フェ": "fe", "フォ": "fo",
	"ウィ": "wi", "ウェ": "we", "ウォ": "wo",
	"ヴァ": "va", "ヴィ": "vi", "ヴェ": "ve", "ヴォ": "vo",
	"ツァ": "tsa", "ツィ": "tsi", "ツェ": "tse", "ツォ": "tso",
}

var monographs = map[rune]string{
	'ア': "a", 'イ': "i", 'ウ': "u", 'エ': "e", 'オ': "o",
	'カ': "ka", 'キ': "ki", 'ク': "ku", 'ケ': "ke", 'コ': "ko",
	'ガ': "ga", 'ギ': "gi", 'グ': "gu", 'ゲ': "ge", 'ゴ': "go",
	'サ': "sa", 'シ': "shi", 'ス': "su", 'セ': "se", 'ソ': "so",
	'ザ': "za", 'ジ': "ji", 'ズ': "zu", 'ゼ': "ze", 'ゾ': "zo",
	'タ': "ta", 'チ': "chi", 'ツ': "tsu", 'テ': "te", 'ト': "to",
	'ダ': "da", 'ヂ': "ji", 'ヅ': "zu", 'デ': "de", 'ド': "do",
	'ナ': "na", 'ニ': "ni", 'ヌ': "nu", 'ネ': "ne", 'ノ': "no",
	'ハ': "ha", 'ヒ': "hi", 'フ': "fu", 'ヘ': "he", 'ホ': "ho",
	'バ': "ba", 'ビ': "bi", 'ブ': "bu", 'ベ': "be", 'ボ': "bo",
	'パ': "pa", 'ピ': "pi", 'プ': "pu", 'ペ': "pe", 'ポ': "po",
	'マ': "ma", 'ミ': "mi", 'ム': "mu", 'メ': "me", 'モ': "mo",
	'ヤ': "ya", 'ユ': "yu", 'ヨ': "yo",
	'ラ': "ra", 'リ': "ri", 'ル': "ru", 'レ': "re", 'ロ': "ro",
	'ワ': "wa", 'ヰ': "i", 'ヱ': "e", 'ヲ': "o",
	'ン': "n", 'ヴ': "vu",
	'ァ': "a", 'ィ': "i", 'ゥ': "u", 'ェ': "e", 'ォ': "o",
	'ャ': "ya", 'ュ': "yu", 'ョ': "yo", 'ヮ': "wa",
	'ヵ': "ka", 'ヶ': "ke",
}

var punctuation = map[rune]string{
	'。': ".", '、': ",", '，': ",", '．': ".",
	'「': "\"", '」': "\"", '『': "\"", '』': "\"",
	'（': "(", '）': ")", '【': "[", '】': "]",
	'・': " ", '〜': "~", '～': "~", '…': "...",
	'！': "!", '？': "?", '：': ":", '；': ";",
	'　': " ",
}

const (
	sokuon  = 'ッ'
	chouon  = 'ー'
	hiraLow = 'ぁ'
	hiraTop = 'ゖ'
	// distance between a hiragana and its katakana counterpart
	kanaOffset = 'ァ' - 'ぁ'
)

func toKatakana(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= hiraLow && r <= hiraTop {
			return r + kanaOffset
		}
		return r
	}, s)
}

func isPunctuation(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if _, ok := punctuation[r]; !ok && !strings.ContainsRune(".,!?\"()[]~:;", r) {
			return false
		}
	}
	return true
}

func lastVowel(s string) (byte, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case 'a', 'i', 'u', 'e', 'o':
			return s[i], true
		}
	}
	return 0, false
}

// kanaToRomaji converts katakana or hiragana to Hepburn romaji. Runes that are
// not kana are copied through unchanged.
func kanaToRomaji(kana string) string {
	runes := []rune(toKatakana(kana))

	var out strings.Builder
	geminate := false

	for i := 0; i < len(runes); {
		r := runes[i]

		var syllable string
		step := 1
		if i+1 < len(runes) {
			if d, ok := digraphs[string(runes[i:i+2])]; ok {
				syllable = d
				step = 2
			}
		}
		if syllable == "" {
			switch r {
			case sokuon:
				geminate = true
				i++
				continue
			case chouon:
				if v, ok := lastVowel(out.String()); ok {
					out.WriteByte(v)
				}
				i++
				continue
			}

			if m, ok := monographs[r]; ok {
				syllable = m
			} else if p, ok := punctuation[r]; ok {
				syllable = p
			} else {
				syllable = string(r)
			}
		}

		if geminate {
			geminate = false
			if strings.HasPrefix(syllable, "ch") {
				out.WriteByte('t')
			} else if c, _ := utf8.DecodeRuneInString(syllable); c < utf8.RuneSelf && strings.IndexByte("aiueon", byte(c)) < 0 {
				out.WriteByte(byte(c))
			}
		}

		out.WriteString(syllable)
		i += step
	}

	return out.String()
}
