package compare

// Metrics summarises an edit script against a reference text.
type Metrics struct {
	CharacterErrorRatePercent float64 `json:"character_error_rate_percent"`

	// Counts of contiguous edit runs, not characters.
	Replacements int `json:"replacements"`
	Deletions    int `json:"deletions"`
	Insertions   int `json:"insertions"`

	ReferenceLength  int `json:"reference_length"`
	EditedCharacters int `json:"edited_characters"`
}

// Measure computes the character error rate of ops against a reference of
// referenceLength runes. A replace run counts max(len) edited characters.
// An empty reference is treated as length 1, so an empty reference against
// a non-empty hypothesis reports at least 100%.
func Measure(ops []Opcode, referenceLength int) Metrics {
	m := Metrics{ReferenceLength: referenceLength}

	for _, op := range ops {
		switch op.Tag {
		case OpReplace:
			m.Replacements++
			m.EditedCharacters += max(op.ALen(), op.BLen())
		case OpDelete:
			m.Deletions++
			m.EditedCharacters += op.ALen()
		case OpInsert:
			m.Insertions++
			m.EditedCharacters += op.BLen()
		}
	}

	m.CharacterErrorRatePercent = 100 * float64(m.EditedCharacters) / float64(max(1, referenceLength))

	return m
}
