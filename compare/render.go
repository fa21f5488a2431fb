package compare

type SegmentTag string

const (
	TagUnchanged    SegmentTag = "unchanged"
	TagDeleted      SegmentTag = "deleted"
	TagInserted     SegmentTag = "inserted"
	TagReplacedFrom SegmentTag = "replaced-from"
	TagReplacedTo   SegmentTag = "replaced-to"
	TagPlaceholder  SegmentTag = "placeholder"
)

// Segment is a tagged slice of one side of a diff. Placeholders carry no
// text, only the Width of the run on the other side.
type Segment struct {
	Text  string     `json:"text"`
	Tag   SegmentTag `json:"tag"`
	Width int        `json:"width"`
}

// Rendering holds the two sides of a diff. A[i] and B[i] always come from
// the same opcode.
type Rendering struct {
	LabelA string    `json:"label_a"`
	LabelB string    `json:"label_b"`
	A      []Segment `json:"a"`
	B      []Segment `json:"b"`
}

func Render(ops []Opcode, a, b, labelA, labelB string) Rendering {
	ra, rb := []rune(a), []rune(b)

	r := Rendering{
		LabelA: labelA,
		LabelB: labelB,
		A:      make([]Segment, 0, len(ops)),
		B:      make([]Segment, 0, len(ops)),
	}

	for _, op := range ops {
		sa := string(ra[op.AStart:op.AEnd])
		sb := string(rb[op.BStart:op.BEnd])

		var left, right Segment
		switch op.Tag {
		case OpEqual:
			left = Segment{Text: sa, Tag: TagUnchanged, Width: op.ALen()}
			right = Segment{Text: sb, Tag: TagUnchanged, Width: op.BLen()}
		case OpReplace:
			left = Segment{Text: sa, Tag: TagReplacedFrom, Width: op.ALen()}
			right = Segment{Text: sb, Tag: TagReplacedTo, Width: op.BLen()}
		case OpDelete:
			left = Segment{Text: sa, Tag: TagDeleted, Width: op.ALen()}
			right = Segment{Tag: TagPlaceholder, Width: op.ALen()}
		case OpInsert:
			left = Segment{Tag: TagPlaceholder, Width: op.BLen()}
			right = Segment{Text: sb, Tag: TagInserted, Width: op.BLen()}
		default:
			panic("compare: unknown opcode tag " + op.Tag.String())
		}

		r.A = append(r.A, left)
		r.B = append(r.B, right)
	}

	return r
}
