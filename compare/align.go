package compare

import "sort"

type OpTag int

const (
	OpEqual OpTag = iota
	OpReplace
	OpDelete
	OpInsert
)

func (t OpTag) String() string {
	switch t {
	case OpEqual:
		return "equal"
	case OpReplace:
		return "replace"
	case OpDelete:
		return "delete"
	case OpInsert:
		return "insert"
	}
	return "unknown"
}

func (t OpTag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Opcode is one run of an edit script. Ranges are half-open rune offsets
// into the two aligned texts.
type Opcode struct {
	Tag    OpTag `json:"tag"`
	AStart int   `json:"a_start"`
	AEnd   int   `json:"a_end"`
	BStart int   `json:"b_start"`
	BEnd   int   `json:"b_end"`
}

func (o Opcode) ALen() int { return o.AEnd - o.AStart }
func (o Opcode) BLen() int { return o.BEnd - o.BStart }

type matchBlock struct {
	a, b, size int
}

type aligner struct {
	a, b []rune
	// rune -> ascending positions in b
	b2j map[rune][]int

	// match length rows reused by longestMatch, len(b)+1 each, all zero
	// between calls
	lens, next []int
}

// Align computes the edit script turning a into b. It works on code points,
// so multi-byte scripts align per character. Two empty inputs produce an
// empty script.
func Align(a, b string) []Opcode {
	return alignRunes([]rune(a), []rune(b))
}

// Mirror returns the script turning b into a from one turning a into b.
// Ranges swap sides and deletes become inserts; the runs are unchanged.
func Mirror(ops []Opcode) []Opcode {
	mirrored := make([]Opcode, len(ops))
	for i, op := range ops {
		tag := op.Tag
		switch tag {
		case OpDelete:
			tag = OpInsert
		case OpInsert:
			tag = OpDelete
		}
		mirrored[i] = Opcode{Tag: tag, AStart: op.BStart, AEnd: op.BEnd, BStart: op.AStart, BEnd: op.AEnd}
	}
	return mirrored
}

func alignRunes(a, b []rune) []Opcode {
	al := &aligner{
		a:    a,
		b:    b,
		b2j:  make(map[rune][]int),
		lens: make([]int, len(b)+1),
		next: make([]int, len(b)+1),
	}
	for j, r := range b {
		al.b2j[r] = append(al.b2j[r], j)
	}

	blocks := al.matchingBlocks()

	var ops []Opcode
	i, j := 0, 0
	for _, m := range blocks {
		var tag OpTag
		hasEdit := true
		switch {
		case i < m.a && j < m.b:
			tag = OpReplace
		case i < m.a:
			tag = OpDelete
		case j < m.b:
			tag = OpInsert
		default:
			hasEdit = false
		}
		if hasEdit {
			ops = append(ops, Opcode{Tag: tag, AStart: i, AEnd: m.a, BStart: j, BEnd: m.b})
		}

		i, j = m.a+m.size, m.b+m.size
		if m.size > 0 {
			ops = append(ops, Opcode{Tag: OpEqual, AStart: m.a, AEnd: i, BStart: m.b, BEnd: j})
		}
	}

	return ops
}

// longestMatch finds the longest common block in a[alo:ahi] and b[blo:bhi].
// Ties go to the block starting earliest in a, then earliest in b.
func (al *aligner) longestMatch(alo, ahi, blo, bhi int) matchBlock {
	best := matchBlock{a: alo, b: blo}

	// lens[j+1] is the length of the match ending at a[i-1], b[j]
	lens, next := al.lens, al.next
	var set, nextSet []int
	for i := alo; i < ahi; i++ {
		nextSet = nextSet[:0]
		for _, j := range al.b2j[al.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := lens[j] + 1
			next[j+1] = k
			nextSet = append(nextSet, j+1)
			if k > best.size {
				best = matchBlock{a: i - k + 1, b: j - k + 1, size: k}
			}
		}

		for _, j := range set {
			lens[j] = 0
		}
		lens, next = next, lens
		set, nextSet = nextSet, set
	}

	for _, j := range set {
		lens[j] = 0
	}

	return best
}

// matchingBlocks returns the non-adjacent matching blocks in ascending order,
// terminated by a zero-size block at (len(a), len(b)).
func (al *aligner) matchingBlocks() []matchBlock {
	type window struct{ alo, ahi, blo, bhi int }

	queue := []window{{0, len(al.a), 0, len(al.b)}}
	var found []matchBlock
	for len(queue) > 0 {
		w := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		m := al.longestMatch(w.alo, w.ahi, w.blo, w.bhi)
		if m.size == 0 {
			continue
		}
		found = append(found, m)
		if w.alo < m.a && w.blo < m.b {
			queue = append(queue, window{w.alo, m.a, w.blo, m.b})
		}
		if m.a+m.size < w.ahi && m.b+m.size < w.bhi {
			queue = append(queue, window{m.a + m.size, w.ahi, m.b + m.size, w.bhi})
		}
	}

	sort.Slice(found, func(x, y int) bool {
		if found[x].a != found[y].a {
			return found[x].a < found[y].a
		}
		return found[x].b < found[y].b
	})

	var merged []matchBlock
	for _, m := range found {
		if n := len(merged); n > 0 {
			last := &merged[n-1]
			if last.a+last.size == m.a && last.b+last.size == m.b {
				last.size += m.size
				continue
			}
		}
		merged = append(merged, m)
	}

	return append(merged, matchBlock{a: len(al.a), b: len(al.b)})
}
