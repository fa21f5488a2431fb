// Package compare aligns two transcriptions character by character and
// derives the diff, error metrics and verdict shown to users.
//
// Everything in this package is pure and safe for concurrent use.
package compare

import (
	"fmt"
	"strings"
)

// Side selects which text is the reference for error rate calculations.
type Side string

const (
	SideA Side = "a"
	SideB Side = "b"
)

func (s Side) Other() Side {
	if s == SideB {
		return SideA
	}
	return SideB
}

func (s *Side) UnmarshalText(text []byte) error {
	switch Side(strings.ToLower(strings.TrimSpace(string(text)))) {
	case SideA, "":
		*s = SideA
	case SideB:
		*s = SideB
	default:
		return fmt.Errorf("invalid side %q, expected a or b", text)
	}
	return nil
}

// TextInput is one side of a comparison.
type TextInput struct {
	Text           string  `json:"text"`
	Label          string  `json:"label"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

type Result struct {
	Reference Side      `json:"reference"`
	Opcodes   []Opcode  `json:"opcodes"`
	Rendering Rendering `json:"rendering"`
	Metrics   Metrics   `json:"metrics"`
	Tier      Tier      `json:"tier"`
	Verdict   string    `json:"verdict"`
}

type options struct {
	reference Side
}

type Option func(*options)

// WithReference picks the reference text. Defaults to SideA.
func WithReference(side Side) Option {
	return func(o *options) {
		o.reference = side
	}
}

// Compare runs the whole comparison. The rendering always shows a on the
// left; only the metrics depend on the reference side. Rendering and metrics
// are derived from the same edit script whichever side is the reference.
func Compare(a, b TextInput, opts ...Option) Result {
	o := options{reference: SideA}
	for _, opt := range opts {
		opt(&o)
	}

	ops := Align(a.Text, b.Text)

	var m Metrics
	if o.reference == SideB {
		m = Measure(Mirror(ops), len([]rune(b.Text)))
	} else {
		m = Measure(ops, len([]rune(a.Text)))
	}

	return Result{
		Reference: o.reference,
		Opcodes:   ops,
		Rendering: Render(ops, a.Text, b.Text, a.Label, b.Label),
		Metrics:   m,
		Tier:      TierFor(m.CharacterErrorRatePercent),
		Verdict:   Summarize(m, a.ElapsedSeconds, a.Label, b.ElapsedSeconds, b.Label),
	}
}
