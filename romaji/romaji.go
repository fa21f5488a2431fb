// Package romaji transliterates Japanese text to Latin script. Kanji are read
// through kagome's IPA dictionary, and readings are spelled in Hepburn.
package romaji

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
	"golang.org/x/text/width"
)

const DefaultSeparator = " "

type Option func(*Converter)

// WithSeparator sets the string placed between tokens.
func WithSeparator(separator string) Option {
	return func(c *Converter) {
		c.separator = separator
	}
}

// Converter is safe for concurrent use.
type Converter struct {
	tokenizer *tokenizer.Tokenizer
	separator string
}

func New(options ...Option) (*Converter, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("creating tokenizer: %w", err)
	}

	c := &Converter{
		tokenizer: t,
		separator: DefaultSeparator,
	}
	for _, option := range options {
		option(c)
	}
	return c, nil
}

// Romanize returns the romaji of text. Punctuation sticks to the preceding
// token instead of being separated.
func (c *Converter) Romanize(text string) string {
	text = width.Fold.String(text)

	var out strings.Builder
	for _, token := range c.tokenizer.Tokenize(text) {
		if strings.TrimFunc(token.Surface, unicode.IsSpace) == "" {
			continue
		}

		reading, ok := token.Reading()
		if !ok || reading == "" || reading == "*" {
			reading = token.Surface
		}

		romaji := kanaToRomaji(reading)
		if out.Len() > 0 && !isPunctuation(romaji) {
			out.WriteString(c.separator)
		}
		out.WriteString(romaji)
	}

	return out.String()
}
