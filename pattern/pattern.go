// Package pattern implements wildcard byte signatures and a Boyer-Moore-Horspool
// matcher over them.
package pattern

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Pattern is an immutable byte signature where some positions may be wildcards.
type Pattern struct {
	bytes []byte
	exact []bool
	shift *[256]int
}

// Parse reads the textual form "6B 65 ?? 3D". Tokens are separated by spaces or commas,
// hex digits are case-insensitive and "??" or "?" marks a wildcard.
func Parse(text string) (Pattern, error) {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})
	if len(tokens) == 0 {
		return Pattern{}, errors.New("empty pattern")
	}
	b := make([]byte, len(tokens))
	exact := make([]bool, len(tokens))
	for i, tok := range tokens {
		if tok == "??" || tok == "?" {
			continue
		}
		if len(tok) != 2 {
			return Pattern{}, errors.Errorf("token %d: invalid byte %q", i, tok)
		}
		v, err := strconv.ParseUint(tok, 16, 8)
		if err != nil {
			return Pattern{}, errors.Errorf("token %d: invalid byte %q", i, tok)
		}
		b[i] = byte(v)
		exact[i] = true
	}
	return build(b, exact), nil
}

// MustParse is like Parse but panics on malformed input.
func MustParse(text string) Pattern {
	p, err := Parse(text)
	if err != nil {
		panic(errors.Wrap(err, "pattern: MustParse"))
	}
	return p
}

// FromBytes returns a pattern matching exactly b.
func FromBytes(b []byte) Pattern {
	if len(b) == 0 {
		panic("pattern: FromBytes with empty signature")
	}
	exact := make([]bool, len(b))
	for i := range exact {
		exact[i] = true
	}
	return build(append([]byte(nil), b...), exact)
}

func build(b []byte, exact []bool) Pattern {
	p := Pattern{bytes: b, exact: exact}
	p.buildShift()
	return p
}

// Len returns the number of positions in the pattern.
func (p Pattern) Len() int {
	return len(p.bytes)
}

// HasWildcard reports whether at least one position is a wildcard.
func (p Pattern) HasWildcard() bool {
	for _, e := range p.exact {
		if !e {
			return true
		}
	}
	return false
}

// String formats the pattern back to its textual form.
func (p Pattern) String() string {
	var sb strings.Builder
	for i, b := range p.bytes {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if !p.exact[i] {
			sb.WriteString("??")
			continue
		}
		sb.WriteString(strings.ToUpper(strconv.FormatUint(uint64(b)|0x100, 16)[1:]))
	}
	return sb.String()
}
