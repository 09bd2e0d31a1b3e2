// Package position provides the positional sequence container used by every
// alignment stage: an ordered list of nucleotide symbols that remember their
// coordinate in the original ungapped input.
package position

import (
	"errors"
	"fmt"
	"strings"
)

// GapPos is the coordinate carried by gap symbols.
const GapPos = -1

// GapChar is the normalized gap notation.
const GapChar byte = '-'

// Flag is a per-symbol status bitset.
type Flag uint8

const (
	// TrimBySeq marks leading and trailing query codons made only of gaps.
	TrimBySeq Flag = 0x01
	// Unaligned marks query symbols placed by the unaligned-region filler.
	Unaligned Flag = 0x10
)

// String returns a pipe-separated list of flag names.
func (f Flag) String() string {
	if f == 0 {
		return "NONE"
	}
	var parts []string
	if f&TrimBySeq != 0 {
		parts = append(parts, "TRIM_BY_SEQ")
	}
	if f&Unaligned != 0 {
		parts = append(parts, "UNALIGNED")
	}
	if rest := f &^ (TrimBySeq | Unaligned); rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%02x", uint8(rest)))
	}
	return strings.Join(parts, "|")
}

// Symbol is one position of a sequence.
type Symbol struct {
	Notation byte
	Pos      int // 1-based coordinate, GapPos for gaps
	Flag     Flag
	Payload  any // caller-owned, carried through transformations
}

// IsGapNotation reports whether b is a gap marker.
func IsGapNotation(b byte) bool {
	return b == '-' || b == '.'
}

// IsGap reports whether the symbol is a gap.
func (s *Symbol) IsGap() bool {
	return IsGapNotation(s.Notation)
}

// HasFlag reports whether any bit of f is set on the symbol.
func (s *Symbol) HasFlag(f Flag) bool {
	return s.Flag&f != 0
}

// Clone returns a shallow copy of the symbol. The payload is shared.
func (s *Symbol) Clone() *Symbol {
	c := *s
	return &c
}

// GoString renders the symbol for debugging.
func (s *Symbol) GoString() string {
	return fmt.Sprintf("Symbol(%q, %d, %s, %v)", s.Notation, s.Pos, s.Flag, s.Payload)
}

// NewGap creates a gap symbol.
func NewGap() *Symbol {
	return &Symbol{Notation: GapChar, Pos: GapPos}
}

// Type selects the symbol alphabet of a sequence.
type Type uint8

const (
	NA Type = iota // nucleotide
	AA             // amino acid, not implemented
)

// ErrAminoAcidUnsupported is returned by every operation given an amino acid sequence.
var ErrAminoAcidUnsupported = errors.New("amino acid sequences are not supported")

// String returns "NA" or "AA".
func (t Type) String() string {
	switch t {
	case NA:
		return "NA"
	case AA:
		return "AA"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Check returns ErrAminoAcidUnsupported unless t is NA.
func (t Type) Check() error {
	if t != NA {
		return fmt.Errorf("%s: %w", t, ErrAminoAcidUnsupported)
	}
	return nil
}

// ParseType converts "NA" or "AA" (any case) into a Type.
func ParseType(s string) (Type, error) {
	switch strings.ToUpper(s) {
	case "NA":
		return NA, nil
	case "AA":
		return AA, nil
	default:
		return 0, fmt.Errorf("unknown sequence type %q", s)
	}
}
