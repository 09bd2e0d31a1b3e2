package position

import (
	"fmt"
	"slices"
)

// validNotations is the accepted nucleotide alphabet.
var validNotations = func() [256]bool {
	var t [256]bool
	for _, b := range []byte("ACGTUWSMKRYBDHVN.-") {
		t[b] = true
	}
	return t
}()

// ValidationError reports notations outside the accepted alphabet.
type ValidationError struct {
	Header   string
	Invalids []byte // distinct, sorted
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("sequence %s contains invalid notation(s) (%s)", e.Header, e.Invalids)
}

// IsValidNotation reports whether b belongs to the nucleotide alphabet.
func IsValidNotation(b byte) bool {
	return validNotations[b]
}

// Sanitize checks every symbol of s against the nucleotide alphabet. With
// skipInvalid the offending symbols are dropped, otherwise a
// *ValidationError is returned.
func Sanitize(s *Seq, t Type, header string, skipInvalid bool) (*Seq, error) {
	if err := t.Check(); err != nil {
		return nil, err
	}

	var seen [256]bool
	var invalids []byte
	valids := make([]*Symbol, 0, s.Len())
	for _, sym := range s.Symbols() {
		if IsValidNotation(sym.Notation) {
			valids = append(valids, sym)
			continue
		}
		if !seen[sym.Notation] {
			seen[sym.Notation] = true
			invalids = append(invalids, sym.Notation)
		}
	}
	if len(invalids) == 0 {
		return s, nil
	}
	if skipInvalid {
		return New(valids), nil
	}
	slices.Sort(invalids)
	return nil, &ValidationError{Header: header, Invalids: invalids}
}

// SanitizeBytes is Sanitize for raw input, applied before coordinates are
// assigned so that dropped bytes leave no hole in the numbering.
func SanitizeBytes(raw []byte, header string, skipInvalid bool) ([]byte, error) {
	var seen [256]bool
	var invalids []byte
	out := make([]byte, 0, len(raw))
	for _, b := range raw {
		u := b
		if 'a' <= u && u <= 'z' {
			u -= 'a' - 'A'
		}
		if IsValidNotation(u) {
			out = append(out, u)
			continue
		}
		if !seen[u] {
			seen[u] = true
			invalids = append(invalids, u)
		}
	}
	if len(invalids) == 0 || skipInvalid {
		return out, nil
	}
	slices.Sort(invalids)
	return nil, &ValidationError{Header: header, Invalids: invalids}
}
