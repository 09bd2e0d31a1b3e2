package pipeline

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/inodb/postalign/internal/diag"
	"github.com/inodb/postalign/internal/sequence"
)

// Frameshift removes (Shift > 0) or repeats (Shift < 0) reference
// notations following Pos.
type Frameshift struct {
	Pos   int
	Shift int
}

var frameshiftPattern = regexp.MustCompile(`^(\d+)([+-]\d+)$`)

// ParseFrameshifts parses "<POS><+N|-N>,..." and returns the entries
// sorted by position.
func ParseFrameshifts(text string) ([]Frameshift, error) {
	var out []Frameshift
	seen := make(map[int]bool)
	for _, entry := range strings.Split(text, ",") {
		entry = strings.TrimSpace(entry)
		m := frameshiftPattern.FindStringSubmatch(entry)
		if m == nil {
			return nil, fmt.Errorf("invalid frameshift format: %q", entry)
		}
		pos, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("invalid frameshift position %q: %w", m[1], err)
		}
		shift, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, fmt.Errorf("invalid frameshift size %q: %w", m[2], err)
		}
		switch {
		case pos == 0:
			return nil, errors.New("frameshift POS cannot be zero")
		case shift == 0:
			return nil, errors.New("frameshift N cannot be zero")
		case seen[pos]:
			return nil, fmt.Errorf("frameshift POS %d is mentioned twice or more", pos)
		}
		seen[pos] = true
		out = append(out, Frameshift{Pos: pos, Shift: shift})
	}
	slices.SortFunc(out, func(a, b Frameshift) int { return a.Pos - b.Pos })
	return out, nil
}

// ApplyFrameshift rebuilds both tracks from reference coordinate ranges so
// that known frameshifts are removed or repeated.
type ApplyFrameshift struct {
	Shifts []Frameshift
}

// Name implements Processor.
func (ApplyFrameshift) Name() string { return "apply-frameshift" }

// Process implements Processor.
func (f ApplyFrameshift) Process(pair sequence.Pair, _ *diag.List) (sequence.Pair, error) {
	ref, query := pair.Ref, pair.Query
	if query.Len() == 0 || len(f.Shifts) == 0 {
		return pair, nil
	}

	breakpoints := []int{1}
	for _, fs := range f.Shifts {
		breakpoints = append(breakpoints, fs.Pos, fs.Pos+fs.Shift+1)
	}
	breakpoints = append(breakpoints, max(breakpoints[len(breakpoints)-1], ref.Body.MaxPos()))

	refParts := make([]*sequence.Sequence, 0, len(breakpoints)/2)
	seqParts := make([]*sequence.Sequence, 0, len(breakpoints)/2)
	for i := 0; i+1 < len(breakpoints); i += 2 {
		start, end := ref.Body.PosRangeToIndexRange(breakpoints[i], breakpoints[i+1], false)
		refParts = append(refParts, ref.Slice(start, end))
		seqParts = append(seqParts, query.Slice(start, end))
	}

	newRef, err := sequence.ConcatAll(refParts...)
	if err != nil {
		return pair, fmt.Errorf("apply frameshift: %w", err)
	}
	newSeq, err := sequence.ConcatAll(seqParts...)
	if err != nil {
		return pair, fmt.Errorf("apply frameshift: %w", err)
	}
	return sequence.Pair{Ref: newRef, Query: newSeq}, nil
}
