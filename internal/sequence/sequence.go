// Package sequence provides named alignment tracks: a positional body plus
// identity, offsets and transformation history.
package sequence

import (
	"errors"
	"fmt"

	"github.com/inodb/postalign/internal/position"
	"github.com/inodb/postalign/internal/provenance"
)

// ErrSeqIDMismatch is returned when concatenating sequences of different ids.
var ErrSeqIDMismatch = errors.New("concat two sequences with different seqid is disallowed")

// Sequence is one alignment track.
type Sequence struct {
	Header      string
	Description string
	Body        *position.Seq
	ID          int
	Type        position.Type
	AbsStart    int // coordinate of column 0 relative to the unclipped input
	Log         provenance.Log
}

// New creates a sequence with an empty provenance log.
func New(header, description string, body *position.Seq, id int, typ position.Type) *Sequence {
	if body == nil {
		body = position.Empty()
	}
	return &Sequence{
		Header:      header,
		Description: description,
		Body:        body,
		ID:          id,
		Type:        typ,
		Log:         provenance.New(),
	}
}

// Len returns the number of columns.
func (s *Sequence) Len() int {
	return s.Body.Len()
}

// String returns the body text.
func (s *Sequence) String() string {
	return s.Body.String()
}

// HeaderDesc joins header and description with a space.
func (s *Sequence) HeaderDesc() string {
	if s.Description == "" {
		return s.Header
	}
	return s.Header + " " + s.Description
}

// HeaderWithProvenance appends the rendered provenance log to the header.
func (s *Sequence) HeaderWithProvenance() string {
	mod := s.Log.String()
	if mod == "" {
		return s.Header
	}
	return s.Header + " MOD::" + mod
}

func (s *Sequence) derive(body *position.Seq, log provenance.Log, absStart int) *Sequence {
	return &Sequence{
		Header:      s.Header,
		Description: s.Description,
		Body:        body,
		ID:          s.ID,
		Type:        s.Type,
		AbsStart:    absStart,
		Log:         log,
	}
}

// Slice returns columns [i, j). Consecutive slices collapse into one
// provenance node expressed in offsets of the last non-slice ancestor.
func (s *Sequence) Slice(i, j int) *Sequence {
	n := s.Len()
	i = min(max(i, 0), n)
	j = min(max(j, i), n)

	prev := s.Log.Tip().Slices
	replace := len(prev) > 0
	if !replace {
		prev = []provenance.Range{{Start: 0, End: n}}
	}
	ranges := composeSlices(prev, i, j)

	var log provenance.Log
	if replace {
		log = s.Log.ReplaceLast(provenance.SliceLabel(ranges), ranges...)
	} else {
		log = s.Log.Push(provenance.SliceLabel(ranges), ranges...)
	}

	absStart := s.AbsStart + i - s.Body.Slice(0, i).CountGaps()
	return s.derive(s.Body.Slice(i, j), log, absStart)
}

// composeSlices maps [start, end) over the concatenation of frags back into
// the fragments' own offsets.
func composeSlices(frags []provenance.Range, start, end int) []provenance.Range {
	var out []provenance.Range
	offset := 0
	for _, f := range frags {
		flen := f.End - f.Start
		lo, hi := max(start, offset), min(end, offset+flen)
		if lo < hi {
			out = append(out, provenance.Range{Start: f.Start + lo - offset, End: f.Start + hi - offset})
		}
		offset += flen
	}
	if len(out) > 0 {
		return out
	}

	// empty slice: anchor it where start falls
	anchor := frags[len(frags)-1].End
	offset = 0
	for _, f := range frags {
		flen := f.End - f.Start
		if start < offset+flen {
			anchor = f.Start + start - offset
			break
		}
		offset += flen
	}
	return []provenance.Range{{Start: anchor, End: anchor}}
}

// Concat appends other. Both sequences must share the same id.
func (s *Sequence) Concat(other *Sequence) (*Sequence, error) {
	if s.ID != other.ID {
		return nil, fmt.Errorf("%w: %q and %q", ErrSeqIDMismatch, s.Header, other.Header)
	}
	return s.derive(s.Body.Concat(other.Body), s.Log.Merge(other.Log), s.AbsStart), nil
}

// ConcatAll concatenates parts in order.
func ConcatAll(parts ...*Sequence) (*Sequence, error) {
	if len(parts) == 0 {
		return nil, errors.New("nothing to concatenate")
	}
	out := parts[0]
	for _, p := range parts[1:] {
		var err error
		if out, err = out.Concat(p); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Push replaces the body and records label as a new provenance step.
func (s *Sequence) Push(body *position.Seq, label string, startOffset int) *Sequence {
	return s.derive(body, s.Log.Push(label), s.AbsStart+startOffset)
}

// Replace replaces the body and the last provenance step.
func (s *Sequence) Replace(body *position.Seq, label string, startOffset int) *Sequence {
	return s.derive(body, s.Log.ReplaceLast(label), s.AbsStart+startOffset)
}

// Fork returns a copy safe to hand to another goroutine: it gets its own
// body header and provenance arena. Symbols remain shared.
func (s *Sequence) Fork() *Sequence {
	return s.derive(s.Body.View(), s.Log.Fork(), s.AbsStart)
}

// Pair is a reference track and the query track aligned to it.
type Pair struct {
	Ref   *Sequence
	Query *Sequence
}
