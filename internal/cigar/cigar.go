// Package cigar expands CIGAR strings into gapped, position-aligned
// reference/query pairs.
package cigar

import (
	"errors"
	"fmt"

	"github.com/biogo/hts/sam"

	"github.com/inodb/postalign/internal/position"
)

var (
	// ErrUnsupportedOp is returned for operations other than M, I, D and N.
	ErrUnsupportedOp = errors.New("unsupported CIGAR operation")
	// ErrLengthMismatch is returned when the decoded tracks differ in length.
	ErrLengthMismatch = errors.New("unmatched alignment length")
)

// Cigar is a parsed operation list anchored at reference and query index
// offsets.
type Cigar struct {
	RefStart int
	SeqStart int
	Ops      sam.Cigar
}

// Parse parses s. Only M, I, D and N operations are accepted.
func Parse(refStart, seqStart int, s string) (*Cigar, error) {
	c := &Cigar{RefStart: refStart, SeqStart: seqStart}
	if s == "" {
		return c, nil
	}
	ops, err := sam.ParseCigar([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("parse cigar %q: %w", s, err)
	}
	for _, op := range ops {
		switch op.Type() {
		case sam.CigarMatch, sam.CigarInsertion, sam.CigarDeletion, sam.CigarSkipped:
		default:
			return nil, fmt.Errorf("%w %q in %q", ErrUnsupportedOp, op.Type().String(), s)
		}
	}
	c.Ops = ops
	return c, nil
}

// String returns the operation string.
func (c *Cigar) String() string {
	if len(c.Ops) == 0 {
		return ""
	}
	return c.Ops.String()
}

// GoString renders the cigar with its offsets.
func (c *Cigar) GoString() string {
	return fmt.Sprintf("<CIGAR '%s' ref_start=%d seq_start=%d>", c.String(), c.RefStart, c.SeqStart)
}

// RefLen returns the number of reference symbols consumed.
func (c *Cigar) RefLen() int {
	n := 0
	for _, op := range c.Ops {
		switch op.Type() {
		case sam.CigarMatch, sam.CigarDeletion, sam.CigarSkipped:
			n += op.Len()
		}
	}
	return n
}

// SeqLen returns the number of query symbols consumed.
func (c *Cigar) SeqLen() int {
	n := 0
	for _, op := range c.Ops {
		switch op.Type() {
		case sam.CigarMatch, sam.CigarInsertion:
			n += op.Len()
		}
	}
	return n
}

// ShrinkByRef returns a cigar consuming exactly keep reference symbols.
// Insertions are kept verbatim, including those right after the last kept
// reference symbol; M, D and N runs are clipped to the budget.
func (c *Cigar) ShrinkByRef(keep int) *Cigar {
	out := &Cigar{RefStart: c.RefStart, SeqStart: c.SeqStart}
	remain := keep
	for _, op := range c.Ops {
		if op.Type() == sam.CigarInsertion {
			out.Ops = append(out.Ops, op)
			continue
		}
		if remain <= 0 {
			break
		}
		n := min(op.Len(), remain)
		out.Ops = append(out.Ops, sam.NewCigarOp(op.Type(), n))
		remain -= n
	}
	return out
}

// Decode aligns ref[RefStart:] against seq[SeqStart:]. D and N open gaps in
// the query, I opens gaps in the reference. Both results cover exactly the
// columns the operations describe and always have equal length.
func (c *Cigar) Decode(ref, seq *position.Seq) (*position.Seq, *position.Seq, error) {
	refSyms := ref.Symbols()
	seqSyms := seq.Symbols()
	ri, si := c.RefStart, c.SeqStart

	var alignedRef, alignedSeq []*position.Symbol
	gaps := func(n int) []*position.Symbol {
		return position.Gaps(n).Symbols()
	}
	for _, op := range c.Ops {
		n := op.Len()
		switch op.Type() {
		case sam.CigarMatch:
			if ri+n > len(refSyms) || si+n > len(seqSyms) {
				return nil, nil, c.overrun(ref, seq)
			}
			alignedRef = append(alignedRef, refSyms[ri:ri+n]...)
			alignedSeq = append(alignedSeq, seqSyms[si:si+n]...)
			ri += n
			si += n
		case sam.CigarDeletion, sam.CigarSkipped:
			if ri+n > len(refSyms) {
				return nil, nil, c.overrun(ref, seq)
			}
			alignedRef = append(alignedRef, refSyms[ri:ri+n]...)
			alignedSeq = append(alignedSeq, gaps(n)...)
			ri += n
		case sam.CigarInsertion:
			if si+n > len(seqSyms) {
				return nil, nil, c.overrun(ref, seq)
			}
			alignedRef = append(alignedRef, gaps(n)...)
			alignedSeq = append(alignedSeq, seqSyms[si:si+n]...)
			si += n
		default:
			return nil, nil, fmt.Errorf("%w %q", ErrUnsupportedOp, op.Type().String())
		}
	}
	return position.New(alignedRef), position.New(alignedSeq), nil
}

func (c *Cigar) overrun(ref, seq *position.Seq) error {
	return fmt.Errorf("%w: %#v exceeds %q and %q", ErrLengthMismatch, c, ref.String(), seq.String())
}

// FromAlignment derives the operation string of two aligned tracks.
// Columns gapped on both tracks are skipped.
func FromAlignment(ref, seq *position.Seq) (string, error) {
	if ref.Len() != seq.Len() {
		return "", fmt.Errorf("%w: %d and %d", ErrLengthMismatch, ref.Len(), seq.Len())
	}
	var ops sam.Cigar
	push := func(t sam.CigarOpType) {
		if last := len(ops) - 1; last >= 0 && ops[last].Type() == t {
			ops[last] = sam.NewCigarOp(t, ops[last].Len()+1)
			return
		}
		ops = append(ops, sam.NewCigarOp(t, 1))
	}
	for i := range ref.Len() {
		refGap, seqGap := ref.At(i).IsGap(), seq.At(i).IsGap()
		switch {
		case refGap && seqGap:
		case refGap:
			push(sam.CigarInsertion)
		case seqGap:
			push(sam.CigarDeletion)
		default:
			push(sam.CigarMatch)
		}
	}
	if len(ops) == 0 {
		return "", nil
	}
	return ops.String(), nil
}
