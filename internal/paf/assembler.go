package paf

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/postalign/internal/cigar"
	"github.com/inodb/postalign/internal/diag"
	"github.com/inodb/postalign/internal/position"
	"github.com/inodb/postalign/internal/sequence"
)

// State is the outcome of assembling one query.
type State int

const (
	Assembling State = iota
	NoAlignment
	ReverseSkipped
	Done
)

func (s State) String() string {
	switch s {
	case Assembling:
		return "assembling"
	case NoAlignment:
		return "no-alignment-found"
	case ReverseSkipped:
		return "reverse-skipped"
	case Done:
		return "done"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

// CloseTo selects which neighbouring alignment the unaligned filler hugs.
type CloseTo int

const (
	CloseToAlign1 CloseTo = 1
	CloseToAlign2 CloseTo = 2
)

// Result is an assembled pair.
type Result struct {
	sequence.Pair
	State State
}

// Assembler merges the partial alignments of a query into a single
// reference-length alignment.
type Assembler struct {
	messages *diag.List
	logger   *zap.Logger
}

// NewAssembler creates an assembler reporting to messages.
func NewAssembler(messages *diag.List) *Assembler {
	if messages == nil {
		messages = &diag.List{}
	}
	return &Assembler{messages: messages, logger: zap.NewNop()}
}

// SetLogger sets the logger for debug output.
func (a *Assembler) SetLogger(l *zap.Logger) {
	a.logger = l
}

type span struct {
	start, end int
}

// overlapStart returns the smallest start among spans intersecting
// [start, end).
func overlapStart(spans []span, start, end int) (int, bool) {
	found := false
	minStart := 0
	for _, s := range spans {
		if s.start < end && start < s.end {
			if !found || s.start < minStart {
				minStart = s.start
			}
			found = true
		}
	}
	return minStart, found
}

// Assemble aligns query against ref using records, all of which belong to
// query. Missing or reverse-only alignments yield empty tracks and an ERROR
// message; overlapping records are trimmed or dropped with a WARNING.
func (a *Assembler) Assemble(ref, query *sequence.Sequence, records []*Record) (Result, error) {
	if err := ref.Type.Check(); err != nil {
		return Result{}, err
	}
	if err := query.Type.Check(); err != nil {
		return Result{}, err
	}

	if len(records) == 0 {
		a.messages.Add(query.ID, diag.Error, "No alignment was found")
		return a.empty(ref, query, NoAlignment), nil
	}

	forward := make([]*Record, 0, len(records))
	for _, r := range records {
		if r.Strand == Forward {
			forward = append(forward, r)
		}
	}
	if len(forward) == 0 {
		a.messages.Add(query.ID, diag.Error, "Reverse strand alignment is not supported")
		return a.empty(ref, query, ReverseSkipped), nil
	}

	// scan from the alignment end towards the start
	slices.SortStableFunc(forward, func(x, y *Record) int {
		if c := cmp.Compare(y.TEnd, x.TEnd); c != 0 {
			return c
		}
		return cmp.Compare(y.TStart, x.TStart)
	})

	refBuf := ref.Body.View()
	seqBuf := position.Gaps(ref.Len())
	prevRefStart, prevSeqStart := ref.Len(), query.Len()

	var refSpans, seqSpans []span
	var refParams, seqParams []string
	for _, r := range forward {
		refStart, refEnd := r.TStart, r.TEnd
		seqStart, seqEnd := r.QStart, r.QEnd

		if _, hit := overlapStart(seqSpans, seqStart, seqEnd); hit {
			a.messages.Add(query.ID, diag.Warning,
				"Partial alignment (ref: %d-%d, seq: %d-%d) is omitted: SEQ has already been aligned",
				refStart, refEnd, seqStart, seqEnd)
			continue
		}

		c, err := cigar.Parse(refStart, seqStart, r.Cigar())
		if err != nil {
			return Result{}, fmt.Errorf("sequence %d: %w", query.ID, err)
		}

		if minStart, hit := overlapStart(refSpans, refStart, refEnd); hit {
			keep := minStart - refStart
			if keep <= 0 {
				a.messages.Add(query.ID, diag.Warning,
					"Partial alignment (ref: %d-%d, seq: %d-%d) is omitted: REF has already been aligned",
					refStart, refEnd, seqStart, seqEnd)
				continue
			}
			c = c.ShrinkByRef(keep)
			a.messages.Add(query.ID, diag.Warning,
				"Partial alignment (ref: %d-%d, seq: %d-%d) is partially omitted: REF has already been aligned",
				refStart, refEnd, seqStart, seqEnd)
			refEnd = refStart + c.RefLen()
			seqEnd = seqStart + c.SeqLen()
		}

		alignedRef, alignedSeq, err := c.Decode(ref.Body, query.Body)
		if err != nil {
			return Result{}, fmt.Errorf("sequence %d: %w", query.ID, err)
		}

		refBuf, seqBuf = InsertUnalignedRegion(
			refBuf, seqBuf, query.Body,
			refEnd, seqEnd, prevRefStart, prevSeqStart,
			CloseToAlign1,
		)
		refBuf = refBuf.Replace(refStart, refEnd, alignedRef)
		seqBuf = seqBuf.Replace(refStart, refEnd, alignedSeq)
		prevRefStart, prevSeqStart = refStart, seqStart

		refSpans = append(refSpans, span{refStart, refEnd})
		seqSpans = append(seqSpans, span{seqStart, seqEnd})
		cg := c.String()
		refParams = append(refParams, strconv.Itoa(refStart), strconv.Itoa(refEnd), cg)
		seqParams = append(seqParams, strconv.Itoa(seqStart), strconv.Itoa(seqEnd), cg)
	}

	// keep leading unaligned query bases
	refBuf, seqBuf = InsertUnalignedRegion(
		refBuf, seqBuf, query.Body,
		0, 0, prevRefStart, prevSeqStart,
		CloseToAlign2,
	)

	seqBuf, masked := maskDuplicateUnaligned(seqBuf)
	if masked > 0 {
		a.messages.Add(query.ID, diag.Warning,
			"%d unaligned position(s) are also aligned elsewhere and were masked; the query may be a concatenation of multiple sequences",
			masked)
	}

	a.logger.Debug("assembled paf alignment",
		zap.Int("seqid", query.ID),
		zap.Int("records", len(records)),
		zap.Int("used", len(refSpans)),
		zap.Int("columns", refBuf.Len()))

	return Result{
		Pair: sequence.Pair{
			Ref:   ref.Push(refBuf, "paf("+strings.Join(refParams, ",")+")", 0),
			Query: query.Push(seqBuf, "paf("+strings.Join(seqParams, ",")+")", 0),
		},
		State: Done,
	}, nil
}

func (a *Assembler) empty(ref, query *sequence.Sequence, state State) Result {
	a.logger.Debug("no usable paf alignment",
		zap.Int("seqid", query.ID),
		zap.Stringer("state", state))
	return Result{
		Pair: sequence.Pair{
			Ref:   ref.Push(position.Empty(), "error()", 0),
			Query: query.Push(position.Empty(), "error()", 0),
		},
		State: state,
	}
}

// InsertUnalignedRegion places the query symbols between two alignments
// into the buffers as an insertion. Alignment 1 ends at (a1RefEnd,
// a1SeqEnd) and alignment 2 starts at (a2RefStart, a2SeqStart). The filler
// is a copy of orig flagged Unaligned; it sits min(refSize, seqSize)
// columns after alignment 1 when closeTo is CloseToAlign1, otherwise
// refSize-min(refSize, seqSize) columns after it. Crossed axes are left
// untouched.
func InsertUnalignedRegion(
	refBuf, seqBuf, orig *position.Seq,
	a1RefEnd, a1SeqEnd, a2RefStart, a2SeqStart int,
	closeTo CloseTo,
) (*position.Seq, *position.Seq) {
	refSize := a2RefStart - a1RefEnd
	seqSize := a2SeqStart - a1SeqEnd
	if seqSize < 0 || refSize < 0 || seqSize == 0 {
		return refBuf, seqBuf
	}

	offset := min(refSize, seqSize)
	if closeTo == CloseToAlign2 {
		offset = refSize - offset
	}
	at := a1RefEnd + offset

	filler := orig.Slice(a1SeqEnd, a1SeqEnd+seqSize).Clone()
	filler.SetFlag(position.Unaligned)

	return refBuf.Insert(at, position.Gaps(filler.Len())), seqBuf.Insert(at, filler)
}

// maskDuplicateUnaligned replaces Unaligned symbols whose coordinate is
// also held by an aligned symbol with a gap.
func maskDuplicateUnaligned(seqBuf *position.Seq) (*position.Seq, int) {
	aligned := make(map[int]bool)
	for _, sym := range seqBuf.Symbols() {
		if !sym.IsGap() && !sym.HasFlag(position.Unaligned) {
			aligned[sym.Pos] = true
		}
	}

	var out []*position.Symbol
	masked := 0
	for i, sym := range seqBuf.Symbols() {
		if sym.IsGap() || !sym.HasFlag(position.Unaligned) || !aligned[sym.Pos] {
			continue
		}
		if out == nil {
			out = slices.Clone(seqBuf.Symbols())
		}
		out[i] = position.NewGap()
		masked++
	}
	if out == nil {
		return seqBuf, 0
	}
	return position.New(out), masked
}
