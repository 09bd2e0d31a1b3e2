package codonalign

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/postalign/internal/position"
	"github.com/inodb/postalign/internal/sequence"
)

// Aligner applies codon alignment to reference/query pairs. It holds no
// per-pair state and is safe for concurrent use.
type Aligner struct {
	opts   Options
	logger *zap.Logger
}

// NewAligner validates opts and returns an Aligner.
func NewAligner(opts Options) (*Aligner, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Scores == nil {
		opts.Scores = PlacementScores{RefGap: {}, SeqGap: {}}
	}
	return &Aligner{opts: opts, logger: zap.NewNop()}, nil
}

// SetLogger sets the logger used for debug output.
func (a *Aligner) SetLogger(logger *zap.Logger) {
	a.logger = logger
}

// Options returns the validated options.
func (a *Aligner) Options() Options {
	return a.opts
}

// Label is the provenance label recorded on both tracks.
func (a *Aligner) Label(refEnd int) string {
	return fmt.Sprintf("codonalign(%d,%d)", a.opts.RefStart, refEnd)
}

// Align optimizes the gap placement of pair within the configured
// reference window. Pairs with an empty query are returned unchanged.
func (a *Aligner) Align(pair sequence.Pair) (sequence.Pair, error) {
	ref, query := pair.Ref, pair.Query
	if err := ref.Type.Check(); err != nil {
		return pair, fmt.Errorf("codon alignment of %s: %w", ref.Header, err)
	}
	if err := query.Type.Check(); err != nil {
		return pair, fmt.Errorf("codon alignment of %s: %w", query.Header, err)
	}
	if query.Len() == 0 {
		return pair, nil
	}

	refStart, refEnd := a.opts.RefStart, a.opts.RefEnd
	if refEnd <= 0 {
		refEnd = ref.Body.MaxPos()
	}
	start, end, phase := codonWindow(ref.Body, refStart, refEnd)
	if start >= end {
		return pair, nil
	}
	if a.opts.CheckBoundary && (ref.Body.At(start).IsGap() || ref.Body.At(end-1).IsGap()) {
		return pair, fmt.Errorf("%w (%s, columns %d-%d)", ErrUntrimmedBoundary, query.Header, start, end)
	}

	refWin, seqWin := ref.Body.Slice(start, end), query.Body.Slice(start, end)
	if !refWin.AnyGap() && !seqWin.AnyGap() {
		return pair, nil
	}

	a.logger.Debug("codon alignment window",
		zap.Int("seq_id", query.ID),
		zap.Int("start", start),
		zap.Int("end", end),
		zap.Int("phase", phase))

	newRef, newSeq := a.realign(refWin, seqWin, phase)
	label := a.Label(refEnd)
	return sequence.Pair{
		Ref:   ref.Push(ref.Body.Replace(start, end, newRef), label, 0),
		Query: query.Push(query.Body.Replace(start, end, newSeq), label, 0),
	}, nil
}

func (a *Aligner) realign(ref, seq *position.Seq, phase int) (*position.Seq, *position.Seq) {
	ref, seq = GatherGaps(ref, seq, a.opts.MinGapDistance)
	refCodons, seqCodons := GroupByCodons(ref, seq, phase)
	refCodons, seqCodons = AdjustGapPlacement(refCodons, seqCodons, a.opts.Scores, phase)
	seqCodons = MoveGapToCodonEnd(seqCodons)
	markUncovered(seqCodons)
	return joinCodons(refCodons), joinCodons(seqCodons)
}

// markUncovered flags the leading and trailing query codons that hold only
// gaps with TrimBySeq. Flagged codons are copied first.
func markUncovered(seqCodons []*position.Seq) {
	lo, hi := FindCodonTrimRange(seqCodons)
	for i, codon := range seqCodons {
		if i >= lo && i < hi {
			continue
		}
		codon = codon.Clone()
		codon.SetFlag(position.TrimBySeq)
		seqCodons[i] = codon
	}
}

// codonWindow maps the reference coordinate range onto columns, including
// adjacent gaps, and walks the start back to a codon boundary counted from
// refStart. phase is the codon position of the first reference base left
// in the window when no earlier boundary exists.
func codonWindow(ref *position.Seq, refStart, refEnd int) (start, end, phase int) {
	start, end = ref.PosRangeToIndexRange(refStart, refEnd, true)
	for {
		idx := ref.FirstNongapIndex(start, end)
		if idx < 0 {
			return start, end, 0
		}
		phase = mod3(ref.At(idx).Pos - refStart)
		if phase == 0 {
			return start, end, 0
		}
		prev := ref.LastNongapIndex(0, idx)
		if prev < 0 {
			return start, end, phase
		}
		start = prev
	}
}

func mod3(n int) int {
	return ((n % 3) + 3) % 3
}
