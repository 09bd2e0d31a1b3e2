package codonalign

import (
	"github.com/inodb/postalign/internal/position"
)

// Window is a half-open column range.
type Window struct {
	Start, End int
}

// FindWindowsWithGap returns the column runs where either track has a gap.
// Runs separated by fewer than minGapDistance gap-free columns are merged.
func FindWindowsWithGap(ref, seq *position.Seq, minGapDistance int) []Window {
	n := max(ref.Len(), seq.Len())
	var windows []Window
	start := -1
	for i := 0; i <= n; i++ {
		gap := i < n && (isGapAt(ref, i) || isGapAt(seq, i))
		switch {
		case gap && start < 0:
			start = i
		case !gap && start >= 0:
			if k := len(windows) - 1; k >= 0 && start-windows[k].End < minGapDistance {
				windows[k].End = i
			} else {
				windows = append(windows, Window{start, i})
			}
			start = -1
		}
	}
	return windows
}

func isGapAt(s *position.Seq, i int) bool {
	return i < s.Len() && s.At(i).IsGap()
}

// RemoveRedundantGaps drops min(refGaps, seqGaps) gaps from each track.
// Such pairs cancel out and add nothing to the alignment.
func RemoveRedundantGaps(ref, seq *position.Seq) (*position.Seq, *position.Seq) {
	n := min(ref.CountGaps(), seq.CountGaps())
	if n == 0 {
		return ref, seq
	}
	return dropGaps(ref, n), dropGaps(seq, n)
}

func dropGaps(s *position.Seq, n int) *position.Seq {
	syms := make([]*position.Symbol, 0, s.Len()-n)
	for _, sym := range s.Symbols() {
		if n > 0 && sym.IsGap() {
			n--
			continue
		}
		syms = append(syms, sym)
	}
	return position.New(syms)
}

// MoveGapsToCenter collects all gaps of s into one run in the middle of
// its non-gap symbols.
func MoveGapsToCenter(s *position.Seq) *position.Seq {
	nongaps, gaps := s.SplitGaps()
	if gaps.Len() == 0 {
		return s
	}
	center := nongaps.Len() / 2
	return nongaps.Slice(0, center).Concat(gaps, nongaps.Slice(center, nongaps.Len()))
}

// GatherGaps centers the gaps of every gap window after removing the
// redundant ones. Windows are rewritten right to left so earlier column
// offsets stay valid.
func GatherGaps(ref, seq *position.Seq, minGapDistance int) (*position.Seq, *position.Seq) {
	windows := FindWindowsWithGap(ref, seq, minGapDistance)
	for i := len(windows) - 1; i >= 0; i-- {
		w := windows[i]
		wref, wseq := RemoveRedundantGaps(ref.Slice(w.Start, w.End), seq.Slice(w.Start, w.End))
		ref = ref.Replace(w.Start, w.End, MoveGapsToCenter(wref))
		seq = seq.Replace(w.Start, w.End, MoveGapsToCenter(wseq))
	}
	return ref, seq
}

// MoveGapToCodonEnd pushes the gaps of each codon to its tail.
func MoveGapToCodonEnd(codons []*position.Seq) []*position.Seq {
	out := make([]*position.Seq, len(codons))
	for i, cd := range codons {
		nongaps, gaps := cd.SplitGaps()
		if gaps.Len() == 0 {
			out[i] = cd
			continue
		}
		out[i] = nongaps.Concat(gaps)
	}
	return out
}
