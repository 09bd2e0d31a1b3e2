package codonalign

import (
	"github.com/inodb/postalign/internal/position"
)

// Direction selects the side ExtendCodonsUntilGap scans.
type Direction int

const (
	Left Direction = iota
	Right
)

// GroupByCodons splits both tracks into codons delimited by the reference.
// phase is the codon position (0, 1 or 2) of the first reference base.
// Gaps before the first reference base join the first codon; reference
// gaps after a codon's last base stay with that codon.
func GroupByCodons(ref, seq *position.Seq, phase int) (refCodons, seqCodons []*position.Seq) {
	var starts []int
	bp := (phase + 2) % 3
	for i, sym := range ref.Symbols() {
		if sym.IsGap() {
			continue
		}
		bp = (bp + 1) % 3
		if bp == 0 || len(starts) == 0 {
			starts = append(starts, i)
		}
	}
	if len(starts) == 0 {
		if ref.Len() == 0 {
			return nil, nil
		}
		starts = append(starts, 0)
	}
	starts[0] = 0

	n := max(ref.Len(), seq.Len())
	for k, start := range starts {
		end := n
		if k+1 < len(starts) {
			end = starts[k+1]
		}
		refCodons = append(refCodons, ref.Slice(start, end))
		seqCodons = append(seqCodons, seq.Slice(start, end))
	}
	return refCodons, seqCodons
}

// Classify tags a codon pair. Reference gaps take precedence.
func Classify(refCodon, seqCodon *position.Seq) GapType {
	switch {
	case refCodon.AnyGap():
		return RefGap
	case seqCodon.AnyGap():
		return SeqGap
	default:
		return NoGap
	}
}

// ExtendCodonsUntilGap returns the gap-free codons adjacent to one end of
// the given lists: the leading ones for Right, the trailing ones for Left.
func ExtendCodonsUntilGap(refCodons, seqCodons []*position.Seq, dir Direction) ([]*position.Seq, []*position.Seq, int) {
	n := min(len(refCodons), len(seqCodons))
	count := 0
	if dir == Right {
		for count < n && Classify(refCodons[count], seqCodons[count]) == NoGap {
			count++
		}
		return refCodons[:count], seqCodons[:count], count
	}
	for count < n && Classify(refCodons[n-count-1], seqCodons[n-count-1]) == NoGap {
		count++
	}
	return refCodons[n-count : n], seqCodons[n-count : n], count
}

// FindCodonTrimRange returns the codon range left after dropping leading
// and trailing codons that consist only of gaps.
func FindCodonTrimRange(codons []*position.Seq) (int, int) {
	lo, hi := 0, len(codons)
	for lo < hi && codons[lo].IsGap() {
		lo++
	}
	for hi > lo && codons[hi-1].IsGap() {
		hi--
	}
	return lo, hi
}

func joinCodons(codons []*position.Seq) *position.Seq {
	if len(codons) == 0 {
		return position.Empty()
	}
	return codons[0].Concat(codons[1:]...)
}
