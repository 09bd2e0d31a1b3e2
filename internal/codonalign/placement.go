package codonalign

import (
	"slices"

	"github.com/inodb/postalign/internal/codon"
	"github.com/inodb/postalign/internal/position"
)

const scoreEpsilon = 1e-9

// CalcMatchScore sums the nucleotide similarity of every column and the
// BLOSUM62 similarity of every translated codon.
func CalcMatchScore(a, b *position.Seq) float64 {
	n := min(a.Len(), b.Len())
	as, bs := a.Symbols()[:n], b.Symbols()[:n]
	score := 0.0
	for i := 0; i < n; i++ {
		score += codon.IUPACScore(as[i].Notation, bs[i].Notation)
	}
	for i := 0; i < n; i += 3 {
		j := min(i+3, n)
		score += codon.Blosum62Score(
			codon.Translate(as[i:j], codon.Frameshift, codon.Deletion),
			codon.Translate(bs[i:j], codon.Frameshift, codon.Deletion),
		)
	}
	return score
}

// Placement bonuses. They are small enough to only decide between
// candidates whose similarity scores are otherwise equal, boundary first.
const (
	codonBoundaryBonus = 1e-3
	originalIndexBonus = 1e-4
)

// placement describes one candidate for FindBestPlacement.
type placement struct {
	offset int // number of non-gap symbols before the gap run
	score  float64
}

// FindBestPlacement removes the gaps of mine and re-inserts them as a single
// run at the codon boundary that best matches other. frame is the codon
// position of the first non-gap symbol of mine.
//
// Every offset on a codon boundary is a candidate, including 0 and
// len(nongaps). Offset len(nongaps) is also tried off the boundary when isEnd
// is set. A run placed at the start of the window (isStart) or at its end
// (isEnd) is not charged for its length. When no offset lies on a boundary
// both ends of the run are tried instead.
func FindBestPlacement(mine, other *position.Seq, g GapType, scores PlacementScores,
	frame int, isStart, isEnd bool, match func(a, b *position.Seq) float64) *position.Seq {
	nongaps, gaps := mine.SplitGaps()
	gapLen := gaps.Len()
	if gapLen == 0 {
		return mine
	}
	if match == nil {
		match = CalcMatchScore
	}
	n := nongaps.Len()
	original := mine.FirstGap()
	onBoundary := func(k int) bool { return (k+frame)%3 == 0 }

	var offsets []int
	for k := 0; k <= n; k++ {
		if onBoundary(k) || (k == n && isEnd) {
			offsets = append(offsets, k)
		}
	}
	if len(offsets) == 0 {
		offsets = []int{0}
		if n > 0 {
			offsets = append(offsets, n)
		}
	}

	var best *placement
	for _, k := range offsets {
		cand := nongaps.Slice(0, k).Concat(gaps, nongaps.Slice(k, n))
		score := match(cand, other)
		score += float64(scores.Lookup(g, gapRefPos(g, nongaps, other, k), gapLen))
		if (k == 0 && isStart) || (k == n && isEnd) {
			score += float64(gapLen)
		}
		if onBoundary(k) {
			score += codonBoundaryBonus
		}
		if k == original {
			score += originalIndexBonus
		}
		if best == nil || score > best.score+scoreEpsilon {
			best = &placement{offset: k, score: score}
		}
	}
	k := best.offset
	return nongaps.Slice(0, k).Concat(gaps, nongaps.Slice(k, n))
}

// gapRefPos returns the reference coordinate a placement score is keyed
// on. Insertions are keyed on the reference base they follow, deletions on
// the first reference base they cover.
func gapRefPos(g GapType, nongaps, other *position.Seq, k int) int {
	if g == RefGap {
		switch {
		case k > 0:
			return nongaps.At(k - 1).Pos
		case nongaps.Len() > 0:
			return nongaps.At(0).Pos - 1
		default:
			return 0
		}
	}
	if idx := other.FirstNongapIndex(k, other.Len()); idx > -1 {
		return other.At(idx).Pos
	}
	if last := other.MaxPos(); last > 0 {
		return last + 1
	}
	return 0
}

// AdjustGapPlacement relocates the gaps of every run of REFGAP or SEQGAP
// codons. Each run is widened over the gap-free codons next to it before
// FindBestPlacement is applied. phase is the codon position of the first
// reference base of codon 0.
func AdjustGapPlacement(refCodons, seqCodons []*position.Seq, scores PlacementScores, phase int) ([]*position.Seq, []*position.Seq) {
	refCodons = slices.Clone(refCodons)
	seqCodons = slices.Clone(seqCodons)

	for i := 0; i < len(refCodons); {
		g := Classify(refCodons[i], seqCodons[i])
		if g == NoGap {
			i++
			continue
		}
		j := i + 1
		for j < len(refCodons) && Classify(refCodons[j], seqCodons[j]) == g {
			j++
		}
		_, _, left := ExtendCodonsUntilGap(refCodons[:i], seqCodons[:i], Left)
		_, _, right := ExtendCodonsUntilGap(refCodons[j:], seqCodons[j:], Right)
		lo, hi := i-left, j+right

		frame := 0
		if lo == 0 {
			frame = phase
		}
		isStart, isEnd := lo == 0, hi == len(refCodons)
		ref, seq := joinCodons(refCodons[lo:hi]), joinCodons(seqCodons[lo:hi])
		if g == RefGap {
			ref = FindBestPlacement(ref, seq, g, scores, frame, isStart, isEnd, nil)
		} else {
			seq = FindBestPlacement(seq, ref, g, scores, frame, isStart, isEnd, nil)
		}

		newRef, newSeq := GroupByCodons(ref, seq, frame)
		refCodons = slices.Replace(refCodons, lo, hi, newRef...)
		seqCodons = slices.Replace(seqCodons, lo, hi, newSeq...)
		i = max(lo+len(newRef), i+1)
	}
	return refCodons, seqCodons
}
