// Package codonalign moves insertion and deletion gaps of an assembled
// nucleotide alignment onto reference codon boundaries.
package codonalign

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrInvalidWindow is returned for an unusable reference window.
	ErrInvalidWindow = errors.New("invalid codon alignment window")
	// ErrUntrimmedBoundary is returned when boundary checking is enabled and
	// the reference track has a gap at the window boundary.
	ErrUntrimmedBoundary = errors.New("reference has gap at codon alignment boundary; run trim-by-ref first")
)

// GapType classifies a codon by the track carrying a gap.
type GapType uint8

const (
	NoGap GapType = iota
	RefGap
	SeqGap
)

// String returns "NOGAP", "REFGAP" or "SEQGAP".
func (g GapType) String() string {
	switch g {
	case RefGap:
		return "REFGAP"
	case SeqGap:
		return "SEQGAP"
	default:
		return "NOGAP"
	}
}

// GapKey addresses a placement score. Size 0 matches any gap length.
type GapKey struct {
	Pos  int
	Size int
}

// PlacementScores holds caller supplied bonuses (positive) and penalties
// (negative) for placing a gap at a reference position.
type PlacementScores map[GapType]map[GapKey]int

// Lookup returns the score for a gap of size at pos, falling back to the
// any-size entry.
func (p PlacementScores) Lookup(g GapType, pos, size int) int {
	scores := p[g]
	if score, ok := scores[GapKey{pos, size}]; ok {
		return score
	}
	return scores[GapKey{pos, 0}]
}

var placementPattern = regexp.MustCompile(`^\s*(\d+)(?:/(\d+))?(ins|del)\s*:\s*(-?\d+)\s*$`)

// ParseGapPlacementScore parses a comma separated list of
// "<POS>[/<SIZE>]<ins|del>:<SCORE>" entries. Insertions score gaps on the
// reference track, deletions gaps on the query track. Empty entries are
// skipped.
func ParseGapPlacementScore(text string) (PlacementScores, error) {
	scores := PlacementScores{RefGap: {}, SeqGap: {}}
	for _, entry := range strings.Split(text, ",") {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		m := placementPattern.FindStringSubmatch(entry)
		if m == nil {
			return nil, fmt.Errorf("invalid gap placement score %q", entry)
		}
		pos, _ := strconv.Atoi(m[1])
		size := 0
		if m[2] != "" {
			size, _ = strconv.Atoi(m[2])
		}
		score, err := strconv.Atoi(m[4])
		if err != nil {
			return nil, fmt.Errorf("invalid gap placement score %q: %w", entry, err)
		}
		g := RefGap
		if m[3] == "del" {
			g = SeqGap
		}
		scores[g][GapKey{pos, size}] = score
	}
	return scores, nil
}

// Options configures an Aligner.
type Options struct {
	RefStart       int // 1-based, inclusive
	RefEnd         int // 1-based, inclusive; <= 0 means the last reference position
	MinGapDistance int
	Scores         PlacementScores
	CheckBoundary  bool
}

// DefaultMinGapDistance merges gap runs closer than this many columns.
const DefaultMinGapDistance = 30

// Validate checks the reference window.
func (o Options) Validate() error {
	if o.RefStart < 1 {
		return fmt.Errorf("%w: REF_START must be at least 1, got %d", ErrInvalidWindow, o.RefStart)
	}
	if o.RefEnd > 0 && o.RefEnd-2 < o.RefStart {
		return fmt.Errorf("%w: REF_END %d must be at least REF_START+2 (%d)",
			ErrInvalidWindow, o.RefEnd, o.RefStart+2)
	}
	if o.MinGapDistance < 0 {
		return fmt.Errorf("%w: negative min gap distance %d", ErrInvalidWindow, o.MinGapDistance)
	}
	return nil
}
