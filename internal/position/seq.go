package position

import (
	"bytes"
)

// Seq is an ordered list of symbols. Slicing shares symbols with the source
// sequence; operations that change the layout return a new Seq and never
// reorder symbols.
//
// A Seq caches its coordinate bounds on first use and is not safe for
// concurrent use. Call View to obtain an independent header over the same
// symbols for another goroutine.
type Seq struct {
	syms []*Symbol

	boundsCached bool
	minPos       int
	maxPos       int
}

// New wraps syms without copying.
func New(syms []*Symbol) *Seq {
	return &Seq{syms: syms}
}

// FromBytes assigns coordinates 1..N to the non-gap bytes of raw, in order.
// Input is upper-cased and gap markers are normalized to '-'. payloads, if
// given, are attached to symbols by index.
func FromBytes(raw []byte, payloads []any) *Seq {
	upper := bytes.ToUpper(raw)
	syms := make([]*Symbol, len(upper))
	pos := 1
	for i, b := range upper {
		sym := &Symbol{Notation: b, Pos: GapPos}
		if IsGapNotation(b) {
			sym.Notation = GapChar
		} else {
			sym.Pos = pos
			pos++
		}
		if i < len(payloads) {
			sym.Payload = payloads[i]
		}
		syms[i] = sym
	}
	return &Seq{syms: syms}
}

// FromString is FromBytes for a string without payloads.
func FromString(s string) *Seq {
	return FromBytes([]byte(s), nil)
}

// Gaps creates n gap symbols.
func Gaps(n int) *Seq {
	if n < 0 {
		n = 0
	}
	syms := make([]*Symbol, n)
	for i := range syms {
		syms[i] = NewGap()
	}
	return &Seq{syms: syms, boundsCached: true, minPos: GapPos, maxPos: GapPos}
}

// Empty returns a sequence without symbols.
func Empty() *Seq {
	return Gaps(0)
}

// Len returns the number of symbols.
func (s *Seq) Len() int {
	if s == nil {
		return 0
	}
	return len(s.syms)
}

// At returns the symbol at index i.
func (s *Seq) At(i int) *Symbol {
	return s.syms[i]
}

// Symbols returns the underlying symbols. The slice must not be appended to.
func (s *Seq) Symbols() []*Symbol {
	if s == nil {
		return nil
	}
	return s.syms[:len(s.syms):len(s.syms)]
}

func (s *Seq) clamp(i, j int) (int, int) {
	n := s.Len()
	if i < 0 {
		i = 0
	}
	if j > n {
		j = n
	}
	if i > n {
		i = n
	}
	if j < i {
		j = i
	}
	return i, j
}

// Slice returns the half-open index range [i, j). Out-of-range bounds are
// clamped.
func (s *Seq) Slice(i, j int) *Seq {
	i, j = s.clamp(i, j)
	return &Seq{syms: s.syms[i:j:j]}
}

// View returns a new Seq over the same symbols with its own caches.
func (s *Seq) View() *Seq {
	return s.Slice(0, s.Len())
}

// Clone deep-copies every symbol.
func (s *Seq) Clone() *Seq {
	syms := make([]*Symbol, s.Len())
	for i, sym := range s.Symbols() {
		syms[i] = sym.Clone()
	}
	return &Seq{syms: syms}
}

// Concat appends others to s in order and returns the result.
func (s *Seq) Concat(others ...*Seq) *Seq {
	n := s.Len()
	for _, o := range others {
		n += o.Len()
	}
	syms := make([]*Symbol, 0, n)
	syms = append(syms, s.Symbols()...)
	for _, o := range others {
		syms = append(syms, o.Symbols()...)
	}
	return &Seq{syms: syms}
}

// Replace returns a new sequence where the index range [i, j) is replaced by
// other.
func (s *Seq) Replace(i, j int, other *Seq) *Seq {
	i, j = s.clamp(i, j)
	syms := make([]*Symbol, 0, s.Len()-(j-i)+other.Len())
	syms = append(syms, s.syms[:i]...)
	syms = append(syms, other.Symbols()...)
	syms = append(syms, s.syms[j:]...)
	return &Seq{syms: syms}
}

// Insert returns a new sequence with other inserted before index i.
func (s *Seq) Insert(i int, other *Seq) *Seq {
	return s.Replace(i, i, other)
}

func (s *Seq) bounds() {
	if s.boundsCached {
		return
	}
	s.minPos, s.maxPos = GapPos, GapPos
	for _, sym := range s.syms {
		if sym.Pos > 0 {
			s.minPos = sym.Pos
			break
		}
	}
	for i := len(s.syms) - 1; i >= 0; i-- {
		if s.syms[i].Pos > 0 {
			s.maxPos = s.syms[i].Pos
			break
		}
	}
	s.boundsCached = true
}

// MinPos returns the first non-gap coordinate, or GapPos if there is none.
func (s *Seq) MinPos() int {
	s.bounds()
	return s.minPos
}

// MaxPos returns the last non-gap coordinate, or GapPos if there is none.
func (s *Seq) MaxPos() int {
	s.bounds()
	return s.maxPos
}

// FirstNongapIndex returns the index of the first symbol carrying a
// coordinate within [start, stop), or -1.
func (s *Seq) FirstNongapIndex(start, stop int) int {
	start, stop = s.clamp(start, stop)
	for i := start; i < stop; i++ {
		if s.syms[i].Pos > 0 {
			return i
		}
	}
	return -1
}

// LastNongapIndex returns the index of the last symbol carrying a
// coordinate within [start, stop), or -1.
func (s *Seq) LastNongapIndex(start, stop int) int {
	start, stop = s.clamp(start, stop)
	for i := stop - 1; i >= start; i-- {
		if s.syms[i].Pos > 0 {
			return i
		}
	}
	return -1
}

func (s *Seq) indexOfPos(pos int, last bool) int {
	if last {
		for i := len(s.syms) - 1; i >= 0; i-- {
			if s.syms[i].Pos == pos {
				return i
			}
		}
		return -1
	}
	for i, sym := range s.syms {
		if sym.Pos == pos {
			return i
		}
	}
	return -1
}

// PosRangeToIndexRange converts the inclusive 1-based coordinate range
// [lo, hi] into a half-open index range.
//
// When lo is past the last coordinate both bounds collapse onto the index of
// the last non-gap symbol; when hi is before the first coordinate both
// collapse onto the index of the first one. With includeBoundaryGaps the
// result is widened over adjacent gap runs.
func (s *Seq) PosRangeToIndexRange(lo, hi int, includeBoundaryGaps bool) (int, int) {
	minPos, maxPos := s.MinPos(), s.MaxPos()
	if minPos < 0 || maxPos < 0 {
		return 0, 0
	}

	var start, end int
	switch {
	case lo > maxPos:
		start = s.indexOfPos(maxPos, true)
		end = start
	case hi < minPos:
		start = s.indexOfPos(minPos, false)
		end = start
	default:
		lo = max(lo, minPos)
		hi = min(hi, maxPos)
		start = -1
		for pos := lo; pos <= hi && start < 0; pos++ {
			start = s.indexOfPos(pos, false)
		}
		end = 0
		for pos := hi; pos >= lo; pos-- {
			if idx := s.indexOfPos(pos, true); idx > -1 {
				end = idx + 1
				break
			}
		}
		if start < 0 {
			start = end
		}
	}

	if includeBoundaryGaps {
		for start > 0 && s.syms[start-1].IsGap() {
			start--
		}
		for end < len(s.syms) && s.syms[end].IsGap() {
			end++
		}
	}
	return start, end
}

// CountGaps returns the number of gap symbols.
func (s *Seq) CountGaps() int {
	n := 0
	for _, sym := range s.Symbols() {
		if sym.IsGap() {
			n++
		}
	}
	return n
}

// CountNongaps returns the number of non-gap symbols.
func (s *Seq) CountNongaps() int {
	return s.Len() - s.CountGaps()
}

// RemoveGaps returns the non-gap symbols.
func (s *Seq) RemoveGaps() *Seq {
	syms := make([]*Symbol, 0, s.Len())
	for _, sym := range s.Symbols() {
		if !sym.IsGap() {
			syms = append(syms, sym)
		}
	}
	return &Seq{syms: syms}
}

// SplitGaps separates non-gap symbols from gap symbols, preserving order
// within each group.
func (s *Seq) SplitGaps() (nongaps, gaps *Seq) {
	ng := make([]*Symbol, 0, s.Len())
	g := make([]*Symbol, 0)
	for _, sym := range s.Symbols() {
		if sym.IsGap() {
			g = append(g, sym)
		} else {
			ng = append(ng, sym)
		}
	}
	return &Seq{syms: ng}, &Seq{syms: g}
}

// FirstGap returns the index of the first gap symbol, or -1.
func (s *Seq) FirstGap() int {
	for i, sym := range s.Symbols() {
		if sym.IsGap() {
			return i
		}
	}
	return -1
}

// AnyGap reports whether at least one symbol is a gap.
func (s *Seq) AnyGap() bool {
	return s.FirstGap() > -1
}

// IsGap reports whether the sequence is non-empty and composed only of gaps.
func (s *Seq) IsGap() bool {
	if s.Len() == 1 {
		return s.syms[0].IsGap()
	}
	return s.Len() > 0 && s.CountGaps() == s.Len()
}

// SetFlag sets f on every symbol.
func (s *Seq) SetFlag(f Flag) {
	for _, sym := range s.Symbols() {
		sym.Flag |= f
	}
}

// AnyHasFlag reports whether any symbol carries a bit of f.
func (s *Seq) AnyHasFlag(f Flag) bool {
	for _, sym := range s.Symbols() {
		if sym.HasFlag(f) {
			return true
		}
	}
	return false
}

// AllHaveFlag reports whether every symbol carries a bit of f.
func (s *Seq) AllHaveFlag(f Flag) bool {
	for _, sym := range s.Symbols() {
		if !sym.HasFlag(f) {
			return false
		}
	}
	return true
}

// Positions returns the coordinate of every symbol.
func (s *Seq) Positions() []int {
	out := make([]int, s.Len())
	for i, sym := range s.Symbols() {
		out[i] = sym.Pos
	}
	return out
}

// Bytes renders the notations.
func (s *Seq) Bytes() []byte {
	out := make([]byte, s.Len())
	for i, sym := range s.Symbols() {
		out[i] = sym.Notation
	}
	return out
}

// String renders the notations.
func (s *Seq) String() string {
	return string(s.Bytes())
}
