package codon

import "math/bits"

// Nucleotide bit masks. Ambiguity codes are the union of their bases.
const (
	baseA   uint8 = 1 << iota
	baseC
	baseG
	baseT
	baseGap
)

var iupacMask = func() [256]uint8 {
	var m [256]uint8
	m['A'] = baseA
	m['C'] = baseC
	m['G'] = baseG
	m['T'] = baseT
	m['U'] = baseT
	m['W'] = baseA | baseT
	m['S'] = baseC | baseG
	m['M'] = baseA | baseC
	m['K'] = baseG | baseT
	m['R'] = baseA | baseG
	m['Y'] = baseC | baseT
	m['B'] = baseC | baseG | baseT
	m['D'] = baseA | baseG | baseT
	m['H'] = baseA | baseC | baseT
	m['V'] = baseA | baseC | baseG
	m['N'] = baseA | baseC | baseG | baseT
	m['-'] = baseGap
	m['.'] = baseGap
	return m
}()

// Expand returns the unambiguous bases an IUPAC code stands for, in ACGT
// order. Unknown codes expand to nothing.
func Expand(code byte) []byte {
	mask := iupacMask[code]
	out := make([]byte, 0, 4)
	for i, b := range []byte("ACGT") {
		if mask&(1<<i) != 0 {
			out = append(out, b)
		}
	}
	return out
}

func maskOf(code byte) uint8 {
	if m := iupacMask[code]; m != 0 {
		return m
	}
	return iupacMask['N']
}

// IUPACScore scores two nucleotide notations: 1 when identical, 0 for two
// gaps, otherwise minus the share of bases that differ between the two
// ambiguity sets.
func IUPACScore(a, b byte) float64 {
	ma, mb := maskOf(a), maskOf(b)
	if ma == baseGap && mb == baseGap {
		return 0
	}
	if a == b {
		return 1
	}
	diff := bits.OnesCount8(ma ^ mb)
	union := bits.OnesCount8(ma | mb)
	return -float64(diff) / float64(union)
}
