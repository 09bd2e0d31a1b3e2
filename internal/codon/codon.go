// Package codon provides the static lookup data used to score codon
// alignments: the standard genetic code with IUPAC ambiguity expansion,
// nucleotide ambiguity scoring and the BLOSUM62 substitution matrix.
package codon

import (
	"strings"

	"github.com/inodb/postalign/internal/position"
)

// Standard genetic code: DNA codon to amino acid (single letter).
var codonTable = map[string]byte{
	"TTT": 'F', "TTC": 'F', "TTA": 'L', "TTG": 'L',
	"TCT": 'S', "TCC": 'S', "TCA": 'S', "TCG": 'S',
	"TAT": 'Y', "TAC": 'Y', "TAA": '*', "TAG": '*',
	"TGT": 'C', "TGC": 'C', "TGA": '*', "TGG": 'W',

	"CTT": 'L', "CTC": 'L', "CTA": 'L', "CTG": 'L',
	"CCT": 'P', "CCC": 'P', "CCA": 'P', "CCG": 'P',
	"CAT": 'H', "CAC": 'H', "CAA": 'Q', "CAG": 'Q',
	"CGT": 'R', "CGC": 'R', "CGA": 'R', "CGG": 'R',

	"ATT": 'I', "ATC": 'I', "ATA": 'I', "ATG": 'M',
	"ACT": 'T', "ACC": 'T', "ACA": 'T', "ACG": 'T',
	"AAT": 'N', "AAC": 'N', "AAA": 'K', "AAG": 'K',
	"AGT": 'S', "AGC": 'S', "AGA": 'R', "AGG": 'R',

	"GTT": 'V', "GTC": 'V', "GTA": 'V', "GTG": 'V',
	"GCT": 'A', "GCC": 'A', "GCA": 'A', "GCG": 'A',
	"GAT": 'D', "GAC": 'D', "GAA": 'E', "GAG": 'E',
	"GGT": 'G', "GGC": 'G', "GGA": 'G', "GGG": 'G',
}

// Default markers used when translating codons with gaps.
const (
	Frameshift byte = 'X'
	Deletion   byte = '-'
)

// ambiguousCodes lists the nucleotide codes the translation table covers.
const ambiguousCodes = "ACGTWSMKRYBDHVN"

// codeIndex maps a notation to its position in ambiguousCodes, or -1.
var codeIndex = func() [256]int8 {
	var idx [256]int8
	for i := range idx {
		idx[i] = -1
	}
	for i := 0; i < len(ambiguousCodes); i++ {
		idx[ambiguousCodes[i]] = int8(i)
	}
	idx['U'] = idx['T']
	return idx
}()

// translations holds the sorted amino acid set of every codon over
// ambiguousCodes. Built once; read-only afterwards.
var translations = func() []string {
	n := len(ambiguousCodes)
	out := make([]string, n*n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for k := 0; k < n; k++ {
				out[(i*n+j)*n+k] = expand(ambiguousCodes[i], ambiguousCodes[j], ambiguousCodes[k])
			}
		}
	}
	return out
}()

func expand(a, b, c byte) string {
	var seen [256]bool
	for _, x := range Expand(a) {
		for _, y := range Expand(b) {
			for _, z := range Expand(c) {
				seen[codonTable[string([]byte{x, y, z})]] = true
			}
		}
	}
	var sb strings.Builder
	for aa := range seen {
		if seen[aa] {
			sb.WriteByte(byte(aa))
		}
	}
	return sb.String()
}

// TranslateCodon translates an unambiguous DNA codon to its amino acid.
// Returns 'X' for unknown codons and '*' for stop codons.
func TranslateCodon(codon string) byte {
	if len(codon) != 3 {
		return 'X'
	}
	if aa, ok := codonTable[strings.ToUpper(codon)]; ok {
		return aa
	}
	return 'X'
}

// TranslateBytes returns the sorted set of amino acids an IUPAC codon can
// encode, or "X" when a notation is outside the nucleotide alphabet.
func TranslateBytes(a, b, c byte) string {
	i, j, k := codeIndex[a], codeIndex[b], codeIndex[c]
	if i < 0 || j < 0 || k < 0 {
		return "X"
	}
	n := len(ambiguousCodes)
	return translations[(int(i)*n+int(j))*n+int(k)]
}

// Translate translates the first three symbols of nas. A codon made only of
// gaps becomes delAs; a short codon or one with some gaps becomes fsAs.
// Passing 0 disables either rule, in which case gaps read as N.
func Translate(nas []*position.Symbol, fsAs, delAs byte) string {
	if len(nas) > 3 {
		nas = nas[:3]
	}
	gaps := 0
	for _, na := range nas {
		if na.IsGap() {
			gaps++
		}
	}
	if delAs != 0 && len(nas) == 3 && gaps == 3 {
		return string(delAs)
	}
	if fsAs != 0 && (len(nas) < 3 || gaps > 0) {
		return string(fsAs)
	}
	if len(nas) < 3 {
		return "X"
	}

	var cd [3]byte
	for i, na := range nas {
		cd[i] = na.Notation
		if na.IsGap() {
			cd[i] = 'N'
		}
	}
	return TranslateBytes(cd[0], cd[1], cd[2])
}

// TranslateCodons translates nas codon by codon.
func TranslateCodons(nas []*position.Symbol, fsAs, delAs byte) []string {
	out := make([]string, 0, (len(nas)+2)/3)
	for i := 0; i < len(nas); i += 3 {
		out = append(out, Translate(nas[i:min(i+3, len(nas))], fsAs, delAs))
	}
	return out
}
