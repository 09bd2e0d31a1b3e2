package codon

// Row/column order of blosum62Matrix.
const blosum62Order = "ARNDCQEGHILKMFPSTWYV*"

// NCBI BLOSUM62, restricted to the 20 standard amino acids plus stop.
var blosum62Matrix = [21][21]int8{
	//A   R   N   D   C   Q   E   G   H   I   L   K   M   F   P   S   T   W   Y   V   *
	{4, -1, -2, -2, 0, -1, -1, 0, -2, -1, -1, -1, -1, -2, -1, 1, 0, -3, -2, 0, -4},        // A
	{-1, 5, 0, -2, -3, 1, 0, -2, 0, -3, -2, 2, -1, -3, -2, -1, -1, -3, -2, -3, -4},        // R
	{-2, 0, 6, 1, -3, 0, 0, 0, 1, -3, -3, 0, -2, -3, -2, 1, 0, -4, -2, -3, -4},            // N
	{-2, -2, 1, 6, -3, 0, 2, -1, -1, -3, -4, -1, -3, -3, -1, 0, -1, -4, -3, -3, -4},       // D
	{0, -3, -3, -3, 9, -3, -4, -3, -3, -1, -1, -3, -1, -2, -3, -1, -1, -2, -2, -1, -4},    // C
	{-1, 1, 0, 0, -3, 5, 2, -2, 0, -3, -2, 1, 0, -3, -1, 0, -1, -2, -1, -2, -4},           // Q
	{-1, 0, 0, 2, -4, 2, 5, -2, 0, -3, -3, 1, -2, -3, -1, 0, -1, -3, -2, -2, -4},          // E
	{0, -2, 0, -1, -3, -2, -2, 6, -2, -4, -4, -2, -3, -3, -2, 0, -2, -2, -3, -3, -4},      // G
	{-2, 0, 1, -1, -3, 0, 0, -2, 8, -3, -3, -1, -2, -1, -2, -1, -2, -2, 2, -3, -4},        // H
	{-1, -3, -3, -3, -1, -3, -3, -4, -3, 4, 2, -3, 1, 0, -3, -2, -1, -3, -1, 3, -4},       // I
	{-1, -2, -3, -4, -1, -2, -3, -4, -3, 2, 4, -2, 2, 0, -3, -2, -1, -2, -1, 1, -4},       // L
	{-1, 2, 0, -1, -3, 1, 1, -2, -1, -3, -2, 5, -1, -3, -1, 0, -1, -3, -2, -2, -4},        // K
	{-1, -1, -2, -3, -1, 0, -2, -3, -2, 1, 2, -1, 5, 0, -2, -1, -1, -1, -1, 1, -4},        // M
	{-2, -3, -3, -3, -2, -3, -3, -3, -1, 0, 0, -3, 0, 6, -4, -2, -2, 1, 3, -1, -4},        // F
	{-1, -2, -2, -1, -3, -1, -1, -2, -2, -3, -3, -1, -2, -4, 7, -1, -1, -4, -3, -2, -4},   // P
	{1, -1, 1, 0, -1, 0, 0, 0, -1, -2, -2, 0, -1, -2, -1, 4, 1, -3, -2, -2, -4},           // S
	{0, -1, 0, -1, -1, -1, -1, -2, -2, -1, -1, -1, -1, -2, -1, 1, 5, -2, -2, 0, -4},       // T
	{-3, -3, -4, -4, -2, -2, -3, -2, -2, -3, -2, -3, -1, 1, -4, -3, -2, 11, 2, -3, -4},    // W
	{-2, -2, -2, -3, -2, -1, -2, -3, 2, -1, -1, -2, -1, 3, -3, -2, -2, 2, 7, -1, -4},      // Y
	{0, -3, -3, -3, -1, -2, -2, -3, -3, 3, 1, -2, 1, -1, -2, -2, 0, -3, -1, 4, -4},        // V
	{-4, -4, -4, -4, -4, -4, -4, -4, -4, -4, -4, -4, -4, -4, -4, -4, -4, -4, -4, -4, 1},   // *
}

var blosum62Index = func() [256]int8 {
	var idx [256]int8
	for i := range idx {
		idx[i] = -1
	}
	for i := 0; i < len(blosum62Order); i++ {
		idx[blosum62Order[i]] = int8(i)
	}
	return idx
}()

// Blosum62 scores a single amino acid pair. A gap scores 0 against a gap
// and -1 against anything else; X scores -1; unknown letters score 0.
func Blosum62(a, b byte) int {
	switch {
	case a == '-' && b == '-':
		return 0
	case a == '-' || b == '-':
		return -1
	case a == 'X' || b == 'X':
		return -1
	}
	i, j := blosum62Index[a], blosum62Index[b]
	if i < 0 || j < 0 {
		return 0
	}
	return int(blosum62Matrix[i][j])
}

// Blosum62Score averages Blosum62 over every pair drawn from two amino
// acid sets. Either set being empty scores 0.
func Blosum62Score(a, b string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	total := 0
	for i := 0; i < len(a); i++ {
		for j := 0; j < len(b); j++ {
			total += Blosum62(a[i], b[j])
		}
	}
	return float64(total) / float64(len(a)*len(b))
}
