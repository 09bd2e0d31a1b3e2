package cigar

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/postalign/internal/position"
)

func TestParse(t *testing.T) {
	c, err := Parse(1, 2, "5M2I3D1N")
	require.NoError(t, err)

	assert.Equal(t, "5M2I3D1N", c.String())
	assert.Equal(t, 9, c.RefLen())
	assert.Equal(t, 7, c.SeqLen())
}

func TestParse_Empty(t *testing.T) {
	c, err := Parse(0, 0, "")
	require.NoError(t, err)
	assert.Equal(t, "", c.String())
	assert.Equal(t, 0, c.RefLen())
}

func TestParse_RejectsOps(t *testing.T) {
	_, err := Parse(0, 0, "3S5M")
	assert.ErrorIs(t, err, ErrUnsupportedOp)

	_, err = Parse(0, 0, "5M2=")
	assert.ErrorIs(t, err, ErrUnsupportedOp)

	_, err = Parse(0, 0, "5Q")
	assert.Error(t, err)
}

func TestGoString(t *testing.T) {
	c, err := Parse(1, 2, "5M")
	require.NoError(t, err)
	assert.Equal(t, "<CIGAR '5M' ref_start=1 seq_start=2>", fmt.Sprintf("%#v", c))
}

func TestShrinkByRef(t *testing.T) {
	tests := []struct {
		cigar string
		keep  int
		want  string
	}{
		{"5M2I5M", 6, "5M2I1M"},
		{"5M2I5M", 5, "5M2I"},
		{"4M3I", 4, "4M3I"},
		{"3M1I2D1I3M", 3, "3M1I"},
		{"5M2I5M", 12, "5M2I5M"},
		{"3M4D3M", 5, "3M2D"},
		{"2I4M", 2, "2I2M"},
		{"4M", 0, ""},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d", tt.cigar, tt.keep), func(t *testing.T) {
			c, err := Parse(3, 4, tt.cigar)
			require.NoError(t, err)
			shrunk := c.ShrinkByRef(tt.keep)
			assert.Equal(t, tt.want, shrunk.String())
			assert.Equal(t, min(tt.keep, c.RefLen()), shrunk.RefLen())
			assert.Equal(t, 3, shrunk.RefStart)
			assert.Equal(t, 4, shrunk.SeqStart)
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		ref, seq string
		refStart int
		seqStart int
		cigar    string
		wantRef  string
		wantSeq  string
	}{
		{"insertion", "ACGT", "ATCGT", 0, 0, "1M1I3M", "A-CGT", "ATCGT"},
		{"deletion", "ACGT", "AGT", 0, 0, "1M1D2M", "ACGT", "A-GT"},
		{"skip", "ACGT", "AGT", 0, 0, "1M1N2M", "ACGT", "A-GT"},
		{"offsets", "TTACGT", "GGACGT", 2, 2, "4M", "ACGT", "ACGT"},
		{"partial", "ACGTAC", "ACG", 0, 0, "3M", "ACG", "ACG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse(tt.refStart, tt.seqStart, tt.cigar)
			require.NoError(t, err)

			ref, seq, err := c.Decode(position.FromString(tt.ref), position.FromString(tt.seq))
			require.NoError(t, err)
			assert.Equal(t, tt.wantRef, ref.String())
			assert.Equal(t, tt.wantSeq, seq.String())
			assert.Equal(t, ref.Len(), seq.Len())
		})
	}
}

func TestDecode_KeepsCoordinates(t *testing.T) {
	ref := position.FromString("ACGT")
	seq := position.FromString("ATCGT")
	c, err := Parse(0, 0, "1M1I3M")
	require.NoError(t, err)

	aref, aseq, err := c.Decode(ref, seq)
	require.NoError(t, err)
	assert.Equal(t, []int{1, -1, 2, 3, 4}, aref.Positions())
	assert.Equal(t, []int{1, 2, 3, 4, 5}, aseq.Positions())
	assert.Same(t, ref.At(1), aref.At(2))
}

func TestDecode_LengthMismatch(t *testing.T) {
	c, err := Parse(0, 0, "1M1I1M")
	require.NoError(t, err)

	_, _, err = c.Decode(position.FromString("A"), position.FromString("AGC"))
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestFromAlignment(t *testing.T) {
	got, err := FromAlignment(position.FromString("A-CG-T"), position.FromString("AT-G-T"))
	require.NoError(t, err)
	assert.Equal(t, "1M1I1D2M", got)

	_, err = FromAlignment(position.FromString("AC"), position.FromString("A"))
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestFromAlignment_RoundTrip(t *testing.T) {
	ref := position.FromString("ACGTACGT")
	seq := position.FromString("ACGTTACT")
	c, err := Parse(0, 0, "4M1I2M1D1M")
	require.NoError(t, err)

	aref, aseq, err := c.Decode(ref, seq)
	require.NoError(t, err)
	got, err := FromAlignment(aref, aseq)
	require.NoError(t, err)
	assert.Equal(t, c.String(), got)
}
