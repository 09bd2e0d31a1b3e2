package codonalign

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inodb/postalign/internal/position"
)

func TestGroupByCodons(t *testing.T) {
	tests := []struct {
		name     string
		ref, seq string
		phase    int
		wantRef  []string
		wantSeq  []string
	}{
		{"plain", "ATGCTA", "ATG-TA", 0, []string{"ATG", "CTA"}, []string{"ATG", "-TA"}},
		{"ref insertion", "ATG---CTA", "ATGAAACTA", 0, []string{"ATG---", "CTA"}, []string{"ATGAAA", "CTA"}},
		{"leading ref gaps", "--ATGCTA", "CCATGCTA", 0, []string{"--ATG", "CTA"}, []string{"CCATG", "CTA"}},
		{"phase two", "GCTAAA", "GCTAAA", 2, []string{"G", "CTA", "AA"}, []string{"G", "CTA", "AA"}},
		{"only gaps", "---", "AAA", 0, []string{"---"}, []string{"AAA"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refCodons, seqCodons := GroupByCodons(position.FromString(tt.ref), position.FromString(tt.seq), tt.phase)
			assert.Equal(t, tt.wantRef, texts(refCodons))
			assert.Equal(t, tt.wantSeq, texts(seqCodons))
		})
	}
}

func TestGroupByCodonsEmpty(t *testing.T) {
	refCodons, seqCodons := GroupByCodons(position.Empty(), position.Empty(), 0)
	assert.Empty(t, refCodons)
	assert.Empty(t, seqCodons)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, RefGap, Classify(position.FromString("A--"), position.FromString("AAA")))
	assert.Equal(t, RefGap, Classify(position.FromString("A--"), position.FromString("A--")))
	assert.Equal(t, SeqGap, Classify(position.FromString("AAA"), position.FromString("A--")))
	assert.Equal(t, NoGap, Classify(position.FromString("AAA"), position.FromString("AAA")))
}

func TestExtendCodonsUntilGap(t *testing.T) {
	t.Run("right", func(t *testing.T) {
		codons := seqs("ATG", "A-G")
		ref, seq, n := ExtendCodonsUntilGap(codons, codons, Right)
		assert.Equal(t, 1, n)
		assert.Equal(t, []string{"ATG"}, texts(ref))
		assert.Equal(t, []string{"ATG"}, texts(seq))
	})
	t.Run("left", func(t *testing.T) {
		codons := seqs("A-G", "ATG")
		ref, _, n := ExtendCodonsUntilGap(codons, codons, Left)
		assert.Equal(t, 1, n)
		assert.Equal(t, []string{"ATG"}, texts(ref))
	})
	t.Run("left stops at query gap", func(t *testing.T) {
		ref := seqs("AAA", "CCC", "GGG")
		seq := seqs("AAA", "C-C", "GGG")
		got, _, n := ExtendCodonsUntilGap(ref, seq, Left)
		assert.Equal(t, 1, n)
		assert.Equal(t, []string{"GGG"}, texts(got))
	})
	t.Run("empty", func(t *testing.T) {
		_, _, n := ExtendCodonsUntilGap(nil, nil, Right)
		assert.Zero(t, n)
	})
}

func TestFindCodonTrimRange(t *testing.T) {
	lo, hi := FindCodonTrimRange(seqs("---", "ATG", "---"))
	assert.Equal(t, 1, lo)
	assert.Equal(t, 2, hi)

	lo, hi = FindCodonTrimRange(seqs("---", "---"))
	assert.Equal(t, lo, hi)
}
