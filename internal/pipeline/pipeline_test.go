package pipeline

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/postalign/internal/codonalign"
	"github.com/inodb/postalign/internal/diag"
	"github.com/inodb/postalign/internal/paf"
	"github.com/inodb/postalign/internal/position"
	"github.com/inodb/postalign/internal/sequence"
)

func makeItems(n int) <-chan WorkItem {
	ref := sequence.New("ref", "", position.FromString("ATGAAACCC"), 1, position.NA)
	ch := make(chan WorkItem, n)
	for i := range n {
		query := sequence.New(fmt.Sprintf("q%d", i), "", position.FromString("ATG---CCC"), i+1, position.NA)
		ch <- WorkItem{Seq: i, Pair: sequence.Pair{Ref: ref, Query: query}}
	}
	close(ch)
	return ch
}

func TestRun_OrderPreservation(t *testing.T) {
	p := New(nil, TrimByRef{})

	var collected []int
	err := OrderedCollect(p.Run(makeItems(200), 8), func(r WorkResult) error {
		require.NoError(t, r.Err)
		collected = append(collected, r.Seq)
		return nil
	})
	require.NoError(t, err)

	assert.Len(t, collected, 200)
	for i, seq := range collected {
		assert.Equal(t, i, seq, "result %d out of order", i)
	}
}

func TestRun_SingleWorker(t *testing.T) {
	p := New(nil)

	var collected []int
	err := OrderedCollect(p.Run(makeItems(50), 1), func(r WorkResult) error {
		collected = append(collected, r.Seq)
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, collected, 50)
}

func TestRun_CodonAlignmentSharedReference(t *testing.T) {
	step, err := NewCodonAlignment(codonalign.Options{RefStart: 1, MinGapDistance: 30})
	require.NoError(t, err)
	p := New(nil, step)

	err = OrderedCollect(p.Run(makeItems(20), 4), func(r WorkResult) error {
		require.NoError(t, r.Err)
		assert.Equal(t, "ATGAAACCC", r.Pair.Ref.String())
		assert.Equal(t, "ATG---CCC", r.Pair.Query.String())
		assert.Equal(t, r.Seq+1, r.Pair.Query.ID)
		return nil
	})
	require.NoError(t, err)
}

func TestOrderedCollect_Error(t *testing.T) {
	p := New(nil)
	boom := errors.New("boom")
	calls := 0
	err := OrderedCollect(p.Run(makeItems(100), 4), func(r WorkResult) error {
		calls++
		if r.Seq == 5 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 6, calls)
}

func TestCollect(t *testing.T) {
	p := New(nil)
	seen := make(map[int]bool)
	err := Collect(p.Run(makeItems(30), 3), func(r WorkResult) error {
		seen[r.Seq] = true
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, seen, 30)
}

func TestProcess_Assemble(t *testing.T) {
	var msgs diag.List
	p := New(&msgs, TrimByRef{})
	ref := sequence.New("ref", "", position.FromString("ACGT"), 1, position.NA)
	query := sequence.New("q", "", position.FromString("ACNNGT"), 1, position.NA)
	records := []*paf.Record{
		{QName: "1", TStart: 0, TEnd: 2, QStart: 0, QEnd: 2, Strand: paf.Forward,
			Tags: map[string]paf.Tag{"cg": {Type: 'Z', Value: "2M"}}},
		{QName: "1", TStart: 2, TEnd: 4, QStart: 4, QEnd: 6, Strand: paf.Forward,
			Tags: map[string]paf.Tag{"cg": {Type: 'Z', Value: "2M"}}},
	}

	res := p.Process(WorkItem{Pair: sequence.Pair{Ref: ref, Query: query}, Records: records, Assemble: true})
	require.NoError(t, res.Err)
	assert.Equal(t, paf.Done, res.State)
	assert.Equal(t, "AC--GT", res.Pair.Ref.String())
	assert.Equal(t, "ACNNGT", res.Pair.Query.String())
	assert.Zero(t, msgs.Len())

	// inputs keep their own provenance
	assert.Empty(t, ref.Log.String())
}

func TestProcess_NoAlignment(t *testing.T) {
	var msgs diag.List
	p := New(&msgs)
	ref := sequence.New("ref", "", position.FromString("ACGT"), 1, position.NA)
	query := sequence.New("q", "", position.FromString("ACGT"), 1, position.NA)

	res := p.Process(WorkItem{Pair: sequence.Pair{Ref: ref, Query: query}, Assemble: true})
	require.NoError(t, res.Err)
	assert.Equal(t, paf.NoAlignment, res.State)
	assert.Zero(t, res.Pair.Query.Len())
	assert.Equal(t, 1, msgs.Count(diag.Error))
}

func TestProcess_ProcessorError(t *testing.T) {
	step, err := NewCodonAlignment(codonalign.Options{RefStart: 1, CheckBoundary: true})
	require.NoError(t, err)
	p := New(nil, step)
	res := p.Process(WorkItem{Pair: newPair("--ATGAAA", "CCATGAAA")})
	assert.ErrorIs(t, res.Err, codonalign.ErrUntrimmedBoundary)
	assert.Contains(t, res.Err.Error(), "codon-alignment")
}

func TestSort(t *testing.T) {
	step, err := NewCodonAlignment(codonalign.Options{RefStart: 1})
	require.NoError(t, err)
	got := Sort([]Processor{step, TrimByRef{}, ApplyFrameshift{}})
	names := make([]string, len(got))
	for i, p := range got {
		names[i] = p.Name()
	}
	assert.Equal(t, Order, names)
}
