package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/postalign/internal/diag"
	"github.com/inodb/postalign/internal/position"
	"github.com/inodb/postalign/internal/sequence"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newPair(ref, seq string, id int) sequence.Pair {
	r := sequence.New("ref", "", position.FromString(ref), 0, position.NA)
	q := sequence.New("q"+string(rune('0'+id)), "sample", position.FromString(seq), id, position.NA)
	return sequence.Pair{Ref: r, Query: q}
}

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NotNil(t, s.DB())
	assert.Empty(t, s.Path())
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "results.duckdb")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
	assert.Equal(t, path, s.Path())
}

func TestWriteAndLookupAlignments(t *testing.T) {
	s := openInMemory(t)
	runID, err := s.BeginRun("process", nil)
	require.NoError(t, err)

	pair := newPair("AC--GT", "ACNNGT", 1)
	pair.Query = pair.Query.Push(pair.Query.Body, "paf(0,2,2M)", 0)

	rows := []AlignmentRow{
		RowFromPair(pair, "done"),
		RowFromPair(newPair("ACGT", "", 2), "no-alignment-found"),
	}
	require.NoError(t, s.WriteAlignments(runID, rows))

	got, err := s.LookupAlignment(runID, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "q1", got.Header)
	assert.Equal(t, "sample", got.Description)
	assert.Equal(t, "AC--GT", got.RefText)
	assert.Equal(t, "ACNNGT", got.SeqText)
	assert.Equal(t, "1:paf(0,2,2M)", got.SeqProvenance)
	assert.Empty(t, got.RefProvenance)
	assert.Equal(t, "done", got.State)

	missing, err := s.LookupAlignment(runID, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)

	n, err := s.AlignmentCount(runID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	states, err := s.CountByState(runID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"done": 1, "no-alignment-found": 1}, states)
}

func TestWriteAlignmentsEmpty(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteAlignments(1, nil))

	n, err := s.AlignmentCount(1)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRunsAreIsolated(t *testing.T) {
	s := openInMemory(t)
	run1, err := s.BeginRun("process", nil)
	require.NoError(t, err)
	run2, err := s.BeginRun("process", nil)
	require.NoError(t, err)
	assert.Equal(t, run1+1, run2)

	require.NoError(t, s.WriteAlignments(run1, []AlignmentRow{RowFromPair(newPair("ACGT", "ACGT", 1), "done")}))
	require.NoError(t, s.WriteAlignments(run2, []AlignmentRow{RowFromPair(newPair("ACGT", "AGGT", 1), "done")}))

	got, err := s.LookupAlignment(run2, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "AGGT", got.SeqText)
}

func TestWriteAndFilterMessages(t *testing.T) {
	s := openInMemory(t)
	runID, err := s.BeginRun("process", nil)
	require.NoError(t, err)

	msgs := []diag.Message{
		{SeqID: 2, Level: diag.Warning, Text: "REF has already been aligned"},
		{SeqID: 1, Level: diag.Info, Text: "assembled"},
		{SeqID: 1, Level: diag.Error, Text: "no alignment"},
	}
	require.NoError(t, s.WriteMessages(runID, msgs))

	all, err := s.Messages(runID, -1, diag.Info)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	warn, err := s.Messages(runID, -1, diag.Warning)
	require.NoError(t, err)
	require.Len(t, warn, 2)
	assert.Equal(t, diag.Error, warn[0].Level)
	assert.Equal(t, 2, warn[1].SeqID)

	seq1, err := s.Messages(runID, 1, diag.Info)
	require.NoError(t, err)
	require.Len(t, seq1, 2)
	for _, m := range seq1 {
		assert.Equal(t, 1, m.SeqID)
	}

	other, err := s.Messages(runID+1, -1, diag.Info)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRunMetadata(t *testing.T) {
	s := openInMemory(t)

	run, err := s.LatestRun()
	require.NoError(t, err)
	assert.Nil(t, run)

	dir := t.TempDir()
	refPath := filepath.Join(dir, "ref.fa")
	require.NoError(t, os.WriteFile(refPath, []byte(">ref\nACGT\n"), 0644))

	fp, err := StatFile("reference", refPath)
	require.NoError(t, err)
	assert.Equal(t, int64(10), fp.Size)

	id, err := s.BeginRun("process --input-type paf", []FileFingerprint{fp})
	require.NoError(t, err)
	require.NoError(t, s.FinishRun(id, 42))

	run, err = s.LatestRun()
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, id, run.ID)
	assert.Equal(t, "process --input-type paf", run.Command)
	assert.Equal(t, int64(42), run.Pairs)
	require.Len(t, run.Inputs, 1)
	assert.Equal(t, refPath, run.Inputs[0].Path)
	assert.Equal(t, "reference", run.Inputs[0].Role)

	assert.False(t, InputsChanged(run, []FileFingerprint{fp}))

	later := fp
	later.ModTime = fp.ModTime.Add(time.Hour)
	assert.True(t, InputsChanged(run, []FileFingerprint{later}))

	bigger := fp
	bigger.Size++
	assert.True(t, InputsChanged(run, []FileFingerprint{bigger}))

	assert.True(t, InputsChanged(nil, []FileFingerprint{fp}))
	assert.True(t, InputsChanged(run, nil))
}

func TestStatFileMissing(t *testing.T) {
	_, err := StatFile("reference", filepath.Join(t.TempDir(), "nope.fa"))
	assert.Error(t, err)
}
