package fasta

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/postalign/internal/position"
)

const sample = `# leading comment
>seq1 first sample
ACGT
acgt
>empty
>seq2
AC-GT
# trailing comment
NN
`

func TestReader_ReadAll(t *testing.T) {
	seqs, err := NewReader(strings.NewReader(sample), Options{}).ReadAll()
	require.NoError(t, err)
	require.Len(t, seqs, 2)

	assert.Equal(t, "seq1", seqs[0].Header)
	assert.Equal(t, "first sample", seqs[0].Description)
	assert.Equal(t, "ACGTACGT", seqs[0].String())
	assert.Equal(t, 1, seqs[0].ID)

	assert.Equal(t, "seq2", seqs[1].Header)
	assert.Empty(t, seqs[1].Description)
	assert.Equal(t, "AC-GTNN", seqs[1].String())
	assert.Equal(t, 2, seqs[1].ID)
	assert.Equal(t, []int{1, 2, -1, 3, 4, 5, 6}, seqs[1].Body.Positions())
}

func TestReader_RemoveGaps(t *testing.T) {
	seqs, err := NewReader(strings.NewReader(">a\nAC-G.T\n"), Options{RemoveGaps: true}).ReadAll()
	require.NoError(t, err)
	require.Len(t, seqs, 1)
	assert.Equal(t, "ACGT", seqs[0].String())
}

func TestReader_InvalidNotation(t *testing.T) {
	t.Run("lenient", func(t *testing.T) {
		seqs, err := NewReader(strings.NewReader(">a\nAC*GZT\n"), Options{}).ReadAll()
		require.NoError(t, err)
		assert.Equal(t, "ACGT", seqs[0].String())
		assert.Equal(t, []int{1, 2, 3, 4}, seqs[0].Body.Positions())
	})
	t.Run("strict", func(t *testing.T) {
		_, err := NewReader(strings.NewReader(">a\nAC*GZT\n"), Options{Strict: true}).ReadAll()
		var verr *position.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "a", verr.Header)
		assert.Equal(t, []byte("*Z"), verr.Invalids)
	})
}

func TestReader_AminoAcid(t *testing.T) {
	_, err := NewReader(strings.NewReader(">a\nMKV\n"), Options{Type: position.AA}).Next()
	assert.ErrorIs(t, err, position.ErrAminoAcidUnsupported)
}

func TestReader_Empty(t *testing.T) {
	r := NewReader(strings.NewReader(""), Options{})
	seq, err := r.Next()
	require.NoError(t, err)
	assert.Nil(t, seq)
}

func TestLoad_Gzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(">ref\nATGC\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	path := filepath.Join(t.TempDir(), "ref.fa.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	seqs, err := Load(path, Options{})
	require.NoError(t, err)
	require.Len(t, seqs, 1)
	assert.Equal(t, "ATGC", seqs[0].String())
}

func TestLoad_Plain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.fa")
	require.NoError(t, os.WriteFile(path, []byte(">ref x\nATGC\n"), 0o644))
	seqs, err := Load(path, Options{})
	require.NoError(t, err)
	require.Len(t, seqs, 1)
	assert.Equal(t, "ref x", seqs[0].HeaderDesc())
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.fa"), Options{})
	assert.Error(t, err)
}

func TestWriteRecord(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecord(&buf, "1 seq one", []byte("ACGT")))
	assert.Equal(t, ">1 seq one\nACGT\n", buf.String())
}
