package minimap2

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/postalign/internal/position"
	"github.com/inodb/postalign/internal/sequence"
)

// fakeMinimap2 writes a shell script standing in for minimap2.
func fakeMinimap2(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "minimap2")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func inputs() (*sequence.Sequence, []*sequence.Sequence) {
	ref := sequence.New("ref", "HXB2", position.FromString("ACGT"), 1, position.NA)
	q := sequence.New("sample", "", position.FromString("AC-NNGT"), 1, position.NA)
	return ref, []*sequence.Sequence{q}
}

func TestRunner_Align(t *testing.T) {
	// the script keeps copies of its inputs for inspection
	out := filepath.Join(t.TempDir(), "seen")
	script := `cp "$2" ` + out + `.target
cp "$3" ` + out + `.query
printf '1\t6\t0\t2\t+\tref\t4\t0\t2\t2\t2\t60\tcg:Z:2M\n'
printf '1\t6\t4\t6\t+\tref\t4\t2\t4\t2\t2\t60\tcg:Z:2M\n'`
	r := NewRunner(fakeMinimap2(t, script), "")
	ref, queries := inputs()

	idx, err := r.Align(context.Background(), ref, queries)
	require.NoError(t, err)
	recs := idx.For(queries[0])
	require.Len(t, recs, 2)
	assert.Equal(t, 4, recs[1].QStart)

	target, err := os.ReadFile(out + ".target")
	require.NoError(t, err)
	assert.Equal(t, ">ref HXB2\nACGT\n", string(target))
	query, err := os.ReadFile(out + ".query")
	require.NoError(t, err)
	assert.Equal(t, ">1 sample\nACNNGT\n", string(query))
}

func TestRunner_ExtraArgs(t *testing.T) {
	r := NewRunner(fakeMinimap2(t, `[ "$1" = "-x" ] && [ "$2" = "asm5" ] && [ "$3" = "-c" ] || exit 9`), "-x asm5")
	ref, queries := inputs()
	idx, err := r.Align(context.Background(), ref, queries)
	require.NoError(t, err)
	assert.Empty(t, idx)
}

func TestRunner_NonZeroExit(t *testing.T) {
	r := NewRunner(fakeMinimap2(t, "echo 'bad index' >&2\nexit 3"), "")
	ref, queries := inputs()
	_, err := r.Align(context.Background(), ref, queries)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad index")
}

func TestRunner_Timeout(t *testing.T) {
	r := NewRunner(fakeMinimap2(t, "exec sleep 5"), "")
	r.Timeout = 50 * time.Millisecond
	ref, queries := inputs()
	_, err := r.Align(context.Background(), ref, queries)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestRunner_BadOutput(t *testing.T) {
	r := NewRunner(fakeMinimap2(t, "echo 'not a paf line'"), "")
	ref, queries := inputs()
	_, err := r.Align(context.Background(), ref, queries)
	assert.Error(t, err)
}

func TestNewRunner_Defaults(t *testing.T) {
	r := NewRunner("", "")
	assert.Equal(t, "minimap2", r.Path)
	assert.Empty(t, r.Args)
	assert.Equal(t, DefaultTimeout, r.Timeout)
}
