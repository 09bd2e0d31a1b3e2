// Package minimap2 aligns queries against a reference by running the
// minimap2 executable and parsing its PAF output.
package minimap2

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/inodb/postalign/internal/fasta"
	"github.com/inodb/postalign/internal/paf"
	"github.com/inodb/postalign/internal/sequence"
)

// DefaultTimeout bounds a single minimap2 invocation.
const DefaultTimeout = 300 * time.Second

// Runner invokes minimap2.
type Runner struct {
	Path    string   // executable, "minimap2" when empty
	Args    []string // extra arguments placed before -c
	Timeout time.Duration

	logger *zap.Logger
}

// NewRunner creates a runner for the given executable and extra options.
func NewRunner(path, opts string) *Runner {
	if path == "" {
		path = "minimap2"
	}
	return &Runner{
		Path:    path,
		Args:    strings.Fields(opts),
		Timeout: DefaultTimeout,
		logger:  zap.NewNop(),
	}
}

// SetLogger sets the logger for command output.
func (r *Runner) SetLogger(logger *zap.Logger) {
	r.logger = logger
}

// Align writes ref and queries to a temporary directory, runs
// "minimap2 -c target.fa query.fa" and returns the records indexed by
// query name. Queries are written as ">ID HEADER DESC" so record names
// are sequence ids.
func (r *Runner) Align(ctx context.Context, ref *sequence.Sequence, queries []*sequence.Sequence) (paf.Index, error) {
	dir, err := os.MkdirTemp("", "postalign-minimap2-")
	if err != nil {
		return nil, fmt.Errorf("create minimap2 work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	target := filepath.Join(dir, "target.fa")
	if err := writeFASTA(target, func(w *bufio.Writer) error {
		return fasta.WriteRecord(w, ref.HeaderDesc(), ref.Body.RemoveGaps().Bytes())
	}); err != nil {
		return nil, err
	}
	query := filepath.Join(dir, "query.fa")
	if err := writeFASTA(query, func(w *bufio.Writer) error {
		for _, q := range queries {
			header := strconv.Itoa(q.ID) + " " + q.HeaderDesc()
			if err := fasta.WriteRecord(w, header, q.Body.RemoveGaps().Bytes()); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	out, err := r.run(ctx, target, query)
	if err != nil {
		return nil, err
	}
	return paf.ReadIndex(paf.NewParserFromReader(bytes.NewReader(out)))
}

func (r *Runner) run(ctx context.Context, target, query string) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	args := append(append([]string{}, r.Args...), "-c", target, query)
	cmd := exec.CommandContext(ctx, r.Path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	start := time.Now()
	err := cmd.Run()
	r.logger.Debug("minimap2 finished",
		zap.String("path", r.Path),
		zap.Strings("args", args),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("stdout_bytes", stdout.Len()))

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("minimap2 timed out after %s", r.Timeout)
		}
		return nil, fmt.Errorf("error happened during executing minimap2: %w: %s",
			err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func writeFASTA(path string, fn func(w *bufio.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	w := bufio.NewWriter(f)
	if err := fn(w); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
