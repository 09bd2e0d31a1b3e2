// Package output provides alignment output formatters.
package output

import (
	"bufio"
	"io"

	"github.com/inodb/postalign/internal/fasta"
	"github.com/inodb/postalign/internal/sequence"
)

// FastaOptions controls FastaWriter.
type FastaOptions struct {
	// Pairwise writes the reference before every query instead of once.
	Pairwise bool
	// PreserveOrder writes the reference where it appeared in the input,
	// i.e. right before the query whose id follows it.
	PreserveOrder bool
	// Modifiers appends the provenance log to headers.
	Modifiers bool
}

// FastaWriter writes processed pairs as FASTA.
type FastaWriter struct {
	w     *bufio.Writer
	opts  FastaOptions
	count int
}

// NewFastaWriter creates a new FASTA writer.
func NewFastaWriter(w io.Writer, opts FastaOptions) *FastaWriter {
	return &FastaWriter{w: bufio.NewWriter(w), opts: opts}
}

// Write writes one pair.
func (fw *FastaWriter) Write(pair sequence.Pair) error {
	idx := fw.count
	fw.count++

	writeRef := fw.opts.Pairwise ||
		(!fw.opts.PreserveOrder && idx == 0) ||
		(fw.opts.PreserveOrder && pair.Ref.ID+1 == pair.Query.ID)
	if writeRef {
		if err := fw.writeSeq(pair.Ref); err != nil {
			return err
		}
	}
	return fw.writeSeq(pair.Query)
}

func (fw *FastaWriter) writeSeq(s *sequence.Sequence) error {
	header := s.Header
	if fw.opts.Modifiers {
		header = s.HeaderWithProvenance()
	}
	return fasta.WriteRecord(fw.w, header, s.Body.Bytes())
}

// Count returns the number of pairs written.
func (fw *FastaWriter) Count() int {
	return fw.count
}

// Flush flushes any buffered data to the underlying writer.
func (fw *FastaWriter) Flush() error {
	return fw.w.Flush()
}
