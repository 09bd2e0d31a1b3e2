// Package fasta loads FASTA and FASTA-formatted multiple sequence
// alignments into sequences.
package fasta

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/inodb/postalign/internal/position"
	"github.com/inodb/postalign/internal/sequence"
)

// Options controls how records become sequences.
type Options struct {
	Type       position.Type
	RemoveGaps bool
	// Strict rejects records with notations outside the alphabet instead of
	// dropping them.
	Strict bool
}

// Reader reads FASTA records one at a time.
type Reader struct {
	scanner    *bufio.Scanner
	file       *os.File
	gzipReader *gzip.Reader
	opts       Options

	nextID  int
	header  string
	started bool
	done    bool
}

// Open opens a plain or gzipped FASTA file. Use "-" for stdin.
func Open(path string, opts Options) (*Reader, error) {
	if path == "-" {
		return NewReader(os.Stdin, opts), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open FASTA file: %w", err)
	}

	buf := make([]byte, 2)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		file.Close()
		return nil, fmt.Errorf("read FASTA header: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek FASTA file: %w", err)
	}

	var reader io.Reader = file
	var gz *gzip.Reader
	// gzip magic number (0x1f, 0x8b)
	if n == 2 && buf[0] == 0x1f && buf[1] == 0x8b {
		gz, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		reader = gz
	}

	r := NewReader(reader, opts)
	r.file = file
	r.gzipReader = gz
	return r, nil
}

// NewReader creates a reader over r.
func NewReader(r io.Reader, opts Options) *Reader {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for long sequences
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024) // 10MB max line
	return &Reader{scanner: scanner, opts: opts}
}

// Next returns the next non-empty record, numbering them from 1.
// Returns nil, nil at end of input.
func (r *Reader) Next() (*sequence.Sequence, error) {
	if err := r.opts.Type.Check(); err != nil {
		return nil, err
	}
	for !r.done {
		header, body, err := r.scanRecord()
		if err != nil {
			return nil, err
		}
		if header == "" || len(body) == 0 {
			continue
		}
		return r.build(header, body)
	}
	return nil, nil
}

// scanRecord collects lines up to the next header.
func (r *Reader) scanRecord() (string, []byte, error) {
	var body []byte
	for r.scanner.Scan() {
		line := r.scanner.Bytes()
		switch {
		case bytes.HasPrefix(line, []byte(">")):
			if !r.started {
				r.started = true
				r.header = strings.TrimSpace(string(line[1:]))
				body = nil
				continue
			}
			header := r.header
			r.header = strings.TrimSpace(string(line[1:]))
			return header, body, nil
		case bytes.HasPrefix(line, []byte("#")):
			continue
		default:
			body = append(body, bytes.TrimSpace(line)...)
		}
	}
	if err := r.scanner.Err(); err != nil {
		return "", nil, fmt.Errorf("scan FASTA: %w", err)
	}
	r.done = true
	return r.header, body, nil
}

func (r *Reader) build(headerLine string, body []byte) (*sequence.Sequence, error) {
	header, desc, _ := strings.Cut(headerLine, " ")
	desc = strings.TrimSpace(desc)

	clean, err := position.SanitizeBytes(body, header, !r.opts.Strict)
	if err != nil {
		return nil, err
	}
	if r.opts.RemoveGaps {
		clean = bytes.Map(func(c rune) rune {
			if position.IsGapNotation(byte(c)) {
				return -1
			}
			return c
		}, clean)
	}

	r.nextID++
	return sequence.New(header, desc, position.FromBytes(clean, nil), r.nextID, r.opts.Type), nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	if r.gzipReader != nil {
		r.gzipReader.Close()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// ReadAll reads every remaining record.
func (r *Reader) ReadAll() ([]*sequence.Sequence, error) {
	var out []*sequence.Sequence
	for {
		seq, err := r.Next()
		if err != nil {
			return nil, err
		}
		if seq == nil {
			return out, nil
		}
		out = append(out, seq)
	}
}

// Load reads every record of the file at path.
func Load(path string, opts Options) ([]*sequence.Sequence, error) {
	r, err := Open(path, opts)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.ReadAll()
}

// WriteRecord writes one single-line FASTA record.
func WriteRecord(w io.Writer, header string, body []byte) error {
	if _, err := fmt.Fprintf(w, ">%s\n", header); err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
