// Package paf reads minimap2 PAF records and assembles the partial
// alignments of each query into one reference-relative alignment.
package paf

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/inodb/postalign/internal/sequence"
)

// Strand of a PAF record.
const (
	Forward byte = '+'
	Reverse byte = '-'
)

// Record is one PAF line. Coordinates are 0-based half-open indices.
type Record struct {
	QName    string
	QLen     int
	QStart   int
	QEnd     int
	Strand   byte
	TName    string
	TLen     int
	TStart   int
	TEnd     int
	Matches  int
	BlockLen int
	MapQ     int
	Tags     map[string]Tag
}

// Tag is an optional SAM-like "XX:T:value" field.
type Tag struct {
	Type  byte
	Value string
}

// Cigar returns the value of the cg:Z: tag.
func (r *Record) Cigar() string {
	return r.Tags["cg"].Value
}

// String renders the record as a PAF line.
func (r *Record) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\t%d\t%d\t%d\t%c\t%s\t%d\t%d\t%d\t%d\t%d\t%d",
		r.QName, r.QLen, r.QStart, r.QEnd, r.Strand,
		r.TName, r.TLen, r.TStart, r.TEnd,
		r.Matches, r.BlockLen, r.MapQ)
	for _, key := range sortedTagKeys(r.Tags) {
		t := r.Tags[key]
		fmt.Fprintf(&b, "\t%s:%c:%s", key, t.Type, t.Value)
	}
	return b.String()
}

func sortedTagKeys(tags map[string]Tag) []string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Parser reads records from a PAF file.
type Parser struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
}

// NewParser opens a plain or gzipped PAF file. Use "-" for stdin.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open paf file: %w", err)
	}

	p := &Parser{file: file}

	buf := make([]byte, 2)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		file.Close()
		return nil, fmt.Errorf("read paf header: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek paf file: %w", err)
	}

	// gzip magic number (0x1f, 0x8b)
	if n == 2 && buf[0] == 0x1f && buf[1] == 0x8b {
		p.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReader(p.gzipReader)
	} else {
		p.reader = bufio.NewReader(file)
	}

	return p, nil
}

// NewParserFromReader creates a parser over r.
func NewParserFromReader(r io.Reader) *Parser {
	return &Parser{reader: bufio.NewReader(r)}
}

// Next reads the next record. Returns nil, nil at end of input.
func (p *Parser) Next() (*Record, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("read paf line: %w", err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			if err == io.EOF {
				return nil, nil
			}
			continue
		}
		return p.parseLine(line)
	}
}

func (p *Parser) parseLine(line string) (*Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 12 {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected at least 12 columns, found %d", len(fields)),
		}
	}

	ints := make([]int, 12)
	for _, i := range []int{1, 2, 3, 6, 7, 8, 9, 10, 11} {
		v, err := strconv.Atoi(fields[i])
		if err != nil {
			return nil, &ParseError{
				Line:    p.lineNumber,
				Message: fmt.Sprintf("invalid integer in column %d: %s", i+1, fields[i]),
			}
		}
		ints[i] = v
	}

	if fields[4] != "+" && fields[4] != "-" {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid strand: %s", fields[4]),
		}
	}

	r := &Record{
		QName:    fields[0],
		QLen:     ints[1],
		QStart:   ints[2],
		QEnd:     ints[3],
		Strand:   fields[4][0],
		TName:    fields[5],
		TLen:     ints[6],
		TStart:   ints[7],
		TEnd:     ints[8],
		Matches:  ints[9],
		BlockLen: ints[10],
		MapQ:     ints[11],
		Tags:     make(map[string]Tag),
	}
	if r.QStart > r.QEnd || r.TStart > r.TEnd {
		return nil, &ParseError{Line: p.lineNumber, Message: "start is greater than end"}
	}

	for _, f := range fields[12:] {
		parts := strings.SplitN(f, ":", 3)
		if len(parts) != 3 || len(parts[1]) != 1 {
			return nil, &ParseError{
				Line:    p.lineNumber,
				Message: fmt.Sprintf("invalid tag: %s", f),
			}
		}
		r.Tags[parts[0]] = Tag{Type: parts[1][0], Value: parts[2]}
	}

	return r, nil
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// ParseError represents an error during PAF parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("paf parse error at line %d: %s", e.Line, e.Message)
}

// Index groups records by query name, preserving input order.
type Index map[string][]*Record

// For returns the records of query, matched by header or by sequence id.
func (idx Index) For(query *sequence.Sequence) []*Record {
	if recs, ok := idx[query.Header]; ok {
		return recs
	}
	return idx[strconv.Itoa(query.ID)]
}

// ReadIndex reads every record of p.
func ReadIndex(p *Parser) (Index, error) {
	idx := make(Index)
	for {
		r, err := p.Next()
		if err != nil {
			return nil, err
		}
		if r == nil {
			return idx, nil
		}
		idx[r.QName] = append(idx[r.QName], r)
	}
}
