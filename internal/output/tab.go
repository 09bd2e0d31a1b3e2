package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/postalign/internal/diag"
)

// TabWriter writes diagnostic messages in tab-delimited format.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
	headers map[int]string
}

// NewTabWriter creates a new tab-delimited writer. headers maps sequence
// ids to the header shown in the Sequence column.
func NewTabWriter(w io.Writer, headers map[int]string) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#SeqID",
			"Sequence",
			"Level",
			"Message",
		},
		headers: headers,
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes a single message.
func (tw *TabWriter) Write(m diag.Message) error {
	header := tw.headers[m.SeqID]
	if header == "" {
		header = "-"
	}
	values := []string{
		strconv.Itoa(m.SeqID),
		header,
		m.Level.String(),
		strings.ReplaceAll(m.Text, "\t", " "),
	}
	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// WriteAll writes the header line followed by every message.
func (tw *TabWriter) WriteAll(msgs []diag.Message) error {
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, m := range msgs {
		if err := tw.Write(m); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}
