package store

import (
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/postalign/internal/diag"
)

// WriteMessages batch inserts diagnostic messages for a run.
func (s *Store) WriteMessages(runID int64, msgs []diag.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	return s.appendRows("messages", func(a *goduckdb.Appender) error {
		for _, m := range msgs {
			if err := a.AppendRow(runID, int64(m.SeqID), m.Level.String(), m.Text); err != nil {
				return fmt.Errorf("append message: %w", err)
			}
		}
		return nil
	})
}

// Messages returns the messages of a run at or above minLevel. A
// negative seqID selects every sequence.
func (s *Store) Messages(runID, seqID int64, minLevel diag.Level) ([]diag.Message, error) {
	levels := make([]any, 0, 3)
	for l := minLevel; l <= diag.Error; l++ {
		levels = append(levels, l.String())
	}
	if len(levels) == 0 {
		return nil, nil
	}

	query := `SELECT seq_id, level, message FROM messages WHERE run_id = ? AND level IN (?` +
		repeatPlaceholders(len(levels)-1) + `)`
	args := append([]any{runID}, levels...)
	if seqID >= 0 {
		query += ` AND seq_id = ?`
		args = append(args, seqID)
	}
	query += ` ORDER BY seq_id, rowid`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []diag.Message
	for rows.Next() {
		var id int64
		var level, text string
		if err := rows.Scan(&id, &level, &text); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		lv, err := diag.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		out = append(out, diag.Message{SeqID: int(id), Level: lv, Text: text})
	}
	return out, rows.Err()
}

func repeatPlaceholders(n int) string {
	var b []byte
	for range n {
		b = append(b, ", ?"...)
	}
	return string(b)
}
