package store

import (
	"database/sql"
	"errors"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/postalign/internal/sequence"
)

// AlignmentRow is one processed reference/query pair as stored.
type AlignmentRow struct {
	SeqID         int64
	Header        string
	Description   string
	RefText       string
	SeqText       string
	RefProvenance string
	SeqProvenance string
	AbsStart      int64
	State         string
}

// RowFromPair flattens a pair into a storable row.
func RowFromPair(pair sequence.Pair, state string) AlignmentRow {
	return AlignmentRow{
		SeqID:         int64(pair.Query.ID),
		Header:        pair.Query.Header,
		Description:   pair.Query.Description,
		RefText:       pair.Ref.String(),
		SeqText:       pair.Query.String(),
		RefProvenance: pair.Ref.Log.String(),
		SeqProvenance: pair.Query.Log.String(),
		AbsStart:      int64(pair.Query.AbsStart),
		State:         state,
	}
}

// WriteAlignments batch inserts rows for a run using the DuckDB Appender.
func (s *Store) WriteAlignments(runID int64, rows []AlignmentRow) error {
	if len(rows) == 0 {
		return nil
	}
	return s.appendRows("alignments", func(a *goduckdb.Appender) error {
		for _, r := range rows {
			if err := a.AppendRow(
				runID, r.SeqID, r.Header, r.Description,
				r.RefText, r.SeqText, r.RefProvenance, r.SeqProvenance,
				r.AbsStart, r.State,
			); err != nil {
				return fmt.Errorf("append alignment %d: %w", r.SeqID, err)
			}
		}
		return nil
	})
}

// LookupAlignment returns the stored row for seqID in a run, or nil if
// the run has no such sequence.
func (s *Store) LookupAlignment(runID, seqID int64) (*AlignmentRow, error) {
	var r AlignmentRow
	err := s.db.QueryRow(`SELECT seq_id, header, description, ref_text, seq_text,
		ref_provenance, seq_provenance, abs_start, state
		FROM alignments WHERE run_id = ? AND seq_id = ?`, runID, seqID).
		Scan(&r.SeqID, &r.Header, &r.Description, &r.RefText, &r.SeqText,
			&r.RefProvenance, &r.SeqProvenance, &r.AbsStart, &r.State)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query alignment: %w", err)
	}
	return &r, nil
}

// AlignmentCount returns the number of alignments stored for a run.
func (s *Store) AlignmentCount(runID int64) (int64, error) {
	var n int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM alignments WHERE run_id = ?`, runID).Scan(&n)
	return n, err
}

// CountByState returns how many alignments of a run ended in each state.
func (s *Store) CountByState(runID int64) (map[string]int64, error) {
	rows, err := s.db.Query(`SELECT state, COUNT(*) FROM alignments WHERE run_id = ? GROUP BY state`, runID)
	if err != nil {
		return nil, fmt.Errorf("query states: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var state string
		var n int64
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		counts[state] = n
	}
	return counts, rows.Err()
}
