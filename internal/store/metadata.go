package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Role    string // "reference", "sequences", "paf", ...
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(role, path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Role:    role,
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Run describes one processing run.
type Run struct {
	ID        int64
	StartedAt time.Time
	Command   string
	Pairs     int64
	Inputs    []FileFingerprint
}

// BeginRun records a new run and returns its id.
func (s *Store) BeginRun(command string, inputs []FileFingerprint) (int64, error) {
	var id int64
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(run_id), 0) + 1 FROM runs`).Scan(&id); err != nil {
		return 0, fmt.Errorf("next run id: %w", err)
	}
	if _, err := s.db.Exec(`INSERT INTO runs (run_id, started_at, command, pairs) VALUES (?, ?, ?, 0)`,
		id, time.Now().UTC(), command); err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	for _, in := range inputs {
		if _, err := s.db.Exec(`INSERT INTO run_inputs (run_id, role, path, size, mod_time) VALUES (?, ?, ?, ?, ?)`,
			id, in.Role, in.Path, in.Size, in.ModTime.UTC()); err != nil {
			return 0, fmt.Errorf("insert run input: %w", err)
		}
	}
	return id, nil
}

// FinishRun stores the number of processed pairs.
func (s *Store) FinishRun(runID, pairs int64) error {
	_, err := s.db.Exec(`UPDATE runs SET pairs = ? WHERE run_id = ?`, pairs, runID)
	return err
}

// LatestRun returns the most recent run, or nil if there is none.
func (s *Store) LatestRun() (*Run, error) {
	var r Run
	err := s.db.QueryRow(`SELECT run_id, started_at, command, pairs FROM runs ORDER BY run_id DESC LIMIT 1`).
		Scan(&r.ID, &r.StartedAt, &r.Command, &r.Pairs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest run: %w", err)
	}

	rows, err := s.db.Query(`SELECT role, path, size, mod_time FROM run_inputs WHERE run_id = ? ORDER BY role, path`, r.ID)
	if err != nil {
		return nil, fmt.Errorf("query run inputs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var fp FileFingerprint
		if err := rows.Scan(&fp.Role, &fp.Path, &fp.Size, &fp.ModTime); err != nil {
			return nil, fmt.Errorf("scan run input: %w", err)
		}
		r.Inputs = append(r.Inputs, fp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run inputs: %w", err)
	}
	return &r, nil
}

// InputsChanged reports whether any input differs in size or mtime from
// the same path recorded for run.
func InputsChanged(run *Run, current []FileFingerprint) bool {
	if run == nil || len(run.Inputs) != len(current) {
		return true
	}
	recorded := make(map[string]FileFingerprint, len(run.Inputs))
	for _, fp := range run.Inputs {
		recorded[fp.Role+"\x00"+fp.Path] = fp
	}
	for _, fp := range current {
		old, ok := recorded[fp.Role+"\x00"+fp.Path]
		if !ok || old.Size != fp.Size || !old.ModTime.Truncate(time.Microsecond).Equal(fp.ModTime.Truncate(time.Microsecond)) {
			return true
		}
	}
	return false
}
