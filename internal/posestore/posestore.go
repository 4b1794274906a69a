// Package posestore persists estimated trajectories to SQLite so runs
// can be compared and replotted after the fact.
package posestore

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/fieldsense/lidarodom/internal/odom"
)

type Store struct {
	*sql.DB
}

// schema.sql defines the runs and poses tables.
//
//go:embed schema.sql
var schemaSQL string

// Open creates or opens a trajectory database at path and applies the
// schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, err
	}

	log.Println("[posestore] initialized trajectory database schema")

	return &Store{db}, nil
}

// Run describes one recorded odometry run.
type Run struct {
	ID         string
	StartedAt  time.Time
	Dataset    string
	ConfigJSON string
}

// CreateRun registers a new run and returns its generated ID.
func (s *Store) CreateRun(dataset, configJSON string) (string, error) {
	runID := uuid.NewString()
	query := `
		INSERT INTO runs (run_id, started_unix_nanos, dataset, config_json)
		VALUES (?, ?, ?, ?)
	`
	if _, err := s.Exec(query, runID, time.Now().UnixNano(), dataset, configJSON); err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}
	return runID, nil
}

// InsertPose stores the estimated pose for one frame of a run.
func (s *Store) InsertPose(runID string, frameIdx int, ts time.Time, pose odom.Transform) error {
	query := `
		INSERT INTO poses (run_id, frame_idx, unix_nanos,
			r00, r01, r02, r10, r11, r12, r20, r21, r22, tx, ty, tz)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.Exec(query, runID, frameIdx, ts.UnixNano(),
		pose[0], pose[1], pose[2],
		pose[4], pose[5], pose[6],
		pose[8], pose[9], pose[10],
		pose[3], pose[7], pose[11])
	if err != nil {
		return fmt.Errorf("failed to insert pose for frame %d: %w", frameIdx, err)
	}
	return nil
}

// Poses returns the trajectory of a run in frame order.
func (s *Store) Poses(runID string) ([]odom.Transform, error) {
	query := `
		SELECT r00, r01, r02, r10, r11, r12, r20, r21, r22, tx, ty, tz
		FROM poses WHERE run_id = ? ORDER BY frame_idx
	`
	rows, err := s.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query poses: %w", err)
	}
	defer rows.Close()

	var out []odom.Transform
	for rows.Next() {
		pose := odom.Identity()
		err := rows.Scan(
			&pose[0], &pose[1], &pose[2],
			&pose[4], &pose[5], &pose[6],
			&pose[8], &pose[9], &pose[10],
			&pose[3], &pose[7], &pose[11])
		if err != nil {
			return nil, fmt.Errorf("failed to scan pose: %w", err)
		}
		out = append(out, pose)
	}
	return out, rows.Err()
}

// Runs lists all recorded runs, most recent first.
func (s *Store) Runs() ([]Run, error) {
	query := `
		SELECT run_id, started_unix_nanos, dataset, config_json
		FROM runs ORDER BY started_unix_nanos DESC
	`
	rows, err := s.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var startedNanos int64
		if err := rows.Scan(&r.ID, &startedNanos, &r.Dataset, &r.ConfigJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = time.Unix(0, startedNanos)
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestRun returns the most recently started run.
func (s *Store) LatestRun() (Run, error) {
	runs, err := s.Runs()
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, fmt.Errorf("no runs recorded")
	}
	return runs[0], nil
}
