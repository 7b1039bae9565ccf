package datastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/coreybb/readings/models"
)

// ErrAssignmentNotFound is returned when no reading is assigned to a date key.
var ErrAssignmentNotFound = errors.New("reading assignment not found")

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const createAssignmentsTable = `
	CREATE TABLE IF NOT EXISTS reading_assignments (
		date_key   TEXT PRIMARY KEY,
		assignment TEXT NOT NULL
	)
`

var positionalParam = regexp.MustCompile(`\$\d+`)

// AssignmentRepository reads and writes reading assignments stored as JSON
// records keyed by date key. It behaves like a key-value namespace: one row
// per key, one read per lookup.
type AssignmentRepository struct {
	db     *sql.DB
	driver string
}

// NewAssignmentRepository creates a new AssignmentRepository. driver selects
// the placeholder style and must be DriverPostgres or DriverSQLite.
func NewAssignmentRepository(db *sql.DB, driver string) *AssignmentRepository {
	return &AssignmentRepository{db: db, driver: driver}
}

// EnsureSchema creates the reading_assignments table if it does not exist.
func (r *AssignmentRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createAssignmentsTable); err != nil {
		return fmt.Errorf("failed to create reading_assignments table: %w", err)
	}
	return nil
}

// rebind rewrites $N placeholders to ? for SQLite.
func (r *AssignmentRepository) rebind(query string) string {
	if r.driver == DriverSQLite {
		return positionalParam.ReplaceAllString(query, "?")
	}
	return query
}

// GetAssignment retrieves the assignment for dateKey.
func (r *AssignmentRepository) GetAssignment(ctx context.Context, dateKey string) (*models.ReadingAssignment, error) {
	query := r.rebind(`SELECT assignment FROM reading_assignments WHERE date_key = $1`)

	var raw string
	err := r.db.QueryRowContext(ctx, query, dateKey).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment for %q: %w", dateKey, err)
	}

	var assignment models.ReadingAssignment
	if err := json.Unmarshal([]byte(raw), &assignment); err != nil {
		return nil, fmt.Errorf("failed to decode assignment for %q: %w", dateKey, err)
	}
	return &assignment, nil
}

// PutAssignment inserts or replaces the assignment for dateKey.
func (r *AssignmentRepository) PutAssignment(ctx context.Context, dateKey string, assignment models.ReadingAssignment) error {
	if dateKey == "" {
		return fmt.Errorf("date key cannot be empty")
	}
	if assignment.OT == "" || assignment.NT == "" {
		return fmt.Errorf("assignment for %q needs both OT and NT references", dateKey)
	}

	raw, err := json.Marshal(assignment)
	if err != nil {
		return fmt.Errorf("failed to encode assignment for %q: %w", dateKey, err)
	}

	query := r.rebind(`
		INSERT INTO reading_assignments (date_key, assignment)
		VALUES ($1, $2)
		ON CONFLICT (date_key) DO UPDATE SET assignment = excluded.assignment
	`)
	if _, err := r.db.ExecContext(ctx, query, dateKey, string(raw)); err != nil {
		return fmt.Errorf("failed to upsert assignment for %q: %w", dateKey, err)
	}
	return nil
}

// CountAssignments returns the number of stored assignments.
func (r *AssignmentRepository) CountAssignments(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reading_assignments`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count assignments: %w", err)
	}
	return n, nil
}
