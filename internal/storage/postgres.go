/**
 * PostgreSQL persistence for the schedule worker.
 *
 * Stores extraction jobs (status, outcome, timing) and the shift rows each
 * completed job produced. The extraction core itself holds no state; this is
 * the only durable record of a run.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/shiftlens/schedule-worker/internal/extract"
)

// PostgresClient handles database operations.
type PostgresClient struct {
	db *sql.DB
}

// JobUpdate represents a job status update.
type JobUpdate struct {
	JobID            string
	PersonName       string
	Status           string
	ShiftsFound      int
	ProcessingTimeMs int64
	ErrorCode        string
	ErrorMessage     string
	Metadata         map[string]interface{}
}

// ShiftRecord is a stored shift row.
type ShiftRecord struct {
	ID         string
	JobID      string
	PersonName string
	ShiftDate  time.Time
	StartsAt   time.Time
	EndsAt     time.Time
	SourceText string
}

// NewPostgresClient creates a new PostgreSQL client.
func NewPostgresClient(databaseURL string) (*PostgresClient, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{db: db}, nil
}

// UpdateJobStatus upserts a job record. The worker may see a job before the
// API created its row, so the first status update creates it. Metadata merges
// into the existing column rather than replacing it; the completion update
// must not wipe what earlier transitions stored (the detection dump in
// particular).
func (p *PostgresClient) UpdateJobStatus(ctx context.Context, update *JobUpdate) error {
	if update.JobID == "" {
		return fmt.Errorf("job ID is required")
	}
	if update.Status == "" {
		return fmt.Errorf("status is required")
	}

	metadataJSON, err := json.Marshal(update.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO schedule.extraction_jobs (
			id, person_name, status, shifts_found, processing_time_ms,
			error_code, error_message, metadata, created_at, updated_at
		) VALUES (
			$1::uuid, COALESCE(NULLIF($2, ''), 'unknown'), $3,
			NULLIF($4, 0), NULLIF($5, 0),
			NULLIF($6, ''), NULLIF($7, ''),
			COALESCE($8::jsonb, '{}'::jsonb),
			NOW(), NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			person_name = COALESCE(NULLIF(EXCLUDED.person_name, 'unknown'), schedule.extraction_jobs.person_name),
			shifts_found = COALESCE(EXCLUDED.shifts_found, schedule.extraction_jobs.shifts_found),
			processing_time_ms = COALESCE(EXCLUDED.processing_time_ms, schedule.extraction_jobs.processing_time_ms),
			error_code = NULLIF(EXCLUDED.error_code, ''),
			error_message = NULLIF(EXCLUDED.error_message, ''),
			metadata = COALESCE(schedule.extraction_jobs.metadata, '{}'::jsonb) || EXCLUDED.metadata,
			updated_at = NOW()
		RETURNING id
	`

	var returnedID string
	err = p.db.QueryRowContext(
		ctx,
		query,
		update.JobID,
		update.PersonName,
		update.Status,
		update.ShiftsFound,
		update.ProcessingTimeMs,
		update.ErrorCode,
		update.ErrorMessage,
		metadataJSON,
	).Scan(&returnedID)

	if err == sql.ErrNoRows {
		return fmt.Errorf("job not found: %s", update.JobID)
	}
	if err != nil {
		return fmt.Errorf("failed to update job status (job=%s, status=%s): %w",
			update.JobID, update.Status, err)
	}

	return nil
}

// StoreShifts replaces the stored shift rows for a job with the given set.
// Re-running a job must not duplicate its shifts.
func (p *PostgresClient) StoreShifts(ctx context.Context, jobID, personName string, shifts []extract.ShiftCandidate) error {
	if jobID == "" {
		return fmt.Errorf("job ID is required")
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM schedule.shifts WHERE job_id = $1::uuid`, jobID); err != nil {
		return fmt.Errorf("failed to clear previous shifts: %w", err)
	}

	insert := `
		INSERT INTO schedule.shifts (
			id, job_id, person_name, shift_date, starts_at, ends_at, source_text, created_at
		) VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7, NOW())
	`
	for _, s := range shifts {
		if _, err := tx.ExecContext(ctx, insert,
			uuid.New().String(), jobID, personName,
			s.Date, s.Start, s.End, s.SourceText,
		); err != nil {
			return fmt.Errorf("failed to insert shift (start=%s): %w", s.Start, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit shifts: %w", err)
	}
	return nil
}

// GetShiftsByJob returns the stored shifts for a job, ordered by start time.
func (p *PostgresClient) GetShiftsByJob(ctx context.Context, jobID string) ([]ShiftRecord, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job ID is required")
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT id, job_id, person_name, shift_date, starts_at, ends_at, source_text
		FROM schedule.shifts
		WHERE job_id = $1::uuid
		ORDER BY starts_at
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	defer rows.Close()

	var shifts []ShiftRecord
	for rows.Next() {
		var s ShiftRecord
		if err := rows.Scan(&s.ID, &s.JobID, &s.PersonName, &s.ShiftDate, &s.StartsAt, &s.EndsAt, &s.SourceText); err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		shifts = append(shifts, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read shifts: %w", err)
	}
	return shifts, nil
}

// GetJobByID retrieves a job by ID.
func (p *PostgresClient) GetJobByID(ctx context.Context, jobID string) (map[string]interface{}, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job ID is required")
	}

	query := `
		SELECT id, person_name, status, shifts_found, processing_time_ms,
		       error_code, error_message, metadata, created_at, updated_at
		FROM schedule.extraction_jobs
		WHERE id = $1::uuid
	`

	var (
		id, personName, status     string
		shiftsFound                sql.NullInt64
		processingTimeMs           sql.NullInt64
		errorCode, errorMessage    sql.NullString
		metadataJSON               []byte
		createdAt, updatedAt       time.Time
	)

	err := p.db.QueryRowContext(ctx, query, jobID).Scan(
		&id, &personName, &status, &shiftsFound, &processingTimeMs,
		&errorCode, &errorMessage, &metadataJSON, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	var metadata map[string]interface{}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	result := map[string]interface{}{
		"id":         id,
		"personName": personName,
		"status":     status,
		"createdAt":  createdAt,
		"updatedAt":  updatedAt,
		"metadata":   metadata,
	}
	if shiftsFound.Valid {
		result["shiftsFound"] = shiftsFound.Int64
	}
	if processingTimeMs.Valid {
		result["processingTimeMs"] = processingTimeMs.Int64
	}
	if errorCode.Valid {
		result["errorCode"] = errorCode.String
	}
	if errorMessage.Valid {
		result["errorMessage"] = errorMessage.String
	}

	return result, nil
}

// Ping checks database connectivity.
func (p *PostgresClient) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database connection.
func (p *PostgresClient) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// GetStats returns connection pool statistics.
func (p *PostgresClient) GetStats() sql.DBStats {
	return p.db.Stats()
}
