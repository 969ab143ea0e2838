package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/classlens/engagement-backend-go/internal/models"
)

// ErrJobNotFound is returned when a job ID does not exist.
var ErrJobNotFound = fmt.Errorf("job not found")

// JobRepository handles database operations for analysis jobs
type JobRepository struct {
	db *sql.DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new job row in the uploading state.
func (r *JobRepository) Create(job *models.Job) error {
	query := `
		INSERT INTO jobs (
			id, user_id, original_filename, input_video_path, status
		) VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		job.ID,
		job.UserID,
		job.OriginalFilename,
		job.InputVideoPath,
		job.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

const jobColumns = `
	id, user_id, original_filename, input_video_path, status, error_message,
	output_video_path, csv_path, total_students, total_frames,
	total_detections, avg_engagement_score, engagement_distribution,
	processing_seconds, created_at, completed_at
`

// GetByID retrieves a job by ID
func (r *JobRepository) GetByID(id string) (*models.Job, error) {
	query := "SELECT " + jobColumns + " FROM jobs WHERE id = ?"
	job, err := scanJob(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// ListByUser retrieves a user's jobs, newest first.
func (r *JobRepository) ListByUser(userID string, limit int) ([]*models.Job, error) {
	if limit <= 0 {
		limit = 50
	}

	query := "SELECT " + jobColumns + ` FROM jobs
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`

	rows, err := r.db.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

// MarkAsProcessing transitions a job out of uploading. Terminal states are
// never overwritten.
func (r *JobRepository) MarkAsProcessing(id string) error {
	query := `
		UPDATE jobs
		SET status = ?
		WHERE id = ? AND status = ?
	`

	res, err := r.db.Exec(query, models.JobStatusProcessing, id, models.JobStatusUploading)
	if err != nil {
		return fmt.Errorf("failed to mark job as processing: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark job as processing: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("job %s is not awaiting processing", id)
	}

	return nil
}

// MarkAsCompleted finalizes a successful job with its artifacts and
// class summary.
func (r *JobRepository) MarkAsCompleted(id string, videoPath, csvPath string, summary models.ClassSummary, elapsed time.Duration) error {
	distJSON, err := json.Marshal(summary.Distribution)
	if err != nil {
		return fmt.Errorf("failed to serialize distribution: %w", err)
	}

	query := `
		UPDATE jobs
		SET status = ?, output_video_path = ?, csv_path = ?,
			total_students = ?, total_frames = ?, total_detections = ?,
			avg_engagement_score = ?, engagement_distribution = ?,
			processing_seconds = ?, completed_at = ?
		WHERE id = ? AND status NOT IN (?, ?)
	`

	_, err = r.db.Exec(query,
		models.JobStatusCompleted,
		videoPath,
		csvPath,
		summary.TotalStudents,
		summary.TotalFrames,
		summary.TotalDetections,
		summary.AvgEngagementScore,
		string(distJSON),
		elapsed.Seconds(),
		time.Now().UTC(),
		id,
		models.JobStatusCompleted,
		models.JobStatusFailed,
	)
	if err != nil {
		return fmt.Errorf("failed to mark job as completed: %w", err)
	}

	return nil
}

// MarkAsFailed records a terminal failure with a truncated message. A job
// already in a terminal state is left untouched.
func (r *JobRepository) MarkAsFailed(id string, errorMessage string) error {
	if errorMessage == "" {
		errorMessage = "unknown error"
	}

	query := `
		UPDATE jobs
		SET status = ?, error_message = ?, completed_at = ?
		WHERE id = ? AND status NOT IN (?, ?)
	`

	_, err := r.db.Exec(query,
		models.JobStatusFailed,
		models.TruncateError(errorMessage),
		time.Now().UTC(),
		id,
		models.JobStatusCompleted,
		models.JobStatusFailed,
	)
	if err != nil {
		return fmt.Errorf("failed to mark job as failed: %w", err)
	}

	return nil
}

// FailStale marks every non-terminal job as failed. Called once at
// startup: a job still in uploading or processing at boot was orphaned by
// a restart and can never finish.
func (r *JobRepository) FailStale(message string) (int64, error) {
	query := `
		UPDATE jobs
		SET status = ?, error_message = ?, completed_at = ?
		WHERE status IN (?, ?)
	`

	res, err := r.db.Exec(query,
		models.JobStatusFailed,
		models.TruncateError(message),
		time.Now().UTC(),
		models.JobStatusUploading,
		models.JobStatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to fail stale jobs: %w", err)
	}

	return res.RowsAffected()
}

// Delete removes a job owned by the given user. Student verdicts cascade.
func (r *JobRepository) Delete(id, userID string) (bool, error) {
	res, err := r.db.Exec("DELETE FROM jobs WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete job: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete job: %w", err)
	}
	return n > 0, nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanJob.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(s scanner) (*models.Job, error) {
	job := &models.Job{}
	var completedAt sql.NullTime

	err := s.Scan(
		&job.ID,
		&job.UserID,
		&job.OriginalFilename,
		&job.InputVideoPath,
		&job.Status,
		&job.ErrorMessage,
		&job.OutputVideoPath,
		&job.CSVPath,
		&job.TotalStudents,
		&job.TotalFrames,
		&job.TotalDetections,
		&job.AvgEngagementScore,
		&job.DistributionJSON,
		&job.ProcessingSeconds,
		&job.CreatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	return job, nil
}
