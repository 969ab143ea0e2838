package models

import "time"

// JobStatus constants. Transitions are one-directional:
// uploading → processing → completed | failed. Completed and failed are
// terminal; a failed job is resubmitted as a brand-new job, never retried.
const (
	JobStatusUploading  = "uploading"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// MaxErrorMessageLen caps the persisted error message of a failed job.
const MaxErrorMessageLen = 500

// Job represents one video analysis job.
type Job struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`

	// Input
	OriginalFilename string `json:"original_filename" db:"original_filename"`
	InputVideoPath   string `json:"input_video_path,omitempty" db:"input_video_path"`

	// Status
	Status       string `json:"status" db:"status"`
	ErrorMessage string `json:"error_message,omitempty" db:"error_message"`

	// Artifacts
	OutputVideoPath string `json:"output_video_path,omitempty" db:"output_video_path"`
	CSVPath         string `json:"csv_path,omitempty" db:"csv_path"`

	// Class-level results (populated on completion)
	TotalStudents      int     `json:"total_students" db:"total_students"`
	TotalFrames        int     `json:"total_frames" db:"total_frames"`
	TotalDetections    int     `json:"total_detections" db:"total_detections"`
	AvgEngagementScore float64 `json:"avg_engagement_score" db:"avg_engagement_score"`
	DistributionJSON   string  `json:"-" db:"engagement_distribution"`

	// Timing
	ProcessingSeconds float64    `json:"processing_seconds" db:"processing_seconds"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// IsDone reports whether the job reached a terminal state.
func (j *Job) IsDone() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// TruncateError shortens an error message to MaxErrorMessageLen.
func TruncateError(msg string) string {
	if len(msg) > MaxErrorMessageLen {
		return msg[:MaxErrorMessageLen]
	}
	return msg
}
