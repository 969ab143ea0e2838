package repository

import (
	"database/sql"
	"fmt"

	"github.com/classlens/engagement-backend-go/internal/database"
	"github.com/classlens/engagement-backend-go/internal/models"
)

// VerdictRepository handles database operations for per-student verdicts
type VerdictRepository struct {
	db *sql.DB
}

// NewVerdictRepository creates a new verdict repository
func NewVerdictRepository(db *sql.DB) *VerdictRepository {
	return &VerdictRepository{db: db}
}

// BulkInsert stores all verdicts for a job in one transaction.
func (r *VerdictRepository) BulkInsert(jobID string, verdicts []models.StudentVerdict) error {
	if len(verdicts) == 0 {
		return nil
	}

	return database.Transaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO student_verdicts (
				job_id, track_id, final_engagement, engaged_votes,
				moderate_votes, disengaged_votes, total_frames,
				avg_confidence, vote_percentage
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare verdict insert: %w", err)
		}
		defer stmt.Close()

		for _, v := range verdicts {
			_, err := stmt.Exec(
				jobID,
				v.TrackID,
				string(v.FinalEngagement),
				v.EngagedVotes,
				v.ModerateVotes,
				v.DisengagedVotes,
				v.TotalFrames,
				v.AvgConfidence,
				v.VotePercentage,
			)
			if err != nil {
				return fmt.Errorf("failed to insert verdict for track %d: %w", v.TrackID, err)
			}
		}

		return nil
	})
}

// ListByJob retrieves a job's verdicts ordered by track ID.
func (r *VerdictRepository) ListByJob(jobID string) ([]models.StudentVerdict, error) {
	query := `
		SELECT track_id, final_engagement, engaged_votes, moderate_votes,
			   disengaged_votes, total_frames, avg_confidence, vote_percentage
		FROM student_verdicts
		WHERE job_id = ?
		ORDER BY track_id
	`

	rows, err := r.db.Query(query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list verdicts: %w", err)
	}
	defer rows.Close()

	var verdicts []models.StudentVerdict
	for rows.Next() {
		var v models.StudentVerdict
		var level string
		err := rows.Scan(
			&v.TrackID,
			&level,
			&v.EngagedVotes,
			&v.ModerateVotes,
			&v.DisengagedVotes,
			&v.TotalFrames,
			&v.AvgConfidence,
			&v.VotePercentage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan verdict: %w", err)
		}
		v.FinalEngagement = models.EngagementLevel(level)
		verdicts = append(verdicts, v)
	}

	return verdicts, rows.Err()
}
