package models

// StudentVerdict is the majority-vote outcome for one tracked student.
// Derived entirely from a job's TrackingRecords; recomputed fresh per job.
type StudentVerdict struct {
	TrackID         int             `json:"track_id" db:"track_id"`
	FinalEngagement EngagementLevel `json:"final_engagement" db:"final_engagement"`
	EngagedVotes    int             `json:"engaged_votes" db:"engaged_votes"`
	ModerateVotes   int             `json:"moderate_votes" db:"moderate_votes"`
	DisengagedVotes int             `json:"disengaged_votes" db:"disengaged_votes"`
	TotalFrames     int             `json:"total_frames" db:"total_frames"`
	AvgConfidence   float64         `json:"avg_confidence" db:"avg_confidence"`   // 4-decimal rounding
	VotePercentage  float64         `json:"vote_percentage" db:"vote_percentage"` // 2-decimal rounding
}

// EngagementDistribution holds the fraction of students per final level.
// Fractions sum to 1.0 when the class is non-empty.
type EngagementDistribution struct {
	Engaged    float64 `json:"engaged"`
	Moderate   float64 `json:"moderately_engaged"`
	Disengaged float64 `json:"disengaged"`
}

// ClassSummary aggregates one job's results at class level.
//
// TotalFrames counts distinct frame indices (a frame with several detected
// persons counts once); TotalDetections is the raw record count;
// AvgEngagementScore averages over raw records, not per-student verdicts.
type ClassSummary struct {
	TotalStudents      int                    `json:"total_students" db:"total_students"`
	TotalFrames        int                    `json:"total_frames" db:"total_frames"`
	TotalDetections    int                    `json:"total_detections" db:"total_detections"`
	AvgEngagementScore float64                `json:"avg_engagement_score" db:"avg_engagement_score"`
	Distribution       EngagementDistribution `json:"engagement_distribution"`
}
