// Package analysis implements majority-vote engagement aggregation over
// raw per-frame tracking records.
package analysis

import (
	"math"
	"sort"

	"github.com/classlens/engagement-backend-go/internal/models"
)

// trackTally accumulates one track's votes in a single pass.
type trackTally struct {
	votes       map[models.EngagementLevel]int
	totalFrames int
	scoreSum    float64
}

// Aggregate reduces raw tracking records to per-student verdicts and a
// class-level summary. Pure and deterministic: verdicts are sorted by
// ascending track ID, and vote ties are resolved by models.TiePriority.
//
// Records whose engagement label normalizes to neither the canonical set
// nor the legacy high/medium/low naming are dropped entirely — they
// contribute to no votes, no frame counts, and no detection totals.
//
// An empty input yields an empty verdict slice and an all-zero summary.
func Aggregate(records []models.TrackingRecord) ([]models.StudentVerdict, models.ClassSummary) {
	tallies := make(map[int]*trackTally)
	frames := make(map[int]struct{})

	var detections int
	var scoreSum float64

	for _, rec := range records {
		level, ok := models.NormalizeEngagement(string(rec.EngagementLevel))
		if !ok {
			continue
		}

		t := tallies[rec.TrackID]
		if t == nil {
			t = &trackTally{votes: make(map[models.EngagementLevel]int)}
			tallies[rec.TrackID] = t
		}
		t.votes[level]++
		t.totalFrames++
		t.scoreSum += rec.EngagementScore

		frames[rec.FrameIndex] = struct{}{}
		detections++
		scoreSum += rec.EngagementScore
	}

	trackIDs := make([]int, 0, len(tallies))
	for id := range tallies {
		trackIDs = append(trackIDs, id)
	}
	sort.Ints(trackIDs)

	verdicts := make([]models.StudentVerdict, 0, len(trackIDs))
	for _, id := range trackIDs {
		verdicts = append(verdicts, verdict(id, tallies[id]))
	}

	return verdicts, summarize(verdicts, frames, detections, scoreSum)
}

// verdict decides one track's final engagement by majority vote.
func verdict(trackID int, t *trackTally) models.StudentVerdict {
	maxVotes := 0
	for _, n := range t.votes {
		if n > maxVotes {
			maxVotes = n
		}
	}

	// Tie-break on exact integer counts: first level in priority order
	// that holds the maximum wins.
	final := models.EngagementDisengaged
	for _, level := range models.TiePriority {
		if t.votes[level] == maxVotes {
			final = level
			break
		}
	}

	return models.StudentVerdict{
		TrackID:         trackID,
		FinalEngagement: final,
		EngagedVotes:    t.votes[models.EngagementEngaged],
		ModerateVotes:   t.votes[models.EngagementModerate],
		DisengagedVotes: t.votes[models.EngagementDisengaged],
		TotalFrames:     t.totalFrames,
		AvgConfidence:   round4(t.scoreSum / float64(t.totalFrames)),
		VotePercentage:  round2(float64(maxVotes) / float64(t.totalFrames) * 100),
	}
}

// summarize computes the class-level summary. The distribution counts each
// student once by final verdict; frame and detection totals come from the
// raw records.
func summarize(verdicts []models.StudentVerdict, frames map[int]struct{}, detections int, scoreSum float64) models.ClassSummary {
	total := len(verdicts)
	if total == 0 {
		return models.ClassSummary{}
	}

	var engaged, moderate, disengaged int
	for _, v := range verdicts {
		switch v.FinalEngagement {
		case models.EngagementEngaged:
			engaged++
		case models.EngagementModerate:
			moderate++
		case models.EngagementDisengaged:
			disengaged++
		}
	}

	return models.ClassSummary{
		TotalStudents:      total,
		TotalFrames:        len(frames),
		TotalDetections:    detections,
		AvgEngagementScore: round4(scoreSum / float64(detections)),
		Distribution: models.EngagementDistribution{
			Engaged:    round4(float64(engaged) / float64(total)),
			Moderate:   round4(float64(moderate) / float64(total)),
			Disengaged: round4(float64(disengaged) / float64(total)),
		},
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
