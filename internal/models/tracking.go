package models

import "github.com/golang/geo/r2"

// EngagementLevel is the per-frame classifier output for one detected person.
type EngagementLevel string

// Canonical engagement levels
const (
	EngagementEngaged    EngagementLevel = "engaged"
	EngagementModerate   EngagementLevel = "moderately-engaged"
	EngagementDisengaged EngagementLevel = "disengaged"
)

// TiePriority is the fixed ordering used to resolve vote ties: when two or
// more levels share the maximum count, the earliest entry wins.
var TiePriority = []EngagementLevel{
	EngagementEngaged,
	EngagementModerate,
	EngagementDisengaged,
}

// legacyLevels maps class names from older model artifacts to the
// canonical convention.
var legacyLevels = map[string]EngagementLevel{
	"high":   EngagementEngaged,
	"medium": EngagementModerate,
	"low":    EngagementDisengaged,
}

// NormalizeEngagement maps a raw classifier label to a canonical level.
// Returns false for labels that match neither the canonical set nor the
// legacy high/medium/low naming; callers must not aggregate such records.
func NormalizeEngagement(raw string) (EngagementLevel, bool) {
	switch EngagementLevel(raw) {
	case EngagementEngaged, EngagementModerate, EngagementDisengaged:
		return EngagementLevel(raw), true
	}
	if level, ok := legacyLevels[raw]; ok {
		return level, true
	}
	return "", false
}

// BoundingBox is a detection box in pixel coordinates, (X1,Y1) top-left
// and (X2,Y2) bottom-right.
type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Rect converts the box to an r2 rectangle.
func (b BoundingBox) Rect() r2.Rect {
	return r2.RectFromPoints(
		r2.Point{X: b.X1, Y: b.Y1},
		r2.Point{X: b.X2, Y: b.Y2},
	)
}

// Center returns the box midpoint.
func (b BoundingBox) Center() r2.Point {
	return b.Rect().Center()
}

// Area returns the box area in square pixels.
func (b BoundingBox) Area() float64 {
	size := b.Rect().Size()
	return size.X * size.Y
}

// TrackingRecord is one detection of one person in one frame, as produced
// by the inference engine. Records are immutable for the duration of a job.
type TrackingRecord struct {
	FrameIndex          int             `json:"frame"`
	TrackID             int             `json:"track_id"`
	Box                 BoundingBox     `json:"box"`
	DetectionConfidence float64         `json:"detection_conf"`
	EngagementLevel     EngagementLevel `json:"engagement_level"`
	EngagementScore     float64         `json:"engagement_score"`
}
