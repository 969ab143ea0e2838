package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/classlens/engagement-backend-go/internal/models"
)

// WriteTrackingCSV exports the raw per-frame records for download. On top
// of the engine's columns it adds box center and area, which the charts
// use for seating-position plots.
func WriteTrackingCSV(w io.Writer, records []models.TrackingRecord) error {
	cw := csv.NewWriter(w)

	header := []string{
		"frame", "track_id", "x1", "y1", "x2", "y2",
		"center_x", "center_y", "box_area",
		"detection_conf", "engagement_level", "engagement_score",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, rec := range records {
		center := rec.Box.Center()
		row := []string{
			strconv.Itoa(rec.FrameIndex),
			strconv.Itoa(rec.TrackID),
			formatFloat(rec.Box.X1),
			formatFloat(rec.Box.Y1),
			formatFloat(rec.Box.X2),
			formatFloat(rec.Box.Y2),
			formatFloat(center.X),
			formatFloat(center.Y),
			formatFloat(rec.Box.Area()),
			formatFloat(rec.DetectionConfidence),
			string(rec.EngagementLevel),
			formatFloat(rec.EngagementScore),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
