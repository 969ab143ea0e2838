package inference

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/classlens/engagement-backend-go/internal/models"
)

// ParseTrackingCSV reads the pipeline worker's per-frame output. Columns
// are resolved by header name so the worker can append extra columns
// without breaking the adapter. Required columns: frame, track_id, x1, y1,
// x2, y2, detection_conf, engagement_level, engagement_score.
func ParseTrackingCSV(r io.Reader) ([]models.TrackingRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, name := range []string{
		"frame", "track_id", "x1", "y1", "x2", "y2",
		"detection_conf", "engagement_level", "engagement_score",
	} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var records []models.TrackingRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec, err := parseRow(row, col)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

func parseRow(row []string, col map[string]int) (models.TrackingRecord, error) {
	var rec models.TrackingRecord
	var err error

	intFields := map[string]*int{
		"frame":    &rec.FrameIndex,
		"track_id": &rec.TrackID,
	}
	for name, dst := range intFields {
		*dst, err = strconv.Atoi(row[col[name]])
		if err != nil {
			return rec, fmt.Errorf("column %s: %w", name, err)
		}
	}

	floatFields := map[string]*float64{
		"x1":               &rec.Box.X1,
		"y1":               &rec.Box.Y1,
		"x2":               &rec.Box.X2,
		"y2":               &rec.Box.Y2,
		"detection_conf":   &rec.DetectionConfidence,
		"engagement_score": &rec.EngagementScore,
	}
	for name, dst := range floatFields {
		*dst, err = strconv.ParseFloat(row[col[name]], 64)
		if err != nil {
			return rec, fmt.Errorf("column %s: %w", name, err)
		}
	}

	rec.EngagementLevel = models.EngagementLevel(row[col["engagement_level"]])
	return rec, nil
}
