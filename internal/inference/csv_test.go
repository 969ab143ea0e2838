package inference

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classlens/engagement-backend-go/internal/models"
)

const sampleCSV = `frame,track_id,x1,y1,x2,y2,detection_conf,engagement_level,engagement_score
0,1,10.5,20,110.5,220,0.91,engaged,0.88
0,2,300,40,380,200,0.85,high,0.61
1,1,12,22,112,222,0.90,disengaged,0.42
`

func TestParseTrackingCSV(t *testing.T) {
	records, err := ParseTrackingCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, 0, first.FrameIndex)
	assert.Equal(t, 1, first.TrackID)
	assert.Equal(t, models.BoundingBox{X1: 10.5, Y1: 20, X2: 110.5, Y2: 220}, first.Box)
	assert.Equal(t, 0.91, first.DetectionConfidence)
	assert.Equal(t, models.EngagementLevel("engaged"), first.EngagementLevel)
	assert.Equal(t, 0.88, first.EngagementScore)

	// Legacy labels pass through untouched; normalization happens in the
	// aggregator.
	assert.Equal(t, models.EngagementLevel("high"), records[1].EngagementLevel)
}

func TestParseTrackingCSV_HeaderOrderIndependent(t *testing.T) {
	csv := "track_id,frame,engagement_level,engagement_score,detection_conf,x1,y1,x2,y2\n" +
		"5,9,engaged,0.7,0.8,1,2,3,4\n"

	records, err := ParseTrackingCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 9, records[0].FrameIndex)
	assert.Equal(t, 5, records[0].TrackID)
}

func TestParseTrackingCSV_MissingColumn(t *testing.T) {
	csv := "frame,track_id\n0,1\n"

	_, err := ParseTrackingCSV(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing column")
}

func TestParseTrackingCSV_Empty(t *testing.T) {
	records, err := ParseTrackingCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseTrackingCSV_BadValue(t *testing.T) {
	csv := "frame,track_id,x1,y1,x2,y2,detection_conf,engagement_level,engagement_score\n" +
		"zero,1,1,2,3,4,0.5,engaged,0.5\n"

	_, err := ParseTrackingCSV(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
