package pipeline

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classlens/engagement-backend-go/internal/models"
)

func TestWriteTrackingCSV(t *testing.T) {
	records := []models.TrackingRecord{
		{
			FrameIndex:          3,
			TrackID:             1,
			Box:                 models.BoundingBox{X1: 10, Y1: 20, X2: 30, Y2: 60},
			DetectionConfidence: 0.75,
			EngagementLevel:     models.EngagementEngaged,
			EngagementScore:     0.9,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTrackingCSV(&buf, records))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t,
		"frame,track_id,x1,y1,x2,y2,center_x,center_y,box_area,detection_conf,engagement_level,engagement_score",
		lines[0])
	// 20x40 box centered at (20,40)
	assert.Equal(t, "3,1,10,20,30,60,20,40,800,0.75,engaged,0.9", lines[1])
}

func TestWriteTrackingCSV_EmptyStillWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTrackingCSV(&buf, nil))
	assert.True(t, strings.HasPrefix(buf.String(), "frame,track_id,"))
}
