package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classlens/engagement-backend-go/internal/inference"
	"github.com/classlens/engagement-backend-go/internal/models"
)

// fakeEngine simulates the non-reentrant inference pipeline.
type fakeEngine struct {
	ready   bool
	delay   time.Duration
	records []models.TrackingRecord
	err     error
	panics  bool

	mu    sync.Mutex
	spans [][2]time.Time // wall-clock start/end of each Infer call
}

func (e *fakeEngine) Ready() bool { return e.ready }

func (e *fakeEngine) Infer(ctx context.Context, inputPath, outputPath string) ([]models.TrackingRecord, error) {
	start := time.Now()
	if e.panics {
		panic("tracker state corrupted")
	}
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	// Produce the artifact like the real worker does.
	os.WriteFile(outputPath, []byte("video"), 0o644)

	e.mu.Lock()
	e.spans = append(e.spans, [2]time.Time{start, time.Now()})
	e.mu.Unlock()

	return e.records, e.err
}

func someRecords() []models.TrackingRecord {
	return []models.TrackingRecord{
		{FrameIndex: 0, TrackID: 1, EngagementLevel: models.EngagementEngaged, EngagementScore: 0.9},
	}
}

func TestProcess_NotReady(t *testing.T) {
	m := NewManager(&fakeEngine{ready: false}, "ffmpeg")

	_, err := m.Process(context.Background(), "in.mp4", "out.mp4")
	assert.ErrorIs(t, err, inference.ErrNotReady)
}

func TestProcess_Success(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "output.mp4")
	// Binary name that cannot exist: forces the re-encode fallback.
	m := NewManager(&fakeEngine{ready: true, records: someRecords()}, "ffmpeg-does-not-exist")

	res, err := m.Process(context.Background(), filepath.Join(dir, "input.mp4"), out)
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
	assert.Equal(t, out, res.VideoPath, "fallback must return the original artifact")
	assert.Greater(t, res.Elapsed, time.Duration(0))
}

func TestProcess_InferenceError(t *testing.T) {
	m := NewManager(&fakeEngine{ready: true, err: assert.AnError}, "ffmpeg")

	_, err := m.Process(context.Background(), "in.mp4", "out.mp4")
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestProcess_PanicBecomesError(t *testing.T) {
	m := NewManager(&fakeEngine{ready: true, panics: true}, "ffmpeg")

	_, err := m.Process(context.Background(), "in.mp4", "out.mp4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestProcess_SingleFlight(t *testing.T) {
	engine := &fakeEngine{ready: true, delay: 50 * time.Millisecond, records: someRecords()}
	m := NewManager(engine, "ffmpeg-does-not-exist")
	dir := t.TempDir()

	const callers = 4
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out := filepath.Join(dir, "out", "output.mp4")
			os.MkdirAll(filepath.Dir(out), 0o755)
			_, err := m.Process(context.Background(), "in.mp4", out)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	require.Len(t, engine.spans, callers)
	for i := 0; i < len(engine.spans); i++ {
		for j := i + 1; j < len(engine.spans); j++ {
			a, b := engine.spans[i], engine.spans[j]
			overlap := a[0].Before(b[1]) && b[0].Before(a[1])
			assert.False(t, overlap, "Infer calls %d and %d overlapped", i, j)
		}
	}
}
