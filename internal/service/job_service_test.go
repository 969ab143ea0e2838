package service

import (
	"context"
	"database/sql"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classlens/engagement-backend-go/internal/config"
	"github.com/classlens/engagement-backend-go/internal/database"
	"github.com/classlens/engagement-backend-go/internal/models"
	"github.com/classlens/engagement-backend-go/internal/pipeline"
	"github.com/classlens/engagement-backend-go/internal/repository"
	"github.com/classlens/engagement-backend-go/internal/storage"
)

// stubEngine lets tests script the inference outcome and optionally hold
// the single-flight mutex open via block.
type stubEngine struct {
	records []models.TrackingRecord
	err     error
	block   chan struct{} // when non-nil, Infer waits until closed
}

func (e *stubEngine) Ready() bool { return true }

func (e *stubEngine) Infer(ctx context.Context, inputPath, outputPath string) ([]models.TrackingRecord, error) {
	if e.block != nil {
		<-e.block
	}
	if e.err != nil {
		return nil, e.err
	}
	if err := os.WriteFile(outputPath, []byte("annotated"), 0o644); err != nil {
		return nil, err
	}
	return e.records, nil
}

func testService(t *testing.T, engine *stubEngine) (*JobService, *config.Config) {
	t.Helper()
	svc, cfg, _ := testServiceDB(t, engine)
	return svc, cfg
}

func testServiceDB(t *testing.T, engine *stubEngine) (*JobService, *config.Config, *sql.DB) {
	t.Helper()

	base := t.TempDir()
	cfg := &config.Config{
		DBPath:            filepath.Join(base, "test.db"),
		MaxVideoBytes:     1 << 20,
		AllowedExtensions: []string{".mp4", ".avi"},
		TempDir:           filepath.Join(base, "temp"),
		BlobDir:           filepath.Join(base, "blobs"),
		FFmpegBin:         "ffmpeg-does-not-exist", // force re-encode fallback
	}

	db, err := database.Open(database.Config{Path: cfg.DBPath})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	blobs, err := storage.NewDiskStore(cfg.BlobDir)
	require.NoError(t, err)

	svc := NewJobService(
		cfg,
		repository.NewJobRepository(db),
		repository.NewVerdictRepository(db),
		pipeline.NewManager(engine, cfg.FFmpegBin),
		blobs,
	)
	return svc, cfg, db
}

func classroomRecords() []models.TrackingRecord {
	return []models.TrackingRecord{
		{FrameIndex: 0, TrackID: 1, EngagementLevel: "engaged", EngagementScore: 0.9},
		{FrameIndex: 1, TrackID: 1, EngagementLevel: "engaged", EngagementScore: 0.8},
		{FrameIndex: 0, TrackID: 2, EngagementLevel: "disengaged", EngagementScore: 0.3},
	}
}

func waitTerminal(t *testing.T, svc *JobService, jobID, userID string) *models.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := svc.GetJob(jobID, userID)
		require.NoError(t, err)
		if job.IsDone() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal state")
	return nil
}

func TestSubmit_RejectsBadExtension(t *testing.T) {
	svc, _ := testService(t, &stubEngine{})

	_, err := svc.Submit("user-1", "slides.pdf", strings.NewReader("data"))
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestSubmit_RejectsOversizeUpload(t *testing.T) {
	svc, cfg := testService(t, &stubEngine{})

	big := strings.NewReader(strings.Repeat("x", int(cfg.MaxVideoBytes)+1))
	_, err := svc.Submit("user-1", "class.mp4", big)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	// A rejected upload leaves no staging dirs behind.
	entries, _ := os.ReadDir(cfg.TempDir)
	assert.Empty(t, entries)
}

func TestSubmit_CompletesJob(t *testing.T) {
	svc, cfg := testService(t, &stubEngine{records: classroomRecords()})

	job, err := svc.Submit("user-1", "class.mp4", strings.NewReader("videodata"))
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusUploading, job.Status)

	done := waitTerminal(t, svc, job.ID, "user-1")
	svc.Wait()

	assert.Equal(t, models.JobStatusCompleted, done.Status)
	assert.Equal(t, 2, done.TotalStudents)
	assert.Equal(t, 2, done.TotalFrames)
	assert.Equal(t, 3, done.TotalDetections)
	assert.NotNil(t, done.CompletedAt)
	assert.Greater(t, done.ProcessingSeconds, 0.0)

	res, err := svc.GetResult(job.ID, "user-1")
	require.NoError(t, err)
	require.Len(t, res.Verdicts, 2)
	assert.Equal(t, models.EngagementEngaged, res.Verdicts[0].FinalEngagement)
	assert.Equal(t, models.EngagementDisengaged, res.Verdicts[1].FinalEngagement)

	// Staging dir is gone, artifacts are in the blob store.
	assert.NoDirExists(t, filepath.Join(cfg.TempDir, job.ID))
	for _, key := range []string{done.OutputVideoPath, done.CSVPath} {
		blob, _, err := svc.blobs.Open(storage.BucketOutputVideos, key)
		require.NoError(t, err, "artifact %s must exist", key)
		blob.Close()
	}
}

func TestSubmit_ZeroRecordsFailsJob(t *testing.T) {
	svc, cfg := testService(t, &stubEngine{records: nil})

	job, err := svc.Submit("user-1", "empty-room.mp4", strings.NewReader("videodata"))
	require.NoError(t, err)

	done := waitTerminal(t, svc, job.ID, "user-1")
	svc.Wait()

	assert.Equal(t, models.JobStatusFailed, done.Status)
	assert.Equal(t, "No persons detected in video.", done.ErrorMessage)
	assert.NoDirExists(t, filepath.Join(cfg.TempDir, job.ID))
}

func TestSubmit_InferenceErrorFailsJob(t *testing.T) {
	svc, cfg := testService(t, &stubEngine{err: assert.AnError})

	job, err := svc.Submit("user-1", "class.mp4", strings.NewReader("videodata"))
	require.NoError(t, err)

	done := waitTerminal(t, svc, job.ID, "user-1")
	svc.Wait()

	assert.Equal(t, models.JobStatusFailed, done.Status)
	assert.NotEmpty(t, done.ErrorMessage)
	assert.NoDirExists(t, filepath.Join(cfg.TempDir, job.ID))
}

func TestSubmit_VerdictStoreFailureFailsJob(t *testing.T) {
	svc, _, db := testServiceDB(t, &stubEngine{records: classroomRecords()})

	// Verdict storage rejecting writes must not leave the job completed
	// with no results.
	_, err := db.Exec(`CREATE TRIGGER verdict_store_down
		BEFORE INSERT ON student_verdicts
		BEGIN SELECT RAISE(ABORT, 'verdict store unavailable'); END`)
	require.NoError(t, err)

	job, err := svc.Submit("user-1", "class.mp4", strings.NewReader("videodata"))
	require.NoError(t, err)

	done := waitTerminal(t, svc, job.ID, "user-1")
	svc.Wait()

	assert.Equal(t, models.JobStatusFailed, done.Status)
	assert.Contains(t, done.ErrorMessage, "verdict store unavailable")

	res, err := svc.GetResult(job.ID, "user-1")
	require.NoError(t, err)
	assert.Empty(t, res.Verdicts)
}

func TestSubmit_CreateFailureRemovesStoredInput(t *testing.T) {
	svc, cfg, db := testServiceDB(t, &stubEngine{records: classroomRecords()})
	require.NoError(t, db.Close())

	_, err := svc.Submit("user-1", "class.mp4", strings.NewReader("videodata"))
	require.Error(t, err)

	entries, _ := os.ReadDir(cfg.TempDir)
	assert.Empty(t, entries)

	var blobs []string
	filepath.WalkDir(cfg.BlobDir, func(p string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			blobs = append(blobs, p)
		}
		return nil
	})
	assert.Empty(t, blobs, "rejected upload must not leave stored blobs")
}

func TestSubmit_ConcurrentJobsQueueBehindPipeline(t *testing.T) {
	engine := &stubEngine{records: classroomRecords(), block: make(chan struct{})}
	svc, _ := testService(t, engine)

	jobA, err := svc.Submit("user-1", "a.mp4", strings.NewReader("videodata"))
	require.NoError(t, err)
	jobB, err := svc.Submit("user-1", "b.mp4", strings.NewReader("videodata"))
	require.NoError(t, err)

	// While A holds the execution mutex, B must sit in processing —
	// neither failed nor dropped.
	require.Eventually(t, func() bool {
		a, err := svc.GetJob(jobA.ID, "user-1")
		require.NoError(t, err)
		b, err := svc.GetJob(jobB.ID, "user-1")
		require.NoError(t, err)
		return a.Status == models.JobStatusProcessing && b.Status == models.JobStatusProcessing
	}, 5*time.Second, 10*time.Millisecond)

	close(engine.block)
	svc.Wait()

	for _, id := range []string{jobA.ID, jobB.ID} {
		job, err := svc.GetJob(id, "user-1")
		require.NoError(t, err)
		assert.Equal(t, models.JobStatusCompleted, job.Status)
	}
}

func TestGetJob_ScopedToOwner(t *testing.T) {
	svc, _ := testService(t, &stubEngine{records: classroomRecords()})

	job, err := svc.Submit("user-1", "class.mp4", strings.NewReader("videodata"))
	require.NoError(t, err)
	svc.Wait()

	_, err = svc.GetJob(job.ID, "intruder")
	assert.ErrorIs(t, err, repository.ErrJobNotFound)
}

func TestDelete_RemovesJobAndArtifacts(t *testing.T) {
	svc, _ := testService(t, &stubEngine{records: classroomRecords()})

	job, err := svc.Submit("user-1", "class.mp4", strings.NewReader("videodata"))
	require.NoError(t, err)
	done := waitTerminal(t, svc, job.ID, "user-1")
	svc.Wait()

	require.NoError(t, svc.Delete(job.ID, "user-1"))

	_, err = svc.GetJob(job.ID, "user-1")
	assert.ErrorIs(t, err, repository.ErrJobNotFound)

	_, _, err = svc.blobs.Open(storage.BucketOutputVideos, done.OutputVideoPath)
	assert.Error(t, err)
}
