package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/classlens/engagement-backend-go/internal/analysis"
	"github.com/classlens/engagement-backend-go/internal/config"
	"github.com/classlens/engagement-backend-go/internal/models"
	"github.com/classlens/engagement-backend-go/internal/pipeline"
	"github.com/classlens/engagement-backend-go/internal/repository"
	"github.com/classlens/engagement-backend-go/internal/storage"
)

// JobService drives the job lifecycle:
// uploading → processing → completed | failed. Submit validates and stages
// the upload synchronously, then hands off to a goroutine; callers poll
// status. Nothing is retried — a failed job is resubmitted as a new one.
type JobService struct {
	cfg      *config.Config
	jobs     *repository.JobRepository
	verdicts *repository.VerdictRepository
	manager  *pipeline.Manager
	blobs    storage.BlobStore

	wg sync.WaitGroup
}

// NewJobService creates a new job service
func NewJobService(
	cfg *config.Config,
	jobs *repository.JobRepository,
	verdicts *repository.VerdictRepository,
	manager *pipeline.Manager,
	blobs storage.BlobStore,
) *JobService {
	return &JobService{
		cfg:      cfg,
		jobs:     jobs,
		verdicts: verdicts,
		manager:  manager,
		blobs:    blobs,
	}
}

// Result bundles everything the results surface returns for one job.
type Result struct {
	Job      *models.Job
	Verdicts []models.StudentVerdict
}

// Submit validates and stages an upload, stores the original video,
// creates the job row, and starts asynchronous processing. Returns the
// accepted job immediately; a *ValidationError means no job was created.
func (s *JobService) Submit(userID, filename string, src io.Reader) (*models.Job, error) {
	if !ValidateExtension(filename, s.cfg.AllowedExtensions) {
		return nil, &ValidationError{
			Message: fmt.Sprintf("unsupported file type, allowed: %v", s.cfg.AllowedExtensions),
		}
	}

	jobID := uuid.NewString()

	stagingDir, inputPath, err := stageUpload(s.cfg.TempDir, jobID, filename, src, s.cfg.MaxVideoBytes)
	if err != nil {
		return nil, err
	}

	inputKey := path.Join(userID, jobID, filepath.Base(inputPath))
	if err := s.blobs.Save(storage.BucketInputVideos, inputKey, inputPath); err != nil {
		cleanupStaging(stagingDir)
		return nil, fmt.Errorf("failed to store uploaded video: %w", err)
	}

	job := &models.Job{
		ID:               jobID,
		UserID:           userID,
		OriginalFilename: filename,
		InputVideoPath:   inputKey,
		Status:           models.JobStatusUploading,
	}
	if err := s.jobs.Create(job); err != nil {
		cleanupStaging(stagingDir)
		if derr := s.blobs.Delete(storage.BucketInputVideos, inputKey); derr != nil {
			log.Printf("WARN: removing stored input %s: %v", inputKey, derr)
		}
		return nil, err
	}

	s.wg.Add(1)
	go s.run(jobID, userID, stagingDir, inputPath)

	return job, nil
}

// run is the asynchronous execution unit for one job. Every exit path
// removes the staging directory, and any panic is converted into a failed
// job rather than crashing the process.
func (s *JobService) run(jobID, userID, stagingDir, inputPath string) {
	defer s.wg.Done()
	defer cleanupStaging(stagingDir)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Job %s panicked: %v", jobID, r)
			s.fail(jobID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	if err := s.jobs.MarkAsProcessing(jobID); err != nil {
		log.Printf("Job %s: %v", jobID, err)
		s.fail(jobID, err.Error())
		return
	}

	outputPath := filepath.Join(stagingDir, "output.mp4")
	res, err := s.manager.Process(context.Background(), inputPath, outputPath)
	if err != nil {
		log.Printf("Job %s: pipeline failed: %v", jobID, err)
		s.fail(jobID, err.Error())
		return
	}

	// Zero records is a business failure, not a crash.
	if len(res.Records) == 0 {
		log.Printf("Job %s: no persons detected", jobID)
		s.fail(jobID, "No persons detected in video.")
		return
	}

	verdicts, summary := analysis.Aggregate(res.Records)

	csvPath := filepath.Join(stagingDir, "tracking_data.csv")
	if err := writeExport(csvPath, res.Records); err != nil {
		log.Printf("Job %s: %v", jobID, err)
		s.fail(jobID, err.Error())
		return
	}

	videoKey := path.Join(userID, jobID, "output.mp4")
	csvKey := path.Join(userID, jobID, "tracking_data.csv")

	if err := s.blobs.Save(storage.BucketOutputVideos, videoKey, res.VideoPath); err != nil {
		log.Printf("Job %s: storing annotated video: %v", jobID, err)
		s.fail(jobID, fmt.Sprintf("failed to store annotated video: %v", err))
		return
	}
	if err := s.blobs.Save(storage.BucketOutputVideos, csvKey, csvPath); err != nil {
		log.Printf("Job %s: storing tracking data: %v", jobID, err)
		s.fail(jobID, fmt.Sprintf("failed to store tracking data: %v", err))
		return
	}

	// Verdicts first: the job may only turn completed once its results
	// are durably stored.
	if err := s.verdicts.BulkInsert(jobID, verdicts); err != nil {
		log.Printf("Job %s: %v", jobID, err)
		s.fail(jobID, err.Error())
		return
	}
	if err := s.jobs.MarkAsCompleted(jobID, videoKey, csvKey, summary, res.Elapsed); err != nil {
		log.Printf("Job %s: %v", jobID, err)
		s.fail(jobID, err.Error())
		return
	}

	log.Printf("Job %s completed: %d students, %.1fs", jobID, summary.TotalStudents, res.Elapsed.Seconds())
}

// fail records a terminal failure; persistence errors here can only be
// logged, never propagated.
func (s *JobService) fail(jobID, message string) {
	if err := s.jobs.MarkAsFailed(jobID, message); err != nil {
		log.Printf("Job %s: could not record failure: %v", jobID, err)
	}
}

// writeExport saves the enriched per-frame CSV next to the staged input.
func writeExport(csvPath string, records []models.TrackingRecord) error {
	f, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create tracking export: %w", err)
	}
	defer f.Close()

	if err := pipeline.WriteTrackingCSV(f, records); err != nil {
		return fmt.Errorf("failed to write tracking export: %w", err)
	}
	return f.Close()
}

// GetJob fetches a job owned by userID. Missing and foreign jobs are both
// reported as not found.
func (s *JobService) GetJob(jobID, userID string) (*models.Job, error) {
	job, err := s.jobs.GetByID(jobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, repository.ErrJobNotFound
	}
	return job, nil
}

// GetResult fetches a job with its per-student verdicts.
func (s *JobService) GetResult(jobID, userID string) (*Result, error) {
	job, err := s.GetJob(jobID, userID)
	if err != nil {
		return nil, err
	}

	verdicts, err := s.verdicts.ListByJob(jobID)
	if err != nil {
		return nil, err
	}

	return &Result{Job: job, Verdicts: verdicts}, nil
}

// ListJobs returns the user's jobs, newest first.
func (s *JobService) ListJobs(userID string, limit int) ([]*models.Job, error) {
	return s.jobs.ListByUser(userID, limit)
}

// Delete removes a job's blobs (best-effort) and rows.
func (s *JobService) Delete(jobID, userID string) error {
	job, err := s.GetJob(jobID, userID)
	if err != nil {
		return err
	}

	for _, blob := range []struct{ bucket, key string }{
		{storage.BucketInputVideos, job.InputVideoPath},
		{storage.BucketOutputVideos, job.OutputVideoPath},
		{storage.BucketOutputVideos, job.CSVPath},
	} {
		if blob.key == "" {
			continue
		}
		if err := s.blobs.Delete(blob.bucket, blob.key); err != nil {
			log.Printf("WARN: deleting blob %s/%s: %v", blob.bucket, blob.key, err)
		}
	}

	if _, err := s.jobs.Delete(jobID, userID); err != nil {
		return err
	}
	return nil
}

// Wait blocks until all in-flight jobs finish. Used on shutdown and in
// tests.
func (s *JobService) Wait() {
	s.wg.Wait()
}
