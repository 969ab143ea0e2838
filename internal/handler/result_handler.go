package handler

import (
	"encoding/json"
	"log"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/classlens/engagement-backend-go/internal/middleware"
	"github.com/classlens/engagement-backend-go/internal/models"
	"github.com/classlens/engagement-backend-go/internal/service"
	"github.com/classlens/engagement-backend-go/internal/storage"
	"github.com/classlens/engagement-backend-go/pkg/response"
)

// ResultHandler serves completed analysis results, history, and deletion
type ResultHandler struct {
	service *service.JobService
	signer  *storage.URLSigner
}

// NewResultHandler creates a new result handler
func NewResultHandler(service *service.JobService, signer *storage.URLSigner) *ResultHandler {
	return &ResultHandler{service: service, signer: signer}
}

// Get returns the full result for one job: class summary, per-student
// verdicts, and signed artifact URLs. A signing failure only omits the
// URL; the result itself is still served.
// GET /api/results/:id
func (h *ResultHandler) Get(c *gin.Context) {
	res, err := h.service.GetResult(c.Param("id"), middleware.UserID(c))
	if err != nil {
		response.NotFound(c, "Job not found")
		return
	}
	job := res.Job

	body := gin.H{
		"job_id":             job.ID,
		"original_filename":  job.OriginalFilename,
		"status":             job.Status,
		"created_at":         job.CreatedAt,
		"completed_at":       job.CompletedAt,
		"processing_seconds": job.ProcessingSeconds,
		"class_summary":      classSummary(job),
		"students":           res.Verdicts,
	}

	if url, ok := h.signedURL(storage.BucketOutputVideos, job.OutputVideoPath); ok {
		body["output_video_url"] = url
	}
	if url, ok := h.signedURL(storage.BucketOutputVideos, job.CSVPath); ok {
		body["csv_download_url"] = url
	}

	response.Success(c, body)
}

// List returns the caller's job history, newest first.
// GET /api/results
func (h *ResultHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil {
		limit = 50
	}

	jobs, err := h.service.ListJobs(middleware.UserID(c), limit)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	items := make([]gin.H, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, gin.H{
			"job_id":                  job.ID,
			"original_filename":       job.OriginalFilename,
			"status":                  job.Status,
			"created_at":              job.CreatedAt,
			"completed_at":            job.CompletedAt,
			"total_students":          job.TotalStudents,
			"avg_engagement_score":    job.AvgEngagementScore,
			"engagement_distribution": distribution(job),
		})
	}

	response.Success(c, gin.H{
		"total": len(items),
		"jobs":  items,
	})
}

// Delete removes a job with its artifacts.
// DELETE /api/results/:id
func (h *ResultHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Param("id"), middleware.UserID(c)); err != nil {
		response.NotFound(c, "Job not found")
		return
	}
	response.Success(c, gin.H{"message": "Job deleted"})
}

// signedURL issues a download URL for a stored blob. Absence of the blob
// or a signing failure degrades to "no URL", never to an error response.
func (h *ResultHandler) signedURL(bucket, key string) (string, bool) {
	if key == "" {
		return "", false
	}
	token, err := h.signer.Sign(bucket, key)
	if err != nil {
		log.Printf("WARN: signing download URL for %s/%s: %v", bucket, key, err)
		return "", false
	}
	return "/api/files/" + token, true
}

func classSummary(job *models.Job) gin.H {
	return gin.H{
		"total_students":          job.TotalStudents,
		"total_frames":            job.TotalFrames,
		"total_detections":        job.TotalDetections,
		"avg_engagement_score":    job.AvgEngagementScore,
		"engagement_distribution": distribution(job),
	}
}

func distribution(job *models.Job) models.EngagementDistribution {
	var dist models.EngagementDistribution
	if job.DistributionJSON != "" {
		if err := json.Unmarshal([]byte(job.DistributionJSON), &dist); err != nil {
			log.Printf("WARN: bad distribution JSON on job %s: %v", job.ID, err)
		}
	}
	return dist
}
