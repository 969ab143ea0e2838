package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/classlens/engagement-backend-go/internal/middleware"
	"github.com/classlens/engagement-backend-go/internal/service"
	"github.com/classlens/engagement-backend-go/pkg/response"
)

// VideoHandler handles HTTP requests for video upload and status polling
type VideoHandler struct {
	service *service.JobService
}

// NewVideoHandler creates a new video handler
func NewVideoHandler(service *service.JobService) *VideoHandler {
	return &VideoHandler{service: service}
}

// Upload accepts a classroom video and starts background processing.
// The response is 202; poll GET /api/videos/:id/status for progress.
// POST /api/videos/upload
func (h *VideoHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "Missing video file")
		return
	}

	src, err := file.Open()
	if err != nil {
		response.BadRequest(c, "Unreadable video file")
		return
	}
	defer src.Close()

	job, err := h.service.Submit(middleware.UserID(c), file.Filename, src)
	if err != nil {
		if service.IsValidation(err) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	response.Accepted(c, gin.H{
		"job_id": job.ID,
		"status": job.Status,
	})
}

// Status returns the lifecycle state of one job.
// GET /api/videos/:id/status
func (h *VideoHandler) Status(c *gin.Context) {
	job, err := h.service.GetJob(c.Param("id"), middleware.UserID(c))
	if err != nil {
		response.NotFound(c, "Job not found")
		return
	}

	body := gin.H{
		"job_id": job.ID,
		"status": job.Status,
	}
	if job.ErrorMessage != "" {
		body["error_message"] = job.ErrorMessage
	}

	response.Success(c, body)
}
