package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/classlens/engagement-backend-go/internal/config"
	"github.com/classlens/engagement-backend-go/internal/handler"
	"github.com/classlens/engagement-backend-go/internal/middleware"
	"github.com/classlens/engagement-backend-go/internal/pipeline"
	"github.com/classlens/engagement-backend-go/internal/service"
	"github.com/classlens/engagement-backend-go/internal/storage"
)

// SetupRouter wires middleware, handlers, and routes.
func SetupRouter(
	cfg *config.Config,
	jobService *service.JobService,
	manager *pipeline.Manager,
	blobs storage.BlobStore,
	signer *storage.URLSigner,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Large uploads spill to temp files beyond this buffer; the size
	// ceiling itself is enforced during staging.
	r.MaxMultipartMemory = 32 << 20

	videoHandler := handler.NewVideoHandler(jobService)
	resultHandler := handler.NewResultHandler(jobService, signer)
	fileHandler := handler.NewFileHandler(blobs, signer)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":        "ok",
			"models_loaded": manager.Ready(),
		})
	})

	// Signed downloads carry their own credential
	r.GET("/api/files/:token", fileHandler.Download)

	uploadLimiter := middleware.NewRateLimiter(10, time.Minute)

	api := r.Group("/api", middleware.Auth(cfg.JWTSecret))
	{
		videos := api.Group("/videos")
		{
			videos.POST("/upload", uploadLimiter.Middleware(), videoHandler.Upload)
			videos.GET("/:id/status", videoHandler.Status)
		}

		results := api.Group("/results")
		{
			results.GET("", resultHandler.List)
			results.GET("/:id", resultHandler.Get)
			results.DELETE("/:id", resultHandler.Delete)
		}
	}

	return r
}
