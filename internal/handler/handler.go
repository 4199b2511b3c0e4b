package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"contact-form-service-go/internal/pipeline"
	"contact-form-service-go/internal/scheduler"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	db        *gorm.DB
	pipeline  *pipeline.Service
	scheduler *scheduler.Scheduler
}

// NewHandlers creates new HTTP handlers. db and scheduler may be nil in
// email-only mode; the message admin routes are only registered when a
// database is present.
func NewHandlers(db *gorm.DB, p *pipeline.Service, s *scheduler.Scheduler) *Handlers {
	return &Handlers{
		db:        db,
		pipeline:  p,
		scheduler: s,
	}
}

// SetupRoutes sets up all HTTP routes
func (h *Handlers) SetupRoutes(router *gin.Engine) {
	router.GET("/healthz", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/contact", h.SubmitContact)
	router.GET("/contact/verify/:token", h.VerifyContact)

	if h.db != nil {
		api := router.Group("/api/v1")
		{
			api.GET("/messages", h.GetMessages)
			api.GET("/messages/:id", h.GetMessage)
			api.DELETE("/messages/:id", h.DeleteMessage)
		}
	}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Database:  "ok",
		Details:   make(map[string]string),
	}

	if h.db != nil {
		if err := h.db.Raw("SELECT 1").Error; err != nil {
			response.Status = "error"
			response.Database = "error"
			logrus.Errorf("Database health check failed: %v", err)
		}
	} else {
		response.Database = "disabled"
	}

	if h.scheduler != nil && h.scheduler.IsRunning() {
		response.Details["retention"] = "running"
		response.Details["next_run"] = h.scheduler.GetNextRun().Format(time.RFC3339)
		response.Details["last_run"] = h.scheduler.GetLastRun().Format(time.RFC3339)
	} else {
		response.Details["retention"] = "stopped"
	}

	statusCode := http.StatusOK
	if response.Status == "error" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}
