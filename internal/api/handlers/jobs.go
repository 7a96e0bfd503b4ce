package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/courtedge/prop-engine/internal/services"
)

// JobsHandler exposes scheduled job state and the ingest trigger.
type JobsHandler struct {
	ingest    *services.IngestService
	scheduler *services.SchedulerService
	logger    *logrus.Logger
}

func NewJobsHandler(ingest *services.IngestService, scheduler *services.SchedulerService, logger *logrus.Logger) *JobsHandler {
	return &JobsHandler{
		ingest:    ingest,
		scheduler: scheduler,
		logger:    logger,
	}
}

// GetJobs returns the scheduler's job snapshot.
func (h *JobsHandler) GetJobs(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusOK, gin.H{"scheduler_enabled": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"scheduler_enabled": true,
		"jobs":              h.scheduler.Jobs(),
	})
}

// TriggerIngest ingests box scores for ?date= (default yesterday).
func (h *JobsHandler) TriggerIngest(c *gin.Context) {
	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	date, err := parseDateParam(c.DefaultQuery("date", ""), yesterday)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	summary, err := h.ingest.IngestDate(c.Request.Context(), date)
	if err != nil {
		h.logger.WithError(err).Error("Ingest run failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ingest run failed"})
		return
	}
	c.JSON(http.StatusOK, summary)
}
