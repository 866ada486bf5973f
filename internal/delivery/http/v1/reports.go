package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (h *handlerImpl) HandleStatusSummary(c *gin.Context) {
	summary, err := h.reports.StatusSummary(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to build status summary")
		abortServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *handlerImpl) HandleOverdueByAssignee(c *gin.Context) {
	grouped, err := h.reports.OverdueTasksByAssignee(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to build overdue report")
		abortServiceError(c, err)
		return
	}

	now := time.Now()
	response := make(map[string][]taskResponse, len(grouped))
	for assignee, tasks := range grouped {
		response[assignee] = newTaskListResponse(tasks, now)
	}
	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleAverageCompletionTime(c *gin.Context) {
	days, err := h.reports.AverageCompletionDays(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to compute average completion time")
		abortServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"average_completion_days": days})
}
