package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mkarpenko/task-tracker/internal/services"
)

type Handler interface {
	HandleCreateTask(c *gin.Context)
	HandleGetTasks(c *gin.Context)
	HandleGetTask(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleChangeTaskStatus(c *gin.Context)
	HandleDeleteTask(c *gin.Context)
	HandleGetOverdueTasks(c *gin.Context)
	HandleCountTasksByStatus(c *gin.Context)

	HandleGetUsers(c *gin.Context)
	HandleCreateUser(c *gin.Context)

	HandleStatusSummary(c *gin.Context)
	HandleOverdueByAssignee(c *gin.Context)
	HandleAverageCompletionTime(c *gin.Context)

	HandleRequestID(c *gin.Context)
}

type handlerImpl struct {
	logger  zerolog.Logger
	tasks   services.TaskService
	users   services.UserService
	reports services.ReportService
}

func New(
	logger zerolog.Logger,
	taskService services.TaskService,
	userService services.UserService,
	reportService services.ReportService,
) Handler {
	return &handlerImpl{
		logger:  logger,
		tasks:   taskService,
		users:   userService,
		reports: reportService,
	}
}
