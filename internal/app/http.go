package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/mkarpenko/task-tracker/internal/config"
	v1 "github.com/mkarpenko/task-tracker/internal/delivery/http/v1"
	"github.com/mkarpenko/task-tracker/internal/services"
	"github.com/mkarpenko/task-tracker/internal/storage/postgres"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	registerRoutes(router)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// Wait for the interrupt signal to gracefully
	// shut down the server with a timeout of 5 seconds.
	quit := make(chan os.Signal, 1)
	// kill (no params) by default sends syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall.SIGKILL but can't be caught, so don't need to add it
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func registerRoutes(router gin.IRouter) {
	taskStorage := postgres.NewTaskStorage(globalLogger, globalPostgresPool)
	userStorage := postgres.NewUserStorage(globalLogger, globalPostgresPool)
	tagStorage := postgres.NewTagStorage(globalLogger, globalPostgresPool)

	taskService := services.NewTaskService(globalLogger, taskStorage, userStorage, tagStorage)
	userService := services.NewUserService(globalLogger, userStorage)
	reportService := services.NewReportService(globalLogger, taskStorage)

	v1Handler := v1.New(globalLogger, taskService, userService, reportService)

	router = router.Group("/api/v1")
	router.Use(v1Handler.HandleRequestID)

	taskRouter := router.Group("/tasks")
	taskRouter.POST("", v1Handler.HandleCreateTask)
	taskRouter.GET("", v1Handler.HandleGetTasks)
	taskRouter.GET("/overdue", v1Handler.HandleGetOverdueTasks)
	taskRouter.GET("/count-by-status", v1Handler.HandleCountTasksByStatus)
	taskRouter.GET("/:id", v1Handler.HandleGetTask)
	taskRouter.PUT("/:id", v1Handler.HandleUpdateTask)
	taskRouter.PATCH("/:id/status", v1Handler.HandleChangeTaskStatus)
	taskRouter.DELETE("/:id", v1Handler.HandleDeleteTask)

	userRouter := router.Group("/users")
	userRouter.GET("", v1Handler.HandleGetUsers)
	userRouter.POST("", v1Handler.HandleCreateUser)

	reportRouter := router.Group("/reports")
	reportRouter.GET("/status-summary", v1Handler.HandleStatusSummary)
	reportRouter.GET("/overdue-by-assignee", v1Handler.HandleOverdueByAssignee)
	reportRouter.GET("/average-completion-time", v1Handler.HandleAverageCompletionTime)
}
