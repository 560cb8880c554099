package transport

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	apperrors "github.com/GAL1LAO/A2D-Project/internal/errors"
	"github.com/GAL1LAO/A2D-Project/internal/export"
	"github.com/GAL1LAO/A2D-Project/internal/logger"
	"github.com/GAL1LAO/A2D-Project/internal/observer"
	"github.com/GAL1LAO/A2D-Project/internal/publish"
	"github.com/GAL1LAO/A2D-Project/internal/repository"
	"github.com/GAL1LAO/A2D-Project/internal/scheduler"
	"github.com/GAL1LAO/A2D-Project/pkg/models"
)

const (
	maxRequestBodySize = 1 << 20
	latestRunID        = "latest"
)

// CycleRunner starts a batch cycle on demand
type CycleRunner interface {
	RunCycle(ctx context.Context) (*repository.StoredRun, error)
	RunNow(ctx context.Context) (*repository.StoredRun, error)
}

// Deps are the handler dependencies. Cycle and Metrics are optional.
type Deps struct {
	Runs    repository.RunRepository
	Cycle   CycleRunner
	Metrics *observer.MetricsObserver
	// Token, when set, is required as a bearer token on mutating routes.
	Token  string
	Logger logrus.FieldLogger
}

func NewHandler(deps Deps) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	log := logger.OrDefault(deps.Logger)

	r.Use(
		gin.Recovery(),
		requestLogger(log),
		requestSizeLimiter(maxRequestBodySize),
		errorHandler(log),
	)

	r.GET("/health", healthCheck)

	api := r.Group("/api/v1")
	api.GET("/runs/:id", getRun(deps.Runs, log))
	api.GET("/runs/:id/workbook", getWorkbook(deps.Runs, log))
	if deps.Cycle != nil {
		api.POST("/runs", requireToken(deps.Token, log), triggerRun(deps.Cycle, log))
	}
	if deps.Metrics != nil {
		api.GET("/metrics", func(c *gin.Context) {
			c.JSON(http.StatusOK, deps.Metrics.GetMetrics())
		})
	}
	return r
}

func lookupRun(ctx context.Context, runs repository.RunRepository, id string) (*repository.StoredRun, error) {
	if id == latestRunID {
		return runs.LatestRun(ctx)
	}
	return runs.GetRun(ctx, id)
}

func getRun(runs repository.RunRepository, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		run, err := lookupRun(c.Request.Context(), runs, c.Param("id"))
		if err != nil {
			respondError(c, log, runErrorStatus(err), "run lookup failed", err)
			return
		}
		c.JSON(http.StatusOK, run.Artifact.Summary())
	}
}

func getWorkbook(runs repository.RunRepository, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		run, err := lookupRun(c.Request.Context(), runs, c.Param("id"))
		if err != nil {
			respondError(c, log, runErrorStatus(err), "run lookup failed", err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.WorkbookFileName))
		c.Data(http.StatusOK, publish.ContentTypeXLSX, run.Workbook)
	}
}

func triggerRun(cycle CycleRunner, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		force := c.Query("force") == "true"

		var (
			run *repository.StoredRun
			err error
		)
		if force {
			run, err = cycle.RunNow(c.Request.Context())
		} else {
			run, err = cycle.RunCycle(c.Request.Context())
		}

		switch {
		case errors.Is(err, scheduler.ErrCycleInProgress):
			c.JSON(http.StatusConflict, models.TriggerResponse{Error: err.Error()})
			return
		case err != nil:
			respondError(c, log, apperrors.GetStatusCode(err), "batch cycle failed", err)
			return
		}

		resp := models.TriggerResponse{Ran: run != nil}
		if run != nil {
			summary := run.Artifact.Summary()
			resp.Summary = &summary
		}
		log.WithFields(logrus.Fields{
			"force":              force,
			"ran":                resp.Ran,
			"processing_time_ms": time.Since(start).Milliseconds(),
		}).Info("Manual cycle finished")
		c.JSON(http.StatusOK, resp)
	}
}

func runErrorStatus(err error) int {
	if errors.Is(err, repository.ErrRunNotFound) {
		return http.StatusNotFound
	}
	return apperrors.GetStatusCode(err)
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
			"ip":          c.ClientIP(),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("Request handled")
	}
}

func requireToken(token string, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		got := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			respondError(c, log, http.StatusUnauthorized, "unauthorized",
				apperrors.NewUnauthorizedError("missing or invalid bearer token", nil))
			return
		}
		c.Next()
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			respondError(c, log, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, log logrus.FieldLogger, code int, message string, err error) {
	log.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
