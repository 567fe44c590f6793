package router

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/redditlink/internal/api/dto"
	"github.com/cuongbtq/redditlink/internal/api/handler"
)

// Options holds router settings that are not handler dependencies
type Options struct {
	ServiceName string
	Version     string
	CORSOrigin  *regexp.Regexp
	StaticDir   string // served for unmatched paths when set

	// HealthChecks are run by GET /health, keyed by the name reported
	HealthChecks map[string]func(ctx context.Context) error
}

const healthCheckTimeout = 3 * time.Second

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies, opts *Options) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware(opts.CORSOrigin))

	r.GET("/health", func(c *gin.Context) {
		resp := dto.HealthResponse{
			Status:  "healthy",
			Service: opts.ServiceName,
			Version: opts.Version,
			Jobs:    deps.Jobs.Len(),
		}
		code := http.StatusOK

		if len(opts.HealthChecks) > 0 {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
			defer cancel()

			resp.Checks = make(map[string]string, len(opts.HealthChecks))
			for name, check := range opts.HealthChecks {
				if err := check(ctx); err != nil {
					deps.Logger.Warn("Health check failed",
						slog.String("check", name),
						slog.String("error", err.Error()),
					)
					resp.Checks[name] = err.Error()
					resp.Status = "unhealthy"
					code = http.StatusServiceUnavailable
					continue
				}
				resp.Checks[name] = "ok"
			}
		}

		c.JSON(code, resp)
	})

	jobHandler := handler.NewJobHandler(deps)

	// POST /info - media metadata, no download
	r.POST("/info", jobHandler.Info)

	// POST /download - create a download job
	r.POST("/download", jobHandler.CreateDownload)

	// GET /progress/:job_id - server-sent progress stream
	r.GET("/progress/:job_id", jobHandler.Progress)

	// GET /file/:job_id - fetch the finished file once
	r.GET("/file/:job_id", jobHandler.File)

	if deps.History != nil {
		historyHandler := handler.NewHistoryHandler(deps)

		// GET /history - finished jobs, newest first
		r.GET("/history", historyHandler.ListHistory)
	}

	if opts.StaticDir != "" {
		fs := http.FileServer(http.Dir(opts.StaticDir))
		r.NoRoute(gin.WrapH(fs))
	}

	return r
}
