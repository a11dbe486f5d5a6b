// Package httpapi is the web surface of the service: the intake form, the
// JSON API and the health endpoints.
package httpapi

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Skufu/leukovision/internal/assessment"
	"github.com/Skufu/leukovision/internal/config"
	"github.com/Skufu/leukovision/pkg/metrics"
)

//go:embed templates/*.html
var templatesFS embed.FS

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Assessor  *assessment.Service
	DB        HealthChecker // nil when the database mirror is disabled
	Metrics   *metrics.Collector
	Log       *zap.Logger
	ModelPath string
}

func NewRouter(cfg *config.Config, deps Deps) *gin.Engine {
	registerFieldNames()

	h := &handler{assessor: deps.Assessor}

	router := gin.New()
	router.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))
	router.Use(
		requestID(),
		requestLogger(deps.Log),
		instrument(deps.Metrics),
		gin.Recovery(),
		limitBodySize(cfg.Server.MaxBodyBytes),
		cors.New(cors.Config{
			AllowOrigins: cfg.CORS.AllowedOrigins,
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", requestIDHeader},
			MaxAge:       cfg.CORS.MaxAge,
		}),
	)

	router.GET("/", h.home)
	router.GET("/assess", h.form)

	limited := rateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.BurstSize)
	router.POST("/assess", limited, h.submitForm)
	router.POST("/api/v1/assessments", limited, h.createAssessment)

	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/readyz", func(c *gin.Context) {
		if deps.DB == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "model": deps.ModelPath, "db": "disabled"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := deps.DB.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"model":  deps.ModelPath,
				"db":     fmt.Sprintf("unhealthy: %v", err),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"model":  deps.ModelPath,
			"db":     "ok",
		})
	})

	return router
}
