package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/krau/plantclassifier/config"
	"github.com/krau/plantclassifier/engine"
	"github.com/krau/plantclassifier/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	cfg        config.Config
	engine     *engine.Engine
	classifier *service.Classifier
}

func New(cfg config.Config, e *engine.Engine, c *service.Classifier) *Server {
	return &Server{cfg: cfg, engine: e, classifier: c}
}

// Router builds the HTTP surface.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.CustomRecovery(recoverJSON), metricsMiddleware())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
	}))
	r.SetHTMLTemplate(pages)

	r.GET("/", s.StatusHandler)
	r.GET("/home", s.StatusHandler)
	r.GET("/predict", s.PredictPageHandler)
	r.POST("/predict", s.authenticate, s.PredictHandler)
	r.GET("/health", s.HealthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

func recoverJSON(c *gin.Context, recovered any) {
	slog.Error("Recovered from panic", slog.Any("panic", recovered), slog.String("path", c.Request.URL.Path))
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": errInternal})
}
