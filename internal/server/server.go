package server

import (
	"context"
	"net/http"
	"time"

	"github.com/atmodecor/tally/internal/config"
	obsmiddleware "github.com/atmodecor/tally/internal/observability/logger"
	obsmetrics "github.com/atmodecor/tally/internal/observability/metrics"
	sessiondomain "github.com/atmodecor/tally/internal/session/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(Register),
	fx.Invoke(Run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	sessionSvc sessiondomain.Service
	obsMetrics *obsmetrics.Metrics
	log        *zap.Logger
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	SessionSvc sessiondomain.Service
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
	Log        *zap.Logger
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		sessionSvc: p.SessionSvc,
		obsMetrics: p.ObsMetrics,
		log:        p.Log.Named("server"),
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Register wires the API routes onto the engine.
func Register(s *Server) {
	v1 := s.engine.Group("/v1")

	v1.POST("/session", s.StartDay)
	v1.GET("/session", s.GetSummary)
	v1.POST("/session/reset", s.ResetSession)

	v1.POST("/orders", s.CreateOrder)
	v1.POST("/orders/text", s.CreateOrderFromText)
}

func Run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
