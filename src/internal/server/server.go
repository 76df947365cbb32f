package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carecircle-activity-svc/src/clients"
	"carecircle-activity-svc/src/internal/config"
	"carecircle-activity-svc/src/internal/dependency"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var log = logrus.StandardLogger()

type Server struct {
	cfg        *config.Configuration
	deps       *dependency.Manager
	httpServer *http.Server
}

// New connects the backing stores and builds the dependency graph. MongoDB
// and Redis are required; without RabbitMQ the service runs with publishing
// disabled.
func New(cfg *config.Configuration) *Server {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	mongodb, err := clients.NewMongoDB(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("MongoDB is required")
	}

	redisClient, err := clients.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.WithError(err).Fatal("Redis is required")
	}

	rabbitMQ, err := clients.NewRabbitMQ(&cfg.Queue)
	if err != nil {
		log.WithError(err).Warn("RabbitMQ unavailable, event publishing disabled")
		rabbitMQ = nil
	} else if err := rabbitMQ.SetupExchange(); err != nil {
		log.WithError(err).Warn("Failed to declare exchange, event publishing disabled")
		_ = rabbitMQ.Close()
		rabbitMQ = nil
	}

	router := gin.New()
	router.Use(gin.Recovery())

	deps := dependency.NewDependencyManager(router, mongodb, redisClient, rabbitMQ, cfg)
	SetupRoutes(deps)

	return &Server{
		cfg:  cfg,
		deps: deps,
		httpServer: &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      router,
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
			IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		},
	}
}

// Start serves until SIGINT or SIGTERM, then drains requests, stops the
// analytics poller and closes the backing connections.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go s.deps.AnalyticsPoller.Run(ctx)

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("HTTP server listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			s.closeClients()
			return err
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}

	s.closeClients()
	log.Info("Server stopped")
	return err
}

func (s *Server) closeClients() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if s.deps.RabbitMQ != nil {
		_ = s.deps.RabbitMQ.Close()
	}
	_ = s.deps.Redis.Close()
	_ = s.deps.Mongodb.Close(ctx)
}
