package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/spk-docs/doctracker/handlers"
	"github.com/spk-docs/doctracker/internal/auth"
	"github.com/spk-docs/doctracker/internal/config"
	"github.com/spk-docs/doctracker/internal/document/handler"
	"github.com/spk-docs/doctracker/internal/document/repository"
	"github.com/spk-docs/doctracker/internal/document/service"
	"github.com/spk-docs/doctracker/internal/document/state"
	"github.com/spk-docs/doctracker/internal/export"
	"github.com/spk-docs/doctracker/internal/rpc"
	"github.com/spk-docs/doctracker/internal/storage"
	"github.com/spk-docs/doctracker/pkg/logger"
	"github.com/spk-docs/doctracker/pkg/metrics"
	"github.com/spk-docs/doctracker/pkg/middleware"
)

func serveCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	started := time.Now()
	logger.Infof("config loaded: backend=%s slot=%s keycloak=%v redis=%v minio=%v",
		cfg.Backend.Mode, cfg.Local.Slot, cfg.Keycloak.URL != "", cfg.Redis.Host != "", cfg.Storage.Endpoint != "")

	gw, closeGateway, err := service.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeGateway()

	ctrl := state.NewController(gw, state.WithDefaultGroup(defaultGroup(cfg)))
	if err := ctrl.Load(ctx); err != nil {
		// keep serving; /ready reports the backend and reload retries
		logger.Warnf("initial load failed: %v", err)
	}

	verifier, err := auth.NewVerifier(ctx, cfg)
	if err != nil {
		return err
	}

	var exporter *export.Exporter
	if mc := storage.ConfigFrom(cfg.Storage); mc != nil {
		store, err := storage.NewMinIOStorage(ctx, mc)
		if err != nil {
			logger.Warnf("export storage unavailable: %v", err)
		} else {
			exporter = export.NewExporter(store, export.Labels{
				DirectorName: cfg.Documents.DirectorName,
				Departments:  cfg.Documents.Departments,
			}, mc.URLExpiry)
		}
	}

	dispatcher := rpc.NewDispatcher()
	repository.RegisterProcedures(dispatcher, ctrl.Backend())

	if cfg.Server.NATSURL != "" {
		nc, err := nats.Connect(cfg.Server.NATSURL, nats.Name(appName+"-server"))
		if err != nil {
			return err
		}
		defer nc.Close()
		sub, err := rpc.ServeNATS(nc, cfg.Server.NATSSubject, dispatcher)
		if err != nil {
			return err
		}
		defer func() { _ = sub.Unsubscribe() }()
		logger.Infof("serving procedures on NATS subject %s.*", cfg.Server.NATSSubject)
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), cors())

	var limiterRedis *redis.Client
	var limit gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && cfg.RedisAddr() != "" {
			limiterRedis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
			defer limiterRedis.Close()
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			limit = middleware.RedisRateLimitMiddleware(limiterRedis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win)
		} else {
			limit = middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		}
	}

	checks := map[string]handlers.Check{
		"backend": func(context.Context) bool { return ctrl.LastError() == nil },
	}
	if cfg.Storage.Endpoint != "" {
		checks["storage"] = func(context.Context) bool { return exporter != nil }
	}
	if limiterRedis != nil {
		checks["redis"] = func(ctx context.Context) bool { return limiterRedis.Ping(ctx).Err() == nil }
	}
	handlers.RegisterHealth(r, started, checks)
	handlers.RegisterSwagger(r)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.RegisterDocumentRoutes(r, handler.Deps{
		Controller: ctrl,
		Verifier:   verifier,
		RateLimit:  limit,
		Exporter:   exporter,
		Dispatcher: dispatcher,
		Meta: handler.Meta{
			SystemTitle:  cfg.Documents.SystemTitle,
			DirectorName: cfg.Documents.DirectorName,
			Departments:  cfg.Documents.Departments,
			Groups:       cfg.Documents.Groups,
		},
	})

	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("%s listening on %s (mode=%s)", appName, srv.Addr, gw.Mode())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// cors sets permissive headers for the browser client and answers preflight.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Disposition")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
