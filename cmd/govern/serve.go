package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/wegovern/governance-api/internal/config"
	"github.com/wegovern/governance-api/internal/constants"
	"github.com/wegovern/governance-api/internal/database"
	"github.com/wegovern/governance-api/internal/handlers"
)

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(v)
			logger := slog.Default()
			ctx := cmd.Context()

			gin.SetMode(cfg.GinMode)

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			a, err := newApp(cfg, logger, reg)
			if err != nil {
				return err
			}
			defer a.Close()

			if migrate {
				if err := database.Migrate(a.db); err != nil {
					return err
				}
			}

			if a.relay != nil {
				ready := make(chan struct{})
				go func() {
					if err := a.relay.Run(ctx, ready); err != nil {
						logger.Error("realtime relay stopped", "error", err)
					}
				}()
				select {
				case <-ready:
					logger.Info("realtime relay subscribed", "redis", cfg.RedisAddr())
				case <-time.After(5 * time.Second):
					logger.Warn("realtime relay not ready yet, continuing")
				}
			}

			if cfg.ReconcileSchedule != "" {
				c := cron.New()
				_, err := c.AddFunc(cfg.ReconcileSchedule, func() {
					report, err := a.lifecycle.ReconcileAll(ctx)
					attrs := []any{
						"scanned", report.Scanned,
						"passed", report.Passed,
						"defeated", report.Defeated,
						"failed", report.Failed,
					}
					if err != nil {
						logger.Error("scheduled reconcile finished with failures", append(attrs, "error", err)...)
						return
					}
					logger.Info("scheduled reconcile finished", attrs...)
				})
				if err != nil {
					return err
				}
				c.Start()
				defer c.Stop()
			}

			r := gin.Default()

			// Setup session middleware with Redis
			store, err := redisStore.NewStore(
				10,    // Redis pool size
				"tcp", // network type
				cfg.RedisAddr(),
				"", // username (empty for default user)
				"", // password (empty = no password)
				[]byte(cfg.SessionSecret),
			)
			if err != nil {
				return err
			}
			store.Options(sessions.Options{
				Path:     "/",
				MaxAge:   86400 * 7, // 7 days
				HttpOnly: true,
				Secure:   cfg.GinMode == gin.ReleaseMode,
				SameSite: http.SameSiteLaxMode,
			})
			r.Use(sessions.Sessions(constants.SessionCookieName, store))

			handlers.RegisterRoutes(r, a.deps)

			srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Error("server shutdown failed", "error", err)
				}
			}()

			logger.Info("server starting", "addr", cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "run database migrations before serving")
	cmd.Flags().String("addr", ":8080", "listen address")
	_ = v.BindPFlag("HTTP_ADDR", cmd.Flags().Lookup("addr"))
	return cmd
}
