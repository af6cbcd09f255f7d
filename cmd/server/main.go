package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/josuejuca/analytics-imogo/internal/config"
	"github.com/josuejuca/analytics-imogo/internal/dump"
	"github.com/josuejuca/analytics-imogo/internal/handlers"
	"github.com/josuejuca/analytics-imogo/internal/ingest"
	"github.com/josuejuca/analytics-imogo/internal/middleware"
	"github.com/josuejuca/analytics-imogo/internal/repository"
)

var cfgPath string

func main() {
	root := &cobra.Command{
		Use:          "analytics-imogo",
		Short:        "Page-access analytics service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to config file")
	root.AddCommand(serveCmd(), exportCmd(), importCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func openRepo() (*config.Config, *repository.SQLiteRepository, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	initLogger(cfg.Log)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, nil, fmt.Errorf("mkdir: %w", err)
	}
	repo, err := repository.NewSQLite(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("db: %w", err)
	}
	return cfg, repo, nil
}

func initLogger(lc config.LogConfig) {
	level, err := zerolog.ParseLevel(lc.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if lc.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, repo, err := openRepo()
			if err != nil {
				return err
			}
			defer repo.Close()

			recorder := ingest.NewRecorder(repo)
			ah := &handlers.AccessHandler{Recorder: recorder}
			lh := &handlers.LogsHandler{Repo: repo}
			sh := &handlers.StatsHandler{Repo: repo}
			bh := &handlers.BackupHandler{Repo: repo}

			r := chi.NewRouter()
			r.Use(chimiddleware.RequestID)
			r.Use(chimiddleware.Recoverer)
			r.Use(middleware.CORS)
			r.Use(middleware.RequestLogger)

			r.Post("/log_access", ah.ServeHTTP)

			r.Route("/access_logs", func(r chi.Router) {
				r.Get("/", lh.List)
				r.Get("/date_range", lh.DateRange)
				r.Get("/month", lh.ByMonth)
				r.Get("/page_month", lh.ByPageAndMonth)
				r.Get("/user/{userID}", lh.ByUser)
				r.Get("/page/{page}", lh.ByPage)
				r.Get("/ip/{ip}", lh.ByIP)
				r.Get("/browser/{browser}", lh.ByBrowser)
			})

			r.Route("/stats", func(r chi.Router) {
				r.Get("/count", sh.Count)
				r.Get("/count/user/{userID}", sh.CountByUser)
				r.Get("/count/page/{page}", sh.CountByPage)
				r.Get("/summary", sh.Summary)
				r.Get("/suspicious_ips", sh.SuspiciousIPs)
				r.Get("/daily_summary", sh.DailySummary)
				r.Get("/hourly_distribution", sh.HourlyDistribution)
				r.Get("/last_access", sh.LastAccess)
				r.Get("/pages_by_month", sh.PagesByMonth)
				r.Get("/page_recurrence", sh.PageRecurrence)
			})

			r.Get("/backup/export", bh.Export)
			r.Post("/backup/import", bh.Import)

			stopRestore := make(chan struct{})
			if cfg.RestoreDir != "" {
				if err := os.MkdirAll(cfg.RestoreDir, 0755); err != nil {
					return fmt.Errorf("restore dir: %w", err)
				}
				go func() {
					if err := dump.WatchRestoreDir(cfg.RestoreDir, repo, stopRestore); err != nil {
						log.Error().Err(err).Msg("restore watcher stopped")
					}
				}()
			}

			srv := &http.Server{Addr: cfg.Listen, Handler: r}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				close(stopRestore)
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("shutdown")
				}
			}()

			log.Info().Str("addr", cfg.Listen).Str("db", cfg.DBPath).Msg("listening")
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server: %w", err)
			}
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump the event log as a SQL script",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, repo, err := openRepo()
			if err != nil {
				return err
			}
			defer repo.Close()

			out := os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return dump.Export(repo, out)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the dump to a file instead of stdout")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <dump.sql>",
		Short: "Replay a SQL dump into the event log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, repo, err := openRepo()
			if err != nil {
				return err
			}
			defer repo.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			applied, err := dump.Import(repo, f)
			if err != nil {
				return err
			}
			log.Info().Int("statements", applied).Msg("dump imported")
			return nil
		},
	}
}
