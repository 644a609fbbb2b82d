package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"school-registry-go/config"
	"school-registry-go/db"
	"school-registry-go/handlers"
	"school-registry-go/logger"
	"school-registry-go/models"
	"school-registry-go/service"
)

// app carries what every subcommand needs once configuration is loaded
type app struct {
	cfg   config.Config
	log   *slog.Logger
	redis *redis.Client
	store *db.RedisStore
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:          "school-registry",
		Short:        "School registry of teachers, classes, schedules and subjects",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logger.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
			slog.SetDefault(a.log)
			return a.connect(cmd.Context())
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if a.redis != nil {
				return a.redis.Close()
			}
			return nil
		},
	}

	cmd.AddCommand(newServeCmd(a), newImportCmd(a), newExportCmd(a))
	return cmd
}

func (a *app) connect(ctx context.Context) error {
	if !a.cfg.Redis.Enabled {
		a.log.Warn("redis disabled, school state is kept in memory only")
		return nil
	}
	client, err := db.InitializeRedisClient(ctx, db.RedisOptions{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	a.log.Info("connected to redis", "addr", a.cfg.Redis.Addr, "db", a.cfg.Redis.DB)
	a.redis = client
	a.store = db.NewRedisStore(client, a.log)
	return nil
}

// openService loads the configured school from Redis, or creates and stores
// a fresh one when none has been saved yet.
func (a *app) openService(ctx context.Context) (*service.SchoolService, error) {
	id := models.SchoolID(a.cfg.School.ID)
	if a.store == nil {
		return service.NewSchoolService(models.NewSchool(id, a.cfg.School.Name), nil, a.log), nil
	}

	snap, err := a.store.Load(ctx, id)
	switch {
	case err == nil:
		a.log.Info("loaded school", "school_id", id,
			"teachers", len(snap.Teachers), "classes", len(snap.Classes),
			"schedules", len(snap.Schedules), "subjects", len(snap.Subjects))
		return service.NewSchoolService(models.FromSnapshot(snap), a.store, a.log), nil
	case errors.Is(err, db.ErrSchoolNotFound):
		a.log.Info("no stored school, creating", "school_id", id, "name", a.cfg.School.Name)
		svc := service.NewSchoolService(models.NewSchool(id, a.cfg.School.Name), a.store, a.log)
		return svc, svc.Save(ctx)
	default:
		return nil, err
	}
}

// loadSnapshot reads the configured school without writing anything. A school
// that was never saved comes back as an empty one.
func (a *app) loadSnapshot(ctx context.Context) (models.Snapshot, error) {
	id := models.SchoolID(a.cfg.School.ID)
	if a.store == nil {
		return models.NewSchool(id, a.cfg.School.Name).Snapshot(), nil
	}
	snap, err := a.store.Load(ctx, id)
	if errors.Is(err, db.ErrSchoolNotFound) {
		return models.NewSchool(id, a.cfg.School.Name).Snapshot(), nil
	}
	return snap, err
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the registry HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := a.openService(ctx)
			if err != nil {
				return err
			}

			gin.SetMode(gin.ReleaseMode)
			router := handlers.NewRouter(handlers.NewAPIHandler(svc, a.log), gin.Recovery(), requestLogger(a.log))
			srv := &http.Server{Addr: a.cfg.Server.Addr, Handler: router}

			errCh := make(chan error, 1)
			go func() {
				a.log.Info("starting server", "addr", a.cfg.Server.Addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("run server: %w", err)
			case <-ctx.Done():
			}

			a.log.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

// requestLogger logs one line per request through slog
func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <workbook.xlsx>",
		Short: "Add the rows of an xlsx workbook to the stored school",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.openService(ctx)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			var report db.ImportReport
			err = svc.Batch(ctx, func(school *models.School) error {
				var ierr error
				report, ierr = db.ImportWorkbook(f, school, a.log)
				return ierr
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d subjects, %d teachers, %d classes, %d schedules (%d rows skipped)\n",
				report.Subjects, report.Teachers, report.Classes, report.Schedules, report.Skipped)
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.xlsx|file.json|file.yaml>",
		Short: "Write the stored school to a file; the format follows the extension",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.loadSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			return writeSnapshot(args[0], snap)
		},
	}
}

func writeSnapshot(path string, snap models.Snapshot) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xlsx", ".json", ".yaml", ".yml":
	default:
		return fmt.Errorf("unsupported export format %q", ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch ext {
	case ".xlsx":
		err = db.ExportWorkbook(f, snap)
	case ".json":
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		err = enc.Encode(snap)
	default:
		enc := yaml.NewEncoder(f)
		enc.SetIndent(2)
		if err = enc.Encode(snap); err == nil {
			err = enc.Close()
		}
	}
	if err != nil {
		return err
	}
	return f.Close()
}
