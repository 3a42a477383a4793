package app

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/perspective-backend/internal/data/db"
	apphttp "github.com/yungbote/perspective-backend/internal/http"
	httpH "github.com/yungbote/perspective-backend/internal/http/handlers"
	httpMW "github.com/yungbote/perspective-backend/internal/http/middleware"
	"github.com/yungbote/perspective-backend/internal/jobs/scheduler"
	"github.com/yungbote/perspective-backend/internal/observability"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

const serviceName = "perspective-backend"

type App struct {
	Log       *logger.Logger
	Cfg       Config
	DB        *gorm.DB
	Metrics   *observability.Metrics
	Repos     Repos
	Modules   Modules
	Services  Services
	Server    *apphttp.Server
	Scheduler *scheduler.Scheduler

	store        *db.Service
	otelShutdown func(context.Context) error
}

// New loads configuration, connects and migrates the store and wires every layer.
func New() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a, err := NewWithConfig(cfg, log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

func NewWithConfig(cfg Config, log *logger.Logger) (*App, error) {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	log.Info("Starting", "env", cfg.Env, "db_driver", cfg.DBDriver, "timezone", cfg.Location.String())

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: cfg.Env,
	})

	store, err := db.NewService(log, cfg.DBOptions())
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := store.AutoMigrateAll(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := store.DB()

	metrics := observability.NewMetrics()
	reposet := wireRepos(theDB, log)
	modules, err := wireModules(log, cfg, reposet, metrics)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	serviceset := wireServices(theDB, log, cfg, reposet, modules)

	sqlDB, err := theDB.DB()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("database handle: %w", err)
	}
	if cfg.CronSecret == "" {
		log.Warn("CRON_SECRET not set; batch endpoints reject every request")
	}
	if cfg.JWTSecret == "" {
		log.Warn("AUTH_JWT_SECRET not set; authenticated endpoints reject every request")
	}

	server := apphttp.NewServer(":"+cfg.Port, apphttp.RouterConfig{
		Log:                 log,
		Metrics:             metrics,
		ServiceName:         serviceName,
		CORSOrigins:         cfg.CORSAllowedOrigins,
		CronSecret:          cfg.CronSecret,
		AuthMiddleware:      httpMW.NewAuthMiddleware(log, serviceset.Identity),
		HealthHandler:       httpH.NewHealthHandler(sqlDB),
		MeHandler:           httpH.NewMeHandler(serviceset.Identity),
		UserHandler:         httpH.NewUserHandler(serviceset.Profile),
		DashboardHandler:    httpH.NewDashboardHandler(serviceset.Dashboard),
		MoodHandler:         httpH.NewMoodHandler(serviceset.Mood, cfg.Location),
		JournalHandler:      httpH.NewJournalHandler(serviceset.Journal),
		PerspectiveHandler:  httpH.NewPerspectiveHandler(serviceset.Perspective),
		NotificationHandler: httpH.NewNotificationHandler(serviceset.Notification),
		SummaryHandler:      httpH.NewSummaryHandler(serviceset.Summary, cfg.Location),
		BatchHandler: httpH.NewBatchHandler(log, modules.Batch, modules.Processor, modules.Fanout, func() time.Time {
			return time.Now().In(cfg.Location)
		}),
	})

	var sched *scheduler.Scheduler
	if cfg.SchedulerEnabled {
		sched, err = scheduler.New(log, modules.Batch, modules.Processor, scheduler.Specs{
			Daily:   cfg.SchedulerDailySpec,
			Weekly:  cfg.SchedulerWeeklySpec,
			Monthly: cfg.SchedulerMonthlySpec,
			Notify:  cfg.SchedulerNotifySpec,
		}, cfg.Location)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
	} else {
		log.Info("In-process scheduler disabled; batches run through the cron endpoints or wellnessctl")
	}

	return &App{
		Log:          log,
		Cfg:          cfg,
		DB:           theDB,
		Metrics:      metrics,
		Repos:        reposet,
		Modules:      modules,
		Services:     serviceset,
		Server:       server,
		Scheduler:    sched,
		store:        store,
		otelShutdown: otelShutdown,
	}, nil
}

func (a *App) Start() {
	if a == nil || a.Scheduler == nil {
		return
	}
	a.Scheduler.Start()
}

// Run blocks serving HTTP until Shutdown is called or the listener fails.
func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Listening", "port", a.Cfg.Port)
	return a.Server.Run()
}

// Shutdown stops accepting requests and waits for in-flight work.
func (a *App) Shutdown(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var firstErr error
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			firstErr = fmt.Errorf("http shutdown: %w", err)
		}
	}
	if a.Scheduler != nil {
		if err := a.Scheduler.Stop(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("scheduler stop: %w", err)
		}
	}
	return firstErr
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Modules.Locker != nil {
		if err := a.Modules.Locker.Close(); err != nil {
			a.Log.Warn("Locker close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("Tracer shutdown failed", "error", err)
		}
		cancel()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.Log.Warn("Database close failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
