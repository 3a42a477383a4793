package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/perspective-backend/internal/clients/redis"
	"github.com/yungbote/perspective-backend/internal/modules/analyzer"
	"github.com/yungbote/perspective-backend/internal/modules/notify"
	"github.com/yungbote/perspective-backend/internal/modules/rollup"
	"github.com/yungbote/perspective-backend/internal/observability"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
	"github.com/yungbote/perspective-backend/internal/platform/openai"
	"github.com/yungbote/perspective-backend/internal/services"
)

// Modules are the batch-side components shared by the HTTP surface, the scheduler
// and the operator CLI.
type Modules struct {
	Analyzer   analyzer.Analyzer
	Locker     redis.Locker
	Fanout     *notify.Fanout
	Milestones *notify.MilestoneEvaluator
	Source     rollup.ActivitySource
	Engine     *rollup.Engine
	Batch      *rollup.BatchRunner
	Processor  *notify.Processor
}

type Services struct {
	Identity     services.IdentityService
	Mood         services.MoodService
	Journal      services.JournalService
	Perspective  services.PerspectiveService
	Notification services.NotificationService
	Summary      services.SummaryService
	Profile      services.ProfileService
	Dashboard    services.DashboardService
}

func wireAnalyzer(log *logger.Logger, cfg Config, metrics *observability.Metrics) (analyzer.Analyzer, error) {
	var inner analyzer.Analyzer
	if cfg.OpenAIAPIKey == "" {
		log.Warn("OPENAI_API_KEY not set; using the deterministic stub analyzer")
		inner = analyzer.NewStub()
	} else {
		client, err := openai.NewClient(log, openai.Config{
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			Model:          cfg.OpenAIModel,
			TimeoutSeconds: cfg.OpenAITimeoutSeconds,
			MaxRetries:     cfg.OpenAIMaxRetries,
		}, metrics)
		if err != nil {
			return nil, fmt.Errorf("init openai client: %w", err)
		}
		oa, err := analyzer.NewOpenAIAnalyzer(client, log)
		if err != nil {
			return nil, fmt.Errorf("init analyzer: %w", err)
		}
		inner = oa
	}
	return analyzer.NewFallback(inner, log, metrics), nil
}

func wireModules(log *logger.Logger, cfg Config, r Repos, metrics *observability.Metrics) (Modules, error) {
	log.Info("Wiring modules...")
	an, err := wireAnalyzer(log, cfg, metrics)
	if err != nil {
		return Modules{}, err
	}

	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set; batch runs are not locked across processes")
	}
	locker, err := redis.NewLocker(log, cfg.RedisAddr)
	if err != nil {
		return Modules{}, fmt.Errorf("init redis locker: %w", err)
	}

	fanout := notify.NewFanout(r.Notification, log, metrics)
	milestones := notify.NewMilestoneEvaluator(r.User, r.Mood, r.Journal, r.Session, r.Notification, fanout, log)
	source := rollup.NewActivitySource(r.Mood, r.Journal, r.Session, r.Summary)
	engine := rollup.NewEngine(source, r.Summary, an, fanout, log)
	batch := rollup.NewBatchRunner(engine, source, locker, rollup.BatchConfig{
		Concurrency: cfg.BatchConcurrency,
		LockTTL:     cfg.BatchLockTTL,
	}, log, metrics)

	return Modules{
		Analyzer:   an,
		Locker:     locker,
		Fanout:     fanout,
		Milestones: milestones,
		Source:     source,
		Engine:     engine,
		Batch:      batch,
		Processor:  notify.NewProcessor(fanout, batch, source, log),
	}, nil
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, m Modules) Services {
	log.Info("Wiring services...")
	clock := services.ClockIn(cfg.Location)
	return Services{
		Identity: services.NewIdentityService(log, r.User, services.IdentityConfig{
			Secret:   cfg.JWTSecret,
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
		}),
		Mood:         services.NewMoodService(log, r.Mood, m.Milestones, clock),
		Journal:      services.NewJournalService(db, log, r.Journal, r.User, m.Analyzer, m.Milestones, clock),
		Perspective:  services.NewPerspectiveService(db, log, r.Session, r.Journal, r.User, m.Analyzer, m.Milestones, clock),
		Notification: services.NewNotificationService(log, r.Notification, m.Fanout, m.Milestones, clock),
		Summary:      services.NewSummaryService(log, m.Engine, r.Summary, clock),
		Profile:      services.NewProfileService(db, log, r.User),
		Dashboard:    services.NewDashboardService(log, r.User, r.Mood, r.Journal, r.Session, r.Summary, r.Notification, clock),
	}
}
