package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/perspective-backend/internal/http/handlers"
	httpMW "github.com/yungbote/perspective-backend/internal/http/middleware"
	"github.com/yungbote/perspective-backend/internal/observability"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string
	CronSecret  string

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler       *httpH.HealthHandler
	MeHandler           *httpH.MeHandler
	UserHandler         *httpH.UserHandler
	DashboardHandler    *httpH.DashboardHandler
	MoodHandler         *httpH.MoodHandler
	JournalHandler      *httpH.JournalHandler
	PerspectiveHandler  *httpH.PerspectiveHandler
	NotificationHandler *httpH.NotificationHandler
	SummaryHandler      *httpH.SummaryHandler
	BatchHandler        *httpH.BatchHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")

	// Batch (shared secret)
	if cfg.BatchHandler != nil {
		cron := api.Group("/", httpMW.RequireCronSecret(cfg.CronSecret))
		cron.POST("/daily-summary/generate-batch", cfg.BatchHandler.GenerateDaily)
		cron.POST("/weekly-summary/generate-batch", cfg.BatchHandler.GenerateWeekly)
		cron.POST("/monthly-summary/generate-batch", cfg.BatchHandler.GenerateMonthly)
		cron.POST("/notifications/process-batch", cfg.BatchHandler.ProcessNotifications)
		cron.POST("/notifications/process-scheduled", cfg.BatchHandler.ProcessScheduled)
	}

	protected := api.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		if cfg.MeHandler != nil {
			protected.GET("/me", cfg.MeHandler.GetMe)
		}

		// Profile
		if cfg.UserHandler != nil {
			protected.PATCH("/user/profile", cfg.UserHandler.UpdateProfile)
			protected.GET("/user/preferences", cfg.UserHandler.GetPreferences)
			protected.PATCH("/user/preferences", cfg.UserHandler.UpdatePreferences)
			protected.GET("/user/email-preferences", cfg.UserHandler.GetEmailPreferences)
			protected.PUT("/user/email-preferences", cfg.UserHandler.UpdateEmailPreferences)
		}

		// Dashboard
		if cfg.DashboardHandler != nil {
			protected.GET("/dashboard", cfg.DashboardHandler.Dashboard)
			protected.GET("/home", cfg.DashboardHandler.Home)
			protected.GET("/user/stats", cfg.DashboardHandler.Stats)
		}

		// Mood
		if cfg.MoodHandler != nil {
			protected.GET("/mood", cfg.MoodHandler.Get)
			protected.POST("/mood", cfg.MoodHandler.Upsert)
		}

		// Journal
		if cfg.JournalHandler != nil {
			protected.GET("/journal", cfg.JournalHandler.List)
			protected.POST("/journal", cfg.JournalHandler.Create)
			protected.GET("/journal/stats", cfg.JournalHandler.Stats)
			protected.GET("/journal/:id", cfg.JournalHandler.Get)
			protected.PUT("/journal/:id", cfg.JournalHandler.Update)
			protected.DELETE("/journal/:id", cfg.JournalHandler.Delete)
		}

		// Perspective
		if cfg.PerspectiveHandler != nil {
			protected.POST("/perspective/create-session", cfg.PerspectiveHandler.CreateSession)
			protected.POST("/perspective/generate-quiz", cfg.PerspectiveHandler.GenerateQuiz)
			protected.POST("/perspective/submit-answers", cfg.PerspectiveHandler.SubmitAnswers)
			protected.POST("/perspective/generate-cards", cfg.PerspectiveHandler.GenerateCards)
			protected.POST("/perspective/save-to-journal", cfg.PerspectiveHandler.SaveToJournal)
			protected.GET("/perspective/session/:id", cfg.PerspectiveHandler.GetSession)
			protected.GET("/perspective/history", cfg.PerspectiveHandler.History)
			protected.POST("/perspective/chat", cfg.PerspectiveHandler.Chat)
		}

		// Notifications
		if cfg.NotificationHandler != nil {
			protected.GET("/notifications", cfg.NotificationHandler.List)
			protected.GET("/notifications/stats", cfg.NotificationHandler.Stats)
			protected.POST("/notifications/bulk", cfg.NotificationHandler.Bulk)
			protected.POST("/notifications/generate", cfg.NotificationHandler.Generate)
			protected.POST("/notifications/setup", cfg.NotificationHandler.Setup)
			protected.PUT("/notifications/:id", cfg.NotificationHandler.SetRead)
			protected.DELETE("/notifications/:id", cfg.NotificationHandler.Delete)
		}

		// Summaries
		if cfg.SummaryHandler != nil {
			protected.GET("/daily-summary", cfg.SummaryHandler.ListDaily)
			protected.POST("/daily-summary/generate", cfg.SummaryHandler.GenerateDaily)
			protected.GET("/weekly-summary", cfg.SummaryHandler.ListWeekly)
			protected.GET("/monthly-summary", cfg.SummaryHandler.ListMonthly)
		}
	}

	return r
}
