package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/perspective-backend/internal/http/response"
	"github.com/yungbote/perspective-backend/internal/modules/notify"
	"github.com/yungbote/perspective-backend/internal/modules/periods"
	"github.com/yungbote/perspective-backend/internal/modules/rollup"
	"github.com/yungbote/perspective-backend/internal/platform/apierr"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

// RollupRunner is satisfied by *rollup.BatchRunner.
type RollupRunner interface {
	Run(ctx context.Context, kind periods.Kind, now time.Time) (rollup.BatchResult, error)
}

// NotificationProcessor is satisfied by *notify.Processor.
type NotificationProcessor interface {
	ProcessBatch(ctx context.Context, now time.Time) (notify.ProcessResult, error)
}

// Sweeper is satisfied by *notify.Fanout.
type Sweeper interface {
	SweepDue(ctx context.Context, now time.Time) (int, error)
}

// BatchHandler serves the cron-triggered routes; RequireCronSecret guards them.
type BatchHandler struct {
	log       *logger.Logger
	rollups   RollupRunner
	processor NotificationProcessor
	sweeper   Sweeper
	now       func() time.Time
}

func NewBatchHandler(log *logger.Logger, rollups RollupRunner, processor NotificationProcessor, sweeper Sweeper, now func() time.Time) *BatchHandler {
	if now == nil {
		now = time.Now
	}
	return &BatchHandler{
		log:       log.With("handler", "BatchHandler"),
		rollups:   rollups,
		processor: processor,
		sweeper:   sweeper,
		now:       now,
	}
}

var batchLabels = map[periods.Kind]string{
	periods.Day:   "daily",
	periods.Week:  "weekly",
	periods.Month: "monthly",
}

func (h *BatchHandler) run(c *gin.Context, kind periods.Kind) {
	label := batchLabels[kind]
	res, err := h.rollups.Run(c.Request.Context(), kind, h.now())
	if err != nil {
		h.log.Error("Batch run failed", "kind", string(kind), "error", err)
		response.RespondAPIError(c, apierr.Internal(fmt.Errorf("failed to generate %s summaries: %w", label, err)))
		return
	}
	msg := fmt.Sprintf("Batch %s summary generation completed", label)
	if res.SkipReason != "" {
		msg = fmt.Sprintf("Batch %s summary generation skipped: %s", label, res.SkipReason)
	}
	response.RespondOK(c, gin.H{"success": true, "message": msg, "results": res})
}

// POST /api/daily-summary/generate-batch
func (h *BatchHandler) GenerateDaily(c *gin.Context) { h.run(c, periods.Day) }

// POST /api/weekly-summary/generate-batch
func (h *BatchHandler) GenerateWeekly(c *gin.Context) { h.run(c, periods.Week) }

// POST /api/monthly-summary/generate-batch
func (h *BatchHandler) GenerateMonthly(c *gin.Context) { h.run(c, periods.Month) }

// POST /api/notifications/process-batch
func (h *BatchHandler) ProcessNotifications(c *gin.Context) {
	res, err := h.processor.ProcessBatch(c.Request.Context(), h.now())
	if err != nil {
		h.log.Error("Notification batch failed", "error", err)
		response.RespondAPIError(c, apierr.Internal(fmt.Errorf("failed to process notifications: %w", err)))
		return
	}
	response.RespondOK(c, gin.H{"success": true, "message": "Notification batch processing completed", "results": res})
}

// POST /api/notifications/process-scheduled
func (h *BatchHandler) ProcessScheduled(c *gin.Context) {
	n, err := h.sweeper.SweepDue(c.Request.Context(), h.now())
	if err != nil {
		h.log.Error("Scheduled sweep failed", "error", err)
		response.RespondAPIError(c, apierr.Internal(fmt.Errorf("failed to process scheduled notifications: %w", err)))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"processed": n,
		"message":   fmt.Sprintf("Processed %d scheduled notifications", n),
	})
}
