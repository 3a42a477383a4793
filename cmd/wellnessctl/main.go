package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/perspective-backend/internal/app"
	"github.com/yungbote/perspective-backend/internal/data/db"
	"github.com/yungbote/perspective-backend/internal/modules/periods"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

var (
	atFlag   string
	userFlag string
	rootCmd  = &cobra.Command{
		Use:           "wellnessctl",
		Short:         "Operator CLI for rollup batches, notification sweeps and migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func main() {
	rootCmd.PersistentFlags().StringVar(&atFlag, "at", "", "Reference time (RFC3339 or YYYY-MM-DD); defaults to now")

	for _, kind := range []periods.Kind{periods.Day, periods.Week, periods.Month} {
		rootCmd.AddCommand(rollupCmd(kind))
	}

	dailyUserCmd := &cobra.Command{
		Use:   "daily-user",
		Short: "Generate one user's daily summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(userFlag)
			if err != nil {
				return fmt.Errorf("--user: %w", err)
			}
			return withApp(func(ctx context.Context, a *app.App, now time.Time) error {
				out, err := a.Modules.Engine.GenerateDaily(ctx, userID, now)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	dailyUserCmd.Flags().StringVarP(&userFlag, "user", "u", "", "Local user ID (required)")
	_ = dailyUserCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(dailyUserCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Mark scheduled notifications whose time has come as sent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App, now time.Time) error {
				n, err := a.Modules.Fanout.SweepDue(ctx, now)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]int{"processed": n})
			})
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "process",
		Short: "Run the notification process batch (sweep, Sunday weekly rollup, reminders)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App, now time.Time) error {
				res, err := a.Modules.Processor.ProcessBatch(ctx, now)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			defer log.Sync()
			store, err := db.NewService(log, cfg.DBOptions())
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.AutoMigrateAll(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rollupCmd(kind periods.Kind) *cobra.Command {
	names := map[periods.Kind]string{periods.Day: "daily", periods.Week: "weekly", periods.Month: "monthly"}
	return &cobra.Command{
		Use:   names[kind],
		Short: fmt.Sprintf("Run the %s rollup batch for every active user", names[kind]),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App, now time.Time) error {
				res, err := a.Modules.Batch.Run(ctx, kind, now)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

func load() (app.Config, *logger.Logger, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return app.Config{}, nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return app.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func withApp(fn func(ctx context.Context, a *app.App, now time.Time) error) error {
	cfg, log, err := load()
	if err != nil {
		return err
	}
	now, err := referenceTime(atFlag, cfg.Location)
	if err != nil {
		return err
	}
	a, err := app.NewWithConfig(cfg, log)
	if err != nil {
		log.Sync()
		return err
	}
	defer a.Close()
	return fn(rootCmd.Context(), a, now)
}

func referenceTime(raw string, loc *time.Location) (time.Time, error) {
	if raw == "" {
		return time.Now().In(loc), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(loc), nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("--at must be RFC3339 or YYYY-MM-DD: %w", err)
	}
	// Noon keeps the day stable across DST shifts.
	return t.Add(12 * time.Hour), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
