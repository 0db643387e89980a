package main

import (
	"context"
	"fmt"
	"time"

	"asset-inventory-api/internal/app"
	"asset-inventory-api/internal/model"
	"asset-inventory-api/internal/service"

	"github.com/spf13/cobra"
)

type notificationJob func(s *service.NotificationService, ctx context.Context, today model.Date) (*service.JobReport, error)

func newNotifyCmd() *cobra.Command {
	var flagDate string

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Run a scheduled notification job once",
	}
	cmd.PersistentFlags().StringVar(&flagDate, "date", "", "Run as if today were this date (YYYY-MM-DD)")

	jobs := []struct {
		use   string
		short string
		run   notificationJob
	}{
		{"warranty", "Send warranty expiry reminders", (*service.NotificationService).WarrantyExpiry},
		{"daily", "Send the daily inventory summary", (*service.NotificationService).DailySummary},
		{"weekly", "Send the weekly activity summary", (*service.NotificationService).WeeklySummary},
	}

	for _, job := range jobs {
		job := job
		cmd.AddCommand(&cobra.Command{
			Use:   job.use,
			Short: job.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				today, err := parseDay(flagDate)
				if err != nil {
					return err
				}

				db, err := openDB()
				if err != nil {
					return err
				}
				defer db.Close()

				notifier := app.NewNotifier(cfg.NotificationService, logger)
				svc := app.NewNotificationService(cfg.NotificationService, db, notifier, logger)

				report, err := job.run(svc, cmd.Context(), today)
				if err != nil {
					return fmt.Errorf("%s job: %w", job.use, err)
				}
				return printJSON(report)
			},
		})
	}

	return cmd
}

// parseDay returns today in UTC for an empty value.
func parseDay(value string) (model.Date, error) {
	if value == "" {
		return service.Today(), nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return model.Date{}, fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", value)
	}
	return model.NewDate(t.Year(), t.Month(), t.Day()), nil
}
