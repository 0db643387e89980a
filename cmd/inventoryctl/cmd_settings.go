package main

import (
	"fmt"

	"asset-inventory-api/internal/app"
	"asset-inventory-api/internal/model"
	apperrors "asset-inventory-api/pkg/errors"

	"github.com/spf13/cobra"
)

// settingFlags holds the values given to "settings set". Only flags the
// operator actually passed are applied, so a call can flip one preference.
type settingFlags struct {
	username     string
	email        string
	warranty     bool
	reminderDays int
	assignment   bool
	daily        bool
	weekly       bool
}

func (f settingFlags) apply(st *model.NotificationSetting, changed func(name string) bool) {
	if changed("username") {
		st.Username = f.username
	}
	if changed("email") {
		st.Email = f.email
	}
	if changed("warranty") {
		st.EmailOnWarrantyExpiry = f.warranty
	}
	if changed("reminder-days") {
		st.WarrantyReminderDays = f.reminderDays
	}
	if changed("assignment") {
		st.EmailOnAssignment = f.assignment
	}
	if changed("daily") {
		st.DailySummary = f.daily
	}
	if changed("weekly") {
		st.WeeklySummary = f.weekly
	}
}

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and change per-user notification settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print every user's notification settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			svc := app.NewNotificationService(cfg.NotificationService, db, app.NewNotifier(cfg.NotificationService, logger), logger)
			settings, err := svc.ListSettings(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(settings)
		},
	})

	var flags settingFlags
	set := &cobra.Command{
		Use:   "set <user-id>",
		Short: "Create or change one user's notification settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			svc := app.NewNotificationService(cfg.NotificationService, db, app.NewNotifier(cfg.NotificationService, logger), logger)

			st := model.NotificationSetting{UserID: args[0]}
			existing, err := svc.Settings(cmd.Context(), args[0])
			switch {
			case err == nil:
				st = *existing
			case isNotFound(err):
			default:
				return err
			}

			flags.apply(&st, cmd.Flags().Changed)

			saved, err := svc.SaveSettings(cmd.Context(), st)
			if err != nil {
				if appErr, ok := apperrors.AsAppError(err); ok && len(appErr.Details) > 0 {
					return fmt.Errorf("%s: %v", appErr.Message, appErr.Details)
				}
				return err
			}
			return printJSON(saved)
		},
	}
	set.Flags().StringVar(&flags.username, "username", "", "Display name")
	set.Flags().StringVar(&flags.email, "email", "", "Address notifications are sent to")
	set.Flags().BoolVar(&flags.warranty, "warranty", false, "Email warranty expiry reminders")
	set.Flags().IntVar(&flags.reminderDays, "reminder-days", 0, "Days ahead of expiry to remind (0 uses the server default)")
	set.Flags().BoolVar(&flags.assignment, "assignment", false, "Email on assignment decisions")
	set.Flags().BoolVar(&flags.daily, "daily", false, "Email the daily summary")
	set.Flags().BoolVar(&flags.weekly, "weekly", false, "Email the weekly summary")
	cmd.AddCommand(set)

	return cmd
}

func isNotFound(err error) bool {
	appErr, ok := apperrors.AsAppError(err)
	return ok && appErr.Code == apperrors.ErrorCodeNotFound
}
