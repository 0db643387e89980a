package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"text/template"
	"time"

	"asset-inventory-api/internal/metrics"
	"asset-inventory-api/internal/model"
	"asset-inventory-api/internal/repository"

	"github.com/sirupsen/logrus"
)

// EmailKind classifies outgoing email.
type EmailKind string

const (
	EmailWarrantyExpiry EmailKind = "warranty_expiry"
	EmailDailySummary   EmailKind = "daily_summary"
	EmailWeeklySummary  EmailKind = "weekly_summary"
	EmailAssignment     EmailKind = "assignment"
)

// Email is one rendered message for one recipient.
type Email struct {
	Kind     EmailKind
	To       string
	Subject  string
	Body     string
	Metadata map[string]string
}

// Mailer delivers email.
type Mailer interface {
	SendEmail(ctx context.Context, email Email) error
}

// EventCreated is the assignment notification sent when a request is filed.
const EventCreated = "created"

// JobReport summarizes one run of a notification job.
type JobReport struct {
	Job    EmailKind `json:"job"`
	Sent   int       `json:"sent"`
	Failed int       `json:"failed"`
}

// NotificationService sends warranty, summary and assignment email. The
// scheduled jobs run outside any request.
type NotificationService struct {
	settings            repository.NotificationSettingRepository
	reports             repository.ReportRepository
	mailer              Mailer
	defaultReminderDays int
	logger              *logrus.Logger
}

// NewNotificationService creates a new notification service. defaultReminderDays
// bounds the warranty window for users without their own setting.
func NewNotificationService(settings repository.NotificationSettingRepository, reports repository.ReportRepository, mailer Mailer, defaultReminderDays int, logger *logrus.Logger) *NotificationService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if defaultReminderDays < 1 {
		defaultReminderDays = 30
	}
	return &NotificationService{
		settings:            settings,
		reports:             reports,
		mailer:              mailer,
		defaultReminderDays: defaultReminderDays,
		logger:              logger,
	}
}

var (
	warrantyTemplate = template.Must(template.New("warranty").Parse(
		`Hello {{.Username}},

{{.Total}} asset(s) have a warranty expiring within the next {{.Days}} days:
{{range .Items}}
  - {{.AssetType}} {{.AssetID}} ({{.Label}}{{if .Make}}, {{.Make}}{{end}}{{if .Model}} {{.Model}}{{end}}): expires {{.WarrantyExpiry}}
{{- end}}
`))

	dailyTemplate = template.Must(template.New("daily").Parse(
		`Hello {{.Username}},

Inventory summary for {{.Date}}:

  Computers:        {{.Counts.computer}}
  Printers:         {{.Counts.printer}}
  Monitors:         {{.Counts.monitor}}
  Docking stations: {{.Counts.docking_station}}

  Computers added:     {{.ComputersAdded}}
  Pending assignments: {{.PendingAssignments}}
`))

	weeklyTemplate = template.Must(template.New("weekly").Parse(
		`Hello {{.Username}},

Inventory summary for {{.Start}} to {{.End}}:

  Computers:        {{.Counts.computer}}
  Printers:         {{.Counts.printer}}
  Monitors:         {{.Counts.monitor}}
  Docking stations: {{.Counts.docking_station}}

  Computers added:       {{.ComputersAdded}}
  Assignments completed: {{.AssignmentsReturned}}
`))

	assignmentTemplate = template.Must(template.New("assignment").Parse(
		`Hello {{.Username}},

Assignment {{.Assignment.ID}} for {{.Assignment.AssetType}} {{.Assignment.AssetID}} is now {{.Assignment.Status}}.

  Assigned to: {{.Assignment.AssignedTo}}
{{- if .Assignment.DueDate}}
  Due:         {{.Assignment.DueDate.Format "2006-01-02"}}
{{- end}}
{{- if .Assignment.Notes}}
  Notes:       {{.Assignment.Notes}}
{{- end}}
`))
)

var assignmentSubjects = map[string]string{
	EventCreated:  "Asset Assignment Created",
	"approved":    "Asset Assignment Approved",
	"rejected":    "Asset Assignment Rejected",
	"checked_out": "Asset Checked Out",
	"returned":    "Asset Returned",
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// countsByCode keys per-type counts by type code so templates can index them.
func countsByCode(counts map[model.AssetType]int) map[string]int {
	out := make(map[string]int, len(model.AllAssetTypes))
	for _, t := range model.AllAssetTypes {
		out[string(t)] = counts[t]
	}
	return out
}

// send delivers one email and records the outcome. Failures are logged and
// returned to the caller's tally, never aborting the job.
func (s *NotificationService) send(ctx context.Context, report *JobReport, email Email) {
	log := s.logger.WithFields(logrus.Fields{
		"kind":      email.Kind,
		"recipient": email.To,
	})

	if err := s.mailer.SendEmail(ctx, email); err != nil {
		report.Failed++
		metrics.NotificationsTotal.WithLabelValues(string(email.Kind), "failed").Inc()
		log.WithError(err).Error("failed to send notification")
		return
	}

	report.Sent++
	metrics.NotificationsTotal.WithLabelValues(string(email.Kind), "sent").Inc()
	log.Info("notification sent")
}

// WarrantyExpiry emails each subscribed user the assets whose warranty ends
// within that user's reminder window, counted from today.
func (s *NotificationService) WarrantyExpiry(ctx context.Context, today model.Date) (*JobReport, error) {
	report := &JobReport{Job: EmailWarrantyExpiry}

	settings, err := s.settings.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load notification settings: %w", err)
	}

	var subscribers []model.NotificationSetting
	maxDays := 0
	for _, st := range settings {
		if !st.EmailOnWarrantyExpiry || st.Email == "" {
			continue
		}
		if st.WarrantyReminderDays < 1 {
			st.WarrantyReminderDays = s.defaultReminderDays
		}
		if st.WarrantyReminderDays > maxDays {
			maxDays = st.WarrantyReminderDays
		}
		subscribers = append(subscribers, st)
	}
	if len(subscribers) == 0 {
		s.logger.Info("no users configured for warranty notifications")
		return report, nil
	}

	items, err := s.reports.WarrantyExpiring(ctx, today, model.Date{Time: today.AddDate(0, 0, maxDays)})
	if err != nil {
		return nil, fmt.Errorf("failed to load expiring warranties: %w", err)
	}
	if len(items) == 0 {
		s.logger.Info("no assets with expiring warranties")
		return report, nil
	}

	for _, st := range subscribers {
		limit := today.AddDate(0, 0, st.WarrantyReminderDays)
		var mine []model.WarrantyItem
		for _, it := range items {
			if !it.WarrantyExpiry.After(limit) {
				mine = append(mine, it)
			}
		}
		if len(mine) == 0 {
			continue
		}

		body, err := render(warrantyTemplate, map[string]any{
			"Username": st.Username,
			"Total":    len(mine),
			"Days":     st.WarrantyReminderDays,
			"Items":    mine,
		})
		if err != nil {
			return nil, err
		}

		s.send(ctx, report, Email{
			Kind:    EmailWarrantyExpiry,
			To:      st.Email,
			Subject: fmt.Sprintf("Asset Warranty Expiry Alert: %d assets expiring soon", len(mine)),
			Body:    body,
			Metadata: map[string]string{
				"asset_count":   fmt.Sprintf("%d", len(mine)),
				"reminder_days": fmt.Sprintf("%d", st.WarrantyReminderDays),
			},
		})
	}

	return report, nil
}

// DailySummary reports yesterday's activity to users subscribed to it.
func (s *NotificationService) DailySummary(ctx context.Context, today model.Date) (*JobReport, error) {
	report := &JobReport{Job: EmailDailySummary}

	recipients, err := s.subscribers(ctx, func(st model.NotificationSetting) bool { return st.DailySummary })
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return report, nil
	}

	yesterday := today.AddDate(0, 0, -1)

	counts, err := s.reports.CountByType(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count assets: %w", err)
	}
	added, err := s.reports.CountCreatedBetween(ctx, model.AssetTypeComputer, yesterday, today.Time)
	if err != nil {
		return nil, err
	}
	pending, err := s.reports.CountAssignments(ctx, model.AssignmentPending)
	if err != nil {
		return nil, err
	}

	date := yesterday.Format("2006-01-02")
	for _, st := range recipients {
		body, err := render(dailyTemplate, map[string]any{
			"Username":           st.Username,
			"Date":               date,
			"Counts":             countsByCode(counts),
			"ComputersAdded":     added,
			"PendingAssignments": pending,
		})
		if err != nil {
			return nil, err
		}
		s.send(ctx, report, Email{
			Kind:    EmailDailySummary,
			To:      st.Email,
			Subject: "Asset Management Daily Summary - " + date,
			Body:    body,
		})
	}

	return report, nil
}

// WeeklySummary reports the last seven days to users subscribed to it.
func (s *NotificationService) WeeklySummary(ctx context.Context, today model.Date) (*JobReport, error) {
	report := &JobReport{Job: EmailWeeklySummary}

	recipients, err := s.subscribers(ctx, func(st model.NotificationSetting) bool { return st.WeeklySummary })
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return report, nil
	}

	weekAgo := today.AddDate(0, 0, -7)
	tomorrow := today.AddDate(0, 0, 1)

	counts, err := s.reports.CountByType(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count assets: %w", err)
	}
	added, err := s.reports.CountCreatedBetween(ctx, model.AssetTypeComputer, weekAgo, tomorrow)
	if err != nil {
		return nil, err
	}
	returned, err := s.reports.CountReturnedBetween(ctx, weekAgo, tomorrow)
	if err != nil {
		return nil, err
	}

	start := weekAgo.Format("2006-01-02")
	for _, st := range recipients {
		body, err := render(weeklyTemplate, map[string]any{
			"Username":            st.Username,
			"Start":               start,
			"End":                 today.String(),
			"Counts":              countsByCode(counts),
			"ComputersAdded":      added,
			"AssignmentsReturned": returned,
		})
		if err != nil {
			return nil, err
		}
		s.send(ctx, report, Email{
			Kind:    EmailWeeklySummary,
			To:      st.Email,
			Subject: "Asset Management Weekly Summary - Week of " + start,
			Body:    body,
		})
	}

	return report, nil
}

func (s *NotificationService) subscribers(ctx context.Context, wants func(model.NotificationSetting) bool) ([]model.NotificationSetting, error) {
	settings, err := s.settings.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load notification settings: %w", err)
	}
	var out []model.NotificationSetting
	for _, st := range settings {
		if wants(st) && st.Email != "" {
			out = append(out, st)
		}
	}
	return out, nil
}

// AssignmentEvent emails the user who filed the assignment about event. It
// does nothing when that user is unknown, has no email or opted out.
func (s *NotificationService) AssignmentEvent(ctx context.Context, a model.AssetAssignment, event string) error {
	if a.AssignedBy == nil {
		s.logger.WithField("assignment_id", a.ID).Debug("assignment has no requesting user, skipping notification")
		return nil
	}

	st, err := s.settings.GetByUserID(ctx, *a.AssignedBy)
	if err != nil {
		if errors.Is(err, repository.ErrSettingNotFound) {
			s.logger.WithField("assignment_id", a.ID).Debug("no email on record for requesting user")
			return nil
		}
		return fmt.Errorf("failed to load notification setting: %w", err)
	}
	if !st.EmailOnAssignment || st.Email == "" {
		return nil
	}

	subject, ok := assignmentSubjects[event]
	if !ok {
		subject = "Asset Assignment Update"
	}

	body, err := render(assignmentTemplate, map[string]any{
		"Username":   st.Username,
		"Assignment": a,
	})
	if err != nil {
		return err
	}

	report := &JobReport{Job: EmailAssignment}
	s.send(ctx, report, Email{
		Kind:    EmailAssignment,
		To:      st.Email,
		Subject: fmt.Sprintf("%s: %s %s", subject, a.AssetType.DisplayName(), a.AssetID),
		Body:    body,
		Metadata: map[string]string{
			"assignment_id": a.ID.String(),
			"event":         event,
		},
	})
	if report.Failed > 0 {
		return fmt.Errorf("assignment notification to %s failed", st.Email)
	}
	return nil
}

// Today returns the current calendar date in UTC.
func Today() model.Date {
	t := time.Now().UTC()
	return model.NewDate(t.Year(), t.Month(), t.Day())
}
