package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"asset-inventory-api/internal/audit"
	"asset-inventory-api/internal/model"
	"asset-inventory-api/internal/repository"
	apperrors "asset-inventory-api/pkg/errors"
	"asset-inventory-api/pkg/validation"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AssignmentNotifier tells interested users about assignment events.
type AssignmentNotifier interface {
	AssignmentEvent(ctx context.Context, a model.AssetAssignment, event string) error
}

// AssetLookup checks that an asset exists.
type AssetLookup interface {
	AssetExists(ctx context.Context, assetType model.AssetType, id string) (bool, error)
}

// AssignmentService runs the custody workflow for assets.
type AssignmentService struct {
	repo       repository.AssignmentRepository
	assets     AssetLookup
	recorder   AuditRecorder
	notifier   AssignmentNotifier
	notifyWait time.Duration
	logger     *logrus.Logger
	now        func() time.Time
}

// NewAssignmentService creates a new assignment service. notifyWait bounds
// each asynchronous notification.
func NewAssignmentService(repo repository.AssignmentRepository, assets AssetLookup, recorder AuditRecorder, notifier AssignmentNotifier, notifyWait time.Duration, logger *logrus.Logger) *AssignmentService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if notifyWait <= 0 {
		notifyWait = 15 * time.Second
	}
	return &AssignmentService{
		repo:       repo,
		assets:     assets,
		recorder:   recorder,
		notifier:   notifier,
		notifyWait: notifyWait,
		logger:     logger,
		now:        time.Now,
	}
}

// Create files a new assignment request. The request always starts pending
// and is attributed to the acting user.
func (s *AssignmentService) Create(ctx context.Context, a model.AssetAssignment) (*model.AssetAssignment, error) {
	if errs := validation.ValidateAssignmentInput(&a); len(errs) > 0 {
		return nil, apperrors.ValidationErrorWithDetails("invalid assignment", errs)
	}

	exists, err := s.assets.AssetExists(ctx, a.AssetType, a.AssetID)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to look up asset", err)
	}
	if !exists {
		return nil, apperrors.InvalidReferenceError(fmt.Sprintf("%s %s does not exist", a.AssetType.DisplayName(), a.AssetID), nil)
	}

	rc := audit.FromContext(ctx)
	a.ID = uuid.New()
	a.Status = model.AssignmentPending
	a.AssignedBy = rc.UserID
	a.AssignedByUsername = rc.Username
	a.ApprovedBy = nil
	a.ApprovedByUsername = nil
	a.ReturnedDate = nil

	if err := s.repo.Create(ctx, &a); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.TimeoutError("create assignment")
		}
		return nil, apperrors.DatabaseError("failed to create assignment", err)
	}

	s.logger.WithFields(logrus.Fields{
		"assignment_id": a.ID,
		"asset_type":    a.AssetType,
		"asset_id":      a.AssetID,
		"assigned_to":   a.AssignedTo,
		"actor":         rc.Actor(),
	}).Info("assignment created")

	s.notifyAsync(a, EventCreated)

	return &a, nil
}

// Get retrieves one assignment.
func (s *AssignmentService) Get(ctx context.Context, id uuid.UUID) (*model.AssetAssignment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapAssignmentError(err, "retrieve")
	}
	return a, nil
}

// List retrieves assignments, newest first.
func (s *AssignmentService) List(ctx context.Context, filter repository.AssignmentFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.AssetAssignment], error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.BadRequestError(fmt.Sprintf("invalid status filter: %s", filter.Status))
	}
	if filter.AssetType != "" && !filter.AssetType.Valid() {
		return nil, apperrors.BadRequestError(fmt.Sprintf("invalid asset type filter: %s", filter.AssetType))
	}

	result, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, mapAssignmentError(err, "list")
	}
	return result, nil
}

// Approve moves a pending assignment to approved.
func (s *AssignmentService) Approve(ctx context.Context, id uuid.UUID) (*model.AssetAssignment, error) {
	return s.apply(ctx, id, model.AssignmentActionApprove)
}

// Reject moves a pending assignment to rejected.
func (s *AssignmentService) Reject(ctx context.Context, id uuid.UUID) (*model.AssetAssignment, error) {
	return s.apply(ctx, id, model.AssignmentActionReject)
}

// Checkout hands an approved asset over to its assignee.
func (s *AssignmentService) Checkout(ctx context.Context, id uuid.UUID) (*model.AssetAssignment, error) {
	return s.apply(ctx, id, model.AssignmentActionCheckout)
}

// Return closes a checked-out assignment.
func (s *AssignmentService) Return(ctx context.Context, id uuid.UUID) (*model.AssetAssignment, error) {
	return s.apply(ctx, id, model.AssignmentActionReturn)
}

// Apply runs a workflow action by name.
func (s *AssignmentService) Apply(ctx context.Context, id uuid.UUID, action model.AssignmentAction) (*model.AssetAssignment, error) {
	return s.apply(ctx, id, action)
}

func (s *AssignmentService) apply(ctx context.Context, id uuid.UUID, action model.AssignmentAction) (*model.AssetAssignment, error) {
	if _, known := transitionMessages[action]; !known {
		return nil, apperrors.BadRequestError(fmt.Sprintf("unknown assignment action: %s", action))
	}

	before, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapAssignmentError(err, "retrieve")
	}

	to, ok := action.Transition(before.Status)
	if !ok {
		return nil, invalidTransition(action)
	}

	rc := audit.FromContext(ctx)
	var change repository.AssignmentChange
	switch action {
	case model.AssignmentActionApprove, model.AssignmentActionReject:
		change.ApprovedBy = rc.UserID
		change.ApprovedByUsername = rc.Username
	case model.AssignmentActionReturn:
		returned := s.now().UTC()
		change.ReturnedDate = &returned
	}

	// The storage update only matches while the status is still the one read
	// above, so two concurrent actions cannot both succeed.
	after, err := s.repo.Transition(ctx, id, before.Status, to, change)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, invalidTransition(action)
		}
		return nil, mapAssignmentError(err, string(action))
	}

	switch action {
	case model.AssignmentActionCheckout:
		s.recorder.Assigned(ctx, rc, *after)
	case model.AssignmentActionReturn:
		s.recorder.Unassigned(ctx, rc, *before, *after)
	}

	s.logger.WithFields(logrus.Fields{
		"assignment_id": id,
		"action":        action,
		"from":          before.Status,
		"to":            after.Status,
		"actor":         rc.Actor(),
	}).Info("assignment updated")

	s.notifyAsync(*after, action.NotificationName())

	return after, nil
}

// notifyAsync sends the event notification in the background. The request
// context is not reused because it ends with the response.
func (s *AssignmentService) notifyAsync(a model.AssetAssignment, event string) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyWait)
		defer cancel()
		if err := s.notifier.AssignmentEvent(ctx, a, event); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"assignment_id": a.ID,
				"event":         event,
			}).Warn("failed to send assignment notification")
		}
	}()
}

var transitionMessages = map[model.AssignmentAction]string{
	model.AssignmentActionApprove:  "Only pending assignments can be approved",
	model.AssignmentActionReject:   "Only pending assignments can be rejected",
	model.AssignmentActionCheckout: "Only approved assignments can be checked out",
	model.AssignmentActionReturn:   "Only checked out assignments can be returned",
}

func invalidTransition(action model.AssignmentAction) error {
	return apperrors.InvalidTransitionError(transitionMessages[action]).WithDetail("required_status", string(action.RequiredStatus()))
}

func mapAssignmentError(err error, operation string) error {
	switch {
	case errors.Is(err, repository.ErrAssignmentNotFound):
		return apperrors.NotFoundError("Assignment")
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.TimeoutError(operation + " assignment")
	}
	return apperrors.DatabaseError(fmt.Sprintf("failed to %s assignment", operation), err)
}
