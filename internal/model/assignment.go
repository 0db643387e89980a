package model

import (
	"time"

	"github.com/google/uuid"
)

// AssignmentStatus is the custody workflow state of an assignment.
type AssignmentStatus string

const (
	AssignmentPending    AssignmentStatus = "pending"
	AssignmentApproved   AssignmentStatus = "approved"
	AssignmentRejected   AssignmentStatus = "rejected"
	AssignmentCheckedOut AssignmentStatus = "checked_out"
	AssignmentReturned   AssignmentStatus = "returned"
)

// Valid reports whether s is a known assignment status.
func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentPending, AssignmentApproved, AssignmentRejected, AssignmentCheckedOut, AssignmentReturned:
		return true
	}
	return false
}

// AssignmentAction is a workflow step applied to an assignment.
type AssignmentAction string

const (
	AssignmentActionApprove  AssignmentAction = "approve"
	AssignmentActionReject   AssignmentAction = "reject"
	AssignmentActionCheckout AssignmentAction = "checkout"
	AssignmentActionReturn   AssignmentAction = "return"
)

type transition struct {
	from AssignmentStatus
	to   AssignmentStatus
}

// Status only ever moves forward: pending -> approved -> checked_out -> returned,
// or pending -> rejected.
var assignmentTransitions = map[AssignmentAction]transition{
	AssignmentActionApprove:  {from: AssignmentPending, to: AssignmentApproved},
	AssignmentActionReject:   {from: AssignmentPending, to: AssignmentRejected},
	AssignmentActionCheckout: {from: AssignmentApproved, to: AssignmentCheckedOut},
	AssignmentActionReturn:   {from: AssignmentCheckedOut, to: AssignmentReturned},
}

// Transition returns the status an action moves an assignment into, provided
// the assignment is currently in the action's required source status.
func (a AssignmentAction) Transition(current AssignmentStatus) (AssignmentStatus, bool) {
	t, ok := assignmentTransitions[a]
	if !ok || t.from != current {
		return "", false
	}
	return t.to, true
}

// RequiredStatus is the status an assignment must be in for the action to apply.
func (a AssignmentAction) RequiredStatus() AssignmentStatus {
	return assignmentTransitions[a].from
}

// NotificationName is the event name used in assignment notifications.
func (a AssignmentAction) NotificationName() string {
	switch a {
	case AssignmentActionApprove:
		return "approved"
	case AssignmentActionReject:
		return "rejected"
	case AssignmentActionCheckout:
		return "checked_out"
	case AssignmentActionReturn:
		return "returned"
	}
	return string(a)
}

// AssetAssignment records custody of an asset by a person.
type AssetAssignment struct {
	ID                 uuid.UUID        `json:"id"`
	AssetType          AssetType        `json:"asset_type"`
	AssetID            string           `json:"asset_id"`
	AssignedTo         string           `json:"assigned_to"`
	AssignedBy         *string          `json:"assigned_by"`
	AssignedByUsername *string          `json:"assigned_by_username"`
	ApprovedBy         *string          `json:"approved_by"`
	ApprovedByUsername *string          `json:"approved_by_username"`
	Status             AssignmentStatus `json:"status"`
	AssignedDate       time.Time        `json:"assigned_date"`
	DueDate            *time.Time       `json:"due_date"`
	ReturnedDate       *time.Time       `json:"returned_date"`
	Notes              *string          `json:"notes"`
	DigitalSignature   []byte           `json:"digital_signature,omitempty"`
}

// CustodySnapshot describes who holds the asset under this assignment. It is
// stored on assigned/unassigned history rows.
func (a AssetAssignment) CustodySnapshot() Snapshot {
	s := Snapshot{
		"assignment_id": str(a.ID.String()),
		"assigned_to":   str(a.AssignedTo),
		"status":        str(string(a.Status)),
	}
	if a.DueDate != nil {
		s["due_date"] = timestamp(*a.DueDate)
	} else {
		s["due_date"] = nil
	}
	return s
}
