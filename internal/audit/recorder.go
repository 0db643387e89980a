// Package audit records the history trail for asset mutations.
//
// Each create, update and delete performed through the inventory service is
// mirrored by exactly one history entry (none for an update that changed
// nothing). Writing the entry is best effort: a failure is logged and counted
// but never reported back to the caller and never undoes the mutation.
package audit

import (
	"context"
	"errors"
	"time"

	"asset-inventory-api/internal/metrics"
	"asset-inventory-api/internal/model"

	"github.com/sirupsen/logrus"
)

// ErrQueueFull is returned by a Writer that could not accept an entry.
var ErrQueueFull = errors.New("audit queue full")

// Writer persists a single history entry.
type Writer interface {
	Write(ctx context.Context, entry model.AssetHistory) error
}

// HistoryStore is the storage side of the trail.
type HistoryStore interface {
	CreateHistory(ctx context.Context, entry *model.AssetHistory) error
}

// StoreWriter writes entries synchronously to a HistoryStore.
type StoreWriter struct {
	store HistoryStore
}

// NewStoreWriter wraps store as a Writer.
func NewStoreWriter(store HistoryStore) *StoreWriter {
	return &StoreWriter{store: store}
}

func (w *StoreWriter) Write(ctx context.Context, entry model.AssetHistory) error {
	return w.store.CreateHistory(ctx, &entry)
}

// Recorder turns asset mutations into history entries.
type Recorder struct {
	writer Writer
	log    *logrus.Logger
	now    func() time.Time
}

// NewRecorder creates a Recorder that hands entries to w.
func NewRecorder(w Writer, log *logrus.Logger) *Recorder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Recorder{writer: w, log: log, now: time.Now}
}

// Created records the creation of asset. asset must reflect the persisted
// state, including its allocated id and timestamps.
func (r *Recorder) Created(ctx context.Context, rc RequestContext, asset model.Asset) {
	r.write(ctx, rc, r.entry(asset.AssetType(), asset.AssetID(), model.ActionCreated, nil, asset.Snapshot()))
}

// Updated records a change from before to after. before must be read from
// storage immediately ahead of the write. When no field other than
// updated_at differs, nothing is written and Updated reports false.
func (r *Recorder) Updated(ctx context.Context, rc RequestContext, before, after model.Asset) bool {
	oldValues := before.Snapshot()
	newValues := after.Snapshot()

	if oldValues.Equal(newValues) {
		metrics.AuditEntriesTotal.WithLabelValues(string(model.ActionUpdated), "unchanged").Inc()
		return false
	}

	r.write(ctx, rc, r.entry(after.AssetType(), after.AssetID(), model.ActionUpdated, oldValues, newValues))
	return true
}

// Deleted records the removal of asset, carrying its last known state.
func (r *Recorder) Deleted(ctx context.Context, rc RequestContext, asset model.Asset) {
	r.write(ctx, rc, r.entry(asset.AssetType(), asset.AssetID(), model.ActionDeleted, asset.Snapshot(), nil))
}

// Assigned records an asset leaving storage under an assignment.
func (r *Recorder) Assigned(ctx context.Context, rc RequestContext, a model.AssetAssignment) {
	r.write(ctx, rc, r.entry(a.AssetType, a.AssetID, model.ActionAssigned, nil, a.CustodySnapshot()))
}

// Unassigned records an asset coming back. before is the checked-out
// assignment and after the returned one.
func (r *Recorder) Unassigned(ctx context.Context, rc RequestContext, before, after model.AssetAssignment) {
	r.write(ctx, rc, r.entry(after.AssetType, after.AssetID, model.ActionUnassigned, before.CustodySnapshot(), after.CustodySnapshot()))
}

func (r *Recorder) entry(t model.AssetType, id string, action model.HistoryAction, oldValues, newValues model.Snapshot) model.AssetHistory {
	return model.AssetHistory{
		AssetType: t.DisplayName(),
		AssetID:   id,
		Action:    action,
		ChangedAt: r.now().UTC(),
		OldValues: oldValues,
		NewValues: newValues,
	}
}

func (r *Recorder) write(ctx context.Context, rc RequestContext, entry model.AssetHistory) {
	entry.ChangedBy = rc.UserID
	entry.ChangedByUsername = rc.Username
	entry.IPAddress = rc.IP

	fields := logrus.Fields{
		"asset_type": entry.AssetType,
		"asset_id":   entry.AssetID,
		"action":     entry.Action,
		"actor":      rc.Actor(),
	}

	if err := r.writer.Write(ctx, entry); err != nil {
		result := "failed"
		if errors.Is(err, ErrQueueFull) {
			result = "dropped"
		}
		metrics.AuditEntriesTotal.WithLabelValues(string(entry.Action), result).Inc()
		r.log.WithFields(fields).WithError(err).Warn("audit entry not recorded")
		return
	}

	metrics.AuditEntriesTotal.WithLabelValues(string(entry.Action), "written").Inc()
	r.log.WithFields(fields).Debug("audit entry recorded")
}
