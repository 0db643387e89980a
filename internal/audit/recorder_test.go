package audit

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"asset-inventory-api/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryWriter struct {
	mu      sync.Mutex
	entries []model.AssetHistory
	err     error
}

func (m *memoryWriter) Write(ctx context.Context, entry model.AssetHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memoryWriter) all() []model.AssetHistory {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.AssetHistory(nil), m.entries...)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func sp(s string) *string { return &s }

func testRequestContext() RequestContext {
	return RequestContext{UserID: sp("7"), Username: sp("admin"), IP: sp("10.0.0.5")}
}

func testComputer() model.Computer {
	c := model.Computer{
		AssetBase: model.AssetBase{
			ID:        "computer-1",
			AssetTag:  sp("COMP-001"),
			Status:    model.StatusActive,
			CreatedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
			UpdatedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		},
	}
	c.Make = sp("Dell")
	return c
}

func TestRecorder_Created(t *testing.T) {
	w := &memoryWriter{}
	r := NewRecorder(w, quietLogger())

	r.Created(context.Background(), testRequestContext(), testComputer())

	entries := w.all()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "Computer", e.AssetType)
	assert.Equal(t, "computer-1", e.AssetID)
	assert.Equal(t, model.ActionCreated, e.Action)
	assert.Nil(t, e.OldValues)
	assert.Equal(t, "Dell", e.NewValues.Value("make"))
	assert.Equal(t, "7", *e.ChangedBy)
	assert.Equal(t, "admin", *e.ChangedByUsername)
	assert.Equal(t, "10.0.0.5", *e.IPAddress)
	assert.False(t, e.ChangedAt.IsZero())
}

func TestRecorder_Updated_WritesChangedField(t *testing.T) {
	w := &memoryWriter{}
	r := NewRecorder(w, quietLogger())

	before := testComputer()
	after := before
	after.Make = sp("HP")
	after.UpdatedAt = before.UpdatedAt.Add(time.Minute)

	assert.True(t, r.Updated(context.Background(), testRequestContext(), before, after))

	entries := w.all()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, model.ActionUpdated, e.Action)
	assert.Equal(t, "Dell", e.OldValues.Value("make"))
	assert.Equal(t, "HP", e.NewValues.Value("make"))
	assert.Equal(t, []string{"make"}, e.OldValues.ChangedFields(e.NewValues))
}

func TestRecorder_Updated_NoChangeWritesNothing(t *testing.T) {
	w := &memoryWriter{}
	r := NewRecorder(w, quietLogger())

	before := testComputer()
	after := before
	after.UpdatedAt = before.UpdatedAt.Add(time.Hour)

	assert.False(t, r.Updated(context.Background(), testRequestContext(), before, after))
	assert.Empty(t, w.all())
}

func TestRecorder_Deleted(t *testing.T) {
	w := &memoryWriter{}
	r := NewRecorder(w, quietLogger())

	r.Deleted(context.Background(), RequestContext{}, testComputer())

	entries := w.all()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, model.ActionDeleted, e.Action)
	assert.Equal(t, "COMP-001", e.OldValues.Value("asset_tag"))
	assert.Nil(t, e.NewValues)
	assert.Nil(t, e.ChangedBy)
	assert.Nil(t, e.ChangedByUsername)
	assert.Nil(t, e.IPAddress)
}

func TestRecorder_AssignedAndUnassigned(t *testing.T) {
	w := &memoryWriter{}
	r := NewRecorder(w, quietLogger())

	checkedOut := model.AssetAssignment{
		ID:         uuid.New(),
		AssetType:  model.AssetTypeMonitor,
		AssetID:    "monitor-2",
		AssignedTo: "Jane Smith",
		Status:     model.AssignmentCheckedOut,
	}
	returned := checkedOut
	returned.Status = model.AssignmentReturned

	r.Assigned(context.Background(), testRequestContext(), checkedOut)
	r.Unassigned(context.Background(), testRequestContext(), checkedOut, returned)

	entries := w.all()
	require.Len(t, entries, 2)
	assert.Equal(t, model.ActionAssigned, entries[0].Action)
	assert.Equal(t, "Monitor", entries[0].AssetType)
	assert.Equal(t, "Jane Smith", entries[0].NewValues.Value("assigned_to"))
	assert.Equal(t, model.ActionUnassigned, entries[1].Action)
	assert.Equal(t, "checked_out", entries[1].OldValues.Value("status"))
	assert.Equal(t, "returned", entries[1].NewValues.Value("status"))
}

func TestRecorder_WriteFailureIsSwallowed(t *testing.T) {
	w := &memoryWriter{err: errors.New("history table missing")}
	r := NewRecorder(w, quietLogger())

	assert.NotPanics(t, func() {
		r.Created(context.Background(), testRequestContext(), testComputer())
		r.Deleted(context.Background(), testRequestContext(), testComputer())
	})
	assert.Empty(t, w.all())
}

func TestRequestContext_RoundTrip(t *testing.T) {
	ctx := WithRequestContext(context.Background(), testRequestContext())

	rc := FromContext(ctx)
	require.NotNil(t, rc.Username)
	assert.Equal(t, "admin", *rc.Username)
	assert.Equal(t, "admin", rc.Actor())

	empty := FromContext(context.Background())
	assert.Nil(t, empty.UserID)
	assert.Nil(t, empty.IP)
	assert.Equal(t, "anonymous", empty.Actor())
}

func TestRequestContext_IsolatedPerContext(t *testing.T) {
	first := WithRequestContext(context.Background(), RequestContext{Username: sp("alice"), IP: sp("10.0.0.1")})
	second := WithRequestContext(context.Background(), RequestContext{Username: sp("bob")})

	assert.Equal(t, "alice", FromContext(first).Actor())
	assert.Equal(t, "bob", FromContext(second).Actor())
	assert.Nil(t, FromContext(second).IP)
}
