package audit

import (
	"context"
	"time"

	"asset-inventory-api/internal/metrics"
	"asset-inventory-api/internal/model"

	"github.com/sirupsen/logrus"
)

// Worker buffers history entries and writes them from a single goroutine.
// It implements Writer, so a Recorder can use it in place of a StoreWriter.
type Worker struct {
	next         Writer
	log          *logrus.Logger
	jobs         chan model.AssetHistory
	writeTimeout time.Duration
}

// NewWorker creates a Worker with the given queue capacity that forwards
// entries to next.
func NewWorker(next Writer, log *logrus.Logger, queueSize int) *Worker {
	if queueSize <= 0 {
		queueSize = 1000
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Worker{
		next:         next,
		log:          log,
		jobs:         make(chan model.AssetHistory, queueSize),
		writeTimeout: 5 * time.Second,
	}
}

// Write enqueues entry without blocking. It returns ErrQueueFull when the
// queue has no room; the entry is then lost.
func (w *Worker) Write(_ context.Context, entry model.AssetHistory) error {
	select {
	case w.jobs <- entry:
		metrics.AuditQueueDepth.Set(float64(len(w.jobs)))
		return nil
	default:
		return ErrQueueFull
	}
}

// Run processes entries until ctx is cancelled, then drains what is left.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case entry := <-w.jobs:
			w.process(entry)
		}
	}
}

// Pending returns the number of queued entries.
func (w *Worker) Pending() int {
	return len(w.jobs)
}

func (w *Worker) drain() {
	for {
		select {
		case entry := <-w.jobs:
			w.process(entry)
		default:
			return
		}
	}
}

func (w *Worker) process(entry model.AssetHistory) {
	metrics.AuditQueueDepth.Set(float64(len(w.jobs)))

	// The originating request is usually gone by now.
	ctx, cancel := context.WithTimeout(context.Background(), w.writeTimeout)
	defer cancel()

	if err := w.next.Write(ctx, entry); err != nil {
		metrics.AuditEntriesTotal.WithLabelValues(string(entry.Action), "failed").Inc()
		w.log.WithFields(logrus.Fields{
			"asset_type": entry.AssetType,
			"asset_id":   entry.AssetID,
			"action":     entry.Action,
		}).WithError(err).Warn("audit record failed")
	}
}
