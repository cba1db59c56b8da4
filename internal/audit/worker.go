package audit

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/invoxlabs/invox/internal/metrics"
	"github.com/invoxlabs/invox/internal/models"
)

// Recorder persists one audit entry. Implemented by store.AuditStore.
type Recorder interface {
	Record(ctx context.Context, entry *models.AuditEntry) error
}

// Worker buffers audit entries and writes them via a single goroutine,
// decoupling audit persistence from the request lifecycle.
type Worker struct {
	recorder Recorder
	log      *logrus.Logger
	jobs     chan *models.AuditEntry
}

// NewWorker creates a Worker with the given queue capacity.
func NewWorker(recorder Recorder, log *logrus.Logger, queueSize int) *Worker {
	if queueSize <= 0 {
		queueSize = 1000
	}

	return &Worker{
		recorder: recorder,
		log:      log,
		jobs:     make(chan *models.AuditEntry, queueSize),
	}
}

// Enqueue adds an audit entry. Non-blocking; drops the entry if the queue is
// full — a full queue must never delay the request that produced the entry.
func (w *Worker) Enqueue(entry *models.AuditEntry) {
	select {
	case w.jobs <- entry:
		metrics.AuditQueueDepth.Set(float64(len(w.jobs)))
	default:
		metrics.AuditEntriesDropped.Inc()
		w.log.WithFields(logrus.Fields{
			"entity_type": entry.EntityType,
			"operation":   entry.Operation,
		}).Warn("audit queue full, dropping entry")
	}
}

// Run processes audit entries until the context is cancelled, then drains
// remaining entries so accepted writes survive shutdown.
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

// QueueDepth returns the number of pending entries.
func (w *Worker) QueueDepth() int {
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

// process writes one entry. Failures are logged and absorbed; the audit
// trail is supplementary and must never become a point of failure.
func (w *Worker) process(entry *models.AuditEntry) {
	if err := w.recorder.Record(context.Background(), entry); err != nil {
		w.log.WithError(err).WithFields(logrus.Fields{
			"entity_type": entry.EntityType,
			"operation":   entry.Operation,
		}).Warn("audit record failed")
	}

	metrics.AuditQueueDepth.Set(float64(len(w.jobs)))
}
