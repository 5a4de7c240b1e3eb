package queue

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartcity/access-platform/internal/api/metrics"
	"github.com/smartcity/access-platform/internal/core/domain"
	"github.com/smartcity/access-platform/internal/core/ports"
)

const (
	defaultWorkers = 2
	defaultBuffer  = 256
	writeTimeout   = 5 * time.Second
)

// AuditDispatcher is the asynchronous ports.AuditLogger. Record stamps the
// entry and queues it; a fixed set of workers persists queued entries. A full
// queue drops the entry rather than blocking the request.
type AuditDispatcher struct {
	repo    ports.AuditRepository
	queue   chan *domain.AuditEntry
	workers int
	log     zerolog.Logger
	now     func() time.Time

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	stampMu   sync.Mutex
	lastStamp time.Time
}

var _ ports.AuditLogger = (*AuditDispatcher)(nil)

// NewAuditDispatcher creates a dispatcher with the given queue capacity and
// worker count. Non-positive values select the defaults.
func NewAuditDispatcher(repo ports.AuditRepository, buffer, workers int, log zerolog.Logger) *AuditDispatcher {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &AuditDispatcher{
		repo:    repo,
		queue:   make(chan *domain.AuditEntry, buffer),
		workers: workers,
		log:     log,
		now:     time.Now,
	}
}

// Start launches the workers. Each write gets its own timeout detached from
// ctx, so in-flight entries are not cut off by request or shutdown
// cancellation; Close is what stops the workers.
func (d *AuditDispatcher) Start(ctx context.Context) {
	base := context.WithoutCancel(ctx)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.runWorker(base, i)
	}
}

// Record queues an audit entry. It never blocks and never fails the caller.
func (d *AuditDispatcher) Record(actorID int64, sourceIP, action, details string) {
	entry := &domain.AuditEntry{
		UserID:    actorID,
		Action:    action,
		Details:   details,
		IPAddress: sourceIP,
		Timestamp: d.stamp(),
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(entry, "dispatcher closed")
		return
	}
	select {
	case d.queue <- entry:
		metrics.AuditQueueDepth.Inc()
	default:
		d.drop(entry, "queue full")
	}
}

// stamp returns a UTC millisecond timestamp strictly later than the previous
// one, so newest-first listings follow Record order whichever worker
// persists the entry.
func (d *AuditDispatcher) stamp() time.Time {
	d.stampMu.Lock()
	defer d.stampMu.Unlock()

	ts := d.now().UTC().Truncate(time.Millisecond)
	if !ts.After(d.lastStamp) {
		ts = d.lastStamp.Add(time.Millisecond)
	}
	d.lastStamp = ts
	return ts
}

// Close stops accepting entries and waits until every queued entry has been
// written or the context expires.
func (d *AuditDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *AuditDispatcher) runWorker(ctx context.Context, id int) {
	defer d.wg.Done()
	for entry := range d.queue {
		metrics.AuditQueueDepth.Dec()
		d.write(ctx, id, entry)
	}
}

func (d *AuditDispatcher) write(ctx context.Context, workerID int, entry *domain.AuditEntry) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := d.repo.Insert(ctx, entry); err != nil {
		metrics.AuditWritesTotal.WithLabelValues("failed").Inc()
		d.log.Error().Err(err).
			Int64("user_id", entry.UserID).
			Str("action", entry.Action).
			Int("worker_id", workerID).
			Msg("audit write failed")
		return
	}
	metrics.AuditWritesTotal.WithLabelValues("written").Inc()
}

func (d *AuditDispatcher) drop(entry *domain.AuditEntry, reason string) {
	metrics.AuditWritesTotal.WithLabelValues("dropped").Inc()
	d.log.Warn().
		Int64("user_id", entry.UserID).
		Str("action", entry.Action).
		Str("reason", reason).
		Msg("audit entry dropped")
}
