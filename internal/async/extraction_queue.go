// Package async serializes OCR work behind a bounded worker pool so that
// concurrent requests do not run more tesseract processes than configured.
package async

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/siape-analyzer/internal/common"
	"github.com/joseph-ayodele/siape-analyzer/internal/core/ocr"
)

// ErrQueueClosed is returned by Extract after Shutdown.
var ErrQueueClosed = fmt.Errorf("%w: extraction queue is shut down", common.ErrInternal)

// Extractor is the wrapped text extractor.
type Extractor interface {
	Extract(ctx context.Context, doc ocr.Document) (ocr.ExtractionResult, error)
}

type job struct {
	ctx      context.Context
	doc      ocr.Document
	queuedAt time.Time
	done     chan result
}

type result struct {
	res ocr.ExtractionResult
	err error
}

// ExtractionQueue runs Extract calls on a fixed number of workers in FIFO order.
// Callers block until their document is processed or their context ends.
type ExtractionQueue struct {
	next    Extractor
	logger  *slog.Logger
	workers int

	ch   chan job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

type Option func(*ExtractionQueue)

func WithWorkers(n int) Option {
	return func(q *ExtractionQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ExtractionQueue) {
		if n > 0 {
			q.ch = make(chan job, n)
		}
	}
}

func NewExtractionQueue(next Extractor, logger *slog.Logger, opts ...Option) *ExtractionQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ExtractionQueue{
		next:    next,
		logger:  logger,
		workers: 1,
		ch:      make(chan job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ExtractionQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("ocr worker started", "worker_id", workerID)

				for j := range q.ch {
					if err := j.ctx.Err(); err != nil {
						j.done <- result{err: err}
						continue
					}
					wait := time.Since(j.queuedAt)
					res, err := q.next.Extract(j.ctx, j.doc)
					if err != nil {
						q.logger.Error("queued extraction failed", "worker_id", workerID, "file", j.doc.Name, "error", err)
					} else {
						q.logger.Debug("queued extraction done", "worker_id", workerID, "file", j.doc.Name, "wait_ms", wait.Milliseconds())
					}
					j.done <- result{res: res, err: err}
				}

				q.logger.Debug("ocr worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Extract queues doc and waits for its result.
func (q *ExtractionQueue) Extract(ctx context.Context, doc ocr.Document) (ocr.ExtractionResult, error) {
	j := job{ctx: ctx, doc: doc, queuedAt: time.Now(), done: make(chan result, 1)}

	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return ocr.ExtractionResult{}, ErrQueueClosed
	}
	select {
	case q.ch <- j:
	default:
		q.logger.Warn("ocr queue full, applying backpressure", "file", doc.Name, "pending", len(q.ch))
		select {
		case q.ch <- j:
		case <-ctx.Done():
			q.mu.RUnlock()
			return ocr.ExtractionResult{}, ctx.Err()
		}
	}
	q.mu.RUnlock()

	select {
	case r := <-j.done:
		return r.res, r.err
	case <-ctx.Done():
		return ocr.ExtractionResult{}, ctx.Err()
	}
}

// Pending is the number of queued, not yet started documents.
func (q *ExtractionQueue) Pending() int {
	return len(q.ch)
}

// Shutdown stops accepting work and waits for queued documents to finish.
func (q *ExtractionQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("ocr queue shutdown interrupted by context")
	case <-done:
		q.logger.Info("ocr queue drained")
	}
}
