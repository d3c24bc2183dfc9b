package issuance

import (
	"context"
	"sync"
)

// DefaultQueueSize bounds the number of pending writes per issuer.
const DefaultQueueSize = 64

type task struct {
	ctx  context.Context
	fn   func() error
	done chan error
}

// Submitter serializes ledger writes per issuer. Each issuer gets its own
// lazily started worker goroutine, so writes for one issuer run single-flight
// while distinct issuers proceed concurrently.
type Submitter struct {
	mu        sync.Mutex
	queues    map[string]chan *task
	queueSize int
}

// NewSubmitter creates a Submitter with the passed per-issuer queue size.
func NewSubmitter(queueSize int) *Submitter {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Submitter{
		queues:    make(map[string]chan *task),
		queueSize: queueSize,
	}
}

// Do runs fn single-flight with respect to all other calls for the same
// issuerID. It blocks until fn has run or ctx is done; a task whose context
// is already cancelled when its turn comes is skipped.
func (s *Submitter) Do(ctx context.Context, issuerID string, fn func() error) error {
	t := &task{
		ctx:  ctx,
		fn:   fn,
		done: make(chan error, 1),
	}
	select {
	case s.queue(issuerID) <- t:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Submitter) queue(issuerID string) chan *task {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queues[issuerID]
	if !ok {
		q = make(chan *task, s.queueSize)
		s.queues[issuerID] = q
		go worker(q)
	}
	return q
}

func worker(q chan *task) {
	for t := range q {
		if err := t.ctx.Err(); err != nil {
			t.done <- err
			continue
		}
		t.done <- t.fn()
	}
}
