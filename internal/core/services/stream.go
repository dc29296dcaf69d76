package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
)

// ErrReceiveTimeout indicates no task arrived within the polling window.
// Workers use it to periodically re-check shutdown without blocking.
var ErrReceiveTimeout = errors.New("receive timeout")

// TaskStream is a bounded in-memory stream of DocumentTasks between
// scanners and the processor pool. Send blocks when the buffer is full;
// that blocking is the pipeline's backpressure and load-shedding
// mechanism, so scanners never buffer unboundedly in memory.
type TaskStream struct {
	ch        chan domain.DocumentTask
	closeOnce sync.Once
}

// NewTaskStream creates a stream with the given buffer capacity.
func NewTaskStream(capacity int) *TaskStream {
	if capacity < 1 {
		capacity = 1
	}
	return &TaskStream{ch: make(chan domain.DocumentTask, capacity)}
}

// Send enqueues a task, blocking while the buffer is full. Returns the
// context error if the caller is cancelled while waiting.
func (s *TaskStream) Send(ctx context.Context, task domain.DocumentTask) error {
	select {
	case s.ch <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive dequeues a task, waiting at most the given timeout. Returns
// ErrReceiveTimeout when the window elapses, domain.ErrStreamClosed when
// the stream is closed and drained, or the context error.
func (s *TaskStream) Receive(ctx context.Context, timeout time.Duration) (domain.DocumentTask, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case task, ok := <-s.ch:
		if !ok {
			return domain.DocumentTask{}, domain.ErrStreamClosed
		}
		return task, nil
	case <-timer.C:
		return domain.DocumentTask{}, ErrReceiveTimeout
	case <-ctx.Done():
		return domain.DocumentTask{}, ctx.Err()
	}
}

// Close closes the stream. Workers drain remaining tasks, then their
// next Receive reports domain.ErrStreamClosed and they exit cleanly.
// Safe to call more than once.
func (s *TaskStream) Close() {
	s.closeOnce.Do(func() { close(s.ch) })
}
