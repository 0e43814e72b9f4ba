// Package sched implements the cooperative periodic task scheduler that
// drives the control loop. All tasks run on the caller's goroutine; a task
// body must be short and must never block.
package sched

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/boardloop/internal/clock"
)

var (
	ErrZeroInterval  = errors.New("sched: interval must be greater than zero")
	ErrEmptyName     = errors.New("sched: task name is required")
	ErrDuplicateName = errors.New("sched: task already registered")
	ErrNilHandler    = errors.New("sched: handler is required")
)

// Handler is a task body. nowMs is the clock reading of the tick that fired
// it. Returning an error stops the loop.
type Handler func(nowMs uint64) error

// Task is a registered periodic task.
type Task struct {
	Name       string
	IntervalMs uint32
	LastFireMs uint64
	Fires      uint64
	handler    Handler
}

// TaskInfo is a read-only view of a task.
type TaskInfo struct {
	Name       string
	IntervalMs uint32
	LastFireMs uint64
	Fires      uint64
}

// Scheduler dispatches due tasks in registration order.
// Not safe for concurrent use; it is owned by the loop goroutine.
type Scheduler struct {
	clock   clock.Clock
	epochMs uint64
	tasks   []*Task
	log     *zap.Logger
}

// New creates a scheduler. Tasks registered on it are armed at the clock
// reading taken here, so the first firing happens one interval later.
func New(c clock.Clock, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		clock:   c,
		epochMs: c.NowMs(),
		log:     log,
	}
}

// Register adds a task. Zero intervals are rejected rather than treated as
// "always due".
func (s *Scheduler) Register(name string, intervalMs uint32, h Handler) error {
	if name == "" {
		return ErrEmptyName
	}
	if intervalMs == 0 {
		return fmt.Errorf("register %q: %w", name, ErrZeroInterval)
	}
	if h == nil {
		return fmt.Errorf("register %q: %w", name, ErrNilHandler)
	}
	for _, t := range s.tasks {
		if t.Name == name {
			return fmt.Errorf("register %q: %w", name, ErrDuplicateName)
		}
	}

	s.tasks = append(s.tasks, &Task{
		Name:       name,
		IntervalMs: intervalMs,
		LastFireMs: s.epochMs,
		handler:    h,
	})
	return nil
}

// Tick fires every task whose interval has elapsed at nowMs.
// A fired task is re-armed at nowMs, not at LastFireMs+IntervalMs, so a late
// tick never causes catch-up firings.
func (s *Scheduler) Tick(nowMs uint64) error {
	for _, t := range s.tasks {
		// Unsigned subtraction keeps this correct across clock wraparound.
		if nowMs-t.LastFireMs < uint64(t.IntervalMs) {
			continue
		}
		t.LastFireMs = nowMs
		t.Fires++
		if err := t.handler(nowMs); err != nil {
			s.log.Error("task failed",
				zap.String("task", t.Name),
				zap.Uint64("now_ms", nowMs),
				zap.Error(err))
			return fmt.Errorf("task %s: %w", t.Name, err)
		}
	}
	return nil
}

// Run polls the clock and dispatches due tasks until ctx is cancelled or a
// task fails. Between iterations it waits for the next value on idle, which
// only bounds the loop rate.
func (s *Scheduler) Run(ctx context.Context, idle <-chan time.Time) error {
	s.log.Info("scheduler started", zap.Int("tasks", len(s.tasks)))
	for {
		if err := s.Tick(s.clock.NowMs()); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped", zap.Error(ctx.Err()))
			return nil
		case <-idle:
		}
	}
}

// Tasks returns a snapshot of all tasks in registration order.
func (s *Scheduler) Tasks() []TaskInfo {
	out := make([]TaskInfo, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = TaskInfo{
			Name:       t.Name,
			IntervalMs: t.IntervalMs,
			LastFireMs: t.LastFireMs,
			Fires:      t.Fires,
		}
	}
	return out
}

// Len returns the number of registered tasks.
func (s *Scheduler) Len() int {
	return len(s.tasks)
}

// EpochMs returns the clock reading the scheduler was created at.
func (s *Scheduler) EpochMs() uint64 {
	return s.epochMs
}
