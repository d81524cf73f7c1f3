// Package synctask runs background cloud-sync work through an explicit
// queue with observable per-task status, instead of fire-and-forget
// goroutines whose failures vanish into a log line.
package synctask

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aria-assistant/aria/internal/events"
	"github.com/aria-assistant/aria/internal/metrics"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Task is one unit of background sync work.
type Task struct {
	Component string // chat_history, settings, integrations, memories
	Operation string // push, pull, clear
	UserID    string
	Run       func(ctx context.Context) error
}

// TaskStatus is the observable state of an enqueued task.
type TaskStatus struct {
	ID         string    `json:"id"`
	Component  string    `json:"component"`
	Operation  string    `json:"operation"`
	UserID     string    `json:"user_id"`
	Status     Status    `json:"status"`
	Error      string    `json:"error,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// maxRetained bounds the status map; oldest finished entries are pruned.
const maxRetained = 256

type queued struct {
	id   string
	task Task
}

// Queue executes tasks sequentially on a single worker goroutine. Order is
// FIFO per queue, which preserves the append order of history pushes for a
// given user.
type Queue struct {
	tasks     chan queued
	publisher *events.Publisher

	mu       sync.Mutex
	statuses map[string]*TaskStatus
	order    []string
	pending  int
	closed   bool
	idle     *sync.Cond

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates and starts a queue with the given buffer size.
func New(size int, publisher *events.Publisher) *Queue {
	if size <= 0 {
		size = 64
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		tasks:     make(chan queued, size),
		publisher: publisher,
		statuses:  make(map[string]*TaskStatus),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	q.idle = sync.NewCond(&q.mu)
	go q.worker(ctx)
	return q
}

// Enqueue adds a task and returns its ID for status polling. A full queue
// returns an error immediately rather than blocking the caller, and a
// closing queue rejects new work so shutdown cannot race a late enqueue.
func (q *Queue) Enqueue(t Task) (string, error) {
	id := uuid.New().String()

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return "", fmt.Errorf("sync queue closed")
	}
	q.record(&TaskStatus{
		ID:         id,
		Component:  t.Component,
		Operation:  t.Operation,
		UserID:     t.UserID,
		Status:     StatusPending,
		EnqueuedAt: time.Now(),
	})
	q.pending++
	q.mu.Unlock()

	select {
	case q.tasks <- queued{id: id, task: t}:
		return id, nil
	default:
		q.taskDone()
		q.finish(id, StatusFailed, "sync queue full")
		return id, fmt.Errorf("sync queue full (%d tasks)", cap(q.tasks))
	}
}

func (q *Queue) taskDone() {
	q.mu.Lock()
	q.pending--
	if q.pending == 0 {
		q.idle.Broadcast()
	}
	q.mu.Unlock()
}

// Status returns the status of a task by ID.
func (q *Queue) Status(id string) (TaskStatus, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	st, ok := q.statuses[id]
	if !ok {
		return TaskStatus{}, false
	}
	return *st, true
}

// Recent returns the retained statuses, newest first.
func (q *Queue) Recent() []TaskStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]TaskStatus, 0, len(q.order))
	for i := len(q.order) - 1; i >= 0; i-- {
		if st, ok := q.statuses[q.order[i]]; ok {
			out = append(out, *st)
		}
	}
	return out
}

// Flush blocks until every task enqueued so far has finished. Test hook and
// shutdown aid; new tasks enqueued while flushing are also waited on.
func (q *Queue) Flush() {
	q.mu.Lock()
	for q.pending > 0 {
		q.idle.Wait()
	}
	q.mu.Unlock()
}

// Close rejects further enqueues and stops the worker after draining
// in-flight work, bounded by ctx.
func (q *Queue) Close(ctx context.Context) {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		q.Flush()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		slog.Warn("sync queue: shutdown timeout, abandoning pending tasks")
	}
	q.cancel()
	<-q.done
}

func (q *Queue) worker(ctx context.Context) {
	defer close(q.done)
	for {
		select {
		case <-ctx.Done():
			return
		case item := <-q.tasks:
			q.runOne(ctx, item)
			q.taskDone()
		}
	}
}

func (q *Queue) runOne(ctx context.Context, item queued) {
	q.setStatus(item.id, StatusRunning, "")

	err := item.task.Run(ctx)

	status := StatusSucceeded
	errMsg := ""
	if err != nil {
		status = StatusFailed
		errMsg = err.Error()
		slog.Warn("sync task failed",
			"component", item.task.Component,
			"operation", item.task.Operation,
			"user_id", item.task.UserID,
			"error", err,
		)
	}
	q.finish(item.id, status, errMsg)

	metrics.SyncTasksTotal.WithLabelValues(item.task.Component, string(status)).Inc()

	event := events.SyncEvent{
		UserID:    item.task.UserID,
		Component: item.task.Component,
		Operation: item.task.Operation,
		Status:    string(status),
		Error:     errMsg,
		Timestamp: time.Now().UTC(),
	}
	if err := q.publisher.PublishSyncEvent(ctx, event); err != nil {
		slog.Warn("publishing sync event", "error", err)
	}
}

func (q *Queue) setStatus(id string, status Status, errMsg string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if st, ok := q.statuses[id]; ok {
		st.Status = status
		st.Error = errMsg
	}
}

func (q *Queue) finish(id string, status Status, errMsg string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if st, ok := q.statuses[id]; ok {
		st.Status = status
		st.Error = errMsg
		st.FinishedAt = time.Now()
	}
}

// record appends a status and prunes the oldest retained entries.
// Caller holds q.mu.
func (q *Queue) record(st *TaskStatus) {
	q.statuses[st.ID] = st
	q.order = append(q.order, st.ID)
	for len(q.order) > maxRetained {
		delete(q.statuses, q.order[0])
		q.order = q.order[1:]
	}
}
