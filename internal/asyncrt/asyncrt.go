package asyncrt

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"wakeslot/internal/trace"
	"wakeslot/internal/waker"
)

// Executor runs async tasks on a single goroutine with a
// deterministic FIFO scheduler by default. Fuzz scheduling is
// supported for reproducible interleavings.
//
// Wait queues are not kept inside the executor: every blocking
// resource (channel side, join handle, timer) embeds a single-entry
// waker slot behind a sharing adapter. The executor loop is the one
// logical owner of the Exclusive-wrapped slots; real-time timers fire
// Synced-wrapped slots from their own goroutines.
type Executor struct {
	cfg         Config
	nextID      TaskID
	nextChanID  ChannelID
	nextTimerID TimerID
	ready       []TaskID
	readySet    map[TaskID]struct{}
	tasks       map[TaskID]*Task
	channels    map[ChannelID]*Channel
	timers      timerHeap
	timerByID   map[TimerID]*Timer
	nowMs       uint64
	current     TaskID
	rng         *rand.Rand
	tracer      trace.Tracer

	// Wakes may arrive from other goroutines (real-time timers), so
	// they land in a mailbox drained by the loop.
	inboxMu     sync.Mutex
	inbox       []TaskID
	inboxSignal chan struct{}
	armed       atomic.Int64 // real-time timers not yet fired
}

// TaskID identifies a spawned task.
type TaskID uint64

// TaskStatus describes task scheduling state.
type TaskStatus uint8

const (
	TaskReady TaskStatus = iota
	TaskRunning
	TaskWaiting
	TaskDone
)

// Poll reports how far a task got during one poll.
type Poll uint8

const (
	// PollPending means the task blocked; it must have registered its
	// waker with some resource before returning.
	PollPending Poll = iota
	// PollReady means the task completed with a result.
	PollReady
)

// PollFunc advances a task one step.
type PollFunc func(cx *Context) (any, Poll)

// Task stores executor-visible task state.
type Task struct {
	ID     TaskID
	Status TaskStatus
	Result any

	poll PollFunc
	join *waker.Exclusive[*waker.Slot]
}

// Config configures executor scheduling behavior.
type Config struct {
	Fuzz   bool
	Seed   uint64
	Tracer trace.Tracer
}

// NewExecutor constructs an executor with the provided configuration.
func NewExecutor(cfg Config) *Executor {
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	exec := &Executor{
		cfg:         cfg,
		nextID:      1,
		nextChanID:  1,
		nextTimerID: 1,
		readySet:    make(map[TaskID]struct{}),
		tasks:       make(map[TaskID]*Task),
		channels:    make(map[ChannelID]*Channel),
		timerByID:   make(map[TimerID]*Timer),
		tracer:      tracer,
		inboxSignal: make(chan struct{}, 1),
	}
	if cfg.Fuzz {
		seed := cfg.Seed
		if seed == 0 {
			seed = 1
		}
		exec.rng = rand.New(rand.NewSource(int64(seed))) //nolint:gosec // deterministic scheduler seed
	}
	return exec
}

// Current returns the ID of the task being polled.
func (e *Executor) Current() TaskID {
	if e == nil {
		return 0
	}
	return e.current
}

// Task returns a task by ID.
func (e *Executor) Task(id TaskID) *Task {
	if e == nil {
		return nil
	}
	return e.tasks[id]
}

// Spawn registers a task and enqueues it for execution.
func (e *Executor) Spawn(poll PollFunc) TaskID {
	if e == nil || poll == nil {
		return 0
	}
	id := e.nextID
	e.nextID++

	task := &Task{
		ID:     id,
		Status: TaskReady,
		poll:   poll,
		join:   waker.NewExclusive(&waker.Slot{}),
	}
	e.tasks[id] = task
	e.enqueue(id)
	e.trace(trace.KindSpawn, id, "", "")
	return id
}

// Waker returns a handle that wakes the task with the given ID. The
// handle is safe to fire from any goroutine.
func (e *Executor) Waker(id TaskID) waker.Waker {
	return taskWaker{ex: e, id: id}
}

// NextReady returns the next ready task according to scheduler policy.
func (e *Executor) NextReady() (TaskID, bool) {
	if e == nil || len(e.ready) == 0 {
		return 0, false
	}
	for len(e.ready) > 0 {
		idx := 0
		if e.cfg.Fuzz && e.rng != nil {
			idx = e.rng.Intn(len(e.ready))
		}
		id := e.ready[idx]
		copy(e.ready[idx:], e.ready[idx+1:])
		e.ready = e.ready[:len(e.ready)-1]
		delete(e.readySet, id)
		task := e.tasks[id]
		if task == nil || task.Status == TaskDone {
			continue
		}
		return id, true
	}
	return 0, false
}

// RunUntilIdle polls tasks until no task can make progress. Virtual
// timers advance the clock when the ready queue drains; with
// real-time timers armed, the loop blocks until one fires.
func (e *Executor) RunUntilIdle() {
	if e == nil {
		return
	}
	for {
		e.drainInbox()
		id, ok := e.NextReady()
		if !ok {
			if e.advanceTimeToNextTimer() {
				continue
			}
			if e.armed.Load() > 0 {
				<-e.inboxSignal
				continue
			}
			// A real-time timer may have fired between the armed
			// check above and now; pick up any stragglers before
			// declaring the executor idle.
			e.drainInbox()
			if len(e.ready) > 0 {
				continue
			}
			return
		}
		e.pollTask(id)
	}
}

func (e *Executor) pollTask(id TaskID) {
	task := e.tasks[id]
	if task == nil || task.Status == TaskDone {
		return
	}
	task.Status = TaskRunning
	e.current = id
	result, outcome := task.poll(&Context{ex: e, task: task})
	e.current = 0
	if outcome == PollReady {
		e.markDone(task, result)
		return
	}
	if task.Status == TaskRunning {
		task.Status = TaskWaiting
		e.trace(trace.KindPark, id, "", "")
	}
}

func (e *Executor) markDone(task *Task, result any) {
	task.Result = result
	task.Status = TaskDone
	e.trace(trace.KindDone, task.ID, "", "")
	// Whoever awaits this task sits in its join slot.
	task.join.Wake()
}

// Await resolves the result of target from inside a poll. Pending
// callers have registered in the target's join slot and parked.
func (cx *Context) Await(target TaskID) (any, bool) {
	task := cx.ex.tasks[target]
	if task == nil {
		return nil, true
	}
	if task.Status == TaskDone {
		return task.Result, true
	}
	cx.ex.traceRegister(task.join.Mut(), cx.task.ID, "join", target)
	task.join.Register(cx.Waker())
	return nil, false
}

// Done reports whether the task completed.
func (e *Executor) Done(id TaskID) bool {
	task := e.tasks[id]
	return task == nil || task.Status == TaskDone
}

func (e *Executor) enqueue(id TaskID) {
	if _, ok := e.readySet[id]; ok {
		return
	}
	e.ready = append(e.ready, id)
	e.readySet[id] = struct{}{}
	if task := e.tasks[id]; task != nil && task.Status != TaskDone {
		task.Status = TaskReady
	}
}

// postWake is the only executor entry point that may run on a foreign
// goroutine.
func (e *Executor) postWake(id TaskID) {
	e.inboxMu.Lock()
	e.inbox = append(e.inbox, id)
	e.inboxMu.Unlock()
	select {
	case e.inboxSignal <- struct{}{}:
	default:
	}
	e.trace(trace.KindWake, id, "", "")
}

func resourceName(kind string, owner any) string {
	return fmt.Sprintf("%s:%v", kind, owner)
}

func (e *Executor) drainInbox() {
	e.inboxMu.Lock()
	ids := e.inbox
	e.inbox = nil
	e.inboxMu.Unlock()
	for _, id := range ids {
		task := e.tasks[id]
		if task == nil || task.Status == TaskDone {
			continue
		}
		e.enqueue(id)
	}
}

func (e *Executor) trace(kind trace.Kind, id TaskID, resource, detail string) {
	if !e.tracer.Enabled() {
		return
	}
	e.tracer.Emit(&trace.Event{
		Time:     time.Now(),
		Kind:     kind,
		Task:     uint64(id),
		Resource: resource,
		Detail:   detail,
	})
}

// traceRegister classifies an upcoming registration as a fresh store,
// a coalesce, or an eviction, before the slot mutates.
func (e *Executor) traceRegister(slot *waker.Slot, id TaskID, kind string, owner any) {
	if !e.tracer.Enabled() {
		return
	}
	resource := resourceName(kind, owner)
	switch {
	case !slot.Occupied():
		e.trace(trace.KindRegister, id, resource, "")
	case slot.WillCoalesce(taskWaker{ex: e, id: id}):
		e.trace(trace.KindCoalesce, id, resource, "")
	default:
		e.trace(trace.KindEvict, id, resource, "")
	}
}

// Context is handed to a task's poll function for the duration of one
// poll.
type Context struct {
	ex   *Executor
	task *Task
}

// Waker returns the polled task's wake handle.
func (cx *Context) Waker() waker.Waker {
	return taskWaker{ex: cx.ex, id: cx.task.ID}
}

// TaskID returns the polled task's ID.
func (cx *Context) TaskID() TaskID {
	return cx.task.ID
}

// taskWaker adapts a task to the waker handle contract. Handles are
// value types: cloning is free and identity is (executor, task).
type taskWaker struct {
	ex *Executor
	id TaskID
}

func (w taskWaker) Wake()      { w.ex.postWake(w.id) }
func (w taskWaker) WakeByRef() { w.ex.postWake(w.id) }

func (w taskWaker) WillWake(other waker.Waker) bool {
	o, ok := other.(taskWaker)
	return ok && o.ex == w.ex && o.id == w.id
}

func (w taskWaker) Clone() waker.Waker { return w }
