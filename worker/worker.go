// Package worker implements a single-background-worker scheduling model:
// one goroutine owns a build.Builder, foreground callers submit
// non-blocking edits, and a second submission while a rebuild is in flight
// coalesces with it and interrupts the current replay at the next safe
// point.
//
// Edit submission is grounded on
// holomush-holomush/internal/core/broadcaster.go's non-blocking
// select/default publish and engine.go's "append, then wake, nil-safe" call
// shape: Update appends to (merges into) a pending edit, then signals the
// loop; the loop is nil-safe with no pending edit yet. connect(name, fn) is
// the same map[string][]func(Event) pattern as Broadcaster.subs, guarded by
// the same mutex. The single-builder-at-a-time rule is enforced by a
// golang.org/x/sync/semaphore.Weighted(1), acquired for the duration of a
// rebuild and released at Finished; a coalescing Update cancels the
// in-flight rebuild's context rather than killing the loop goroutine.
package worker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/semaphore"

	"github.com/opencodelex/parce"
	"github.com/opencodelex/parce/build"
	"github.com/opencodelex/parce/internal/config"
)

// maxWakeBuffer bounds how large internal/config's mailbox_size can grow
// the wake channel. Wake only ever carries a single "something is pending"
// signal (the actual edits coalesce into one pendingEdit under w.mu), so
// anything past a handful of slots buys nothing; this just keeps a
// misconfigured multi-gigabyte mailbox_size from allocating a channel to
// match.
const maxWakeBuffer = 64

// EventKind identifies one of the four events a build emits.
type EventKind int

const (
	Replace EventKind = iota
	Invalidate
	Updated
	Finished
)

// Event is published to subscribers connected via Worker.Connect.
// Generation is the ulid stamped once per rebuild run and shared by its
// Replace/Invalidate/Updated/Finished quartet, so a long-lived host can
// order finished events even across process restarts.
type Event struct {
	Kind       EventKind
	Node       parce.Node // set for Invalidate
	Start, End int        // set for Updated
	Generation ulid.ULID
}

type pendingEdit struct {
	text             string
	pos              int
	removed, added   int
}

// Worker owns one Builder and serializes rebuilds onto it.
type Worker struct {
	builder *build.Builder

	mu      sync.Mutex
	pending *pendingEdit
	subs    map[string][]func(Event)
	cancel  context.CancelFunc
	waiters []chan struct{}

	sem *semaphore.Weighted

	root   *parce.Context
	rootMu sync.RWMutex

	wake chan struct{}
	done chan struct{}
	once sync.Once
}

// New starts a Worker's background loop for builder, with a single-slot
// wake mailbox. Close stops it.
func New(builder *build.Builder) *Worker {
	return newWorker(builder, 1)
}

// NewWithTuning starts a Worker whose wake mailbox is sized from
// tuning.MailboxSize (internal/config), instead of New's single-slot
// default. An unparseable MailboxSize falls back to New's default rather
// than failing startup over a tuning knob that never affects correctness.
func NewWithTuning(builder *build.Builder, tuning config.Tuning) *Worker {
	n, err := tuning.MailboxTokens()
	if err != nil || n <= 0 {
		n = 1
	}
	if n > maxWakeBuffer {
		n = maxWakeBuffer
	}
	return newWorker(builder, n)
}

func newWorker(builder *build.Builder, mailbox int) *Worker {
	w := &Worker{
		builder: builder,
		subs:    map[string][]func(Event){},
		sem:     semaphore.NewWeighted(1),
		wake:    make(chan struct{}, mailbox),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w
}

// Connect registers fn to receive every Event published from now on, under
// name (so a later Connect with the same name can be understood as a
// replacement by callers that track names themselves; Worker itself just
// appends).
func (w *Worker) Connect(name string, fn func(Event)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.subs[name] = append(w.subs[name], fn)
}

// Update submits new_text, the result of applying edit to the text the
// worker last saw. Non-blocking: it merges into any pending edit and wakes
// the loop, interrupting an in-flight rebuild at its next ctx.Err() check.
func (w *Worker) Update(text string, edit build.Edit) {
	w.mu.Lock()
	if w.pending == nil {
		w.pending = &pendingEdit{text: text, pos: edit.Pos, removed: edit.Removed, added: edit.Added}
	} else {
		slog.Warn("edit coalesced: rebuild still in flight",
			"prior_pos", w.pending.pos, "prior_removed", w.pending.removed, "prior_added", w.pending.added,
			"new_pos", edit.Pos, "new_removed", edit.Removed, "new_added", edit.Added,
		)
		if edit.Pos < w.pending.pos {
			w.pending.pos = edit.Pos
		}
		w.pending.removed += edit.Removed
		w.pending.added += edit.Added
		w.pending.text = text
	}
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Unlock()
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Root returns the currently published tree (possibly stale if a rebuild is
// in flight) and, if block, first waits for the next Finished event. A
// nil *parce.Context means no Build has completed yet.
func (w *Worker) Root(block bool) *parce.Context {
	if block {
		w.awaitFinished()
	}
	w.rootMu.RLock()
	defer w.rootMu.RUnlock()
	return w.root
}

// OnFinished registers cb to run once, after the next Finished event — the
// non-blocking counterpart to Root(block=true).
func (w *Worker) OnFinished(cb func()) {
	ch := make(chan struct{})
	w.mu.Lock()
	w.waiters = append(w.waiters, ch)
	w.mu.Unlock()
	go func() { <-ch; cb() }()
}

func (w *Worker) awaitFinished() {
	ch := make(chan struct{})
	w.mu.Lock()
	w.waiters = append(w.waiters, ch)
	w.mu.Unlock()
	<-ch
}

// Close stops the background loop. Any in-flight rebuild is interrupted;
// no tree corruption results because splicing only ever happens after a
// rebuild returns, atomically.
func (w *Worker) Close() {
	w.once.Do(func() {
		close(w.done)
		w.mu.Lock()
		if w.cancel != nil {
			w.cancel()
		}
		w.mu.Unlock()
	})
}

func (w *Worker) loop() {
	for {
		select {
		case <-w.done:
			return
		case <-w.wake:
		}
		for {
			select {
			case <-w.done:
				return
			default:
			}
			w.mu.Lock()
			pe := w.pending
			w.pending = nil
			w.mu.Unlock()
			if pe == nil {
				break
			}
			w.runOnce(pe)
		}
	}
}

func (w *Worker) runOnce(pe *pendingEdit) {
	ctx, cancel := context.WithCancel(context.Background())
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()
	defer cancel()

	if err := w.sem.Acquire(ctx, 1); err != nil {
		// interrupted before we even started; fold this edit into the one
		// that interrupted us.
		w.requeue(pe)
		return
	}
	defer w.sem.Release(1)

	gen := ulid.Make()
	w.publish(Event{Kind: Replace, Generation: gen})
	root, err := w.builder.Rebuild(ctx, pe.text, build.Edit{Pos: pe.pos, Removed: pe.removed, Added: pe.added})
	switch {
	case err == parce.Cancelled:
		// fold the interrupted edit into the one the coalescing Update
		// queued; only Replace and Finished go out, since no new root was
		// published.
		w.requeue(pe)
	case err != nil:
		// BuildError: keep the previous root, still reach idle.
	default:
		w.rootMu.Lock()
		w.root = root
		w.rootMu.Unlock()
		w.publish(Event{Kind: Invalidate, Node: root, Generation: gen})
		w.publish(Event{Kind: Updated, Start: w.builder.Start(), End: w.builder.End(), Generation: gen})
	}
	w.publish(Event{Kind: Finished, Generation: gen})

	w.mu.Lock()
	waiters := w.waiters
	w.waiters = nil
	w.mu.Unlock()
	for _, ch := range waiters {
		close(ch)
	}
}

// requeue merges an interrupted edit's range back into the pending edit
// (earliest pos, summed widths), keeping the pending edit's newer text.
func (w *Worker) requeue(pe *pendingEdit) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending == nil {
		w.pending = pe
		return
	}
	if pe.pos < w.pending.pos {
		w.pending.pos = pe.pos
	}
	w.pending.removed += pe.removed
	w.pending.added += pe.added
}

func (w *Worker) publish(ev Event) {
	w.mu.Lock()
	var fns []func(Event)
	for _, group := range w.subs {
		fns = append(fns, group...)
	}
	w.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
