// Package editor wires the outline model, drag session, optimistic mutator,
// synchronizer and reconciliation loader for one course.
//
// An Editor is owned by a single goroutine (the event loop). Only Pending.Run
// may be called elsewhere.
package editor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"curriculum-cli/internal/drag"
	"curriculum-cli/internal/model"
	"curriculum-cli/internal/mutate"
	"curriculum-cli/internal/outline"
	"curriculum-cli/internal/reconcile"
	"curriculum-cli/internal/syncer"
)

var ErrClosed = errors.New("editor closed")

// Backend is the ordering store as seen by the editor.
type Backend interface {
	reconcile.Fetcher
	syncer.Writer
}

type Options struct {
	Logger       *slog.Logger
	WriteTimeout time.Duration
}

type Editor struct {
	courseID string
	log      *slog.Logger

	model   *outline.Model
	session *drag.Session
	mutator *mutate.Mutator
	sync    *syncer.Synchronizer
	loader  *reconcile.Loader

	closed bool
}

func New(courseID string, b Backend, opts Options) *Editor {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("course_id", courseID))
	m := outline.New(courseID)
	return &Editor{
		courseID: courseID,
		log:      log,
		model:    m,
		session:  drag.NewSession(m),
		mutator:  mutate.NewMutator(m),
		sync:     syncer.New(b, syncer.WithLogger(log), syncer.WithTimeout(opts.WriteTimeout)),
		loader:   reconcile.NewLoader(b, log),
	}
}

func (e *Editor) CourseID() string          { return e.courseID }
func (e *Editor) Model() *outline.Model     { return e.model }
func (e *Editor) Session() *drag.Session    { return e.session }
func (e *Editor) Loader() *reconcile.Loader { return e.loader }

// Pending returns the number of unsettled writes.
func (e *Editor) Pending() int { return e.mutator.PendingTotal() }

// Mount populates the model from the store.
func (e *Editor) Mount(ctx context.Context) error {
	if e.closed {
		return ErrClosed
	}
	h, err := e.loader.Fetch(ctx, e.courseID)
	if err != nil {
		return err
	}
	e.loader.Apply(e.model, e.mutator, h)
	return nil
}

// Refresh fetches and reconciles synchronously.
func (e *Editor) Refresh(ctx context.Context) (reconcile.Result, error) {
	if e.closed {
		return 0, ErrClosed
	}
	h, err := e.loader.Fetch(ctx, e.courseID)
	if err != nil {
		return 0, err
	}
	return e.Reconcile(h), nil
}

// Reconcile merges an out-of-band snapshot. While writes are in flight the
// snapshot is dropped and Settle later reports that a refetch is due.
func (e *Editor) Reconcile(h model.CourseHierarchy) reconcile.Result {
	if e.closed {
		return reconcile.Ignored
	}
	return e.loader.Apply(e.model, e.mutator, h)
}

// PickUp starts a drag gesture on id.
func (e *Editor) PickUp(id string) error {
	if e.closed {
		return ErrClosed
	}
	return e.session.Start(id)
}

// DropOn ends the current gesture over overID. A nil Pending with a nil error is a no-op.
func (e *Editor) DropOn(overID string) (*Pending, error) {
	if e.closed {
		return nil, ErrClosed
	}
	plan, err := e.session.End(overID)
	e.session.Cancel()
	if err != nil {
		return nil, err
	}
	return e.apply(plan)
}

// Drop classifies a complete gesture and applies it.
func (e *Editor) Drop(ev model.DragEvent) (*Pending, error) {
	if e.closed {
		return nil, ErrClosed
	}
	plan, err := drag.Classify(e.model, drag.Resolve(e.model, ev))
	if err != nil {
		return nil, err
	}
	return e.apply(plan)
}

func (e *Editor) apply(plan drag.Plan) (*Pending, error) {
	if plan.Noop() {
		return nil, nil
	}
	h, err := e.mutator.Apply(plan.Container, plan.Next)
	if err != nil {
		return nil, err
	}
	req := syncer.NewRequest(e.courseID, plan.Container, plan.Next)
	e.log.Debug("reorder applied",
		slog.String("request_id", req.ID),
		slog.String("kind", plan.Kind.String()),
		slog.String("active_id", plan.ActiveID),
		slog.Int("from", plan.From),
		slog.Int("to", plan.To),
	)
	return &Pending{Plan: plan, Request: req, handle: h, sync: e.sync}, nil
}

// Settle commits or rolls back p according to o. It reports whether a deferred
// reconciliation is now due. Outcomes arriving after Close are ignored.
func (e *Editor) Settle(p *Pending, o syncer.Outcome) (refetch bool, err error) {
	if p == nil || e.closed {
		return false, nil
	}
	if err := e.sync.Settle(p.handle, o); err != nil {
		return false, err
	}
	return e.loader.Drained(e.mutator), nil
}

// Move runs a whole gesture synchronously: classify, apply, write, settle.
// A no-op returns a zero Outcome.
func (e *Editor) Move(ctx context.Context, ev model.DragEvent) (drag.Plan, syncer.Outcome, error) {
	p, err := e.Drop(ev)
	if err != nil {
		return drag.Plan{}, syncer.Outcome{}, err
	}
	if p == nil {
		return drag.Plan{Kind: drag.KindNoop, ActiveID: ev.ActiveID}, syncer.Outcome{}, nil
	}
	o := p.Run(ctx)
	if _, err := e.Settle(p, o); err != nil {
		return p.Plan, o, err
	}
	return p.Plan, o, nil
}

// Close detaches the editor. Pending writes still complete but their outcomes no
// longer touch the model.
func (e *Editor) Close() {
	e.closed = true
	e.session.Cancel()
	e.model.Reset(e.courseID)
}

// Pending is one applied, not yet persisted reorder.
type Pending struct {
	Plan    drag.Plan
	Request syncer.Request

	handle *mutate.Handle
	sync   *syncer.Synchronizer
}

func (p *Pending) Container() model.ContainerID { return p.Plan.Container }

// Run performs the write. It does not touch the model and is safe off the event loop.
func (p *Pending) Run(ctx context.Context) syncer.Outcome {
	return p.sync.Write(ctx, p.Request)
}
