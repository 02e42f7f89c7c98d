// Package syncer writes new container arrangements to the authoritative ordering store
// and settles the matching optimistic mutation.
package syncer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"curriculum-cli/internal/model"
	"curriculum-cli/internal/mutate"

	"github.com/google/uuid"
)

const DefaultWriteTimeout = 10 * time.Second

// Writer is the container-scoped bulk endpoint of the ordering store. Each call
// carries the complete rank assignment for one container and is applied atomically.
// A returned error means no answer was received; a Response with status error is a
// rejection.
type Writer interface {
	ReorderChapters(ctx context.Context, courseID string, ranks []model.RankUpdate) (model.Response, error)
	ReorderLessons(ctx context.Context, courseID, chapterID string, ranks []model.RankUpdate) (model.Response, error)
}

// Request is one write. It is a plain value so it can be run off the event loop.
type Request struct {
	ID        string
	CourseID  string
	Container model.ContainerID
	Ranks     []model.RankUpdate
}

// NewRequest builds the write for a container's complete new arrangement.
func NewRequest(courseID string, c model.ContainerID, next []model.Entry) Request {
	ranks := make([]model.RankUpdate, 0, len(next))
	for _, e := range next {
		ranks = append(ranks, model.RankUpdate{ID: e.ID, Position: e.Rank})
	}
	return Request{ID: uuid.NewString(), CourseID: courseID, Container: c, Ranks: ranks}
}

type requestIDKey struct{}

// WithRequestID attaches a write's request id to ctx so a Writer can forward it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request id Write attached to ctx.
func RequestIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

type Synchronizer struct {
	w       Writer
	log     *slog.Logger
	timeout time.Duration
}

type Option func(*Synchronizer)

func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) {
		if l != nil {
			s.log = l
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(s *Synchronizer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func New(w Writer, opts ...Option) *Synchronizer {
	s := &Synchronizer{w: w, log: slog.Default(), timeout: DefaultWriteTimeout}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Write issues exactly one call for req and classifies the answer. It does not
// touch the outline model, so it may run on any goroutine. There is no retry.
func (s *Synchronizer) Write(ctx context.Context, req Request) Outcome {
	ctx, cancel := context.WithTimeout(WithRequestID(ctx, req.ID), s.timeout)
	defer cancel()

	log := s.log.With(
		slog.String("request_id", req.ID),
		slog.String("course_id", req.CourseID),
		slog.String("container", req.Container.String()),
		slog.Int("items", len(req.Ranks)),
	)

	start := time.Now()
	var (
		resp model.Response
		err  error
	)
	if req.Container.IsRoot() {
		resp, err = s.w.ReorderChapters(ctx, req.CourseID, req.Ranks)
	} else {
		resp, err = s.w.ReorderLessons(ctx, req.CourseID, string(req.Container), req.Ranks)
	}
	elapsed := time.Since(start)

	// Failures are returned in the Outcome and reported by the caller, so they are
	// logged below Warn and stay out of the editor's status line.
	var out Outcome
	switch {
	case err != nil:
		log.Info("reorder write failed", slog.Duration("elapsed", elapsed), slog.Any("err", err))
		out = Failure(req.Container, &PersistError{Err: ErrPersistenceUnreachable, Container: req.Container, Cause: err})
	case !resp.OK():
		log.Info("reorder write rejected", slog.Duration("elapsed", elapsed), slog.String("message", resp.Message))
		out = Failure(req.Container, &PersistError{Err: ErrPersistenceRejected, Container: req.Container, Message: resp.Message})
	default:
		log.Debug("reorder write committed", slog.Duration("elapsed", elapsed))
		out = Success(req.Container, resp.Message)
	}
	out.RequestID = req.ID
	return out
}

// Settle commits the handle on success and rolls it back on failure.
// It must run on the event loop that owns the handle's model.
func (s *Synchronizer) Settle(h *mutate.Handle, o Outcome) error {
	if h == nil {
		return nil
	}
	if o.OK() {
		return h.Commit()
	}
	if err := h.Rollback(); err != nil {
		return err
	}
	if o.Reason == nil {
		return nil
	}
	s.log.Info("reorder rolled back",
		slog.String("request_id", o.RequestID),
		slog.String("container", o.Container.String()),
		slog.Bool("rejected", errors.Is(o.Reason, ErrPersistenceRejected)),
	)
	return nil
}
