// Package reconcile loads authoritative hierarchies and merges them into the
// outline model without clobbering in-flight optimistic writes.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"curriculum-cli/internal/model"
	"curriculum-cli/internal/outline"

	"golang.org/x/sync/singleflight"
)

// Fetcher reads a course's hierarchy from the ordering store.
type Fetcher interface {
	Hierarchy(ctx context.Context, courseID string) (model.CourseHierarchy, error)
}

// PendingCounter reports unsettled optimistic mutations.
type PendingCounter interface {
	PendingTotal() int
}

type Result int

const (
	Applied Result = iota + 1
	// Deferred means writes were still in flight; the snapshot was dropped and a
	// refetch is owed once they settle.
	Deferred
	// Ignored means the snapshot belongs to another course.
	Ignored
)

func (r Result) String() string {
	switch r {
	case Applied:
		return "applied"
	case Deferred:
		return "deferred"
	case Ignored:
		return "ignored"
	default:
		return "unknown"
	}
}

type Loader struct {
	f     Fetcher
	log   *slog.Logger
	group singleflight.Group
	owed  bool
}

func NewLoader(f Fetcher, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{f: f, log: log}
}

// Fetch reads the hierarchy. Concurrent fetches of one course share a single call.
// Safe to call from any goroutine.
func (l *Loader) Fetch(ctx context.Context, courseID string) (model.CourseHierarchy, error) {
	v, err, shared := l.group.Do(courseID, func() (any, error) {
		return l.f.Hierarchy(ctx, courseID)
	})
	if err != nil {
		return model.CourseHierarchy{}, fmt.Errorf("fetch hierarchy %s: %w", courseID, err)
	}
	if shared {
		l.log.Debug("hierarchy fetch coalesced", slog.String("course_id", courseID))
	}
	h := v.(model.CourseHierarchy)
	// Callers own their copy; the shared result must not alias.
	return cloneHierarchy(h), nil
}

// Apply merges h into m. Must run on the event loop that owns m.
func (l *Loader) Apply(m *outline.Model, p PendingCounter, h model.CourseHierarchy) Result {
	if m.CourseID() != "" && h.CourseID != "" && h.CourseID != m.CourseID() {
		l.log.Debug("hierarchy for other course ignored",
			slog.String("course_id", m.CourseID()), slog.String("got", h.CourseID))
		return Ignored
	}
	if p != nil && p.PendingTotal() > 0 {
		l.owed = true
		l.log.Debug("reconciliation deferred", slog.Int("pending", p.PendingTotal()))
		return Deferred
	}
	l.owed = false
	m.Load(h)
	return Applied
}

// Owed reports whether a deferred snapshot still needs a refetch.
func (l *Loader) Owed() bool { return l.owed }

// Drained reports whether a refetch is due: one was owed and nothing is pending.
// It clears the debt, so it returns true at most once per deferral.
func (l *Loader) Drained(p PendingCounter) bool {
	if !l.owed {
		return false
	}
	if p != nil && p.PendingTotal() > 0 {
		return false
	}
	l.owed = false
	return true
}

func cloneHierarchy(h model.CourseHierarchy) model.CourseHierarchy {
	out := h
	out.Chapters = make([]model.ChapterRecord, 0, len(h.Chapters))
	for _, c := range h.Chapters {
		c.Lessons = append([]model.LessonRecord(nil), c.Lessons...)
		out.Chapters = append(out.Chapters, c)
	}
	return out
}
