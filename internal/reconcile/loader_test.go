package reconcile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"curriculum-cli/internal/model"
	"curriculum-cli/internal/outline"
)

type pending int

func (p pending) PendingTotal() int { return int(p) }

type fakeFetcher struct {
	h     model.CourseHierarchy
	err   error
	calls atomic.Int32
	gate  chan struct{}
}

func (f *fakeFetcher) Hierarchy(ctx context.Context, courseID string) (model.CourseHierarchy, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	return f.h, f.err
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func hierarchy(order ...string) model.CourseHierarchy {
	h := model.CourseHierarchy{CourseID: "c1", Title: "Course"}
	for i, id := range order {
		h.Chapters = append(h.Chapters, model.ChapterRecord{ID: id, Title: id, Position: i + 1})
	}
	return h
}

func TestApply_PreservesExpandedByID(t *testing.T) {
	m := outline.New("c1")
	l := NewLoader(&fakeFetcher{}, quiet())
	if got := l.Apply(m, pending(0), hierarchy("A", "B")); got != Applied {
		t.Fatalf("expected applied; got %s", got)
	}
	m.ToggleExpanded("A")

	l.Apply(m, pending(0), hierarchy("B", "A", "C"))
	chs := m.Chapters()
	open := map[string]bool{}
	for _, c := range chs {
		open[c.ID] = c.Expanded
	}
	if open["A"] || !open["B"] || !open["C"] {
		t.Fatalf("unexpected expanded flags: %+v", open)
	}
	if chs[0].ID != "B" {
		t.Fatalf("expected server order; got %+v", chs)
	}
}

func TestApply_DeferredWhileWritesPending(t *testing.T) {
	m := outline.New("c1")
	l := NewLoader(&fakeFetcher{}, quiet())
	l.Apply(m, pending(0), hierarchy("A", "B"))
	v := m.Version()

	if got := l.Apply(m, pending(1), hierarchy("B", "A")); got != Deferred {
		t.Fatalf("expected deferred; got %s", got)
	}
	if m.Version() != v || m.Chapters()[0].ID != "A" {
		t.Fatalf("deferred snapshot must not touch the model")
	}
	if l.Drained(pending(1)) {
		t.Fatalf("not drained while writes pending")
	}
	if !l.Drained(pending(0)) {
		t.Fatalf("expected refetch owed after writes settle")
	}
	if l.Drained(pending(0)) {
		t.Fatalf("debt must clear after one report")
	}
}

func TestApply_OtherCourseIgnored(t *testing.T) {
	m := outline.New("c1")
	l := NewLoader(&fakeFetcher{}, quiet())
	h := hierarchy("A")
	h.CourseID = "c2"
	if got := l.Apply(m, pending(0), h); got != Ignored {
		t.Fatalf("expected ignored; got %s", got)
	}
}

func TestFetch_CoalescesConcurrentCalls(t *testing.T) {
	f := &fakeFetcher{h: hierarchy("A", "B"), gate: make(chan struct{})}
	l := NewLoader(f, quiet())

	var wg sync.WaitGroup
	started := make(chan struct{}, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			if _, err := l.Fetch(context.Background(), "c1"); err != nil {
				t.Errorf("Fetch: %v", err)
			}
		}()
	}
	for i := 0; i < 4; i++ {
		<-started
	}
	// Wait for the first call to reach the fetcher before releasing it.
	for f.calls.Load() == 0 {
		runtime.Gosched()
	}
	close(f.gate)
	wg.Wait()

	if n := f.calls.Load(); n < 1 || n > 4 {
		t.Fatalf("unexpected call count %d", n)
	}
}

func TestFetch_WrapsError(t *testing.T) {
	sentinel := errors.New("boom")
	l := NewLoader(&fakeFetcher{err: sentinel}, quiet())
	if _, err := l.Fetch(context.Background(), "c1"); !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped error; got %v", err)
	}
}
