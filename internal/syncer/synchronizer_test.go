package syncer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"curriculum-cli/internal/model"
	"curriculum-cli/internal/mutate"
	"curriculum-cli/internal/outline"

	"github.com/google/go-cmp/cmp"
)

type call struct {
	courseID  string
	chapterID string
	ranks     []model.RankUpdate
}

type fakeWriter struct {
	resp  model.Response
	err   error
	block bool
	calls []call
}

func (f *fakeWriter) ReorderChapters(ctx context.Context, courseID string, ranks []model.RankUpdate) (model.Response, error) {
	return f.do(ctx, call{courseID: courseID, ranks: ranks})
}

func (f *fakeWriter) ReorderLessons(ctx context.Context, courseID, chapterID string, ranks []model.RankUpdate) (model.Response, error) {
	return f.do(ctx, call{courseID: courseID, chapterID: chapterID, ranks: ranks})
}

func (f *fakeWriter) do(ctx context.Context, c call) (model.Response, error) {
	f.calls = append(f.calls, c)
	if f.block {
		<-ctx.Done()
		return model.Response{}, ctx.Err()
	}
	return f.resp, f.err
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNewRequest_CarriesCompleteAssignment(t *testing.T) {
	req := NewRequest("c1", model.RootContainer, []model.Entry{{ID: "B", Rank: 1}, {ID: "A", Rank: 2}})
	if req.ID == "" {
		t.Fatalf("expected request id")
	}
	want := []model.RankUpdate{{ID: "B", Position: 1}, {ID: "A", Position: 2}}
	if diff := cmp.Diff(want, req.Ranks); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestWrite_RoutesByContainer(t *testing.T) {
	w := &fakeWriter{resp: model.Response{Status: model.StatusSuccess, Message: "ok"}}
	s := New(w, WithLogger(quiet()))

	s.Write(context.Background(), NewRequest("c1", model.RootContainer, []model.Entry{{ID: "A", Rank: 1}}))
	s.Write(context.Background(), NewRequest("c1", "A", []model.Entry{{ID: "L1", Rank: 1}}))

	if len(w.calls) != 2 {
		t.Fatalf("expected exactly one call per write; got %d", len(w.calls))
	}
	if w.calls[0].chapterID != "" || w.calls[1].chapterID != "A" {
		t.Fatalf("unexpected routing: %+v", w.calls)
	}
}

func TestWrite_Classification(t *testing.T) {
	cases := []struct {
		name        string
		w           *fakeWriter
		ok          bool
		rejected    bool
		unreachable bool
	}{
		{name: "success", w: &fakeWriter{resp: model.Response{Status: model.StatusSuccess, Message: "Chapters reordered"}}, ok: true},
		{name: "rejected", w: &fakeWriter{resp: model.Response{Status: model.StatusError, Message: "stale"}}, rejected: true},
		{name: "unreachable", w: &fakeWriter{err: errors.New("connection refused")}, unreachable: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := New(tc.w, WithLogger(quiet())).Write(context.Background(), NewRequest("c1", model.RootContainer, nil))
			if out.OK() != tc.ok || out.Rejected() != tc.rejected || out.Unreachable() != tc.unreachable {
				t.Fatalf("unexpected outcome: %+v", out)
			}
			if out.RequestID == "" {
				t.Fatalf("expected request id on outcome")
			}
		})
	}
}

// countingHandler counts records that pass its level.
type countingHandler struct {
	level slog.Level
	n     int
}

func (h *countingHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= h.level }
func (h *countingHandler) Handle(context.Context, slog.Record) error {
	h.n++
	return nil
}
func (h *countingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *countingHandler) WithGroup(string) slog.Handler { return h }

func TestWrite_FailuresStayBelowWarn(t *testing.T) {
	for _, w := range []*fakeWriter{
		{resp: model.Response{Status: model.StatusError, Message: "positions must be dense"}},
		{err: errors.New("connection refused")},
	} {
		h := &countingHandler{level: slog.LevelWarn}
		out := New(w, WithLogger(slog.New(h))).Write(context.Background(), NewRequest("c1", "A", nil))
		if out.OK() {
			t.Fatalf("expected failure")
		}
		if h.n != 0 {
			t.Fatalf("failure logged at warn or above (%d records)", h.n)
		}
	}
}

func TestWrite_TimeoutIsUnreachable(t *testing.T) {
	w := &fakeWriter{block: true}
	out := New(w, WithLogger(quiet()), WithTimeout(10*time.Millisecond)).
		Write(context.Background(), NewRequest("c1", "A", nil))
	if !out.Unreachable() {
		t.Fatalf("expected unreachable; got %+v", out)
	}
	if !errors.Is(out.Reason, context.DeadlineExceeded) {
		t.Fatalf("expected cause to be kept; got %v", out.Reason)
	}
}

func TestSettle_FailureRollsBack(t *testing.T) {
	m := outline.New("c1")
	m.Load(model.CourseHierarchy{CourseID: "c1", Chapters: []model.ChapterRecord{
		{ID: "A", Title: "Alpha", Position: 1},
		{ID: "B", Title: "Beta", Position: 2},
	}})
	before := m.Chapters()
	mu := mutate.NewMutator(m)
	h, err := mu.Apply(model.RootContainer, []model.Entry{{ID: "B", Title: "Beta", Rank: 1}, {ID: "A", Title: "Alpha", Rank: 2}})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	s := New(&fakeWriter{}, WithLogger(quiet()))
	if err := s.Settle(h, Failure(model.RootContainer, &PersistError{Err: ErrPersistenceRejected})); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if diff := cmp.Diff(before, m.Chapters()); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if h.Phase() != mutate.PhaseRolledBack {
		t.Fatalf("expected rolled back; got %s", h.Phase())
	}
}

func TestPersistError_Message(t *testing.T) {
	err := &PersistError{Err: ErrPersistenceRejected, Message: "positions must be dense"}
	if got := err.Error(); got != "reorder rejected by server: positions must be dense" {
		t.Fatalf("unexpected message %q", got)
	}
	if !errors.Is(err, ErrPersistenceRejected) || errors.Is(err, ErrPersistenceUnreachable) {
		t.Fatalf("unexpected error identity")
	}
}
