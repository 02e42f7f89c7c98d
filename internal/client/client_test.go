package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"curriculum-cli/internal/editor"
	"curriculum-cli/internal/model"
	"curriculum-cli/internal/store"
	"curriculum-cli/internal/syncer"
	"curriculum-cli/internal/web"
)

func serve(t *testing.T) (*Client, store.Store) {
	t.Helper()
	st := store.Store{Dir: t.TempDir()}
	seed := store.Seed{ID: "course-1", Title: "Go Basics", Chapters: []store.SeedChapter{
		{ID: "A", Title: "Alpha", Lessons: []store.SeedLesson{{ID: "L1", Title: "One"}, {ID: "L2", Title: "Two"}}},
		{ID: "B", Title: "Beta", Lessons: []store.SeedLesson{{ID: "L3", Title: "Three"}}},
	}}
	if _, err := st.ImportCourse(context.Background(), seed); err != nil {
		t.Fatalf("ImportCourse: %v", err)
	}
	srv := web.NewServer(web.ServerConfig{
		Dir:          st.Dir,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		PollInterval: 20 * time.Millisecond,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})

	c, err := New(ts.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, st
}

func TestEditorOverHTTP_CommitsAndPersists(t *testing.T) {
	c, st := serve(t)
	ctx := context.Background()

	e := editor.New("course-1", c, editor.Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err := e.Mount(ctx); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	_, out, err := e.Move(ctx, model.DragEvent{ActiveID: "L2", OverID: "L1"})
	if err != nil || !out.OK() {
		t.Fatalf("Move: %+v %v", out, err)
	}
	if out.Message != store.MsgLessonsReordered {
		t.Fatalf("expected server message; got %q", out.Message)
	}
	h, _ := st.Hierarchy(ctx, "course-1")
	if h.Chapters[0].Lessons[0].ID != "L2" {
		t.Fatalf("expected persisted order; got %+v", h.Chapters[0].Lessons)
	}
}

func TestReorder_RejectionIsResponseNotError(t *testing.T) {
	c, _ := serve(t)
	resp, err := c.ReorderChapters(context.Background(), "course-1", []model.RankUpdate{{ID: "A", Position: 1}})
	if err != nil {
		t.Fatalf("expected a reply; got %v", err)
	}
	if resp.OK() {
		t.Fatalf("expected rejection; got %+v", resp)
	}
}

func TestReorder_UnreachableIsError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c, err := New(url)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.ReorderChapters(context.Background(), "course-1", nil); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestReorder_NonJSONReplyIsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer ts.Close()

	c, _ := New(ts.URL)
	_, err := c.ReorderLessons(context.Background(), "course-1", "A", nil)
	var se StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadGateway {
		t.Fatalf("expected StatusError 502; got %v", err)
	}
}

func TestWatch_ReceivesSnapshotThenChange(t *testing.T) {
	c, st := serve(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got []model.ChangeEvent
	done := errors.New("done")
	err := c.Watch(ctx, "course-1", func(ev model.ChangeEvent) error {
		got = append(got, ev)
		if ev.Type == model.EventSnapshot {
			// A write outside the server is picked up by polling.
			if err := st.ReorderChapters(ctx, "course-1", []model.RankUpdate{{ID: "B", Position: 1}, {ID: "A", Position: 2}}); err != nil {
				return err
			}
			return nil
		}
		return done
	})
	if !errors.Is(err, done) {
		t.Fatalf("Watch: %v", err)
	}
	if len(got) != 2 || got[1].Type != model.EventChanged || got[1].Version <= got[0].Version {
		t.Fatalf("unexpected events %+v", got)
	}
}

func TestNew_RequiresURL(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatalf("expected error")
	}
	c, err := New("localhost:8080/")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.endpoint("courses", "a b"); got != "http://localhost:8080/courses/a%20b" {
		t.Fatalf("unexpected endpoint %q", got)
	}
}

func TestReorder_ForwardsWriteRequestID(t *testing.T) {
	got := make(chan string, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Get("X-Request-Id")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":"success","message":"Lessons reordered successfully"}`)
	}))
	defer ts.Close()

	c, err := New(ts.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req := syncer.NewRequest("course-1", "A", []model.Entry{{ID: "L2", Rank: 1}, {ID: "L1", Rank: 2}})
	out := syncer.New(c, syncer.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))).Write(context.Background(), req)
	if !out.OK() {
		t.Fatalf("outcome=%+v", out)
	}
	if id := <-got; id != req.ID || out.RequestID != req.ID {
		t.Fatalf("header id=%q outcome id=%q, want %q", id, out.RequestID, req.ID)
	}
}
