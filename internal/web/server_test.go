package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"curriculum-cli/internal/model"
	"curriculum-cli/internal/store"
)

func newTestServer(t *testing.T, readOnly bool) (*httptest.Server, store.Store) {
	t.Helper()
	st := store.Store{Dir: t.TempDir()}
	seed := store.Seed{ID: "course-1", Title: "Go Basics", Chapters: []store.SeedChapter{
		{ID: "A", Title: "Alpha", Lessons: []store.SeedLesson{{ID: "L1", Title: "One"}, {ID: "L2", Title: "Two"}}},
		{ID: "B", Title: "Beta"},
	}}
	if _, err := st.ImportCourse(context.Background(), seed); err != nil {
		t.Fatalf("ImportCourse: %v", err)
	}
	s := NewServer(ServerConfig{Dir: st.Dir, ReadOnly: readOnly, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return ts, st
}

func post(t *testing.T, url, body string) (int, model.Response) {
	t.Helper()
	res, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer res.Body.Close()
	var resp model.Response
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return res.StatusCode, resp
}

func TestReorderChapters_Success(t *testing.T) {
	ts, st := newTestServer(t, false)

	code, resp := post(t, ts.URL+"/courses/course-1/chapters/reorder",
		`{"chapters":[{"id":"B","position":1},{"id":"A","position":2}]}`)
	if code != http.StatusOK || !resp.OK() || resp.Message != store.MsgChaptersReordered {
		t.Fatalf("unexpected reply %d %+v", code, resp)
	}
	h, err := st.Hierarchy(context.Background(), "course-1")
	if err != nil {
		t.Fatalf("Hierarchy: %v", err)
	}
	if h.Chapters[0].ID != "B" {
		t.Fatalf("expected B first; got %+v", h.Chapters)
	}
}

func TestReorderLessons_RejectionIsStatusError(t *testing.T) {
	ts, _ := newTestServer(t, false)

	code, resp := post(t, ts.URL+"/courses/course-1/chapters/A/lessons/reorder",
		`{"lessons":[{"id":"L2","position":1}]}`)
	if code != http.StatusUnprocessableEntity || resp.Status != model.StatusError {
		t.Fatalf("unexpected reply %d %+v", code, resp)
	}

	code, resp = post(t, ts.URL+"/courses/course-1/chapters/A/lessons/reorder", `{"bogus":true}`)
	if code != http.StatusBadRequest || resp.Message != "Invalid data" {
		t.Fatalf("unexpected reply %d %+v", code, resp)
	}
}

func TestReadOnly_RejectsWrites(t *testing.T) {
	ts, st := newTestServer(t, true)

	code, resp := post(t, ts.URL+"/courses/course-1/chapters/reorder",
		`{"chapters":[{"id":"B","position":1},{"id":"A","position":2}]}`)
	if code != http.StatusForbidden || resp.OK() {
		t.Fatalf("unexpected reply %d %+v", code, resp)
	}
	h, _ := st.Hierarchy(context.Background(), "course-1")
	if h.Chapters[0].ID != "A" {
		t.Fatalf("read-only server wrote: %+v", h.Chapters)
	}
}

func TestHierarchyAndVersion(t *testing.T) {
	ts, _ := newTestServer(t, false)

	res, err := http.Get(ts.URL + "/courses/course-1/hierarchy")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var h model.CourseHierarchy
	if err := json.NewDecoder(res.Body).Decode(&h); err != nil {
		t.Fatalf("decode: %v", err)
	}
	res.Body.Close()
	if h.Title != "Go Basics" || len(h.Chapters) != 2 || len(h.Chapters[0].Lessons) != 2 {
		t.Fatalf("unexpected hierarchy %+v", h)
	}

	res, err = http.Get(ts.URL + "/courses/missing/version")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404; got %d", res.StatusCode)
	}
}

func TestSameOrigin(t *testing.T) {
	cases := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://127.0.0.1:3340", true},
		{"https://127.0.0.1:3340", true},
		{"http://127.0.0.1:3340.attacker.example", false},
		{"http://attacker.example/?h=127.0.0.1:3340", false},
		{"http://127.0.0.1:3341", false},
		{"null", false},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "http://127.0.0.1:3340/courses/course-1/events", nil)
		r.Host = "127.0.0.1:3340"
		if tc.origin != "" {
			r.Header.Set("Origin", tc.origin)
		}
		if got := sameOrigin(r); got != tc.want {
			t.Fatalf("sameOrigin(%q)=%v, want %v", tc.origin, got, tc.want)
		}
	}
}
