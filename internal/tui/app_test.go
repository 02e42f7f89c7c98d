package tui

import (
	"context"
	"testing"

	"curriculum-cli/internal/editor"
	"curriculum-cli/internal/logging"
	"curriculum-cli/internal/model"
	"curriculum-cli/internal/outline"
	"curriculum-cli/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
)

func seedStore(t *testing.T) (store.Store, string) {
	t.Helper()
	st := store.Store{Dir: t.TempDir()}
	id, err := st.ImportCourse(context.Background(), store.Seed{
		ID:    "c1",
		Title: "Go Basics",
		Chapters: []store.SeedChapter{
			{ID: "A", Title: "Intro", Lessons: []store.SeedLesson{{ID: "L1", Title: "Hello"}, {ID: "L2", Title: "Tools"}}},
			{ID: "B", Title: "Types", Lessons: []store.SeedLesson{{ID: "L3", Title: "Structs"}}},
		},
	})
	if err != nil {
		t.Fatalf("ImportCourse: %v", err)
	}
	return st, id
}

func loadedModel(t *testing.T) (appModel, store.Store) {
	t.Helper()
	st, id := seedStore(t)
	ctx := context.Background()
	ed := editor.New(id, store.Local{Store: st}, editor.Options{Logger: logging.Discard()})
	m := newAppModel(ctx, ed, nil, logging.Discard(), 0)

	msg := m.fetchCmd(true)()
	next, _ := m.Update(msg)
	m = next.(appModel)
	if !m.ready {
		t.Fatalf("model not ready after initial load")
	}
	return m, st
}

func press(t *testing.T, m appModel, msgs ...tea.KeyMsg) (appModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(appModel)
	}
	return m, cmd
}

var (
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
)

func rowIDs(rows []row) []string {
	var out []string
	for _, r := range rows {
		out = append(out, r.id)
	}
	return out
}

func TestInitialLoad_ChaptersStartExpanded(t *testing.T) {
	m, _ := loadedModel(t)
	if diff := cmp.Diff([]string{"A", "L1", "L2", "B", "L3"}, rowIDs(m.rows)); diff != "" {
		t.Fatalf("rows (-want +got):\n%s", diff)
	}
}

func TestGrabAndDrop_PersistsChapterOrder(t *testing.T) {
	m, st := loadedModel(t)

	m, _ = press(t, m, keySpace, keyDown, keyDown, keyDown)
	m, cmd := press(t, m, keyEnter)
	if cmd == nil {
		t.Fatalf("expected a write command")
	}
	if m.inflight != 1 {
		t.Fatalf("inflight=%d, want 1", m.inflight)
	}
	if got := m.notice.text; got != "Reordering chapters..." {
		t.Fatalf("notice=%q", got)
	}
	if diff := cmp.Diff([]string{"B", "L3", "A", "L1", "L2"}, rowIDs(m.rows)); diff != "" {
		t.Fatalf("optimistic rows (-want +got):\n%s", diff)
	}
	if got := m.selectedID(); got != "A" {
		t.Fatalf("cursor should follow the moved chapter, got %q", got)
	}

	next, _ := m.Update(cmd())
	m = next.(appModel)
	if m.inflight != 0 {
		t.Fatalf("inflight=%d after settle", m.inflight)
	}
	if got := m.notice.text; got != store.MsgChaptersReordered {
		t.Fatalf("notice=%q", got)
	}

	h, err := st.Hierarchy(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Hierarchy: %v", err)
	}
	if h.Chapters[0].ID != "B" || h.Chapters[1].ID != "A" {
		t.Fatalf("stored order = %s,%s", h.Chapters[0].ID, h.Chapters[1].ID)
	}
}

func TestDropLessonInOtherChapter_IsRefused(t *testing.T) {
	m, st := loadedModel(t)

	m, _ = press(t, m, keyDown, keySpace, keyDown, keyDown, keyDown)
	if got := m.selectedID(); got != "L3" {
		t.Fatalf("cursor on %q, want L3", got)
	}
	m, cmd := press(t, m, keyEnter)
	if cmd != nil {
		t.Fatalf("refused move must not write")
	}
	if got := m.notice.text; got != "Cannot move lessons between chapters" {
		t.Fatalf("notice=%q", got)
	}
	if diff := cmp.Diff([]string{"A", "L1", "L2", "B", "L3"}, rowIDs(m.rows)); diff != "" {
		t.Fatalf("rows changed (-want +got):\n%s", diff)
	}
	if m.ed.Pending() != 0 {
		t.Fatalf("pending=%d", m.ed.Pending())
	}
	v, err := st.CourseVersion(context.Background(), "c1")
	if err != nil {
		t.Fatalf("CourseVersion: %v", err)
	}
	if v != 1 {
		t.Fatalf("version=%d, store must be untouched", v)
	}
}

func TestSnapshotDuringWrite_IsDeferred(t *testing.T) {
	m, _ := loadedModel(t)

	m, _ = press(t, m, keyDown, keySpace, keyDown)
	m, cmd := press(t, m, keyEnter)
	if cmd == nil {
		t.Fatalf("expected a write command")
	}

	stale := model.CourseHierarchy{CourseID: "c1", Title: "Go Basics", Chapters: []model.ChapterRecord{
		{ID: "A", Title: "Intro", Position: 1, Lessons: []model.LessonRecord{{ID: "L1", Title: "Hello", Position: 1}, {ID: "L2", Title: "Tools", Position: 2}}},
		{ID: "B", Title: "Types", Position: 2, Lessons: []model.LessonRecord{{ID: "L3", Title: "Structs", Position: 1}}},
	}}
	next, _ := m.Update(hierarchyMsg{h: stale})
	m = next.(appModel)
	if !m.ed.Loader().Owed() {
		t.Fatalf("snapshot during a write should be deferred")
	}
	if diff := cmp.Diff([]string{"A", "L2", "L1", "B", "L3"}, rowIDs(m.rows)); diff != "" {
		t.Fatalf("optimistic order clobbered (-want +got):\n%s", diff)
	}

	next, refetch := m.Update(cmd())
	m = next.(appModel)
	if refetch == nil {
		t.Fatalf("expected a refetch after the last write settled")
	}
	if m.ed.Loader().Owed() {
		t.Fatalf("debt should be cleared once reported")
	}
}

func TestToggle_CollapsesChapterAndKeepsCursor(t *testing.T) {
	m, _ := loadedModel(t)
	m, _ = press(t, m, keyDown, keyTab)
	if diff := cmp.Diff([]string{"A", "B", "L3"}, rowIDs(m.rows)); diff != "" {
		t.Fatalf("rows (-want +got):\n%s", diff)
	}
	if got := m.selectedID(); got != "A" {
		t.Fatalf("cursor on %q, want A", got)
	}
}

func TestVersionChange_TriggersFetch(t *testing.T) {
	m, _ := loadedModel(t)
	m.ver = fakeVersioner{}

	next, _ := m.Update(versionMsg{v: 1})
	m = next.(appModel)
	if !m.haveVersion || m.lastVersion != 1 {
		t.Fatalf("first version not recorded")
	}
	next, cmd := m.Update(versionMsg{v: 2})
	m = next.(appModel)
	if cmd == nil || m.lastVersion != 2 {
		t.Fatalf("version bump should schedule a fetch")
	}
}

type fakeVersioner struct{}

func (fakeVersioner) Version(context.Context, string) (int64, error) { return 1, nil }

func TestFlattenRows_SkipsCollapsedChapters(t *testing.T) {
	chapters := []model.Chapter{
		{ID: "A", Rank: 1, Expanded: false, Lessons: []model.Lesson{{ID: "L1", Rank: 1}}},
		{ID: "B", Rank: 2, Expanded: true, Lessons: []model.Lesson{{ID: "L2", Rank: 1}}},
	}
	rows := flattenRows(chapters)
	if diff := cmp.Diff([]string{"A", "B", "L2"}, rowIDs(rows)); diff != "" {
		t.Fatalf("rows (-want +got):\n%s", diff)
	}
	if rows[0].kind != outline.KindChapter || rows[0].lessons != 1 {
		t.Fatalf("chapter row = %+v", rows[0])
	}
	if rows[2].kind != outline.KindLesson || rows[2].chapterID != "B" {
		t.Fatalf("lesson row = %+v", rows[2])
	}
}
