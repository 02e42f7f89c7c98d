package outline

import (
	"testing"

	"curriculum-cli/internal/model"

	"github.com/google/go-cmp/cmp"
)

func twoChapterCourse() model.CourseHierarchy {
	return model.CourseHierarchy{
		CourseID: "course-1",
		Title:    "Course",
		Chapters: []model.ChapterRecord{
			{ID: "A", Title: "Alpha", Position: 1, Lessons: []model.LessonRecord{
				{ID: "L1", Title: "One", Position: 1},
				{ID: "L2", Title: "Two", Position: 2},
			}},
			{ID: "B", Title: "Beta", Position: 2},
		},
	}
}

func chapterIDs(chs []model.Chapter) []string {
	out := make([]string, 0, len(chs))
	for _, c := range chs {
		out = append(out, c.ID)
	}
	return out
}

func TestLoad_SortsByGivenRankAndDefaultsExpanded(t *testing.T) {
	m := New("course-1")
	m.Load(model.CourseHierarchy{
		CourseID: "course-1",
		Chapters: []model.ChapterRecord{
			{ID: "B", Position: 2},
			{ID: "A", Position: 1, Lessons: []model.LessonRecord{{ID: "L2", Position: 2}, {ID: "L1", Position: 1}}},
		},
	})

	got := m.Chapters()
	if diff := cmp.Diff([]string{"A", "B"}, chapterIDs(got)); diff != "" {
		t.Fatalf("chapter order (-want +got):\n%s", diff)
	}
	if got[0].Lessons[0].ID != "L1" || got[0].Lessons[1].ID != "L2" {
		t.Fatalf("expected lessons sorted by rank; got %+v", got[0].Lessons)
	}
	for _, c := range got {
		if !c.Expanded {
			t.Fatalf("expected unseen chapter %s to default expanded", c.ID)
		}
	}
}

func TestLoad_PreservesExpandedByID(t *testing.T) {
	m := New("course-1")
	m.Load(twoChapterCourse())
	if open, ok := m.ToggleExpanded("A"); !ok || open {
		t.Fatalf("expected A collapsed after toggle; open=%v ok=%v", open, ok)
	}

	next := twoChapterCourse()
	next.Chapters[0].Title = "Alpha (renamed)"
	next.Chapters = append(next.Chapters, model.ChapterRecord{ID: "C", Title: "Gamma", Position: 3})
	m.Load(next)

	a, _ := m.Chapter("A")
	if a.Expanded {
		t.Fatalf("expected A to stay collapsed across refresh")
	}
	if a.Title != "Alpha (renamed)" {
		t.Fatalf("expected title from server; got %q", a.Title)
	}
	c, _ := m.Chapter("C")
	if !c.Expanded {
		t.Fatalf("expected new chapter C to default expanded")
	}
}

func TestLoad_DuplicateRanksKeptAsIs(t *testing.T) {
	m := New("course-1")
	m.Load(model.CourseHierarchy{Chapters: []model.ChapterRecord{
		{ID: "X", Position: 1},
		{ID: "Y", Position: 1},
		{ID: "Z", Position: 0},
	}})
	if diff := cmp.Diff([]string{"Z", "X", "Y"}, chapterIDs(m.Chapters())); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}
	entries, _ := m.Entries(model.RootContainer)
	if IsDense(entries) {
		t.Fatalf("expected malformed ranks to be displayed without repair")
	}
}

func TestReplaceRoot_KeepsLessonsAndExpanded(t *testing.T) {
	m := New("course-1")
	m.Load(twoChapterCourse())
	m.ToggleExpanded("A")

	err := m.Replace(model.RootContainer, []model.Entry{
		{ID: "B", Title: "Beta", Rank: 1},
		{ID: "A", Title: "Alpha", Rank: 2},
	})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	got := m.Chapters()
	if got[0].ID != "B" || got[0].Rank != 1 || got[1].ID != "A" || got[1].Rank != 2 {
		t.Fatalf("unexpected chapters: %+v", got)
	}
	if len(got[1].Lessons) != 2 || got[1].Expanded {
		t.Fatalf("expected A to keep lessons and collapsed flag; got %+v", got[1])
	}
}

func TestReplace_UnknownContainer(t *testing.T) {
	m := New("course-1")
	m.Load(twoChapterCourse())
	if err := m.Replace("nope", nil); err == nil {
		t.Fatalf("expected error for unknown container")
	}
}

func TestSubscribe_VersionBumpsAndUnsubscribe(t *testing.T) {
	m := New("course-1")
	var seen []Change
	unsub := m.Subscribe(func(c Change) { seen = append(seen, c) })

	m.Load(twoChapterCourse())
	_ = m.Replace("A", []model.Entry{{ID: "L2", Rank: 1}, {ID: "L1", Rank: 2}})
	unsub()
	m.ToggleExpanded("B")

	if len(seen) != 2 {
		t.Fatalf("expected 2 notifications; got %d", len(seen))
	}
	if seen[1].Container != "A" || seen[1].Reason != ReasonReplace {
		t.Fatalf("unexpected change: %+v", seen[1])
	}
	if m.Version() != 3 {
		t.Fatalf("expected version 3; got %d", m.Version())
	}
}

func TestLocate(t *testing.T) {
	m := New("course-1")
	m.Load(twoChapterCourse())

	loc, ok := m.Locate("L2")
	if !ok || loc.Kind != KindLesson || loc.Container != "A" || loc.Index != 1 {
		t.Fatalf("unexpected location: %+v ok=%v", loc, ok)
	}
	loc, ok = m.Locate("B")
	if !ok || loc.Kind != KindChapter || !loc.Container.IsRoot() || loc.Index != 1 {
		t.Fatalf("unexpected location: %+v ok=%v", loc, ok)
	}
	if _, ok := m.Locate("missing"); ok {
		t.Fatalf("expected missing id not to be found")
	}
}

func TestChapters_ReturnsDeepCopy(t *testing.T) {
	m := New("course-1")
	m.Load(twoChapterCourse())
	got := m.Chapters()
	got[0].Lessons[0].Title = "mutated"

	a, _ := m.Chapter("A")
	if a.Lessons[0].Title != "One" {
		t.Fatalf("expected model to be unaffected by caller mutation")
	}
}
