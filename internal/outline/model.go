// Package outline holds the in-memory chapter/lesson hierarchy of one course.
//
// A Model is owned by a single event loop. It is mutated only through Load,
// Replace (the optimistic mutator's entry point) and the expansion toggles;
// every mutation bumps the version and notifies subscribers.
package outline

import (
	"fmt"

	"curriculum-cli/internal/model"
)

// Reason describes why the model changed.
type Reason string

const (
	ReasonLoad    Reason = "load"
	ReasonReplace Reason = "replace"
	ReasonExpand  Reason = "expand"
	ReasonReset   Reason = "reset"
)

// Change is delivered to subscribers after each mutation.
type Change struct {
	Version   uint64
	Container model.ContainerID
	Reason    Reason
}

// ItemKind distinguishes chapters from lessons when locating an id.
type ItemKind int

const (
	KindUnknown ItemKind = iota
	KindChapter
	KindLesson
)

func (k ItemKind) String() string {
	switch k {
	case KindChapter:
		return "chapter"
	case KindLesson:
		return "lesson"
	default:
		return "unknown"
	}
}

// Location tells where an id lives in the hierarchy.
type Location struct {
	Kind      ItemKind
	Container model.ContainerID
	Index     int
}

// View is the read-only surface the drag controller classifies against.
type View interface {
	Locate(id string) (Location, bool)
	Entries(c model.ContainerID) ([]model.Entry, error)
}

type Model struct {
	courseID string
	title    string
	chapters []model.Chapter
	version  uint64

	subs    map[int]func(Change)
	nextSub int
}

func New(courseID string) *Model {
	return &Model{courseID: courseID, subs: map[int]func(Change){}}
}

func (m *Model) CourseID() string { return m.courseID }
func (m *Model) Title() string    { return m.title }
func (m *Model) Version() uint64  { return m.version }

// Subscribe registers fn to be called after every change. The returned func unsubscribes.
func (m *Model) Subscribe(fn func(Change)) func() {
	if fn == nil {
		return func() {}
	}
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() { delete(m.subs, id) }
}

func (m *Model) changed(c model.ContainerID, r Reason) {
	m.version++
	ch := Change{Version: m.version, Container: c, Reason: r}
	for _, fn := range m.subs {
		fn(ch)
	}
}

// Chapters returns a deep copy of the current hierarchy.
func (m *Model) Chapters() []model.Chapter {
	out := make([]model.Chapter, 0, len(m.chapters))
	for _, c := range m.chapters {
		out = append(out, c.Clone())
	}
	return out
}

func (m *Model) Chapter(id string) (model.Chapter, bool) {
	for _, c := range m.chapters {
		if c.ID == id {
			return c.Clone(), true
		}
	}
	return model.Chapter{}, false
}

// Load replaces chapter/lesson identity, titles and ranks with a server snapshot.
// Expanded flags are carried over by chapter id; unseen chapters start expanded.
// No validation is done: rows are ordered by the given rank as-is.
func (m *Model) Load(h model.CourseHierarchy) {
	expanded := make(map[string]bool, len(m.chapters))
	for _, c := range m.chapters {
		expanded[c.ID] = c.Expanded
	}

	next := make([]model.Chapter, 0, len(h.Chapters))
	for _, rc := range h.Chapters {
		ch := model.Chapter{
			ID:       rc.ID,
			Title:    rc.Title,
			Rank:     rc.Position,
			Expanded: true,
			Lessons:  make([]model.Lesson, 0, len(rc.Lessons)),
		}
		if open, ok := expanded[rc.ID]; ok {
			ch.Expanded = open
		}
		for _, rl := range rc.Lessons {
			ch.Lessons = append(ch.Lessons, model.Lesson{ID: rl.ID, Title: rl.Title, Rank: rl.Position})
		}
		sortLessonsByRank(ch.Lessons)
		next = append(next, ch)
	}
	sortChaptersByRank(next)

	if h.CourseID != "" {
		m.courseID = h.CourseID
	}
	m.title = h.Title
	m.chapters = next
	m.changed(model.RootContainer, ReasonLoad)
}

// Reset discards the hierarchy, e.g. when the editor switches course.
func (m *Model) Reset(courseID string) {
	m.courseID = courseID
	m.title = ""
	m.chapters = nil
	m.changed(model.RootContainer, ReasonReset)
}

// Locate finds a chapter or lesson by id.
func (m *Model) Locate(id string) (Location, bool) {
	if id == "" {
		return Location{}, false
	}
	for i, c := range m.chapters {
		if c.ID == id {
			return Location{Kind: KindChapter, Container: model.RootContainer, Index: i}, true
		}
	}
	for _, c := range m.chapters {
		for j, l := range c.Lessons {
			if l.ID == id {
				return Location{Kind: KindLesson, Container: model.ContainerID(c.ID), Index: j}, true
			}
		}
	}
	return Location{}, false
}

func (m *Model) chapterIndex(id string) int {
	for i, c := range m.chapters {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Entries returns the ordered elements of a container.
func (m *Model) Entries(c model.ContainerID) ([]model.Entry, error) {
	if c.IsRoot() {
		out := make([]model.Entry, 0, len(m.chapters))
		for _, ch := range m.chapters {
			out = append(out, model.Entry{ID: ch.ID, Title: ch.Title, Rank: ch.Rank})
		}
		return out, nil
	}
	idx := m.chapterIndex(string(c))
	if idx < 0 {
		return nil, fmt.Errorf("container not found: %s", c)
	}
	return model.LessonEntries(m.chapters[idx].Lessons), nil
}

// Replace sets the ordered elements of a container.
//
// For the root container, chapters are reordered to match entries and take their
// titles and ranks; each chapter keeps its lessons and Expanded flag. Chapters not
// named in entries keep their relative order after the named ones.
func (m *Model) Replace(c model.ContainerID, entries []model.Entry) error {
	if c.IsRoot() {
		byID := make(map[string]model.Chapter, len(m.chapters))
		for _, ch := range m.chapters {
			byID[ch.ID] = ch
		}
		next := make([]model.Chapter, 0, len(m.chapters))
		used := make(map[string]bool, len(entries))
		for _, e := range entries {
			ch, ok := byID[e.ID]
			if !ok || used[e.ID] {
				continue
			}
			used[e.ID] = true
			ch.Title = e.Title
			ch.Rank = e.Rank
			next = append(next, ch)
		}
		for _, ch := range m.chapters {
			if !used[ch.ID] {
				next = append(next, ch)
			}
		}
		m.chapters = next
		m.changed(c, ReasonReplace)
		return nil
	}

	idx := m.chapterIndex(string(c))
	if idx < 0 {
		return fmt.Errorf("container not found: %s", c)
	}
	m.chapters[idx].Lessons = model.EntryLessons(entries)
	m.changed(c, ReasonReplace)
	return nil
}

// ToggleExpanded flips a chapter's Expanded flag and returns the new value.
func (m *Model) ToggleExpanded(chapterID string) (bool, bool) {
	idx := m.chapterIndex(chapterID)
	if idx < 0 {
		return false, false
	}
	m.chapters[idx].Expanded = !m.chapters[idx].Expanded
	m.changed(model.ContainerID(chapterID), ReasonExpand)
	return m.chapters[idx].Expanded, true
}

func (m *Model) SetAllExpanded(open bool) {
	for i := range m.chapters {
		m.chapters[i].Expanded = open
	}
	m.changed(model.RootContainer, ReasonExpand)
}
