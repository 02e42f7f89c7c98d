package tui

import (
	"curriculum-cli/internal/model"
	"curriculum-cli/internal/outline"
)

// row is one visible line of the outline.
type row struct {
	kind      outline.ItemKind
	id        string
	title     string
	rank      int
	chapterID string
	expanded  bool
	lessons   int
}

// flattenRows lists chapters in rank order, each followed by its lessons when expanded.
func flattenRows(chapters []model.Chapter) []row {
	var out []row
	for _, ch := range chapters {
		out = append(out, row{
			kind:      outline.KindChapter,
			id:        ch.ID,
			title:     ch.Title,
			rank:      ch.Rank,
			chapterID: ch.ID,
			expanded:  ch.Expanded,
			lessons:   len(ch.Lessons),
		})
		if !ch.Expanded {
			continue
		}
		for _, l := range ch.Lessons {
			out = append(out, row{
				kind:      outline.KindLesson,
				id:        l.ID,
				title:     l.Title,
				rank:      l.Rank,
				chapterID: ch.ID,
			})
		}
	}
	return out
}

func rowIndex(rows []row, id string) int {
	for i, r := range rows {
		if r.id == id {
			return i
		}
	}
	return -1
}

// hierarchyOf converts the editor view back into the read shape, for preview rendering.
func hierarchyOf(m *outline.Model) model.CourseHierarchy {
	h := model.CourseHierarchy{CourseID: m.CourseID(), Title: m.Title()}
	for _, ch := range m.Chapters() {
		rec := model.ChapterRecord{ID: ch.ID, Title: ch.Title, Position: ch.Rank, Lessons: []model.LessonRecord{}}
		for _, l := range ch.Lessons {
			rec.Lessons = append(rec.Lessons, model.LessonRecord{ID: l.ID, Title: l.Title, Position: l.Rank})
		}
		h.Chapters = append(h.Chapters, rec)
	}
	return h
}
