package publish

import (
	"bytes"
	"fmt"
	"strings"

	"curriculum-cli/internal/model"
)

type RenderOptions struct {
	// IDs appends each chapter and lesson id after its title.
	IDs bool
}

// RenderCourseMarkdown renders a course outline as a markdown document:
// one heading per chapter and a numbered list of its lessons.
func RenderCourseMarkdown(h model.CourseHierarchy, opt RenderOptions) string {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	title := strings.TrimSpace(h.Title)
	if title == "" {
		title = h.CourseID
	}
	writeLn("# " + title)
	writeLn("")
	if len(h.Chapters) == 0 {
		writeLn("_No chapters yet._")
		return buf.String()
	}

	for _, ch := range h.Chapters {
		writeLn(fmt.Sprintf("## %d. %s%s", ch.Position, strings.TrimSpace(ch.Title), idSuffix(ch.ID, opt)))
		writeLn("")
		if len(ch.Lessons) == 0 {
			writeLn("_No lessons._")
			writeLn("")
			continue
		}
		for _, l := range ch.Lessons {
			writeLn(fmt.Sprintf("%d. %s%s", l.Position, strings.TrimSpace(l.Title), idSuffix(l.ID, opt)))
		}
		writeLn("")
	}
	return buf.String()
}

func idSuffix(id string, opt RenderOptions) string {
	if !opt.IDs {
		return ""
	}
	return " `" + id + "`"
}
