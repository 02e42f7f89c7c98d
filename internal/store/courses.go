package store

import (
	"context"
	"database/sql"
	"errors"

	"curriculum-cli/internal/model"
)

func (s Store) Courses(ctx context.Context) ([]model.Course, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT id, title FROM courses ORDER BY title, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Course{}
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Title); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CourseVersion returns a counter bumped by every write to the course.
func (s Store) CourseVersion(ctx context.Context, courseID string) (int64, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	return courseVersion(ctx, db, courseID)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func courseVersion(ctx context.Context, q queryer, courseID string) (int64, error) {
	var v int64
	err := q.QueryRowContext(ctx, `SELECT version FROM courses WHERE id = ?`, courseID).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, NotFoundError{Kind: "course", ID: courseID}
	}
	return v, err
}

// Hierarchy returns the course's chapters and lessons ordered by position.
func (s Store) Hierarchy(ctx context.Context, courseID string) (model.CourseHierarchy, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return model.CourseHierarchy{}, err
	}
	defer db.Close()

	h := model.CourseHierarchy{CourseID: courseID, Chapters: []model.ChapterRecord{}}
	err = db.QueryRowContext(ctx, `SELECT title FROM courses WHERE id = ?`, courseID).Scan(&h.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CourseHierarchy{}, NotFoundError{Kind: "course", ID: courseID}
	}
	if err != nil {
		return model.CourseHierarchy{}, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT c.id, c.title, c.position, l.id, l.title, l.position
		FROM chapters c
		LEFT JOIN lessons l ON l.chapter_id = c.id
		WHERE c.course_id = ?
		ORDER BY c.position, c.id, l.position, l.id`, courseID)
	if err != nil {
		return model.CourseHierarchy{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			chID, chTitle string
			chPos         int
			lID, lTitle   sql.NullString
			lPos          sql.NullInt64
		)
		if err := rows.Scan(&chID, &chTitle, &chPos, &lID, &lTitle, &lPos); err != nil {
			return model.CourseHierarchy{}, err
		}
		n := len(h.Chapters)
		if n == 0 || h.Chapters[n-1].ID != chID {
			h.Chapters = append(h.Chapters, model.ChapterRecord{ID: chID, Title: chTitle, Position: chPos, Lessons: []model.LessonRecord{}})
			n++
		}
		if lID.Valid {
			h.Chapters[n-1].Lessons = append(h.Chapters[n-1].Lessons, model.LessonRecord{
				ID:       lID.String,
				Title:    lTitle.String,
				Position: int(lPos.Int64),
			})
		}
	}
	return h, rows.Err()
}
