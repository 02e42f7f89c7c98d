package store

import (
	"context"

	"curriculum-cli/internal/model"
)

const (
	MsgChaptersReordered = "Chapters reordered successfully"
	MsgLessonsReordered  = "Lessons reordered successfully"
)

// Respond maps a write result to the wire reply. Rejections become a status
// error reply; store failures are returned as errors.
func Respond(err error, okMessage string) (model.Response, error) {
	if err == nil {
		return model.Response{Status: model.StatusSuccess, Message: okMessage}, nil
	}
	if IsRejection(err) {
		return model.Response{Status: model.StatusError, Message: err.Error()}, nil
	}
	return model.Response{}, err
}

// Local serves the editor directly from a store directory, without a server.
type Local struct {
	Store Store
}

func (l Local) Hierarchy(ctx context.Context, courseID string) (model.CourseHierarchy, error) {
	return l.Store.Hierarchy(ctx, courseID)
}

func (l Local) Version(ctx context.Context, courseID string) (int64, error) {
	return l.Store.CourseVersion(ctx, courseID)
}

func (l Local) ReorderChapters(ctx context.Context, courseID string, ranks []model.RankUpdate) (model.Response, error) {
	return Respond(l.Store.ReorderChapters(ctx, courseID, ranks), MsgChaptersReordered)
}

func (l Local) ReorderLessons(ctx context.Context, courseID, chapterID string, ranks []model.RankUpdate) (model.Response, error) {
	return Respond(l.Store.ReorderLessons(ctx, courseID, chapterID, ranks), MsgLessonsReordered)
}

func (l Local) Courses(ctx context.Context) ([]model.Course, error) {
	return l.Store.Courses(ctx)
}
