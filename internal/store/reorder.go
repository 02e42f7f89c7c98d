package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"curriculum-cli/internal/model"
)

// ReorderChapters assigns new positions to every chapter of a course in one transaction.
// ranks must name each chapter of the course exactly once with positions 1..N.
func (s Store) ReorderChapters(ctx context.Context, courseID string, ranks []model.RankUpdate) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := courseVersion(ctx, tx, courseID); err != nil {
		return err
	}
	current, err := containerIDs(ctx, tx, `SELECT id FROM chapters WHERE course_id = ?`, courseID)
	if err != nil {
		return err
	}
	if err := validateRanks("course "+courseID, current, ranks); err != nil {
		return err
	}

	// Two passes keep the (course_id, position) index unique at every step.
	if _, err := tx.ExecContext(ctx, `UPDATE chapters SET position = -position - 1 WHERE course_id = ?`, courseID); err != nil {
		return err
	}
	for _, r := range ranks {
		if _, err := tx.ExecContext(ctx, `UPDATE chapters SET position = ? WHERE id = ? AND course_id = ?`, r.Position, r.ID, courseID); err != nil {
			return err
		}
	}
	if err := bumpVersion(ctx, tx, courseID); err != nil {
		return err
	}
	return tx.Commit()
}

// ReorderLessons assigns new positions to every lesson of one chapter in one transaction.
func (s Store) ReorderLessons(ctx context.Context, courseID, chapterID string, ranks []model.RankUpdate) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var owner string
	err = tx.QueryRowContext(ctx, `SELECT course_id FROM chapters WHERE id = ?`, chapterID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return NotFoundError{Kind: "chapter", ID: chapterID}
	}
	if err != nil {
		return err
	}
	if owner != courseID {
		return ValidationError{Container: "chapter " + chapterID, Problems: []string{fmt.Sprintf("chapter does not belong to course %s", courseID)}}
	}

	current, err := containerIDs(ctx, tx, `SELECT id FROM lessons WHERE chapter_id = ?`, chapterID)
	if err != nil {
		return err
	}
	if err := validateRanks("chapter "+chapterID, current, ranks); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE lessons SET position = -position - 1 WHERE chapter_id = ?`, chapterID); err != nil {
		return err
	}
	for _, r := range ranks {
		if _, err := tx.ExecContext(ctx, `UPDATE lessons SET position = ? WHERE id = ? AND chapter_id = ?`, r.Position, r.ID, chapterID); err != nil {
			return err
		}
	}
	if err := bumpVersion(ctx, tx, courseID); err != nil {
		return err
	}
	return tx.Commit()
}

func containerIDs(ctx context.Context, tx *sql.Tx, query string, arg string) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

func bumpVersion(ctx context.Context, tx *sql.Tx, courseID string) error {
	_, err := tx.ExecContext(ctx, `UPDATE courses SET version = version + 1, updated_at_unixms = ? WHERE id = ?`,
		time.Now().UTC().UnixMilli(), courseID)
	return err
}

// validateRanks checks that ranks is a complete, dense assignment of current.
func validateRanks(container string, current map[string]bool, ranks []model.RankUpdate) error {
	var problems []string
	seenID := map[string]bool{}
	seenPos := map[int]bool{}
	for _, r := range ranks {
		switch {
		case !current[r.ID]:
			problems = append(problems, fmt.Sprintf("unknown id %q", r.ID))
		case seenID[r.ID]:
			problems = append(problems, fmt.Sprintf("duplicate id %q", r.ID))
		}
		seenID[r.ID] = true
		if r.Position < 1 || r.Position > len(current) || seenPos[r.Position] {
			problems = append(problems, fmt.Sprintf("position %d is not dense", r.Position))
		}
		seenPos[r.Position] = true
	}
	for id := range current {
		if !seenID[id] {
			problems = append(problems, fmt.Sprintf("missing id %q", id))
		}
	}
	if len(problems) > 0 {
		return ValidationError{Container: container, Problems: problems}
	}
	return nil
}
