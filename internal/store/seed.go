package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Seed is the YAML shape of a course import. List order is position order.
type Seed struct {
	ID       string        `yaml:"id"`
	Title    string        `yaml:"title"`
	Chapters []SeedChapter `yaml:"chapters"`
}

type SeedChapter struct {
	ID      string       `yaml:"id"`
	Title   string       `yaml:"title"`
	Lessons []SeedLesson `yaml:"lessons"`
}

type SeedLesson struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
}

func ParseSeed(r io.Reader) (Seed, error) {
	var s Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return Seed{}, errors.New("empty course seed")
		}
		return Seed{}, fmt.Errorf("parse course seed: %w", err)
	}
	if strings.TrimSpace(s.Title) == "" {
		return Seed{}, errors.New("course seed: missing title")
	}
	return s, nil
}

// normalize fills missing ids and rejects duplicates.
func (s *Seed) normalize() error {
	if strings.TrimSpace(s.ID) == "" {
		s.ID = uuid.NewString()
	}
	seen := map[string]bool{}
	take := func(id *string) error {
		if strings.TrimSpace(*id) == "" {
			*id = uuid.NewString()
		}
		if seen[*id] {
			return fmt.Errorf("course seed: duplicate id %q", *id)
		}
		seen[*id] = true
		return nil
	}
	for i := range s.Chapters {
		if err := take(&s.Chapters[i].ID); err != nil {
			return err
		}
		for j := range s.Chapters[i].Lessons {
			if err := take(&s.Chapters[i].Lessons[j].ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// ImportCourse creates or replaces a course with the seed's chapters and lessons.
// It returns the course id.
func (s Store) ImportCourse(ctx context.Context, seed Seed) (string, error) {
	if err := seed.normalize(); err != nil {
		return "", err
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return "", err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	nowMs := time.Now().UTC().UnixMilli()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO courses(id, title, version, updated_at_unixms) VALUES(?, ?, 1, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, version = courses.version + 1, updated_at_unixms = excluded.updated_at_unixms`,
		seed.ID, seed.Title, nowMs); err != nil {
		return "", err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM lessons WHERE chapter_id IN (SELECT id FROM chapters WHERE course_id = ?)`, seed.ID); err != nil {
		return "", err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chapters WHERE course_id = ?`, seed.ID); err != nil {
		return "", err
	}
	for i, ch := range seed.Chapters {
		if _, err := tx.ExecContext(ctx, `INSERT INTO chapters(id, course_id, title, position) VALUES(?, ?, ?, ?)`,
			ch.ID, seed.ID, ch.Title, i+1); err != nil {
			return "", fmt.Errorf("insert chapter %s: %w", ch.ID, err)
		}
		for j, l := range ch.Lessons {
			if _, err := tx.ExecContext(ctx, `INSERT INTO lessons(id, chapter_id, title, position) VALUES(?, ?, ?, ?)`,
				l.ID, ch.ID, l.Title, j+1); err != nil {
				return "", fmt.Errorf("insert lesson %s: %w", l.ID, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return seed.ID, nil
}
