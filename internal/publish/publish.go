package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"curriculum-cli/internal/model"
)

type WriteOptions struct {
	Overwrite bool
	IDs       bool
}

type WriteResult struct {
	Written []string `json:"written"`
}

// WriteCourse writes <toDir>/courses/<courseId>.md.
func WriteCourse(h model.CourseHierarchy, toDir string, opt WriteOptions) (WriteResult, error) {
	if strings.TrimSpace(h.CourseID) == "" {
		return WriteResult{}, errors.New("missing course id")
	}
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)

	md := RenderCourseMarkdown(h, RenderOptions{IDs: opt.IDs})

	outDir := filepath.Join(toDir, "courses")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return WriteResult{}, err
	}
	outPath := filepath.Join(outDir, h.CourseID+".md")
	if err := writeFile(outPath, []byte(md), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Written: []string{outPath}}, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
