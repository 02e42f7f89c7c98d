package cli

import (
	"errors"
	"fmt"
	"strings"

	"curriculum-cli/internal/publish"
	"curriculum-cli/internal/store"
	"curriculum-cli/internal/tui"

	"github.com/spf13/cobra"
)

func newCoursesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "List, inspect and select courses",
	}
	cmd.AddCommand(newCoursesListCmd(app))
	cmd.AddCommand(newCoursesShowCmd(app))
	cmd.AddCommand(newCoursesUseCmd(app))
	cmd.AddCommand(newCoursesPublishCmd(app))
	return cmd
}

func newCoursesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List courses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			courses, err := b.Courses(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": courses})
		},
	}
}

func newCoursesShowCmd(app *App) *cobra.Command {
	var markdown bool
	var render bool
	var ids bool
	var width int

	cmd := &cobra.Command{
		Use:   "show [course-id]",
		Short: "Show a course's chapters and lessons in order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := courseID(app, args)
			if err != nil {
				return writeErr(cmd, err)
			}
			b, err := openBackend(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			h, err := b.Hierarchy(cmd.Context(), id)
			if err != nil {
				return writeErr(cmd, err)
			}
			if !markdown && !render {
				return writeOut(cmd, app, map[string]any{"data": h})
			}
			md := publish.RenderCourseMarkdown(h, publish.RenderOptions{IDs: ids})
			if render {
				md = tui.RenderMarkdown(md, width)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(md, "\n"))
			return err
		},
	}
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Print Markdown instead of structured output")
	cmd.Flags().BoolVar(&render, "render", false, "Print Markdown rendered for the terminal")
	cmd.Flags().BoolVar(&ids, "ids", false, "Include chapter and lesson ids in Markdown")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width for --render")
	return cmd
}

func newCoursesUseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "use <course-id>",
		Short: "Set the current course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			b, err := openBackend(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			h, err := b.Hierarchy(cmd.Context(), id)
			if err != nil {
				if isNotFound(err) {
					return writeErr(cmd, fmt.Errorf("course not found: %s", id))
				}
				return writeErr(cmd, err)
			}
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			cfg.CurrentCourse = id
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"currentCourse": id, "title": h.Title},
			})
		},
	}
}

func newCoursesPublishCmd(app *App) *cobra.Command {
	var toDir string
	var overwrite bool
	var ids bool

	cmd := &cobra.Command{
		Use:   "publish [course-id]",
		Short: "Export a course outline as Markdown",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			toDir = strings.TrimSpace(toDir)
			if toDir == "" {
				return writeErr(cmd, errors.New("missing --to"))
			}
			id, err := courseID(app, args)
			if err != nil {
				return writeErr(cmd, err)
			}
			b, err := openBackend(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			h, err := b.Hierarchy(cmd.Context(), id)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := publish.WriteCourse(h, toDir, publish.WriteOptions{Overwrite: overwrite, IDs: ids})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": res,
				"_hints": []string{
					"git status",
					"git add -A",
					"git commit -m \"Publish: course " + id + "\"",
				},
			})
		},
	}
	cmd.Flags().StringVar(&toDir, "to", "", "Output directory")
	_ = cmd.MarkFlagRequired("to")
	cmd.Flags().BoolVar(&overwrite, "overwrite", true, "Overwrite existing files")
	cmd.Flags().BoolVar(&ids, "ids", false, "Include chapter and lesson ids")
	return cmd
}
