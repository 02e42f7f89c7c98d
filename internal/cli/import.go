package cli

import (
	"os"

	"curriculum-cli/internal/store"

	"github.com/spf13/cobra"
)

func newImportCmd(app *App) *cobra.Command {
	var use bool

	cmd := &cobra.Command{
		Use:   "import <course.yaml>",
		Short: "Create or replace a course from a YAML seed",
		Long: `Create or replace a course from a YAML seed.

List order in the file is position order. Missing ids are generated.

  id: go-basics
  title: Go Basics
  chapters:
    - id: ch-intro
      title: Introduction
      lessons:
        - {id: l-hello, title: Hello, world}
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := localStore(app, "import")
			if err != nil {
				return writeErr(cmd, err)
			}
			f, err := os.Open(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			defer f.Close()

			seed, err := store.ParseSeed(f)
			if err != nil {
				return writeErr(cmd, err)
			}
			id, err := st.ImportCourse(cmd.Context(), seed)
			if err != nil {
				return writeErr(cmd, err)
			}

			lessons := 0
			for _, ch := range seed.Chapters {
				lessons += len(ch.Lessons)
			}
			hints := []string{"curriculum courses show " + id}
			if use {
				cfg, err := store.LoadConfig()
				if err != nil {
					return writeErr(cmd, err)
				}
				cfg.CurrentCourse = id
				if err := store.SaveConfig(cfg); err != nil {
					return writeErr(cmd, err)
				}
				hints = append(hints, "curriculum edit")
			} else {
				hints = append(hints, "curriculum courses use "+id)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"courseId": id,
					"title":    seed.Title,
					"chapters": len(seed.Chapters),
					"lessons":  lessons,
				},
				"_hints": hints,
			})
		},
	}
	cmd.Flags().BoolVar(&use, "use", false, "Also make the imported course current")
	return cmd
}
