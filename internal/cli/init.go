package cli

import "github.com/spf13/cobra"

func newInitCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a local store directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := localStore(app, "init")
			if err != nil {
				return writeErr(cmd, err)
			}
			// Listing courses creates and migrates the database.
			courses, err := st.Courses(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"dir":        st.Dir,
					"sqlitePath": st.SQLitePath(),
					"courses":    len(courses),
				},
				"_hints": []string{
					"curriculum import <course.yaml>",
				},
			})
		},
	}
}

