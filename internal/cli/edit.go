package cli

import (
	"io"
	"log/slog"

	"curriculum-cli/internal/editor"
	"curriculum-cli/internal/logging"
	"curriculum-cli/internal/store"
	"curriculum-cli/internal/tui"

	"github.com/spf13/cobra"
)

func newEditCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "edit [course-id]",
		Short: "Open the interactive outline editor",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runEditor(cmd, app, args...); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
}

func runEditor(cmd *cobra.Command, app *App, args ...string) error {
	id, err := courseID(app, args)
	if err != nil {
		return err
	}
	b, err := openBackend(app)
	if err != nil {
		return err
	}
	dir, err := resolveDir(app)
	if err != nil {
		return err
	}
	st := store.Store{Dir: dir}

	level, err := logging.ParseLevel(app.LogLevel)
	if err != nil {
		return err
	}
	// The editor owns the terminal: log to a file, and surface warnings in the status line.
	fileLog, closer, err := logging.OpenFile(st.LogPath(), level)
	if err != nil {
		return err
	}
	defer func(c io.Closer) { _ = c.Close() }(closer)
	uiLog := tui.NewLogHandler(slog.LevelWarn)
	log := slog.New(logging.Fanout{fileLog.Handler(), uiLog})

	ed := editor.New(id, b, editor.Options{Logger: log, WriteTimeout: writeTimeout()})
	return tui.Run(cmd.Context(), tui.Options{
		Editor:     ed,
		Versioner:  b,
		Store:      &st,
		LogHandler: uiLog,
		Logger:     log,
	})
}
