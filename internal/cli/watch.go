package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"curriculum-cli/internal/client"
	"curriculum-cli/internal/model"

	"github.com/spf13/cobra"
)

func newWatchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [course-id]",
		Short: "Stream a course's change events from the server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := serverURL(app)
			if url == "" {
				return writeErr(cmd, errors.New("watch needs a server; pass --server or set serverUrl"))
			}
			id, err := courseID(app, args)
			if err != nil {
				return writeErr(cmd, err)
			}
			c, err := client.New(url)
			if err != nil {
				return writeErr(cmd, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err = c.Watch(ctx, id, func(ev model.ChangeEvent) error {
				return writeOut(cmd, app, map[string]any{"data": ev})
			})
			if err != nil && ctx.Err() == nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
}
