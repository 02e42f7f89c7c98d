package cli

import (
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"curriculum-cli/internal/web"

	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string
	var readOnly bool
	var poll time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ordering store over HTTP",
		Long: strings.TrimSpace(`
Serve the local store over HTTP so several editors can share it.

Routes:
  GET  /courses
  GET  /courses/{courseId}/hierarchy
  GET  /courses/{courseId}/version
  GET  /courses/{courseId}/events            (websocket change feed)
  POST /courses/{courseId}/chapters/reorder
  POST /courses/{courseId}/chapters/{chapterId}/lessons/reorder
`),
		Example: strings.TrimSpace(`
  curriculum serve --addr 127.0.0.1:3340
  curriculum serve --read-only
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := localStore(app, "serve")
			if err != nil {
				return writeErr(cmd, err)
			}
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				return writeErr(cmd, errors.New("serve: missing --addr"))
			}
			log, err := cliLogger(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}

			srv := web.NewServer(web.ServerConfig{
				Addr:         listenAddr,
				Dir:          st.Dir,
				ReadOnly:     readOnly,
				Logger:       log,
				PollInterval: poll,
			})
			defer srv.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":     listenAddr,
					"dir":      st.Dir,
					"readOnly": readOnly,
				},
				"_hints": []string{
					"curriculum --server http://" + listenAddr + " courses list",
				},
			})
			if err := srv.ListenAndServe(ctx); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", envOr("CURRICULUM_ADDR", "127.0.0.1:3340"), "Listen address")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "Reject reorder writes")
	cmd.Flags().DurationVar(&poll, "poll", 2*time.Second, "How often watched courses are checked for outside writes")
	return cmd
}
