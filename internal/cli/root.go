package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"curriculum-cli/internal/client"
	"curriculum-cli/internal/editor"
	"curriculum-cli/internal/format"
	"curriculum-cli/internal/logging"
	"curriculum-cli/internal/model"
	"curriculum-cli/internal/store"

	"github.com/spf13/cobra"
)

type App struct {
	Dir        string
	Server     string
	Course     string
	PrettyJSON bool
	Format     string
	LogLevel   string
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "curriculum",
		Short:        "Course outline editor: reorder chapters and lessons",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Open the editor for the current course
  curriculum

  # Load a course from YAML and select it
  curriculum import course.yaml
  curriculum courses use go-basics

  # Move a chapter after another one, from a script
  curriculum drag ch-intro ch-types

  # Share one store between several editors
  curriculum serve --addr 127.0.0.1:3340
  curriculum --server http://127.0.0.1:3340 edit
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => editor.
			if cmd.HasSubCommands() && len(args) == 0 {
				if err := runEditor(cmd, app); err != nil {
					return writeErr(cmd, err)
				}
				return nil
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("CURRICULUM_DIR", ""), "Path to store dir (default: nearest .curriculum, else ./.curriculum)")
	cmd.PersistentFlags().StringVar(&app.Server, "server", envOr("CURRICULUM_SERVER", ""), "Ordering server URL (overrides serverUrl in config.json)")
	cmd.PersistentFlags().StringVar(&app.Course, "course", envOr("CURRICULUM_COURSE", ""), "Course id (overrides currentCourse in config.json)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("CURRICULUM_FORMAT", "json"), "Output format (json|yaml)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("CURRICULUM_LOG_LEVEL", "warn"), "Log level (debug|info|warn|error)")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newImportCmd(app))
	cmd.AddCommand(newCoursesCmd(app))
	cmd.AddCommand(newDragCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newWatchCmd(app))
	cmd.AddCommand(newConfigCmd(app))

	return cmd
}

// backend is everything the CLI needs from an ordering store, local or remote.
type backend interface {
	editor.Backend
	Courses(ctx context.Context) ([]model.Course, error)
	Version(ctx context.Context, courseID string) (int64, error)
}

var (
	_ backend = store.Local{}
	_ backend = (*client.Client)(nil)
)

func resolveDir(app *App) (string, error) {
	if strings.TrimSpace(app.Dir) != "" {
		return app.Dir, nil
	}
	dir, err := store.DefaultDir()
	if err != nil {
		return "", err
	}
	app.Dir = dir
	return dir, nil
}

// serverURL returns --server, then serverUrl from config.json. Empty means local.
func serverURL(app *App) string {
	if s := strings.TrimSpace(app.Server); s != "" {
		return s
	}
	if cfg, err := store.LoadConfig(); err == nil {
		return strings.TrimSpace(cfg.ServerURL)
	}
	return ""
}

func openBackend(app *App) (backend, error) {
	if url := serverURL(app); url != "" {
		c, err := client.New(url)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	dir, err := resolveDir(app)
	if err != nil {
		return nil, err
	}
	return store.Local{Store: store.Store{Dir: dir}}, nil
}

// localStore fails when a server is configured; some commands only work on a store directory.
func localStore(app *App, what string) (store.Store, error) {
	if url := serverURL(app); url != "" {
		return store.Store{}, fmt.Errorf("%s needs a local store, but a server is configured (%s)", what, url)
	}
	dir, err := resolveDir(app)
	if err != nil {
		return store.Store{}, err
	}
	return store.Store{Dir: dir}, nil
}

// courseID resolves the course: explicit argument, --course, then currentCourse.
func courseID(app *App, args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0]), nil
	}
	if s := strings.TrimSpace(app.Course); s != "" {
		return s, nil
	}
	if cfg, err := store.LoadConfig(); err == nil && cfg.CurrentCourse != "" {
		return cfg.CurrentCourse, nil
	}
	return "", errNoCourse
}

func writeTimeout() time.Duration {
	cfg, err := store.LoadConfig()
	if err != nil {
		return store.DefaultWriteTimeout
	}
	return cfg.WriteTimeoutDuration()
}

func cliLogger(cmd *cobra.Command, app *App) (*slog.Logger, error) {
	level, err := logging.ParseLevel(app.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.NewText(cmd.ErrOrStderr(), level), nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}

func isNotFound(err error) bool {
	var nf store.NotFoundError
	if errors.As(err, &nf) {
		return true
	}
	var se client.StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}
