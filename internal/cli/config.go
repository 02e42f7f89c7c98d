package cli

import (
	"fmt"
	"strings"
	"time"

	"curriculum-cli/internal/store"

	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change global settings (~/.curriculum/config.json)",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the global config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			path, _ := store.ConfigPath()
			return writeOut(cmd, app, map[string]any{
				"data": cfg,
				"path": path,
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set currentCourse, serverUrl or writeTimeout (empty value clears)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			val := strings.TrimSpace(args[1])
			switch args[0] {
			case "currentCourse":
				cfg.CurrentCourse = val
			case "serverUrl":
				cfg.ServerURL = val
			case "writeTimeout":
				if val != "" {
					d, err := time.ParseDuration(val)
					if err != nil || d <= 0 {
						return writeErr(cmd, errUsage(fmt.Sprintf("invalid writeTimeout %q (want a duration like 10s)", val)))
					}
				}
				cfg.WriteTimeout = val
			default:
				return writeErr(cmd, errUsage("unknown config key: "+args[0]))
			}
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": cfg})
		},
	})
	return cmd
}
