// Package tui is the interactive course editor: a keyboard-driven outline where
// chapters and lessons are picked up and dropped to reorder them.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"curriculum-cli/internal/editor"
	"curriculum-cli/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

type Options struct {
	Editor *editor.Editor

	// Versioner enables polling for writes made elsewhere. Nil disables it.
	Versioner    Versioner
	PollInterval time.Duration

	// Store persists the selection between runs. Nil disables it.
	Store *store.Store

	// LogHandler, when set, is attached to the program so warnings reach the status line.
	LogHandler *LogHandler
	Logger     *slog.Logger
}

func Run(ctx context.Context, opts Options) error {
	if opts.Editor == nil {
		return errors.New("tui: nil editor")
	}
	applyColorProfilePreference()
	applyThemePreference()

	m := newAppModel(ctx, opts.Editor, opts.Versioner, opts.Logger, opts.PollInterval)

	var st *store.TUIState
	if opts.Store != nil {
		if loaded, err := opts.Store.LoadTUIState(); err == nil {
			st = loaded
		}
	}
	if st != nil && st.CourseID == opts.Editor.CourseID() {
		m.initialSelection = st.SelectedID
		m.help.ShowAll = st.ShowHelp
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if opts.LogHandler != nil {
		opts.LogHandler.Attach(p)
		defer opts.LogHandler.Attach(nil)
	}
	final, err := p.Run()
	opts.Editor.Close()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}

	if fm, ok := final.(appModel); ok && opts.Store != nil {
		if err := opts.Store.SaveTUIState(&store.TUIState{
			CourseID:   opts.Editor.CourseID(),
			SelectedID: fm.selectedID(),
			ShowHelp:   fm.help.ShowAll,
		}); err != nil && opts.Logger != nil {
			opts.Logger.Warn("save editor state", slog.Any("err", err))
		}
	}
	return nil
}
