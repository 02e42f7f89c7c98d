package cli

import (
	"errors"
	"strings"

	"curriculum-cli/internal/drag"
	"curriculum-cli/internal/editor"
	"curriculum-cli/internal/model"
	"curriculum-cli/internal/syncer"

	"github.com/spf13/cobra"
)

type planView struct {
	Kind      string   `json:"kind" yaml:"kind"`
	Container string   `json:"container,omitempty" yaml:"container,omitempty"`
	ActiveID  string   `json:"activeId" yaml:"activeId"`
	TargetID  string   `json:"targetId,omitempty" yaml:"targetId,omitempty"`
	From      int      `json:"from,omitempty" yaml:"from,omitempty"`
	To        int      `json:"to,omitempty" yaml:"to,omitempty"`
	Order     []string `json:"order,omitempty" yaml:"order,omitempty"`
}

func viewPlan(p drag.Plan) planView {
	v := planView{Kind: p.Kind.String(), ActiveID: p.ActiveID, TargetID: p.TargetID}
	if p.Noop() {
		return v
	}
	v.Container = p.Container.String()
	v.From = p.From + 1
	v.To = p.To + 1
	for _, e := range p.Next {
		v.Order = append(v.Order, e.ID)
	}
	return v
}

type outcomeView struct {
	Status    model.ResponseStatus `json:"status" yaml:"status"`
	Message   string               `json:"message,omitempty" yaml:"message,omitempty"`
	RequestID string               `json:"requestId,omitempty" yaml:"requestId,omitempty"`
}

func viewOutcome(o syncer.Outcome) outcomeView {
	if o.OK() {
		return outcomeView{Status: model.StatusSuccess, Message: o.Message, RequestID: o.RequestID}
	}
	v := outcomeView{Status: model.StatusError, RequestID: o.RequestID}
	if o.Reason != nil {
		v.Message = o.Reason.Error()
	}
	return v
}

func newDragCmd(app *App) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "drag <active-id> <over-id>",
		Short: "Move a chapter or lesson onto another one's position",
		Long: strings.TrimSpace(`
Move a chapter or lesson onto another one's position, as if it were dragged
there in the editor.

A chapter dropped on a chapter (or on one of its lessons) reorders chapters.
A lesson dropped on a lesson of the same chapter reorders that chapter's
lessons. Moving lessons between chapters is refused.
`),
		Example: strings.TrimSpace(`
  curriculum drag ch-intro ch-types
  curriculum drag l-hello l-tools --dry-run
`),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := courseID(app, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			b, err := openBackend(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			log, err := cliLogger(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			ed := editor.New(id, b, editor.Options{Logger: log, WriteTimeout: writeTimeout()})
			defer ed.Close()
			if err := ed.Mount(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}

			ev := model.DragEvent{ActiveID: args[0], OverID: args[1]}
			if dryRun {
				plan, err := drag.Classify(ed.Model(), drag.Resolve(ed.Model(), ev))
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"plan": viewPlan(plan)}})
			}

			plan, out, err := ed.Move(cmd.Context(), ev)
			if err != nil {
				return writeErr(cmd, err)
			}
			data := map[string]any{"plan": viewPlan(plan)}
			if !plan.Noop() {
				data["outcome"] = viewOutcome(out)
			}
			if err := writeOut(cmd, app, map[string]any{"data": data}); err != nil {
				return err
			}
			if !plan.Noop() && !out.OK() {
				if out.Reason == nil {
					return writeErr(cmd, errors.New("reorder failed"))
				}
				return writeErr(cmd, out.Reason)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Classify the move without writing")
	return cmd
}
