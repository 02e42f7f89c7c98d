// Package drag turns a completed drag gesture into a new arrangement of one container.
//
// Classification works on ids and an outline.View only, so it can be exercised
// without any pointer or keyboard input.
package drag

import (
	"curriculum-cli/internal/model"
	"curriculum-cli/internal/outline"
)

// Kind is the classification of a completed gesture.
type Kind int

const (
	KindNoop Kind = iota
	KindChapterReorder
	KindLessonReorder
)

func (k Kind) String() string {
	switch k {
	case KindChapterReorder:
		return "chapter-reorder"
	case KindLessonReorder:
		return "lesson-reorder"
	default:
		return "noop"
	}
}

// Plan is the result of classifying a gesture.
// For a reorder, Next is the complete new arrangement of Container with ranks 1..N.
type Plan struct {
	Kind      Kind
	Container model.ContainerID
	ActiveID  string
	TargetID  string
	From      int
	To        int
	Next      []model.Entry
}

func (p Plan) Noop() bool { return p.Kind == KindNoop }

// Resolve fills in the container ids a gesture left empty from the current
// hierarchy. Container ids the caller supplied are kept, so Classify can refuse
// a gesture whose own ids disagree.
func Resolve(v outline.View, ev model.DragEvent) model.DragEvent {
	if ev.ActiveContainer.IsRoot() {
		if loc, ok := v.Locate(ev.ActiveID); ok {
			ev.ActiveContainer = loc.Container
		}
	}
	if ev.OverContainer.IsRoot() {
		if loc, ok := v.Locate(ev.OverID); ok {
			ev.OverContainer = loc.Container
		}
	}
	return ev
}

// Classify computes the new arrangement for a completed gesture.
//
// In priority order:
//  1. a dragged chapter always lands in the root container, at the index of the
//     chapter dropped on (or of the chapter owning the lesson dropped on);
//  2. a lesson dropped on a lesson must stay inside its owning chapter;
//  3. anything else is unsupported.
func Classify(v outline.View, ev model.DragEvent) (Plan, error) {
	if ev.OverID == "" || ev.ActiveID == ev.OverID {
		return Plan{Kind: KindNoop, ActiveID: ev.ActiveID}, nil
	}

	active, activeOK := v.Locate(ev.ActiveID)
	over, overOK := v.Locate(ev.OverID)

	switch {
	case activeOK && active.Kind == outline.KindChapter:
		return classifyChapter(v, ev, over, overOK)
	case activeOK && active.Kind == outline.KindLesson && overOK && over.Kind == outline.KindLesson:
		return classifyLesson(v, ev, active, over)
	default:
		return Plan{}, moveErr(ErrUnsupportedMove, ev.ActiveID, ev.OverID)
	}
}

func classifyChapter(v outline.View, ev model.DragEvent, over outline.Location, overOK bool) (Plan, error) {
	targetID := ""
	switch {
	case overOK && over.Kind == outline.KindChapter:
		targetID = ev.OverID
	case overOK && over.Kind == outline.KindLesson:
		targetID = string(over.Container)
	case !overOK && !ev.OverContainer.IsRoot():
		// The drop target is not in the local model, but the gesture names its chapter.
		targetID = string(ev.OverContainer)
	}
	if targetID == "" {
		return Plan{}, moveErr(ErrAmbiguousTarget, ev.ActiveID, ev.OverID)
	}

	entries, err := v.Entries(model.RootContainer)
	if err != nil {
		return Plan{}, moveErr(ErrAmbiguousTarget, ev.ActiveID, ev.OverID)
	}
	from := outline.IndexOf(entries, ev.ActiveID)
	to := outline.IndexOf(entries, targetID)
	if from < 0 || to < 0 {
		return Plan{}, moveErr(ErrAmbiguousTarget, ev.ActiveID, ev.OverID)
	}
	if from == to {
		// Dropped on one of its own lessons: the arrangement does not change.
		return Plan{Kind: KindNoop, Container: model.RootContainer, ActiveID: ev.ActiveID, TargetID: targetID, From: from, To: to}, nil
	}

	return Plan{
		Kind:      KindChapterReorder,
		Container: model.RootContainer,
		ActiveID:  ev.ActiveID,
		TargetID:  targetID,
		From:      from,
		To:        to,
		Next:      outline.Reindex(outline.ArrayMove(entries, from, to)),
	}, nil
}

func classifyLesson(v outline.View, ev model.DragEvent, active, over outline.Location) (Plan, error) {
	if active.Container.IsRoot() || active.Container != over.Container {
		return Plan{}, moveErr(ErrCrossContainerMove, ev.ActiveID, ev.OverID)
	}
	// The gesture's own container ids win if they disagree with the model.
	if !ev.ActiveContainer.IsRoot() && !ev.OverContainer.IsRoot() && ev.ActiveContainer != ev.OverContainer {
		return Plan{}, moveErr(ErrCrossContainerMove, ev.ActiveID, ev.OverID)
	}

	entries, err := v.Entries(active.Container)
	if err != nil {
		return Plan{}, moveErr(ErrCrossContainerMove, ev.ActiveID, ev.OverID)
	}
	from := outline.IndexOf(entries, ev.ActiveID)
	to := outline.IndexOf(entries, ev.OverID)
	if from < 0 || to < 0 {
		return Plan{}, moveErr(ErrUnsupportedMove, ev.ActiveID, ev.OverID)
	}

	return Plan{
		Kind:      KindLessonReorder,
		Container: active.Container,
		ActiveID:  ev.ActiveID,
		TargetID:  ev.OverID,
		From:      from,
		To:        to,
		Next:      outline.Reindex(outline.ArrayMove(entries, from, to)),
	}, nil
}
