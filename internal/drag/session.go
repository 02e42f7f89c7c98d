package drag

import (
	"curriculum-cli/internal/model"
	"curriculum-cli/internal/outline"
)

// State of a drag session.
type State int

const (
	StateIdle State = iota
	StateStarted
	StateEnded
	StateClassified
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarted:
		return "started"
	case StateEnded:
		return "ended"
	case StateClassified:
		return "classified"
	default:
		return "unknown"
	}
}

// Session tracks one gesture: DragStarted(item) -> DragEnded(active, over) -> Classified(result).
//
// It is independent of any input library; the TUI drives it from key presses and
// tests drive it directly.
type Session struct {
	view  outline.View
	state State

	active outline.Location
	event  model.DragEvent
	plan   Plan
	err    error
}

func NewSession(v outline.View) *Session {
	return &Session{view: v}
}

func (s *Session) State() State { return s.state }

// ActiveID returns the id being dragged, or "" when idle.
func (s *Session) ActiveID() string {
	if s.state == StateIdle {
		return ""
	}
	return s.event.ActiveID
}

// ActiveKind returns what kind of item is being dragged.
func (s *Session) ActiveKind() outline.ItemKind {
	if s.state == StateIdle {
		return outline.KindUnknown
	}
	return s.active.Kind
}

// Start picks up an item. Starting while a previous gesture was classified
// implicitly resets the session.
func (s *Session) Start(activeID string) error {
	if s.state == StateStarted || s.state == StateEnded {
		return StateError{Op: "start", State: s.state}
	}
	loc, ok := s.view.Locate(activeID)
	if !ok {
		return moveErr(ErrUnsupportedMove, activeID, "")
	}
	s.reset()
	s.state = StateStarted
	s.active = loc
	s.event = model.DragEvent{ActiveID: activeID, ActiveContainer: loc.Container}
	return nil
}

// End drops the picked-up item on overID ("" means no drop target) and classifies
// the gesture against the current hierarchy.
func (s *Session) End(overID string) (Plan, error) {
	if s.state != StateStarted {
		return Plan{}, StateError{Op: "end", State: s.state}
	}
	s.event.OverID = overID
	s.event = Resolve(s.view, s.event)
	s.state = StateEnded

	s.plan, s.err = Classify(s.view, s.event)
	s.state = StateClassified
	return s.plan, s.err
}

// Event returns the completed gesture once the session has ended.
func (s *Session) Event() model.DragEvent { return s.event }

// Result returns the classification of the last ended gesture.
func (s *Session) Result() (Plan, error) { return s.plan, s.err }

// Cancel abandons the current gesture.
func (s *Session) Cancel() { s.reset() }

func (s *Session) reset() {
	s.state = StateIdle
	s.active = outline.Location{}
	s.event = model.DragEvent{}
	s.plan = Plan{}
	s.err = nil
}
