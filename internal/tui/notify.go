package tui

import (
	"errors"

	"curriculum-cli/internal/drag"
	"curriculum-cli/internal/model"
	"curriculum-cli/internal/syncer"
)

type noticeLevel int

const (
	noticeInfo noticeLevel = iota
	noticeSuccess
	noticeWarn
	noticeError
)

type notice struct {
	text  string
	level noticeLevel
}

func pendingNotice(c model.ContainerID) notice {
	if c.IsRoot() {
		return notice{text: "Reordering chapters...", level: noticeInfo}
	}
	return notice{text: "Reordering lessons...", level: noticeInfo}
}

// outcomeNotice reports a settled write. Failures never show the server's text.
func outcomeNotice(o syncer.Outcome) notice {
	if o.OK() {
		msg := o.Message
		if msg == "" {
			msg = "Saved"
		}
		return notice{text: msg, level: noticeSuccess}
	}
	if o.Container.IsRoot() {
		return notice{text: "Failed to reorder chapters. Please try again.", level: noticeError}
	}
	return notice{text: "Failed to reorder lessons. Please try again.", level: noticeError}
}

// refusalNotice explains a gesture that was refused before any change was made.
func refusalNotice(err error) notice {
	switch {
	case errors.Is(err, drag.ErrCrossContainerMove):
		return notice{text: "Cannot move lessons between chapters", level: noticeWarn}
	case errors.Is(err, drag.ErrAmbiguousTarget):
		return notice{text: "Could not determine the chapter for reordering", level: noticeWarn}
	case errors.Is(err, drag.ErrUnsupportedMove):
		return notice{text: "Unsupported move", level: noticeWarn}
	default:
		return notice{text: err.Error(), level: noticeError}
	}
}

func (n notice) render() string {
	switch n.level {
	case noticeSuccess:
		return styleSuccess.Render(n.text)
	case noticeWarn:
		return styleWarn.Render(n.text)
	case noticeError:
		return styleError.Render(n.text)
	default:
		return styleMuted.Render(n.text)
	}
}
