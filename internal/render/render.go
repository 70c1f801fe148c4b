// Package render provides stand-in implementations of the board.Renderer
// collaborator for environments without display hardware.
package render

import (
	"fmt"
	"io"

	"trainboard/internal/board"
	"trainboard/internal/logger"
)

// MaxLines is the visible line capacity of the target panel.
const MaxLines = 8

// TextRenderer writes snapshots as plain text to an io.Writer, honouring the
// same line capacity as the physical panel.
type TextRenderer struct {
	w io.Writer
}

// NewTextRenderer builds a TextRenderer.
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

// Render writes the snapshot. Indents continuation lines and stops at the
// panel's line capacity.
func (r *TextRenderer) Render(snap board.Snapshot) error {
	if _, err := fmt.Fprintf(r.w, "%s  %s\n", snap.Title, snap.Date); err != nil {
		return err
	}

	count := 0
	for _, line := range snap.Lines {
		if count >= MaxLines {
			break
		}
		var err error
		switch line.Role {
		case board.RoleBlank:
			_, err = fmt.Fprintln(r.w)
		case board.RoleContinuation:
			_, err = fmt.Fprintf(r.w, "  %s\n", line.Text)
		default:
			_, err = fmt.Fprintln(r.w, line.Text)
		}
		if err != nil {
			return err
		}
		count++
	}
	return nil
}

// LogRenderer logs snapshots instead of drawing them. Used for headless runs.
type LogRenderer struct {
	log *logger.Logger
}

// NewLogRenderer builds a LogRenderer.
func NewLogRenderer(log *logger.Logger) *LogRenderer {
	return &LogRenderer{log: log}
}

// Render logs every non-blank line of the snapshot.
func (r *LogRenderer) Render(snap board.Snapshot) error {
	r.log.Infow("board updated", "title", snap.Title, "date", snap.Date)
	for _, line := range snap.Lines {
		if line.Role == board.RoleBlank {
			continue
		}
		r.log.Infof("  %s", line.Text)
	}
	return nil
}
