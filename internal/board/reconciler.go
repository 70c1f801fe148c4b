package board

import (
	"trainboard/internal/logger"
)

// Renderer is the external collaborator that paints a snapshot. It owns all
// pixel and font decisions; it may be slow and may fail with an I/O error
// (e.g. missing display hardware).
type Renderer interface {
	Render(Snapshot) error
}

// Reconciler gates redraws: the renderer is only invoked when the new
// snapshot differs by value from the last rendered one, so continuous
// polling does not cause redundant, visually identical redraws.
type Reconciler struct {
	renderer Renderer
	prev     *Snapshot
	log      *logger.Logger
}

// NewReconciler builds a Reconciler around the given renderer.
func NewReconciler(renderer Renderer, log *logger.Logger) *Reconciler {
	return &Reconciler{renderer: renderer, log: log}
}

// ShouldRender reports whether cur needs drawing: always on the first tick,
// otherwise only when cur is not value-equal to prev.
func ShouldRender(prev *Snapshot, cur Snapshot) bool {
	return prev == nil || !cur.Equal(*prev)
}

// Submit hands a freshly built snapshot to the reconciler. When the snapshot
// changed it is rendered and recorded as the new previous; a render failure
// is returned (and the previous snapshot kept, so the next tick retries).
func (r *Reconciler) Submit(cur Snapshot) error {
	if !ShouldRender(r.prev, cur) {
		r.log.Debugw("snapshot unchanged, skipping redraw", "title", cur.Title)
		return nil
	}

	if err := r.renderer.Render(cur); err != nil {
		r.log.Errorw("render failed", "title", cur.Title, "error", err)
		return err
	}

	copied := cur
	copied.Lines = append([]Line(nil), cur.Lines...)
	r.prev = &copied
	return nil
}

// Last returns the last rendered snapshot, or nil before the first render.
func (r *Reconciler) Last() *Snapshot {
	return r.prev
}
