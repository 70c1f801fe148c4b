// Package poll runs one tick of the departure board: fetch, reconcile,
// format, diff, render.
package poll

import (
	"context"
	"fmt"
	"time"

	"trainboard/internal/board"
	"trainboard/internal/logger"
	"trainboard/internal/store"
	"trainboard/internal/transit"
)

// Cycle owns the per-tick control flow. All state it touches (the previous
// snapshot, the breaker, retry counters) is owned by the single poll
// goroutine; ticks never overlap.
type Cycle struct {
	api       transit.Fetcher
	rec       *transit.Reconciler
	requests  []transit.TrackRequest
	formatter *board.Formatter
	differ    *board.Reconciler
	history   *store.MemoryStore
	log       *logger.Logger

	now func() time.Time
}

// NewCycle builds a Cycle.
func NewCycle(
	api transit.Fetcher,
	rec *transit.Reconciler,
	requests []transit.TrackRequest,
	formatter *board.Formatter,
	differ *board.Reconciler,
	history *store.MemoryStore,
	log *logger.Logger,
) *Cycle {
	return &Cycle{
		api:       api,
		rec:       rec,
		requests:  requests,
		formatter: formatter,
		differ:    differ,
		history:   history,
		log:       log,
		now:       time.Now,
	}
}

// RunTick polls every configured tuple sequentially, collects per-tuple
// errors without aborting the rest, and hands the resulting snapshot to the
// display reconciler. Partial results are always produced; only context
// cancellation stops a tick early.
func (c *Cycle) RunTick(ctx context.Context) error {
	now := c.now()

	results := make([]board.TupleResult, 0, len(c.requests))
	var errs []string

	for _, req := range c.requests {
		if err := ctx.Err(); err != nil {
			return err
		}

		times, err := c.fetchTuple(ctx, req, now)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Errorw("tuple fetch failed",
				"route", req.RouteName, "stop", req.StopID, "direction", req.Direction, "error", err)
			errs = append(errs, fmt.Sprintf("%s: %v", req.RouteName, err))
			results = append(results, board.TupleResult{Request: req})
			continue
		}
		results = append(results, board.TupleResult{Request: req, Times: times})
	}

	snap := c.formatter.Format(results, errs, now)
	c.history.Save(now, snap)

	// A failed redraw degrades output, it never stops polling; the display
	// reconciler keeps the old snapshot so the next tick retries.
	if err := c.differ.Submit(snap); err != nil {
		c.log.Warnw("display update failed, will retry next tick", "error", err)
	}
	return nil
}

func (c *Cycle) fetchTuple(ctx context.Context, req transit.TrackRequest, now time.Time) ([]transit.CanonicalTime, error) {
	schedules, err := c.api.Schedules(ctx, req.RouteID, req.StopID, req.Direction)
	if err != nil {
		return nil, fmt.Errorf("schedules: %w", err)
	}
	predictions, err := c.api.Predictions(ctx, req.RouteID, req.StopID, req.Direction, req.Count)
	if err != nil {
		return nil, fmt.Errorf("predictions: %w", err)
	}
	return c.rec.NextDepartures(req, schedules, predictions, now, req.Count), nil
}
