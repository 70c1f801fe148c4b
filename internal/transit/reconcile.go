package transit

import (
	"sort"
	"time"

	"trainboard/internal/logger"
)

// Reconciler collapses raw schedule and prediction rows into canonical next
// departure answers, preferring live predictions over the static timetable.
type Reconciler struct {
	log *logger.Logger
}

// NewReconciler builds a Reconciler.
func NewReconciler(log *logger.Logger) *Reconciler {
	return &Reconciler{log: log}
}

// qualifies reports whether an event time is a candidate: strictly in the
// future and on the same calendar date as now. Rows from another day are
// stale full-day-ahead entries and are rejected.
func qualifies(t, now time.Time) bool {
	if t.IsZero() || !t.After(now) {
		return false
	}
	ty, tm, td := t.In(now.Location()).Date()
	ny, nm, nd := now.Date()
	return ty == ny && tm == nm && td == nd
}

// Reconcile produces the canonical next departure for one
// route/stop/direction from its raw schedule and prediction rows.
//
//  1. The earliest schedule row departing strictly after now on today's date
//     is selected.
//  2. If that row correlates to a prediction, the prediction's times
//     override the schedule's: live data wins.
//  3. With no qualifying schedule row, the earliest qualifying prediction is
//     used directly.
//  4. Otherwise the result carries no known time.
func (r *Reconciler) Reconcile(req TrackRequest, schedules []ScheduleEntry, predictions []PredictionEntry, now time.Time) CanonicalTime {
	results := r.reconcileAll(req, schedules, predictions, now, 1)
	if len(results) == 0 {
		return CanonicalTime{
			RouteID:   req.RouteID,
			RouteName: req.RouteName,
			StopID:    req.StopID,
			Direction: req.Direction,
		}
	}
	return results[0]
}

// NextDepartures returns up to count canonical departures in ascending
// departure order. Schedule rows (with their prediction overrides applied)
// come first; remaining slots are filled from uncorrelated predictions.
func (r *Reconciler) NextDepartures(req TrackRequest, schedules []ScheduleEntry, predictions []PredictionEntry, now time.Time, count int) []CanonicalTime {
	if count <= 0 {
		count = 1
	}
	return r.reconcileAll(req, schedules, predictions, now, count)
}

func (r *Reconciler) reconcileAll(req TrackRequest, schedules []ScheduleEntry, predictions []PredictionEntry, now time.Time, count int) []CanonicalTime {
	byID := make(map[string]PredictionEntry, len(predictions))
	for _, p := range predictions {
		byID[p.ID] = p
	}

	var results []CanonicalTime
	used := make(map[string]bool)

	for _, s := range schedules {
		if !qualifies(s.When(), now) {
			continue
		}
		ct := CanonicalTime{
			RouteID:       req.RouteID,
			RouteName:     req.RouteName,
			StopID:        req.StopID,
			Direction:     req.Direction,
			ArrivalTime:   s.ArrivalTime,
			DepartureTime: s.DepartureTime,
		}
		if s.PredictionID != "" {
			if p, ok := byID[s.PredictionID]; ok {
				used[p.ID] = true
				if p.MissingAttributes {
					r.log.Warnw("prediction has no attributes, keeping scheduled time",
						"prediction_id", p.ID, "route", req.RouteID, "stop", req.StopID)
				} else {
					ct.ArrivalTime = p.ArrivalTime
					ct.DepartureTime = p.DepartureTime
					ct.Destination = p.Destination
					ct.UncertaintySec = p.UncertaintySec
					ct.Live = true
				}
			} else {
				r.log.Errorw("no prediction found for id", "prediction_id", s.PredictionID)
			}
		}
		results = append(results, ct)
	}

	// Fill from live predictions that no schedule row claimed.
	for _, p := range predictions {
		if used[p.ID] || p.MissingAttributes || !qualifies(p.When(), now) {
			continue
		}
		results = append(results, CanonicalTime{
			RouteID:        req.RouteID,
			RouteName:      req.RouteName,
			StopID:         req.StopID,
			Direction:      req.Direction,
			ArrivalTime:    p.ArrivalTime,
			DepartureTime:  p.DepartureTime,
			Destination:    p.Destination,
			UncertaintySec: p.UncertaintySec,
			Live:           true,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].When().Before(results[j].When())
	})

	if len(results) > count {
		results = results[:count]
	}
	return results
}
