package transit

import (
	"time"
)

// Direction is one of the two travel directions of a route.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// ID returns the MBTA direction_id filter value. For subway routes index 0
// is the inbound (southbound) direction and index 1 the outbound.
func (d Direction) ID() string {
	if d == DirectionOutbound {
		return "1"
	}
	return "0"
}

// Abbrev returns the short label used on route lines.
func (d Direction) Abbrev() string {
	if d == DirectionOutbound {
		return "Out"
	}
	return "In"
}

// TrackRequest is one (route, stop, direction, count) tuple to poll each tick.
type TrackRequest struct {
	RouteID   string
	RouteName string
	StopID    string
	StopName  string
	Direction Direction
	Count     int
}

// ScheduleEntry is a single static timetable row for a route/stop/direction.
// Immutable once parsed.
type ScheduleEntry struct {
	ID            string
	ArrivalTime   time.Time // zero if the feed carried none
	DepartureTime time.Time
	DirectionID   int
	RouteID       string
	TripID        string

	// PredictionID correlates this row to a live prediction, if the feed
	// included one.
	PredictionID string
}

// PredictionEntry is a single live-prediction row.
type PredictionEntry struct {
	ID            string
	ArrivalTime   time.Time
	DepartureTime time.Time
	DirectionID   int
	RouteID       string
	TripID        string
	Status        string
	Destination   string

	// UncertaintySec is the departure uncertainty in seconds. Nil means
	// unknown; the upstream feed reports 0 for unknown as well, so 0 is
	// normalized to nil at parse time.
	UncertaintySec *int

	// MissingAttributes marks rows whose attributes payload was absent.
	// Such rows never override a schedule time.
	MissingAttributes bool
}

// When returns the effective event time of a prediction: the departure time,
// or the arrival time when no departure is known.
func (p PredictionEntry) When() time.Time {
	if !p.DepartureTime.IsZero() {
		return p.DepartureTime
	}
	return p.ArrivalTime
}

// When returns the effective event time of a schedule row.
func (s ScheduleEntry) When() time.Time {
	if !s.DepartureTime.IsZero() {
		return s.DepartureTime
	}
	return s.ArrivalTime
}

// CanonicalTime is the reconciled answer for one (route, stop, direction)
// tuple. A zero ArrivalTime or DepartureTime means "none known" and renders
// as a placeholder, never as an error. Derived once per tick, never mutated.
type CanonicalTime struct {
	RouteID   string
	RouteName string
	StopID    string
	Direction Direction

	ArrivalTime   time.Time
	DepartureTime time.Time
	Destination   string

	// Live is true when the times came from a prediction rather than the
	// static timetable.
	Live bool

	UncertaintySec *int
}

// Known reports whether any time was reconciled for this tuple.
func (c CanonicalTime) Known() bool {
	return !c.ArrivalTime.IsZero() || !c.DepartureTime.IsZero()
}

// When returns the canonical display time: the departure time, falling back
// to arrival when no departure is known. Departure is the canonical field
// for both directions.
func (c CanonicalTime) When() time.Time {
	if !c.DepartureTime.IsZero() {
		return c.DepartureTime
	}
	return c.ArrivalTime
}
