package board

import (
	"fmt"
	"sort"
	"time"

	"trainboard/internal/common"
	"trainboard/internal/transit"
)

// Mode selects the board layout.
type Mode string

const (
	ModeStation       Mode = "station"
	ModeJourney       Mode = "journey"
	ModeBidirectional Mode = "bidirectional"
)

// Placeholder is rendered when no time is known for a field.
const Placeholder = "---"

// TupleResult is the reconciled outcome for one polled tuple.
type TupleResult struct {
	Request transit.TrackRequest
	Times   []transit.CanonicalTime
}

// Options carries the display preferences a Formatter needs.
type Options struct {
	Mode           Mode
	TimeFormat     string // "12h" or "24h"
	Abbreviate     bool
	ShowRoute      bool
	RefreshSeconds int

	// Title is the station name in station/bidirectional mode, the route
	// name in journey mode.
	Title string

	// Journey mode stations.
	FromStopID string
	FromName   string
	ToStopID   string
	ToName     string
}

// Formatter turns per-tuple results into a display snapshot.
type Formatter struct {
	opts Options
}

// NewFormatter builds a Formatter.
func NewFormatter(opts Options) *Formatter {
	if opts.TimeFormat == "" {
		opts.TimeFormat = "12h"
	}
	if opts.RefreshSeconds <= 0 {
		opts.RefreshSeconds = 60
	}
	return &Formatter{opts: opts}
}

// Format builds the snapshot for one tick. Errors render as visible lines at
// the bottom; missing times render as placeholders, never as errors.
func (f *Formatter) Format(results []TupleResult, errs []string, now time.Time) Snapshot {
	snap := Snapshot{
		Date:           now.Format("01/02/06"),
		RefreshSeconds: f.opts.RefreshSeconds,
	}

	if f.opts.Mode == ModeJourney {
		f.formatJourney(&snap, results)
	} else {
		f.formatGrouped(&snap, results)
	}

	for _, e := range errs {
		snap.Lines = append(snap.Lines, Line{Text: "Error: " + e, Role: RoleContinuation})
	}
	return snap
}

// formatGrouped lays out station and bidirectional mode: one route/direction
// group per tuple, groups ordered by their earliest departure.
func (f *Formatter) formatGrouped(snap *Snapshot, results []TupleResult) {
	snap.Title = f.opts.Title

	ordered := make([]TupleResult, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if len(a.Times) == 0 {
			return false
		}
		if len(b.Times) == 0 {
			return true
		}
		return a.Times[0].When().Before(b.Times[0].When())
	})

	for _, res := range ordered {
		label := fmt.Sprintf("%s %s", f.routeLabel(res.Request.RouteName), res.Request.Direction.Abbrev())
		if len(res.Times) == 0 {
			snap.Lines = append(snap.Lines, Line{
				Text: fmt.Sprintf("%s: %s", label, Placeholder),
				Role: RoleRoute,
			})
			continue
		}
		for i, ct := range res.Times {
			if i == 0 {
				snap.Lines = append(snap.Lines, Line{
					Text: fmt.Sprintf("%s: %s", label, f.formatTime(ct.When())),
					Role: RoleRoute,
				})
			} else {
				snap.Lines = append(snap.Lines, Line{
					Text: "        " + f.formatTime(ct.When()),
					Role: RoleContinuation,
				})
			}
		}
	}
}

// formatJourney lays out the legacy two-stop journey view: next inbound at
// the origin, next inbound and outbound at the destination.
func (f *Formatter) formatJourney(snap *Snapshot, results []TupleResult) {
	if f.opts.ShowRoute {
		snap.Title = f.opts.Title
	}

	find := func(stopID string, dir transit.Direction) time.Time {
		for _, res := range results {
			if res.Request.StopID == stopID && res.Request.Direction == dir && len(res.Times) > 0 {
				return res.Times[0].When()
			}
		}
		return time.Time{}
	}

	snap.Lines = append(snap.Lines,
		Line{Text: f.opts.FromName, Role: RoleHeader},
		Line{Text: "Next Inbound:    " + f.formatTime(find(f.opts.FromStopID, transit.DirectionInbound)), Role: RoleContinuation},
		Line{Role: RoleBlank},
		Line{Text: f.opts.ToName, Role: RoleHeader},
		Line{Text: "Next Inbound:    " + f.formatTime(find(f.opts.ToStopID, transit.DirectionInbound)), Role: RoleContinuation},
		Line{Text: "Next Outbound:   " + f.formatTime(find(f.opts.ToStopID, transit.DirectionOutbound)), Role: RoleContinuation},
	)
}

// formatTime renders a timestamp in the configured clock format, or the
// placeholder when no time is known.
func (f *Formatter) formatTime(t time.Time) string {
	if t.IsZero() {
		return Placeholder
	}
	if f.opts.TimeFormat == "24h" {
		return t.Local().Format("15:04")
	}
	return t.Local().Format("3:04 PM")
}

var routeAbbreviations = map[string]string{
	"Orange Line": "OL",
	"Red Line":    "RL",
	"Blue Line":   "BL",
	"Green Line":  "GL",
	"Silver Line": "SL",
}

var commuterRailPrefixes = []string{
	"Providence", "Newburyport", "Framingham", "Haverhill", "Fitchburg",
	"Worcester", "Franklin", "Greenbush", "Kingston", "Middleborough", "Fairmount",
}

// routeLabel abbreviates a route name when abbreviation is enabled.
func (f *Formatter) routeLabel(name string) string {
	if !f.opts.Abbreviate {
		return name
	}
	if abbrev, ok := routeAbbreviations[name]; ok {
		return abbrev
	}
	if common.HasSuffix(name, " Line") && common.HasAnyPrefix(name, commuterRailPrefixes...) {
		return "CR"
	}
	return name
}
