package config

import (
	"strings"
	"testing"

	"trainboard/internal/board"
	"trainboard/internal/transit"
)

func TestStationModeExpandsRequests(t *testing.T) {
	yml := `
mode: station
station: oak grove
track:
  - route: orange line
    direction: both
    count: 2
  - route: haverhill
`
	s, err := Parse([]byte(yml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.Mode != board.ModeStation {
		t.Errorf("expected station mode, got %s", s.Mode)
	}
	if s.StationID != "place-ogmnl" {
		t.Errorf("expected resolved station id, got %q", s.StationID)
	}
	if len(s.Requests) != 3 {
		t.Fatalf("expected 3 requests (both directions + single), got %d", len(s.Requests))
	}

	first := s.Requests[0]
	if first.RouteID != "Orange" {
		t.Errorf("expected resolved route id Orange, got %q", first.RouteID)
	}
	if first.Direction != transit.DirectionInbound || first.Count != 2 {
		t.Errorf("unexpected first request: %+v", first)
	}
	if s.Requests[1].Direction != transit.DirectionOutbound {
		t.Errorf("expected outbound second request, got %+v", s.Requests[1])
	}

	cr := s.Requests[2]
	if cr.RouteID != "CR-Haverhill" {
		t.Errorf("expected commuter rail route id, got %q", cr.RouteID)
	}
	if cr.Count != 1 {
		t.Errorf("expected default count 1, got %d", cr.Count)
	}
}

func TestJourneyModeBuildsThreeLegs(t *testing.T) {
	yml := `
mode: journey
route: orange line
from: malden center
to: north station
`
	s, err := Parse([]byte(yml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(s.Requests) != 3 {
		t.Fatalf("expected 3 legs, got %d", len(s.Requests))
	}

	want := []struct {
		stopID string
		dir    transit.Direction
	}{
		{"place-mlmnl", transit.DirectionInbound},
		{"place-north", transit.DirectionInbound},
		{"place-north", transit.DirectionOutbound},
	}
	for i, w := range want {
		req := s.Requests[i]
		if req.StopID != w.stopID || req.Direction != w.dir || req.Count != 1 {
			t.Errorf("leg %d: unexpected request %+v", i, req)
		}
	}

	opts := s.BoardOptions()
	if opts.Title != "orange line" {
		t.Errorf("expected route name as title, got %q", opts.Title)
	}
	if opts.FromStopID != "place-mlmnl" || opts.ToStopID != "place-north" {
		t.Errorf("unexpected stop ids: %+v", opts)
	}
}

func TestBidirectionalModeDefaults(t *testing.T) {
	yml := `
mode: bidirectional
station: malden center
route: orange line
`
	s, err := Parse([]byte(yml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(s.Requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(s.Requests))
	}
	for i, req := range s.Requests {
		if req.Count != 2 {
			t.Errorf("request %d: expected default count 2, got %d", i, req.Count)
		}
	}
	if s.Requests[0].Direction != transit.DirectionInbound ||
		s.Requests[1].Direction != transit.DirectionOutbound {
		t.Error("expected inbound then outbound requests")
	}
}

func TestDisplayDefaults(t *testing.T) {
	yml := `
mode: station
station: oak grove
track:
  - route: orange line
`
	s, err := Parse([]byte(yml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.TimeFormat != "12h" {
		t.Errorf("expected default 12h clock, got %q", s.TimeFormat)
	}
	if !s.Abbreviate {
		t.Error("expected abbreviation on by default")
	}
	if s.RefreshSeconds != 60 {
		t.Errorf("expected default refresh 60, got %d", s.RefreshSeconds)
	}
}

func TestInvalidConfigs(t *testing.T) {
	cases := []struct {
		name string
		yml  string
		want string
	}{
		{
			name: "bad mode",
			yml:  "mode: marquee",
			want: "invalid config",
		},
		{
			name: "station without track",
			yml:  "mode: station\nstation: oak grove",
			want: "at least one route",
		},
		{
			name: "journey without stations",
			yml:  "mode: journey\nroute: orange line",
			want: "from",
		},
		{
			name: "bad time format",
			yml:  "mode: station\nstation: oak grove\ntrack:\n  - route: orange line\ndisplay:\n  time_format: 36h",
			want: "invalid config",
		},
		{
			name: "track entry missing route",
			yml:  "mode: station\nstation: oak grove\ntrack:\n  - direction: inbound",
			want: "track entry",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestStationIDPassthrough(t *testing.T) {
	if got := ResolveStationID("place-sstat"); got != "place-sstat" {
		t.Errorf("expected passthrough, got %q", got)
	}
	if got := ResolveRouteID("Orange"); got != "Orange" {
		t.Errorf("expected passthrough, got %q", got)
	}
}
