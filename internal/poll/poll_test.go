package poll

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"trainboard/internal/board"
	"trainboard/internal/logger"
	"trainboard/internal/store"
	"trainboard/internal/transit"
)

var tickNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)

// fakeAPI serves canned predictions per route and can fail whole routes.
type fakeAPI struct {
	predictions map[string][]transit.PredictionEntry
	failRoutes  map[string]error
}

func (f *fakeAPI) Schedules(ctx context.Context, routeID, stopID string, dir transit.Direction) ([]transit.ScheduleEntry, error) {
	if err, ok := f.failRoutes[routeID]; ok {
		return nil, err
	}
	return nil, nil
}

func (f *fakeAPI) Predictions(ctx context.Context, routeID, stopID string, dir transit.Direction, limit int) ([]transit.PredictionEntry, error) {
	if err, ok := f.failRoutes[routeID]; ok {
		return nil, err
	}
	return f.predictions[routeID], nil
}

// countingRenderer records rendered snapshots.
type countingRenderer struct {
	rendered []board.Snapshot
}

func (c *countingRenderer) Render(s board.Snapshot) error {
	c.rendered = append(c.rendered, s)
	return nil
}

func newTestCycle(api transit.Fetcher, requests []transit.TrackRequest, renderer board.Renderer) (*Cycle, *store.MemoryStore) {
	log := logger.Nop()
	history := store.NewMemoryStore(10, 0)
	cycle := NewCycle(
		api,
		transit.NewReconciler(log),
		requests,
		board.NewFormatter(board.Options{
			Mode:           board.ModeStation,
			TimeFormat:     "24h",
			Abbreviate:     false,
			RefreshSeconds: 60,
			Title:          "Downtown Crossing",
		}),
		board.NewReconciler(renderer, log),
		history,
		log,
	)
	cycle.now = func() time.Time { return tickNow }
	return cycle, history
}

func request(route string) transit.TrackRequest {
	return transit.TrackRequest{
		RouteID:   route,
		RouteName: route + " Line",
		StopID:    "place-dwnxg",
		Direction: transit.DirectionInbound,
		Count:     1,
	}
}

func prediction(id string, off time.Duration) transit.PredictionEntry {
	return transit.PredictionEntry{ID: id, DepartureTime: tickNow.Add(off)}
}

func TestTickPartialFailure(t *testing.T) {
	api := &fakeAPI{
		predictions: map[string][]transit.PredictionEntry{
			"Orange": {prediction("p1", 5*time.Minute)},
			"Blue":   {prediction("p3", 9*time.Minute)},
		},
		failRoutes: map[string]error{
			"Red": errors.New("max retries exceeded"),
		},
	}
	renderer := &countingRenderer{}
	cycle, history := newTestCycle(api, []transit.TrackRequest{
		request("Orange"), request("Red"), request("Blue"),
	}, renderer)

	if err := cycle.RunTick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry, err := history.Latest()
	if err != nil {
		t.Fatalf("expected snapshot recorded: %v", err)
	}
	snap := entry.Snapshot

	var errorLines, routeLines []string
	for _, line := range snap.Lines {
		if strings.HasPrefix(line.Text, "Error:") {
			errorLines = append(errorLines, line.Text)
		} else {
			routeLines = append(routeLines, line.Text)
		}
	}

	// Tuples 1 and 3 produced results; the failed tuple renders a placeholder.
	joined := strings.Join(routeLines, "\n")
	if !strings.Contains(joined, "Orange Line In: 12:05") {
		t.Errorf("expected Orange result, got:\n%s", joined)
	}
	if !strings.Contains(joined, "Blue Line In: 12:09") {
		t.Errorf("expected Blue result, got:\n%s", joined)
	}
	if !strings.Contains(joined, "Red Line In: ---") {
		t.Errorf("expected Red placeholder, got:\n%s", joined)
	}

	if len(errorLines) != 1 {
		t.Fatalf("expected exactly one error line, got %d", len(errorLines))
	}
	if !strings.Contains(errorLines[0], "Red Line") {
		t.Errorf("expected error line to name the failed route, got %q", errorLines[0])
	}

	if len(renderer.rendered) != 1 {
		t.Fatalf("expected one render, got %d", len(renderer.rendered))
	}
}

func TestTickSkipsRedrawWhenUnchanged(t *testing.T) {
	api := &fakeAPI{
		predictions: map[string][]transit.PredictionEntry{
			"Orange": {prediction("p1", 5*time.Minute)},
		},
	}
	renderer := &countingRenderer{}
	cycle, _ := newTestCycle(api, []transit.TrackRequest{request("Orange")}, renderer)

	for i := 0; i < 3; i++ {
		if err := cycle.RunTick(context.Background()); err != nil {
			t.Fatalf("tick %d: unexpected error: %v", i, err)
		}
	}

	if len(renderer.rendered) != 1 {
		t.Fatalf("expected a single render across identical ticks, got %d", len(renderer.rendered))
	}
}

func TestTickEndToEndBidirectionalCount(t *testing.T) {
	api := &fakeAPI{
		predictions: map[string][]transit.PredictionEntry{
			"Orange": {
				prediction("p1", 5*time.Minute),
				prediction("p2", 13*time.Minute),
			},
		},
	}
	renderer := &countingRenderer{}

	req := transit.TrackRequest{
		RouteID:   "Orange",
		RouteName: "Orange Line",
		StopID:    "place-ogmnl",
		Direction: transit.DirectionInbound,
		Count:     2,
	}
	cycle, history := newTestCycle(api, []transit.TrackRequest{req}, renderer)

	if err := cycle.RunTick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry, err := history.Latest()
	if err != nil {
		t.Fatalf("expected snapshot recorded: %v", err)
	}

	wantTexts := []string{
		"Orange Line In: 12:05",
		"        12:13",
	}
	if len(entry.Snapshot.Lines) != len(wantTexts) {
		t.Fatalf("expected %d lines, got %d", len(wantTexts), len(entry.Snapshot.Lines))
	}
	for i, want := range wantTexts {
		if entry.Snapshot.Lines[i].Text != want {
			t.Errorf("line %d: expected %q, got %q", i, want, entry.Snapshot.Lines[i].Text)
		}
	}
}

func TestTickStopsOnCancelledContext(t *testing.T) {
	api := &fakeAPI{}
	renderer := &countingRenderer{}
	cycle, history := newTestCycle(api, []transit.TrackRequest{request("Orange")}, renderer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := cycle.RunTick(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := history.Latest(); !errors.Is(err, store.ErrNotFound) {
		t.Error("expected no snapshot recorded for a cancelled tick")
	}
}
