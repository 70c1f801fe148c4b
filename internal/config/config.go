package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"trainboard/internal/board"
	"trainboard/internal/transit"
)

var validate = validator.New()

// TrackEntry configures one route to track at a station.
type TrackEntry struct {
	Route     string `yaml:"route" validate:"required"`
	Direction string `yaml:"direction" validate:"omitempty,oneof=inbound outbound both"`
	Count     int    `yaml:"count" validate:"gte=0,lte=8"`
}

// DisplaySettings are the rendering preferences.
type DisplaySettings struct {
	TimeFormat string `yaml:"time_format" validate:"omitempty,oneof=12h 24h"`
	Abbreviate *bool  `yaml:"abbreviate"`
	Refresh    int    `yaml:"refresh" validate:"gte=0"`
	ShowRoute  *bool  `yaml:"show_route"`
}

// countEntry carries the per-direction departure count in bidirectional mode.
type countEntry struct {
	Show int `yaml:"show" validate:"gte=0,lte=8"`
}

// fileConfig is the raw YAML shape.
type fileConfig struct {
	Mode     string          `yaml:"mode" validate:"omitempty,oneof=station journey bidirectional"`
	Station  string          `yaml:"station"`
	Track    []TrackEntry    `yaml:"track"`
	Route    string          `yaml:"route"`
	From     string          `yaml:"from"`
	To       string          `yaml:"to"`
	Inbound  countEntry      `yaml:"inbound"`
	Outbound countEntry      `yaml:"outbound"`
	Display  DisplaySettings `yaml:"display"`
}

// Settings is the immutable settings object the rest of the system consumes.
type Settings struct {
	Mode board.Mode

	APIKey      string
	BaseURL     string
	Port        string
	HTTPTimeout time.Duration

	// Snapshot history retention for the status API.
	StoreMaxHistory int
	StoreMaxAge     time.Duration

	StationName string
	StationID   string
	RouteName   string
	RouteID     string
	FromName    string
	FromID      string
	ToName      string
	ToID        string

	// Requests are the (route, stop, direction, count) tuples polled each
	// tick, derived from the mode.
	Requests []transit.TrackRequest

	TimeFormat     string
	Abbreviate     bool
	ShowRoute      bool
	RefreshSeconds int
}

// Load reads configuration from the YAML file at path (falling back to
// config.yaml / config.yml / trainboard.yaml in the working directory) and
// the environment. The returned Settings are fully resolved and validated.
func Load(path string) (*Settings, error) {
	// A .env file is optional; real environment variables win.
	_ = godotenv.Load()

	data, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse resolves and validates raw YAML configuration bytes.
func Parse(data []byte) (*Settings, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}
	if err := validate.Struct(fc); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	for i := range fc.Track {
		if err := validate.Struct(fc.Track[i]); err != nil {
			return nil, fmt.Errorf("invalid track entry %d: %w", i+1, err)
		}
	}
	return resolve(fc)
}

func readConfigFile(path string) ([]byte, error) {
	paths := []string{path}
	if path == "" {
		paths = []string{"config.yaml", "config.yml", "trainboard.yaml"}
	}
	var lastErr error
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no configuration file found: %w", lastErr)
}

// resolve turns the raw file shape into validated Settings.
func resolve(fc fileConfig) (*Settings, error) {
	s := &Settings{
		APIKey:          os.Getenv("MBTA_API_KEY"),
		BaseURL:         os.Getenv("MBTA_BASE_URL"),
		Port:            getenvDefault("PORT", "8080"),
		TimeFormat:      fc.Display.TimeFormat,
		Abbreviate:      boolDefault(fc.Display.Abbreviate, true),
		ShowRoute:       boolDefault(fc.Display.ShowRoute, true),
		RefreshSeconds:  fc.Display.Refresh,
		StoreMaxHistory: getenvInt("STORE_MAX_HISTORY", 120),
	}

	if s.TimeFormat == "" {
		s.TimeFormat = "12h"
	}
	if s.RefreshSeconds <= 0 {
		s.RefreshSeconds = 60
	}

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	s.HTTPTimeout = timeout

	maxAgeStr := getenvDefault("STORE_MAX_AGE", "24h")
	maxAge, err := time.ParseDuration(maxAgeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_MAX_AGE: %w", err)
	}
	s.StoreMaxAge = maxAge

	mode := board.Mode(strings.ToLower(fc.Mode))
	if mode == "" {
		mode = board.ModeStation
	}
	s.Mode = mode

	switch mode {
	case board.ModeStation:
		if fc.Station == "" {
			return nil, fmt.Errorf("station mode requires 'station'")
		}
		if len(fc.Track) == 0 {
			return nil, fmt.Errorf("station mode requires at least one route in 'track'")
		}
		s.StationName = fc.Station
		s.StationID = ResolveStationID(fc.Station)
		for _, entry := range fc.Track {
			count := entry.Count
			if count <= 0 {
				count = 1
			}
			var directions []transit.Direction
			switch entry.Direction {
			case "", "inbound":
				directions = []transit.Direction{transit.DirectionInbound}
			case "outbound":
				directions = []transit.Direction{transit.DirectionOutbound}
			case "both":
				directions = []transit.Direction{transit.DirectionInbound, transit.DirectionOutbound}
			}
			for _, dir := range directions {
				s.Requests = append(s.Requests, transit.TrackRequest{
					RouteID:   ResolveRouteID(entry.Route),
					RouteName: entry.Route,
					StopID:    s.StationID,
					StopName:  s.StationName,
					Direction: dir,
					Count:     count,
				})
			}
		}

	case board.ModeJourney:
		if fc.Route == "" {
			return nil, fmt.Errorf("journey mode requires 'route'")
		}
		if fc.From == "" || fc.To == "" {
			return nil, fmt.Errorf("journey mode requires 'from' and 'to' stations")
		}
		s.RouteName = fc.Route
		s.RouteID = ResolveRouteID(fc.Route)
		s.FromName = fc.From
		s.FromID = ResolveStationID(fc.From)
		s.ToName = fc.To
		s.ToID = ResolveStationID(fc.To)
		for _, leg := range []struct {
			stopID, stopName string
			dir              transit.Direction
		}{
			{s.FromID, s.FromName, transit.DirectionInbound},
			{s.ToID, s.ToName, transit.DirectionInbound},
			{s.ToID, s.ToName, transit.DirectionOutbound},
		} {
			s.Requests = append(s.Requests, transit.TrackRequest{
				RouteID:   s.RouteID,
				RouteName: s.RouteName,
				StopID:    leg.stopID,
				StopName:  leg.stopName,
				Direction: leg.dir,
				Count:     1,
			})
		}

	case board.ModeBidirectional:
		if fc.Station == "" {
			return nil, fmt.Errorf("bidirectional mode requires 'station'")
		}
		if fc.Route == "" {
			return nil, fmt.Errorf("bidirectional mode requires 'route'")
		}
		s.StationName = fc.Station
		s.StationID = ResolveStationID(fc.Station)
		s.RouteName = fc.Route
		s.RouteID = ResolveRouteID(fc.Route)
		inCount := fc.Inbound.Show
		if inCount <= 0 {
			inCount = 2
		}
		outCount := fc.Outbound.Show
		if outCount <= 0 {
			outCount = 2
		}
		s.Requests = append(s.Requests,
			transit.TrackRequest{
				RouteID:   s.RouteID,
				RouteName: s.RouteName,
				StopID:    s.StationID,
				StopName:  s.StationName,
				Direction: transit.DirectionInbound,
				Count:     inCount,
			},
			transit.TrackRequest{
				RouteID:   s.RouteID,
				RouteName: s.RouteName,
				StopID:    s.StationID,
				StopName:  s.StationName,
				Direction: transit.DirectionOutbound,
				Count:     outCount,
			},
		)
	}

	return s, nil
}

// BoardOptions derives the formatter options from the settings.
func (s *Settings) BoardOptions() board.Options {
	title := s.StationName
	if s.Mode == board.ModeJourney {
		title = s.RouteName
	}
	return board.Options{
		Mode:           s.Mode,
		TimeFormat:     s.TimeFormat,
		Abbreviate:     s.Abbreviate,
		ShowRoute:      s.ShowRoute,
		RefreshSeconds: s.RefreshSeconds,
		Title:          title,
		FromStopID:     s.FromID,
		FromName:       s.FromName,
		ToStopID:       s.ToID,
		ToName:         s.ToName,
	}
}

func boolDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
