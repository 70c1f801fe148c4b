package transit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"trainboard/internal/logger"
)

// DefaultBaseURL is the MBTA v3 API root.
const DefaultBaseURL = "https://api-v3.mbta.com"

// Defaults for the resilient fetch path.
const (
	DefaultFailureThreshold = 5
	DefaultRecoveryDelay    = 60 * time.Second
	DefaultMaxRetries       = 5
	DefaultBaseRetryDelay   = 5 * time.Second
	DefaultRequestTimeout   = 30 * time.Second
)

// Fetcher is the API surface the poll cycle depends on.
type Fetcher interface {
	Schedules(ctx context.Context, routeID, stopID string, dir Direction) ([]ScheduleEntry, error)
	Predictions(ctx context.Context, routeID, stopID string, dir Direction, limit int) ([]PredictionEntry, error)
}

// ClientOptions tunes the resilience behaviour of a Client.
type ClientOptions struct {
	BaseURL          string
	FailureThreshold uint32
	RecoveryDelay    time.Duration
	MaxRetries       int
	BaseRetryDelay   time.Duration
}

// Client talks to the MBTA v3 JSON:API with a circuit breaker, connectivity
// probing and retry with exponential backoff around every call.
type Client struct {
	baseURL string
	apiKey  string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	probe   *connectivityProbe
	log     *logger.Logger
}

// NewClient builds a Client. The http.Client carries the per-attempt timeout.
func NewClient(httpClient *http.Client, apiKey string, opts ClientOptions, log *logger.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = DefaultFailureThreshold
	}
	if opts.RecoveryDelay == 0 {
		opts.RecoveryDelay = DefaultRecoveryDelay
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.BaseRetryDelay == 0 {
		opts.BaseRetryDelay = DefaultBaseRetryDelay
	}

	probeURL := fmt.Sprintf("%s/routes?%s", opts.BaseURL, url.Values{"api_key": {apiKey}}.Encode())

	return &Client{
		baseURL: opts.BaseURL,
		apiKey:  apiKey,
		httpCfg: HTTPClientConfig{
			Client: httpClient,
			Backoff: BackoffConfig{
				MaxRetries:      opts.MaxRetries,
				InitialInterval: opts.BaseRetryDelay,
			},
		},
		circuit: newBreaker("mbta", opts.FailureThreshold, opts.RecoveryDelay, log),
		probe: &connectivityProbe{
			client: httpClient,
			url:    probeURL,
			log:    log,
		},
		log: log,
	}
}

// BreakerState exposes the current circuit breaker state for the health
// endpoint.
func (c *Client) BreakerState() string {
	return c.circuit.State().String()
}

// Schedules fetches the static timetable rows for a route/stop/direction,
// sorted by departure time.
func (c *Client) Schedules(ctx context.Context, routeID, stopID string, dir Direction) ([]ScheduleEntry, error) {
	values := url.Values{}
	values.Set("filter[route]", routeID)
	values.Set("filter[stop]", stopID)
	values.Set("filter[direction_id]", dir.ID())
	values.Set("sort", "departure_time")
	values.Set("include", "prediction")
	values.Set("api_key", c.apiKey)

	doc, err := c.getDocument(ctx, "/schedules", values)
	if err != nil {
		return nil, err
	}
	return parseSchedules(doc), nil
}

// Predictions fetches live prediction rows for a route/stop/direction,
// sorted by departure time. limit caps the page size; the feed is asked for
// twice the limit since rows without any time are dropped after parsing.
func (c *Client) Predictions(ctx context.Context, routeID, stopID string, dir Direction, limit int) ([]PredictionEntry, error) {
	values := url.Values{}
	values.Set("filter[stop]", stopID)
	values.Set("filter[direction_id]", dir.ID())
	if routeID != "" {
		values.Set("filter[route]", routeID)
	}
	if limit > 0 {
		values.Set("page[limit]", fmt.Sprintf("%d", limit*2))
	}
	values.Set("sort", "departure_time")
	values.Set("include", "trip")
	values.Set("api_key", c.apiKey)

	doc, err := c.getDocument(ctx, "/predictions", values)
	if err != nil {
		return nil, err
	}
	return parsePredictions(doc), nil
}

func (c *Client) getDocument(ctx context.Context, path string, values url.Values) (*apiDocument, error) {
	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s%s?%s", c.baseURL, path, values.Encode())
		c.log.Debugw("requesting", "url", u)
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, c.probe, c.log, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var doc apiDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("malformed payload from %s: %w", path, err)
	}
	return &doc, nil
}

// JSON:API envelope types for the two read endpoints.

type apiDocument struct {
	Data     []apiResource `json:"data"`
	Included []apiResource `json:"included"`
}

type apiResource struct {
	ID            string                     `json:"id"`
	Type          string                     `json:"type"`
	Attributes    *apiAttributes             `json:"attributes"`
	Relationships map[string]apiRelationship `json:"relationships"`
}

type apiAttributes struct {
	ArrivalTime          string `json:"arrival_time"`
	DepartureTime        string `json:"departure_time"`
	DirectionID          int    `json:"direction_id"`
	Status               string `json:"status"`
	DepartureUncertainty *int   `json:"departure_uncertainty"`
	Headsign             string `json:"headsign"`
}

type apiRelationship struct {
	Data *apiRelationshipData `json:"data"`
}

type apiRelationshipData struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

func (r apiResource) relatedID(name string) string {
	rel, ok := r.Relationships[name]
	if !ok || rel.Data == nil {
		return ""
	}
	return rel.Data.ID
}

// parseAPITime parses the ISO8601 timestamps the feed uses. An empty or
// unparseable value yields the zero time, meaning "none known".
func parseAPITime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseSchedules(doc *apiDocument) []ScheduleEntry {
	entries := make([]ScheduleEntry, 0, len(doc.Data))
	for _, res := range doc.Data {
		entry := ScheduleEntry{
			ID:           res.ID,
			RouteID:      res.relatedID("route"),
			TripID:       res.relatedID("trip"),
			PredictionID: res.relatedID("prediction"),
		}
		if res.Attributes != nil {
			entry.ArrivalTime = parseAPITime(res.Attributes.ArrivalTime)
			entry.DepartureTime = parseAPITime(res.Attributes.DepartureTime)
			entry.DirectionID = res.Attributes.DirectionID
		}
		entries = append(entries, entry)
	}
	return entries
}

func parsePredictions(doc *apiDocument) []PredictionEntry {
	headsigns := make(map[string]string)
	for _, inc := range doc.Included {
		if inc.Type == "trip" && inc.Attributes != nil {
			headsigns[inc.ID] = inc.Attributes.Headsign
		}
	}

	entries := make([]PredictionEntry, 0, len(doc.Data))
	for _, res := range doc.Data {
		entry := PredictionEntry{
			ID:      res.ID,
			RouteID: res.relatedID("route"),
			TripID:  res.relatedID("trip"),
		}
		if res.Attributes == nil {
			entry.MissingAttributes = true
		} else {
			entry.ArrivalTime = parseAPITime(res.Attributes.ArrivalTime)
			entry.DepartureTime = parseAPITime(res.Attributes.DepartureTime)
			entry.DirectionID = res.Attributes.DirectionID
			entry.Status = res.Attributes.Status
			// The feed reports 0 for unknown uncertainty; keep it nil.
			if res.Attributes.DepartureUncertainty != nil && *res.Attributes.DepartureUncertainty > 0 {
				entry.UncertaintySec = res.Attributes.DepartureUncertainty
			}
		}
		if dest, ok := headsigns[entry.TripID]; ok {
			entry.Destination = dest
		}
		entries = append(entries, entry)
	}
	return entries
}
