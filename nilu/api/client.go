package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DEFAULT_BASE_URL = "https://api.nilu.no"
	USER_AGENT       = "Soleklart/1.0 (+https://github.com/monorkin/soleklart)"
	REQUEST_TIMEOUT  = 10 * time.Second
	TRACER_NAME      = "github.com/monorkin/soleklart/nilu/api"
)

type Client struct {
	httpClient http.Client
	baseURL    string
	logger     *slog.Logger
}

type Options struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger
}

func NewClient() *Client {
	return NewClientWithOptions(Options{})
}

func NewClientWithLogger(logger *slog.Logger) *Client {
	return NewClientWithOptions(Options{Logger: logger})
}

func NewClientWithOptions(options Options) *Client {
	baseURL := strings.TrimRight(options.BaseURL, "/")
	if baseURL == "" {
		baseURL = DEFAULT_BASE_URL
	}

	timeout := options.Timeout
	if timeout <= 0 {
		timeout = REQUEST_TIMEOUT
	}

	return &Client{
		httpClient: http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  options.Logger,
	}
}

func (client *Client) BaseURL() string {
	return client.baseURL
}

func (client *Client) log(level slog.Level, msg string, args ...any) {
	if client.logger != nil {
		client.logger.Log(context.Background(), level, msg, args...)
	}
}

// FetchLatest returns the most recent hourly value for each station and
// component matching the query.
func (client *Client) FetchLatest(ctx context.Context, query LatestQuery) ([]Observation, error) {
	if query.Within != nil {
		if err := query.Within.validate(); err != nil {
			return nil, fmt.Errorf("invalid query: %w", err)
		}
	}

	var observations []Observation
	if err := client.get(ctx, "latest", query.Path(), query.Values().Encode(), &observations); err != nil {
		return nil, err
	}

	client.log(slog.LevelDebug, "Latest observations fetched", "count", len(observations))

	return observations, nil
}

func (client *Client) FetchHistorical(ctx context.Context, query HistoricalQuery) ([]StationSeries, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	var series []StationSeries
	if err := client.get(ctx, "historical", query.Path(), query.Values().Encode(), &series); err != nil {
		return nil, err
	}

	client.log(slog.LevelDebug, "Historical series fetched", "count", len(series))

	return series, nil
}

func (client *Client) FetchStations(ctx context.Context) ([]Station, error) {
	var stations []Station
	if err := client.get(ctx, "stations", "/lookup/stations", "", &stations); err != nil {
		return nil, err
	}

	client.log(slog.LevelDebug, "Stations fetched", "count", len(stations))

	return stations, nil
}

func (client *Client) get(ctx context.Context, endpoint string, path string, rawQuery string, out any) (err error) {
	url := client.baseURL + path
	if rawQuery != "" {
		url += "?" + rawQuery
	}

	ctx, span := otel.Tracer(TRACER_NAME).Start(ctx, "nilu.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("nilu.endpoint", endpoint),
			attribute.String("http.url", url),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	client.log(slog.LevelDebug, "Requesting", "url", url)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	request.Header.Set("User-Agent", USER_AGENT)
	request.Header.Set("Accept", "application/json")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", endpoint, err)
	}
	defer response.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", response.StatusCode))

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch %s: %s", endpoint, response.Status)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}
