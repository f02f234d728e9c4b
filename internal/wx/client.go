package wx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/flightwx/skybrief/pkg/logger"
)

// metarPayload matches the aviationweather.gov METAR JSON shape.
type metarPayload struct {
	Raw       string    `json:"rawOb"`
	Temp      flexField `json:"temp"`
	Dewp      flexField `json:"dewp"`
	WindDir   flexField `json:"wdir"`
	WindSpeed flexField `json:"wspd"`
	Visib     flexField `json:"visib"`
	Altim     flexField `json:"altim"`
	FltCat    string    `json:"fltcat"`
	ObsTime   flexField `json:"obsTime"`
}

// tafPayload matches the aviationweather.gov TAF JSON shape.
type tafPayload struct {
	Raw       string `json:"rawTAF"`
	IssueTime string `json:"issueTime"`
	ValidFrom string `json:"validTimeFrom"`
	ValidTo   string `json:"validTimeTo"`
}

// pirepPayload matches one pilot report record.
type pirepPayload struct {
	ObsTime      flexField `json:"obsTime"`
	AircraftType string    `json:"acType"`
	FlightLevel  flexField `json:"fltlvl"`
	Turbulence   string    `json:"turb"`
	Icing        string    `json:"ice"`
	Visibility   flexField `json:"vis"`
	Raw          string    `json:"rawOb"`
	Location     string    `json:"location"`
}

// sigmetPayload matches one AIRMET/SIGMET record. The hazard field is
// sometimes a list upstream.
type sigmetPayload struct {
	Hazard    any    `json:"hazard"`
	Severity  string `json:"severity"`
	ValidFrom string `json:"validTimeFrom"`
	ValidTo   string `json:"validTimeTo"`
	Raw       string `json:"rawSigmet"`
	Type      string `json:"sigmetType"`
}

// Client performs the HTTP requests against the weather data API. One
// attempt per source per request; the aggregator substitutes fallbacks
// instead of retrying.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a weather API client.
func NewClient(cfg Config, log *logger.Logger) *Client {
	return &Client{
		baseURL:    cfg.APIBaseURL,
		httpClient: &http.Client{},
		logger:     log.Named("wx-client"),
	}
}

// FetchMETAR fetches the latest current observation for an airport.
func (c *Client) FetchMETAR(ctx context.Context, airportCode string) (*metarPayload, error) {
	url := fmt.Sprintf("%s/metar?ids=%s&format=json&taf=false&hours=1", c.baseURL, airportCode)

	var result []metarPayload
	if err := c.fetchJSON(ctx, url, SourceMETAR, &result); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("no METAR data for %s", airportCode)
	}
	return &result[0], nil
}

// FetchTAF fetches the terminal forecast for an airport.
func (c *Client) FetchTAF(ctx context.Context, airportCode string) (*tafPayload, error) {
	url := fmt.Sprintf("%s/taf?ids=%s&format=json&hours=12", c.baseURL, airportCode)

	var result []tafPayload
	if err := c.fetchJSON(ctx, url, SourceTAF, &result); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("no TAF data for %s", airportCode)
	}
	return &result[0], nil
}

// FetchPIREPs fetches pilot reports in a one-degree box around the
// airport position.
func (c *Client) FetchPIREPs(ctx context.Context, lat, lon float64) ([]pirepPayload, error) {
	url := fmt.Sprintf("%s/pirep?bbox=%g,%g,%g,%g&format=json",
		c.baseURL, lat-1, lon-1, lat+1, lon+1)

	var result []pirepPayload
	if err := c.fetchJSON(ctx, url, SourcePIREP, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// FetchSIGMETs fetches the current area-wide significant weather
// advisories. Relevance filtering happens in the aggregator.
func (c *Client) FetchSIGMETs(ctx context.Context) ([]sigmetPayload, error) {
	url := fmt.Sprintf("%s/airsigmet?format=json", c.baseURL)

	var result []sigmetPayload
	if err := c.fetchJSON(ctx, url, SourceSIGMET, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// fetchJSON performs one GET and decodes the response into target.
func (c *Client) fetchJSON(ctx context.Context, url string, source Source, target any) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("error building %s request: %w", source, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Weather API request failed",
			logger.String("source", string(source)),
			logger.Error(err))
		return fmt.Errorf("error fetching %s data: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Weather API returned non-OK status",
			logger.String("source", string(source)),
			logger.Int("status_code", resp.StatusCode))
		return fmt.Errorf("unexpected status code %d for %s", resp.StatusCode, source)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		c.logger.Warn("Failed to decode weather payload",
			logger.String("source", string(source)),
			logger.Error(err))
		return fmt.Errorf("error decoding %s data: %w", source, err)
	}

	c.logger.Debug("Weather data fetched",
		logger.String("source", string(source)),
		logger.Duration("duration", time.Since(start)))

	return nil
}
