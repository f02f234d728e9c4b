package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightwx/skybrief/internal/airports"
	"github.com/flightwx/skybrief/internal/briefing"
	"github.com/flightwx/skybrief/internal/config"
	"github.com/flightwx/skybrief/internal/geo"
	"github.com/flightwx/skybrief/internal/history"
	"github.com/flightwx/skybrief/internal/predict"
	"github.com/flightwx/skybrief/internal/websocket"
	"github.com/flightwx/skybrief/internal/wx"
	"github.com/flightwx/skybrief/pkg/logger"
)

// testServer builds the full route tree over a weather upstream that
// always fails, so handlers run on synthesized observations.
func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	t.Cleanup(upstream.Close)

	log := logger.NewNop()
	dir, err := airports.NewDirectory("", log)
	require.NoError(t, err)
	patterns, err := history.NewStore("", log)
	require.NoError(t, err)

	cfg := &config.Config{
		Server:  config.ServerConfig{Port: 8080, Host: "127.0.0.1", CORSAllowedOrigins: []string{"*"}},
		Logging: config.LoggingConfig{Level: "info", Format: "json"},
		Weather: config.WeatherConfig{
			APIBaseURL:              upstream.URL,
			PrimaryTimeoutSeconds:   2,
			SecondaryTimeoutSeconds: 1,
			CacheSize:               16,
			CacheTTLMinutes:         10,
		},
		Briefing: config.BriefingConfig{PointsPerLeg: 20},
	}

	aggregator := wx.NewAggregator(wx.Config{
		APIBaseURL:              cfg.Weather.APIBaseURL,
		PrimaryTimeoutSeconds:   cfg.Weather.PrimaryTimeoutSeconds,
		SecondaryTimeoutSeconds: cfg.Weather.SecondaryTimeoutSeconds,
		CacheSize:               cfg.Weather.CacheSize,
		CacheTTLMinutes:         cfg.Weather.CacheTTLMinutes,
	}, dir, patterns, log)

	engine := geo.NewEngine(dir, log)
	composer := briefing.NewComposer(engine, aggregator,
		predict.NewBridge(predict.NewRegistry(log)), nil, cfg.Briefing.PointsPerLeg, log)

	wsServer := websocket.NewServer(log)
	go wsServer.Run()

	handler := NewHandler(composer, engine, aggregator, dir, cfg, log, wsServer)
	router := NewRouter(handler, cfg, log)

	ts := httptest.NewServer(router.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func TestGetHealth(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestGetWeatherValidation(t *testing.T) {
	ts := testServer(t)

	for _, code := range []string{"JFK", "KJFKX", "KJ-K", "12"} {
		resp, err := http.Get(ts.URL + "/api/v1/weather/" + code)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "code %q", code)
	}
}

func TestGetWeatherFallback(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/weather/KJFK")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var obs wx.Observation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&obs))
	assert.Equal(t, "KJFK", obs.AirportCode)
	assert.Contains(t, obs.Sources, wx.TagFallbackMETAR)
}

func TestGetRoute(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/route?codes=KJFK,KLAX")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var route geo.Route
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&route))
	require.Len(t, route.Legs, 1)
	assert.InEpsilon(t, 2145.0, route.TotalNM, 0.05)
}

func TestGetRouteUnknownAirport(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/route?codes=KJFK,QQQQ")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetRouteRequiresTwoCodes(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/route?codes=KJFK")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateBriefing(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/briefing", "application/json",
		strings.NewReader(`{"airports": ["KJFK", "KORD"], "circular": false, "detail": true}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var b briefing.Briefing
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&b))
	require.Len(t, b.Legs, 1)
	assert.Equal(t, "KJFK", b.Legs[0].Origin.Code)
	assert.NotEmpty(t, b.Legs[0].Forecast)
	assert.NotEmpty(t, b.Summary.OverallAssessment)
}

func TestCreateBriefingBadJSON(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/briefing", "application/json",
		strings.NewReader(`{"airports": [`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateBriefingValidatesBeforeWork(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/briefing", "application/json",
		strings.NewReader(`{"airports": ["KJFK", "BAD"]}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
