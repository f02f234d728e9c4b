package wx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightwx/skybrief/internal/airports"
	"github.com/flightwx/skybrief/internal/history"
	"github.com/flightwx/skybrief/pkg/logger"
)

func testAggregator(t *testing.T, baseURL string) *Aggregator {
	t.Helper()
	dir, err := airports.NewDirectory("", logger.NewNop())
	require.NoError(t, err)
	patterns, err := history.NewStore("", logger.NewNop())
	require.NoError(t, err)

	cfg := Config{
		APIBaseURL:              baseURL,
		PrimaryTimeoutSeconds:   2,
		SecondaryTimeoutSeconds: 1,
		CacheSize:               8,
		CacheTTLMinutes:         10,
	}
	return NewAggregator(cfg, dir, patterns, logger.NewNop())
}

func TestObserveTotalOutage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusInternalServerError)
	}))
	defer ts.Close()

	a := testAggregator(t, ts.URL)
	obs := a.Observe(context.Background(), "KJFK")

	require.NotNil(t, obs)
	assert.Equal(t, "KJFK", obs.AirportCode)

	// Every field downstream scoring reads must be populated.
	assert.NotZero(t, obs.TemperatureC)
	assert.NotZero(t, obs.WindSpeedKts)
	assert.NotZero(t, obs.VisibilitySM)
	assert.NotZero(t, obs.PressureInHg)
	assert.Equal(t, "VFR", obs.FlightCategory)
	require.NotNil(t, obs.Forecast)

	assert.True(t, obs.HasSource(TagFallbackMETAR), "sources: %v", obs.Sources)
	assert.True(t, obs.HasSource(TagFallbackTAF), "sources: %v", obs.Sources)
	assert.False(t, obs.HasSource(TagMETAR))
	assert.Contains(t, obs.RawMETAR, "FALLBACK DATA")
}

func TestObserveLiveMETAR(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/metar"):
			w.Write([]byte(`[{"rawOb":"KJFK 261751Z 27012KT 10SM 24/12 A3012","temp":24.0,"dewp":12.0,"wdir":270,"wspd":12,"visib":"10+","altim":30.12,"fltcat":"VFR","obsTime":1756230660}]`))
		case strings.HasPrefix(r.URL.Path, "/taf"):
			w.Write([]byte(`[{"rawTAF":"TAF KJFK 261720Z 2618/2724 27010KT P6SM","issueTime":"2026-08-26T17:20:00Z","validTimeFrom":"2026-08-26T18:00:00Z","validTimeTo":"2026-08-27T24:00:00Z"}]`))
		default:
			w.Write([]byte(`[]`))
		}
	}))
	defer ts.Close()

	a := testAggregator(t, ts.URL)
	obs := a.Observe(context.Background(), "KJFK")

	assert.True(t, obs.HasSource(TagMETAR), "sources: %v", obs.Sources)
	assert.True(t, obs.HasSource(TagTAF), "sources: %v", obs.Sources)
	assert.False(t, obs.HasSource(TagFallbackMETAR))
	assert.InDelta(t, 24.0, obs.TemperatureC, 1e-9)
	assert.InDelta(t, 30.12, obs.PressureInHg, 1e-9)
	require.NotNil(t, obs.Forecast)
	assert.Contains(t, obs.Forecast.RawTAF, "TAF KJFK")
}

func TestObserveUnusableMETARTriggersFallback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasPrefix(r.URL.Path, "/metar") {
			// 200 with an unusable record: no readable temperature.
			w.Write([]byte(`[{"rawOb":"KJFK 261751Z","temp":"M"}]`))
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	a := testAggregator(t, ts.URL)
	obs := a.Observe(context.Background(), "KJFK")

	assert.True(t, obs.HasSource(TagFallbackMETAR),
		"unusable METAR must be treated like a failed fetch, sources: %v", obs.Sources)
}

func TestObserveCaching(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/metar") {
			calls++
		}
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer ts.Close()

	a := testAggregator(t, ts.URL)
	first := a.Observe(context.Background(), "EGLL")
	second := a.Observe(context.Background(), "EGLL")

	assert.Same(t, first, second, "second call within TTL must hit the cache")
	assert.Equal(t, 1, calls)
}
