package wx

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/flightwx/skybrief/internal/airports"
	"github.com/flightwx/skybrief/internal/history"
	"github.com/flightwx/skybrief/pkg/logger"
)

// Aggregator fuses the per-airport weather sources into a single
// Observation. It never fails outright: primary-source outages are
// replaced by deterministic synthesis and supplementary-source outages
// are silently omitted.
type Aggregator struct {
	config    Config
	client    *Client
	directory *airports.Directory
	patterns  *history.Store
	cache     *expirable.LRU[string, *Observation]
	logger    *logger.Logger
}

// NewAggregator creates a weather source aggregator.
func NewAggregator(cfg Config, directory *airports.Directory, patterns *history.Store, log *logger.Logger) *Aggregator {
	ttl := time.Duration(cfg.CacheTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = 256
	}

	return &Aggregator{
		config:    cfg,
		client:    NewClient(cfg, log),
		directory: directory,
		patterns:  patterns,
		cache:     expirable.NewLRU[string, *Observation](size, nil, ttl),
		logger:    log.Named("wx-aggregator"),
	}
}

// Observe returns the fused weather observation for one airport. Legs
// sharing an endpoint within the cache window reuse the same
// observation.
func (a *Aggregator) Observe(ctx context.Context, airportCode string) *Observation {
	if cached, ok := a.cache.Get(airportCode); ok {
		a.logger.Debug("Observation cache hit", logger.String("airport", airportCode))
		return cached
	}

	start := time.Now()
	rec := a.directory.LookupOrDefault(airportCode)

	obs := &Observation{AirportCode: rec.ICAO}

	results := a.fetchAll(ctx, rec)
	a.resolve(obs, rec, results)

	if pattern := a.patterns.Lookup(rec.ICAO); pattern != nil {
		obs.Historical = pattern
		obs.Sources = append(obs.Sources, TagHistorical)
	}

	a.cache.Add(airportCode, obs)

	a.logger.Info("Weather observation assembled",
		logger.String("airport", rec.ICAO),
		logger.Duration("duration", time.Since(start)),
		logger.Any("sources", obs.Sources))

	return obs
}

// fetchAll runs the four source fetches concurrently, each bounded by
// its own timeout, and joins whatever finished. A slow source delays
// nothing beyond its own deadline.
func (a *Aggregator) fetchAll(ctx context.Context, rec *airports.Record) []fetchResult {
	primary := time.Duration(a.config.PrimaryTimeoutSeconds) * time.Second
	secondary := time.Duration(a.config.SecondaryTimeoutSeconds) * time.Second

	results := make(chan fetchResult, 4)

	go func() {
		fctx, cancel := context.WithTimeout(ctx, primary)
		defer cancel()
		m, err := a.client.FetchMETAR(fctx, rec.ICAO)
		results <- classifyMETAR(m, err)
	}()

	go func() {
		fctx, cancel := context.WithTimeout(ctx, primary)
		defer cancel()
		t, err := a.client.FetchTAF(fctx, rec.ICAO)
		results <- classifyTAF(t, err)
	}()

	go func() {
		fctx, cancel := context.WithTimeout(ctx, secondary)
		defer cancel()
		p, err := a.client.FetchPIREPs(fctx, rec.Latitude, rec.Longitude)
		if err != nil {
			results <- fetchResult{source: SourcePIREP, status: statusFailed, err: err}
			return
		}
		results <- fetchResult{source: SourcePIREP, status: statusOK, data: p}
	}()

	go func() {
		fctx, cancel := context.WithTimeout(ctx, secondary)
		defer cancel()
		s, err := a.client.FetchSIGMETs(fctx)
		if err != nil {
			results <- fetchResult{source: SourceSIGMET, status: statusFailed, err: err}
			return
		}
		results <- fetchResult{source: SourceSIGMET, status: statusOK, data: s}
	}()

	collected := make([]fetchResult, 0, 4)
	for i := 0; i < 4; i++ {
		collected = append(collected, <-results)
	}
	return collected
}

// classifyMETAR maps a METAR fetch to the per-source state machine: a
// response whose temperature can't be read is success-with-unusable-
// data and triggers fallback just like a failure.
func classifyMETAR(m *metarPayload, err error) fetchResult {
	if err != nil {
		return fetchResult{source: SourceMETAR, status: statusFailed, err: err}
	}
	if _, ok := m.Temp.Float64(); !ok {
		return fetchResult{source: SourceMETAR, status: statusUnusable}
	}
	return fetchResult{source: SourceMETAR, status: statusOK, data: m}
}

func classifyTAF(t *tafPayload, err error) fetchResult {
	if err != nil {
		return fetchResult{source: SourceTAF, status: statusFailed, err: err}
	}
	if t.Raw == "" {
		return fetchResult{source: SourceTAF, status: statusUnusable}
	}
	return fetchResult{source: SourceTAF, status: statusOK, data: t}
}

// resolve applies the joined fetch results to the observation in a
// single pass: live data where usable, synthesis for primary sources,
// omission for supplementary ones. The observation always ends up with
// at least one source tag.
func (a *Aggregator) resolve(obs *Observation, rec *airports.Record, results []fetchResult) {
	bySource := make(map[Source]fetchResult, len(results))
	for _, r := range results {
		if r.status != statusOK {
			a.logger.Debug("Weather source degraded",
				logger.String("airport", obs.AirportCode),
				logger.String("source", string(r.source)),
				logger.Bool("unusable", r.status == statusUnusable),
				logger.Error(r.err))
		}
		bySource[r.source] = r
	}

	if r, ok := bySource[SourceMETAR]; ok && r.status == statusOK {
		applyMETAR(obs, r.data.(*metarPayload))
		obs.Sources = append(obs.Sources, TagMETAR)
	} else {
		synthesizeObservation(obs, rec)
		obs.Sources = append(obs.Sources, TagFallbackMETAR)
	}

	if r, ok := bySource[SourceTAF]; ok && r.status == statusOK {
		applyTAF(obs, r.data.(*tafPayload))
		obs.Sources = append(obs.Sources, TagTAF)
	} else {
		synthesizeForecast(obs)
		obs.Sources = append(obs.Sources, TagFallbackTAF)
	}

	if r, ok := bySource[SourcePIREP]; ok && r.status == statusOK {
		if payloads := r.data.([]pirepPayload); len(payloads) > 0 {
			applyPireps(obs, payloads)
			obs.Sources = append(obs.Sources, TagPIREP)
		}
	}

	if r, ok := bySource[SourceSIGMET]; ok && r.status == statusOK {
		if payloads := r.data.([]sigmetPayload); len(payloads) > 0 {
			applySigmets(obs, payloads, obs.AirportCode)
			obs.Sources = append(obs.Sources, TagSIGMET)
		}
	}
}
