package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flightwx/skybrief/internal/airports"
	"github.com/flightwx/skybrief/internal/briefing"
	"github.com/flightwx/skybrief/internal/config"
	"github.com/flightwx/skybrief/internal/geo"
	"github.com/flightwx/skybrief/internal/websocket"
	"github.com/flightwx/skybrief/internal/wx"
	"github.com/flightwx/skybrief/pkg/logger"
)

// Handler contains the API handlers
type Handler struct {
	composer  *briefing.Composer
	engine    *geo.Engine
	weather   *wx.Aggregator
	directory *airports.Directory
	config    *config.Config
	logger    *logger.Logger
	wsServer  *websocket.Server
	startedAt time.Time
}

// NewHandler creates a new API handler
func NewHandler(composer *briefing.Composer, engine *geo.Engine, weather *wx.Aggregator, directory *airports.Directory, cfg *config.Config, log *logger.Logger, wsServer *websocket.Server) *Handler {
	return &Handler{
		composer:  composer,
		engine:    engine,
		weather:   weather,
		directory: directory,
		config:    cfg,
		logger:    log.Named("api-handler"),
		wsServer:  wsServer,
		startedAt: time.Now(),
	}
}

// briefingRequest is the POST /briefing payload
type briefingRequest struct {
	Airports []string `json:"airports"`
	Circular bool     `json:"circular"`
	Detail   bool     `json:"detail"`
}

// GetHealth returns service health and uptime
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
		"airports":       h.directory.Size(),
	})
}

// GetWeather returns the fused observation for one airport
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	code, ok := h.airportCode(w, chi.URLParam(r, "code"))
	if !ok {
		return
	}

	obs := h.weather.Observe(r.Context(), code)

	h.wsServer.Broadcast(&websocket.Message{
		Type: websocket.MessageTypeWeatherObservation,
		Data: map[string]any{
			"airport_code": obs.AirportCode,
			"observation":  obs,
		},
	})

	h.respondJSON(w, http.StatusOK, obs)
}

// GetRoute returns route geometry for a comma-separated code list
func (h *Handler) GetRoute(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("codes")
	if raw == "" {
		http.Error(w, "Missing codes parameter", http.StatusBadRequest)
		return
	}

	codes, ok := h.airportCodes(w, strings.Split(raw, ","))
	if !ok {
		return
	}
	if len(codes) < 2 {
		http.Error(w, "At least two airport codes are required", http.StatusBadRequest)
		return
	}

	circular := r.URL.Query().Get("circular") == "true"

	route, err := h.engine.BuildRoute(codes, circular, h.config.Briefing.PointsPerLeg)
	if err != nil {
		h.respondRouteError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, route)
}

// CreateBriefing composes a full route briefing
func (h *Handler) CreateBriefing(w http.ResponseWriter, r *http.Request) {
	var req briefingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	codes, ok := h.airportCodes(w, req.Airports)
	if !ok {
		return
	}
	if len(codes) < 2 {
		http.Error(w, "At least two airport codes are required", http.StatusBadRequest)
		return
	}

	start := time.Now()
	b, err := h.composer.Compose(r.Context(), codes, req.Circular, req.Detail)
	if err != nil {
		h.respondRouteError(w, err)
		return
	}

	h.logger.Info("Briefing request served",
		logger.Int("airports", len(codes)),
		logger.Duration("duration", time.Since(start)))

	h.wsServer.Broadcast(&websocket.Message{
		Type: websocket.MessageTypeBriefingComplete,
		Data: map[string]any{
			"airports":   b.Airports,
			"max_risk":   b.Summary.MaxRisk,
			"status":     b.Summary.OverallStatus,
			"assessment": b.Summary.OverallAssessment,
		},
	})

	h.respondJSON(w, http.StatusOK, b)
}

// HandleWebSocket upgrades the connection for briefing event streaming
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.wsServer.HandleConnection(w, r)
}

// airportCode validates and normalizes a single code. Writes a 400 and
// returns false on malformed input; no upstream work happens first.
func (h *Handler) airportCode(w http.ResponseWriter, raw string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if !validCode(code) {
		http.Error(w, "Invalid airport code: must be 4 alphanumeric characters", http.StatusBadRequest)
		return "", false
	}
	return code, true
}

func (h *Handler) airportCodes(w http.ResponseWriter, raw []string) ([]string, bool) {
	codes := make([]string, 0, len(raw))
	for _, r := range raw {
		code, ok := h.airportCode(w, r)
		if !ok {
			return nil, false
		}
		codes = append(codes, code)
	}
	return codes, true
}

func validCode(code string) bool {
	if len(code) != 4 {
		return false
	}
	for _, c := range code {
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// respondRouteError maps unknown-airport failures to 404 and anything
// else to 500.
func (h *Handler) respondRouteError(w http.ResponseWriter, err error) {
	var nf *airports.NotFoundError
	if errors.As(err, &nf) {
		http.Error(w, "Airport not found: "+nf.Code, http.StatusNotFound)
		return
	}
	h.logger.Error("Request failed", logger.Error(err))
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}
