// Package predict bridges assembled weather features into a registry
// of independently-loadable predictive models. Models are consumed as
// already-trained artifacts through a fixed prediction contract; a
// missing or failing model omits its field and nothing else.
package predict

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/flightwx/skybrief/pkg/logger"
)

// Model names understood by the bridge.
const (
	ModelTemperature   = "temperature_predictor"
	ModelWindSpeed     = "wind_speed_predictor"
	ModelWindDirection = "wind_direction_predictor"
	ModelPressure      = "pressure_predictor"
	ModelTurbulence    = "turbulence_predictor"
	ModelIcing         = "icing_predictor"
	ModelWeatherClass  = "weather_classifier"
)

// modelNames is the full set the registry attempts to load.
var modelNames = []string{
	ModelTemperature,
	ModelWindSpeed,
	ModelWindDirection,
	ModelPressure,
	ModelTurbulence,
	ModelIcing,
	ModelWeatherClass,
}

// Predictor is the fixed prediction contract: one numeric output per
// feature vector.
type Predictor interface {
	Predict(features []float64) (float64, error)
}

// Registry maps model names to loaded predictors. Loaded once and
// read-only afterward.
type Registry struct {
	models map[string]Predictor
	logger *logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		models: make(map[string]Predictor),
		logger: log.Named("predict-registry"),
	}
}

// Register adds a predictor under the given name.
func (r *Registry) Register(name string, p Predictor) {
	r.models[name] = p
}

// Len returns the number of loaded models.
func (r *Registry) Len() int {
	return len(r.models)
}

// Predict invokes the named model. The second return is false when the
// model is absent or its invocation failed; a failing model never
// affects any other model's output.
func (r *Registry) Predict(name string, features []float64) (float64, bool) {
	p, ok := r.models[name]
	if !ok {
		return 0, false
	}
	v, err := p.Predict(features)
	if err != nil {
		r.logger.Debug("Model invocation failed",
			logger.String("model", name),
			logger.Error(err))
		return 0, false
	}
	return v, true
}

// linearArtifact is the on-disk model format: a bias plus one
// coefficient per feature.
type linearArtifact struct {
	Bias         float64   `json:"bias"`
	Coefficients []float64 `json:"coefficients"`
}

// linearModel is an artifact-backed Predictor.
type linearModel struct {
	bias  float64
	coefs []float64
}

func (m *linearModel) Predict(features []float64) (float64, error) {
	if len(features) != len(m.coefs) {
		return 0, fmt.Errorf("feature vector has %d dimensions, model expects %d", len(features), len(m.coefs))
	}
	sum := m.bias
	for i, f := range features {
		sum += m.coefs[i] * f
	}
	return sum, nil
}

// LoadRegistry loads every model artifact found under dir. A model
// whose artifact is missing or malformed is simply absent from the
// registry; an empty dir yields an empty registry.
func LoadRegistry(dir string, log *logger.Logger) *Registry {
	r := NewRegistry(log)

	if dir == "" {
		r.logger.Warn("No model directory configured, predictions disabled")
		return r
	}

	for _, name := range modelNames {
		path := filepath.Join(dir, name+".json")
		data, err := os.ReadFile(path)
		if err != nil {
			r.logger.Debug("Model artifact not found",
				logger.String("model", name),
				logger.String("path", path))
			continue
		}

		var artifact linearArtifact
		if err := json.Unmarshal(data, &artifact); err != nil {
			r.logger.Warn("Malformed model artifact, skipping",
				logger.String("model", name),
				logger.Error(err))
			continue
		}
		if len(artifact.Coefficients) == 0 {
			r.logger.Warn("Model artifact has no coefficients, skipping",
				logger.String("model", name))
			continue
		}

		r.Register(name, &linearModel{bias: artifact.Bias, coefs: artifact.Coefficients})
		r.logger.Info("Model loaded",
			logger.String("model", name),
			logger.Int("dimensions", len(artifact.Coefficients)))
	}

	r.logger.Info("Model registry ready", logger.Int("models", r.Len()))
	return r
}
