package briefing

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/flightwx/skybrief/pkg/logger"
)

// DefaultNarrativeModel is used when the config does not name one.
const DefaultNarrativeModel = "gemini-2.0-flash"

// Narrator produces an optional plain-language summary of a briefing
// via the Gemini API. Briefings are complete without it; any failure
// here is logged and the narrative omitted.
type Narrator struct {
	client *genai.Client
	model  string
	logger *logger.Logger
}

// NewNarrator creates a narrator, or returns (nil, nil) when no API
// key is configured so callers can wire it unconditionally.
func NewNarrator(ctx context.Context, apiKey, model string, log *logger.Logger) (*Narrator, error) {
	if apiKey == "" {
		return nil, nil
	}
	if model == "" {
		model = DefaultNarrativeModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating narrative client: %w", err)
	}
	return &Narrator{
		client: client,
		model:  model,
		logger: log.Named("narrator"),
	}, nil
}

// Summarize asks the model for a short pilot-facing narrative of the
// briefing.
func (n *Narrator) Summarize(ctx context.Context, b *Briefing) (string, error) {
	resp, err := n.client.Models.GenerateContent(ctx, n.model,
		genai.Text(buildPrompt(b)), nil)
	if err != nil {
		return "", fmt.Errorf("generating narrative: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("narrative model returned empty response")
	}
	return text, nil
}

// buildPrompt condenses the briefing into a compact prompt. Only the
// rollup and per-leg verdicts are sent, never raw observations.
func buildPrompt(b *Briefing) string {
	var sb strings.Builder
	sb.WriteString("You are a flight dispatch assistant. Write a concise weather briefing narrative ")
	sb.WriteString("(3-5 sentences, plain language, no markdown) for this route.\n\n")
	fmt.Fprintf(&sb, "Route: %s (circular=%t)\n", strings.Join(b.Airports, " -> "), b.Circular)
	fmt.Fprintf(&sb, "Total distance: %.0f nm, estimated %.1f hours\n",
		b.Summary.TotalNM, b.Summary.TotalDurationHours)
	fmt.Fprintf(&sb, "Overall status: %s, max risk %.0f/100 (%s)\n",
		b.Summary.OverallStatus, b.Summary.MaxRisk, b.Summary.OverallAssessment)
	for _, leg := range b.Legs {
		fmt.Fprintf(&sb, "Leg %s-%s: %.0f nm, status %s, origin risk %.0f (%s), destination risk %.0f (%s)\n",
			leg.Origin.Code, leg.Destination.Code, leg.DistanceNM, leg.Status,
			leg.Origin.Risk.Score, leg.Origin.Risk.Band,
			leg.Destination.Risk.Score, leg.Destination.Risk.Band)
	}
	if len(b.Summary.MLInsights) > 0 {
		sb.WriteString("Model insights: " + strings.Join(b.Summary.MLInsights, "; ") + "\n")
	}
	sb.WriteString(b.Summary.SeasonalContext + "\n")
	return sb.String()
}
