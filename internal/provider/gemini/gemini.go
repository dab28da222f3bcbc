// Package gemini writes itinerary narratives with the Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/nekogravitycat/trip-orchestrator/internal/provider"
)

const (
	Name         = "gemini"
	DefaultModel = "gemini-2.5-flash"
)

// generator is the part of genai.Models the synthesizer needs.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Synthesizer struct {
	models generator
	model  string
}

// New connects to the Gemini API with an API key.
func New(ctx context.Context, apiKey, model string) (*Synthesizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return newSynthesizer(client.Models, model), nil
}

func newSynthesizer(g generator, model string) *Synthesizer {
	if model == "" {
		model = DefaultModel
	}
	return &Synthesizer{models: g, model: model}
}

func (s *Synthesizer) Name() string { return Name }

func (s *Synthesizer) Synthesize(ctx context.Context, sc provider.SynthesisContext) (string, error) {
	resp, err := s.models.GenerateContent(ctx, s.model, genai.Text(Prompt(sc)), &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.4),
	})
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED") {
			return "", &provider.ProviderError{Provider: Name, Kind: provider.KindRateLimited, Err: err}
		}
		return "", fmt.Errorf("generate content failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", provider.Errorf(Name, provider.KindInvalidResponse, "no candidates in response")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", provider.Errorf(Name, provider.KindInvalidResponse, "empty response")
	}
	return text, nil
}

// Prompt renders the itinerary summary the model is asked to narrate. The
// plan is fixed; the model only describes it.
func Prompt(sc provider.SynthesisContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a short, friendly day-by-day narrative for a %s trip to %s from %s to %s.\n",
		sc.Style, sc.Destination, sc.Start.Format(time.DateOnly), sc.End.Format(time.DateOnly))
	b.WriteString("Describe only the plan below. Do not add, remove or move any activity.\n")
	if len(sc.Interests) > 0 {
		fmt.Fprintf(&b, "Traveler interests: %s.\n", strings.Join(sc.Interests, ", "))
	}
	if len(sc.Dietary) > 0 {
		fmt.Fprintf(&b, "Dietary restrictions: %s.\n", strings.Join(sc.Dietary, ", "))
	}
	if sc.Flight != "" {
		fmt.Fprintf(&b, "Flight: %s.\n", sc.Flight)
	}
	if sc.Hotel != "" {
		fmt.Fprintf(&b, "Hotel: %s.\n", sc.Hotel)
	}
	for i, d := range sc.Days {
		acts := "free time"
		if len(d.Activities) > 0 {
			acts = strings.Join(d.Activities, "; ")
		}
		fmt.Fprintf(&b, "Day %d (%s): %s\n", i+1, d.Date.Format(time.DateOnly), acts)
	}
	return b.String()
}
