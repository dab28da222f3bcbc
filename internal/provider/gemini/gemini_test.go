package gemini

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/nekogravitycat/trip-orchestrator/internal/provider"
)

type fakeModels struct {
	resp   *genai.GenerateContentResponse
	err    error
	model  string
	prompt string
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

var sampleContext = provider.SynthesisContext{
	Destination: "Paris",
	Start:       time.Date(2027, 4, 10, 0, 0, 0, 0, time.UTC),
	End:         time.Date(2027, 4, 12, 0, 0, 0, 0, time.UTC),
	Style:       "mid-range",
	Interests:   []string{"history"},
	Hotel:       "Hotel du Petit Marais",
	Days: []provider.SynthesisDay{
		{Date: time.Date(2027, 4, 10, 0, 0, 0, 0, time.UTC), Activities: []string{"Louvre Museum"}},
		{Date: time.Date(2027, 4, 11, 0, 0, 0, 0, time.UTC)},
	},
}

func TestSynthesize(t *testing.T) {
	fake := &fakeModels{resp: textResponse("Day one: ", "the Louvre. ")}
	s := newSynthesizer(fake, "")

	text, err := s.Synthesize(context.Background(), sampleContext)
	require.NoError(t, err)
	assert.Equal(t, "Day one: the Louvre.", text)
	assert.Equal(t, DefaultModel, fake.model)
	assert.Contains(t, fake.prompt, "Day 1 (2027-04-10): Louvre Museum")
	assert.Contains(t, fake.prompt, "Day 2 (2027-04-11): free time")
	assert.Contains(t, fake.prompt, "Hotel: Hotel du Petit Marais.")
}

func TestSynthesizeErrors(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeModels
		want provider.ErrorKind
	}{
		{"quota", &fakeModels{err: errors.New("Error 429, Message: RESOURCE_EXHAUSTED")}, provider.KindRateLimited},
		{"transport", &fakeModels{err: errors.New("connection reset")}, provider.KindUnavailable},
		{"deadline", &fakeModels{err: context.DeadlineExceeded}, provider.KindTimeout},
		{"no candidates", &fakeModels{resp: &genai.GenerateContentResponse{}}, provider.KindInvalidResponse},
		{"blank text", &fakeModels{resp: textResponse("  ")}, provider.KindInvalidResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newSynthesizer(tt.fake, "m").Synthesize(context.Background(), sampleContext)
			require.Error(t, err)
			assert.Equal(t, tt.want, provider.KindOf(err))
		})
	}
}
