package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// FeedbackService turns a learner's activity reflection into one short,
// encouraging response. It is optional: the app runs fine without it and
// reflections are simply stored without feedback.
type FeedbackService struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	rateChan chan struct{} // Token bucket
}

func NewFeedbackService(apiKey string, concurrentReqs int) (*FeedbackService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-3-flash-preview")
	model.SetTemperature(0.7)
	model.SetMaxOutputTokens(120)

	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &FeedbackService{
		client:   client,
		model:    model,
		rateChan: rateChan,
	}, nil
}

func (s *FeedbackService) Close() {
	s.client.Close()
}

// ForReflection generates a 1-2 sentence response to a reflection.
func (s *FeedbackService) ForReflection(ctx context.Context, activityID, reflection string) (string, error) {
	select {
	case <-s.rateChan:
		defer func() { s.rateChan <- struct{}{} }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	prompt := fmt.Sprintf(
		"You are a friendly AI-literacy tutor for high-school students. "+
			"A student just finished the %q activity and wrote this reflection:\n\n%s\n\n"+
			"Reply with one or two encouraging sentences that acknowledge their thinking. "+
			"No lists, no preamble.",
		activityID, reflection,
	)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generate feedback: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("generate feedback: empty response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	reply := strings.TrimSpace(sb.String())
	if reply == "" {
		return "", fmt.Errorf("generate feedback: no text in response")
	}
	return reply, nil
}
