package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/wegovern/governance-api/internal/constants"
)

var (
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not suggest any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be drafted from AI output")
)

// chatCompleter is the part of the OpenAI client the drafter uses
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// AIService drafts the tasks a motion implies
type AIService struct {
	client chatCompleter
	model  string
	now    func() time.Time
}

// DraftedTask is a task suggested for a motion
type DraftedTask struct {
	Action      string     `json:"action"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
}

// NewAIService returns nil when apiKey is empty, which makes DraftTasks
// report ErrAIServiceNotConfigured.
func NewAIService(apiKey string) *AIService {
	if apiKey == "" {
		return nil
	}
	return &AIService{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4o,
		now:    time.Now,
	}
}

// DraftTasks asks the model for the concrete tasks a motion would commit
// the organization to. Suggestions without an action are dropped, and
// due dates already in the past are cleared.
func (s *AIService) DraftTasks(ctx context.Context, motionText string) ([]DraftedTask, error) {
	if s == nil || s.client == nil {
		return nil, ErrAIServiceNotConfigured
	}
	if strings.TrimSpace(motionText) == "" {
		return nil, ErrMotionTextRequired
	}

	drafted, err := s.complete(ctx, motionText)
	if err != nil {
		return nil, err
	}

	if len(drafted) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(drafted) > constants.MaxAIGeneratedTasks {
		drafted = drafted[:constants.MaxAIGeneratedTasks]
	}

	valid := make([]DraftedTask, 0, len(drafted))
	cutoff := s.now().Add(-24 * time.Hour)
	for _, t := range drafted {
		t.Action = strings.TrimSpace(t.Action)
		if t.Action == "" {
			continue
		}
		if t.DueDate != nil && t.DueDate.Before(cutoff) {
			t.DueDate = nil
		}
		valid = append(valid, t)
	}

	if len(valid) == 0 {
		return nil, ErrAINoValidTasks
	}

	return valid, nil
}

func (s *AIService) complete(ctx context.Context, motionText string) ([]DraftedTask, error) {
	currentTime := s.now().Format(time.RFC3339)
	prompt := fmt.Sprintf(`You help an organization turn a motion into follow-up tasks.
Extract the concrete actions the organization commits to if the motion passes.

Current time: %s

Motion:
%s

Reply with a JSON array only, in this shape:
[
  {
    "action": "short imperative description of the task",
    "description": "details needed to carry it out",
    "due_date": "deadline in ISO8601, e.g. 2025-10-28T23:59:59Z, or null when none is stated"
  }
]

Rules:
- Return [] when the motion implies no tasks
- Convert relative deadlines ("next Friday", "within a month") to absolute dates
- Do not include any text outside the JSON array`, currentTime, motionText)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var tasks []DraftedTask
	if err := json.Unmarshal([]byte(content), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	return tasks, nil
}
