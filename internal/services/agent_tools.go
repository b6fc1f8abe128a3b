package services

import (
	"context"
	"fmt"

	"github.com/aivy-app/aivy-backend/internal/agent"
	"github.com/aivy-app/aivy-backend/internal/types"
)

// The agent-facing tools. Each one adapts a service to the agent.Tool
// contract; the tools themselves hold no per-conversation state, everything
// they need arrives through args and scope.

const defaultSearchLimit = 5

type retrievalTool struct {
	retrieval RetrievalService
}

func NewRetrievalTool(retrieval RetrievalService) agent.Tool {
	return &retrievalTool{retrieval: retrieval}
}

func (t *retrievalTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        "search_documents",
		Description: "Search the student's study material for passages relevant to a query. Results from the current conversation rank highest, then space-wide material, then the student's other documents.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Natural-language search query.",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of passages to return. Defaults to 5.",
				},
			},
			"required": []string{"query"},
		},
	}
}

func (t *retrievalTool) Invoke(ctx context.Context, args map[string]any, scope agent.Scope) (any, error) {
	query, err := stringArg(args, "query", true)
	if err != nil {
		return nil, err
	}
	limit, err := intArg(args, "limit", defaultSearchLimit)
	if err != nil {
		return nil, err
	}
	return t.retrieval.Search(ctx, query, limit, scope)
}

type flashcardTool struct {
	flashcards FlashcardService
}

func NewFlashcardTool(flashcards FlashcardService) agent.Tool {
	return &flashcardTool{flashcards: flashcards}
}

func (t *flashcardTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        "create_flashcard",
		Description: "Create a multiple-choice flashcard for the student. Exactly three answer options are required.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"topic": map[string]any{
					"type":        "string",
					"description": "Topic the flashcard belongs to.",
				},
				"question": map[string]any{
					"type":        "string",
					"description": "The question shown on the card.",
				},
				"options": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Exactly three answer choices.",
				},
				"correct_index": map[string]any{
					"type":        "integer",
					"description": "Zero-based index of the correct choice.",
				},
			},
			"required": []string{"topic", "question", "options", "correct_index"},
		},
	}
}

func (t *flashcardTool) Invoke(ctx context.Context, args map[string]any, scope agent.Scope) (any, error) {
	topic, err := stringArg(args, "topic", true)
	if err != nil {
		return nil, err
	}
	question, err := stringArg(args, "question", true)
	if err != nil {
		return nil, err
	}
	options, err := stringSliceArg(args, "options")
	if err != nil {
		return nil, err
	}
	correctIndex, err := intArg(args, "correct_index", -1)
	if err != nil {
		return nil, err
	}
	card, err := t.flashcards.Create(ctx, CreateFlashcardInput{
		UserID:       scope.UserID,
		SpaceID:      scope.SpaceID,
		Topic:        topic,
		Question:     question,
		Options:      options,
		CorrectIndex: correctIndex,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"flashcard_id": card.ID,
		"topic":        card.Topic,
		"question":     card.Question,
	}, nil
}

type topicScoreTool struct {
	topics TopicService
}

func NewTopicScoreTool(topics TopicService) agent.Tool {
	return &topicScoreTool{topics: topics}
}

func (t *topicScoreTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        "update_topic_level",
		Description: "Record or update the student's mastery level for a topic. Levels are Learning, Basic and Advanced. Safe to call repeatedly with the same values.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"topic_name": map[string]any{
					"type":        "string",
					"description": "Name of the topic.",
				},
				"level": map[string]any{
					"type": "string",
					"enum": []string{
						types.TopicLevelLearning,
						types.TopicLevelBasic,
						types.TopicLevelAdvanced,
					},
					"description": "Mastery level to record.",
				},
			},
			"required": []string{"topic_name", "level"},
		},
	}
}

func (t *topicScoreTool) Invoke(ctx context.Context, args map[string]any, scope agent.Scope) (any, error) {
	name, err := stringArg(args, "topic_name", true)
	if err != nil {
		return nil, err
	}
	level, err := stringArg(args, "level", true)
	if err != nil {
		return nil, err
	}
	topic, err := t.topics.UpsertLevel(ctx, scope.UserID, name, level, scope.ThreadID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"topic_id": topic.ID,
		"name":     topic.Name,
		"level":    topic.Level,
	}, nil
}

func stringArg(args map[string]any, key string, required bool) (string, error) {
	v, ok := args[key]
	if !ok {
		if required {
			return "", fmt.Errorf("missing required argument %q", key)
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", key)
	}
	if required && s == "" {
		return "", fmt.Errorf("argument %q must not be empty", key)
	}
	return s, nil
}

// intArg tolerates float64 because JSON decoding produces it for all numbers.
func intArg(args map[string]any, key string, fallback int) (int, error) {
	v, ok := args[key]
	if !ok {
		return fallback, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("argument %q must be an integer", key)
	}
}

func stringSliceArg(args map[string]any, key string) ([]string, error) {
	v, ok := args[key]
	if !ok {
		return nil, fmt.Errorf("missing required argument %q", key)
	}
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("argument %q element %d must be a string", key, i)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("argument %q must be an array of strings", key)
	}
}
