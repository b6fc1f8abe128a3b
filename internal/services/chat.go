package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aivy-app/aivy-backend/internal/agent"
	apperrors "github.com/aivy-app/aivy-backend/internal/pkg/errors"
	"github.com/aivy-app/aivy-backend/internal/platform/logger"
	"github.com/aivy-app/aivy-backend/internal/repos"
	"github.com/aivy-app/aivy-backend/internal/types"
)

const threadTitleMaxLen = 60

// ChatService owns the conversation surface: thread lifecycle, history reads
// from the checkpoint log, and turn execution through the orchestrator.
type ChatService interface {
	CreateThread(ctx context.Context, userID, spaceID uuid.UUID, title string) (*types.Thread, error)
	GetThread(ctx context.Context, userID, threadID uuid.UUID) (*types.Thread, error)
	ListThreads(ctx context.Context, userID uuid.UUID, limit int) ([]*types.Thread, error)
	History(ctx context.Context, userID, threadID uuid.UUID) ([]agent.Message, error)
	ListCheckpoints(ctx context.Context, userID, threadID uuid.UUID, limit int, beforeSeq *int64) ([]*agent.Snapshot, error)
	SendMessage(ctx context.Context, userID, threadID uuid.UUID, content string) (*agent.TurnResult, error)
	StreamMessage(ctx context.Context, userID, threadID uuid.UUID, content string, emit func(agent.StreamEvent)) (*agent.TurnResult, error)
}

type chatService struct {
	db           *gorm.DB
	log          *logger.Logger
	threads      repos.ThreadRepo
	spaces       repos.SpaceRepo
	store        agent.CheckpointStore
	orchestrator *agent.Orchestrator
}

func NewChatService(
	db *gorm.DB,
	baseLog *logger.Logger,
	threadRepo repos.ThreadRepo,
	spaceRepo repos.SpaceRepo,
	store agent.CheckpointStore,
	orchestrator *agent.Orchestrator,
) ChatService {
	return &chatService{
		db:           db,
		log:          baseLog.With("service", "ChatService"),
		threads:      threadRepo,
		spaces:       spaceRepo,
		store:        store,
		orchestrator: orchestrator,
	}
}

func (s *chatService) CreateThread(ctx context.Context, userID, spaceID uuid.UUID, title string) (*types.Thread, error) {
	if userID == uuid.Nil || spaceID == uuid.Nil {
		return nil, fmt.Errorf("missing user or space id: %w", apperrors.ErrInvalidArgument)
	}
	space, err := s.spaces.GetByID(ctx, nil, spaceID)
	if err != nil {
		return nil, err
	}
	if space == nil {
		return nil, fmt.Errorf("space %s: %w", spaceID, apperrors.ErrNotFound)
	}
	if space.UserID != userID {
		return nil, fmt.Errorf("space %s does not belong to user: %w", spaceID, apperrors.ErrUnauthorized)
	}

	thread := &types.Thread{
		UserID:        userID,
		SpaceID:       spaceID,
		LastMessageAt: time.Now(),
	}
	if title = strings.TrimSpace(title); title != "" {
		thread.Title = truncateTitle(title)
	}
	if _, err := s.threads.Create(ctx, nil, thread); err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}
	return thread, nil
}

func (s *chatService) GetThread(ctx context.Context, userID, threadID uuid.UUID) (*types.Thread, error) {
	return s.ownedThread(ctx, userID, threadID)
}

func (s *chatService) ListThreads(ctx context.Context, userID uuid.UUID, limit int) ([]*types.Thread, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("missing user id: %w", apperrors.ErrInvalidArgument)
	}
	return s.threads.ListByUser(ctx, nil, userID, limit)
}

// History returns the full message log from the latest checkpoint. A thread
// with no turns yet has an empty history.
func (s *chatService) History(ctx context.Context, userID, threadID uuid.UUID) ([]agent.Message, error) {
	if _, err := s.ownedThread(ctx, userID, threadID); err != nil {
		return nil, err
	}
	snap, err := s.store.Latest(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return []agent.Message{}, nil
	}
	return snap.Messages, nil
}

func (s *chatService) ListCheckpoints(ctx context.Context, userID, threadID uuid.UUID, limit int, beforeSeq *int64) ([]*agent.Snapshot, error) {
	if _, err := s.ownedThread(ctx, userID, threadID); err != nil {
		return nil, err
	}
	return s.store.List(ctx, threadID, limit, beforeSeq)
}

func (s *chatService) SendMessage(ctx context.Context, userID, threadID uuid.UUID, content string) (*agent.TurnResult, error) {
	return s.runTurn(ctx, userID, threadID, content, nil)
}

func (s *chatService) StreamMessage(ctx context.Context, userID, threadID uuid.UUID, content string, emit func(agent.StreamEvent)) (*agent.TurnResult, error) {
	return s.runTurn(ctx, userID, threadID, content, emit)
}

func (s *chatService) runTurn(ctx context.Context, userID, threadID uuid.UUID, content string, emit func(agent.StreamEvent)) (*agent.TurnResult, error) {
	thread, err := s.ownedThread(ctx, userID, threadID)
	if err != nil {
		return nil, err
	}
	scope := agent.Scope{
		ThreadID: thread.ID,
		SpaceID:  thread.SpaceID,
		UserID:   userID,
	}

	var result *agent.TurnResult
	if emit == nil {
		result, err = s.orchestrator.RunTurn(ctx, scope, content)
	} else {
		result, err = s.orchestrator.StreamTurn(ctx, scope, content, emit)
	}
	if err != nil {
		return nil, err
	}

	fields := map[string]any{"last_message_at": time.Now()}
	if thread.Title == "" || thread.Title == "New Chat" {
		fields["title"] = truncateTitle(content)
	}
	if uErr := s.threads.UpdateFields(ctx, nil, thread.ID, fields); uErr != nil {
		s.log.Warn("failed to touch thread after turn", "thread_id", thread.ID, "error", uErr)
	}
	return result, nil
}

func (s *chatService) ownedThread(ctx context.Context, userID, threadID uuid.UUID) (*types.Thread, error) {
	if userID == uuid.Nil || threadID == uuid.Nil {
		return nil, fmt.Errorf("missing user or thread id: %w", apperrors.ErrInvalidArgument)
	}
	thread, err := s.threads.GetByID(ctx, nil, threadID)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, fmt.Errorf("thread %s: %w", threadID, apperrors.ErrNotFound)
	}
	if thread.UserID != userID {
		return nil, fmt.Errorf("thread %s does not belong to user: %w", threadID, apperrors.ErrUnauthorized)
	}
	return thread, nil
}

func truncateTitle(content string) string {
	content = strings.TrimSpace(content)
	if len(content) > threadTitleMaxLen {
		content = content[:threadTitleMaxLen]
	}
	return content
}
