package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	apperrors "github.com/aivy-app/aivy-backend/internal/pkg/errors"
	"github.com/aivy-app/aivy-backend/internal/platform/logger"
	"github.com/aivy-app/aivy-backend/internal/repos"
	"github.com/aivy-app/aivy-backend/internal/types"
)

type CreateDocumentInput struct {
	UserID   uuid.UUID
	SpaceID  uuid.UUID
	ThreadID *uuid.UUID
	Name     string
	Text     string
	Source   string
}

type DocumentService interface {
	Create(ctx context.Context, input CreateDocumentInput) (*types.Document, error)
	ListBySpace(ctx context.Context, userID, spaceID uuid.UUID) ([]*types.Document, error)
}

type documentService struct {
	db        *gorm.DB
	log       *logger.Logger
	documents repos.DocumentRepo
	spaces    repos.SpaceRepo
	embedder  Embedder
}

func NewDocumentService(db *gorm.DB, baseLog *logger.Logger, documentRepo repos.DocumentRepo, spaceRepo repos.SpaceRepo, embedder Embedder) DocumentService {
	return &documentService{
		db:        db,
		log:       baseLog.With("service", "DocumentService"),
		documents: documentRepo,
		spaces:    spaceRepo,
		embedder:  embedder,
	}
}

// Create embeds the document text once at ingest; retrieval only ever embeds
// the query.
func (s *documentService) Create(ctx context.Context, input CreateDocumentInput) (*types.Document, error) {
	if input.UserID == uuid.Nil || input.SpaceID == uuid.Nil {
		return nil, fmt.Errorf("missing user or space id: %w", apperrors.ErrInvalidArgument)
	}
	input.Name = strings.TrimSpace(input.Name)
	input.Text = strings.TrimSpace(input.Text)
	if input.Name == "" || input.Text == "" {
		return nil, fmt.Errorf("missing document name or text: %w", apperrors.ErrInvalidArgument)
	}
	if input.Source == "" {
		input.Source = types.DocumentSourceUpload
	}
	if input.Source != types.DocumentSourceUpload && input.Source != types.DocumentSourceGenerated {
		return nil, fmt.Errorf("unknown document source %q: %w", input.Source, apperrors.ErrInvalidArgument)
	}

	space, err := s.spaces.GetByID(ctx, nil, input.SpaceID)
	if err != nil {
		return nil, err
	}
	if space == nil {
		return nil, fmt.Errorf("space %s: %w", input.SpaceID, apperrors.ErrNotFound)
	}
	if space.UserID != input.UserID {
		return nil, fmt.Errorf("space %s does not belong to user: %w", input.SpaceID, apperrors.ErrUnauthorized)
	}

	vectors, err := s.embedder.Embed(ctx, []string{input.Text})
	if err != nil {
		return nil, fmt.Errorf("embed document: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder returned no vector")
	}
	rawEmbedding, err := json.Marshal(vectors[0])
	if err != nil {
		return nil, fmt.Errorf("encode embedding: %w", err)
	}

	doc := &types.Document{
		UserID:    input.UserID,
		SpaceID:   input.SpaceID,
		ThreadID:  input.ThreadID,
		Name:      input.Name,
		Text:      input.Text,
		Embedding: datatypes.JSON(rawEmbedding),
		Source:    input.Source,
	}
	if _, err := s.documents.Create(ctx, nil, doc); err != nil {
		return nil, fmt.Errorf("persist document: %w", err)
	}
	return doc, nil
}

func (s *documentService) ListBySpace(ctx context.Context, userID, spaceID uuid.UUID) ([]*types.Document, error) {
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
	return s.documents.ListBySpace(ctx, nil, spaceID, 0)
}
