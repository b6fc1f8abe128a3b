package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aivy-app/aivy-backend/internal/platform/logger"
	"github.com/aivy-app/aivy-backend/internal/types"
)

// DocumentRepo reads candidate documents per retrieval tier. Documents are
// written by ingestion and read-only from retrieval's perspective.
type DocumentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, doc *types.Document) (*types.Document, error)

	// GetByThreadID is tier (a): conversation-specific documents.
	GetByThreadID(ctx context.Context, tx *gorm.DB, threadID uuid.UUID) ([]*types.Document, error)
	// GetSpaceLevel is tier (b): space documents with no thread binding.
	GetSpaceLevel(ctx context.Context, tx *gorm.DB, spaceID uuid.UUID) ([]*types.Document, error)
	// GetUserOutsideSpace is tier (c): the user's material from other spaces.
	GetUserOutsideSpace(ctx context.Context, tx *gorm.DB, userID, spaceID uuid.UUID) ([]*types.Document, error)
	// GetAll backs unscoped (global) search for trusted internal callers.
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Document, error)

	ListBySpace(ctx context.Context, tx *gorm.DB, spaceID uuid.UUID, limit int) ([]*types.Document, error)
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *documentRepo) Create(ctx context.Context, tx *gorm.DB, doc *types.Document) (*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(doc).Error; err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *documentRepo) GetByThreadID(ctx context.Context, tx *gorm.DB, threadID uuid.UUID) ([]*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Document
	if err := transaction.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *documentRepo) GetSpaceLevel(ctx context.Context, tx *gorm.DB, spaceID uuid.UUID) ([]*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Document
	if err := transaction.WithContext(ctx).
		Where("space_id = ? AND thread_id IS NULL", spaceID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *documentRepo) GetUserOutsideSpace(ctx context.Context, tx *gorm.DB, userID, spaceID uuid.UUID) ([]*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Document
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND space_id <> ?", userID, spaceID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *documentRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Document
	if err := transaction.WithContext(ctx).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *documentRepo) ListBySpace(ctx context.Context, tx *gorm.DB, spaceID uuid.UUID, limit int) ([]*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).
		Where("space_id = ?", spaceID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var results []*types.Document
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
