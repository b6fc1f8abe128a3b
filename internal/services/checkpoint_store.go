package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/aivy-app/aivy-backend/internal/agent"
	apperrors "github.com/aivy-app/aivy-backend/internal/pkg/errors"
	"github.com/aivy-app/aivy-backend/internal/platform/logger"
	"github.com/aivy-app/aivy-backend/internal/repos"
	"github.com/aivy-app/aivy-backend/internal/types"
)

// checkpointStore implements agent.CheckpointStore over the checkpoint repo.
//
// The compare-and-swap has two layers: a read-validate against the latest
// sequence (catches almost every conflict cheaply), and the unique
// (thread_id, seq) index for the race window between the read and the
// insert. Either path surfaces as ErrStaleCheckpoint.
type checkpointStore struct {
	db          *gorm.DB
	log         *logger.Logger
	checkpoints repos.CheckpointRepo
}

func NewCheckpointStore(db *gorm.DB, baseLog *logger.Logger, checkpointRepo repos.CheckpointRepo) agent.CheckpointStore {
	return &checkpointStore{
		db:          db,
		log:         baseLog.With("service", "CheckpointStore"),
		checkpoints: checkpointRepo,
	}
}

func (s *checkpointStore) Append(ctx context.Context, threadID uuid.UUID, baseSeq int64, delta []agent.Message, meta agent.CheckpointMetadata) (int64, error) {
	if threadID == uuid.Nil {
		return 0, fmt.Errorf("missing thread id: %w", apperrors.ErrInvalidArgument)
	}
	if len(delta) == 0 {
		return 0, fmt.Errorf("empty message delta: %w", apperrors.ErrInvalidArgument)
	}
	if baseSeq < 0 {
		return 0, fmt.Errorf("negative base sequence %d: %w", baseSeq, apperrors.ErrInvalidArgument)
	}

	latest, err := s.checkpoints.LatestByThreadID(ctx, nil, threadID)
	if err != nil {
		return 0, fmt.Errorf("read latest checkpoint: %w", err)
	}
	var (
		latestSeq int64
		prev      []agent.Message
	)
	if latest != nil {
		latestSeq = latest.Seq
		prev, err = decodeMessages(latest.Messages)
		if err != nil {
			return 0, fmt.Errorf("decode checkpoint %d: %w", latest.Seq, err)
		}
	}
	if latestSeq != baseSeq {
		return 0, fmt.Errorf("base %d but latest is %d: %w", baseSeq, latestSeq, apperrors.ErrStaleCheckpoint)
	}

	merged := make([]agent.Message, 0, len(prev)+len(delta))
	merged = append(merged, prev...)
	merged = append(merged, delta...)

	rawMessages, err := json.Marshal(merged)
	if err != nil {
		return 0, fmt.Errorf("encode messages: %w", err)
	}
	if meta.Version == 0 {
		meta.Version = 1
	}
	rawMeta, err := json.Marshal(meta)
	if err != nil {
		return 0, fmt.Errorf("encode metadata: %w", err)
	}

	cp := &types.Checkpoint{
		ThreadID: threadID,
		Seq:      baseSeq + 1,
		Messages: datatypes.JSON(rawMessages),
		Metadata: datatypes.JSON(rawMeta),
	}
	if _, err := s.checkpoints.Create(ctx, nil, cp); err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("concurrent append at base %d: %w", baseSeq, apperrors.ErrStaleCheckpoint)
		}
		return 0, fmt.Errorf("persist checkpoint: %w", err)
	}
	return cp.Seq, nil
}

func (s *checkpointStore) Latest(ctx context.Context, threadID uuid.UUID) (*agent.Snapshot, error) {
	if threadID == uuid.Nil {
		return nil, fmt.Errorf("missing thread id: %w", apperrors.ErrInvalidArgument)
	}
	cp, err := s.checkpoints.LatestByThreadID(ctx, nil, threadID)
	if err != nil {
		return nil, fmt.Errorf("read latest checkpoint: %w", err)
	}
	if cp == nil {
		return nil, nil
	}
	return snapshotFromRow(cp)
}

func (s *checkpointStore) List(ctx context.Context, threadID uuid.UUID, limit int, beforeSeq *int64) ([]*agent.Snapshot, error) {
	if threadID == uuid.Nil {
		return nil, fmt.Errorf("missing thread id: %w", apperrors.ErrInvalidArgument)
	}
	rows, err := s.checkpoints.ListByThreadID(ctx, nil, threadID, limit, beforeSeq)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	out := make([]*agent.Snapshot, 0, len(rows))
	for _, row := range rows {
		snap, err := snapshotFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

func snapshotFromRow(cp *types.Checkpoint) (*agent.Snapshot, error) {
	messages, err := decodeMessages(cp.Messages)
	if err != nil {
		return nil, fmt.Errorf("decode checkpoint %d: %w", cp.Seq, err)
	}
	var meta agent.CheckpointMetadata
	if len(cp.Metadata) > 0 {
		if err := json.Unmarshal(cp.Metadata, &meta); err != nil {
			return nil, fmt.Errorf("decode checkpoint %d metadata: %w", cp.Seq, err)
		}
	}
	return &agent.Snapshot{
		ThreadID:  cp.ThreadID,
		Seq:       cp.Seq,
		Messages:  messages,
		Metadata:  meta,
		CreatedAt: cp.CreatedAt,
	}, nil
}

func decodeMessages(raw datatypes.JSON) ([]agent.Message, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var messages []agent.Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
