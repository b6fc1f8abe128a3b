package agent

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CheckpointMetadata is carried on every checkpoint for indexing and
// isolation. Version allows the snapshot schema to evolve.
type CheckpointMetadata struct {
	Version     int       `json:"version"`
	OwnerUserID uuid.UUID `json:"owner_user_id"`
	SpaceID     uuid.UUID `json:"space_id"`
}

// Snapshot is one decoded checkpoint: the full message history of a thread
// at a sequence number.
type Snapshot struct {
	ThreadID  uuid.UUID
	Seq       int64
	Messages  []Message
	Metadata  CheckpointMetadata
	CreatedAt time.Time
}

// CheckpointStore is the durable, append-only log of thread snapshots.
//
// Append is an optimistic compare-and-swap: it fails with
// errors.ErrStaleCheckpoint when baseSeq is no longer the thread's latest
// sequence, so two concurrent turns can never silently clobber each other.
// On success the new checkpoint's messages equal the previous checkpoint's
// messages plus delta, at sequence baseSeq+1.
type CheckpointStore interface {
	Append(ctx context.Context, threadID uuid.UUID, baseSeq int64, delta []Message, meta CheckpointMetadata) (int64, error)

	// Latest returns the highest-sequence checkpoint, or (nil, nil) for a
	// brand-new thread (implicit empty history at sequence 0).
	Latest(ctx context.Context, threadID uuid.UUID) (*Snapshot, error)

	// List returns checkpoints descending by sequence for audit/history
	// views. A nil beforeSeq starts from the latest; otherwise only
	// checkpoints with seq < *beforeSeq are returned.
	List(ctx context.Context, threadID uuid.UUID, limit int, beforeSeq *int64) ([]*Snapshot, error)
}
