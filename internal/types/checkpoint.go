package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Checkpoint is one immutable snapshot of a thread's full message history.
// Rows are append-only: never updated, never deleted. The unique
// (thread_id, seq) index is what makes Append a compare-and-swap — two
// concurrent turns racing for the same base sequence both try to insert
// seq = base+1 and only one insert can win.
type Checkpoint struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ThreadID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_checkpoint_thread_seq,unique,priority:1" json:"thread_id"`

	Seq int64 `gorm:"column:seq;not null;index:idx_checkpoint_thread_seq,unique,priority:2" json:"seq"`

	// Messages is the serialized []agent.Message history at this snapshot.
	Messages datatypes.JSON `gorm:"type:jsonb;column:messages;not null;default:'[]'" json:"messages"`

	// Metadata carries owner_user_id / space_id for indexing and isolation,
	// plus a schema version for safe evolution.
	Metadata datatypes.JSON `gorm:"type:jsonb;column:metadata;not null;default:'{}'" json:"metadata"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (Checkpoint) TableName() string { return "checkpoint" }
