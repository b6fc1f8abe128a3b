package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Thread is one tutoring conversation. Its message history lives in the
// checkpoint log, not here; Metadata is only mutated by explicit metadata
// updates, never by the turn loop.
type Thread struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	SpaceID uuid.UUID `gorm:"type:uuid;not null;index" json:"space_id"`
	Space   *Space    `gorm:"constraint:OnDelete:CASCADE;foreignKey:SpaceID;references:ID" json:"space,omitempty"`

	Title    string         `gorm:"column:title;not null;default:'New Chat'" json:"title"`
	Metadata datatypes.JSON `gorm:"type:jsonb;column:metadata;not null;default:'{}'" json:"metadata,omitempty"`

	LastMessageAt time.Time `gorm:"column:last_message_at;not null;default:now();index" json:"last_message_at"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Thread) TableName() string { return "thread" }
