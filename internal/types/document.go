package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DocumentSourceUpload    = "upload"
	DocumentSourceGenerated = "generated"
)

// Document is one retrievable unit of course content. ThreadID is set only
// for conversation-specific material (e.g. a generated summary); space-level
// uploads leave it null.
type Document struct {
	ID       uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	SpaceID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"space_id"`
	ThreadID *uuid.UUID `gorm:"type:uuid;index" json:"thread_id,omitempty"`

	Name string `gorm:"column:name;not null" json:"name"`
	Text string `gorm:"column:text;type:text;not null" json:"text"`

	// Embedding is the serialized []float32 vector for this document.
	Embedding datatypes.JSON `gorm:"type:jsonb;column:embedding;not null;default:'[]'" json:"-"`

	Source string `gorm:"column:source;not null;default:'upload';index" json:"source"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Document) TableName() string { return "document" }
