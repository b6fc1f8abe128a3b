package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Flashcard struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	SpaceID uuid.UUID `gorm:"type:uuid;not null;index" json:"space_id"`

	Topic    string `gorm:"column:topic;not null;index" json:"topic"`
	Question string `gorm:"column:question;type:text;not null" json:"question"`

	// Options is the serialized []string of exactly three answer choices.
	Options       datatypes.JSON `gorm:"type:jsonb;column:options;not null" json:"options"`
	CorrectOption int            `gorm:"column:correct_option;not null" json:"correct_option"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Flashcard) TableName() string { return "flashcard" }
