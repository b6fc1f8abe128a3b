package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	TopicLevelLearning = "Learning"
	TopicLevelBasic    = "Basic"
	TopicLevelAdvanced = "Advanced"
)

func ValidTopicLevel(level string) bool {
	switch level {
	case TopicLevelLearning, TopicLevelBasic, TopicLevelAdvanced:
		return true
	}
	return false
}

// Topic is a per-user mastery record. Name is unique per user and
// RelatedThreads only grows (set semantics).
type Topic struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_topic_user_name,unique,priority:1" json:"user_id"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

	Name  string `gorm:"column:name;not null;index:idx_topic_user_name,unique,priority:2" json:"name"`
	Level string `gorm:"column:level;not null;default:'Learning'" json:"level"`

	// RelatedThreads is the serialized []uuid.UUID set of threads where this
	// topic came up.
	RelatedThreads datatypes.JSON `gorm:"type:jsonb;column:related_threads;not null;default:'[]'" json:"related_threads"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Topic) TableName() string { return "topic" }
