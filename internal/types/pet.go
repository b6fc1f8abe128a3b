package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Pet is the study-companion pet. Happiness and energy decay on a schedule
// and are topped up by feed/play actions paid for with coins.
type Pet struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

	Name  string `gorm:"column:name;not null" json:"name"`
	Color string `gorm:"column:color;not null" json:"color"`

	HappinessLevel int `gorm:"column:happiness_level;not null;default:0" json:"happiness_level"`
	EnergyLevel    int `gorm:"column:energy_level;not null;default:50" json:"energy_level"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Pet) TableName() string { return "pet" }
