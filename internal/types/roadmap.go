package types

import (
	"time"

	"github.com/google/uuid"
)

const DefaultDailyFocusTime = 60

type Roadmap struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User           *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Title          string    `gorm:"column:title;not null" json:"title"`
	Description    string    `gorm:"column:description" json:"description"`
	DailyFocusTime int       `gorm:"column:daily_focus_time;not null;default:60" json:"daily_focus_time"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (Roadmap) TableName() string { return "roadmap" }
