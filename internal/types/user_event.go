package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	UserEventRoadmapCreated = "roadmap.created"
	UserEventRoadmapDeleted = "roadmap.deleted"
	UserEventNodesImported  = "nodes.imported"
	UserEventNodesReordered = "nodes.reordered"
)

type UserEvent struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	RoadmapID *uuid.UUID     `gorm:"type:uuid;index" json:"roadmap_id,omitempty"`
	Type      string         `gorm:"column:type;not null;index" json:"type"`
	Data      datatypes.JSON `gorm:"column:data" json:"data"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
}

func (UserEvent) TableName() string { return "user_event" }
