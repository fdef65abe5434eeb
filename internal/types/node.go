package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	NodeTypeArticle = "article"
	NodeTypeVideo   = "video"
	NodeTypeBook    = "book"
	NodeTypeCourse  = "course"
	NodeTypeProject = "project"
	NodeTypeOther   = "other"

	NodeStatusNotStarted = "not_started"
	NodeStatusInProgress = "in_progress"
	NodeStatusCompleted  = "completed"
)

// Node is one item in a roadmap's hierarchy. ParentID is a weak self-reference;
// the graph is assembled from the flat list by the hierarchy package.
type Node struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RoadmapID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"roadmap_id"`
	Roadmap      *Roadmap   `gorm:"constraint:OnDelete:CASCADE;foreignKey:RoadmapID;references:ID" json:"roadmap,omitempty"`
	ParentID     *uuid.UUID `gorm:"type:uuid;index;column:parent_id" json:"parent_id,omitempty"`
	Title        string     `gorm:"column:title;not null" json:"title"`
	Type         string     `gorm:"column:type;not null;default:'other'" json:"type"`
	Topic        string     `gorm:"column:topic" json:"topic"`
	ResourceURL  string     `gorm:"column:resource_url" json:"resource_url"`
	TimeEstimate int        `gorm:"column:time_estimate;not null;default:0" json:"time_estimate"`
	Status       string     `gorm:"column:status;not null;default:'not_started'" json:"status"`
	Content      string     `gorm:"column:content" json:"content"`
	Order        int        `gorm:"column:order;not null;default:0" json:"order"`
	CompletedAt  *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
}

func (Node) TableName() string { return "node" }

func ValidNodeType(t string) bool {
	switch t {
	case NodeTypeArticle, NodeTypeVideo, NodeTypeBook, NodeTypeCourse, NodeTypeProject, NodeTypeOther:
		return true
	default:
		return false
	}
}

func ValidNodeStatus(s string) bool {
	switch s {
	case NodeStatusNotStarted, NodeStatusInProgress, NodeStatusCompleted:
		return true
	default:
		return false
	}
}
