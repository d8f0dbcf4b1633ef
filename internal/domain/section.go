package domain

import (
	"time"
)

// Action names the kind of content change a HistoryEntry records.
type Action string

const (
	ActionGenerate Action = "generate"
	ActionRefine   Action = "refine"
	ActionEdit     Action = "edit"
)

// Direction is a relative move within a project's ordering.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}

type Section struct {
	ID         uint64 `json:"id"`
	ProjectID  uint64 `json:"project_id" gorm:"not null;uniqueIndex:idx_sections_project_order,priority:1"`
	OrderIndex int    `json:"order_index" gorm:"not null;uniqueIndex:idx_sections_project_order,priority:2"`
	Title      string `json:"title" gorm:"size:255;not null"`
	// Content only changes together with a new HistoryEntry.
	Content  string `json:"content" gorm:"type:text;not null;default:''"`
	Likes    uint   `json:"likes" gorm:"not null;default:0"`
	Dislikes uint   `json:"dislikes" gorm:"not null;default:0"`
	// Revision equals the number of history entries.
	Revision  int            `json:"revision" gorm:"not null;default:0"`
	RevisedAt *time.Time     `json:"revised_at,omitempty"`
	Comments  []Comment      `json:"comments" gorm:"constraint:OnDelete:CASCADE"`
	History   []HistoryEntry `json:"history,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// HistoryEntry is one immutable record of the revision log.
type HistoryEntry struct {
	ID        uint64    `json:"id"`
	SectionID uint64    `json:"section_id" gorm:"not null;uniqueIndex:idx_history_section_seq,priority:1"`
	Seq       int       `json:"seq" gorm:"not null;uniqueIndex:idx_history_section_seq,priority:2"`
	Action    Action    `json:"action" gorm:"size:16;not null"`
	Prompt    string    `json:"prompt" gorm:"type:text"`
	Old       string    `json:"old" gorm:"type:text"`
	New       string    `json:"new" gorm:"type:text"`
	UserID    uint64    `json:"user_id"`
	Timestamp time.Time `json:"timestamp" gorm:"not null"`
}

type Comment struct {
	ID        uint64    `json:"id"`
	SectionID uint64    `json:"section_id" gorm:"index;not null"`
	UserID    uint64    `json:"user_id"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
}
