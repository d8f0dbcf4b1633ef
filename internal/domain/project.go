package domain

import (
	"time"
)

// DocType is the export format a project targets.
type DocType string

const (
	DocTypeDocx DocType = "docx"
	DocTypePptx DocType = "pptx"
)

func (d DocType) Valid() bool {
	return d == DocTypeDocx || d == DocTypePptx
}

// DefaultSectionTitles returns the outline seeded into a new project of the given type
func DefaultSectionTitles(docType DocType) []string {
	if docType == DocTypePptx {
		return []string{"Title Slide", "Problem Slide", "Key Insights", "Graph Slide", "Conclusion Slide"}
	}
	return []string{"Introduction", "Problem Statement", "Methodology", "Results", "Conclusion"}
}

type Project struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id" gorm:"index;not null"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	MainTopic string    `json:"main_topic" gorm:"type:text"`
	DocType   DocType   `json:"doc_type" gorm:"size:8;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// Sections is ordered by OrderIndex whenever it is populated.
	Sections []Section `json:"sections" gorm:"constraint:OnDelete:CASCADE"`
}

// Snapshot is the read-only, fully materialized input of the export renderer.
type Snapshot struct {
	Name      string            `json:"name"`
	MainTopic string            `json:"main_topic"`
	DocType   DocType           `json:"doc_type"`
	Sections  []SnapshotSection `json:"sections"`
}

type SnapshotSection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// NewSnapshot copies a project whose sections are already in order.
func NewSnapshot(p *Project) Snapshot {
	snap := Snapshot{
		Name:      p.Name,
		MainTopic: p.MainTopic,
		DocType:   p.DocType,
		Sections:  make([]SnapshotSection, 0, len(p.Sections)),
	}
	for _, s := range p.Sections {
		snap.Sections = append(snap.Sections, SnapshotSection{Title: s.Title, Content: s.Content})
	}
	return snap
}
