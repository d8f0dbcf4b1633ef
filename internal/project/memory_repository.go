package project

import (
	"context"
	"sort"
	"sync"
	"time"

	"ai-doc-authoring/internal/domain"
	"ai-doc-authoring/internal/errors"
)

// MemoryRepository keeps the aggregate in process memory. It backs the
// STORAGE_DRIVER=memory mode and the service tests. Reads return deep copies.
type MemoryRepository struct {
	mu       sync.RWMutex
	nextID   uint64
	projects map[uint64]domain.Project
	sections map[uint64]*domain.Section
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		projects: make(map[uint64]domain.Project),
		sections: make(map[uint64]*domain.Section),
	}
}

func (r *MemoryRepository) id() uint64 {
	r.nextID++
	return r.nextID
}

func cloneSection(s *domain.Section, withHistory bool) domain.Section {
	out := *s
	out.Comments = append([]domain.Comment{}, s.Comments...)
	out.History = nil
	if withHistory {
		out.History = append([]domain.HistoryEntry{}, s.History...)
	}
	if s.RevisedAt != nil {
		t := *s.RevisedAt
		out.RevisedAt = &t
	}
	return out
}

// projectSections returns the live sections of a project ordered by index. Callers hold mu.
func (r *MemoryRepository) projectSections(projectID uint64) []*domain.Section {
	var out []*domain.Section
	for _, s := range r.sections {
		if s.ProjectID == projectID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out
}

func (r *MemoryRepository) CreateProject(ctx context.Context, project *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	project.ID = r.id()
	project.CreatedAt = now
	project.UpdatedAt = now

	for i := range project.Sections {
		s := &project.Sections[i]
		s.ID = r.id()
		s.ProjectID = project.ID
		s.OrderIndex = i
		s.CreatedAt = now
		s.UpdatedAt = now
		if s.Comments == nil {
			s.Comments = []domain.Comment{}
		}
		stored := cloneSection(s, true)
		r.sections[s.ID] = &stored
	}

	meta := *project
	meta.Sections = nil
	r.projects[project.ID] = meta
	return nil
}

func (r *MemoryRepository) FindProject(ctx context.Context, projectID, userID uint64) (*domain.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.projects[projectID]
	if !ok || p.UserID != userID {
		return nil, errors.NotFound("Project not found", nil)
	}
	return &p, nil
}

func (r *MemoryRepository) ListProjects(ctx context.Context, userID uint64) ([]domain.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Project
	for _, p := range r.projects {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepository) UpdateProject(ctx context.Context, project *domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[project.ID]
	if !ok {
		return errors.NotFound("Project not found", nil)
	}
	p.Name = project.Name
	p.MainTopic = project.MainTopic
	p.DocType = project.DocType
	p.UpdatedAt = time.Now().UTC()
	r.projects[p.ID] = p
	project.UpdatedAt = p.UpdatedAt
	return nil
}

func (r *MemoryRepository) DeleteProject(ctx context.Context, projectID uint64) ([]uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projects[projectID]; !ok {
		return nil, errors.NotFound("Project not found", nil)
	}
	var ids []uint64
	for _, s := range r.projectSections(projectID) {
		ids = append(ids, s.ID)
		delete(r.sections, s.ID)
	}
	delete(r.projects, projectID)
	return ids, nil
}

func (r *MemoryRepository) ListSections(ctx context.Context, projectID uint64, withHistory bool) ([]domain.Section, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	live := r.projectSections(projectID)
	out := make([]domain.Section, 0, len(live))
	for _, s := range live {
		out = append(out, cloneSection(s, withHistory))
	}
	return out, nil
}

func (r *MemoryRepository) FindSection(ctx context.Context, projectID, sectionID uint64, withHistory bool) (*domain.Section, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sections[sectionID]
	if !ok || s.ProjectID != projectID {
		return nil, errors.NotFound("Section not found", nil)
	}
	out := cloneSection(s, withHistory)
	return &out, nil
}

func (r *MemoryRepository) InsertSection(ctx context.Context, section *domain.Section) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[section.ProjectID]
	if !ok {
		return errors.NotFound("Project not found", nil)
	}

	now := time.Now().UTC()
	section.ID = r.id()
	section.OrderIndex = len(r.projectSections(section.ProjectID))
	section.CreatedAt = now
	section.UpdatedAt = now
	if section.Comments == nil {
		section.Comments = []domain.Comment{}
	}
	stored := cloneSection(section, true)
	r.sections[section.ID] = &stored

	p.UpdatedAt = now
	r.projects[p.ID] = p
	return nil
}

func (r *MemoryRepository) UpdateSectionTitle(ctx context.Context, projectID, sectionID uint64, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sections[sectionID]
	if !ok || s.ProjectID != projectID {
		return errors.NotFound("Section not found", nil)
	}
	s.Title = title
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepository) DeleteSection(ctx context.Context, projectID, sectionID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sections[sectionID]
	if !ok || s.ProjectID != projectID {
		return errors.NotFound("Section not found", nil)
	}
	delete(r.sections, sectionID)
	for _, other := range r.projectSections(projectID) {
		if other.OrderIndex > s.OrderIndex {
			other.OrderIndex--
		}
	}
	return nil
}

func (r *MemoryRepository) SwapSections(ctx context.Context, projectID, firstID, secondID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	first, ok1 := r.sections[firstID]
	second, ok2 := r.sections[secondID]
	if !ok1 || !ok2 || first.ProjectID != projectID || second.ProjectID != projectID {
		return errors.NotFound("Section not found", nil)
	}
	first.OrderIndex, second.OrderIndex = second.OrderIndex, first.OrderIndex
	return nil
}

func (r *MemoryRepository) AppendRevision(ctx context.Context, entry *domain.HistoryEntry, expectedRevision int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sections[entry.SectionID]
	if !ok {
		return errors.NotFound("Section not found", nil)
	}
	if s.Revision != expectedRevision {
		return errors.Conflict("Section was changed concurrently, please retry", nil)
	}

	entry.ID = r.id()
	entry.Seq = expectedRevision + 1
	s.History = append(s.History, *entry)
	s.Content = entry.New
	s.Revision = entry.Seq
	ts := entry.Timestamp
	s.RevisedAt = &ts
	s.UpdatedAt = ts
	return nil
}

func (r *MemoryRepository) AddReaction(ctx context.Context, sectionID uint64, positive bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sections[sectionID]
	if !ok {
		return errors.NotFound("Section not found", nil)
	}
	if positive {
		s.Likes++
	} else {
		s.Dislikes++
	}
	return nil
}

func (r *MemoryRepository) AddComment(ctx context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sections[comment.SectionID]
	if !ok {
		return errors.NotFound("Section not found", nil)
	}
	comment.ID = r.id()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	s.Comments = append(s.Comments, *comment)
	return nil
}
