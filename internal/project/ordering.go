package project

import (
	"context"

	"ai-doc-authoring/internal/domain"
	"ai-doc-authoring/internal/errors"
)

// MoveRequest is the body of the move endpoint.
type MoveRequest struct {
	Direction domain.Direction `json:"direction" binding:"required,oneof=up down"`
}

// neighbour returns the position a section at i swaps with, or false at the boundary.
func neighbour(i, n int, direction domain.Direction) (int, bool) {
	switch direction {
	case domain.DirectionUp:
		if i > 0 {
			return i - 1, true
		}
	case domain.DirectionDown:
		if i < n-1 {
			return i + 1, true
		}
	}
	return 0, false
}

// MoveSection swaps the section with its neighbour in the given direction.
// Moving the first section up or the last one down leaves the order as it is.
func (s *DefaultService) MoveSection(ctx context.Context, userID, projectID, sectionID uint64, direction domain.Direction) (*domain.Project, error) {
	if !direction.Valid() {
		return nil, errors.Validation("direction: must be up or down", nil)
	}

	defer s.locks.Structure(projectID)()

	project, err := s.repository.FindProject(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	sections, err := s.repository.ListSections(ctx, projectID, false)
	if err != nil {
		return nil, err
	}

	// sections are dense and sorted, so the slice position is the order index
	pos := -1
	for i := range sections {
		if sections[i].ID == sectionID {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, errors.NotFound("Section not found", nil)
	}

	target, ok := neighbour(pos, len(sections), direction)
	if !ok {
		project.Sections = sections
		return project, nil
	}

	if err := s.repository.SwapSections(ctx, projectID, sections[pos].ID, sections[target].ID); err != nil {
		return nil, err
	}
	s.invalidateList(ctx, userID)

	s.logger.Info().
		Uint64("user_id", userID).
		Uint64("project_id", projectID).
		Uint64("section_id", sectionID).
		Str("direction", string(direction)).
		Msg("section moved")
	return s.withSections(ctx, project)
}
