package project

import (
	"context"
	"strings"

	"ai-doc-authoring/internal/domain"
	"ai-doc-authoring/internal/errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// AddSectionRequest appends a section at the end of the project.
type AddSectionRequest struct {
	Title string `json:"title" binding:"required,max=255"`
}

// EditSectionRequest changes the title, the content, or both.
type EditSectionRequest struct {
	Title   *string `json:"title" binding:"omitempty,max=255"`
	Content *string `json:"content"`
}

func (r EditSectionRequest) Validate() error {
	if r.Title == nil && r.Content == nil {
		return errors.Validation("Nothing to update", nil)
	}
	if r.Title != nil {
		return validateField("title", *r.Title, notBlank, validation.RuneLength(1, 255))
	}
	return nil
}

func (s *DefaultService) AddSection(ctx context.Context, userID, projectID uint64, req AddSectionRequest) (*domain.Project, error) {
	if err := validateField("title", req.Title, notBlank, validation.RuneLength(1, 255)); err != nil {
		return nil, err
	}

	defer s.locks.Structure(projectID)()

	project, err := s.repository.FindProject(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}

	section := &domain.Section{
		ProjectID: projectID,
		Title:     strings.TrimSpace(req.Title),
	}
	if err := s.repository.InsertSection(ctx, section); err != nil {
		return nil, err
	}
	s.invalidateList(ctx, userID)

	s.logger.Info().
		Uint64("user_id", userID).
		Uint64("project_id", projectID).
		Uint64("section_id", section.ID).
		Int("order_index", section.OrderIndex).
		Msg("section added")
	return s.withSections(ctx, project)
}

func (s *DefaultService) EditSection(ctx context.Context, userID, projectID, sectionID uint64, req EditSectionRequest) (*domain.Section, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	pl := s.locks.Project(projectID)
	pl.RLock()
	defer pl.RUnlock()

	if _, err := s.repository.FindProject(ctx, projectID, userID); err != nil {
		return nil, err
	}

	sl := s.locks.Section(sectionID)
	sl.Lock()
	defer sl.Unlock()

	section, err := s.repository.FindSection(ctx, projectID, sectionID, false)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title != section.Title {
			if err := s.repository.UpdateSectionTitle(ctx, projectID, sectionID, title); err != nil {
				return nil, err
			}
		}
	}
	// an unchanged body is not a revision
	if req.Content != nil && *req.Content != section.Content {
		if err := s.setContent(ctx, userID, section, *req.Content, domain.ActionEdit, ""); err != nil {
			return nil, err
		}
	}

	return s.repository.FindSection(ctx, projectID, sectionID, false)
}

func (s *DefaultService) DeleteSection(ctx context.Context, userID, projectID, sectionID uint64) (*domain.Project, error) {
	defer s.locks.Structure(projectID)()

	project, err := s.repository.FindProject(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repository.DeleteSection(ctx, projectID, sectionID); err != nil {
		return nil, err
	}
	s.locks.ForgetSections(sectionID)
	s.invalidateList(ctx, userID)

	s.logger.Info().
		Uint64("user_id", userID).
		Uint64("project_id", projectID).
		Uint64("section_id", sectionID).
		Msg("section deleted")
	return s.withSections(ctx, project)
}
