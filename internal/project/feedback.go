package project

import (
	"context"
	"strings"

	"ai-doc-authoring/internal/domain"
	"ai-doc-authoring/internal/errors"
)

// FeedbackRequest is the wire form of domain.Feedback: exactly one field is set.
type FeedbackRequest struct {
	Like    *bool   `json:"like"`
	Comment *string `json:"comment"`
}

func (r FeedbackRequest) ToFeedback() (domain.Feedback, error) {
	switch {
	case r.Like != nil && r.Comment != nil:
		return nil, errors.Validation("Send either like or comment, not both", nil)
	case r.Like != nil:
		return domain.Like{Positive: *r.Like}, nil
	case r.Comment != nil:
		return domain.CommentFeedback{Text: *r.Comment}, nil
	default:
		return nil, errors.Validation("Send either like or comment", nil)
	}
}

func (s *DefaultService) SubmitFeedback(ctx context.Context, userID, projectID, sectionID uint64, feedback domain.Feedback) (*domain.Section, error) {
	switch fb := feedback.(type) {
	case domain.Like:
	case domain.CommentFeedback:
		if err := validateField("comment", fb.Text, notBlank); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Validation("Feedback must be a like or a comment", nil)
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

	if _, err := s.repository.FindSection(ctx, projectID, sectionID, false); err != nil {
		return nil, err
	}

	switch fb := feedback.(type) {
	case domain.Like:
		if err := s.repository.AddReaction(ctx, sectionID, fb.Positive); err != nil {
			return nil, err
		}
		s.logger.Info().
			Uint64("user_id", userID).
			Uint64("section_id", sectionID).
			Bool("like", fb.Positive).
			Msg("section reaction")
	case domain.CommentFeedback:
		comment := &domain.Comment{
			SectionID: sectionID,
			UserID:    userID,
			Text:      strings.TrimSpace(fb.Text),
			CreatedAt: s.now().UTC(),
		}
		if err := s.repository.AddComment(ctx, comment); err != nil {
			return nil, err
		}
		s.logger.Info().
			Uint64("user_id", userID).
			Uint64("section_id", sectionID).
			Uint64("comment_id", comment.ID).
			Msg("section comment")
	}

	return s.repository.FindSection(ctx, projectID, sectionID, false)
}
