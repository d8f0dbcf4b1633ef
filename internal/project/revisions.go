package project

import (
	"context"
	"time"

	"ai-doc-authoring/internal/domain"
)

// setContent is the only way section content changes. It records current.Content
// as Old and newContent as New, and commits only if the section is still at the
// revision current was read at; otherwise the repository reports a Conflict.
// Callers hold the section lock.
func (s *DefaultService) setContent(
	ctx context.Context,
	userID uint64,
	current *domain.Section,
	newContent string,
	action domain.Action,
	prompt string,
) error {
	entry := &domain.HistoryEntry{
		SectionID: current.ID,
		Action:    action,
		Prompt:    prompt,
		Old:       current.Content,
		New:       newContent,
		UserID:    userID,
		Timestamp: s.nextTimestamp(current),
	}
	if err := s.repository.AppendRevision(ctx, entry, current.Revision); err != nil {
		return err
	}

	s.logger.Info().
		Uint64("user_id", userID).
		Uint64("section_id", current.ID).
		Str("action", string(action)).
		Int("revision", entry.Seq).
		Msg("section content changed")
	return nil
}

// nextTimestamp never goes behind the section's last revision, whatever the wall clock does.
func (s *DefaultService) nextTimestamp(section *domain.Section) time.Time {
	now := s.now().UTC().Truncate(time.Microsecond)
	if section.RevisedAt != nil && now.Before(*section.RevisedAt) {
		return section.RevisedAt.UTC()
	}
	return now
}
