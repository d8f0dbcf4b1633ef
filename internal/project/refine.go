package project

import (
	"context"
	defError "errors"
	"strings"

	"ai-doc-authoring/internal/domain"
	"ai-doc-authoring/internal/errors"
	"ai-doc-authoring/internal/llm"
	"ai-doc-authoring/internal/worker"
)

// RefineRequest carries a free-text instruction or the name of a canned preset.
type RefineRequest struct {
	Instruction string `json:"instruction" binding:"max=4000"`
	Preset      string `json:"preset" binding:"max=64"`
}

// SectionOutcome reports how one section fared in a Generate All batch.
type SectionOutcome struct {
	SectionID uint64           `json:"section_id"`
	Title     string           `json:"title"`
	Status    string           `json:"status"`
	Error     *errors.APIError `json:"error,omitempty"`
	Section   *domain.Section  `json:"section,omitempty"`
}

const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// GenerateAllResult holds one outcome per section, in section order, and the
// project as it stands after the batch.
type GenerateAllResult struct {
	Project   *domain.Project  `json:"project"`
	Results   []SectionOutcome `json:"results"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
}

// resolveInstruction turns a RefineRequest into the instruction text sent to the generator.
func (s *DefaultService) resolveInstruction(req RefineRequest) (string, error) {
	instruction := strings.TrimSpace(req.Instruction)
	preset := strings.TrimSpace(req.Preset)

	switch {
	case instruction != "" && preset != "":
		return "", errors.Validation("Send either instruction or preset, not both", nil)
	case preset != "":
		p, ok := s.presets.Lookup(preset)
		if !ok {
			return "", errors.Validation("preset: unknown preset "+preset, nil)
		}
		return p.Instruction, nil
	case instruction == "":
		return "", errors.Validation("instruction: cannot be blank", nil)
	}
	return instruction, nil
}

// GenerateSection drafts the section from the project topic and its title.
func (s *DefaultService) GenerateSection(ctx context.Context, userID, projectID, sectionID uint64) (*domain.Section, error) {
	return s.runOne(ctx, userID, projectID, sectionID, domain.ActionGenerate, "")
}

// RefineSection rewrites the current content following the request.
func (s *DefaultService) RefineSection(ctx context.Context, userID, projectID, sectionID uint64, req RefineRequest) (*domain.Section, error) {
	instruction, err := s.resolveInstruction(req)
	if err != nil {
		return nil, err
	}
	return s.runOne(ctx, userID, projectID, sectionID, domain.ActionRefine, instruction)
}

// readHold returns a hold func that takes the project read lock for the read and
// for the commit, never while the generator is working.
func (s *DefaultService) readHold(projectID uint64) func() func() {
	pl := s.locks.Project(projectID)
	return func() func() {
		pl.RLock()
		return pl.RUnlock
	}
}

func (s *DefaultService) runOne(ctx context.Context, userID, projectID, sectionID uint64, action domain.Action, instruction string) (*domain.Section, error) {
	hold := s.readHold(projectID)

	release := hold()
	project, err := s.repository.FindProject(ctx, projectID, userID)
	release()
	if err != nil {
		return nil, err
	}
	return s.orchestrate(ctx, userID, project, sectionID, action, instruction, hold)
}

// orchestrate runs one generate/refine round: read the section, call the generator
// without any lock, then commit the result as a new revision. hold acquires the
// project-level lock for the read and for the commit.
// If the section changed in between, the commit fails with Conflict and nothing is written.
func (s *DefaultService) orchestrate(
	ctx context.Context,
	userID uint64,
	project *domain.Project,
	sectionID uint64,
	action domain.Action,
	instruction string,
	hold func() func(),
) (*domain.Section, error) {
	sl := s.locks.Section(sectionID)

	release := hold()
	sl.Lock()
	section, err := s.repository.FindSection(ctx, project.ID, sectionID, false)
	sl.Unlock()
	release()
	if err != nil {
		return nil, err
	}

	topic := project.MainTopic
	if strings.TrimSpace(topic) == "" {
		topic = project.Name
	}
	genCtx, cancel := context.WithTimeout(ctx, s.generationTimeout)
	text, err := s.generator.Generate(genCtx, llm.Request{
		Topic:        topic,
		SectionTitle: section.Title,
		Content:      section.Content,
		Instruction:  instruction,
	})
	cancel()
	if err != nil {
		s.logger.Warn().
			Err(err).
			Uint64("project_id", project.ID).
			Uint64("section_id", sectionID).
			Str("action", string(action)).
			Msg("generation failed")
		if defError.Is(err, context.DeadlineExceeded) {
			return nil, errors.ExternalService("Text generation timed out", err)
		}
		return nil, errors.ExternalService("Text generation failed", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.ExternalService("Request cancelled before the result was saved", err)
	}

	release = hold()
	defer release()
	sl.Lock()
	defer sl.Unlock()

	if err := s.setContent(ctx, userID, section, text, action, instruction); err != nil {
		return nil, err
	}
	return s.repository.FindSection(ctx, project.ID, sectionID, false)
}

// GenerateAll generates every section of the project in parallel on the worker pool.
// The batch guard keeps structural changes out until the batch is done, while reads
// and single-section operations go on as usual. A failed section does not undo
// the others; each one gets its own outcome.
func (s *DefaultService) GenerateAll(ctx context.Context, userID, projectID uint64) (*GenerateAllResult, error) {
	guard := s.locks.Batch(projectID)
	guard.RLock()
	defer guard.RUnlock()

	hold := s.readHold(projectID)
	release := hold()
	project, err := s.repository.FindProject(ctx, projectID, userID)
	var sections []domain.Section
	if err == nil {
		sections, err = s.repository.ListSections(ctx, projectID, false)
	}
	release()
	if err != nil {
		return nil, err
	}

	outcomes := make([]SectionOutcome, len(sections))
	tasks := make([]worker.Task, len(sections))
	for i, sec := range sections {
		outcomes[i] = SectionOutcome{SectionID: sec.ID, Title: sec.Title}
		tasks[i] = func(ctx context.Context) error {
			updated, err := s.orchestrate(ctx, userID, project, sec.ID, domain.ActionGenerate, "", hold)
			if err == nil {
				outcomes[i].Section = updated
			}
			return err
		}
	}

	result := &GenerateAllResult{Results: outcomes}
	for i, err := range s.pool.Run(ctx, tasks) {
		if err == nil {
			outcomes[i].Status = OutcomeOK
			result.Succeeded++
			continue
		}
		var apiErr *errors.APIError
		if !defError.As(err, &apiErr) {
			apiErr = errors.ExternalService("Section was not generated", err)
		}
		outcomes[i].Status = OutcomeFailed
		outcomes[i].Error = apiErr
		result.Failed++
	}

	s.logger.Info().
		Uint64("user_id", userID).
		Uint64("project_id", projectID).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("generate all finished")

	result.Project, err = s.withSections(ctx, project)
	if err != nil {
		return nil, err
	}
	return result, nil
}
