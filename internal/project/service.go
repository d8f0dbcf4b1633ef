package project

import (
	"context"
	defError "errors"
	"fmt"
	"strings"
	"time"

	"ai-doc-authoring/internal/domain"
	"ai-doc-authoring/internal/errors"
	"ai-doc-authoring/internal/export"
	"ai-doc-authoring/internal/llm"
	"ai-doc-authoring/internal/lock"
	"ai-doc-authoring/internal/worker"
	"ai-doc-authoring/redis"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rs/zerolog"
)

// Service is the project aggregate root. Every method takes the caller's user id
// and fails with NotFound when the caller does not own the project.
type Service interface {
	CreateProject(ctx context.Context, userID uint64, req CreateProjectRequest) (*domain.Project, error)
	UpdateProject(ctx context.Context, userID, projectID uint64, req UpdateProjectRequest) (*domain.Project, error)
	DeleteProject(ctx context.Context, userID, projectID uint64) error
	GetProject(ctx context.Context, userID, projectID uint64) (*domain.Project, error)
	ListProjects(ctx context.Context, userID uint64) ([]domain.Project, error)
	History(ctx context.Context, userID, projectID uint64) ([]SectionHistory, error)
	Export(ctx context.Context, userID, projectID uint64, format domain.DocType) (*export.Result, error)

	AddSection(ctx context.Context, userID, projectID uint64, req AddSectionRequest) (*domain.Project, error)
	EditSection(ctx context.Context, userID, projectID, sectionID uint64, req EditSectionRequest) (*domain.Section, error)
	DeleteSection(ctx context.Context, userID, projectID, sectionID uint64) (*domain.Project, error)
	MoveSection(ctx context.Context, userID, projectID, sectionID uint64, direction domain.Direction) (*domain.Project, error)
	SubmitFeedback(ctx context.Context, userID, projectID, sectionID uint64, feedback domain.Feedback) (*domain.Section, error)

	GenerateSection(ctx context.Context, userID, projectID, sectionID uint64) (*domain.Section, error)
	RefineSection(ctx context.Context, userID, projectID, sectionID uint64, req RefineRequest) (*domain.Section, error)
	GenerateAll(ctx context.Context, userID, projectID uint64) (*GenerateAllResult, error)
}

// Renderer is the export collaborator.
type Renderer interface {
	Render(ctx context.Context, snap domain.Snapshot, format domain.DocType) (*export.Result, error)
}

// Options carries the optional collaborators of DefaultService. Zero values
// get defaults in NewService.
type Options struct {
	Presets           *llm.Presets
	Pool              *worker.WorkerPool
	Locks             *lock.Manager
	GenerationTimeout time.Duration
	Logger            zerolog.Logger
	Clock             func() time.Time
}

// DefaultService implements Service. Locks from lock.Manager order every
// mutation of a project; the generator is always called without them.
type DefaultService struct {
	repository        Repository
	generator         llm.Generator
	renderer          Renderer
	cache             *redis.Cache
	presets           *llm.Presets
	pool              *worker.WorkerPool
	locks             *lock.Manager
	generationTimeout time.Duration
	logger            zerolog.Logger
	now               func() time.Time
}

func NewService(
	repository Repository,
	generator llm.Generator,
	renderer Renderer,
	cache *redis.Cache,
	opts Options,
) Service {
	s := &DefaultService{
		repository:        repository,
		generator:         generator,
		renderer:          renderer,
		cache:             cache,
		presets:           opts.Presets,
		pool:              opts.Pool,
		locks:             opts.Locks,
		generationTimeout: opts.GenerationTimeout,
		logger:            opts.Logger,
		now:               opts.Clock,
	}
	if s.presets == nil {
		s.presets = llm.DefaultPresets()
	}
	if s.pool == nil {
		s.pool = worker.NewWorkerPool(4)
	}
	if s.locks == nil {
		s.locks = lock.NewManager()
	}
	if s.generationTimeout <= 0 {
		s.generationTimeout = 60 * time.Second
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// CreateProjectRequest is the body of POST /projects.
type CreateProjectRequest struct {
	Name      string         `json:"name" binding:"required,max=255"`
	MainTopic string         `json:"main_topic" binding:"max=2000"`
	DocType   domain.DocType `json:"doc_type" binding:"required,oneof=docx pptx"`
	// Sections lists initial section titles; the doc type outline is used when empty.
	Sections []string `json:"sections" binding:"max=100"`
}

func (r CreateProjectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, notBlank, validation.RuneLength(1, 255)),
		validation.Field(&r.DocType, validation.Required, validation.In(domain.DocTypeDocx, domain.DocTypePptx)),
		validation.Field(&r.Sections, validation.Each(notBlank, validation.RuneLength(1, 255))),
	)
}

// UpdateProjectRequest changes only the fields that are set.
type UpdateProjectRequest struct {
	Name      *string         `json:"name" binding:"omitempty,max=255"`
	MainTopic *string         `json:"main_topic" binding:"omitempty,max=2000"`
	DocType   *domain.DocType `json:"doc_type" binding:"omitempty,oneof=docx pptx"`
}

func (r UpdateProjectRequest) Validate() error {
	if r.Name == nil && r.MainTopic == nil && r.DocType == nil {
		return errors.Validation("Nothing to update", nil)
	}
	if r.Name != nil {
		if err := validateField("name", *r.Name, notBlank, validation.RuneLength(1, 255)); err != nil {
			return err
		}
	}
	if r.DocType != nil && !r.DocType.Valid() {
		return errors.Validation("doc_type: must be docx or pptx", nil)
	}
	return nil
}

// SectionHistory is one section's revision log in chronological order.
type SectionHistory struct {
	SectionID  uint64                `json:"section_id"`
	Title      string                `json:"title"`
	OrderIndex int                   `json:"order_index"`
	Entries    []domain.HistoryEntry `json:"entries"`
}

var notBlank = validation.By(func(value interface{}) error {
	str, _ := value.(string)
	if strings.TrimSpace(str) == "" {
		return validation.NewError("validation_not_blank", "cannot be blank")
	}
	return nil
})

func validateField(name, value string, rules ...validation.Rule) error {
	if err := validation.Validate(value, rules...); err != nil {
		return errors.Validation(fmt.Sprintf("%s: %s", name, err.Error()), err)
	}
	return nil
}

// asValidation wraps ozzo errors; APIErrors pass through.
func asValidation(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *errors.APIError
	if defError.As(err, &apiErr) {
		return err
	}
	return errors.Validation(err.Error(), err)
}

func projectsVersionKey(userID uint64) string {
	return fmt.Sprintf("user:%d:projects:version", userID)
}

// invalidateList makes every cached project list of the user stale
func (s *DefaultService) invalidateList(ctx context.Context, userID uint64) {
	s.cache.IncrementVersion(ctx, projectsVersionKey(userID))
}

// withSections loads the ordered sections into project.
func (s *DefaultService) withSections(ctx context.Context, project *domain.Project) (*domain.Project, error) {
	sections, err := s.repository.ListSections(ctx, project.ID, false)
	if err != nil {
		return nil, err
	}
	if sections == nil {
		sections = []domain.Section{}
	}
	project.Sections = sections
	return project, nil
}

func (s *DefaultService) CreateProject(ctx context.Context, userID uint64, req CreateProjectRequest) (*domain.Project, error) {
	if err := req.Validate(); err != nil {
		return nil, asValidation(err)
	}

	titles := req.Sections
	if len(titles) == 0 {
		titles = domain.DefaultSectionTitles(req.DocType)
	}

	project := &domain.Project{
		UserID:    userID,
		Name:      strings.TrimSpace(req.Name),
		MainTopic: strings.TrimSpace(req.MainTopic),
		DocType:   req.DocType,
	}
	for _, title := range titles {
		project.Sections = append(project.Sections, domain.Section{Title: strings.TrimSpace(title)})
	}

	if err := s.repository.CreateProject(ctx, project); err != nil {
		return nil, err
	}
	s.invalidateList(ctx, userID)

	s.logger.Info().
		Uint64("user_id", userID).
		Uint64("project_id", project.ID).
		Int("sections", len(project.Sections)).
		Msg("project created")

	return s.withSections(ctx, project)
}

func (s *DefaultService) UpdateProject(ctx context.Context, userID, projectID uint64, req UpdateProjectRequest) (*domain.Project, error) {
	if err := req.Validate(); err != nil {
		return nil, asValidation(err)
	}

	defer s.locks.Structure(projectID)()

	project, err := s.repository.FindProject(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		project.Name = strings.TrimSpace(*req.Name)
	}
	if req.MainTopic != nil {
		project.MainTopic = strings.TrimSpace(*req.MainTopic)
	}
	if req.DocType != nil {
		project.DocType = *req.DocType
	}

	if err := s.repository.UpdateProject(ctx, project); err != nil {
		return nil, err
	}
	s.invalidateList(ctx, userID)

	s.logger.Info().Uint64("user_id", userID).Uint64("project_id", projectID).Msg("project updated")
	return s.withSections(ctx, project)
}

func (s *DefaultService) DeleteProject(ctx context.Context, userID, projectID uint64) error {
	defer s.locks.Structure(projectID)()

	if _, err := s.repository.FindProject(ctx, projectID, userID); err != nil {
		return err
	}

	sectionIDs, err := s.repository.DeleteProject(ctx, projectID)
	if err != nil {
		return err
	}
	s.locks.ForgetSections(sectionIDs...)
	s.locks.ForgetProject(projectID)
	s.invalidateList(ctx, userID)

	s.logger.Info().
		Uint64("user_id", userID).
		Uint64("project_id", projectID).
		Int("sections", len(sectionIDs)).
		Msg("project deleted")
	return nil
}

// GetProject returns the project with its sections in order.
func (s *DefaultService) GetProject(ctx context.Context, userID, projectID uint64) (*domain.Project, error) {
	pl := s.locks.Project(projectID)
	pl.RLock()
	defer pl.RUnlock()

	project, err := s.repository.FindProject(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	return s.withSections(ctx, project)
}

// ListProjects returns the caller's projects without sections, through the
// versioned cache.
func (s *DefaultService) ListProjects(ctx context.Context, userID uint64) ([]domain.Project, error) {
	v := s.cache.GetVersion(ctx, projectsVersionKey(userID))
	cacheKey := fmt.Sprintf("projects:u:%d:v:%d", userID, v)

	var projects []domain.Project
	if found, _ := s.cache.Get(ctx, cacheKey, &projects); found {
		return projects, nil
	}

	projects, err := s.repository.ListProjects(ctx, userID)
	if err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []domain.Project{}
	}

	if err := s.cache.Set(ctx, cacheKey, projects, 24*time.Hour); err != nil {
		s.logger.Warn().Err(err).Uint64("user_id", userID).Msg("cannot cache project list")
	}
	return projects, nil
}

// History lists every section with its revision log, oldest entry first.
func (s *DefaultService) History(ctx context.Context, userID, projectID uint64) ([]SectionHistory, error) {
	pl := s.locks.Project(projectID)
	pl.RLock()
	defer pl.RUnlock()

	if _, err := s.repository.FindProject(ctx, projectID, userID); err != nil {
		return nil, err
	}
	sections, err := s.repository.ListSections(ctx, projectID, true)
	if err != nil {
		return nil, err
	}

	out := make([]SectionHistory, 0, len(sections))
	for _, sec := range sections {
		entries := sec.History
		if entries == nil {
			entries = []domain.HistoryEntry{}
		}
		out = append(out, SectionHistory{
			SectionID:  sec.ID,
			Title:      sec.Title,
			OrderIndex: sec.OrderIndex,
			Entries:    entries,
		})
	}
	return out, nil
}

// snapshot materializes the project under the read lock so export sees one consistent state.
func (s *DefaultService) snapshot(ctx context.Context, userID, projectID uint64) (domain.Snapshot, error) {
	project, err := s.GetProject(ctx, userID, projectID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return domain.NewSnapshot(project), nil
}

func (s *DefaultService) Export(ctx context.Context, userID, projectID uint64, format domain.DocType) (*export.Result, error) {
	snap, err := s.snapshot(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = snap.DocType
	}
	if !format.Valid() {
		return nil, errors.Validation("format: must be docx or pptx", nil)
	}

	result, err := s.renderer.Render(ctx, snap, format)
	if err != nil {
		return nil, errors.ExternalService("Export failed", err)
	}

	s.logger.Info().
		Uint64("user_id", userID).
		Uint64("project_id", projectID).
		Str("format", string(format)).
		Int("bytes", len(result.Data)).
		Msg("project exported")
	return result, nil
}
