package project

import (
	"context"
	defError "errors"
	"time"

	"ai-doc-authoring/internal/domain"
	"ai-doc-authoring/internal/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists the project aggregate. Every method is atomic on its own;
// methods that touch ordering run in one transaction that locks the project row.
type Repository interface {
	CreateProject(ctx context.Context, project *domain.Project) error
	FindProject(ctx context.Context, projectID, userID uint64) (*domain.Project, error)
	ListProjects(ctx context.Context, userID uint64) ([]domain.Project, error)
	UpdateProject(ctx context.Context, project *domain.Project) error
	// DeleteProject removes the project with its sections, history and comments,
	// and returns the ids of the removed sections.
	DeleteProject(ctx context.Context, projectID uint64) ([]uint64, error)

	ListSections(ctx context.Context, projectID uint64, withHistory bool) ([]domain.Section, error)
	FindSection(ctx context.Context, projectID, sectionID uint64, withHistory bool) (*domain.Section, error)
	// InsertSection appends the section at order index = current section count.
	InsertSection(ctx context.Context, section *domain.Section) error
	UpdateSectionTitle(ctx context.Context, projectID, sectionID uint64, title string) error
	// DeleteSection removes the section and closes the gap it leaves in the ordering.
	DeleteSection(ctx context.Context, projectID, sectionID uint64) error
	SwapSections(ctx context.Context, projectID, firstID, secondID uint64) error
	// AppendRevision stores entry and sets the section content to entry.New, but only
	// while the section revision still equals expectedRevision.
	AppendRevision(ctx context.Context, entry *domain.HistoryEntry, expectedRevision int) error
	AddReaction(ctx context.Context, sectionID uint64, positive bool) error
	AddComment(ctx context.Context, comment *domain.Comment) error
}

type RepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db}
}

const pgUniqueViolation = "23505"

// translate maps driver errors onto the error taxonomy.
func translate(err error, notFoundMessage string) error {
	if err == nil {
		return nil
	}
	var apiErr *errors.APIError
	if defError.As(err, &apiErr) {
		return err
	}
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFound(notFoundMessage, err)
	}
	var pgErr *pgconn.PgError
	if defError.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return errors.Conflict("Concurrent modification, please retry", err)
	}
	return errors.Storage("Storage failure", err)
}

// lockProject takes a row lock on the project for the rest of the transaction.
func lockProject(tx *gorm.DB, projectID uint64) error {
	var p domain.Project
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&p, projectID).Error
}

func touchProject(tx *gorm.DB, projectID uint64) error {
	return tx.Model(&domain.Project{}).
		Where("id = ?", projectID).
		UpdateColumn("updated_at", time.Now().UTC()).Error
}

func (r *RepositoryImpl) CreateProject(ctx context.Context, project *domain.Project) error {
	for i := range project.Sections {
		project.Sections[i].OrderIndex = i
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(project).Error
	})
	return translate(err, "Project not found")
}

func (r *RepositoryImpl) FindProject(ctx context.Context, projectID, userID uint64) (*domain.Project, error) {
	var p domain.Project
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", projectID, userID).
		First(&p).Error
	if err != nil {
		return nil, translate(err, "Project not found")
	}
	return &p, nil
}

func (r *RepositoryImpl) ListProjects(ctx context.Context, userID uint64) ([]domain.Project, error) {
	var projects []domain.Project
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&projects).Error
	return projects, translate(err, "Project not found")
}

func (r *RepositoryImpl) UpdateProject(ctx context.Context, project *domain.Project) error {
	project.UpdatedAt = time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&domain.Project{}).
		Where("id = ?", project.ID).
		Updates(map[string]any{
			"name":       project.Name,
			"main_topic": project.MainTopic,
			"doc_type":   project.DocType,
			"updated_at": project.UpdatedAt,
		})
	if res.Error != nil {
		return translate(res.Error, "Project not found")
	}
	if res.RowsAffected == 0 {
		return errors.NotFound("Project not found", nil)
	}
	return nil
}

func (r *RepositoryImpl) DeleteProject(ctx context.Context, projectID uint64) ([]uint64, error) {
	var sectionIDs []uint64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockProject(tx, projectID); err != nil {
			return err
		}
		if err := tx.Model(&domain.Section{}).Where("project_id = ?", projectID).Pluck("id", &sectionIDs).Error; err != nil {
			return err
		}
		if len(sectionIDs) > 0 {
			if err := tx.Where("section_id IN ?", sectionIDs).Delete(&domain.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("section_id IN ?", sectionIDs).Delete(&domain.HistoryEntry{}).Error; err != nil {
				return err
			}
			if err := tx.Where("project_id = ?", projectID).Delete(&domain.Section{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&domain.Project{}, projectID).Error
	})
	if err != nil {
		return nil, translate(err, "Project not found")
	}
	return sectionIDs, nil
}

func (r *RepositoryImpl) sectionQuery(ctx context.Context, withHistory bool) *gorm.DB {
	q := r.db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		})
	if withHistory {
		q = q.Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("seq ASC")
		})
	}
	return q
}

func (r *RepositoryImpl) ListSections(ctx context.Context, projectID uint64, withHistory bool) ([]domain.Section, error) {
	var sections []domain.Section
	err := r.sectionQuery(ctx, withHistory).
		Where("project_id = ?", projectID).
		Order("order_index ASC").
		Find(&sections).Error
	for i := range sections {
		normalize(&sections[i])
	}
	return sections, translate(err, "Project not found")
}

// normalize makes empty threads serialize as [] rather than null.
func normalize(s *domain.Section) {
	if s.Comments == nil {
		s.Comments = []domain.Comment{}
	}
}

func (r *RepositoryImpl) FindSection(ctx context.Context, projectID, sectionID uint64, withHistory bool) (*domain.Section, error) {
	var s domain.Section
	err := r.sectionQuery(ctx, withHistory).
		Where("id = ? AND project_id = ?", sectionID, projectID).
		First(&s).Error
	if err != nil {
		return nil, translate(err, "Section not found")
	}
	normalize(&s)
	return &s, nil
}

func (r *RepositoryImpl) InsertSection(ctx context.Context, section *domain.Section) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockProject(tx, section.ProjectID); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&domain.Section{}).Where("project_id = ?", section.ProjectID).Count(&count).Error; err != nil {
			return err
		}
		section.OrderIndex = int(count)
		if err := tx.Create(section).Error; err != nil {
			return err
		}
		return touchProject(tx, section.ProjectID)
	})
	return translate(err, "Project not found")
}

func (r *RepositoryImpl) UpdateSectionTitle(ctx context.Context, projectID, sectionID uint64, title string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Section{}).
		Where("id = ? AND project_id = ?", sectionID, projectID).
		Updates(map[string]any{"title": title, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return translate(res.Error, "Section not found")
	}
	if res.RowsAffected == 0 {
		return errors.NotFound("Section not found", nil)
	}
	return nil
}

func (r *RepositoryImpl) DeleteSection(ctx context.Context, projectID, sectionID uint64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockProject(tx, projectID); err != nil {
			return err
		}
		var section domain.Section
		if err := tx.Where("id = ? AND project_id = ?", sectionID, projectID).First(&section).Error; err != nil {
			return errors.NotFound("Section not found", err)
		}
		if err := tx.Where("section_id = ?", sectionID).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("section_id = ?", sectionID).Delete(&domain.HistoryEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&domain.Section{}, sectionID).Error; err != nil {
			return err
		}

		// Two steps keep (project_id, order_index) unique while rows shift down by one.
		if err := tx.Model(&domain.Section{}).
			Where("project_id = ? AND order_index > ?", projectID, section.OrderIndex).
			UpdateColumn("order_index", gorm.Expr("-order_index")).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.Section{}).
			Where("project_id = ? AND order_index < 0", projectID).
			UpdateColumn("order_index", gorm.Expr("-order_index - 1")).Error; err != nil {
			return err
		}
		return touchProject(tx, projectID)
	})
	return translate(err, "Project not found")
}

func (r *RepositoryImpl) SwapSections(ctx context.Context, projectID, firstID, secondID uint64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockProject(tx, projectID); err != nil {
			return err
		}
		var pair []domain.Section
		if err := tx.Select("id", "order_index").
			Where("project_id = ? AND id IN ?", projectID, []uint64{firstID, secondID}).
			Find(&pair).Error; err != nil {
			return err
		}
		if len(pair) != 2 {
			return errors.NotFound("Section not found", nil)
		}
		first, second := pair[0], pair[1]

		// park the first row on a free index so the unique index never sees a duplicate
		steps := []struct {
			id    uint64
			order int
		}{
			{first.ID, -1},
			{second.ID, first.OrderIndex},
			{first.ID, second.OrderIndex},
		}
		for _, step := range steps {
			if err := tx.Model(&domain.Section{}).
				Where("id = ?", step.id).
				UpdateColumn("order_index", step.order).Error; err != nil {
				return err
			}
		}
		return touchProject(tx, projectID)
	})
	return translate(err, "Project not found")
}

func (r *RepositoryImpl) AppendRevision(ctx context.Context, entry *domain.HistoryEntry, expectedRevision int) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Section{}).
			Where("id = ? AND revision = ?", entry.SectionID, expectedRevision).
			Updates(map[string]any{
				"content":    entry.New,
				"revision":   expectedRevision + 1,
				"revised_at": entry.Timestamp,
				"updated_at": entry.Timestamp,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&domain.Section{}).Where("id = ?", entry.SectionID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return errors.NotFound("Section not found", nil)
			}
			return errors.Conflict("Section was changed concurrently, please retry", nil)
		}

		entry.Seq = expectedRevision + 1
		return tx.Create(entry).Error
	})
	return translate(err, "Section not found")
}

func (r *RepositoryImpl) AddReaction(ctx context.Context, sectionID uint64, positive bool) error {
	column := "dislikes"
	if positive {
		column = "likes"
	}
	res := r.db.WithContext(ctx).
		Model(&domain.Section{}).
		Where("id = ?", sectionID).
		UpdateColumn(column, gorm.Expr(column+" + 1"))
	if res.Error != nil {
		return translate(res.Error, "Section not found")
	}
	if res.RowsAffected == 0 {
		return errors.NotFound("Section not found", nil)
	}
	return nil
}

func (r *RepositoryImpl) AddComment(ctx context.Context, comment *domain.Comment) error {
	return translate(r.db.WithContext(ctx).Create(comment).Error, "Section not found")
}
