package user

import (
	"context"
	defError "errors"
	"strings"
	"sync"
	"time"

	"ai-doc-authoring/internal/domain"
	"ai-doc-authoring/internal/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uint64) (*domain.User, error)
}

// UserRepositoryImpl is the gorm-backed UserRepository.
type UserRepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new user repository
func NewRepository(db *gorm.DB) UserRepository {
	return &UserRepositoryImpl{db: db}
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFound("User not found", err)
	}
	var pgErr *pgconn.PgError
	if defError.As(err, &pgErr) && pgErr.Code == "23505" {
		return errors.Validation("User already registered", err)
	}
	return errors.Storage("Storage failure", err)
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *domain.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *UserRepositoryImpl) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByID(ctx context.Context, id uint64) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// MemoryRepository backs STORAGE_DRIVER=memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	nextID  uint64
	byID    map[uint64]domain.User
	byEmail map[string]uint64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[uint64]domain.User),
		byEmail: make(map[string]uint64),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, taken := r.byEmail[key]; taken {
		return errors.Validation("User already registered", nil)
	}
	r.nextID++
	now := time.Now().UTC()
	user.ID = r.nextID
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	stored.Password = ""
	r.byID[user.ID] = stored
	r.byEmail[key] = user.ID
	return nil
}

func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, errors.NotFound("User not found", nil)
	}
	u := r.byID[id]
	return &u, nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id uint64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, errors.NotFound("User not found", nil)
	}
	return &u, nil
}
