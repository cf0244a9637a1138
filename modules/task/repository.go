package task

import (
	"context"
	"errors"

	domain "github.com/example/task-api/domain/task"
	"gorm.io/gorm"
)

// DefaultPageSize is the number of tasks per page.
const DefaultPageSize = 15

// ErrTaskNotFound is returned when a task does not exist or is not visible to the caller.
var ErrTaskNotFound = errors.New("task cannot be found")

// Scope describes one owner-scoped list query.
type Scope struct {
	OwnerID string
	Filters FilterParams
	Sort    []SortField
	Page    int
	PerPage int
}

// normalize clamps paging values to usable defaults.
func (s Scope) normalize() Scope {
	if s.Page < 1 {
		s.Page = 1
	}
	if s.PerPage < 1 {
		s.PerPage = DefaultPageSize
	}
	return s
}

// Repository handles task persistence using GORM.
type Repository struct {
	db     *gorm.DB
	filter *QueryFilter
}

// NewRepository creates a new Repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:     db,
		filter: NewQueryFilter(),
	}
}

// Create inserts a new task.
func (r *Repository) Create(ctx context.Context, task *domain.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// FindOwned returns the task only when it belongs to ownerID.
// A missing row and a row owned by someone else both give ErrTaskNotFound.
func (r *Repository) FindOwned(ctx context.Context, id, ownerID string) (*domain.Task, error) {
	var task domain.Task
	result := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", ownerID, id).First(&task)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	return &task, nil
}

// Save writes every column of an existing task.
func (r *Repository) Save(ctx context.Context, task *domain.Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}

// Delete removes a task owned by ownerID.
func (r *Repository) Delete(ctx context.Context, id, ownerID string) error {
	result := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", ownerID, id).Delete(&domain.Task{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// List returns one page of the owner's tasks and the total number of matches.
// The ownership constraint is applied before any caller supplied filter.
func (r *Repository) List(ctx context.Context, scope Scope) ([]domain.Task, int64, error) {
	scope = scope.normalize()

	query := r.db.WithContext(ctx).Model(&domain.Task{}).Where("user_id = ?", scope.OwnerID)
	query = r.filter.Apply(query, scope.Filters).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	tasks := make([]domain.Task, 0, scope.PerPage)
	if total == 0 {
		return tasks, 0, nil
	}

	err := ApplySort(query, scope.Sort).
		Offset((scope.Page - 1) * scope.PerPage).
		Limit(scope.PerPage).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}
