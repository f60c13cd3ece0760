package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tomlord1122/task-tracker/internal/domain"
)

// TaskFilter restricts and orders a task listing. A nil OwnerID selects
// public tasks only.
type TaskFilter struct {
	OwnerID        *uint
	OnlyIncomplete bool
	MinPriority    *int
	Sort           domain.SortKey
}

// TaskRepository defines the data operations on tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	FindByID(ctx context.Context, id uint) (*domain.Task, error)
	// FindByIDForUpdate is FindByID with a row lock held until the
	// surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uint) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id uint) error
	// Transaction runs fn against a repository bound to a single transaction.
	Transaction(ctx context.Context, fn func(repo TaskRepository) error) error
}

type gormTaskRepository struct {
	db *gorm.DB
}

// NewGormTaskRepository creates a TaskRepository backed by GORM.
func NewGormTaskRepository(db *gorm.DB) TaskRepository {
	return &gormTaskRepository{db: db}
}

func (r *gormTaskRepository) Create(ctx context.Context, task *domain.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// FindByID returns gorm.ErrRecordNotFound when no task has the given id.
func (r *gormTaskRepository) FindByID(ctx context.Context, id uint) (*domain.Task, error) {
	var task domain.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *gormTaskRepository) FindByIDForUpdate(ctx context.Context, id uint) (*domain.Task, error) {
	var task domain.Task
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&task, id).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *gormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]domain.Task, error) {
	q := r.db.WithContext(ctx).Model(&domain.Task{})
	if filter.OwnerID == nil {
		q = q.Where("user_id IS NULL")
	} else {
		q = q.Where("user_id = ?", *filter.OwnerID)
	}
	if filter.OnlyIncomplete {
		q = q.Where("is_complete = ?", false)
	}
	if filter.MinPriority != nil {
		q = q.Where("priority >= ?", *filter.MinPriority)
	}

	var tasks []domain.Task
	if err := q.Order(orderBy(filter.Sort)).Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func orderBy(key domain.SortKey) clause.OrderByColumn {
	switch key {
	case domain.SortByName:
		return clause.OrderByColumn{Column: clause.Column{Name: "name"}}
	case domain.SortByPriority:
		return clause.OrderByColumn{Column: clause.Column{Name: "priority"}, Desc: true}
	case domain.SortByOldest:
		return clause.OrderByColumn{Column: clause.Column{Name: "created_at"}}
	case domain.SortByNewest:
		return clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true}
	default:
		return clause.OrderByColumn{Column: clause.Column{Name: "due_date"}}
	}
}

// Update writes every column of task.
func (r *gormTaskRepository) Update(ctx context.Context, task *domain.Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}

// Delete removes the row permanently. Children keep their parent reference.
func (r *gormTaskRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Task{}, id).Error
}

func (r *gormTaskRepository) Transaction(ctx context.Context, fn func(repo TaskRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTaskRepository{db: tx})
	})
}
