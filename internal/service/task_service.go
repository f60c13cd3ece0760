package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Tomlord1122/task-tracker/internal/auth"
	"github.com/Tomlord1122/task-tracker/internal/domain"
	"github.com/Tomlord1122/task-tracker/internal/repository"
	"github.com/Tomlord1122/task-tracker/internal/tasklist"
)

// TaskRequest holds the editable fields of a task. A nil Description is
// stored as the empty string.
type TaskRequest struct {
	Name         string     `json:"name"`
	Description  *string    `json:"description"`
	Priority     int        `json:"priority"`
	IsComplete   bool       `json:"isComplete"`
	ParentTaskID *uint      `json:"parentTaskId"`
	DueDate      *time.Time `json:"dueDate"`
}

// ListOptions filters and orders a task listing.
type ListOptions struct {
	Sort           domain.SortKey
	OnlyIncomplete bool
	MinPriority    *int
}

// TaskResponse is the representation of a task returned to clients.
type TaskResponse struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Priority     int    `json:"priority"`
	IsComplete   bool   `json:"isComplete"`
	UserID       *uint  `json:"userId"`
	ParentTaskID *uint  `json:"parentTaskId"`
	CreatedAt    string `json:"createdAt,omitempty"`
	DueDate      string `json:"dueDate,omitempty"`
}

// ScopeResolver maps request credentials to an access scope.
type ScopeResolver interface {
	Resolve(ctx context.Context, creds auth.Credentials) (auth.Scope, error)
}

// TaskService defines the task operations. Every operation resolves the
// caller's scope first and only touches tasks inside it.
type TaskService interface {
	// ListTasks returns the caller's tasks in display order: parents
	// followed by their children.
	ListTasks(ctx context.Context, creds auth.Credentials, opts ListOptions) ([]TaskResponse, error)
	GetTask(ctx context.Context, creds auth.Credentials, id uint) (*TaskResponse, error)
	AddTask(ctx context.Context, creds auth.Credentials, req TaskRequest) (*TaskResponse, error)
	AddChildTask(ctx context.Context, creds auth.Credentials, parentID uint, req TaskRequest) (*TaskResponse, error)
	EditTask(ctx context.Context, creds auth.Credentials, id uint, req TaskRequest) (*TaskResponse, error)
	// TickTask flips the completion flag.
	TickTask(ctx context.Context, creds auth.Credentials, id uint) (*TaskResponse, error)
	DeleteTask(ctx context.Context, creds auth.Credentials, id uint) error
}

type taskService struct {
	repo     repository.TaskRepository
	resolver ScopeResolver
	now      func() time.Time
}

func NewTaskService(repo repository.TaskRepository, resolver ScopeResolver) TaskService {
	return &taskService{
		repo:     repo,
		resolver: resolver,
		now:      time.Now,
	}
}

var (
	errTaskNameRequired = domain.NewValidationError("task must have a name")
	errParentMissing    = domain.NewValidationError("parent task does not exist")
	errNestedTooDeep    = domain.NewValidationError("cannot nest a task under a child task")
)

func (s *taskService) ListTasks(ctx context.Context, creds auth.Credentials, opts ListOptions) ([]TaskResponse, error) {
	scope, err := s.resolver.Resolve(ctx, creds)
	if err != nil {
		return nil, err
	}

	tasks, err := s.repo.List(ctx, repository.TaskFilter{
		OwnerID:        scope.UserID,
		OnlyIncomplete: opts.OnlyIncomplete,
		MinPriority:    opts.MinPriority,
		Sort:           opts.Sort,
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	// Backfilled parents come from the same scope only.
	find := func(ctx context.Context, id uint) (*domain.Task, error) {
		task, err := s.repo.FindByID(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if !scope.Owns(task.UserID) {
			return nil, nil
		}
		return task, nil
	}

	ordered, err := tasklist.Materialize(ctx, tasks, find)
	if err != nil {
		return nil, err
	}

	responses := make([]TaskResponse, 0, len(ordered))
	for i := range ordered {
		responses = append(responses, toTaskResponse(&ordered[i]))
	}
	return responses, nil
}

func (s *taskService) GetTask(ctx context.Context, creds auth.Credentials, id uint) (*TaskResponse, error) {
	scope, err := s.resolver.Resolve(ctx, creds)
	if err != nil {
		return nil, err
	}
	task, err := ownedTask(ctx, s.repo.FindByID, scope, id)
	if err != nil {
		return nil, err
	}
	resp := toTaskResponse(task)
	return &resp, nil
}

func (s *taskService) AddTask(ctx context.Context, creds auth.Credentials, req TaskRequest) (*TaskResponse, error) {
	if req.ParentTaskID != nil {
		return s.AddChildTask(ctx, creds, *req.ParentTaskID, req)
	}

	scope, err := s.resolver.Resolve(ctx, creds)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, scope, nil, req)
}

func (s *taskService) AddChildTask(ctx context.Context, creds auth.Credentials, parentID uint, req TaskRequest) (*TaskResponse, error) {
	scope, err := s.resolver.Resolve(ctx, creds)
	if err != nil {
		return nil, err
	}

	parent, err := s.repo.FindByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errParentMissing
		}
		return nil, fmt.Errorf("find parent task %d: %w", parentID, err)
	}
	if !scope.Owns(parent.UserID) {
		return nil, domain.ErrUnauthorized
	}
	if parent.IsChild() {
		return nil, errNestedTooDeep
	}

	return s.create(ctx, scope, &parent.ID, req)
}

func (s *taskService) create(ctx context.Context, scope auth.Scope, parentID *uint, req TaskRequest) (*TaskResponse, error) {
	createdAt := s.now().UTC()
	task := &domain.Task{
		UserID:       scope.UserID,
		ParentTaskID: parentID,
		CreatedAt:    &createdAt,
	}
	if err := applyRequest(task, req); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	resp := toTaskResponse(task)
	return &resp, nil
}

func (s *taskService) EditTask(ctx context.Context, creds auth.Credentials, id uint, req TaskRequest) (*TaskResponse, error) {
	return s.mutate(ctx, creds, id, func(task *domain.Task) error {
		return applyRequest(task, req)
	})
}

func (s *taskService) TickTask(ctx context.Context, creds auth.Credentials, id uint) (*TaskResponse, error) {
	return s.mutate(ctx, creds, id, func(task *domain.Task) error {
		task.IsComplete = !task.IsComplete
		return nil
	})
}

// mutate applies change to a task inside a transaction holding its row lock,
// so concurrent edits of the same task serialize instead of overwriting.
func (s *taskService) mutate(ctx context.Context, creds auth.Credentials, id uint, change func(*domain.Task) error) (*TaskResponse, error) {
	scope, err := s.resolver.Resolve(ctx, creds)
	if err != nil {
		return nil, err
	}

	var updated *domain.Task
	err = s.repo.Transaction(ctx, func(tx repository.TaskRepository) error {
		task, err := ownedTask(ctx, tx.FindByIDForUpdate, scope, id)
		if err != nil {
			return err
		}
		if err := change(task); err != nil {
			return err
		}
		if err := tx.Update(ctx, task); err != nil {
			return fmt.Errorf("update task %d: %w", id, err)
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toTaskResponse(updated)
	return &resp, nil
}

func (s *taskService) DeleteTask(ctx context.Context, creds auth.Credentials, id uint) error {
	scope, err := s.resolver.Resolve(ctx, creds)
	if err != nil {
		return err
	}

	return s.repo.Transaction(ctx, func(tx repository.TaskRepository) error {
		if _, err := ownedTask(ctx, tx.FindByIDForUpdate, scope, id); err != nil {
			return err
		}
		if err := tx.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete task %d: %w", id, err)
		}
		return nil
	})
}

// ownedTask loads a task and checks that it belongs to scope.
func ownedTask(ctx context.Context, find func(context.Context, uint) (*domain.Task, error), scope auth.Scope, id uint) (*domain.Task, error) {
	task, err := find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.NotFoundError{Entity: "task", ID: id}
		}
		return nil, fmt.Errorf("find task %d: %w", id, err)
	}
	if !scope.Owns(task.UserID) {
		return nil, domain.ErrUnauthorized
	}
	return task, nil
}

// applyRequest validates req and copies its fields onto task.
func applyRequest(task *domain.Task, req TaskRequest) error {
	if req.Name == "" {
		return errTaskNameRequired
	}

	task.Name = req.Name
	task.Description = ""
	if req.Description != nil {
		task.Description = *req.Description
	}
	task.Priority = req.Priority
	task.IsComplete = req.IsComplete
	task.DueDate = nil
	if req.DueDate != nil {
		due := req.DueDate.UTC()
		task.DueDate = &due
	}
	return nil
}

func toTaskResponse(task *domain.Task) TaskResponse {
	resp := TaskResponse{
		ID:           task.ID,
		Name:         task.Name,
		Description:  task.Description,
		Priority:     task.Priority,
		IsComplete:   task.IsComplete,
		UserID:       task.UserID,
		ParentTaskID: task.ParentTaskID,
	}
	if task.CreatedAt != nil {
		resp.CreatedAt = task.CreatedAt.UTC().Format(time.RFC3339)
	}
	if task.DueDate != nil {
		resp.DueDate = task.DueDate.UTC().Format(time.RFC3339)
	}
	return resp
}
