// Package memory keeps users and tasks in process memory. It implements the
// repository interfaces for running without Postgres and for tests.
// Transactions are serialized but not rolled back on error.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/Tomlord1122/task-tracker/internal/domain"
	"github.com/Tomlord1122/task-tracker/internal/repository"
)

// Store holds both tables so that deleting a user can cascade to its tasks.
type Store struct {
	mu         sync.Mutex
	txMu       sync.Mutex
	tasks      map[uint]domain.Task
	users      map[uint]domain.User
	nextTaskID uint
	nextUserID uint
}

func New() *Store {
	return &Store{
		tasks: make(map[uint]domain.Task),
		users: make(map[uint]domain.User),
	}
}

// Tasks returns a TaskRepository view of the store.
func (s *Store) Tasks() repository.TaskRepository {
	return taskRepo{s}
}

// Users returns a UserRepository view of the store.
func (s *Store) Users() repository.UserRepository {
	return userRepo{s}
}

type taskRepo struct{ s *Store }

func (r taskRepo) Create(_ context.Context, task *domain.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextTaskID++
	task.ID = r.s.nextTaskID
	if task.CreatedAt == nil {
		now := time.Now().UTC()
		task.CreatedAt = &now
	}
	r.s.tasks[task.ID] = *task
	return nil
}

func (r taskRepo) FindByID(_ context.Context, id uint) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	task, ok := r.s.tasks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &task, nil
}

func (r taskRepo) FindByIDForUpdate(ctx context.Context, id uint) (*domain.Task, error) {
	return r.FindByID(ctx, id)
}

func (r taskRepo) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	r.s.mu.Lock()
	tasks := make([]domain.Task, 0, len(r.s.tasks))
	for _, t := range r.s.tasks {
		if !sameOwner(t.UserID, filter.OwnerID) {
			continue
		}
		if filter.OnlyIncomplete && t.IsComplete {
			continue
		}
		if filter.MinPriority != nil && t.Priority < *filter.MinPriority {
			continue
		}
		tasks = append(tasks, t)
	}
	r.s.mu.Unlock()

	less := lessFunc(filter.Sort)
	sort.Slice(tasks, func(i, j int) bool {
		if less(tasks[i], tasks[j]) {
			return true
		}
		if less(tasks[j], tasks[i]) {
			return false
		}
		return tasks[i].ID < tasks[j].ID
	})
	return tasks, nil
}

func sameOwner(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// lessFunc mirrors the ORDER BY used by the Postgres repository, including
// NULLS LAST for ascending and NULLS FIRST for descending time columns.
func lessFunc(key domain.SortKey) func(a, b domain.Task) bool {
	switch key {
	case domain.SortByName:
		return func(a, b domain.Task) bool { return strings.Compare(a.Name, b.Name) < 0 }
	case domain.SortByPriority:
		return func(a, b domain.Task) bool { return a.Priority > b.Priority }
	case domain.SortByOldest:
		return func(a, b domain.Task) bool { return timeBefore(a.CreatedAt, b.CreatedAt) }
	case domain.SortByNewest:
		return func(a, b domain.Task) bool { return timeBefore(b.CreatedAt, a.CreatedAt) }
	default:
		return func(a, b domain.Task) bool { return timeBefore(a.DueDate, b.DueDate) }
	}
}

// timeBefore orders nil after every non-nil time.
func timeBefore(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.Before(*b)
	}
}

func (r taskRepo) Update(_ context.Context, task *domain.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tasks[task.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.s.tasks[task.ID] = *task
	return nil
}

func (r taskRepo) Delete(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.tasks, id)
	return nil
}

func (r taskRepo) Transaction(_ context.Context, fn func(repo repository.TaskRepository) error) error {
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()
	return fn(r)
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	r.s.nextUserID++
	user.ID = r.s.nextUserID
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepo) FindByID(_ context.Context, id uint) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

func (r userRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r userRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.FindByUsername(ctx, username)
	return err == nil, nil
}

func (r userRepo) Delete(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.users, id)
	for tid, t := range r.s.tasks {
		if t.UserID != nil && *t.UserID == id {
			delete(r.s.tasks, tid)
		}
	}
	return nil
}
