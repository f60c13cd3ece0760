package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Tomlord1122/task-tracker/internal/domain"
	"github.com/Tomlord1122/task-tracker/internal/repository"
)

func ptr[T any](v T) *T { return &v }

func names(ts []domain.Task) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Name)
	}
	return out
}

func TestListScopesFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner := &domain.User{Username: "alice"}
	require.NoError(t, s.Users().Create(ctx, owner))

	day := func(d int) *time.Time { return ptr(time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)) }
	for _, task := range []*domain.Task{
		{Name: "b", Priority: 1, DueDate: day(3)},
		{Name: "a", Priority: 4, DueDate: day(5), IsComplete: true},
		{Name: "c", Priority: 2},
		{Name: "mine", UserID: &owner.ID},
	} {
		require.NoError(t, s.Tasks().Create(ctx, task))
	}

	tests := []struct {
		name   string
		filter repository.TaskFilter
		want   []string
	}{
		{"due date default puts missing dates last", repository.TaskFilter{}, []string{"b", "a", "c"}},
		{"name", repository.TaskFilter{Sort: domain.SortByName}, []string{"a", "b", "c"}},
		{"priority descending", repository.TaskFilter{Sort: domain.SortByPriority}, []string{"a", "c", "b"}},
		{"only incomplete", repository.TaskFilter{Sort: domain.SortByName, OnlyIncomplete: true}, []string{"b", "c"}},
		{"min priority", repository.TaskFilter{Sort: domain.SortByName, MinPriority: ptr(2)}, []string{"a", "c"}},
		{"owner scope", repository.TaskFilter{OwnerID: &owner.ID}, []string{"mine"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Tasks().List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestReturnedTasksAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	task := &domain.Task{Name: "original"}
	require.NoError(t, s.Tasks().Create(ctx, task))

	got, err := s.Tasks().FindByID(ctx, task.ID)
	require.NoError(t, err)
	got.Name = "changed"

	again, err := s.Tasks().FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", again.Name)
}

func TestDeleteUserCascadesTasks(t *testing.T) {
	ctx := context.Background()
	s := New()
	user := &domain.User{Username: "bob"}
	require.NoError(t, s.Users().Create(ctx, user))
	owned := &domain.Task{Name: "owned", UserID: &user.ID}
	public := &domain.Task{Name: "public"}
	require.NoError(t, s.Tasks().Create(ctx, owned))
	require.NoError(t, s.Tasks().Create(ctx, public))

	require.NoError(t, s.Users().Delete(ctx, user.ID))

	_, err := s.Tasks().FindByID(ctx, owned.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = s.Tasks().FindByID(ctx, public.ID)
	assert.NoError(t, err)
}

func TestCreateUserRejectsDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Users().Create(ctx, &domain.User{Username: "carol"}))
	assert.ErrorIs(t, s.Users().Create(ctx, &domain.User{Username: "carol"}), gorm.ErrDuplicatedKey)
}
