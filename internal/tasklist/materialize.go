// Package tasklist turns a flat, filtered and sorted task listing into
// display order: every parent is followed by its children.
//
// Children keep the relative order the listing gave them. A child whose
// parent was excluded from the listing still appears, preceded by a copy of
// the parent fetched on demand (a "backfilled" parent). Backfilled parents
// are shown for context only and need not satisfy the listing's filters.
package tasklist

import (
	"context"
	"fmt"

	"github.com/Tomlord1122/task-tracker/internal/domain"
)

// FindFunc fetches a task by id. It returns nil and no error when the task
// does not exist or must not be shown.
type FindFunc func(ctx context.Context, id uint) (*domain.Task, error)

// Materialize reorders tasks so that each parent precedes its children.
// The input slice is not modified.
func Materialize(ctx context.Context, tasks []domain.Task, find FindFunc) ([]domain.Task, error) {
	out := make([]domain.Task, 0, len(tasks))

	for _, t := range tasks {
		if !t.IsChild() {
			out = append(out, t)
		}
	}

	// Inserting right after the parent while walking backwards leaves the
	// children in forward order. A child with no parent in out goes to the
	// front, where the backfill below gives it one.
	for i := len(tasks) - 1; i >= 0; i-- {
		t := tasks[i]
		if !t.IsChild() {
			continue
		}
		out = insertAt(out, indexOf(out, *t.ParentTaskID)+1, t)
	}

	present := make(map[uint]bool, len(out))
	for _, t := range out {
		present[t.ID] = true
	}
	missing := make(map[uint]bool)
	for _, t := range tasks {
		if !t.IsChild() {
			continue
		}
		parentID := *t.ParentTaskID
		if present[parentID] || missing[parentID] {
			continue
		}
		parent, err := find(ctx, parentID)
		if err != nil {
			return nil, fmt.Errorf("backfill parent %d of task %d: %w", parentID, t.ID, err)
		}
		if parent == nil {
			missing[parentID] = true
			continue
		}
		out = insertAt(out, indexOf(out, t.ID), *parent)
		present[parent.ID] = true
	}

	return out, nil
}

// indexOf returns the position of the task with the given id, or -1.
func indexOf(tasks []domain.Task, id uint) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func insertAt(tasks []domain.Task, i int, t domain.Task) []domain.Task {
	tasks = append(tasks, domain.Task{})
	copy(tasks[i+1:], tasks[i:])
	tasks[i] = t
	return tasks
}
