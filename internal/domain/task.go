package domain

import "time"

// Task is a todo item. A nil UserID marks a public task; a nil ParentTaskID
// marks a top-level task. Only one level of nesting is allowed.
type Task struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Name         string     `gorm:"not null" json:"name"`
	Description  string     `gorm:"not null" json:"description"`
	Priority     int        `gorm:"not null;index" json:"priority"`
	IsComplete   bool       `gorm:"not null" json:"isComplete"`
	UserID       *uint      `gorm:"index" json:"userId"`
	ParentTaskID *uint      `gorm:"index" json:"parentTaskId"`
	CreatedAt    *time.Time `json:"createdAt"`
	DueDate      *time.Time `json:"dueDate"`
}

// IsChild reports whether the task is nested under another task.
func (t *Task) IsChild() bool {
	return t.ParentTaskID != nil
}

// SortKey selects the ordering of a task listing.
type SortKey string

const (
	SortByName     SortKey = "name"
	SortByPriority SortKey = "priority"
	SortByOldest   SortKey = "oldest"
	SortByNewest   SortKey = "newest"
	SortByDueDate  SortKey = "duedate"
)

// ParseSortKey maps a query value to a SortKey. Empty and unknown values
// fall back to SortByDueDate.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(s); k {
	case SortByName, SortByPriority, SortByOldest, SortByNewest, SortByDueDate:
		return k
	default:
		return SortByDueDate
	}
}
