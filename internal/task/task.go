package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

type Status string

const (
	StatusQueued     Status = "QUEUED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

func Statuses() []Status {
	return []Status{StatusQueued, StatusInProgress, StatusCompleted, StatusFailed}
}

func Priorities() []Priority {
	return []Priority{PriorityHigh, PriorityMedium, PriorityLow}
}

// ParseStatus accepts any letter case, e.g. "in_progress".
func ParseStatus(s string) (Status, error) {
	v := Status(strings.ToUpper(strings.TrimSpace(s)))
	for _, st := range Statuses() {
		if st == v {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid status %q: must be QUEUED, IN_PROGRESS, COMPLETED or FAILED", s)
}

func ParsePriority(s string) (Priority, error) {
	v := Priority(strings.ToUpper(strings.TrimSpace(s)))
	for _, p := range Priorities() {
		if p == v {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid priority %q: must be HIGH, MEDIUM or LOW", s)
}

// Task is the persisted row of the tasks table.
type Task struct {
	bun.BaseModel `bun:"table:tasks,alias:t"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Status    Status    `bun:"status,notnull" json:"status"`
	Priority  Priority  `bun:"priority,notnull" json:"priority"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

// Response is the client-facing projection of a Task. It is also what gets cached.
type Response struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	Priority  Priority  `json:"priority"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func ToResponse(t *Task) Response {
	return Response{
		ID:        t.ID,
		Name:      t.Name,
		Status:    t.Status,
		Priority:  t.Priority,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func ToResponses(tasks []Task) []Response {
	out := make([]Response, 0, len(tasks))
	for i := range tasks {
		out = append(out, ToResponse(&tasks[i]))
	}
	return out
}

// Stats holds row counts grouped by status and by priority.
type Stats struct {
	Total      int              `json:"total"`
	ByStatus   map[Status]int   `json:"byStatus"`
	ByPriority map[Priority]int `json:"byPriority"`
}
