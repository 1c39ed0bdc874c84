package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/podushkina/taskflow/internal/store"
	"github.com/podushkina/taskflow/internal/task"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("task not found")

type TaskService interface {
	CreateTask(ctx context.Context, req task.Request) (task.Response, error)
	GetAllTasks(ctx context.Context) ([]task.Response, error)
	GetAllTasksPaginated(ctx context.Context, req task.PageRequest) (task.Page, error)
	GetTaskByID(ctx context.Context, id int64) (task.Response, error)
	GetTasksByStatus(ctx context.Context, status task.Status) ([]task.Response, error)
	GetTasksByPriority(ctx context.Context, priority task.Priority) ([]task.Response, error)
	SearchTasksByName(ctx context.Context, keyword string) ([]task.Response, error)
	UpdateTask(ctx context.Context, id int64, req task.Request) (task.Response, error)
	DeleteTask(ctx context.Context, id int64) error
	DeleteTasksByStatus(ctx context.Context, status task.Status) (int, error)
	TaskExistsByName(ctx context.Context, name string) (bool, error)
	GetTaskStats(ctx context.Context) (task.Stats, error)
}

type Option func(*Tasks)

// WithClock replaces time.Now as the source of createdAt/updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Tasks) { s.now = now }
}

// Tasks implements TaskService directly on top of a store.Repository.
type Tasks struct {
	repo   store.Repository
	logger *zap.Logger
	now    func() time.Time
}

var _ TaskService = (*Tasks)(nil)

func New(repo store.Repository, logger *zap.Logger, opts ...Option) *Tasks {
	s := &Tasks{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// timestamp truncates to microseconds so values survive a Postgres round trip unchanged.
func (s *Tasks) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *Tasks) CreateTask(ctx context.Context, req task.Request) (task.Response, error) {
	now := s.timestamp()
	t := &task.Task{
		Name:      req.Name,
		Priority:  req.Priority,
		Status:    task.StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	saved, err := s.repo.Save(ctx, t)
	if err != nil {
		return task.Response{}, fmt.Errorf("create task: %w", err)
	}

	s.logger.Info("task created", zap.Int64("id", saved.ID), zap.String("name", saved.Name))
	return task.ToResponse(saved), nil
}

func (s *Tasks) GetAllTasks(ctx context.Context) ([]task.Response, error) {
	tasks, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("loaded all tasks from store", zap.Int("count", len(tasks)))
	return task.ToResponses(tasks), nil
}

func (s *Tasks) GetAllTasksPaginated(ctx context.Context, req task.PageRequest) (task.Page, error) {
	tasks, total, err := s.repo.FindPage(ctx, req)
	if err != nil {
		return task.Page{}, err
	}
	s.logger.Debug("loaded task page",
		zap.Int("page", req.Page),
		zap.Int("size", req.Size),
		zap.Int("returned", len(tasks)),
		zap.Int("total", total),
	)
	return task.NewPage(task.ToResponses(tasks), req, total), nil
}

func (s *Tasks) GetTaskByID(ctx context.Context, id int64) (task.Response, error) {
	t, err := s.find(ctx, s.repo, id)
	if err != nil {
		return task.Response{}, err
	}
	return task.ToResponse(t), nil
}

func (s *Tasks) GetTasksByStatus(ctx context.Context, status task.Status) ([]task.Response, error) {
	tasks, err := s.repo.FindByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	return task.ToResponses(tasks), nil
}

func (s *Tasks) GetTasksByPriority(ctx context.Context, priority task.Priority) ([]task.Response, error) {
	tasks, err := s.repo.FindByPriority(ctx, priority)
	if err != nil {
		return nil, err
	}
	return task.ToResponses(tasks), nil
}

func (s *Tasks) SearchTasksByName(ctx context.Context, keyword string) ([]task.Response, error) {
	tasks, err := s.repo.FindByNameContainingIgnoreCase(ctx, keyword)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("searched tasks", zap.String("keyword", keyword), zap.Int("count", len(tasks)))
	return task.ToResponses(tasks), nil
}

func (s *Tasks) UpdateTask(ctx context.Context, id int64, req task.Request) (task.Response, error) {
	var out task.Response

	err := s.repo.RunInTx(ctx, func(ctx context.Context, repo store.Repository) error {
		t, err := s.find(ctx, repo, id)
		if err != nil {
			return err
		}

		t.Name = req.Name
		t.Priority = req.Priority
		t.UpdatedAt = s.timestamp()
		if t.UpdatedAt.Before(t.CreatedAt) {
			t.UpdatedAt = t.CreatedAt
		}

		saved, err := repo.Save(ctx, t)
		if err != nil {
			return fmt.Errorf("update task %d: %w", id, err)
		}
		out = task.ToResponse(saved)
		return nil
	})
	if err != nil {
		return task.Response{}, err
	}

	s.logger.Info("task updated", zap.Int64("id", id))
	return out, nil
}

func (s *Tasks) DeleteTask(ctx context.Context, id int64) error {
	err := s.repo.RunInTx(ctx, func(ctx context.Context, repo store.Repository) error {
		t, err := s.find(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, t); err != nil {
			return fmt.Errorf("delete task %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("task deleted", zap.Int64("id", id))
	return nil
}

func (s *Tasks) DeleteTasksByStatus(ctx context.Context, status task.Status) (int, error) {
	n, err := s.repo.DeleteByStatus(ctx, status)
	if err != nil {
		return 0, err
	}
	s.logger.Info("tasks deleted by status", zap.String("status", string(status)), zap.Int("count", n))
	return n, nil
}

func (s *Tasks) TaskExistsByName(ctx context.Context, name string) (bool, error) {
	return s.repo.ExistsByName(ctx, name)
}

func (s *Tasks) GetTaskStats(ctx context.Context) (task.Stats, error) {
	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return task.Stats{}, err
	}
	byPriority, err := s.repo.CountByPriority(ctx)
	if err != nil {
		return task.Stats{}, err
	}

	stats := task.Stats{
		ByStatus:   make(map[task.Status]int, len(task.Statuses())),
		ByPriority: make(map[task.Priority]int, len(task.Priorities())),
	}
	for _, st := range task.Statuses() {
		stats.ByStatus[st] = byStatus[st]
		stats.Total += byStatus[st]
	}
	for _, p := range task.Priorities() {
		stats.ByPriority[p] = byPriority[p]
	}
	return stats, nil
}

func (s *Tasks) find(ctx context.Context, repo store.Repository, id int64) (*task.Task, error) {
	t, err := repo.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Warn("task not found", zap.Int64("id", id))
		return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}
