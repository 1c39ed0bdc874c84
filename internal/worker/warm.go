package worker

import (
	"context"

	"github.com/podushkina/taskflow/internal/service"
	"github.com/podushkina/taskflow/internal/task"
)

// RegisterWarmers adds one job per cached listing: all tasks, each status and
// each priority. Running them through a cached TaskService fills those entries.
func RegisterWarmers(p *Pool, svc service.TaskService) {
	p.Register("all", func(ctx context.Context) error {
		_, err := svc.GetAllTasks(ctx)
		return err
	})
	for _, s := range task.Statuses() {
		s := s
		p.Register("status-"+string(s), func(ctx context.Context) error {
			_, err := svc.GetTasksByStatus(ctx, s)
			return err
		})
	}
	for _, pr := range task.Priorities() {
		pr := pr
		p.Register("priority-"+string(pr), func(ctx context.Context) error {
			_, err := svc.GetTasksByPriority(ctx, pr)
			return err
		})
	}
}
