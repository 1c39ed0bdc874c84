package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/podushkina/taskflow/internal/cache"
	"github.com/podushkina/taskflow/internal/store"
	"github.com/podushkina/taskflow/internal/task"
)

// --- fakes ---

// fakeRepo is an in-memory store.Repository that counts calls per method.
type fakeRepo struct {
	mu     sync.Mutex
	rows   map[int64]task.Task
	nextID int64
	calls  map[string]int
	err    error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		rows:  make(map[int64]task.Task),
		calls: make(map[string]int),
	}
}

func (f *fakeRepo) record(method string) error {
	f.calls[method]++
	return f.err
}

func (f *fakeRepo) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeRepo) sorted(keep func(task.Task) bool) []task.Task {
	out := make([]task.Task, 0, len(f.rows))
	for _, t := range f.rows {
		if keep == nil || keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeRepo) RunInTx(ctx context.Context, fn func(ctx context.Context, repo store.Repository) error) error {
	return fn(ctx, f)
}

func (f *fakeRepo) Save(_ context.Context, t *task.Task) (*task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Save"); err != nil {
		return nil, err
	}
	if t.ID == 0 {
		f.nextID++
		t.ID = f.nextID
	} else if _, ok := f.rows[t.ID]; !ok {
		return nil, store.ErrNotFound
	}
	f.rows[t.ID] = *t
	cp := *t
	return &cp, nil
}

func (f *fakeRepo) FindByID(_ context.Context, id int64) (*task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("FindByID"); err != nil {
		return nil, err
	}
	t, ok := f.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &t, nil
}

func (f *fakeRepo) FindAll(_ context.Context) ([]task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("FindAll"); err != nil {
		return nil, err
	}
	return f.sorted(nil), nil
}

func (f *fakeRepo) FindPage(_ context.Context, req task.PageRequest) ([]task.Task, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("FindPage"); err != nil {
		return nil, 0, err
	}
	all := f.sorted(nil)
	start := min(req.Offset(), len(all))
	end := min(start+req.Size, len(all))
	return all[start:end], len(all), nil
}

func (f *fakeRepo) FindByStatus(_ context.Context, status task.Status) ([]task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("FindByStatus"); err != nil {
		return nil, err
	}
	return f.sorted(func(t task.Task) bool { return t.Status == status }), nil
}

func (f *fakeRepo) FindByPriority(_ context.Context, priority task.Priority) ([]task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("FindByPriority"); err != nil {
		return nil, err
	}
	return f.sorted(func(t task.Task) bool { return t.Priority == priority }), nil
}

func (f *fakeRepo) FindByNameContainingIgnoreCase(_ context.Context, keyword string) ([]task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("FindByNameContainingIgnoreCase"); err != nil {
		return nil, err
	}
	kw := strings.ToLower(keyword)
	return f.sorted(func(t task.Task) bool { return strings.Contains(strings.ToLower(t.Name), kw) }), nil
}

func (f *fakeRepo) Delete(_ context.Context, t *task.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Delete"); err != nil {
		return err
	}
	if _, ok := f.rows[t.ID]; !ok {
		return store.ErrNotFound
	}
	delete(f.rows, t.ID)
	return nil
}

func (f *fakeRepo) DeleteByStatus(_ context.Context, status task.Status) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteByStatus"); err != nil {
		return 0, err
	}
	n := 0
	for id, t := range f.rows {
		if t.Status == status {
			delete(f.rows, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) ExistsByName(_ context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ExistsByName"); err != nil {
		return false, err
	}
	for _, t := range f.rows {
		if t.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) CountByStatus(_ context.Context) (map[task.Status]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CountByStatus"); err != nil {
		return nil, err
	}
	out := make(map[task.Status]int)
	for _, t := range f.rows {
		out[t.Status]++
	}
	return out, nil
}

func (f *fakeRepo) CountByPriority(_ context.Context) (map[task.Priority]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CountByPriority"); err != nil {
		return nil, err
	}
	out := make(map[task.Priority]int)
	for _, t := range f.rows {
		out[t.Priority]++
	}
	return out, nil
}

// setStatus changes a row behind the service's back, the way a worker or an
// operator would.
func (f *fakeRepo) setStatus(id int64, status task.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.rows[id]
	t.Status = status
	f.rows[id] = t
}

var errCacheDown = errors.New("cache unavailable")

// brokenCache fails every operation.
type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, error) { return nil, errCacheDown }
func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errCacheDown
}
func (brokenCache) Delete(context.Context, ...string) error { return errCacheDown }
func (brokenCache) DeleteByPrefix(context.Context, string) (int, error) {
	return 0, errCacheDown
}
func (brokenCache) Keys(context.Context, string) ([]string, error) { return nil, errCacheDown }

var _ cache.Cache = brokenCache{}

// stepClock returns start, then advances by step on every call.
func stepClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(step)
		return now
	}
}
