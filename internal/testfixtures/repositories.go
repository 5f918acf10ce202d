package testfixtures

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/example/classroom-scheduler/internal/persistence"
)

// ErrUnavailable is the default failure returned by FailingRepository.
var ErrUnavailable = errors.New("testfixtures: repository unavailable")

// FailingRepository fails every call and counts how often each operation was
// attempted.
type FailingRepository struct {
	Err error

	mu    sync.Mutex
	calls map[string]int
}

var _ persistence.ScheduleRepository = (*FailingRepository)(nil)

// NewFailingRepository returns a repository failing with err, or
// ErrUnavailable when err is nil.
func NewFailingRepository(err error) *FailingRepository {
	if err == nil {
		err = ErrUnavailable
	}
	return &FailingRepository{Err: err, calls: make(map[string]int)}
}

// Calls returns how many times operation was invoked.
func (r *FailingRepository) Calls(operation string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[operation]
}

// TotalCalls returns the number of calls across all operations.
func (r *FailingRepository) TotalCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, n := range r.calls {
		total += n
	}
	return total
}

func (r *FailingRepository) fail(operation string) error {
	r.mu.Lock()
	r.calls[operation]++
	r.mu.Unlock()
	return r.Err
}

func (r *FailingRepository) FindByTimeRange(ctx context.Context, start, end time.Time) ([]persistence.Schedule, error) {
	return nil, r.fail("FindByTimeRange")
}

func (r *FailingRepository) FindByID(ctx context.Context, id string) (persistence.Schedule, error) {
	return persistence.Schedule{}, r.fail("FindByID")
}

func (r *FailingRepository) FindByClassID(ctx context.Context, classID string) ([]persistence.Schedule, error) {
	return nil, r.fail("FindByClassID")
}

func (r *FailingRepository) FindAll(ctx context.Context) ([]persistence.Schedule, error) {
	return nil, r.fail("FindAll")
}

func (r *FailingRepository) Save(ctx context.Context, schedule persistence.Schedule) error {
	return r.fail("Save")
}

func (r *FailingRepository) Update(ctx context.Context, schedule persistence.Schedule) error {
	return r.fail("Update")
}

func (r *FailingRepository) Delete(ctx context.Context, id string) error {
	return r.fail("Delete")
}
