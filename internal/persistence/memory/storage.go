// Package memory provides a map-backed schedule repository for tests and
// throwaway runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/classroom-scheduler/internal/persistence"
)

// Storage keeps schedules in memory. It is safe for concurrent use.
type Storage struct {
	mu        sync.RWMutex
	now       func() time.Time
	schedules map[string]persistence.Schedule
}

// New returns an empty Storage.
func New() *Storage {
	return NewWithClock(nil)
}

// NewWithClock returns an empty Storage that stamps records using now.
func NewWithClock(now func() time.Time) *Storage {
	if now == nil {
		now = time.Now
	}
	return &Storage{
		now:       now,
		schedules: make(map[string]persistence.Schedule),
	}
}

// Close is a no-op kept for parity with the SQL store.
func (s *Storage) Close() error {
	return nil
}

// Save stores a new schedule.
func (s *Storage) Save(ctx context.Context, schedule persistence.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.schedules[schedule.ID]; ok {
		return persistence.ErrDuplicate
	}

	stamp := s.now().UTC()
	schedule.CreatedAt = stamp
	schedule.UpdatedAt = stamp
	s.schedules[schedule.ID] = schedule.Clone()
	return nil
}

// Update replaces an existing schedule, keeping its creation time.
func (s *Storage) Update(ctx context.Context, schedule persistence.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.schedules[schedule.ID]
	if !ok {
		return persistence.ErrNotFound
	}

	schedule.CreatedAt = existing.CreatedAt
	schedule.UpdatedAt = s.now().UTC()
	s.schedules[schedule.ID] = schedule.Clone()
	return nil
}

// Delete removes a schedule by ID.
func (s *Storage) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.schedules[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.schedules, id)
	return nil
}

// FindByID retrieves a schedule by ID.
func (s *Storage) FindByID(ctx context.Context, id string) (persistence.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schedule, ok := s.schedules[id]
	if !ok {
		return persistence.Schedule{}, persistence.ErrNotFound
	}
	return schedule.Clone(), nil
}

// FindByTimeRange returns schedules intersecting [start, end) ordered by start.
func (s *Storage) FindByTimeRange(ctx context.Context, start, end time.Time) ([]persistence.Schedule, error) {
	if !start.Before(end) {
		return nil, nil
	}
	return s.collect(func(schedule persistence.Schedule) bool {
		return persistence.InTimeRange(schedule, start, end)
	}), nil
}

// FindByClassID returns the schedules of one class ordered by start.
func (s *Storage) FindByClassID(ctx context.Context, classID string) ([]persistence.Schedule, error) {
	return s.collect(func(schedule persistence.Schedule) bool {
		return schedule.ClassID == classID
	}), nil
}

// FindAll returns every schedule ordered by start.
func (s *Storage) FindAll(ctx context.Context) ([]persistence.Schedule, error) {
	return s.collect(func(persistence.Schedule) bool { return true }), nil
}

func (s *Storage) collect(match func(persistence.Schedule) bool) []persistence.Schedule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schedules := make([]persistence.Schedule, 0)
	for _, schedule := range s.schedules {
		if !match(schedule) {
			continue
		}
		schedules = append(schedules, schedule.Clone())
	}

	sort.Slice(schedules, func(i, j int) bool {
		if schedules[i].Start.Equal(schedules[j].Start) {
			return schedules[i].ID < schedules[j].ID
		}
		return schedules[i].Start.Before(schedules[j].Start)
	})
	return schedules
}
