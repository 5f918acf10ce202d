package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/classroom-scheduler/internal/persistence"
)

// timeLayout is fixed width in UTC so text comparison matches time order.
const timeLayout = "2006-01-02T15:04:05Z"

const scheduleColumns = `id, name, description, teacher, class_id, room_id, capacity, room_type,
	start_time, end_time, created_at, updated_at`

type scheduleRow struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	Description string         `db:"description"`
	Teacher     string         `db:"teacher"`
	ClassID     string         `db:"class_id"`
	RoomID      sql.NullString `db:"room_id"`
	Capacity    int            `db:"capacity"`
	RoomType    string         `db:"room_type"`
	StartTime   string         `db:"start_time"`
	EndTime     string         `db:"end_time"`
	CreatedAt   string         `db:"created_at"`
	UpdatedAt   string         `db:"updated_at"`
}

// ScheduleRepository implements persistence.ScheduleRepository over sqlx.
type ScheduleRepository struct {
	pool *ConnectionPool
	now  func() time.Time
}

var _ persistence.ScheduleRepository = (*ScheduleRepository)(nil)

// NewScheduleRepository creates a repository backed by pool.
func NewScheduleRepository(pool *ConnectionPool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool, now: time.Now}
}

// WithClock overrides the timestamp source for CreatedAt and UpdatedAt.
func (r *ScheduleRepository) WithClock(now func() time.Time) *ScheduleRepository {
	if now != nil {
		r.now = now
	}
	return r
}

// Save inserts a new schedule.
func (r *ScheduleRepository) Save(ctx context.Context, schedule persistence.Schedule) error {
	if schedule.ID == "" {
		return errors.New("schedule id is required")
	}
	now := r.now().UTC()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	row := toRow(schedule)

	return r.pool.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO schedules (id, name, description, teacher, class_id, room_id, capacity, room_type,
				start_time, end_time, created_at, updated_at)
			VALUES (:id, :name, :description, :teacher, :class_id, :room_id, :capacity, :room_type,
				:start_time, :end_time, :created_at, :updated_at)`, row)
		if err != nil {
			return fmt.Errorf("insert schedule %s: %w", schedule.ID, mapError(err))
		}
		return nil
	})
}

// Update replaces every mutable field of an existing schedule.
func (r *ScheduleRepository) Update(ctx context.Context, schedule persistence.Schedule) error {
	schedule.UpdatedAt = r.now().UTC()
	row := toRow(schedule)

	return r.pool.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.NamedExecContext(ctx, `
			UPDATE schedules SET
				name = :name,
				description = :description,
				teacher = :teacher,
				class_id = :class_id,
				room_id = :room_id,
				capacity = :capacity,
				room_type = :room_type,
				start_time = :start_time,
				end_time = :end_time,
				updated_at = :updated_at
			WHERE id = :id`, row)
		if err != nil {
			return fmt.Errorf("update schedule %s: %w", schedule.ID, mapError(err))
		}
		return requireAffected(result, schedule.ID)
	})
}

// Delete removes a schedule.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	return r.pool.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM schedules WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("delete schedule %s: %w", id, mapError(err))
		}
		return requireAffected(result, id)
	})
}

// FindByID returns a single schedule.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (persistence.Schedule, error) {
	db := r.pool.DB()
	var row scheduleRow
	err := db.GetContext(ctx, &row, db.Rebind(`SELECT `+scheduleColumns+` FROM schedules WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.Schedule{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.Schedule{}, fmt.Errorf("get schedule %s: %w", id, err)
	}
	return fromRow(row)
}

// FindByTimeRange returns schedules intersecting [start, end) plus zero-length
// schedules that begin inside it.
func (r *ScheduleRepository) FindByTimeRange(ctx context.Context, start, end time.Time) ([]persistence.Schedule, error) {
	if !start.Before(end) {
		return nil, nil
	}
	from, to := formatTime(start), formatTime(end)
	return r.selectSchedules(ctx, `
		SELECT `+scheduleColumns+` FROM schedules
		WHERE start_time < ?
			AND (end_time > ? OR (end_time = start_time AND start_time >= ?))
		ORDER BY start_time, id`, to, from, from)
}

// FindByClassID returns every schedule of a class.
func (r *ScheduleRepository) FindByClassID(ctx context.Context, classID string) ([]persistence.Schedule, error) {
	return r.selectSchedules(ctx, `
		SELECT `+scheduleColumns+` FROM schedules
		WHERE class_id = ?
		ORDER BY start_time, id`, classID)
}

// FindAll returns every stored schedule.
func (r *ScheduleRepository) FindAll(ctx context.Context) ([]persistence.Schedule, error) {
	return r.selectSchedules(ctx, `SELECT `+scheduleColumns+` FROM schedules ORDER BY start_time, id`)
}

func (r *ScheduleRepository) selectSchedules(ctx context.Context, query string, args ...any) ([]persistence.Schedule, error) {
	db := r.pool.DB()
	var rows []scheduleRow
	if err := db.SelectContext(ctx, &rows, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	schedules := make([]persistence.Schedule, 0, len(rows))
	for _, row := range rows {
		schedule, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, schedule)
	}
	return schedules, nil
}

func requireAffected(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %s: %w", id, err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func toRow(s persistence.Schedule) scheduleRow {
	row := scheduleRow{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Teacher:     s.Teacher,
		ClassID:     s.ClassID,
		StartTime:   formatTime(s.Start),
		EndTime:     formatTime(s.End),
		CreatedAt:   formatTime(s.CreatedAt),
		UpdatedAt:   formatTime(s.UpdatedAt),
	}
	if s.Room != nil {
		row.RoomID = sql.NullString{String: s.Room.RoomID, Valid: true}
		row.Capacity = s.Room.Capacity
		row.RoomType = s.Room.RoomType
	}
	return row
}

func fromRow(row scheduleRow) (persistence.Schedule, error) {
	schedule := persistence.Schedule{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Teacher:     row.Teacher,
		ClassID:     row.ClassID,
	}
	var err error
	if schedule.Start, err = parseTime(row.StartTime); err != nil {
		return persistence.Schedule{}, fmt.Errorf("schedule %s start_time: %w", row.ID, err)
	}
	if schedule.End, err = parseTime(row.EndTime); err != nil {
		return persistence.Schedule{}, fmt.Errorf("schedule %s end_time: %w", row.ID, err)
	}
	if schedule.CreatedAt, err = parseTime(row.CreatedAt); err != nil {
		return persistence.Schedule{}, fmt.Errorf("schedule %s created_at: %w", row.ID, err)
	}
	if schedule.UpdatedAt, err = parseTime(row.UpdatedAt); err != nil {
		return persistence.Schedule{}, fmt.Errorf("schedule %s updated_at: %w", row.ID, err)
	}
	if row.RoomID.Valid {
		schedule.Room = &persistence.RoomAssignment{
			RoomID:   row.RoomID.String,
			Capacity: row.Capacity,
			RoomType: row.RoomType,
		}
	}
	return schedule, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(timeLayout, value)
}
