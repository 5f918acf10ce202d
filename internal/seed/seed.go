// Package seed imports timetables from YAML files.
//
//	sessions:
//	  - id: A
//	    course: Math
//	    teacher: Ms. Lee
//	    room: R101
//	    date: 2025-05-01
//	    time_slot: "09:00 - 10:00"
//	classes:
//	  - class_id: 10A-math
//	    course: Math
//	    room: R101
//	    time_slot: "09:00 - 10:00"
//	    starts_on: 2025-05-05
//	    ends_on: 2025-06-27
//	    weekdays: [monday, wednesday]
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/example/classroom-scheduler/internal/application"
)

const dateLayout = "2006-01-02"

// File is the root of a seed document.
type File struct {
	Sessions []SessionEntry `yaml:"sessions" validate:"dive"`
	Classes  []ClassEntry   `yaml:"classes" validate:"dive"`
}

// SessionEntry is a single session.
type SessionEntry struct {
	ID       string `yaml:"id"`
	ClassID  string `yaml:"class_id"`
	Course   string `yaml:"course" validate:"required"`
	Teacher  string `yaml:"teacher"`
	Room     string `yaml:"room" validate:"required"`
	Date     string `yaml:"date" validate:"required,datetime=2006-01-02"`
	TimeSlot string `yaml:"time_slot" validate:"required"`
}

// ClassEntry is a recurring class.
type ClassEntry struct {
	ClassID  string   `yaml:"class_id"`
	Course   string   `yaml:"course" validate:"required"`
	Teacher  string   `yaml:"teacher"`
	Room     string   `yaml:"room" validate:"required"`
	TimeSlot string   `yaml:"time_slot" validate:"required"`
	StartsOn string   `yaml:"starts_on" validate:"required,datetime=2006-01-02"`
	EndsOn   string   `yaml:"ends_on" validate:"required,datetime=2006-01-02"`
	Weekdays []string `yaml:"weekdays" validate:"dive,oneof=sunday monday tuesday wednesday thursday friday saturday sun mon tue wed thu fri sat"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse decodes and validates a seed document. Unknown keys are rejected.
func Parse(r io.Reader) (File, error) {
	var file File
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("decode seed: %w", err)
	}
	if err := file.Validate(); err != nil {
		return File{}, err
	}
	return file, nil
}

// LoadFile parses the seed document at path.
func LoadFile(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Validate checks required fields and formats.
func (f File) Validate() error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate seed: %w", err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s (%s)", strings.TrimPrefix(fe.Namespace(), "File."), fe.Tag()))
	}
	return fmt.Errorf("invalid seed: %s", strings.Join(problems, ", "))
}

// Session converts the entry using loc for its date.
func (e SessionEntry) Session(loc *time.Location) (application.Session, error) {
	date, err := time.ParseInLocation(dateLayout, e.Date, loc)
	if err != nil {
		return application.Session{}, fmt.Errorf("session %q date: %w", e.ID, err)
	}
	return application.Session{
		ID:         e.ID,
		ClassID:    e.ClassID,
		CourseName: e.Course,
		Teacher:    e.Teacher,
		Room:       e.Room,
		Date:       date,
		TimeSlot:   e.TimeSlot,
	}, nil
}

// Plan converts the entry using loc for its dates.
func (e ClassEntry) Plan(loc *time.Location) (application.ClassPlan, error) {
	startsOn, err := time.ParseInLocation(dateLayout, e.StartsOn, loc)
	if err != nil {
		return application.ClassPlan{}, fmt.Errorf("class %q starts_on: %w", e.ClassID, err)
	}
	endsOn, err := time.ParseInLocation(dateLayout, e.EndsOn, loc)
	if err != nil {
		return application.ClassPlan{}, fmt.Errorf("class %q ends_on: %w", e.ClassID, err)
	}
	weekdays := make([]time.Weekday, 0, len(e.Weekdays))
	for _, name := range e.Weekdays {
		day, ok := ParseWeekday(name)
		if !ok {
			return application.ClassPlan{}, fmt.Errorf("class %q: unknown weekday %q", e.ClassID, name)
		}
		weekdays = append(weekdays, day)
	}
	return application.ClassPlan{
		ClassID:    e.ClassID,
		CourseName: e.Course,
		Teacher:    e.Teacher,
		Room:       e.Room,
		TimeSlot:   e.TimeSlot,
		StartsOn:   startsOn,
		EndsOn:     endsOn,
		Weekdays:   weekdays,
	}, nil
}

// ParseWeekday accepts full English weekday names or their three-letter
// abbreviations, in any case.
func ParseWeekday(name string) (time.Weekday, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for day := time.Sunday; day <= time.Saturday; day++ {
		full := strings.ToLower(day.String())
		if name == full || name == full[:3] {
			return day, true
		}
	}
	return 0, false
}

// Target receives imported sessions. *application.ScheduleManager satisfies it.
type Target interface {
	CheckConflict(ctx context.Context, candidate application.Session) application.ConflictResult
	AddSession(ctx context.Context, session application.Session) (application.Session, error)
	ScheduleClass(ctx context.Context, plan application.ClassPlan) (application.ClassScheduleResult, error)
}

// Report summarises an import.
type Report struct {
	Sessions int
	Classes  int
	// Skipped lists entries that were not imported because they conflict.
	Skipped []string
}

// Apply imports every entry of file into target. Entries that would
// double-book a room are skipped and reported; any other failure stops the
// import.
func Apply(ctx context.Context, target Target, file File, loc *time.Location) (Report, error) {
	if loc == nil {
		loc = time.UTC
	}
	var report Report

	for i, entry := range file.Sessions {
		session, err := entry.Session(loc)
		if err != nil {
			return report, err
		}
		if result := target.CheckConflict(ctx, session); result.Status == application.Conflict {
			report.Skipped = append(report.Skipped, fmt.Sprintf("sessions[%d] conflicts with %s", i, result.With.ID))
			continue
		}
		if _, err := target.AddSession(ctx, session); err != nil {
			return report, fmt.Errorf("sessions[%d]: %w", i, err)
		}
		report.Sessions++
	}

	for i, entry := range file.Classes {
		plan, err := entry.Plan(loc)
		if err != nil {
			return report, err
		}
		result, err := target.ScheduleClass(ctx, plan)
		if errors.Is(err, application.ErrConflict) {
			report.Skipped = append(report.Skipped, fmt.Sprintf("classes[%d] has %d conflict(s)", i, len(result.Conflicts)))
			continue
		}
		if err != nil {
			return report, fmt.Errorf("classes[%d]: %w", i, err)
		}
		report.Classes++
	}

	return report, nil
}
