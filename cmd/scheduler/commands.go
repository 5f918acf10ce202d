package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/example/classroom-scheduler/internal/application"
	"github.com/example/classroom-scheduler/internal/seed"
)

const dateLayout = "2006-01-02"

var errHelp = errors.New("help provided")

type commandLine struct {
	manager  *application.ScheduleManager
	storage  storage
	location *time.Location
	stdout   io.Writer
	stderr   io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.stderr, "Usage:")
	fmt.Fprintln(cli.stderr, "  migrate                                       - apply pending schema migrations")
	fmt.Fprintln(cli.stderr, "  seed -file FILE                               - import sessions and classes from YAML")
	fmt.Fprintln(cli.stderr, "  list [-from DATE] [-to DATE] [-teacher NAME]  - list sessions from one day to another, inclusive")
	fmt.Fprintln(cli.stderr, "  show -id ID                                   - show one session")
	fmt.Fprintln(cli.stderr, "  add -course C -teacher T -room R -date DATE -slot SLOT [-class ID]")
	fmt.Fprintln(cli.stderr, "  update -id ID -course C -teacher T -room R -date DATE -slot SLOT [-class ID]")
	fmt.Fprintln(cli.stderr, "  delete -id ID                                 - delete one session")
	fmt.Fprintln(cli.stderr, "  conflict -room R -date DATE -slot SLOT [-id ID] - check a room booking")
	fmt.Fprintln(cli.stderr, "  plan -course C -teacher T -room R -slot SLOT -from DATE -to DATE [-days mon,wed] [-class ID]")
	fmt.Fprintln(cli.stderr, "  teachers | rooms | courses                    - list distinct values")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		return cli.migrate(ctx)
	case "seed":
		return cli.seed(ctx, args[2:])
	case "list":
		return cli.list(ctx, args[2:])
	case "show":
		return cli.show(ctx, args[2:])
	case "add":
		return cli.add(ctx, args[2:])
	case "update":
		return cli.update(ctx, args[2:])
	case "delete":
		return cli.delete(ctx, args[2:])
	case "conflict":
		return cli.conflict(ctx, args[2:])
	case "plan":
		return cli.plan(ctx, args[2:])
	case "teachers":
		return cli.printValues(cli.manager.ListTeachers(ctx))
	case "rooms":
		return cli.printValues(cli.manager.ListRooms(ctx))
	case "courses":
		return cli.printValues(cli.manager.ListCourses(ctx))
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.stderr)
	return fs
}

func (cli *commandLine) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return err
	}
	return nil
}

func (cli *commandLine) migrate(ctx context.Context) error {
	applied, err := cli.storage.Migrate(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.stdout, "applied %d migration(s)\n", applied)
	return nil
}

func (cli *commandLine) seed(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("seed")
	file := fs.String("file", "", "YAML file with sessions and classes")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *file == "" {
		fs.Usage()
		return errHelp
	}

	data, err := seed.LoadFile(*file)
	if err != nil {
		return err
	}
	report, err := seed.Apply(ctx, cli.manager, data, cli.location)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.stdout, "imported %d session(s) and %d class(es)\n", report.Sessions, report.Classes)
	for _, skipped := range report.Skipped {
		fmt.Fprintf(cli.stdout, "skipped: %s\n", skipped)
	}
	return nil
}

func (cli *commandLine) list(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("list")
	from := fs.String("from", "", "first day (YYYY-MM-DD, default today)")
	to := fs.String("to", "", "last day (YYYY-MM-DD, default from + 6 days)")
	teacher := fs.String("teacher", "", "only sessions taught by this teacher")
	if err := cli.parse(fs, args); err != nil {
		return err
	}

	start := cli.today()
	if *from != "" {
		day, err := cli.parseDate("from", *from)
		if err != nil {
			return err
		}
		start = day
	}
	end := start.AddDate(0, 0, 6)
	if *to != "" {
		day, err := cli.parseDate("to", *to)
		if err != nil {
			return err
		}
		end = day
	}

	sessions, err := cli.manager.GetSchedule(ctx, start, end, *teacher)
	if err != nil {
		return err
	}
	return cli.printSessions(sessions)
}

func (cli *commandLine) show(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("show")
	id := fs.String("id", "", "session id")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		fs.Usage()
		return errHelp
	}

	session, err := cli.manager.GetSessionByID(ctx, *id)
	if err != nil {
		return err
	}
	return cli.printSessions([]application.Session{session})
}

type sessionFlags struct {
	id      *string
	classID *string
	course  *string
	teacher *string
	room    *string
	date    *string
	slot    *string
}

func bindSessionFlags(fs *flag.FlagSet) sessionFlags {
	return sessionFlags{
		id:      fs.String("id", "", "session id"),
		classID: fs.String("class", "", "class the session belongs to"),
		course:  fs.String("course", "", "course name"),
		teacher: fs.String("teacher", "", "teacher name"),
		room:    fs.String("room", "", "room"),
		date:    fs.String("date", "", "day of the session (YYYY-MM-DD)"),
		slot:    fs.String("slot", "", `time slot, e.g. "09:00 - 10:30"`),
	}
}

func (cli *commandLine) sessionFrom(f sessionFlags) (application.Session, error) {
	date, err := cli.parseDate("date", *f.date)
	if err != nil {
		return application.Session{}, err
	}
	return application.Session{
		ID:         *f.id,
		ClassID:    *f.classID,
		CourseName: *f.course,
		Teacher:    *f.teacher,
		Room:       *f.room,
		Date:       date,
		TimeSlot:   *f.slot,
	}, nil
}

func (cli *commandLine) add(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("add")
	flags := bindSessionFlags(fs)
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	session, err := cli.sessionFrom(flags)
	if err != nil {
		return err
	}

	if result := cli.manager.CheckConflict(ctx, session); result.Status == application.Conflict {
		return fmt.Errorf("%w: room %s is booked by session %s", application.ErrConflict, session.Room, result.With.ID)
	}
	stored, err := cli.manager.AddSession(ctx, session)
	if err != nil {
		return err
	}
	return cli.printSessions([]application.Session{stored})
}

func (cli *commandLine) update(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("update")
	flags := bindSessionFlags(fs)
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *flags.id == "" {
		fs.Usage()
		return errHelp
	}
	session, err := cli.sessionFrom(flags)
	if err != nil {
		return err
	}

	if result := cli.manager.CheckConflict(ctx, session); result.Status == application.Conflict {
		return fmt.Errorf("%w: room %s is booked by session %s", application.ErrConflict, session.Room, result.With.ID)
	}
	stored, err := cli.manager.UpdateSession(ctx, session)
	if err != nil {
		return err
	}
	return cli.printSessions([]application.Session{stored})
}

func (cli *commandLine) delete(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("delete")
	id := fs.String("id", "", "session id")
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		fs.Usage()
		return errHelp
	}

	if err := cli.manager.DeleteSession(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(cli.stdout, "deleted %s\n", *id)
	return nil
}

func (cli *commandLine) conflict(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("conflict")
	flags := bindSessionFlags(fs)
	if err := cli.parse(fs, args); err != nil {
		return err
	}
	session, err := cli.sessionFrom(flags)
	if err != nil {
		return err
	}

	result := cli.manager.CheckConflict(ctx, session)
	switch result.Status {
	case application.Conflict:
		fmt.Fprintf(cli.stdout, "conflict with %s (%s, %s)\n", result.With.ID, result.With.CourseName, result.With.TimeSlot)
	case application.Indeterminate:
		fmt.Fprintf(cli.stdout, "indeterminate: %s\n", result.Reason)
		return result.Err
	default:
		fmt.Fprintln(cli.stdout, "no conflict")
	}
	return nil
}

func (cli *commandLine) plan(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("plan")
	classID := fs.String("class", "", "class id (generated when empty)")
	course := fs.String("course", "", "course name")
	teacher := fs.String("teacher", "", "teacher name")
	room := fs.String("room", "", "room")
	slot := fs.String("slot", "", `time slot, e.g. "09:00 - 10:30"`)
	from := fs.String("from", "", "first day (YYYY-MM-DD)")
	to := fs.String("to", "", "last day (YYYY-MM-DD)")
	days := fs.String("days", "", "comma separated weekdays, e.g. mon,wed (default: weekday of -from)")
	if err := cli.parse(fs, args); err != nil {
		return err
	}

	startsOn, err := cli.parseDate("from", *from)
	if err != nil {
		return err
	}
	endsOn, err := cli.parseDate("to", *to)
	if err != nil {
		return err
	}
	var weekdays []time.Weekday
	for _, name := range strings.Split(*days, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		day, ok := seed.ParseWeekday(name)
		if !ok {
			return fmt.Errorf("invalid weekday %q", name)
		}
		weekdays = append(weekdays, day)
	}

	result, err := cli.manager.ScheduleClass(ctx, application.ClassPlan{
		ClassID:    *classID,
		CourseName: *course,
		Teacher:    *teacher,
		Room:       *room,
		TimeSlot:   *slot,
		StartsOn:   startsOn,
		EndsOn:     endsOn,
		Weekdays:   weekdays,
	})
	if errors.Is(err, application.ErrConflict) {
		for _, c := range result.Conflicts {
			fmt.Fprintf(cli.stdout, "conflict: %s in %s collides with %s\n", c.Date.Format(dateLayout), c.Room, c.WithBookingID)
		}
	}
	if err != nil {
		return err
	}
	return cli.printSessions(result.Sessions)
}

func (cli *commandLine) printSessions(sessions []application.Session) error {
	w := tabwriter.NewWriter(cli.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTIME\tROOM\tCOURSE\tTEACHER")
	for _, s := range sessions {
		date := ""
		if s.HasDate() {
			date = s.Date.Format(dateLayout)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", s.ID, date, s.TimeSlot, s.Room, s.CourseName, s.Teacher)
	}
	return w.Flush()
}

func (cli *commandLine) printValues(values []string, err error) error {
	if err != nil {
		return err
	}
	for _, v := range values {
		fmt.Fprintln(cli.stdout, v)
	}
	return nil
}

func (cli *commandLine) parseDate(name, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("-%s is required", name)
	}
	day, err := time.ParseInLocation(dateLayout, strings.TrimSpace(value), cli.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -%s %q: expected YYYY-MM-DD", name, value)
	}
	return day, nil
}

func (cli *commandLine) today() time.Time {
	y, m, d := time.Now().In(cli.location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, cli.location)
}
