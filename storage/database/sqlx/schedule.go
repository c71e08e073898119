package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ratiba/core/schedule"
)

const scheduleColumns = `id, subject, instructor, instructor_id, room, section, course, year, day, time,
	created_at, updated_at`

type scheduleRow struct {
	ID           string      `db:"id"`
	Subject      string      `db:"subject"`
	Instructor   string      `db:"instructor"`
	InstructorID null.String `db:"instructor_id"`
	Room         string      `db:"room"`
	Section      string      `db:"section"`
	Course       string      `db:"course"`
	Year         string      `db:"year"`
	Day          string      `db:"day"`
	Time         string      `db:"time"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func toScheduleRow(s schedule.Schedule) scheduleRow {
	return scheduleRow{
		ID:           s.ID,
		Subject:      s.Subject,
		Instructor:   s.Instructor,
		InstructorID: null.NewString(s.InstructorID, s.InstructorID != ""),
		Room:         s.Room,
		Section:      s.Section,
		Course:       s.Course,
		Year:         s.Year,
		Day:          s.Day,
		Time:         s.Time,
		CreatedAt:    s.CreatedAt.UTC(),
		UpdatedAt:    s.UpdatedAt.UTC(),
	}
}

func (r scheduleRow) schedule() schedule.Schedule {
	return schedule.Schedule{
		ID:           r.ID,
		Subject:      r.Subject,
		Instructor:   r.Instructor,
		InstructorID: r.InstructorID.String,
		Room:         r.Room,
		Section:      r.Section,
		Course:       r.Course,
		Year:         r.Year,
		Day:          r.Day,
		Time:         r.Time,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type scheduleRepository struct {
	db *sqlx.DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *sqlx.DB) schedule.Repository {
	return &scheduleRepository{db: db}
}

func (repo *scheduleRepository) CreateSchedule(ctx context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	q := `INSERT INTO schedule (` + scheduleColumns + `) VALUES (:id, :subject, :instructor, :instructor_id,
		:room, :section, :course, :year, :day, :time, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, toScheduleRow(s)); err != nil {
		return schedule.Schedule{}, errors.Wrap(err, "inserting schedule")
	}
	return s, nil
}

func (repo *scheduleRepository) GetScheduleByID(ctx context.Context, id string) (schedule.Schedule, error) {
	if len(validIDs([]string{id})) == 0 {
		return schedule.Schedule{}, schedule.ErrNotFound
	}
	var r scheduleRow
	if err := repo.db.GetContext(ctx, &r, `SELECT `+scheduleColumns+` FROM schedule WHERE id = $1`, id); err != nil {
		return schedule.Schedule{}, trapNoRowsErr(err, schedule.ErrNotFound, "finding schedule by ID")
	}
	return r.schedule(), nil
}

// scheduleWhere pushes the exact-match parts of filter down to SQL.
// Day tokens are free text ("Mon/Wed"), so the day condition is applied in Go.
func scheduleWhere(filter schedule.QueryFilter) where {
	var w where
	if filter.Search != "" {
		val := like(filter.Search)
		w.add("subject ILIKE ? OR instructor ILIKE ? OR room ILIKE ? OR section ILIKE ? OR course ILIKE ?",
			val, val, val, val, val)
	}
	if filter.InstructorID != "" {
		if len(validIDs([]string{filter.InstructorID})) == 0 {
			w.add("false")
		} else {
			w.add("instructor_id = ?", filter.InstructorID)
		}
	}
	eq := func(col, val string) {
		if val != "" {
			w.add("lower(btrim("+col+")) = lower(?)", val)
		}
	}
	eq("instructor", filter.Instructor)
	eq("room", filter.Room)
	eq("section", filter.Section)
	eq("course", filter.Course)
	eq("year", filter.Year)
	return w
}

func (repo *scheduleRepository) FilterSchedules(ctx context.Context, filter schedule.QueryFilter) ([]schedule.Schedule, error) {
	w := scheduleWhere(filter)
	var rows []scheduleRow
	q := query(`SELECT ` + scheduleColumns + ` FROM schedule` + w.String() + ` ORDER BY seq`)
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying schedules")
	}

	schedules := make([]schedule.Schedule, 0, len(rows))
	for _, r := range rows {
		if s := r.schedule(); filter.Match(s) {
			schedules = append(schedules, s)
		}
	}
	return schedules, nil
}

func (repo *scheduleRepository) UpdateSchedule(ctx context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	q := `UPDATE schedule SET subject = :subject, instructor = :instructor, instructor_id = :instructor_id,
		room = :room, section = :section, course = :course, year = :year, day = :day, time = :time,
		updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toScheduleRow(s))
	if err != nil {
		return schedule.Schedule{}, errors.Wrap(err, "updating schedule")
	}
	if rowsAffected(res) == 0 {
		return schedule.Schedule{}, schedule.ErrNotFound
	}
	return s, nil
}

func (repo *scheduleRepository) DeleteSchedulesByID(ctx context.Context, ids ...string) error {
	if ids = validIDs(ids); len(ids) == 0 {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM schedule WHERE id = ANY($1)`, pq.StringArray(ids)); err != nil {
		return errors.Wrap(err, "deleting schedules")
	}
	return nil
}
