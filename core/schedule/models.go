package schedule

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/timegrid"
)

// Schedule is a stored class meeting. Day and Time are kept as entered; they are
// normalized only when a view is built.
type Schedule struct {
	ID           string    `json:"id" yaml:"-"`
	Subject      string    `json:"subject" yaml:"subject"`
	Instructor   string    `json:"instructor" yaml:"instructor,omitempty"`
	InstructorID string    `json:"instructor_id,omitempty" yaml:"instructor_id,omitempty"`
	Room         string    `json:"room" yaml:"room,omitempty"`
	Section      string    `json:"section" yaml:"section,omitempty"`
	Course       string    `json:"course" yaml:"course,omitempty"`
	Year         string    `json:"year" yaml:"year,omitempty"`
	Day          string    `json:"day" yaml:"day"`
	Time         string    `json:"time" yaml:"time"`
	CreatedAt    time.Time `json:"created_at" yaml:"-"` // UTC
	UpdatedAt    time.Time `json:"updated_at" yaml:"-"` // UTC
}

func (s Schedule) Entry() timegrid.Entry {
	return timegrid.Entry{
		ID:         s.ID,
		Subject:    s.Subject,
		Instructor: s.Instructor,
		Room:       s.Room,
		Section:    s.Section,
		Course:     s.Course,
		Year:       s.Year,
		Day:        s.Day,
		Time:       s.Time,
	}
}

// Entries converts schedules to reconciler entries, keeping their order.
func Entries(schedules []Schedule) []timegrid.Entry {
	entries := make([]timegrid.Entry, len(schedules))
	for i, s := range schedules {
		entries[i] = s.Entry()
	}
	return entries
}

// NewSchedule contains information needed to create a new Schedule.
type NewSchedule struct {
	Subject      string `json:"subject" yaml:"subject" validate:"required,max=200"`
	Instructor   string `json:"instructor" yaml:"instructor" validate:"max=200"`
	InstructorID string `json:"instructor_id" yaml:"instructor_id" validate:"omitempty,uuid"`
	Room         string `json:"room" yaml:"room" validate:"max=100"`
	Section      string `json:"section" yaml:"section" validate:"max=100"`
	Course       string `json:"course" yaml:"course" validate:"max=200"`
	Year         string `json:"year" yaml:"year" validate:"max=50"`
	Day          string `json:"day" yaml:"day" validate:"required,weekdays"`
	Time         string `json:"time" yaml:"time" validate:"required,timerange"`
}

func (ns *NewSchedule) clean() {
	ns.Subject = core.CleanString(ns.Subject)
	ns.Instructor = core.CleanString(ns.Instructor)
	ns.InstructorID = core.CleanString(ns.InstructorID, true /* lower */)
	ns.Room = core.CleanString(ns.Room)
	ns.Section = core.CleanString(ns.Section)
	ns.Course = core.CleanString(ns.Course)
	ns.Year = core.CleanString(ns.Year)
	ns.Day = core.CleanString(ns.Day)
	ns.Time = core.CleanString(ns.Time)
}

func (ns *NewSchedule) Validate(validate *validator.Validate) error {
	ns.clean()
	return validate.Struct(ns)
}

// UpdateSchedule defines what information may be provided to modify an existing Schedule.
// Nil fields are left unchanged.
type UpdateSchedule struct {
	Subject      *string `json:"subject" validate:"omitempty,min=1,max=200"`
	Instructor   *string `json:"instructor" validate:"omitempty,max=200"`
	InstructorID *string `json:"instructor_id" validate:"omitempty,uuid|len=0"`
	Room         *string `json:"room" validate:"omitempty,max=100"`
	Section      *string `json:"section" validate:"omitempty,max=100"`
	Course       *string `json:"course" validate:"omitempty,max=200"`
	Year         *string `json:"year" validate:"omitempty,max=50"`
	Day          *string `json:"day" validate:"omitempty,weekdays"`
	Time         *string `json:"time" validate:"omitempty,timerange"`
}

func cleanPtr(s *string, lower ...bool) {
	if s != nil {
		*s = core.CleanString(*s, lower...)
	}
}

func (us *UpdateSchedule) Validate(validate *validator.Validate) error {
	cleanPtr(us.Subject)
	cleanPtr(us.Instructor)
	cleanPtr(us.InstructorID, true /* lower */)
	cleanPtr(us.Room)
	cleanPtr(us.Section)
	cleanPtr(us.Course)
	cleanPtr(us.Year)
	cleanPtr(us.Day)
	cleanPtr(us.Time)
	return validate.Struct(us)
}

// apply returns a copy of s with the set fields of us.
func (us UpdateSchedule) apply(s Schedule) Schedule {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&s.Subject, us.Subject)
	set(&s.Instructor, us.Instructor)
	set(&s.InstructorID, us.InstructorID)
	set(&s.Room, us.Room)
	set(&s.Section, us.Section)
	set(&s.Course, us.Course)
	set(&s.Year, us.Year)
	set(&s.Day, us.Day)
	set(&s.Time, us.Time)
	return s
}

// QueryFilter narrows the schedules a view is built from. All set fields are ANDed.
type QueryFilter struct {
	// Search does a case-insensitive substring match on one of
	// Subject, Instructor, Room, Section or Course.
	Search       string `query:"search"`
	Day          string `query:"day"` // any day token; matches schedules meeting on that day
	Instructor   string `query:"instructor"`
	InstructorID string `query:"instructor_id"`
	Room         string `query:"room"`
	Section      string `query:"section"`
	Course       string `query:"course"`
	Year         string `query:"year"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Day = core.CleanString(qf.Day)
	qf.Instructor = core.CleanString(qf.Instructor)
	qf.InstructorID = core.CleanString(qf.InstructorID, true /* lower */)
	qf.Room = core.CleanString(qf.Room)
	qf.Section = core.CleanString(qf.Section)
	qf.Course = core.CleanString(qf.Course)
	qf.Year = core.CleanString(qf.Year)
}

func (qf QueryFilter) IsEmpty() bool {
	return qf == QueryFilter{}
}

// Match applies the filter to s; used by in-memory storage.
func (qf QueryFilter) Match(s Schedule) bool {
	if qf.Search != "" &&
		!core.ContainsFold(s.Subject, qf.Search) &&
		!core.ContainsFold(s.Instructor, qf.Search) &&
		!core.ContainsFold(s.Room, qf.Search) &&
		!core.ContainsFold(s.Section, qf.Search) &&
		!core.ContainsFold(s.Course, qf.Search) {
		return false
	}
	if qf.Day != "" && !timegrid.NormalizeDayTokens(s.Day).Overlaps(timegrid.NormalizeDayTokens(qf.Day)) {
		return false
	}
	eq := func(field, want string) bool { return want == "" || equalFold(field, want) }
	return eq(s.Instructor, qf.Instructor) &&
		(qf.InstructorID == "" || s.InstructorID == qf.InstructorID) &&
		eq(s.Room, qf.Room) &&
		eq(s.Section, qf.Section) &&
		eq(s.Course, qf.Course) &&
		eq(s.Year, qf.Year)
}

func equalFold(a, b string) bool {
	return core.CleanString(a, true) == core.CleanString(b, true)
}

// GridView is the reconciled timetable plus the records that could not be placed.
type GridView struct {
	timegrid.Grid
	Rejected  []timegrid.Rejected `json:"rejected"`
	Conflicts []timegrid.Conflict `json:"conflicts"`
}
