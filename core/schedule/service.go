package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/timegrid"
)

var (
	// errors
	ErrNotFound = errors.New("schedule not found")
)

type (
	Repository interface {
		CreateSchedule(ctx context.Context, s Schedule) (Schedule, error)
		GetScheduleByID(ctx context.Context, id string) (Schedule, error)
		// FilterSchedules applies AND operation on available QueryFilter fields.
		// Results are ordered by creation time; the grid relies on this order.
		FilterSchedules(ctx context.Context, filter QueryFilter) ([]Schedule, error)
		UpdateSchedule(ctx context.Context, s Schedule) (Schedule, error)
		DeleteSchedulesByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		Create(ctx context.Context, ns NewSchedule) (Schedule, error)
		Get(ctx context.Context, id string) (Schedule, error)
		Query(ctx context.Context, filter QueryFilter) ([]Schedule, error)
		Update(ctx context.Context, id string, us UpdateSchedule) (Schedule, error)
		Delete(ctx context.Context, ids ...string) error

		// views
		Grid(ctx context.Context, filter QueryFilter) (GridView, error)
		Agenda(ctx context.Context, filter QueryFilter) ([]timegrid.DayGroup, error)
		List(ctx context.Context, filter QueryFilter) ([]timegrid.AgendaItem, error)
		Conflicts(ctx context.Context, filter QueryFilter) ([]timegrid.Conflict, error)

		GridConfig() core.GridConfig
		// Close detaches the service from the event bus.
		Close()
	}

	// Event is the payload of every schedule.* event.
	Event struct {
		Schedule Schedule  `json:"schedule"`
		Previous *Schedule `json:"previous,omitempty"` // set on update
	}
)

type service struct {
	repo        Repository
	bus         core.EventBus
	logger      core.Logger
	conf        core.GridConfig
	slots       []timegrid.TimeSlot
	cache       *gridCache
	unsubscribe func()
}

var _ Service = (*service)(nil)

func NewService(repo Repository, bus core.EventBus, logger core.Logger, conf core.GridConfig) Service {
	conf.Normalize()
	svc := &service{
		repo:   repo,
		bus:    bus,
		logger: logger,
		conf:   conf,
		slots:  conf.Slots(),
		cache:  newGridCache(conf.CacheTTL),
	}
	svc.unsubscribe = core.SubscribeAll(bus, core.ScheduleEvents, func(context.Context, core.Event) {
		svc.cache.invalidate()
	})
	return svc
}

func (svc *service) GridConfig() core.GridConfig { return svc.conf }

func (svc *service) Close() { svc.unsubscribe() }

func (svc *service) publish(ctx context.Context, name string, evt Event) {
	svc.bus.Publish(ctx, core.Event{Name: name, OccurredAt: time.Now().UTC(), Payload: evt})
}

func (svc *service) Create(ctx context.Context, ns NewSchedule) (Schedule, error) {
	now := time.Now().UTC()
	s := Schedule{
		ID:           uuid.New().String(),
		Subject:      ns.Subject,
		Instructor:   ns.Instructor,
		InstructorID: ns.InstructorID,
		Room:         ns.Room,
		Section:      ns.Section,
		Course:       ns.Course,
		Year:         ns.Year,
		Day:          ns.Day,
		Time:         ns.Time,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s, err := svc.repo.CreateSchedule(ctx, s)
	if err != nil {
		return Schedule{}, pkgerrors.Wrap(err, "creating schedule")
	}
	svc.publish(ctx, core.EventScheduleCreated, Event{Schedule: s})
	return s, nil
}

func (svc *service) Get(ctx context.Context, id string) (Schedule, error) {
	return svc.repo.GetScheduleByID(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter QueryFilter) ([]Schedule, error) {
	filter.Clean()
	return svc.repo.FilterSchedules(ctx, filter)
}

func (svc *service) Update(ctx context.Context, id string, us UpdateSchedule) (Schedule, error) {
	prev, err := svc.repo.GetScheduleByID(ctx, id)
	if err != nil {
		return Schedule{}, err
	}
	s := us.apply(prev)
	s.UpdatedAt = time.Now().UTC()
	if s, err = svc.repo.UpdateSchedule(ctx, s); err != nil {
		return Schedule{}, pkgerrors.Wrap(err, "updating schedule")
	}
	svc.publish(ctx, core.EventScheduleUpdated, Event{Schedule: s, Previous: &prev})
	return s, nil
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	ids = core.UniqueStrings(ids)
	deleted := make([]Schedule, 0, len(ids))
	for _, id := range ids {
		s, err := svc.repo.GetScheduleByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return err
		}
		deleted = append(deleted, s)
	}
	if len(deleted) == 0 {
		return nil
	}
	if err := svc.repo.DeleteSchedulesByID(ctx, ids...); err != nil {
		return pkgerrors.Wrap(err, "deleting schedules")
	}
	for _, s := range deleted {
		svc.publish(ctx, core.EventScheduleDeleted, Event{Schedule: s})
	}
	return nil
}

// load returns the normalized data set for filter, from cache when fresh.
func (svc *service) load(ctx context.Context, filter QueryFilter) (snapshot, error) {
	filter.Clean()
	snap, gen, ok := svc.cache.get(filter)
	if ok {
		return snap, nil
	}

	schedules, err := svc.repo.FilterSchedules(ctx, filter)
	if err != nil {
		return snapshot{}, pkgerrors.Wrap(err, "filtering schedules")
	}
	snap.normalized, snap.rejected = timegrid.Normalize(Entries(schedules), svc.conf.MeridiemPolicy)
	if snap.rejected == nil {
		snap.rejected = []timegrid.Rejected{}
	}
	for _, r := range snap.rejected {
		svc.logger.Debug("schedule omitted from grid", map[string]interface{}{
			"id": r.ID, "time": r.Time, "reason": r.Reason,
		})
	}
	svc.cache.put(filter, snap, gen)
	return snap, nil
}

// days returns the columns for filter: its own days when set, else the configured ones.
func (svc *service) days(filter QueryFilter) []string {
	if filter.Day != "" {
		if days := timegrid.NormalizeDayTokens(filter.Day).Days(); len(days) > 0 {
			return days
		}
	}
	return svc.conf.Days
}

func (svc *service) Grid(ctx context.Context, filter QueryFilter) (GridView, error) {
	snap, err := svc.load(ctx, filter)
	if err != nil {
		return GridView{}, err
	}
	days := svc.days(filter)
	return GridView{
		Grid:      timegrid.Reconcile(svc.slots, snap.normalized, days),
		Rejected:  snap.rejected,
		Conflicts: conflictsOn(snap.normalized, days),
	}, nil
}

func (svc *service) Agenda(ctx context.Context, filter QueryFilter) ([]timegrid.DayGroup, error) {
	snap, err := svc.load(ctx, filter)
	if err != nil {
		return nil, err
	}
	return timegrid.GroupByDay(snap.normalized, svc.days(filter)), nil
}

func (svc *service) List(ctx context.Context, filter QueryFilter) ([]timegrid.AgendaItem, error) {
	snap, err := svc.load(ctx, filter)
	if err != nil {
		return nil, err
	}
	return timegrid.Flatten(snap.normalized, svc.days(filter)), nil
}

func (svc *service) Conflicts(ctx context.Context, filter QueryFilter) ([]timegrid.Conflict, error) {
	snap, err := svc.load(ctx, filter)
	if err != nil {
		return nil, err
	}
	return conflictsOn(snap.normalized, svc.days(filter)), nil
}

func conflictsOn(entries []timegrid.Normalized, days []string) []timegrid.Conflict {
	visible := timegrid.NewDaySet(days...)
	conflicts := make([]timegrid.Conflict, 0)
	for _, c := range timegrid.FindConflicts(entries) {
		if visible.Contains(c.Day) {
			conflicts = append(conflicts, c)
		}
	}
	return conflicts
}
