package notification

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/timegrid"
	"github.com/trezcool/ratiba/core/user"
)

type Service interface {
	Query(ctx context.Context, userID string, filter QueryFilter) ([]Notification, error)
	MarkRead(ctx context.Context, userID string, ids ...string) (int, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
	// SendDailyDigest emails every active instructor their classes for now's weekday
	// and returns the number of emails sent.
	SendDailyDigest(ctx context.Context, now time.Time) (int, error)
	// Close detaches the service from the event bus.
	Close()
}

type service struct {
	repo        Repository
	usrSvc      user.Service
	schedSvc    schedule.Service
	mailSvc     core.EmailService
	logger      core.Logger
	unsubscribe func()
}

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	usrSvc user.Service,
	schedSvc schedule.Service,
	mailSvc core.EmailService,
	bus core.EventBus,
	logger core.Logger,
) Service {
	svc := &service{
		repo:     repo,
		usrSvc:   usrSvc,
		schedSvc: schedSvc,
		mailSvc:  mailSvc,
		logger:   logger,
	}
	svc.unsubscribe = core.SubscribeAll(bus, core.ScheduleEvents, svc.onScheduleEvent)
	return svc
}

func (svc *service) Close() { svc.unsubscribe() }

func (svc *service) Query(ctx context.Context, userID string, filter QueryFilter) ([]Notification, error) {
	return svc.repo.FilterNotifications(ctx, userID, filter)
}

func (svc *service) MarkRead(ctx context.Context, userID string, ids ...string) (int, error) {
	return svc.repo.MarkRead(ctx, userID, ids...)
}

func (svc *service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return svc.repo.MarkAllRead(ctx, userID)
}

type change struct {
	userID string
	title  string
}

// recipients lists who must hear about evt: the linked instructor and,
// when the class was reassigned, the previous one.
func recipients(name string, evt schedule.Event) []change {
	s := evt.Schedule
	var changes []change
	switch name {
	case core.EventScheduleCreated:
		changes = append(changes, change{s.InstructorID, "New class scheduled: " + s.Subject})
	case core.EventScheduleDeleted:
		changes = append(changes, change{s.InstructorID, "Class cancelled: " + s.Subject})
	case core.EventScheduleUpdated:
		if evt.Previous != nil && evt.Previous.InstructorID != s.InstructorID {
			changes = append(changes,
				change{evt.Previous.InstructorID, "Class reassigned: " + evt.Previous.Subject},
				change{s.InstructorID, "New class scheduled: " + s.Subject},
			)
		} else {
			changes = append(changes, change{s.InstructorID, "Class updated: " + s.Subject})
		}
	}

	kept := changes[:0]
	for _, c := range changes {
		if c.userID != "" {
			kept = append(kept, c)
		}
	}
	return kept
}

func (svc *service) onScheduleEvent(ctx context.Context, e core.Event) {
	evt, ok := e.Payload.(schedule.Event)
	if !ok {
		return
	}
	for _, c := range recipients(e.Name, evt) {
		if err := svc.notify(ctx, c, evt.Schedule); err != nil {
			svc.logger.Error(fmt.Sprintf("notifying user %s", c.userID), err)
		}
	}
}

func (svc *service) notify(ctx context.Context, c change, s schedule.Schedule) error {
	usr, err := svc.usrSvc.GetByID(ctx, c.userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil
		}
		return pkgerrors.Wrap(err, "finding user by ID")
	}
	if !usr.IsActive {
		return nil
	}

	_, err = svc.repo.CreateNotification(ctx, Notification{
		ID:         uuid.New().String(),
		UserID:     usr.ID,
		Title:      c.title,
		Message:    describe(s),
		ScheduleID: s.ID,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return pkgerrors.Wrap(err, "creating notification")
	}

	if usr.EmailNotifications && usr.Email != "" {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{usr.Address()},
			Subject:      c.title,
			TemplateName: "schedule_changed",
			TemplateData: map[string]interface{}{
				"Name":     usr.Name,
				"Title":    c.title,
				"Schedule": s,
			},
		})
	}
	return nil
}

// describe renders "Mon/Wed, 7:00 AM - 8:00 AM, Room B12".
func describe(s schedule.Schedule) string {
	parts := []string{s.Day, s.Time}
	if s.Room != "" {
		parts = append(parts, "Room "+s.Room)
	}
	if s.Section != "" {
		parts = append(parts, "Section "+s.Section)
	}
	return strings.Join(parts, ", ")
}

type digestItem struct {
	Time    string
	Subject string
	Section string
	Room    string
}

func (svc *service) SendDailyDigest(ctx context.Context, now time.Time) (int, error) {
	weekday := now.Weekday().String()
	day := strings.ToLower(weekday)
	active := true
	instructors, err := svc.usrSvc.Query(ctx, &user.QueryFilter{Roles: []string{user.RoleInstructor}, IsActive: &active}, nil)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "querying instructors")
	}

	format := svc.schedSvc.GridConfig().TimeFormat
	var sent int
	for _, usr := range instructors {
		if !usr.EmailNotifications || usr.Email == "" {
			continue
		}
		list, err := svc.schedSvc.List(ctx, schedule.QueryFilter{InstructorID: usr.ID, Day: day})
		if err != nil {
			return sent, pkgerrors.Wrap(err, "listing schedules")
		}
		if len(list) == 0 {
			continue
		}

		items := make([]digestItem, 0, len(list))
		for _, it := range list {
			items = append(items, digestItem{
				Time:    timegrid.FormatTimeRange(it.StartTime, it.EndTime, format),
				Subject: it.Entry.Subject,
				Section: it.Entry.Section,
				Room:    it.Entry.Room,
			})
		}
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{usr.Address()},
			Subject:      "Your classes for " + weekday,
			TemplateName: "daily_digest",
			TemplateData: map[string]interface{}{
				"Name":  usr.Name,
				"Day":   weekday,
				"Items": items,
			},
		})
		sent++
	}
	return sent, nil
}
