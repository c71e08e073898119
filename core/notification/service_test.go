package notification_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/notification"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/user"
	emailsvc "github.com/trezcool/ratiba/services/email"
	"github.com/trezcool/ratiba/services/eventbus"
	logsvc "github.com/trezcool/ratiba/services/logger"
	inmemdb "github.com/trezcool/ratiba/storage/database/inmem"
)

type testEnv struct {
	usrSvc   user.Service
	schedSvc schedule.Service
	notifSvc notification.Service
	mailSvc  *emailsvc.ConsoleServiceMock
}

func setup(t *testing.T) testEnv {
	t.Helper()
	conf := core.NewTestConfig()
	db := inmemdb.Open()
	logger := logsvc.NewTestLogger()
	bus := eventbus.New(logger)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	usrSvc := user.NewService(inmemdb.NewUserRepository(db), mailSvc, conf)
	schedSvc := schedule.NewService(inmemdb.NewScheduleRepository(db), bus, logger, conf.Grid)
	notifSvc := notification.NewService(inmemdb.NewNotificationRepository(db), usrSvc, schedSvc, mailSvc, bus, logger)
	t.Cleanup(func() {
		notifSvc.Close()
		schedSvc.Close()
	})
	return testEnv{usrSvc: usrSvc, schedSvc: schedSvc, notifSvc: notifSvc, mailSvc: mailSvc}
}

func (env testEnv) instructor(t *testing.T, uname string, emails bool) user.User {
	t.Helper()
	usr, err := env.usrSvc.Create(context.Background(), user.NewUser{
		Name:               uname,
		Username:           uname,
		Email:              uname + "@test.cd",
		Password:           "Str0ng#Pass",
		PasswordConfirm:    "Str0ng#Pass",
		Roles:              []string{user.RoleInstructor},
		EmailNotifications: emails,
	})
	require.NoError(t, err)
	return usr
}

func TestService_scheduleEvents(t *testing.T) {
	ctx := context.Background()
	env := setup(t)
	jane := env.instructor(t, "jane", true)
	john := env.instructor(t, "john", false)

	s, err := env.schedSvc.Create(ctx, schedule.NewSchedule{
		Subject: "Physics", InstructorID: jane.ID, Room: "B12", Day: "Mon/Wed", Time: "7:00 AM - 8:00 AM",
	})
	require.NoError(t, err)

	notifs, err := env.notifSvc.Query(ctx, jane.ID, notification.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, "New class scheduled: Physics", notifs[0].Title)
	assert.Equal(t, "Mon/Wed, 7:00 AM - 8:00 AM, Room B12", notifs[0].Message)
	assert.Equal(t, s.ID, notifs[0].ScheduleID)
	assert.False(t, notifs[0].Read)

	sent := env.mailSvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "jane@test.cd", sent[0].To[0].Address)
	assert.Contains(t, sent[0].TextContent, "Physics")
	assert.Contains(t, sent[0].TextContent, "Room: B12")

	// reassign to john: both hear about it, only jane by email
	_, err = env.schedSvc.Update(ctx, s.ID, schedule.UpdateSchedule{InstructorID: &john.ID})
	require.NoError(t, err)

	notifs, err = env.notifSvc.Query(ctx, jane.ID, notification.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, notifs, 2)
	assert.Equal(t, "Class reassigned: Physics", notifs[0].Title)

	notifs, err = env.notifSvc.Query(ctx, john.ID, notification.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, "New class scheduled: Physics", notifs[0].Title)
	assert.Len(t, env.mailSvc.SentMessages(), 2)

	require.NoError(t, env.schedSvc.Delete(ctx, s.ID))
	notifs, err = env.notifSvc.Query(ctx, john.ID, notification.QueryFilter{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, notifs, 2)
	assert.Equal(t, "Class cancelled: Physics", notifs[0].Title)

	cnt, err := env.notifSvc.MarkRead(ctx, john.ID, notifs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cnt)
	cnt, err = env.notifSvc.MarkAllRead(ctx, john.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cnt)
	notifs, err = env.notifSvc.Query(ctx, john.ID, notification.QueryFilter{UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, notifs)
}

func TestService_unknownOrInactiveInstructor(t *testing.T) {
	ctx := context.Background()
	env := setup(t)
	jane := env.instructor(t, "jane", true)
	inactive := false
	_, err := env.usrSvc.Update(ctx, jane.ID, user.UpdateUser{Name: jane.Name, Username: jane.Username, Email: jane.Email, IsActive: &inactive})
	require.NoError(t, err)

	_, err = env.schedSvc.Create(ctx, schedule.NewSchedule{Subject: "Physics", InstructorID: jane.ID, Day: "Mon", Time: "7:00 AM - 8:00 AM"})
	require.NoError(t, err)
	_, err = env.schedSvc.Create(ctx, schedule.NewSchedule{Subject: "Maths", InstructorID: "c0ffee00-0000-4000-8000-000000000000", Day: "Mon", Time: "8:00 AM - 9:00 AM"})
	require.NoError(t, err)

	notifs, err := env.notifSvc.Query(ctx, jane.ID, notification.QueryFilter{})
	require.NoError(t, err)
	assert.Empty(t, notifs)
	assert.Empty(t, env.mailSvc.SentMessages())
}

func TestService_SendDailyDigest(t *testing.T) {
	ctx := context.Background()
	env := setup(t)
	jane := env.instructor(t, "jane", true)
	john := env.instructor(t, "john", false)
	bob := env.instructor(t, "bob", true) // nothing on mondays

	for _, ns := range []schedule.NewSchedule{
		{Subject: "Chemistry", InstructorID: jane.ID, Day: "Mon", Time: "8:00 AM - 9:00 AM"},
		{Subject: "Physics", InstructorID: jane.ID, Room: "B12", Day: "Mon/Wed", Time: "7:00 AM - 8:00 AM"},
		{Subject: "Maths", InstructorID: john.ID, Day: "Mon", Time: "7:00 AM - 8:00 AM"},
		{Subject: "Biology", InstructorID: bob.ID, Day: "Tue", Time: "7:00 AM - 8:00 AM"},
	} {
		_, err := env.schedSvc.Create(ctx, ns)
		require.NoError(t, err)
	}
	env.mailSvc.Reset()

	monday := time.Date(2024, time.January, 1, 6, 0, 0, 0, time.UTC)
	sent, err := env.notifSvc.SendDailyDigest(ctx, monday)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	msgs := env.mailSvc.SentMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "jane@test.cd", msgs[0].To[0].Address)
	assert.Equal(t, "Your classes for Monday", msgs[0].Subject)
	text := msgs[0].TextContent
	assert.Contains(t, text, "Your classes for Monday")
	require.Contains(t, text, "Physics")
	require.Contains(t, text, "Chemistry")
	assert.Less(t, strings.Index(text, "Physics"), strings.Index(text, "Chemistry")) // by start time
	assert.NotContains(t, text, "Maths")

	sunday := monday.AddDate(0, 0, 6)
	sent, err = env.notifSvc.SendDailyDigest(ctx, sunday)
	require.NoError(t, err)
	assert.Zero(t, sent)
}
