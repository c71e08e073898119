package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core/notification"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/user"
	"github.com/trezcool/ratiba/tests"
)

func Test_meAPI_profile(t *testing.T) {
	app := setup(t)
	jane := testutil.CreateUser(t, app.usrRepo, "Jane", "jane", "jane@test.cd", "", []string{user.RoleInstructor}, true)
	token := app.getToken(t, jane)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/me", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "get", path: "/v1/me", token: token, wantData: marshalObj(t, jane)},
		{
			name: "bad phone", method: http.MethodPut, path: "/v1/me", token: token,
			body: []byte(`{"phone": "call me"}`), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"phone": "invalid phone number"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, app.do(t, tt))
		})
	}

	t.Run("update", func(t *testing.T) {
		rec := app.do(t, httpTest{
			method: http.MethodPut, path: "/v1/me", token: token,
			body: []byte(`{"department": " Physics ", "email_notifications": true}`),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got user.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "Jane", got.Name)
		assert.Equal(t, "Physics", got.Department)
		assert.True(t, got.EmailNotifications)
		assert.Equal(t, jane.Roles, got.Roles)
	})
}

func Test_meAPI_timetable(t *testing.T) {
	app := setup(t)
	jane := testutil.CreateUser(t, app.usrRepo, "Jane", "jane", "jane@test.cd", "", []string{user.RoleInstructor}, true)
	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	token := app.getToken(t, jane)

	testutil.CreateSchedule(t, app.schedRepo, schedule.Schedule{Subject: "Physics", InstructorID: jane.ID, Day: "Mon", Time: "7:00 AM - 8:00 AM"})
	testutil.CreateSchedule(t, app.schedRepo, schedule.Schedule{Subject: "Maths", InstructorID: admin.ID, Day: "Tue", Time: "7:00 AM - 8:00 AM"})

	// instructor_id cannot be overridden
	rec := app.do(t, httpTest{path: "/v1/me/grid?instructor_id=" + admin.ID, token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var grid gridResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grid))
	assert.Equal(t, "blockStart", grid.Rows[0].Cells[0].Kind)
	assert.Equal(t, "Physics", grid.Rows[0].Cells[0].Entry.Subject)
	assert.Equal(t, "empty", grid.Rows[0].Cells[1].Kind)

	rec = app.do(t, httpTest{path: "/v1/me/agenda", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	var groups []struct {
		Entries []json.RawMessage `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &groups))
	require.Len(t, groups, 3)
	assert.Len(t, groups[0].Entries, 1)
	assert.Empty(t, groups[1].Entries)

	// instructors only
	tt := httpTest{
		path: "/v1/me/grid", token: app.getToken(t, admin),
		wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "permission denied"}),
	}
	checkCodeAndData(t, tt, app.do(t, tt))
}

func Test_meAPI_notifications(t *testing.T) {
	app := setup(t)
	jane := testutil.CreateUser(t, app.usrRepo, "Jane", "jane", "jane@test.cd", "", []string{user.RoleInstructor}, true)
	john := testutil.CreateUser(t, app.usrRepo, "John", "john", "john@test.cd", "", []string{user.RoleInstructor}, true)
	token := app.getToken(t, jane)

	for _, subject := range []string{"Physics", "Maths", "Art"} {
		_, err := app.deps.ScheduleSvc.Create(context.Background(), schedule.NewSchedule{
			Subject: subject, InstructorID: jane.ID, Day: "Mon", Time: "7:00 AM - 8:00 AM",
		})
		require.NoError(t, err)
	}

	list := func(path string) []notification.Notification {
		t.Helper()
		rec := app.do(t, httpTest{path: path, token: token})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var notifs []notification.Notification
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notifs))
		return notifs
	}
	titles := func(notifs []notification.Notification) []string {
		ts := make([]string, len(notifs))
		for i, n := range notifs {
			ts[i] = n.Title
		}
		return ts
	}

	notifs := list("/v1/me/notifications")
	assert.Equal(t, []string{"New class scheduled: Art", "New class scheduled: Maths", "New class scheduled: Physics"}, titles(notifs))

	tests := []httpTest{
		{
			name: "no ids", method: http.MethodPost, path: "/v1/me/notifications/read", token: token,
			body: []byte(`{"ids": []}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "other user's", method: http.MethodPost, path: "/v1/me/notifications/read", token: app.getToken(t, john),
			body: marshalObj(t, notification.MarkReadRequest{IDs: []string{notifs[0].ID}}), wantData: marshalObj(t, markedResponse{Marked: 0}),
		},
		{
			name: "read one", method: http.MethodPost, path: "/v1/me/notifications/read", token: token,
			body: marshalObj(t, notification.MarkReadRequest{IDs: []string{notifs[0].ID, "lol"}}), wantData: marshalObj(t, markedResponse{Marked: 1}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, app.do(t, tt))
		})
	}

	assert.Equal(t, []string{"New class scheduled: Maths", "New class scheduled: Physics"}, titles(list("/v1/me/notifications?unread=true")))

	tt := httpTest{method: http.MethodPost, path: "/v1/me/notifications/read-all", token: token, wantData: marshalObj(t, markedResponse{Marked: 2})}
	checkCodeAndData(t, tt, app.do(t, tt))
	assert.Empty(t, list("/v1/me/notifications?unread=true"))
	assert.Len(t, list("/v1/me/notifications"), 3)
}
