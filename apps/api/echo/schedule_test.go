package echoapi

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/notification"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/timegrid"
	"github.com/trezcool/ratiba/core/user"
	"github.com/trezcool/ratiba/tests"
)

type gridResponse struct {
	Days []string `json:"days"`
	Rows []struct {
		Slot  timegrid.TimeSlot `json:"slot"`
		Cells []struct {
			Kind  string          `json:"kind"`
			Entry *timegrid.Entry `json:"entry"`
			Span  int             `json:"span"`
		} `json:"cells"`
	} `json:"rows"`
	Rejected  []timegrid.Rejected `json:"rejected"`
	Conflicts []timegrid.Conflict `json:"conflicts"`
}

func Test_scheduleAPI_crud(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	jane := testutil.CreateUser(t, app.usrRepo, "Jane", "jane", "jane@test.cd", "", []string{user.RoleInstructor}, true)
	adminToken := app.getToken(t, admin)
	janeToken := app.getToken(t, jane)

	physics := schedule.NewSchedule{Subject: "Physics", InstructorID: jane.ID, Room: "B12", Day: "Mon/Wed", Time: "7:00 AM - 8:00 AM"}
	forbidden := marshalObj(t, httpErr{Error: "permission denied"})

	tests := []httpTest{
		{name: "Auth required", path: "/v1/schedules", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "empty", path: "/v1/schedules", token: janeToken, wantData: marshalList(t)},
		{
			name: "Admin required", method: http.MethodPost, path: "/v1/schedules", token: janeToken,
			body: marshalObj(t, physics), wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "bad time", method: http.MethodPost, path: "/v1/schedules", token: adminToken,
			body: []byte(`{"subject": "Maths", "day": "Mon", "time": "whenever"}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "bad day", method: http.MethodPost, path: "/v1/schedules", token: adminToken,
			body: []byte(`{"subject": "Maths", "day": "Someday", "time": "7:00 AM - 8:00 AM"}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown", path: "/v1/schedules/lol", token: janeToken,
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, app.do(t, tt))
		})
	}

	// create
	rec := app.do(t, httpTest{method: http.MethodPost, path: "/v1/schedules", token: adminToken, body: marshalObj(t, physics)})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created schedule.Schedule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Physics", created.Subject)
	assert.Equal(t, jane.ID, created.InstructorID)

	// the linked instructor is notified
	rec = app.do(t, httpTest{path: "/v1/me/notifications", token: janeToken})
	require.Equal(t, http.StatusOK, rec.Code)
	var notifs []notification.Notification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notifs))
	require.Len(t, notifs, 1)
	assert.Equal(t, "New class scheduled: Physics", notifs[0].Title)

	// retrieve & filter
	checkCodeAndData(t, httpTest{}, app.do(t, httpTest{path: "/v1/schedules/" + created.ID, token: janeToken}))
	tt := httpTest{path: "/v1/schedules?day=wed", token: janeToken, wantData: marshalList(t, created)}
	checkCodeAndData(t, tt, app.do(t, tt))
	tt = httpTest{path: "/v1/schedules?day=tue", token: janeToken, wantData: marshalList(t)}
	checkCodeAndData(t, tt, app.do(t, tt))

	// update
	tt = httpTest{method: http.MethodPut, path: "/v1/schedules/" + created.ID, token: janeToken, body: []byte(`{"room": "C1"}`)}
	assert.Equal(t, http.StatusForbidden, app.do(t, tt).Code)
	tt.token = adminToken
	rec = app.do(t, tt)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated schedule.Schedule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "C1", updated.Room)
	assert.Equal(t, "Physics", updated.Subject)

	tt = httpTest{method: http.MethodPut, path: "/v1/schedules/lol", token: adminToken, body: []byte(`{"room": "C1"}`)}
	assert.Equal(t, http.StatusNotFound, app.do(t, tt).Code)

	// delete
	tt = httpTest{method: http.MethodDelete, path: "/v1/schedules/" + created.ID, token: adminToken}
	assert.Equal(t, http.StatusNoContent, app.do(t, tt).Code)
	assert.Equal(t, http.StatusNotFound, app.do(t, tt).Code)
}

func Test_scheduleAPI_destroyMultiple(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	s1 := testutil.CreateSchedule(t, app.schedRepo, schedule.Schedule{Subject: "Physics", Day: "Mon", Time: "7:00 AM - 8:00 AM"})
	s2 := testutil.CreateSchedule(t, app.schedRepo, schedule.Schedule{Subject: "Maths", Day: "Tue", Time: "7:00 AM - 8:00 AM"})
	s3 := testutil.CreateSchedule(t, app.schedRepo, schedule.Schedule{Subject: "Art", Day: "Wed", Time: "7:00 AM - 8:00 AM"})

	v := make(url.Values)
	v.Add("id", s1.ID)
	v.Add("id", s3.ID)
	v.Add("id", "lol")
	tt := httpTest{method: http.MethodDelete, path: "/v1/schedules?" + v.Encode(), token: app.getToken(t, admin), wantCode: http.StatusNoContent}
	checkCodeAndData(t, tt, app.do(t, tt))

	left, err := app.deps.ScheduleSvc.Query(context.Background(), schedule.QueryFilter{})
	require.NoError(t, err)
	assert.Equal(t, []schedule.Schedule{s2}, left)
}

func Test_scheduleAPI_views(t *testing.T) {
	app := setup(t)
	jane := testutil.CreateUser(t, app.usrRepo, "Jane", "jane", "jane@test.cd", "", []string{user.RoleInstructor}, true)
	token := app.getToken(t, jane)

	physics := testutil.CreateSchedule(t, app.schedRepo, schedule.Schedule{
		Subject: "Physics", InstructorID: jane.ID, Day: "Mon/Wed", Time: "7:00 AM - 8:00 AM",
	})
	testutil.CreateSchedule(t, app.schedRepo, schedule.Schedule{Subject: "Maths", Day: "Mon", Time: "7:30 AM - 8:30 AM"})
	testutil.CreateSchedule(t, app.schedRepo, schedule.Schedule{Subject: "Art", Day: "Tue", Time: "whenever"})

	t.Run("grid", func(t *testing.T) {
		rec := app.do(t, httpTest{path: "/v1/schedules/grid", token: token})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var grid gridResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grid))
		assert.Equal(t, []string{timegrid.Monday, timegrid.Tuesday, timegrid.Wednesday}, grid.Days)
		require.Len(t, grid.Rows, 4)

		mon := func(row int) string { return grid.Rows[row].Cells[0].Kind }
		assert.Equal(t, []string{"blockStart", "covered", "covered", "empty"}, []string{mon(0), mon(1), mon(2), mon(3)})
		assert.Equal(t, 2, grid.Rows[0].Cells[0].Span)
		assert.Equal(t, physics.ID, grid.Rows[0].Cells[0].Entry.ID)
		assert.Equal(t, "blockStart", grid.Rows[0].Cells[2].Kind) // wednesday
		assert.Equal(t, "empty", grid.Rows[0].Cells[1].Kind)      // tuesday

		require.Len(t, grid.Rejected, 1)
		assert.Equal(t, "whenever", grid.Rejected[0].Time)
		require.Len(t, grid.Conflicts, 1)
		assert.Equal(t, timegrid.Monday, grid.Conflicts[0].Day)
	})

	t.Run("grid filtered", func(t *testing.T) {
		rec := app.do(t, httpTest{path: "/v1/schedules/grid?search=maths", token: token})
		require.Equal(t, http.StatusOK, rec.Code)

		var grid gridResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grid))
		assert.Equal(t, "empty", grid.Rows[0].Cells[0].Kind)
		assert.Equal(t, "blockStart", grid.Rows[1].Cells[0].Kind)
		assert.Empty(t, grid.Conflicts)
	})

	t.Run("agenda", func(t *testing.T) {
		rec := app.do(t, httpTest{path: "/v1/schedules/agenda", token: token})
		require.Equal(t, http.StatusOK, rec.Code)

		var groups []struct {
			Day     string `json:"day"`
			Entries []struct {
				Entry timegrid.Entry `json:"entry"`
			} `json:"entries"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &groups))
		require.Len(t, groups, 3)
		assert.Len(t, groups[0].Entries, 2)
		assert.Empty(t, groups[1].Entries)
		assert.Len(t, groups[2].Entries, 1)
	})

	t.Run("list", func(t *testing.T) {
		rec := app.do(t, httpTest{path: "/v1/schedules/list?instructor_id=" + jane.ID, token: token})
		require.Equal(t, http.StatusOK, rec.Code)

		var items []timegrid.AgendaItem
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
		require.Len(t, items, 2)
		assert.Equal(t, timegrid.Monday, items[0].Day)
		assert.Equal(t, timegrid.Wednesday, items[1].Day)
		assert.Equal(t, 7*60, items[0].StartTime)
	})

	t.Run("conflicts", func(t *testing.T) {
		rec := app.do(t, httpTest{path: "/v1/schedules/conflicts", token: token})
		require.Equal(t, http.StatusOK, rec.Code)

		var conflicts []timegrid.Conflict
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conflicts))
		require.Len(t, conflicts, 1)
		assert.Equal(t, "Physics", conflicts[0].First.Subject)
		assert.Equal(t, "Maths", conflicts[0].Second.Subject)
	})
}

func Test_scheduleAPI_stream(t *testing.T) {
	app := setup(t)
	jane := testutil.CreateUser(t, app.usrRepo, "Jane", "jane", "jane@test.cd", "", []string{user.RoleInstructor}, true)

	srv := httptest.NewServer(app)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/schedules/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+app.getToken(t, jane))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line) // subscribed from here on

	s, err := app.deps.ScheduleSvc.Create(context.Background(), schedule.NewSchedule{Subject: "Physics", Day: "Mon", Time: "7:00 AM - 8:00 AM"})
	require.NoError(t, err)

	var event, data string
	for event == "" || data == "" {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}
	assert.Equal(t, core.EventScheduleCreated, event)

	var got struct {
		Name    string `json:"name"`
		Payload struct {
			Schedule schedule.Schedule `json:"schedule"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal([]byte(data), &got))
	assert.Equal(t, core.EventScheduleCreated, got.Name)
	assert.Equal(t, s.ID, got.Payload.Schedule.ID)
}
