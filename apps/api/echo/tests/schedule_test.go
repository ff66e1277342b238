package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core/schedule"
)

func newSlotBody(t *testing.T, inst, teacher string, day schedule.Day, start, end string) []byte {
	return marchallObj(t, schedule.NewSlot{
		InstitutionID: inst,
		TeacherID:     teacher,
		ClassID:       "class-1",
		SubjectID:     "math",
		Day:           day,
		StartTime:     start,
		EndTime:       end,
	})
}

func createSlot(t *testing.T, teacher string, day schedule.Day, start, end string) schedule.Slot {
	rec := serve(http.MethodPost, "/v1/schedule/slots", newSlotBody(t, institution, teacher, day, start, end))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var slot schedule.Slot
	unmarshallBody(t, rec, &slot)
	return slot
}

func TestScheduleApi_create(t *testing.T) {
	teacher := "teacher-create"
	a := createSlot(t, teacher, schedule.Monday, "09:00", "10:00")
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "ay-1", a.AcademicYearID)
	assert.True(t, a.IsActive)

	t.Run("overlapping slot conflicts", func(t *testing.T) {
		rec := serve(http.MethodPost, "/v1/schedule/slots", newSlotBody(t, institution, teacher, schedule.Monday, "09:30", "10:30"))
		assert.Equal(t, http.StatusConflict, rec.Code)

		var data struct {
			Error    string        `json:"error"`
			Existing schedule.Slot `json:"existing"`
		}
		unmarshallBody(t, rec, &data)
		assert.Equal(t, a.ID, data.Existing.ID)
		assert.Contains(t, data.Error, "09:00")
	})

	t.Run("touching slot does not conflict", func(t *testing.T) {
		c := createSlot(t, teacher, schedule.Monday, "10:00", "11:00")
		assert.Equal(t, "10:00", c.StartTime)
	})

	t.Run("same time, other day", func(t *testing.T) {
		createSlot(t, teacher, schedule.Tuesday, "09:30", "10:30")
	})

	runHTTPTests(t, []httpTest{
		{
			name:     "no active academic year",
			method:   http.MethodPost,
			path:     "/v1/schedule/slots",
			body:     newSlotBody(t, "inst-without-year", teacher, schedule.Monday, "12:00", "13:00"),
			wantCode: http.StatusUnprocessableEntity,
			wantData: marchallObj(t, httpErr{Error: schedule.ErrMissingActiveAcademicYear.Error()}),
		},
		{
			name:     "end before start",
			method:   http.MethodPost,
			path:     "/v1/schedule/slots",
			body:     newSlotBody(t, institution, teacher, schedule.Monday, "13:00", "12:00"),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"end_time":"end_time must be after start_time"}`),
		},
		{
			name:     "empty slot",
			method:   http.MethodPost,
			path:     "/v1/schedule/slots",
			body:     newSlotBody(t, institution, teacher, schedule.Monday, "13:00", "13:00"),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"end_time":"end_time must be after start_time"}`),
		},
		{
			name:     "bad day and time",
			method:   http.MethodPost,
			path:     "/v1/schedule/slots",
			body:     newSlotBody(t, institution, teacher, "XYZ", "9:00", "10:00"),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{
				"day_of_week":"day_of_week must be one of MON, TUE, WED, THU, FRI, SAT, SUN",
				"start_time":"start_time must be a 24h time formatted as HH:MM"
			}`),
		},
		{
			name:     "missing teacher",
			method:   http.MethodPost,
			path:     "/v1/schedule/slots",
			body:     newSlotBody(t, institution, "", schedule.Monday, "13:00", "14:00"),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"teacher_id":"this field is required"}`),
		},
		{
			name:     "malformed body",
			method:   http.MethodPost,
			path:     "/v1/schedule/slots",
			body:     []byte(`{"teacher_id":`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "invalid JSON body"}),
		},
	})
}

func TestScheduleApi_checkConflict(t *testing.T) {
	teacher := "teacher-gate"
	a := createSlot(t, teacher, schedule.Wednesday, "09:00", "10:00")

	check := func(start, end, excludeID string) []byte {
		return marchallObj(t, ConflictCheckRequest{
			NewSlot: schedule.NewSlot{
				InstitutionID: institution,
				TeacherID:     teacher,
				ClassID:       "class-2",
				SubjectID:     "physics",
				Day:           schedule.Wednesday,
				StartTime:     start,
				EndTime:       end,
			},
			ExcludeID: excludeID,
		})
	}

	runHTTPTests(t, []httpTest{
		{
			name:     "overlap",
			method:   http.MethodPost,
			path:     "/v1/schedule/conflicts",
			body:     check("09:30", "10:30", ""),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, ConflictCheckResponse{Conflict: true, With: &a}),
		},
		{
			name:     "touching",
			method:   http.MethodPost,
			path:     "/v1/schedule/conflicts",
			body:     check("10:00", "11:00", ""),
			wantCode: http.StatusOK,
			wantData: []byte(`{"conflict":false,"with":null}`),
		},
		{
			name:     "excluded slot being edited",
			method:   http.MethodPost,
			path:     "/v1/schedule/conflicts",
			body:     check("09:30", "10:30", a.ID),
			wantCode: http.StatusOK,
			wantData: []byte(`{"conflict":false,"with":null}`),
		},
	})

	// the gate writes nothing
	slots, err := scheduleSvc.Query(bgCtx, schedule.QueryFilter{TeacherID: teacher}, nil)
	require.NoError(t, err)
	assert.Len(t, slots, 1)
}

func TestScheduleApi_updateAndDeactivate(t *testing.T) {
	teacher := "teacher-update"
	a := createSlot(t, teacher, schedule.Friday, "08:00", "09:00")
	b := createSlot(t, teacher, schedule.Friday, "09:00", "10:00")

	runHTTPTests(t, []httpTest{
		{
			name:     "moving onto another slot conflicts",
			method:   http.MethodPut,
			path:     "/v1/schedule/slots/" + b.ID,
			body:     []byte(`{"start_time":"08:30"}`),
			wantCode: http.StatusConflict,
		},
		{
			name:     "unknown slot",
			method:   http.MethodPut,
			path:     "/v1/schedule/slots/unknown",
			body:     []byte(`{"start_time":"08:30"}`),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name:     "end before start after merge",
			method:   http.MethodPut,
			path:     "/v1/schedule/slots/" + b.ID,
			body:     []byte(`{"end_time":"08:59"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"end_time":"end_time must be after start_time"}`),
		},
	})

	rec := serve(http.MethodPost, "/v1/schedule/slots/"+a.ID+"/deactivate")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var deactivated schedule.Slot
	unmarshallBody(t, rec, &deactivated)
	assert.False(t, deactivated.IsActive)

	// the inactive slot no longer blocks the move
	rec = serve(http.MethodPut, "/v1/schedule/slots/"+b.ID, []byte(`{"start_time":"08:30"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var moved schedule.Slot
	unmarshallBody(t, rec, &moved)
	assert.Equal(t, "08:30", moved.StartTime)
	assert.Equal(t, "10:00", moved.EndTime)

	rec = serve(http.MethodGet, "/v1/schedule/slots?teacher="+teacher+"&ordering=start_time")
	require.Equal(t, http.StatusOK, rec.Code)
	var slots []schedule.Slot
	unmarshallBody(t, rec, &slots)
	require.Len(t, slots, 2)
	assert.Equal(t, a.ID, slots[0].ID)
	assert.Equal(t, b.ID, slots[1].ID)
}
