package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core/calendar"
	"github.com/trezcool/darasa/core/schedule"
)

func TestCalendarApi(t *testing.T) {
	teacher := "teacher-cal"
	createSlot(t, teacher, schedule.Monday, "09:00", "10:00")

	for _, item := range []NewItemRequest{
		{InstitutionID: institution, Kind: "test", Title: "Algebra quiz", Date: "2026-10-19", Time: "08:00"},
		{InstitutionID: institution, Kind: "event", Title: "Sports day", Date: "2026-10-19"},
	} {
		rec := serve(http.MethodPost, "/v1/calendar/items", marchallObj(t, item))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := serve(http.MethodGet, "/v1/calendar?month=2026-10&institution="+institution+"&teacher="+teacher+"&date=2026-10-19")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var data struct {
		Month  string                    `json:"month"`
		Months []string                  `json:"months"`
		Marks  map[string][]calendar.Tag `json:"marks"`
		Agenda []struct {
			Type calendar.Tag `json:"type"`
			Time string       `json:"time"`
		} `json:"agenda"`
	}
	unmarshallBody(t, rec, &data)

	assert.Equal(t, "2026-10", data.Month)
	assert.Equal(t, []string{"2026-09", "2026-10", "2026-11"}, data.Months)

	var octMondays int
	for _, d := range []string{"2026-10-05", "2026-10-12", "2026-10-19", "2026-10-26"} {
		if assert.Contains(t, data.Marks, d) {
			octMondays++
		}
	}
	assert.Equal(t, 4, octMondays)
	assert.Contains(t, data.Marks, "2026-09-07")
	assert.Contains(t, data.Marks, "2026-11-30")
	assert.NotContains(t, data.Marks, "2026-10-20")
	assert.Equal(t, []calendar.Tag{calendar.TagClass, calendar.TagTest, calendar.TagEvent}, data.Marks["2026-10-19"])

	require.Len(t, data.Agenda, 3)
	assert.Equal(t, calendar.TagEvent, data.Agenda[0].Type)
	assert.Equal(t, calendar.AllDay, data.Agenda[0].Time)
	assert.Equal(t, calendar.TagTest, data.Agenda[1].Type)
	assert.Equal(t, "08:00", data.Agenda[1].Time)
	assert.Equal(t, calendar.TagClass, data.Agenda[2].Type)
	assert.Equal(t, "09:00", data.Agenda[2].Time)

	runHTTPTests(t, []httpTest{
		{
			name:     "bad month",
			method:   http.MethodGet,
			path:     "/v1/calendar?month=october",
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"month":"month must be formatted as YYYY-MM"}`),
		},
		{
			name:     "bad date",
			method:   http.MethodGet,
			path:     "/v1/calendar?month=2026-10&date=19/10/2026",
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"date":"date must be a date formatted as YYYY-MM-DD"}`),
		},
		{
			name:     "item kind",
			method:   http.MethodPost,
			path:     "/v1/calendar/items",
			body:     []byte(`{"kind":"holiday","title":"Break","date":"2026-10-20"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"kind":"kind must be one of test, event"}`),
		},
		{
			name:     "item time",
			method:   http.MethodPost,
			path:     "/v1/calendar/items",
			body:     []byte(`{"kind":"test","title":"Quiz","date":"2026-10-20","time":"8h"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"time":"time must be a 24h time formatted as HH:MM"}`),
		},
	})
}
