package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listRequest struct {
	Company string `query:"company" validate:"omitempty,max=16"`
	Cohort  string `query:"cohort" default:"local" validate:"oneof=local global"`
	Limit   int    `query:"limit" default:"50" validate:"gte=1,lte=500"`
}

func TestReadAndValidateRequestDefaults(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/x?company=JPM", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	var r listRequest
	assert.Nil(t, ReadAndValidateRequest(c, &r))
	assert.Equal(t, "JPM", r.Company)
	assert.Equal(t, "local", r.Cohort)
	assert.Equal(t, 50, r.Limit)
}

func TestReadAndValidateRequestErrors(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/x?cohort=regional&limit=900", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	var r listRequest
	res := ReadAndValidateRequest(c, &r)
	errs, ok := res.([]ValidationError)
	require.True(t, ok)
	require.Len(t, errs, 2)
	assert.Equal(t, "ERR_ONEOF", errs[0].Code)
	assert.Equal(t, "cohort must be one of: local, global", errs[0].Message)
	assert.Equal(t, "cohort", errs[0].Field)
	assert.Equal(t, "ERR_LTE", errs[1].Code)
}

type enumRequest struct {
	Nature string `query:"nature" default:"all" validate:"test_nature"`
}

func TestRegisterEnum(t *testing.T) {
	require.NoError(t, RegisterEnum("test_nature", "all", "good", "bad"))
	require.NoError(t, RegisterEnum("test_nature", "all", "good", "bad"))
	e := echo.New()

	var ok enumRequest
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/x?nature=good", nil), httptest.NewRecorder())
	assert.Nil(t, ReadAndValidateRequest(c, &ok))

	var def enumRequest
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/x", nil), httptest.NewRecorder())
	assert.Nil(t, ReadAndValidateRequest(c, &def))
	assert.Equal(t, "all", def.Nature)

	var bad enumRequest
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/x?nature=none", nil), httptest.NewRecorder())
	errs, isList := ReadAndValidateRequest(c, &bad).([]ValidationError)
	require.True(t, isList)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_TEST_NATURE", errs[0].Code)
	assert.Equal(t, "nature must be one of: all, good, bad", errs[0].Message)
}

func TestAppErrorResponse(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	err := UnprocessableError("ERR_INSUFFICIENT_SAMPLE", "too few scores").WithError(errors.New("cause"))
	require.NoError(t, AppErrorResponse(c, err))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Status int        `json:"status"`
		Data   []AppError `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 422, body.Status)
	assert.Equal(t, "ERR_INSUFFICIENT_SAMPLE", body.Data[0].Code)

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, AppErrorResponse(c, errors.New("plain")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
