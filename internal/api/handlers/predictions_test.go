package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateParam(t *testing.T) {
	fallback := time.Date(2026, 1, 15, 18, 30, 0, 0, time.UTC)

	date, err := parseDateParam("", fallback)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), date)

	date, err = parseDateParam("2026-02-03", fallback)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), date)

	_, err = parseDateParam("02/03/2026", fallback)
	assert.Error(t, err)
}

func quietHandlerLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// validationRouter routes a handler with no backing stores; only request
// validation paths may be exercised against it.
func validationRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewPredictionHandler(nil, nil, nil, nil, nil, nil, quietHandlerLogger())
	jobs := NewJobsHandler(nil, nil, quietHandlerLogger())

	router := gin.New()
	router.GET("/api/v1/predictions", handler.GetPredictions)
	router.GET("/api/v1/accuracy", handler.GetAccuracy)
	router.GET("/api/v1/jobs", jobs.GetJobs)
	router.POST("/api/v1/jobs/ingest", jobs.TriggerIngest)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, path, nil)
	require.NoError(t, err)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestGetPredictionsRejectsMalformedDate(t *testing.T) {
	router := validationRouter()

	for _, date := range []string{"01/15/2026", "yesterday", "2026-13-40"} {
		recorder := doRequest(t, router, http.MethodGet, "/api/v1/predictions?date="+date)
		assert.Equal(t, http.StatusBadRequest, recorder.Code, "date %q", date)
		assert.Contains(t, recorder.Body.String(), "YYYY-MM-DD")
	}
}

func TestGetAccuracyRejectsInvalidDays(t *testing.T) {
	router := validationRouter()

	for _, days := range []string{"0", "-3", "91", "week"} {
		recorder := doRequest(t, router, http.MethodGet, "/api/v1/accuracy?days="+days)
		assert.Equal(t, http.StatusBadRequest, recorder.Code, "days %q", days)
		assert.Contains(t, recorder.Body.String(), "between 1 and 90")
	}
}

func TestTriggerIngestRejectsMalformedDate(t *testing.T) {
	router := validationRouter()

	recorder := doRequest(t, router, http.MethodPost, "/api/v1/jobs/ingest?date=15-01-2026")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestGetJobsWithoutScheduler(t *testing.T) {
	router := validationRouter()

	recorder := doRequest(t, router, http.MethodGet, "/api/v1/jobs")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"scheduler_enabled":false`)
}
