package metrics

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(m *Metrics) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/api/v1/users/:id", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})
	router.GET("/metrics", m.Handler())
	return router
}

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	m := New()
	router := setupRouter(m)

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users/"+id, nil))
		require.Equal(t, http.StatusNotFound, w.Code)
	}

	got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("/api/v1/users/:id", "404"))
	assert.Equal(t, float64(2), got)
	assert.Equal(t, 1, testutil.CollectAndCount(m.requestDuration))
}

func TestMiddleware_UnknownRoute(t *testing.T) {
	m := New()
	router := setupRouter(m)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestsTotal.WithLabelValues("unknown", "404")))
}

func TestRecordAuth(t *testing.T) {
	m := New()
	m.RecordAuth(OperationLogin, OutcomeSuccess)
	m.RecordAuth(OperationLogin, OutcomeInvalid)
	m.RecordAuth(OperationLogin, OutcomeInvalid)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.authAttempts.WithLabelValues(OperationLogin, OutcomeSuccess)))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.authAttempts.WithLabelValues(OperationLogin, OutcomeInvalid)))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := New()
	m.RecordAuth(OperationRegister, OutcomeDuplicate)
	router := setupRouter(m)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `user_service_auth_attempts_total{operation="register",outcome="duplicate"} 1`))
	assert.Contains(t, body, "go_goroutines")
}

func TestRegisterDBStats(t *testing.T) {
	// sql.Open does not dial, so pool stats are available without a server.
	db, err := sql.Open("pgx", "host=127.0.0.1 port=1 user=test dbname=test sslmode=disable")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	m := New()
	require.NoError(t, m.RegisterDBStats(db, "user_service"))
	assert.Error(t, m.RegisterDBStats(db, "user_service"), "duplicate registration must fail")

	w := httptest.NewRecorder()
	setupRouter(m).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `go_sql_open_connections{db_name="user_service"} 0`)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.RecordAuth(OperationLogin, OutcomeSuccess)
	router := setupRouter(m)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
