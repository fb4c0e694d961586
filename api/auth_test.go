package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/api"
	"github.com/warp/payroll-engine/payroll"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func (s *testServer) getWithToken(t *testing.T, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth_GatesHoursReport(t *testing.T) {
	// GIVEN: A server authenticating by Bearer token, with one period
	s := newTestServerWithSecret(t, testSecret)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, base+"/config/default", nil, "").Code)
	periods := decode[[]api.PeriodDTO](t, s.do(t, http.MethodGet, base+"/periods", nil, ""))
	path := base + "/periods/" + periods[0].ID + "/hours"

	payrollToken, err := api.SignActorToken(testSecret, payroll.Actor{ID: "u-1", Role: "payroll"}, time.Hour)
	require.NoError(t, err)
	staffToken, err := api.SignActorToken(testSecret, payroll.Actor{ID: "u-2", Role: "staff"}, time.Hour)
	require.NoError(t, err)
	expired, err := api.SignActorToken(testSecret, payroll.Actor{ID: "u-1", Role: "payroll"}, -time.Minute)
	require.NoError(t, err)
	forged, err := api.SignActorToken([]byte("another-secret-another-secret-xx"), payroll.Actor{ID: "u-1", Role: "payroll"}, time.Hour)
	require.NoError(t, err)

	// THEN: Only a valid payroll token reaches the report
	assert.Equal(t, http.StatusOK, s.getWithToken(t, path, payrollToken).Code)
	assert.Equal(t, http.StatusForbidden, s.getWithToken(t, path, staffToken).Code)
	assert.Equal(t, http.StatusForbidden, s.getWithToken(t, path, "").Code)
	assert.Equal(t, http.StatusUnauthorized, s.getWithToken(t, path, expired).Code)
	assert.Equal(t, http.StatusUnauthorized, s.getWithToken(t, path, forged).Code)
}

func TestJWTAuth_IgnoresActorHeaders(t *testing.T) {
	// GIVEN: Token auth is on
	s := newTestServerWithSecret(t, testSecret)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, base+"/config/default", nil, "").Code)
	periods := decode[[]api.PeriodDTO](t, s.do(t, http.MethodGet, base+"/periods", nil, ""))

	// WHEN: A caller claims a role through headers only
	rec := s.do(t, http.MethodGet, base+"/periods/"+periods[0].ID+"/hours", nil, "admin")

	// THEN: The headers are not trusted
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestJWTAuth_RejectsMalformedHeader(t *testing.T) {
	s := newTestServerWithSecret(t, testSecret)
	req := httptest.NewRequest(http.MethodGet, base+"/periods", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()

	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
