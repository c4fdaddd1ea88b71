package api

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	handlers "github.com/projuktisheba/tutorhub-api/api/handlers"
	"github.com/projuktisheba/tutorhub-api/internal/logger"
	"github.com/projuktisheba/tutorhub-api/internal/metrics"
	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/projuktisheba/tutorhub-api/internal/utils"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJWT = models.JWTConfig{
	SecretKey:     "access",
	RefreshSecret: "refresh",
	Issuer:        "tutorhub",
	Audience:      "tutorhub_users",
	Expiry:        time.Hour,
	Refresh:       24 * time.Hour,
}

func testApp(errorFile io.Writer) *application {
	discard := log.New(io.Discard, "", 0)
	return &application{
		config:    models.Config{JWT: testJWT},
		infoLog:   discard,
		errorLog:  discard,
		errorFile: logger.New(errorFile),
		Handlers:  &handlers.HandlerRepo{},
	}
}

func bearer(t *testing.T, a models.JWT) string {
	t.Helper()
	token, err := utils.GenerateJWT(a, testJWT)
	require.NoError(t, err)
	return "Bearer " + token
}

var (
	adminAccount   = models.JWT{ID: 1, Kind: models.KindAdmin, Role: models.RoleAdmin}
	superAccount   = models.JWT{ID: 2, Kind: models.KindAdmin, Role: models.RoleSuperAdmin}
	teacherAccount = models.JWT{ID: 4, Kind: models.KindTeacher, Role: models.RoleTeacher}
)

func TestAuthenticate(t *testing.T) {
	app := testApp(io.Discard)
	var seen models.JWT
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = utils.AccountFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := app.Authenticate(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", bearer(t, teacherAccount))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(4), seen.ID)
	assert.Equal(t, models.KindTeacher, seen.Kind)
}

func TestRequireRoles(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	tests := []struct {
		name    string
		roles   []string
		account *models.JWT
		status  int
	}{
		{"no account", []string{models.RoleAdmin}, nil, http.StatusUnauthorized},
		{"admin", []string{models.RoleAdmin}, &adminAccount, http.StatusNoContent},
		{"super admin passes admin gate", []string{models.RoleAdmin}, &superAccount, http.StatusNoContent},
		{"admin fails super admin gate", []string{models.RoleSuperAdmin}, &adminAccount, http.StatusForbidden},
		{"teacher fails admin gate", []string{models.RoleAdmin}, &teacherAccount, http.StatusForbidden},
		{"teacher gate", []string{models.RoleTeacher}, &teacherAccount, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.account != nil {
				r = r.WithContext(utils.WithAccount(r.Context(), *tt.account))
			}
			rec := httptest.NewRecorder()
			RequireRoles(tt.roles...)(ok).ServeHTTP(rec, r)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRecordServerErrors(t *testing.T) {
	var buf bytes.Buffer
	app := testApp(&buf)

	failing := app.RecordServerErrors(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.ServerError(w, io.ErrUnexpectedEOF)
	}))
	r := httptest.NewRequest(http.MethodGet, "/api/dashboard/finance", nil)
	r = r.WithContext(utils.WithAccount(r.Context(), adminAccount))
	failing.ServeHTTP(httptest.NewRecorder(), r)
	assert.Contains(t, buf.String(), `"status":500`)
	assert.Contains(t, buf.String(), `"path":"/api/dashboard/finance"`)
	assert.Contains(t, buf.String(), `"account_kind":"admin"`)

	buf.Reset()
	missing := app.RecordServerErrors(http.NotFoundHandler())
	missing.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Empty(t, buf.String())
}

func TestRoutes(t *testing.T) {
	app := testApp(io.Discard)
	srv := httptest.NewServer(app.routes())
	defer srv.Close()

	get := func(path, auth string) int {
		req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
		require.NoError(t, err)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	before := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/ping", "200"))
	assert.Equal(t, http.StatusOK, get("/ping", ""))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/ping", "200")))

	assert.Equal(t, http.StatusOK, get("/metrics", ""))
	assert.Equal(t, http.StatusUnauthorized, get("/api/teacher", ""))
	assert.Equal(t, http.StatusUnauthorized, get("/api/user", ""))
	assert.Equal(t, http.StatusForbidden, get("/api/bonus", bearer(t, teacherAccount)))
	assert.Equal(t, http.StatusForbidden, get("/api/admin", bearer(t, adminAccount)))
	assert.Equal(t, http.StatusForbidden, get("/api/teacher/me/chart", bearer(t, adminAccount)))
	assert.Equal(t, http.StatusForbidden, get("/api/salary/me", bearer(t, adminAccount)))
	assert.Equal(t, http.StatusForbidden, get("/api/receipt", bearer(t, teacherAccount)))
	assert.Equal(t, http.StatusNotFound, get("/api/unknown", bearer(t, adminAccount)))
}
