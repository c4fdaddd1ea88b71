package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSON(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	require.NoError(t, ReadJSON(httptest.NewRecorder(), r, &v))
	assert.Equal(t, "x", v.Name)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}{"name":"y"}`))
	assert.Error(t, ReadJSON(httptest.NewRecorder(), r, &v))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"other":1}`))
	assert.Error(t, ReadJSON(httptest.NewRecorder(), r, &v))
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		key    string
	}{
		{"key error", models.ErrEmailExists, http.StatusConflict, "email-already-exist"},
		{"wrapped key error", fmt.Errorf("create: %w", models.ErrCourseExists), http.StatusConflict, "course-already-exists"},
		{"not found", models.ErrNotFound, http.StatusNotFound, ""},
		{"no rows", fmt.Errorf("load: %w", pgx.ErrNoRows), http.StatusNotFound, ""},
		{"validation", ValidationErrors{"email": "email is required"}, http.StatusBadRequest, ""},
		{"other", errors.New("boom"), http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			require.NoError(t, WriteError(rec, tt.err))
			assert.Equal(t, tt.status, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, true, body["error"])
			if tt.key != "" {
				assert.Equal(t, tt.key, body["key"])
			}
		})
	}
}

func TestServerErrorShape(t *testing.T) {
	rec := httptest.NewRecorder()
	ServerError(rec, errors.New("db down"))
	assert.JSONEq(t, `{"error":true,"message":{"error":"db down"}}`, rec.Body.String())
}

func TestValidate(t *testing.T) {
	type input struct {
		Email  string            `json:"email" validate:"required,email"`
		Name   string            `json:"name" validate:"notblank"`
		Salary models.PayScheme  `json:"salary"`
		Rows   []models.Syllabus `json:"rows" validate:"dive"`
	}

	err := Validate(&input{Email: "a@b.c", Name: "x", Salary: models.PayScheme{Type: "hourly", Value: 1}})
	assert.NoError(t, err)

	err = Validate(&input{Email: "nope", Name: "  ", Salary: models.PayScheme{Type: "weekly"}, Rows: []models.Syllabus{{}}})
	var verr ValidationErrors
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr, "email")
	assert.Contains(t, verr, "name")
	assert.Contains(t, verr, "salary.type")
	assert.Contains(t, verr, "rows[0].name")
	assert.Equal(t, "name cannot be blank", verr["name"])
}

func TestJWTRoundTrip(t *testing.T) {
	cfg := models.JWTConfig{
		SecretKey:     "access",
		RefreshSecret: "refresh",
		Issuer:        "tutorhub",
		Audience:      "tutorhub-users",
		Expiry:        time.Hour,
		Refresh:       24 * time.Hour,
	}
	user := models.JWT{ID: 7, Name: "Ann", Email: "ann@x.io", Kind: models.KindTeacher, Role: models.RoleTeacher}

	access, err := GenerateJWT(user, cfg)
	require.NoError(t, err)
	claims, err := ParseJWT(access, cfg)
	require.NoError(t, err)
	got := claims.Account()
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, models.RoleTeacher, got.Role)
	assert.Equal(t, "tutorhub-users", got.Audience)

	refresh, jti, err := GenerateRefreshToken(user, cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, jti)
	rc, err := ParseRefreshToken(refresh, cfg)
	require.NoError(t, err)
	assert.Equal(t, jti, rc.RegisteredClaims.ID)

	_, err = ParseJWT(refresh, cfg)
	assert.Error(t, err, "a refresh token is not an access token")

	expired := cfg
	expired.Expiry = -time.Minute
	stale, err := GenerateJWT(user, expired)
	require.NoError(t, err)
	_, err = ParseJWT(stale, cfg)
	assert.Error(t, err)
}

func TestPasswordAndOTP(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, CheckPassword("s3cret", hash))
	assert.False(t, CheckPassword("other", hash))

	otp, err := GenerateOTP()
	require.NoError(t, err)
	assert.Len(t, otp, 6)
}

func TestParams(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?page=3&limit=25&teacherId=4", nil)
	p := ParsePage(r)
	assert.Equal(t, Page{Page: 3, Limit: 25}, p)
	assert.Equal(t, 50, p.Offset())
	assert.Equal(t, 3, p.TotalPages(51))

	p = ParsePage(httptest.NewRequest(http.MethodGet, "/?page=-1&limit=abc", nil))
	assert.Equal(t, Page{Page: 1, Limit: 10}, p)

	id, err := QueryInt64(r, "teacherId")
	require.NoError(t, err)
	assert.Equal(t, int64(4), id)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "12")
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	id, err = IDParam(r, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	_, err = IDParam(r, "missing")
	assert.Error(t, err)
}

func TestInvalidBody(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, InvalidBody(rec, ValidationErrors{"name": "name is required"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"fields"`)

	rec = httptest.NewRecorder()
	require.NoError(t, InvalidBody(rec, errors.New("body must only contain a single JSON value")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"fields"`)
}

func TestAccountContext(t *testing.T) {
	_, ok := AccountFrom(context.Background())
	assert.False(t, ok)

	ctx := WithAccount(context.Background(), models.JWT{ID: 3, Role: models.RoleSuperAdmin})
	a, ok := AccountFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(3), a.ID)
	assert.True(t, IsAdmin(a))
	assert.False(t, IsAdmin(models.JWT{Role: models.RoleWorker}))
}
