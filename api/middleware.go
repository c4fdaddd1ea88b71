package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/projuktisheba/tutorhub-api/internal/metrics"
	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/projuktisheba/tutorhub-api/internal/utils"
)

// Logger prints one line per request
func (app *application) Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		app.infoLog.Printf("%s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

// Metrics counts requests by route pattern and records their latency
func (app *application) Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// RecordServerErrors writes every 5xx response to the JSON error file
func (app *application) RecordServerErrors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		if ww.Status() < http.StatusInternalServerError {
			return
		}
		ev := app.errorFile.Error().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Str("request_id", middleware.GetReqID(r.Context()))
		if a, ok := utils.AccountFrom(r.Context()); ok {
			ev = ev.Str("account_kind", a.Kind).Int64("account_id", a.ID)
		}
		ev.Msg("server error")
	})
}

func unauthorized(w http.ResponseWriter, err error) {
	utils.WriteJSON(w, http.StatusUnauthorized, models.Response{
		Error:   true,
		Status:  "error",
		Message: err.Error(),
	})
}

// Authenticate verifies the bearer access token and stores its account in the
// request context
func (app *application) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			unauthorized(w, errors.New("missing bearer token"))
			return
		}
		claims, err := utils.ParseJWT(strings.TrimSpace(token), app.config.JWT)
		if err != nil {
			app.errorLog.Println("ERROR_01_Authenticate:", err)
			unauthorized(w, errors.New("invalid or expired token"))
			return
		}
		next.ServeHTTP(w, r.WithContext(utils.WithAccount(r.Context(), claims.Account())))
	})
}

// RequireRoles lets through accounts holding one of roles. The super admin
// passes every admin gate.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	if allowed[models.RoleAdmin] {
		allowed[models.RoleSuperAdmin] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := utils.AccountFrom(r.Context())
			if !ok {
				unauthorized(w, errors.New("not authenticated"))
				return
			}
			if !allowed[a.Role] {
				utils.WriteJSON(w, http.StatusForbidden, models.Response{
					Error:   true,
					Status:  "error",
					Message: "access denied",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
