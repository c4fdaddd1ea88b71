package models

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	APPName    = "TutorHub"
	APPVersion = "1.0"
)

// Response is the type for response
type Response struct {
	Error   bool   `json:"error"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// JWT holds the authenticated account carried by an access token
type JWT struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Kind     string `json:"kind"` // admin, teacher, student, worker
	Role     string `json:"role"` // super-admin, admin, teacher, student, worker
	Issuer   string `json:"iss"`
	Audience string `json:"aud"`
}

type JWTConfig struct {
	SecretKey     string
	RefreshSecret string
	Issuer        string
	Audience      string
	Algorithm     string
	Expiry        time.Duration
	Refresh       time.Duration
}

type DBConfig struct {
	DSN    string
	DEVDSN string
}

type MailConfig struct {
	From           string
	Password       string
	SMTPHost       string
	SMTPPort       int
	SendGridAPIKey string
}

type Config struct {
	Port        int
	Env         string
	JWT         JWTConfig
	DB          DBConfig
	Mail        MailConfig
	CORSOrigins []string
	LogDir      string
	CronEnabled bool
	OTPTTL      time.Duration
}

// ErrNotFound is returned by repositories when the requested row does not exist
var ErrNotFound = errors.New("not found")

// KeyError is a client error with a machine readable key
type KeyError struct {
	Status  int
	Key     string
	Message string
}

func (e *KeyError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Key, e.Message)
	}
	return e.Key
}

func NewKeyError(status int, key string) *KeyError {
	return &KeyError{Status: status, Key: key}
}

var (
	ErrEmailExists          = NewKeyError(http.StatusConflict, "email-already-exist")
	ErrUserNotFound         = NewKeyError(http.StatusNotFound, "user-not-found")
	ErrInvalidPassword      = NewKeyError(http.StatusNotFound, "invalid-password")
	ErrOldPasswordIncorrect = NewKeyError(http.StatusBadRequest, "old-password-incorrect")
	ErrInvalidOTP           = NewKeyError(http.StatusBadRequest, "invalid-otp")
	ErrOTPExpired           = NewKeyError(http.StatusBadRequest, "otp-expired")
	ErrSuperAdminExists     = NewKeyError(http.StatusConflict, "super-admin-already-exist")
	ErrCourseExists         = NewKeyError(http.StatusConflict, "course-already-exists")
	ErrCourseNotFound       = NewKeyError(http.StatusBadRequest, "course-not-found")
	ErrStudentNotFound      = NewKeyError(http.StatusBadRequest, "student-not-found")
	ErrTeacherNotFound      = NewKeyError(http.StatusBadRequest, "teacher-not-found")
	ErrBonusExists          = NewKeyError(http.StatusConflict, "bonus-already-exist")
	ErrHasCurrentLessons    = NewKeyError(http.StatusBadRequest, "has-current-week-lessons")
	ErrCurrentWeekExists    = NewKeyError(http.StatusBadRequest, "current-week-exists")
	ErrLessonAmountConflict = NewKeyError(http.StatusConflict, "lesson-amount-conflict")
	ErrAccountDisabled      = NewKeyError(http.StatusForbidden, "account-disabled")
	ErrAccessDenied         = NewKeyError(http.StatusForbidden, "access-denied")
)
