package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/projuktisheba/tutorhub-api/internal/cascade"
	"github.com/projuktisheba/tutorhub-api/internal/daterange"
	"github.com/projuktisheba/tutorhub-api/internal/dbrepo"
	"github.com/projuktisheba/tutorhub-api/internal/mailer"
	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/projuktisheba/tutorhub-api/internal/utils"
)

type HandlerRepo struct {
	Auth         *AuthHandler
	Admin        *AdminHandler
	Teacher      *TeacherHandler
	Student      *StudentHandler
	Worker       *WorkerHandler
	Course       *CourseHandler
	Syllabus     *SyllabusHandler
	Lesson       *LessonHandler
	Salary       *SalaryHandler
	Bonus        *BonusHandler
	Fine         *FineHandler
	Notification *NotificationHandler
	Income       *EntryHandler
	Expense      *EntryHandler
	Receipt      *ReceiptHandler
	Demo         *DemoHandler
	Dashboard    *DashboardHandler
}

func NewHandlerRepo(db *dbrepo.DBRepository, cfg models.Config, lessons *cascade.Service, mail mailer.Mailer, infoLog *log.Logger, errorLog *log.Logger) *HandlerRepo {
	return &HandlerRepo{
		Auth:         NewAuthHandler(db, cfg, mail, infoLog, errorLog),
		Admin:        NewAdminHandler(db.AdminRepo, db.AccountRepo, infoLog, errorLog),
		Teacher:      NewTeacherHandler(db, lessons, infoLog, errorLog),
		Student:      NewStudentHandler(db.StudentRepo, db.AccountRepo, infoLog, errorLog),
		Worker:       NewWorkerHandler(db.WorkerRepo, db.AccountRepo, infoLog, errorLog),
		Course:       NewCourseHandler(db.CourseRepo, infoLog, errorLog),
		Syllabus:     NewSyllabusHandler(db.SyllabusRepo, infoLog, errorLog),
		Lesson:       NewLessonHandler(db.LessonRepo, lessons, infoLog, errorLog),
		Salary:       NewSalaryHandler(db.SalaryRepo, lessons, infoLog, errorLog),
		Bonus:        NewBonusHandler(db.BonusRepo, infoLog, errorLog),
		Fine:         NewFineHandler(db.FineRepo, infoLog, errorLog),
		Notification: NewNotificationHandler(db.NotificationRepo, infoLog, errorLog),
		Income:       NewEntryHandler("Income", db.IncomeRepo, infoLog, errorLog),
		Expense:      NewEntryHandler("Expense", db.ExpenseRepo, infoLog, errorLog),
		Receipt:      NewReceiptHandler(db.ReceiptRepo, db.WorkerRepo, infoLog, errorLog),
		Demo:         NewDemoHandler(db.DemoRepo, infoLog, errorLog),
		Dashboard:    NewDashboardHandler(db.ReportRepo, infoLog, errorLog),
	}
}

// now is the clock used for default ranges
var now = time.Now

var errNoAccount = errors.New("not authenticated")

// readRange parses the range query parameters of r
func readRange(r *http.Request) (daterange.Query, error) {
	return daterange.ParseQuery(r.URL.Query(), time.Local)
}

// caller returns the authenticated account of r
func caller(r *http.Request) (models.JWT, error) {
	a, ok := utils.AccountFrom(r.Context())
	if !ok {
		return a, errNoAccount
	}
	return a, nil
}

// pageResponse is the envelope of every paginated listing
type pageResponse[T any] struct {
	Error      bool   `json:"error"`
	Status     string `json:"status"`
	Message    string `json:"message"`
	Data       []T    `json:"data"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	Total      int    `json:"total"`
	TotalPages int    `json:"totalPages"`
}

func writePage[T any](w http.ResponseWriter, message string, p utils.Page, data []T, total int) {
	utils.WriteJSON(w, http.StatusOK, pageResponse[T]{
		Status:     "success",
		Message:    message,
		Data:       data,
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: p.TotalPages(total),
	})
}

// writeOK sends a success envelope carrying payload under key
func writeOK(w http.ResponseWriter, status int, message, key string, payload any) {
	resp := map[string]any{
		"error":   false,
		"status":  "success",
		"message": message,
	}
	if key != "" {
		resp[key] = payload
	}
	utils.WriteJSON(w, status, resp)
}

// emailFree fails with models.ErrEmailExists when email belongs to any
// account other than (kind, id)
func emailFree(r *http.Request, accounts *dbrepo.AccountRepo, email, kind string, id int64) error {
	taken, err := accounts.EmailTaken(r.Context(), email, kind, id)
	if err != nil {
		return err
	}
	if taken {
		return models.ErrEmailExists
	}
	return nil
}

// hashIfSet replaces a non-empty password with its hash
func hashIfSet(password *string) error {
	if *password == "" {
		return nil
	}
	if err := checkPassword(*password); err != nil {
		return err
	}
	hashed, err := utils.HashPassword(*password)
	if err != nil {
		return err
	}
	*password = hashed
	return nil
}

// queryBool reads an optional boolean query parameter
func queryBool(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", name, raw)
	}
	return &v, nil
}

// rankingMetric reads ?by=, defaulting to the lesson count
func rankingMetric(r *http.Request) string {
	if r.URL.Query().Get("by") == models.ByStarCount {
		return models.ByStarCount
	}
	return models.ByLessonCount
}
