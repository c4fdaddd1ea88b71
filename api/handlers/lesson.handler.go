package api

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/projuktisheba/tutorhub-api/internal/cascade"
	"github.com/projuktisheba/tutorhub-api/internal/daterange"
	"github.com/projuktisheba/tutorhub-api/internal/dbrepo"
	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/projuktisheba/tutorhub-api/internal/utils"
)

type LessonHandler struct {
	DB       *dbrepo.LessonRepo
	Lessons  *cascade.Service
	infoLog  *log.Logger
	errorLog *log.Logger
}

func NewLessonHandler(db *dbrepo.LessonRepo, lessons *cascade.Service, infoLog *log.Logger, errorLog *log.Logger) *LessonHandler {
	return &LessonHandler{
		DB:       db,
		Lessons:  lessons,
		infoLog:  infoLog,
		errorLog: errorLog,
	}
}

// -------------------- Add New Lesson --------------------
// Example: POST /api/lesson
//
//	{"role":"current","date":"2024-03-11T00:00:00Z","day":1,"time":"10:00","teacher_id":4,"course_id":2,
//	 "students":[{"student_id":9,"attendance":0}]}
func (h *LessonHandler) AddLesson(w http.ResponseWriter, r *http.Request) {
	var l models.Lesson
	if err := utils.ReadValid(w, r, &l); err != nil {
		h.errorLog.Println("ERROR_01_AddLesson:", err)
		utils.InvalidBody(w, err)
		return
	}
	if err := h.Lessons.CreateLesson(r.Context(), &l); err != nil {
		h.errorLog.Println("ERROR_02_AddLesson:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusCreated, "Lesson added successfully", "lesson", l)
}

// Example: GET /api/lesson/main?teacherId=4
func (h *LessonHandler) MainLessons(w http.ResponseWriter, r *http.Request) {
	teacherID, err := utils.QueryInt64(r, "teacherId")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	lessons, err := h.DB.MainLessons(r.Context(), teacherID)
	if err != nil {
		h.errorLog.Println("ERROR_01_MainLessons:", err)
		utils.ServerError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Main lessons fetched successfully", "lessons", lessons)
}

// CurrentLessons returns this week's table
func (h *LessonHandler) CurrentLessons(w http.ResponseWriter, r *http.Request) {
	teacherID, err := utils.QueryInt64(r, "teacherId")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	lessons, err := h.DB.CurrentLessons(r.Context(), teacherID, daterange.Week(now()))
	if err != nil {
		h.errorLog.Println("ERROR_01_CurrentLessons:", err)
		utils.ServerError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Current lessons fetched successfully", "lessons", lessons)
}

// panelFilter reads the panel query parameters
func panelFilter(r *http.Request) (models.LessonFilter, error) {
	var f models.LessonFilter
	q, err := readRange(r)
	if err != nil {
		return f, err
	}
	if f.TeacherID, err = utils.QueryInt64(r, "teacherId"); err != nil {
		return f, err
	}
	if f.StudentID, err = utils.QueryInt64(r, "studentId"); err != nil {
		return f, err
	}
	f.Role = r.URL.Query().Get("role")
	// main lessons carry no date
	if f.Role != models.LessonMain {
		rng := q.Resolve(now())
		f.From, f.To = &rng.Start, &rng.End
	}
	f.Status = r.URL.Query().Get("status")
	if raw := r.URL.Query().Get("attendance"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < models.AttendanceAbsent || v > models.AttendanceExcused {
			return f, fmt.Errorf("invalid attendance %q", raw)
		}
		f.Attendance = &v
	}
	return f, nil
}

// scopeFilter narrows f to what the caller may see
func scopeFilter(a models.JWT, f *models.LessonFilter) error {
	switch {
	case utils.IsAdmin(a):
	case a.Kind == models.KindTeacher:
		f.TeacherID = a.ID
	case a.Kind == models.KindStudent:
		f.StudentID = a.ID
	default:
		return models.ErrAccessDenied
	}
	return nil
}

// ownRows drops every student row except studentID's
func ownRows(lessons []*models.Lesson, studentID int64) {
	for _, l := range lessons {
		rows := l.Students[:0]
		for _, s := range l.Students {
			if s.StudentID == studentID {
				rows = append(rows, s)
			}
		}
		l.Students = rows
	}
}

// Example: GET /api/lesson/panel?startDate=2024-03-01&endDate=2024-03-31&status=confirmed&attendance=1&page=1
func (h *LessonHandler) PanelLessons(w http.ResponseWriter, r *http.Request) {
	a, err := caller(r)
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	f, err := panelFilter(r)
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	if err := scopeFilter(a, &f); err != nil {
		utils.WriteError(w, err)
		return
	}
	p := utils.ParsePage(r)
	lessons, total, err := h.DB.PanelLessons(r.Context(), f, p.Limit, p.Offset())
	if err != nil {
		h.errorLog.Println("ERROR_01_PanelLessons:", err)
		utils.ServerError(w, err)
		return
	}
	if a.Kind == models.KindStudent {
		ownRows(lessons, a.ID)
	}
	writePage(w, "Lessons fetched successfully", p, lessons, total)
}

// checkPanelPatch limits what a non admin caller may change on lesson l.
// A teacher may review their own lesson; a student may only rate it and
// leave feedback on their own row.
func checkPanelPatch(a models.JWT, l *models.Lesson, p *cascade.LessonPatch) error {
	if utils.IsAdmin(a) {
		return nil
	}
	reshapes := p.TeacherID != nil || p.CourseID != nil || p.Date != nil || p.Day != nil ||
		p.Time != nil || p.Students != nil
	switch a.Kind {
	case models.KindTeacher:
		if l.TeacherID != a.ID || reshapes {
			return models.ErrAccessDenied
		}
		for _, row := range p.Rows {
			if row.RatingByStudent != nil || row.Feedback != nil {
				return models.ErrAccessDenied
			}
		}
		return nil
	case models.KindStudent:
		if reshapes || p.Status != nil || p.Note != nil || p.Task != nil {
			return models.ErrAccessDenied
		}
		for _, row := range p.Rows {
			if row.StudentID != a.ID || row.Attendance != nil {
				return models.ErrAccessDenied
			}
		}
		return nil
	}
	return models.ErrAccessDenied
}

// update reads a lesson patch and applies it through the cascade
func (h *LessonHandler) update(w http.ResponseWriter, r *http.Request, op string, panel bool) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	a, err := caller(r)
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	var patch cascade.LessonPatch
	if err := utils.ReadValid(w, r, &patch); err != nil {
		h.errorLog.Printf("ERROR_01_%s: %v", op, err)
		utils.InvalidBody(w, err)
		return
	}
	var guard func(*models.Lesson) error
	if panel && !utils.IsAdmin(a) {
		guard = func(current *models.Lesson) error {
			return checkPanelPatch(a, current, &patch)
		}
	}
	l, err := h.Lessons.UpdateLessonGuarded(r.Context(), id, patch, guard)
	if err != nil {
		h.errorLog.Printf("ERROR_02_%s: %v", op, err)
		utils.WriteError(w, err)
		return
	}
	if a.Kind == models.KindStudent {
		ownRows([]*models.Lesson{l}, a.ID)
	}
	writeOK(w, http.StatusOK, "Lesson updated successfully", "lesson", l)
}

// UpdateTable edits a lesson of the main or current table
func (h *LessonHandler) UpdateTable(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, "UpdateTable", false)
}

// UpdatePanel reviews a lesson: status, attendance, rating and feedback
func (h *LessonHandler) UpdatePanel(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, "UpdatePanel", true)
}

func (h *LessonHandler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	l, err := h.Lessons.DeleteLesson(r.Context(), id)
	if err != nil {
		h.errorLog.Println("ERROR_01_DeleteLesson:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Lesson deleted successfully", "lesson", l)
}

// GenerateWeek copies the main table into this week's current lessons
func (h *LessonHandler) GenerateWeek(w http.ResponseWriter, r *http.Request) {
	n, err := h.DB.GenerateCurrentWeek(r.Context(), daterange.Week(now()))
	if err != nil {
		h.errorLog.Println("ERROR_01_GenerateWeek:", err)
		utils.WriteError(w, err)
		return
	}
	h.infoLog.Printf("generated %d current lessons", n)
	writeOK(w, http.StatusCreated, "Current week generated successfully", "count", n)
}
