package api

import (
	"log"
	"net/http"

	"github.com/projuktisheba/tutorhub-api/internal/cascade"
	"github.com/projuktisheba/tutorhub-api/internal/daterange"
	"github.com/projuktisheba/tutorhub-api/internal/dbrepo"
	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/projuktisheba/tutorhub-api/internal/utils"
)

type TeacherHandler struct {
	DB       *dbrepo.DBRepository
	Lessons  *cascade.Service
	infoLog  *log.Logger
	errorLog *log.Logger
}

func NewTeacherHandler(db *dbrepo.DBRepository, lessons *cascade.Service, infoLog *log.Logger, errorLog *log.Logger) *TeacherHandler {
	return &TeacherHandler{
		DB:       db,
		Lessons:  lessons,
		infoLog:  infoLog,
		errorLog: errorLog,
	}
}

// -------------------- Teacher List --------------------
// Example: GET /api/teacher?page=1&limit=10&search=ann&status=true
func (h *TeacherHandler) ListTeachers(w http.ResponseWriter, r *http.Request) {
	status, err := queryBool(r, "status")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	p := utils.ParsePage(r)
	f := dbrepo.TeacherFilter{Search: r.URL.Query().Get("search"), Status: status}
	teachers, total, err := h.DB.TeacherRepo.ListTeachers(r.Context(), f, p.Limit, p.Offset())
	if err != nil {
		h.errorLog.Println("ERROR_01_ListTeachers:", err)
		utils.ServerError(w, err)
		return
	}
	writePage(w, "Teachers fetched successfully", p, teachers, total)
}

func (h *TeacherHandler) AllTeachers(w http.ResponseWriter, r *http.Request) {
	teachers, err := h.DB.TeacherRepo.AllTeachers(r.Context())
	if err != nil {
		h.errorLog.Println("ERROR_01_AllTeachers:", err)
		utils.ServerError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Teachers fetched successfully", "teachers", teachers)
}

func (h *TeacherHandler) ActiveTeachers(w http.ResponseWriter, r *http.Request) {
	teachers, err := h.DB.TeacherRepo.ActiveTeachers(r.Context())
	if err != nil {
		h.errorLog.Println("ERROR_01_ActiveTeachers:", err)
		utils.ServerError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Teachers fetched successfully", "teachers", teachers)
}

func (h *TeacherHandler) GetTeacher(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	teacher, err := h.DB.TeacherRepo.GetTeacher(r.Context(), id)
	if err != nil {
		h.errorLog.Println("ERROR_01_GetTeacher:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Teacher fetched successfully", "teacher", teacher)
}

// -------------------- Update Teacher --------------------
// Profile, status and pay scheme are saved in one transaction. A changed pay
// scheme is carried into this month's salary, which is then recomputed. A
// status change goes through the lifecycle rules.
func (h *TeacherHandler) UpdateTeacher(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	var req struct {
		models.Teacher
		Status *bool `json:"status"`
	}
	if err := utils.ReadValid(w, r, &req); err != nil {
		h.errorLog.Println("ERROR_01_UpdateTeacher:", err)
		utils.InvalidBody(w, err)
		return
	}
	t := req.Teacher
	t.ID = id
	if err := emailFree(r, h.DB.AccountRepo, t.Email, models.KindTeacher, id); err != nil {
		h.errorLog.Println("ERROR_02_UpdateTeacher:", err)
		utils.WriteError(w, err)
		return
	}
	if err := hashIfSet(&t.Password); err != nil {
		utils.WriteError(w, err)
		return
	}

	if err := h.Lessons.UpdateTeacher(r.Context(), &t, req.Status, now()); err != nil {
		h.errorLog.Println("ERROR_03_UpdateTeacher:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Teacher updated successfully", "teacher", t)
}

func (h *TeacherHandler) DeleteTeacher(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	if err := h.DB.TeacherRepo.DeleteTeacher(r.Context(), id, daterange.Week(now()).Start); err != nil {
		h.errorLog.Println("ERROR_01_DeleteTeacher:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Teacher deleted successfully", "", nil)
}

// -------------------- Teacher Statistics --------------------

// LessonCounts returns the caller's confirmed, cancelled and unviewed counts.
// Example: GET /api/teacher/me/lessons?monthCount=3
func (h *TeacherHandler) LessonCounts(w http.ResponseWriter, r *http.Request) {
	a, err := caller(r)
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	q, err := readRange(r)
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	counts, err := h.DB.ReportRepo.LessonCounts(r.Context(), q.Resolve(now()), a.ID)
	if err != nil {
		h.errorLog.Println("ERROR_01_LessonCounts:", err)
		utils.ServerError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Lesson counts fetched successfully", "counts", counts)
}

// StatusCount returns one of the caller's lesson counts.
// Example: GET /api/teacher/me/confirmed
func (h *TeacherHandler) StatusCount(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := caller(r)
		if err != nil {
			utils.BadRequest(w, err)
			return
		}
		q, err := readRange(r)
		if err != nil {
			utils.BadRequest(w, err)
			return
		}
		counts, err := h.DB.ReportRepo.LessonCounts(r.Context(), q.Resolve(now()), a.ID)
		if err != nil {
			h.errorLog.Println("ERROR_01_StatusCount:", err)
			utils.ServerError(w, err)
			return
		}
		var n int
		switch status {
		case models.StatusConfirmed:
			n = counts.Confirmed
		case models.StatusCancelled:
			n = counts.Cancelled
		default:
			n = counts.Unviewed
		}
		writeOK(w, http.StatusOK, "Lesson count fetched successfully", "count", n)
	}
}

// Chart returns the caller's lessons and students per month
func (h *TeacherHandler) Chart(w http.ResponseWriter, r *http.Request) {
	a, err := caller(r)
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	q, err := readRange(r)
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	chart, err := h.DB.ReportRepo.TeacherChart(r.Context(), a.ID, q.ResolveMonthly(now()))
	if err != nil {
		h.errorLog.Println("ERROR_01_Chart:", err)
		utils.ServerError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Chart fetched successfully", "chart", chart)
}

// LeaderboardOrder returns the caller's place among all teachers
// Example: GET /api/teacher/me/leaderboard-order?by=starCount&monthCount=1
func (h *TeacherHandler) LeaderboardOrder(w http.ResponseWriter, r *http.Request) {
	a, err := caller(r)
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	q, err := readRange(r)
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	entries, err := h.DB.ReportRepo.LeaderboardEntries(r.Context(), q.ResolveMonthly(now()))
	if err != nil {
		h.errorLog.Println("ERROR_01_LeaderboardOrder:", err)
		utils.ServerError(w, err)
		return
	}
	order, count := cascade.TeacherOrder(entries, a.ID, rankingMetric(r))
	resp := struct {
		Error        bool   `json:"error"`
		Status       string `json:"status"`
		Message      string `json:"message"`
		Order        int    `json:"order"`
		TeacherCount int    `json:"teacher_count"`
	}{
		Status:       "success",
		Message:      "Leaderboard order fetched successfully",
		Order:        order,
		TeacherCount: count,
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}
