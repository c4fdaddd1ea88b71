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

type DashboardHandler struct {
	DB       *dbrepo.ReportRepo
	infoLog  *log.Logger
	errorLog *log.Logger
}

func NewDashboardHandler(db *dbrepo.ReportRepo, infoLog *log.Logger, errorLog *log.Logger) *DashboardHandler {
	return &DashboardHandler{
		DB:       db,
		infoLog:  infoLog,
		errorLog: errorLog,
	}
}

// dayRange and monthRange read the range query or answer 400
func dayRange(w http.ResponseWriter, r *http.Request) (daterange.Range, bool) {
	q, err := readRange(r)
	if err != nil {
		utils.BadRequest(w, err)
		return daterange.Range{}, false
	}
	return q.Resolve(now()), true
}

func monthRange(w http.ResponseWriter, r *http.Request) (daterange.Range, bool) {
	q, err := readRange(r)
	if err != nil {
		utils.BadRequest(w, err)
		return daterange.Range{}, false
	}
	return q.ResolveMonthly(now()), true
}

// LessonCount answers /confirmed-lessons and /cancelled-lessons
func (h *DashboardHandler) LessonCount(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rng, ok := dayRange(w, r)
		if !ok {
			return
		}
		counts, err := h.DB.LessonCounts(r.Context(), rng, 0)
		if err != nil {
			h.errorLog.Println("ERROR_01_DashboardLessonCount:", err)
			utils.ServerError(w, err)
			return
		}
		n := counts.Confirmed
		if status == models.StatusCancelled {
			n = counts.Cancelled
		}
		writeOK(w, http.StatusOK, "Lesson count fetched successfully", "count", n)
	}
}

// UnviewedLessons lists past lessons nobody confirmed or cancelled, by teacher
func (h *DashboardHandler) UnviewedLessons(w http.ResponseWriter, r *http.Request) {
	rng, ok := dayRange(w, r)
	if !ok {
		return
	}
	list, err := h.DB.UnviewedLessons(r.Context(), rng, now())
	if err != nil {
		h.errorLog.Println("ERROR_01_UnviewedLessons:", err)
		utils.ServerError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Unviewed lessons fetched successfully", "teachers", list)
}

// Example: GET /api/dashboard/finance?monthCount=3
func (h *DashboardHandler) Finance(w http.ResponseWriter, r *http.Request) {
	rng, ok := dayRange(w, r)
	if !ok {
		return
	}
	summary, err := h.DB.Finance(r.Context(), rng)
	if err != nil {
		h.errorLog.Println("ERROR_01_Finance:", err)
		utils.ServerError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Finance fetched successfully", "finance", summary)
}

func (h *DashboardHandler) CourseStatistics(w http.ResponseWriter, r *http.Request) {
	rng, ok := dayRange(w, r)
	if !ok {
		return
	}
	stats, err := h.DB.CourseStatistics(r.Context(), rng)
	if err != nil {
		h.errorLog.Println("ERROR_01_CourseStatistics:", err)
		utils.ServerError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Course statistics fetched successfully", "courses", stats)
}

func (h *DashboardHandler) Advertising(w http.ResponseWriter, r *http.Request) {
	rng, ok := dayRange(w, r)
	if !ok {
		return
	}
	shares, err := h.DB.Advertising(r.Context(), rng)
	if err != nil {
		h.errorLog.Println("ERROR_01_Advertising:", err)
		utils.ServerError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Advertising fetched successfully", "advertising", shares)
}

// TeachersResults ranks every teacher and splits off the top three.
// Example: GET /api/dashboard/teachers-results?by=starCount&monthCount=1
func (h *DashboardHandler) TeachersResults(w http.ResponseWriter, r *http.Request) {
	rng, ok := monthRange(w, r)
	if !ok {
		return
	}
	entries, err := h.DB.LeaderboardEntries(r.Context(), rng)
	if err != nil {
		h.errorLog.Println("ERROR_01_TeachersResults:", err)
		utils.ServerError(w, err)
		return
	}
	leaders, others := cascade.Rank(entries, rankingMetric(r))
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"error":   false,
		"status":  "success",
		"message": "Teachers results fetched successfully",
		"leaders": leaders,
		"others":  others,
	})
}

// Chart counts students created per month
func (h *DashboardHandler) Chart(w http.ResponseWriter, r *http.Request) {
	rng, ok := monthRange(w, r)
	if !ok {
		return
	}
	chart, err := h.DB.StudentsChart(r.Context(), rng)
	if err != nil {
		h.errorLog.Println("ERROR_01_DashboardChart:", err)
		utils.ServerError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Chart fetched successfully", "chart", chart)
}

func (h *DashboardHandler) ActiveStudents(w http.ResponseWriter, r *http.Request) {
	n, err := h.DB.ActiveStudents(r.Context())
	if err != nil {
		h.errorLog.Println("ERROR_01_ActiveStudents:", err)
		utils.ServerError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Active students fetched successfully", "count", n)
}

// DemoCount answers /held-demos and /confirmed-demos
func (h *DashboardHandler) DemoCount(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rng, ok := dayRange(w, r)
		if !ok {
			return
		}
		n, err := h.DB.DemoCount(r.Context(), rng, status)
		if err != nil {
			h.errorLog.Println("ERROR_01_DemoCount:", err)
			utils.ServerError(w, err)
			return
		}
		writeOK(w, http.StatusOK, "Demo count fetched successfully", "count", n)
	}
}
