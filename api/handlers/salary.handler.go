package api

import (
	"log"
	"net/http"
	"time"

	"github.com/projuktisheba/tutorhub-api/internal/cascade"
	"github.com/projuktisheba/tutorhub-api/internal/daterange"
	"github.com/projuktisheba/tutorhub-api/internal/dbrepo"
	"github.com/projuktisheba/tutorhub-api/internal/utils"
)

type SalaryHandler struct {
	DB       *dbrepo.SalaryRepo
	Lessons  *cascade.Service
	infoLog  *log.Logger
	errorLog *log.Logger
}

func NewSalaryHandler(db *dbrepo.SalaryRepo, lessons *cascade.Service, infoLog *log.Logger, errorLog *log.Logger) *SalaryHandler {
	return &SalaryHandler{
		DB:       db,
		Lessons:  lessons,
		infoLog:  infoLog,
		errorLog: errorLog,
	}
}

// ListSalaries totals every teacher's salary over whole months.
// Example: GET /api/salary?startDate=2024-01-01&endDate=2024-03-31&search=ann&page=1
func (h *SalaryHandler) ListSalaries(w http.ResponseWriter, r *http.Request) {
	q, err := readRange(r)
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	p := utils.ParsePage(r)
	list, total, err := h.DB.ListSalaries(r.Context(), q.ResolveMonthly(now()), r.URL.Query().Get("search"), p.Limit, p.Offset())
	if err != nil {
		h.errorLog.Println("ERROR_01_ListSalaries:", err)
		utils.ServerError(w, err)
		return
	}
	writePage(w, "Salaries fetched successfully", p, list, total)
}

// MySalary returns the calling teacher's totals and monthly rows
func (h *SalaryHandler) MySalary(w http.ResponseWriter, r *http.Request) {
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
	rng := q.ResolveMonthly(now())

	summary, err := h.DB.TeacherSalary(r.Context(), a.ID, rng)
	if err != nil {
		h.errorLog.Println("ERROR_01_MySalary:", err)
		utils.WriteError(w, err)
		return
	}
	months, err := h.DB.TeacherMonths(r.Context(), a.ID, rng)
	if err != nil {
		h.errorLog.Println("ERROR_02_MySalary:", err)
		utils.ServerError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"error":   false,
		"status":  "success",
		"message": "Salary fetched successfully",
		"salary":  summary,
		"months":  months,
	})
}

// -------------------- Recompute Salary --------------------
// Rebuilds one teacher's salary row of a month from its lessons.
// Example: POST /api/salary/recompute {"teacher_id":4,"month":"2024-03-01"}
func (h *SalaryHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TeacherID int64  `json:"teacher_id" validate:"required"`
		Month     string `json:"month"`
	}
	if err := utils.ReadValid(w, r, &req); err != nil {
		h.errorLog.Println("ERROR_01_RecomputeSalary:", err)
		utils.InvalidBody(w, err)
		return
	}
	month := now()
	if req.Month != "" {
		var err error
		if month, err = daterange.ParseDate(req.Month, time.Local); err != nil {
			utils.BadRequest(w, err)
			return
		}
	}
	s, err := h.Lessons.Recompute(r.Context(), req.TeacherID, month, nil)
	if err != nil {
		h.errorLog.Println("ERROR_02_RecomputeSalary:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Salary recomputed successfully", "salary", s)
}
