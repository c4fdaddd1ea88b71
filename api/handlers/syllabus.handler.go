package api

import (
	"log"
	"net/http"

	"github.com/projuktisheba/tutorhub-api/internal/dbrepo"
	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/projuktisheba/tutorhub-api/internal/utils"
)

type SyllabusHandler struct {
	DB       *dbrepo.SyllabusRepo
	infoLog  *log.Logger
	errorLog *log.Logger
}

func NewSyllabusHandler(db *dbrepo.SyllabusRepo, infoLog *log.Logger, errorLog *log.Logger) *SyllabusHandler {
	return &SyllabusHandler{
		DB:       db,
		infoLog:  infoLog,
		errorLog: errorLog,
	}
}

func (h *SyllabusHandler) AddSyllabus(w http.ResponseWriter, r *http.Request) {
	var s models.Syllabus
	if err := utils.ReadValid(w, r, &s); err != nil {
		h.errorLog.Println("ERROR_01_AddSyllabus:", err)
		utils.InvalidBody(w, err)
		return
	}
	if err := h.DB.CreateSyllabus(r.Context(), &s); err != nil {
		h.errorLog.Println("ERROR_02_AddSyllabus:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusCreated, "Syllabus added successfully", "syllabus", s)
}

// AllSyllabus lists every syllabus row of a course in order.
// Example: GET /api/syllabus/all?courseId=3
func (h *SyllabusHandler) AllSyllabus(w http.ResponseWriter, r *http.Request) {
	courseID, err := utils.QueryInt64(r, "courseId")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	rows, _, err := h.DB.ListSyllabus(r.Context(), courseID, 0, 0)
	if err != nil {
		h.errorLog.Println("ERROR_01_AllSyllabus:", err)
		utils.ServerError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Syllabus fetched successfully", "syllabus", rows)
}

func (h *SyllabusHandler) ListSyllabus(w http.ResponseWriter, r *http.Request) {
	courseID, err := utils.QueryInt64(r, "courseId")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	p := utils.ParsePage(r)
	rows, total, err := h.DB.ListSyllabus(r.Context(), courseID, p.Limit, p.Offset())
	if err != nil {
		h.errorLog.Println("ERROR_01_ListSyllabus:", err)
		utils.ServerError(w, err)
		return
	}
	writePage(w, "Syllabus fetched successfully", p, rows, total)
}

func (h *SyllabusHandler) UpdateSyllabus(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	var s models.Syllabus
	if err := utils.ReadValid(w, r, &s); err != nil {
		h.errorLog.Println("ERROR_01_UpdateSyllabus:", err)
		utils.InvalidBody(w, err)
		return
	}
	s.ID = id
	if err := h.DB.UpdateSyllabus(r.Context(), &s); err != nil {
		h.errorLog.Println("ERROR_02_UpdateSyllabus:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Syllabus updated successfully", "syllabus", s)
}

func (h *SyllabusHandler) DeleteSyllabus(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	if err := h.DB.DeleteSyllabus(r.Context(), id); err != nil {
		h.errorLog.Println("ERROR_01_DeleteSyllabus:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Syllabus deleted successfully", "", nil)
}
