package api

import (
	"log"
	"net/http"

	"github.com/projuktisheba/tutorhub-api/internal/dbrepo"
	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/projuktisheba/tutorhub-api/internal/utils"
)

type FineHandler struct {
	DB       *dbrepo.FineRepo
	infoLog  *log.Logger
	errorLog *log.Logger
}

func NewFineHandler(db *dbrepo.FineRepo, infoLog *log.Logger, errorLog *log.Logger) *FineHandler {
	return &FineHandler{
		DB:       db,
		infoLog:  infoLog,
		errorLog: errorLog,
	}
}

// -------------------- Add New Fine --------------------
// The fined teacher receives a fine notification.
func (h *FineHandler) AddFine(w http.ResponseWriter, r *http.Request) {
	var f models.Fine
	if err := utils.ReadValid(w, r, &f); err != nil {
		h.errorLog.Println("ERROR_01_AddFine:", err)
		utils.InvalidBody(w, err)
		return
	}
	if err := h.DB.CreateFine(r.Context(), &f); err != nil {
		h.errorLog.Println("ERROR_02_AddFine:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusCreated, "Fine added successfully", "fine", f)
}

func (h *FineHandler) list(w http.ResponseWriter, r *http.Request, teacherID int64) {
	q, err := readRange(r)
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	p := utils.ParsePage(r)
	fines, total, err := h.DB.ListFines(r.Context(), q.Resolve(now()), teacherID, p.Limit, p.Offset())
	if err != nil {
		h.errorLog.Println("ERROR_01_ListFines:", err)
		utils.ServerError(w, err)
		return
	}
	writePage(w, "Fines fetched successfully", p, fines, total)
}

// Example: GET /api/fine?teacherId=4&monthCount=3
func (h *FineHandler) ListFines(w http.ResponseWriter, r *http.Request) {
	teacherID, err := utils.QueryInt64(r, "teacherId")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	h.list(w, r, teacherID)
}

// MyFines lists the calling teacher's fines
func (h *FineHandler) MyFines(w http.ResponseWriter, r *http.Request) {
	a, err := caller(r)
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	h.list(w, r, a.ID)
}

func (h *FineHandler) UpdateFine(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	var req struct {
		FineType string `json:"fine_type" validate:"required,oneof=verbalWarning writtenWarning tardiness resentment punishment rebuke"`
		Comment  string `json:"comment"`
	}
	if err := utils.ReadValid(w, r, &req); err != nil {
		h.errorLog.Println("ERROR_01_UpdateFine:", err)
		utils.InvalidBody(w, err)
		return
	}
	f := models.Fine{ID: id, FineType: req.FineType, Comment: req.Comment}
	if err := h.DB.UpdateFine(r.Context(), &f); err != nil {
		h.errorLog.Println("ERROR_02_UpdateFine:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Fine updated successfully", "fine", f)
}

func (h *FineHandler) DeleteFine(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	if err := h.DB.DeleteFine(r.Context(), id); err != nil {
		h.errorLog.Println("ERROR_01_DeleteFine:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Fine deleted successfully", "", nil)
}
