package api

import (
	"log"
	"net/http"

	"github.com/projuktisheba/tutorhub-api/internal/dbrepo"
	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/projuktisheba/tutorhub-api/internal/utils"
)

// EntryHandler serves income or expense entries, named by kind in logs
type EntryHandler struct {
	DB       *dbrepo.EntryRepo
	kind     string
	infoLog  *log.Logger
	errorLog *log.Logger
}

func NewEntryHandler(kind string, db *dbrepo.EntryRepo, infoLog *log.Logger, errorLog *log.Logger) *EntryHandler {
	return &EntryHandler{
		DB:       db,
		kind:     kind,
		infoLog:  infoLog,
		errorLog: errorLog,
	}
}

func (h *EntryHandler) logError(step, op string, err error) {
	h.errorLog.Printf("ERROR_%s_%s%s: %v", step, op, h.kind, err)
}

func (h *EntryHandler) AddEntry(w http.ResponseWriter, r *http.Request) {
	var e models.Entry
	if err := utils.ReadValid(w, r, &e); err != nil {
		h.logError("01", "Add", err)
		utils.InvalidBody(w, err)
		return
	}
	if err := h.DB.CreateEntry(r.Context(), &e); err != nil {
		h.logError("02", "Add", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusCreated, h.kind+" added successfully", "entry", e)
}

// Example: GET /api/income?page=1&monthCount=2&category=rent
func (h *EntryHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q, err := readRange(r)
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	p := utils.ParsePage(r)
	entries, total, err := h.DB.ListEntries(r.Context(), q.Resolve(now()), r.URL.Query().Get("category"), p.Limit, p.Offset())
	if err != nil {
		h.logError("01", "List", err)
		utils.ServerError(w, err)
		return
	}
	writePage(w, h.kind+" fetched successfully", p, entries, total)
}

func (h *EntryHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	var e models.Entry
	if err := utils.ReadValid(w, r, &e); err != nil {
		h.logError("01", "Update", err)
		utils.InvalidBody(w, err)
		return
	}
	e.ID = id
	if err := h.DB.UpdateEntry(r.Context(), &e); err != nil {
		h.logError("02", "Update", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusOK, h.kind+" updated successfully", "entry", e)
}

func (h *EntryHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	if err := h.DB.DeleteEntry(r.Context(), id); err != nil {
		h.logError("01", "Delete", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusOK, h.kind+" deleted successfully", "", nil)
}
