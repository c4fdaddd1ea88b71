package api

import (
	"log"
	"net/http"

	"github.com/projuktisheba/tutorhub-api/internal/dbrepo"
	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/projuktisheba/tutorhub-api/internal/utils"
)

type DemoHandler struct {
	DB       *dbrepo.DemoRepo
	infoLog  *log.Logger
	errorLog *log.Logger
}

func NewDemoHandler(db *dbrepo.DemoRepo, infoLog *log.Logger, errorLog *log.Logger) *DemoHandler {
	return &DemoHandler{
		DB:       db,
		infoLog:  infoLog,
		errorLog: errorLog,
	}
}

func (h *DemoHandler) AddDemo(w http.ResponseWriter, r *http.Request) {
	var d models.Demo
	if err := utils.ReadValid(w, r, &d); err != nil {
		h.errorLog.Println("ERROR_01_AddDemo:", err)
		utils.InvalidBody(w, err)
		return
	}
	if err := h.DB.CreateDemo(r.Context(), &d); err != nil {
		h.errorLog.Println("ERROR_02_AddDemo:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusCreated, "Demo lesson added successfully", "demo", d)
}

// Example: GET /api/demo?page=1&status=held&monthCount=1
func (h *DemoHandler) ListDemos(w http.ResponseWriter, r *http.Request) {
	q, err := readRange(r)
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	p := utils.ParsePage(r)
	demos, total, err := h.DB.ListDemos(r.Context(), q.Resolve(now()), r.URL.Query().Get("status"), p.Limit, p.Offset())
	if err != nil {
		h.errorLog.Println("ERROR_01_ListDemos:", err)
		utils.ServerError(w, err)
		return
	}
	writePage(w, "Demo lessons fetched successfully", p, demos, total)
}

func (h *DemoHandler) UpdateDemo(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	var d models.Demo
	if err := utils.ReadValid(w, r, &d); err != nil {
		h.errorLog.Println("ERROR_01_UpdateDemo:", err)
		utils.InvalidBody(w, err)
		return
	}
	d.ID = id
	if err := h.DB.UpdateDemo(r.Context(), &d); err != nil {
		h.errorLog.Println("ERROR_02_UpdateDemo:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Demo lesson updated successfully", "demo", d)
}

func (h *DemoHandler) DeleteDemo(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	if err := h.DB.DeleteDemo(r.Context(), id); err != nil {
		h.errorLog.Println("ERROR_01_DeleteDemo:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Demo lesson deleted successfully", "", nil)
}
