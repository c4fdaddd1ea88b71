package api

import (
	"log"
	"net/http"

	"github.com/projuktisheba/tutorhub-api/internal/dbrepo"
	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/projuktisheba/tutorhub-api/internal/utils"
)

type WorkerHandler struct {
	DB       *dbrepo.WorkerRepo
	Accounts *dbrepo.AccountRepo
	infoLog  *log.Logger
	errorLog *log.Logger
}

func NewWorkerHandler(db *dbrepo.WorkerRepo, accounts *dbrepo.AccountRepo, infoLog *log.Logger, errorLog *log.Logger) *WorkerHandler {
	return &WorkerHandler{
		DB:       db,
		Accounts: accounts,
		infoLog:  infoLog,
		errorLog: errorLog,
	}
}

func (h *WorkerHandler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	p := utils.ParsePage(r)
	workers, total, err := h.DB.ListWorkers(r.Context(), r.URL.Query().Get("search"), p.Limit, p.Offset())
	if err != nil {
		h.errorLog.Println("ERROR_01_ListWorkers:", err)
		utils.ServerError(w, err)
		return
	}
	writePage(w, "Workers fetched successfully", p, workers, total)
}

func (h *WorkerHandler) UpdateWorker(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	var wk models.Worker
	if err := utils.ReadValid(w, r, &wk); err != nil {
		h.errorLog.Println("ERROR_01_UpdateWorker:", err)
		utils.InvalidBody(w, err)
		return
	}
	wk.ID = id
	if err := emailFree(r, h.Accounts, wk.Email, models.KindWorker, id); err != nil {
		h.errorLog.Println("ERROR_02_UpdateWorker:", err)
		utils.WriteError(w, err)
		return
	}
	if err := hashIfSet(&wk.Password); err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := h.DB.UpdateWorker(r.Context(), &wk); err != nil {
		h.errorLog.Println("ERROR_03_UpdateWorker:", err)
		utils.WriteError(w, err)
		return
	}
	wk.Password = ""
	writeOK(w, http.StatusOK, "Worker updated successfully", "worker", wk)
}

func (h *WorkerHandler) DeleteWorker(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	if err := h.DB.DeleteWorker(r.Context(), id); err != nil {
		h.errorLog.Println("ERROR_01_DeleteWorker:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Worker deleted successfully", "", nil)
}
