package api

import (
	"context"
	"log"
	"net/http"

	"github.com/projuktisheba/tutorhub-api/internal/dbrepo"
	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/projuktisheba/tutorhub-api/internal/utils"
)

type ReceiptHandler struct {
	DB       *dbrepo.ReceiptRepo
	Workers  *dbrepo.WorkerRepo
	infoLog  *log.Logger
	errorLog *log.Logger
}

func NewReceiptHandler(db *dbrepo.ReceiptRepo, workers *dbrepo.WorkerRepo, infoLog *log.Logger, errorLog *log.Logger) *ReceiptHandler {
	return &ReceiptHandler{
		DB:       db,
		Workers:  workers,
		infoLog:  infoLog,
		errorLog: errorLog,
	}
}

// receiptScope limits a caller to the receipts they created. A zero
// CreatorID sees every receipt.
type receiptScope struct {
	CreatorID int64
	Role      string
}

func (s receiptScope) owns(p *models.Receipt) bool {
	return s.CreatorID == 0 || (p.CreatorID == s.CreatorID && p.CreatorRole == s.Role)
}

// scope grants admins and accounting officers every receipt
func (h *ReceiptHandler) scope(ctx context.Context, a models.JWT) (receiptScope, error) {
	if utils.IsAdmin(a) {
		return receiptScope{}, nil
	}
	if a.Kind == models.KindWorker {
		wk, err := h.Workers.GetWorker(ctx, a.ID)
		if err != nil {
			return receiptScope{}, err
		}
		if wk.HasPosition(models.PositionAccountingOfficer) {
			return receiptScope{}, nil
		}
	}
	return receiptScope{CreatorID: a.ID, Role: a.Kind}, nil
}

// -------------------- Add New Receipt --------------------
func (h *ReceiptHandler) AddReceipt(w http.ResponseWriter, r *http.Request) {
	a, err := caller(r)
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	var p models.Receipt
	if err := utils.ReadValid(w, r, &p); err != nil {
		h.errorLog.Println("ERROR_01_AddReceipt:", err)
		utils.InvalidBody(w, err)
		return
	}
	p.CreatorID = a.ID
	p.CreatorRole = a.Kind
	if err := h.DB.CreateReceipt(r.Context(), &p); err != nil {
		h.errorLog.Println("ERROR_02_AddReceipt:", err)
		utils.ServerError(w, err)
		return
	}
	writeOK(w, http.StatusCreated, "Receipt added successfully", "receipt", p)
}

// Example: GET /api/receipt?status=unviewed&startDate=2024-01-01&endDate=2024-01-31
func (h *ReceiptHandler) ListReceipts(w http.ResponseWriter, r *http.Request) {
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
	s, err := h.scope(r.Context(), a)
	if err != nil {
		h.errorLog.Println("ERROR_01_ListReceipts:", err)
		utils.WriteError(w, err)
		return
	}
	p := utils.ParsePage(r)
	f := dbrepo.ReceiptFilter{
		CreatorID:   s.CreatorID,
		CreatorRole: s.Role,
		Status:      r.URL.Query().Get("status"),
		Range:       q.Resolve(now()),
	}
	list, total, err := h.DB.ListReceipts(r.Context(), f, p.Limit, p.Offset())
	if err != nil {
		h.errorLog.Println("ERROR_02_ListReceipts:", err)
		utils.ServerError(w, err)
		return
	}
	writePage(w, "Receipts fetched successfully", p, list, total)
}

// authorize loads receipt id and checks the caller may change it
func (h *ReceiptHandler) authorize(r *http.Request, id int64) (receiptScope, error) {
	a, err := caller(r)
	if err != nil {
		return receiptScope{}, err
	}
	s, err := h.scope(r.Context(), a)
	if err != nil {
		return s, err
	}
	if s.CreatorID == 0 {
		return s, nil
	}
	p, err := h.DB.GetReceipt(r.Context(), id)
	if err != nil {
		return s, err
	}
	if !s.owns(p) {
		return s, models.ErrAccessDenied
	}
	return s, nil
}

// UpdateReceipt edits a receipt. Only privileged callers may change its status.
func (h *ReceiptHandler) UpdateReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	var p models.Receipt
	if err := utils.ReadValid(w, r, &p); err != nil {
		h.errorLog.Println("ERROR_01_UpdateReceipt:", err)
		utils.InvalidBody(w, err)
		return
	}
	s, err := h.authorize(r, id)
	if err != nil {
		h.errorLog.Println("ERROR_02_UpdateReceipt:", err)
		utils.WriteError(w, err)
		return
	}
	if s.CreatorID != 0 {
		p.Status = ""
	}
	p.ID = id
	if err := h.DB.UpdateReceipt(r.Context(), &p); err != nil {
		h.errorLog.Println("ERROR_03_UpdateReceipt:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Receipt updated successfully", "receipt", p)
}

func (h *ReceiptHandler) DeleteReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	if _, err := h.authorize(r, id); err != nil {
		h.errorLog.Println("ERROR_01_DeleteReceipt:", err)
		utils.WriteError(w, err)
		return
	}
	if err := h.DB.DeleteReceipt(r.Context(), id); err != nil {
		h.errorLog.Println("ERROR_02_DeleteReceipt:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Receipt deleted successfully", "", nil)
}
