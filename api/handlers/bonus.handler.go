package api

import (
	"log"
	"net/http"

	"github.com/projuktisheba/tutorhub-api/internal/dbrepo"
	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/projuktisheba/tutorhub-api/internal/utils"
)

type BonusHandler struct {
	DB       *dbrepo.BonusRepo
	infoLog  *log.Logger
	errorLog *log.Logger
}

func NewBonusHandler(db *dbrepo.BonusRepo, infoLog *log.Logger, errorLog *log.Logger) *BonusHandler {
	return &BonusHandler{
		DB:       db,
		infoLog:  infoLog,
		errorLog: errorLog,
	}
}

// -------------------- Add New Bonus --------------------
// A teacher gets at most one bonus per month; the month defaults to the current one.
func (h *BonusHandler) AddBonus(w http.ResponseWriter, r *http.Request) {
	var b models.Bonus
	if err := utils.ReadValid(w, r, &b); err != nil {
		h.errorLog.Println("ERROR_01_AddBonus:", err)
		utils.InvalidBody(w, err)
		return
	}
	if b.Period.IsZero() {
		b.Period = now()
	}
	if err := h.DB.CreateBonus(r.Context(), &b); err != nil {
		h.errorLog.Println("ERROR_02_AddBonus:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusCreated, "Bonus added successfully", "bonus", b)
}

// Example: GET /api/bonus?teacherId=4&startDate=2024-01-01&endDate=2024-03-31
func (h *BonusHandler) ListBonuses(w http.ResponseWriter, r *http.Request) {
	q, err := readRange(r)
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	teacherID, err := utils.QueryInt64(r, "teacherId")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	p := utils.ParsePage(r)
	bonuses, total, err := h.DB.ListBonuses(r.Context(), q.ResolveMonthly(now()), teacherID, p.Limit, p.Offset())
	if err != nil {
		h.errorLog.Println("ERROR_01_ListBonuses:", err)
		utils.ServerError(w, err)
		return
	}
	writePage(w, "Bonuses fetched successfully", p, bonuses, total)
}

func (h *BonusHandler) UpdateBonus(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	var req struct {
		Amount  float64 `json:"amount" validate:"gt=0"`
		Comment string  `json:"comment"`
	}
	if err := utils.ReadValid(w, r, &req); err != nil {
		h.errorLog.Println("ERROR_01_UpdateBonus:", err)
		utils.InvalidBody(w, err)
		return
	}
	b := models.Bonus{ID: id, Amount: req.Amount, Comment: req.Comment}
	if err := h.DB.UpdateBonus(r.Context(), &b); err != nil {
		h.errorLog.Println("ERROR_02_UpdateBonus:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Bonus updated successfully", "bonus", b)
}

func (h *BonusHandler) DeleteBonus(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	if err := h.DB.DeleteBonus(r.Context(), id); err != nil {
		h.errorLog.Println("ERROR_01_DeleteBonus:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Bonus deleted successfully", "", nil)
}
