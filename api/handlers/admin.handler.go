package api

import (
	"log"
	"net/http"

	"github.com/projuktisheba/tutorhub-api/internal/dbrepo"
	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/projuktisheba/tutorhub-api/internal/utils"
)

type AdminHandler struct {
	DB       *dbrepo.AdminRepo
	Accounts *dbrepo.AccountRepo
	infoLog  *log.Logger
	errorLog *log.Logger
}

func NewAdminHandler(db *dbrepo.AdminRepo, accounts *dbrepo.AccountRepo, infoLog *log.Logger, errorLog *log.Logger) *AdminHandler {
	return &AdminHandler{
		DB:       db,
		Accounts: accounts,
		infoLog:  infoLog,
		errorLog: errorLog,
	}
}

func (h *AdminHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	p := utils.ParsePage(r)
	admins, total, err := h.DB.ListAdmins(r.Context(), r.URL.Query().Get("search"), p.Limit, p.Offset())
	if err != nil {
		h.errorLog.Println("ERROR_01_ListAdmins:", err)
		utils.ServerError(w, err)
		return
	}
	writePage(w, "Admins fetched successfully", p, admins, total)
}

func (h *AdminHandler) GetAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	admin, err := h.DB.GetAdmin(r.Context(), id)
	if err != nil {
		h.errorLog.Println("ERROR_01_GetAdmin:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Admin fetched successfully", "admin", admin)
}

func (h *AdminHandler) UpdateAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	var a models.Admin
	if err := utils.ReadValid(w, r, &a); err != nil {
		h.errorLog.Println("ERROR_01_UpdateAdmin:", err)
		utils.InvalidBody(w, err)
		return
	}
	if err := emailFree(r, h.Accounts, a.Email, models.KindAdmin, id); err != nil {
		h.errorLog.Println("ERROR_02_UpdateAdmin:", err)
		utils.WriteError(w, err)
		return
	}
	if err := hashIfSet(&a.Password); err != nil {
		utils.WriteError(w, err)
		return
	}
	a.ID = id
	if err := h.DB.UpdateAdmin(r.Context(), &a); err != nil {
		h.errorLog.Println("ERROR_03_UpdateAdmin:", err)
		utils.WriteError(w, err)
		return
	}
	a.Password = ""
	writeOK(w, http.StatusOK, "Admin updated successfully", "admin", a)
}

// DeleteAdmin removes an admin. The super admin cannot be deleted.
func (h *AdminHandler) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	if err := h.DB.DeleteAdmin(r.Context(), id); err != nil {
		h.errorLog.Println("ERROR_01_DeleteAdmin:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Admin deleted successfully", "", nil)
}
