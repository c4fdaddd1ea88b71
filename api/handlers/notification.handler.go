package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/projuktisheba/tutorhub-api/internal/daterange"
	"github.com/projuktisheba/tutorhub-api/internal/dbrepo"
	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/projuktisheba/tutorhub-api/internal/scheduler"
	"github.com/projuktisheba/tutorhub-api/internal/utils"
)

type NotificationHandler struct {
	DB       *dbrepo.NotificationRepo
	infoLog  *log.Logger
	errorLog *log.Logger
}

func NewNotificationHandler(db *dbrepo.NotificationRepo, infoLog *log.Logger, errorLog *log.Logger) *NotificationHandler {
	return &NotificationHandler{
		DB:       db,
		infoLog:  infoLog,
		errorLog: errorLog,
	}
}

// Audience lists the caller's notifications with their own viewed flag.
// Admins and teachers share the handler, keyed by the route.
func (h *NotificationHandler) Audience(audience string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := caller(r)
		if err != nil {
			utils.BadRequest(w, err)
			return
		}
		list, err := h.DB.ForAudience(r.Context(), audience, a.ID)
		if err != nil {
			h.errorLog.Println("ERROR_01_Notifications:", err)
			utils.ServerError(w, err)
			return
		}
		writeOK(w, http.StatusOK, "Notifications fetched successfully", "notifications", list)
	}
}

func (h *NotificationHandler) StudentNotifications(w http.ResponseWriter, r *http.Request) {
	a, err := caller(r)
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	list, err := h.DB.ForStudent(r.Context(), a.ID)
	if err != nil {
		h.errorLog.Println("ERROR_01_StudentNotifications:", err)
		utils.ServerError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Notifications fetched successfully", "notifications", list)
}

// Example: PATCH /api/notification/viewed {"ids":[3,4]}
func (h *NotificationHandler) MarkViewed(w http.ResponseWriter, r *http.Request) {
	a, err := caller(r)
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	var req struct {
		IDs []int64 `json:"ids" validate:"required,min=1"`
	}
	if err := utils.ReadValid(w, r, &req); err != nil {
		h.errorLog.Println("ERROR_01_MarkViewed:", err)
		utils.InvalidBody(w, err)
		return
	}
	if a.Kind == models.KindWorker {
		utils.BadRequest(w, errors.New("workers have no notifications"))
		return
	}
	if err := h.DB.MarkViewed(r.Context(), a.Kind, a.ID, req.IDs); err != nil {
		h.errorLog.Println("ERROR_02_MarkViewed:", err)
		utils.ServerError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Notifications marked as viewed", "", nil)
}

// SyncBirthdays runs the daily birthday job on demand
func (h *NotificationHandler) SyncBirthdays(w http.ResponseWriter, r *http.Request) {
	created, removed, err := h.DB.SyncBirthdays(r.Context(), daterange.StartOfDay(now()), scheduler.BirthdayWindowDays)
	if err != nil {
		h.errorLog.Println("ERROR_01_SyncBirthdays:", err)
		utils.ServerError(w, err)
		return
	}
	h.infoLog.Printf("birthday notifications: %d created, %d removed", created, removed)
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"error":   false,
		"status":  "success",
		"message": "Birthday notifications synced",
		"created": created,
		"removed": removed,
	})
}
