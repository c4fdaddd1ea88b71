package api

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/projuktisheba/tutorhub-api/internal/dbrepo"
	"github.com/projuktisheba/tutorhub-api/internal/mailer"
	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/projuktisheba/tutorhub-api/internal/utils"
)

const (
	refreshCookie     = "refreshtoken"
	refreshCookiePath = "/api/user/auth/refresh_token"
	minPasswordLength = 6
)

type AuthHandler struct {
	DB       *dbrepo.DBRepository
	JWT      models.JWTConfig
	Mail     mailer.Mailer
	OTPTTL   time.Duration
	infoLog  *log.Logger
	errorLog *log.Logger
}

func NewAuthHandler(db *dbrepo.DBRepository, cfg models.Config, mail mailer.Mailer, infoLog *log.Logger, errorLog *log.Logger) *AuthHandler {
	return &AuthHandler{
		DB:       db,
		JWT:      cfg.JWT,
		Mail:     mail,
		OTPTTL:   cfg.OTPTTL,
		infoLog:  infoLog,
		errorLog: errorLog,
	}
}

func checkPassword(password string) error {
	if len(password) < minPasswordLength {
		return utils.ValidationErrors{"password": "password must be at least 6 characters in length"}
	}
	return nil
}

func tokenUser(a *models.Account) models.JWT {
	return models.JWT{ID: a.ID, Name: a.FullName, Email: a.Email, Kind: a.Kind, Role: a.Role}
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    token,
		Path:     refreshCookiePath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

// issueTokens signs an access token and a refresh token for a and stores the
// refresh token
func (h *AuthHandler) issueTokens(w http.ResponseWriter, r *http.Request, a *models.Account) (string, error) {
	user := tokenUser(a)
	access, err := utils.GenerateJWT(user, h.JWT)
	if err != nil {
		return "", err
	}
	refresh, jti, err := utils.GenerateRefreshToken(user, h.JWT)
	if err != nil {
		return "", err
	}
	err = h.DB.AccountRepo.SaveRefreshToken(r.Context(), &models.Token{
		ID:           jti,
		AccountKind:  a.Kind,
		AccountID:    a.ID,
		RefreshToken: refresh,
	})
	if err != nil {
		return "", err
	}
	h.setRefreshCookie(w, refresh, int(h.JWT.Refresh.Seconds()))
	return access, nil
}

// -------------------- Login --------------------
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := utils.ReadValid(w, r, &req); err != nil {
		h.errorLog.Println("ERROR_01_Login:", err)
		utils.InvalidBody(w, err)
		return
	}

	account, err := h.DB.AccountRepo.FindByEmail(r.Context(), req.Email)
	if errors.Is(err, models.ErrNotFound) {
		utils.WriteError(w, models.ErrUserNotFound)
		return
	}
	if err != nil {
		h.errorLog.Println("ERROR_02_Login:", err)
		utils.WriteError(w, err)
		return
	}
	if !utils.CheckPassword(req.Password, account.Password) {
		utils.WriteError(w, models.ErrInvalidPassword)
		return
	}
	if !account.Active {
		utils.WriteError(w, models.ErrAccountDisabled)
		return
	}

	token, err := h.issueTokens(w, r, account)
	if err != nil {
		h.errorLog.Println("ERROR_03_Login:", err)
		utils.ServerError(w, err)
		return
	}

	resp := struct {
		Error   bool            `json:"error"`
		Status  string          `json:"status"`
		Message string          `json:"message"`
		Token   string          `json:"token"`
		User    *models.Account `json:"user"`
	}{
		Status:  "success",
		Message: "Logged in successfully",
		Token:   token,
		User:    account,
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

// -------------------- Refresh Token --------------------
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookie)
	if err != nil || cookie.Value == "" {
		utils.WriteJSON(w, http.StatusUnauthorized, models.Response{Error: true, Status: "error", Message: "missing refresh token"})
		return
	}
	claims, err := utils.ParseRefreshToken(cookie.Value, h.JWT)
	if err != nil {
		h.errorLog.Println("ERROR_01_RefreshToken:", err)
		utils.WriteJSON(w, http.StatusUnauthorized, models.Response{Error: true, Status: "error", Message: "invalid refresh token"})
		return
	}
	stored, err := h.DB.AccountRepo.FindRefreshToken(r.Context(), cookie.Value)
	if err != nil || stored.ID != claims.RegisteredClaims.ID {
		h.errorLog.Println("ERROR_02_RefreshToken: token not on record", err)
		utils.WriteJSON(w, http.StatusUnauthorized, models.Response{Error: true, Status: "error", Message: "refresh token revoked"})
		return
	}
	account, err := h.DB.AccountRepo.FindByID(r.Context(), stored.AccountKind, stored.AccountID)
	if err != nil {
		h.errorLog.Println("ERROR_03_RefreshToken:", err)
		utils.WriteError(w, err)
		return
	}
	if !account.Active {
		utils.WriteError(w, models.ErrAccountDisabled)
		return
	}
	token, err := h.issueTokens(w, r, account)
	if err != nil {
		h.errorLog.Println("ERROR_04_RefreshToken:", err)
		utils.ServerError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Token refreshed", "token", token)
}

// -------------------- Logout --------------------
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(refreshCookie); err == nil && cookie.Value != "" {
		if err := h.DB.AccountRepo.DeleteRefreshToken(r.Context(), cookie.Value); err != nil {
			h.errorLog.Println("ERROR_01_Logout:", err)
			utils.ServerError(w, err)
			return
		}
	}
	h.setRefreshCookie(w, "", -1)
	writeOK(w, http.StatusOK, "Logged out", "", nil)
}

// -------------------- Forgot Password --------------------
func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := utils.ReadValid(w, r, &req); err != nil {
		h.errorLog.Println("ERROR_01_SendOTP:", err)
		utils.InvalidBody(w, err)
		return
	}
	account, err := h.DB.AccountRepo.FindByEmail(r.Context(), req.Email)
	if errors.Is(err, models.ErrNotFound) {
		utils.WriteError(w, models.ErrUserNotFound)
		return
	}
	if err != nil {
		h.errorLog.Println("ERROR_02_SendOTP:", err)
		utils.WriteError(w, err)
		return
	}

	code, err := utils.GenerateOTP()
	if err != nil {
		h.errorLog.Println("ERROR_03_SendOTP:", err)
		utils.ServerError(w, err)
		return
	}
	hashed, err := utils.HashPassword(code)
	if err != nil {
		h.errorLog.Println("ERROR_04_SendOTP:", err)
		utils.ServerError(w, err)
		return
	}
	if err := h.DB.AccountRepo.SetOTP(r.Context(), account.Kind, account.ID, hashed, now().Add(h.OTPTTL)); err != nil {
		h.errorLog.Println("ERROR_05_SendOTP:", err)
		utils.WriteError(w, err)
		return
	}
	if err := h.Mail.Send(r.Context(), mailer.OTPMessage(account.Email, code, int(h.OTPTTL.Minutes()))); err != nil {
		h.errorLog.Println("ERROR_06_SendOTP:", err)
		utils.ServerError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "OTP sent", "", nil)
}

// verifyOTP loads the account of email and checks its pending OTP
func (h *AuthHandler) verifyOTP(r *http.Request, email, otp string) (*models.Account, error) {
	account, err := h.DB.AccountRepo.FindByEmail(r.Context(), email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return account, checkOTP(account, otp, now())
}

func checkOTP(a *models.Account, otp string, at time.Time) error {
	if a.OTP == "" || a.OTPExpiresAt == nil {
		return models.ErrInvalidOTP
	}
	if at.After(*a.OTPExpiresAt) {
		return models.ErrOTPExpired
	}
	if !utils.CheckPassword(strings.TrimSpace(otp), a.OTP) {
		return models.ErrInvalidOTP
	}
	return nil
}

func (h *AuthHandler) CheckOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
		OTP   string `json:"otp" validate:"required,len=6,numeric"`
	}
	if err := utils.ReadValid(w, r, &req); err != nil {
		h.errorLog.Println("ERROR_01_CheckOTP:", err)
		utils.InvalidBody(w, err)
		return
	}
	if _, err := h.verifyOTP(r, req.Email, req.OTP); err != nil {
		h.errorLog.Println("ERROR_02_CheckOTP:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "OTP is valid", "", nil)
}

func (h *AuthHandler) ChangeForgottenPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		OTP      string `json:"otp" validate:"required,len=6,numeric"`
		Password string `json:"password" validate:"required,min=6"`
	}
	if err := utils.ReadValid(w, r, &req); err != nil {
		h.errorLog.Println("ERROR_01_ChangeForgottenPassword:", err)
		utils.InvalidBody(w, err)
		return
	}
	account, err := h.verifyOTP(r, req.Email, req.OTP)
	if err != nil {
		h.errorLog.Println("ERROR_02_ChangeForgottenPassword:", err)
		utils.WriteError(w, err)
		return
	}
	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.ServerError(w, err)
		return
	}
	if err := h.DB.AccountRepo.UpdatePassword(r.Context(), account.Kind, account.ID, hashed); err != nil {
		h.errorLog.Println("ERROR_03_ChangeForgottenPassword:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Password changed", "", nil)
}

// -------------------- Registration --------------------

// prepareAccount checks the password and the cross table email uniqueness
// and returns the password hash
func (h *AuthHandler) prepareAccount(r *http.Request, email, password string) (string, error) {
	if err := checkPassword(password); err != nil {
		return "", err
	}
	taken, err := h.DB.AccountRepo.EmailTaken(r.Context(), email, "", 0)
	if err != nil {
		return "", err
	}
	if taken {
		return "", models.ErrEmailExists
	}
	return utils.HashPassword(password)
}

func (h *AuthHandler) registerAdmin(w http.ResponseWriter, r *http.Request, role, tag string) {
	var a models.Admin
	if err := utils.ReadValid(w, r, &a); err != nil {
		h.errorLog.Printf("ERROR_01_%s: %v", tag, err)
		utils.InvalidBody(w, err)
		return
	}
	if role == models.RoleSuperAdmin {
		exists, err := h.DB.AccountRepo.SuperAdminExists(r.Context())
		if err != nil {
			h.errorLog.Printf("ERROR_02_%s: %v", tag, err)
			utils.ServerError(w, err)
			return
		}
		if exists {
			utils.WriteError(w, models.ErrSuperAdminExists)
			return
		}
	}
	hashed, err := h.prepareAccount(r, a.Email, a.Password)
	if err != nil {
		h.errorLog.Printf("ERROR_03_%s: %v", tag, err)
		utils.WriteError(w, err)
		return
	}
	a.Password = hashed
	a.Role = role
	if err := h.DB.AdminRepo.CreateAdmin(r.Context(), &a); err != nil {
		h.errorLog.Printf("ERROR_04_%s: %v", tag, err)
		utils.WriteError(w, err)
		return
	}
	a.Password = ""
	writeOK(w, http.StatusCreated, "Admin registered", "admin", a)
}

func (h *AuthHandler) RegisterSuperAdmin(w http.ResponseWriter, r *http.Request) {
	h.registerAdmin(w, r, models.RoleSuperAdmin, "RegisterSuperAdmin")
}

func (h *AuthHandler) RegisterAdmin(w http.ResponseWriter, r *http.Request) {
	h.registerAdmin(w, r, models.RoleAdmin, "RegisterAdmin")
}

func (h *AuthHandler) RegisterTeacher(w http.ResponseWriter, r *http.Request) {
	t := models.Teacher{Status: true}
	if err := utils.ReadValid(w, r, &t); err != nil {
		h.errorLog.Println("ERROR_01_RegisterTeacher:", err)
		utils.InvalidBody(w, err)
		return
	}
	hashed, err := h.prepareAccount(r, t.Email, t.Password)
	if err != nil {
		h.errorLog.Println("ERROR_02_RegisterTeacher:", err)
		utils.WriteError(w, err)
		return
	}
	t.Password = hashed
	if err := h.DB.TeacherRepo.CreateTeacher(r.Context(), &t); err != nil {
		h.errorLog.Println("ERROR_03_RegisterTeacher:", err)
		utils.WriteError(w, err)
		return
	}
	t.Password = ""
	writeOK(w, http.StatusCreated, "Teacher registered", "teacher", t)
}

func (h *AuthHandler) RegisterStudent(w http.ResponseWriter, r *http.Request) {
	s := models.Student{Status: true}
	if err := utils.ReadValid(w, r, &s); err != nil {
		h.errorLog.Println("ERROR_01_RegisterStudent:", err)
		utils.InvalidBody(w, err)
		return
	}
	hashed, err := h.prepareAccount(r, s.Email, s.Password)
	if err != nil {
		h.errorLog.Println("ERROR_02_RegisterStudent:", err)
		utils.WriteError(w, err)
		return
	}
	s.Password = hashed
	if err := h.DB.StudentRepo.CreateStudent(r.Context(), &s); err != nil {
		h.errorLog.Println("ERROR_03_RegisterStudent:", err)
		utils.WriteError(w, err)
		return
	}
	s.Password = ""
	writeOK(w, http.StatusCreated, "Student registered", "student", s)
}

func (h *AuthHandler) RegisterWorker(w http.ResponseWriter, r *http.Request) {
	var wk models.Worker
	if err := utils.ReadValid(w, r, &wk); err != nil {
		h.errorLog.Println("ERROR_01_RegisterWorker:", err)
		utils.InvalidBody(w, err)
		return
	}
	hashed, err := h.prepareAccount(r, wk.Email, wk.Password)
	if err != nil {
		h.errorLog.Println("ERROR_02_RegisterWorker:", err)
		utils.WriteError(w, err)
		return
	}
	wk.Password = hashed
	if err := h.DB.WorkerRepo.CreateWorker(r.Context(), &wk); err != nil {
		h.errorLog.Println("ERROR_03_RegisterWorker:", err)
		utils.WriteError(w, err)
		return
	}
	wk.Password = ""
	writeOK(w, http.StatusCreated, "Worker registered", "worker", wk)
}

// -------------------- Current User --------------------
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	a, err := caller(r)
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	var user any
	switch a.Kind {
	case models.KindAdmin:
		user, err = h.DB.AdminRepo.GetAdmin(r.Context(), a.ID)
	case models.KindTeacher:
		user, err = h.DB.TeacherRepo.GetTeacher(r.Context(), a.ID)
	case models.KindStudent:
		user, err = h.DB.StudentRepo.GetStudent(r.Context(), a.ID)
	case models.KindWorker:
		user, err = h.DB.WorkerRepo.GetWorker(r.Context(), a.ID)
	default:
		err = models.ErrUserNotFound
	}
	if err != nil {
		h.errorLog.Println("ERROR_01_CurrentUser:", err)
		utils.WriteError(w, err)
		return
	}
	resp := struct {
		Error   bool   `json:"error"`
		Status  string `json:"status"`
		Message string `json:"message"`
		Kind    string `json:"kind"`
		User    any    `json:"user"`
	}{
		Status:  "success",
		Message: "User fetched successfully",
		Kind:    a.Kind,
		User:    user,
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	a, err := caller(r)
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	var req struct {
		OldPassword string `json:"old_password" validate:"required"`
		NewPassword string `json:"new_password" validate:"required,min=6"`
	}
	if err := utils.ReadValid(w, r, &req); err != nil {
		h.errorLog.Println("ERROR_01_ChangePassword:", err)
		utils.InvalidBody(w, err)
		return
	}
	account, err := h.DB.AccountRepo.FindByID(r.Context(), a.Kind, a.ID)
	if err != nil {
		h.errorLog.Println("ERROR_02_ChangePassword:", err)
		utils.WriteError(w, err)
		return
	}
	if !utils.CheckPassword(req.OldPassword, account.Password) {
		utils.WriteError(w, models.ErrOldPasswordIncorrect)
		return
	}
	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		utils.ServerError(w, err)
		return
	}
	if err := h.DB.AccountRepo.UpdatePassword(r.Context(), a.Kind, a.ID, hashed); err != nil {
		h.errorLog.Println("ERROR_03_ChangePassword:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Password changed", "", nil)
}
