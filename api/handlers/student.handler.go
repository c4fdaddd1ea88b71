package api

import (
	"log"
	"net/http"

	"github.com/projuktisheba/tutorhub-api/internal/dbrepo"
	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/projuktisheba/tutorhub-api/internal/utils"
)

type StudentHandler struct {
	DB       *dbrepo.StudentRepo
	Accounts *dbrepo.AccountRepo
	infoLog  *log.Logger
	errorLog *log.Logger
}

func NewStudentHandler(db *dbrepo.StudentRepo, accounts *dbrepo.AccountRepo, infoLog *log.Logger, errorLog *log.Logger) *StudentHandler {
	return &StudentHandler{
		DB:       db,
		Accounts: accounts,
		infoLog:  infoLog,
		errorLog: errorLog,
	}
}

// Example: GET /api/student?page=1&limit=10&search=ali&status=true&courseId=2
func (h *StudentHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	status, err := queryBool(r, "status")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	courseID, err := utils.QueryInt64(r, "courseId")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	p := utils.ParsePage(r)
	f := dbrepo.StudentFilter{Search: r.URL.Query().Get("search"), Status: status, CourseID: courseID}
	students, total, err := h.DB.ListStudents(r.Context(), f, p.Limit, p.Offset())
	if err != nil {
		h.errorLog.Println("ERROR_01_ListStudents:", err)
		utils.ServerError(w, err)
		return
	}
	writePage(w, "Students fetched successfully", p, students, total)
}

func (h *StudentHandler) AllStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.DB.AllStudents(r.Context())
	if err != nil {
		h.errorLog.Println("ERROR_01_AllStudents:", err)
		utils.ServerError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Students fetched successfully", "students", students)
}

func (h *StudentHandler) StudentsByCourse(w http.ResponseWriter, r *http.Request) {
	courseID, err := utils.IDParam(r, "courseId")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	students, err := h.DB.StudentsByCourse(r.Context(), courseID)
	if err != nil {
		h.errorLog.Println("ERROR_01_StudentsByCourse:", err)
		utils.ServerError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Students fetched successfully", "students", students)
}

func (h *StudentHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	student, err := h.DB.GetStudent(r.Context(), id)
	if err != nil {
		h.errorLog.Println("ERROR_01_GetStudent:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Student fetched successfully", "student", student)
}

// UpdateStudent saves the profile. Enrolments are replaced only when the body
// carries a courses list.
func (h *StudentHandler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	var s models.Student
	if err := utils.ReadValid(w, r, &s); err != nil {
		h.errorLog.Println("ERROR_01_UpdateStudent:", err)
		utils.InvalidBody(w, err)
		return
	}
	s.ID = id
	if err := emailFree(r, h.Accounts, s.Email, models.KindStudent, id); err != nil {
		h.errorLog.Println("ERROR_02_UpdateStudent:", err)
		utils.WriteError(w, err)
		return
	}
	if err := hashIfSet(&s.Password); err != nil {
		utils.WriteError(w, err)
		return
	}
	if err := h.DB.UpdateStudent(r.Context(), &s); err != nil {
		h.errorLog.Println("ERROR_03_UpdateStudent:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Student updated successfully", "student", s)
}

func (h *StudentHandler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	if err := h.DB.DeleteStudent(r.Context(), id); err != nil {
		h.errorLog.Println("ERROR_01_DeleteStudent:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Student deleted successfully", "", nil)
}
