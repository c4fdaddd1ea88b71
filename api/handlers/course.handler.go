package api

import (
	"log"
	"net/http"

	"github.com/projuktisheba/tutorhub-api/internal/dbrepo"
	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/projuktisheba/tutorhub-api/internal/utils"
)

type CourseHandler struct {
	DB       *dbrepo.CourseRepo
	infoLog  *log.Logger
	errorLog *log.Logger
}

func NewCourseHandler(db *dbrepo.CourseRepo, infoLog *log.Logger, errorLog *log.Logger) *CourseHandler {
	return &CourseHandler{
		DB:       db,
		infoLog:  infoLog,
		errorLog: errorLog,
	}
}

// -------------------- Add New Course --------------------
// Re-adding a deleted course name brings the course back.
func (h *CourseHandler) AddCourse(w http.ResponseWriter, r *http.Request) {
	var c models.Course
	if err := utils.ReadValid(w, r, &c); err != nil {
		h.errorLog.Println("ERROR_01_AddCourse:", err)
		utils.InvalidBody(w, err)
		return
	}
	if err := h.DB.CreateCourse(r.Context(), &c); err != nil {
		h.errorLog.Println("ERROR_02_AddCourse:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusCreated, "Course added successfully", "course", c)
}

func (h *CourseHandler) AllCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.DB.AllCourses(r.Context())
	if err != nil {
		h.errorLog.Println("ERROR_01_AllCourses:", err)
		utils.ServerError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Courses fetched successfully", "courses", courses)
}

func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	p := utils.ParsePage(r)
	courses, total, err := h.DB.ListCourses(r.Context(), r.URL.Query().Get("search"), p.Limit, p.Offset())
	if err != nil {
		h.errorLog.Println("ERROR_01_ListCourses:", err)
		utils.ServerError(w, err)
		return
	}
	writePage(w, "Courses fetched successfully", p, courses, total)
}

func (h *CourseHandler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	var c models.Course
	if err := utils.ReadValid(w, r, &c); err != nil {
		h.errorLog.Println("ERROR_01_UpdateCourse:", err)
		utils.InvalidBody(w, err)
		return
	}
	c.ID = id
	if err := h.DB.UpdateCourse(r.Context(), &c); err != nil {
		h.errorLog.Println("ERROR_02_UpdateCourse:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Course updated successfully", "course", c)
}

func (h *CourseHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDParam(r, "id")
	if err != nil {
		utils.BadRequest(w, err)
		return
	}
	if err := h.DB.DeleteCourse(r.Context(), id); err != nil {
		h.errorLog.Println("ERROR_01_DeleteCourse:", err)
		utils.WriteError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Course deleted successfully", "", nil)
}
