package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	api "github.com/projuktisheba/tutorhub-api/api/handlers"
	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/projuktisheba/tutorhub-api/internal/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (app *application) routes() http.Handler {
	mux := chi.NewRouter()

	// --- Global middlewares ---
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	mux.Use(app.Logger)
	mux.Use(app.Metrics)
	mux.Use(app.RecordServerErrors)

	admin := RequireRoles(models.RoleAdmin)
	superAdmin := RequireRoles(models.RoleSuperAdmin)
	teacher := RequireRoles(models.RoleTeacher)
	student := RequireRoles(models.RoleStudent)

	// --- Health check endpoint ---
	mux.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, "Live")
	})
	mux.Handle("/metrics", promhttp.Handler())

	h := app.Handlers

	// --- Auth Routes ---
	mux.Route("/api/user/auth", func(r chi.Router) {
		r.Post("/login", h.Auth.Login)
		// refresh token travels in the refreshtoken cookie
		r.Get("/refresh_token", h.Auth.RefreshToken)
		r.Post("/logout", h.Auth.Logout)

		// Example: POST /api/user/auth/forgot-password/send-otp {"email":"a@b.c"}
		r.Post("/forgot-password/send-otp", h.Auth.SendOTP)
		r.Post("/forgot-password/check-otp", h.Auth.CheckOTP)
		r.Patch("/forgot-password/change", h.Auth.ChangeForgottenPassword)

		// only one super admin may ever be registered
		r.Post("/register/super-admin", h.Auth.RegisterSuperAdmin)
		r.Group(func(r chi.Router) {
			r.Use(app.Authenticate)
			r.With(superAdmin).Post("/register/admin", h.Auth.RegisterAdmin)
			r.With(admin).Post("/register/teacher", h.Auth.RegisterTeacher)
			r.With(admin).Post("/register/student", h.Auth.RegisterStudent)
			r.With(admin).Post("/register/worker", h.Auth.RegisterWorker)
		})
	})

	// --- Authenticated Routes ---
	mux.Group(func(mux chi.Router) {
		mux.Use(app.Authenticate)

		mux.Route("/api/user", func(r chi.Router) {
			r.Get("/", h.Auth.CurrentUser)
			r.Patch("/password", h.Auth.ChangePassword)
		})

		mux.Route("/api/admin", func(r chi.Router) {
			r.Use(superAdmin)
			r.Get("/", h.Admin.ListAdmins)
			r.Get("/{id}", h.Admin.GetAdmin)
			r.Patch("/{id}", h.Admin.UpdateAdmin)
			r.Delete("/{id}", h.Admin.DeleteAdmin)
		})

		// Example: GET /api/student?page=1&limit=10&search=ann&status=true&courseId=2
		mux.Route("/api/student", func(r chi.Router) {
			r.Use(admin)
			r.Get("/", h.Student.ListStudents)
			r.Get("/all", h.Student.AllStudents)
			r.Get("/by-course/{courseId}", h.Student.StudentsByCourse)
			r.Get("/{id}", h.Student.GetStudent)
			r.Patch("/{id}", h.Student.UpdateStudent)
			r.Delete("/{id}", h.Student.DeleteStudent)
		})

		mux.Route("/api/teacher", func(r chi.Router) {
			// statistics of the calling teacher
			r.Route("/me", func(r chi.Router) {
				r.Use(teacher)
				r.Get("/counts", h.Teacher.LessonCounts)
				r.Get("/confirmed", h.Teacher.StatusCount(models.StatusConfirmed))
				r.Get("/cancelled", h.Teacher.StatusCount(models.StatusCancelled))
				r.Get("/unviewed", h.Teacher.StatusCount(models.StatusUnviewed))
				r.Get("/chart", h.Teacher.Chart)
				r.Get("/leaderboard-order", h.Teacher.LeaderboardOrder)
			})
			r.Group(func(r chi.Router) {
				r.Use(admin)
				r.Get("/", h.Teacher.ListTeachers)
				r.Get("/all", h.Teacher.AllTeachers)
				r.Get("/active", h.Teacher.ActiveTeachers)
				r.Get("/{id}", h.Teacher.GetTeacher)
				r.Patch("/{id}", h.Teacher.UpdateTeacher)
				r.Delete("/{id}", h.Teacher.DeleteTeacher)
			})
		})

		mux.Route("/api/worker", func(r chi.Router) {
			r.Use(admin)
			r.Get("/", h.Worker.ListWorkers)
			r.Patch("/{id}", h.Worker.UpdateWorker)
			r.Delete("/{id}", h.Worker.DeleteWorker)
		})

		// --- Lesson Routes ---
		mux.Route("/api/lesson", func(r chi.Router) {
			// panel is scoped to the caller inside the handler
			r.Get("/panel", h.Lesson.PanelLessons)
			r.Patch("/panel/{id}", h.Lesson.UpdatePanel)

			r.Group(func(r chi.Router) {
				r.Use(admin)
				r.Post("/", h.Lesson.AddLesson)
				r.Get("/main", h.Lesson.MainLessons)
				r.Get("/current", h.Lesson.CurrentLessons)
				r.Post("/current/generate", h.Lesson.GenerateWeek)
				r.Patch("/table/{id}", h.Lesson.UpdateTable)
				r.Delete("/{id}", h.Lesson.DeleteLesson)
			})
		})

		// --- Payroll Routes ---
		mux.Route("/api/salary", func(r chi.Router) {
			r.With(teacher).Get("/me", h.Salary.MySalary)
			r.With(admin).Get("/", h.Salary.ListSalaries)
			r.With(admin).Post("/recompute", h.Salary.Recompute)
		})

		mux.Route("/api/bonus", func(r chi.Router) {
			r.Use(admin)
			r.Get("/", h.Bonus.ListBonuses)
			r.Post("/", h.Bonus.AddBonus)
			r.Patch("/{id}", h.Bonus.UpdateBonus)
			r.Delete("/{id}", h.Bonus.DeleteBonus)
		})

		mux.Route("/api/fine", func(r chi.Router) {
			r.With(teacher).Get("/me", h.Fine.MyFines)
			r.Group(func(r chi.Router) {
				r.Use(admin)
				r.Get("/", h.Fine.ListFines)
				r.Post("/", h.Fine.AddFine)
				r.Patch("/{id}", h.Fine.UpdateFine)
				r.Delete("/{id}", h.Fine.DeleteFine)
			})
		})

		mux.Route("/api/notification", func(r chi.Router) {
			r.With(admin).Get("/admin", h.Notification.Audience(models.AudienceAdmin))
			r.With(teacher).Get("/teacher", h.Notification.Audience(models.AudienceTeacher))
			r.With(student).Get("/student", h.Notification.StudentNotifications)
			r.Patch("/viewed", h.Notification.MarkViewed)
			r.With(admin).Post("/birthday/sync", h.Notification.SyncBirthdays)
		})

		// --- Catalog Routes ---
		mux.Route("/api/course", func(r chi.Router) {
			r.Use(admin)
			r.Get("/all", h.Course.AllCourses)
			r.Get("/", h.Course.ListCourses)
			r.Post("/", h.Course.AddCourse)
			r.Patch("/{id}", h.Course.UpdateCourse)
			r.Delete("/{id}", h.Course.DeleteCourse)
		})

		// Example: GET /api/syllabus/all?courseId=2
		mux.Route("/api/syllabus", func(r chi.Router) {
			r.Use(admin)
			r.Get("/all", h.Syllabus.AllSyllabus)
			r.Get("/", h.Syllabus.ListSyllabus)
			r.Post("/", h.Syllabus.AddSyllabus)
			r.Patch("/{id}", h.Syllabus.UpdateSyllabus)
			r.Delete("/{id}", h.Syllabus.DeleteSyllabus)
		})

		// --- Finance Routes ---
		mux.Route("/api/income", func(r chi.Router) { entryRoutes(r.With(admin), h.Income) })
		mux.Route("/api/expense", func(r chi.Router) { entryRoutes(r.With(admin), h.Expense) })

		mux.Route("/api/receipt", func(r chi.Router) {
			r.Use(RequireRoles(models.RoleAdmin, models.RoleWorker))
			r.Get("/", h.Receipt.ListReceipts)
			r.Post("/", h.Receipt.AddReceipt)
			r.Patch("/{id}", h.Receipt.UpdateReceipt)
			r.Delete("/{id}", h.Receipt.DeleteReceipt)
		})

		mux.Route("/api/demo", func(r chi.Router) {
			r.Use(admin)
			r.Get("/", h.Demo.ListDemos)
			r.Post("/", h.Demo.AddDemo)
			r.Patch("/{id}", h.Demo.UpdateDemo)
			r.Delete("/{id}", h.Demo.DeleteDemo)
		})

		// --- Dashboard Routes ---
		// Example: GET /api/dashboard/finance?startDate=2024-01-01&endDate=2024-03-31
		mux.Route("/api/dashboard", func(r chi.Router) {
			r.Use(admin)
			r.Get("/confirmed-lessons", h.Dashboard.LessonCount(models.StatusConfirmed))
			r.Get("/cancelled-lessons", h.Dashboard.LessonCount(models.StatusCancelled))
			r.Get("/unviewed-lessons", h.Dashboard.UnviewedLessons)
			r.Get("/finance", h.Dashboard.Finance)
			r.Get("/course-statistics", h.Dashboard.CourseStatistics)
			r.Get("/advertising", h.Dashboard.Advertising)
			r.Get("/teachers-results", h.Dashboard.TeachersResults)
			r.Get("/chart", h.Dashboard.Chart)
			r.Get("/active-students", h.Dashboard.ActiveStudents)
			r.Get("/held-demos", h.Dashboard.DemoCount(models.DemoHeld))
			r.Get("/confirmed-demos", h.Dashboard.DemoCount(models.DemoConfirmed))
		})
	})

	return mux
}

// entryRoutes mounts the CRUD of an income or expense ledger
func entryRoutes(r chi.Router, eh *api.EntryHandler) {
	r.Get("/", eh.ListEntries)
	r.Post("/", eh.AddEntry)
	r.Patch("/{id}", eh.UpdateEntry)
	r.Delete("/{id}", eh.DeleteEntry)
}
