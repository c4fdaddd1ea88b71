package dbrepo

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBRepository contains all individual repositories
type DBRepository struct {
	AccountRepo      *AccountRepo
	AdminRepo        *AdminRepo
	TeacherRepo      *TeacherRepo
	StudentRepo      *StudentRepo
	WorkerRepo       *WorkerRepo
	CourseRepo       *CourseRepo
	SyllabusRepo     *SyllabusRepo
	LessonRepo       *LessonRepo
	SalaryRepo       *SalaryRepo
	BonusRepo        *BonusRepo
	FineRepo         *FineRepo
	NotificationRepo *NotificationRepo
	IncomeRepo       *EntryRepo
	ExpenseRepo      *EntryRepo
	ReceiptRepo      *ReceiptRepo
	DemoRepo         *DemoRepo
	ReportRepo       *ReportRepo
}

// NewDBRepository initializes all repositories with a shared connection pool
func NewDBRepository(db *pgxpool.Pool) *DBRepository {
	return &DBRepository{
		AccountRepo:      NewAccountRepo(db),
		AdminRepo:        NewAdminRepo(db),
		TeacherRepo:      NewTeacherRepo(db),
		StudentRepo:      NewStudentRepo(db),
		WorkerRepo:       NewWorkerRepo(db),
		CourseRepo:       NewCourseRepo(db),
		SyllabusRepo:     NewSyllabusRepo(db),
		LessonRepo:       NewLessonRepo(db),
		SalaryRepo:       NewSalaryRepo(db),
		BonusRepo:        NewBonusRepo(db),
		FineRepo:         NewFineRepo(db),
		NotificationRepo: NewNotificationRepo(db),
		IncomeRepo:       NewIncomeRepo(db),
		ExpenseRepo:      NewExpenseRepo(db),
		ReceiptRepo:      NewReceiptRepo(db),
		DemoRepo:         NewDemoRepo(db),
		ReportRepo:       NewReportRepo(db),
	}
}
