package models

import "time"

// Entry is an income or expense record
type Entry struct {
	ID          int64     `json:"id"`
	Category    string    `json:"category" validate:"required"`
	Appointment string    `json:"appointment"`
	Amount      float64   `json:"amount" validate:"gt=0"`
	Date        time.Time `json:"date" validate:"required"`
	CreatedAt   time.Time `json:"created_at"`
}

type Receipt struct {
	ID                    int64     `json:"id"`
	CreatorID             int64     `json:"creator_id"`
	CreatorRole           string    `json:"creator_role"`
	BranchName            string    `json:"branch_name" validate:"required"`
	ProductName           string    `json:"product_name" validate:"required"`
	ProductCount          int       `json:"product_count" validate:"gte=0"`
	InitialAmount         float64   `json:"initial_amount" validate:"gte=0"`
	PrincipalAmount       float64   `json:"principal_amount" validate:"gte=0"`
	ConfirmedProductCount int       `json:"confirmed_product_count" validate:"gte=0"`
	Appointment           string    `json:"appointment"`
	Note                  string    `json:"note"`
	Status                string    `json:"status" validate:"omitempty,oneof=unviewed viewed confirmed cancelled"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Demo lesson statuses
const (
	DemoHeld      = "held"
	DemoNotHeld   = "notHeld"
	DemoConfirmed = "confirmed"
	DemoCancelled = "cancelled"
)

type Demo struct {
	ID         int64     `json:"id"`
	FullName   string    `json:"full_name" validate:"required"`
	ParentName string    `json:"parent_name"`
	Age        int       `json:"age" validate:"gte=0"`
	Sector     string    `json:"sector"`
	Class      string    `json:"class"`
	Phone      string    `json:"phone"`
	CourseID   *int64    `json:"course_id"`
	Date       time.Time `json:"date" validate:"required"`
	Status     string    `json:"status" validate:"omitempty,oneof=held notHeld confirmed cancelled"`
	CreatedAt  time.Time `json:"created_at"`
}

// FinanceSummary holds money totals rendered with two decimals
type FinanceSummary struct {
	Income   string `json:"income"`
	Expense  string `json:"expense"`
	Turnover string `json:"turnover"`
	Profit   string `json:"profit"`
}

// MonthLabel names one bucket of a monthly chart
type MonthLabel struct {
	Month string `json:"month"`
	Year  int    `json:"year"`
}

// NameValue is one row of a statistics breakdown
type NameValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CourseStatistic counts students of one course
type CourseStatistic struct {
	CourseName string `json:"course_name"`
	Value      int    `json:"value"`
}

// TeacherLessons groups lessons by teacher
type TeacherLessons struct {
	TeacherID   int64     `json:"teacher_id"`
	TeacherName string    `json:"teacher_name"`
	Lessons     []*Lesson `json:"lessons"`
}

// MonthCount is one bucket of the students per month chart
type MonthCount struct {
	MonthLabel
	Value int `json:"value"`
}

// TeacherChartPoint is one month of a teacher's statistics chart
type TeacherChartPoint struct {
	MonthLabel
	LessonCount  int `json:"lesson_count"`
	StudentCount int `json:"student_count"`
}

// LessonCounts is a confirmed, cancelled and unviewed breakdown
type LessonCounts struct {
	Confirmed int `json:"confirmed"`
	Cancelled int `json:"cancelled"`
	Unviewed  int `json:"unviewed"`
}
