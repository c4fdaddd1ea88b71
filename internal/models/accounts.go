package models

import "time"

// Account kinds
const (
	KindAdmin   = "admin"
	KindTeacher = "teacher"
	KindStudent = "student"
	KindWorker  = "worker"
)

// Roles carried in tokens and checked by the role gates
const (
	RoleSuperAdmin = "super-admin"
	RoleAdmin      = "admin"
	RoleTeacher    = "teacher"
	RoleStudent    = "student"
	RoleWorker     = "worker"
)

// Account is the kind-tagged view over admins, teachers, students and workers
// used by authentication.
type Account struct {
	Kind         string     `json:"kind"`
	ID           int64      `json:"id"`
	FullName     string     `json:"full_name"`
	Email        string     `json:"email"`
	Password     string     `json:"-"`
	Role         string     `json:"role"`
	Active       bool       `json:"active"`
	OTP          string     `json:"-"`
	OTPExpiresAt *time.Time `json:"-"`
}

// Token is the stored refresh token of an account
type Token struct {
	ID           string    `json:"id"`
	AccountKind  string    `json:"account_kind"`
	AccountID    int64     `json:"account_id"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Admin struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"full_name" validate:"required"`
	Email     string    `json:"email" validate:"required,email"`
	Password  string    `json:"password,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Pay scheme types
const (
	PayMonthly = "monthly"
	PayHourly  = "hourly"
)

// PayScheme is a teacher's pay rule. Lessons and salary rows hold a copy of
// the scheme that applied to them.
type PayScheme struct {
	Type  string  `json:"type" validate:"required,oneof=monthly hourly"`
	Value float64 `json:"value" validate:"gte=0"`
}

func (p PayScheme) Monthly() bool { return p.Type == PayMonthly }
func (p PayScheme) Hourly() bool  { return p.Type == PayHourly }

type Teacher struct {
	ID        int64      `json:"id"`
	FullName  string     `json:"full_name" validate:"required"`
	Email     string     `json:"email" validate:"required,email"`
	Password  string     `json:"password,omitempty"`
	Birthday  *time.Time `json:"birthday"`
	Phone     string     `json:"phone"`
	Fin       string     `json:"fin"`
	Seria     string     `json:"seria"`
	Courses   []int64    `json:"courses"`
	Salary    PayScheme  `json:"salary"`
	Status    bool       `json:"status"`
	Deleted   bool       `json:"deleted"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// StudentCourse is a student's enrolment with the remaining lesson counter
type StudentCourse struct {
	CourseID     int64  `json:"course_id" validate:"required"`
	CourseName   string `json:"course_name,omitempty"`
	LessonAmount int    `json:"lesson_amount"`
}

type Student struct {
	ID          int64           `json:"id"`
	FullName    string          `json:"full_name" validate:"required"`
	Email       string          `json:"email" validate:"required,email"`
	Password    string          `json:"password,omitempty"`
	Birthday    *time.Time      `json:"birthday"`
	Phone       string          `json:"phone"`
	Parents     string          `json:"parents"`
	Fin         string          `json:"fin"`
	Seria       string          `json:"seria"`
	Payment     float64         `json:"payment" validate:"gte=0"`
	WhereComing string          `json:"where_coming" validate:"omitempty,oneof=instagram referral event externalAds other"`
	Courses     []StudentCourse `json:"courses" validate:"dive"`
	Status      bool            `json:"status"`
	Deleted     bool            `json:"deleted"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// AdvertisingChannels are the accepted values of Student.WhereComing
var AdvertisingChannels = []string{"instagram", "referral", "event", "externalAds", "other"}

const PositionAccountingOfficer = "accounting-officer"

type Worker struct {
	ID         int64     `json:"id"`
	FullName   string    `json:"full_name" validate:"required"`
	Email      string    `json:"email" validate:"required,email"`
	Password   string    `json:"password,omitempty"`
	Department string    `json:"department"`
	Positions  []string  `json:"positions"`
	Deleted    bool      `json:"deleted"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HasPosition reports whether the worker holds position p
func (w *Worker) HasPosition(p string) bool {
	for _, pos := range w.Positions {
		if pos == p {
			return true
		}
	}
	return false
}

type Course struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name" validate:"required"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
}

type Syllabus struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name" validate:"required"`
	OrderNumber int       `json:"order_number" validate:"gte=0"`
	CourseID    int64     `json:"course_id" validate:"required"`
	CreatedAt   time.Time `json:"created_at"`
}
