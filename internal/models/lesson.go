package models

import "time"

// Lesson roles
const (
	LessonMain    = "main"
	LessonCurrent = "current"
)

// Lesson statuses
const (
	StatusUnviewed  = "unviewed"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Attendance codes
const (
	AttendanceAbsent  = -1
	AttendanceUnset   = 0
	AttendancePresent = 1
	AttendanceExcused = 2
)

// LessonStudent is one student's row inside a lesson
type LessonStudent struct {
	StudentID       int64   `json:"student_id" validate:"required"`
	StudentName     string  `json:"student_name,omitempty"`
	Attendance      int     `json:"attendance" validate:"oneof=-1 0 1 2"`
	RatingByStudent int     `json:"rating_by_student" validate:"gte=0,lte=5"`
	Feedback        string  `json:"feedback"`
	Payment         float64 `json:"payment" validate:"gte=0"`
}

// Present reports whether the student attended
func (s LessonStudent) Present() bool { return s.Attendance == AttendancePresent }

// Consumes reports whether the row uses up one of the student's paid lessons.
// Only an excused absence keeps the lesson.
func (s LessonStudent) Consumes() bool { return s.Attendance != AttendanceExcused }

type Lesson struct {
	ID          int64           `json:"id"`
	Role        string          `json:"role" validate:"required,oneof=main current"`
	Date        *time.Time      `json:"date" validate:"required_if=Role current"`
	Day         int             `json:"day" validate:"gte=1,lte=7"`
	Time        string          `json:"time" validate:"required"`
	TeacherID   int64           `json:"teacher_id" validate:"required"`
	TeacherName string          `json:"teacher_name,omitempty"`
	CourseID    int64           `json:"course_id" validate:"required"`
	CourseName  string          `json:"course_name,omitempty"`
	Students    []LessonStudent `json:"students" validate:"dive"`
	Status      string          `json:"status" validate:"omitempty,oneof=unviewed confirmed cancelled"`
	Note        string          `json:"note"`
	Task        string          `json:"task"`
	Salary      PayScheme       `json:"salary"`
	Earnings    float64         `json:"earnings"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Clone returns a deep copy of l
func (l *Lesson) Clone() *Lesson {
	c := *l
	if l.Date != nil {
		d := *l.Date
		c.Date = &d
	}
	c.Students = append([]LessonStudent(nil), l.Students...)
	return &c
}

// StudentIDs returns the ids of the lesson's students in order
func (l *Lesson) StudentIDs() []int64 {
	ids := make([]int64, 0, len(l.Students))
	for _, s := range l.Students {
		ids = append(ids, s.StudentID)
	}
	return ids
}

// LessonFilter narrows lesson listings
type LessonFilter struct {
	Role       string
	TeacherID  int64
	StudentID  int64
	Status     string
	Attendance *int
	From       *time.Time
	To         *time.Time
}
