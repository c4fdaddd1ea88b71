package models

import "time"

// Notification roles
const (
	NotifyBirthday    = "birthday"
	NotifyCount       = "count"
	NotifyUpdateTable = "update-table"
	NotifyFine        = "fine"
)

// BirthdayWindowDays is how many days ahead of a birthday its notification is raised
const BirthdayWindowDays = 2

// Notification audiences with per account viewed tracking
const (
	AudienceAdmin   = "admin"
	AudienceTeacher = "teacher"
)

type NotificationView struct {
	Audience  string `json:"audience"`
	AccountID int64  `json:"account_id"`
	Viewed    bool   `json:"viewed"`
}

type Notification struct {
	ID            int64              `json:"id"`
	Role          string             `json:"role"`
	StudentID     *int64             `json:"student_id"`
	StudentName   string             `json:"student_name,omitempty"`
	TeacherID     *int64             `json:"teacher_id"`
	CourseID      *int64             `json:"course_id"`
	StudentViewed bool               `json:"student_viewed"`
	Viewed        bool               `json:"viewed"` // for the caller
	Views         []NotificationView `json:"-"`
	CreatedAt     time.Time          `json:"created_at"`
}
