package models

import "time"

// Salary is the per teacher per month aggregate
type Salary struct {
	ID               int64     `json:"id"`
	TeacherID        int64     `json:"teacher_id"`
	Period           time.Time `json:"period"` // first day of the month
	Scheme           PayScheme `json:"teacher_salary"`
	ConfirmedCount   int       `json:"confirmed_count"`
	CancelledCount   int       `json:"cancelled_count"`
	ParticipantCount int       `json:"participant_count"`
	Amount           float64   `json:"amount"`
	BonusID          *int64    `json:"bonus_id"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// SalarySummary is a teacher's salary totals over a range of months
type SalarySummary struct {
	TeacherID        int64     `json:"teacher_id"`
	TeacherName      string    `json:"teacher_name"`
	Scheme           PayScheme `json:"salary"`
	ConfirmedCount   int       `json:"confirmed_count"`
	CancelledCount   int       `json:"cancelled_count"`
	ParticipantCount int       `json:"participant_count"`
	TotalSalary      float64   `json:"total_salary"`
	Bonus            float64   `json:"bonus"`
}

type Bonus struct {
	ID          int64     `json:"id"`
	TeacherID   int64     `json:"teacher_id" validate:"required"`
	TeacherName string    `json:"teacher_name,omitempty"`
	Amount      float64   `json:"amount" validate:"gt=0"`
	Comment     string    `json:"comment"`
	Period      time.Time `json:"period"`
	CreatedAt   time.Time `json:"created_at"`
}

type Fine struct {
	ID          int64     `json:"id"`
	TeacherID   int64     `json:"teacher_id" validate:"required"`
	TeacherName string    `json:"teacher_name,omitempty"`
	FineType    string    `json:"fine_type" validate:"required,oneof=verbalWarning writtenWarning tardiness resentment punishment rebuke"`
	Comment     string    `json:"comment"`
	CreatedAt   time.Time `json:"created_at"`
}

// Earning is the monthly total of confirmed lesson earnings
type Earning struct {
	Period    time.Time `json:"period"`
	Earnings  float64   `json:"earnings"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Leaderboard is the per teacher per month ranking aggregate
type Leaderboard struct {
	TeacherID   int64     `json:"teacher_id"`
	Period      time.Time `json:"period"`
	LessonCount int       `json:"lesson_count"`
	StarCount   int       `json:"star_count"`
}

// LeaderboardEntry is one teacher's score over an arbitrary range
type LeaderboardEntry struct {
	TeacherID   int64  `json:"teacher_id"`
	FullName    string `json:"full_name"`
	LessonCount int    `json:"lesson_count"`
	StarCount   int    `json:"star_count"`
}

// Ranking metrics
const (
	ByLessonCount = "lessonCount"
	ByStarCount   = "starCount"
)
