package dbrepo

import (
	"context"
	"testing"
	"time"

	"github.com/projuktisheba/tutorhub-api/internal/daterange"
	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2024, time.March, 13, 9, 0, 0, 0, time.Local)

func studentRepo(t *testing.T) *StudentRepo {
	r := NewStudentRepo(freshDB(t))
	r.now = func() time.Time { return today }
	return r
}

func TestStudentCourseEditSyncsCountNotification(t *testing.T) {
	ctx := context.Background()
	repo := studentRepo(t)
	db := repo.db
	insertID(t, db, `INSERT INTO admins (full_name, email, password) VALUES ('Boss', 'boss@x.io', '') RETURNING id`)
	math := insertID(t, db, `INSERT INTO courses (name) VALUES ('Math') RETURNING id`)
	countNotes := `SELECT COUNT(*) FROM notifications WHERE role = 'count' AND student_id = $1 AND course_id = $2`

	s := &models.Student{FullName: "Ann", Email: "ann@x.io", Courses: []models.StudentCourse{{CourseID: math}}}
	require.NoError(t, repo.CreateStudent(ctx, s))
	assert.Equal(t, 1, count(t, db, countNotes, s.ID, math))
	assert.Equal(t, 1, count(t, db, `SELECT COUNT(*) FROM notification_views WHERE audience = 'admin'`))

	s.Status = true
	s.Courses = []models.StudentCourse{{CourseID: math, LessonAmount: 10}}
	require.NoError(t, repo.UpdateStudent(ctx, s))
	assert.Equal(t, 0, count(t, db, countNotes, s.ID, math))

	s.Courses = []models.StudentCourse{{CourseID: math, LessonAmount: 0}}
	require.NoError(t, repo.UpdateStudent(ctx, s))
	require.NoError(t, repo.UpdateStudent(ctx, s))
	assert.Equal(t, 1, count(t, db, countNotes, s.ID, math))

	s.Courses = []models.StudentCourse{}
	require.NoError(t, repo.UpdateStudent(ctx, s))
	assert.Equal(t, 0, count(t, db, countNotes, s.ID, math))
}

func TestDeactivatedStudentLeavesTemplates(t *testing.T) {
	ctx := context.Background()
	repo := studentRepo(t)
	db := repo.db
	math := insertID(t, db, `INSERT INTO courses (name) VALUES ('Math') RETURNING id`)
	teacher := insertID(t, db, `INSERT INTO teachers (full_name, email, password) VALUES ('Tom', 'tom@x.io', '') RETURNING id`)
	main := insertID(t, db, `INSERT INTO lessons (role, day, time, teacher_id, course_id) VALUES ('main', 1, '10:00', $1, $2) RETURNING id`, teacher, math)

	ann := &models.Student{FullName: "Ann", Email: "ann@x.io"}
	bob := &models.Student{FullName: "Bob", Email: "bob@x.io"}
	require.NoError(t, repo.CreateStudent(ctx, ann))
	require.NoError(t, repo.CreateStudent(ctx, bob))
	for i, id := range []int64{ann.ID, bob.ID} {
		insertID(t, db, `INSERT INTO lesson_students (lesson_id, student_id, position) VALUES ($1, $2, $3) RETURNING student_id`, main, id, i)
	}

	ann.Status = false
	require.NoError(t, repo.UpdateStudent(ctx, ann))
	assert.Equal(t, 0, count(t, db, `SELECT COUNT(*) FROM lesson_students WHERE student_id = $1`, ann.ID))

	// an inactive student still in a template is not carried into the week
	_, err := db.Exec(ctx, `INSERT INTO lesson_students (lesson_id, student_id, position) VALUES ($1, $2, 2)`, main, ann.ID)
	require.NoError(t, err)
	n, err := NewLessonRepo(db).GenerateCurrentWeek(ctx, daterange.Week(today))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, count(t, db, `
		SELECT COUNT(*) FROM lesson_students ls JOIN lessons l ON l.id = ls.lesson_id
		WHERE l.role = 'current' AND ls.student_id = $1`, ann.ID))
	assert.Equal(t, 1, count(t, db, `
		SELECT COUNT(*) FROM lesson_students ls JOIN lessons l ON l.id = ls.lesson_id
		WHERE l.role = 'current' AND ls.student_id = $1`, bob.ID))
}

func TestStudentBirthdayRaisedOnSave(t *testing.T) {
	ctx := context.Background()
	repo := studentRepo(t)
	db := repo.db
	insertID(t, db, `INSERT INTO admins (full_name, email, password) VALUES ('Boss', 'boss@x.io', '') RETURNING id`)
	birthdays := `SELECT COUNT(*) FROM notifications WHERE role = 'birthday' AND student_id = $1`

	tomorrow := time.Date(2010, time.March, 14, 0, 0, 0, 0, time.UTC)
	s := &models.Student{FullName: "Ann", Email: "ann@x.io", Birthday: &tomorrow}
	require.NoError(t, repo.CreateStudent(ctx, s))
	assert.Equal(t, 1, count(t, db, birthdays, s.ID))
	assert.Equal(t, 1, count(t, db, `SELECT COUNT(*) FROM notifications WHERE role = 'birthday' AND notified_on = '2024-03-14'`))
	assert.Equal(t, 1, count(t, db, `SELECT COUNT(*) FROM notification_views WHERE audience = 'admin'`))

	// saving again does not duplicate it
	s.Status = true
	require.NoError(t, repo.UpdateStudent(ctx, s))
	assert.Equal(t, 1, count(t, db, birthdays, s.ID))

	summer := time.Date(2010, time.July, 1, 0, 0, 0, 0, time.UTC)
	s.Birthday = &summer
	require.NoError(t, repo.UpdateStudent(ctx, s))
	assert.Equal(t, 0, count(t, db, birthdays, s.ID))
}
