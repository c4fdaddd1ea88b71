package dbrepo

import (
	"context"
	"testing"
	"time"

	"github.com/projuktisheba/tutorhub-api/internal/cascade"
	"github.com/projuktisheba/tutorhub-api/internal/daterange"
	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSalaryRowPicksUpEarlierBonus(t *testing.T) {
	ctx := context.Background()
	db := freshDB(t)
	teacher := insertID(t, db, `INSERT INTO teachers (full_name, email, password) VALUES ('Tom', 'tom@x.io', '') RETURNING id`)
	march := daterange.MonthStart(today)
	april := march.AddDate(0, 1, 0)

	bonus := &models.Bonus{TeacherID: teacher, Amount: 50, Period: march}
	require.NoError(t, NewBonusRepo(db).CreateBonus(ctx, bonus))

	// the month's row is created by a rescan after the bonus
	salary := &models.Salary{TeacherID: teacher, Period: march, Scheme: models.PayScheme{Type: models.PayHourly, Value: 10}}
	err := NewLessonRepo(db).WithTx(ctx, func(tx cascade.Tx) error {
		return tx.UpsertSalary(ctx, salary)
	})
	require.NoError(t, err)
	require.NotNil(t, salary.BonusID)
	assert.Equal(t, bonus.ID, *salary.BonusID)

	// later rescans keep the link
	salary.BonusID = nil
	salary.Amount = 20
	err = NewLessonRepo(db).WithTx(ctx, func(tx cascade.Tx) error {
		return tx.UpsertSalary(ctx, salary)
	})
	require.NoError(t, err)
	require.NotNil(t, salary.BonusID)
	assert.Equal(t, bonus.ID, *salary.BonusID)

	// and so does the monthly job
	next := &models.Bonus{TeacherID: teacher, Amount: 70, Period: april.Add(36 * time.Hour)}
	require.NoError(t, NewBonusRepo(db).CreateBonus(ctx, next))
	n, err := NewSalaryRepo(db).CreateMonthlySalaries(ctx, april)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, count(t, db, `SELECT COUNT(*) FROM salaries WHERE teacher_id = $1 AND period = $2::date AND bonus_id = $3`, teacher, april, next.ID))
}
