package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/projuktisheba/tutorhub-api/internal/daterange"
	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	today time.Time
	days  int
	month time.Time
	week  daterange.Range
	err   error
}

func (f *fakeRepo) SyncBirthdays(_ context.Context, today time.Time, days int) (int64, int64, error) {
	f.today, f.days = today, days
	return 1, 2, f.err
}

func (f *fakeRepo) CreateMonthlySalaries(_ context.Context, month time.Time) (int64, error) {
	f.month = month
	return 3, f.err
}

func (f *fakeRepo) GenerateCurrentWeek(_ context.Context, week daterange.Range) (int, error) {
	f.week = week
	return 4, f.err
}

func newJobs(repo *fakeRepo, buf *bytes.Buffer) *Jobs {
	l := log.New(buf, "", 0)
	j := NewJobs(repo, repo, repo, l, l)
	j.now = func() time.Time { return time.Date(2024, 3, 13, 0, 5, 0, 0, time.UTC) }
	return j
}

func TestJobsUseTheClock(t *testing.T) {
	repo := &fakeRepo{}
	var buf bytes.Buffer
	j := newJobs(repo, &buf)
	ctx := context.Background()

	require.NoError(t, j.SyncBirthdays(ctx))
	assert.Equal(t, time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC), repo.today)
	assert.Equal(t, 2, repo.days)

	require.NoError(t, j.OpenSalaries(ctx))
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), repo.month)

	require.NoError(t, j.GenerateWeek(ctx))
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), repo.week.Start)
	assert.Contains(t, buf.String(), "4 lessons created")
}

func TestGenerateWeekToleratesExistingWeek(t *testing.T) {
	repo := &fakeRepo{err: models.ErrCurrentWeekExists}
	var buf bytes.Buffer
	assert.NoError(t, newJobs(repo, &buf).GenerateWeek(context.Background()))
}

func TestRunLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	j := newJobs(&fakeRepo{}, &buf)
	j.run("salaries", func(context.Context) error { return errors.New("db down") })()
	assert.Contains(t, buf.String(), "ERROR_JOB_salaries: db down")
}

func TestSpecsParse(t *testing.T) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	from := time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC) // Wednesday

	s, err := parser.Parse(weekSpec)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 18, 0, 5, 0, 0, time.UTC), s.Next(from))

	s, err = parser.Parse(salarySpec)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 1, 0, 0, time.UTC), s.Next(from))

	s, err = parser.Parse(birthdaySpec)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), s.Next(from))
}
