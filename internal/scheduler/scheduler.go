// Package scheduler runs the periodic jobs: birthday notifications, the
// monthly salary rows and the current week table.
package scheduler

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/projuktisheba/tutorhub-api/internal/daterange"
	"github.com/projuktisheba/tutorhub-api/internal/metrics"
	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/robfig/cron/v3"
)

const (
	birthdaySpec = "0 0 * * *"
	salarySpec   = "1 0 1 * *"
	weekSpec     = "5 0 * * 1"

	jobTimeout = 4 * time.Minute
)

// BirthdayWindowDays is how far ahead birthday notifications are raised
const BirthdayWindowDays = models.BirthdayWindowDays

type BirthdaySyncer interface {
	SyncBirthdays(ctx context.Context, today time.Time, days int) (created, removed int64, err error)
}

type SalaryOpener interface {
	CreateMonthlySalaries(ctx context.Context, month time.Time) (int64, error)
}

type WeekGenerator interface {
	GenerateCurrentWeek(ctx context.Context, week daterange.Range) (int, error)
}

// Jobs holds the work behind every scheduled entry
type Jobs struct {
	Birthdays BirthdaySyncer
	Salaries  SalaryOpener
	Week      WeekGenerator

	infoLog  *log.Logger
	errorLog *log.Logger
	now      func() time.Time
}

func NewJobs(b BirthdaySyncer, s SalaryOpener, w WeekGenerator, infoLog, errorLog *log.Logger) *Jobs {
	return &Jobs{Birthdays: b, Salaries: s, Week: w, infoLog: infoLog, errorLog: errorLog, now: time.Now}
}

func (j *Jobs) SyncBirthdays(ctx context.Context) error {
	created, removed, err := j.Birthdays.SyncBirthdays(ctx, daterange.StartOfDay(j.now()), BirthdayWindowDays)
	if err != nil {
		return err
	}
	j.infoLog.Printf("birthday sync: %d created, %d removed", created, removed)
	return nil
}

func (j *Jobs) OpenSalaries(ctx context.Context) error {
	n, err := j.Salaries.CreateMonthlySalaries(ctx, daterange.MonthStart(j.now()))
	if err != nil {
		return err
	}
	j.infoLog.Printf("monthly salaries: %d rows opened", n)
	return nil
}

// GenerateWeek builds this week's table. A week generated by hand already is
// not a failure.
func (j *Jobs) GenerateWeek(ctx context.Context) error {
	n, err := j.Week.GenerateCurrentWeek(ctx, daterange.Week(j.now()))
	if errors.Is(err, models.ErrCurrentWeekExists) {
		j.infoLog.Println("week generation: current week already exists")
		return nil
	}
	if err != nil {
		return err
	}
	j.infoLog.Printf("week generation: %d lessons created", n)
	return nil
}

// run executes one job with a timeout and records its outcome
func (j *Jobs) run(name string, fn func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		err := fn(ctx)
		metrics.JobRuns.WithLabelValues(name, metrics.Outcome(err)).Inc()
		if err != nil {
			j.errorLog.Printf("ERROR_JOB_%s: %v", name, err)
		}
	}
}

// Start registers every job on a new cron and starts it. Stop the returned
// cron on shutdown.
func Start(j *Jobs) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	entries := []struct {
		spec, name string
		fn         func(context.Context) error
	}{
		{birthdaySpec, "birthdays", j.SyncBirthdays},
		{salarySpec, "salaries", j.OpenSalaries},
		{weekSpec, "week", j.GenerateWeek},
	}
	for _, e := range entries {
		if _, err := c.AddFunc(e.spec, j.run(e.name, e.fn)); err != nil {
			return nil, err
		}
	}
	c.Start()
	j.infoLog.Printf("scheduler started with %d jobs", len(entries))
	return c, nil
}
