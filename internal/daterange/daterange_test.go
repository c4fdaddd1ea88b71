package daterange

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 15, 30, 0, 0, time.UTC)
}

func assertDayStart(t *testing.T, ts time.Time) {
	t.Helper()
	assert.Equal(t, 0, ts.Hour())
	assert.Equal(t, 0, ts.Minute())
	assert.Equal(t, 0, ts.Second())
	assert.Equal(t, 0, ts.Nanosecond())
}

func assertDayEnd(t *testing.T, ts time.Time) {
	t.Helper()
	assert.Equal(t, 23, ts.Hour())
	assert.Equal(t, 59, ts.Minute())
	assert.Equal(t, 59, ts.Second())
	assert.Equal(t, int(999*time.Millisecond), ts.Nanosecond())
}

func TestMonthsThreeOnMarchFifteenth(t *testing.T) {
	r := Months(date(2024, time.March, 15), 3)

	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Date(2024, time.March, 31, 23, 59, 59, int(999*time.Millisecond), time.UTC), r.End)
}

func TestMonthsAlwaysEndsInCurrentMonth(t *testing.T) {
	nows := []time.Time{
		date(2024, time.January, 1),
		date(2024, time.February, 29),
		date(2023, time.December, 31),
		date(2025, time.July, 10),
	}
	for _, now := range nows {
		for n := 1; n <= 25; n++ {
			r := Months(now, n)
			assert.Equal(t, 1, r.Start.Day(), "n=%d now=%s", n, now)
			assertDayStart(t, r.Start)
			assertDayEnd(t, r.End)
			assert.Equal(t, now.Year(), r.End.Year())
			assert.Equal(t, now.Month(), r.End.Month())
			assert.Equal(t, r.End.Month(), r.End.Add(time.Millisecond).AddDate(0, 0, -1).Month(), "end is the last day of the month")
			assert.Equal(t, 1, r.End.Add(time.Millisecond).Day())
			assert.False(t, r.Start.After(r.End))
		}
	}
}

func TestMonthsCrossesYearBoundary(t *testing.T) {
	r := Months(date(2024, time.February, 10), 4)
	assert.Equal(t, time.Date(2023, time.November, 1, 0, 0, 0, 0, time.UTC), r.Start)
}

func TestMonthsNonPositiveCountIsCurrentMonth(t *testing.T) {
	now := date(2024, time.May, 20)
	assert.Equal(t, Months(now, 1), Months(now, 0))
}

func TestBetweenClampsToDayBoundaries(t *testing.T) {
	pairs := [][2]time.Time{
		{date(2024, time.March, 1), date(2024, time.March, 1)},
		{date(2024, time.January, 5), date(2024, time.June, 7)},
		{time.Date(2023, 12, 31, 23, 59, 0, 0, time.UTC), time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC)},
	}
	for _, p := range pairs {
		r := Between(p[0], p[1])
		assertDayStart(t, r.Start)
		assertDayEnd(t, r.End)
		assert.Equal(t, p[0].YearDay(), r.Start.YearDay())
		assert.Equal(t, p[1].YearDay(), r.End.YearDay())
	}
}

func TestWeekOnWednesday(t *testing.T) {
	wed := date(2024, time.March, 13)
	require.Equal(t, time.Wednesday, wed.Weekday())

	r := Week(wed)

	assert.Equal(t, time.Monday, r.Start.Weekday())
	assert.Equal(t, time.Sunday, r.End.Weekday())
	assert.Equal(t, 11, r.Start.Day())
	assert.Equal(t, 17, r.End.Day())
	assertDayStart(t, r.Start)
	assertDayEnd(t, r.End)
	assert.Equal(t, 7*24*time.Hour, r.End.Sub(r.Start)+time.Millisecond)
}

func TestWeekOnSundayBelongsToPreviousMonday(t *testing.T) {
	sun := date(2024, time.March, 17)
	r := Week(sun)
	assert.Equal(t, 11, r.Start.Day())
	assert.Equal(t, 17, r.End.Day())
}

func TestMonthlySnapsToWholeMonths(t *testing.T) {
	r := Monthly(date(2024, time.January, 20), date(2024, time.February, 3))
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Date(2024, time.February, 29, 23, 59, 59, int(999*time.Millisecond), time.UTC), r.End)
	assert.Len(t, r.Months(), 2)
}

func TestParseQuery(t *testing.T) {
	now := date(2024, time.March, 15)
	tests := []struct {
		name    string
		values  url.Values
		want    Range
		wantErr bool
	}{
		{
			name:   "month count",
			values: url.Values{"monthCount": {"3"}},
			want:   Months(now, 3),
		},
		{
			name:   "explicit pair",
			values: url.Values{"startDate": {"2024-02-02"}, "endDate": {"2024-02-10"}},
			want:   Between(time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)),
		},
		{
			name:   "weekly",
			values: url.Values{"weekly": {"true"}},
			want:   Week(now),
		},
		{
			name:   "default is current month",
			values: url.Values{},
			want:   Months(now, 1),
		},
		{
			name:    "half a pair",
			values:  url.Values{"startDate": {"2024-02-02"}},
			wantErr: true,
		},
		{
			name:    "bad month count",
			values:  url.Values{"monthCount": {"zero"}},
			wantErr: true,
		},
		{
			name:    "reversed pair",
			values:  url.Values{"startDate": {"2024-02-10"}, "endDate": {"2024-02-02"}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseQuery(tt.values, time.UTC)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.Resolve(now))
		})
	}
}
