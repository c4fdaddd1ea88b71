package dbrepo

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/projuktisheba/tutorhub-api/internal/driver"
	"github.com/stretchr/testify/require"
)

// testDB is a migrated database for the repository tests. They are skipped
// when TEST_DSN is not set.
var testDB *pgxpool.Pool

func TestMain(m *testing.M) {
	if dsn := os.Getenv("TEST_DSN"); dsn != "" {
		pool, err := driver.NewPgxPool(dsn)
		if err != nil {
			fmt.Printf("open test database: %v\n", err)
			os.Exit(1)
		}
		if err := driver.Migrate(context.Background(), pool); err != nil {
			fmt.Printf("migrate test database: %v\n", err)
			os.Exit(1)
		}
		testDB = pool
	}

	code := m.Run()

	if testDB != nil {
		testDB.Close()
	}
	os.Exit(code)
}

// freshDB empties every table and returns the test database
func freshDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testDB == nil {
		t.Skip("TEST_DSN not set")
	}
	_, err := testDB.Exec(context.Background(), `
		TRUNCATE admins, courses, teachers, students, workers, lessons, bonuses, salaries,
		         fines, earnings, leaderboards, notifications, incomes, expenses, receipts, demos, tokens
		RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return testDB
}

func count(t *testing.T, db *pgxpool.Pool, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(context.Background(), query, args...).Scan(&n))
	return n
}

func insertID(t *testing.T, db *pgxpool.Pool, query string, args ...any) int64 {
	t.Helper()
	var id int64
	require.NoError(t, db.QueryRow(context.Background(), query, args...).Scan(&id))
	return id
}
