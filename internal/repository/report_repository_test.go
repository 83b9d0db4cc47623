package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/assert/v2"
)

func TestSaveUpsertsByDate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	payload := []byte(`{"date":"2026-02-25"}`)
	mock.ExpectExec("INSERT INTO report").
		WithArgs("2026-02-25", payload).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewReportRepository(db)
	assert.Equal(t, nil, repo.Save("2026-02-25", payload))

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetLatest(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	created := time.Date(2026, 2, 25, 13, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "report_date", "payload", "created_at"}).
		AddRow(int64(7), "2026-02-25", []byte(`{}`), created)
	mock.ExpectQuery("SELECT id, report_date, payload, created_at").
		WillReturnRows(rows)

	repo := NewReportRepository(db)
	report, err := repo.GetLatest()

	assert.Equal(t, nil, err)
	assert.Equal(t, int64(7), report.ID)
	assert.Equal(t, "2026-02-25", report.Date)
	assert.Equal(t, created, report.CreatedAt)
}

func TestGetLatestEmptyTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id, report_date, payload, created_at").
		WillReturnRows(sqlmock.NewRows([]string{"id", "report_date", "payload", "created_at"}))

	repo := NewReportRepository(db)
	report, err := repo.GetLatest()

	assert.Equal(t, nil, err)
	if report != nil {
		t.Errorf("expected nil report, got %+v", report)
	}
}

func TestGetByDateNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id, report_date, payload, created_at").
		WithArgs("2026-01-01").
		WillReturnRows(sqlmock.NewRows([]string{"id", "report_date", "payload", "created_at"}))

	repo := NewReportRepository(db)
	report, err := repo.GetByDate("2026-01-01")

	assert.Equal(t, nil, err)
	if report != nil {
		t.Errorf("expected nil report, got %+v", report)
	}
}

func TestGetByDateQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id, report_date, payload, created_at").
		WithArgs("2026-02-25").
		WillReturnError(errors.New("connection reset"))

	repo := NewReportRepository(db)
	_, err = repo.GetByDate("2026-02-25")

	assert.NotEqual(t, nil, err)
}

func TestGetDates(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"report_date"}).
		AddRow("2026-02-25").
		AddRow("2026-02-24")
	mock.ExpectQuery("SELECT report_date").
		WithArgs(30).
		WillReturnRows(rows)

	repo := NewReportRepository(db)
	dates, err := repo.GetDates(30)

	assert.Equal(t, nil, err)
	assert.Equal(t, []string{"2026-02-25", "2026-02-24"}, dates)
}
