package repository

import (
	"database/sql"

	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/model"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Save upserts the report payload for its date. Re-running a day
// replaces that day's archived report.
func (r *ReportRepository) Save(date string, payload []byte) error {
	_, err := r.db.Exec(`
		INSERT INTO report(report_date, payload)
		VALUES($1, $2)
		ON CONFLICT (report_date) DO UPDATE
		SET payload = EXCLUDED.payload, created_at = NOW()
	`, date, payload)
	return err
}

func (r *ReportRepository) GetLatest() (*model.StoredReport, error) {
	var report model.StoredReport
	err := r.db.QueryRow(`
		SELECT id, report_date, payload, created_at
		FROM report
		ORDER BY report_date DESC
		LIMIT 1
	`).Scan(&report.ID, &report.Date, &report.Payload, &report.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &report, nil
}

func (r *ReportRepository) GetByDate(date string) (*model.StoredReport, error) {
	var report model.StoredReport
	err := r.db.QueryRow(`
		SELECT id, report_date, payload, created_at
		FROM report
		WHERE report_date = $1
	`, date).Scan(&report.ID, &report.Date, &report.Payload, &report.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &report, nil
}

func (r *ReportRepository) GetDates(limit int) ([]string, error) {
	rows, err := r.db.Query(`
		SELECT report_date
		FROM report
		ORDER BY report_date DESC
		LIMIT $1
	`, limit)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, err
		}
		dates = append(dates, date)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return dates, nil
}

func (r *ReportRepository) Count() (int, error) {
	var total int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM report
	`).Scan(&total)
	return total, err
}
