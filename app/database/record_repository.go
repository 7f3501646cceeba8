package database

import (
	"database/sql"
	"fmt"
	"strconv"
)

// SQLRecordRepository handles database operations for archived records.
type SQLRecordRepository struct {
	db *DB
}

func NewRecordRepository(db *DB) *SQLRecordRepository {
	return &SQLRecordRepository{db: db}
}

// UpsertRecord inserts a record or refreshes an existing one. Identity is
// (url, title); re-crawled announcements update in place.
func (r *SQLRecordRepository) UpsertRecord(record Record) error {
	_, err := r.db.Exec(`
		INSERT INTO records (city, url, title, date, content)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (url, title) DO UPDATE SET
			city = excluded.city,
			date = excluded.date,
			content = excluded.content,
			updated_at = CURRENT_TIMESTAMP
	`, record.City, record.URL, record.Title, record.Date, record.Content)
	if err != nil {
		return fmt.Errorf("failed to upsert record: %w", err)
	}

	return nil
}

// GetRecords returns archived records newest-first, optionally filtered by
// city.
func (r *SQLRecordRepository) GetRecords(city string, limit int) ([]Record, error) {
	query := `
		SELECT id, city, url, title, date, content, created_at, updated_at
		FROM records
	`
	var args []interface{}
	if city != "" {
		query += " WHERE city = ?"
		args = append(args, city)
	}
	query += " ORDER BY date DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var id int64
		if err := rows.Scan(&id, &rec.City, &rec.URL, &rec.Title, &rec.Date,
			&rec.Content, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.ID = strconv.FormatInt(id, 10)
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetRecordCount returns the total number of archived records.
func (r *SQLRecordRepository) GetRecordCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM records").Scan(&count)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}

	return count, nil
}
