package data

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dropsafe/dropsafe/pkg/ingest"
)

const (
	insertStudentSQL = `INSERT INTO student (
			id,
			name,
			attendance,
			marks,
			fee_status,
			imported_at
		)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = ?,
			attendance = ?,
			marks = ?,
			fee_status = ?,
			imported_at = ?
	`

	selectStudentSQL = `SELECT
			id,
			name,
			attendance,
			marks,
			fee_status
		FROM student
		WHERE id = ?
	`

	selectAllStudentsSQL = `SELECT
			id,
			name,
			attendance,
			marks,
			fee_status
		FROM student
		ORDER BY id
	`

	queryStudentsSQL = `SELECT
			id,
			name,
			attendance,
			marks,
			fee_status
		FROM student
		WHERE id LIKE ?
		OR name LIKE ?
		ORDER BY id
		LIMIT ?
	`

	deleteStudentsSQL    = `DELETE FROM student`
	deleteAssessmentsSQL = `DELETE FROM assessment`
	deleteRunsSQL        = `DELETE FROM training_run`
)

// SaveStudents upserts a batch of records in one transaction.
func SaveStudents(db *sql.DB, recs []*ingest.StudentRecord) error {
	if db == nil {
		return errDBNotInitialized
	}

	now := time.Now().UTC().Format(timeFormat)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(insertStudentSQL)
	if err != nil {
		rollbackTransaction(tx)
		return fmt.Errorf("failed to prepare student insert: %w", err)
	}

	for _, r := range recs {
		_, err = stmt.Exec(
			r.ID, r.Name, r.Attendance, r.Marks, string(r.FeeStatus), now,
			r.Name, r.Attendance, r.Marks, string(r.FeeStatus), now,
		)
		if err != nil {
			rollbackTransaction(tx)
			return fmt.Errorf("failed to save student %s: %w", r.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit student batch: %w", err)
	}

	return nil
}

// GetStudent returns one student by id, nil if absent.
func GetStudent(db *sql.DB, id string) (*ingest.StudentRecord, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if id == "" {
		return nil, errors.New("student id required")
	}

	r := &ingest.StudentRecord{}
	var fee string
	err := db.QueryRow(selectStudentSQL, id).Scan(&r.ID, &r.Name, &r.Attendance, &r.Marks, &fee)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query student %s: %w", id, err)
	}
	r.FeeStatus = ingest.FeeStatus(fee)

	return r, nil
}

// GetAllStudents returns every stored student ordered by id.
func GetAllStudents(db *sql.DB) ([]*ingest.StudentRecord, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	return scanStudents(db.Query(selectAllStudentsSQL))
}

// QueryStudents fuzzy-searches students by id or name.
func QueryStudents(db *sql.DB, like string, limit int) ([]*ingest.StudentRecord, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if like == "" {
		return nil, errors.New("query is required")
	}
	pattern := "%" + like + "%"
	return scanStudents(db.Query(queryStudentsSQL, pattern, pattern, limit))
}

func scanStudents(rows *sql.Rows, err error) ([]*ingest.StudentRecord, error) {
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	list := make([]*ingest.StudentRecord, 0)
	for rows.Next() {
		r := &ingest.StudentRecord{}
		var fee string
		if err := rows.Scan(&r.ID, &r.Name, &r.Attendance, &r.Marks, &fee); err != nil {
			return nil, fmt.Errorf("failed to scan student row: %w", err)
		}
		r.FeeStatus = ingest.FeeStatus(fee)
		list = append(list, r)
	}

	return list, rows.Err()
}

// Reset clears all stored students, assessments, and training runs.
func Reset(db *sql.DB) error {
	if db == nil {
		return errDBNotInitialized
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin reset transaction: %w", err)
	}
	for _, stmt := range []string{deleteAssessmentsSQL, deleteRunsSQL, deleteStudentsSQL} {
		if _, err := tx.Exec(stmt); err != nil {
			rollbackTransaction(tx)
			return fmt.Errorf("failed to reset data: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}

	return nil
}
