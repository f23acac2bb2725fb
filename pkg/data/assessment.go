package data

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dropsafe/dropsafe/pkg/risk"
)

const (
	insertAssessmentSQL = `INSERT INTO assessment (
			student_id,
			score,
			label,
			source,
			alert,
			assessed_at
		)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(student_id) DO UPDATE SET
			score = ?,
			label = ?,
			source = ?,
			alert = ?,
			assessed_at = ?
	`

	selectAssessmentSQL = `SELECT
			a.student_id,
			COALESCE(s.name, ''),
			a.score,
			a.label,
			a.source,
			a.alert,
			a.assessed_at
		FROM assessment a
		LEFT JOIN student s ON s.id = a.student_id
		WHERE a.student_id = ?
	`

	selectAtRiskSQL = `SELECT
			a.student_id,
			COALESCE(s.name, ''),
			a.score,
			a.label,
			a.source,
			a.alert,
			a.assessed_at
		FROM assessment a
		LEFT JOIN student s ON s.id = a.student_id
		WHERE a.label IN (?, ?)
		ORDER BY a.score DESC
		LIMIT ?
	`
)

// StoredAssessment is an assessment with its persistence metadata.
type StoredAssessment struct {
	StudentID  string  `json:"student_id" yaml:"studentId"`
	Name       string  `json:"name,omitempty" yaml:"name,omitempty"`
	Score      float64 `json:"risk_score" yaml:"riskScore"`
	Label      string  `json:"risk_label" yaml:"riskLabel"`
	Source     string  `json:"source" yaml:"source"`
	Alert      string  `json:"alert,omitempty" yaml:"alert,omitempty"`
	AssessedAt string  `json:"assessed_at" yaml:"assessedAt"`
}

// SaveAssessments upserts a scored batch in one transaction. Source
// records which path produced the scores (algorithm name or rule_based).
// Alert messages are stored alongside so dashboards can surface them.
func SaveAssessments(db *sql.DB, list []*risk.Assessment, names map[string]string, source string) error {
	if db == nil {
		return errDBNotInitialized
	}
	if source == "" {
		return errors.New("assessment source required")
	}

	now := time.Now().UTC().Format(timeFormat)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(insertAssessmentSQL)
	if err != nil {
		rollbackTransaction(tx)
		return fmt.Errorf("failed to prepare assessment insert: %w", err)
	}

	for _, a := range list {
		alert := risk.Alert(names[a.StudentID], a.Label)
		_, err = stmt.Exec(
			a.StudentID, a.Score, string(a.Label), source, alert, now,
			a.Score, string(a.Label), source, alert, now,
		)
		if err != nil {
			rollbackTransaction(tx)
			return fmt.Errorf("failed to save assessment for %s: %w", a.StudentID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit assessment batch: %w", err)
	}

	return nil
}

// GetAssessment returns the stored assessment for a student, nil if absent.
func GetAssessment(db *sql.DB, studentID string) (*StoredAssessment, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if studentID == "" {
		return nil, errors.New("student id required")
	}

	a := &StoredAssessment{}
	err := db.QueryRow(selectAssessmentSQL, studentID).
		Scan(&a.StudentID, &a.Name, &a.Score, &a.Label, &a.Source, &a.Alert, &a.AssessedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query assessment for %s: %w", studentID, err)
	}

	return a, nil
}

// GetAtRisk returns High and Medium assessments ordered by score.
func GetAtRisk(db *sql.DB, limit int) ([]*StoredAssessment, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(selectAtRiskSQL, string(risk.LabelHigh), string(risk.LabelMedium), limit)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query at-risk assessments: %w", err)
	}
	defer rows.Close()

	list := make([]*StoredAssessment, 0)
	for rows.Next() {
		a := &StoredAssessment{}
		if err := rows.Scan(&a.StudentID, &a.Name, &a.Score, &a.Label, &a.Source, &a.Alert, &a.AssessedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assessment row: %w", err)
		}
		list = append(list, a)
	}

	return list, rows.Err()
}
