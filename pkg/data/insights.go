package data

import (
	"database/sql"
	"errors"
	"fmt"
)

const (
	selectDistributionSQL = `SELECT
			label,
			COUNT(*),
			AVG(score)
		FROM assessment
		GROUP BY label
	`

	selectMeanScoreSQL = `SELECT COALESCE(AVG(score), 0), COUNT(*) FROM assessment`
)

// LabelCount is one tier's share of the assessed cohort.
type LabelCount struct {
	Label     string  `json:"label" yaml:"label"`
	Count     int     `json:"count" yaml:"count"`
	MeanScore float64 `json:"mean_score" yaml:"meanScore"`
}

// Distribution summarizes assessed risk across the cohort.
type Distribution struct {
	Assessed  int                 `json:"assessed" yaml:"assessed"`
	MeanScore float64             `json:"mean_score" yaml:"meanScore"`
	Labels    []*LabelCount       `json:"labels" yaml:"labels"`
	TopAtRisk []*StoredAssessment `json:"top_at_risk,omitempty" yaml:"topAtRisk,omitempty"`
}

// GetDistribution returns per-label counts, the cohort mean score, and
// the highest-scoring at-risk students.
func GetDistribution(db *sql.DB, topLimit int) (*Distribution, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	d := &Distribution{Labels: make([]*LabelCount, 0)}

	if err := db.QueryRow(selectMeanScoreSQL).Scan(&d.MeanScore, &d.Assessed); err != nil {
		return nil, fmt.Errorf("failed to query cohort mean: %w", err)
	}

	rows, err := db.Query(selectDistributionSQL)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query risk distribution: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		lc := &LabelCount{}
		if err := rows.Scan(&lc.Label, &lc.Count, &lc.MeanScore); err != nil {
			return nil, fmt.Errorf("failed to scan distribution row: %w", err)
		}
		d.Labels = append(d.Labels, lc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if topLimit > 0 {
		top, err := GetAtRisk(db, topLimit)
		if err != nil {
			return nil, err
		}
		d.TopAtRisk = top
	}

	return d, nil
}
