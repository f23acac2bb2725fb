package data

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dropsafe/dropsafe/pkg/model"
)

const (
	insertRunSQL = `INSERT INTO training_run (
			algorithm,
			cv_f1,
			cv_auc,
			val_f1,
			val_auc,
			samples,
			candidates,
			trained_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectRunsSQL = `SELECT
			id,
			algorithm,
			cv_f1,
			cv_auc,
			val_f1,
			val_auc,
			samples,
			candidates,
			trained_at
		FROM training_run
		ORDER BY id DESC
		LIMIT ?
	`
)

// TrainingRun is one recorded model training outcome.
type TrainingRun struct {
	ID         int64                    `json:"id" yaml:"id"`
	Algorithm  string                   `json:"algorithm" yaml:"algorithm"`
	CVF1       float64                  `json:"cv_f1" yaml:"cvF1"`
	CVAUC      float64                  `json:"cv_auc" yaml:"cvAuc"`
	ValF1      float64                  `json:"val_f1" yaml:"valF1"`
	ValAUC     float64                  `json:"val_auc" yaml:"valAuc"`
	Samples    int                      `json:"samples" yaml:"samples"`
	Candidates []*model.CandidateResult `json:"candidates,omitempty" yaml:"candidates,omitempty"`
	TrainedAt  string                   `json:"trained_at" yaml:"trainedAt"`
}

// SaveTrainingRun records the outcome of a completed training run,
// including the per-candidate comparison.
func SaveTrainingRun(db *sql.DB, a *model.Artifact) error {
	if db == nil {
		return errDBNotInitialized
	}
	if a == nil {
		return errors.New("artifact required")
	}

	candidates, err := json.Marshal(a.Candidates)
	if err != nil {
		return fmt.Errorf("failed to marshal candidate summary: %w", err)
	}

	_, err = db.Exec(insertRunSQL,
		a.Algorithm,
		a.CV.F1, a.CV.AUC,
		a.Validation.F1, a.Validation.AUC,
		a.Samples,
		string(candidates),
		a.TrainedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to save training run: %w", err)
	}

	return nil
}

// GetTrainingRuns returns the most recent runs, newest first.
func GetTrainingRuns(db *sql.DB, limit int) ([]*TrainingRun, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(selectRunsSQL, limit)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query training runs: %w", err)
	}
	defer rows.Close()

	list := make([]*TrainingRun, 0)
	for rows.Next() {
		r := &TrainingRun{}
		var candidates string
		if err := rows.Scan(&r.ID, &r.Algorithm, &r.CVF1, &r.CVAUC, &r.ValF1, &r.ValAUC,
			&r.Samples, &candidates, &r.TrainedAt); err != nil {
			return nil, fmt.Errorf("failed to scan training run row: %w", err)
		}
		if candidates != "" {
			if err := json.Unmarshal([]byte(candidates), &r.Candidates); err != nil {
				return nil, fmt.Errorf("failed to parse candidate summary for run %d: %w", r.ID, err)
			}
		}
		list = append(list, r)
	}

	return list, rows.Err()
}
