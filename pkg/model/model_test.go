package model

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropsafe/dropsafe/pkg/feature"
	"github.com/dropsafe/dropsafe/pkg/ingest"
	"github.com/dropsafe/dropsafe/pkg/risk"
)

// trainingRecords builds a balanced, cleanly separable cohort: perClass
// students per risk tier, with attendance/marks/fees chosen so the rule
// policy assigns each block its intended label.
func trainingRecords(perClass int) []*ingest.StudentRecord {
	recs := make([]*ingest.StudentRecord, 0, 3*perClass)
	for i := 0; i < perClass; i++ {
		recs = append(recs,
			&ingest.StudentRecord{
				ID:         fmt.Sprintf("SAFE%03d", i),
				Name:       fmt.Sprintf("Safe Student %d", i),
				Attendance: 88 + float64(i%10),
				Marks:      82 + float64(i%15),
				FeeStatus:  ingest.FeePaid,
			},
			&ingest.StudentRecord{
				ID:         fmt.Sprintf("MED%03d", i),
				Name:       fmt.Sprintf("Medium Student %d", i),
				Attendance: 60 + float64(i%10),
				Marks:      50 + float64(i%10),
				FeeStatus:  ingest.FeePending,
			},
			&ingest.StudentRecord{
				ID:         fmt.Sprintf("HIGH%03d", i),
				Name:       fmt.Sprintf("High Student %d", i),
				Attendance: 40 + float64(i%8),
				Marks:      20 + float64(i%10),
				FeeStatus:  ingest.FeeOverdue,
			},
		)
	}
	return recs
}

func trainingBatch(t *testing.T, perClass int) ([]*feature.Vector, []int) {
	t.Helper()

	vecs, err := feature.EngineerAll(trainingRecords(perClass))
	require.NoError(t, err)

	s, err := risk.NewScorer(risk.DefaultPolicy())
	require.NoError(t, err)
	y, err := s.Classes(vecs)
	require.NoError(t, err)

	counts := make([]int, numClasses)
	for _, c := range y {
		counts[c]++
	}
	for c, n := range counts {
		require.Equal(t, perClass, n, "class %d not balanced", c)
	}

	return vecs, y
}

// designMatrix returns a standardized matrix and labels for classifier
// fitting, mirroring the trainer's scale-then-fit order.
func designMatrix(t *testing.T, perClass int) ([][]float64, []int) {
	t.Helper()

	vecs, y := trainingBatch(t, perClass)
	scaler, err := FitScaler(feature.Matrix(vecs))
	require.NoError(t, err)
	x, err := scaler.Transform(feature.Matrix(vecs))
	require.NoError(t, err)
	return x, y
}

func trainArtifact(t *testing.T) *Artifact {
	t.Helper()

	vecs, y := trainingBatch(t, 32)
	art, err := Train(context.Background(), vecs, y, DefaultTrainerOptions())
	require.NoError(t, err)
	require.NotNil(t, art)
	return art
}
