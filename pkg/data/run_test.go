package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropsafe/dropsafe/pkg/model"
)

func testArtifact(algorithm string, f1 float64) *model.Artifact {
	return &model.Artifact{
		Algorithm:  algorithm,
		CV:         model.Metrics{F1: f1, AUC: 0.9},
		Validation: model.Metrics{F1: f1 - 0.02, AUC: 0.88},
		Samples:    120,
		Candidates: []*model.CandidateResult{
			{Algorithm: model.AlgorithmLogistic, CV: &model.Metrics{F1: f1}, Selected: algorithm == model.AlgorithmLogistic},
			{Algorithm: model.AlgorithmRandomForest, Error: "boom"},
		},
		TrainedAt: time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
	}
}

func TestSaveTrainingRun(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, SaveTrainingRun(db, testArtifact(model.AlgorithmLogistic, 0.91)))

	runs, err := GetTrainingRuns(db, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	r := runs[0]
	assert.Equal(t, model.AlgorithmLogistic, r.Algorithm)
	assert.InDelta(t, 0.91, r.CVF1, 1e-9)
	assert.InDelta(t, 0.89, r.ValF1, 1e-9)
	assert.Equal(t, 120, r.Samples)
	assert.Equal(t, "2026-08-25T10:00:00Z", r.TrainedAt)

	require.Len(t, r.Candidates, 2)
	assert.True(t, r.Candidates[0].Selected)
	assert.Equal(t, "boom", r.Candidates[1].Error)
}

func TestGetTrainingRuns_NewestFirst(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, SaveTrainingRun(db, testArtifact(model.AlgorithmLogistic, 0.85)))
	require.NoError(t, SaveTrainingRun(db, testArtifact(model.AlgorithmRandomForest, 0.92)))

	runs, err := GetTrainingRuns(db, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, model.AlgorithmRandomForest, runs[0].Algorithm)
	assert.Equal(t, model.AlgorithmLogistic, runs[1].Algorithm)

	one, err := GetTrainingRuns(db, 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, model.AlgorithmRandomForest, one[0].Algorithm)
}

func TestSaveTrainingRun_NilArtifact(t *testing.T) {
	db := setupTestDB(t)
	assert.Error(t, SaveTrainingRun(db, nil))
}

func TestRuns_NilDB(t *testing.T) {
	assert.Error(t, SaveTrainingRun(nil, testArtifact(model.AlgorithmLogistic, 0.9)))
	_, err := GetTrainingRuns(nil, 10)
	assert.Error(t, err)
}
