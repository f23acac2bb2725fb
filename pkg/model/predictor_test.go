package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropsafe/dropsafe/pkg/feature"
	"github.com/dropsafe/dropsafe/pkg/ingest"
	"github.com/dropsafe/dropsafe/pkg/risk"
)

func testScorer(t *testing.T) *risk.Scorer {
	t.Helper()
	s, err := risk.NewScorer(risk.DefaultPolicy())
	require.NoError(t, err)
	return s
}

func TestNewPredictor_RequiresScorer(t *testing.T) {
	_, err := NewPredictor(filepath.Join(t.TempDir(), "absent.json"), nil)
	assert.Error(t, err)
}

func TestNewPredictor_DegradedWhenAbsent(t *testing.T) {
	p, err := NewPredictor(filepath.Join(t.TempDir(), "absent.json"), testScorer(t))
	require.NoError(t, err)

	assert.True(t, p.Degraded())
	assert.Equal(t, "rule_based", p.Algorithm())
	assert.Nil(t, p.Artifact())
}

func TestNewPredictor_CorruptArtifactIsHardError(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultArtifactName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewPredictor(path, testScorer(t))
	require.Error(t, err)

	var lerr *ModelLoadError
	assert.ErrorAs(t, err, &lerr)
}

func TestPredict_Degraded(t *testing.T) {
	p, err := NewPredictor(filepath.Join(t.TempDir(), "absent.json"), testScorer(t))
	require.NoError(t, err)

	recs := trainingRecords(5)
	got, err := p.Predict(recs)
	require.NoError(t, err)

	vecs, err := feature.EngineerAll(recs)
	require.NoError(t, err)
	want, err := testScorer(t).ScoreAll(vecs)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPredict_Trained(t *testing.T) {
	art := trainArtifact(t)
	path := filepath.Join(t.TempDir(), DefaultArtifactName)
	require.NoError(t, art.Save(path))

	scorer := testScorer(t)
	p, err := NewPredictor(path, scorer)
	require.NoError(t, err)
	assert.False(t, p.Degraded())
	assert.Equal(t, art.Algorithm, p.Algorithm())

	recs := []*ingest.StudentRecord{
		{ID: "S-SAFE", Name: "Asha", Attendance: 95, Marks: 88, FeeStatus: ingest.FeePaid},
		{ID: "S-HIGH", Name: "Ben", Attendance: 45, Marks: 22, FeeStatus: ingest.FeeOverdue},
	}

	list, err := p.Predict(recs)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "S-SAFE", list[0].StudentID)
	assert.Equal(t, "S-HIGH", list[1].StudentID)
	for _, a := range list {
		assert.GreaterOrEqual(t, a.Score, 0.0)
		assert.LessOrEqual(t, a.Score, 1.0)
		assert.Equal(t, scorer.LabelFor(a.Score), a.Label)
	}
	assert.Greater(t, list[1].Score, list[0].Score)
}

func TestPredict_TrainedMatchesSeparableLabels(t *testing.T) {
	art := trainArtifact(t)
	path := filepath.Join(t.TempDir(), DefaultArtifactName)
	require.NoError(t, art.Save(path))

	p, err := NewPredictor(path, testScorer(t))
	require.NoError(t, err)

	recs := trainingRecords(10)
	vecs, err := feature.EngineerAll(recs)
	require.NoError(t, err)
	want, err := testScorer(t).Classes(vecs)
	require.NoError(t, err)

	list, err := p.Predict(recs)
	require.NoError(t, err)
	require.Len(t, list, len(recs))

	var hits int
	for i, a := range list {
		if risk.Class(a.Label) == want[i] {
			hits++
		}
	}
	assert.GreaterOrEqual(t, float64(hits)/float64(len(recs)), 0.9)
}

func TestPredict_InvalidRecord(t *testing.T) {
	p, err := NewPredictor(filepath.Join(t.TempDir(), "absent.json"), testScorer(t))
	require.NoError(t, err)

	_, err = p.Predict([]*ingest.StudentRecord{
		{ID: "S001", Attendance: 80, Marks: 80, FeeStatus: ingest.FeeStatus("unknown")},
	})
	assert.Error(t, err)
}
