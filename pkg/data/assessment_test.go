package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropsafe/dropsafe/pkg/risk"
)

func testAssessments() []*risk.Assessment {
	return []*risk.Assessment{
		{StudentID: "S001", Score: 0.068, Label: risk.LabelSafe},
		{StudentID: "S002", Score: 0.66, Label: risk.LabelHigh},
		{StudentID: "S003", Score: 0.41, Label: risk.LabelMedium},
	}
}

func testNames() map[string]string {
	return map[string]string{
		"S001": "Asha Rao",
		"S002": "Ben Kim",
		"S003": "Carla Diaz",
	}
}

func TestSaveAssessments(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, SaveStudents(db, testStudents()))
	require.NoError(t, SaveAssessments(db, testAssessments(), testNames(), "rule_based"))

	got, err := GetAssessment(db, "S002")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ben Kim", got.Name)
	assert.InDelta(t, 0.66, got.Score, 1e-9)
	assert.Equal(t, string(risk.LabelHigh), got.Label)
	assert.Equal(t, "rule_based", got.Source)
	assert.Contains(t, got.Alert, "HIGH ALERT: Ben Kim")
	assert.NotEmpty(t, got.AssessedAt)
}

func TestSaveAssessments_Upsert(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, SaveStudents(db, testStudents()))
	require.NoError(t, SaveAssessments(db, testAssessments(), testNames(), "rule_based"))

	rescored := []*risk.Assessment{
		{StudentID: "S002", Score: 0.35, Label: risk.LabelMedium},
	}
	require.NoError(t, SaveAssessments(db, rescored, testNames(), "random_forest"))

	got, err := GetAssessment(db, "S002")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 0.35, got.Score, 1e-9)
	assert.Equal(t, string(risk.LabelMedium), got.Label)
	assert.Equal(t, "random_forest", got.Source)
}

func TestSaveAssessments_RequiresSource(t *testing.T) {
	db := setupTestDB(t)
	assert.Error(t, SaveAssessments(db, testAssessments(), testNames(), ""))
}

func TestGetAssessment_Absent(t *testing.T) {
	db := setupTestDB(t)

	got, err := GetAssessment(db, "nope")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = GetAssessment(db, "")
	assert.Error(t, err)
}

func TestGetAtRisk(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, SaveStudents(db, testStudents()))
	require.NoError(t, SaveAssessments(db, testAssessments(), testNames(), "rule_based"))

	list, err := GetAtRisk(db, 10)
	require.NoError(t, err)

	// Safe is excluded, rest ordered by descending score.
	require.Len(t, list, 2)
	assert.Equal(t, "S002", list[0].StudentID)
	assert.Equal(t, "S003", list[1].StudentID)

	one, err := GetAtRisk(db, 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "S002", one[0].StudentID)
}

func TestAssessments_NilDB(t *testing.T) {
	assert.Error(t, SaveAssessments(nil, testAssessments(), testNames(), "rule_based"))
	_, err := GetAssessment(nil, "S001")
	assert.Error(t, err)
	_, err = GetAtRisk(nil, 10)
	assert.Error(t, err)
}
