package model

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropsafe/dropsafe/pkg/feature"
)

func TestArtifact_SaveLoadRoundTrip(t *testing.T) {
	art := trainArtifact(t)
	path := filepath.Join(t.TempDir(), DefaultArtifactName)

	require.NoError(t, art.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, art.Algorithm, loaded.Algorithm)
	assert.Equal(t, art.FeatureNames, loaded.FeatureNames)
	assert.Equal(t, art.Scaler.Means, loaded.Scaler.Means)
	assert.Equal(t, art.Scaler.Stds, loaded.Scaler.Stds)
	assert.Equal(t, art.CV, loaded.CV)
	assert.Equal(t, art.Validation, loaded.Validation)
	assert.Equal(t, art.Seed, loaded.Seed)
	require.NotNil(t, loaded.classifier())
	assert.Equal(t, art.Algorithm, loaded.classifier().Name())
}

func TestArtifact_ReloadReproducesPredictions(t *testing.T) {
	vecs, y := trainingBatch(t, 20)

	opts := DefaultTrainerOptions()
	opts.Output = filepath.Join(t.TempDir(), DefaultArtifactName)
	art, err := Train(context.Background(), vecs, y, opts)
	require.NoError(t, err)

	loaded, err := Load(opts.Output)
	require.NoError(t, err)
	assert.Equal(t, art.Validation, loaded.Validation)

	x, err := art.Scaler.Transform(feature.Matrix(vecs))
	require.NoError(t, err)
	lx, err := loaded.Scaler.Transform(feature.Matrix(vecs))
	require.NoError(t, err)

	want := art.classifier().PredictProba(x)
	got := loaded.classifier().PredictProba(lx)
	require.Len(t, got, len(want))
	for i := range want {
		for k := range want[i] {
			assert.InDelta(t, want[i][k], got[i][k], 1e-9, "row %d class %d", i, k)
		}
	}
}

func TestArtifact_SaveReplacesExisting(t *testing.T) {
	art := trainArtifact(t)
	path := filepath.Join(t.TempDir(), DefaultArtifactName)

	require.NoError(t, os.WriteFile(path, []byte("stale garbage"), 0600))
	require.NoError(t, art.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, art.Algorithm, loaded.Algorithm)
}

func TestArtifact_SaveLeavesNoTempFiles(t *testing.T) {
	art := trainArtifact(t)
	dir := t.TempDir()

	require.NoError(t, art.Save(filepath.Join(dir, DefaultArtifactName)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, DefaultArtifactName, entries[0].Name())
}

func TestArtifact_SaveEmptyPath(t *testing.T) {
	assert.Error(t, (&Artifact{}).Save(""))
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestLoad_EmptyPath(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_CorruptJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultArtifactName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := Load(path)
	require.Error(t, err)

	var lerr *ModelLoadError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, path, lerr.Path)
	assert.NotErrorIs(t, err, ErrModelNotFound)
}

func TestLoad_FeatureSchemaMismatch(t *testing.T) {
	art := trainArtifact(t)
	path := filepath.Join(t.TempDir(), DefaultArtifactName)

	stale := *art
	stale.FeatureNames = stale.FeatureNames[:3]
	require.NoError(t, stale.Save(path))

	_, err := Load(path)
	require.Error(t, err)

	var lerr *ModelLoadError
	require.ErrorAs(t, err, &lerr)
	assert.Contains(t, lerr.Reason, "feature count mismatch")
}

func TestLoad_FeatureOrderMismatch(t *testing.T) {
	art := trainArtifact(t)
	path := filepath.Join(t.TempDir(), DefaultArtifactName)

	stale := *art
	stale.FeatureNames = append([]string(nil), art.FeatureNames...)
	stale.FeatureNames[0], stale.FeatureNames[1] = stale.FeatureNames[1], stale.FeatureNames[0]
	require.NoError(t, stale.Save(path))

	_, err := Load(path)
	require.Error(t, err)

	var lerr *ModelLoadError
	require.ErrorAs(t, err, &lerr)
	assert.Contains(t, lerr.Reason, "feature ordering mismatch")
}

func TestLoad_MissingParameters(t *testing.T) {
	art := trainArtifact(t)
	path := filepath.Join(t.TempDir(), DefaultArtifactName)

	stale := *art
	stale.Logistic = nil
	stale.Forest = nil
	stale.Boosting = nil
	require.NoError(t, stale.Save(path))

	_, err := Load(path)
	require.Error(t, err)

	var lerr *ModelLoadError
	require.ErrorAs(t, err, &lerr)
	assert.Contains(t, lerr.Reason, "missing fitted parameters")
}
