package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dropsafe/dropsafe/pkg/feature"
)

// DefaultArtifactName is the model file name under the app home dir.
const DefaultArtifactName = "model.json"

const artifactFileMode = 0600

// ErrModelNotFound signals a cleanly absent artifact. Callers fall back
// to the rule-based scorer. Distinct from ModelLoadError, which means
// the artifact exists but cannot be used.
var ErrModelNotFound = errors.New("model artifact not found")

// ModelLoadError means a persisted artifact is corrupt or incompatible
// with the current feature schema. This is a hard error for the
// prediction path; it must never silently degrade to the fallback.
type ModelLoadError struct {
	Path   string
	Reason string
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("cannot load model %s: %s", e.Path, e.Reason)
}

// FeatureImportance is one feature's contribution in the fitted model.
type FeatureImportance struct {
	Feature string  `json:"feature" yaml:"feature"`
	Weight  float64 `json:"weight" yaml:"weight"`
}

// Artifact is the persisted trained model: the selected algorithm's
// fitted parameters plus the metadata needed to validate and reproduce
// it. Exactly one of the parameter fields is populated.
type Artifact struct {
	Algorithm    string               `json:"algorithm" yaml:"algorithm"`
	FeatureNames []string             `json:"feature_names" yaml:"featureNames"`
	Scaler       *Scaler              `json:"scaler" yaml:"-"`
	Logistic     *Logistic            `json:"logistic,omitempty" yaml:"-"`
	Forest       *RandomForest        `json:"random_forest,omitempty" yaml:"-"`
	Boosting     *GradientBoosting    `json:"gradient_boosting,omitempty" yaml:"-"`
	CV           Metrics              `json:"cv" yaml:"cv"`
	Validation   Metrics              `json:"validation" yaml:"validation"`
	Candidates   []*CandidateResult   `json:"candidates,omitempty" yaml:"candidates,omitempty"`
	Importance   []*FeatureImportance `json:"importance,omitempty" yaml:"importance,omitempty"`
	Samples      int                  `json:"samples" yaml:"samples"`
	Seed         int64                `json:"seed" yaml:"seed"`
	TrainedAt    time.Time            `json:"trained_at" yaml:"trainedAt"`
}

func (a *Artifact) setClassifier(c Classifier) {
	switch m := c.(type) {
	case *Logistic:
		a.Logistic = m
	case *RandomForest:
		a.Forest = m
	case *GradientBoosting:
		a.Boosting = m
	}
}

// classifier returns the fitted parameters matching the declared
// algorithm, nil if absent.
func (a *Artifact) classifier() Classifier {
	switch a.Algorithm {
	case AlgorithmLogistic:
		if a.Logistic != nil {
			return a.Logistic
		}
	case AlgorithmRandomForest:
		if a.Forest != nil {
			return a.Forest
		}
	case AlgorithmGradientBoosting:
		if a.Boosting != nil {
			return a.Boosting
		}
	}
	return nil
}

// Save persists the artifact as JSON, writing to a temp file in the same
// directory and renaming over the target so a concurrent reader never
// observes a partial write and a failed save never clobbers the
// previous good artifact.
func (a *Artifact) Save(path string) error {
	if path == "" {
		return errors.New("artifact path required")
	}

	b, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal model artifact: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".model-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp artifact in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp artifact: %w", err)
	}
	if err := os.Chmod(tmp.Name(), artifactFileMode); err != nil {
		return fmt.Errorf("failed to set artifact permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace artifact %s: %w", path, err)
	}

	return nil
}

// Load reads and validates a persisted artifact. A missing file returns
// ErrModelNotFound; a present but unusable file returns ModelLoadError.
func Load(path string) (*Artifact, error) {
	if path == "" {
		return nil, errors.New("artifact path required")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrModelNotFound
		}
		return nil, fmt.Errorf("failed to read model artifact %s: %w", path, err)
	}

	var a Artifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, &ModelLoadError{Path: path, Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	if err := a.validate(); err != nil {
		return nil, &ModelLoadError{Path: path, Reason: err.Error()}
	}

	return &a, nil
}

// validate checks the artifact against the current feature schema.
func (a *Artifact) validate() error {
	if a.Algorithm == "" {
		return errors.New("missing algorithm")
	}
	if a.classifier() == nil {
		return fmt.Errorf("missing fitted parameters for algorithm %s", a.Algorithm)
	}
	if a.Scaler == nil || len(a.Scaler.Means) == 0 {
		return errors.New("missing scaler parameters")
	}
	if len(a.FeatureNames) != len(feature.Names) {
		return fmt.Errorf("feature count mismatch: artifact has %d, engineering schema has %d",
			len(a.FeatureNames), len(feature.Names))
	}
	for i, name := range a.FeatureNames {
		if name != feature.Names[i] {
			return fmt.Errorf("feature ordering mismatch at %d: artifact %q, schema %q",
				i, name, feature.Names[i])
		}
	}
	if len(a.Scaler.Means) != len(feature.Names) || len(a.Scaler.Stds) != len(feature.Names) {
		return errors.New("scaler dimensions do not match feature schema")
	}
	return nil
}
