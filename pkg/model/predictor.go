package model

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dropsafe/dropsafe/pkg/feature"
	"github.com/dropsafe/dropsafe/pkg/ingest"
	"github.com/dropsafe/dropsafe/pkg/risk"
)

// mediumSeverity is the score mass a Medium-class probability carries,
// so risk_score stays in [0,1] with High at full weight.
const mediumSeverity = 0.5

// Predictor scores student batches with the persisted model, falling
// back to the rule-based scorer when no artifact exists.
type Predictor struct {
	artifact   *Artifact
	classifier Classifier
	scorer     *risk.Scorer
}

// NewPredictor loads the artifact at path. A cleanly absent artifact
// yields a degraded predictor backed by the rule scorer, with a logged
// notice. A corrupt or schema-incompatible artifact is a hard error.
func NewPredictor(path string, scorer *risk.Scorer) (*Predictor, error) {
	if scorer == nil {
		return nil, errors.New("rule-based scorer required")
	}

	a, err := Load(path)
	if err != nil {
		if errors.Is(err, ErrModelNotFound) {
			slog.Warn("no trained model, running degraded with rule-based scoring", "path", path)
			return &Predictor{scorer: scorer}, nil
		}
		return nil, err
	}

	return &Predictor{
		artifact:   a,
		classifier: a.classifier(),
		scorer:     scorer,
	}, nil
}

// Degraded reports whether predictions come from the rule-based
// fallback instead of a trained model.
func (p *Predictor) Degraded() bool {
	return p.artifact == nil
}

// Algorithm returns the serving algorithm name.
func (p *Predictor) Algorithm() string {
	if p.artifact == nil {
		return "rule_based"
	}
	return p.artifact.Algorithm
}

// Artifact returns the loaded artifact, nil when degraded.
func (p *Predictor) Artifact() *Artifact {
	return p.artifact
}

// Predict scores a batch of records, preserving input order. Labels are
// derived from the risk score via the fixed policy thresholds for both
// the model and the fallback path.
func (p *Predictor) Predict(recs []*ingest.StudentRecord) ([]*risk.Assessment, error) {
	vecs, err := feature.EngineerAll(recs)
	if err != nil {
		return nil, err
	}

	if p.Degraded() {
		return p.scorer.ScoreAll(vecs)
	}

	scaled, err := p.artifact.Scaler.Transform(feature.Matrix(vecs))
	if err != nil {
		return nil, fmt.Errorf("failed to scale features: %w", err)
	}

	probs := p.classifier.PredictProba(scaled)
	list := make([]*risk.Assessment, len(vecs))
	for i, v := range vecs {
		score := mediumSeverity*probs[i][risk.Class(risk.LabelMedium)] +
			probs[i][risk.Class(risk.LabelHigh)]
		list[i] = &risk.Assessment{
			StudentID: v.StudentID,
			Score:     score,
			Label:     p.scorer.LabelFor(score),
		}
	}
	return list, nil
}
