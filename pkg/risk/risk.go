// Package risk implements the rule-based dropout risk scorer. It is the
// fallback when no trained model is available and the label source for
// self-supervised training.
package risk

import (
	"errors"
	"fmt"

	"github.com/dropsafe/dropsafe/pkg/feature"
)

// Label is the discretized risk tier.
type Label string

const (
	LabelSafe   Label = "Safe"
	LabelMedium Label = "Medium"
	LabelHigh   Label = "High"
)

// Labels in ascending severity. Classifier class indexes map to this
// ordering: 0=Safe, 1=Medium, 2=High.
var Labels = []Label{LabelSafe, LabelMedium, LabelHigh}

// Class returns the class index for a label, -1 if unknown.
func Class(l Label) int {
	for i, known := range Labels {
		if l == known {
			return i
		}
	}
	return -1
}

// Policy holds the declared scoring constants. The weighted sum and the
// label thresholds are policy, not learned values, and must match the
// rule-based baseline exactly.
type Policy struct {
	AttendanceWeight float64 `json:"attendance_weight" yaml:"attendanceWeight"`
	MarksWeight      float64 `json:"marks_weight" yaml:"marksWeight"`
	FeesWeight       float64 `json:"fees_weight" yaml:"feesWeight"`
	HighThreshold    float64 `json:"high_threshold" yaml:"highThreshold"`
	MediumThreshold  float64 `json:"medium_threshold" yaml:"mediumThreshold"`
}

// DefaultPolicy returns the baseline weighting: 40% attendance,
// 40% marks, 20% fees, with High at score >= 0.6 and Medium at >= 0.3.
func DefaultPolicy() Policy {
	return Policy{
		AttendanceWeight: 0.4,
		MarksWeight:      0.4,
		FeesWeight:       0.2,
		HighThreshold:    0.6,
		MediumThreshold:  0.3,
	}
}

// Validate checks that the policy weights form a convex combination and
// the thresholds are ordered.
func (p Policy) Validate() error {
	sum := p.AttendanceWeight + p.MarksWeight + p.FeesWeight
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("scoring weights must sum to 1, got %.3f", sum)
	}
	if p.MediumThreshold <= 0 || p.HighThreshold <= p.MediumThreshold || p.HighThreshold > 1 {
		return fmt.Errorf("thresholds must satisfy 0 < medium < high <= 1, got medium=%.2f high=%.2f",
			p.MediumThreshold, p.HighThreshold)
	}
	return nil
}

// Assessment is the scored result for one student.
type Assessment struct {
	StudentID string  `json:"student_id" yaml:"studentId"`
	Score     float64 `json:"risk_score" yaml:"riskScore"`
	Label     Label   `json:"risk_label" yaml:"riskLabel"`
}

// Scorer computes deterministic weighted risk scores under a policy.
type Scorer struct {
	policy Policy
}

// NewScorer returns a scorer for the given policy.
func NewScorer(p Policy) (*Scorer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{policy: p}, nil
}

// Score computes the weighted risk score and label for one vector.
// Same vector always yields an identical assessment.
func (s *Scorer) Score(v *feature.Vector) (*Assessment, error) {
	if v == nil {
		return nil, errors.New("feature vector required")
	}

	score := s.policy.AttendanceWeight*v.AttendanceRisk +
		s.policy.MarksWeight*v.MarksRisk +
		s.policy.FeesWeight*v.FeesRisk

	return &Assessment{
		StudentID: v.StudentID,
		Score:     score,
		Label:     s.LabelFor(score),
	}, nil
}

// ScoreAll scores a batch, preserving input order.
func (s *Scorer) ScoreAll(vecs []*feature.Vector) ([]*Assessment, error) {
	list := make([]*Assessment, 0, len(vecs))
	for i, v := range vecs {
		a, err := s.Score(v)
		if err != nil {
			return nil, fmt.Errorf("vector %d: %w", i, err)
		}
		list = append(list, a)
	}
	return list, nil
}

// LabelFor maps a score to its tier. Thresholds are inclusive.
func (s *Scorer) LabelFor(score float64) Label {
	switch {
	case score >= s.policy.HighThreshold:
		return LabelHigh
	case score >= s.policy.MediumThreshold:
		return LabelMedium
	default:
		return LabelSafe
	}
}

// Classes returns the class index labels for a batch of vectors, used as
// the self-supervised training target.
func (s *Scorer) Classes(vecs []*feature.Vector) ([]int, error) {
	list, err := s.ScoreAll(vecs)
	if err != nil {
		return nil, err
	}
	classes := make([]int, len(list))
	for i, a := range list {
		classes[i] = Class(a.Label)
	}
	return classes, nil
}
