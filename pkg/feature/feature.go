// Package feature derives numeric signals from validated student records.
// Vectors use a fixed feature ordering so persisted models can verify
// schema compatibility at load time.
package feature

import (
	"errors"
	"fmt"
	"math"

	"github.com/dropsafe/dropsafe/pkg/ingest"
)

// Fee risk constants. Pending fees carry partial risk, overdue fees full
// risk. Paid fees carry none.
const (
	FeeRiskPaid    = 0.0
	FeeRiskPending = 0.7
	FeeRiskOverdue = 1.0
)

// Performance buckets by marks percentage.
const (
	BucketFailing   = "failing"
	BucketAverage   = "average"
	BucketGood      = "good"
	BucketExcellent = "excellent"
)

// maxIdealDistance is the euclidean distance from (0,0) to (100,100),
// used to normalize distance_from_ideal into [0,1].
var maxIdealDistance = math.Sqrt(20000)

// Names is the canonical feature ordering. Persisted model artifacts
// embed this list and the predictor rejects artifacts that disagree.
var Names = []string{
	"attendance_risk",
	"marks_risk",
	"fees_risk",
	"academic_risk",
	"overall_risk",
	"attendance_marks_product",
	"performance_gap",
	"distance_from_ideal",
	"bucket_failing",
	"bucket_average",
	"bucket_good",
	"bucket_excellent",
	"high_attendance",
	"high_marks",
	"at_risk",
}

// Vector is an immutable engineered feature vector for one student.
type Vector struct {
	StudentID      string
	AttendanceRisk float64
	MarksRisk      float64
	FeesRisk       float64
	Bucket         string

	values []float64
}

// Values returns the vector in canonical ordering. Callers must not
// modify the returned slice.
func (v *Vector) Values() []float64 {
	return v.values
}

// Engineer computes the feature vector for a single record.
func Engineer(rec *ingest.StudentRecord) (*Vector, error) {
	if rec == nil {
		return nil, errors.New("record required")
	}

	feesRisk, err := feeRisk(rec.FeeStatus)
	if err != nil {
		return nil, err
	}

	attendanceRisk := clamp01(1 - rec.Attendance/100)
	marksRisk := clamp01(1 - rec.Marks/100)
	academicRisk := (attendanceRisk + marksRisk) / 2
	overallRisk := 0.4*attendanceRisk + 0.4*marksRisk + 0.2*feesRisk

	bucket := marksBucket(rec.Marks)

	v := &Vector{
		StudentID:      rec.ID,
		AttendanceRisk: attendanceRisk,
		MarksRisk:      marksRisk,
		FeesRisk:       feesRisk,
		Bucket:         bucket,
	}

	v.values = []float64{
		attendanceRisk,
		marksRisk,
		feesRisk,
		academicRisk,
		overallRisk,
		rec.Attendance * rec.Marks / 10000,
		math.Abs(rec.Attendance-rec.Marks) / 100,
		math.Hypot(rec.Attendance-100, rec.Marks-100) / maxIdealDistance,
		flag(bucket == BucketFailing),
		flag(bucket == BucketAverage),
		flag(bucket == BucketGood),
		flag(bucket == BucketExcellent),
		flag(rec.Attendance >= 85),
		flag(rec.Marks >= 75),
		flag(rec.Attendance < 75 || rec.Marks < 60),
	}

	return v, nil
}

// EngineerAll computes vectors for a batch, preserving input order.
func EngineerAll(recs []*ingest.StudentRecord) ([]*Vector, error) {
	list := make([]*Vector, 0, len(recs))
	for i, rec := range recs {
		v, err := Engineer(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		list = append(list, v)
	}
	return list, nil
}

// Matrix flattens a batch of vectors into a row-major design matrix.
func Matrix(vecs []*Vector) [][]float64 {
	m := make([][]float64, len(vecs))
	for i, v := range vecs {
		m[i] = v.Values()
	}
	return m
}

func feeRisk(s ingest.FeeStatus) (float64, error) {
	switch s {
	case ingest.FeePaid:
		return FeeRiskPaid, nil
	case ingest.FeePending:
		return FeeRiskPending, nil
	case ingest.FeeOverdue:
		return FeeRiskOverdue, nil
	default:
		return 0, &ingest.ValidationError{Field: "fees_status", Value: string(s), Reason: "unknown fee status"}
	}
}

func marksBucket(marks float64) string {
	switch {
	case marks < 40:
		return BucketFailing
	case marks < 60:
		return BucketAverage
	case marks < 75:
		return BucketGood
	default:
		return BucketExcellent
	}
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
