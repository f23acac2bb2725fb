package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"

	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Cohort shape constants for the synthetic generator: attendance is
// normal around 80 (sd 12) clamped to 40-100, marks normal around 65
// (sd 18) clamped to 15-100, fee status weighted 70/20/10
// paid/pending/overdue.
const (
	genAttendanceMean = 80
	genAttendanceSd   = 12
	genAttendanceMin  = 40
	genMarksMean      = 65
	genMarksSd        = 18
	genMarksMin       = 15
	genPaidShare      = 0.7
	genPendingShare   = 0.2
)

// GenerateCohort produces a seeded synthetic batch of student records,
// useful for demos and for exercising the training pipeline.
func GenerateCohort(n int, seed int64) ([]*StudentRecord, error) {
	if n <= 0 {
		return nil, errors.New("cohort size must be positive")
	}

	attendance := distuv.Normal{
		Mu:    genAttendanceMean,
		Sigma: genAttendanceSd,
		Src:   exprand.NewSource(uint64(seed)),
	}
	marks := distuv.Normal{
		Mu:    genMarksMean,
		Sigma: genMarksSd,
		Src:   exprand.NewSource(uint64(seed) + 1),
	}
	rng := rand.New(rand.NewSource(seed))

	recs := make([]*StudentRecord, 0, n)
	for i := 1; i <= n; i++ {
		recs = append(recs, &StudentRecord{
			ID:         fmt.Sprintf("S%04d", i),
			Name:       fmt.Sprintf("Student %d", i),
			Attendance: clampRange(attendance.Rand(), genAttendanceMin, 100),
			Marks:      clampRange(marks.Rand(), genMarksMin, 100),
			FeeStatus:  randomFeeStatus(rng),
		})
	}
	return recs, nil
}

func randomFeeStatus(rng *rand.Rand) FeeStatus {
	switch v := rng.Float64(); {
	case v < genPaidShare:
		return FeePaid
	case v < genPaidShare+genPendingShare:
		return FeePending
	default:
		return FeeOverdue
	}
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// WriteRecords writes records as CSV with the required header.
func WriteRecords(w io.Writer, recs []*StudentRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(requiredColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range recs {
		row := []string{
			r.ID,
			r.Name,
			strconv.FormatFloat(r.Attendance, 'f', 1, 64),
			strconv.FormatFloat(r.Marks, 'f', 1, 64),
			string(r.FeeStatus),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write record %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
