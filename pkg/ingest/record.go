package ingest

import (
	"fmt"
	"strings"
)

// FeeStatus is the payment state of a student's fees.
type FeeStatus string

const (
	FeePaid    FeeStatus = "paid"
	FeePending FeeStatus = "pending"
	FeeOverdue FeeStatus = "overdue"
)

// FeeStatuses lists the accepted fee status values.
var FeeStatuses = []FeeStatus{FeePaid, FeePending, FeeOverdue}

// ParseFeeStatus normalizes and validates a raw fee status value.
func ParseFeeStatus(val string) (FeeStatus, error) {
	s := FeeStatus(strings.ToLower(strings.TrimSpace(val)))
	for _, known := range FeeStatuses {
		if s == known {
			return s, nil
		}
	}
	return "", &ValidationError{Field: "fees_status", Value: val, Reason: "unknown fee status"}
}

// StudentRecord is a single validated row of student data.
type StudentRecord struct {
	ID         string    `json:"student_id" yaml:"studentId"`
	Name       string    `json:"name,omitempty" yaml:"name,omitempty"`
	Attendance float64   `json:"attendance_percentage" yaml:"attendancePercentage"`
	Marks      float64   `json:"marks_percentage" yaml:"marksPercentage"`
	FeeStatus  FeeStatus `json:"fees_status" yaml:"feesStatus"`
}

// ValidationError describes a malformed or missing input field.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// RowError pairs a ValidationError with the input row it came from.
type RowError struct {
	Row int    `json:"row" yaml:"row"`
	Err string `json:"error" yaml:"error"`
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
