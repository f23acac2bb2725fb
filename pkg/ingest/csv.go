package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

const (
	colStudentID  = "student_id"
	colName       = "name"
	colAttendance = "attendance_percentage"
	colMarks      = "marks_percentage"
	colFeeStatus  = "fees_status"
)

var requiredColumns = []string{colStudentID, colName, colAttendance, colMarks, colFeeStatus}

// Result holds the outcome of reading a batch: the valid records plus the
// per-row errors that were skipped. The batch as a whole fails only when
// no valid rows remain.
type Result struct {
	Records []*StudentRecord `json:"records,omitempty" yaml:"records,omitempty"`
	Errors  []*RowError      `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// ReadFile reads and validates a CSV file of student records.
func ReadFile(path string) (*Result, error) {
	if path == "" {
		return nil, errors.New("file path required")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file %s: %w", path, err)
	}
	defer f.Close()

	return Read(f)
}

// Read reads and validates CSV student records from r. A header row is
// required and must contain all of: student_id, name, attendance_percentage,
// marks_percentage, fees_status. Extra columns are ignored. Rows that fail
// validation are collected in Result.Errors rather than aborting the batch.
func Read(r io.Reader) (*Result, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ValidationError{Field: "header", Reason: "input is empty"}
		}
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Records: make([]*StudentRecord, 0),
		Errors:  make([]*RowError, 0),
	}
	seen := make(map[string]int)

	row := 1
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			res.Errors = append(res.Errors, &RowError{Row: row, Err: err.Error()})
			continue
		}

		rec, err := parseRow(fields, idx)
		if err != nil {
			res.Errors = append(res.Errors, &RowError{Row: row, Err: err.Error()})
			continue
		}

		if prev, ok := seen[rec.ID]; ok {
			verr := &ValidationError{
				Field:  colStudentID,
				Value:  rec.ID,
				Reason: fmt.Sprintf("duplicate of row %d", prev),
			}
			res.Errors = append(res.Errors, &RowError{Row: row, Err: verr.Error()})
			continue
		}
		seen[rec.ID] = row

		res.Records = append(res.Records, rec)
	}

	if len(res.Records) == 0 {
		return nil, fmt.Errorf("no valid records in input (%d rows rejected): %w",
			len(res.Errors), &ValidationError{Field: "batch", Reason: "no valid rows"})
	}

	if len(res.Errors) > 0 {
		slog.Warn("some rows were rejected", "valid", len(res.Records), "rejected", len(res.Errors))
	}

	return res, nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, &ValidationError{Field: col, Reason: "required column missing from header"}
		}
	}
	return idx, nil
}

func parseRow(fields []string, idx map[string]int) (*StudentRecord, error) {
	get := func(col string) string {
		i := idx[col]
		if i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	id := get(colStudentID)
	if id == "" {
		return nil, &ValidationError{Field: colStudentID, Reason: "must not be empty"}
	}

	attendance, err := parsePct(colAttendance, get(colAttendance))
	if err != nil {
		return nil, err
	}

	marks, err := parsePct(colMarks, get(colMarks))
	if err != nil {
		return nil, err
	}

	fees, err := ParseFeeStatus(get(colFeeStatus))
	if err != nil {
		return nil, err
	}

	return &StudentRecord{
		ID:         id,
		Name:       get(colName),
		Attendance: attendance,
		Marks:      marks,
		FeeStatus:  fees,
	}, nil
}

func parsePct(field, val string) (float64, error) {
	if val == "" {
		return 0, &ValidationError{Field: field, Reason: "must not be empty"}
	}
	v, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, &ValidationError{Field: field, Value: val, Reason: "not a number"}
	}
	return clampPct(v), nil
}
