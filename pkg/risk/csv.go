package risk

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// WriteCSV writes assessments as the predictions output file: one row
// per student with student_id, risk_score, risk_label, in input order.
func WriteCSV(w io.Writer, list []*Assessment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"student_id", "risk_score", "risk_label"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, a := range list {
		row := []string{
			a.StudentID,
			strconv.FormatFloat(a.Score, 'f', 4, 64),
			string(a.Label),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write assessment for %s: %w", a.StudentID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
