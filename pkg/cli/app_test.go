package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	urfave "github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/dropsafe/dropsafe/pkg/ingest"
)

func TestNewApp(t *testing.T) {
	app := newApp()
	require.NotNil(t, app)
	assert.Equal(t, appName, app.Name)

	want := []string{"import", "score", "train", "predict", "query", "generate", "reset"}
	require.Len(t, app.Commands, len(want))
	for i, name := range want {
		assert.Equal(t, name, app.Commands[i].Name)
	}

	assert.NotNil(t, app.Before)
	assert.NotNil(t, app.After)
}

func TestGetEncoder(t *testing.T) {
	prev := outputFormat
	defer func() { outputFormat = prev }()

	outputFormat = formatJSON
	_, ok := getEncoder().(*json.Encoder)
	assert.True(t, ok)

	outputFormat = formatYAML
	_, ok = getEncoder().(*yaml.Encoder)
	assert.True(t, ok)
}

func TestLimitOf(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want int
	}{
		{"10", 10},
		{"0", queryResultLimitDefault},
		{"-5", queryResultLimitDefault},
		{"500", queryResultLimitDefault},
	} {
		set := flag.NewFlagSet("test", flag.ContinueOnError)
		set.Int(queryLimitFlag.Name, 0, "")
		require.NoError(t, set.Set(queryLimitFlag.Name, tc.in))
		c := urfave.NewContext(nil, set, nil)
		assert.Equal(t, tc.want, limitOf(c), tc.in)
	}
}

// runApp executes one CLI invocation against a fresh app instance, the
// way each shell call would.
func runApp(t *testing.T, args ...string) error {
	t.Helper()
	return newApp().Run(append([]string{appName}, args...))
}

// balancedCSV writes a cohort with enough students in every risk tier to
// train on.
func balancedCSV(t *testing.T, path string, perClass int) {
	t.Helper()

	recs := make([]*ingest.StudentRecord, 0, 3*perClass)
	for i := 0; i < perClass; i++ {
		recs = append(recs,
			&ingest.StudentRecord{
				ID: fmt.Sprintf("SAFE%03d", i), Name: fmt.Sprintf("Safe %d", i),
				Attendance: 88 + float64(i%10), Marks: 82 + float64(i%15), FeeStatus: ingest.FeePaid,
			},
			&ingest.StudentRecord{
				ID: fmt.Sprintf("MED%03d", i), Name: fmt.Sprintf("Medium %d", i),
				Attendance: 60 + float64(i%10), Marks: 50 + float64(i%10), FeeStatus: ingest.FeePending,
			},
			&ingest.StudentRecord{
				ID: fmt.Sprintf("HIGH%03d", i), Name: fmt.Sprintf("High %d", i),
				Attendance: 40 + float64(i%8), Marks: 20 + float64(i%10), FeeStatus: ingest.FeeOverdue,
			},
		)
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, ingest.WriteRecords(f, recs))
}

func TestApp_EndToEnd(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "students.csv")
	balancedCSV(t, csvPath, 20)

	require.NoError(t, runApp(t, "import", "--file", csvPath))
	require.NoError(t, runApp(t, "score", "--out", filepath.Join(dir, "scores.csv")))
	require.NoError(t, runApp(t, "query", "students", "--like", "Medium"))
	require.NoError(t, runApp(t, "query", "student", "--id", "HIGH000"))
	require.NoError(t, runApp(t, "query", "at-risk", "--limit", "5"))
	require.NoError(t, runApp(t, "query", "distribution", "--top", "3"))

	// No model yet: prediction degrades to rule-based scoring.
	require.NoError(t, runApp(t, "predict", "--out", filepath.Join(dir, "degraded.csv")))

	require.NoError(t, runApp(t, "train", "--seed", "7"))
	require.NoError(t, runApp(t, "query", "runs"))
	require.NoError(t, runApp(t, "predict", "--out", filepath.Join(dir, "predicted.csv")))

	out, err := os.ReadFile(filepath.Join(dir, "predicted.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "student_id,risk_score,risk_label")
	assert.Contains(t, string(out), "HIGH000")

	require.NoError(t, runApp(t, "reset"))
	assert.Error(t, runApp(t, "score"), "scoring an empty database should fail")
}

func TestApp_Generate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	out := filepath.Join(t.TempDir(), "cohort.csv")
	require.NoError(t, runApp(t, "generate", "--count", "25", "--seed", "7", "--out", out, "--save"))

	res, err := ingest.ReadFile(out)
	require.NoError(t, err)
	assert.Len(t, res.Records, 25)

	// Saved cohort is scorable straight from the database.
	require.NoError(t, runApp(t, "score", "--out", filepath.Join(t.TempDir(), "scores.csv")))
}

func TestApp_QueryUnknownStudent(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	assert.Error(t, runApp(t, "query", "student", "--id", "nope"))
}

func TestApp_ImportMissingFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	assert.Error(t, runApp(t, "import", "--file", filepath.Join(t.TempDir(), "absent.csv")))
}
