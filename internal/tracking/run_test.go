package tracking

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"finqa/internal/eval"
	"finqa/internal/refine"
)

func testParams() RunParams {
	return RunParams{
		Model:         "gpt-4o-mini",
		Temperature:   0.0,
		DataPath:      "data/train.json",
		N:             3,
		Workers:       2,
		MaxIterations: 2,
	}
}

func TestNewRunWritesManifest(t *testing.T) {
	outputDir := t.TempDir()
	run, err := NewRun(outputDir, testParams())
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	require.DirExists(t, run.Dir())

	data, err := os.ReadFile(filepath.Join(run.Dir(), "run.yaml"))
	require.NoError(t, err)

	var loaded Run
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	require.Equal(t, run.ID, loaded.ID)
	require.Equal(t, "gpt-4o-mini", loaded.Params.Model)
	require.Equal(t, 2, loaded.Params.MaxIterations)
}

func TestRunsGetDistinctDirectories(t *testing.T) {
	outputDir := t.TempDir()
	first, err := NewRun(outputDir, testParams())
	require.NoError(t, err)
	second, err := NewRun(outputDir, testParams())
	require.NoError(t, err)
	require.NotEqual(t, first.Dir(), second.Dir())
}

func TestWriteResultsCSV(t *testing.T) {
	run, err := NewRun(t.TempDir(), testParams())
	require.NoError(t, err)

	results := []eval.Result{
		{
			ID:             "r1",
			Question:       "what was the growth?",
			Predicted:      "50",
			GroundTruth:    "50",
			ExactMatch:     true,
			NumericalMatch: true,
			Termination:    refine.ReasonApproved,
			Iterations:     1,
			Latency:        1500 * time.Millisecond,
		},
		{
			ID:            "r2",
			Question:      "and in 2008?",
			GroundTruth:   "75",
			Termination:   refine.ReasonFailed,
			FailureReason: "content_filtered: policy",
			Iterations:    1,
			Latency:       200 * time.Millisecond,
		},
	}

	path, err := run.WriteResults(results)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, csvHeader, rows[0])
	require.Equal(t, []string{"r1", "what was the growth?", "50", "50", "true", "true", "approved", "1", "1.500", ""}, rows[1])
	require.Equal(t, "content_filtered: policy", rows[2][9])
	require.Equal(t, "", rows[2][2], "failed item has empty prediction")
}

func TestWriteSummaryArtifacts(t *testing.T) {
	run, err := NewRun(t.TempDir(), testParams())
	require.NoError(t, err)

	summary := eval.Summary{
		Total:              3,
		ExactMatches:       1,
		NumericalMatches:   2,
		ExactMatchRate:     1.0 / 3.0,
		NumericalMatchRate: 2.0 / 3.0,
		Approved:           2,
		MaxIterations:      1,
	}
	require.NoError(t, run.WriteSummary(summary))

	require.FileExists(t, filepath.Join(run.Dir(), "summary.json"))

	report, err := os.ReadFile(filepath.Join(run.Dir(), "report.md"))
	require.NoError(t, err)
	require.Contains(t, string(report), run.ID)
	require.Contains(t, string(report), "| Exact match | 1 (33.3%) |")
	require.Contains(t, string(report), "gpt-4o-mini")
}
