// Package tracking persists experiment runs: parameters, per-item results as
// a CSV artifact, and an aggregate report. It is a write-only sink from the
// pipeline's perspective.
package tracking

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"finqa/internal/eval"
	"finqa/internal/logging"
)

// RunParams are the run-scoped parameters recorded in the manifest.
type RunParams struct {
	Model         string  `yaml:"model"`
	Temperature   float64 `yaml:"temperature"`
	DataPath      string  `yaml:"data_path"`
	N             int     `yaml:"n"`
	Workers       int     `yaml:"workers"`
	MaxIterations int     `yaml:"max_iterations"`
}

// Run is one experiment run directory. Create it with NewRun, then write
// artifacts into it. Runs are independent; concurrent runs get distinct IDs.
type Run struct {
	ID        string    `yaml:"run_id"`
	StartedAt time.Time `yaml:"started_at"`
	Params    RunParams `yaml:"params"`

	dir    string
	logger logging.Logger
}

// NewRun creates the run directory under outputDir and writes the manifest.
func NewRun(outputDir string, params RunParams) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Params:    params,
		logger:    logging.NewComponentLogger("tracking"),
	}
	run.dir = filepath.Join(outputDir, "run-"+run.ID)

	if err := os.MkdirAll(run.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create run directory: %w", err)
	}

	manifest, err := yaml.Marshal(run)
	if err != nil {
		return nil, fmt.Errorf("marshal run manifest: %w", err)
	}
	manifestPath := filepath.Join(run.dir, "run.yaml")
	if err := os.WriteFile(manifestPath, manifest, 0o644); err != nil {
		return nil, fmt.Errorf("write run manifest: %w", err)
	}

	run.logger.Info("run %s started, artifacts in %s", run.ID, run.dir)
	return run, nil
}

// Dir returns the run's artifact directory.
func (r *Run) Dir() string {
	return r.dir
}

var csvHeader = []string{
	"id", "question", "predicted_answer", "ground_truth",
	"exact_match", "numerical_match", "termination", "iterations",
	"latency_seconds", "failure",
}

// WriteResults persists one CSV row per evaluated item and returns the
// artifact path.
func (r *Run) WriteResults(results []eval.Result) (string, error) {
	path := filepath.Join(r.dir, "predictions.csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create results artifact: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("write results header: %w", err)
	}
	for _, result := range results {
		row := []string{
			result.ID,
			result.Question,
			result.Predicted,
			result.GroundTruth,
			strconv.FormatBool(result.ExactMatch),
			strconv.FormatBool(result.NumericalMatch),
			string(result.Termination),
			strconv.Itoa(result.Iterations),
			strconv.FormatFloat(result.Latency.Seconds(), 'f', 3, 64),
			result.FailureReason,
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write result row %s: %w", result.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush results artifact: %w", err)
	}

	return path, nil
}

// WriteSummary persists the aggregate summary as JSON and a markdown report.
func (r *Run) WriteSummary(summary eval.Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(r.dir, "summary.json"), data, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	report := renderReport(r, summary)
	if err := os.WriteFile(filepath.Join(r.dir, "report.md"), []byte(report), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
