package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"finqa/internal/agents"
	"finqa/internal/config"
	"finqa/internal/dataset"
	finqaerrors "finqa/internal/errors"
	"finqa/internal/eval"
	"finqa/internal/llm"
	"finqa/internal/logging"
	"finqa/internal/refine"
	"finqa/internal/tracking"
)

var (
	headerStyle  = color.New(color.Bold).SprintFunc()
	okStyle      = color.New(color.FgGreen).SprintFunc()
	warnStyle    = color.New(color.FgYellow).SprintFunc()
	errorStyle   = color.New(color.FgRed).SprintFunc()
	subtleStyle  = color.New(color.FgHiBlack).SprintFunc()
	metricsStyle = color.New(color.FgCyan).SprintFunc()
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	var configFile string

	cmd := &cobra.Command{
		Use:   "finqa",
		Short: "Evaluate a two-agent reflection pipeline on financial QA data",
		Long: `finqa runs a reflection loop between an analysis agent and a critic agent
over financial documents, then scores the final answers with exact-match and
numerical-match metrics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "path to a YAML config file")
	flags.String("model", "gpt-4o-mini", "generation model name")
	flags.Float64("temperature", 0.0, "sampling temperature (0.0-1.0)")
	flags.String("data-path", "", "path to the dataset JSON file")
	flags.Int("n", 0, "number of records to evaluate (0 = all)")
	flags.Int("workers", 4, "concurrent record evaluations")
	flags.Int("max-iterations", 3, "analysis turns per record before giving up")
	flags.String("output-dir", "outputs", "directory for run artifacts")
	flags.String("base-url", "", "generation service base URL")
	flags.Int("timeout", 120, "per-call timeout in seconds")
	flags.Bool("verbose", false, "print per-record results")

	// Flag spellings use dashes; config keys use underscores.
	mustBind := func(key, flag string) {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
	mustBind("data_path", "data-path")
	mustBind("max_iterations", "max-iterations")
	mustBind("output_dir", "output-dir")
	mustBind("llm.base_url", "base-url")
	mustBind("llm.timeout_seconds", "timeout")

	return cmd
}

func run(parent context.Context, cfg *config.Config) error {
	if cfg.Verbose {
		logging.SetDefaultLevel(logging.LevelDebug)
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	items, err := dataset.Load(cfg.DataPath, cfg.N)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("dataset %s yielded no evaluable items", cfg.DataPath)
	}

	client, err := llm.NewOpenAIClient(cfg.Model, llm.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: cfg.LLM.TimeoutSeconds,
	})
	if err != nil {
		return err
	}

	retryConfig := finqaerrors.DefaultRetryConfig()
	if cfg.LLM.MaxRetries > 0 {
		retryConfig.MaxAttempts = cfg.LLM.MaxRetries
	}
	retrying := llm.NewRetryClient(client, retryConfig, time.Duration(cfg.LLM.TimeoutSeconds)*time.Second)

	analyst := agents.NewAnalyst(retrying, cfg.Temperature)
	critic := agents.NewCritic(retrying, cfg.Temperature)
	loop := refine.NewLoop(analyst, critic, cfg.MaxIterations)

	trackedRun, err := tracking.NewRun(cfg.OutputDir, tracking.RunParams{
		Model:         cfg.Model,
		Temperature:   cfg.Temperature,
		DataPath:      cfg.DataPath,
		N:             cfg.N,
		Workers:       cfg.Workers,
		MaxIterations: cfg.MaxIterations,
	})
	if err != nil {
		return err
	}

	fmt.Println(headerStyle("finqa evaluation"))
	fmt.Printf("model=%s temperature=%.2f items=%d workers=%d max_iterations=%d\n",
		cfg.Model, cfg.Temperature, len(items), cfg.Workers, cfg.MaxIterations)

	harness := eval.NewHarness(loop, cfg.Workers)
	if cfg.Verbose {
		harness.OnResult = printResult
	}

	results, summary := harness.Evaluate(ctx, items)

	artifactPath, err := trackedRun.WriteResults(results)
	if err != nil {
		return err
	}
	if err := trackedRun.WriteSummary(summary); err != nil {
		return err
	}

	printSummary(summary)
	fmt.Println(subtleStyle("artifacts: " + artifactPath))
	return nil
}

func printResult(r eval.Result) {
	status := okStyle(string(r.Termination))
	switch {
	case r.Termination == refine.ReasonFailed:
		status = errorStyle(string(r.Termination))
	case r.Termination == refine.ReasonMaxIterations:
		status = warnStyle(string(r.Termination))
	}

	fmt.Printf("%s %s\n", status, r.ID)
	fmt.Printf("  question:  %s\n", r.Question)
	fmt.Printf("  expected:  %s\n", r.GroundTruth)
	if r.Termination == refine.ReasonFailed {
		fmt.Printf("  failure:   %s\n", r.FailureReason)
	} else {
		fmt.Printf("  predicted: %s (em=%t nm=%t)\n", r.Predicted, r.ExactMatch, r.NumericalMatch)
	}
	fmt.Printf("  %s\n", subtleStyle(fmt.Sprintf("iterations=%d latency=%.2fs", r.Iterations, r.Latency.Seconds())))
}

func printSummary(s eval.Summary) {
	fmt.Println(headerStyle("\nresults"))
	fmt.Printf("  %s\n", metricsStyle(fmt.Sprintf("exact match:     %d/%d (%.1f%%)", s.ExactMatches, s.Total, s.ExactMatchRate*100)))
	fmt.Printf("  %s\n", metricsStyle(fmt.Sprintf("numerical match: %d/%d (%.1f%%)", s.NumericalMatches, s.Total, s.NumericalMatchRate*100)))
	fmt.Printf("  approved=%d max_iterations=%d failed=%d\n", s.Approved, s.MaxIterations, s.Failed)
	fmt.Printf("  latency: mean=%.2fs p50=%.2fs p95=%.2fs p99=%.2fs max=%.2fs\n",
		s.Latency.Mean.Seconds(), s.Latency.P50.Seconds(), s.Latency.P95.Seconds(),
		s.Latency.P99.Seconds(), s.Latency.Max.Seconds())
}
