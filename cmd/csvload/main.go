package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/johndauphine/csvload/internal/config"
	_ "github.com/johndauphine/csvload/internal/driver/mssql"
	_ "github.com/johndauphine/csvload/internal/driver/mysql"
	_ "github.com/johndauphine/csvload/internal/driver/postgres"
	_ "github.com/johndauphine/csvload/internal/driver/sqlite"
	"github.com/johndauphine/csvload/internal/loader"
	"github.com/johndauphine/csvload/internal/logging"
	"github.com/johndauphine/csvload/internal/runner"
	"github.com/johndauphine/csvload/internal/util"
	"github.com/johndauphine/csvload/internal/version"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    version.Name,
		Usage:   version.Description,
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "Path to configuration file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error (overrides config)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format: text or json (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "output-json",
				Usage: "Print the result as JSON on stdout",
			},
			&cli.StringFlag{
				Name:  "output-file",
				Usage: "Write the result as JSON to this file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Load every file listed under jobs",
				Action: runJobs,
			},
			{
				Name:   "load",
				Usage:  "Load a single file into a table",
				Action: loadFile,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Required: true,
						Usage:    "CSV file to load",
					},
					&cli.StringFlag{
						Name:     "table",
						Aliases:  []string{"t"},
						Required: true,
						Usage:    "Target table name",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Rows per insert batch (default: load.batch_size)",
					},
					&cli.BoolFlag{
						Name:  "create-table",
						Usage: "Create the table from inferred column types if missing",
					},
					&cli.StringFlag{
						Name:  "null-values",
						Usage: "Comma-separated cell values to read as NULL",
					},
				},
			},
			{
				Name:   "health",
				Usage:  "Check connectivity to the target database",
				Action: healthCheck,
			},
			{
				Name:   "count",
				Usage:  "Show row counts of the job tables",
				Action: countRows,
			},
		},
	}
}

// setup loads the configuration and applies logging settings, with flags
// taking precedence over the file.
func setup(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Logging.Format = c.String("log-format")
	}
	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	cfg.ApplyLogging()
	return cfg, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nInterrupted. Stopping after the current batch...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

func runJobs(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}

	r, err := runner.New(cfg)
	if err != nil {
		return err
	}
	defer r.Close()

	ctx, cancel := signalContext()
	defer cancel()

	summary, runErr := r.Run(ctx)
	if summary != nil {
		if err := outputJSON(c, newRunReport(summary)); err != nil {
			return err
		}
	}
	return runErr
}

func loadFile(c *cli.Context) error {
	if c.IsSet("batch-size") && c.Int("batch-size") <= 0 {
		return fmt.Errorf("%w: batch size must be positive, got %d", loader.ErrConfiguration, c.Int("batch-size"))
	}

	cfg, err := setup(c)
	if err != nil {
		return err
	}

	if c.IsSet("create-table") {
		cfg.Load.CreateTables = c.Bool("create-table")
	}
	if c.IsSet("null-values") {
		cfg.Load.NullValues = util.SplitCSV(c.String("null-values"))
	}
	job := config.JobConfig{
		File:  c.String("file"),
		Table: c.String("table"),
	}
	if c.IsSet("batch-size") {
		n := c.Int("batch-size")
		job.BatchSize = &n
	}

	r, err := runner.New(cfg)
	if err != nil {
		return err
	}
	defer r.Close()

	ctx, cancel := signalContext()
	defer cancel()

	res, err := r.LoadJob(ctx, job)
	if err != nil {
		return err
	}
	return outputJSON(c, jobReport{
		File:    job.File,
		Table:   job.Table,
		Rows:    res.Rows,
		Batches: res.Batches,
	})
}

func healthCheck(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}

	r, err := runner.New(cfg)
	if err != nil {
		return err
	}
	defer r.Close()

	result := r.HealthCheck(context.Background())
	if c.Bool("output-json") || c.IsSet("output-file") {
		if err := outputJSON(c, result); err != nil {
			return err
		}
	} else {
		printHealth(c.App.Writer, result)
	}
	if !result.Healthy {
		return fmt.Errorf("target unhealthy: %s", result.Error)
	}
	return nil
}

func printHealth(w io.Writer, result *runner.HealthCheckResult) {
	status := "OK"
	if !result.Connected {
		status = "FAIL: " + result.Error
	}
	fmt.Fprintf(w, "Target (%s): %s (%d ms)\n", result.TargetDBType, status, result.LatencyMs)
}

func countRows(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}
	if len(cfg.Jobs) == 0 {
		return runner.ErrNoJobs
	}

	r, err := runner.New(cfg)
	if err != nil {
		return err
	}
	defer r.Close()

	var failed bool
	for _, tc := range r.Count(context.Background()) {
		switch {
		case tc.Err != nil:
			fmt.Fprintf(c.App.Writer, "%-30s ERROR: %v\n", tc.Table, tc.Err)
			failed = true
		case !tc.Exists:
			fmt.Fprintf(c.App.Writer, "%-30s missing\n", tc.Table)
		default:
			fmt.Fprintf(c.App.Writer, "%-30s %d rows\n", tc.Table, tc.Rows)
		}
	}
	if failed {
		return fmt.Errorf("counting rows failed")
	}
	return nil
}

// runReport is the JSON form of a run summary.
type runReport struct {
	RunID           string      `json:"run_id"`
	Status          string      `json:"status"`
	StartedAt       time.Time   `json:"started_at"`
	DurationSeconds float64     `json:"duration_seconds"`
	JobsTotal       int         `json:"jobs_total"`
	JobsFailed      int         `json:"jobs_failed"`
	Rows            int64       `json:"rows"`
	Jobs            []jobReport `json:"jobs"`
}

type jobReport struct {
	File    string `json:"file"`
	Table   string `json:"table"`
	Rows    int64  `json:"rows"`
	Batches int    `json:"batches"`
	Error   string `json:"error,omitempty"`
}

func newRunReport(s *runner.Summary) *runReport {
	report := &runReport{
		RunID:           s.RunID,
		Status:          "success",
		StartedAt:       s.StartedAt,
		DurationSeconds: s.Duration.Seconds(),
		JobsTotal:       len(s.Jobs),
		JobsFailed:      s.Failed(),
		Rows:            s.Rows(),
		Jobs:            make([]jobReport, 0, len(s.Jobs)),
	}
	if report.JobsFailed > 0 {
		report.Status = "failed"
	}
	for _, j := range s.Jobs {
		jr := jobReport{File: j.Job.File, Table: j.Job.Table}
		if j.Result != nil {
			jr.Rows = j.Result.Rows
			jr.Batches = j.Result.Batches
		}
		if j.Err != nil {
			jr.Error = j.Err.Error()
		}
		report.Jobs = append(report.Jobs, jr)
	}
	return report
}

// outputJSON writes v as JSON to stdout (--output-json) and/or a file
// (--output-file). It does nothing when neither flag is set.
func outputJSON(c *cli.Context, v any) error {
	jsonOut := c.Bool("output-json")
	outFile := c.String("output-file")
	if !jsonOut && outFile == "" {
		return nil
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}

	if jsonOut {
		fmt.Fprintln(c.App.Writer, string(data))
	}
	if outFile != "" {
		if err := os.WriteFile(outFile, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", outFile, err)
		}
	}
	return nil
}
