package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/saldo27/shiftsched/internal/config"
	"github.com/saldo27/shiftsched/internal/logging"
	"github.com/saldo27/shiftsched/internal/scheduler"
)

// Exit codes: the taxonomy spec §6 assigns to each outcome.
const (
	exitOK                  = 0
	exitConfigurationError  = 1
	exitInfeasibleMandatory = 2
	exitRuntimeError        = 3
)

type outputDocument struct {
	Metadata struct {
		GeneratedAt     string `json:"generated_at"`
		PeriodStart     string `json:"period_start"`
		PeriodEnd       string `json:"period_end"`
		NumShiftsPerDay int    `json:"num_shifts_per_day"`
	} `json:"metadata"`
	Schedule    map[string][]*string `json:"schedule"`
	WorkersData []workerEcho         `json:"workers_data"`
}

type workerEcho struct {
	ID             string `json:"id"`
	WorkPercentage int    `json:"work_percentage"`
	TargetShifts   int    `json:"target_shifts"`
}

func newRunCommand() *cobra.Command {
	var configPath string
	var outPath string
	var logLevel string
	var budget time.Duration

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the shift scheduling engine against a config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedule(configPath, outPath, logLevel, budget)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to the configuration JSON (required)")
	cmd.Flags().StringVar(&outPath, "out", "", "path to write the schedule JSON (defaults to stdout)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	cmd.Flags().DurationVar(&budget, "budget", 0, "wall-clock budget for the run (0 = unbounded)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func runSchedule(configPath, outPath, logLevel string, budget time.Duration) error {
	logger := logging.New(logLevel)

	loaded, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(exitConfigurationError)
	}

	ctx := context.Background()
	if budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	outcome, err := scheduler.Execute(ctx, scheduler.Run{
		Horizon:                loaded.Config.Horizon(),
		Workers:                loaded.Workers,
		Params:                 loaded.Params,
		MaxImprovementLoops:    loaded.Config.MaxImprovementLoops,
		LastPostAdjustMaxIters: loaded.Config.LastPostAdjustMaxIters,
		Logger:                 logger.Named("scheduler"),
	})
	if err != nil {
		if kind, ok := scheduler.AsFatal(err); ok && kind == "infeasible_mandatory" {
			fmt.Fprintf(os.Stderr, "infeasible mandatory layout: %v\n", err)
			os.Exit(exitInfeasibleMandatory)
		}
		fmt.Fprintf(os.Stderr, "runtime error: %v\n", err)
		os.Exit(exitRuntimeError)
	}

	// generatedAt is a wall-clock stamp on the output document only; it
	// never feeds back into scheduling, so it doesn't touch the
	// determinism §8 S6 asks of (policy, seed) -> schedule.
	generatedAt := time.Now().UTC().Format(time.RFC3339)
	doc := buildOutputDocument(loaded, outcome, generatedAt)
	if err := writeOutput(doc, outPath); err != nil {
		fmt.Fprintf(os.Stderr, "runtime error: %v\n", err)
		os.Exit(exitRuntimeError)
	}

	renderSchedule(outcome.State, loaded.Config.Horizon())
	renderReport(outcome.Report, loaded.Workers)
	return nil
}

func buildOutputDocument(loaded *config.Loaded, outcome *scheduler.Outcome, generatedAt string) outputDocument {
	h := loaded.Config.Horizon()
	var doc outputDocument
	doc.Metadata.GeneratedAt = generatedAt
	doc.Metadata.PeriodStart = loaded.Config.StartDate.String()
	doc.Metadata.PeriodEnd = loaded.Config.EndDate.String()
	doc.Metadata.NumShiftsPerDay = loaded.Config.NumShifts

	doc.Schedule = make(map[string][]*string, h.Days())
	for _, d := range h.Dates() {
		cells := outcome.State.CellsOn(d)
		row := make([]*string, len(cells))
		for i, c := range cells {
			if !c.Empty() {
				id := c.WorkerID
				row[i] = &id
			}
		}
		doc.Schedule[d.String()] = row
	}

	doc.WorkersData = make([]workerEcho, 0, len(loaded.Workers))
	for _, w := range loaded.Workers {
		doc.WorkersData = append(doc.WorkersData, workerEcho{
			ID:             w.ID,
			WorkPercentage: w.WorkPercentage,
			TargetShifts:   w.TargetShifts,
		})
	}
	return doc
}

func writeOutput(doc outputDocument, outPath string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schedule output: %w", err)
	}
	if outPath == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write schedule output %q: %w", outPath, err)
	}
	return nil
}
