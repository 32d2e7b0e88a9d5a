package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/san-kum/dynsim/internal/sph/driver"
	"github.com/san-kum/dynsim/internal/sph/params"
	"github.com/san-kum/dynsim/internal/sph/scenario"
)

var (
	configFile string
	outDir     string
	dt0        float64
	quiet      bool
)

var summaryStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	Padding(0, 1).
	BorderForeground(lipgloss.Color("63"))

var labelStyle = lipgloss.NewStyle().Bold(true)

// main registers the dynsim commands and executes the root command,
// exiting with status 1 if execution returns an error.
func main() {
	rootCmd := &cobra.Command{
		Use:   "dynsim",
		Short: "SPH fluid simulation core",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the Sod shock tube scenario to completion",
		RunE:  runShockTube,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "YAML run config (overrides the scenario default)")
	runCmd.Flags().StringVar(&outDir, "out", "", "directory for particle/energy JSON output (skipped if empty)")
	runCmd.Flags().Float64Var(&dt0, "dt0", 1e-4, "initial timestep")
	runCmd.Flags().BoolVar(&quiet, "quiet", false, "suppress per-step non-fatal warnings")

	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runShockTube(cmd *cobra.Command, args []string) error {
	sod := scenario.DefaultSodShockTube()
	real, bcfg := sod.Build()

	var bundle params.Bundle
	var err error
	if configFile != "" {
		rc, rerr := params.LoadRunConfig(configFile)
		if rerr != nil {
			return fmt.Errorf("loading config: %w", rerr)
		}
		bundle, err = rc.Build(&bcfg)
	} else {
		bundle, err = sod.DefaultBundle(bcfg)
	}
	if err != nil {
		return fmt.Errorf("building parameter bundle: %w", err)
	}

	var sink driver.OutputSink
	if outDir != "" {
		jsonSink, serr := driver.NewJSONFileSink(outDir)
		if serr != nil {
			return fmt.Errorf("creating output sink: %w", serr)
		}
		defer jsonSink.Close()
		sink = jsonSink
	}

	var logger driver.Logger
	if quiet {
		logger = quietLogger{}
	}

	d := driver.New(bundle, real, sink, logger)
	report, runErr := d.Run(real, dt0)

	printSummary(report, bundle)

	if runErr != nil {
		return fmt.Errorf("run stopped early: %w", runErr)
	}
	return nil
}

type quietLogger struct{}

func (quietLogger) Printf(format string, args ...any) {}

func printSummary(report driver.Report, bundle params.Bundle) {
	body := fmt.Sprintf(
		"%s %d\n%s %.6f\n%s %d (worst residual %.3e)\n\n%s",
		labelStyle.Render("steps:"), report.StepsTaken,
		labelStyle.Render("final time:"), report.FinalTime,
		labelStyle.Render("non-converged solves:"), report.Convergence.FailedCount, report.Convergence.WorstResidual,
		report.Summary(),
	)
	fmt.Println(summaryStyle.Render(body))
}
