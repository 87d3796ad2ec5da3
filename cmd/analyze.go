package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/parkops/workplan/app"
	"github.com/parkops/workplan/core/events"
	"github.com/parkops/workplan/core/model"
	"github.com/parkops/workplan/pkg/export"
)

var (
	jsonOut string
	csvOut  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <name>",
	Short: "Run a feasibility analysis for a stored project",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&jsonOut, "json", "", "write the analysis document to this file")
	analyzeCmd.Flags().StringVar(&csvOut, "csv", "", "write the overload report to this file")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()
	svc.StartMetrics(ctx)

	p, err := svc.Store.Load(args[0])
	if err != nil {
		return err
	}

	sub := svc.Bus.Subscribe(64)
	defer svc.Bus.Unsubscribe(sub)
	go func() {
		for e := range sub {
			switch ev := e.(type) {
			case events.StageEvent:
				fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", ev.Stage)
			case events.ProgressEvent:
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d nodes, %.1fs\n",
					ev.Stage, ev.Nodes, ev.Elapsed.Seconds())
			}
		}
	}()

	a, err := svc.Manager.Run(ctx, p)
	if err != nil {
		return err
	}

	if a.Verdict != model.VerdictCancelled {
		if err := svc.Store.Save(p); err != nil {
			return fmt.Errorf("save project: %w", err)
		}
	}

	if jsonOut != "" {
		if err := writeFile(jsonOut, func(f *os.File) error { return export.WriteJSON(f, a) }); err != nil {
			return err
		}
	}
	if csvOut != "" {
		if err := writeFile(csvOut, func(f *os.File) error { return export.WriteCSV(f, a) }); err != nil {
			return err
		}
	}

	printAnalysis(cmd, a)
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func printAnalysis(cmd *cobra.Command, a model.Analysis) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "verdict: %s", a.Verdict)
	if a.Structural {
		fmt.Fprint(out, " (structural)")
	}
	fmt.Fprintf(out, "\nstage reached: %d, wall time: %.2fs, status: %s\n",
		a.Stats.StageReached, a.Stats.WallTimeSeconds, a.Stats.Status)
	for _, role := range sortedKeys(a.Utilisation) {
		fmt.Fprintf(out, "utilization %-20s %6.2f%%\n", role, a.Utilisation[role])
	}
	if len(a.Overloads) > 0 {
		fmt.Fprintf(out, "minimal extra staff-slots needed: %d\n", a.TotalOverload())
		for _, o := range a.Overloads {
			fmt.Fprintf(out, "  %s %s %s +%d\n", o.Date, o.Slot, o.Role, o.ExtraNeeded)
		}
	}
}
