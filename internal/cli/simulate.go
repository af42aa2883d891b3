package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/homesolution/homesolution/internal/app/scenario"
	"github.com/homesolution/homesolution/internal/daemon"
	"github.com/homesolution/homesolution/internal/domain"
)

func init() {
	simulateCmd.Flags().StringVarP(&simulateFile, "file", "f", "scenario.toml", "Scenario file to replay")
	simulateCmd.Flags().BoolVar(&simulateJSON, "json", false, "Print the report as JSON")
	simulateCmd.Flags().BoolVar(&simulateJournal, "journal", false, "Record the replay in the configured cost journal")
	rootCmd.AddCommand(simulateCmd)
}

var (
	simulateFile    string
	simulateJSON    bool
	simulateJournal bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay a scenario file against a fresh registry",
	Long: `Register the clients, workers and projects a scenario declares, then replay
its steps in order and print each project's cost. The replay stops at the first
step whose outcome differs from what the file expects.`,
	RunE: runSimulate,
}

func runSimulate(cmd *cobra.Command, args []string) error {
	sc, err := scenario.Load(simulateFile)
	if err != nil {
		return err
	}

	cfg, err := daemon.LoadConfig()
	if err != nil {
		return err
	}
	cfg.Journal.Enabled = simulateJournal

	d, err := daemon.NewWithConfig(cfg, cmd.Root().Version)
	if err != nil {
		return err
	}
	defer d.Close()

	rep, runErr := scenario.Run(d.Registry, sc)
	if rep != nil {
		if simulateJSON {
			if err := printJSON(rep); err != nil {
				return err
			}
		} else if err := printReport(rep); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}

	if d.Journal != nil {
		for _, p := range rep.Projects {
			if p.State != domain.ProjectFinished {
				continue
			}
			full, err := d.Registry.Project(p.Code)
			if err != nil {
				return err
			}
			if err := d.Journal.Reconcile(p.Code, full.FinalCost); err != nil {
				return err
			}
		}
	}
	return nil
}

func printReport(rep *scenario.Report) error {
	fmt.Printf("Scenario %q (run %s)\n\n", rep.Name, rep.RunID)

	w := newTable(os.Stdout)
	fmt.Fprintln(w, "STEP\tOP\tPROJECT\tTASK\tWORKER\tRESULT")
	for _, s := range rep.Steps {
		worker := "-"
		if s.WorkerID > 0 {
			worker = fmt.Sprint(s.WorkerID)
		}
		result := "ok"
		switch {
		case s.Err != "":
			result = s.Err
		case s.Op == scenario.OpCost:
			result = money(s.Cost)
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%s\n", s.Index, s.Op, s.Project, s.Task, worker, result)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(rep.Projects) == 0 {
		return nil
	}
	fmt.Println()
	w = newTable(os.Stdout)
	fmt.Fprintln(w, "CODE\tADDRESS\tSTATE\tCOST")
	for _, p := range rep.Projects {
		cost := "-"
		if c, ok := rep.Costs[p.Code]; ok {
			cost = money(c)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.Code, p.Address, p.State, cost)
	}
	return w.Flush()
}
