package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/homesolution/homesolution/internal/app/journal"
)

func init() {
	journalCmd.Flags().IntVarP(&journalLimit, "limit", "n", 50, "Maximum number of entries to show")
	rootCmd.AddCommand(journalCmd)
}

var journalLimit int

var journalCmd = &cobra.Command{
	Use:   "journal <project>",
	Short: "Show the cost journal of a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournal,
}

func runJournal(cmd *cobra.Command, args []string) error {
	code, err := strconv.Atoi(args[0])
	if err != nil || code < 1 {
		return fmt.Errorf("invalid project code %q", args[0])
	}

	db, err := openJournal()
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := journal.NewService(db).History(code, journalLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Printf("No journal entries for project %d.\n", code)
		return nil
	}

	w := newTable(os.Stdout)
	fmt.Fprintln(w, "TIME\tEVENT\tTASK\tWORKER\tAMOUNT\tDAYS")
	for _, e := range entries {
		worker := "-"
		if e.WorkerID > 0 {
			worker = strconv.Itoa(e.WorkerID)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%g\n",
			e.Timestamp.Format("2006-01-02 15:04"),
			e.Type,
			e.Task,
			worker,
			money(e.Amount),
			e.Days,
		)
	}
	return w.Flush()
}
