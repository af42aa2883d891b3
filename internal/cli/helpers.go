package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/homesolution/homesolution/internal/daemon"
	"github.com/homesolution/homesolution/internal/infra/sqlite"
)

// newTable creates the aligned writer every listing command prints through.
func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// money formats a cost the way every table shows it.
func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// openJournal opens the configured cost journal for reading.
func openJournal() (*sqlite.DB, error) {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Journal.Enabled {
		return nil, fmt.Errorf("cost journal is disabled in %s", daemon.ConfigPath())
	}
	return sqlite.Open(cfg.Journal.Dir)
}
