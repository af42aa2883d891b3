// Package scenario parses and replays scenario files.
//
// A scenario is a TOML document that registers clients, workers and projects
// and then runs a list of steps against a registry. It is the input layer for
// raw strings and dates: everything is parsed and checked here before the
// registry sees it.
//
//	[[client]]
//	name  = "Lucía"
//	email = "lucia@example.com"
//
//	[[worker]]
//	kind = "hourly"
//	name = "Ana"
//	rate = 10
//
//	[[project]]
//	address       = "Av. Siempreviva 742"
//	start         = "2025-03-01"
//	estimated_end = "2025-03-20"
//	client        = "lucia@example.com"
//	  [[project.task]]
//	  title = "pintura"
//	  days  = 5
//
//	[[step]]
//	op      = "assign"
//	project = 1
//	task    = "pintura"
//	policy  = "fewest-delays"
//
// Steps refer to projects and workers by their 1-based position in the file.
package scenario

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/homesolution/homesolution/internal/app/registry"
	"github.com/homesolution/homesolution/internal/domain"
)

// Op names a scenario step.
type Op string

const (
	OpAddTask         Op = "add_task"
	OpAssign          Op = "assign"
	OpReassign        Op = "reassign"
	OpDelay           Op = "delay"
	OpFinalizeTask    Op = "finalize_task"
	OpFinalizeProject Op = "finalize_project"
	OpCost            Op = "cost"
)

// Scenario is a parsed scenario file.
type Scenario struct {
	Name     string                 `toml:"name"`
	Clients  []registry.ClientInput `toml:"client"`
	Workers  []registry.WorkerInput `toml:"worker"`
	Projects []Project              `toml:"project"`
	Steps    []Step                 `toml:"step"`
}

// Project is a project registration with raw dates.
type Project struct {
	Address      string            `toml:"address"`
	Start        string            `toml:"start"`
	EstimatedEnd string            `toml:"estimated_end"`
	Client       string            `toml:"client"`
	Tasks        []domain.TaskSpec `toml:"task"`

	start, end time.Time
}

// Step is one operation replayed against the registry.
type Step struct {
	Op          Op      `toml:"op"`
	Project     int     `toml:"project"`
	Task        string  `toml:"task"`
	Description string  `toml:"description"`
	Worker      int     `toml:"worker"`
	Policy      string  `toml:"policy"`
	Days        float64 `toml:"days"`
	Date        string  `toml:"date"`

	// ExpectError makes the step pass only when it fails with this error
	// kind: not_found, invalid_argument, invalid_operation or
	// no_worker_available.
	ExpectError string `toml:"expect_error"`

	date time.Time
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a scenario and validates everything that does not need a
// registry: dates, step ops and references.
func Parse(r io.Reader) (*Scenario, error) {
	var sc Scenario
	md, err := toml.NewDecoder(r).Decode(&sc)
	if err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown scenario keys: %s", strings.Join(keys, ", "))
	}

	for i := range sc.Projects {
		p := &sc.Projects[i]
		if p.start, err = domain.ParseDate(p.Start); err != nil {
			return nil, fmt.Errorf("project %d start: %w", i+1, err)
		}
		if p.end, err = domain.ParseDate(p.EstimatedEnd); err != nil {
			return nil, fmt.Errorf("project %d estimated_end: %w", i+1, err)
		}
	}
	for i := range sc.Steps {
		if err := sc.checkStep(&sc.Steps[i]); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &sc, nil
}

func (sc *Scenario) checkStep(st *Step) error {
	switch st.Op {
	case OpAddTask, OpAssign, OpReassign, OpDelay, OpFinalizeTask, OpFinalizeProject, OpCost:
	case "":
		return fmt.Errorf("missing op")
	default:
		return fmt.Errorf("unknown op %q", st.Op)
	}
	if st.Project < 1 || st.Project > len(sc.Projects) {
		return fmt.Errorf("project %d out of range 1..%d", st.Project, len(sc.Projects))
	}
	if st.Worker < 0 || st.Worker > len(sc.Workers) {
		return fmt.Errorf("worker %d out of range 1..%d", st.Worker, len(sc.Workers))
	}
	switch st.ExpectError {
	case "", "not_found", "invalid_argument", "invalid_operation", "no_worker_available":
	default:
		return fmt.Errorf("unknown expect_error %q", st.ExpectError)
	}
	if st.Op == OpFinalizeProject {
		d, err := domain.ParseDate(st.Date)
		if err != nil {
			return err
		}
		st.date = d
	}
	return nil
}
