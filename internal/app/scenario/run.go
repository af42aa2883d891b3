package scenario

import (
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/homesolution/homesolution/internal/app/assign"
	"github.com/homesolution/homesolution/internal/app/registry"
	"github.com/homesolution/homesolution/internal/domain"
)

// Result is the outcome of one replayed step.
type Result struct {
	Index    int     `json:"index"`
	Op       Op      `json:"op"`
	Project  int     `json:"project"`
	Task     string  `json:"task,omitempty"`
	WorkerID int     `json:"worker_id,omitempty"`
	Cost     float64 `json:"cost,omitempty"`
	Err      string  `json:"error,omitempty"`
}

// Report summarizes a replay.
type Report struct {
	RunID    string                    `json:"run_id"`
	Name     string                    `json:"name"`
	Steps    []Result                  `json:"steps"`
	Projects []registry.ProjectSummary `json:"projects"`
	Costs    map[int]float64           `json:"costs"`
}

// Run registers everything the scenario declares and replays its steps. A
// step that fails without declaring that error kind in expect_error stops the
// replay, as does a step that was expected to fail but succeeded.
func Run(reg *registry.Service, sc *Scenario) (*Report, error) {
	rep := &Report{
		RunID: uuid.NewString(),
		Name:  sc.Name,
		Costs: make(map[int]float64),
	}
	log.Printf("[scenario] run %s: %q, %d steps", rep.RunID, sc.Name, len(sc.Steps))

	for _, c := range sc.Clients {
		if err := reg.RegisterClient(c.Name, c.Email, c.Phone); err != nil {
			return rep, fmt.Errorf("client %q: %w", c.Email, err)
		}
	}
	workers := make([]int, len(sc.Workers))
	for i, w := range sc.Workers {
		id, err := reg.RegisterWorker(w)
		if err != nil {
			return rep, fmt.Errorf("worker %d: %w", i+1, err)
		}
		workers[i] = id
	}
	projects := make([]int, len(sc.Projects))
	for i, p := range sc.Projects {
		code, err := reg.RegisterProject(p.Tasks, p.Address, p.start, p.end, p.Client)
		if err != nil {
			return rep, fmt.Errorf("project %d: %w", i+1, err)
		}
		projects[i] = code
	}

	for i, st := range sc.Steps {
		res := Result{Index: i + 1, Op: st.Op, Project: projects[st.Project-1], Task: st.Task}
		workerID := 0
		if st.Worker > 0 {
			workerID = workers[st.Worker-1]
		}

		err := apply(reg, st, &res, workerID)
		if err != nil {
			res.Err = err.Error()
		}
		rep.Steps = append(rep.Steps, res)

		switch {
		case err != nil && st.ExpectError == "":
			return rep, fmt.Errorf("step %d (%s): %w", i+1, st.Op, err)
		case err != nil && domain.KindName(err) != st.ExpectError:
			return rep, fmt.Errorf("step %d (%s): want %s error, got: %w", i+1, st.Op, st.ExpectError, err)
		case err == nil && st.ExpectError != "":
			return rep, fmt.Errorf("step %d (%s): want %s error, got success", i+1, st.Op, st.ExpectError)
		}
	}

	rep.Projects = reg.Projects("")
	for _, code := range projects {
		if total, err := reg.TotalCost(code); err == nil {
			rep.Costs[code] = total
		}
	}
	return rep, nil
}

func apply(reg *registry.Service, st Step, res *Result, workerID int) error {
	code := res.Project
	switch st.Op {
	case OpAddTask:
		return reg.AddTask(code, st.Task, st.Description, st.Days)
	case OpAssign:
		if workerID > 0 {
			res.WorkerID = workerID
			return reg.AssignWorker(code, st.Task, workerID)
		}
		id, err := reg.AssignByPolicy(code, st.Task, assign.Name(st.Policy))
		res.WorkerID = id
		return err
	case OpReassign:
		if workerID > 0 {
			res.WorkerID = workerID
			return reg.ReassignWorker(code, st.Task, workerID)
		}
		policy := assign.Name(st.Policy)
		if policy == "" {
			policy = assign.PolicyFewestDelays
		}
		id, err := reg.ReassignByPolicy(code, st.Task, policy)
		res.WorkerID = id
		return err
	case OpDelay:
		return reg.ReportDelay(code, st.Task, st.Days)
	case OpFinalizeTask:
		return reg.FinalizeTask(code, st.Task)
	case OpFinalizeProject:
		return reg.FinalizeProject(code, st.date)
	case OpCost:
		total, err := reg.TotalCost(code)
		res.Cost = total
		return err
	}
	return fmt.Errorf("unknown op %q", st.Op)
}
