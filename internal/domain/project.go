package domain

import (
	"sort"
	"strings"
	"time"
)

// Surcharges applied to the base project cost.
const (
	SurchargeDelayed = 1.25
	SurchargeOnTime  = 1.35
)

// ProjectState is derived from the states of the project's tasks.
type ProjectState string

const (
	ProjectPending  ProjectState = "PENDING"
	ProjectActive   ProjectState = "ACTIVE"
	ProjectFinished ProjectState = "FINISHED"
)

// ParseProjectState validates a state name (case-insensitive).
func ParseProjectState(s string) (ProjectState, error) {
	st := ProjectState(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case ProjectPending, ProjectActive, ProjectFinished:
		return st, nil
	}
	return "", Errorf(ErrInvalidState, "%q", s)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, Errorf(ErrInvalidDate, "%q is not YYYY-MM-DD", s)
	}
	return t, nil
}

// TaskSpec describes a task at project registration.
type TaskSpec struct {
	Title       string  `json:"title" toml:"title" validate:"required"`
	Description string  `json:"description" toml:"description"`
	Days        float64 `json:"days" toml:"days" validate:"gt=0"`
}

// WorkerSource resolves workers by id.
type WorkerSource interface {
	Worker(id int) (*Worker, bool)
}

// Project is an aggregate of tasks with a derived lifecycle and running costs.
type Project struct {
	Code          int              `json:"code"`
	Address       string           `json:"address"`
	ClientRef     string           `json:"client"`
	State         ProjectState     `json:"state"`
	Start         time.Time        `json:"start"`
	EstimatedEnd  time.Time        `json:"estimated_end"`
	Finished      time.Time        `json:"finished,omitempty"`
	Tasks         map[string]*Task `json:"tasks"`
	EstimatedCost float64          `json:"estimated_cost"`
	FinalCost     float64          `json:"final_cost"`
	HadDelays     bool             `json:"had_delays"`
	History       map[int][]string `json:"history"`

	// started is set the first time the project leaves PENDING.
	started bool
}

// NewProject creates a PENDING project with the given initial tasks.
func NewProject(code int, address string, start, estimatedEnd time.Time, clientRef string, specs []TaskSpec) (*Project, error) {
	if estimatedEnd.Before(start) {
		return nil, Errorf(ErrInvalidDate, "estimated end %s before start %s",
			estimatedEnd.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	tasks := make(map[string]*Task, len(specs))
	for _, s := range specs {
		if _, dup := tasks[s.Title]; dup {
			return nil, Errorf(ErrDuplicateTask, "%q", s.Title)
		}
		t, err := NewTask(s.Title, s.Description, s.Days)
		if err != nil {
			return nil, err
		}
		tasks[s.Title] = t
	}
	p := &Project{
		Code:         code,
		Address:      address,
		ClientRef:    clientRef,
		Start:        start,
		EstimatedEnd: estimatedEnd,
		Tasks:        tasks,
		History:      make(map[int][]string),
	}
	p.recompute()
	return p, nil
}

// Started reports whether the project ever left PENDING.
func (p *Project) Started() bool { return p.started }

// IsFinished reports whether the project reached its terminal state.
func (p *Project) IsFinished() bool { return p.State == ProjectFinished }

// Task looks up a task by title.
func (p *Project) Task(title string) (*Task, error) {
	t, ok := p.Tasks[title]
	if !ok {
		return nil, Errorf(ErrTaskNotFound, "%q in project %d", title, p.Code)
	}
	return t, nil
}

// TaskTitles returns task titles in lexical order.
func (p *Project) TaskTitles() []string {
	titles := make([]string, 0, len(p.Tasks))
	for title := range p.Tasks {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}

// AddTask appends a new UNASSIGNED task. An ACTIVE project goes back to PENDING.
func (p *Project) AddTask(title, description string, days float64) error {
	if p.IsFinished() {
		return Errorf(ErrProjectFinished, "project %d", p.Code)
	}
	if _, dup := p.Tasks[title]; dup {
		return Errorf(ErrDuplicateTask, "%q", title)
	}
	t, err := NewTask(title, description, days)
	if err != nil {
		return err
	}
	p.Tasks[title] = t
	p.recompute()
	return nil
}

// AssignWorker binds w to the titled task and adds its estimate to the
// running total.
func (p *Project) AssignWorker(title string, w *Worker) error {
	t, err := p.mutableTask(title)
	if err != nil {
		return err
	}
	if err := t.Assign(w); err != nil {
		return err
	}
	p.EstimatedCost += t.EstimatedCost
	p.recompute()
	return nil
}

// Reassign replaces the task's current worker with w. The running estimate is
// adjusted by the difference between the two estimates.
func (p *Project) Reassign(title string, w *Worker, ws WorkerSource) error {
	t, err := p.mutableTask(title)
	if err != nil {
		return err
	}
	if t.State == TaskUnassigned {
		return Errorf(ErrNoPriorAssignment, "%q", title)
	}
	if t.State == TaskFinalized {
		return Errorf(ErrTaskFinalized, "%q", title)
	}
	prev, ok := ws.Worker(t.WorkerID)
	if !ok {
		return Errorf(ErrWorkerNotFound, "worker %d bound to %q", t.WorkerID, title)
	}
	if w == nil {
		return ErrWorkerNotFound
	}
	if w.Assigned && w.ID != prev.ID {
		return Errorf(ErrWorkerBusy, "worker %d", w.ID)
	}

	dropped, err := t.Release(prev)
	if err != nil {
		return err
	}
	p.EstimatedCost -= dropped
	t.bind(w)
	p.EstimatedCost += t.EstimatedCost
	p.recompute()
	return nil
}

// ReportDelay adds delay days to the titled task.
func (p *Project) ReportDelay(title string, days float64, ws WorkerSource) error {
	t, err := p.mutableTask(title)
	if err != nil {
		return err
	}
	var w *Worker
	if t.HasWorker() {
		w, _ = ws.Worker(t.WorkerID)
	}
	if err := t.ReportDelay(days, w); err != nil {
		return err
	}
	p.recompute()
	return nil
}

// FinalizeTask closes the titled task. When it was the last open task the
// project becomes FINISHED with finish date at.
func (p *Project) FinalizeTask(title string, ws WorkerSource, at time.Time) error {
	t, err := p.Task(title)
	if err != nil {
		return err
	}
	w, err := p.finalizable(t, ws)
	if err != nil {
		return err
	}
	p.finalize(t, w)
	p.recompute()
	if p.IsFinished() {
		p.Finished = at
	}
	return nil
}

// Finalize closes every open task and marks the project FINISHED on date.
// Tasks that never had a worker close at zero cost. Every precondition is
// checked before the first task is touched.
func (p *Project) Finalize(date time.Time, ws WorkerSource) error {
	if p.IsFinished() {
		return Errorf(ErrAlreadyFinished, "project %d", p.Code)
	}
	if date.Before(p.Start) {
		return Errorf(ErrInvalidDate, "finish %s before start %s",
			date.Format(time.DateOnly), p.Start.Format(time.DateOnly))
	}
	if date.Before(p.EstimatedEnd) {
		return Errorf(ErrInvalidDate, "finish %s before estimated end %s",
			date.Format(time.DateOnly), p.EstimatedEnd.Format(time.DateOnly))
	}
	if len(p.Tasks) == 0 {
		return Errorf(ErrNoTasks, "project %d", p.Code)
	}

	type pending struct {
		task   *Task
		worker *Worker
	}
	var open []pending
	var unworked []*Task
	for _, title := range p.TaskTitles() {
		t := p.Tasks[title]
		switch t.State {
		case TaskFinalized:
			continue
		case TaskUnassigned:
			unworked = append(unworked, t)
			continue
		}
		w, err := p.finalizable(t, ws)
		if err != nil {
			return err
		}
		open = append(open, pending{task: t, worker: w})
	}

	for _, o := range open {
		p.finalize(o.task, o.worker)
	}
	for _, t := range unworked {
		t.closeUnworked()
	}
	p.recompute()
	p.Finished = date
	p.State = ProjectFinished
	return nil
}

// TotalCost is the base cost times the delay surcharge. The base is the
// finalized cost once FINISHED and the running estimate before that.
func (p *Project) TotalCost() (float64, error) {
	if !p.started {
		return 0, Errorf(ErrProjectPending, "project %d", p.Code)
	}
	base := p.EstimatedCost
	if p.IsFinished() {
		base = p.FinalCost
	}
	if p.HadDelays {
		return base * SurchargeDelayed, nil
	}
	return base * SurchargeOnTime, nil
}

// WorkerIDs returns the ids of workers currently bound to open tasks,
// ascending.
func (p *Project) WorkerIDs() []int {
	var ids []int
	for _, t := range p.Tasks {
		if t.State == TaskAssigned {
			ids = append(ids, t.WorkerID)
		}
	}
	sort.Ints(ids)
	return ids
}

// Clone returns a deep copy safe to hand out of the registry lock.
func (p *Project) Clone() *Project {
	c := *p
	c.Tasks = make(map[string]*Task, len(p.Tasks))
	for k, t := range p.Tasks {
		tc := *t
		c.Tasks[k] = &tc
	}
	c.History = make(map[int][]string, len(p.History))
	for k, v := range p.History {
		c.History[k] = append([]string(nil), v...)
	}
	return &c
}

func (p *Project) mutableTask(title string) (*Task, error) {
	if p.IsFinished() {
		return nil, Errorf(ErrProjectFinished, "project %d", p.Code)
	}
	return p.Task(title)
}

// finalizable resolves the worker that will close t, without mutating.
func (p *Project) finalizable(t *Task, ws WorkerSource) (*Worker, error) {
	if t.State == TaskFinalized {
		return nil, Errorf(ErrAlreadyFinalized, "%q", t.Title)
	}
	if !t.HasWorker() {
		return nil, Errorf(ErrNotAssigned, "%q", t.Title)
	}
	w, ok := ws.Worker(t.WorkerID)
	if !ok {
		return nil, Errorf(ErrWorkerNotFound, "worker %d bound to %q", t.WorkerID, t.Title)
	}
	if err := t.canFinalize(w); err != nil {
		return nil, err
	}
	return w, nil
}

func (p *Project) finalize(t *Task, w *Worker) {
	t.settle(w)
	p.FinalCost += t.FinalCost
	p.History[w.ID] = append(p.History[w.ID], t.Title)
}

// recompute derives State and HadDelays by scanning the task set.
func (p *Project) recompute() {
	p.HadDelays = false
	unassigned, finalized := 0, 0
	for _, t := range p.Tasks {
		if t.DelayDays > 0 {
			p.HadDelays = true
		}
		switch t.State {
		case TaskUnassigned:
			unassigned++
		case TaskFinalized:
			finalized++
		}
	}

	switch {
	case len(p.Tasks) == 0 || unassigned > 0:
		p.State = ProjectPending
	case finalized == len(p.Tasks):
		p.State = ProjectFinished
	default:
		p.State = ProjectActive
	}
	if p.State != ProjectPending {
		p.started = true
	}
}
