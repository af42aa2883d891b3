// Package domain holds the task, worker and project types.
// A Task is a unit of renovation work bound to at most one worker:
// add → assign → (delay)* → finalize.
package domain

import "strings"

// PermanentBonus is paid on top of a salaried worker's final cost when the
// task finished without any delay.
const PermanentBonus = 1.02

// TaskState tracks task lifecycle.
type TaskState string

const (
	TaskUnassigned TaskState = "UNASSIGNED"
	TaskAssigned   TaskState = "ASSIGNED"
	TaskFinalized  TaskState = "FINALIZED"
)

// Task is a unit of project work.
type Task struct {
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Days          float64   `json:"days"`
	DelayDays     float64   `json:"delay_days"`
	State         TaskState `json:"state"`
	WorkerID      int       `json:"worker_id,omitempty"`
	EstimatedCost float64   `json:"estimated_cost"`
	FinalCost     float64   `json:"final_cost"`
}

// NewTask creates an UNASSIGNED task.
func NewTask(title, description string, days float64) (*Task, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrEmptyTitle
	}
	if days <= 0 {
		return nil, Errorf(ErrInvalidDays, "task %q: %v", title, days)
	}
	return &Task{
		Title:       title,
		Description: description,
		Days:        days,
		State:       TaskUnassigned,
	}, nil
}

// IsTerminal returns true once the task is finalized.
func (t *Task) IsTerminal() bool { return t.State == TaskFinalized }

// HasWorker reports whether a worker is bound to the task.
func (t *Task) HasWorker() bool { return t.WorkerID != 0 }

// TotalDays is the planned duration extended by accumulated delay.
func (t *Task) TotalDays() float64 { return t.Days + t.DelayDays }

// Assign binds w and computes the estimate. The estimate never carries the
// permanent-staff bonus.
func (t *Task) Assign(w *Worker) error {
	if err := t.canAssign(w); err != nil {
		return err
	}
	t.bind(w)
	return nil
}

func (t *Task) canAssign(w *Worker) error {
	switch t.State {
	case TaskAssigned:
		return Errorf(ErrAlreadyAssigned, "%q", t.Title)
	case TaskFinalized:
		return Errorf(ErrTaskFinalized, "%q", t.Title)
	}
	if w == nil {
		return ErrWorkerNotFound
	}
	if w.Assigned {
		return Errorf(ErrWorkerBusy, "worker %d", w.ID)
	}
	return nil
}

func (t *Task) bind(w *Worker) {
	t.WorkerID = w.ID
	w.SetAssigned(true)
	t.EstimatedCost = w.Cost(t.Days)
	t.State = TaskAssigned
}

// ReportDelay adds delay days. A bound worker gets one delay event regardless
// of the day count.
func (t *Task) ReportDelay(days float64, w *Worker) error {
	if err := t.canReportDelay(days); err != nil {
		return err
	}
	t.DelayDays += days
	if w != nil && t.WorkerID == w.ID {
		w.RegisterDelay()
	}
	return nil
}

func (t *Task) canReportDelay(days float64) error {
	if days <= 0 {
		return Errorf(ErrInvalidDays, "delay of %v days", days)
	}
	if t.State == TaskFinalized {
		return Errorf(ErrTaskFinalized, "%q", t.Title)
	}
	return nil
}

// Finalize computes the final cost and releases w, which must be the bound
// worker.
func (t *Task) Finalize(w *Worker) error {
	if err := t.canFinalize(w); err != nil {
		return err
	}
	t.settle(w)
	return nil
}

func (t *Task) settle(w *Worker) {
	cost := w.Cost(t.TotalDays())
	if t.DelayDays == 0 && w.IsSalaried() {
		cost *= PermanentBonus
	}
	t.FinalCost = cost
	w.SetAssigned(false)
	t.State = TaskFinalized
}

// closeUnworked finalizes a task that never had a worker. It costs nothing.
func (t *Task) closeUnworked() {
	t.FinalCost = 0
	t.State = TaskFinalized
}

func (t *Task) canFinalize(w *Worker) error {
	switch t.State {
	case TaskFinalized:
		return Errorf(ErrAlreadyFinalized, "%q", t.Title)
	case TaskUnassigned:
		return Errorf(ErrNotAssigned, "%q", t.Title)
	}
	if w == nil || w.ID != t.WorkerID {
		return Errorf(ErrWrongWorker, "%q", t.Title)
	}
	return nil
}

// Release unbinds the current worker and returns the task to UNASSIGNED.
// It returns the estimate that was dropped.
func (t *Task) Release(w *Worker) (float64, error) {
	if err := t.canRelease(w); err != nil {
		return 0, err
	}
	dropped := t.EstimatedCost
	w.SetAssigned(false)
	t.WorkerID = 0
	t.EstimatedCost = 0
	t.State = TaskUnassigned
	return dropped, nil
}

func (t *Task) canRelease(w *Worker) error {
	switch t.State {
	case TaskUnassigned:
		return Errorf(ErrNoPriorAssignment, "%q", t.Title)
	case TaskFinalized:
		return Errorf(ErrTaskFinalized, "%q", t.Title)
	}
	if w == nil || w.ID != t.WorkerID {
		return Errorf(ErrWrongWorker, "%q", t.Title)
	}
	return nil
}
