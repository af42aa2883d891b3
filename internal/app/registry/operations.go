package registry

import (
	"time"

	"github.com/homesolution/homesolution/internal/app/assign"
	"github.com/homesolution/homesolution/internal/domain"
	"github.com/homesolution/homesolution/internal/infra/metrics"
)

// AddTask appends an UNASSIGNED task to a project.
func (s *Service) AddTask(code int, title, description string, days float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.project(code)
	if err != nil {
		return s.fail("add_task", err)
	}
	before := p.State
	if err := p.AddTask(title, description, days); err != nil {
		return s.fail("add_task", err)
	}
	s.transition(p, before)
	s.debugf("project %d: task %q added (%v days)", code, title, days)
	return nil
}

// AssignWorker binds a specific worker to a task.
func (s *Service) AssignWorker(code int, title string, workerID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.project(code)
	if err != nil {
		return s.fail("assign", err)
	}
	w, err := s.worker(workerID)
	if err != nil {
		return s.fail("assign", err)
	}
	return s.assign(p, title, w, "manual")
}

// AssignFirstAvailable binds the free worker with the lowest id.
func (s *Service) AssignFirstAvailable(code int, title string) (int, error) {
	return s.assignByPolicy(code, title, assign.PolicyFirstAvailable)
}

// AssignLeastDelayed binds the free worker with the fewest delay events.
func (s *Service) AssignLeastDelayed(code int, title string) (int, error) {
	return s.assignByPolicy(code, title, assign.PolicyFewestDelays)
}

// AssignByPolicy binds the worker the named policy picks and returns its id.
func (s *Service) AssignByPolicy(code int, title string, name assign.Name) (int, error) {
	return s.assignByPolicy(code, title, name)
}

func (s *Service) assignByPolicy(code int, title string, name assign.Name) (int, error) {
	policy, ok := assign.Lookup(name)
	if !ok {
		return 0, s.fail("assign", domain.Errorf(domain.ErrUnknownPolicy, "%q", name))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.project(code)
	if err != nil {
		return 0, s.fail("assign", err)
	}
	if err := assignable(p, title); err != nil {
		return 0, s.fail("assign", err)
	}
	w, err := policy(s.workers.Sorted())
	if err != nil {
		metrics.NoWorkerAvailable.WithLabelValues(string(name)).Inc()
		return 0, s.fail("assign", err)
	}
	if err := s.assign(p, title, w, string(name)); err != nil {
		return 0, err
	}
	return w.ID, nil
}

// assignable checks the task side of an assignment before a policy runs, so a
// bad project or task is reported ahead of a missing worker.
func assignable(p *domain.Project, title string) error {
	if p.IsFinished() {
		return domain.Errorf(domain.ErrProjectFinished, "project %d", p.Code)
	}
	t, err := p.Task(title)
	if err != nil {
		return err
	}
	switch t.State {
	case domain.TaskAssigned:
		return domain.Errorf(domain.ErrAlreadyAssigned, "%q", title)
	case domain.TaskFinalized:
		return domain.Errorf(domain.ErrTaskFinalized, "%q", title)
	}
	return nil
}

func (s *Service) assign(p *domain.Project, title string, w *domain.Worker, policy string) error {
	before := p.State
	if err := p.AssignWorker(title, w); err != nil {
		return s.fail("assign", err)
	}
	t := p.Tasks[title]

	metrics.Assignments.WithLabelValues(policy).Inc()
	metrics.WorkersAssigned.Inc()
	s.transition(p, before)
	s.record(domain.JournalEntry{
		Type:        domain.EventAssigned,
		ProjectCode: p.Code,
		Task:        title,
		WorkerID:    w.ID,
		Amount:      t.EstimatedCost,
		Days:        t.Days,
		Description: policy,
	})
	s.debugf("project %d: worker %d assigned to %q (%s), estimate %.2f", p.Code, w.ID, title, policy, t.EstimatedCost)
	return nil
}

// ReassignWorker replaces the worker of an ASSIGNED task with workerID.
func (s *Service) ReassignWorker(code int, title string, workerID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.project(code)
	if err != nil {
		return s.fail("reassign", err)
	}
	w, err := s.worker(workerID)
	if err != nil {
		return s.fail("reassign", err)
	}
	return s.reassign(p, title, w, "manual")
}

// ReassignLeastDelayed replaces the worker of an ASSIGNED task with the free
// worker with the fewest delays and returns its id.
func (s *Service) ReassignLeastDelayed(code int, title string) (int, error) {
	return s.reassignByPolicy(code, title, assign.PolicyFewestDelays)
}

// ReassignByPolicy replaces the worker of an ASSIGNED task with the one the
// named policy picks.
func (s *Service) ReassignByPolicy(code int, title string, name assign.Name) (int, error) {
	return s.reassignByPolicy(code, title, name)
}

func (s *Service) reassignByPolicy(code int, title string, name assign.Name) (int, error) {
	policy, ok := assign.Lookup(name)
	if !ok {
		return 0, s.fail("reassign", domain.Errorf(domain.ErrUnknownPolicy, "%q", name))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.project(code)
	if err != nil {
		return 0, s.fail("reassign", err)
	}
	if err := reassignable(p, title); err != nil {
		return 0, s.fail("reassign", err)
	}
	w, err := policy(s.workers.Sorted())
	if err != nil {
		metrics.NoWorkerAvailable.WithLabelValues(string(name)).Inc()
		return 0, s.fail("reassign", err)
	}
	if err := s.reassign(p, title, w, string(name)); err != nil {
		return 0, err
	}
	return w.ID, nil
}

func reassignable(p *domain.Project, title string) error {
	if p.IsFinished() {
		return domain.Errorf(domain.ErrProjectFinished, "project %d", p.Code)
	}
	t, err := p.Task(title)
	if err != nil {
		return err
	}
	switch t.State {
	case domain.TaskUnassigned:
		return domain.Errorf(domain.ErrNoPriorAssignment, "%q", title)
	case domain.TaskFinalized:
		return domain.Errorf(domain.ErrTaskFinalized, "%q", title)
	}
	return nil
}

func (s *Service) reassign(p *domain.Project, title string, w *domain.Worker, policy string) error {
	before := p.State
	if err := p.Reassign(title, w, s.workers); err != nil {
		return s.fail("reassign", err)
	}
	t := p.Tasks[title]

	metrics.Assignments.WithLabelValues(policy).Inc()
	s.transition(p, before)
	s.record(domain.JournalEntry{
		Type:        domain.EventReassigned,
		ProjectCode: p.Code,
		Task:        title,
		WorkerID:    w.ID,
		Amount:      t.EstimatedCost,
		Days:        t.Days,
		Description: policy,
	})
	s.debugf("project %d: %q reassigned to worker %d (%s)", p.Code, title, w.ID, policy)
	return nil
}

// ReportDelay adds delay days to a task and counts a delay event against its
// worker, if any.
func (s *Service) ReportDelay(code int, title string, days float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.project(code)
	if err != nil {
		return s.fail("delay", err)
	}
	if err := p.ReportDelay(title, days, s.workers); err != nil {
		return s.fail("delay", err)
	}
	t := p.Tasks[title]

	metrics.DelaysReported.Inc()
	metrics.DelayDays.Add(days)
	s.record(domain.JournalEntry{
		Type:        domain.EventDelay,
		ProjectCode: code,
		Task:        title,
		WorkerID:    t.WorkerID,
		Days:        days,
	})
	s.debugf("project %d: %q delayed %v days (total %v)", code, title, days, t.DelayDays)
	return nil
}

// FinalizeTask closes an ASSIGNED task with its bound worker. The project
// finishes today when this was its last open task.
func (s *Service) FinalizeTask(code int, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.project(code)
	if err != nil {
		return s.fail("finalize_task", err)
	}
	t, err := p.Task(title)
	if err != nil {
		return s.fail("finalize_task", err)
	}
	w, _ := s.workers.Worker(t.WorkerID)

	before := p.State
	if err := p.FinalizeTask(title, s.workers, s.today()); err != nil {
		return s.fail("finalize_task", err)
	}
	s.finalized(p, t, w)
	s.transition(p, before)
	if p.IsFinished() {
		s.projectFinished(p)
	}
	return nil
}

// FinalizeProject closes every open task and marks the project FINISHED on
// date.
func (s *Service) FinalizeProject(code int, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.project(code)
	if err != nil {
		return s.fail("finalize_project", err)
	}

	var open []*domain.Task
	for _, title := range p.TaskTitles() {
		if t := p.Tasks[title]; t.State == domain.TaskAssigned {
			open = append(open, t)
		}
	}

	before := p.State
	if err := p.Finalize(date, s.workers); err != nil {
		return s.fail("finalize_project", err)
	}
	for _, t := range open {
		w, _ := s.workers.Worker(t.WorkerID)
		s.finalized(p, t, w)
	}
	s.transition(p, before)
	s.projectFinished(p)
	return nil
}

func (s *Service) finalized(p *domain.Project, t *domain.Task, w *domain.Worker) {
	kind := "unknown"
	if w != nil {
		kind = string(w.Kind)
	}
	metrics.TasksFinalized.WithLabelValues(kind).Inc()
	metrics.TaskFinalCost.WithLabelValues(kind).Observe(t.FinalCost)
	metrics.WorkersAssigned.Dec()
	s.record(domain.JournalEntry{
		Type:        domain.EventTaskFinalized,
		ProjectCode: p.Code,
		Task:        t.Title,
		WorkerID:    t.WorkerID,
		Amount:      t.FinalCost,
		Days:        t.TotalDays(),
	})
	s.debugf("project %d: %q finalized, final cost %.2f", p.Code, t.Title, t.FinalCost)
}

func (s *Service) projectFinished(p *domain.Project) {
	total, err := p.TotalCost()
	if err != nil {
		return
	}
	s.record(domain.JournalEntry{
		Type:        domain.EventProjectFinished,
		ProjectCode: p.Code,
		Amount:      total,
		Description: p.Finished.Format(time.DateOnly),
	})
}

// TotalCost returns the surcharged cost of a project that has left PENDING.
func (s *Service) TotalCost(code int) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := s.project(code)
	if err != nil {
		return 0, s.fail("total_cost", err)
	}
	total, err := p.TotalCost()
	if err != nil {
		return 0, s.fail("total_cost", err)
	}
	return total, nil
}
