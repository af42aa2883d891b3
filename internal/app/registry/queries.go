package registry

import (
	"fmt"
	"sort"

	"github.com/homesolution/homesolution/internal/domain"
)

// ProjectSummary is the (code, address) pair listed per project.
type ProjectSummary struct {
	Code    int                 `json:"code"`
	Address string              `json:"address"`
	State   domain.ProjectState `json:"state"`
}

// Projects lists projects in the given state, or all projects when state is
// empty, ordered by code.
func (s *Service) Projects(state domain.ProjectState) []ProjectSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ProjectSummary, 0, len(s.projects))
	for _, p := range s.projects {
		if state != "" && p.State != state {
			continue
		}
		out = append(out, ProjectSummary{Code: p.Code, Address: p.Address, State: p.State})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Project returns a snapshot of one project.
func (s *Service) Project(code int) (*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := s.project(code)
	if err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

// IsFinished reports whether a project reached FINISHED.
func (s *Service) IsFinished(code int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := s.project(code)
	if err != nil {
		return false, err
	}
	return p.IsFinished(), nil
}

// ProjectAddress returns the address of a project.
func (s *Service) ProjectAddress(code int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := s.project(code)
	if err != nil {
		return "", err
	}
	return p.Address, nil
}

// ProjectTasks returns copies of every task of a project, ordered by title.
func (s *Service) ProjectTasks(code int) ([]domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := s.project(code)
	if err != nil {
		return nil, err
	}
	return tasksWhere(p, func(*domain.Task) bool { return true }), nil
}

// UnassignedTasks returns the tasks still waiting for a worker. Finished
// projects have none to offer and are rejected.
func (s *Service) UnassignedTasks(code int) ([]domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := s.project(code)
	if err != nil {
		return nil, err
	}
	if p.IsFinished() {
		return nil, domain.Errorf(domain.ErrProjectFinished, "project %d", code)
	}
	return tasksWhere(p, func(t *domain.Task) bool { return t.State == domain.TaskUnassigned }), nil
}

func tasksWhere(p *domain.Project, keep func(*domain.Task) bool) []domain.Task {
	var out []domain.Task
	for _, title := range p.TaskTitles() {
		if t := p.Tasks[title]; keep(t) {
			out = append(out, *t)
		}
	}
	return out
}

// WorkersOnProject returns the workers bound to any task of a project,
// finalized tasks included, ordered by id.
func (s *Service) WorkersOnProject(code int) ([]domain.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := s.project(code)
	if err != nil {
		return nil, err
	}
	seen := make(map[int]bool)
	var out []domain.Worker
	for _, t := range p.Tasks {
		if !t.HasWorker() || seen[t.WorkerID] {
			continue
		}
		seen[t.WorkerID] = true
		if w, ok := s.workers[t.WorkerID]; ok {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Workers returns every registered worker ordered by id.
func (s *Service) Workers() []domain.Worker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.workersWhere(func(*domain.Worker) bool { return true })
}

// UnassignedWorkers returns the workers free to take a task.
func (s *Service) UnassignedWorkers() []domain.Worker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.workersWhere(func(w *domain.Worker) bool { return !w.Assigned })
}

func (s *Service) workersWhere(keep func(*domain.Worker) bool) []domain.Worker {
	out := make([]domain.Worker, 0, len(s.workers))
	for _, w := range s.workers.Sorted() {
		if keep(w) {
			out = append(out, *w)
		}
	}
	return out
}

// Worker returns a copy of one worker.
func (s *Service) Worker(id int) (domain.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, err := s.worker(id)
	if err != nil {
		return domain.Worker{}, err
	}
	return *w, nil
}

// WorkerDelays returns how many delay events a worker accumulated.
func (s *Service) WorkerDelays(id int) (int, error) {
	w, err := s.Worker(id)
	if err != nil {
		return 0, err
	}
	return w.Delays, nil
}

// WorkerHasDelays reports whether any task bound to the worker, in any
// project, carries delay days.
func (s *Service) WorkerHasDelays(id int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.worker(id); err != nil {
		return false, err
	}
	for _, p := range s.projects {
		for _, t := range p.Tasks {
			if t.WorkerID == id && t.DelayDays > 0 {
				return true, nil
			}
		}
	}
	return false, nil
}

// Client returns a registered client by e-mail.
func (s *Service) Client(email string) (Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clients[email]
	if !ok {
		return Client{}, domain.Errorf(domain.ErrClientNotFound, "%q", email)
	}
	return *c, nil
}

// CheckConsistency verifies that worker assignment flags agree with the open
// tasks that reference them and that no worker holds two open tasks.
func (s *Service) CheckConsistency() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	holder := make(map[int]string)
	for _, code := range s.codes() {
		p := s.projects[code]
		for _, id := range p.WorkerIDs() {
			where := fmt.Sprintf("project %d", code)
			if prev, dup := holder[id]; dup {
				return fmt.Errorf("worker %d holds open tasks in %s and %s", id, prev, where)
			}
			holder[id] = where
		}
	}
	for _, w := range s.workers.Sorted() {
		_, holds := holder[w.ID]
		if w.Assigned != holds {
			return fmt.Errorf("worker %d assigned=%v but holds open task=%v", w.ID, w.Assigned, holds)
		}
	}
	return nil
}

func (s *Service) codes() []int {
	codes := make([]int, 0, len(s.projects))
	for c := range s.projects {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	return codes
}
