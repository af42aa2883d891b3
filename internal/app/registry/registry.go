// Package registry owns the workers, clients and projects of a HomeSolution
// instance and exposes every operation on them.
//
// One RWMutex guards all state. Mutations take the write lock, validate
// everything first and only then touch the domain objects, so a rejected call
// leaves the registry unchanged. Journal writes and metric updates follow the
// in-memory commit and never undo it.
package registry

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/homesolution/homesolution/internal/domain"
	"github.com/homesolution/homesolution/internal/infra/metrics"
)

// Recorder receives cost events after they commit.
type Recorder interface {
	Record(e domain.JournalEntry) error
}

// Options configures a Service. The zero value is usable.
type Options struct {
	Journal Recorder         // nil disables the cost journal
	Now     func() time.Time // defaults to time.Now
	Debug   bool             // log every committed operation
}

// Service is the in-memory registry.
type Service struct {
	mu       sync.RWMutex
	workers  domain.WorkerSet
	clients  map[string]*Client
	projects map[int]*domain.Project

	nextWorker  int
	nextProject int

	journal Recorder
	now     func() time.Time
	debug   bool
}

// New creates an empty registry. Worker ids and project codes start at 1.
func New(opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		workers:     make(domain.WorkerSet),
		clients:     make(map[string]*Client),
		projects:    make(map[int]*domain.Project),
		nextWorker:  1,
		nextProject: 1,
		journal:     opts.Journal,
		now:         now,
		debug:       opts.Debug,
	}
}

// ─── Registration ───────────────────────────────────────────────────────────

// RegisterHourlyWorker registers a worker paid by the hour.
func (s *Service) RegisterHourlyWorker(name string, rate float64) (int, error) {
	return s.RegisterWorker(WorkerInput{Kind: domain.WorkerHourly, Name: name, Rate: rate})
}

// RegisterSalariedWorker registers a permanent worker with a fixed daily rate.
func (s *Service) RegisterSalariedWorker(name string, rate float64, category string) (int, error) {
	return s.RegisterWorker(WorkerInput{Kind: domain.WorkerSalaried, Name: name, Rate: rate, Category: category})
}

// RegisterWorker validates in and registers the worker it describes.
func (s *Service) RegisterWorker(in WorkerInput) (int, error) {
	if err := checkInput(in); err != nil {
		return 0, s.fail("register_worker", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		w   *domain.Worker
		err error
	)
	switch in.Kind {
	case domain.WorkerHourly:
		w, err = domain.NewHourlyWorker(s.nextWorker, in.Name, in.Rate)
	case domain.WorkerSalaried:
		w, err = domain.NewSalariedWorker(s.nextWorker, in.Name, in.Rate, in.Category)
	default:
		err = domain.Errorf(domain.ErrInvalidKind, "%q", in.Kind)
	}
	if err != nil {
		return 0, s.fail("register_worker", err)
	}
	s.workers[w.ID] = w
	s.nextWorker++

	metrics.WorkersRegistered.WithLabelValues(string(w.Kind)).Inc()
	s.debugf("worker %d registered (%s, %s)", w.ID, w.Name, w.Kind)
	return w.ID, nil
}

// RegisterClient registers a client keyed by e-mail. Registering the same
// e-mail again replaces the contact details.
func (s *Service) RegisterClient(name, email, phone string) error {
	in := ClientInput{Name: name, Email: email, Phone: phone}
	if err := checkInput(in); err != nil {
		return s.fail("register_client", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[email] = &Client{Name: name, Email: email, Phone: phone}
	s.debugf("client %s registered", email)
	return nil
}

// RegisterProject creates a PENDING project for a registered client.
func (s *Service) RegisterProject(specs []domain.TaskSpec, address string, start, end time.Time, clientRef string) (int, error) {
	in := ProjectInput{Tasks: specs, Address: address, Start: start, EstimatedEnd: end, Client: clientRef}
	if err := checkInput(in); err != nil {
		return 0, s.fail("register_project", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[clientRef]; !ok {
		return 0, s.fail("register_project", domain.Errorf(domain.ErrClientNotFound, "%q", clientRef))
	}
	p, err := domain.NewProject(s.nextProject, address, start, end, clientRef, specs)
	if err != nil {
		return 0, s.fail("register_project", err)
	}
	s.projects[p.Code] = p
	s.nextProject++

	metrics.ProjectsByState.WithLabelValues(string(p.State)).Inc()
	s.debugf("project %d registered at %q with %d tasks", p.Code, p.Address, len(p.Tasks))
	return p.Code, nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func (s *Service) project(code int) (*domain.Project, error) {
	p, ok := s.projects[code]
	if !ok {
		return nil, domain.Errorf(domain.ErrProjectNotFound, "%d", code)
	}
	return p, nil
}

func (s *Service) worker(id int) (*domain.Worker, error) {
	w, ok := s.workers[id]
	if !ok {
		return nil, domain.Errorf(domain.ErrWorkerNotFound, "%d", id)
	}
	return w, nil
}

// record appends to the cost journal. Failures are logged and counted only.
func (s *Service) record(e domain.JournalEntry) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(e); err != nil {
		metrics.JournalWriteErrors.Inc()
		log.Printf("[registry] journal %s for project %d: %v", e.Type, e.ProjectCode, err)
	}
}

// transition moves the per-state project gauge after a mutation.
func (s *Service) transition(p *domain.Project, before domain.ProjectState) {
	if before == p.State {
		return
	}
	metrics.ProjectsByState.WithLabelValues(string(before)).Dec()
	metrics.ProjectsByState.WithLabelValues(string(p.State)).Inc()
	if p.IsFinished() {
		metrics.ProjectsFinished.Inc()
		log.Printf("[registry] project %d finished on %s", p.Code, p.Finished.Format(time.DateOnly))
	}
}

// fail counts a rejected operation and returns err unchanged.
func (s *Service) fail(op string, err error) error {
	metrics.OperationErrors.WithLabelValues(op, domain.KindName(err)).Inc()
	s.debugf("%s rejected: %v", op, err)
	return err
}

func (s *Service) debugf(format string, args ...any) {
	if s.debug {
		log.Printf("[registry] "+format, args...)
	}
}

// today is the registry clock truncated to a calendar date.
func (s *Service) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsNoWorker reports whether err means a policy found no free worker.
func IsNoWorker(err error) bool {
	return errors.Is(err, domain.ErrNoWorkerAvailable)
}
