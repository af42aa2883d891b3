package registry_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homesolution/homesolution/internal/app/assign"
	"github.com/homesolution/homesolution/internal/app/registry"
	"github.com/homesolution/homesolution/internal/domain"
)

type memJournal struct {
	mu      sync.Mutex
	entries []domain.JournalEntry
	err     error
}

func (m *memJournal) Record(e domain.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *memJournal) types() []domain.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.EventType, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Type
	}
	return out
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

var fixedNow = func() time.Time { return day("2025-03-10") }

func newService(t *testing.T) (*registry.Service, *memJournal) {
	t.Helper()
	j := &memJournal{}
	svc := registry.New(registry.Options{Journal: j, Now: fixedNow})
	require.NoError(t, svc.RegisterClient("Lucía", "lucia@example.com", "555-0101"))
	return svc, j
}

func newProject(t *testing.T, svc *registry.Service, specs ...domain.TaskSpec) int {
	t.Helper()
	code, err := svc.RegisterProject(specs, "Av. Siempreviva 742", day("2025-03-01"), day("2025-03-20"), "lucia@example.com")
	require.NoError(t, err)
	return code
}

func spec(title string, days float64) domain.TaskSpec {
	return domain.TaskSpec{Title: title, Description: title, Days: days}
}

func TestRegisterWorkers_SequentialIDs(t *testing.T) {
	svc, _ := newService(t)

	a, err := svc.RegisterHourlyWorker("Ana", 10)
	require.NoError(t, err)
	b, err := svc.RegisterSalariedWorker("Bruno", 100, "TECNICO")
	require.NoError(t, err)
	c, err := svc.RegisterWorker(registry.WorkerInput{Kind: domain.WorkerHourly, Name: "Carla", Rate: 12})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, []int{a, b, c})
	assert.Len(t, svc.Workers(), 3)
}

func TestRegisterWorker_Validation(t *testing.T) {
	svc, _ := newService(t)

	tests := []struct {
		name string
		in   registry.WorkerInput
		want error
	}{
		{"empty name", registry.WorkerInput{Kind: domain.WorkerHourly, Rate: 10}, domain.ErrEmptyName},
		{"zero rate", registry.WorkerInput{Kind: domain.WorkerHourly, Name: "Ana"}, domain.ErrInvalidRate},
		{"unknown kind", registry.WorkerInput{Kind: "freelance", Name: "Ana", Rate: 10}, domain.ErrInvalidKind},
		{"salaried without category", registry.WorkerInput{Kind: domain.WorkerSalaried, Name: "Ana", Rate: 10}, domain.ErrInvalidCategory},
		{"salaried bad category", registry.WorkerInput{Kind: domain.WorkerSalaried, Name: "Ana", Rate: 10, Category: "JEFE"}, domain.ErrInvalidCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RegisterWorker(tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		})
	}
	assert.Empty(t, svc.Workers())

	id, err := svc.RegisterHourlyWorker("Ana", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, id, "rejected registrations must not consume ids")
}

func TestRegisterClient_Validation(t *testing.T) {
	svc := registry.New(registry.Options{})

	err := svc.RegisterClient("Lucía", "not-an-email", "")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	err = svc.RegisterClient("", "lucia@example.com", "")
	assert.ErrorIs(t, err, domain.ErrEmptyName)

	require.NoError(t, svc.RegisterClient("Lucía", "lucia@example.com", "555"))
	c, err := svc.Client("lucia@example.com")
	require.NoError(t, err)
	assert.Equal(t, "555", c.Phone)
}

func TestRegisterProject(t *testing.T) {
	svc, _ := newService(t)

	code := newProject(t, svc, spec("pintura", 5), spec("plomeria", 2))
	assert.Equal(t, 1, code)

	p, err := svc.Project(code)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectPending, p.State)
	assert.Len(t, p.Tasks, 2)
	assert.Equal(t, "lucia@example.com", p.ClientRef)

	_, err = svc.RegisterProject(nil, "x", day("2025-03-01"), day("2025-03-02"), "nadie@example.com")
	assert.ErrorIs(t, err, domain.ErrClientNotFound)

	_, err = svc.RegisterProject(nil, "x", day("2025-03-05"), day("2025-03-01"), "lucia@example.com")
	assert.ErrorIs(t, err, domain.ErrInvalidDate)

	_, err = svc.RegisterProject([]domain.TaskSpec{{Title: "x", Days: 0}}, "x", day("2025-03-01"), day("2025-03-02"), "lucia@example.com")
	assert.ErrorIs(t, err, domain.ErrInvalidDays)

	code2 := newProject(t, svc)
	assert.Equal(t, 2, code2, "failed registrations must not consume codes")
}

func TestAssignAndFinalize_Hourly(t *testing.T) {
	svc, j := newService(t)
	w, _ := svc.RegisterHourlyWorker("Ana", 10)
	code := newProject(t, svc, spec("pintura", 5))

	require.NoError(t, svc.AssignWorker(code, "pintura", w))
	p, _ := svc.Project(code)
	assert.Equal(t, domain.ProjectActive, p.State)
	assert.InDelta(t, 400.0, p.EstimatedCost, 1e-9)

	total, err := svc.TotalCost(code)
	require.NoError(t, err)
	assert.InDelta(t, 540.0, total, 1e-9)

	require.NoError(t, svc.FinalizeTask(code, "pintura"))
	p, _ = svc.Project(code)
	assert.Equal(t, domain.ProjectFinished, p.State)
	assert.Equal(t, day("2025-03-10"), p.Finished)
	assert.InDelta(t, 400.0, p.FinalCost, 1e-9)
	assert.Equal(t, []string{"pintura"}, p.History[w])

	worker, _ := svc.Worker(w)
	assert.False(t, worker.Assigned)

	assert.Equal(t, []domain.EventType{
		domain.EventAssigned, domain.EventTaskFinalized, domain.EventProjectFinished,
	}, j.types())
	assert.InDelta(t, 540.0, j.entries[2].Amount, 1e-9)
}

func TestTotalCost_PendingRejected(t *testing.T) {
	svc, _ := newService(t)
	code := newProject(t, svc, spec("pintura", 5))

	_, err := svc.TotalCost(code)
	assert.ErrorIs(t, err, domain.ErrProjectPending)
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)

	_, err = svc.TotalCost(99)
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestTotalCost_DelaySurcharge(t *testing.T) {
	svc, _ := newService(t)
	w, _ := svc.RegisterSalariedWorker("Bruno", 100, "EXPERTO")
	code := newProject(t, svc, spec("techo", 3))

	require.NoError(t, svc.AssignWorker(code, "techo", w))
	require.NoError(t, svc.ReportDelay(code, "techo", 2))
	require.NoError(t, svc.FinalizeTask(code, "techo"))

	total, err := svc.TotalCost(code)
	require.NoError(t, err)
	assert.InDelta(t, 500*1.25, total, 1e-9)

	delays, err := svc.WorkerDelays(w)
	require.NoError(t, err)
	assert.Equal(t, 1, delays)

	has, err := svc.WorkerHasDelays(w)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestAssignLeastDelayed_Deterministic(t *testing.T) {
	svc, _ := newService(t)
	ids := make([]int, 3)
	for i := range ids {
		ids[i], _ = svc.RegisterHourlyWorker("w", 10)
	}
	// Delays {3, 1, 2} for workers 1..3.
	code := newProject(t, svc, spec("a", 1), spec("b", 1), spec("c", 1))
	for i, n := range []int{3, 1, 2} {
		title := []string{"a", "b", "c"}[i]
		require.NoError(t, svc.AssignWorker(code, title, ids[i]))
		for k := 0; k < n; k++ {
			require.NoError(t, svc.ReportDelay(code, title, 1))
		}
		require.NoError(t, svc.FinalizeTask(code, title))
	}

	for round := 0; round < 3; round++ {
		next := newProject(t, svc, spec("x", 1))
		got, err := svc.AssignLeastDelayed(next, "x")
		require.NoError(t, err)
		assert.Equal(t, ids[1], got)
		require.NoError(t, svc.FinalizeTask(next, "x"))
	}
}

func TestAssignFirstAvailable(t *testing.T) {
	svc, _ := newService(t)
	a, _ := svc.RegisterHourlyWorker("Ana", 10)
	b, _ := svc.RegisterHourlyWorker("Bruno", 10)
	code := newProject(t, svc, spec("a", 1), spec("b", 1), spec("c", 1))

	got, err := svc.AssignFirstAvailable(code, "a")
	require.NoError(t, err)
	assert.Equal(t, a, got)

	got, err = svc.AssignFirstAvailable(code, "b")
	require.NoError(t, err)
	assert.Equal(t, b, got)

	_, err = svc.AssignFirstAvailable(code, "c")
	assert.ErrorIs(t, err, domain.ErrNoWorkerAvailable)
	assert.True(t, registry.IsNoWorker(err))

	p, _ := svc.Project(code)
	assert.Equal(t, domain.TaskUnassigned, p.Tasks["c"].State)
}

func TestAssignByPolicy_TaskErrorsBeforeWorkerErrors(t *testing.T) {
	svc, _ := newService(t)
	code := newProject(t, svc, spec("a", 1))

	_, err := svc.AssignLeastDelayed(code, "missing")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	_, err = svc.AssignByPolicy(code, "a", "random")
	assert.ErrorIs(t, err, domain.ErrUnknownPolicy)

	_, err = svc.AssignByPolicy(code, "a", assign.PolicyFewestDelays)
	assert.ErrorIs(t, err, domain.ErrNoFreeWorker)
}

func TestAssignWorker_Errors(t *testing.T) {
	svc, _ := newService(t)
	a, _ := svc.RegisterHourlyWorker("Ana", 10)
	b, _ := svc.RegisterHourlyWorker("Bruno", 10)
	code := newProject(t, svc, spec("a", 1), spec("b", 1))

	assert.ErrorIs(t, svc.AssignWorker(99, "a", a), domain.ErrProjectNotFound)
	assert.ErrorIs(t, svc.AssignWorker(code, "a", 99), domain.ErrWorkerNotFound)
	assert.ErrorIs(t, svc.AssignWorker(code, "zz", a), domain.ErrTaskNotFound)

	require.NoError(t, svc.AssignWorker(code, "a", a))
	assert.ErrorIs(t, svc.AssignWorker(code, "a", b), domain.ErrAlreadyAssigned)
	assert.ErrorIs(t, svc.AssignWorker(code, "b", a), domain.ErrWorkerBusy)

	free := svc.UnassignedWorkers()
	require.Len(t, free, 1)
	assert.Equal(t, b, free[0].ID)
}

func TestReassign(t *testing.T) {
	svc, j := newService(t)
	a, _ := svc.RegisterHourlyWorker("Ana", 10)
	b, _ := svc.RegisterSalariedWorker("Bruno", 100, "INICIAL")
	code := newProject(t, svc, spec("pintura", 5), spec("techo", 3))

	assert.ErrorIs(t, svc.ReassignWorker(code, "pintura", b), domain.ErrNoPriorAssignment)

	require.NoError(t, svc.AssignWorker(code, "pintura", a))
	require.NoError(t, svc.ReassignWorker(code, "pintura", b))

	p, _ := svc.Project(code)
	assert.Equal(t, b, p.Tasks["pintura"].WorkerID)
	assert.InDelta(t, 500.0, p.EstimatedCost, 1e-9)

	wa, _ := svc.Worker(a)
	wb, _ := svc.Worker(b)
	assert.False(t, wa.Assigned)
	assert.True(t, wb.Assigned)

	got, err := svc.ReassignLeastDelayed(code, "pintura")
	require.NoError(t, err)
	assert.Equal(t, a, got)
	p, _ = svc.Project(code)
	assert.InDelta(t, 400.0, p.EstimatedCost, 1e-9)

	assert.Contains(t, j.types(), domain.EventReassigned)
	require.NoError(t, svc.CheckConsistency())
}

func TestFinalizeProject(t *testing.T) {
	svc, j := newService(t)
	a, _ := svc.RegisterHourlyWorker("Ana", 10)
	b, _ := svc.RegisterSalariedWorker("Bruno", 100, "TECNICO")
	code := newProject(t, svc, spec("pintura", 5), spec("techo", 3))

	require.NoError(t, svc.AssignWorker(code, "pintura", a))
	require.NoError(t, svc.AssignWorker(code, "techo", b))
	assert.ErrorIs(t, svc.FinalizeProject(code, day("2025-02-01")), domain.ErrInvalidDate)
	assert.ErrorIs(t, svc.FinalizeProject(code, day("2025-03-15")), domain.ErrInvalidDate)

	require.NoError(t, svc.FinalizeProject(code, day("2025-03-25")))
	p, _ := svc.Project(code)
	assert.Equal(t, domain.ProjectFinished, p.State)
	assert.Equal(t, day("2025-03-25"), p.Finished)
	assert.InDelta(t, 400+306, p.FinalCost, 1e-9)
	for _, w := range svc.Workers() {
		assert.False(t, w.Assigned, "worker %d still assigned", w.ID)
	}

	assert.ErrorIs(t, svc.FinalizeProject(code, day("2025-03-26")), domain.ErrAlreadyFinished)
	assert.ErrorIs(t, svc.AddTask(code, "extra", "", 1), domain.ErrProjectFinished)
	_, err := svc.UnassignedTasks(code)
	assert.ErrorIs(t, err, domain.ErrProjectFinished)

	finalized := 0
	for _, typ := range j.types() {
		if typ == domain.EventTaskFinalized {
			finalized++
		}
	}
	assert.Equal(t, 2, finalized)
}

func TestFinalizeProject_ClosesUnassignedTasks(t *testing.T) {
	svc, j := newService(t)
	a, _ := svc.RegisterHourlyWorker("Ana", 10)
	code := newProject(t, svc, spec("pintura", 5), spec("techo", 3))
	require.NoError(t, svc.AssignWorker(code, "pintura", a))

	require.NoError(t, svc.FinalizeProject(code, day("2025-03-25")))

	p, _ := svc.Project(code)
	assert.Equal(t, domain.ProjectFinished, p.State)
	assert.Equal(t, domain.TaskFinalized, p.Tasks["techo"].State)
	assert.Zero(t, p.Tasks["techo"].WorkerID)
	assert.Zero(t, p.Tasks["techo"].FinalCost)
	assert.InDelta(t, 400.0, p.FinalCost, 1e-9)

	total, err := svc.TotalCost(code)
	require.NoError(t, err)
	assert.InDelta(t, 540.0, total, 1e-9)

	workers, err := svc.WorkersOnProject(code)
	require.NoError(t, err)
	require.Len(t, workers, 1)
	assert.Equal(t, a, workers[0].ID)
	assert.False(t, workers[0].Assigned)

	finalized := 0
	for _, typ := range j.types() {
		if typ == domain.EventTaskFinalized {
			finalized++
		}
	}
	assert.Equal(t, 1, finalized)
	require.NoError(t, svc.CheckConsistency())
}

func TestFinalizeProject_EmptyProject(t *testing.T) {
	svc, _ := newService(t)
	code := newProject(t, svc)

	assert.ErrorIs(t, svc.FinalizeProject(code, day("2025-03-25")), domain.ErrNoTasks)
	finished, err := svc.IsFinished(code)
	require.NoError(t, err)
	assert.False(t, finished)
}

func TestFinalizeTask_Errors(t *testing.T) {
	svc, _ := newService(t)
	a, _ := svc.RegisterHourlyWorker("Ana", 10)
	code := newProject(t, svc, spec("pintura", 5), spec("techo", 1))

	assert.ErrorIs(t, svc.FinalizeTask(code, "pintura"), domain.ErrNotAssigned)
	require.NoError(t, svc.AssignWorker(code, "pintura", a))
	require.NoError(t, svc.FinalizeTask(code, "pintura"))

	err := svc.FinalizeTask(code, "pintura")
	assert.ErrorIs(t, err, domain.ErrAlreadyFinalized)
	p, _ := svc.Project(code)
	assert.InDelta(t, 400.0, p.FinalCost, 1e-9)
	assert.Equal(t, domain.ProjectPending, p.State)
}

func TestAddTask_RevertsActiveToPending(t *testing.T) {
	svc, _ := newService(t)
	a, _ := svc.RegisterHourlyWorker("Ana", 10)
	code := newProject(t, svc, spec("pintura", 5))
	require.NoError(t, svc.AssignWorker(code, "pintura", a))

	require.NoError(t, svc.AddTask(code, "techo", "cambiar tejas", 2))
	p, _ := svc.Project(code)
	assert.Equal(t, domain.ProjectPending, p.State)

	_, err := svc.TotalCost(code)
	require.NoError(t, err, "a project that was ACTIVE keeps reporting cost")

	assert.ErrorIs(t, svc.AddTask(code, "techo", "", 1), domain.ErrDuplicateTask)
	assert.ErrorIs(t, svc.AddTask(code, "", "", 1), domain.ErrEmptyTitle)
	assert.ErrorIs(t, svc.AddTask(code, "x", "", -1), domain.ErrInvalidDays)
}

func TestQueries(t *testing.T) {
	svc, _ := newService(t)
	a, _ := svc.RegisterHourlyWorker("Ana", 10)
	b, _ := svc.RegisterHourlyWorker("Bruno", 10)
	p1 := newProject(t, svc, spec("pintura", 5), spec("techo", 1))
	p2 := newProject(t, svc, spec("piso", 2))

	require.NoError(t, svc.AssignWorker(p2, "piso", b))
	require.NoError(t, svc.AssignWorker(p1, "pintura", a))

	pending := svc.Projects(domain.ProjectPending)
	require.Len(t, pending, 1)
	assert.Equal(t, p1, pending[0].Code)

	active := svc.Projects(domain.ProjectActive)
	require.Len(t, active, 1)
	assert.Equal(t, p2, active[0].Code)
	assert.Len(t, svc.Projects(""), 2)

	tasks, err := svc.UnassignedTasks(p1)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "techo", tasks[0].Title)

	all, err := svc.ProjectTasks(p1)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	on, err := svc.WorkersOnProject(p1)
	require.NoError(t, err)
	require.Len(t, on, 1)
	assert.Equal(t, a, on[0].ID)

	addr, err := svc.ProjectAddress(p1)
	require.NoError(t, err)
	assert.Equal(t, "Av. Siempreviva 742", addr)

	done, err := svc.IsFinished(p1)
	require.NoError(t, err)
	assert.False(t, done)

	_, err = svc.ProjectAddress(42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.WorkerDelays(42)
	assert.ErrorIs(t, err, domain.ErrWorkerNotFound)
}

func TestSnapshotIsolation(t *testing.T) {
	svc, _ := newService(t)
	code := newProject(t, svc, spec("pintura", 5))

	p, _ := svc.Project(code)
	p.Tasks["pintura"].Days = 99
	p.State = domain.ProjectFinished

	again, _ := svc.Project(code)
	assert.InDelta(t, 5.0, again.Tasks["pintura"].Days, 1e-9)
	assert.Equal(t, domain.ProjectPending, again.State)
}

func TestJournalFailureDoesNotRollBack(t *testing.T) {
	j := &memJournal{err: errors.New("disk full")}
	svc := registry.New(registry.Options{Journal: j, Now: fixedNow})
	require.NoError(t, svc.RegisterClient("Lucía", "lucia@example.com", ""))
	w, _ := svc.RegisterHourlyWorker("Ana", 10)
	code := newProject(t, svc, spec("pintura", 5))

	require.NoError(t, svc.AssignWorker(code, "pintura", w))
	p, _ := svc.Project(code)
	assert.Equal(t, domain.TaskAssigned, p.Tasks["pintura"].State)
}

func TestConcurrentAssignments(t *testing.T) {
	svc, _ := newService(t)
	for i := 0; i < 10; i++ {
		_, err := svc.RegisterHourlyWorker("w", 10)
		require.NoError(t, err)
	}
	titles := make([]domain.TaskSpec, 20)
	for i := range titles {
		titles[i] = spec(string(rune('a'+i)), 1)
	}
	code := newProject(t, svc, titles...)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		assigned int
	)
	for _, ts := range titles {
		wg.Add(1)
		go func(title string) {
			defer wg.Done()
			if _, err := svc.AssignFirstAvailable(code, title); err == nil {
				mu.Lock()
				assigned++
				mu.Unlock()
			}
		}(ts.Title)
	}
	wg.Wait()

	assert.Equal(t, 10, assigned)
	assert.Empty(t, svc.UnassignedWorkers())
	require.NoError(t, svc.CheckConsistency())
}
