// Package assign implements the worker selection policies used when a task
// needs a responsible worker.
//
// Both policies are linear scans in ascending worker id order. Ties always
// go to the lowest id so repeated calls over an unchanged registry return the
// same worker.
package assign

import (
	"sort"

	"github.com/homesolution/homesolution/internal/domain"
)

// Policy picks one unassigned worker or fails with domain.ErrNoFreeWorker.
type Policy func(workers []*domain.Worker) (*domain.Worker, error)

// Name identifies a policy on the wire and in metrics.
type Name string

const (
	PolicyFirstAvailable Name = "first"
	PolicyFewestDelays   Name = "fewest-delays"
)

// Lookup returns the policy registered under name.
func Lookup(name Name) (Policy, bool) {
	switch name {
	case PolicyFirstAvailable, "":
		return FirstAvailable, true
	case PolicyFewestDelays:
		return FewestDelays, true
	}
	return nil, false
}

// FirstAvailable returns the free worker with the lowest id.
func FirstAvailable(workers []*domain.Worker) (*domain.Worker, error) {
	for _, w := range byID(workers) {
		if !w.Assigned {
			return w, nil
		}
	}
	return nil, domain.ErrNoFreeWorker
}

// FewestDelays returns the free worker with the smallest delay counter.
func FewestDelays(workers []*domain.Worker) (*domain.Worker, error) {
	var best *domain.Worker
	for _, w := range byID(workers) {
		if w.Assigned {
			continue
		}
		if best == nil || w.Delays < best.Delays {
			best = w
		}
	}
	if best == nil {
		return nil, domain.ErrNoFreeWorker
	}
	return best, nil
}

// byID returns workers sorted by ascending id without touching the input.
func byID(workers []*domain.Worker) []*domain.Worker {
	if sort.SliceIsSorted(workers, func(i, j int) bool { return workers[i].ID < workers[j].ID }) {
		return workers
	}
	sorted := make([]*domain.Worker, len(workers))
	copy(sorted, workers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return sorted
}
