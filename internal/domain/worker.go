package domain

import (
	"fmt"
	"sort"
	"strings"
)

// HoursPerDay is the working day assumed for hourly-rate workers.
const HoursPerDay = 8

// WorkerKind selects the costing formula of a worker.
type WorkerKind string

const (
	WorkerHourly   WorkerKind = "hourly"
	WorkerSalaried WorkerKind = "salaried"
)

// Category is the seniority band of a salaried worker. It is descriptive only
// and never changes the cost formula.
type Category string

const (
	CategoryInitial    Category = "INICIAL"
	CategoryTechnician Category = "TECNICO"
	CategoryExpert     Category = "EXPERTO"
)

// ParseCategory normalizes a category name. Matching is case-insensitive.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	switch c {
	case CategoryInitial, CategoryTechnician, CategoryExpert:
		return c, nil
	}
	return "", Errorf(ErrInvalidCategory, "%q", s)
}

// Worker is a person costed per day. Hourly workers carry HourlyRate;
// salaried workers carry DailyRate and Category.
type Worker struct {
	ID         int        `json:"id"`
	Name       string     `json:"name"`
	Kind       WorkerKind `json:"kind"`
	HourlyRate float64    `json:"hourly_rate,omitempty"`
	DailyRate  float64    `json:"daily_rate,omitempty"`
	Category   Category   `json:"category,omitempty"`
	Assigned   bool       `json:"assigned"`
	Delays     int        `json:"delays"`
}

// NewHourlyWorker creates an hourly-rate worker.
func NewHourlyWorker(id int, name string, rate float64) (*Worker, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	if rate <= 0 {
		return nil, ErrInvalidRate
	}
	return &Worker{ID: id, Name: name, Kind: WorkerHourly, HourlyRate: rate}, nil
}

// NewSalariedWorker creates a fixed-daily-rate worker of the given category.
func NewSalariedWorker(id int, name string, rate float64, category string) (*Worker, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	if rate <= 0 {
		return nil, ErrInvalidRate
	}
	c, err := ParseCategory(category)
	if err != nil {
		return nil, err
	}
	return &Worker{ID: id, Name: name, Kind: WorkerSalaried, DailyRate: rate, Category: c}, nil
}

// Cost returns what the worker charges for the given number of days.
func (w *Worker) Cost(days float64) float64 {
	switch w.Kind {
	case WorkerHourly:
		return days * w.HourlyRate * HoursPerDay
	case WorkerSalaried:
		return days * w.DailyRate
	}
	panic(fmt.Sprintf("domain: worker %d has unknown kind %q", w.ID, w.Kind))
}

// IsSalaried reports whether the worker is permanent staff.
func (w *Worker) IsSalaried() bool { return w.Kind == WorkerSalaried }

// RegisterDelay counts one delay incident against the worker.
func (w *Worker) RegisterDelay() { w.Delays++ }

// SetAssigned flips the binding flag. Redundant calls are harmless.
func (w *Worker) SetAssigned(assigned bool) { w.Assigned = assigned }

// WorkerSet is a worker registry keyed by id.
type WorkerSet map[int]*Worker

// Worker implements WorkerSource.
func (s WorkerSet) Worker(id int) (*Worker, bool) {
	w, ok := s[id]
	return w, ok
}

// Sorted returns the workers in ascending id order.
func (s WorkerSet) Sorted() []*Worker {
	out := make([]*Worker, 0, len(s))
	for _, w := range s {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
