package api

import (
	"net/http"
	"strconv"

	"github.com/homesolution/homesolution/internal/app/assign"
	"github.com/homesolution/homesolution/internal/app/registry"
	"github.com/homesolution/homesolution/internal/domain"
)

// ─── Workers & Clients ──────────────────────────────────────────────────────

func (s *Server) handleListWorkers(w http.ResponseWriter, r *http.Request) {
	var workers []domain.Worker
	if r.URL.Query().Get("free") == "true" {
		workers = s.reg.UnassignedWorkers()
	} else {
		workers = s.reg.Workers()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"workers": workers})
}

func (s *Server) handleRegisterWorker(w http.ResponseWriter, r *http.Request) {
	var req registry.WorkerInput
	if err := decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	id, err := s.reg.RegisterWorker(req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"id": id})
}

type workerResponse struct {
	domain.Worker
	HasDelays bool `json:"has_delays"`
}

func (s *Server) handleGetWorker(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	worker, err := s.reg.Worker(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	has, err := s.reg.WorkerHasDelays(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workerResponse{Worker: worker, HasDelays: has})
}

func (s *Server) handleRegisterClient(w http.ResponseWriter, r *http.Request) {
	var req registry.ClientInput
	if err := decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.reg.RegisterClient(req.Name, req.Email, req.Phone); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"email": req.Email})
}

// ─── Projects ───────────────────────────────────────────────────────────────

type projectRequest struct {
	Tasks        []domain.TaskSpec `json:"tasks"`
	Address      string            `json:"address"`
	Start        string            `json:"start"`
	EstimatedEnd string            `json:"estimated_end"`
	Client       string            `json:"client"`
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	var state domain.ProjectState
	if raw := r.URL.Query().Get("state"); raw != "" {
		st, err := domain.ParseProjectState(raw)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		state = st
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"projects": s.reg.Projects(state)})
}

func (s *Server) handleRegisterProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	start, err := domain.ParseDate(req.Start)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	end, err := domain.ParseDate(req.EstimatedEnd)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	code, err := s.reg.RegisterProject(req.Tasks, req.Address, start, end, req.Client)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"code": code})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	code, err := intParam(r, "code")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	p, err := s.reg.Project(code)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleProjectCost(w http.ResponseWriter, r *http.Request) {
	code, err := intParam(r, "code")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	total, err := s.reg.TotalCost(code)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"code": code, "total_cost": total})
}

func (s *Server) handleProjectWorkers(w http.ResponseWriter, r *http.Request) {
	code, err := intParam(r, "code")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	workers, err := s.reg.WorkersOnProject(code)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"workers": workers})
}

func (s *Server) handleProjectJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusNotFound, "not_found", "cost journal is disabled")
		return
	}
	code, err := intParam(r, "code")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if _, err := s.reg.ProjectAddress(code); err != nil {
		writeDomainError(w, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.journal.History(code, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

type finalizeProjectRequest struct {
	Date string `json:"date"`
}

func (s *Server) handleFinalizeProject(w http.ResponseWriter, r *http.Request) {
	code, err := intParam(r, "code")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req finalizeProjectRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	date, err := domain.ParseDate(req.Date)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.reg.FinalizeProject(code, date); err != nil {
		writeDomainError(w, err)
		return
	}
	s.writeProject(w, code)
}

// ─── Tasks ──────────────────────────────────────────────────────────────────

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	code, err := intParam(r, "code")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var tasks []domain.Task
	if r.URL.Query().Get("unassigned") == "true" {
		tasks, err = s.reg.UnassignedTasks(code)
	} else {
		tasks, err = s.reg.ProjectTasks(code)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	code, err := intParam(r, "code")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req domain.TaskSpec
	if err := decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.reg.AddTask(code, req.Title, req.Description, req.Days); err != nil {
		writeDomainError(w, err)
		return
	}
	s.writeProjectStatus(w, code, http.StatusCreated)
}

// assignRequest selects a worker explicitly or through a policy.
type assignRequest struct {
	WorkerID int         `json:"worker_id,omitempty"`
	Policy   assign.Name `json:"policy,omitempty"`
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	code, title, req, ok := s.assignTarget(w, r)
	if !ok {
		return
	}
	id := req.WorkerID
	var err error
	if id > 0 {
		err = s.reg.AssignWorker(code, title, id)
	} else {
		id, err = s.reg.AssignByPolicy(code, title, req.Policy)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"code": code, "task": title, "worker_id": id})
}

func (s *Server) handleReassign(w http.ResponseWriter, r *http.Request) {
	code, title, req, ok := s.assignTarget(w, r)
	if !ok {
		return
	}
	id := req.WorkerID
	var err error
	if id > 0 {
		err = s.reg.ReassignWorker(code, title, id)
	} else {
		policy := req.Policy
		if policy == "" {
			policy = assign.PolicyFewestDelays
		}
		id, err = s.reg.ReassignByPolicy(code, title, policy)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"code": code, "task": title, "worker_id": id})
}

func (s *Server) assignTarget(w http.ResponseWriter, r *http.Request) (int, string, assignRequest, bool) {
	var req assignRequest
	code, err := intParam(r, "code")
	if err == nil {
		err = decode(r, &req)
	}
	if err != nil {
		writeDomainError(w, err)
		return 0, "", req, false
	}
	return code, titleParam(r), req, true
}

type delayRequest struct {
	Days float64 `json:"days"`
}

func (s *Server) handleDelay(w http.ResponseWriter, r *http.Request) {
	code, err := intParam(r, "code")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req delayRequest
	if err := decode(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.reg.ReportDelay(code, titleParam(r), req.Days); err != nil {
		writeDomainError(w, err)
		return
	}
	s.writeProject(w, code)
}

func (s *Server) handleFinalizeTask(w http.ResponseWriter, r *http.Request) {
	code, err := intParam(r, "code")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.reg.FinalizeTask(code, titleParam(r)); err != nil {
		writeDomainError(w, err)
		return
	}
	s.writeProject(w, code)
}

func (s *Server) writeProject(w http.ResponseWriter, code int) {
	s.writeProjectStatus(w, code, http.StatusOK)
}

// writeProjectStatus answers a mutation with the project as it stands now.
func (s *Server) writeProjectStatus(w http.ResponseWriter, code, status int) {
	p, err := s.reg.Project(code)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, status, p)
}
