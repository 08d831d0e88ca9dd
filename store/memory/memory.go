// Package memory provides an in-memory leave.TxStore for tests and
// development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/bradleyems/leave-engine/leave"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Store struct {
	mu          sync.RWMutex
	employees   map[string]leave.Employee
	requests    map[string]leave.Request
	currentUser string
}

func New() *Store {
	return &Store{
		employees: make(map[string]leave.Employee),
		requests:  make(map[string]leave.Request),
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) ListEmployees(_ context.Context) ([]leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listEmployeesLocked(), nil
}

func (s *Store) listEmployeesLocked() []leave.Employee {
	out := make([]leave.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) GetEmployee(_ context.Context, id string) (*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.employees[id]; ok {
		return &e, nil
	}
	return nil, nil
}

func (s *Store) GetEmployeeByUsername(_ context.Context, username string) (*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.employees {
		if strings.EqualFold(e.Username, username) {
			return &e, nil
		}
	}
	return nil, nil
}

func (s *Store) PutEmployee(_ context.Context, emp leave.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[emp.ID] = emp
	return nil
}

// =============================================================================
// REQUESTS
// =============================================================================

func (s *Store) ListRequests(_ context.Context) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listRequestsLocked(), nil
}

func (s *Store) listRequestsLocked() []leave.Request {
	out := make([]leave.Request, 0, len(s.requests))
	for _, r := range s.requests {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) GetRequest(_ context.Context, id string) (*leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.requests[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (s *Store) PutRequest(_ context.Context, req leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = req
	return nil
}

// =============================================================================
// SESSION SLOT
// =============================================================================

func (s *Store) CurrentUser(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentUser, nil
}

func (s *Store) SetCurrentUser(_ context.Context, employeeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentUser = employeeID
	return nil
}

func (s *Store) ClearCurrentUser(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentUser = ""
	return nil
}

// =============================================================================
// TRANSACTIONS - snapshot and roll back on error
// =============================================================================

func (s *Store) WithTx(_ context.Context, fn func(leave.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	view := &txView{parent: s}

	if err := fn(view); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type memSnapshot struct {
	employees   map[string]leave.Employee
	requests    map[string]leave.Request
	currentUser string
}

func (s *Store) snapshot() memSnapshot {
	emps := make(map[string]leave.Employee, len(s.employees))
	for k, v := range s.employees {
		emps[k] = v
	}
	reqs := make(map[string]leave.Request, len(s.requests))
	for k, v := range s.requests {
		reqs[k] = v
	}
	return memSnapshot{employees: emps, requests: reqs, currentUser: s.currentUser}
}

func (s *Store) restore(snap memSnapshot) {
	s.employees = snap.employees
	s.requests = snap.requests
	s.currentUser = snap.currentUser
}

// txView writes through to the parent while the parent's lock is held.
type txView struct {
	parent *Store
}

func (tv *txView) ListEmployees(_ context.Context) ([]leave.Employee, error) {
	return tv.parent.listEmployeesLocked(), nil
}

func (tv *txView) GetEmployee(_ context.Context, id string) (*leave.Employee, error) {
	if e, ok := tv.parent.employees[id]; ok {
		return &e, nil
	}
	return nil, nil
}

func (tv *txView) GetEmployeeByUsername(_ context.Context, username string) (*leave.Employee, error) {
	for _, e := range tv.parent.employees {
		if strings.EqualFold(e.Username, username) {
			return &e, nil
		}
	}
	return nil, nil
}

func (tv *txView) PutEmployee(_ context.Context, emp leave.Employee) error {
	tv.parent.employees[emp.ID] = emp
	return nil
}

func (tv *txView) ListRequests(_ context.Context) ([]leave.Request, error) {
	return tv.parent.listRequestsLocked(), nil
}

func (tv *txView) GetRequest(_ context.Context, id string) (*leave.Request, error) {
	if r, ok := tv.parent.requests[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (tv *txView) PutRequest(_ context.Context, req leave.Request) error {
	tv.parent.requests[req.ID] = req
	return nil
}

func (tv *txView) CurrentUser(_ context.Context) (string, error) {
	return tv.parent.currentUser, nil
}

func (tv *txView) SetCurrentUser(_ context.Context, employeeID string) error {
	tv.parent.currentUser = employeeID
	return nil
}

func (tv *txView) ClearCurrentUser(_ context.Context) error {
	tv.parent.currentUser = ""
	return nil
}
