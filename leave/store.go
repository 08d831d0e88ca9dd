/*
store.go - Persistence interface for the roster and request collections

PURPOSE:
  Defines the boundary between the engine and durable storage. The store
  holds two record collections (employees, requests) plus a single-value
  session slot for the signed-in identity. Reads and writes are per-key;
  there is deliberately no whole-collection replace.

ATOMICITY:
  A seniority bump touches two records: the new Approved request and the
  bumped occupant's status change. TxStore.WithTx commits both or
  neither; a submission that fails mid-transaction leaves no partial
  state behind.

NOT-FOUND CONTRACT:
  Get* methods return (nil, nil) for a missing record. Callers translate
  that into ErrEmployeeNotFound / ErrRequestNotFound where it matters.

IMPLEMENTATIONS:
  - store/sqlite: production store, WAL mode, schema migrated on open
  - store/memory: in-memory store for tests and development

SEE ALSO:
  - arbitration.go: the request+bump transaction
*/
package leave

import "context"

// Store is the per-key persistence interface over the two record
// collections and the session slot.
type Store interface {
	// Employees
	ListEmployees(ctx context.Context) ([]Employee, error)
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	GetEmployeeByUsername(ctx context.Context, username string) (*Employee, error)
	PutEmployee(ctx context.Context, emp Employee) error

	// Requests
	ListRequests(ctx context.Context) ([]Request, error)
	GetRequest(ctx context.Context, id string) (*Request, error)
	PutRequest(ctx context.Context, req Request) error

	// Session slot: the currently authenticated employee ID, "" when
	// signed out.
	CurrentUser(ctx context.Context) (string, error)
	SetCurrentUser(ctx context.Context, employeeID string) error
	ClearCurrentUser(ctx context.Context) error
}

// TxStore extends Store with atomic multi-record commits.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
