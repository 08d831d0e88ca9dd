/*
Package sqlite provides the SQLite-backed leave.TxStore.

PURPOSE:
  Production persistence for the roster, the request collection and the
  single-value session slot.

KEY TABLES:
  employees: roster records, username unique case-insensitively
  requests:  leave requests, one row per (employee, date, shift) attempt
  session:   one-row table holding the signed-in employee ID

DAY UNIQUENESS:
  A partial unique index on (employee_id, leave_date) WHERE status =
  'Approved' backstops the engine's duplicate-day check at the database
  level. Violations surface as leave.ErrDuplicateDay.

WAL MODE:
  Opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - leave/store.go: interface definitions
  - store/memory: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bradleyems/leave-engine/leave"
)

// Store implements leave.TxStore on SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Roster
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE COLLATE NOCASE,
		password_hash TEXT NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		hire_date TEXT NOT NULL,
		cert_level TEXT NOT NULL,
		admin_level TEXT NOT NULL,
		force_password_change INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	-- Leave requests
	CREATE TABLE IF NOT EXISTS requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		leave_date TEXT NOT NULL,
		shift TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		status TEXT NOT NULL,
		submitted_at TEXT NOT NULL,
		processed_by TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_requests_employee
		ON requests(employee_id);
	CREATE INDEX IF NOT EXISTS idx_requests_date_shift
		ON requests(leave_date, shift);
	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON requests(status);

	-- Backstop for the one-approved-request-per-day rule
	CREATE UNIQUE INDEX IF NOT EXISTS idx_requests_unique_approved_day
		ON requests(employee_id, leave_date)
		WHERE status = 'Approved';

	-- Session slot: at most one signed-in employee
	CREATE TABLE IF NOT EXISTS session (
		slot INTEGER PRIMARY KEY CHECK (slot = 1),
		employee_id TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// querier abstracts *sql.DB and *sql.Tx so the row helpers work inside
// and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// EMPLOYEES
// =============================================================================

const employeeColumns = `id, username, password_hash, first_name, last_name, email,
	hire_date, cert_level, admin_level, force_password_change`

func (s *Store) ListEmployees(ctx context.Context) ([]leave.Employee, error) {
	return listEmployees(ctx, s.db)
}

func listEmployees(ctx context.Context, q querier) ([]leave.Employee, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+employeeColumns+" FROM employees ORDER BY last_name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []leave.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

func (s *Store) GetEmployee(ctx context.Context, id string) (*leave.Employee, error) {
	return getEmployeeBy(ctx, s.db, "id = ?", id)
}

func (s *Store) GetEmployeeByUsername(ctx context.Context, username string) (*leave.Employee, error) {
	// COLLATE NOCASE on the column makes this match case-insensitively.
	return getEmployeeBy(ctx, s.db, "username = ?", username)
}

func getEmployeeBy(ctx context.Context, q querier, where string, arg any) (*leave.Employee, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE "+where, arg)

	emp, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (s *Store) PutEmployee(ctx context.Context, emp leave.Employee) error {
	return putEmployee(ctx, s.db, emp)
}

func putEmployee(ctx context.Context, q querier, emp leave.Employee) error {
	query := `
		INSERT INTO employees
		(id, username, password_hash, first_name, last_name, email,
		 hire_date, cert_level, admin_level, force_password_change, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			password_hash = excluded.password_hash,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			email = excluded.email,
			hire_date = excluded.hire_date,
			cert_level = excluded.cert_level,
			admin_level = excluded.admin_level,
			force_password_change = excluded.force_password_change
	`

	_, err := q.ExecContext(ctx, query,
		emp.ID,
		emp.Username,
		emp.PasswordHash,
		emp.FirstName,
		emp.LastName,
		emp.Email,
		emp.HireDate.String(),
		string(emp.CertLevel),
		string(emp.AdminLevel),
		boolInt(emp.ForcePasswordChange),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (leave.Employee, error) {
	var (
		emp      leave.Employee
		hireDate string
		cert     string
		admin    string
		force    int
	)

	err := row.Scan(
		&emp.ID, &emp.Username, &emp.PasswordHash, &emp.FirstName, &emp.LastName,
		&emp.Email, &hireDate, &cert, &admin, &force,
	)
	if err != nil {
		return emp, err
	}

	emp.HireDate, err = leave.ParseDate(hireDate)
	if err != nil {
		return emp, fmt.Errorf("bad hire_date for employee %s: %w", emp.ID, err)
	}
	emp.CertLevel = leave.CertLevel(cert)
	emp.AdminLevel = leave.AdminLevel(admin)
	emp.ForcePasswordChange = force != 0
	return emp, nil
}

// =============================================================================
// REQUESTS
// =============================================================================

const requestColumns = `id, employee_id, leave_date, shift, leave_type, status,
	submitted_at, processed_by`

func (s *Store) ListRequests(ctx context.Context) ([]leave.Request, error) {
	return listRequests(ctx, s.db)
}

func listRequests(ctx context.Context, q querier) ([]leave.Request, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+requestColumns+" FROM requests ORDER BY leave_date, submitted_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func (s *Store) GetRequest(ctx context.Context, id string) (*leave.Request, error) {
	return getRequest(ctx, s.db, id)
}

func getRequest(ctx context.Context, q querier, id string) (*leave.Request, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM requests WHERE id = ?", id)

	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *Store) PutRequest(ctx context.Context, req leave.Request) error {
	return putRequest(ctx, s.db, req)
}

func putRequest(ctx context.Context, q querier, req leave.Request) error {
	query := `
		INSERT INTO requests
		(id, employee_id, leave_date, shift, leave_type, status, submitted_at, processed_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			processed_by = excluded.processed_by
	`

	_, err := q.ExecContext(ctx, query,
		req.ID,
		req.EmployeeID,
		req.Date.String(),
		string(req.Shift),
		string(req.Type),
		string(req.Status),
		req.SubmittedAt.UTC().Format(time.RFC3339),
		req.ProcessedBy,
	)
	if err != nil {
		if isApprovedDayError(err) {
			return leave.ErrDuplicateDay
		}
		return fmt.Errorf("failed to save request: %w", err)
	}
	return nil
}

func scanRequest(row rowScanner) (leave.Request, error) {
	var (
		req         leave.Request
		leaveDate   string
		shift       string
		leaveType   string
		status      string
		submittedAt string
	)

	err := row.Scan(
		&req.ID, &req.EmployeeID, &leaveDate, &shift, &leaveType, &status,
		&submittedAt, &req.ProcessedBy,
	)
	if err != nil {
		return req, err
	}

	req.Date, err = leave.ParseDate(leaveDate)
	if err != nil {
		return req, fmt.Errorf("bad leave_date for request %s: %w", req.ID, err)
	}
	req.Shift = leave.Shift(shift)
	req.Type = leave.LeaveType(leaveType)
	req.Status = leave.RequestStatus(status)
	req.SubmittedAt, _ = time.Parse(time.RFC3339, submittedAt)
	return req, nil
}

// =============================================================================
// SESSION SLOT
// =============================================================================

func (s *Store) CurrentUser(ctx context.Context) (string, error) {
	return currentUser(ctx, s.db)
}

func currentUser(ctx context.Context, q querier) (string, error) {
	var id string
	err := q.QueryRowContext(ctx,
		"SELECT employee_id FROM session WHERE slot = 1").Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) SetCurrentUser(ctx context.Context, employeeID string) error {
	return setCurrentUser(ctx, s.db, employeeID)
}

func setCurrentUser(ctx context.Context, q querier, employeeID string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO session (slot, employee_id) VALUES (1, ?)
		ON CONFLICT(slot) DO UPDATE SET employee_id = excluded.employee_id
	`, employeeID)
	return err
}

func (s *Store) ClearCurrentUser(ctx context.Context) error {
	return clearCurrentUser(ctx, s.db)
}

func clearCurrentUser(ctx context.Context, q querier) error {
	_, err := q.ExecContext(ctx, "DELETE FROM session WHERE slot = 1")
	return err
}

// =============================================================================
// TRANSACTIONS (leave.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(leave.Store) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) ListEmployees(ctx context.Context) ([]leave.Employee, error) {
	return listEmployees(ctx, ts.tx)
}

func (ts *txStore) GetEmployee(ctx context.Context, id string) (*leave.Employee, error) {
	return getEmployeeBy(ctx, ts.tx, "id = ?", id)
}

func (ts *txStore) GetEmployeeByUsername(ctx context.Context, username string) (*leave.Employee, error) {
	return getEmployeeBy(ctx, ts.tx, "username = ?", username)
}

func (ts *txStore) PutEmployee(ctx context.Context, emp leave.Employee) error {
	return putEmployee(ctx, ts.tx, emp)
}

func (ts *txStore) ListRequests(ctx context.Context) ([]leave.Request, error) {
	return listRequests(ctx, ts.tx)
}

func (ts *txStore) GetRequest(ctx context.Context, id string) (*leave.Request, error) {
	return getRequest(ctx, ts.tx, id)
}

func (ts *txStore) PutRequest(ctx context.Context, req leave.Request) error {
	return putRequest(ctx, ts.tx, req)
}

func (ts *txStore) CurrentUser(ctx context.Context) (string, error) {
	return currentUser(ctx, ts.tx)
}

func (ts *txStore) SetCurrentUser(ctx context.Context, employeeID string) error {
	return setCurrentUser(ctx, ts.tx, employeeID)
}

func (ts *txStore) ClearCurrentUser(ctx context.Context) error {
	return clearCurrentUser(ctx, ts.tx)
}

// =============================================================================
// HELPERS
// =============================================================================

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SQLite reports partial unique index violations by index name rather
// than by column list.
func isApprovedDayError(err error) bool {
	if err == nil || !strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return false
	}
	return strings.Contains(err.Error(), "idx_requests_unique_approved_day") ||
		strings.Contains(err.Error(), "requests.employee_id, requests.leave_date")
}
