/*
handlers_test.go - HTTP layer tests over the in-memory store

Exercises the full router: auth middleware, supervisor gating, request
submission and the calendar view. The arbiter and handler clocks are
pinned to 2025-05-10.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bradleyems/leave-engine/leave"
	"github.com/bradleyems/leave-engine/store/memory"
)

var testNow = time.Date(2025, time.May, 10, 12, 0, 0, 0, time.UTC)

const testSecret = "test-secret"

type testEnv struct {
	store  *memory.Store
	server *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.New()
	h := NewHandler(store, testSecret)
	h.Now = func() time.Time { return testNow }
	h.Arbiter.Now = h.Now

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := httptest.NewServer(NewRouter(h, logger))
	t.Cleanup(server.Close)

	return &testEnv{store: store, server: server}
}

func (e *testEnv) seedEmployee(t *testing.T, id, username, password string, hire leave.Date, level leave.AdminLevel) leave.Employee {
	t.Helper()
	hash, err := hashPassword(password)
	require.NoError(t, err)

	emp := leave.Employee{
		ID:           id,
		Username:     username,
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     username,
		HireDate:     hire,
		CertLevel:    leave.CertParamedic,
		AdminLevel:   level,
	}
	require.NoError(t, e.store.PutEmployee(context.Background(), emp))
	return emp
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/auth/login", "",
		LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decodeBody[LoginResponse](t, resp).Token
}

// =============================================================================
// AUTH
// =============================================================================

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.seedEmployee(t, "emp-1", "reyes1", "Secret1", leave.NewDate(2020, time.January, 1), leave.AdminStaff)

	t.Run("valid credentials issue a token", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/auth/login", "",
			LoginRequest{Username: "reyes1", Password: "Secret1"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody[LoginResponse](t, resp)
		assert.NotEmpty(t, body.Token)
		assert.Equal(t, "emp-1", body.Employee.ID)

		current, err := env.store.CurrentUser(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "emp-1", current)
	})

	t.Run("username matches case-insensitively", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/auth/login", "",
			LoginRequest{Username: "REYES1", Password: "Secret1"})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/auth/login", "",
			LoginRequest{Username: "reyes1", Password: "wrong"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("unknown user rejected with the same status", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/auth/login", "",
			LoginRequest{Username: "ghost", Password: "Secret1"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/employees", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, "/api/calendar", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	emp := env.seedEmployee(t, "emp-1", "reyes1", "password1", leave.NewDate(2020, time.January, 1), leave.AdminStaff)
	emp.ForcePasswordChange = true
	require.NoError(t, env.store.PutEmployee(context.Background(), emp))

	token := env.login(t, "reyes1", "password1")

	t.Run("rejects short passwords", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/auth/password", token,
			ChangePasswordRequest{NewPassword: "abc", ConfirmPassword: "abc"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("rejects mismatched confirmation", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/auth/password", token,
			ChangePasswordRequest{NewPassword: "NewSecret1", ConfirmPassword: "Other"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("changes the password and clears the force flag", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/auth/password", token,
			ChangePasswordRequest{NewPassword: "NewSecret1", ConfirmPassword: "NewSecret1"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		updated, err := env.store.GetEmployee(context.Background(), "emp-1")
		require.NoError(t, err)
		assert.False(t, updated.ForcePasswordChange)
		assert.NoError(t, checkPassword(updated.PasswordHash, "NewSecret1"))

		// Old password no longer works.
		resp = env.do(t, http.MethodPost, "/api/auth/login", "",
			LoginRequest{Username: "reyes1", Password: "password1"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestCreateEmployee(t *testing.T) {
	env := newTestEnv(t)
	env.seedEmployee(t, "emp-dir", "admin", "Admin1", leave.NewDate(2010, time.January, 1), leave.AdminDirector)
	env.seedEmployee(t, "emp-1", "reyes1", "Secret1", leave.NewDate(2020, time.January, 1), leave.AdminStaff)

	directorToken := env.login(t, "admin", "Admin1")
	staffToken := env.login(t, "reyes1", "Secret1")

	t.Run("staff cannot create employees", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/employees", staffToken, CreateEmployeeRequest{
			FirstName: "New", LastName: "Hire", HireDate: "2025-05-01",
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("director creates with generated credentials", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/employees", directorToken, CreateEmployeeRequest{
			FirstName: "Dana", LastName: "O'Neil", Email: "doneil@ems.example",
			HireDate: "2025-05-01", CertLevel: "AEMT",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		body := decodeBody[CreateEmployeeResponse](t, resp)
		assert.Equal(t, "oneil1", body.Employee.Username, "username strips non-letters")
		assert.Equal(t, "password1", body.TempPassword)
		assert.Equal(t, "Staff", body.Employee.AdminLevel)

		created, err := env.store.GetEmployee(context.Background(), body.Employee.ID)
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.True(t, created.ForcePasswordChange)

		// The new hire can sign in with the temp password.
		loginResp := env.do(t, http.MethodPost, "/api/auth/login", "",
			LoginRequest{Username: "oneil1", Password: "password1"})
		require.Equal(t, http.StatusOK, loginResp.StatusCode)
		login := decodeBody[LoginResponse](t, loginResp)
		assert.True(t, login.ForcePasswordChange)
	})

	t.Run("username counter increments per last name", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/employees", directorToken, CreateEmployeeRequest{
			FirstName: "Drew", LastName: "Oneil", HireDate: "2025-05-02",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		body := decodeBody[CreateEmployeeResponse](t, resp)
		assert.Equal(t, "oneil2", body.Employee.Username)
	})

	t.Run("bad hire date rejected", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/employees", directorToken, CreateEmployeeRequest{
			FirstName: "Bad", LastName: "Date", HireDate: "05/01/2025",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestGetBalance(t *testing.T) {
	env := newTestEnv(t)
	env.seedEmployee(t, "emp-1", "reyes1", "Secret1", leave.NewDate(2020, time.January, 1), leave.AdminStaff)
	token := env.login(t, "reyes1", "Secret1")

	resp := env.do(t, http.MethodGet, "/api/employees/emp-1/balance", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[BalanceDTO](t, resp)
	assert.Equal(t, "2025-05-10", body.AsOf)
	assert.Greater(t, body.Vacation, 0.0)
	assert.Greater(t, body.Sick, 0.0)

	resp = env.do(t, http.MethodGet, "/api/employees/nope/balance", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

// =============================================================================
// REQUESTS
// =============================================================================

func TestSubmitRequestFlow(t *testing.T) {
	env := newTestEnv(t)
	env.seedEmployee(t, "emp-1", "reyes1", "Secret1", leave.NewDate(2020, time.January, 1), leave.AdminStaff)
	token := env.login(t, "reyes1", "Secret1")

	t.Run("auto-approves a free slot", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/requests", token, SubmitRequestRequest{
			Date: "2025-08-15", Shift: string(leave.ShiftDay), Type: string(leave.LeaveVacation),
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		body := decodeBody[DecisionDTO](t, resp)
		assert.Equal(t, string(leave.StatusApproved), body.Status)
		assert.Equal(t, "emp-1", body.Request.EmployeeID)
	})

	t.Run("duplicate day conflicts", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/requests", token, SubmitRequestRequest{
			Date: "2025-08-15", Shift: string(leave.ShiftNight), Type: string(leave.LeaveVacation),
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("too far in advance is a bad request", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/requests", token, SubmitRequestRequest{
			Date: "2025-12-24", Shift: string(leave.ShiftDay), Type: string(leave.LeaveVacation),
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("own requests listed", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/requests/mine", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody[[]RequestDTO](t, resp)
		require.Len(t, body, 1)
		assert.Equal(t, "2025-08-15", body[0].Date)
	})
}

func TestApprovalQueue(t *testing.T) {
	env := newTestEnv(t)
	env.seedEmployee(t, "emp-dir", "admin", "Admin1", leave.NewDate(2010, time.January, 1), leave.AdminDirector)
	env.seedEmployee(t, "emp-1", "reyes1", "Secret1", leave.NewDate(2020, time.January, 1), leave.AdminStaff)

	directorToken := env.login(t, "admin", "Admin1")
	staffToken := env.login(t, "reyes1", "Secret1")

	// Within 30 days: lands in the pending queue.
	resp := env.do(t, http.MethodPost, "/api/requests", staffToken, SubmitRequestRequest{
		Date: "2025-05-20", Shift: string(leave.ShiftDay), Type: string(leave.LeaveSick),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decision := decodeBody[DecisionDTO](t, resp)
	require.Equal(t, string(leave.StatusPending), decision.Status)

	t.Run("staff list defaults to their own requests", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/requests", staffToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody[[]RequestDTO](t, resp)
		require.Len(t, body, 1)
		assert.Equal(t, "emp-1", body[0].EmployeeID)
	})

	t.Run("staff cannot list another employee", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/requests?employee_id=emp-dir", staffToken, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("supervisor can filter by employee", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/requests?employee_id=emp-1", directorToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody[[]RequestDTO](t, resp)
		require.Len(t, body, 1)
	})

	t.Run("staff cannot see the queue", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/requests/pending", staffToken, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("supervisor sees the queue with owner names", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/requests/pending", directorToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody[[]RequestDTO](t, resp)
		require.Len(t, body, 1)
		assert.Equal(t, "Test reyes1", body[0].Employee)
	})

	t.Run("staff cannot approve", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/requests/"+decision.Request.ID+"/approve", staffToken, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("supervisor approves", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/requests/"+decision.Request.ID+"/approve", directorToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody[RequestDTO](t, resp)
		assert.Equal(t, string(leave.StatusApproved), body.Status)
		assert.Equal(t, "emp-dir", body.ProcessedBy)
	})

	t.Run("second decision conflicts", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/requests/"+decision.Request.ID+"/deny", directorToken, nil)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		resp.Body.Close()
	})
}

// =============================================================================
// CALENDAR
// =============================================================================

func TestCalendar(t *testing.T) {
	env := newTestEnv(t)
	emp := env.seedEmployee(t, "emp-1", "reyes1", "Secret1", leave.NewDate(2020, time.January, 1), leave.AdminStaff)
	token := env.login(t, "reyes1", "Secret1")

	require.NoError(t, env.store.PutRequest(context.Background(), leave.Request{
		ID:          "r-1",
		EmployeeID:  emp.ID,
		Date:        leave.NewDate(2025, time.July, 4),
		Shift:       leave.ShiftDay,
		Type:        leave.LeaveVacation,
		Status:      leave.StatusApproved,
		SubmittedAt: testNow,
	}))

	resp := env.do(t, http.MethodGet, "/api/calendar?start=2025-06-30", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	days := decodeBody[[]CalendarDay](t, resp)
	require.Len(t, days, 7)
	assert.Equal(t, "2025-06-30", days[0].Date)
	assert.Equal(t, "2025-07-06", days[6].Date)

	// July 4 carries the holiday name and the approved request.
	fourth := days[4]
	require.Equal(t, "2025-07-04", fourth.Date)
	assert.Equal(t, "Independence Day", fourth.Holiday)

	require.Len(t, fourth.Shifts, 2)
	dayShift := fourth.Shifts[0]
	assert.Equal(t, string(leave.ShiftDay), dayShift.Shift)
	require.Len(t, dayShift.Approved, 1)
	assert.Equal(t, "Test reyes1", dayShift.Approved[0].Employee)
	assert.Equal(t, leave.SlotCapacity-1, dayShift.Remaining)

	nightShift := fourth.Shifts[1]
	assert.Empty(t, nightShift.Approved)
	assert.Equal(t, leave.SlotCapacity, nightShift.Remaining)

	t.Run("bad start parameter rejected", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/calendar?start=garbage", token, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("default start is the Monday of the current week", func(t *testing.T) {
		// 2025-05-10 is a Saturday; its week starts 2025-05-05.
		resp := env.do(t, http.MethodGet, "/api/calendar", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		days := decodeBody[[]CalendarDay](t, resp)
		require.Len(t, days, 7)
		assert.Equal(t, "2025-05-05", days[0].Date)
	})
}
