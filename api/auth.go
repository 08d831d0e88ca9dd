/*
auth.go - Password hashing, JWT issuance and auth middleware

PURPOSE:
  Credential handling for the API layer. Passwords are stored as bcrypt
  hashes; sessions are carried by an HS256 JWT in the Authorization
  header. The token embeds the employee ID and admin level so the
  approver middleware can gate without a store round-trip; the handler
  still reloads the employee for anything that matters.

SEE ALSO:
  - handlers.go: login/logout/password-change endpoints
*/
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/bradleyems/leave-engine/leave"
)

const tokenTTL = 12 * time.Hour

// Claims is the JWT payload for a signed-in employee.
type Claims struct {
	EmployeeID string `json:"uid"`
	AdminLevel string `json:"lvl"`
	jwt.RegisteredClaims
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func checkPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func generateToken(secret string, emp leave.Employee, now time.Time) (string, error) {
	claims := Claims{
		EmployeeID: emp.ID,
		AdminLevel: string(emp.AdminLevel),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func parseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

type contextKey string

const employeeKey contextKey = "employee"

// requireAuth validates the bearer token and loads the acting employee
// into the request context.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			writeError(w, http.StatusUnauthorized, "Missing bearer token", nil)
			return
		}

		claims, err := parseToken(h.Secret, tokenString)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token", nil)
			return
		}

		emp, err := h.Store.GetEmployee(r.Context(), claims.EmployeeID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load employee", err)
			return
		}
		if emp == nil {
			writeError(w, http.StatusUnauthorized, "Unknown employee", nil)
			return
		}

		ctx := context.WithValue(r.Context(), employeeKey, *emp)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireApprover gates supervisor-only routes. Must run after requireAuth.
func (h *Handler) requireApprover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		emp, ok := actingEmployee(r)
		if !ok || !emp.AdminLevel.CanApprove() {
			writeError(w, http.StatusForbidden, "Supervisor access required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func actingEmployee(r *http.Request) (leave.Employee, bool) {
	emp, ok := r.Context().Value(employeeKey).(leave.Employee)
	return emp, ok
}
