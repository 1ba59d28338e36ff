package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aqibcreates/teachreach-backend/internal/lifecycle"
)

// manager is the account lifecycle manager every auth-related handler goes
// through. Set once from main via InitLifecycle.
var manager *lifecycle.Manager

func InitLifecycle(m *lifecycle.Manager) {
	manager = m
}

// RegisterRequest is the sign-up form payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// SigninRequest is the login form payload.
type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyRequest carries the one-time code for an email.
type VerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ResendRequest asks for a fresh one-time code.
type ResendRequest struct {
	Email string `json:"email"`
}

// AuthResponse is the envelope for every auth endpoint.
type AuthResponse struct {
	Success              bool                   `json:"success"`
	Message              string                 `json:"message"`
	User                 map[string]interface{} `json:"user,omitempty"`
	Token                string                 `json:"token,omitempty"`
	VerificationRequired bool                   `json:"verification_required,omitempty"`
}

func writeAuthJSON(w http.ResponseWriter, status int, resp AuthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// writeLifecycleError maps lifecycle sentinel errors onto HTTP statuses.
func writeLifecycleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrDuplicateEmail):
		writeAuthJSON(w, http.StatusConflict, AuthResponse{Success: false, Message: "This email is already registered."})
	case errors.Is(err, lifecycle.ErrAccountNotFound):
		writeAuthJSON(w, http.StatusNotFound, AuthResponse{Success: false, Message: "Account does not exist. Please register first."})
	case errors.Is(err, lifecycle.ErrWrongCredential):
		writeAuthJSON(w, http.StatusUnauthorized, AuthResponse{Success: false, Message: "Incorrect password. Please try again."})
	case errors.Is(err, lifecycle.ErrInvalidCode):
		writeAuthJSON(w, http.StatusBadRequest, AuthResponse{Success: false, Message: "Invalid verification code. Please try again."})
	case errors.Is(err, lifecycle.ErrNoPendingChallenge):
		writeAuthJSON(w, http.StatusBadRequest, AuthResponse{Success: false, Message: "No pending verification for this email."})
	case errors.Is(err, lifecycle.ErrAdminProtected):
		writeAuthJSON(w, http.StatusForbidden, AuthResponse{Success: false, Message: "Admin account cannot be deleted."})
	case errors.Is(err, lifecycle.ErrNotFound):
		writeAuthJSON(w, http.StatusNotFound, AuthResponse{Success: false, Message: "Not found."})
	default:
		writeAuthJSON(w, http.StatusInternalServerError, AuthResponse{Success: false, Message: "Something went wrong. Please try again."})
	}
}

// Register handles account creation. The new account starts unverified; the
// one-time code goes out through the delivery channel.
func Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthJSON(w, http.StatusBadRequest, AuthResponse{Success: false, Message: "Invalid request body"})
		return
	}

	if req.Name == "" || req.Email == "" || req.Phone == "" || req.Password == "" {
		writeAuthJSON(w, http.StatusBadRequest, AuthResponse{Success: false, Message: "Name, email, phone, and password are required"})
		return
	}
	if len(req.Password) < 8 {
		writeAuthJSON(w, http.StatusBadRequest, AuthResponse{Success: false, Message: "Password must be at least 8 characters"})
		return
	}

	challenge, err := manager.Register(r.Context(), req.Name, req.Email, req.Phone, req.Password)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}

	writeAuthJSON(w, http.StatusCreated, AuthResponse{
		Success:              true,
		Message:              "Account created. A verification code was sent to " + challenge.Email + ".",
		VerificationRequired: true,
	})
}

// Signin handles login. Verified accounts get a session token; unverified
// ones get a fresh verification challenge instead.
func Signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthJSON(w, http.StatusBadRequest, AuthResponse{Success: false, Message: "Invalid request body"})
		return
	}

	if req.Email == "" || req.Password == "" {
		writeAuthJSON(w, http.StatusBadRequest, AuthResponse{Success: false, Message: "Email and password are required"})
		return
	}

	sess, challenge, err := manager.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}

	if challenge != nil {
		writeAuthJSON(w, http.StatusOK, AuthResponse{
			Success:              false,
			Message:              "Please verify your email before logging in.",
			VerificationRequired: true,
		})
		return
	}

	writeAuthJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Login successful",
		User:    sess.Account.Public(),
		Token:   sess.Token,
	})
}

// Verify completes the one-time code challenge and establishes a session.
func Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthJSON(w, http.StatusBadRequest, AuthResponse{Success: false, Message: "Invalid request body"})
		return
	}

	if req.Email == "" || req.Code == "" {
		writeAuthJSON(w, http.StatusBadRequest, AuthResponse{Success: false, Message: "Email and code are required"})
		return
	}

	sess, err := manager.VerifyOTP(r.Context(), req.Email, req.Code)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}

	writeAuthJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Account verified successfully",
		User:    sess.Account.Public(),
		Token:   sess.Token,
	})
}

// ResendCode issues a fresh one-time code, invalidating the previous one.
func ResendCode(w http.ResponseWriter, r *http.Request) {
	var req ResendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthJSON(w, http.StatusBadRequest, AuthResponse{Success: false, Message: "Invalid request body"})
		return
	}
	if req.Email == "" {
		writeAuthJSON(w, http.StatusBadRequest, AuthResponse{Success: false, Message: "Email is required"})
		return
	}

	challenge, err := manager.ResendOTP(r.Context(), req.Email)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}

	writeAuthJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "A new verification code was sent to " + challenge.Email + ".",
	})
}

// GetMe returns the session's account snapshot, reconstructing client state
// after a restart.
func GetMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	writeAuthJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		User:    sess.Account.Public(),
	})
}

// Signout clears the session unconditionally.
func Signout(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	_ = manager.Logout(r.Context(), token)
	writeAuthJSON(w, http.StatusOK, AuthResponse{Success: true, Message: "Signed out"})
}

// extractBearerToken pulls the token out of an "Authorization: Bearer x"
// header value.
func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(header)
}

// requireSession resolves the request's session or writes a 401.
func requireSession(w http.ResponseWriter, r *http.Request) (*lifecycle.Session, bool) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	sess, err := manager.CurrentSession(r.Context(), token)
	if err != nil {
		writeAuthJSON(w, http.StatusUnauthorized, AuthResponse{Success: false, Message: "Not signed in"})
		return nil, false
	}
	return sess, true
}

// requireAdmin resolves the session and checks the admin role.
func requireAdmin(w http.ResponseWriter, r *http.Request) (*lifecycle.Session, bool) {
	sess, ok := requireSession(w, r)
	if !ok {
		return nil, false
	}
	if !sess.Account.IsAdmin() {
		writeAuthJSON(w, http.StatusForbidden, AuthResponse{Success: false, Message: "Admin access required"})
		return nil, false
	}
	return sess, true
}
