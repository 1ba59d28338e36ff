package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/aqibcreates/teachreach-backend/internal/lifecycle"
)

// UpdateProfileRequest carries partial profile edits. Absent fields are left
// untouched.
type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Password *string `json:"password,omitempty"`
}

// UpdateProfile applies a partial edit to the signed-in account. Changing the
// email drops the account back to unverified and ends the session.
func UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthJSON(w, http.StatusBadRequest, AuthResponse{Success: false, Message: "Invalid request body"})
		return
	}

	if req.Name == nil && req.Email == nil && req.Phone == nil && req.Password == nil {
		writeAuthJSON(w, http.StatusBadRequest, AuthResponse{Success: false, Message: "Nothing to update"})
		return
	}
	if req.Password != nil && len(*req.Password) < 8 {
		writeAuthJSON(w, http.StatusBadRequest, AuthResponse{Success: false, Message: "Password must be at least 8 characters"})
		return
	}
	if req.Email != nil && *req.Email == "" {
		writeAuthJSON(w, http.StatusBadRequest, AuthResponse{Success: false, Message: "Email cannot be empty"})
		return
	}

	account, err := manager.UpdateProfile(r.Context(), sess, lifecycle.ProfilePatch{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Credential: req.Password,
	})
	if err != nil {
		writeLifecycleError(w, err)
		return
	}

	if !account.IsVerified {
		writeAuthJSON(w, http.StatusOK, AuthResponse{
			Success:              true,
			Message:              "Profile updated. Please verify your new email address.",
			User:                 account.Public(),
			VerificationRequired: true,
		})
		return
	}

	writeAuthJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Profile updated",
		User:    account.Public(),
	})
}

// DeleteOwnAccount removes the signed-in account and everything it authored.
func DeleteOwnAccount(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	if err := manager.DeleteAccount(r.Context(), sess.Account.ID); err != nil {
		writeLifecycleError(w, err)
		return
	}

	writeAuthJSON(w, http.StatusOK, AuthResponse{Success: true, Message: "Account deleted"})
}
