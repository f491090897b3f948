// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"postboard/internal/auth"
	"postboard/internal/middleware"
	"postboard/internal/model"
	"postboard/internal/store"
)

// UsersHandler handles user account and authentication routes.
type UsersHandler struct {
	queries          *store.Queries
	sessionManager   *scs.SessionManager
	signinProtection *middleware.SigninProtection
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(db *sql.DB, sm *scs.SessionManager, sp *middleware.SigninProtection) *UsersHandler {
	return &UsersHandler{
		queries:          store.New(db),
		sessionManager:   sm,
		signinProtection: sp,
	}
}

// logAuthEvent records an auth event in the audit log.
func (h *UsersHandler) logAuthEvent(r *http.Request, level, message string, userID int64) {
	params := store.CreateEventParams{
		Level:     level,
		Category:  model.EventCategoryAuth,
		Message:   message,
		IP:        middleware.ClientIP(r),
		Path:      r.URL.Path,
		CreatedAt: time.Now(),
	}
	if userID != 0 {
		params.UserID = sql.NullInt64{Int64: userID, Valid: true}
	}
	if _, err := h.queries.CreateEvent(r.Context(), params); err != nil {
		slog.Error("failed to record auth event", "error", err)
	}
}

// SignupRequest is the expected body for POST /users/signup. The admin flag
// is not part of the schema; signup can never produce an admin account.
type SignupRequest struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// Signup handles POST /users/signup.
func (h *UsersHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	fieldErrors := make(map[string]string)
	if msg := ValidateUsername(req.Username); msg != "" {
		fieldErrors["username"] = msg
	}
	if msg := ValidateName(req.FirstName); msg != "" {
		fieldErrors["first_name"] = msg
	}
	if msg := ValidateName(req.LastName); msg != "" {
		fieldErrors["last_name"] = msg
	}
	if req.Password == "" {
		fieldErrors["password"] = "Password is required"
	}
	if len(fieldErrors) > 0 {
		WriteValidationError(w, fieldErrors)
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("password hashing failed", "error", err)
		WriteInternalError(w)
		return
	}

	user, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		if isUniqueViolation(err) {
			WriteConflict(w, "User already exists with that username.")
			return
		}
		slog.Error("failed to create user", "error", err)
		WriteInternalError(w)
		return
	}

	slog.Info("user signed up", "user_id", user.ID, "username", user.Username)
	WriteCreated(w, storeUserToResponse(user))
}

// SigninRequest is the expected body for POST /users/signin.
type SigninRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// signinFailure records the failed attempt against the throttle windows and
// writes the generic rejection. Unknown username and wrong password produce
// byte-identical responses so the endpoint leaks no account existence.
func (h *UsersHandler) signinFailure(w http.ResponseWriter, r *http.Request) {
	h.signinProtection.RecordFailure(middleware.ClientIP(r))
	WriteNotFound(w, "Incorrect credentials")
}

// Signin handles POST /users/signin. On success the session token is
// regenerated before the identity is written, so a token captured before
// sign-in is worthless afterwards.
func (h *UsersHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := decodeJSON(r, &req); err != nil || req.Username == "" || req.Password == "" {
		h.signinFailure(w, r)
		return
	}

	user, err := h.queries.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("database error during sign-in", "error", err)
		} else {
			slog.Debug("sign-in attempt for unknown username")
		}
		h.signinFailure(w, r)
		return
	}

	valid, err := auth.CheckPassword(req.Password, user.PasswordHash)
	if err != nil {
		slog.Error("password check error", "error", err)
		h.signinFailure(w, r)
		return
	}
	if !valid {
		h.logAuthEvent(r, model.EventLevelWarning, "Sign-in failed: invalid password", user.ID)
		h.signinFailure(w, r)
		return
	}

	// Re-hash transparently if the stored hash uses outdated parameters
	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(req.Password); err == nil {
			if err := h.queries.UpdateUserPassword(r.Context(), store.UpdateUserPasswordParams{
				PasswordHash: newHash,
				ID:           user.ID,
			}); err != nil {
				slog.Error("failed to re-hash password", "error", err, "user_id", user.ID)
			}
		}
	}

	// Regenerate the session token to prevent session fixation. This must
	// happen before the identity is written into the session.
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		slog.Error("session renewal error", "error", err)
		WriteInternalError(w)
		return
	}

	h.sessionManager.Put(r.Context(), middleware.SessionKeyUserID, user.ID)
	h.sessionManager.Put(r.Context(), middleware.SessionKeyIsAdmin, user.IsAdmin)

	slog.Info("user signed in", "user_id", user.ID, "username", user.Username)
	h.logAuthEvent(r, model.EventLevelInfo, "User signed in", user.ID)

	WriteSuccess(w, storeUserToResponse(user))
}

// Signout handles GET /users/signout. Destroying an already-destroyed
// session is a no-op, not an error.
func (h *UsersHandler) Signout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.SessionUserID(h.sessionManager, r)

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
		WriteInternalError(w)
		return
	}

	slog.Info("user signed out", "user_id", userID)
	h.logAuthEvent(r, model.EventLevelInfo, "User signed out", userID)

	WriteSuccess(w, map[string]string{"message": "Signed out"})
}

// IsLoggedIn handles GET /users/isloggedin.
func (h *UsersHandler) IsLoggedIn(w http.ResponseWriter, r *http.Request) {
	userID := middleware.SessionUserID(h.sessionManager, r)

	user, err := h.queries.GetUserByID(r.Context(), userID)
	if err != nil {
		// The account vanished out from under a live session; treat the
		// session as stale and end it.
		_ = h.sessionManager.Destroy(r.Context())
		WriteUnauthorized(w, "Authentication required")
		return
	}

	WriteSuccess(w, storeUserToResponse(user))
}

// List handles GET /users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.queries.ListUsers(r.Context())
	if err != nil {
		slog.Error("failed to list users", "error", err)
		WriteInternalError(w)
		return
	}

	resps := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resps = append(resps, storeUserToResponse(u))
	}
	WriteSuccess(w, resps)
}

// Get handles GET /users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid user ID", nil)
		return
	}

	user, err := h.queries.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "User not found")
			return
		}
		slog.Error("failed to get user", "error", err, "user_id", id)
		WriteInternalError(w)
		return
	}

	WriteSuccess(w, storeUserToResponse(user))
}

// Delete handles DELETE /users/{id}. Guarded by authentication and the
// self-or-admin predicate upstream.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid user ID", nil)
		return
	}

	user, err := h.queries.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "User not found")
			return
		}
		slog.Error("failed to get user", "error", err, "user_id", id)
		WriteInternalError(w)
		return
	}

	if err := h.queries.DeleteUser(r.Context(), id); err != nil {
		slog.Error("failed to delete user", "error", err, "user_id", id)
		WriteInternalError(w)
		return
	}

	// Deleting one's own account ends the session as well
	if middleware.SessionUserID(h.sessionManager, r) == id {
		_ = h.sessionManager.Destroy(r.Context())
	}

	slog.Info("user deleted", "user_id", id)
	WriteAccepted(w, storeUserToResponse(user))
}
