// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, and request rate limiting.
package middleware

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"postboard/internal/store"
)

// Session keys for the authenticated identity. The admin flag is a
// denormalized copy taken at sign-in time; revoking admin mid-session is
// only observed after the session ends. That staleness window is an accepted
// trade-off for skipping a store round-trip on every request.
const (
	SessionKeyUserID  = "user_id"
	SessionKeyIsAdmin = "is_admin"
)

// SessionUserID returns the authenticated user's ID from the session,
// or 0 for anonymous requests.
func SessionUserID(sm *scs.SessionManager, r *http.Request) int64 {
	return sm.GetInt64(r.Context(), SessionKeyUserID)
}

// SessionIsAdmin returns the denormalized admin flag from the session.
func SessionIsAdmin(sm *scs.SessionManager, r *http.Request) bool {
	return sm.GetBool(r.Context(), SessionKeyIsAdmin)
}

// RequireAuth creates middleware that rejects requests without an
// authenticated session. Guard failures terminate the chain immediately;
// nothing downstream runs.
func RequireAuth(sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if SessionUserID(sm, r) == 0 {
				writeGuardError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin creates middleware that requires the session's admin flag.
// Use after RequireAuth.
func RequireAdmin(sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !SessionIsAdmin(sm, r) {
				writeGuardError(w, http.StatusUnauthorized, "unauthorized", "Admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Predicate evaluates an authorization condition against the current request.
type Predicate func(r *http.Request) bool

// AnyOf combines predicates with a true logical OR: each predicate is
// actually invoked, and evaluation short-circuits on the first success.
// Passing predicate function references straight to a router as alternate
// middleware does not do this (a function value is always truthy), which is
// why ownership-or-admin checks go through this combinator.
func AnyOf(preds ...Predicate) Predicate {
	return func(r *http.Request) bool {
		for _, p := range preds {
			if p(r) {
				return true
			}
		}
		return false
	}
}

// IsSelf returns a predicate that is true when the session identity matches
// the given user ID.
func IsSelf(sm *scs.SessionManager, userID int64) Predicate {
	return func(r *http.Request) bool {
		id := SessionUserID(sm, r)
		return id != 0 && id == userID
	}
}

// IsAdminSession returns a predicate over the session's admin flag.
func IsAdminSession(sm *scs.SessionManager) Predicate {
	return func(r *http.Request) bool {
		return SessionIsAdmin(sm, r)
	}
}

// RequireSelfOrAdmin creates middleware that permits a request only when the
// `id` URL parameter names the session's own user, or the session is admin.
func RequireSelfOrAdmin(sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			targetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
			if err != nil {
				writeGuardError(w, http.StatusBadRequest, "bad_request", "Invalid user ID")
				return
			}

			allowed := AnyOf(IsSelf(sm, targetID), IsAdminSession(sm))
			if !allowed(r) {
				writeGuardError(w, http.StatusUnauthorized, "unauthorized", "Not authorized for this account")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequirePostCreatorOrAdmin creates middleware that permits a request only
// when the session user created the post named by the `id` URL parameter, or
// the session is admin. A missing post is reported as not found, which is a
// different outcome than an authorization failure.
func RequirePostCreatorOrAdmin(sm *scs.SessionManager, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			postID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
			if err != nil {
				writeGuardError(w, http.StatusBadRequest, "bad_request", "Invalid post ID")
				return
			}

			post, err := queries.GetPostByID(r.Context(), postID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					writeGuardError(w, http.StatusNotFound, "not_found", "Post not found")
					return
				}
				slog.Error("post lookup failed in authorization guard", "error", err, "post_id", postID)
				writeGuardError(w, http.StatusInternalServerError, "internal_error", "Something went wrong")
				return
			}

			allowed := AnyOf(IsSelf(sm, post.CreatorID), IsAdminSession(sm))
			if !allowed(r) {
				slog.Warn("access denied",
					"category", "auth",
					"method", r.Method,
					"path", r.URL.Path,
					"user_id", SessionUserID(sm, r),
					"post_id", postID,
					"ip", ClientIP(r),
				)
				writeGuardError(w, http.StatusUnauthorized, "unauthorized", "Not authorized for this post")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
