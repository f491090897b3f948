// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
)

// sessionRequest builds a request carrying session data primed by fn.
func sessionRequest(t *testing.T, sm *scs.SessionManager, method, path string, fn func(ctx context.Context)) *http.Request {
	t.Helper()

	ctx, err := sm.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("failed to load session: %v", err)
	}
	if fn != nil {
		fn(ctx)
	}

	return httptest.NewRequest(method, path, nil).WithContext(ctx)
}

func TestAnyOf(t *testing.T) {
	yes := Predicate(func(r *http.Request) bool { return true })
	no := Predicate(func(r *http.Request) bool { return false })

	req := httptest.NewRequest(http.MethodGet, "/", nil)

	tests := []struct {
		name  string
		preds []Predicate
		want  bool
	}{
		{"no predicates", nil, false},
		{"single false", []Predicate{no}, false},
		{"single true", []Predicate{yes}, true},
		{"false then true", []Predicate{no, yes}, true},
		{"true then false", []Predicate{yes, no}, true},
		{"all false", []Predicate{no, no, no}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AnyOf(tt.preds...)(req); got != tt.want {
				t.Errorf("AnyOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnyOfShortCircuits(t *testing.T) {
	evaluated := false
	yes := Predicate(func(r *http.Request) bool { return true })
	spy := Predicate(func(r *http.Request) bool {
		evaluated = true
		return false
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if !AnyOf(yes, spy)(req) {
		t.Fatal("AnyOf() = false, want true")
	}
	if evaluated {
		t.Error("later predicate evaluated after an earlier success")
	}
}

func TestRequireAuth(t *testing.T) {
	sm := scs.New()

	handler := RequireAuth(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Anonymous
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, sessionRequest(t, sm, http.MethodGet, "/", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", w.Code)
	}

	// Authenticated
	req := sessionRequest(t, sm, http.MethodGet, "/", func(ctx context.Context) {
		sm.Put(ctx, SessionKeyUserID, int64(42))
	})
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", w.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	sm := scs.New()

	handler := RequireAdmin(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := sessionRequest(t, sm, http.MethodGet, "/", func(ctx context.Context) {
		sm.Put(ctx, SessionKeyUserID, int64(42))
	})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("non-admin status = %d, want 401", w.Code)
	}

	req = sessionRequest(t, sm, http.MethodGet, "/", func(ctx context.Context) {
		sm.Put(ctx, SessionKeyUserID, int64(42))
		sm.Put(ctx, SessionKeyIsAdmin, true)
	})
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", w.Code)
	}
}

func TestRequireSelfOrAdmin(t *testing.T) {
	sm := scs.New()

	r := chi.NewRouter()
	r.With(RequireSelfOrAdmin(sm)).Delete("/users/{id}", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	prime := func(userID int64, isAdmin bool) func(ctx context.Context) {
		return func(ctx context.Context) {
			sm.Put(ctx, SessionKeyUserID, userID)
			sm.Put(ctx, SessionKeyIsAdmin, isAdmin)
		}
	}

	tests := []struct {
		name string
		path string
		fn   func(ctx context.Context)
		want int
	}{
		{"self", "/users/7", prime(7, false), http.StatusOK},
		{"other user", "/users/8", prime(7, false), http.StatusUnauthorized},
		{"admin on other user", "/users/8", prime(9, true), http.StatusOK},
		{"anonymous", "/users/7", nil, http.StatusUnauthorized},
		{"invalid id", "/users/abc", prime(7, false), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, sessionRequest(t, sm, http.MethodDelete, tt.path, tt.fn))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestSessionUserIDAnonymous(t *testing.T) {
	sm := scs.New()

	req := sessionRequest(t, sm, http.MethodGet, "/", nil)
	if id := SessionUserID(sm, req); id != 0 {
		t.Errorf("SessionUserID() = %d, want 0", id)
	}
	if SessionIsAdmin(sm, req) {
		t.Error("SessionIsAdmin() = true for anonymous request")
	}
}
