// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"postboard/internal/middleware"
)

// RouterDeps holds the dependencies for NewRouter. The store handle is
// injected so tests can run against an isolated in-memory database.
type RouterDeps struct {
	DB               *sql.DB
	SessionManager   *scs.SessionManager
	SigninProtection *middleware.SigninProtection
	GlobalLimiter    *middleware.GlobalRateLimiter
}

// NewRouter builds the application routes. Middleware order matters: the
// volume limiter runs before session loading so throttled requests do
// not touch the session store, and guards run inside the session scope.
func NewRouter(deps RouterDeps) chi.Router {
	sm := deps.SessionManager
	usersHandler := NewUsersHandler(deps.DB, sm, deps.SigninProtection)
	postsHandler := NewPostsHandler(deps.DB, sm)

	r := chi.NewRouter()

	if deps.GlobalLimiter != nil {
		r.Use(deps.GlobalLimiter.Middleware())
	}
	r.Use(sm.LoadAndSave)

	requireAuth := middleware.RequireAuth(sm)

	r.Route("/users", func(r chi.Router) {
		r.Post("/signup", usersHandler.Signup)
		r.With(deps.SigninProtection.Middleware()).Post("/signin", usersHandler.Signin)
		r.With(requireAuth).Get("/signout", usersHandler.Signout)
		r.With(requireAuth).Get("/isloggedin", usersHandler.IsLoggedIn)
		r.Get("/", usersHandler.List)
		r.Get("/{id}", usersHandler.Get)
		r.With(requireAuth, middleware.RequireSelfOrAdmin(sm)).Delete("/{id}", usersHandler.Delete)
	})

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", postsHandler.List)
		r.With(requireAuth).Post("/", postsHandler.Create)
		r.Get("/user/{id}", postsHandler.ListByUser)
		r.With(requireAuth).Put("/like/{id}", postsHandler.Like)
		r.With(requireAuth).Put("/hate/{id}", postsHandler.Hate)
		r.Get("/{id}", postsHandler.Get)

		creatorOrAdmin := middleware.RequirePostCreatorOrAdmin(sm, deps.DB)
		r.With(requireAuth, creatorOrAdmin).Put("/{id}", postsHandler.Update)
		r.With(requireAuth, creatorOrAdmin).Delete("/{id}", postsHandler.Delete)
	})

	return r
}
