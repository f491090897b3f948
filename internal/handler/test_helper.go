// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"

	"postboard/internal/auth"
	"postboard/internal/middleware"
	"postboard/internal/session"
	"postboard/internal/store"
)

// testDB creates an in-memory SQLite database with the application schema.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// Each pooled connection to :memory: would get its own empty database,
	// so the pool is pinned to a single connection.
	db.SetMaxOpenConns(1)

	schema := `
		PRAGMA foreign_keys = ON;

		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			is_admin BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE posts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			creator_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			tag TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			edited_at DATETIME,
			FOREIGN KEY (creator_id) REFERENCES users(id) ON DELETE CASCADE
		);

		CREATE TABLE post_reactions (
			post_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			kind TEXT NOT NULL CHECK (kind IN ('like', 'hate')),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (post_id, user_id),
			FOREIGN KEY (post_id) REFERENCES posts(id) ON DELETE CASCADE,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		);

		CREATE TABLE sessions (
			token TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expiry REAL NOT NULL
		);
		CREATE INDEX sessions_expiry_idx ON sessions(expiry);

		CREATE TABLE events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			level TEXT NOT NULL,
			category TEXT NOT NULL,
			message TEXT NOT NULL,
			user_id INTEGER,
			ip TEXT NOT NULL DEFAULT '',
			path TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// testApp bundles the router and its dependencies for a test.
type testApp struct {
	db     *sql.DB
	router chi.Router
}

// newTestApp builds a full application router against an in-memory database.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db := testDB(t)
	sm := session.New(db, true)
	sp := middleware.NewSigninProtection(middleware.DefaultSigninProtectionConfig())

	r := NewRouter(RouterDeps{
		DB:               db,
		SessionManager:   sm,
		SigninProtection: sp,
	})

	return &testApp{db: db, router: r}
}

// testPassword is the password all fixture users share.
const testPassword = "correct horse battery staple"

// testPasswordHash caches the argon2 hash of testPassword; hashing is slow
// enough that doing it once per process matters.
var testPasswordHash string

func fixturePasswordHash(t *testing.T) string {
	t.Helper()
	if testPasswordHash == "" {
		hash, err := auth.HashPassword(testPassword)
		if err != nil {
			t.Fatalf("failed to hash fixture password: %v", err)
		}
		testPasswordHash = hash
	}
	return testPasswordHash
}

// createTestUser inserts a user directly into the database.
func createTestUser(t *testing.T, db *sql.DB, username string, isAdmin bool) store.User {
	t.Helper()

	now := time.Now()
	row := db.QueryRow(`
		INSERT INTO users (username, first_name, last_name, password_hash, is_admin, created_at)
		VALUES (?, 'Test', 'User', ?, ?, ?)
		RETURNING id`,
		username, fixturePasswordHash(t), isAdmin, now,
	)

	var id int64
	if err := row.Scan(&id); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return store.User{
		ID:        id,
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
		IsAdmin:   isAdmin,
		CreatedAt: now,
	}
}

// createTestPost inserts a post directly into the database.
func createTestPost(t *testing.T, db *sql.DB, creatorID int64, title string) store.Post {
	t.Helper()

	now := time.Now()
	row := db.QueryRow(`
		INSERT INTO posts (creator_id, title, content, created_at)
		VALUES (?, ?, 'test content', ?)
		RETURNING id`,
		creatorID, title, now,
	)

	var id int64
	if err := row.Scan(&id); err != nil {
		t.Fatalf("failed to create test post: %v", err)
	}

	return store.Post{ID: id, CreatorID: creatorID, Title: title, Content: "test content", CreatedAt: now}
}

// do performs a request against the router, attaching the given session
// cookie when non-nil, and returns the response recorder.
func (app *testApp) do(t *testing.T, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	return w
}

// signin signs a fixture user in and returns the session cookie.
func (app *testApp) signin(t *testing.T, username string) *http.Cookie {
	t.Helper()

	w := app.do(t, http.MethodPost, "/users/signin",
		`{"username":"`+username+`","password":"`+testPassword+`"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("sign-in failed with status %d: %s", w.Code, w.Body.String())
	}

	cookie := sessionCookie(w.Result())
	if cookie == nil {
		t.Fatal("sign-in response carried no session cookie")
	}
	return cookie
}

// sessionCookie extracts the session cookie from a response, or nil.
func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	return nil
}

// itoa formats an int64 for use in URL paths.
func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

// dataResponse is a generic wrapper for API responses with a "data" field.
type dataResponse[T any] struct {
	Data T `json:"data"`
}

// unmarshalData unmarshals a JSON response body into the specified type.
func unmarshalData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var resp dataResponse[T]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return resp.Data
}
