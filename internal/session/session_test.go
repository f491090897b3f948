// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE sessions (
			token TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expiry REAL NOT NULL
		);
		CREATE INDEX sessions_expiry_idx ON sessions(expiry);
	`)
	if err != nil {
		t.Fatalf("failed to create sessions table: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func TestNewCookiePolicy(t *testing.T) {
	db := testDB(t)

	dev := New(db, true)
	if dev.Cookie.Secure {
		t.Error("development cookies marked Secure")
	}

	prod := New(db, false)
	if !prod.Cookie.Secure {
		t.Error("production cookies not marked Secure")
	}
	if !prod.Cookie.HttpOnly {
		t.Error("cookies not HttpOnly")
	}
	if prod.Cookie.SameSite != http.SameSiteLaxMode {
		t.Error("cookies not SameSite=Lax")
	}
	if prod.IdleTimeout != IdleTimeout {
		t.Errorf("idle timeout = %v, want %v", prod.IdleTimeout, IdleTimeout)
	}
}

func TestSessionsPersistToStore(t *testing.T) {
	db := testDB(t)
	sm := New(db, true)

	ctx, err := sm.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sm.Put(ctx, "user_id", int64(42))

	token, _, err := sm.Commit(ctx)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if token == "" {
		t.Fatal("empty session token")
	}

	// The committed session is readable through a fresh load
	ctx2, err := sm.Load(context.Background(), token)
	if err != nil {
		t.Fatalf("Load(token): %v", err)
	}
	if got := sm.GetInt64(ctx2, "user_id"); got != 42 {
		t.Errorf("user_id = %d, want 42", got)
	}

	// And lives in the sessions table
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count); err != nil {
		t.Fatalf("counting sessions: %v", err)
	}
	if count != 1 {
		t.Errorf("sessions rows = %d, want 1", count)
	}
}

func TestRenewTokenReplacesSession(t *testing.T) {
	db := testDB(t)
	sm := New(db, true)

	ctx, err := sm.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sm.Put(ctx, "user_id", int64(7))
	oldToken, _, err := sm.Commit(ctx)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	ctx, err = sm.Load(context.Background(), oldToken)
	if err != nil {
		t.Fatalf("Load(oldToken): %v", err)
	}
	if err := sm.RenewToken(ctx); err != nil {
		t.Fatalf("RenewToken: %v", err)
	}
	newToken, _, err := sm.Commit(ctx)
	if err != nil {
		t.Fatalf("Commit after renew: %v", err)
	}
	if newToken == oldToken {
		t.Fatal("token unchanged after renewal")
	}

	// Session data survives the renewal
	ctx, err = sm.Load(context.Background(), newToken)
	if err != nil {
		t.Fatalf("Load(newToken): %v", err)
	}
	if got := sm.GetInt64(ctx, "user_id"); got != 7 {
		t.Errorf("user_id after renew = %d, want 7", got)
	}

	// The old token no longer resolves to the identity
	ctx, err = sm.Load(context.Background(), oldToken)
	if err != nil {
		t.Fatalf("Load(oldToken) after renew: %v", err)
	}
	if got := sm.GetInt64(ctx, "user_id"); got != 0 {
		t.Errorf("old token still carries user_id = %d", got)
	}
}
