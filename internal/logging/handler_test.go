// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"bytes"
	"context"
	"database/sql"
	"log/slog"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"postboard/internal/model"
	"postboard/internal/store"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
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
	`)
	if err != nil {
		t.Fatalf("failed to create events table: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func newTestLogger(t *testing.T) (*slog.Logger, *sql.DB, *bytes.Buffer) {
	t.Helper()

	db := testDB(t)
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(NewEventLogHandler(inner, db)), db, &buf
}

func recentEvents(t *testing.T, db *sql.DB) []store.Event {
	t.Helper()

	events, err := store.New(db).ListRecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	return events
}

func TestWarningsAreMirroredToEventLog(t *testing.T) {
	logger, db, buf := newTestLogger(t)

	logger.Warn("access denied",
		"category", model.EventCategoryAuth,
		"user_id", int64(42),
		"ip", "10.0.0.1",
		"path", "/posts/7",
	)

	events := recentEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}

	e := events[0]
	if e.Level != model.EventLevelWarning {
		t.Errorf("level = %q", e.Level)
	}
	if e.Category != model.EventCategoryAuth {
		t.Errorf("category = %q", e.Category)
	}
	if e.Message != "access denied" {
		t.Errorf("message = %q", e.Message)
	}
	if !e.UserID.Valid || e.UserID.Int64 != 42 {
		t.Errorf("user_id = %+v", e.UserID)
	}
	if e.IP != "10.0.0.1" || e.Path != "/posts/7" {
		t.Errorf("ip = %q path = %q", e.IP, e.Path)
	}

	// The wrapped handler still gets the record
	if !bytes.Contains(buf.Bytes(), []byte("access denied")) {
		t.Error("record missing from wrapped handler output")
	}
}

func TestErrorsAreMirroredToEventLog(t *testing.T) {
	logger, db, _ := newTestLogger(t)

	logger.Error("storage failure")

	events := recentEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Level != model.EventLevelError {
		t.Errorf("level = %q", events[0].Level)
	}
	// Category defaults when the record carries none
	if events[0].Category != model.EventCategoryApp {
		t.Errorf("category = %q", events[0].Category)
	}
}

func TestInfoIsNotMirrored(t *testing.T) {
	logger, db, buf := newTestLogger(t)

	logger.Info("routine message")

	if events := recentEvents(t, db); len(events) != 0 {
		t.Errorf("info record mirrored to event log: %+v", events)
	}
	if !bytes.Contains(buf.Bytes(), []byte("routine message")) {
		t.Error("record missing from wrapped handler output")
	}
}

func TestSlogLevelToEventLevel(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, model.EventLevelInfo},
		{slog.LevelInfo, model.EventLevelInfo},
		{slog.LevelWarn, model.EventLevelWarning},
		{slog.LevelError, model.EventLevelError},
	}

	for _, tt := range tests {
		if got := slogLevelToEventLevel(tt.level); got != tt.want {
			t.Errorf("slogLevelToEventLevel(%v) = %q, want %q", tt.level, got, tt.want)
		}
	}
}
