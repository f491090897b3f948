// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"testing"

	"postboard/internal/auth"
)

func TestSeed(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := Seed(ctx, db, "seeded-admin", "a strong admin password"); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	q := New(db)
	admin, err := q.GetUserByUsername(ctx, "seeded-admin")
	if err != nil {
		t.Fatalf("admin not created: %v", err)
	}
	if !admin.IsAdmin {
		t.Error("seeded account is not admin")
	}
	ok, err := auth.CheckPassword("a strong admin password", admin.PasswordHash)
	if err != nil {
		t.Fatalf("CheckPassword: %v", err)
	}
	if !ok {
		t.Error("seeded password does not verify")
	}

	// Running again is a no-op, not an error
	if err := Seed(ctx, db, "seeded-admin", "a strong admin password"); err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	n, err := q.CountUsersByUsername(ctx, "seeded-admin")
	if err != nil {
		t.Fatalf("CountUsersByUsername: %v", err)
	}
	if n != 1 {
		t.Errorf("admin count = %d, want 1", n)
	}
}

func TestSeedRequiresPassword(t *testing.T) {
	db := testDB(t)

	if err := Seed(context.Background(), db, "seeded-admin", ""); err == nil {
		t.Fatal("empty password accepted")
	}
}
