// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"postboard/internal/auth"
)

// Seed provisions the initial admin account. The public signup path can
// never set the admin flag, so this is the only way an admin comes to exist.
func Seed(ctx context.Context, db *sql.DB, username, password string) error {
	if password == "" {
		return fmt.Errorf("seeding requires POSTBOARD_ADMIN_PASSWORD to be set")
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	// The exists-check and the insert run in one transaction so two
	// concurrently booting instances cannot both pass the check.
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	queries := New(db).WithTx(tx)

	_, err = queries.GetUserByUsername(ctx, username)
	if err == nil {
		slog.Info("admin user already exists, skipping seed", "username", username)
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	user, err := queries.CreateAdminUser(ctx, CreateAdminUserParams{
		Username:     username,
		FirstName:    "Site",
		LastName:     "Administrator",
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed transaction: %w", err)
	}

	slog.Info("created admin user", "id", user.ID, "username", user.Username)
	return nil
}
