// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const userColumns = "id, username, first_name, last_name, password_hash, is_admin, created_at"

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	return u, err
}

// CreateUserParams holds the fields for CreateUser. The admin flag is not a
// parameter: accounts created through this path are always non-admin.
type CreateUserParams struct {
	Username     string
	FirstName    string
	LastName     string
	PasswordHash string
	CreatedAt    time.Time
}

// CreateUser inserts a new non-admin user and returns the stored row.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO users (username, first_name, last_name, password_hash, is_admin, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
		RETURNING `+userColumns,
		arg.Username, arg.FirstName, arg.LastName, arg.PasswordHash, arg.CreatedAt,
	)
	return scanUser(row)
}

// CreateAdminUserParams holds the fields for CreateAdminUser.
type CreateAdminUserParams struct {
	Username     string
	FirstName    string
	LastName     string
	PasswordHash string
	CreatedAt    time.Time
}

// CreateAdminUser inserts a user with the admin flag set. Only the seed path
// calls this; it is the out-of-band provisioning route for admins.
func (q *Queries) CreateAdminUser(ctx context.Context, arg CreateAdminUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO users (username, first_name, last_name, password_hash, is_admin, created_at)
		VALUES (?, ?, ?, ?, 1, ?)
		RETURNING `+userColumns,
		arg.Username, arg.FirstName, arg.LastName, arg.PasswordHash, arg.CreatedAt,
	)
	return scanUser(row)
}

// GetUserByID returns a user by ID.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByUsername returns a user by exact, case-sensitive username match.
func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

// ListUsers returns all users ordered by creation time.
func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUserPasswordParams holds the fields for UpdateUserPassword.
type UpdateUserPasswordParams struct {
	PasswordHash string
	ID           int64
}

// UpdateUserPassword replaces a user's password hash. Used for transparent
// re-hashing when argon2 parameters change.
func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) error {
	_, err := q.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, arg.PasswordHash, arg.ID)
	return err
}

// DeleteUser removes a user by ID.
func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}

// CountUsersByUsername returns the number of users with the given username.
func (q *Queries) CountUsersByUsername(ctx context.Context, username string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE username = ?`, username).Scan(&count)
	return count, err
}
