// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

// User is a registered account. PasswordHash is never serialized to clients;
// the handler layer maps User to a response type without it.
type User struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

// Post is a short text post. CreatorID is set server-side from the session.
type Post struct {
	ID        int64
	CreatorID int64
	Title     string
	Content   string
	Tag       sql.NullString
	CreatedAt time.Time
	EditedAt  sql.NullTime
}

// Reaction kinds. A (post, user) pair holds at most one reaction row, so
// like/hate disjointness is structural.
const (
	ReactionLike = "like"
	ReactionHate = "hate"
)

// PostReaction is a single user's reaction to a post.
type PostReaction struct {
	PostID    int64
	UserID    int64
	Kind      string
	CreatedAt time.Time
}

// Event is an audit log record.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	IP        string
	Path      string
	CreatedAt time.Time
}
