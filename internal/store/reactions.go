// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

// SetReactionParams holds the fields for SetReaction.
type SetReactionParams struct {
	PostID    int64
	UserID    int64
	Kind      string
	CreatedAt time.Time
}

// SetReaction records a user's reaction to a post. The (post_id, user_id)
// primary key plus the ON CONFLICT upsert make this a single atomic write:
// flipping like to hate (or back) replaces the existing row, so the two
// reaction sets can never both contain the same user, regardless of how
// concurrent requests interleave. Re-applying the same reaction is a no-op
// update and keeps set semantics.
func (q *Queries) SetReaction(ctx context.Context, arg SetReactionParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO post_reactions (post_id, user_id, kind, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (post_id, user_id) DO UPDATE SET kind = excluded.kind`,
		arg.PostID, arg.UserID, arg.Kind, arg.CreatedAt,
	)
	return err
}

// GetReactionParams holds the fields for GetReaction.
type GetReactionParams struct {
	PostID int64
	UserID int64
}

// GetReaction returns a user's reaction to a post, or sql.ErrNoRows if none.
func (q *Queries) GetReaction(ctx context.Context, arg GetReactionParams) (PostReaction, error) {
	var r PostReaction
	err := q.db.QueryRowContext(ctx, `
		SELECT post_id, user_id, kind, created_at
		FROM post_reactions WHERE post_id = ? AND user_id = ?`,
		arg.PostID, arg.UserID,
	).Scan(&r.PostID, &r.UserID, &r.Kind, &r.CreatedAt)
	return r, err
}

// CountReactionsParams holds the fields for CountReactions.
type CountReactionsParams struct {
	PostID int64
	Kind   string
}

// CountReactions returns the number of reactions of one kind on a post.
func (q *Queries) CountReactions(ctx context.Context, arg CountReactionsParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM post_reactions WHERE post_id = ? AND kind = ?`,
		arg.PostID, arg.Kind,
	).Scan(&count)
	return count, err
}
