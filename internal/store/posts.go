// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const postColumns = "id, creator_id, title, content, tag, created_at, edited_at"

func scanPost(row interface{ Scan(...any) error }) (Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.CreatorID, &p.Title, &p.Content, &p.Tag, &p.CreatedAt, &p.EditedAt)
	return p, err
}

// CreatePostParams holds the fields for CreatePost.
type CreatePostParams struct {
	CreatorID int64
	Title     string
	Content   string
	Tag       sql.NullString
	CreatedAt time.Time
}

// CreatePost inserts a new post and returns the stored row.
func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO posts (creator_id, title, content, tag, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING `+postColumns,
		arg.CreatorID, arg.Title, arg.Content, arg.Tag, arg.CreatedAt,
	)
	return scanPost(row)
}

// GetPostByID returns a post by ID.
func (q *Queries) GetPostByID(ctx context.Context, id int64) (Post, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
	return scanPost(row)
}

// UpdatePostParams holds the editable fields for UpdatePost. Creator and
// creation time are immutable and deliberately absent.
type UpdatePostParams struct {
	Title    string
	Content  string
	Tag      sql.NullString
	EditedAt time.Time
	ID       int64
}

// UpdatePost edits a post's title, content and tag and stamps edited_at.
func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE posts SET title = ?, content = ?, tag = ?, edited_at = ?
		WHERE id = ?
		RETURNING `+postColumns,
		arg.Title, arg.Content, arg.Tag, arg.EditedAt, arg.ID,
	)
	return scanPost(row)
}

// DeletePost removes a post by ID. Reaction rows follow via ON DELETE CASCADE.
func (q *Queries) DeletePost(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	return err
}

// PostWithReactions is a post row joined with aggregate reaction counts and
// the viewing user's own reaction, if any.
type PostWithReactions struct {
	Post
	LikeCount  int64
	HateCount  int64
	ViewerKind sql.NullString
}

const postWithReactionsSelect = `
	SELECT p.id, p.creator_id, p.title, p.content, p.tag, p.created_at, p.edited_at,
		COUNT(CASE WHEN r.kind = 'like' THEN 1 END) AS like_count,
		COUNT(CASE WHEN r.kind = 'hate' THEN 1 END) AS hate_count,
		MAX(CASE WHEN r.user_id = ? THEN r.kind END) AS viewer_kind
	FROM posts p
	LEFT JOIN post_reactions r ON r.post_id = p.id`

func scanPostWithReactions(row interface{ Scan(...any) error }) (PostWithReactions, error) {
	var p PostWithReactions
	err := row.Scan(&p.ID, &p.CreatorID, &p.Title, &p.Content, &p.Tag, &p.CreatedAt, &p.EditedAt,
		&p.LikeCount, &p.HateCount, &p.ViewerKind)
	return p, err
}

// GetPostWithReactionsParams holds the fields for GetPostWithReactions.
// ViewerID may be zero for anonymous requests; no user has ID zero.
type GetPostWithReactionsParams struct {
	ID       int64
	ViewerID int64
}

// GetPostWithReactions returns a post with reaction counts and the viewer's
// own reaction state.
func (q *Queries) GetPostWithReactions(ctx context.Context, arg GetPostWithReactionsParams) (PostWithReactions, error) {
	row := q.db.QueryRowContext(ctx,
		postWithReactionsSelect+` WHERE p.id = ? GROUP BY p.id`,
		arg.ViewerID, arg.ID,
	)
	return scanPostWithReactions(row)
}

func (q *Queries) listPostsWithReactions(ctx context.Context, query string, args ...any) ([]PostWithReactions, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []PostWithReactions
	for rows.Next() {
		p, err := scanPostWithReactions(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ListPosts returns all posts, newest first, with reaction counts and the
// viewer's reaction state.
func (q *Queries) ListPosts(ctx context.Context, viewerID int64) ([]PostWithReactions, error) {
	return q.listPostsWithReactions(ctx,
		postWithReactionsSelect+` GROUP BY p.id ORDER BY p.created_at DESC, p.id DESC`,
		viewerID,
	)
}

// ListPostsByCreatorParams holds the fields for ListPostsByCreator.
type ListPostsByCreatorParams struct {
	CreatorID int64
	ViewerID  int64
}

// ListPostsByCreator returns a single creator's posts, newest first.
func (q *Queries) ListPostsByCreator(ctx context.Context, arg ListPostsByCreatorParams) ([]PostWithReactions, error) {
	return q.listPostsWithReactions(ctx,
		postWithReactionsSelect+` WHERE p.creator_id = ? GROUP BY p.id ORDER BY p.created_at DESC, p.id DESC`,
		arg.ViewerID, arg.CreatorID,
	)
}
