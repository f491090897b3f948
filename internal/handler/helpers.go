// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"postboard/internal/store"
)

// ParseIDParam parses the `id` URL parameter as an int64.
func ParseIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id parameter: %w", err)
	}
	return id, nil
}

// decodeJSON decodes a JSON request body into a typed destination. Fields
// outside the destination schema are dropped, so a client-supplied creator
// or admin flag can never reach the store.
func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// isUniqueViolation reports whether err is a SQLite unique constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// UserResponse is the client-facing user shape. There is deliberately no
// password hash field, so it can never be serialized.
type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

func storeUserToResponse(u store.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
	}
}

// PostResponse is the client-facing post shape. LikeStatus and HateStatus
// are view-time projections of the requesting user's reaction; they are
// derived per request, not stored.
type PostResponse struct {
	ID         int64      `json:"id"`
	CreatorID  int64      `json:"creator_id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Tag        string     `json:"tag,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	EditedAt   *time.Time `json:"edited_at,omitempty"`
	Likes      int64      `json:"likes"`
	Hates      int64      `json:"hates"`
	LikeStatus bool       `json:"like_status"`
	HateStatus bool       `json:"hate_status"`
}

func storePostToResponse(p store.PostWithReactions) PostResponse {
	resp := PostResponse{
		ID:         p.ID,
		CreatorID:  p.CreatorID,
		Title:      p.Title,
		Content:    p.Content,
		CreatedAt:  p.CreatedAt,
		Likes:      p.LikeCount,
		Hates:      p.HateCount,
		LikeStatus: p.ViewerKind.Valid && p.ViewerKind.String == store.ReactionLike,
		HateStatus: p.ViewerKind.Valid && p.ViewerKind.String == store.ReactionHate,
	}
	if p.Tag.Valid {
		resp.Tag = p.Tag.String
	}
	if p.EditedAt.Valid {
		t := p.EditedAt.Time
		resp.EditedAt = &t
	}
	return resp
}

func storePostsToResponses(posts []store.PostWithReactions) []PostResponse {
	resps := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		resps = append(resps, storePostToResponse(p))
	}
	return resps
}

// nullString maps an optional request field to sql.NullString.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
