// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"postboard/internal/middleware"
	"postboard/internal/model"
	"postboard/internal/store"
)

// PostsHandler handles post and reaction routes.
type PostsHandler struct {
	queries        *store.Queries
	sessionManager *scs.SessionManager
}

// NewPostsHandler creates a new PostsHandler.
func NewPostsHandler(db *sql.DB, sm *scs.SessionManager) *PostsHandler {
	return &PostsHandler{
		queries:        store.New(db),
		sessionManager: sm,
	}
}

// viewerID returns the requesting user's ID, or 0 for anonymous viewers.
func (h *PostsHandler) viewerID(r *http.Request) int64 {
	return middleware.SessionUserID(h.sessionManager, r)
}

// logModerationEvent records an admin acting on another user's post.
func (h *PostsHandler) logModerationEvent(r *http.Request, message string, postID int64) {
	_, err := h.queries.CreateEvent(r.Context(), store.CreateEventParams{
		Level:     model.EventLevelInfo,
		Category:  model.EventCategoryModeration,
		Message:   message,
		UserID:    sql.NullInt64{Int64: h.viewerID(r), Valid: true},
		IP:        middleware.ClientIP(r),
		Path:      r.URL.Path,
		CreatedAt: time.Now(),
	})
	if err != nil {
		slog.Error("failed to record moderation event", "error", err, "post_id", postID)
	}
}

// List handles GET /posts. Each post carries the viewer's like/hate status.
func (h *PostsHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.queries.ListPosts(r.Context(), h.viewerID(r))
	if err != nil {
		slog.Error("failed to list posts", "error", err)
		WriteInternalError(w)
		return
	}

	WriteSuccess(w, storePostsToResponses(posts))
}

// ListByUser handles GET /posts/user/{id}.
func (h *PostsHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	creatorID, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid user ID", nil)
		return
	}

	posts, err := h.queries.ListPostsByCreator(r.Context(), store.ListPostsByCreatorParams{
		CreatorID: creatorID,
		ViewerID:  h.viewerID(r),
	})
	if err != nil {
		slog.Error("failed to list posts by creator", "error", err, "creator_id", creatorID)
		WriteInternalError(w)
		return
	}

	WriteSuccess(w, storePostsToResponses(posts))
}

// Get handles GET /posts/{id}.
func (h *PostsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid post ID", nil)
		return
	}

	post, err := h.queries.GetPostWithReactions(r.Context(), store.GetPostWithReactionsParams{
		ID:       id,
		ViewerID: h.viewerID(r),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Post not found")
			return
		}
		slog.Error("failed to get post", "error", err, "post_id", id)
		WriteInternalError(w)
		return
	}

	WriteSuccess(w, storePostToResponse(post))
}

// PostRequest is the expected body for creating or editing a post. Creator
// and timestamps are server-controlled and absent from the schema, so a
// client-supplied creator can never take effect.
type PostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Tag     string `json:"tag,omitempty"`
}

// validate returns field error messages, or an empty map when valid.
func (req PostRequest) validate() map[string]string {
	fieldErrors := make(map[string]string)
	if msg := ValidatePostTitle(req.Title); msg != "" {
		fieldErrors["title"] = msg
	}
	if msg := ValidatePostContent(req.Content); msg != "" {
		fieldErrors["content"] = msg
	}
	if msg := ValidatePostTag(req.Tag); msg != "" {
		fieldErrors["tag"] = msg
	}
	return fieldErrors
}

// Create handles POST /posts. The creator is always the session user.
func (h *PostsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req PostRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if fieldErrors := req.validate(); len(fieldErrors) > 0 {
		WriteValidationError(w, fieldErrors)
		return
	}

	post, err := h.queries.CreatePost(r.Context(), store.CreatePostParams{
		CreatorID: h.viewerID(r),
		Title:     req.Title,
		Content:   req.Content,
		Tag:       nullString(req.Tag),
		CreatedAt: time.Now(),
	})
	if err != nil {
		slog.Error("failed to create post", "error", err)
		WriteInternalError(w)
		return
	}

	slog.Info("post created", "post_id", post.ID, "creator_id", post.CreatorID)
	WriteSuccess(w, storePostToResponse(store.PostWithReactions{Post: post}))
}

// Update handles PUT /posts/{id}. The creator-or-admin guard has already
// confirmed the post exists and the session may edit it.
func (h *PostsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid post ID", nil)
		return
	}

	var req PostRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if fieldErrors := req.validate(); len(fieldErrors) > 0 {
		WriteValidationError(w, fieldErrors)
		return
	}

	if _, err := h.queries.UpdatePost(r.Context(), store.UpdatePostParams{
		Title:    req.Title,
		Content:  req.Content,
		Tag:      nullString(req.Tag),
		EditedAt: time.Now(),
		ID:       id,
	}); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Post not found")
			return
		}
		slog.Error("failed to update post", "error", err, "post_id", id)
		WriteInternalError(w)
		return
	}

	post, err := h.queries.GetPostWithReactions(r.Context(), store.GetPostWithReactionsParams{
		ID:       id,
		ViewerID: h.viewerID(r),
	})
	if err != nil {
		slog.Error("failed to reload post", "error", err, "post_id", id)
		WriteInternalError(w)
		return
	}

	if post.CreatorID != h.viewerID(r) {
		h.logModerationEvent(r, "Post edited by admin", id)
	}

	slog.Info("post edited", "post_id", id, "user_id", h.viewerID(r))
	WriteSuccess(w, storePostToResponse(post))
}

// Delete handles DELETE /posts/{id}, behind the creator-or-admin guard.
func (h *PostsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid post ID", nil)
		return
	}

	post, err := h.queries.GetPostWithReactions(r.Context(), store.GetPostWithReactionsParams{
		ID:       id,
		ViewerID: h.viewerID(r),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Post not found")
			return
		}
		slog.Error("failed to get post", "error", err, "post_id", id)
		WriteInternalError(w)
		return
	}

	if err := h.queries.DeletePost(r.Context(), id); err != nil {
		slog.Error("failed to delete post", "error", err, "post_id", id)
		WriteInternalError(w)
		return
	}

	if post.CreatorID != h.viewerID(r) {
		h.logModerationEvent(r, "Post removed by admin", id)
	}

	slog.Info("post deleted", "post_id", id, "user_id", h.viewerID(r))
	WriteSuccess(w, storePostToResponse(post))
}

// react applies a like or hate for the session user. The store applies the
// flip as one atomic write, so the two reaction sets stay disjoint under
// concurrent requests and re-reacting is idempotent.
func (h *PostsHandler) react(w http.ResponseWriter, r *http.Request, kind string) {
	id, err := ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid post ID", nil)
		return
	}

	userID := h.viewerID(r)

	if _, err := h.queries.GetPostByID(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Post not found")
			return
		}
		slog.Error("failed to get post", "error", err, "post_id", id)
		WriteInternalError(w)
		return
	}

	if err := h.queries.SetReaction(r.Context(), store.SetReactionParams{
		PostID:    id,
		UserID:    userID,
		Kind:      kind,
		CreatedAt: time.Now(),
	}); err != nil {
		slog.Error("failed to set reaction", "error", err, "post_id", id, "user_id", userID)
		WriteInternalError(w)
		return
	}

	post, err := h.queries.GetPostWithReactions(r.Context(), store.GetPostWithReactionsParams{
		ID:       id,
		ViewerID: userID,
	})
	if err != nil {
		slog.Error("failed to reload post", "error", err, "post_id", id)
		WriteInternalError(w)
		return
	}

	WriteSuccess(w, storePostToResponse(post))
}

// Like handles PUT /posts/like/{id}.
func (h *PostsHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.react(w, r, store.ReactionLike)
}

// Hate handles PUT /posts/hate/{id}.
func (h *PostsHandler) Hate(w http.ResponseWriter, r *http.Request) {
	h.react(w, r, store.ReactionHate)
}
