// Package admin carries the dashboard and moderation handlers. Routes
// here sit behind the admin middleware gate; deletions still run through
// the blog service so every cascade and authorization rule applies.
package admin

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tlemoine/blog-platform/backend/internal/apperr"
	"github.com/tlemoine/blog-platform/backend/internal/blog"
	"github.com/tlemoine/blog-platform/backend/internal/httpx"
	"github.com/tlemoine/blog-platform/backend/internal/middleware"
	"github.com/tlemoine/blog-platform/backend/internal/models"
)

const statsCacheKey = "admin:stats"

// UserLister is the user-store slice the bulk user view needs.
type UserLister interface {
	ListUsers(ctx context.Context) ([]models.User, error)
}

// StatsCache is a TTL'd byte cache for the dashboard aggregate.
// *store.Cache implements it.
type StatsCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Invalidate(ctx context.Context, key string)
}

type Handler struct {
	svc   *blog.Service
	users UserLister
	cache StatsCache
}

func NewHandler(svc *blog.Service, users UserLister, cache StatsCache) *Handler {
	return &Handler{svc: svc, users: users, cache: cache}
}

// Users lists every user account.
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		httpx.Error(w, apperr.Wrap(apperr.Internal, err, "could not list users"))
		return
	}
	if users == nil {
		users = []models.User{}
	}
	httpx.JSON(w, http.StatusOK, users)
}

// Posts lists every post with author and category resolved.
func (h *Handler) Posts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.ListPosts(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, posts)
}

// Comments lists every comment with author and post title resolved.
func (h *Handler) Comments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.svc.ListComments(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, comments)
}

// Categories lists every category with its post count.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.ListCategories(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cats)
}

// Stats serves the dashboard aggregate, cached in Redis for a short TTL
// since it fans out over every collection.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if cached, err := h.cache.Get(r.Context(), statsCacheKey); err == nil && cached != nil {
		w.Header().Set("Content-Type", "application/json")
		w.Write(cached)
		return
	} else if err != nil {
		log.Printf("stats cache read: %v", err)
	}

	stats, err := h.svc.DashboardStats(r.Context(), middleware.UserFrom(r.Context()))
	if err != nil {
		httpx.Error(w, err)
		return
	}

	body, err := json.Marshal(stats)
	if err != nil {
		httpx.Error(w, apperr.Wrap(apperr.Internal, err, "could not encode stats"))
		return
	}
	if err := h.cache.Set(r.Context(), statsCacheKey, body); err != nil {
		log.Printf("stats cache write: %v", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// DeletePost is the moderation path; the same cascade fires as when the
// author deletes their own post.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeletePost(r.Context(), middleware.UserFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	h.cache.Invalidate(r.Context(), statsCacheKey)
	httpx.Message(w, http.StatusOK, "Post deleted successfully")
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeleteComment(r.Context(), middleware.UserFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	h.cache.Invalidate(r.Context(), statsCacheKey)
	httpx.Message(w, http.StatusOK, "Comment deleted successfully")
}

// SetRole changes a user's role within the {user, admin} enumeration.
func (h *Handler) SetRole(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Role models.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.Error(w, apperr.E(apperr.Validation, "invalid request body"))
		return
	}
	user, err := h.svc.SetRole(r.Context(), middleware.UserFrom(r.Context()),
		chi.URLParam(r, "id"), body.Role)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}
