// Package users carries the profile and user-administration handlers.
// Deletion goes through the blog service so the content cascade always
// runs, whoever initiates it.
package users

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tlemoine/blog-platform/backend/internal/apperr"
	"github.com/tlemoine/blog-platform/backend/internal/blog"
	"github.com/tlemoine/blog-platform/backend/internal/httpx"
	"github.com/tlemoine/blog-platform/backend/internal/middleware"
	"github.com/tlemoine/blog-platform/backend/internal/models"
	"github.com/tlemoine/blog-platform/backend/internal/store"
)

// Store is the user persistence the profile handlers need.
type Store interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, u *models.User) (*models.User, error)
}

type Handler struct {
	store     Store
	svc       *blog.Service
	images    blog.ImageStore
	maxUpload int64
}

func NewHandler(store Store, svc *blog.Service, images blog.ImageStore, maxUpload int64) *Handler {
	return &Handler{store: store, svc: svc, images: images, maxUpload: maxUpload}
}

// List returns every user with their post count (admin only).
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsersWithPostCounts(r.Context(), middleware.UserFrom(r.Context()))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, users)
}

// Me returns the acting user's profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, middleware.UserFrom(r.Context()))
}

// UpdateProfile mutates the acting user's own profile fields. The body
// is a multipart form so a new profile picture can ride along.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFrom(r.Context())
	oldPicture := actor.ProfilePicture

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		httpx.Error(w, apperr.E(apperr.Validation, "invalid form data"))
		return
	}
	if v := r.FormValue("username"); v != "" {
		actor.Username = v
	}
	if v := r.FormValue("email"); v != "" {
		actor.Email = v
	}
	if v := r.FormValue("bio"); v != "" {
		actor.Bio = v
	}

	file, header, err := r.FormFile("profilePicture")
	if err == nil {
		defer file.Close()
		mime := header.Header.Get("Content-Type")
		if !strings.HasPrefix(mime, "image/") {
			httpx.Error(w, apperr.E(apperr.Validation, "only images are allowed"))
			return
		}
		ref, err := h.images.UploadImage(r.Context(), "profiles", header.Filename, mime, header.Size, file)
		if err != nil {
			httpx.Error(w, apperr.Wrap(apperr.Internal, err, "image upload failed"))
			return
		}
		actor.ProfilePicture = ref
	} else if err != http.ErrMissingFile {
		httpx.Error(w, apperr.E(apperr.Validation, "invalid image upload"))
		return
	}

	updated, err := h.store.UpdateProfile(r.Context(), actor)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			httpx.Error(w, apperr.E(apperr.Validation, "Username or email already taken"))
			return
		}
		if errors.Is(err, store.ErrNotFound) {
			httpx.Error(w, apperr.E(apperr.NotFound, "User not found"))
			return
		}
		httpx.Error(w, apperr.Wrap(apperr.Internal, err, "profile update failed"))
		return
	}
	if oldPicture != "" && updated.ProfilePicture != oldPicture {
		if err := h.images.Remove(r.Context(), oldPicture); err != nil {
			log.Printf("remove image %s: %v", oldPicture, err)
		}
	}
	httpx.JSON(w, http.StatusOK, updated)
}

// DeleteProfile is self-deletion: the full content cascade runs before
// the account is removed.
func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFrom(r.Context())
	if err := h.svc.DeleteUser(r.Context(), actor, actor.ID); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Profile deleted successfully")
}

// Delete removes another user (admin only; admins are never valid
// targets). Runs the same cascade as self-deletion.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFrom(r.Context())
	if err := h.svc.DeleteUser(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Message(w, http.StatusOK, "User deleted successfully")
}
