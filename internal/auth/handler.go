package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/tlemoine/blog-platform/backend/internal/apperr"
	"github.com/tlemoine/blog-platform/backend/internal/httpx"
	"github.com/tlemoine/blog-platform/backend/internal/middleware"
	"github.com/tlemoine/blog-platform/backend/internal/models"
	"github.com/tlemoine/blog-platform/backend/internal/store"
)

// UserStore defines the identity persistence the auth handlers need.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, hashedPw string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users  UserStore
	tokens *TokenService
}

func NewHandler(users UserStore, tokens *TokenService) *Handler {
	return &Handler{users: users, tokens: tokens}
}

// Register creates a new user and returns it with a fresh token.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, apperr.E(apperr.Validation, "invalid request body"))
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		httpx.Error(w, apperr.E(apperr.Validation, "username, email, and password are required"))
		return
	}

	// Pre-check both unique fields so the message can say which one
	// collided; the database constraints remain the backstop for races.
	if _, err := h.users.GetUserByEmail(r.Context(), req.Email); err == nil {
		httpx.Error(w, apperr.E(apperr.Validation, "Email already exists"))
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		httpx.Error(w, apperr.Wrap(apperr.Internal, err, "registration failed"))
		return
	}
	if _, err := h.users.GetUserByUsername(r.Context(), req.Username); err == nil {
		httpx.Error(w, apperr.E(apperr.Validation, "Username already exists"))
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		httpx.Error(w, apperr.Wrap(apperr.Internal, err, "registration failed"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httpx.Error(w, apperr.Wrap(apperr.Internal, err, "registration failed"))
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.Username, req.Email, string(hashed))
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Lost the pre-check race; the constraint name in the error
			// says which field collided.
			msg := "Username already exists"
			if strings.Contains(err.Error(), "email") {
				msg = "Email already exists"
			}
			httpx.Error(w, apperr.E(apperr.Validation, "%s", msg))
			return
		}
		httpx.Error(w, apperr.Wrap(apperr.Internal, err, "registration failed"))
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, models.AuthResponse{Token: token, User: user})
}

// Login verifies credentials and returns a token. The unknown-email and
// wrong-password paths produce the same response.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, apperr.E(apperr.Validation, "invalid request body"))
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		httpx.Error(w, apperr.E(apperr.Authentication, "Invalid credentials"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		httpx.Error(w, apperr.E(apperr.Authentication, "Invalid credentials"))
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, models.AuthResponse{Token: token, User: user})
}

// Me returns the currently authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	if user == nil {
		httpx.Error(w, apperr.E(apperr.Authentication, "not authenticated"))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]*models.User{"user": user})
}
