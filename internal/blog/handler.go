package blog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tlemoine/blog-platform/backend/internal/apperr"
	"github.com/tlemoine/blog-platform/backend/internal/httpx"
	"github.com/tlemoine/blog-platform/backend/internal/middleware"
)

// ImageStore is the object storage slice the content handlers need for
// post images and the uploads proxy.
type ImageStore interface {
	UploadImage(ctx context.Context, prefix, filename, contentType string, size int64, r io.Reader) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
	Remove(ctx context.Context, ref string) error
}

// Handler holds the content-graph HTTP handlers.
type Handler struct {
	svc       *Service
	images    ImageStore
	maxUpload int64
}

func NewHandler(svc *Service, images ImageStore, maxUpload int64) *Handler {
	return &Handler{svc: svc, images: images, maxUpload: maxUpload}
}

// postForm extracts the post fields from either a multipart form (the
// client sends one when an image is attached) or a JSON body. The
// returned input's Image is nil unless a file was uploaded or removal
// was requested.
func (h *Handler) postForm(r *http.Request, prefix string) (PostInput, error) {
	var in PostInput

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		var body struct {
			Title    string `json:"title"`
			Content  string `json:"content"`
			Category string `json:"category"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return in, apperr.E(apperr.Validation, "invalid request body")
		}
		in.Title, in.Content, in.CategoryID = body.Title, body.Content, body.Category
		return in, nil
	}

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		return in, apperr.E(apperr.Validation, "invalid form data")
	}
	in.Title = r.FormValue("title")
	in.Content = r.FormValue("content")
	in.CategoryID = r.FormValue("category")

	file, header, err := r.FormFile("image")
	switch {
	case err == http.ErrMissingFile:
		if r.FormValue("removeImage") == "true" {
			empty := ""
			in.Image = &empty
		}
	case err != nil:
		return in, apperr.E(apperr.Validation, "invalid image upload")
	default:
		defer file.Close()
		mime := header.Header.Get("Content-Type")
		if !strings.HasPrefix(mime, "image/") {
			return in, apperr.E(apperr.Validation, "only images are allowed")
		}
		ref, err := h.images.UploadImage(r.Context(), prefix, header.Filename, mime, header.Size, file)
		if err != nil {
			return in, apperr.Wrap(apperr.Internal, err, "image upload failed")
		}
		in.Image = &ref
	}
	return in, nil
}

// ── Posts ────────────────────────────────────────────────

func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.ListPosts(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, posts)
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.svc.GetPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, post)
}

// MyPosts lists the acting user's own posts.
func (h *Handler) MyPosts(w http.ResponseWriter, r *http.Request) {
	actor := middleware.UserFrom(r.Context())
	posts, err := h.svc.ListPostsByAuthor(r.Context(), actor.ID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, posts)
}

func (h *Handler) UserPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.ListPostsByAuthor(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, posts)
}

func (h *Handler) PostsByCategory(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.ListPostsByCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, posts)
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	in, err := h.postForm(r, "posts")
	if err != nil {
		httpx.Error(w, err)
		return
	}
	post, err := h.svc.CreatePost(r.Context(), middleware.UserFrom(r.Context()), in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, post)
}

func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	in, err := h.postForm(r, "posts")
	if err != nil {
		httpx.Error(w, err)
		return
	}
	post, err := h.svc.UpdatePost(r.Context(), middleware.UserFrom(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, post)
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeletePost(r.Context(), middleware.UserFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Post deleted successfully")
}

// ── Likes ────────────────────────────────────────────────

func (h *Handler) ListLikes(w http.ResponseWriter, r *http.Request) {
	likes, err := h.svc.ListLikes(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, likes)
}

func (h *Handler) LikePost(w http.ResponseWriter, r *http.Request) {
	err := h.svc.LikePost(r.Context(), middleware.UserFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Message(w, http.StatusCreated, "Post liked successfully")
}

func (h *Handler) UnlikePost(w http.ResponseWriter, r *http.Request) {
	err := h.svc.UnlikePost(r.Context(), middleware.UserFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Post unliked successfully")
}

func (h *Handler) LikeStatus(w http.ResponseWriter, r *http.Request) {
	liked, err := h.svc.LikeStatus(r.Context(), middleware.UserFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"liked": liked})
}

// ── Comments ─────────────────────────────────────────────

func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.svc.ListComments(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, comments)
}

func (h *Handler) PostComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.svc.ListCommentsByPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, comments)
}

// CommentsByPost serves GET /comments/post/{postID}.
func (h *Handler) CommentsByPost(w http.ResponseWriter, r *http.Request) {
	comments, err := h.svc.ListCommentsByPost(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, comments)
}

// CreatePostComment serves POST /posts/{id}/comments, taking the post id
// from the path.
func (h *Handler) CreatePostComment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.Error(w, apperr.E(apperr.Validation, "invalid request body"))
		return
	}
	comment, err := h.svc.CreateComment(r.Context(), middleware.UserFrom(r.Context()),
		chi.URLParam(r, "id"), body.Content)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, comment)
}

// CreateComment serves POST /comments, taking the post id from the body.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PostID  string `json:"postId"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.Error(w, apperr.E(apperr.Validation, "invalid request body"))
		return
	}
	comment, err := h.svc.CreateComment(r.Context(), middleware.UserFrom(r.Context()),
		body.PostID, body.Content)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, comment)
}

func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.Error(w, apperr.E(apperr.Validation, "invalid request body"))
		return
	}
	comment, err := h.svc.UpdateComment(r.Context(), middleware.UserFrom(r.Context()),
		chi.URLParam(r, "id"), body.Content)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, comment)
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeleteComment(r.Context(), middleware.UserFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Comment deleted successfully")
}

// ── Categories ───────────────────────────────────────────

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.ListCategories(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cats)
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	cat, err := h.svc.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cat)
}

func (h *Handler) CategoryPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.ListPostsByCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, posts)
}

func decodeTitle(r *http.Request) (string, error) {
	// The admin screens historically posted `name`, everything else
	// posts `title`; accept both.
	var body struct {
		Title string `json:"title"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return "", apperr.E(apperr.Validation, "invalid request body")
	}
	if body.Title != "" {
		return body.Title, nil
	}
	return body.Name, nil
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	title, err := decodeTitle(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	cat, err := h.svc.CreateCategory(r.Context(), middleware.UserFrom(r.Context()), title)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, cat)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	title, err := decodeTitle(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	cat, err := h.svc.UpdateCategory(r.Context(), middleware.UserFrom(r.Context()),
		chi.URLParam(r, "id"), title)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cat)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeleteCategory(r.Context(), middleware.UserFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Category deleted successfully")
}

// ── Uploads ──────────────────────────────────────────────

// ServeUpload streams a stored image back by key (GET /uploads/*).
func (h *Handler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" || strings.Contains(key, "..") {
		httpx.Error(w, apperr.E(apperr.NotFound, "Not found"))
		return
	}
	obj, ct, err := h.images.Open(r.Context(), key)
	if err != nil {
		httpx.Error(w, apperr.E(apperr.NotFound, "Not found"))
		return
	}
	defer obj.Close()

	w.Header().Set("Content-Type", ct)
	io.Copy(w, obj)
}
