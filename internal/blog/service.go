// Package blog implements the content graph: posts, comments, likes,
// and categories, plus the integrity rules that fire when any of them
// (or a user) is deleted. Every mutation is authorized through the
// authz table before it touches storage, and every multi-document
// cascade runs inside a single store transaction.
package blog

import (
	"context"
	"errors"
	"log"
	"slices"

	"github.com/tlemoine/blog-platform/backend/internal/apperr"
	"github.com/tlemoine/blog-platform/backend/internal/authz"
	"github.com/tlemoine/blog-platform/backend/internal/models"
	"github.com/tlemoine/blog-platform/backend/internal/store"
)

// ContentStore is everything the service needs from the document store.
// *store.MongoStore implements it; tests use a map-backed fake.
type ContentStore interface {
	InTxn(ctx context.Context, fn func(ctx context.Context) error) error

	InsertPost(ctx context.Context, p *models.Post) (string, error)
	GetPost(ctx context.Context, id string) (*models.Post, error)
	ListPosts(ctx context.Context) ([]models.Post, error)
	ListPostsByAuthor(ctx context.Context, authorID string) ([]models.Post, error)
	ListPostsByCategory(ctx context.Context, categoryID string) ([]models.Post, error)
	ListPostIDsByAuthor(ctx context.Context, authorID string) ([]string, error)
	UpdatePost(ctx context.Context, p *models.Post) error
	DeletePost(ctx context.Context, id string) error
	DeletePostsByAuthor(ctx context.Context, authorID string) error
	AdjustPostLikes(ctx context.Context, id string, delta int64) error
	CountPosts(ctx context.Context) (int64, error)
	CountPostsByCategory(ctx context.Context, categoryID string) (int64, error)
	CountPostsByAuthor(ctx context.Context, authorID string) (int64, error)
	RecentPosts(ctx context.Context, limit int64) ([]models.Post, error)

	InsertComment(ctx context.Context, c *models.Comment) (string, error)
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	ListComments(ctx context.Context) ([]models.Comment, error)
	ListCommentsByPost(ctx context.Context, postID string) ([]models.Comment, error)
	UpdateComment(ctx context.Context, id, content string) error
	DeleteComment(ctx context.Context, id string) error
	DeleteCommentsByPosts(ctx context.Context, postIDs []string) error
	DeleteCommentsByAuthor(ctx context.Context, authorID string) error
	CountComments(ctx context.Context) (int64, error)
	RecentComments(ctx context.Context, limit int64) ([]models.Comment, error)

	InsertLike(ctx context.Context, l *models.Like) (string, error)
	GetLike(ctx context.Context, userID, postID string) (*models.Like, error)
	DeleteLike(ctx context.Context, userID, postID string) error
	ListLikesByPost(ctx context.Context, postID string) ([]models.Like, error)
	ListLikesByUser(ctx context.Context, userID string) ([]models.Like, error)
	DeleteLikesByPosts(ctx context.Context, postIDs []string) error
	DeleteLikesByUser(ctx context.Context, userID string) error

	InsertCategory(ctx context.Context, c *models.Category) (string, error)
	GetCategory(ctx context.Context, id string) (*models.Category, error)
	FindCategoryByTitle(ctx context.Context, title, excludeID string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	UpdateCategory(ctx context.Context, id, title string) error
	DeleteCategory(ctx context.Context, id string) error
	CountCategories(ctx context.Context) (int64, error)
}

// UserDirectory is the slice of the user store the content graph needs:
// resolving authors for display and the user half of the deletion
// cascade.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUserSummaries(ctx context.Context, ids []string) (map[string]models.UserSummary, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	SetRole(ctx context.Context, id string, role models.Role) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	CountUsers(ctx context.Context) (int64, error)
	RecentUsers(ctx context.Context, limit int) ([]models.User, error)
}

// ImageRemover deletes stored image objects by their reference string.
// *store.MinioStore implements it.
type ImageRemover interface {
	Remove(ctx context.Context, ref string) error
}

type Service struct {
	content ContentStore
	users   UserDirectory
	images  ImageRemover
}

func NewService(content ContentStore, users UserDirectory, images ImageRemover) *Service {
	return &Service{content: content, users: users, images: images}
}

func internalErr(err error) error {
	return apperr.Wrap(apperr.Internal, err, "Something went wrong!")
}

// notFoundOr maps the store's not-found sentinel to a NotFound taxonomy
// error and everything else to Internal.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.E(apperr.NotFound, "%s", msg)
	}
	return internalErr(err)
}

// removeImage drops an object after the mutation that orphaned it has
// committed. Best effort: a leaked object beats failing the request.
func (s *Service) removeImage(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.images.Remove(ctx, ref); err != nil {
		log.Printf("remove image %s: %v", ref, err)
	}
}

// ── Posts ────────────────────────────────────────────────

// PostInput carries the mutable post fields from the transport layer.
// Image is the already-uploaded reference string; a nil Image on update
// means keep the current one, an empty non-nil one means remove it.
type PostInput struct {
	Title      string
	Content    string
	CategoryID string
	Image      *string
}

func (s *Service) CreatePost(ctx context.Context, actor *models.User, in PostInput) (*models.Post, error) {
	if err := authz.Can(actor, authz.PostCreate, authz.Resource{}); err != nil {
		return nil, err
	}
	if in.Title == "" || in.Content == "" {
		return nil, apperr.E(apperr.Validation, "title and content are required")
	}
	if in.CategoryID != "" {
		if _, err := s.content.GetCategory(ctx, in.CategoryID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, apperr.E(apperr.Validation, "Category not found")
			}
			return nil, internalErr(err)
		}
	}

	post := &models.Post{
		Title:      in.Title,
		Content:    in.Content,
		AuthorID:   actor.ID,
		CategoryID: in.CategoryID,
	}
	if in.Image != nil {
		post.Image = *in.Image
	}
	if _, err := s.content.InsertPost(ctx, post); err != nil {
		return nil, internalErr(err)
	}
	return s.enrichPost(ctx, post)
}

func (s *Service) GetPost(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.content.GetPost(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Post not found")
	}
	return s.enrichPost(ctx, post)
}

func (s *Service) ListPosts(ctx context.Context) ([]models.Post, error) {
	posts, err := s.content.ListPosts(ctx)
	if err != nil {
		return nil, internalErr(err)
	}
	return s.enrichPosts(ctx, posts)
}

func (s *Service) ListPostsByAuthor(ctx context.Context, authorID string) ([]models.Post, error) {
	posts, err := s.content.ListPostsByAuthor(ctx, authorID)
	if err != nil {
		return nil, internalErr(err)
	}
	return s.enrichPosts(ctx, posts)
}

func (s *Service) ListPostsByCategory(ctx context.Context, categoryID string) ([]models.Post, error) {
	posts, err := s.content.ListPostsByCategory(ctx, categoryID)
	if err != nil {
		return nil, internalErr(err)
	}
	return s.enrichPosts(ctx, posts)
}

func (s *Service) UpdatePost(ctx context.Context, actor *models.User, id string, in PostInput) (*models.Post, error) {
	post, err := s.content.GetPost(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Post not found")
	}
	if err := authz.Can(actor, authz.PostUpdate, authz.Owned(post.AuthorID)); err != nil {
		return nil, err
	}
	oldImage := post.Image

	if in.Title != "" {
		post.Title = in.Title
	}
	if in.Content != "" {
		post.Content = in.Content
	}
	if in.Image != nil {
		post.Image = *in.Image
	}
	if in.CategoryID != "" {
		if _, err := s.content.GetCategory(ctx, in.CategoryID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, apperr.E(apperr.Validation, "Category not found")
			}
			return nil, internalErr(err)
		}
		post.CategoryID = in.CategoryID
	}

	if err := s.content.UpdatePost(ctx, post); err != nil {
		return nil, notFoundOr(err, "Post not found")
	}
	if post.Image != oldImage {
		s.removeImage(ctx, oldImage)
	}
	return s.enrichPost(ctx, post)
}

// DeletePost removes the post together with every comment and like that
// references it, as one transaction.
func (s *Service) DeletePost(ctx context.Context, actor *models.User, id string) error {
	post, err := s.content.GetPost(ctx, id)
	if err != nil {
		return notFoundOr(err, "Post not found")
	}
	if err := authz.Can(actor, authz.PostDelete, authz.Owned(post.AuthorID)); err != nil {
		return err
	}

	err = s.content.InTxn(ctx, func(ctx context.Context) error {
		if err := s.content.DeleteCommentsByPosts(ctx, []string{id}); err != nil {
			return err
		}
		if err := s.content.DeleteLikesByPosts(ctx, []string{id}); err != nil {
			return err
		}
		return s.content.DeletePost(ctx, id)
	})
	if err != nil {
		return notFoundOr(err, "Post not found")
	}
	s.removeImage(ctx, post.Image)
	return nil
}

// ── Comments ─────────────────────────────────────────────

func (s *Service) CreateComment(ctx context.Context, actor *models.User, postID, content string) (*models.Comment, error) {
	if err := authz.Can(actor, authz.CommentCreate, authz.Resource{}); err != nil {
		return nil, err
	}
	if content == "" {
		return nil, apperr.E(apperr.Validation, "content is required")
	}
	if _, err := s.content.GetPost(ctx, postID); err != nil {
		return nil, notFoundOr(err, "Post not found")
	}

	comment := &models.Comment{
		Content:  content,
		AuthorID: actor.ID,
		PostID:   postID,
	}
	if _, err := s.content.InsertComment(ctx, comment); err != nil {
		return nil, internalErr(err)
	}
	return s.enrichComment(ctx, comment)
}

func (s *Service) ListComments(ctx context.Context) ([]models.Comment, error) {
	comments, err := s.content.ListComments(ctx)
	if err != nil {
		return nil, internalErr(err)
	}
	return s.enrichComments(ctx, comments, true)
}

func (s *Service) ListCommentsByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	comments, err := s.content.ListCommentsByPost(ctx, postID)
	if err != nil {
		return nil, internalErr(err)
	}
	return s.enrichComments(ctx, comments, false)
}

func (s *Service) UpdateComment(ctx context.Context, actor *models.User, id, content string) (*models.Comment, error) {
	comment, err := s.content.GetComment(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Comment not found")
	}
	if err := authz.Can(actor, authz.CommentUpdate, authz.Owned(comment.AuthorID)); err != nil {
		return nil, err
	}
	if content == "" {
		return nil, apperr.E(apperr.Validation, "content is required")
	}

	if err := s.content.UpdateComment(ctx, id, content); err != nil {
		return nil, notFoundOr(err, "Comment not found")
	}
	comment.Content = content
	return s.enrichComment(ctx, comment)
}

// DeleteComment is a single delete: comments are found by querying on
// post id, so there is no back-reference list on the post to repair.
func (s *Service) DeleteComment(ctx context.Context, actor *models.User, id string) error {
	comment, err := s.content.GetComment(ctx, id)
	if err != nil {
		return notFoundOr(err, "Comment not found")
	}
	if err := authz.Can(actor, authz.CommentDelete, authz.Owned(comment.AuthorID)); err != nil {
		return err
	}
	if err := s.content.DeleteComment(ctx, id); err != nil {
		return notFoundOr(err, "Comment not found")
	}
	return nil
}

// ── Likes ────────────────────────────────────────────────

// LikePost records the like and bumps the post's denormalized counter in
// one transaction. Liking the same post twice is a conflict.
func (s *Service) LikePost(ctx context.Context, actor *models.User, postID string) error {
	if err := authz.Can(actor, authz.LikeCreate, authz.Resource{}); err != nil {
		return err
	}
	if _, err := s.content.GetPost(ctx, postID); err != nil {
		return notFoundOr(err, "Post not found")
	}
	if _, err := s.content.GetLike(ctx, actor.ID, postID); err == nil {
		return apperr.E(apperr.Conflict, "Post already liked")
	} else if !errors.Is(err, store.ErrNotFound) {
		return internalErr(err)
	}

	err := s.content.InTxn(ctx, func(ctx context.Context) error {
		if _, err := s.content.InsertLike(ctx, &models.Like{UserID: actor.ID, PostID: postID}); err != nil {
			return err
		}
		return s.content.AdjustPostLikes(ctx, postID, 1)
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Lost the race to the unique (user, post) index.
			return apperr.E(apperr.Conflict, "Post already liked")
		}
		return internalErr(err)
	}
	return nil
}

// UnlikePost removes the like and decrements the counter, which never
// drops below zero. Unliking a post that was never liked is a conflict.
func (s *Service) UnlikePost(ctx context.Context, actor *models.User, postID string) error {
	// The like is looked up by the actor's own id, so ownership holds by
	// construction; the guard here rejects anonymous actors.
	res := authz.Resource{}
	if actor != nil {
		res.OwnerID = actor.ID
	}
	if err := authz.Can(actor, authz.LikeDelete, res); err != nil {
		return err
	}
	if _, err := s.content.GetPost(ctx, postID); err != nil {
		return notFoundOr(err, "Post not found")
	}
	if _, err := s.content.GetLike(ctx, actor.ID, postID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.E(apperr.Conflict, "Post not liked yet")
		}
		return internalErr(err)
	}

	err := s.content.InTxn(ctx, func(ctx context.Context) error {
		if err := s.content.DeleteLike(ctx, actor.ID, postID); err != nil {
			return err
		}
		return s.content.AdjustPostLikes(ctx, postID, -1)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.E(apperr.Conflict, "Post not liked yet")
		}
		return internalErr(err)
	}
	return nil
}

func (s *Service) ListLikes(ctx context.Context, postID string) ([]models.Like, error) {
	likes, err := s.content.ListLikesByPost(ctx, postID)
	if err != nil {
		return nil, internalErr(err)
	}
	ids := make([]string, 0, len(likes))
	for _, l := range likes {
		ids = append(ids, l.UserID)
	}
	summaries, err := s.users.ListUserSummaries(ctx, dedupe(ids))
	if err != nil {
		return nil, internalErr(err)
	}
	for i := range likes {
		if u, ok := summaries[likes[i].UserID]; ok {
			likes[i].User = &u
		}
	}
	return likes, nil
}

// LikeStatus reports whether actor has liked the post.
func (s *Service) LikeStatus(ctx context.Context, actor *models.User, postID string) (bool, error) {
	_, err := s.content.GetLike(ctx, actor.ID, postID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return false, internalErr(err)
}

// ── Categories ───────────────────────────────────────────

func (s *Service) CreateCategory(ctx context.Context, actor *models.User, title string) (*models.Category, error) {
	if err := authz.Can(actor, authz.CategoryCreate, authz.Resource{}); err != nil {
		return nil, err
	}
	if title == "" {
		return nil, apperr.E(apperr.Validation, "title is required")
	}
	if _, err := s.content.FindCategoryByTitle(ctx, title, ""); err == nil {
		return nil, apperr.E(apperr.Validation, "Category with this title already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, internalErr(err)
	}

	cat := &models.Category{Title: title}
	if _, err := s.content.InsertCategory(ctx, cat); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.E(apperr.Conflict, "Category with this title already exists")
		}
		return nil, internalErr(err)
	}
	return cat, nil
}

func (s *Service) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	cat, err := s.content.GetCategory(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Category not found")
	}
	n, err := s.content.CountPostsByCategory(ctx, id)
	if err != nil {
		return nil, internalErr(err)
	}
	cat.PostCount = n
	return cat, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	cats, err := s.content.ListCategories(ctx)
	if err != nil {
		return nil, internalErr(err)
	}
	for i := range cats {
		n, err := s.content.CountPostsByCategory(ctx, cats[i].ID.Hex())
		if err != nil {
			return nil, internalErr(err)
		}
		cats[i].PostCount = n
	}
	return cats, nil
}

// UpdateCategory renames a category; the case-insensitive uniqueness
// check excludes the record itself.
func (s *Service) UpdateCategory(ctx context.Context, actor *models.User, id, title string) (*models.Category, error) {
	if err := authz.Can(actor, authz.CategoryUpdate, authz.Resource{}); err != nil {
		return nil, err
	}
	if title == "" {
		return nil, apperr.E(apperr.Validation, "title is required")
	}
	cat, err := s.content.GetCategory(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Category not found")
	}
	if _, err := s.content.FindCategoryByTitle(ctx, title, id); err == nil {
		return nil, apperr.E(apperr.Validation, "Category with this title already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, internalErr(err)
	}

	if err := s.content.UpdateCategory(ctx, id, title); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.E(apperr.Conflict, "Category with this title already exists")
		}
		return nil, notFoundOr(err, "Category not found")
	}
	cat.Title = title
	return cat, nil
}

// DeleteCategory refuses to remove a category while posts still
// reference it. Posts are never deleted or detached through this path.
func (s *Service) DeleteCategory(ctx context.Context, actor *models.User, id string) error {
	if err := authz.Can(actor, authz.CategoryDelete, authz.Resource{}); err != nil {
		return err
	}
	if _, err := s.content.GetCategory(ctx, id); err != nil {
		return notFoundOr(err, "Category not found")
	}
	n, err := s.content.CountPostsByCategory(ctx, id)
	if err != nil {
		return internalErr(err)
	}
	if n > 0 {
		return apperr.E(apperr.Conflict, "Cannot delete category that has posts")
	}
	if err := s.content.DeleteCategory(ctx, id); err != nil {
		return notFoundOr(err, "Category not found")
	}
	return nil
}

// ── Users ────────────────────────────────────────────────

// DeleteUser removes the target user and all content attached to them:
// their posts (with those posts' comments and likes), their comments on
// other posts, and their likes on other posts (decrementing the
// surviving posts' counters). The content half runs as one transaction;
// the user row goes last, so an interrupted cascade leaves a user with
// no content rather than content with no user.
func (s *Service) DeleteUser(ctx context.Context, actor *models.User, targetID string) error {
	target, err := s.users.GetUserByID(ctx, targetID)
	if err != nil {
		return notFoundOr(err, "User not found")
	}
	if err := authz.Can(actor, authz.UserDelete, authz.Resource{
		OwnerID:    target.ID,
		TargetRole: target.Role,
	}); err != nil {
		return err
	}

	// Fetched up front so the posts' image objects can be dropped once
	// everything has committed.
	posts, err := s.content.ListPostsByAuthor(ctx, target.ID)
	if err != nil {
		return internalErr(err)
	}

	err = s.content.InTxn(ctx, func(ctx context.Context) error {
		postIDs, err := s.content.ListPostIDsByAuthor(ctx, target.ID)
		if err != nil {
			return err
		}
		if err := s.content.DeleteCommentsByPosts(ctx, postIDs); err != nil {
			return err
		}
		if err := s.content.DeleteLikesByPosts(ctx, postIDs); err != nil {
			return err
		}

		// The user's likes on posts that survive them must give their
		// counters back.
		likes, err := s.content.ListLikesByUser(ctx, target.ID)
		if err != nil {
			return err
		}
		for _, l := range likes {
			if slices.Contains(postIDs, l.PostID) {
				continue // the post is going away with its counters
			}
			if err := s.content.AdjustPostLikes(ctx, l.PostID, -1); err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
		}
		if err := s.content.DeleteLikesByUser(ctx, target.ID); err != nil {
			return err
		}
		if err := s.content.DeleteCommentsByAuthor(ctx, target.ID); err != nil {
			return err
		}
		return s.content.DeletePostsByAuthor(ctx, target.ID)
	})
	if err != nil {
		return internalErr(err)
	}

	if err := s.users.DeleteUser(ctx, target.ID); err != nil {
		return notFoundOr(err, "User not found")
	}

	for _, p := range posts {
		s.removeImage(ctx, p.Image)
	}
	s.removeImage(ctx, target.ProfilePicture)
	return nil
}

// SetRole changes the target's role within the closed enumeration.
func (s *Service) SetRole(ctx context.Context, actor *models.User, targetID string, role models.Role) (*models.User, error) {
	if err := authz.Can(actor, authz.UserSetRole, authz.Resource{}); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperr.E(apperr.Validation, "Invalid role")
	}
	user, err := s.users.SetRole(ctx, targetID, role)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	return user, nil
}

// ListUsersWithPostCounts is the admin user-list view.
func (s *Service) ListUsersWithPostCounts(ctx context.Context, actor *models.User) ([]models.UserWithPostCount, error) {
	if err := authz.Can(actor, authz.AdminView, authz.Resource{}); err != nil {
		return nil, err
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, internalErr(err)
	}
	out := make([]models.UserWithPostCount, 0, len(users))
	for _, u := range users {
		n, err := s.content.CountPostsByAuthor(ctx, u.ID)
		if err != nil {
			return nil, internalErr(err)
		}
		out = append(out, models.UserWithPostCount{User: u, PostCount: n})
	}
	return out, nil
}

// ── Dashboard ────────────────────────────────────────────

// Stats is the admin dashboard aggregate: totals plus the five most
// recent of each entity.
type Stats struct {
	Counts struct {
		Users      int64 `json:"users"`
		Posts      int64 `json:"posts"`
		Comments   int64 `json:"comments"`
		Categories int64 `json:"categories"`
	} `json:"counts"`
	Recent struct {
		Users    []models.User    `json:"users"`
		Posts    []models.Post    `json:"posts"`
		Comments []models.Comment `json:"comments"`
	} `json:"recent"`
}

func (s *Service) DashboardStats(ctx context.Context, actor *models.User) (*Stats, error) {
	if err := authz.Can(actor, authz.AdminView, authz.Resource{}); err != nil {
		return nil, err
	}

	var st Stats
	var err error
	if st.Counts.Users, err = s.users.CountUsers(ctx); err != nil {
		return nil, internalErr(err)
	}
	if st.Counts.Posts, err = s.content.CountPosts(ctx); err != nil {
		return nil, internalErr(err)
	}
	if st.Counts.Comments, err = s.content.CountComments(ctx); err != nil {
		return nil, internalErr(err)
	}
	if st.Counts.Categories, err = s.content.CountCategories(ctx); err != nil {
		return nil, internalErr(err)
	}

	if st.Recent.Users, err = s.users.RecentUsers(ctx, 5); err != nil {
		return nil, internalErr(err)
	}
	posts, err := s.content.RecentPosts(ctx, 5)
	if err != nil {
		return nil, internalErr(err)
	}
	if st.Recent.Posts, err = s.enrichPosts(ctx, posts); err != nil {
		return nil, err
	}
	comments, err := s.content.RecentComments(ctx, 5)
	if err != nil {
		return nil, internalErr(err)
	}
	if st.Recent.Comments, err = s.enrichComments(ctx, comments, true); err != nil {
		return nil, err
	}
	return &st, nil
}

// ── Enrichment ───────────────────────────────────────────

func dedupe(ids []string) []string {
	slices.Sort(ids)
	return slices.Compact(ids)
}

func (s *Service) enrichPost(ctx context.Context, post *models.Post) (*models.Post, error) {
	posts, err := s.enrichPosts(ctx, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// enrichPosts resolves author summaries and category titles for display.
// Missing authors or categories simply stay nil.
func (s *Service) enrichPosts(ctx context.Context, posts []models.Post) ([]models.Post, error) {
	if len(posts) == 0 {
		return []models.Post{}, nil
	}
	authorIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		authorIDs = append(authorIDs, p.AuthorID)
	}
	summaries, err := s.users.ListUserSummaries(ctx, dedupe(authorIDs))
	if err != nil {
		return nil, internalErr(err)
	}

	categories := map[string]*models.CategoryRef{}
	for i := range posts {
		p := &posts[i]
		if u, ok := summaries[p.AuthorID]; ok {
			p.Author = &u
		}
		if p.CategoryID == "" {
			continue
		}
		ref, seen := categories[p.CategoryID]
		if !seen {
			cat, err := s.content.GetCategory(ctx, p.CategoryID)
			switch {
			case err == nil:
				ref = &models.CategoryRef{ID: p.CategoryID, Title: cat.Title}
			case errors.Is(err, store.ErrNotFound):
				ref = nil
			default:
				return nil, internalErr(err)
			}
			categories[p.CategoryID] = ref
		}
		p.Category = ref
	}
	return posts, nil
}

func (s *Service) enrichComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	comments, err := s.enrichComments(ctx, []models.Comment{*comment}, false)
	if err != nil {
		return nil, err
	}
	return &comments[0], nil
}

// enrichComments resolves authors, and post titles when withPostTitles
// is set (the admin views show which post each comment belongs to).
func (s *Service) enrichComments(ctx context.Context, comments []models.Comment, withPostTitles bool) ([]models.Comment, error) {
	if len(comments) == 0 {
		return []models.Comment{}, nil
	}
	authorIDs := make([]string, 0, len(comments))
	for _, c := range comments {
		authorIDs = append(authorIDs, c.AuthorID)
	}
	summaries, err := s.users.ListUserSummaries(ctx, dedupe(authorIDs))
	if err != nil {
		return nil, internalErr(err)
	}

	titles := map[string]string{}
	for i := range comments {
		c := &comments[i]
		if u, ok := summaries[c.AuthorID]; ok {
			c.Author = &u
		}
		if !withPostTitles {
			continue
		}
		title, seen := titles[c.PostID]
		if !seen {
			post, err := s.content.GetPost(ctx, c.PostID)
			switch {
			case err == nil:
				title = post.Title
			case errors.Is(err, store.ErrNotFound):
				title = ""
			default:
				return nil, internalErr(err)
			}
			titles[c.PostID] = title
		}
		c.PostTitle = title
	}
	return comments, nil
}
