package blog

import (
	"context"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tlemoine/blog-platform/backend/internal/models"
	"github.com/tlemoine/blog-platform/backend/internal/store"
)

// Map-backed fakes of ContentStore and UserDirectory. Every rule the
// tests exercise lives in the service, so these only need faithful
// lookup/insert/delete semantics (including the like-counter clamp and
// the unique like pair).

type fakeContent struct {
	posts      map[string]*models.Post
	comments   map[string]*models.Comment
	likes      map[string]*models.Like
	categories map[string]*models.Category
}

func newFakeContent() *fakeContent {
	return &fakeContent{
		posts:      map[string]*models.Post{},
		comments:   map[string]*models.Comment{},
		likes:      map[string]*models.Like{},
		categories: map[string]*models.Category{},
	}
}

func (f *fakeContent) InTxn(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ── posts ──

func (f *fakeContent) InsertPost(_ context.Context, p *models.Post) (string, error) {
	p.ID = primitive.NewObjectID()
	cp := *p
	f.posts[p.ID.Hex()] = &cp
	return p.ID.Hex(), nil
}

func (f *fakeContent) GetPost(_ context.Context, id string) (*models.Post, error) {
	p, ok := f.posts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeContent) listPosts(match func(*models.Post) bool) []models.Post {
	var out []models.Post
	for _, p := range f.posts {
		if match(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeContent) ListPosts(context.Context) ([]models.Post, error) {
	return f.listPosts(func(*models.Post) bool { return true }), nil
}

func (f *fakeContent) ListPostsByAuthor(_ context.Context, authorID string) ([]models.Post, error) {
	return f.listPosts(func(p *models.Post) bool { return p.AuthorID == authorID }), nil
}

func (f *fakeContent) ListPostsByCategory(_ context.Context, categoryID string) ([]models.Post, error) {
	return f.listPosts(func(p *models.Post) bool { return p.CategoryID == categoryID }), nil
}

func (f *fakeContent) ListPostIDsByAuthor(_ context.Context, authorID string) ([]string, error) {
	var ids []string
	for id, p := range f.posts {
		if p.AuthorID == authorID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeContent) UpdatePost(_ context.Context, p *models.Post) error {
	if _, ok := f.posts[p.ID.Hex()]; !ok {
		return store.ErrNotFound
	}
	cp := *p
	f.posts[p.ID.Hex()] = &cp
	return nil
}

func (f *fakeContent) DeletePost(_ context.Context, id string) error {
	if _, ok := f.posts[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.posts, id)
	return nil
}

func (f *fakeContent) DeletePostsByAuthor(_ context.Context, authorID string) error {
	for id, p := range f.posts {
		if p.AuthorID == authorID {
			delete(f.posts, id)
		}
	}
	return nil
}

func (f *fakeContent) AdjustPostLikes(_ context.Context, id string, delta int64) error {
	p, ok := f.posts[id]
	if !ok {
		return store.ErrNotFound
	}
	p.Likes += delta
	if p.Likes < 0 {
		p.Likes = 0
	}
	return nil
}

func (f *fakeContent) CountPosts(context.Context) (int64, error) {
	return int64(len(f.posts)), nil
}

func (f *fakeContent) CountPostsByCategory(_ context.Context, categoryID string) (int64, error) {
	var n int64
	for _, p := range f.posts {
		if p.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (f *fakeContent) CountPostsByAuthor(_ context.Context, authorID string) (int64, error) {
	var n int64
	for _, p := range f.posts {
		if p.AuthorID == authorID {
			n++
		}
	}
	return n, nil
}

func (f *fakeContent) RecentPosts(ctx context.Context, limit int64) ([]models.Post, error) {
	posts, _ := f.ListPosts(ctx)
	if int64(len(posts)) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// ── comments ──

func (f *fakeContent) InsertComment(_ context.Context, c *models.Comment) (string, error) {
	c.ID = primitive.NewObjectID()
	cp := *c
	f.comments[c.ID.Hex()] = &cp
	return c.ID.Hex(), nil
}

func (f *fakeContent) GetComment(_ context.Context, id string) (*models.Comment, error) {
	c, ok := f.comments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeContent) listComments(match func(*models.Comment) bool) []models.Comment {
	var out []models.Comment
	for _, c := range f.comments {
		if match(c) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeContent) ListComments(context.Context) ([]models.Comment, error) {
	return f.listComments(func(*models.Comment) bool { return true }), nil
}

func (f *fakeContent) ListCommentsByPost(_ context.Context, postID string) ([]models.Comment, error) {
	return f.listComments(func(c *models.Comment) bool { return c.PostID == postID }), nil
}

func (f *fakeContent) UpdateComment(_ context.Context, id, content string) error {
	c, ok := f.comments[id]
	if !ok {
		return store.ErrNotFound
	}
	c.Content = content
	return nil
}

func (f *fakeContent) DeleteComment(_ context.Context, id string) error {
	if _, ok := f.comments[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.comments, id)
	return nil
}

func (f *fakeContent) DeleteCommentsByPosts(_ context.Context, postIDs []string) error {
	for id, c := range f.comments {
		for _, pid := range postIDs {
			if c.PostID == pid {
				delete(f.comments, id)
			}
		}
	}
	return nil
}

func (f *fakeContent) DeleteCommentsByAuthor(_ context.Context, authorID string) error {
	for id, c := range f.comments {
		if c.AuthorID == authorID {
			delete(f.comments, id)
		}
	}
	return nil
}

func (f *fakeContent) CountComments(context.Context) (int64, error) {
	return int64(len(f.comments)), nil
}

func (f *fakeContent) RecentComments(ctx context.Context, limit int64) ([]models.Comment, error) {
	comments, _ := f.ListComments(ctx)
	if int64(len(comments)) > limit {
		comments = comments[:limit]
	}
	return comments, nil
}

// ── likes ──

func (f *fakeContent) InsertLike(_ context.Context, l *models.Like) (string, error) {
	for _, existing := range f.likes {
		if existing.UserID == l.UserID && existing.PostID == l.PostID {
			return "", store.ErrDuplicate
		}
	}
	l.ID = primitive.NewObjectID()
	cp := *l
	f.likes[l.ID.Hex()] = &cp
	return l.ID.Hex(), nil
}

func (f *fakeContent) GetLike(_ context.Context, userID, postID string) (*models.Like, error) {
	for _, l := range f.likes {
		if l.UserID == userID && l.PostID == postID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeContent) DeleteLike(_ context.Context, userID, postID string) error {
	for id, l := range f.likes {
		if l.UserID == userID && l.PostID == postID {
			delete(f.likes, id)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeContent) ListLikesByPost(_ context.Context, postID string) ([]models.Like, error) {
	var out []models.Like
	for _, l := range f.likes {
		if l.PostID == postID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeContent) ListLikesByUser(_ context.Context, userID string) ([]models.Like, error) {
	var out []models.Like
	for _, l := range f.likes {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeContent) DeleteLikesByPosts(_ context.Context, postIDs []string) error {
	for id, l := range f.likes {
		for _, pid := range postIDs {
			if l.PostID == pid {
				delete(f.likes, id)
			}
		}
	}
	return nil
}

func (f *fakeContent) DeleteLikesByUser(_ context.Context, userID string) error {
	for id, l := range f.likes {
		if l.UserID == userID {
			delete(f.likes, id)
		}
	}
	return nil
}

// ── categories ──

func (f *fakeContent) InsertCategory(_ context.Context, c *models.Category) (string, error) {
	for _, existing := range f.categories {
		if strings.EqualFold(existing.Title, c.Title) {
			return "", store.ErrDuplicate
		}
	}
	c.ID = primitive.NewObjectID()
	cp := *c
	f.categories[c.ID.Hex()] = &cp
	return c.ID.Hex(), nil
}

func (f *fakeContent) GetCategory(_ context.Context, id string) (*models.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeContent) FindCategoryByTitle(_ context.Context, title, excludeID string) (*models.Category, error) {
	for id, c := range f.categories {
		if id == excludeID {
			continue
		}
		if strings.EqualFold(c.Title, title) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeContent) ListCategories(context.Context) ([]models.Category, error) {
	var out []models.Category
	for _, c := range f.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (f *fakeContent) UpdateCategory(_ context.Context, id, title string) error {
	c, ok := f.categories[id]
	if !ok {
		return store.ErrNotFound
	}
	c.Title = title
	return nil
}

func (f *fakeContent) DeleteCategory(_ context.Context, id string) error {
	if _, ok := f.categories[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.categories, id)
	return nil
}

func (f *fakeContent) CountCategories(context.Context) (int64, error) {
	return int64(len(f.categories)), nil
}

// ── images ──

type fakeImages struct {
	removed []string
}

func (f *fakeImages) Remove(_ context.Context, ref string) error {
	f.removed = append(f.removed, ref)
	return nil
}

// ── users ──

type fakeUsers struct {
	users map[string]*models.User
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{users: map[string]*models.User{}}
	for _, u := range users {
		cp := *u
		f.users[u.ID] = &cp
	}
	return f
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) ListUserSummaries(_ context.Context, ids []string) (map[string]models.UserSummary, error) {
	out := map[string]models.UserSummary{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out[id] = models.UserSummary{ID: u.ID, Username: u.Username, ProfilePicture: u.ProfilePicture}
		}
	}
	return out, nil
}

func (f *fakeUsers) ListUsers(context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUsers) SetRole(_ context.Context, id string, role models.Role) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u.Role = role
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) DeleteUser(_ context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUsers) CountUsers(context.Context) (int64, error) {
	return int64(len(f.users)), nil
}

func (f *fakeUsers) RecentUsers(ctx context.Context, limit int) ([]models.User, error) {
	users, _ := f.ListUsers(ctx)
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}
