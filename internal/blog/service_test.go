package blog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlemoine/blog-platform/backend/internal/apperr"
	"github.com/tlemoine/blog-platform/backend/internal/models"
)

var (
	alice = &models.User{ID: "alice", Username: "alice", Role: models.RoleUser}
	bob   = &models.User{ID: "bob", Username: "bob", Role: models.RoleUser}
	root  = &models.User{ID: "root", Username: "root", Role: models.RoleAdmin}
)

func newTestService(t *testing.T) (*Service, *fakeContent, *fakeUsers, *fakeImages) {
	t.Helper()
	content := newFakeContent()
	users := newFakeUsers(alice, bob, root)
	images := &fakeImages{}
	return NewService(content, users, images), content, users, images
}

func mustCreatePost(t *testing.T, svc *Service, author *models.User, title string) *models.Post {
	t.Helper()
	post, err := svc.CreatePost(context.Background(), author, PostInput{Title: title, Content: "body"})
	require.NoError(t, err)
	return post
}

// ── Likes ──

func TestLikePostTwice(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	post := mustCreatePost(t, svc, alice, "hello")
	id := post.ID.Hex()

	require.NoError(t, svc.LikePost(ctx, bob, id))
	got, err := svc.GetPost(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Likes)

	err = svc.LikePost(ctx, bob, id)
	require.Error(t, err)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	got, err = svc.GetPost(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Likes, "failed second like must not change the counter")
}

func TestUnlikeNotLiked(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	post := mustCreatePost(t, svc, alice, "hello")
	id := post.ID.Hex()

	err := svc.UnlikePost(ctx, bob, id)
	require.Error(t, err)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	got, err := svc.GetPost(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Likes)
}

func TestLikeCounterNeverNegative(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	post := mustCreatePost(t, svc, alice, "hello")
	id := post.ID.Hex()

	// Any sequence of like/unlike calls keeps the counter at >= 0.
	require.NoError(t, svc.LikePost(ctx, bob, id))
	require.NoError(t, svc.UnlikePost(ctx, bob, id))
	require.Error(t, svc.UnlikePost(ctx, bob, id))
	require.Error(t, svc.UnlikePost(ctx, alice, id))

	got, err := svc.GetPost(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Likes)
}

func TestLikeUnknownPost(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	err := svc.LikePost(context.Background(), bob, "0123456789abcdef01234567")
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestLikeStatus(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	post := mustCreatePost(t, svc, alice, "hello")
	id := post.ID.Hex()

	liked, err := svc.LikeStatus(ctx, bob, id)
	require.NoError(t, err)
	assert.False(t, liked)

	require.NoError(t, svc.LikePost(ctx, bob, id))
	liked, err = svc.LikeStatus(ctx, bob, id)
	require.NoError(t, err)
	assert.True(t, liked)
}

func TestUnlikeAnonymous(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	post := mustCreatePost(t, svc, alice, "hello")

	err := svc.UnlikePost(context.Background(), nil, post.ID.Hex())
	require.Error(t, err)
	assert.Equal(t, apperr.Authentication, apperr.KindOf(err))
}

// ── Post ownership ──

func TestUpdatePostForbiddenForNonOwner(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	post := mustCreatePost(t, svc, alice, "original")
	id := post.ID.Hex()

	_, err := svc.UpdatePost(ctx, bob, id, PostInput{Title: "hijacked"})
	require.Error(t, err)
	assert.Equal(t, apperr.Authorization, apperr.KindOf(err))

	got, err := svc.GetPost(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "original", got.Title, "denied update must leave the post unchanged")
}

func TestDeletePostForbiddenForNonOwner(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	post := mustCreatePost(t, svc, alice, "original")

	err := svc.DeletePost(ctx, bob, post.ID.Hex())
	require.Error(t, err)
	assert.Equal(t, apperr.Authorization, apperr.KindOf(err))

	_, err = svc.GetPost(ctx, post.ID.Hex())
	require.NoError(t, err)
}

func TestAdminMayModerateAnyPost(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	post := mustCreatePost(t, svc, alice, "original")

	updated, err := svc.UpdatePost(ctx, root, post.ID.Hex(), PostInput{Title: "moderated"})
	require.NoError(t, err)
	assert.Equal(t, "moderated", updated.Title)

	require.NoError(t, svc.DeletePost(ctx, root, post.ID.Hex()))
}

// ── Post delete cascade ──

func TestDeletePostCascades(t *testing.T) {
	svc, content, _, _ := newTestService(t)
	ctx := context.Background()
	post := mustCreatePost(t, svc, alice, "hello")
	id := post.ID.Hex()

	comment, err := svc.CreateComment(ctx, bob, id, "nice")
	require.NoError(t, err)
	require.NoError(t, svc.LikePost(ctx, bob, id))

	require.NoError(t, svc.DeletePost(ctx, alice, id))

	_, err = svc.GetPost(ctx, id)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	_, err = content.GetComment(ctx, comment.ID.Hex())
	require.Error(t, err, "comments on the deleted post must be gone")

	likes, err := content.ListLikesByPost(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, likes, "likes on the deleted post must be gone")
}

// ── Image cleanup ──

func strptr(s string) *string { return &s }

func TestUpdatePostReplacesImage(t *testing.T) {
	svc, _, _, images := newTestService(t)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, alice, PostInput{
		Title: "hi", Content: "body", Image: strptr("/uploads/posts/a.png"),
	})
	require.NoError(t, err)
	id := post.ID.Hex()

	// Replacing the image drops the old object.
	_, err = svc.UpdatePost(ctx, alice, id, PostInput{Image: strptr("/uploads/posts/b.png")})
	require.NoError(t, err)
	assert.Equal(t, []string{"/uploads/posts/a.png"}, images.removed)

	// A nil Image means keep; nothing else is removed.
	_, err = svc.UpdatePost(ctx, alice, id, PostInput{Title: "renamed"})
	require.NoError(t, err)
	assert.Len(t, images.removed, 1)

	// Clearing the image drops the current object.
	_, err = svc.UpdatePost(ctx, alice, id, PostInput{Image: strptr("")})
	require.NoError(t, err)
	assert.Contains(t, images.removed, "/uploads/posts/b.png")
}

func TestDeletePostRemovesImage(t *testing.T) {
	svc, _, _, images := newTestService(t)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, alice, PostInput{
		Title: "hi", Content: "body", Image: strptr("/uploads/posts/a.png"),
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeletePost(ctx, alice, post.ID.Hex()))
	assert.Equal(t, []string{"/uploads/posts/a.png"}, images.removed)
}

func TestDeleteUserRemovesImages(t *testing.T) {
	svc, _, users, images := newTestService(t)
	ctx := context.Background()

	carol := &models.User{
		ID: "carol", Username: "carol", Role: models.RoleUser,
		ProfilePicture: "/uploads/profiles/carol.png",
	}
	users.users[carol.ID] = carol

	_, err := svc.CreatePost(ctx, carol, PostInput{
		Title: "hi", Content: "body", Image: strptr("/uploads/posts/a.png"),
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, root, carol.ID))
	assert.Contains(t, images.removed, "/uploads/posts/a.png")
	assert.Contains(t, images.removed, "/uploads/profiles/carol.png")
}

// ── Comments ──

func TestCommentOnUnknownPost(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.CreateComment(context.Background(), bob, "0123456789abcdef01234567", "hi")
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestCommentAuthorization(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	post := mustCreatePost(t, svc, alice, "hello")
	comment, err := svc.CreateComment(ctx, bob, post.ID.Hex(), "mine")
	require.NoError(t, err)
	id := comment.ID.Hex()

	_, err = svc.UpdateComment(ctx, alice, id, "not yours")
	require.Error(t, err)
	assert.Equal(t, apperr.Authorization, apperr.KindOf(err))

	// Owner and admin both may; admin override applies uniformly.
	_, err = svc.UpdateComment(ctx, bob, id, "edited")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteComment(ctx, root, id))
}

// ── Categories ──

func TestCategoryTitleCaseInsensitive(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	tech, err := svc.CreateCategory(ctx, root, "Tech")
	require.NoError(t, err)

	_, err = svc.CreateCategory(ctx, root, "tech")
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	// Renaming a category to a different casing of itself is allowed:
	// the uniqueness check excludes the record being updated.
	_, err = svc.UpdateCategory(ctx, root, tech.ID.Hex(), "TECH")
	require.NoError(t, err)

	other, err := svc.CreateCategory(ctx, root, "Travel")
	require.NoError(t, err)
	_, err = svc.UpdateCategory(ctx, root, other.ID.Hex(), "tech")
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestCategoryAdminOnly(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, alice, "Tech")
	require.Error(t, err)
	assert.Equal(t, apperr.Authorization, apperr.KindOf(err))

	cat, err := svc.CreateCategory(ctx, root, "Tech")
	require.NoError(t, err)

	_, err = svc.UpdateCategory(ctx, alice, cat.ID.Hex(), "Hacks")
	require.Error(t, err)
	assert.Equal(t, apperr.Authorization, apperr.KindOf(err))

	err = svc.DeleteCategory(ctx, alice, cat.ID.Hex())
	require.Error(t, err)
	assert.Equal(t, apperr.Authorization, apperr.KindOf(err))
}

func TestDeleteCategoryInUseRejected(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, root, "Tech")
	require.NoError(t, err)
	post, err := svc.CreatePost(ctx, alice, PostInput{
		Title: "hi", Content: "body", CategoryID: cat.ID.Hex(),
	})
	require.NoError(t, err)

	err = svc.DeleteCategory(ctx, root, cat.ID.Hex())
	require.Error(t, err)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	// Once nothing references it, deletion goes through.
	require.NoError(t, svc.DeletePost(ctx, alice, post.ID.Hex()))
	require.NoError(t, svc.DeleteCategory(ctx, root, cat.ID.Hex()))
}

func TestCreatePostUnknownCategory(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.CreatePost(context.Background(), alice, PostInput{
		Title: "hi", Content: "body", CategoryID: "0123456789abcdef01234567",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

// ── Users ──

func TestDeleteUserAuthorization(t *testing.T) {
	svc, _, users, _ := newTestService(t)
	ctx := context.Background()

	err := svc.DeleteUser(ctx, bob, alice.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.Authorization, apperr.KindOf(err))

	// An admin is never a valid target of admin-initiated deletion.
	root2 := &models.User{ID: "root2", Username: "root2", Role: models.RoleAdmin}
	users.users[root2.ID] = root2
	err = svc.DeleteUser(ctx, root, root2.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.Authorization, apperr.KindOf(err))

	require.NoError(t, svc.DeleteUser(ctx, root, bob.ID))
}

// Register A, create category Tech, post as A under Tech, comment as B,
// likes both ways, then delete A: nothing referencing A or A's post may
// survive, B's own post gets its counter back, and Tech remains with a
// zero post count.
func TestDeleteUserCascades(t *testing.T) {
	svc, content, users, _ := newTestService(t)
	ctx := context.Background()

	tech, err := svc.CreateCategory(ctx, root, "Tech")
	require.NoError(t, err)

	alicePost, err := svc.CreatePost(ctx, alice, PostInput{
		Title: "Hi", Content: "...", CategoryID: tech.ID.Hex(),
	})
	require.NoError(t, err)
	bobPost := mustCreatePost(t, svc, bob, "bob's post")

	bobComment, err := svc.CreateComment(ctx, bob, alicePost.ID.Hex(), "hello A")
	require.NoError(t, err)
	aliceComment, err := svc.CreateComment(ctx, alice, bobPost.ID.Hex(), "hello B")
	require.NoError(t, err)

	require.NoError(t, svc.LikePost(ctx, bob, alicePost.ID.Hex()))
	require.NoError(t, svc.LikePost(ctx, alice, bobPost.ID.Hex()))

	require.NoError(t, svc.DeleteUser(ctx, alice, alice.ID))

	// The account itself is gone.
	_, err = users.GetUserByID(ctx, alice.ID)
	require.Error(t, err)

	// A's post and everything referencing it are gone.
	_, err = svc.GetPost(ctx, alicePost.ID.Hex())
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	_, err = content.GetComment(ctx, bobComment.ID.Hex())
	require.Error(t, err, "B's comment on A's post must be gone")

	// A's comment and like elsewhere are gone, and B's post got its
	// counter decremented back.
	_, err = content.GetComment(ctx, aliceComment.ID.Hex())
	require.Error(t, err)
	likes, err := content.ListLikesByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, likes)
	got, err := svc.GetPost(ctx, bobPost.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Likes)

	// The category survives, now unused.
	cat, err := svc.GetCategory(ctx, tech.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(0), cat.PostCount)
}

func TestSetRole(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SetRole(ctx, alice, bob.ID, models.RoleAdmin)
	require.Error(t, err)
	assert.Equal(t, apperr.Authorization, apperr.KindOf(err))

	_, err = svc.SetRole(ctx, root, bob.ID, "superuser")
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	promoted, err := svc.SetRole(ctx, root, bob.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, promoted.Role)

	_, err = svc.SetRole(ctx, root, "ghost", models.RoleUser)
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

// ── Enrichment / listings ──

func TestPostEnrichment(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, root, "Tech")
	require.NoError(t, err)
	post, err := svc.CreatePost(ctx, alice, PostInput{
		Title: "hi", Content: "body", CategoryID: cat.ID.Hex(),
	})
	require.NoError(t, err)

	require.NotNil(t, post.Author)
	assert.Equal(t, "alice", post.Author.Username)
	require.NotNil(t, post.Category)
	assert.Equal(t, "Tech", post.Category.Title)

	posts, err := svc.ListPostsByCategory(ctx, cat.ID.Hex())
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, post.ID, posts[0].ID)
}

func TestListUsersWithPostCounts(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	mustCreatePost(t, svc, alice, "one")
	mustCreatePost(t, svc, alice, "two")

	_, err := svc.ListUsersWithPostCounts(ctx, bob)
	require.Error(t, err)
	assert.Equal(t, apperr.Authorization, apperr.KindOf(err))

	rows, err := svc.ListUsersWithPostCounts(ctx, root)
	require.NoError(t, err)
	counts := map[string]int64{}
	for _, row := range rows {
		counts[row.ID] = row.PostCount
	}
	assert.Equal(t, int64(2), counts[alice.ID])
	assert.Equal(t, int64(0), counts[bob.ID])
}

func TestDashboardStats(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	post := mustCreatePost(t, svc, alice, "hello")
	_, err := svc.CreateComment(ctx, bob, post.ID.Hex(), "hi")
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, root, "Tech")
	require.NoError(t, err)

	_, err = svc.DashboardStats(ctx, alice)
	require.Error(t, err)
	assert.Equal(t, apperr.Authorization, apperr.KindOf(err))

	stats, err := svc.DashboardStats(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Counts.Users)
	assert.Equal(t, int64(1), stats.Counts.Posts)
	assert.Equal(t, int64(1), stats.Counts.Comments)
	assert.Equal(t, int64(1), stats.Counts.Categories)
	require.Len(t, stats.Recent.Posts, 1)
	require.Len(t, stats.Recent.Comments, 1)
}
