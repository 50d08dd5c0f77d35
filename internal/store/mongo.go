package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tlemoine/blog-platform/backend/internal/models"
)

// MongoStore holds the content graph: posts, comments, likes, and
// categories, each in its own collection. Cross-entity references are
// hex object-id strings.
type MongoStore struct {
	db         *mongo.Database
	posts      *mongo.Collection
	comments   *mongo.Collection
	likes      *mongo.Collection
	categories *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		db:         db,
		posts:      db.Collection("posts"),
		comments:   db.Collection("comments"),
		likes:      db.Collection("likes"),
		categories: db.Collection("categories"),
	}
}

// caseInsensitive makes title comparisons ignore case (collation
// strength 2 also ignores diacritics-insensitive tertiary differences).
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

// EnsureIndexes creates the indexes the integrity rules rely on: the
// unique (user_id, post_id) pair on likes and the case-insensitive
// unique category title, plus lookup indexes for the hot queries.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.likes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "post_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("likes index: %w", err)
	}
	_, err = s.categories.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "title", Value: 1}},
		Options: options.Index().SetUnique(true).SetCollation(caseInsensitive),
	})
	if err != nil {
		return fmt.Errorf("categories index: %w", err)
	}
	_, err = s.posts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "author_id", Value: 1}}},
		{Keys: bson.D{{Key: "category_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("posts indexes: %w", err)
	}
	_, err = s.comments.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "post_id", Value: 1}}},
		{Keys: bson.D{{Key: "author_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("comments indexes: %w", err)
	}
	return nil
}

// InTxn runs fn inside a single MongoDB transaction so multi-document
// cascades commit or abort as one unit.
func (s *MongoStore) InTxn(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := s.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	return err
}

func oid(id string) (primitive.ObjectID, error) {
	o, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// A malformed id can never reference an existing document.
		return primitive.NilObjectID, fmt.Errorf("invalid id %q: %w", id, ErrNotFound)
	}
	return o, nil
}

func mapWriteErr(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ── Posts ────────────────────────────────────────────────

func (s *MongoStore) InsertPost(ctx context.Context, p *models.Post) (string, error) {
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	res, err := s.posts.InsertOne(ctx, p)
	if err != nil {
		return "", mapWriteErr("insert post", err)
	}
	p.ID = res.InsertedID.(primitive.ObjectID)
	return p.ID.Hex(), nil
}

func (s *MongoStore) GetPost(ctx context.Context, id string) (*models.Post, error) {
	o, err := oid(id)
	if err != nil {
		return nil, err
	}
	var p models.Post
	if err := s.posts.FindOne(ctx, bson.M{"_id": o}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *MongoStore) findPosts(ctx context.Context, filter bson.M) ([]models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var posts []models.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *MongoStore) ListPosts(ctx context.Context) ([]models.Post, error) {
	return s.findPosts(ctx, bson.M{})
}

func (s *MongoStore) ListPostsByAuthor(ctx context.Context, authorID string) ([]models.Post, error) {
	return s.findPosts(ctx, bson.M{"author_id": authorID})
}

func (s *MongoStore) ListPostsByCategory(ctx context.Context, categoryID string) ([]models.Post, error) {
	return s.findPosts(ctx, bson.M{"category_id": categoryID})
}

func (s *MongoStore) ListPostIDsByAuthor(ctx context.Context, authorID string) ([]string, error) {
	cur, err := s.posts.Find(ctx, bson.M{"author_id": authorID},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID.Hex())
	}
	return ids, cur.Err()
}

func (s *MongoStore) UpdatePost(ctx context.Context, p *models.Post) error {
	update := bson.M{"$set": bson.M{
		"title":      p.Title,
		"content":    p.Content,
		"updated_at": time.Now(),
	}}
	set := update["$set"].(bson.M)
	if p.Image == "" {
		update["$unset"] = mergeUnset(update, "image")
	} else {
		set["image"] = p.Image
	}
	if p.CategoryID == "" {
		update["$unset"] = mergeUnset(update, "category_id")
	} else {
		set["category_id"] = p.CategoryID
	}

	res, err := s.posts.UpdateByID(ctx, p.ID, update)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func mergeUnset(update bson.M, field string) bson.M {
	unset, _ := update["$unset"].(bson.M)
	if unset == nil {
		unset = bson.M{}
	}
	unset[field] = ""
	return unset
}

func (s *MongoStore) DeletePost(ctx context.Context, id string) error {
	o, err := oid(id)
	if err != nil {
		return err
	}
	res, err := s.posts.DeleteOne(ctx, bson.M{"_id": o})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeletePostsByAuthor(ctx context.Context, authorID string) error {
	_, err := s.posts.DeleteMany(ctx, bson.M{"author_id": authorID})
	return err
}

// AdjustPostLikes shifts the denormalized like counter by delta, clamped
// at zero. The likes collection stays the authoritative count.
func (s *MongoStore) AdjustPostLikes(ctx context.Context, id string, delta int64) error {
	o, err := oid(id)
	if err != nil {
		return err
	}
	pipeline := bson.A{bson.M{"$set": bson.M{
		"likes": bson.M{"$max": bson.A{
			int64(0),
			bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$likes", 0}}, delta}},
		}},
	}}}
	res, err := s.posts.UpdateByID(ctx, o, pipeline)
	if err != nil {
		return fmt.Errorf("adjust likes: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) CountPosts(ctx context.Context) (int64, error) {
	return s.posts.CountDocuments(ctx, bson.M{})
}

func (s *MongoStore) CountPostsByCategory(ctx context.Context, categoryID string) (int64, error) {
	return s.posts.CountDocuments(ctx, bson.M{"category_id": categoryID})
}

func (s *MongoStore) CountPostsByAuthor(ctx context.Context, authorID string) (int64, error) {
	return s.posts.CountDocuments(ctx, bson.M{"author_id": authorID})
}

func (s *MongoStore) RecentPosts(ctx context.Context, limit int64) ([]models.Post, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)
	cur, err := s.posts.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var posts []models.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ── Comments ─────────────────────────────────────────────

func (s *MongoStore) InsertComment(ctx context.Context, c *models.Comment) (string, error) {
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	res, err := s.comments.InsertOne(ctx, c)
	if err != nil {
		return "", mapWriteErr("insert comment", err)
	}
	c.ID = res.InsertedID.(primitive.ObjectID)
	return c.ID.Hex(), nil
}

func (s *MongoStore) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	o, err := oid(id)
	if err != nil {
		return nil, err
	}
	var c models.Comment
	if err := s.comments.FindOne(ctx, bson.M{"_id": o}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *MongoStore) findComments(ctx context.Context, filter bson.M, limit int64) ([]models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.comments.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var comments []models.Comment
	if err := cur.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *MongoStore) ListComments(ctx context.Context) ([]models.Comment, error) {
	return s.findComments(ctx, bson.M{}, 0)
}

func (s *MongoStore) ListCommentsByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	return s.findComments(ctx, bson.M{"post_id": postID}, 0)
}

func (s *MongoStore) RecentComments(ctx context.Context, limit int64) ([]models.Comment, error) {
	return s.findComments(ctx, bson.M{}, limit)
}

func (s *MongoStore) UpdateComment(ctx context.Context, id, content string) error {
	o, err := oid(id)
	if err != nil {
		return err
	}
	res, err := s.comments.UpdateByID(ctx, o, bson.M{"$set": bson.M{
		"content":    content,
		"updated_at": time.Now(),
	}})
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteComment(ctx context.Context, id string) error {
	o, err := oid(id)
	if err != nil {
		return err
	}
	res, err := s.comments.DeleteOne(ctx, bson.M{"_id": o})
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteCommentsByPosts(ctx context.Context, postIDs []string) error {
	if len(postIDs) == 0 {
		return nil
	}
	_, err := s.comments.DeleteMany(ctx, bson.M{"post_id": bson.M{"$in": postIDs}})
	return err
}

func (s *MongoStore) DeleteCommentsByAuthor(ctx context.Context, authorID string) error {
	_, err := s.comments.DeleteMany(ctx, bson.M{"author_id": authorID})
	return err
}

func (s *MongoStore) CountComments(ctx context.Context) (int64, error) {
	return s.comments.CountDocuments(ctx, bson.M{})
}

// ── Likes ────────────────────────────────────────────────

func (s *MongoStore) InsertLike(ctx context.Context, l *models.Like) (string, error) {
	l.CreatedAt = time.Now()
	res, err := s.likes.InsertOne(ctx, l)
	if err != nil {
		return "", mapWriteErr("insert like", err)
	}
	l.ID = res.InsertedID.(primitive.ObjectID)
	return l.ID.Hex(), nil
}

func (s *MongoStore) GetLike(ctx context.Context, userID, postID string) (*models.Like, error) {
	var l models.Like
	err := s.likes.FindOne(ctx, bson.M{"user_id": userID, "post_id": postID}).Decode(&l)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *MongoStore) DeleteLike(ctx context.Context, userID, postID string) error {
	res, err := s.likes.DeleteOne(ctx, bson.M{"user_id": userID, "post_id": postID})
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) ListLikesByPost(ctx context.Context, postID string) ([]models.Like, error) {
	cur, err := s.likes.Find(ctx, bson.M{"post_id": postID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var likes []models.Like
	if err := cur.All(ctx, &likes); err != nil {
		return nil, err
	}
	return likes, nil
}

func (s *MongoStore) ListLikesByUser(ctx context.Context, userID string) ([]models.Like, error) {
	cur, err := s.likes.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var likes []models.Like
	if err := cur.All(ctx, &likes); err != nil {
		return nil, err
	}
	return likes, nil
}

func (s *MongoStore) DeleteLikesByPosts(ctx context.Context, postIDs []string) error {
	if len(postIDs) == 0 {
		return nil
	}
	_, err := s.likes.DeleteMany(ctx, bson.M{"post_id": bson.M{"$in": postIDs}})
	return err
}

func (s *MongoStore) DeleteLikesByUser(ctx context.Context, userID string) error {
	_, err := s.likes.DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}

// ── Categories ───────────────────────────────────────────

func (s *MongoStore) InsertCategory(ctx context.Context, c *models.Category) (string, error) {
	c.CreatedAt = time.Now()
	res, err := s.categories.InsertOne(ctx, c)
	if err != nil {
		return "", mapWriteErr("insert category", err)
	}
	c.ID = res.InsertedID.(primitive.ObjectID)
	return c.ID.Hex(), nil
}

func (s *MongoStore) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	o, err := oid(id)
	if err != nil {
		return nil, err
	}
	var c models.Category
	if err := s.categories.FindOne(ctx, bson.M{"_id": o}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindCategoryByTitle does a case-insensitive title lookup, optionally
// excluding one id (the record being updated).
func (s *MongoStore) FindCategoryByTitle(ctx context.Context, title, excludeID string) (*models.Category, error) {
	filter := bson.M{"title": title}
	if excludeID != "" {
		o, err := oid(excludeID)
		if err != nil {
			return nil, err
		}
		filter["_id"] = bson.M{"$ne": o}
	}
	var c models.Category
	err := s.categories.FindOne(ctx, filter,
		options.FindOne().SetCollation(caseInsensitive)).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MongoStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "title", Value: 1}})
	cur, err := s.categories.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var cats []models.Category
	if err := cur.All(ctx, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (s *MongoStore) UpdateCategory(ctx context.Context, id, title string) error {
	o, err := oid(id)
	if err != nil {
		return err
	}
	res, err := s.categories.UpdateByID(ctx, o, bson.M{"$set": bson.M{"title": title}})
	if err != nil {
		return mapWriteErr("update category", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteCategory(ctx context.Context, id string) error {
	o, err := oid(id)
	if err != nil {
		return err
	}
	res, err := s.categories.DeleteOne(ctx, bson.M{"_id": o})
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) CountCategories(ctx context.Context) (int64, error) {
	return s.categories.CountDocuments(ctx, bson.M{})
}
