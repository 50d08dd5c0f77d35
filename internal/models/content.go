package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is a blog post stored in MongoDB. Author and category references
// are kept as plain id strings; the display fields are resolved on read
// (there is no stored back-reference list of comment ids — comments are a
// derived query by post id).
type Post struct {
	ID         primitive.ObjectID `json:"id"                   bson:"_id,omitempty"`
	Title      string             `json:"title"                bson:"title"`
	Content    string             `json:"content"              bson:"content"`
	Image      string             `json:"image,omitempty"      bson:"image,omitempty"`
	AuthorID   string             `json:"authorId"             bson:"author_id"`
	CategoryID string             `json:"categoryId,omitempty" bson:"category_id,omitempty"`
	Likes      int64              `json:"likes"                bson:"likes"`
	CreatedAt  time.Time          `json:"createdAt"            bson:"created_at"`
	UpdatedAt  time.Time          `json:"updatedAt"            bson:"updated_at"`

	// Resolved on read, never persisted.
	Author   *UserSummary `json:"author,omitempty"   bson:"-"`
	Category *CategoryRef `json:"category,omitempty" bson:"-"`
}

// CategoryRef is the category shape embedded in post responses.
type CategoryRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Comment belongs to exactly one post and one author.
type Comment struct {
	ID        primitive.ObjectID `json:"id"        bson:"_id,omitempty"`
	Content   string             `json:"content"   bson:"content"`
	AuthorID  string             `json:"authorId"  bson:"author_id"`
	PostID    string             `json:"postId"    bson:"post_id"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updated_at"`

	Author    *UserSummary `json:"author,omitempty"    bson:"-"`
	PostTitle string       `json:"postTitle,omitempty" bson:"-"`
}

// Like records that a user liked a post. A unique compound index on
// (user_id, post_id) enforces at most one like per pair.
type Like struct {
	ID        primitive.ObjectID `json:"id"        bson:"_id,omitempty"`
	UserID    string             `json:"userId"    bson:"user_id"`
	PostID    string             `json:"postId"    bson:"post_id"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`

	User *UserSummary `json:"user,omitempty" bson:"-"`
}

// Category titles are unique case-insensitively.
type Category struct {
	ID        primitive.ObjectID `json:"id"        bson:"_id,omitempty"`
	Title     string             `json:"title"     bson:"title"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`

	PostCount int64 `json:"postCount" bson:"-"`
}
