package storage

import (
	"context"

	"github.com/iudanet/gophergram/internal/models"
)

// PostStorage defines interface for post data persistence
type PostStorage interface {
	// CreatePost creates a new post in the storage
	CreatePost(ctx context.Context, post *models.Post) error

	// GetPostByID retrieves post by ID with likers and comments loaded
	// Returns ErrPostNotFound if post doesn't exist
	GetPostByID(ctx context.Context, postID string) (*models.Post, error)

	// UpdateMessage replaces the post message
	// Returns ErrPostNotFound if post doesn't exist
	UpdateMessage(ctx context.Context, postID, message string) error

	// DeletePost deletes post by ID together with its likes and comments
	// Returns ErrPostNotFound if post doesn't exist
	DeletePost(ctx context.Context, postID string) error

	// Like records that user liked the post.
	// Idempotent: repeated calls are no-ops (add-to-set).
	// The single relation row backs both Post.Likers and User.Likes
	Like(ctx context.Context, postID, userID string) error

	// Unlike removes the like relation.
	// No-op if the relation doesn't exist
	Unlike(ctx context.Context, postID, userID string) error

	// AddComment appends a new comment to the post
	AddComment(ctx context.Context, postID string, comment *models.Comment) error

	// EditComment replaces the text of the comment matched by its ID
	// within the post. Returns the number of matched and modified comments;
	// both are zero when commentID doesn't match anything (not an error)
	EditComment(ctx context.Context, postID, commentID, text string) (matched, modified int64, err error)

	// DeleteComment removes the comment matched by its ID from the post.
	// No-op if commentID doesn't match anything
	DeleteComment(ctx context.Context, postID, commentID string) error
}
