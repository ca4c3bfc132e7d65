package storage

import (
	"context"

	"github.com/iudanet/gophergram/internal/models"
)

// UserStorage defines interface for user data persistence
type UserStorage interface {
	// CreateUser creates a new user in the storage
	// Returns ErrEmailAlreadyUsed if email is already registered
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByID retrieves user by ID with followers/following/likes loaded
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	// GetUserByEmail retrieves user by email (stored lowercased)
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByToken retrieves user by bearer token (exact match)
	// Returns ErrUserNotFound if no user holds this token
	GetUserByToken(ctx context.Context, token string) (*models.User, error)

	// ListUsers retrieves all users
	// Returns empty slice if storage is empty
	ListUsers(ctx context.Context) ([]*models.User, error)

	// UpdateUser updates profile fields (username, avatar, birth date, team,
	// newsletter, bio). Returns ErrUserNotFound if user doesn't exist
	UpdateUser(ctx context.Context, user *models.User) error

	// DeleteUser deletes user by ID. Posts, comments and relations
	// referencing the user are left in place
	// Returns ErrUserNotFound if user doesn't exist
	DeleteUser(ctx context.Context, userID string) error

	// Follow records that follower follows followee.
	// Idempotent: repeated calls are no-ops (add-to-set)
	Follow(ctx context.Context, followerID, followeeID string) error

	// Unfollow removes the follow relation.
	// No-op if the relation doesn't exist
	Unfollow(ctx context.Context, followerID, followeeID string) error
}
