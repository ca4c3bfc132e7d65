package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/gophergram/internal/models"
	"github.com/iudanet/gophergram/internal/server/storage"
)

const userColumns = "id, email, username, avatar, birth_date, team, newsletter, bio, token, hash, salt, created_at"

// CreateUser creates a new user in the storage
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	avatar, err := marshalAsset(user.Account.Avatar)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Account.Username,
		avatar,
		user.BirthDate,
		user.Team,
		user.Newsletter,
		user.Bio,
		user.Token,
		user.Hash,
		user.Salt,
		user.CreatedAt,
	)

	if err != nil {
		// Проверяем на duplicate email
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return storage.ErrEmailAlreadyUsed
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetUserByID retrieves user by ID
func (s *Storage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return s.getUser(ctx, query, userID)
}

// GetUserByEmail retrieves user by email
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return s.getUser(ctx, query, email)
}

// GetUserByToken retrieves user by bearer token (exact match)
func (s *Storage) GetUserByToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE token = ?`
	return s.getUser(ctx, query, token)
}

// ListUsers retrieves all users
func (s *Storage) ListUsers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	// Подгружаем отношения для каждого пользователя
	for _, user := range users {
		if err := s.loadUserRelations(ctx, user); err != nil {
			return nil, err
		}
	}

	return users, nil
}

// UpdateUser updates profile fields
func (s *Storage) UpdateUser(ctx context.Context, user *models.User) error {
	avatar, err := marshalAsset(user.Account.Avatar)
	if err != nil {
		return err
	}

	query := `
		UPDATE users
		SET username = ?, avatar = ?, birth_date = ?, team = ?, newsletter = ?, bio = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		user.Account.Username,
		avatar,
		user.BirthDate,
		user.Team,
		user.Newsletter,
		user.Bio,
		user.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

// DeleteUser deletes user by ID
// Посты, комментарии и отношения, ссылающиеся на пользователя, не трогаются
func (s *Storage) DeleteUser(ctx context.Context, userID string) error {
	query := `DELETE FROM users WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

// Follow records that follower follows followee
// INSERT OR IGNORE дает идемпотентность: повторная подписка - no-op
func (s *Storage) Follow(ctx context.Context, followerID, followeeID string) error {
	query := `INSERT OR IGNORE INTO follows (follower_id, followee_id, created_at) VALUES (?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, query, followerID, followeeID, time.Now()); err != nil {
		return fmt.Errorf("failed to follow: %w", err)
	}

	return nil
}

// Unfollow removes the follow relation
func (s *Storage) Unfollow(ctx context.Context, followerID, followeeID string) error {
	query := `DELETE FROM follows WHERE follower_id = ? AND followee_id = ?`

	if _, err := s.db.ExecContext(ctx, query, followerID, followeeID); err != nil {
		return fmt.Errorf("failed to unfollow: %w", err)
	}

	return nil
}

// getUser выполняет запрос на одного пользователя и подгружает отношения
func (s *Storage) getUser(ctx context.Context, query string, arg string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, query, arg).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, err
	}

	if err := s.loadUserRelations(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// scanUser сканирует одну строку users в модель
func scanUser(scan func(dest ...any) error) (*models.User, error) {
	user := &models.User{}
	var avatar sql.NullString
	var birthDate sql.NullTime

	err := scan(
		&user.ID,
		&user.Email,
		&user.Account.Username,
		&avatar,
		&birthDate,
		&user.Team,
		&user.Newsletter,
		&user.Bio,
		&user.Token,
		&user.Hash,
		&user.Salt,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	if avatar.Valid {
		asset := &models.Asset{}
		if err := json.Unmarshal([]byte(avatar.String), asset); err != nil {
			return nil, fmt.Errorf("failed to unmarshal avatar: %w", err)
		}
		user.Account.Avatar = asset
	}
	if birthDate.Valid {
		user.BirthDate = &birthDate.Time
	}

	return user, nil
}

// loadUserRelations подгружает followers/following/likes.
// Порядок вставки сохраняется (ORDER BY rowid), дубликаты исключены
// первичными ключами таблиц отношений
func (s *Storage) loadUserRelations(ctx context.Context, user *models.User) error {
	var err error

	user.Followers, err = s.queryIDs(ctx,
		`SELECT follower_id FROM follows WHERE followee_id = ? ORDER BY rowid`, user.ID)
	if err != nil {
		return fmt.Errorf("failed to load followers: %w", err)
	}

	user.Following, err = s.queryIDs(ctx,
		`SELECT followee_id FROM follows WHERE follower_id = ? ORDER BY rowid`, user.ID)
	if err != nil {
		return fmt.Errorf("failed to load following: %w", err)
	}

	user.Likes, err = s.queryIDs(ctx,
		`SELECT post_id FROM likes WHERE user_id = ? ORDER BY rowid`, user.ID)
	if err != nil {
		return fmt.Errorf("failed to load likes: %w", err)
	}

	return nil
}

// queryIDs возвращает список id из одноколоночного запроса
func (s *Storage) queryIDs(ctx context.Context, query string, arg string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// Пустой slice, а не nil: в JSON должен сериализоваться как []
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// marshalAsset сериализует дескриптор медиа-файла в JSON для хранения
func marshalAsset(asset *models.Asset) (sql.NullString, error) {
	if asset == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(asset)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal asset: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// unmarshalAsset восстанавливает дескриптор медиа-файла из JSON
func unmarshalAsset(data string, asset *models.Asset) error {
	if err := json.Unmarshal([]byte(data), asset); err != nil {
		return fmt.Errorf("failed to unmarshal asset: %w", err)
	}
	return nil
}
