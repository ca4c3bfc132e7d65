package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/gophergram/internal/models"
	"github.com/iudanet/gophergram/internal/server/storage"
)

// CreatePost creates a new post in the storage
func (s *Storage) CreatePost(ctx context.Context, post *models.Post) error {
	picture, err := marshalAsset(post.Picture)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO posts (id, owner_id, message, picture, video, date_of_post)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		post.ID,
		post.Owner,
		post.Message,
		picture,
		post.Video,
		post.DateOfPost,
	)

	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}

	return nil
}

// GetPostByID retrieves post by ID with likers and comments loaded
func (s *Storage) GetPostByID(ctx context.Context, postID string) (*models.Post, error) {
	query := `
		SELECT id, owner_id, message, picture, video, date_of_post
		FROM posts
		WHERE id = ?
	`

	post := &models.Post{}
	var picture sql.NullString

	err := s.db.QueryRowContext(ctx, query, postID).Scan(
		&post.ID,
		&post.Owner,
		&post.Message,
		&picture,
		&post.Video,
		&post.DateOfPost,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	if picture.Valid {
		asset := &models.Asset{}
		if err := unmarshalAsset(picture.String, asset); err != nil {
			return nil, err
		}
		post.Picture = asset
	}

	// Лайки в порядке добавления
	post.Likers, err = s.queryIDs(ctx,
		`SELECT user_id FROM likes WHERE post_id = ? ORDER BY rowid`, post.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load likers: %w", err)
	}

	if err := s.loadComments(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// UpdateMessage replaces the post message
func (s *Storage) UpdateMessage(ctx context.Context, postID, message string) error {
	query := `UPDATE posts SET message = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, message, postID)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrPostNotFound
	}

	return nil
}

// DeletePost deletes post by ID together with its likes and comments.
// Лайки и комментарии - часть документа поста, поэтому удаляются
// вместе с ним в одной транзакции
func (s *Storage) DeletePost(ctx context.Context, postID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, postID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrPostNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE post_id = ?`, postID); err != nil {
		return fmt.Errorf("failed to delete post likes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE post_id = ?`, postID); err != nil {
		return fmt.Errorf("failed to delete post comments: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tx: %w", err)
	}

	return nil
}

// Like records that user liked the post
// Одна строка отношения обслуживает и Post.Likers, и User.Likes,
// поэтому обе стороны обновляются атомарно
func (s *Storage) Like(ctx context.Context, postID, userID string) error {
	query := `INSERT OR IGNORE INTO likes (user_id, post_id, created_at) VALUES (?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, query, userID, postID, time.Now()); err != nil {
		return fmt.Errorf("failed to like post: %w", err)
	}

	return nil
}

// Unlike removes the like relation
func (s *Storage) Unlike(ctx context.Context, postID, userID string) error {
	query := `DELETE FROM likes WHERE user_id = ? AND post_id = ?`

	if _, err := s.db.ExecContext(ctx, query, userID, postID); err != nil {
		return fmt.Errorf("failed to unlike post: %w", err)
	}

	return nil
}

// AddComment appends a new comment to the post
func (s *Storage) AddComment(ctx context.Context, postID string, comment *models.Comment) error {
	query := `
		INSERT INTO comments (id, post_id, commenter_id, commenter_pseudo, text, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		comment.ID,
		postID,
		comment.CommenterID,
		comment.CommenterPseudo,
		comment.Text,
		comment.Timestamp,
	)

	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}

	return nil
}

// EditComment replaces the text of the comment matched by its ID.
// Позиционное обновление: затрагивается только комментарий с данным id
// внутри данного поста. Несовпадение id - не ошибка, matched/modified
// будут равны нулю
func (s *Storage) EditComment(ctx context.Context, postID, commentID, text string) (int64, int64, error) {
	query := `UPDATE comments SET text = ? WHERE id = ? AND post_id = ?`

	result, err := s.db.ExecContext(ctx, query, text, commentID, postID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to edit comment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, rows, nil
}

// DeleteComment removes the comment matched by its ID from the post
func (s *Storage) DeleteComment(ctx context.Context, postID, commentID string) error {
	query := `DELETE FROM comments WHERE id = ? AND post_id = ?`

	if _, err := s.db.ExecContext(ctx, query, commentID, postID); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	return nil
}

// loadComments подгружает комментарии поста в порядке добавления
func (s *Storage) loadComments(ctx context.Context, post *models.Post) error {
	query := `
		SELECT id, commenter_id, commenter_pseudo, text, timestamp
		FROM comments
		WHERE post_id = ?
		ORDER BY rowid
	`

	rows, err := s.db.QueryContext(ctx, query, post.ID)
	if err != nil {
		return fmt.Errorf("failed to load comments: %w", err)
	}
	defer rows.Close()

	post.Comments = make([]models.Comment, 0)
	for rows.Next() {
		var c models.Comment
		err := rows.Scan(&c.ID, &c.CommenterID, &c.CommenterPseudo, &c.Text, &c.Timestamp)
		if err != nil {
			return fmt.Errorf("failed to scan comment: %w", err)
		}
		post.Comments = append(post.Comments, c)
	}

	return rows.Err()
}
