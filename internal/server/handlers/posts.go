package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/iudanet/gophergram/internal/media"
	"github.com/iudanet/gophergram/internal/models"
	"github.com/iudanet/gophergram/internal/server/storage"
	"github.com/iudanet/gophergram/internal/validation"
	"github.com/iudanet/gophergram/pkg/api"
)

// maxUploadSize лимит multipart формы при публикации поста
const maxUploadSize = 32 << 20 // 32 MB

// PostHandler обрабатывает запросы к постам
type PostHandler struct {
	logger   *slog.Logger
	posts    storage.PostStorage
	users    storage.UserStorage
	uploader media.Uploader
}

// NewPostHandler создает новый handler для постов
func NewPostHandler(logger *slog.Logger, posts storage.PostStorage, users storage.UserStorage, uploader media.Uploader) *PostHandler {
	return &PostHandler{
		logger:   logger,
		posts:    posts,
		users:    users,
		uploader: uploader,
	}
}

// Publish обрабатывает POST /post/publish
// Принимает multipart/form-data: поля message, video и файл picture.
// Картинка обязательна и загружается в объектное хранилище до записи поста
func (h *PostHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, ok := GetUserID(ctx)
	if !ok {
		sendError(h.logger, w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.logger.ErrorContext(ctx, "failed to parse multipart form", slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	message, err := validation.NormalizeMessage(r.FormValue("message"))
	if err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("picture")
	if err != nil {
		sendError(h.logger, w, "picture is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read uploaded file", slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	asset, err := h.uploader.Upload(ctx, data, header.Header.Get("Content-Type"))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to upload picture", slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	post := &models.Post{
		ID:         uuid.New().String(),
		Owner:      owner,
		Message:    message,
		Picture:    asset,
		Video:      r.FormValue("video"),
		Likers:     []string{},
		Comments:   []models.Comment{},
		DateOfPost: time.Now(),
	}

	if err := h.posts.CreatePost(ctx, post); err != nil {
		h.logger.ErrorContext(ctx, "failed to create post", slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.InfoContext(ctx, "post published",
		slog.String("post_id", post.ID),
		slog.String("owner", owner))

	sendJSON(h.logger, w, post, http.StatusCreated)
}

// GetByID обрабатывает GET /post/:id
func (h *PostHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	post, err := h.posts.GetPostByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			sendError(h.logger, w, "ID unknown", http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get post", slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	sendJSON(h.logger, w, map[string]*models.Post{"post": post}, http.StatusOK)
}

// Update обрабатывает PUT /api/post/:id
// Заменяет только message, остальные поля поста неизменяемы
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req api.UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode update request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	message, err := validation.NormalizeMessage(req.Message)
	if err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.posts.UpdateMessage(ctx, id, message); err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			sendError(h.logger, w, "ID unknown", http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "failed to update post", slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	post, err := h.posts.GetPostByID(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to reload post", slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	sendJSON(h.logger, w, map[string]*models.Post{"postToUpdate": post}, http.StatusOK)
}

// Delete обрабатывает DELETE /api/delete-post/:id
// Пост удаляется вместе с лайками и комментариями
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := h.posts.DeletePost(ctx, id); err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			sendError(h.logger, w, "ID unknown", http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete post", slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.InfoContext(ctx, "post deleted", slog.String("post_id", id))

	sendMessage(h.logger, w, "post successfully deleted", http.StatusOK)
}

// Like обрабатывает PATCH /post/like/:id
// Идемпотентно; в ответ уходит пользователь с обновленным списком лайков,
// а не сам пост. Неизвестный id - 200 с сообщением, исторический контракт
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req api.LikeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode like request", slog.Any("error", err))
		sendError(h.logger, w, "Missing parameter", http.StatusBadRequest)
		return
	}
	if req.IDWhoLike == "" {
		sendError(h.logger, w, "Missing parameter", http.StatusBadRequest)
		return
	}

	h.like(ctx, w, id, req.IDWhoLike, true)
}

// Unlike обрабатывает PATCH /post/unlike/:id
// Снятие несуществующего лайка - no-op
func (h *PostHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req api.UnlikeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode unlike request", slog.Any("error", err))
		sendMessage(h.logger, w, "missing parameter", http.StatusBadRequest)
		return
	}
	if req.IDWhoUnlike == "" {
		sendMessage(h.logger, w, "missing parameter", http.StatusBadRequest)
		return
	}

	h.like(ctx, w, id, req.IDWhoUnlike, false)
}

// like общая часть like/unlike: пост и пользователь должны существовать,
// обе стороны отношения обновляются атомарно
func (h *PostHandler) like(ctx context.Context, w http.ResponseWriter, postID, userID string, like bool) {
	if _, err := h.posts.GetPostByID(ctx, postID); err != nil {
		h.likeLookupError(ctx, w, err, storage.ErrPostNotFound)
		return
	}
	if _, err := h.users.GetUserByID(ctx, userID); err != nil {
		h.likeLookupError(ctx, w, err, storage.ErrUserNotFound)
		return
	}

	var err error
	if like {
		err = h.posts.Like(ctx, postID, userID)
	} else {
		err = h.posts.Unlike(ctx, postID, userID)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to update like relation", slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByID(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to reload user", slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	sendJSON(h.logger, w, user, http.StatusCreated)
}

func (h *PostHandler) likeLookupError(ctx context.Context, w http.ResponseWriter, err, notFound error) {
	if errors.Is(err, notFound) {
		sendMessage(h.logger, w, "ID unknown", http.StatusOK)
		return
	}
	h.logger.ErrorContext(ctx, "lookup failed", slog.Any("error", err))
	sendError(h.logger, w, err.Error(), http.StatusBadRequest)
}

// Comment обрабатывает PATCH /post/comment/:id
// Добавляет комментарий и возвращает пост целиком
func (h *PostHandler) Comment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req api.CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode comment request", slog.Any("error", err))
		sendMessage(h.logger, w, "missing parameter", http.StatusBadRequest)
		return
	}

	if _, err := h.posts.GetPostByID(ctx, id); err != nil {
		h.commentLookupError(ctx, w, err)
		return
	}

	comment := models.Comment{
		ID:              uuid.New().String(),
		CommenterID:     req.CommenterID,
		CommenterPseudo: req.CommenterPseudo,
		Text:            req.Text,
		Timestamp:       time.Now(),
	}

	if err := h.posts.AddComment(ctx, id, &comment); err != nil {
		h.logger.ErrorContext(ctx, "failed to add comment", slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	post, err := h.posts.GetPostByID(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to reload post", slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	sendJSON(h.logger, w, post, http.StatusOK)
}

// EditComment обрабатывает PATCH /post/edit-comment/:id
// Позиционное обновление: несовпавший commentId - это успешный ответ
// с matchedCount 0, а не ошибка
func (h *PostHandler) EditComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req api.EditCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode edit-comment request", slog.Any("error", err))
		sendMessage(h.logger, w, "missing parameter", http.StatusBadRequest)
		return
	}

	if _, err := h.posts.GetPostByID(ctx, id); err != nil {
		h.commentLookupError(ctx, w, err)
		return
	}

	matched, modified, err := h.posts.EditComment(ctx, id, req.CommentID, req.Text)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to edit comment", slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	sendJSON(h.logger, w, api.EditCommentResult{
		MatchedCount:  matched,
		ModifiedCount: modified,
	}, http.StatusOK)
}

// DeleteComment обрабатывает PATCH /post/delete-comment/:id
// Неизвестный commentId - no-op, пост возвращается как есть
func (h *PostHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req api.DeleteCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode delete-comment request", slog.Any("error", err))
		sendMessage(h.logger, w, "missing parameter", http.StatusBadRequest)
		return
	}
	if req.CommentID == "" {
		sendMessage(h.logger, w, "missing parameter", http.StatusBadRequest)
		return
	}

	if _, err := h.posts.GetPostByID(ctx, id); err != nil {
		h.commentLookupError(ctx, w, err)
		return
	}

	if err := h.posts.DeleteComment(ctx, id, req.CommentID); err != nil {
		h.logger.ErrorContext(ctx, "failed to delete comment", slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	post, err := h.posts.GetPostByID(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to reload post", slog.Any("error", err))
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	sendJSON(h.logger, w, post, http.StatusOK)
}

func (h *PostHandler) commentLookupError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrPostNotFound) {
		sendMessage(h.logger, w, "ID unknown", http.StatusBadRequest)
		return
	}
	h.logger.ErrorContext(ctx, "failed to get post", slog.Any("error", err))
	sendError(h.logger, w, err.Error(), http.StatusBadRequest)
}
