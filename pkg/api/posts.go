package api

// UpdatePostRequest тело запроса PUT /api/post/:id
type UpdatePostRequest struct {
	Message string `json:"message"`
}

// LikeRequest тело запроса PATCH /post/like/:id
type LikeRequest struct {
	IDWhoLike string `json:"idWhoLike"`
}

// UnlikeRequest тело запроса PATCH /post/unlike/:id
type UnlikeRequest struct {
	IDWhoUnlike string `json:"idWhoUnlike"`
}

// CommentRequest тело запроса PATCH /post/comment/:id
type CommentRequest struct {
	CommenterID     string `json:"commenterId"`
	CommenterPseudo string `json:"commenterPseudo"`
	Text            string `json:"text"`
}

// EditCommentRequest тело запроса PATCH /post/edit-comment/:id
type EditCommentRequest struct {
	CommentID string `json:"commentId"`
	Text      string `json:"text"`
}

// DeleteCommentRequest тело запроса PATCH /post/delete-comment/:id
type DeleteCommentRequest struct {
	CommentID string `json:"commentId"`
}

// EditCommentResult результат позиционного обновления комментария.
// matchedCount равен нулю, если commentId не совпал ни с одним
// комментарием - запрос при этом все равно успешен
type EditCommentResult struct {
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}
