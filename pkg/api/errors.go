package api

// ErrorResponse конверт ошибки вида {"error": "..."}
// Часть маршрутов исторически отвечает конвертом {"message": "..."} -
// см. MessageResponse; выбор конверта за конкретным маршрутом сохранен
// намеренно
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse конверт вида {"message": "..."}
type MessageResponse struct {
	Message string `json:"message"`
}
