package models

import "time"

// Asset описывает медиа-файл, загруженный во внешнее объектное хранилище.
// Возвращается аплоадером и сохраняется вместе с записью как JSON-документ.
type Asset struct {
	URL        string    `json:"url"`        // публичный URL для скачивания
	Key        string    `json:"key"`        // ключ объекта в bucket
	Bucket     string    `json:"bucket"`     // имя bucket
	MimeType   string    `json:"mimeType"`   // content type, переданный клиентом
	Size       int64     `json:"size"`       // размер в байтах
	UploadedAt time.Time `json:"uploadedAt"` // время загрузки
}

// Comment комментарий к посту. ID стабилен с момента создания и
// используется для позиционного редактирования и удаления.
type Comment struct {
	ID              string    `json:"id"`
	CommenterID     string    `json:"commenterId"`
	CommenterPseudo string    `json:"commenterPseudo"`
	Text            string    `json:"text"`
	Timestamp       time.Time `json:"timestamp"`
}

// Post представляет публикацию пользователя.
// Likers дедуплицируются при записи (add-to-set), Comments хранятся
// в порядке добавления.
type Post struct {
	ID         string    `json:"id"`
	Owner      string    `json:"owner"`             // id владельца; ссылочная целостность не проверяется при мутациях
	Message    string    `json:"message"`           // до 320 символов, с обрезанными пробелами
	Picture    *Asset    `json:"picture,omitempty"` // дескриптор загруженного изображения
	Video      string    `json:"video,omitempty"`   // URL видео, передается клиентом как есть
	Likers     []string  `json:"likers"`
	Comments   []Comment `json:"comments"`
	DateOfPost time.Time `json:"dateOfPost"`
}
