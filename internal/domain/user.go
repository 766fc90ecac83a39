package domain

import "github.com/google/uuid"

// AuthUser - идентичность из токена внешнего Auth-сервиса.
// Пользователи живут в User-сервисе, здесь только штамп отправителя.
type AuthUser struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
}

const (
	GlobalRoleUser  = "user"
	GlobalRoleAdmin = "admin"
)
