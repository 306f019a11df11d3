package model

import (
	"strings"
	"time"
)

// Title обращение
type Title string

const (
	TitleMr   Title = "mr"
	TitleMrs  Title = "mrs"
	TitleMiss Title = "miss"
)

type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"` // не криптографический хэш
	Role         Role      `json:"role"`
	Title        Title     `json:"title,omitempty"`
	FirstName    string    `json:"firstName,omitempty"`
	LastName     string    `json:"lastName,omitempty"`
	Email        string    `json:"email,omitempty"`
	DateOfBirth  string    `json:"dateOfBirth,omitempty"`
	Major        string    `json:"major,omitempty"`      // для студентов
	Department   string    `json:"department,omitempty"` // для преподавателей
	TelegramID   int64     `json:"telegramId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsAdmin проверяет роль администратора
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsInstructor проверяет роль преподавателя
func (u *User) IsInstructor() bool {
	return u.Role == RoleInstructor
}

// IsLearner проверяет роль студента
func (u *User) IsLearner() bool {
	return u.Role == RoleLearner
}

// DisplayName возвращает имя для отображения, либо username если имя не задано
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}
