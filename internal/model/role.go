package model

import (
	"fmt"
	"strings"
)

// Role роль учётной записи
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleInstructor Role = "instructor"
	RoleLearner    Role = "learner"
)

// Roles все допустимые роли
var Roles = []Role{RoleAdmin, RoleInstructor, RoleLearner}

// ParseRole разбирает роль из строки. Принимает и старые имена ("teacher", "student").
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "instructor", "teacher":
		return RoleInstructor, nil
	case "learner", "student":
		return RoleLearner, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid проверяет, что роль одна из известных
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleInstructor, RoleLearner:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}
