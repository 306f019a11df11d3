package model

// Course учебный курс. Ядро переносит только его ID.
type Course struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Code               string `json:"code"`
	InstructorUsername string `json:"instructorUsername"`
}
