package handlers

// Ограничения на ввод курса
const (
	CourseCodeMaxLength = 20
	CourseNameMinLength = 3
	CourseNameMaxLength = 100
)

const MsgInternalError = "❌ Произошла ошибка. Попробуйте позже."
