package checkin

import (
	"errors"
	"time"

	"github.com/Freeeeeet/attendance_bot/internal/model"
)

// RejectReason почему код не принят
type RejectReason string

const (
	ReasonNone            RejectReason = ""
	ReasonMalformed       RejectReason = "malformed"
	ReasonExpired         RejectReason = "expired"
	ReasonSessionMismatch RejectReason = "session_mismatch"
)

// Verdict результат проверки кода
type Verdict struct {
	Accepted  bool
	SessionID string
	CourseID  string
	Reason    RejectReason
	Err       error // причина для ReasonMalformed
}

func accept(token model.CheckInToken) Verdict {
	return Verdict{Accepted: true, SessionID: token.SessionID, CourseID: token.CourseID}
}

func reject(reason RejectReason, err error) Verdict {
	return Verdict{Reason: reason, Err: err}
}

// Validate проверяет строку кода в момент now для ожидаемой открытой сессии.
// Состояния между вызовами не хранится.
func Validate(raw string, now time.Time, openSessionID string) Verdict {
	token, err := Decode(raw)
	if err != nil {
		return reject(ReasonMalformed, err)
	}
	return ValidateToken(token, now, openSessionID)
}

// ValidateToken то же что Validate, но для уже разобранного кода.
// Граница действия включительная: now == IssuedAt+Validity ещё принимается.
func ValidateToken(token model.CheckInToken, now time.Time, openSessionID string) Verdict {
	age := now.Sub(token.IssuedAt)
	// отрицательный возраст (расхождение часов) считаем истёкшим
	if age < 0 || age > token.Validity {
		return reject(ReasonExpired, nil)
	}

	if token.SessionID != openSessionID {
		return reject(ReasonSessionMismatch, nil)
	}

	return accept(token)
}

// IsMalformed проверяет, что ошибка относится к разбору кода
func IsMalformed(err error) bool {
	var decodeErr *DecodeError
	return errors.As(err, &decodeErr)
}
