// Package checkin содержит жизненный цикл кодов отметки: кодек, валидатор,
// ротацию кодов и жизненный цикл сессии.
package checkin

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/Freeeeeet/attendance_bot/internal/model"
)

// ErrMalformedToken общий признак нераспознанного кода
var ErrMalformedToken = errors.New("malformed check-in token")

// DecodeError код не разобран: не та структура или не хватает поля
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode check-in token: %s: %v", e.Reason, e.Err)
	}
	return "decode check-in token: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrMalformedToken
}

// payload формат кода на проводе. Время в миллисекундах.
type payload struct {
	SessionID      *string `json:"sessionId"`
	CourseID       *string `json:"courseId"`
	IssueTime      *int64  `json:"issueTime"`
	ValidityWindow *int64  `json:"validityWindow"`
}

// Encode сериализует код в строку для QR
func Encode(token model.CheckInToken) string {
	issued := token.IssuedAt.UnixMilli()
	validity := token.Validity.Milliseconds()

	p := payload{
		SessionID:      &token.SessionID,
		CourseID:       &token.CourseID,
		IssueTime:      &issued,
		ValidityWindow: &validity,
	}

	// Маршалинг структуры из строк и чисел не может завершиться ошибкой
	data, _ := json.Marshal(p)
	return string(data)
}

// Decode разбирает строку кода. Отсутствующие поля не подставляются по умолчанию.
func Decode(raw string) (model.CheckInToken, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()

	var p payload
	if err := dec.Decode(&p); err != nil {
		return model.CheckInToken{}, &DecodeError{Reason: "not a check-in payload", Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return model.CheckInToken{}, &DecodeError{Reason: "trailing data after payload"}
	}

	switch {
	case p.SessionID == nil || *p.SessionID == "":
		return model.CheckInToken{}, &DecodeError{Reason: "missing sessionId"}
	case p.CourseID == nil || *p.CourseID == "":
		return model.CheckInToken{}, &DecodeError{Reason: "missing courseId"}
	case p.IssueTime == nil:
		return model.CheckInToken{}, &DecodeError{Reason: "missing issueTime"}
	case p.ValidityWindow == nil:
		return model.CheckInToken{}, &DecodeError{Reason: "missing validityWindow"}
	case *p.ValidityWindow <= 0:
		return model.CheckInToken{}, &DecodeError{Reason: "non-positive validityWindow"}
	case *p.ValidityWindow > math.MaxInt64/int64(time.Millisecond):
		return model.CheckInToken{}, &DecodeError{Reason: "validityWindow out of range"}
	}

	return model.CheckInToken{
		SessionID: *p.SessionID,
		CourseID:  *p.CourseID,
		IssuedAt:  time.UnixMilli(*p.IssueTime),
		Validity:  time.Duration(*p.ValidityWindow) * time.Millisecond,
	}, nil
}
