package trade

import (
	"errors"
	"fmt"

	"hedgebot/internal/models"
)

var (
	ErrInvalidVolume   = errors.New("некорректный объём")
	ErrInvalidPrice    = errors.New("некорректная цена")
	ErrUnsupportedType = errors.New("неподдерживаемый тип ордера")
)

// RejectedError is returned when the terminal answered with a non-success
// return code.
type RejectedError struct {
	Code    models.RetCode
	Comment string
}

func (e *RejectedError) Error() string {
	if e.Comment != "" {
		return fmt.Sprintf("Запрос отклонён терминалом: %s (code=%d, %s)", e.Code, int(e.Code), e.Comment)
	}
	return fmt.Sprintf("Запрос отклонён терминалом: %s (code=%d)", e.Code, int(e.Code))
}

// IsRejected reports whether err carries a terminal rejection with code.
func IsRejected(err error, code models.RetCode) bool {
	var rejected *RejectedError
	return errors.As(err, &rejected) && rejected.Code == code
}
