// Package apperr содержит типизированные ошибки прикладного уровня.
//
// Сервисы и хранилище оборачивают их через fmt.Errorf("%s: %w", op, err),
// а HTTP-слой сопоставляет их со статусами ответа через errors.Is.
package apperr

import "errors"

var (
	// ErrNotFound сущность не найдена или помечена удалённой.
	ErrNotFound = errors.New("not found")
	// ErrPaymentIncomplete платёж по сессии не завершён успешно.
	ErrPaymentIncomplete = errors.New("payment not completed")
	// ErrValidation входные данные не прошли проверку.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized отсутствует или неверна аутентификация.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden у пользователя нет прав на операцию.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict нарушено ограничение уникальности.
	ErrConflict = errors.New("already exists")
	// ErrTransient временная ошибка внешней системы, запрос можно повторить.
	ErrTransient = errors.New("temporarily unavailable")
)

// Kind возвращает базовую ошибку таксономии, к которой относится err, либо nil.
func Kind(err error) error {
	for _, kind := range []error{
		ErrNotFound,
		ErrPaymentIncomplete,
		ErrValidation,
		ErrUnauthorized,
		ErrForbidden,
		ErrConflict,
		ErrTransient,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
