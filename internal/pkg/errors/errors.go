package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrStorageUnavailable используется, когда локальное хранилище не удалось открыть.
	// Такие ошибки логируются и глушатся — операция деградирует до no-op.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrRateLimited используется при превышении лимита запросов.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrTransport используется при разрыве realtime-канала.
	// Клиент сохраняет последний снапшот и помечает его как устаревший.
	ErrTransport = errors.New("transport unavailable")
)
