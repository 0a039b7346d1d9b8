package services

import "errors"

// Ошибки сервисного слоя, которые handlers переводят в HTTP-статусы.
var (
	ErrNotFound = errors.New("requested resource not found")

	ErrValidationFailed = errors.New("validation failed")

	// Некорректный формат турнира, неизвестная команда, битые параметры модели
	ErrForecastInvalid    = errors.New("forecast configuration is invalid")
	ErrForecastNotFound   = errors.New("forecast run not found")
	ErrForecastInProgress = errors.New("another forecast run is in progress")
	ErrForecastNotReady   = errors.New("forecast run has not completed")
	ErrModelNotFitted     = errors.New("no fitted rate parameters available")
	ErrFixturesMissing    = errors.New("no group-stage fixtures available")
	ErrUnknownCompetitor  = errors.New("competitor has no fitted rate parameters")

	ErrServiceShuttingDown = errors.New("service is shutting down")

	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")
)
