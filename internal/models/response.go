package models

// Error codes returned in ErrorResponse.Code
const (
	ErrCodeBadRequest      = 40001
	ErrCodeValidation      = 40002
	ErrCodeUnauthorized    = 40101
	ErrCodeForbidden       = 40301
	ErrCodeNotFound        = 40401
	ErrCodeDeckNotFound    = 40402
	ErrCodeSceneNotFound   = 40403
	ErrCodeDuplicateDeck   = 40901
	ErrCodeTooManyRequests = 42901
	ErrCodeInternal        = 50001
	ErrCodeUnavailable     = 50301
)

// ErrorResponse - стандартная структура ответа об ошибке.
type ErrorResponse struct {
	Code       int         `json:"code"`
	Message    string      `json:"message"`
	Violations []Violation `json:"violations,omitempty"`
}
