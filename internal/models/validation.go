package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Violation описывает одно нарушенное ограничение записи.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationResult - результат проверки записи перед записью в БД.
// Пустой список нарушений означает, что запись корректна.
type ValidationResult struct {
	Violations []Violation
}

// Valid reports whether no constraint was violated.
func (r ValidationResult) Valid() bool {
	return len(r.Violations) == 0
}

// Err возвращает *ValidationError или nil.
func (r ValidationResult) Err() error {
	if r.Valid() {
		return nil
	}
	return &ValidationError{Violations: r.Violations}
}

// ValidationError carries the violations of a rejected write. errors.Is(err, ErrValidation) holds.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+" "+v.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ViolationsOf extracts violations from err, if it is a validation error.
func ViolationsOf(err error) []Violation {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Violations
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// В нарушениях используем имена полей коллекции, а не Go-имена.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("bson"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidateDeck проверяет обязательные поля колоды и то, что в каждой сцене ровно два варианта.
// Уникальность game_id проверяет уникальный индекс коллекции.
func ValidateDeck(d *GameDeck) ValidationResult {
	if d == nil {
		return ValidationResult{Violations: []Violation{{Field: "deck", Rule: "required", Message: "is required"}}}
	}
	return toResult(validate.Struct(d))
}

// ValidateChoice проверяет обязательные поля события выбора. Гео-поля необязательны.
func ValidateChoice(c *UserChoice) ValidationResult {
	if c == nil {
		return ValidationResult{Violations: []Violation{{Field: "choice", Rule: "required", Message: "is required"}}}
	}
	return toResult(validate.Struct(c))
}

func toResult(err error) ValidationResult {
	if err == nil {
		return ValidationResult{}
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationResult{Violations: []Violation{{Field: "record", Rule: "invalid", Message: err.Error()}}}
	}
	violations := make([]Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, Violation{
			Field:   fieldPath(fe.Namespace()),
			Rule:    fe.Tag(),
			Message: ruleMessage(fe),
		})
	}
	return ValidationResult{Violations: violations}
}

// fieldPath отрезает имя корневой структуры: "GameDeck.scenes[0].title" -> "scenes[0].title".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "len":
		return fmt.Sprintf("must contain exactly %s items", fe.Param())
	default:
		return fmt.Sprintf("failed rule %q", fe.Tag())
	}
}
