package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Базовые категории ошибок. Конкретные ошибки оборачивают их, чтобы
// HTTP-слой мог сопоставлять по категории через errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
)

var (
	// Ресурсы не найдены
	ErrMatchNotFound      = fmt.Errorf("match %w", ErrNotFound)
	ErrTeamNotFound       = fmt.Errorf("team %w", ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrStatisticsNotFound = fmt.Errorf("statistics %w", ErrNotFound)

	// Ошибки валидации и бизнес-правил
	ErrSelfMatch               = fmt.Errorf("%w: a team cannot play against itself", ErrInvalidInput)
	ErrMatchTeamNotFound       = fmt.Errorf("%w: match references a team that does not exist", ErrInvalidInput)
	ErrInvalidMatchStatus      = fmt.Errorf("%w: unknown match status", ErrInvalidInput)
	ErrInvalidStatusTransition = fmt.Errorf("%w: match status transition not allowed", ErrInvalidInput)
	ErrNegativeScore           = fmt.Errorf("%w: scores must be non-negative", ErrInvalidInput)
	ErrMatchDateRequired       = fmt.Errorf("%w: match date is required", ErrInvalidInput)
	ErrTeamNameRequired        = fmt.Errorf("%w: team name is required", ErrInvalidInput)
	ErrNegativeAggregate       = fmt.Errorf("%w: points and matches played must be non-negative", ErrInvalidInput)
	ErrCaptainNotFound         = fmt.Errorf("%w: captain user does not exist", ErrInvalidInput)
	ErrUserAlreadyInTeam       = fmt.Errorf("%w: user is already in a team", ErrInvalidInput)
	ErrUserNotInTeam           = fmt.Errorf("%w: user is not a member of this team", ErrInvalidInput)
	ErrCannotRemoveCaptain     = fmt.Errorf("%w: cannot remove the team captain", ErrInvalidInput)
	ErrInvalidRole             = fmt.Errorf("%w: unknown user role", ErrInvalidInput)
	ErrUnsupportedContentType  = fmt.Errorf("%w: unsupported logo content type", ErrInvalidInput)
	ErrNoFieldsToUpdate        = fmt.Errorf("%w: no fields provided for update", ErrInvalidInput)

	// Ошибки конфликтов
	ErrTeamNameConflict     = fmt.Errorf("%w: team name is already in use", ErrConflict)
	ErrUserEmailConflict    = fmt.Errorf("%w: email address is already in use", ErrConflict)
	ErrUserNicknameConflict = fmt.Errorf("%w: nickname is already in use", ErrConflict)

	// Аутентификация
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrUploadsDisabled = errors.New("file uploads are not configured")
)

// ValidationError carries per-field messages from struct validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
