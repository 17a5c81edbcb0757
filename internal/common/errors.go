package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound           = errors.New("requested resource not found")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrForbidden          = errors.New("forbidden access")
	ErrBadRequest         = errors.New("bad request")
	ErrConflict           = errors.New("resource conflict")
	ErrInternalServer     = errors.New("internal server error")
	ErrValidation         = errors.New("validation failed")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrRateLimited        = errors.New("too many requests")

	ErrSessionAlreadyActive = errors.New("team already has an active challenge session")
	ErrNoActiveSession      = errors.New("no active challenge session")
	ErrSubmissionNotFound   = errors.New("submission not found")
	ErrQuestionNotFound     = errors.New("question not found")
	ErrAttemptLimitExceeded = errors.New("maximum attempts reached")
	ErrJudgeUnavailable     = errors.New("judge service unavailable")
	ErrSandboxConfiguration = errors.New("sandbox is misconfigured")
	ErrInvalidFileExtension = errors.New("file extension not allowed")
	ErrExecutionBusy        = errors.New("another execution is in progress for this submission")
)

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch {
	case errors.Is(err, ErrSessionAlreadyActive), errors.Is(err, ErrExecutionBusy):
		return http.StatusConflict
	case errors.Is(err, ErrNoActiveSession),
		errors.Is(err, ErrSubmissionNotFound),
		errors.Is(err, ErrQuestionNotFound),
		errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAttemptLimitExceeded), errors.Is(err, ErrInvalidFileExtension):
		return http.StatusBadRequest
	case errors.Is(err, ErrJudgeUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, ErrSandboxConfiguration):
		return http.StatusInternalServerError
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" { // Unique violation
			return http.StatusConflict
		}
	}

	return http.StatusInternalServerError
}

// ClientMessage returns the text safe to show an API caller for err.
// Internal failures collapse to a generic message; the cause stays in the logs.
func ClientMessage(err error) string {
	switch HTTPStatusFromError(err) {
	case http.StatusInternalServerError:
		return ErrInternalServer.Error()
	case http.StatusBadGateway:
		return ErrJudgeUnavailable.Error()
	}
	return err.Error()
}

// Errorf creates a new error with formatting, useful for wrapping.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
