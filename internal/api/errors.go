package api

import (
	"errors"
	"net/http"

	"bq-demo/internal/domain"
)

// httpStatusFromDomainError maps domain errors to HTTP status codes.
func httpStatusFromDomainError(err error) int {
	var notFound *domain.NotFoundError
	var validation *domain.ValidationError
	var conflict *domain.ConflictError
	var unknownField *domain.UnknownFieldError
	var unsupportedOp *domain.UnsupportedOperatorError
	var missingTemporal *domain.MissingTemporalColumnError
	var conflictingProj *domain.ConflictingProjectionError
	var execution *domain.ExecutionError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation),
		errors.As(err, &unknownField),
		errors.As(err, &unsupportedOp),
		errors.As(err, &missingTemporal),
		errors.As(err, &conflictingProj):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &execution):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
