package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mohini/user-service/internal/domain/errs"
	"github.com/mohini/user-service/internal/domain/repository"
	"github.com/mohini/user-service/pkg/response"
)

// writeError is the single point translating failures into HTTP responses.
// Typed domain errors map to fixed statuses; storage-level constraint
// violations are reported as such rather than re-interpreted as domain
// duplicates; anything unclassified becomes a generic 500 without leaking
// internal detail.
func writeError(c *gin.Context, err error) {
	var domErr *errs.Error
	if errors.As(err, &domErr) {
		switch domErr.Kind {
		case errs.KindNotFound:
			response.Error(c, http.StatusNotFound, domErr.Code, domErr.Message, nil)
		case errs.KindDuplicate:
			response.Error(c, http.StatusConflict, domErr.Code, domErr.Message, nil)
		case errs.KindValidation:
			response.Error(c, http.StatusBadRequest, domErr.Code, domErr.Message, nil)
		default:
			response.Error(c, http.StatusInternalServerError, errs.CodeUnknownError, "An unexpected error occurred", nil)
		}
		return
	}

	if errors.Is(err, repository.ErrConflict) {
		response.Error(c, http.StatusBadRequest, errs.CodeConstraintViolation, "Data constraint violation", nil)
		return
	}

	response.Error(c, http.StatusInternalServerError, errs.CodeInternalError, "An unexpected error occurred", nil)
}

// writeValidationError reports request-binding failures with per-field details.
func writeValidationError(c *gin.Context, details map[string]string) {
	response.Error(c, http.StatusBadRequest, errs.CodeValidationError, "Input validation failed", details)
}
