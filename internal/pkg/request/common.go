package request

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/nekogravitycat/trip-orchestrator/internal/pkg/apperror"
)

var ErrInvalidReference = apperror.New(http.StatusBadRequest, apperror.KindValidation, "id must look like PREFIX-<uuid>")

// ByIDRequest is a common struct for endpoints that require an ID path parameter.
type ByIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// Validate performs custom validation for ByIDRequest.
func (r *ByIDRequest) Validate() error {
	return nil
}

// ByRefRequest is for endpoints addressed by a prefixed id such as
// FLIGHT-<uuid>.
type ByRefRequest struct {
	ID string `uri:"id" binding:"required"`
}

// Validate checks the PREFIX-<uuid> shape. The prefix is upper-case letters.
func (r *ByRefRequest) Validate() error {
	prefix, rest, ok := strings.Cut(r.ID, "-")
	if !ok || prefix == "" || strings.ToUpper(prefix) != prefix || strings.ContainsFunc(prefix, notLetter) {
		return ErrInvalidReference
	}
	if _, err := uuid.Parse(rest); err != nil {
		return ErrInvalidReference
	}
	return nil
}

func notLetter(r rune) bool {
	return r < 'A' || r > 'Z'
}
