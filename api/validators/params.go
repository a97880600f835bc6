package validators

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rvillegas/onboardtrack-backend/pkg/enums"
	pkgerrors "github.com/rvillegas/onboardtrack-backend/pkg/errors"
)

// UUIDParam parses a chi path parameter as a UUID.
func UUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid id").WithDetails(map[string]any{"field": name})
	}
	return id, nil
}

// SubjectTypeParam parses the subjectType path parameter.
func SubjectTypeParam(r *http.Request) (enums.SubjectType, error) {
	raw := chi.URLParam(r, "subjectType")
	subjectType, err := enums.ParseSubjectType(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "subject type must be dropshipper or employee")
	}
	return subjectType, nil
}

// IntParam parses a positive integer path parameter.
func IntParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "must be a positive integer").WithDetails(map[string]any{"field": name})
	}
	return value, nil
}
