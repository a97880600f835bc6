package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rvillegas/onboardtrack-backend/api/responses"
	"github.com/rvillegas/onboardtrack-backend/api/validators"
	"github.com/rvillegas/onboardtrack-backend/internal/comments"
	"github.com/rvillegas/onboardtrack-backend/pkg/enums"
	pkgerrors "github.com/rvillegas/onboardtrack-backend/pkg/errors"
	"github.com/rvillegas/onboardtrack-backend/pkg/logger"
	"github.com/rvillegas/onboardtrack-backend/pkg/pagination"
)

type addCommentRequest struct {
	SubjectID   uuid.UUID `json:"subject_id" validate:"required"`
	SubjectType string    `json:"subject_type" validate:"required"`
	PlanID      uuid.UUID `json:"plan_id" validate:"required"`
	StepID      uuid.UUID `json:"step_id" validate:"required"`
	Text        string    `json:"text" validate:"required,max=4000"`
}

// AddComment appends a feedback entry to a (subject, plan, step) triple.
func AddComment(svc comments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addCommentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		subjectType, err := enums.ParseSubjectType(req.SubjectType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid subject type"))
			return
		}
		comment, err := svc.Add(r.Context(), comments.AddInput{
			SubjectID:   req.SubjectID,
			SubjectType: subjectType,
			PlanID:      req.PlanID,
			StepID:      req.StepID,
			Text:        req.Text,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, comment)
	}
}

// ListComments returns the feed filtered by any combination of subject, plan
// and step, newest first with cursor pagination.
func ListComments(svc comments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := comments.ListParams{}

		if raw := strings.TrimSpace(r.URL.Query().Get("subjectId")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid subjectId"))
				return
			}
			subjectType, err := enums.ParseSubjectType(strings.TrimSpace(r.URL.Query().Get("subjectType")))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "subjectType required with subjectId"))
				return
			}
			params.SubjectID = id
			params.SubjectType = subjectType
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("planId")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid planId"))
				return
			}
			params.PlanID = id
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("stepId")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid stepId"))
				return
			}
			params.StepID = id
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Limit = limit
		params.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
